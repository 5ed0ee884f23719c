package domain

import "time"

// naiveZone carries naive wall-clock values. Times are rebuilt from their
// clock fields on ingestion, so the original zone never leaks into storage
// or comparisons.
var naiveZone = time.UTC

// NormalizeTime reduces t to a naive wall-clock value at minute granularity.
func NormalizeTime(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), 0, 0, naiveZone)
}

// DayWindow returns the half-open 24h window [d 00:00, d+1 00:00) containing
// the calendar date of d.
func DayWindow(d time.Time) (start, end time.Time) {
	start = time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, naiveZone)
	return start, start.AddDate(0, 0, 1)
}

// MergeDateAndTime combines the calendar date of datePart with the
// time-of-day of timePart.
func MergeDateAndTime(datePart, timePart time.Time) time.Time {
	return time.Date(
		datePart.Year(), datePart.Month(), datePart.Day(),
		timePart.Hour(), timePart.Minute(), 0, 0, naiveZone,
	)
}

// ApplyDate replaces the calendar date of the event's start time, keeping its
// time-of-day. A present end time moves to a date shifted by the same number
// of days it sat after the start date, so multi-day spans survive the move.
func ApplyDate(e Event, newDate time.Time) Event {
	e = e.Normalized()
	newDate = NormalizeTime(newDate)

	if e.EndTime != nil {
		dayDelta := daysBetweenDates(e.StartTime, *e.EndTime)
		end := MergeDateAndTime(newDate.AddDate(0, 0, dayDelta), *e.EndTime)
		e.EndTime = &end
	}
	e.StartTime = MergeDateAndTime(newDate, e.StartTime)
	return e
}

// ApplyStartTime replaces the time-of-day of the event's start time, keeping
// its date. A present end time shifts by the same delta, preserving the
// interval duration.
func ApplyStartTime(e Event, newTimeOfDay time.Time) Event {
	e = e.Normalized()

	newStart := MergeDateAndTime(e.StartTime, newTimeOfDay)
	if e.EndTime != nil {
		end := e.EndTime.Add(newStart.Sub(e.StartTime))
		e.EndTime = &end
	}
	e.StartTime = newStart
	return e
}

// ApplyEndTime replaces the time-of-day of the event's end time, keeping its
// date, or adopting the start date when the event had no end time. An end
// that would precede the start rolls forward to the next day until the
// interval is valid; the start time never moves.
func ApplyEndTime(e Event, newTimeOfDay time.Time) Event {
	e = e.Normalized()

	base := e.StartTime
	if e.EndTime != nil {
		base = *e.EndTime
	}
	end := MergeDateAndTime(base, newTimeOfDay)
	for end.Before(e.StartTime) {
		end = end.AddDate(0, 0, 1)
	}
	e.EndTime = &end
	return e
}

// ApplyType replaces the event category. No temporal effect.
func ApplyType(e Event, newType EventType) Event {
	e = e.Normalized()
	if newType.Valid() {
		e.Type = newType
	}
	return e
}

// daysBetweenDates counts whole calendar days from a's date to b's date.
func daysBetweenDates(a, b time.Time) int {
	aDay := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, naiveZone)
	bDay := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, naiveZone)
	return int(bDay.Sub(aDay) / (24 * time.Hour))
}
