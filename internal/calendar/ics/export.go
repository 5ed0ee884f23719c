// Package ics renders calendar events as an iCalendar document for use in
// other calendar applications.
package ics

import (
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/louisbranch/mocalendar/internal/calendar/domain"
)

const productID = "-//mocalendar//calendar export//EN"

// floatingLayout is the ICS date-time form without a zone designator.
// Events carry naive wall-clock times, so exports are floating times that
// render the same on any device.
const floatingLayout = "20060102T150405"

// Export writes the events as a single VCALENDAR document. Events without
// an end time are exported with DTSTART only, matching their open-ended
// scheduling.
func Export(w io.Writer, events []domain.Event) error {
	cal := ical.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ical.MethodPublish)

	now := time.Now()
	for _, event := range events {
		ve := cal.AddEvent(event.ID)
		ve.SetProperty(ical.ComponentPropertyDtstamp, now.UTC().Format(floatingLayout)+"Z")
		ve.SetProperty(ical.ComponentPropertyDtStart, event.StartTime.Format(floatingLayout))
		if event.EndTime != nil {
			ve.SetProperty(ical.ComponentPropertyDtEnd, event.EndTime.Format(floatingLayout))
		}
		ve.SetProperty(ical.ComponentPropertySummary, event.Name)
		if strings.TrimSpace(event.Description) != "" {
			ve.SetProperty(ical.ComponentPropertyDescription, event.Description)
		}
		ve.SetProperty(ical.ComponentPropertyCategories, strings.ToUpper(string(event.Type)))
	}

	if err := cal.SerializeTo(w); err != nil {
		return fmt.Errorf("serialize calendar: %w", err)
	}
	return nil
}
