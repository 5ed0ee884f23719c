// Package domain defines the calendar event entity and the scheduling rules
// that keep its start and end timestamps consistent under piecemeal edits.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// EventType identifies one calendar event category.
type EventType string

const (
	// TypeEvent is the generic event category and the default.
	TypeEvent EventType = "event"
	// TypeAssignment represents an assignment due entry.
	TypeAssignment EventType = "assignment"
	// TypeClass represents a class meeting.
	TypeClass EventType = "class"
	// TypeExam represents an exam sitting.
	TypeExam EventType = "exam"
)

// IconRef returns the display icon reference for the event type.
func (t EventType) IconRef() string {
	switch t {
	case TypeAssignment:
		return "icons/assignment"
	case TypeClass:
		return "icons/class"
	case TypeExam:
		return "icons/exam"
	default:
		return "icons/event"
	}
}

// Valid reports whether the event type belongs to the closed category set.
func (t EventType) Valid() bool {
	switch t {
	case TypeEvent, TypeAssignment, TypeClass, TypeExam:
		return true
	}
	return false
}

// ParseEventType maps a raw token to an event type.
func ParseEventType(raw string) (EventType, error) {
	t := EventType(strings.ToLower(strings.TrimSpace(raw)))
	if t == "" {
		return TypeEvent, nil
	}
	if !t.Valid() {
		return "", fmt.Errorf("unknown event type %q", raw)
	}
	return t, nil
}

// Event is the persisted calendar record.
//
// Timestamps are naive local wall-clock values at minute granularity; no
// timezone conversion is ever applied. A nil EndTime means a point event.
type Event struct {
	ID          string
	Name        string
	Description string
	Type        EventType
	StartTime   time.Time
	EndTime     *time.Time
}

// NewEvent creates a working copy for a generic event starting at start with
// a one-hour end time. The id is assigned on submission.
func NewEvent(start time.Time) Event {
	start = NormalizeTime(start)
	end := start.Add(time.Hour)
	return Event{Type: TypeEvent, StartTime: start, EndTime: &end}
}

// NewAssignment creates a working copy for an assignment due at start, with
// no end time.
func NewAssignment(start time.Time) Event {
	return Event{Type: TypeAssignment, StartTime: NormalizeTime(start)}
}

// Normalized returns a copy with timestamps reduced to naive minute
// granularity and an empty type replaced by the generic category.
func (e Event) Normalized() Event {
	e.Name = strings.TrimSpace(e.Name)
	if e.Type == "" {
		e.Type = TypeEvent
	}
	if e.StartTime.IsZero() {
		e.StartTime = time.Now()
	}
	e.StartTime = NormalizeTime(e.StartTime)
	if e.EndTime != nil {
		end := NormalizeTime(*e.EndTime)
		e.EndTime = &end
	}
	return e
}

// Validate checks the entity invariants after normalization.
func (e Event) Validate() error {
	if !e.Type.Valid() {
		return fmt.Errorf("invalid event type %q", e.Type)
	}
	if e.StartTime.IsZero() {
		return fmt.Errorf("start time is required")
	}
	if e.EndTime != nil && e.EndTime.Before(e.StartTime) {
		return fmt.Errorf("end time precedes start time")
	}
	return nil
}

// EffectiveEnd returns the end time, or the start time for point events.
func (e Event) EffectiveEnd() time.Time {
	if e.EndTime == nil {
		return e.StartTime
	}
	return *e.EndTime
}

// IntersectsRange reports whether the event interval touches the half-open
// window [start, end). An empty window intersects nothing.
func (e Event) IntersectsRange(start, end time.Time) bool {
	if !start.Before(end) {
		return false
	}
	return e.StartTime.Before(end) && !e.EffectiveEnd().Before(start)
}
