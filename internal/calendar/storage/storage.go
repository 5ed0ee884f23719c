// Package storage defines the persistence contracts for the calendar event
// store and its audit trail.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/louisbranch/mocalendar/internal/calendar/domain"
)

var (
	// ErrNotFound indicates a requested event record is missing. Callers use
	// this to differentiate legitimate "no such event" states from transport
	// or data corruption failures.
	ErrNotFound = errors.New("event not found")
	// ErrConflict indicates a write collided with an existing id.
	ErrConflict = errors.New("event id conflict")
)

// EventStore persists calendar events keyed by id.
//
// Every successful mutation is visible to subsequently issued reads. The
// store itself performs no fan-out; the app layer serializes writes and
// re-runs live queries after each one.
type EventStore interface {
	CreateEvent(ctx context.Context, event domain.Event) error
	GetEventByID(ctx context.Context, id string) (domain.Event, error)
	ListEvents(ctx context.Context) ([]domain.Event, error)
	ListEventsOnDay(ctx context.Context, day time.Time) ([]domain.Event, error)
	ListEventsBetween(ctx context.Context, start, end time.Time) ([]domain.Event, error)
	UpdateEvent(ctx context.Context, event domain.Event) error
	DeleteEvent(ctx context.Context, id string) error
}

// AuditEvent records one applied mutation for the operational audit trail.
type AuditEvent struct {
	Timestamp time.Time
	Operation string
	EventID   string
	Severity  string
	Detail    string
}

// TelemetryStore persists operational audit events.
type TelemetryStore interface {
	AppendAuditEvent(ctx context.Context, evt AuditEvent) error
	ListAuditEvents(ctx context.Context, limit int) ([]AuditEvent, error)
}
