// Package app composes the calendar store into a reactive service: live
// query subscriptions fed by a single serialized writer.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/mocalendar/internal/calendar/domain"
	"github.com/louisbranch/mocalendar/internal/calendar/storage"
)

// ErrInvalidQuery indicates a malformed query descriptor, rejected before
// the store is touched.
var ErrInvalidQuery = errors.New("invalid query")

// QueryKind identifies one live query shape.
type QueryKind string

const (
	// QueryAll matches every stored event.
	QueryAll QueryKind = "all"
	// QueryByID matches at most one event by id.
	QueryByID QueryKind = "by_id"
	// QueryByDay matches events intersecting one 24h day window.
	QueryByDay QueryKind = "by_day"
	// QueryByRange matches events intersecting a half-open time window.
	QueryByRange QueryKind = "by_range"
)

// Query describes one subscribable store query.
type Query struct {
	Kind QueryKind

	// ID is set for QueryByID.
	ID string
	// Day is set for QueryByDay; only its date component matters.
	Day time.Time
	// RangeStart and RangeEnd bound QueryByRange as [RangeStart, RangeEnd).
	RangeStart time.Time
	RangeEnd   time.Time
}

// Validate rejects malformed descriptors synchronously.
func (q Query) Validate() error {
	switch q.Kind {
	case QueryAll:
		return nil
	case QueryByID:
		if strings.TrimSpace(q.ID) == "" {
			return fmt.Errorf("%w: event id is required", ErrInvalidQuery)
		}
		return nil
	case QueryByDay:
		if q.Day.IsZero() {
			return fmt.Errorf("%w: day is required", ErrInvalidQuery)
		}
		return nil
	case QueryByRange:
		if q.RangeStart.IsZero() || q.RangeEnd.IsZero() {
			return fmt.Errorf("%w: range bounds are required", ErrInvalidQuery)
		}
		if domain.NormalizeTime(q.RangeEnd).Before(domain.NormalizeTime(q.RangeStart)) {
			return fmt.Errorf("%w: range end precedes range start", ErrInvalidQuery)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown query kind %q", ErrInvalidQuery, q.Kind)
	}
}

// run evaluates the query against the store. A by-id query for a deleted
// event yields an empty snapshot rather than an error, so subscribers
// observe the removal.
func (q Query) run(ctx context.Context, store storage.EventStore) ([]domain.Event, error) {
	switch q.Kind {
	case QueryAll:
		return store.ListEvents(ctx)
	case QueryByID:
		event, err := store.GetEventByID(ctx, q.ID)
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return []domain.Event{event}, nil
	case QueryByDay:
		return store.ListEventsOnDay(ctx, q.Day)
	case QueryByRange:
		return store.ListEventsBetween(ctx, domain.NormalizeTime(q.RangeStart), domain.NormalizeTime(q.RangeEnd))
	default:
		return nil, fmt.Errorf("%w: unknown query kind %q", ErrInvalidQuery, q.Kind)
	}
}
