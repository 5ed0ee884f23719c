package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/louisbranch/mocalendar/internal/calendar/domain"
	"github.com/louisbranch/mocalendar/internal/calendar/storage"
	"github.com/louisbranch/mocalendar/internal/calendar/telemetry"
	"github.com/louisbranch/mocalendar/internal/platform/id"
)

// Service is the reactive calendar store surface consumed by presentation
// layers. Exactly one Service owns a store handle per process; the
// composition root constructs it and passes it down explicitly.
type Service struct {
	store    storage.EventStore
	registry *registry
	writer   *writer
}

// New creates a Service over the given store. The emitter may be nil to
// disable the audit trail.
func New(store storage.EventStore, emitter *telemetry.Emitter) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("event store is required")
	}
	registry := newRegistry(store)
	return &Service{
		store:    store,
		registry: registry,
		writer:   newWriter(store, registry, emitter),
	}, nil
}

// Close drains enqueued mutations and stops the writer. Subscriptions stop
// receiving deliveries once closed.
func (s *Service) Close() {
	if s == nil {
		return
	}
	s.writer.close()
}

// SubscribeAll opens a live subscription over every stored event, ordered
// by start time.
func (s *Service) SubscribeAll(ctx context.Context) (*Subscription, error) {
	return s.registry.subscribe(ctx, Query{Kind: QueryAll})
}

// SubscribeByID opens a live subscription over a single event. The snapshot
// is empty once the event is deleted.
func (s *Service) SubscribeByID(ctx context.Context, eventID string) (*Subscription, error) {
	return s.registry.subscribe(ctx, Query{Kind: QueryByID, ID: strings.TrimSpace(eventID)})
}

// SubscribeByDay opens a live subscription over events intersecting the 24h
// window of day.
func (s *Service) SubscribeByDay(ctx context.Context, day time.Time) (*Subscription, error) {
	return s.registry.subscribe(ctx, Query{Kind: QueryByDay, Day: day})
}

// SubscribeByRange opens a live subscription over events intersecting
// [start, end).
func (s *Service) SubscribeByRange(ctx context.Context, start, end time.Time) (*Subscription, error) {
	return s.registry.subscribe(ctx, Query{Kind: QueryByRange, RangeStart: start, RangeEnd: end})
}

// Unsubscribe cancels a subscription. Idempotent; never blocks, even while
// a registry sweep is in flight. The registry reaps the entry on its next
// invalidation.
func (s *Service) Unsubscribe(sub *Subscription) {
	sub.Cancel()
}

// SubmitCreate enqueues event creation and returns the pending id with an
// asynchronous completion channel. An empty id is assigned here so callers
// can subscribe to the event before the write lands.
func (s *Service) SubmitCreate(event domain.Event) (string, <-chan error) {
	event = event.Normalized()
	if strings.TrimSpace(event.ID) == "" {
		eventID, err := id.NewID()
		if err != nil {
			return "", failedResult(fmt.Errorf("assign event id: %w", err))
		}
		event.ID = eventID
	}
	pendingID := event.ID
	result := s.writer.enqueue(mutation{
		operation: "create",
		eventID:   pendingID,
		apply: func(ctx context.Context) error {
			return s.store.CreateEvent(ctx, event)
		},
	})
	return pendingID, result
}

// SubmitUpdate enqueues a full-record replace of the event keyed by its id.
func (s *Service) SubmitUpdate(event domain.Event) <-chan error {
	event = event.Normalized()
	return s.writer.enqueue(mutation{
		operation: "update",
		eventID:   event.ID,
		apply: func(ctx context.Context) error {
			return s.store.UpdateEvent(ctx, event)
		},
	})
}

// SubmitDelete enqueues removal of the event with the given id. Deleting an
// id that no longer exists reports storage.ErrNotFound on the completion
// channel.
func (s *Service) SubmitDelete(eventID string) <-chan error {
	eventID = strings.TrimSpace(eventID)
	return s.writer.enqueue(mutation{
		operation: "delete",
		eventID:   eventID,
		apply: func(ctx context.Context) error {
			return s.store.DeleteEvent(ctx, eventID)
		},
	})
}

// GetEvent reads one event directly, bypassing subscriptions. Reads may run
// concurrently with an in-flight write and observe either side of it.
func (s *Service) GetEvent(ctx context.Context, eventID string) (domain.Event, error) {
	return s.store.GetEventByID(ctx, strings.TrimSpace(eventID))
}

// ListEvents reads the full event list directly, ordered by start time.
func (s *Service) ListEvents(ctx context.Context) ([]domain.Event, error) {
	return s.store.ListEvents(ctx)
}

// ListEventsOnDay reads one day's events directly.
func (s *Service) ListEventsOnDay(ctx context.Context, day time.Time) ([]domain.Event, error) {
	return s.store.ListEventsOnDay(ctx, day)
}

// ListEventsBetween reads events intersecting [start, end) directly.
func (s *Service) ListEventsBetween(ctx context.Context, start, end time.Time) ([]domain.Event, error) {
	return s.store.ListEventsBetween(ctx, start, end)
}

func failedResult(err error) <-chan error {
	result := make(chan error, 1)
	result <- err
	close(result)
	return result
}
