package app

import (
	"context"
	"log"
	"sync"

	"github.com/louisbranch/mocalendar/internal/calendar/domain"
	"github.com/louisbranch/mocalendar/internal/calendar/storage"
	"github.com/louisbranch/mocalendar/internal/platform/id"
)

// Subscription is a live registration for one query. Snapshots arrive on
// Updates; Done closes after Cancel. Cancel is idempotent and never blocks
// on the writer.
type Subscription struct {
	query Query

	updates  chan []domain.Event
	done     chan struct{}
	doneOnce sync.Once
}

// Updates returns the snapshot channel. Each value is the full current
// result set for the subscription's query; rapid mutations may coalesce so
// only the latest snapshot is pending at any time.
func (s *Subscription) Updates() <-chan []domain.Event {
	return s.updates
}

// Done returns a channel closed once the subscription is cancelled.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Cancel stops future deliveries. Safe to call multiple times and while a
// delivery is in flight.
func (s *Subscription) Cancel() {
	if s == nil {
		return
	}
	s.doneOnce.Do(func() { close(s.done) })
}

func (s *Subscription) cancelled() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// registry tracks active subscriptions and re-runs their queries against
// the store after every mutation. Deliveries are totally ordered by the
// registry mutex, so each subscription observes snapshots in mutation order.
type registry struct {
	store storage.EventStore

	mu   sync.Mutex
	subs map[string]*Subscription
}

func newRegistry(store storage.EventStore) *registry {
	return &registry{
		store: store,
		subs:  make(map[string]*Subscription),
	}
}

// subscribe validates the query, registers the subscription, and delivers
// the current result set before any later mutation can be observed.
func (r *registry) subscribe(ctx context.Context, query Query) (*Subscription, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	subID, err := id.NewID()
	if err != nil {
		return nil, err
	}

	sub := &Subscription{
		query:   query,
		updates: make(chan []domain.Event, 1),
		done:    make(chan struct{}),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	events, err := query.run(ctx, r.store)
	if err != nil {
		return nil, err
	}
	r.subs[subID] = sub
	deliver(sub, events)
	return sub, nil
}

// invalidate re-runs every live query and redelivers. Runs on the writer
// after each successful mutation, before the next mutation starts.
// Cancelled subscriptions are reaped here so cancellation itself never has
// to take the registry mutex.
func (r *registry) invalidate(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for subID, sub := range r.subs {
		if sub.cancelled() {
			delete(r.subs, subID)
			continue
		}
		events, err := sub.query.run(ctx, r.store)
		if err != nil {
			// A failed read affects only this delivery; the next mutation
			// re-evaluates the query again.
			log.Printf("re-evaluate subscription %s: %v", subID, err)
			continue
		}
		deliver(sub, events)
	}
}

// deliver replaces any undrained snapshot with the latest one. Callers hold
// the registry mutex, so at most one delivery runs at a time.
func deliver(sub *Subscription, events []domain.Event) {
	for {
		select {
		case sub.updates <- events:
			return
		default:
			select {
			case <-sub.updates:
			default:
			}
		}
	}
}
