package app

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/louisbranch/mocalendar/internal/calendar/storage"
	"github.com/louisbranch/mocalendar/internal/calendar/telemetry"
)

// ErrWriterClosed indicates a mutation was submitted after the service shut
// down. Mutations already enqueued before shutdown still apply.
var ErrWriterClosed = errors.New("writer is closed")

type mutation struct {
	operation string
	eventID   string
	apply     func(ctx context.Context) error
	result    chan error
}

// writer is the single logical writer: mutations enqueue without blocking
// the caller and apply strictly in submission order on one worker goroutine.
// After each successful mutation the query registry re-evaluates before the
// next mutation starts.
type writer struct {
	store    storage.EventStore
	registry *registry
	emitter  *telemetry.Emitter

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	wake   chan struct{}

	mu     sync.Mutex
	queue  []mutation
	closed bool
}

func newWriter(store storage.EventStore, registry *registry, emitter *telemetry.Emitter) *writer {
	ctx, cancel := context.WithCancel(context.Background())
	w := &writer{
		store:    store,
		registry: registry,
		emitter:  emitter,
		ctx:      ctx,
		cancel:   cancel,
		wake:     make(chan struct{}, 1),
	}
	w.wg.Add(1)
	go w.run()
	return w
}

// enqueue hands a mutation to the worker and returns its completion channel.
// The channel receives exactly one value and is then closed.
func (w *writer) enqueue(m mutation) <-chan error {
	m.result = make(chan error, 1)

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		m.result <- ErrWriterClosed
		close(m.result)
		return m.result
	}
	w.queue = append(w.queue, m)
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
	return m.result
}

func (w *writer) run() {
	defer w.wg.Done()
	for {
		w.drain()

		w.mu.Lock()
		done := w.closed && len(w.queue) == 0
		w.mu.Unlock()
		if done {
			return
		}
		<-w.wake
	}
}

func (w *writer) drain() {
	for {
		w.mu.Lock()
		if len(w.queue) == 0 {
			w.mu.Unlock()
			return
		}
		m := w.queue[0]
		w.queue = w.queue[1:]
		w.mu.Unlock()

		err := m.apply(w.ctx)
		if err == nil {
			// Subscribers observe the new state before the next mutation.
			w.registry.invalidate(w.ctx)
		}
		w.audit(m, err)
		m.result <- err
		close(m.result)
	}
}

func (w *writer) audit(m mutation, applyErr error) {
	evt := storage.AuditEvent{
		Operation: m.operation,
		EventID:   m.eventID,
		Severity:  string(telemetry.SeverityInfo),
	}
	if applyErr != nil {
		evt.Severity = string(telemetry.SeverityError)
		evt.Detail = applyErr.Error()
	}
	if err := w.emitter.Emit(w.ctx, evt); err != nil {
		log.Printf("emit audit event for %s: %v", m.operation, err)
	}
}

// close stops accepting mutations, waits for the queue to drain, and stops
// the worker. Mutations enqueued before close still apply in order.
func (w *writer) close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
	w.wg.Wait()
	w.cancel()
}
