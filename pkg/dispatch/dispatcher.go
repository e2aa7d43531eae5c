// Package dispatch fans inbound events out to worker goroutines while keeping
// the events of one conversation in arrival order.
//
// Each active conversation owns a FIFO queue drained by a single goroutine.
// The goroutine exits when its queue runs dry, so idle conversations cost
// nothing. A global limit bounds how many events are handled at once.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/aretw0/colloquy/internal/logging"
	"github.com/aretw0/colloquy/pkg/domain"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
)

// DefaultWorkers is the default global concurrency limit.
const DefaultWorkers = 16

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("dispatcher is closed")

// Handler processes one event.
type Handler func(ctx context.Context, ev domain.Event) error

// Dispatcher serializes events per conversation and runs conversations concurrently.
type Dispatcher struct {
	handle Handler
	sem    chan struct{}
	logger *slog.Logger

	mu     sync.Mutex
	queues map[string][]queued
	closed bool
	wg     conc.WaitGroup
}

type queued struct {
	ctx context.Context
	ev  domain.Event
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithWorkers bounds how many events are handled at the same time.
func WithWorkers(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.sem = make(chan struct{}, n)
		}
	}
}

// WithLogger sets the logger for handler failures.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// New creates a Dispatcher calling handle for every submitted event.
func New(handle Handler, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		handle: handle,
		sem:    make(chan struct{}, DefaultWorkers),
		logger: logging.NewNop(),
		queues: make(map[string][]queued),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Submit enqueues an event and returns immediately.
// The handler receives a context that keeps ctx's values but not its cancellation,
// so a finished HTTP request does not abort the turn it queued.
func (d *Dispatcher) Submit(ctx context.Context, ev domain.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}

	id := ev.ConversationID
	q, active := d.queues[id]
	d.queues[id] = append(q, queued{ctx: context.WithoutCancel(ctx), ev: ev})
	if !active {
		d.wg.Go(func() { d.drain(id) })
	}
	return nil
}

// Pending returns the number of conversations with queued or running events.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queues)
}

// Close stops accepting events and waits for queued ones to be handled.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.wg.Wait()
}

// drain handles the events of one conversation until its queue is empty.
// The queue entry stays in the map while an event is running, which keeps
// Submit from starting a second goroutine for the same conversation.
func (d *Dispatcher) drain(id string) {
	for {
		d.mu.Lock()
		q := d.queues[id]
		if len(q) == 0 {
			delete(d.queues, id)
			d.mu.Unlock()
			return
		}
		next := q[0]
		d.queues[id] = q[1:]
		d.mu.Unlock()

		d.sem <- struct{}{}
		d.run(next)
		<-d.sem
	}
}

func (d *Dispatcher) run(item queued) {
	var pc panics.Catcher
	pc.Try(func() {
		if err := d.handle(item.ctx, item.ev); err != nil {
			d.logger.Error("Failed to handle event", "conversation_id", item.ev.ConversationID, "err", err)
		}
	})
	if r := pc.Recovered(); r != nil {
		d.logger.Error("Event handler panicked", "conversation_id", item.ev.ConversationID, "err", r.AsError())
	}
}
