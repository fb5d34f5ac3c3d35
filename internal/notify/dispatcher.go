// Package notify fans committed catalog change events out to sinks: the
// audit trail, MQTT, InfluxDB and connected WebSocket clients.
//
// Registries call Notify after their transaction commits. Notify never
// blocks; events are queued and delivered by Run on its own goroutine. When
// the queue is full the event is dropped and a warning is logged.
package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nerrad567/domotica-core/internal/catalog"
)

// Defaults for NewDispatcher.
const (
	DefaultQueueSize   = 256
	DefaultSinkTimeout = 5 * time.Second
)

// Sink receives every dispatched event.
type Sink interface {
	Name() string
	Handle(ctx context.Context, ev catalog.Event) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc struct {
	SinkName string
	Fn       func(ctx context.Context, ev catalog.Event) error
}

// Name implements Sink.
func (f SinkFunc) Name() string { return f.SinkName }

// Handle implements Sink.
func (f SinkFunc) Handle(ctx context.Context, ev catalog.Event) error { return f.Fn(ctx, ev) }

// Dispatcher is an asynchronous catalog.Notifier.
type Dispatcher struct {
	queue       chan catalog.Event
	sinkTimeout time.Duration
	logger      catalog.Logger

	mu    sync.RWMutex
	sinks []Sink

	dropped   atomic.Uint64
	delivered atomic.Uint64
}

var _ catalog.Notifier = (*Dispatcher)(nil)

// NewDispatcher creates a dispatcher with a queue of queueSize events.
// A non-positive size uses DefaultQueueSize.
func NewDispatcher(queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Dispatcher{
		queue:       make(chan catalog.Event, queueSize),
		sinkTimeout: DefaultSinkTimeout,
		logger:      catalog.NopLogger{},
	}
}

// SetLogger sets the logger for delivery failures and drops.
func (d *Dispatcher) SetLogger(logger catalog.Logger) {
	if logger != nil {
		d.logger = logger
	}
}

// SetSinkTimeout bounds how long one sink may take per event.
func (d *Dispatcher) SetSinkTimeout(timeout time.Duration) {
	if timeout > 0 {
		d.sinkTimeout = timeout
	}
}

// AddSink registers a sink. Sinks added while Run is active receive events
// dispatched after the call.
func (d *Dispatcher) AddSink(s Sink) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sinks = append(d.sinks, s)
}

// Notify queues an event for delivery. It never blocks.
func (d *Dispatcher) Notify(ev catalog.Event) {
	select {
	case d.queue <- ev:
	default:
		d.dropped.Add(1)
		d.logger.Warn("event queue full, dropping event",
			"event_type", ev.Type,
			"entity_id", ev.EntityID,
		)
	}
}

// Run delivers queued events until ctx is cancelled, then drains whatever is
// still queued before returning.
func (d *Dispatcher) Run(ctx context.Context) error {
	for {
		select {
		case ev := <-d.queue:
			d.deliver(ev)
		case <-ctx.Done():
			for {
				select {
				case ev := <-d.queue:
					d.deliver(ev)
				default:
					return nil
				}
			}
		}
	}
}

// deliver hands ev to every sink concurrently. A failing sink is logged and
// does not affect the others.
func (d *Dispatcher) deliver(ev catalog.Event) {
	d.mu.RLock()
	sinks := append([]Sink(nil), d.sinks...)
	d.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), d.sinkTimeout)
	defer cancel()

	var g errgroup.Group
	for _, s := range sinks {
		g.Go(func() error {
			if err := s.Handle(ctx, ev); err != nil {
				d.logger.Error("event sink failed",
					"sink", s.Name(),
					"event_type", ev.Type,
					"entity_id", ev.EntityID,
					"error", err,
				)
			}
			return nil
		})
	}
	g.Wait() //nolint:errcheck // sink errors are logged above
	d.delivered.Add(1)
}

// Stats is a snapshot of dispatcher counters.
type Stats struct {
	Queued    int    `json:"queued"`
	Delivered uint64 `json:"delivered"`
	Dropped   uint64 `json:"dropped"`
	Sinks     int    `json:"sinks"`
}

// Stats returns the current counters.
func (d *Dispatcher) Stats() Stats {
	d.mu.RLock()
	sinks := len(d.sinks)
	d.mu.RUnlock()
	return Stats{
		Queued:    len(d.queue),
		Delivered: d.delivered.Load(),
		Dropped:   d.dropped.Load(),
		Sinks:     sinks,
	}
}
