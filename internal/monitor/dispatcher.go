package monitor

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/somiljain2006/EverWake/internal/domain"
)

// Sink consumes monitor events. Publish runs on the dispatcher goroutine;
// slow sinks should queue internally.
type Sink interface {
	Publish(ctx context.Context, event domain.Event) error
}

type namedSink struct {
	name string
	sink Sink
}

// Dispatcher fans events out to sinks from a bounded queue so the monitor
// loop never waits on I/O.
type Dispatcher struct {
	queue   chan domain.Event
	sinks   []namedSink
	logger  *slog.Logger
	timeout time.Duration
	dropped atomic.Uint64
	done    chan struct{}
}

func NewDispatcher(logger *slog.Logger, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 1024
	}
	return &Dispatcher{
		queue:   make(chan domain.Event, buffer),
		logger:  logger,
		timeout: 5 * time.Second,
		done:    make(chan struct{}),
	}
}

// Register adds a sink. It must be called before Run.
func (d *Dispatcher) Register(name string, sink Sink) {
	d.sinks = append(d.sinks, namedSink{name: name, sink: sink})
}

func (d *Dispatcher) Emit(event domain.Event) {
	select {
	case d.queue <- event:
	default:
		d.dropped.Add(1)
		d.logger.Warn("event queue full, dropping event", "type", event.Type, "event_id", event.ID)
	}
}

func (d *Dispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

// Run delivers events until ctx is cancelled, then flushes what is queued.
func (d *Dispatcher) Run(ctx context.Context) {
	defer close(d.done)

	for {
		select {
		case <-ctx.Done():
			d.drain()
			return
		case event := <-d.queue:
			d.deliver(ctx, event)
		}
	}
}

func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

func (d *Dispatcher) drain() {
	for {
		select {
		case event := <-d.queue:
			d.deliver(context.Background(), event)
		default:
			return
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, event domain.Event) {
	for _, s := range d.sinks {
		sinkCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.timeout)
		if err := s.sink.Publish(sinkCtx, event); err != nil {
			d.logger.Error("sink failed",
				"sink", s.name,
				"type", event.Type,
				"event_id", event.ID,
				"error", err,
			)
		}
		cancel()
	}
}
