package audit

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Config controls how the dispatcher buffers clinical audit events.
type Config struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// Dispatcher decouples audit emission from the session flows. Flows
// hand an event over and move on; a single delivery goroutine feeds
// the sink. Events record clinical access history, so Close drains
// the buffer instead of discarding it, and every dropped event is
// counted and logged.
type Dispatcher struct {
	sink       Sink
	logger     *zap.Logger
	dropIfFull bool

	events  chan Event
	done    chan struct{}
	drained chan struct{}

	dropped atomic.Uint64
	closed  atomic.Bool
	once    sync.Once
}

// NewDispatcher starts the delivery goroutine. A disabled config
// returns nil; the nil *Dispatcher accepts and discards everything,
// so callers never branch on the audit setting.
func NewDispatcher(cfg Config, sink Sink, logger *zap.Logger) *Dispatcher {
	if !cfg.Enabled {
		return nil
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 1
	}
	if sink == nil {
		sink = NoOpSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	d := &Dispatcher{
		sink:       sink,
		logger:     logger,
		dropIfFull: cfg.DropIfFull,
		events:     make(chan Event, cfg.BufferSize),
		done:       make(chan struct{}),
		drained:    make(chan struct{}),
	}

	go d.deliver()

	return d
}

func (d *Dispatcher) deliver() {
	defer close(d.drained)

	for {
		select {
		case ev := <-d.events:
			d.sink.Emit(context.Background(), ev)
		case <-d.done:
			d.drain()
			return
		}
	}
}

// drain flushes whatever is still buffered at close time.
func (d *Dispatcher) drain() {
	for {
		select {
		case ev := <-d.events:
			d.sink.Emit(context.Background(), ev)
		default:
			return
		}
	}
}

// Emit queues an event for delivery. With DropIfFull set a full buffer
// drops the event rather than stalling the session flow; otherwise
// Emit blocks until there is room, the context ends, or the dispatcher
// closes.
func (d *Dispatcher) Emit(ctx context.Context, ev Event) {
	if d == nil || d.closed.Load() {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	if d.dropIfFull {
		select {
		case d.events <- ev:
		case <-d.done:
		default:
			total := d.dropped.Add(1)
			d.logger.Warn("audit buffer full, dropping event",
				zap.String("event_type", ev.EventType),
				zap.Uint64("dropped_total", total))
		}
		return
	}

	select {
	case d.events <- ev:
	case <-ctx.Done():
	case <-d.done:
	}
}

// Close stops intake, drains the buffer through the sink, and waits
// for the delivery goroutine to exit. Safe to call more than once.
func (d *Dispatcher) Close() {
	if d == nil {
		return
	}
	d.once.Do(func() {
		d.closed.Store(true)
		close(d.done)
		<-d.drained
	})
}

// Dropped reports how many events were discarded on a full buffer.
func (d *Dispatcher) Dropped() uint64 {
	if d == nil {
		return 0
	}
	return d.dropped.Load()
}
