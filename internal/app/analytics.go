package app

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/jsamuelsen/dice-roller/internal/domain"
	"github.com/jsamuelsen/dice-roller/internal/ports"
)

// AnalyticsDispatcher decouples analytics delivery from request handling.
// Publish enqueues without blocking; background workers forward events to
// the downstream publisher. Events are dropped when the queue is full.
type AnalyticsDispatcher struct {
	downstream ports.EventPublisher
	queue      chan ports.Event
	workers    int
	logger     *slog.Logger

	mu      sync.RWMutex
	closed  bool
	started bool
	done    chan struct{}
	dropped atomic.Int64
}

// AnalyticsDispatcherConfig configures an AnalyticsDispatcher.
type AnalyticsDispatcherConfig struct {
	Downstream ports.EventPublisher
	QueueSize  int
	Workers    int
	Logger     *slog.Logger
}

// NewAnalyticsDispatcher creates a dispatcher. Call Start to begin delivery.
func NewAnalyticsDispatcher(cfg AnalyticsDispatcherConfig) *AnalyticsDispatcher {
	if cfg.Downstream == nil {
		panic("app: AnalyticsDispatcher requires a downstream publisher")
	}

	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &AnalyticsDispatcher{
		downstream: cfg.Downstream,
		queue:      make(chan ports.Event, orDefault(cfg.QueueSize, 256)),
		workers:    orDefault(cfg.Workers, 1),
		logger:     cfg.Logger,
		done:       make(chan struct{}),
	}
}

// Publish implements ports.EventPublisher.
func (d *AnalyticsDispatcher) Publish(_ context.Context, event ports.Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return domain.NewUnavailableError("analytics", "dispatcher closed")
	}

	select {
	case d.queue <- event:
		return nil
	default:
		d.dropped.Add(1)
		return domain.NewUnavailableError("analytics", "queue full")
	}
}

// Start launches the workers. Delivery errors are logged, never fatal.
// The returned channel is closed once every worker has exited.
func (d *AnalyticsDispatcher) Start(ctx context.Context) <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started || d.closed {
		return d.done
	}
	d.started = true

	go func() {
		defer close(d.done)

		err := Drain(ctx, d.workers, d.queue, func(ctx context.Context, ev ports.Event) error {
			if err := d.downstream.Publish(ctx, ev); err != nil {
				d.logger.WarnContext(ctx, "analytics delivery failed",
					slog.String("event", ev.EventType()),
					slog.Any("error", err),
				)
			}

			return nil
		})
		if err != nil && ctx.Err() == nil {
			d.logger.ErrorContext(ctx, "analytics dispatcher stopped", slog.Any("error", err))
		}
	}()

	return d.done
}

// Close stops accepting events and waits until queued events are delivered
// or ctx expires.
func (d *AnalyticsDispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)

		if !d.started {
			close(d.done)
		}
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dropped returns how many events were rejected because the queue was full.
func (d *AnalyticsDispatcher) Dropped() int64 {
	return d.dropped.Load()
}
