package metrics

import (
	"context"
	"log/slog"
	"time"
)

type EventType string

const (
	EventRenderStarted   EventType = "render_started"
	EventRenderSucceeded EventType = "render_succeeded"
	EventRenderFailed    EventType = "render_failed"
)

type MetricEvent struct {
	Type      EventType
	Timestamp time.Time
	Job       string
	Duration  time.Duration
	Reason    string
}

type Collector struct {
	eventCh chan MetricEvent
	metrics *Metrics
	logger  *slog.Logger
	done    chan struct{}
}

func NewCollector(bufferSize int, logger *slog.Logger) *Collector {
	return &Collector{
		eventCh: make(chan MetricEvent, bufferSize),
		metrics: NewMetrics(),
		logger:  logger,
		done:    make(chan struct{}),
	}
}

func (c *Collector) EventChannel() chan<- MetricEvent {
	return c.eventCh
}

// Emit queues an event without blocking. Events are dropped when the buffer
// is full.
func (c *Collector) Emit(event MetricEvent) {
	if c == nil {
		return
	}

	select {
	case c.eventCh <- event:
	default:
	}
}

func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

// Done is closed once the collector has drained its queue after ctx ends.
func (c *Collector) Done() <-chan struct{} {
	return c.done
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Debug("Metrics collector started")
	defer c.logger.Debug("Metrics collector stopped")
	defer close(c.done)

	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		case <-ctx.Done():
			c.drain()
			return
		}
	}
}

func (c *Collector) processEvent(event MetricEvent) {
	switch event.Type {
	case EventRenderStarted:
		c.metrics.IncrementRenders(event.Job)

	case EventRenderSucceeded:
		c.metrics.RecordSuccess(event.Job, event.Duration)

	case EventRenderFailed:
		c.metrics.RecordFailure(event.Job, event.Duration, event.Reason)
	}
}

func (c *Collector) drain() {
	for {
		select {
		case event := <-c.eventCh:
			c.processEvent(event)
		default:
			return
		}
	}
}

func (c *Collector) Snapshot(namespace string) Snapshot {
	return c.metrics.Snapshot(namespace)
}
