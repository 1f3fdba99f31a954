package metrics

import (
	"context"
	"log/slog"
	"time"
)

type EventType string

const (
	EventRequestCompleted EventType = "request_completed"
	EventTodoCreated      EventType = "todo_created"
	EventTodoUpdated      EventType = "todo_updated"
	EventTodoDeleted      EventType = "todo_deleted"
	EventTodosCleared     EventType = "todos_cleared"
)

type MetricEvent struct {
	Type       EventType
	Timestamp  time.Time
	Method     string
	Route      string
	StatusCode int
	Duration   time.Duration
}

type Collector struct {
	eventCh chan MetricEvent
	metrics *Metrics
	logger  *slog.Logger
}

func NewCollector(bufferSize int, logger *slog.Logger) *Collector {
	return &Collector{
		eventCh: make(chan MetricEvent, bufferSize),
		metrics: NewMetrics(),
		logger:  logger,
	}
}

func (c *Collector) EventChannel() chan<- MetricEvent {
	return c.eventCh
}

func (c *Collector) Metrics() *Metrics {
	return c.metrics
}

// Emit queues an event without blocking. Events are dropped when the buffer
// is full. A nil collector ignores every event.
func (c *Collector) Emit(event MetricEvent) {
	if c == nil {
		return
	}

	select {
	case c.eventCh <- event:
	default:
		c.logger.Debug("Metrics buffer full, dropping event", slog.String("type", string(event.Type)))
	}
}

func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Collector) run(ctx context.Context) {
	c.logger.Info("Metrics collector started")
	defer c.logger.Info("Metrics collector stopped")

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
	case EventRequestCompleted:
		c.metrics.RecordRequest(event.Method, event.Route, event.StatusCode, event.Duration)

	case EventTodoCreated:
		c.metrics.TodosCreated.Inc()

	case EventTodoUpdated:
		c.metrics.TodosUpdated.Inc()

	case EventTodoDeleted:
		c.metrics.TodosDeleted.Inc()

	case EventTodosCleared:
		c.metrics.TodosCleared.Inc()

	default:
		c.logger.Warn("Unknown metric event", slog.String("type", string(event.Type)))
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
