package mailqueue

import (
	"context"
	"log/slog"
	"time"

	"github.com/skillforge/notifykit/pkg/logger"
)

// EventKind classifies a delivery outcome.
type EventKind string

const (
	// EventProcessed fires after a successful delivery.
	EventProcessed EventKind = "processed"

	// EventFailed fires once per task, when its retry budget is exhausted
	// and the task is dropped.
	EventFailed EventKind = "failed"

	// EventRetried fires when a failed attempt re-queues the task.
	EventRetried EventKind = "retried"
)

// Event describes one delivery outcome. Task is a snapshot; mutating it has
// no effect on the queue.
type Event struct {
	Kind EventKind
	Task Task
	Err  error // Set for failed and retried events
	At   time.Time
}

// Observer receives queue events. Implementations must return quickly;
// events are delivered synchronously from the delivery loop.
type Observer interface {
	Notify(event Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(event Event)

func (f ObserverFunc) Notify(event Event) { f(event) }

// LogObserver writes every event to a slog logger.
type LogObserver struct {
	logger *slog.Logger
}

// NewLogObserver creates an observer that logs queue events.
func NewLogObserver(log *slog.Logger) *LogObserver {
	if log == nil {
		log = slog.Default()
	}
	return &LogObserver{logger: log}
}

func (o *LogObserver) Notify(event Event) {
	attrs := []slog.Attr{
		logger.TaskID(event.Task.ID.String()),
		logger.Recipient(event.Task.Message.To),
		logger.Lane(string(event.Task.Priority)),
		logger.Attempt(event.Task.Attempts),
	}
	if event.Err != nil {
		attrs = append(attrs, logger.Error(event.Err))
	}

	ctx := context.Background()
	switch event.Kind {
	case EventProcessed:
		o.logger.LogAttrs(ctx, slog.LevelInfo, "mail task processed", attrs...)
	case EventRetried:
		o.logger.LogAttrs(ctx, slog.LevelWarn, "mail task retried", attrs...)
	case EventFailed:
		o.logger.LogAttrs(ctx, slog.LevelError, "mail task failed permanently", attrs...)
	}
}
