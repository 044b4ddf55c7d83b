package notifier

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/skillforge/notifykit/pkg/broadcast"
	"github.com/skillforge/notifykit/pkg/logger"
	"github.com/skillforge/notifykit/pkg/mailer"
	"github.com/skillforge/notifykit/pkg/mailqueue"
	"github.com/skillforge/notifykit/pkg/notification"
)

// Publisher pushes a stored notification to a realtime topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, n notification.Notification) error
}

// HubPublisher adapts a broadcast hub to the Publisher interface.
type HubPublisher struct {
	hub *broadcast.Hub[notification.Notification]
}

// NewHubPublisher wraps hub as a Publisher.
func NewHubPublisher(hub *broadcast.Hub[notification.Notification]) *HubPublisher {
	return &HubPublisher{hub: hub}
}

func (p *HubPublisher) Publish(ctx context.Context, topic string, n notification.Notification) error {
	return p.hub.Publish(ctx, topic, n)
}

// Enqueuer queues an email for delivery. *mailqueue.Queue satisfies it.
type Enqueuer interface {
	Enqueue(msg mailer.Message, priority mailqueue.Priority) (uuid.UUID, error)
}

// Dispatcher executes the intents a Send returned. Channels are optional:
// a nil publisher skips realtime intents, a nil enqueuer skips email
// intents. Execution is best-effort; failures are logged, never returned,
// because the record is already stored.
type Dispatcher struct {
	publisher Publisher
	mailq     Enqueuer
	logger    *slog.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithPublisher sets the realtime channel.
func WithPublisher(p Publisher) DispatcherOption {
	return func(d *Dispatcher) { d.publisher = p }
}

// WithEnqueuer sets the email channel.
func WithEnqueuer(e Enqueuer) DispatcherOption {
	return func(d *Dispatcher) { d.mailq = e }
}

// WithDispatcherLogger sets the logger for the dispatcher.
func WithDispatcherLogger(log *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if log != nil {
			d.logger = log
		}
	}
}

// NewDispatcher creates an intent executor.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch executes each intent against its channel.
func (d *Dispatcher) Dispatch(ctx context.Context, intents []Intent) {
	for _, in := range intents {
		switch it := in.(type) {
		case RealtimeIntent:
			if d.publisher == nil {
				continue
			}
			if err := d.publisher.Publish(ctx, it.Topic, it.Notification); err != nil {
				d.logger.LogAttrs(ctx, slog.LevelWarn, "realtime publish failed",
					logger.Topic(it.Topic),
					logger.NotificationID(it.Notification.ID),
					logger.Error(err),
				)
			}
		case EmailIntent:
			if d.mailq == nil {
				continue
			}
			if _, err := d.mailq.Enqueue(it.Message, it.Priority); err != nil {
				d.logger.LogAttrs(ctx, slog.LevelWarn, "email enqueue failed",
					logger.Recipient(it.Message.To),
					logger.Lane(string(it.Priority)),
					logger.Error(err),
				)
			}
		}
	}
}

// SendAndDispatch persists through svc and immediately executes the
// returned intents. The error reflects persistence only.
func (d *Dispatcher) SendAndDispatch(ctx context.Context, svc *Service, userID string, in Input) (*notification.Notification, error) {
	record, intents, err := svc.Send(ctx, userID, in)
	if err != nil {
		return nil, err
	}
	d.Dispatch(ctx, intents)
	return record, nil
}
