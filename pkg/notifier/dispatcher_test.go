package notifier_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillforge/notifykit/pkg/broadcast"
	"github.com/skillforge/notifykit/pkg/mailer"
	"github.com/skillforge/notifykit/pkg/mailqueue"
	"github.com/skillforge/notifykit/pkg/notification"
	"github.com/skillforge/notifykit/pkg/notifier"
)

type fakePublisher struct {
	mu        sync.Mutex
	published []string // topics
	err       error
}

func (p *fakePublisher) Publish(ctx context.Context, topic string, n notification.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, topic)
	return nil
}

type fakeEnqueuer struct {
	mu     sync.Mutex
	queued []mailqueue.Priority
	err    error
}

func (e *fakeEnqueuer) Enqueue(msg mailer.Message, priority mailqueue.Priority) (uuid.UUID, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.err != nil {
		return uuid.Nil, e.err
	}
	e.queued = append(e.queued, priority)
	return uuid.New(), nil
}

func TestDispatcher_RoutesIntents(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	enq := &fakeEnqueuer{}
	d := notifier.NewDispatcher(
		notifier.WithPublisher(pub),
		notifier.WithEnqueuer(enq),
	)

	d.Dispatch(context.Background(), []notifier.Intent{
		notifier.RealtimeIntent{Topic: "user-u1"},
		notifier.EmailIntent{
			Message:  mailer.Message{To: "u@example.com", Subject: "s", BodyHTML: "<p>b</p>"},
			Priority: mailqueue.PriorityHigh,
		},
	})

	assert.Equal(t, []string{"user-u1"}, pub.published)
	assert.Equal(t, []mailqueue.Priority{mailqueue.PriorityHigh}, enq.queued)
}

func TestDispatcher_NilChannelsSkip(t *testing.T) {
	t.Parallel()

	d := notifier.NewDispatcher()

	// Must not panic with no channels configured.
	d.Dispatch(context.Background(), []notifier.Intent{
		notifier.RealtimeIntent{Topic: "user-u1"},
		notifier.EmailIntent{},
	})
}

func TestDispatcher_FailuresDoNotPropagate(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{err: errors.New("hub down")}
	enq := &fakeEnqueuer{err: mailqueue.ErrQueueFull}
	d := notifier.NewDispatcher(
		notifier.WithPublisher(pub),
		notifier.WithEnqueuer(enq),
	)

	svc, _ := newService(t)
	in := basicInput()
	in.Priority = notification.PriorityUrgent
	in.SendEmail = true
	in.EmailTo = "u@example.com"

	record, err := d.SendAndDispatch(context.Background(), svc, "user-1", in)
	require.NoError(t, err, "delivery failures never unwind a stored record")
	assert.NotEmpty(t, record.ID)

	stored, err := svc.Get(context.Background(), "user-1", record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, stored.ID)
}

func TestHubPublisher_DeliversToSubscriber(t *testing.T) {
	t.Parallel()

	hub := broadcast.NewHub[notification.Notification](8)
	defer hub.Close()

	ctx := context.Background()
	sub := hub.Subscribe(ctx, notifier.UserTopic("u1"))
	defer sub.Close()

	d := notifier.NewDispatcher(notifier.WithPublisher(notifier.NewHubPublisher(hub)))
	svc, _ := newService(t)

	record, err := d.SendAndDispatch(ctx, svc, "u1", basicInput())
	require.NoError(t, err)

	select {
	case msg := <-sub.Messages():
		assert.Equal(t, notifier.UserTopic("u1"), msg.Topic)
		assert.Equal(t, record.ID, msg.Payload.ID)
	case <-time.After(time.Second):
		t.Fatal("expected a realtime message")
	}
}
