package mailqueue_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillforge/notifykit/pkg/mailer"
	"github.com/skillforge/notifykit/pkg/mailqueue"
	"github.com/skillforge/notifykit/pkg/ratelimit"
)

// fakeSender records recipients and fails addresses listed in failing.
type fakeSender struct {
	mu      sync.Mutex
	sent    []string
	failing map[string]bool
}

func newFakeSender() *fakeSender {
	return &fakeSender{failing: make(map[string]bool)}
}

func (s *fakeSender) Send(ctx context.Context, msg mailer.Message) (*mailer.SendResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failing[msg.To] {
		return nil, errors.New("provider rejected " + msg.To)
	}
	s.sent = append(s.sent, msg.To)
	return &mailer.SendResult{Provider: "fake", MessageID: "id-1", Attempts: 1}, nil
}

func (s *fakeSender) recipients() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

func msgTo(to string) mailer.Message {
	return mailer.Message{To: to, Subject: "subject", BodyHTML: "<p>body</p>"}
}

func TestNew_RequiresSender(t *testing.T) {
	t.Parallel()

	_, err := mailqueue.New(nil, mailqueue.Config{})
	assert.ErrorIs(t, err, mailqueue.ErrSenderNil)
}

func TestQueue_EnqueueValidation(t *testing.T) {
	t.Parallel()

	q, err := mailqueue.New(newFakeSender(), mailqueue.Config{})
	require.NoError(t, err)

	_, err = q.Enqueue(msgTo("a@example.com"), mailqueue.Priority("extreme"))
	assert.ErrorIs(t, err, mailqueue.ErrInvalidPriority)

	_, err = q.Enqueue(mailer.Message{To: "a@example.com"}, mailqueue.PriorityNormal)
	assert.ErrorIs(t, err, mailer.ErrInvalidMessage)

	assert.Equal(t, 0, q.Length())
}

func TestQueue_FullRejectsWithoutModifying(t *testing.T) {
	t.Parallel()

	q, err := mailqueue.New(newFakeSender(), mailqueue.Config{MaxQueueSize: 2})
	require.NoError(t, err)

	_, err = q.Enqueue(msgTo("a@example.com"), mailqueue.PriorityNormal)
	require.NoError(t, err)
	_, err = q.Enqueue(msgTo("b@example.com"), mailqueue.PriorityLow)
	require.NoError(t, err)

	before := q.Stats()
	_, err = q.Enqueue(msgTo("c@example.com"), mailqueue.PriorityHigh)
	assert.ErrorIs(t, err, mailqueue.ErrQueueFull)
	assert.Equal(t, before, q.Stats(), "a rejected enqueue must leave the queue unchanged")
}

func TestQueue_LanesDrainInPriorityOrder(t *testing.T) {
	t.Parallel()

	sender := newFakeSender()
	q, err := mailqueue.New(sender, mailqueue.Config{BatchSize: 5})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := q.Enqueue(msgTo(fmt.Sprintf("low%d@example.com", i)), mailqueue.PriorityLow)
		require.NoError(t, err)
	}
	for i := 0; i < 2; i++ {
		_, err := q.Enqueue(msgTo(fmt.Sprintf("normal%d@example.com", i)), mailqueue.PriorityNormal)
		require.NoError(t, err)
	}
	for i := 0; i < 3; i++ {
		_, err := q.Enqueue(msgTo(fmt.Sprintf("high%d@example.com", i)), mailqueue.PriorityHigh)
		require.NoError(t, err)
	}

	// First batch takes all three high tasks plus two normal ones.
	n, err := q.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	first := sender.recipients()
	require.Len(t, first, 5)
	assert.ElementsMatch(t, []string{
		"high0@example.com", "high1@example.com", "high2@example.com",
		"normal0@example.com", "normal1@example.com",
	}, first)

	// Second batch drains the low lane.
	n, err = q.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 0, q.Length())
}

func TestQueue_FailedTaskRequeuesWithBackoff(t *testing.T) {
	t.Parallel()

	sender := newFakeSender()
	sender.failing["bad@example.com"] = true

	q, err := mailqueue.New(sender, mailqueue.Config{MaxRetries: 3, RetryBaseDelay: time.Hour})
	require.NoError(t, err)

	_, err = q.Enqueue(msgTo("bad@example.com"), mailqueue.PriorityNormal)
	require.NoError(t, err)

	n, err := q.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	stats := q.Stats()
	assert.Equal(t, uint64(1), stats.Retried)
	assert.Equal(t, uint64(0), stats.Failed)
	assert.Equal(t, 1, stats.Length, "failed task is re-queued, not dropped")

	// The retry delay has not elapsed, so the task is not dispatched again.
	n, err = q.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestQueue_MaxRetriesDropsTaskOnce(t *testing.T) {
	t.Parallel()

	sender := newFakeSender()
	sender.failing["bad@example.com"] = true

	var (
		mu     sync.Mutex
		events []mailqueue.Event
	)
	q, err := mailqueue.New(sender,
		mailqueue.Config{MaxRetries: 3, RetryBaseDelay: time.Nanosecond},
		mailqueue.WithObserver(mailqueue.ObserverFunc(func(e mailqueue.Event) {
			mu.Lock()
			events = append(events, e)
			mu.Unlock()
		})))
	require.NoError(t, err)

	_, err = q.Enqueue(msgTo("bad@example.com"), mailqueue.PriorityNormal)
	require.NoError(t, err)

	// Three attempts: two re-queues, then a terminal failure.
	for i := 0; i < 3; i++ {
		time.Sleep(time.Millisecond) // let the nanosecond backoff elapse
		_, err := q.ProcessBatch(context.Background())
		require.NoError(t, err)
	}

	stats := q.Stats()
	assert.Equal(t, uint64(2), stats.Retried)
	assert.Equal(t, uint64(1), stats.Failed, "a task counts as failed exactly once")
	assert.Equal(t, 0, stats.Length)

	mu.Lock()
	defer mu.Unlock()
	var failedEvents int
	for _, e := range events {
		if e.Kind == mailqueue.EventFailed {
			failedEvents++
			assert.Equal(t, 3, e.Task.Attempts)
			assert.NotEmpty(t, e.Task.LastErr)
		}
	}
	assert.Equal(t, 1, failedEvents)
}

func TestQueue_RateLimitSkipsBatch(t *testing.T) {
	t.Parallel()

	store := ratelimit.NewMemoryStore()
	limiter, err := ratelimit.NewLimiter(store, ratelimit.Config{PerMinute: 2})
	require.NoError(t, err)

	sender := newFakeSender()
	q, err := mailqueue.New(sender, mailqueue.Config{BatchSize: 2}, mailqueue.WithLimiter(limiter))
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err := q.Enqueue(msgTo(fmt.Sprintf("user%d@example.com", i)), mailqueue.PriorityNormal)
		require.NoError(t, err)
	}

	n, err := q.ProcessBatch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Two sends recorded against a two-per-minute window: the next check is
	// denied and nothing is dequeued.
	n, err = q.ProcessBatch(context.Background())
	assert.ErrorIs(t, err, mailqueue.ErrRateLimited)
	assert.Equal(t, 0, n)
	assert.Equal(t, 2, q.Length())
	assert.Len(t, sender.recipients(), 2)
}

func TestQueue_ObserverUnsubscribe(t *testing.T) {
	t.Parallel()

	sender := newFakeSender()
	q, err := mailqueue.New(sender, mailqueue.Config{})
	require.NoError(t, err)

	var (
		mu    sync.Mutex
		count int
	)
	unsubscribe := q.Subscribe(mailqueue.ObserverFunc(func(mailqueue.Event) {
		mu.Lock()
		count++
		mu.Unlock()
	}))

	_, err = q.Enqueue(msgTo("a@example.com"), mailqueue.PriorityNormal)
	require.NoError(t, err)
	_, err = q.ProcessBatch(context.Background())
	require.NoError(t, err)

	mu.Lock()
	assert.Equal(t, 1, count)
	mu.Unlock()

	unsubscribe()

	_, err = q.Enqueue(msgTo("b@example.com"), mailqueue.PriorityNormal)
	require.NoError(t, err)
	_, err = q.ProcessBatch(context.Background())
	require.NoError(t, err)

	mu.Lock()
	assert.Equal(t, 1, count, "unsubscribed observers receive no further events")
	mu.Unlock()
}

func TestQueue_StatsTrackWaitTime(t *testing.T) {
	t.Parallel()

	sender := newFakeSender()
	q, err := mailqueue.New(sender, mailqueue.Config{})
	require.NoError(t, err)

	_, err = q.Enqueue(msgTo("a@example.com"), mailqueue.PriorityNormal)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = q.ProcessBatch(context.Background())
	require.NoError(t, err)

	stats := q.Stats()
	assert.Equal(t, uint64(1), stats.Processed)
	assert.GreaterOrEqual(t, stats.AvgWait, 10*time.Millisecond)
}

func TestQueue_Clear(t *testing.T) {
	t.Parallel()

	q, err := mailqueue.New(newFakeSender(), mailqueue.Config{})
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := q.Enqueue(msgTo(fmt.Sprintf("u%d@example.com", i)), mailqueue.PriorityLow)
		require.NoError(t, err)
	}
	q.Clear()
	assert.Equal(t, 0, q.Length())
}

func TestQueue_StartStopLifecycle(t *testing.T) {
	t.Parallel()

	sender := newFakeSender()
	q, err := mailqueue.New(sender, mailqueue.Config{BatchInterval: 5 * time.Millisecond})
	require.NoError(t, err)

	assert.ErrorIs(t, q.Stop(), mailqueue.ErrNotStarted)

	ctx := context.Background()
	require.NoError(t, q.Start(ctx))
	assert.ErrorIs(t, q.Start(ctx), mailqueue.ErrAlreadyStarted)

	_, err = q.Enqueue(msgTo("a@example.com"), mailqueue.PriorityHigh)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return len(sender.recipients()) == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, q.Stop())
	assert.ErrorIs(t, q.Stop(), mailqueue.ErrNotStarted)
}
