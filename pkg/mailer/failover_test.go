package mailer_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillforge/notifykit/pkg/mailer"
)

// fakeProvider is a scriptable Provider: it fails the first failures calls
// and succeeds afterwards.
type fakeProvider struct {
	name     string
	failures int

	mu    sync.Mutex
	calls int
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Send(ctx context.Context, msg mailer.Message) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls++
	if p.calls <= p.failures {
		return "", errors.New(p.name + " unavailable")
	}
	return p.name + "-msg-1", nil
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

// recordingMonitor collects attempts for assertions.
type recordingMonitor struct {
	mu       sync.Mutex
	attempts []mailer.Attempt
}

func (m *recordingMonitor) RecordAttempt(ctx context.Context, attempt mailer.Attempt) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, attempt)
}

func (m *recordingMonitor) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.attempts)
}

func validMessage() mailer.Message {
	return mailer.Message{
		To:       "user@example.com",
		Subject:  "Course deadline",
		BodyHTML: "<p>Your course is due</p>",
		Tag:      "reminder",
	}
}

func TestNewFailoverSender_RequiresProviders(t *testing.T) {
	t.Parallel()

	_, err := mailer.NewFailoverSender(nil)
	assert.ErrorIs(t, err, mailer.ErrNoProviders)
}

func TestFailoverSender_SuccessOnFirstAttempt(t *testing.T) {
	t.Parallel()

	primary := &fakeProvider{name: "primary"}
	s, err := mailer.NewFailoverSender([]mailer.Provider{primary},
		mailer.WithRetryBaseDelay(time.Millisecond))
	require.NoError(t, err)

	res, err := s.Send(context.Background(), validMessage())
	require.NoError(t, err)

	assert.Equal(t, "primary", res.Provider)
	assert.Equal(t, "primary-msg-1", res.MessageID)
	assert.Equal(t, 1, res.Attempts)
}

func TestFailoverSender_RetriesSameProviderFirst(t *testing.T) {
	t.Parallel()

	primary := &fakeProvider{name: "primary", failures: 2}
	backup := &fakeProvider{name: "backup"}
	s, err := mailer.NewFailoverSender([]mailer.Provider{primary, backup},
		mailer.WithMaxRetries(3),
		mailer.WithRetryBaseDelay(time.Millisecond))
	require.NoError(t, err)

	res, err := s.Send(context.Background(), validMessage())
	require.NoError(t, err)

	assert.Equal(t, "primary", res.Provider, "local retries run before failover")
	assert.Equal(t, 3, res.Attempts)
	assert.Equal(t, 0, backup.callCount())
}

func TestFailoverSender_BackupSucceedsOnFourthAttempt(t *testing.T) {
	t.Parallel()

	// Primary always fails, backup succeeds on its first try: with
	// maxRetries=3 the send succeeds on the 4th overall attempt and is
	// attributed to the backup.
	primary := &fakeProvider{name: "primary", failures: 1000}
	backup := &fakeProvider{name: "backup"}
	s, err := mailer.NewFailoverSender([]mailer.Provider{primary, backup},
		mailer.WithMaxRetries(3),
		mailer.WithRetryBaseDelay(time.Millisecond))
	require.NoError(t, err)

	res, err := s.Send(context.Background(), validMessage())
	require.NoError(t, err)

	assert.Equal(t, "backup", res.Provider)
	assert.Equal(t, 4, res.Attempts)
	assert.Equal(t, 3, primary.callCount())
	assert.Equal(t, 1, backup.callCount())
}

func TestFailoverSender_DeliveryExhausted(t *testing.T) {
	t.Parallel()

	primary := &fakeProvider{name: "primary", failures: 1000}
	backup := &fakeProvider{name: "backup", failures: 1000}
	s, err := mailer.NewFailoverSender([]mailer.Provider{primary, backup},
		mailer.WithMaxRetries(2),
		mailer.WithRetryBaseDelay(time.Millisecond))
	require.NoError(t, err)

	_, err = s.Send(context.Background(), validMessage())
	assert.ErrorIs(t, err, mailer.ErrDeliveryExhausted)
	assert.Equal(t, 2, primary.callCount())
	assert.Equal(t, 2, backup.callCount())
}

func TestFailoverSender_InvalidMessage(t *testing.T) {
	t.Parallel()

	primary := &fakeProvider{name: "primary"}
	s, err := mailer.NewFailoverSender([]mailer.Provider{primary})
	require.NoError(t, err)

	_, err = s.Send(context.Background(), mailer.Message{To: "not-an-email"})
	assert.ErrorIs(t, err, mailer.ErrInvalidMessage)
	assert.Equal(t, 0, primary.callCount(), "invalid messages never reach a provider")
}

func TestFailoverSender_MonitorRecordsEveryAttempt(t *testing.T) {
	t.Parallel()

	monitor := &recordingMonitor{}
	primary := &fakeProvider{name: "primary", failures: 1}
	s, err := mailer.NewFailoverSender([]mailer.Provider{primary},
		mailer.WithMaxRetries(3),
		mailer.WithRetryBaseDelay(time.Millisecond),
		mailer.WithMonitor(monitor))
	require.NoError(t, err)

	_, err = s.Send(context.Background(), validMessage())
	require.NoError(t, err)

	// Attempts are recorded off the send path.
	assert.Eventually(t, func() bool { return monitor.count() == 2 }, time.Second, 5*time.Millisecond)

	monitor.mu.Lock()
	defer monitor.mu.Unlock()
	var successes int
	for _, a := range monitor.attempts {
		assert.Equal(t, "email", a.Type)
		assert.Equal(t, "user@example.com", a.Recipient)
		assert.Equal(t, "primary", a.Provider)
		if a.Success {
			successes++
			assert.NotEmpty(t, a.ProviderMessageID)
		} else {
			assert.NotEmpty(t, a.Err)
		}
	}
	assert.Equal(t, 1, successes)
}

type panickingMonitor struct{}

func (panickingMonitor) RecordAttempt(ctx context.Context, attempt mailer.Attempt) {
	panic("sink exploded")
}

func TestFailoverSender_MonitorPanicDoesNotFailSend(t *testing.T) {
	t.Parallel()

	primary := &fakeProvider{name: "primary"}
	s, err := mailer.NewFailoverSender([]mailer.Provider{primary},
		mailer.WithMonitor(panickingMonitor{}))
	require.NoError(t, err)

	res, err := s.Send(context.Background(), validMessage())
	require.NoError(t, err)
	assert.Equal(t, "primary", res.Provider)
}

func TestFailoverSender_ContextCancellationStopsBackoff(t *testing.T) {
	t.Parallel()

	primary := &fakeProvider{name: "primary", failures: 1000}
	s, err := mailer.NewFailoverSender([]mailer.Provider{primary},
		mailer.WithMaxRetries(3),
		mailer.WithRetryBaseDelay(10*time.Second))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = s.Send(ctx, validMessage())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second, "cancellation must interrupt the backoff sleep")
}
