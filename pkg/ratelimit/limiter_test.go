package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillforge/notifykit/pkg/ratelimit"
)

func newLimiter(t *testing.T, cfg ratelimit.Config) *ratelimit.Limiter {
	t.Helper()

	store := ratelimit.NewMemoryStore(ratelimit.WithCleanupInterval(0))
	t.Cleanup(store.Close)

	l, err := ratelimit.NewLimiter(store, cfg)
	require.NoError(t, err)
	return l
}

func TestNewLimiter_Validation(t *testing.T) {
	t.Parallel()

	_, err := ratelimit.NewLimiter(nil, ratelimit.Config{PerMinute: 1})
	assert.ErrorIs(t, err, ratelimit.ErrStoreNil)

	store := ratelimit.NewMemoryStore(ratelimit.WithCleanupInterval(0))
	defer store.Close()

	_, err = ratelimit.NewLimiter(store, ratelimit.Config{})
	assert.ErrorIs(t, err, ratelimit.ErrInvalidConfig)
}

func TestLimiter_AllowDoesNotConsume(t *testing.T) {
	t.Parallel()

	l := newLimiter(t, ratelimit.Config{PerMinute: 1})
	ctx := context.Background()

	for range 5 {
		res, err := l.Allow(ctx, "email")
		require.NoError(t, err)
		assert.True(t, res.Allowed, "Allow must not consume quota")
	}
}

func TestLimiter_DeniesAtThreshold(t *testing.T) {
	t.Parallel()

	l := newLimiter(t, ratelimit.Config{PerMinute: 3})
	ctx := context.Background()

	for range 3 {
		require.NoError(t, l.Record(ctx, "email"))
	}

	res, err := l.Allow(ctx, "email")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, "minute", res.Window)
	assert.Greater(t, res.RetryAfter(), time.Duration(0))
	assert.LessOrEqual(t, res.RetryAfter(), time.Minute)
}

func TestLimiter_BurstNeverExceedsThreshold(t *testing.T) {
	t.Parallel()

	const limit = 5
	l := newLimiter(t, ratelimit.Config{PerMinute: limit, PerHour: 100, PerDay: 1000})
	ctx := context.Background()

	sent := 0
	for range 20 {
		res, err := l.Allow(ctx, "email")
		require.NoError(t, err)
		if !res.Allowed {
			continue
		}
		require.NoError(t, l.Record(ctx, "email"))
		sent++
	}

	assert.Equal(t, limit, sent, "sends within one window must not exceed the threshold")
}

func TestLimiter_SmallestWindowDeniesFirst(t *testing.T) {
	t.Parallel()

	l := newLimiter(t, ratelimit.Config{PerMinute: 1, PerHour: 10})
	ctx := context.Background()

	require.NoError(t, l.Record(ctx, "email"))

	res, err := l.Allow(ctx, "email")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, "minute", res.Window)
}

func TestLimiter_MetricsAreIndependent(t *testing.T) {
	t.Parallel()

	l := newLimiter(t, ratelimit.Config{PerMinute: 1})
	ctx := context.Background()

	require.NoError(t, l.Record(ctx, "email"))

	res, err := l.Allow(ctx, "sms")
	require.NoError(t, err)
	assert.True(t, res.Allowed, "counters are keyed by metric")
}

func TestMemoryStore_WindowExpiry(t *testing.T) {
	t.Parallel()

	store := ratelimit.NewMemoryStore(ratelimit.WithCleanupInterval(0))
	defer store.Close()

	ctx := context.Background()

	count, err := store.Incr(ctx, "k", 20*time.Millisecond)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	time.Sleep(30 * time.Millisecond)

	got, err := store.Count(ctx, "k")
	require.NoError(t, err)
	assert.EqualValues(t, 0, got, "expired counter reads as zero")

	count, err = store.Incr(ctx, "k", 20*time.Millisecond)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count, "expired counter restarts from zero")
}
