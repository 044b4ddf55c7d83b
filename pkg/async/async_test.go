package async_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillforge/notifykit/pkg/async"
)

func TestRun_Success(t *testing.T) {
	t.Parallel()

	f := async.Run(context.Background(), 21, func(ctx context.Context, n int) (int, error) {
		return n * 2, nil
	})

	got, err := f.Await()
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.True(t, f.IsComplete())
}

func TestRun_Error(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("boom")
	f := async.Run(context.Background(), "x", func(ctx context.Context, s string) (string, error) {
		return "", wantErr
	})

	_, err := f.Await()
	assert.ErrorIs(t, err, wantErr)
}

func TestRun_PreCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := async.Run(ctx, 0, func(ctx context.Context, n int) (int, error) {
		t.Error("fn must not run with a pre-cancelled context")
		return 0, nil
	})

	_, err := f.Await()
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAwaitWithTimeout(t *testing.T) {
	t.Parallel()

	f := async.Run(context.Background(), 0, func(ctx context.Context, n int) (int, error) {
		time.Sleep(200 * time.Millisecond)
		return 1, nil
	})

	_, err := f.AwaitWithTimeout(10 * time.Millisecond)
	assert.ErrorIs(t, err, async.ErrTimeout)

	// The result is still available once the computation finishes.
	got, err := f.Await()
	require.NoError(t, err)
	assert.Equal(t, 1, got)
}

func TestAwaitAll_CollectsIndependentOutcomes(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("second failed")

	futures := []*async.Future[int]{
		async.Run(context.Background(), 1, func(ctx context.Context, n int) (int, error) { return n, nil }),
		async.Run(context.Background(), 2, func(ctx context.Context, n int) (int, error) { return 0, wantErr }),
		async.Run(context.Background(), 3, func(ctx context.Context, n int) (int, error) { return n, nil }),
	}

	results, errs := async.AwaitAll(futures...)

	assert.Equal(t, []int{1, 0, 3}, results)
	require.Len(t, errs, 3)
	assert.NoError(t, errs[0])
	assert.ErrorIs(t, errs[1], wantErr)
	assert.NoError(t, errs[2], "one failure must not affect sibling results")
}
