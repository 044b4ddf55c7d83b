package ratelimit

import (
	"context"
	"time"
)

// Store persists window counters. Keys identify a (metric, window, bucket)
// tuple; implementations may expire a counter any time after its window ends.
type Store interface {
	// Incr increments the counter for the window bucket containing now
	// and returns the new count.
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)

	// Count returns the current counter for the window bucket containing now
	// without modifying it.
	Count(ctx context.Context, key string) (int64, error)
}
