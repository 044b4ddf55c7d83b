package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Limiter bounds a metric across fixed minute/hour/day windows.
//
// Allow and Record are split deliberately: the delivery loop checks Allow
// before draining a batch and Records only sends that actually happened,
// so a denied check never consumes quota.
type Limiter struct {
	store   Store
	windows []Window
}

// NewLimiter creates a fixed-window limiter. At least one window must have a
// positive limit.
func NewLimiter(store Store, cfg Config) (*Limiter, error) {
	if store == nil {
		return nil, ErrStoreNil
	}

	windows := cfg.windows()
	if len(windows) == 0 {
		return nil, fmt.Errorf("%w: all window limits are zero", ErrInvalidConfig)
	}

	return &Limiter{store: store, windows: windows}, nil
}

// Allow reports whether metric is under every configured threshold without
// consuming quota. The first exceeded window denies the check.
func (l *Limiter) Allow(ctx context.Context, metric string) (*Result, error) {
	now := time.Now()

	for _, w := range l.windows {
		count, err := l.store.Count(ctx, l.key(metric, w, now))
		if err != nil {
			return nil, errors.Join(ErrStoreUnavailable, err)
		}
		if count >= int64(w.Limit) {
			return &Result{
				Allowed: false,
				Window:  w.Name,
				ResetAt: now.Truncate(w.Duration).Add(w.Duration),
			}, nil
		}
	}

	return &Result{Allowed: true}, nil
}

// Record counts one unit of metric against every configured window.
// The delivery loop is the single writer; calling Record from elsewhere
// skews the counters.
func (l *Limiter) Record(ctx context.Context, metric string) error {
	now := time.Now()

	for _, w := range l.windows {
		if _, err := l.store.Incr(ctx, l.key(metric, w, now), w.Duration); err != nil {
			return errors.Join(ErrStoreUnavailable, err)
		}
	}

	return nil
}

// Windows returns the configured windows, mainly for stats surfaces.
func (l *Limiter) Windows() []Window {
	ws := make([]Window, len(l.windows))
	copy(ws, l.windows)
	return ws
}

func (l *Limiter) key(metric string, w Window, now time.Time) string {
	return fmt.Sprintf("%s:%s:%d", metric, w.Name, now.Truncate(w.Duration).Unix())
}
