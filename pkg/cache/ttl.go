package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	expiresAt time.Time
}

func (e entry[V]) expired(now time.Time) bool {
	return now.After(e.expiresAt)
}

// TTLCache is a thread-safe cache where every entry expires after its own TTL.
// Expired entries are dropped lazily on read and swept periodically by a
// janitor goroutine.
type TTLCache[K comparable, V any] struct {
	items map[K]entry[V]
	mu    sync.RWMutex

	janitorInterval time.Duration
	stopJanitor     chan struct{}
	stopOnce        sync.Once
}

// TTLCacheOption configures a TTLCache.
type TTLCacheOption func(*janitorConfig)

type janitorConfig struct {
	interval time.Duration
}

// WithJanitorInterval sets how often expired entries are swept.
// Set to 0 to disable the background janitor; expired entries are then
// removed only when read.
func WithJanitorInterval(interval time.Duration) TTLCacheOption {
	return func(c *janitorConfig) {
		c.interval = interval
	}
}

// NewTTLCache creates a new TTL cache.
func NewTTLCache[K comparable, V any](opts ...TTLCacheOption) *TTLCache[K, V] {
	cfg := &janitorConfig{interval: time.Minute}
	for _, opt := range opts {
		opt(cfg)
	}

	c := &TTLCache[K, V]{
		items:           make(map[K]entry[V]),
		janitorInterval: cfg.interval,
		stopJanitor:     make(chan struct{}),
	}

	if c.janitorInterval > 0 {
		go c.janitor()
	}

	return c
}

// Get returns the value for key if present and not expired.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	e, ok := c.items[key]
	c.mu.RUnlock()

	if !ok {
		var zero V
		return zero, false
	}

	if e.expired(time.Now()) {
		c.mu.Lock()
		// Re-check under the write lock: a concurrent Set may have refreshed the entry.
		if cur, ok := c.items[key]; ok && cur.expired(time.Now()) {
			delete(c.items, key)
		}
		c.mu.Unlock()

		var zero V
		return zero, false
	}

	return e.value, true
}

// Set stores value under key for the given TTL, replacing any previous entry.
func (c *TTLCache[K, V]) Set(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = entry[V]{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
}

// Delete removes the entry for key, if any.
func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// Len returns the number of stored entries, including not-yet-swept expired ones.
func (c *TTLCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// Clear removes all entries.
func (c *TTLCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	clear(c.items)
}

// Close stops the janitor goroutine. Safe to call multiple times.
func (c *TTLCache[K, V]) Close() {
	c.stopOnce.Do(func() {
		close(c.stopJanitor)
	})
}

func (c *TTLCache[K, V]) janitor() {
	ticker := time.NewTicker(c.janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopJanitor:
			return
		}
	}
}

func (c *TTLCache[K, V]) removeExpired() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.items {
		if e.expired(now) {
			delete(c.items, key)
		}
	}
}
