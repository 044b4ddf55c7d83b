package cache_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/skillforge/notifykit/pkg/cache"
)

func TestTTLCache_SetGet(t *testing.T) {
	t.Parallel()

	c := cache.NewTTLCache[string, int](cache.WithJanitorInterval(0))
	defer c.Close()

	c.Set("a", 42, time.Minute)

	got, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 42, got)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestTTLCache_Expiry(t *testing.T) {
	t.Parallel()

	c := cache.NewTTLCache[string, string](cache.WithJanitorInterval(0))
	defer c.Close()

	c.Set("k", "v", 10*time.Millisecond)

	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "v", got)

	time.Sleep(20 * time.Millisecond)

	_, ok = c.Get("k")
	assert.False(t, ok, "expired entry must not be returned")
	assert.Equal(t, 0, c.Len(), "expired entry is dropped on read")
}

func TestTTLCache_Overwrite(t *testing.T) {
	t.Parallel()

	c := cache.NewTTLCache[string, int](cache.WithJanitorInterval(0))
	defer c.Close()

	c.Set("k", 1, time.Minute)
	c.Set("k", 2, time.Minute)

	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 2, got)
	assert.Equal(t, 1, c.Len())
}

func TestTTLCache_Delete(t *testing.T) {
	t.Parallel()

	c := cache.NewTTLCache[string, int](cache.WithJanitorInterval(0))
	defer c.Close()

	c.Set("k", 1, time.Minute)
	c.Delete("k")

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestTTLCache_JanitorSweeps(t *testing.T) {
	t.Parallel()

	c := cache.NewTTLCache[string, int](cache.WithJanitorInterval(10 * time.Millisecond))
	defer c.Close()

	c.Set("k", 1, 5*time.Millisecond)

	assert.Eventually(t, func() bool {
		return c.Len() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestTTLCache_Clear(t *testing.T) {
	t.Parallel()

	c := cache.NewTTLCache[string, int](cache.WithJanitorInterval(0))
	defer c.Close()

	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Minute)
	c.Clear()

	assert.Equal(t, 0, c.Len())
}
