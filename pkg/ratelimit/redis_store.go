package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on Redis so rate windows are shared across
// process instances. Counters expire with their window via TTL.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithKeyPrefix namespaces all counter keys. Default is "ratelimit".
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(rs *RedisStore) {
		if prefix != "" {
			rs.prefix = prefix
		}
	}
}

// NewRedisStore creates a Redis-backed counter store.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) (*RedisStore, error) {
	if client == nil {
		return nil, ErrStoreNil
	}

	rs := &RedisStore{
		client: client,
		prefix: "ratelimit",
	}
	for _, opt := range opts {
		opt(rs)
	}

	return rs, nil
}

func (rs *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	fullKey := rs.prefix + ":" + key

	pipe := rs.client.TxPipeline()
	incr := pipe.Incr(ctx, fullKey)
	// Refreshing on every increment is fine: the bucket timestamp is part of
	// the key, so a later window never reuses this counter.
	pipe.Expire(ctx, fullKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}

	return incr.Val(), nil
}

func (rs *RedisStore) Count(ctx context.Context, key string) (int64, error) {
	val, err := rs.client.Get(ctx, rs.prefix+":"+key).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return val, nil
}
