// Package cache is a small JSON key/value cache with Redis and in-process
// backends and a Laravel-style Remember helper.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/shashiranjanraj/storefront/pkg/metrics"
)

// Store is implemented by every backend. Get reports a miss as (false, nil).
type Store interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Connect opens a Redis client and verifies it with a ping. The client is
// shared by the cache, the lock and the queue drivers.
func Connect(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: redis ping: %w", err)
	}
	return rdb, nil
}

var group singleflight.Group

// Remember returns the cached value under key, or calls load once across
// concurrent callers, caches its result for ttl and returns it. Cache
// errors degrade to calling load directly.
func Remember[T any](ctx context.Context, s Store, name, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var cached T
	if ok, err := s.Get(ctx, key, &cached); err == nil && ok {
		metrics.CacheHits.WithLabelValues(name).Inc()
		return cached, nil
	}
	metrics.CacheMisses.WithLabelValues(name).Inc()

	v, err, _ := group.Do(name+":"+key, func() (any, error) {
		val, err := load(ctx)
		if err != nil {
			return val, err
		}
		_ = s.Set(ctx, key, val, ttl)
		return val, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
