// Package cache provides a small Redis-backed key/value cache used to keep
// active-template listings off the hot database path. The cache is strictly
// optional: a nil Cache disables it and every Redis failure falls through to
// the caller as a miss.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

var ErrMiss = errors.New("cache miss")

type Cache struct {
	c *redis.Client
}

// New creates a cache backed by the Redis instance at redisURL. Returns nil
// (cache disabled) when redisURL is empty.
func New(redisURL string) (*Cache, error) {
	if redisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &Cache{c: redis.NewClient(opts)}, nil
}

// Ping verifies connectivity. No-op on a nil cache.
func (r *Cache) Ping(ctx context.Context) error {
	if r == nil {
		return nil
	}
	return r.c.Ping(ctx).Err()
}

// Get returns the value for key, or ErrMiss when absent or the cache is
// disabled.
func (r *Cache) Get(ctx context.Context, key string) (string, error) {
	if r == nil {
		return "", ErrMiss
	}
	val, err := r.c.Get(ctx, key).Result()
	if err != nil {
		if err == redis.Nil {
			return "", ErrMiss
		}
		return "", err
	}
	return val, nil
}

// Set stores value under key with the given TTL. No-op on a nil cache.
func (r *Cache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if r == nil {
		return nil
	}
	return r.c.Set(ctx, key, value, ttl).Err()
}

// DeleteByPattern removes all keys matching pattern (e.g. "templates:*").
func (r *Cache) DeleteByPattern(ctx context.Context, pattern string) error {
	if r == nil {
		return nil
	}
	var cursor uint64
	for {
		keys, next, err := r.c.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := r.c.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Close releases the underlying client. No-op on a nil cache.
func (r *Cache) Close() error {
	if r == nil {
		return nil
	}
	return r.c.Close()
}
