package utils

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultCacheTTL = time.Hour
	cacheOpTimeout  = 2 * time.Second
)

// RedisCache is a byte cache over Redis. Errors are logged and read as misses.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache wraps rc. A nil client yields a cache that always misses.
func NewRedisCache(rc *redis.Client) *RedisCache {
	return &RedisCache{client: rc}
}

// GetBytes returns cached bytes for a key.
func (c *RedisCache) GetBytes(key string) ([]byte, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	ctx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
	defer cancel()
	b, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if Sugar != nil && err != redis.Nil {
			Sugar.Debugf("cache get miss key=%s err=%v", key, err)
		}
		return nil, false
	}
	return b, true
}

// SetBytes stores bytes with ttl, or the default TTL when ttl is not positive.
func (c *RedisCache) SetBytes(key string, b []byte, ttl time.Duration) {
	if c == nil || c.client == nil {
		return
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	ctx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
	defer cancel()
	if err := c.client.Set(ctx, key, b, ttl).Err(); err != nil && Sugar != nil {
		Sugar.Warnf("cache set failed key=%s err=%v", key, err)
	}
}

// Delete removes a key.
func (c *RedisCache) Delete(key string) {
	if c == nil || c.client == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), cacheOpTimeout)
	defer cancel()
	_ = c.client.Del(ctx, key).Err()
}
