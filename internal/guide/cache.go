package guide

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "forkreel:pattern:"

// RedisCache caches raw pattern responses in Redis. Any Redis error reads as
// a cache miss and writes are fire-and-forget, so a degraded Redis never
// blocks the shoot flow.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache wraps rdb with the given entry TTL.
func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, patternID string) ([]byte, bool) {
	// Infrastructure errors read as misses, same as redis.Nil.
	body, err := c.rdb.Get(ctx, cacheKeyPrefix+patternID).Bytes()
	if err != nil {
		return nil, false
	}
	return body, true
}

func (c *RedisCache) Set(ctx context.Context, patternID string, body []byte) {
	c.rdb.Set(ctx, cacheKeyPrefix+patternID, body, c.ttl)
}
