package enrich

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const pageCachePrefix = "pulsebrief:fulltext:"

// RedisPageCache keeps extracted page text keyed by a hash of the URL.
type RedisPageCache struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisPageCache(client redis.Cmdable, ttl time.Duration) *RedisPageCache {
	return &RedisPageCache{client: client, ttl: ttl}
}

func pageCacheKey(url string) string {
	sum := sha1.Sum([]byte(url))
	return pageCachePrefix + hex.EncodeToString(sum[:])
}

func (c *RedisPageCache) Get(ctx context.Context, url string) (string, bool, error) {
	text, err := c.client.Get(ctx, pageCacheKey(url)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

func (c *RedisPageCache) Set(ctx context.Context, url, text string) error {
	return c.client.Set(ctx, pageCacheKey(url), text, c.ttl).Err()
}
