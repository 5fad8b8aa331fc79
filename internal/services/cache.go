package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

func friendsListKey(userID int64) string     { return fmt.Sprintf("friends_list_%d", userID) }
func friendsCountKey(userID int64) string    { return fmt.Sprintf("friends_count_%d", userID) }
func pendingRequestsKey(userID int64) string { return fmt.Sprintf("pending_requests_%d", userID) }
func sentRequestsKey(userID int64) string    { return fmt.Sprintf("sent_requests_%d", userID) }

// RedisCache stores JSON values in Redis.
type RedisCache struct {
	redis *redis.Client
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{redis: client}
}

func (c *RedisCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := c.redis.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading cache key %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decoding cache key %s: %w", key, err)
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding cache key %s: %w", key, err)
	}
	if err := c.redis.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("writing cache key %s: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	return nil
}

func dropCached(ctx context.Context, c Cache, keys ...string) {
	if c == nil {
		return
	}
	if err := c.Delete(ctx, keys...); err != nil {
		logCacheError("cache invalidation failed", strings.Join(keys, ","), err)
	}
}

// cacheAside returns the cached value for key, loading and storing it on a
// miss. Cache failures are logged and fall through to load.
func cacheAside[T any](ctx context.Context, c Cache, key string, ttl time.Duration, load func() (T, error)) (T, error) {
	if c == nil {
		return load()
	}
	var cached T
	hit, err := c.Get(ctx, key, &cached)
	if err != nil {
		logCacheError("cache read failed", key, err)
	}
	if hit {
		return cached, nil
	}

	value, err := load()
	if err != nil {
		return value, err
	}
	if err := c.Set(ctx, key, value, ttl); err != nil {
		logCacheError("cache write failed", key, err)
	}
	return value, nil
}
