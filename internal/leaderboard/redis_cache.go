package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "economy:leaderboard:top:"

// RedisCache keeps top lists in Redis with a short TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache wraps client. A non-positive ttl defaults to five seconds.
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}
	return &RedisCache{client: client, ttl: ttl}
}

// Top implements Cache.
func (c *RedisCache) Top(ctx context.Context, n int) ([]Entry, bool, error) {
	raw, errGet := c.client.Get(ctx, redisKey(n)).Bytes()
	if errGet != nil {
		if errors.Is(errGet, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, errGet
	}
	var entries []Entry
	if errUnmarshal := json.Unmarshal(raw, &entries); errUnmarshal != nil {
		return nil, false, fmt.Errorf("leaderboard: decode cached top: %w", errUnmarshal)
	}
	return entries, true, nil
}

// StoreTop implements Cache.
func (c *RedisCache) StoreTop(ctx context.Context, n int, entries []Entry) error {
	raw, errMarshal := json.Marshal(entries)
	if errMarshal != nil {
		return errMarshal
	}
	return c.client.Set(ctx, redisKey(n), raw, c.ttl).Err()
}

func redisKey(n int) string {
	return fmt.Sprintf("%s%d", redisKeyPrefix, n)
}
