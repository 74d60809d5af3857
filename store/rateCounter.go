package store

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateCounter is a fixed-window request counter kept in Redis.
type RateCounter struct {
	client *redis.Client
	prefix string
}

func NewRateCounter(client *redis.Client, prefix string) *RateCounter {
	return &RateCounter{client: client, prefix: prefix}
}

// Incr increments the counter for key and returns the new count together with
// the time left in the window. The TTL is set only on the first hit so the
// window does not slide.
func (c *RateCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	fullKey := c.prefix + ":" + key

	count, err := c.client.Incr(ctx, fullKey).Result()
	if err != nil {
		return 0, 0, err
	}
	if count == 1 {
		if err := c.client.Expire(ctx, fullKey, window).Err(); err != nil {
			return 0, 0, err
		}
	}

	ttl, err := c.client.TTL(ctx, fullKey).Result()
	if err != nil {
		return 0, 0, err
	}
	return count, ttl, nil
}
