package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/lorrc/helpdesk-metrics-backend/internal/core/ports"
)

// RedisThreadCache stores threads in Redis so cache entries survive process
// restarts and are shared between instances. Entries carry a TTL; expiry is
// just a miss for the augmentor.
type RedisThreadCache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ ports.ThreadCache = (*RedisThreadCache)(nil)

// NewRedisThreadCache creates a cache on an existing Redis client. A
// non-positive ttl disables expiry.
func NewRedisThreadCache(client *redis.Client, ttl time.Duration) *RedisThreadCache {
	return &RedisThreadCache{client: client, ttl: ttl}
}

func threadKey(ticketID int64) string {
	return fmt.Sprintf("thread:%d", ticketID)
}

// Get returns the cached thread, or (nil, nil) on a miss or expired entry.
func (c *RedisThreadCache) Get(ctx context.Context, ticketID int64) (*ports.CachedThread, error) {
	data, err := c.client.Get(ctx, threadKey(ticketID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get thread %d: %w", ticketID, err)
	}

	var thread ports.CachedThread
	if err := json.Unmarshal(data, &thread); err != nil {
		return nil, fmt.Errorf("decode cached thread %d: %w", ticketID, err)
	}
	return &thread, nil
}

// Put stores the thread with the configured TTL.
func (c *RedisThreadCache) Put(ctx context.Context, ticketID int64, thread *ports.CachedThread) error {
	data, err := json.Marshal(thread)
	if err != nil {
		return fmt.Errorf("encode thread %d: %w", ticketID, err)
	}
	if err := c.client.Set(ctx, threadKey(ticketID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set thread %d: %w", ticketID, err)
	}
	return nil
}

// Ping checks connectivity to the Redis server.
func (c *RedisThreadCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
