// Package cache is a thin Redis JSON cache used for dashboard stat
// aggregates.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/seatrack/cargo-backend/internal/config"
)

// Cache wraps a Redis client with JSON marshaling and a fixed TTL.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewClient creates a Redis client from configuration
func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
}

// New creates a new cache
func New(client *redis.Client, ttl time.Duration, logger *slog.Logger) *Cache {
	return &Cache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// GetJSON loads a cached value into v. Returns false on a miss; cache
// errors are logged and reported as misses so callers fall through to
// the source of truth.
func (c *Cache) GetJSON(ctx context.Context, key string, v interface{}) bool {
	data, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false
	}
	if err != nil {
		c.logger.Warn("Cache read failed", "key", key, "error", err)
		return false
	}

	if err := json.Unmarshal([]byte(data), v); err != nil {
		c.logger.Warn("Cache entry corrupt, dropping", "key", key, "error", err)
		c.client.Del(ctx, key)
		return false
	}

	return true
}

// SetJSON stores a value under the cache TTL. Failures are logged,
// never surfaced; the cache is advisory.
func (c *Cache) SetJSON(ctx context.Context, key string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("Cache marshal failed", "key", key, "error", err)
		return
	}

	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("Cache write failed", "key", key, "error", err)
	}
}

// Invalidate drops cached keys, typically after a container write.
func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn("Cache invalidation failed", "keys", keys, "error", err)
	}
}
