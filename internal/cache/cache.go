// Package cache is a thin JSON cache over Redis. Every method is a no-op
// on a nil client, so callers never branch on whether caching is enabled.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"

	"webforge/internal/logging"
)

// Cache stores JSON-encoded values under namespaced keys.
type Cache struct {
	client *redis.Client
	prefix string
}

// New wraps a redis client. client may be nil (disabled cache).
func New(client *redis.Client, prefix string) *Cache {
	return &Cache{client: client, prefix: prefix}
}

// Enabled reports whether a backing store is connected.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

func (c *Cache) key(k string) string {
	return c.prefix + ":" + k
}

// Get loads a cached value into dest. Returns false on miss, disabled
// cache, or decode failure.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) bool {
	if !c.Enabled() {
		return false
	}
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		logging.S().Warnw("corrupt cache entry dropped", "key", key, "error", err)
		c.client.Del(ctx, c.key(key))
		return false
	}
	return true
}

// Set stores a value with a TTL. Failures only log; the cache is best
// effort.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if !c.Enabled() {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		logging.S().Warnw("failed to encode cache value", "key", key, "error", err)
		return
	}
	if err := c.client.Set(ctx, c.key(key), raw, ttl).Err(); err != nil {
		logging.S().Warnw("cache write failed", "key", key, "error", err)
	}
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) {
	if !c.Enabled() {
		return
	}
	c.client.Del(ctx, c.key(key))
}
