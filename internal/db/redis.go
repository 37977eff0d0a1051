package db

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"webforge/internal/logging"
)

// NewRedis connects to Redis from a redis:// URL. Returns nil when no URL is
// configured or the server is unreachable; callers treat a nil client as a
// disabled cache.
func NewRedis(url string) *redis.Client {
	if url == "" {
		logging.S().Info("redis not configured, status cache disabled")
		return nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		logging.S().Warnw("invalid REDIS_URL, status cache disabled", "error", err)
		return nil
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logging.S().Warnw("redis unreachable, status cache disabled", "error", err)
		_ = client.Close()
		return nil
	}

	logging.S().Info("connected to redis")
	return client
}
