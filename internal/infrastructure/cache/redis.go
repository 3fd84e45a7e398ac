package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stockbind/backend/internal/domain"
)

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	URL      string // redis://[:password@]host:port/db
	PoolSize int
	Prefix   string
}

// RedisCache is a URL resolution cache shared between resolver processes
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache connects to Redis and verifies the connection
func NewRedisCache(cfg RedisConfig) (*RedisCache, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("%w: parse redis url: %v", domain.ErrCacheUnavailable, err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: redis ping failed: %v", domain.ErrCacheUnavailable, err)
	}
	return NewRedisCacheFromClient(client, cfg.Prefix), nil
}

// NewRedisCacheFromClient wraps an existing client without pinging it
func NewRedisCacheFromClient(client *redis.Client, prefix string) *RedisCache {
	if prefix == "" {
		prefix = "stockbind:"
	}
	return &RedisCache{client: client, prefix: prefix}
}

// Lookup returns the code previously stored for url
func (c *RedisCache) Lookup(ctx context.Context, url string) (string, error) {
	code, err := c.client.Get(ctx, c.prefix+urlKey(url)).Result()
	if errors.Is(err, redis.Nil) {
		return "", domain.ErrCacheMiss
	}
	if err != nil {
		return "", fmt.Errorf("%w: redis get: %v", domain.ErrCacheUnavailable, err)
	}
	return code, nil
}

// Store remembers code for url until ttl elapses
func (c *RedisCache) Store(ctx context.Context, url, code string, ttl time.Duration) error {
	if err := c.client.Set(ctx, c.prefix+urlKey(url), code, ttl).Err(); err != nil {
		return fmt.Errorf("%w: redis set: %v", domain.ErrCacheUnavailable, err)
	}
	return nil
}

// Close closes the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
