package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockbind/backend/internal/domain"
)

func unreachableClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		MaxRetries:  -1,
		DialTimeout: 200 * time.Millisecond,
	})
}

func TestNewRedisCache_InvalidURL(t *testing.T) {
	_, err := NewRedisCache(RedisConfig{URL: "http://not-redis"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCacheUnavailable)
}

func TestNewRedisCache_Unreachable(t *testing.T) {
	_, err := NewRedisCache(RedisConfig{URL: "redis://127.0.0.1:1/0"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCacheUnavailable)
}

func TestRedisCache_ErrorsWrapUnavailable(t *testing.T) {
	c := NewRedisCacheFromClient(unreachableClient(), "")
	defer c.Close()
	ctx := context.Background()

	_, err := c.Lookup(ctx, "https://a.example/1")
	assert.ErrorIs(t, err, domain.ErrCacheUnavailable)
	assert.NotErrorIs(t, err, domain.ErrCacheMiss)

	assert.ErrorIs(t, c.Store(ctx, "https://a.example/1", "MWX0339OL91", time.Minute), domain.ErrCacheUnavailable)
}

func TestRedisCache_DefaultPrefix(t *testing.T) {
	c := NewRedisCacheFromClient(unreachableClient(), "")
	defer c.Close()
	assert.Equal(t, "stockbind:", c.prefix)
}

func TestLayered_FallsBackWhenRedisIsDown(t *testing.T) {
	front := NewRedisCacheFromClient(unreachableClient(), "test:")
	defer front.Close()
	source := &mapSource{codes: map[string]string{"https://a.example/1": "MWX0339OL91"}}

	code, err := NewLayered(front, source, time.Hour, zerolog.Nop()).Lookup(context.Background(), "https://a.example/1")
	require.NoError(t, err)
	assert.Equal(t, "MWX0339OL91", code)
}
