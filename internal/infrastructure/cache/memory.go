package cache

import (
	"context"
	"sync"
	"time"

	"github.com/stockbind/backend/internal/domain"
)

// cacheItem represents a single resolved code with expiration
type cacheItem struct {
	Code       string
	Expiration time.Time
}

// MemoryCache is a thread-safe in-memory URL resolution cache with TTL support
type MemoryCache struct {
	data  map[string]cacheItem
	mutex sync.RWMutex

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemoryCache creates a new in-memory cache
func NewMemoryCache() *MemoryCache {
	cache := &MemoryCache{
		data: make(map[string]cacheItem),
		stop: make(chan struct{}),
	}

	// Remove expired entries every 10 minutes
	go cache.cleanupExpired(10 * time.Minute)

	return cache
}

// Lookup returns the code previously stored for url
func (c *MemoryCache) Lookup(ctx context.Context, url string) (string, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[urlKey(url)]
	if !exists || time.Now().After(item.Expiration) {
		return "", domain.ErrCacheMiss
	}
	return item.Code, nil
}

// Store remembers code for url until ttl elapses
func (c *MemoryCache) Store(ctx context.Context, url, code string, ttl time.Duration) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[urlKey(url)] = cacheItem{
		Code:       code,
		Expiration: time.Now().Add(ttl),
	}
	return nil
}

// cleanupExpired removes expired entries periodically until Close
func (c *MemoryCache) cleanupExpired(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.evictExpired(time.Now())
		}
	}
}

func (c *MemoryCache) evictExpired(now time.Time) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	for key, item := range c.data {
		if now.After(item.Expiration) {
			delete(c.data, key)
		}
	}
}

// Close stops the cleanup goroutine
func (c *MemoryCache) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	return nil
}
