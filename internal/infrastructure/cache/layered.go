package cache

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/stockbind/backend/internal/domain"
)

// Layered puts a fast writable cache in front of a slower read-only source,
// normally the store's url_code_cache table. Hits from the source are copied
// into the front cache.
type Layered struct {
	front  domain.URLCacheWriter
	source domain.URLCache
	ttl    time.Duration
	logger zerolog.Logger
}

// NewLayered creates a layered cache. source may be nil.
func NewLayered(front domain.URLCacheWriter, source domain.URLCache, ttl time.Duration, logger zerolog.Logger) *Layered {
	return &Layered{front: front, source: source, ttl: ttl, logger: logger}
}

// Lookup implements domain.URLCache
func (l *Layered) Lookup(ctx context.Context, url string) (string, error) {
	code, err := l.front.Lookup(ctx, url)
	if err == nil {
		return code, nil
	}
	if !errors.Is(err, domain.ErrCacheMiss) {
		l.logger.Warn().Err(err).Str("url", url).Msg("front cache lookup failed, trying source")
	}
	if l.source == nil {
		return "", domain.ErrCacheMiss
	}

	code, err = l.source.Lookup(ctx, url)
	if errors.Is(err, domain.ErrNotFound) {
		return "", domain.ErrCacheMiss
	}
	if err != nil {
		return "", err
	}
	if err := l.front.Store(ctx, url, code, l.ttl); err != nil {
		l.logger.Warn().Err(err).Str("url", url).Msg("front cache warm failed")
	}
	return code, nil
}

// Store implements domain.URLCacheWriter
func (l *Layered) Store(ctx context.Context, url, code string, ttl time.Duration) error {
	return l.front.Store(ctx, url, code, ttl)
}
