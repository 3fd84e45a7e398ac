package domain

import (
	"context"
	"time"
)

// CatalogStore is the read-only catalog access the resolver needs.
// Every method is a bounded SELECT; limit <= 0 means the store default.
type CatalogStore interface {
	ManualOverride(ctx context.Context, site, url string) (string, error)
	CachedResolution(ctx context.Context, url string) (string, error)
	EntriesMatchingColor(ctx context.Context, color string, limit int) ([]CatalogEntry, error)
	EntriesMatchingAnyColor(ctx context.Context, words []string, limit int) ([]CatalogEntry, error)
	CodesWithPrefix(ctx context.Context, prefix string, limit int) ([]CodeColor, error)
	EntriesOverlappingKeywords(ctx context.Context, level LexiconLevel, tokens []string, limit int) ([]CatalogEntry, error)
	EntriesContainingTerms(ctx context.Context, terms []string, limit int) ([]CatalogEntry, error)
	ScanEntries(ctx context.Context, limit int) ([]CatalogEntry, error)
	LexiconKeywords(ctx context.Context, brand string, level LexiconLevel) ([]string, error)
}

// URLCache looks up a previously resolved code for a page URL.
// A miss is reported as ErrCacheMiss.
type URLCache interface {
	Lookup(ctx context.Context, url string) (string, error)
}

// URLCacheWriter is implemented by caches the service may write resolutions back into
type URLCacheWriter interface {
	URLCache
	Store(ctx context.Context, url, code string, ttl time.Duration) error
}
