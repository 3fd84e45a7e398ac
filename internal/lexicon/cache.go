// Package lexicon caches the per-brand L1/L2 keyword sets for the process lifetime.
package lexicon

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/stockbind/backend/internal/domain"
)

// Loader reads active keywords for one (brand, level) from the catalog store
type Loader interface {
	LexiconKeywords(ctx context.Context, brand string, level domain.LexiconLevel) ([]string, error)
}

type key struct {
	brand string
	level domain.LexiconLevel
}

// Cache memoizes keyword sets keyed by (brand, level).
//
// A set is populated at most once per key and never invalidated; a fresh
// process picks up lexicon changes. Two goroutines missing the same key at the
// same time may both query the store; the first set stored wins and both
// results are identical. Load errors are not cached.
type Cache struct {
	loader Loader
	logger zerolog.Logger

	mu   sync.RWMutex
	sets map[key]map[string]struct{}
}

// NewCache creates an empty cache backed by loader
func NewCache(loader Loader, logger zerolog.Logger) *Cache {
	return &Cache{
		loader: loader,
		logger: logger,
		sets:   make(map[key]map[string]struct{}),
	}
}

// Load returns the keyword set for (brand, level). It fails open: a store
// error yields an empty set so callers fall back to raw token extraction.
// The returned map must not be modified.
func (c *Cache) Load(ctx context.Context, brand string, level domain.LexiconLevel) map[string]struct{} {
	k := key{brand: strings.ToLower(strings.TrimSpace(brand)), level: level}

	c.mu.RLock()
	set, ok := c.sets[k]
	c.mu.RUnlock()
	if ok {
		return set
	}

	keywords, err := c.loader.LexiconKeywords(ctx, k.brand, level)
	if err != nil {
		c.logger.Warn().Err(err).Str("brand", k.brand).Int("level", int(level)).
			Msg("lexicon load failed, using empty set")
		return map[string]struct{}{}
	}

	loaded := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			loaded[kw] = struct{}{}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if existing, ok := c.sets[k]; ok {
		return existing
	}
	c.sets[k] = loaded
	c.logger.Debug().Str("brand", k.brand).Int("level", int(level)).Int("keywords", len(loaded)).
		Msg("lexicon loaded")
	return loaded
}

// Filter keeps the tokens present in the (brand, level) lexicon. When the
// lexicon is empty the tokens are returned unchanged.
func (c *Cache) Filter(ctx context.Context, brand string, level domain.LexiconLevel, tokens []string) []string {
	set := c.Load(ctx, brand, level)
	if len(set) == 0 {
		return tokens
	}
	kept := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if _, ok := set[tok]; ok {
			kept = append(kept, tok)
		}
	}
	return kept
}
