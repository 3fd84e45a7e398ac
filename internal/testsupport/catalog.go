// Package testsupport holds shared fixtures for package tests.
package testsupport

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/stockbind/backend/internal/domain"
)

// Method names accepted by Catalog.FailOn
const (
	MethodManualOverride     = "ManualOverride"
	MethodCachedResolution   = "CachedResolution"
	MethodMatchingColor      = "EntriesMatchingColor"
	MethodMatchingAnyColor   = "EntriesMatchingAnyColor"
	MethodCodesWithPrefix    = "CodesWithPrefix"
	MethodOverlappingKeyword = "EntriesOverlappingKeywords"
	MethodContainingTerms    = "EntriesContainingTerms"
	MethodScanEntries        = "ScanEntries"
	MethodLexiconKeywords    = "LexiconKeywords"
)

// Catalog is an in-memory domain.CatalogStore with the same matching
// semantics as the SQL store, plus error injection and call counting.
type Catalog struct {
	mu        sync.Mutex
	entries   []domain.CatalogEntry
	overrides map[string]string
	urlCache  map[string]string
	lexicon   map[string][]string
	failures  map[string]error
	calls     map[string]int
}

// NewCatalog returns a catalog holding entries
func NewCatalog(entries ...domain.CatalogEntry) *Catalog {
	return &Catalog{
		entries:   entries,
		overrides: make(map[string]string),
		urlCache:  make(map[string]string),
		lexicon:   make(map[string][]string),
		failures:  make(map[string]error),
		calls:     make(map[string]int),
	}
}

// Entry builds a catalog entry with a single size row
func Entry(code, style, color string, l1 ...string) domain.CatalogEntry {
	return domain.CatalogEntry{
		ProductCode: code,
		StyleName:   style,
		Color:       color,
		Size:        "M",
		Title:       style + " " + color,
		KeywordsL1:  l1,
		SourceRank:  1,
	}
}

// AddOverride registers a manual override
func (c *Catalog) AddOverride(site, url, code string) *Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.overrides[site+"\x00"+url] = code
	return c
}

// AddCachedURL registers a previously resolved URL
func (c *Catalog) AddCachedURL(url, code string) *Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.urlCache[url] = code
	return c
}

// AddLexicon registers active keywords for (brand, level)
func (c *Catalog) AddLexicon(brand string, level domain.LexiconLevel, keywords ...string) *Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := lexKey(brand, level)
	c.lexicon[k] = append(c.lexicon[k], keywords...)
	return c
}

// FailOn makes method return err until cleared with a nil error
func (c *Catalog) FailOn(method string, err error) *Catalog {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		delete(c.failures, method)
	} else {
		c.failures[method] = err
	}
	return c
}

// Calls returns how many times method was invoked
func (c *Catalog) Calls(method string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[method]
}

// TotalCalls returns the number of store calls of any kind
func (c *Catalog) TotalCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, n := range c.calls {
		total += n
	}
	return total
}

func (c *Catalog) enter(method string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls[method]++
	return c.failures[method]
}

// ManualOverride implements domain.CatalogStore
func (c *Catalog) ManualOverride(ctx context.Context, site, url string) (string, error) {
	if err := c.enter(MethodManualOverride); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if code, ok := c.overrides[site+"\x00"+url]; ok {
		return code, nil
	}
	return "", domain.ErrNotFound
}

// CachedResolution implements domain.CatalogStore
func (c *Catalog) CachedResolution(ctx context.Context, url string) (string, error) {
	if err := c.enter(MethodCachedResolution); err != nil {
		return "", err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if code, ok := c.urlCache[url]; ok {
		return code, nil
	}
	return "", domain.ErrCacheMiss
}

// Lookup implements domain.URLCache
func (c *Catalog) Lookup(ctx context.Context, url string) (string, error) {
	return c.CachedResolution(ctx, url)
}

// EntriesMatchingColor implements domain.CatalogStore
func (c *Catalog) EntriesMatchingColor(ctx context.Context, color string, limit int) ([]domain.CatalogEntry, error) {
	if err := c.enter(MethodMatchingColor); err != nil {
		return nil, err
	}
	color = strings.ToLower(strings.TrimSpace(color))
	if color == "" {
		return nil, nil
	}
	return c.filter(limit, func(e domain.CatalogEntry) bool {
		ec := strings.ToLower(e.Color)
		return ec != "" && (strings.Contains(ec, color) || strings.Contains(color, ec))
	}), nil
}

// EntriesMatchingAnyColor implements domain.CatalogStore
func (c *Catalog) EntriesMatchingAnyColor(ctx context.Context, words []string, limit int) ([]domain.CatalogEntry, error) {
	if err := c.enter(MethodMatchingAnyColor); err != nil {
		return nil, err
	}
	return c.filter(limit, func(e domain.CatalogEntry) bool {
		ec := strings.ToLower(e.Color)
		for _, w := range words {
			if w != "" && strings.Contains(ec, strings.ToLower(w)) {
				return true
			}
		}
		return false
	}), nil
}

// CodesWithPrefix implements domain.CatalogStore
func (c *Catalog) CodesWithPrefix(ctx context.Context, prefix string, limit int) ([]domain.CodeColor, error) {
	if err := c.enter(MethodCodesWithPrefix); err != nil {
		return nil, err
	}
	prefix = strings.ToUpper(strings.TrimSpace(prefix))
	if prefix == "" {
		return nil, nil
	}
	seen := make(map[string]bool)
	var codes []domain.CodeColor
	for _, e := range c.filter(0, func(e domain.CatalogEntry) bool {
		return strings.HasPrefix(strings.ToUpper(e.ProductCode), prefix)
	}) {
		if !seen[e.ProductCode] {
			seen[e.ProductCode] = true
			codes = append(codes, domain.CodeColor{ProductCode: e.ProductCode, Color: e.Color})
		}
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i].ProductCode < codes[j].ProductCode })
	if limit > 0 && len(codes) > limit {
		codes = codes[:limit]
	}
	return codes, nil
}

// EntriesOverlappingKeywords implements domain.CatalogStore
func (c *Catalog) EntriesOverlappingKeywords(ctx context.Context, level domain.LexiconLevel, tokens []string, limit int) ([]domain.CatalogEntry, error) {
	if err := c.enter(MethodOverlappingKeyword); err != nil {
		return nil, err
	}
	want := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		want[t] = true
	}
	return c.filter(limit, func(e domain.CatalogEntry) bool {
		keywords := e.KeywordsL1
		if level == domain.LevelPrecise {
			keywords = e.KeywordsL2
		}
		for _, k := range keywords {
			if want[k] {
				return true
			}
		}
		return false
	}), nil
}

// EntriesContainingTerms implements domain.CatalogStore
func (c *Catalog) EntriesContainingTerms(ctx context.Context, terms []string, limit int) ([]domain.CatalogEntry, error) {
	if err := c.enter(MethodContainingTerms); err != nil {
		return nil, err
	}
	if len(terms) == 0 {
		return nil, nil
	}
	return c.filter(limit, func(e domain.CatalogEntry) bool {
		text := strings.ToLower(e.StyleName + " " + e.Title)
		for _, t := range terms {
			if !strings.Contains(text, strings.ToLower(t)) {
				return false
			}
		}
		return true
	}), nil
}

// ScanEntries implements domain.CatalogStore
func (c *Catalog) ScanEntries(ctx context.Context, limit int) ([]domain.CatalogEntry, error) {
	if err := c.enter(MethodScanEntries); err != nil {
		return nil, err
	}
	return c.filter(limit, func(domain.CatalogEntry) bool { return true }), nil
}

// LexiconKeywords implements domain.CatalogStore
func (c *Catalog) LexiconKeywords(ctx context.Context, brand string, level domain.LexiconLevel) ([]string, error) {
	if err := c.enter(MethodLexiconKeywords); err != nil {
		return nil, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lexicon[lexKey(brand, level)]...), nil
}

func (c *Catalog) filter(limit int, keep func(domain.CatalogEntry) bool) []domain.CatalogEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []domain.CatalogEntry
	for _, e := range c.entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].SourceRank != out[j].SourceRank {
			return out[i].SourceRank < out[j].SourceRank
		}
		if out[i].ProductCode != out[j].ProductCode {
			return out[i].ProductCode < out[j].ProductCode
		}
		return out[i].Size < out[j].Size
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func lexKey(brand string, level domain.LexiconLevel) string {
	return strings.ToLower(strings.TrimSpace(brand)) + "\x00" + string(rune('0'+int(level)))
}
