// Package retrieval produces bounded candidate sets from the catalog store
// before the scoring strategies run.
package retrieval

import (
	"context"
	"strings"

	"github.com/stockbind/backend/internal/domain"
	"github.com/stockbind/backend/internal/normalize"
)

// Recall paths reported in Recall.Via
const (
	ViaColor       = "color"
	ViaColorFamily = "color_family"
	ViaKeywords    = "keywords"
	ViaTerms       = "terms"
	ViaScan        = "scan"
	ViaNone        = "none"
)

// Config bounds every recall query
type Config struct {
	RecallLimit     int // cap on any single recall query
	WidenLimit      int // cap on the unfiltered last-resort scan
	MaxSearchTokens int // significant style tokens AND-ed into the term query
}

// DefaultConfig returns the standard recall bounds
func DefaultConfig() Config {
	return Config{
		RecallLimit:     2000,
		WidenLimit:      50000,
		MaxSearchTokens: 6,
	}
}

func (c Config) normalized() Config {
	d := DefaultConfig()
	if c.RecallLimit <= 0 {
		c.RecallLimit = d.RecallLimit
	}
	if c.WidenLimit <= 0 {
		c.WidenLimit = d.WidenLimit
	}
	if c.MaxSearchTokens <= 0 {
		c.MaxSearchTokens = d.MaxSearchTokens
	}
	return c
}

// Recall is a candidate set plus the path that produced it
type Recall struct {
	Entries []domain.CatalogEntry
	Via     string
}

// Retriever issues read-only candidate queries against a catalog store
type Retriever struct {
	store domain.CatalogStore
	cfg   Config
}

// NewRetriever creates a retriever over store
func NewRetriever(store domain.CatalogStore, cfg Config) *Retriever {
	return &Retriever{store: store, cfg: cfg.normalized()}
}

// Config returns the effective recall bounds
func (r *Retriever) Config() Config {
	return r.cfg
}

// ByColor recalls entries whose color matches the normalized listing color.
// The canonical color is expanded to its synonyms and to the raw listing
// color, so a catalog row stored as "Charcoal" is found for a listing whose
// color normalizes to "Grey". When nothing matches, recall widens to the
// color family.
func (r *Retriever) ByColor(ctx context.Context, normalizedColor, rawColor string) (Recall, error) {
	color := strings.TrimSpace(normalizedColor)
	if color == "" {
		return Recall{Via: ViaNone}, nil
	}

	entries, err := r.store.EntriesMatchingColor(ctx, color, r.cfg.RecallLimit)
	if err != nil {
		return Recall{}, err
	}
	q := newColorQuery([]string{color}, rawColor)
	if extra := q.aliasesBeyond(normalize.Fold(color)); len(extra) > 0 {
		more, err := r.store.EntriesMatchingAnyColor(ctx, extra, r.cfg.RecallLimit)
		if err != nil {
			return Recall{}, err
		}
		entries = r.mergeEntries(entries, q.keep(more))
	}
	if len(entries) > 0 {
		return Recall{Entries: entries, Via: ViaColor}, nil
	}

	family := normalize.ColorFamily(color)
	if len(family) == 0 {
		return Recall{Via: ViaNone}, nil
	}
	fq := newColorQuery(family, "")
	entries, err = r.store.EntriesMatchingAnyColor(ctx, fq.words, r.cfg.RecallLimit)
	if err != nil {
		return Recall{}, err
	}
	entries = fq.keep(entries)
	if len(entries) == 0 {
		return Recall{Via: ViaNone}, nil
	}
	return Recall{Entries: entries, Via: ViaColorFamily}, nil
}

// colorQuery is a set of color words sent to the store. Short synonyms such as
// "ink" or "ash" hit unrelated colors by substring ("pink", "washed"), so an
// entry recalled only through a synonym must normalize into the accepted set.
type colorQuery struct {
	words     []string
	direct    []string
	canonical map[string]bool
}

func newColorQuery(colors []string, rawColor string) colorQuery {
	q := colorQuery{canonical: make(map[string]bool)}
	seen := make(map[string]bool)
	add := func(w string) {
		if w != "" && !seen[w] {
			seen[w] = true
			q.words = append(q.words, w)
		}
	}
	for _, c := range colors {
		key := normalize.Fold(c)
		q.direct = append(q.direct, key)
		q.canonical[key] = true
		add(key)
	}
	primary, _, _ := strings.Cut(rawColor, "/")
	if raw := normalize.Fold(normalize.StripEmbeddedColorCode(primary)); raw != "" {
		q.direct = append(q.direct, raw)
		add(raw)
	}
	for _, c := range colors {
		for _, alias := range normalize.ColorAliases(c) {
			add(alias)
		}
	}
	return q
}

// aliasesBeyond returns the query words other than the already-queried color
func (q colorQuery) aliasesBeyond(queried string) []string {
	out := make([]string, 0, len(q.words))
	for _, w := range q.words {
		if w != queried {
			out = append(out, w)
		}
	}
	return out
}

func (q colorQuery) keep(entries []domain.CatalogEntry) []domain.CatalogEntry {
	kept := entries[:0:0]
	for _, e := range entries {
		if q.accepts(e) {
			kept = append(kept, e)
		}
	}
	return kept
}

func (q colorQuery) accepts(e domain.CatalogEntry) bool {
	folded := normalize.Fold(e.Color)
	for _, w := range q.direct {
		if strings.Contains(folded, w) {
			return true
		}
	}
	return q.canonical[normalize.Fold(normalize.NormalizeColor(e.Color))]
}

// mergeEntries appends entries not already present, capped at the recall limit
func (r *Retriever) mergeEntries(base, more []domain.CatalogEntry) []domain.CatalogEntry {
	seen := make(map[string]bool, len(base))
	for _, e := range base {
		seen[e.ProductCode+"|"+e.Size+"|"+e.Color] = true
	}
	for _, e := range more {
		if len(base) >= r.cfg.RecallLimit {
			break
		}
		key := e.ProductCode + "|" + e.Size + "|" + e.Color
		if !seen[key] {
			seen[key] = true
			base = append(base, e)
		}
	}
	return base
}

// ByCodePrefix recalls the distinct codes starting with a partial code
func (r *Retriever) ByCodePrefix(ctx context.Context, partial string) ([]domain.CodeColor, error) {
	partial = strings.ToUpper(strings.TrimSpace(partial))
	if partial == "" {
		return nil, nil
	}
	return r.store.CodesWithPrefix(ctx, partial, r.cfg.RecallLimit)
}

// ByKeywords recalls entries whose keyword set at level overlaps tokens by at
// least minOverlap tokens. The store does the set-overlap filtering; the
// minimum is enforced here.
func (r *Retriever) ByKeywords(ctx context.Context, level domain.LexiconLevel, tokens []string, minOverlap int) (Recall, error) {
	if len(tokens) == 0 {
		return Recall{Via: ViaNone}, nil
	}
	if minOverlap < 1 {
		minOverlap = 1
	}

	entries, err := r.store.EntriesOverlappingKeywords(ctx, level, tokens, r.cfg.RecallLimit)
	if err != nil {
		return Recall{}, err
	}

	kept := entries[:0]
	for _, e := range entries {
		keywords := e.KeywordsL1
		if level == domain.LevelPrecise {
			keywords = e.KeywordsL2
		}
		if OverlapCount(tokens, keywords) >= minOverlap {
			kept = append(kept, e)
		}
	}
	if len(kept) == 0 {
		return Recall{Via: ViaNone}, nil
	}
	return Recall{Entries: kept, Via: ViaKeywords}, nil
}

// BySeriesAndTokens recalls entries whose style text contains every series
// word and up to MaxSearchTokens significant tokens. When that over-constrained
// query finds nothing it widens to an unfiltered scan capped at WidenLimit.
func (r *Retriever) BySeriesAndTokens(ctx context.Context, series, tokens []string) (Recall, error) {
	terms := make([]string, 0, len(series)+r.cfg.MaxSearchTokens)
	seen := make(map[string]bool)
	for _, s := range series {
		if !seen[s] {
			seen[s] = true
			terms = append(terms, s)
		}
	}
	added := 0
	for _, tok := range tokens {
		if added >= r.cfg.MaxSearchTokens {
			break
		}
		if seen[tok] {
			continue
		}
		seen[tok] = true
		terms = append(terms, tok)
		added++
	}

	if len(terms) > 0 {
		entries, err := r.store.EntriesContainingTerms(ctx, terms, r.cfg.RecallLimit)
		if err != nil {
			return Recall{}, err
		}
		if len(entries) > 0 {
			return Recall{Entries: entries, Via: ViaTerms}, nil
		}
	}

	entries, err := r.store.ScanEntries(ctx, r.cfg.WidenLimit)
	if err != nil {
		return Recall{}, err
	}
	return Recall{Entries: entries, Via: ViaScan}, nil
}

// OverlapCount counts the distinct tokens that appear in keywords
func OverlapCount(tokens, keywords []string) int {
	if len(tokens) == 0 || len(keywords) == 0 {
		return 0
	}
	set := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		set[strings.ToLower(k)] = true
	}
	count := 0
	seen := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		if set[t] && !seen[t] {
			seen[t] = true
			count++
		}
	}
	return count
}
