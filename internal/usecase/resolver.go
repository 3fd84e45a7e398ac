package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stockbind/backend/internal/domain"
	"github.com/stockbind/backend/internal/normalize"
	"github.com/stockbind/backend/internal/retrieval"
)

// Stage names recorded in traces and returned as Resolution.By
const (
	StageManualOverride = "manual_override"
	StageURLCache       = "url_cache"
	StagePartialCode    = "partial_code"
	StageSKUGuess       = "sku_guess"
	StageUnresolved     = "unresolved"
)

// DefaultDebugTopN is how many ranked candidates a debug trace keeps per strategy
const DefaultDebugTopN = 5

// Options controls a single resolution call
type Options struct {
	Debug     bool
	DebugTopN int
}

// stage is one step of the cascade
type stage struct {
	name string
	run  func() (domain.Outcome, []domain.MatchCandidate)
}

// Resolver runs the resolution cascade for one listing at a time. It only
// reads from its collaborators; remembering results is the caller's concern.
type Resolver struct {
	store      domain.CatalogStore
	urlCache   domain.URLCache
	retriever  *retrieval.Retriever
	strategies []Strategy
	logger     zerolog.Logger
}

// NewResolver wires the cascade. urlCache may be nil, in which case the
// store's own URL cache table is consulted.
func NewResolver(store domain.CatalogStore, urlCache domain.URLCache, retriever *retrieval.Retriever, strategies []Strategy, logger zerolog.Logger) *Resolver {
	if urlCache == nil {
		urlCache = storeURLCache{store: store}
	}
	if retriever == nil {
		retriever = retrieval.NewRetriever(store, retrieval.DefaultConfig())
	}
	return &Resolver{
		store:      store,
		urlCache:   urlCache,
		retriever:  retriever,
		strategies: strategies,
		logger:     logger.With().Str("component", "resolver").Logger(),
	}
}

// NewDefaultStrategies returns the three scoring strategies in cascade order
func NewDefaultStrategies(deps MatchDeps, ck ColorKeywordPolicy, lx LexiconPolicy, sim SimilarityPolicy) []Strategy {
	return []Strategy{
		NewColorKeywordStrategy(deps, ck),
		NewLexiconStrategy(deps, lx),
		NewSimilarityStrategy(deps, sim),
	}
}

// Resolve binds a listing to a catalog code or to domain.UnresolvedCode. It
// never returns an error: data problems resolve to misses and store failures
// are recorded per stage while the cascade moves on.
func (r *Resolver) Resolve(ctx context.Context, listing *domain.ScrapedListing, opts Options) *domain.Resolution {
	if listing == nil {
		listing = &domain.ScrapedListing{}
	}
	if opts.DebugTopN <= 0 {
		opts.DebugTopN = DefaultDebugTopN
	}

	trace := &domain.ResolutionTrace{ID: uuid.NewString()}
	log := r.logger.With().Str("trace_id", trace.ID).Str("site", listing.Site).Str("url", listing.URL).Logger()

	finish := func(code, by string) *domain.Resolution {
		trace.Final = domain.FinalDecision{Code: code, By: by}
		log.Debug().Str("code", code).Str("by", by).Int("stages", len(trace.Stages)).Msg("resolution finished")
		return &domain.Resolution{Code: code, By: by, Trace: trace}
	}

	stages := []stage{
		{StageManualOverride, func() (domain.Outcome, []domain.MatchCandidate) { return r.manualOverride(ctx, listing), nil }},
		{StageURLCache, func() (domain.Outcome, []domain.MatchCandidate) { return r.cachedURL(ctx, listing), nil }},
		{StagePartialCode, func() (domain.Outcome, []domain.MatchCandidate) { return r.partialCode(ctx, listing), nil }},
	}
	for _, s := range r.strategies {
		strategy := s
		stages = append(stages, stage{strategy.Name(), func() (domain.Outcome, []domain.MatchCandidate) {
			return strategy.Resolve(ctx, listing)
		}})
	}
	stages = append(stages, stage{StageSKUGuess, func() (domain.Outcome, []domain.MatchCandidate) { return skuGuess(listing), nil }})

	for _, st := range stages {
		if err := ctx.Err(); err != nil {
			trace.Record(st.name, domain.StatusError, err.Error())
			log.Warn().Err(err).Str("stage", st.name).Msg("resolution abandoned")
			return finish(domain.UnresolvedCode, StageUnresolved)
		}

		outcome, ranked := st.run()
		rec := trace.Record(st.name, statusOf(outcome), outcome.Reason)
		if opts.Debug && len(ranked) > 0 {
			rec.Candidates = topN(ranked, opts.DebugTopN)
		}

		switch outcome.Kind {
		case domain.Failed:
			log.Error().Err(outcome.Err).Str("stage", st.name).Msg("stage failed, continuing")
		case domain.Matched:
			if outcome.IsMatched() {
				return finish(outcome.Code, st.name)
			}
		default:
			log.Debug().Str("stage", st.name).Str("reason", outcome.Reason).Msg("stage miss")
		}
	}
	return finish(domain.UnresolvedCode, StageUnresolved)
}

func (r *Resolver) manualOverride(ctx context.Context, listing *domain.ScrapedListing) domain.Outcome {
	if listing.Site == "" || listing.URL == "" {
		return domain.NoMatch("listing has no site or url")
	}
	code, err := r.store.ManualOverride(ctx, listing.Site, listing.URL)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return domain.NoMatch("no override")
	case err != nil:
		return domain.StageFailed(fmt.Errorf("manual override: %w", err))
	case code == "":
		return domain.NoMatch("empty override")
	}
	return domain.MatchedCode(code, "manual override")
}

func (r *Resolver) cachedURL(ctx context.Context, listing *domain.ScrapedListing) domain.Outcome {
	if listing.URL == "" {
		return domain.NoMatch("listing has no url")
	}
	code, err := r.urlCache.Lookup(ctx, listing.URL)
	switch {
	case errors.Is(err, domain.ErrCacheMiss), errors.Is(err, domain.ErrNotFound):
		return domain.NoMatch("url not cached")
	case err != nil:
		return domain.StageFailed(fmt.Errorf("url cache: %w", err))
	case code == "" || code == domain.UnresolvedCode:
		return domain.NoMatch("empty cache entry")
	}
	return domain.MatchedCode(code, "previously resolved url")
}

func (r *Resolver) partialCode(ctx context.Context, listing *domain.ScrapedListing) domain.Outcome {
	partial := strings.TrimSpace(listing.PartialCode)
	if partial == "" {
		return domain.NoMatch("listing has no partial code")
	}
	codes, err := r.retriever.ByCodePrefix(ctx, partial)
	if err != nil {
		return domain.StageFailed(fmt.Errorf("prefix recall: %w", err))
	}
	switch len(codes) {
	case 0:
		return domain.NoMatch("no codes with prefix " + partial)
	case 1:
		return domain.MatchedCode(codes[0].ProductCode, "single code for prefix")
	}

	color := normalize.NormalizeColor(listing.RawColor)
	if color == "" {
		return domain.NoMatch(fmt.Sprintf("%d codes for prefix and no listing color", len(codes)))
	}
	var matched []string
	for _, c := range codes {
		if normalize.NormalizeColor(c.Color) == color {
			matched = append(matched, c.ProductCode)
		}
	}
	if len(matched) != 1 {
		return domain.NoMatch(fmt.Sprintf("%d codes for prefix, %d with color %s", len(codes), len(matched), color))
	}
	return domain.MatchedCode(matched[0], "prefix disambiguated by color "+color)
}

func skuGuess(listing *domain.ScrapedListing) domain.Outcome {
	sku := strings.TrimSpace(listing.SKUGuess)
	if sku == "" || strings.EqualFold(sku, domain.UnresolvedCode) {
		return domain.NoMatch("no sku asserted by source")
	}
	return domain.MatchedCode(sku, "literal sku from source page")
}

func statusOf(o domain.Outcome) domain.StageStatus {
	switch o.Kind {
	case domain.Matched:
		return domain.StatusHit
	case domain.Failed:
		return domain.StatusError
	default:
		return domain.StatusMiss
	}
}

func topN(ranked []domain.MatchCandidate, n int) []domain.MatchCandidate {
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	out := make([]domain.MatchCandidate, len(ranked))
	copy(out, ranked)
	return out
}

// storeURLCache reads the url cache table through the catalog store
type storeURLCache struct {
	store domain.CatalogStore
}

func (c storeURLCache) Lookup(ctx context.Context, url string) (string, error) {
	code, err := c.store.CachedResolution(ctx, url)
	if errors.Is(err, domain.ErrNotFound) {
		return "", domain.ErrCacheMiss
	}
	return code, err
}
