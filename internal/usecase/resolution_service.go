package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/stockbind/backend/internal/domain"
)

// StageInvalid is reported as Resolution.By for batch items that fail validation
const StageInvalid = "invalid_listing"

// ResolutionServiceConfig holds configuration for the resolution service
type ResolutionServiceConfig struct {
	CacheTTL  time.Duration
	WriteBack bool
	Workers   int
	DebugTopN int
}

// ResolutionService validates listings, runs the resolver and remembers
// computed resolutions in the URL cache.
type ResolutionService struct {
	resolver  *Resolver
	cache     domain.URLCacheWriter
	cacheTTL  time.Duration
	writeBack bool
	workers   int
	debugTopN int
	logger    zerolog.Logger
}

// NewResolutionService creates a resolution service. cache may be nil.
func NewResolutionService(resolver *Resolver, cache domain.URLCacheWriter, config ResolutionServiceConfig, logger zerolog.Logger) *ResolutionService {
	cacheTTL := config.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 720 * time.Hour
	}
	workers := config.Workers
	if workers <= 0 {
		workers = 8
	}
	return &ResolutionService{
		resolver:  resolver,
		cache:     cache,
		cacheTTL:  cacheTTL,
		writeBack: config.WriteBack && cache != nil,
		workers:   workers,
		debugTopN: config.DebugTopN,
		logger:    logger.With().Str("component", "resolution_service").Logger(),
	}
}

// Resolve resolves one listing. The trace is always returned; debug only
// adds ranked candidates to its stage records.
// Flow: validate -> cascade -> write back computed hits -> return
func (s *ResolutionService) Resolve(ctx context.Context, listing *domain.ScrapedListing, debug bool) (*domain.Resolution, error) {
	if err := listing.Validate(); err != nil {
		return nil, err
	}

	res := s.resolver.Resolve(ctx, listing, Options{Debug: debug, DebugTopN: s.debugTopN})
	s.remember(ctx, listing, res)
	return res, nil
}

// ResolveBatch resolves listings with bounded concurrency. Results keep the
// input order; invalid listings resolve to domain.UnresolvedCode.
func (s *ResolutionService) ResolveBatch(ctx context.Context, listings []domain.ScrapedListing, debug bool) ([]*domain.Resolution, error) {
	results := make([]*domain.Resolution, len(listings))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i := range listings {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := s.Resolve(gctx, &listings[i], debug)
			if err != nil {
				res = &domain.Resolution{Code: domain.UnresolvedCode, By: StageInvalid}
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// remember stores computed resolutions for the listing URL. Failures are
// logged and otherwise ignored.
func (s *ResolutionService) remember(ctx context.Context, listing *domain.ScrapedListing, res *domain.Resolution) {
	if !s.writeBack || listing.URL == "" || !res.Resolved() || !computedStage(res.By) {
		return
	}
	if err := s.cache.Store(ctx, listing.URL, res.Code, s.cacheTTL); err != nil {
		s.logger.Warn().Err(err).Str("url", listing.URL).Msg("url cache write failed")
	}
}

// computedStage reports whether a stage derived its code rather than reading it
func computedStage(by string) bool {
	switch by {
	case StagePartialCode, StageColorKeyword, StageLexiconOverlap, StageGenericSimilarity:
		return true
	}
	return false
}
