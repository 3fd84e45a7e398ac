// Package app wires configuration into a running resolution stack. The HTTP
// server and the CLI both build their dependencies through it.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/stockbind/backend/config"
	"github.com/stockbind/backend/internal/domain"
	"github.com/stockbind/backend/internal/infrastructure/cache"
	"github.com/stockbind/backend/internal/infrastructure/catalog"
	"github.com/stockbind/backend/internal/lexicon"
	"github.com/stockbind/backend/internal/normalize"
	"github.com/stockbind/backend/internal/retrieval"
	"github.com/stockbind/backend/internal/similarity"
	"github.com/stockbind/backend/internal/usecase"
)

// DefaultCacheTTL applies when the configured cache TTL is not positive
const DefaultCacheTTL = 720 * time.Hour

// frontCache is the fast URL cache layered over the catalog's cache table
type frontCache interface {
	domain.URLCacheWriter
	io.Closer
}

// Catalog is a catalog store that can also serve its URL cache table
type Catalog interface {
	domain.CatalogStore
	domain.URLCache
}

// App owns the long-lived resources behind a resolution service
type App struct {
	Store    *catalog.Store
	Cache    *cache.Layered
	Resolver *usecase.Resolver
	Service  *usecase.ResolutionService

	front  frontCache
	logger zerolog.Logger
}

// New opens the catalog store and URL cache described by cfg and assembles
// the resolver and resolution service on top of them.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	store, err := catalog.Open(ctx, catalog.Options{
		Driver:       cfg.Catalog.Driver,
		DSN:          cfg.Catalog.DSN,
		Tables:       TablesFrom(cfg.Catalog),
		DefaultLimit: cfg.Catalog.RecallLimit,
		EnsureSchema: cfg.Catalog.EnsureSchema,
	})
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}

	front, err := newFrontCache(cfg.Cache)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	app, err := Assemble(store, front, cfg, logger)
	if err != nil {
		_ = front.Close()
		_ = store.Close()
		return nil, err
	}
	app.Store = store
	app.front = front
	return app, nil
}

// Assemble builds the resolution stack over an already opened store and
// front cache. It takes ownership of neither.
func Assemble(store Catalog, front domain.URLCacheWriter, cfg *config.Config, logger zerolog.Logger) (*App, error) {
	sim, err := similarity.New(cfg.Matching.Similarity)
	if err != nil {
		return nil, err
	}

	retriever := retrieval.NewRetriever(store, retrieval.Config{
		RecallLimit:     cfg.Catalog.RecallLimit,
		WidenLimit:      cfg.Catalog.WidenLimit,
		MaxSearchTokens: cfg.Catalog.MaxSearchTokens,
	})

	deps := usecase.MatchDeps{
		Retriever:    retriever,
		Tokenizer:    normalize.NewTokenizer(cfg.Matching.SiteStopWords, cfg.Matching.PreservedWords),
		Similarity:   sim,
		Lexicon:      lexicon.NewCache(store, logger),
		SeriesWords:  normalize.WordSet(cfg.Matching.SeriesWords),
		DefaultBrand: cfg.Matching.DefaultBrand,
		Logger:       logger,
	}
	strategies := usecase.NewDefaultStrategies(deps,
		ColorKeywordPolicyFrom(cfg.Matching.ColorKeyword),
		LexiconPolicyFrom(cfg.Matching.Lexicon),
		SimilarityPolicyFrom(cfg.Matching.Generic),
	)

	ttl := cfg.Cache.TTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	layered := cache.NewLayered(front, store, ttl, logger)
	resolver := usecase.NewResolver(store, layered, retriever, strategies, logger)
	service := usecase.NewResolutionService(resolver, layered, usecase.ResolutionServiceConfig{
		CacheTTL:  ttl,
		WriteBack: cfg.Cache.WriteBack,
		Workers:   cfg.Server.Workers,
		DebugTopN: cfg.Matching.DebugTopN,
	}, logger)

	return &App{
		Cache:    layered,
		Resolver: resolver,
		Service:  service,
		logger:   logger,
	}, nil
}

// Close releases the cache and the catalog connection pool
func (a *App) Close() error {
	var first error
	if a.front != nil {
		if err := a.front.Close(); err != nil {
			first = err
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func newFrontCache(cfg config.CacheConfig) (frontCache, error) {
	switch cfg.Type {
	case "redis":
		rc, err := cache.NewRedisCache(cache.RedisConfig{URL: cfg.RedisURL, Prefix: cfg.Prefix})
		if err != nil {
			return nil, fmt.Errorf("connect redis cache: %w", err)
		}
		return rc, nil
	default:
		return cache.NewMemoryCache(), nil
	}
}

// TablesFrom maps catalog configuration onto store table names
func TablesFrom(cfg config.CatalogConfig) catalog.Tables {
	return catalog.Tables{
		Products:  cfg.ProductsTable,
		Overrides: cfg.OverridesTable,
		URLCache:  cfg.URLCacheTable,
		Lexicon:   cfg.LexiconTable,
	}
}

// ColorKeywordPolicyFrom maps configuration onto the color-keyword policy
func ColorKeywordPolicyFrom(cfg config.ColorKeywordConfig) usecase.ColorKeywordPolicy {
	return usecase.ColorKeywordPolicy{
		MinKeywordScore:        cfg.MinKeywordScore,
		FuzzyThreshold:         cfg.FuzzyThreshold,
		FuzzyMargin:            cfg.FuzzyMargin,
		AllowColorCodeTieBreak: cfg.AllowColorCodeTieBreak,
	}
}

// LexiconPolicyFrom maps configuration onto the lexicon-overlap policy
func LexiconPolicyFrom(cfg config.LexiconConfig) usecase.LexiconPolicy {
	return usecase.LexiconPolicy{
		MinOverlap:        cfg.MinOverlap,
		MinScore:          cfg.MinScore,
		MinLead:           cfg.MinLead,
		WeightL1:          cfg.WeightL1,
		WeightL2:          cfg.WeightL2,
		WeightColor:       cfg.WeightColor,
		WeightName:        cfg.WeightName,
		RequireExactColor: cfg.RequireExactColor,
	}
}

// SimilarityPolicyFrom maps configuration onto the generic similarity policy
func SimilarityPolicyFrom(cfg config.GenericConfig) usecase.SimilarityPolicy {
	return usecase.SimilarityPolicy{
		MinScore:          cfg.MinScore,
		MinLead:           cfg.MinLead,
		WeightName:        cfg.WeightName,
		WeightColor:       cfg.WeightColor,
		WeightType:        cfg.WeightType,
		SeriesBonus:       cfg.SeriesBonus,
		MinNameSimilarity: cfg.MinNameSimilarity,
		RequireExactColor: cfg.RequireExactColor,
		RequireExactType:  cfg.RequireExactType,
	}
}
