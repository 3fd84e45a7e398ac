package app

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stockbind/backend/config"
	"github.com/stockbind/backend/internal/domain"
	"github.com/stockbind/backend/internal/infrastructure/cache"
	"github.com/stockbind/backend/internal/testsupport"
	"github.com/stockbind/backend/internal/usecase"
)

func testConfig() *config.Config {
	return &config.Config{
		Catalog: config.CatalogConfig{
			Driver:       "sqlite",
			DSN:          ":memory:",
			EnsureSchema: true,
		},
		Cache: config.CacheConfig{Type: "memory", TTL: time.Hour, WriteBack: true},
		Matching: config.MatchingConfig{
			Similarity:   "token_set",
			DefaultBrand: "barbour",
			SeriesWords:  []string{"beadnell", "bedale"},
		},
	}
}

func beadnell() *domain.ScrapedListing {
	return &domain.ScrapedListing{
		Site:     "retailer-a",
		URL:      "https://retailer-a.example/products/beadnell-olive",
		RawTitle: "Barbour Beadnell Wax Jacket",
		RawColor: "Olive OL71",
	}
}

func TestNew_SQLiteCatalog(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig()
	cfg.Catalog.DSN = filepath.Join(t.TempDir(), "catalog.db")
	a, err := New(ctx, cfg, zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	seed, err := sql.Open("sqlite", cfg.Catalog.DSN)
	require.NoError(t, err)
	t.Cleanup(func() { seed.Close() })

	for _, stmt := range []string{
		`INSERT INTO catalog_products (product_code, size, style_name, color, title, source_rank, match_keywords_l1)
		 VALUES ('MWX0339OL91', 'M', 'Beadnell Wax Jacket', 'Olive', 'Beadnell Wax Jacket Olive', 1, '["beadnell","wax"]')`,
		`INSERT INTO catalog_products (product_code, size, style_name, color, title, source_rank, match_keywords_l1)
		 VALUES ('MWX0339NY91', 'M', 'Beadnell Wax Jacket', 'Navy', 'Beadnell Wax Jacket Navy', 1, '["beadnell","wax"]')`,
		`INSERT INTO catalog_products (product_code, size, style_name, color, title, source_rank, match_keywords_l1)
		 VALUES ('MWX0018CH71', 'M', 'Bedale Wax Jacket', 'Charcoal', 'Bedale Wax Jacket Charcoal', 1, '["bedale","wax"]')`,
		`INSERT INTO url_code_cache (url, product_code) VALUES ('https://retailer-b.example/p/2', 'MWX0339NY91')`,
	} {
		_, err := seed.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}

	res, err := a.Service.Resolve(ctx, beadnell(), false)
	require.NoError(t, err)
	assert.Equal(t, "MWX0339OL91", res.Code)
	assert.Equal(t, usecase.StageColorKeyword, res.By)

	res, err = a.Service.Resolve(ctx, &domain.ScrapedListing{URL: "https://retailer-b.example/p/2"}, false)
	require.NoError(t, err)
	assert.Equal(t, "MWX0339NY91", res.Code)
	assert.Equal(t, usecase.StageURLCache, res.By)

	// "Graphite" normalizes to Grey; the catalog row is stored as "Charcoal".
	res, err = a.Service.Resolve(ctx, &domain.ScrapedListing{
		Site:     "retailer-a",
		URL:      "https://retailer-a.example/products/bedale-graphite",
		RawTitle: "Barbour Bedale Wax Jacket",
		RawColor: "Graphite",
	}, false)
	require.NoError(t, err)
	assert.Equal(t, "MWX0018CH71", res.Code)
	assert.Equal(t, usecase.StageColorKeyword, res.By)
}

func TestNew_RejectsUnknownSimilarity(t *testing.T) {
	cfg := testConfig()
	cfg.Matching.Similarity = "cosine"

	_, err := New(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestNew_RejectsUnknownDriver(t *testing.T) {
	cfg := testConfig()
	cfg.Catalog.Driver = "oracle"

	_, err := New(context.Background(), cfg, zerolog.Nop())
	assert.Error(t, err)
}

func TestAssemble_WritesBackComputedResolutions(t *testing.T) {
	ctx := context.Background()
	catalog := testsupport.NewCatalog(
		testsupport.Entry("MWX0339OL91", "Beadnell Wax Jacket", "Olive", "beadnell", "wax"),
		testsupport.Entry("MWX0339NY91", "Beadnell Wax Jacket", "Navy", "beadnell", "wax"),
	)
	front := cache.NewMemoryCache()
	t.Cleanup(func() { front.Close() })

	a, err := Assemble(catalog, front, testConfig(), zerolog.Nop())
	require.NoError(t, err)

	listing := beadnell()
	first, err := a.Service.Resolve(ctx, listing, false)
	require.NoError(t, err)
	require.Equal(t, usecase.StageColorKeyword, first.By)

	code, err := front.Lookup(ctx, listing.URL)
	require.NoError(t, err)
	assert.Equal(t, "MWX0339OL91", code)

	second, err := a.Service.Resolve(ctx, listing, false)
	require.NoError(t, err)
	assert.Equal(t, first.Code, second.Code)
	assert.Equal(t, usecase.StageURLCache, second.By)
}

func TestAssemble_ZeroTTLFallsBackToDefault(t *testing.T) {
	ctx := context.Background()
	catalog := testsupport.NewCatalog().AddCachedURL("https://x/p/1", "LQU0475SG91")
	front := cache.NewMemoryCache()
	t.Cleanup(func() { front.Close() })

	cfg := testConfig()
	cfg.Cache.TTL = 0
	a, err := Assemble(catalog, front, cfg, zerolog.Nop())
	require.NoError(t, err)

	code, err := a.Cache.Lookup(ctx, "https://x/p/1")
	require.NoError(t, err)
	assert.Equal(t, "LQU0475SG91", code)

	// warmed into the front cache with a live expiry
	code, err = front.Lookup(ctx, "https://x/p/1")
	require.NoError(t, err)
	assert.Equal(t, "LQU0475SG91", code)
}

func TestPolicyMapping(t *testing.T) {
	ck := ColorKeywordPolicyFrom(config.ColorKeywordConfig{FuzzyThreshold: 90, AllowColorCodeTieBreak: true})
	assert.Equal(t, 90.0, ck.FuzzyThreshold)
	assert.True(t, ck.AllowColorCodeTieBreak)

	lx := LexiconPolicyFrom(config.LexiconConfig{MinOverlap: 2, RequireExactColor: true})
	assert.Equal(t, 2, lx.MinOverlap)
	assert.True(t, lx.RequireExactColor)

	sim := SimilarityPolicyFrom(config.GenericConfig{SeriesBonus: 0.05, RequireExactType: true})
	assert.Equal(t, 0.05, sim.SeriesBonus)
	assert.True(t, sim.RequireExactType)

	tables := TablesFrom(config.CatalogConfig{ProductsTable: "products_v2"})
	assert.Equal(t, "products_v2", tables.Products)
}
