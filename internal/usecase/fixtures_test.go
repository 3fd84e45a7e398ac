package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/stockbind/backend/internal/domain"
	"github.com/stockbind/backend/internal/lexicon"
	"github.com/stockbind/backend/internal/normalize"
	"github.com/stockbind/backend/internal/retrieval"
	"github.com/stockbind/backend/internal/testsupport"
)

func beadnellCatalog() *testsupport.Catalog {
	return testsupport.NewCatalog(
		testsupport.Entry("MWX0339OL91", "Beadnell Wax Jacket", "Olive", "beadnell", "wax"),
		testsupport.Entry("MWX0339NY91", "Beadnell Wax Jacket", "Navy", "beadnell", "wax"),
		testsupport.Entry("MWX0018OL71", "Bedale Wax Jacket", "Olive", "bedale", "wax"),
	)
}

func beadnellListing() *domain.ScrapedListing {
	return &domain.ScrapedListing{
		Site:     "retailer-a",
		URL:      "https://retailer-a.example/products/beadnell-olive",
		RawTitle: "Barbour Beadnell Wax Jacket",
		RawColor: "Olive OL71",
	}
}

func newDeps(catalog *testsupport.Catalog) MatchDeps {
	return MatchDeps{
		Retriever: retrieval.NewRetriever(catalog, retrieval.Config{}),
		Tokenizer: normalize.NewTokenizer(nil, nil),
		Lexicon:   lexicon.NewCache(catalog, zerolog.Nop()),
		Logger:    zerolog.Nop(),
	}
}

func newTestResolver(catalog *testsupport.Catalog) *Resolver {
	deps := newDeps(catalog)
	strategies := NewDefaultStrategies(deps, ColorKeywordPolicy{}, LexiconPolicy{}, SimilarityPolicy{})
	return NewResolver(catalog, nil, deps.Retriever, strategies, zerolog.Nop())
}

// recordingStrategy counts calls and returns a fixed outcome
type recordingStrategy struct {
	name    string
	outcome domain.Outcome
	ranked  []domain.MatchCandidate

	mu    sync.Mutex
	calls int
}

func (s *recordingStrategy) Name() string { return s.name }

func (s *recordingStrategy) Resolve(ctx context.Context, listing *domain.ScrapedListing) (domain.Outcome, []domain.MatchCandidate) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.outcome, s.ranked
}

func (s *recordingStrategy) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// MockURLCache is a mock implementation of domain.URLCacheWriter
type MockURLCache struct {
	mu       sync.Mutex
	data     map[string]string
	ttls     map[string]time.Duration
	setError error
	stores   int
}

func NewMockURLCache() *MockURLCache {
	return &MockURLCache{
		data: make(map[string]string),
		ttls: make(map[string]time.Duration),
	}
}

func (m *MockURLCache) Lookup(ctx context.Context, url string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if code, ok := m.data[url]; ok {
		return code, nil
	}
	return "", domain.ErrCacheMiss
}

func (m *MockURLCache) Store(ctx context.Context, url, code string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stores++
	if m.setError != nil {
		return m.setError
	}
	m.data[url] = code
	m.ttls[url] = ttl
	return nil
}

func (m *MockURLCache) Stores() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stores
}
