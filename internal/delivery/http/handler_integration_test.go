package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stockbind/backend/config"
	"github.com/stockbind/backend/internal/domain"
	"github.com/stockbind/backend/internal/lexicon"
	"github.com/stockbind/backend/internal/retrieval"
	"github.com/stockbind/backend/internal/testsupport"
	"github.com/stockbind/backend/internal/usecase"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Cache: config.CacheConfig{Type: "memory"},
	}
}

// stubPinger answers catalog health checks with a fixed error
type stubPinger struct{ err error }

func (p stubPinger) Ping(ctx context.Context) error { return p.err }

// setupTestRouter wires the real resolution stack over an in-memory catalog
func setupTestRouter(maxBatch int) *gin.Engine {
	return setupTestRouterWithCatalog(maxBatch, stubPinger{})
}

func setupTestRouterWithCatalog(maxBatch int, pinger CatalogPinger) *gin.Engine {
	catalog := testsupport.NewCatalog(
		testsupport.Entry("MWX0339OL91", "Beadnell Wax Jacket", "Olive", "beadnell", "wax"),
		testsupport.Entry("MWX0339NY91", "Beadnell Wax Jacket", "Navy", "beadnell", "wax"),
		testsupport.Entry("MWX0018OL71", "Bedale Wax Jacket", "Olive", "bedale", "wax"),
	)
	retriever := retrieval.NewRetriever(catalog, retrieval.Config{})
	deps := usecase.MatchDeps{
		Retriever: retriever,
		Lexicon:   lexicon.NewCache(catalog, zerolog.Nop()),
	}
	strategies := usecase.NewDefaultStrategies(deps, usecase.ColorKeywordPolicy{}, usecase.LexiconPolicy{}, usecase.SimilarityPolicy{})
	resolver := usecase.NewResolver(catalog, nil, retriever, strategies, zerolog.Nop())
	service := usecase.NewResolutionService(resolver, nil, usecase.ResolutionServiceConfig{Workers: 2}, zerolog.Nop())

	return SetupRouter(testConfig(), NewHandler(service, pinger, maxBatch, zerolog.Nop()), zerolog.Nop())
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHealthCheckEndpoint(t *testing.T) {
	t.Run("returns healthy status", func(t *testing.T) {
		router := setupTestRouter(0)

		req, _ := http.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}
		var response map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if response["status"] != "healthy" {
			t.Errorf("status = %v, want healthy", response["status"])
		}
		if response["service"] != "stockbind-resolver" {
			t.Errorf("service = %v, want stockbind-resolver", response["service"])
		}
		if response["catalog"] != "ok" {
			t.Errorf("catalog = %v, want ok", response["catalog"])
		}
	})

	t.Run("reports an unreachable catalog", func(t *testing.T) {
		router := setupTestRouterWithCatalog(0, stubPinger{err: domain.ErrStoreUnavailable})

		req, _ := http.NewRequest(http.MethodGet, "/health", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusServiceUnavailable)
		}
		var response map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if response["status"] != "degraded" || response["catalog"] != "unreachable" {
			t.Errorf("response = %v, want degraded with unreachable catalog", response)
		}
	})

	t.Run("accepts GET requests only", func(t *testing.T) {
		router := setupTestRouter(0)

		for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
			req, _ := http.NewRequest(method, "/health", nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusNotFound {
				t.Errorf("Method %s: Status = %d, want %d", method, w.Code, http.StatusNotFound)
			}
		}
	})
}

func TestResolveEndpoint(t *testing.T) {
	listing := `{"site":"retailer-a","url":"https://retailer-a.example/p/1","raw_title":"Barbour Beadnell Wax Jacket","raw_color":"Olive OL71"}`

	t.Run("resolves a listing", func(t *testing.T) {
		w := postJSON(setupTestRouter(0), "/api/v1/resolve", listing)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
		}
		var res domain.Resolution
		if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if res.Code != "MWX0339OL91" || res.By != "color_keyword" {
			t.Errorf("resolution = %s by %s, want MWX0339OL91 by color_keyword", res.Code, res.By)
		}
		if res.Trace == nil || res.Trace.Final.Code != res.Code {
			t.Fatalf("trace = %+v, want a trace ending in %s", res.Trace, res.Code)
		}
		for _, stage := range res.Trace.Stages {
			if len(stage.Candidates) != 0 {
				t.Errorf("stage %s carries candidates without debug", stage.Stage)
			}
		}
	})

	t.Run("returns the trace in debug mode", func(t *testing.T) {
		w := postJSON(setupTestRouter(0), "/api/v1/resolve?debug=true", listing)

		var res domain.Resolution
		if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if res.Trace == nil || len(res.Trace.Stages) == 0 {
			t.Fatalf("trace = %+v, want stages", res.Trace)
		}
		last := res.Trace.Stages[len(res.Trace.Stages)-1]
		if len(last.Candidates) == 0 {
			t.Error("expected ranked candidates on the deciding stage")
		}
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		w := postJSON(setupTestRouter(0), "/api/v1/resolve", `{"raw_title":`)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("rejects listings with nothing to resolve from", func(t *testing.T) {
		w := postJSON(setupTestRouter(0), "/api/v1/resolve", `{"raw_color":"Olive"}`)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
		if !strings.Contains(w.Body.String(), "invalid_listing") {
			t.Errorf("body = %s, want invalid_listing", w.Body.String())
		}
	})

	t.Run("unresolved listings are not errors", func(t *testing.T) {
		w := postJSON(setupTestRouter(0), "/api/v1/resolve", `{"raw_title":"Wax Polish Tin"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}
		if !strings.Contains(w.Body.String(), `"code":"No Data"`) {
			t.Errorf("body = %s, want No Data", w.Body.String())
		}
	})
}

func TestResolveBatchEndpoint(t *testing.T) {
	t.Run("keeps input order", func(t *testing.T) {
		body := `{"listings":[
			{"raw_title":"Wax Polish Tin"},
			{"raw_title":"Barbour Beadnell Wax Jacket","raw_color":"Olive OL71"},
			{"raw_color":"Navy"}
		]}`
		w := postJSON(setupTestRouter(0), "/api/v1/resolve/batch", body)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
		}
		var out BatchResponse
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		want := []string{domain.UnresolvedCode, "MWX0339OL91", domain.UnresolvedCode}
		if len(out.Results) != len(want) {
			t.Fatalf("results = %d, want %d", len(out.Results), len(want))
		}
		for i, code := range want {
			if out.Results[i].Code != code {
				t.Errorf("result[%d] = %s, want %s", i, out.Results[i].Code, code)
			}
		}
		if out.Results[2].By != usecase.StageInvalid {
			t.Errorf("result[2].by = %s, want %s", out.Results[2].By, usecase.StageInvalid)
		}
	})

	t.Run("rejects empty batches", func(t *testing.T) {
		w := postJSON(setupTestRouter(0), "/api/v1/resolve/batch", `{"listings":[]}`)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("rejects oversized batches", func(t *testing.T) {
		w := postJSON(setupTestRouter(1), "/api/v1/resolve/batch", `{"listings":[{"raw_title":"a"},{"raw_title":"b"}]}`)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
		if !strings.Contains(w.Body.String(), "batch_too_large") {
			t.Errorf("body = %s, want batch_too_large", w.Body.String())
		}
	})
}

// failingService always returns err
type failingService struct {
	err error
}

func (f failingService) Resolve(ctx context.Context, listing *domain.ScrapedListing, debug bool) (*domain.Resolution, error) {
	return nil, f.err
}

func (f failingService) ResolveBatch(ctx context.Context, listings []domain.ScrapedListing, debug bool) ([]*domain.Resolution, error) {
	return nil, f.err
}

func TestResolveEndpoint_Errors(t *testing.T) {
	tests := []struct {
		name       string
		service    ResolutionService
		wantStatus int
	}{
		{"not configured", nil, http.StatusNotImplemented},
		{"internal failure", failingService{err: errors.New("boom")}, http.StatusInternalServerError},
		{"canceled", failingService{err: context.Canceled}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := SetupRouter(testConfig(), NewHandler(tt.service, nil, 0, zerolog.Nop()), zerolog.Nop())

			w := postJSON(router, "/api/v1/resolve", `{"raw_title":"x"}`)
			if w.Code != tt.wantStatus {
				t.Errorf("resolve Status = %d, want %d", w.Code, tt.wantStatus)
			}
			w = postJSON(router, "/api/v1/resolve/batch", `{"listings":[{"raw_title":"x"}]}`)
			if w.Code != tt.wantStatus {
				t.Errorf("batch Status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}

func TestCORSIntegration(t *testing.T) {
	router := setupTestRouter(0)

	req, _ := http.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, "http://localhost:3000")
	}
	if got := w.Header().Get(RequestIDHeader); got == "" {
		t.Error("expected a request id header")
	}
}
