// Package resolverclient talks to a remote resolution server over its HTTP API.
package resolverclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/stockbind/backend/internal/domain"
)

// Options tunes the client
type Options struct {
	RatePerSecond float64 // sustained request rate, 0 means 5/s
	Burst         int     // 0 means 10
	Timeout       time.Duration
	MaxAttempts   int // 0 means 3
}

// Client handles communication with a remote resolution server
type Client struct {
	httpClient  *http.Client
	baseURL     string
	rateLimiter *rate.Limiter
	maxAttempts int
	backoff     func(attempt int) time.Duration
	logger      zerolog.Logger
}

// NewClient creates a new resolver client
func NewClient(baseURL string, opts Options, logger zerolog.Logger) *Client {
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = 5
	}
	if opts.Burst <= 0 {
		opts.Burst = 10
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		baseURL:     strings.TrimRight(baseURL, "/"),
		rateLimiter: rate.NewLimiter(rate.Limit(opts.RatePerSecond), opts.Burst),
		maxAttempts: opts.MaxAttempts,
		backoff:     exponentialBackoff,
		logger:      logger.With().Str("component", "resolver_client").Logger(),
	}
}

// exponentialBackoff returns the wait before retry attempt+1: 500ms, 1s, 2s, ...
func exponentialBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(500*(1<<(attempt-1))) * time.Millisecond
}

type batchRequest struct {
	Listings []domain.ScrapedListing `json:"listings"`
}

type batchResponse struct {
	Results []*domain.Resolution `json:"results"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Health checks that the server is up
func (c *Client) Health(ctx context.Context) error {
	var out map[string]interface{}
	return c.do(ctx, http.MethodGet, "/health", nil, &out)
}

// Resolve asks the server to resolve one listing
func (c *Client) Resolve(ctx context.Context, listing *domain.ScrapedListing, debug bool) (*domain.Resolution, error) {
	path := "/api/v1/resolve"
	if debug {
		path += "?debug=true"
	}
	var res domain.Resolution
	if err := c.do(ctx, http.MethodPost, path, listing, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ResolveBatch asks the server to resolve several listings in one request
func (c *Client) ResolveBatch(ctx context.Context, listings []domain.ScrapedListing, debug bool) ([]*domain.Resolution, error) {
	path := "/api/v1/resolve/batch"
	if debug {
		path += "?debug=true"
	}
	var out batchResponse
	if err := c.do(ctx, http.MethodPost, path, batchRequest{Listings: listings}, &out); err != nil {
		return nil, err
	}
	if len(out.Results) != len(listings) {
		return nil, fmt.Errorf("%w: got %d results for %d listings", domain.ErrRemoteFailure, len(out.Results), len(listings))
	}
	return out.Results, nil
}

// do sends a JSON request, retrying transport failures, 429 and 5xx responses
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}

		status, body, err := c.send(ctx, method, c.baseURL+path, payload)
		switch {
		case err != nil:
			lastErr = err
		case status == http.StatusOK:
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
			return nil
		case status == http.StatusBadRequest:
			return fmt.Errorf("%w: %s", domain.ErrInvalidListing, errorMessage(body))
		case status == http.StatusTooManyRequests:
			lastErr = fmt.Errorf("%w: %s", domain.ErrRateLimited, errorMessage(body))
		case status >= 500:
			lastErr = fmt.Errorf("%w: status %d: %s", domain.ErrRemoteFailure, status, errorMessage(body))
		default:
			return fmt.Errorf("%w: status %d: %s", domain.ErrRemoteFailure, status, errorMessage(body))
		}

		c.logger.Warn().Err(lastErr).Int("attempt", attempt).Str("path", path).Msg("request failed")
		if attempt == c.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.backoff(attempt)):
		}
	}
	return lastErr
}

func (c *Client) send(ctx context.Context, method, url string, payload []byte) (int, []byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "stockbind-resolve/1.0")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", domain.ErrRemoteFailure, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: read body: %v", domain.ErrRemoteFailure, err)
	}
	return resp.StatusCode, data, nil
}

func errorMessage(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err == nil && (e.Message != "" || e.Error != "") {
		if e.Message != "" {
			return e.Message
		}
		return e.Error
	}
	return strings.TrimSpace(string(body))
}
