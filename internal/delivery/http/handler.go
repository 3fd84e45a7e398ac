package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stockbind/backend/internal/domain"
)

// Version is reported by the health endpoint
const Version = "1.0.0"

// DefaultMaxBatch caps the listings accepted by one batch request
const DefaultMaxBatch = 500

// ResolutionService is the usecase the handlers delegate to
type ResolutionService interface {
	Resolve(ctx context.Context, listing *domain.ScrapedListing, debug bool) (*domain.Resolution, error)
	ResolveBatch(ctx context.Context, listings []domain.ScrapedListing, debug bool) ([]*domain.Resolution, error)
}

// CatalogPinger reports whether the catalog store is reachable
type CatalogPinger interface {
	Ping(ctx context.Context) error
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	service  ResolutionService
	catalog  CatalogPinger
	maxBatch int
	logger   zerolog.Logger
}

// NewHandler creates a new HTTP handler. A nil service makes the resolve
// endpoints answer 501; a nil catalog leaves it out of the health report.
func NewHandler(service ResolutionService, catalog CatalogPinger, maxBatch int, logger zerolog.Logger) *Handler {
	if maxBatch <= 0 {
		maxBatch = DefaultMaxBatch
	}
	return &Handler{service: service, catalog: catalog, maxBatch: maxBatch, logger: logger}
}

// BatchRequest is the body of POST /api/v1/resolve/batch
type BatchRequest struct {
	Listings []domain.ScrapedListing `json:"listings"`
}

// BatchResponse is returned by POST /api/v1/resolve/batch
type BatchResponse struct {
	Results []*domain.Resolution `json:"results"`
}

// HealthCheck returns the health status of the API and its catalog store
func (h *Handler) HealthCheck(c *gin.Context) {
	body := gin.H{
		"status":  "healthy",
		"service": "stockbind-resolver",
		"version": Version,
	}
	if h.catalog == nil {
		c.JSON(http.StatusOK, body)
		return
	}

	if err := h.catalog.Ping(c.Request.Context()); err != nil {
		h.logger.Warn().Err(err).Msg("Catalog health check failed")
		body["status"] = "degraded"
		body["catalog"] = "unreachable"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	body["catalog"] = "ok"
	c.JSON(http.StatusOK, body)
}

// Resolve handles single listing resolution requests
func (h *Handler) Resolve(c *gin.Context) {
	if h.service == nil {
		notConfigured(c)
		return
	}

	var listing domain.ScrapedListing
	if err := c.ShouldBindJSON(&listing); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
		return
	}

	res, err := h.service.Resolve(c.Request.Context(), &listing, debugRequested(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ResolveBatch handles batch resolution requests
func (h *Handler) ResolveBatch(c *gin.Context) {
	if h.service == nil {
		notConfigured(c)
		return
	}

	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": err.Error(),
		})
		return
	}
	if len(req.Listings) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "listings must not be empty",
		})
		return
	}
	if len(req.Listings) > h.maxBatch {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "batch_too_large",
			"message": "at most " + strconv.Itoa(h.maxBatch) + " listings per request",
		})
		return
	}

	results, err := h.service.ResolveBatch(c.Request.Context(), req.Listings, debugRequested(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, BatchResponse{Results: results})
}

func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidListing):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_listing",
			"message": "listing needs a url, title, partial code or sku",
		})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "canceled",
			"message": err.Error(),
		})
	default:
		h.logger.Error().Err(err).Str("path", c.FullPath()).Msg("resolution failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "resolution failed",
		})
	}
}

func notConfigured(c *gin.Context) {
	c.JSON(http.StatusNotImplemented, gin.H{
		"error": "resolution service not configured",
	})
}

func debugRequested(c *gin.Context) bool {
	debug, err := strconv.ParseBool(c.DefaultQuery("debug", "false"))
	return err == nil && debug
}
