package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/stockbind/backend/config"
	"github.com/stockbind/backend/internal/app"
	httpDelivery "github.com/stockbind/backend/internal/delivery/http"
	"github.com/stockbind/backend/internal/logging"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Options{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: "stockbind-resolver",
	})

	logger.Info().
		Str("version", httpDelivery.Version).
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Str("catalog_driver", cfg.Catalog.Driver).
		Str("cache_type", cfg.Cache.Type).
		Dur("cache_ttl", cfg.Cache.TTL).
		Msg("Starting StockBind resolver")

	// Initialize the catalog store, URL cache and resolution stack
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	resolution, err := app.New(ctx, cfg, logger)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize resolution stack")
	}
	defer resolution.Close()

	logger.Info().
		Str("similarity", cfg.Matching.Similarity).
		Str("default_brand", cfg.Matching.DefaultBrand).
		Int("workers", cfg.Server.Workers).
		Bool("write_back", cfg.Cache.WriteBack).
		Msg("Resolution cascade ready")

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(resolution.Service, resolution.Store, cfg.Server.MaxBatch, logger)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler, logger)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	logger.Info().Str("addr", addr).Msg("Server listening")

	if err := router.Run(addr); err != nil {
		logger.Error().Err(err).Msg("Failed to start server")
		resolution.Close()
		os.Exit(1)
	}
}
