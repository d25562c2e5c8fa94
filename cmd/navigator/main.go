package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/safepath-navigator/internal/adapter/directions"
	httpadapter "github.com/couchcryptid/safepath-navigator/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/safepath-navigator/internal/adapter/kafka"
	"github.com/couchcryptid/safepath-navigator/internal/adapter/safepath"
	"github.com/couchcryptid/safepath-navigator/internal/catalog"
	"github.com/couchcryptid/safepath-navigator/internal/config"
	"github.com/couchcryptid/safepath-navigator/internal/domain"
	"github.com/couchcryptid/safepath-navigator/internal/observability"
	"github.com/couchcryptid/safepath-navigator/internal/session"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	crimes := safepath.NewCrimeClient(cfg.CrimeAPIURL, cfg.CrimeAPITimeout, metrics, logger)
	risk := safepath.NewCachedRiskScorer(
		safepath.NewRiskClient(cfg.RiskAPIURL, cfg.RiskAPITimeout, metrics, logger),
		cfg.RiskCacheSize, metrics)

	// Route planning is feature-flagged via SAFEPATH_MAPS_API_KEY.
	var dirs domain.DirectionsProvider
	if cfg.DirectionsEnabled() {
		p, err := directions.NewProvider(cfg.MapsAPIKey, cfg.MapsAPIBaseURL, cfg.MapsAPITimeout, metrics, logger)
		if err != nil {
			logger.Error("failed to create directions provider", "error", err)
			os.Exit(1)
		}
		dirs = p
		logger.Info("directions enabled")
	} else {
		logger.Info("directions disabled, route planning unavailable")
	}

	// Route plan publication is feature-flagged via SAFEPATH_KAFKA_ENABLED.
	var publisher session.PlanPublisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		publisher = writer
		logger.Info("route plan publishing enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	}

	nav := session.New(session.Options{
		Crimes:     crimes,
		Risk:       risk,
		Directions: dirs,
		Publisher:  publisher,
		QueryLimit: cfg.QueryLimit,
	}, metrics, logger)

	types := catalog.New(crimes, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := types.Refresh(ctx); err != nil {
		logger.Warn("initial crime type load failed", "error", err)
	}
	if err := types.Start(cfg.CatalogRefreshSchedule); err != nil {
		logger.Error("failed to schedule catalog refresh", "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, nav, types, types, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	types.Stop(shutdownCtx)
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
