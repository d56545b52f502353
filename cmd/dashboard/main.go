package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/freightlens/truck-traffic-dashboard/internal/adapter/googlemaps"
	httpadapter "github.com/freightlens/truck-traffic-dashboard/internal/adapter/http"
	kafkaadapter "github.com/freightlens/truck-traffic-dashboard/internal/adapter/kafka"
	"github.com/freightlens/truck-traffic-dashboard/internal/config"
	"github.com/freightlens/truck-traffic-dashboard/internal/dashboard"
	"github.com/freightlens/truck-traffic-dashboard/internal/domain"
	"github.com/freightlens/truck-traffic-dashboard/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	settings, err := config.LoadSettings(cfg.SettingsPath)
	if err != nil {
		logger.Error("failed to load dashboard settings", "error", err)
		os.Exit(1)
	}

	// Initialize trip routing (feature-flagged via GOOGLE_MAPS_API_KEY /
	// ROUTING_ENABLED). The map itself needs no key.
	var planner domain.RoutePlanner
	if cfg.RoutingEnabled {
		client := googlemaps.NewClient(cfg.GoogleMapsAPIKey, cfg.RoutingTimeout, logger, metrics)
		planner = googlemaps.NewCachedPlanner(client, cfg.RoutingCacheSize, metrics)
		metrics.RoutingEnabled.Set(1)
		logger.Info("trip routing enabled", "cache_size", cfg.RoutingCacheSize, "timeout", cfg.RoutingTimeout)
	} else {
		logger.Warn("GOOGLE_MAPS_API_KEY not set, trip fuel estimates disabled")
	}

	svc := dashboard.New(cfg, settings, planner, logger, metrics)

	// The dashboard cannot serve anything without its dataset.
	if err := svc.Reload(context.Background()); err != nil {
		logger.Error("failed to load dataset", "error", err, "path", cfg.DatasetPath)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(cfg.HTTPAddr, svc, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start dataset refresh subscriber when brokers are configured.
	var subscriber *kafkaadapter.Subscriber
	if cfg.RefreshEnabled() {
		subscriber = kafkaadapter.NewSubscriber(cfg, svc, logger, metrics)
		go func() {
			if err := subscriber.Run(ctx); err != nil {
				logger.Error("refresh subscriber error", "error", err)
			}
		}()
	} else {
		logger.Info("dataset refresh disabled")
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if subscriber != nil {
		if err := subscriber.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
