package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/arvindri2005/Crypto-Tracker/internal/api"
	"github.com/arvindri2005/Crypto-Tracker/internal/coingecko"
	"github.com/arvindri2005/Crypto-Tracker/internal/config"
	"github.com/arvindri2005/Crypto-Tracker/internal/health"
	"github.com/arvindri2005/Crypto-Tracker/internal/logging"
	"github.com/arvindri2005/Crypto-Tracker/internal/refresh"
	"github.com/arvindri2005/Crypto-Tracker/internal/search"
	"github.com/arvindri2005/Crypto-Tracker/internal/storage"
	"github.com/arvindri2005/Crypto-Tracker/internal/watchlist"
)

func main() {
	// Initialize logger
	logger := logging.New("crypto-tracker")

	// Load configuration
	cfg := config.Load()
	logger.WithFields(logrus.Fields{
		"api_base":         cfg.API.BaseURL,
		"storage_path":     cfg.StoragePath,
		"refresh_interval": cfg.RefreshInterval,
		"chart_max_points": cfg.ChartMaxPoints,
	}).Info("Configuration loaded")

	// Initialize storage and API client
	fileStore := storage.NewFileStore(cfg.StoragePath, logger)
	client := coingecko.New(cfg.API, logger)

	// Initialize watchlist store
	store := watchlist.New(fileStore, client, logger)

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Hydrate once at startup; a fetch failure is recorded in store state
	// and does not prevent the service from running.
	if err := store.Hydrate(ctx); err != nil {
		logger.WithError(err).Warn("Watchlist hydration fetch failed, continuing with empty snapshots")
	}

	// Start the refresh scheduler
	scheduler := refresh.NewScheduler(store, cfg.RefreshInterval, logger)
	if err := scheduler.Start(ctx); err != nil {
		logger.WithError(err).Fatal("Failed to start refresh scheduler")
	}

	// Initialize searcher and API server
	searcher := search.NewSearcher(client, logger, cfg.SearchDebounce)
	apiServer := api.NewServer(store, client, searcher, cfg.ChartMaxPoints, logger).StartServer(cfg.APIPort)

	// Initialize health checker
	healthChecker := health.NewChecker(fileStore, client, logger)
	healthServer := healthChecker.StartServer(cfg.MetricsPort)

	logger.Info("Crypto tracker service started successfully")

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down crypto tracker service...")

	scheduler.Stop()
	searcher.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Failed to shutdown API server gracefully")
	}
	if err := healthServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Failed to shutdown health server gracefully")
	}

	cancel()

	logger.Info("Crypto tracker service stopped")
}
