package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mystrava-sync/internal/config"
	"mystrava-sync/internal/database"
	"mystrava-sync/internal/geocode"
	"mystrava-sync/internal/handlers"
	"mystrava-sync/internal/metrics"
	"mystrava-sync/internal/middleware"
	"mystrava-sync/internal/oauth"
	"mystrava-sync/internal/session"
	"mystrava-sync/internal/strava"
	"mystrava-sync/internal/sync"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Set up logger
	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting mystrava-sync server",
		"host", cfg.Host,
		"port", cfg.Port,
		"database", cfg.DatabasePath,
		"log_level", cfg.LogLevel)

	// Open database
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		logger.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Init(); err != nil {
		logger.Error("Failed to initialize database schema", "error", err)
		os.Exit(1)
	}

	logger.Info("Database opened successfully")

	// Wire up the collaborators
	stravaClient := strava.NewClient(cfg.StravaClientID, cfg.StravaClientSecret, logger)
	enricher := geocode.NewEnricher(cfg.GeocoderURL, logger)
	sessions := session.NewManager(cfg.SessionSecret, cfg.SecureCookies, logger)
	oauthManager := oauth.NewManager(cfg.StravaClientID, stravaClient, logger)

	syncService := sync.NewService(db, stravaClient, enricher, sync.Config{
		WithPoints:      cfg.WithPoints,
		WithDescription: cfg.WithDescription,
		TrailThreshold:  cfg.TrailElevationThreshold,
	}, logger)

	server := handlers.NewServer(syncService, db, sessions, oauthManager, stravaClient, cfg, logger)

	// Set up HTTP routes
	mux := http.NewServeMux()

	// Authorization flow
	mux.Handle("/connect", middleware.WrapHandler(metrics.EndpointConnect, server.HandleConnect))
	mux.Handle("/authorized", middleware.WrapHandler(metrics.EndpointAuthorized, server.HandleAuthorized))
	mux.Handle("/disconnect", middleware.WrapHandler(metrics.EndpointDisconnect, server.HandleDisconnect))
	mux.Handle("/athlete", middleware.WrapHandler(metrics.EndpointAthlete, server.Authed(server.HandleAthlete)))

	// Mirror queries
	mux.Handle("/activities", middleware.WrapHandler(metrics.EndpointActivities, server.Authed(server.HandleActivities)))
	mux.Handle("/activities/delete", middleware.WrapHandler(metrics.EndpointActivities, server.Authed(server.HandleDeleteActivity)))
	mux.Handle("/gear", middleware.WrapHandler(metrics.EndpointGear, server.Authed(server.HandleGear)))

	// Sync operations
	mux.Handle("/sync/activities", middleware.WrapHandler(metrics.EndpointSync, server.Authed(server.HandleSyncActivities)))
	mux.Handle("/sync/rebuild", middleware.WrapHandler(metrics.EndpointSync, server.Authed(server.HandleSyncRebuild)))
	mux.Handle("/sync/activity", middleware.WrapHandler(metrics.EndpointSync, server.Authed(server.HandleSyncActivity)))
	mux.Handle("/sync/gear", middleware.WrapHandler(metrics.EndpointSync, server.Authed(server.HandleSyncGear)))
	mux.Handle("/sync/sport-types", middleware.WrapHandler(metrics.EndpointSync, server.Authed(server.HandleSyncSportTypes)))

	// Health check endpoint
	mux.Handle("/health", middleware.WrapHandler(metrics.EndpointHealth, server.HandleHealth))

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		// Sync endpoints block for the duration of the remote round-trips
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	// Publish remote API rate limit gauges
	collectorCtx, collectorCancel := context.WithCancel(context.Background())
	defer collectorCancel()
	metrics.StartRateLimitCollector(collectorCtx, stravaClient, 15*time.Second)

	// Metrics server
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.Handler())

	metricsAddr := fmt.Sprintf("%s:%d", cfg.Host, cfg.MetricsPort)
	metricsServer := &http.Server{
		Addr:    metricsAddr,
		Handler: metricsMux,
	}

	go func() {
		logger.Info("Metrics server listening", "addr", metricsAddr)
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Metrics server failed", "error", err)
		}
	}()

	// Start HTTP server in background
	go func() {
		logger.Info("HTTP server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down gracefully...")

	collectorCancel()

	// Shutdown HTTP servers with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Metrics server shutdown failed", "error", err)
	}

	logger.Info("Server stopped")
}
