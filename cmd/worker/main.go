package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pickem/ingestion/internal/app"
	"pickem/ingestion/internal/config"
	"pickem/ingestion/internal/logging"
	"pickem/ingestion/internal/metrics"
	"pickem/ingestion/internal/scheduler"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func main() {
	// Setup logger
	logging.Setup(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"), os.Stdout)

	log.Info().Msg("Starting pick'em ingestion worker")

	// Load configuration
	cfg := config.MustLoad()
	log.Info().
		Str("env", cfg.AppEnv).
		Str("log_level", cfg.LogLevel).
		Msg("Configuration loaded")

	// Create context that listens for cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("Received shutdown signal, gracefully shutting down...")
		cancel()
	}()

	a, err := app.Open(ctx, cfg, "pickem-worker")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to start")
	}
	defer a.Close()
	log.Info().Msg("Database connection established")

	if err := a.DB.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure database schema")
	}
	if err := a.DB.Teams.EnsureBye(ctx, cfg.ByeTeamID); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure bye team")
	}
	a.InvalidateRoster(ctx)

	// Start metrics HTTP server
	if cfg.EnableMetrics {
		go startMetricsServer(ctx, a, cfg.MetricsPort)
	}

	// Update system uptime metric
	startTime := time.Now()
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				metrics.SystemUptime.Set(time.Since(startTime).Seconds())
			case <-ctx.Done():
				return
			}
		}
	}()

	// Create and start scheduler
	opts := scheduler.Options{TriggerChannel: cfg.TriggerChannel}
	if cfg.EnableScheduler {
		opts.ScrapeCron = cfg.ScrapeCron
	}
	var rdb *redis.Client
	if a.Cache != nil {
		rdb = a.Cache.Client()
	}

	sched := scheduler.NewScheduler(opts, a.Service, rdb)
	if err := sched.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	// Start trigger HTTP server
	triggerSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.IngestionPort),
		Handler:           scheduler.TriggerHandler(sched),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Int("port", cfg.IngestionPort).Msg("Starting trigger server")
		if err := triggerSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("Trigger server failed")
		}
	}()

	// Keep running until context is cancelled
	<-ctx.Done()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := triggerSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("Trigger server shutdown failed")
	}

	log.Info().Msg("Shutting down scheduler...")
	sched.Stop()

	log.Info().Msg("Worker shutdown complete")
}

// startMetricsServer starts the Prometheus metrics HTTP server
func startMetricsServer(ctx context.Context, a *app.App, port int) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := a.DB.Health(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy", "error": err.Error()})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "healthy",
			"pool":   a.DB.PoolStats(),
			"cache":  a.Cache != nil,
		})
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	log.Info().Int("port", port).Msg("Starting metrics server")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("Metrics server failed")
	}
}
