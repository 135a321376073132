// dashboard-api is the HTTP server that serves rendered pipeline artifacts
// to dashboard widgets.
package main

import (
	"context"
	"dashboard/internal/analytics"
	"dashboard/internal/api"
	"dashboard/internal/config"
	"dashboard/internal/dashboard"
	"dashboard/internal/fetch"
	"dashboard/internal/health"
	"dashboard/internal/observability"
	"dashboard/internal/render"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	svcCfg := config.LoadServiceConfig()
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: config.ParseLogLevel(svcCfg.LogLevel),
	})))

	if err := run(svcCfg); err != nil {
		slog.Error("Service failed", "error", err)
		os.Exit(1)
	}
}

func run(svcCfg *config.ServiceConfig) error {
	ctx := context.Background()

	if err := svcCfg.Validate(); err != nil {
		return err
	}

	// Setup metrics
	metrics, metricsHandler, err := observability.NewMetrics(ctx)
	if err != nil {
		return err
	}

	// Create artifact host client
	locator, err := analytics.NewLocator(svcCfg.DataBaseURL)
	if err != nil {
		return err
	}
	// No client timeout: a fetch lives as long as the request that started it
	client := fetch.NewClient(locator, fetch.WithMetrics(metrics))
	slog.Info("Reading artifacts", "base_url", locator.Base(), "index", svcCfg.IndexPath)

	// Create health checker
	healthChecker := health.NewChecker(client.NewProbe(svcCfg.IndexPath))

	// Create artifact loader
	loader := dashboard.NewLoader(client, render.New(svcCfg.Display), dashboard.Config{
		Concurrency: svcCfg.FetchConcurrency,
		Metrics:     metrics,
	})

	// Create API router
	router := api.NewRouter(api.RouterConfig{
		Client:        client,
		IndexPath:     svcCfg.IndexPath,
		Loader:        loader,
		Metrics:       metrics,
		HealthChecker: healthChecker,
	})

	// Create API server
	apiServer := &http.Server{
		Addr:         ":" + svcCfg.Port,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Create metrics server
	metricsMux := http.NewServeMux()
	metricsMux.Handle("GET /metrics", metricsHandler)
	metricsServer := &http.Server{
		Addr:         ":" + svcCfg.MetricsPort,
		Handler:      metricsMux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	// Channel to capture server errors
	serverErr := make(chan error, 1)

	// Start API server
	go func() {
		slog.Info("Starting API server", "port", svcCfg.Port)
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Start metrics server
	go func() {
		slog.Info("Starting metrics server", "port", svcCfg.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// shutdown closes both servers gracefully
	shutdown := func(timeout time.Duration) {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if err := apiServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("API server shutdown error", "error", err)
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Metrics server shutdown error", "error", err)
		}
	}

	// Wait for interrupt signal or server error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		slog.Info("Received shutdown signal", "signal", sig)
	case err := <-serverErr:
		slog.Error("Server failed to start", "error", err)
		shutdown(5 * time.Second)
		return err
	}

	// Phase 1: Mark service as unhealthy for load balancer draining
	healthChecker.SetShuttingDown()

	if svcCfg.ShutdownDrainWait > 0 {
		slog.Info("Waiting for traffic to drain", "duration", svcCfg.ShutdownDrainWait)
		time.Sleep(svcCfg.ShutdownDrainWait)
	}

	// Phase 2: Graceful shutdown - in-flight requests cancel their fetches
	// when their connection closes
	slog.Info("Starting graceful shutdown")
	shutdown(25 * time.Second)

	slog.Info("Shutdown complete")
	return nil
}
