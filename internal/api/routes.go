package api

import (
	"dashboard/internal/dashboard"
	"dashboard/internal/fetch"
	"dashboard/internal/health"
	"dashboard/internal/observability"
	"net/http"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	Client        *fetch.Client
	IndexPath     string
	Loader        *dashboard.Loader
	Metrics       *observability.Metrics
	HealthChecker *health.Checker
}

// NewRouter creates a new HTTP router with all routes configured.
func NewRouter(cfg RouterConfig) http.Handler {
	handler := NewHandler(cfg.Client, cfg.IndexPath, cfg.Loader, cfg.HealthChecker)

	mux := http.NewServeMux()

	// Health check endpoints (liveness/readiness probes)
	mux.HandleFunc("GET /livez", handler.Livez)
	mux.HandleFunc("GET /readyz", handler.Readyz)

	// Dashboard endpoints
	mux.HandleFunc("GET /v1/index", handler.GetIndex)
	mux.HandleFunc("GET /v1/runs/{dagId}", handler.GetRun)
	mux.HandleFunc("GET /v1/runs/{dagId}/views", handler.ListViews)
	mux.HandleFunc("GET /v1/runs/{dagId}/views/{taskId}/{artifactId}", handler.GetView)

	// Apply middleware chain (order matters: outermost first)
	var h http.Handler = mux
	h = CORSMiddleware()(h)
	if cfg.Metrics != nil {
		h = MetricsMiddleware(cfg.Metrics)(h)
	}
	h = LoggingMiddleware()(h)
	h = RequestIDMiddleware()(h)
	h = RecoveryMiddleware()(h)

	return h
}
