// Package api provides the HTTP API handlers and routing for the dashboard
// service.
package api

import (
	"context"
	"dashboard/internal/analytics"
	"dashboard/internal/apperrors"
	"dashboard/internal/dashboard"
	"dashboard/internal/fetch"
	"dashboard/internal/health"
	"dashboard/internal/manifest"
	"dashboard/internal/render"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
)

// ndjsonContentType is used when views are streamed as they resolve.
const ndjsonContentType = "application/x-ndjson"

// Handler contains HTTP handlers for the dashboard API
type Handler struct {
	client    *fetch.Client
	indexPath string
	loader    *dashboard.Loader
	health    *health.Checker
}

// NewHandler creates a new API handler
func NewHandler(client *fetch.Client, indexPath string, loader *dashboard.Loader, healthChecker *health.Checker) *Handler {
	return &Handler{
		client:    client,
		indexPath: indexPath,
		loader:    loader,
		health:    healthChecker,
	}
}

// RunSummary is one selectable run.
type RunSummary struct {
	DagID       string `json:"dag_id"`
	Label       string `json:"label"`
	GeneratedAt string `json:"generated_at,omitempty"`
	Path        string `json:"path"`
}

// IndexResponse lists the runs of the dashboard index. An empty index is
// reported with phase "empty", not as an error.
type IndexResponse struct {
	Phase       manifest.Phase `json:"phase"`
	GeneratedAt string         `json:"generated_at,omitempty"`
	Runs        []RunSummary   `json:"runs"`
}

// RunResponse is the manifest of one run. BaseURL is where the run's
// artifacts are served, for widgets that fetch payloads themselves.
type RunResponse struct {
	DagID    string                 `json:"dag_id"`
	BasePath string                 `json:"base_path"`
	BaseURL  string                 `json:"base_url"`
	Manifest *analytics.DagManifest `json:"manifest"`
}

// ViewsResponse carries every rendered view of a run in manifest order.
type ViewsResponse struct {
	DagID    string        `json:"dag_id"`
	BasePath string        `json:"base_path"`
	BaseURL  string        `json:"base_url"`
	Views    []render.View `json:"views"`
}

// GetIndex handles GET /v1/index
func (h *Handler) GetIndex(w http.ResponseWriter, r *http.Request) {
	res := h.newResolver(r.Context(), manifest.WithAutoSelect(false))
	defer res.Close()

	snap, err := res.LoadIndex(r.Context())
	if err == nil && snap.Phase == manifest.PhaseFailed {
		err = snap.Err
	}
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	resp := IndexResponse{Phase: snap.Phase, Runs: []RunSummary{}}
	if snap.Index != nil {
		resp.GeneratedAt = snap.Index.GeneratedAt
		for _, e := range snap.Index.Dags {
			resp.Runs = append(resp.Runs, RunSummary{
				DagID:       e.DagID,
				Label:       e.Label(),
				GeneratedAt: e.GeneratedAt,
				Path:        e.Path,
			})
		}
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// GetRun handles GET /v1/runs/{dagId}
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	dagID := r.PathValue("dagId")
	snap, err := h.resolveRun(r.Context(), dagID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, RunResponse{
		DagID:    dagID,
		BasePath: snap.BasePath,
		BaseURL:  h.client.Locator().Dir(snap.BasePath),
		Manifest: snap.Manifest,
	})
}

// ListViews handles GET /v1/runs/{dagId}/views
// Query params: stream (optional, true streams one loading placeholder per
// artifact, then one view per line as each artifact resolves)
func (h *Handler) ListViews(w http.ResponseWriter, r *http.Request) {
	dagID := r.PathValue("dagId")
	stream, _ := strconv.ParseBool(r.URL.Query().Get("stream"))

	snap, err := h.resolveRun(r.Context(), dagID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	if stream {
		h.streamViews(w, r, snap)
		return
	}

	views, err := h.loader.LoadAll(r.Context(), snap.Manifest, snap.BasePath)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, ViewsResponse{
		DagID:    dagID,
		BasePath: snap.BasePath,
		BaseURL:  h.client.Locator().Dir(snap.BasePath),
		Views:    views,
	})
}

func (h *Handler) streamViews(w http.ResponseWriter, r *http.Request, snap manifest.Snapshot) {
	w.Header().Set("Content-Type", ndjsonContentType)
	w.WriteHeader(http.StatusOK)

	flusher, _ := w.(http.Flusher)
	enc := json.NewEncoder(w)
	for _, meta := range snap.Manifest.Artifacts() {
		if err := enc.Encode(render.Loading(meta)); err != nil {
			slog.Warn("Failed to stream placeholder", "error", err, "artifact", meta.Key())
			return
		}
	}
	if flusher != nil {
		flusher.Flush()
	}
	err := h.loader.Stream(r.Context(), snap.Manifest, snap.BasePath, func(v render.View) {
		if err := enc.Encode(v); err != nil {
			slog.Warn("Failed to stream view", "error", err, "artifact", v.Key)
			return
		}
		if flusher != nil {
			flusher.Flush()
		}
	})
	if err != nil {
		slog.Info("View stream ended early", "error", err, "path", r.URL.Path)
	}
}

// GetView handles GET /v1/runs/{dagId}/views/{taskId}/{artifactId}
func (h *Handler) GetView(w http.ResponseWriter, r *http.Request) {
	snap, err := h.resolveRun(r.Context(), r.PathValue("dagId"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	view, err := h.loader.LoadOne(r.Context(), snap.Manifest, snap.BasePath, r.PathValue("taskId"), r.PathValue("artifactId"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	h.writeJSON(w, http.StatusOK, view)
}

// resolveRun loads the index and the manifest of dagID with a resolver
// scoped to the request.
func (h *Handler) resolveRun(ctx context.Context, dagID string) (manifest.Snapshot, error) {
	res := h.newResolver(ctx)
	defer res.Close()

	if err := res.Select(ctx, dagID); err != nil {
		return manifest.Snapshot{}, err
	}
	if _, err := res.LoadIndex(ctx); err != nil {
		return manifest.Snapshot{}, err
	}
	snap, err := res.Wait(ctx)
	if err != nil {
		return snap, err
	}

	switch snap.Phase {
	case manifest.PhaseManifestLoaded:
		return snap, nil
	case manifest.PhaseEmpty:
		return snap, apperrors.UnknownRun(dagID)
	case manifest.PhaseFailed:
		return snap, snap.Err
	default:
		return snap, apperrors.Internal("manifest.resolve", fmt.Errorf("resolver did not settle, phase %s", snap.Phase))
	}
}

func (h *Handler) newResolver(ctx context.Context, opts ...manifest.Option) *manifest.Resolver {
	opts = append(opts, manifest.WithSession(RequestID(ctx)))
	return manifest.NewResolver(h.client, h.indexPath, opts...)
}

// Livez handles GET /livez - liveness probe.
// Returns 200 if the process is alive. Does not check dependencies.
func (h *Handler) Livez(w http.ResponseWriter, r *http.Request) {
	response := h.health.Liveness(r.Context())
	h.writeJSON(w, http.StatusOK, response)
}

// Readyz handles GET /readyz - readiness probe.
// Returns 200 if the service is ready to accept traffic.
// Returns 503 if the artifact host cannot serve the index.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	response := h.health.Readiness(r.Context())

	status := http.StatusOK
	if !response.IsHealthy() {
		status = http.StatusServiceUnavailable
	}

	h.writeJSON(w, status, response)
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeError writes an error response
func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}

// handleError handles errors from service layer with appropriate HTTP status codes.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= 500 {
		slog.Error("Request failed", "error", err, "path", r.URL.Path, "status", status, "request_id", RequestID(r.Context()))
	} else {
		slog.Warn("Client error", "error", err, "path", r.URL.Path, "status", status, "request_id", RequestID(r.Context()))
	}
	h.writeError(w, status, apperrors.Message(err))
}
