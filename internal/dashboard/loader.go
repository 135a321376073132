// Package dashboard loads every artifact of a run concurrently and hands
// each rendered view to the caller as soon as it is ready.
package dashboard

import (
	"context"
	"dashboard/internal/analytics"
	"dashboard/internal/apperrors"
	"dashboard/internal/fetch"
	"dashboard/internal/render"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// MetricsRecorder is an optional interface for recording rendered views.
type MetricsRecorder interface {
	RecordArtifactView(ctx context.Context, kind, status string)
}

// Loader fetches and renders artifacts. Artifacts are independent: the
// failure of one never affects its siblings.
type Loader struct {
	client      *fetch.Client
	renderer    *render.Renderer
	concurrency int
	metrics     MetricsRecorder
	logger      *slog.Logger
}

// Config configures a Loader.
type Config struct {
	Concurrency int // Maximum artifacts fetched at once (<= 0 means unbounded)
	Metrics     MetricsRecorder
	Logger      *slog.Logger
}

// NewLoader creates a loader.
func NewLoader(client *fetch.Client, renderer *render.Renderer, cfg Config) *Loader {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		client:      client,
		renderer:    renderer,
		concurrency: cfg.Concurrency,
		metrics:     cfg.Metrics,
		logger:      logger.With("component", "dashboard"),
	}
}

// Stream loads every artifact of manifest concurrently and calls emit once
// per artifact in completion order. emit is never called concurrently.
// Artifacts whose fetch is abandoned because ctx ended are not emitted, and
// Stream then returns ctx.Err().
func (l *Loader) Stream(ctx context.Context, manifest *analytics.DagManifest, basePath string, emit func(render.View)) error {
	return l.stream(ctx, manifest.Artifacts(), basePath, func(_ int, v render.View) {
		emit(v)
	})
}

// LoadAll loads every artifact and returns the views in manifest order.
func (l *Loader) LoadAll(ctx context.Context, manifest *analytics.DagManifest, basePath string) ([]render.View, error) {
	artifacts := manifest.Artifacts()
	views := make([]render.View, len(artifacts))
	err := l.stream(ctx, artifacts, basePath, func(i int, v render.View) {
		views[i] = v
	})
	if err != nil {
		return nil, err
	}
	return views, nil
}

func (l *Loader) stream(ctx context.Context, artifacts []analytics.ArtifactMeta, basePath string, emit func(int, render.View)) error {
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	if l.concurrency > 0 {
		g.SetLimit(l.concurrency)
	}

	for i, meta := range artifacts {
		g.Go(func() error {
			view, ok := l.load(gctx, meta, basePath)
			if !ok {
				return nil
			}
			mu.Lock()
			defer mu.Unlock()
			emit(i, view)
			return nil
		})
	}

	_ = g.Wait()
	return ctx.Err()
}

// LoadOne loads a single artifact of manifest.
func (l *Loader) LoadOne(ctx context.Context, manifest *analytics.DagManifest, basePath, taskID, artifactID string) (render.View, error) {
	meta, ok := manifest.Find(taskID, artifactID)
	if !ok {
		return render.View{}, apperrors.NotFound("artifact", taskID+"/"+artifactID)
	}
	view, ok := l.load(ctx, meta, basePath)
	if !ok {
		return render.View{}, ctx.Err()
	}
	return view, nil
}

// load fetches and renders one artifact. It reports false when the fetch was
// abandoned by cancellation.
func (l *Loader) load(ctx context.Context, meta analytics.ArtifactMeta, basePath string) (render.View, bool) {
	view, ok := l.build(ctx, meta, basePath)
	if !ok {
		l.logger.Debug("Artifact load abandoned", "artifact", meta.Key())
		return view, false
	}
	l.logger.Debug("Rendered artifact", "artifact", meta.Key(), "kind", view.Kind, "status", view.Status)
	if l.metrics != nil {
		l.metrics.RecordArtifactView(ctx, view.Kind, string(view.Status))
	}
	return view, true
}

func (l *Loader) build(ctx context.Context, meta analytics.ArtifactMeta, basePath string) (render.View, bool) {
	path, err := analytics.ArtifactPath(basePath, meta.RelativePath)
	if err != nil {
		err = apperrors.ArtifactUnavailable(meta.RelativePath, err)
		l.logger.Warn("Rejected artifact path", "artifact", meta.Key(), "error", err)
		return render.Failed(meta, apperrors.Message(err)), true
	}

	raw, err := l.client.Raw(ctx, fetch.KindArtifact, path)
	switch {
	case err != nil && fetch.IsCanceled(err):
		return render.View{}, false
	case err != nil:
		return render.Failed(meta, apperrors.Message(err)), true
	}
	return l.renderer.Render(meta, raw), true
}
