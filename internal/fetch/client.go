// Package fetch retrieves JSON documents from the static artifact host and
// tracks each fetch as an explicit, cancelable state machine.
package fetch

import (
	"context"
	"dashboard/internal/analytics"
	"dashboard/internal/apperrors"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// Kind classifies a document by the role it plays in the dashboard. It
// selects the error category reported when the fetch fails.
type Kind string

const (
	KindIndex    Kind = "index"
	KindManifest Kind = "manifest"
	KindArtifact Kind = "artifact"
)

func (k Kind) unavailable(path string, cause error) error {
	switch k {
	case KindIndex:
		return apperrors.IndexUnavailable(path, cause)
	case KindManifest:
		return apperrors.ManifestUnavailable(path, cause)
	default:
		return apperrors.ArtifactUnavailable(path, cause)
	}
}

// Outcome labels a completed fetch for metrics.
const (
	OutcomeSuccess  = "success"
	OutcomeError    = "error"
	OutcomeCanceled = "canceled"
)

// MetricsRecorder is an optional interface for recording fetch metrics.
type MetricsRecorder interface {
	RecordFetchStarted(ctx context.Context, kind string)
	RecordFetchCompleted(ctx context.Context, kind, outcome string, durationSeconds float64)
}

// Client performs GET requests against the artifact host. It never retries
// and imposes no timeout of its own; the caller's context is the only way to
// abandon a request.
type Client struct {
	locator    *analytics.Locator
	httpClient *http.Client
	metrics    MetricsRecorder
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// NewClient creates a client that resolves logical paths with locator.
func NewClient(locator *analytics.Locator, opts ...Option) *Client {
	c := &Client{
		locator:    locator,
		httpClient: http.DefaultClient,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "fetch")
	return c
}

// Locator returns the locator used to resolve paths.
func (c *Client) Locator() *analytics.Locator {
	return c.locator
}

// Raw fetches the document at logicalPath and checks that it is well-formed
// JSON. Failures are reported as the unavailable error matching kind, with a
// message naming the path. If ctx is canceled, ctx.Err() is returned as is.
func (c *Client) Raw(ctx context.Context, kind Kind, logicalPath string) (json.RawMessage, error) {
	start := time.Now()
	if c.metrics != nil {
		c.metrics.RecordFetchStarted(ctx, string(kind))
	}

	body, err := c.get(ctx, logicalPath)
	if err == nil && !json.Valid(body) {
		var probe any
		err = fmt.Errorf("invalid JSON: %w", json.Unmarshal(body, &probe))
	}

	outcome := OutcomeSuccess
	switch {
	case err != nil && ctx.Err() != nil:
		outcome = OutcomeCanceled
		err = ctx.Err()
	case err != nil:
		outcome = OutcomeError
		c.logger.Warn("Fetch failed", "kind", kind, "path", logicalPath, "error", err)
		err = kind.unavailable(logicalPath, err)
	default:
		c.logger.Debug("Fetched document", "kind", kind, "path", logicalPath, "bytes", len(body))
	}

	if c.metrics != nil {
		c.metrics.RecordFetchCompleted(ctx, string(kind), outcome, time.Since(start).Seconds())
	}
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (c *Client) get(ctx context.Context, logicalPath string) ([]byte, error) {
	target, err := c.locator.URL(logicalPath)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("status %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return body, nil
}

// Get fetches logicalPath and decodes it into T. A document that is valid
// JSON but does not fit T is reported like any other fetch failure.
func Get[T any](ctx context.Context, c *Client, kind Kind, logicalPath string) (T, error) {
	var out T
	raw, err := c.Raw(ctx, kind, logicalPath)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, kind.unavailable(logicalPath, fmt.Errorf("unexpected document shape: %w", err))
	}
	return out, nil
}

// Loader returns a slot loader that decodes documents of the given kind.
func Loader[T any](c *Client, kind Kind) LoadFunc[T] {
	return func(ctx context.Context, logicalPath string) (T, error) {
		return Get[T](ctx, c, kind, logicalPath)
	}
}

// IsCanceled reports whether err stems from a canceled context.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Probe checks that the artifact host serves a document. It implements the
// readiness check used by the health endpoints.
type Probe struct {
	client *Client
	path   string
}

// NewProbe returns a probe that fetches logicalPath.
func (c *Client) NewProbe(logicalPath string) *Probe {
	return &Probe{client: c, path: logicalPath}
}

// Ready fetches the probe document.
func (p *Probe) Ready(ctx context.Context) error {
	_, err := p.client.Raw(ctx, KindIndex, p.path)
	return err
}
