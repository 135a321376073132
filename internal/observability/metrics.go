package observability

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// Metrics holds all application metrics implementing the golden 4 signals:
// - Latency: How long requests and artifact fetches take
// - Traffic: Request and fetch throughput
// - Errors: Rate of failures
// - Saturation: Fetches in flight against the artifact host
type Metrics struct {
	meter metric.Meter

	// HTTP metrics (Latency, Traffic, Errors)
	HTTPRequestDuration metric.Float64Histogram
	HTTPRequestsTotal   metric.Int64Counter
	HTTPErrorsTotal     metric.Int64Counter

	// Fetch metrics (Latency, Traffic, Errors, Saturation)
	FetchDuration    metric.Float64Histogram
	FetchesTotal     metric.Int64Counter
	FetchErrorsTotal metric.Int64Counter
	FetchesInFlight  metric.Int64UpDownCounter

	// Rendered views by payload kind and status
	ArtifactViewsTotal metric.Int64Counter
}

// NewMetrics creates and registers all metrics with a Prometheus exporter.
func NewMetrics(ctx context.Context) (*Metrics, http.Handler, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, err
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter("dashboard")
	m := &Metrics{meter: meter}

	// HTTP metrics
	m.HTTPRequestDuration, err = meter.Float64Histogram(
		"http_request_duration_seconds",
		metric.WithDescription("HTTP request latency in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return nil, nil, err
	}

	m.HTTPRequestsTotal, err = meter.Int64Counter(
		"http_requests_total",
		metric.WithDescription("Total number of HTTP requests"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.HTTPErrorsTotal, err = meter.Int64Counter(
		"http_errors_total",
		metric.WithDescription("Total number of HTTP errors (4xx and 5xx)"),
	)
	if err != nil {
		return nil, nil, err
	}

	// Fetch metrics
	m.FetchDuration, err = meter.Float64Histogram(
		"fetch_duration_seconds",
		metric.WithDescription("Artifact host fetch latency in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30),
	)
	if err != nil {
		return nil, nil, err
	}

	m.FetchesTotal, err = meter.Int64Counter(
		"fetches_total",
		metric.WithDescription("Total number of documents fetched from the artifact host"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.FetchErrorsTotal, err = meter.Int64Counter(
		"fetch_errors_total",
		metric.WithDescription("Total number of failed fetches (status, network or JSON errors)"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.FetchesInFlight, err = meter.Int64UpDownCounter(
		"fetches_in_flight",
		metric.WithDescription("Number of fetches currently outstanding (saturation)"),
	)
	if err != nil {
		return nil, nil, err
	}

	m.ArtifactViewsTotal, err = meter.Int64Counter(
		"artifact_views_total",
		metric.WithDescription("Total number of artifact views rendered"),
	)
	if err != nil {
		return nil, nil, err
	}

	return m, promhttp.Handler(), nil
}

// RecordHTTPRequest records HTTP request metrics.
func (m *Metrics) RecordHTTPRequest(ctx context.Context, method, path string, statusCode int, durationSeconds float64) {
	attrs := metric.WithAttributes(
		methodAttr(method),
		pathAttr(path),
		statusAttr(statusCode),
	)

	m.HTTPRequestDuration.Record(ctx, durationSeconds, attrs)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)

	if statusCode >= 400 {
		m.HTTPErrorsTotal.Add(ctx, 1, attrs)
	}
}

// RecordFetchStarted records a fetch being issued.
func (m *Metrics) RecordFetchStarted(ctx context.Context, kind string) {
	m.FetchesInFlight.Add(ctx, 1, metric.WithAttributes(kindAttr(kind)))
}

// RecordFetchCompleted records a fetch finishing with the given outcome.
func (m *Metrics) RecordFetchCompleted(ctx context.Context, kind, outcome string, durationSeconds float64) {
	m.FetchesInFlight.Add(ctx, -1, metric.WithAttributes(kindAttr(kind)))

	attrs := metric.WithAttributes(kindAttr(kind), outcomeAttr(outcome))
	m.FetchDuration.Record(ctx, durationSeconds, attrs)
	m.FetchesTotal.Add(ctx, 1, attrs)

	if outcome == "error" {
		m.FetchErrorsTotal.Add(ctx, 1, metric.WithAttributes(kindAttr(kind)))
	}
}

// RecordArtifactView records a rendered artifact view.
func (m *Metrics) RecordArtifactView(ctx context.Context, kind, status string) {
	m.ArtifactViewsTotal.Add(ctx, 1, metric.WithAttributes(viewKindAttr(kind), viewStatusAttr(status)))
}
