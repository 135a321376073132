//go:build e2e

package e2e

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
	"dashboard/internal/testutil"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// BenchmarkListViews stress tests full-run rendering with concurrent clients.
// Run with: go test -tags=e2e -run=^$ -bench=BenchmarkListViews -benchtime=30s ./e2e/
func BenchmarkListViews(b *testing.B) {
	baseURL, dagID, cleanup := getTestURL(b)
	defer cleanup()

	url := baseURL + "/v1/runs/" + dagID + "/views"

	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		client := &http.Client{Timeout: 30 * time.Second}
		for pb.Next() {
			resp, err := client.Get(url)
			if err != nil {
				b.Errorf("Failed to load views: %v", err)
				continue
			}
			resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				b.Errorf("Expected 200, got %d", resp.StatusCode)
			}
		}
	})
}

// TestViewThroughput issues many full-run requests and checks that every
// one of them fetched the index, the manifest and each artifact exactly once.
func TestViewThroughput(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping throughput test in short mode")
	}

	const (
		numRequests = 200
		concurrency = 20
	)

	var hits atomic.Int64
	host := newArtifactHost(salesRun, &hits)
	serverURL, cleanup := createInstrumentedServer(t, host)
	defer cleanup()

	// index + manifest + 10 artifacts, one of which is missing and not counted
	const fetchesPerRequest = 11

	var wg sync.WaitGroup
	var failed atomic.Int64
	semaphore := make(chan struct{}, concurrency)

	start := time.Now()
	for i := 0; i < numRequests; i++ {
		wg.Add(1)
		semaphore <- struct{}{}
		go func(id int) {
			defer wg.Done()
			defer func() { <-semaphore }()

			resp, err := http.Get(serverURL + "/v1/runs/sales_etl/views")
			if err != nil {
				t.Logf("request %d: %v", id, err)
				failed.Add(1)
				return
			}
			resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				failed.Add(1)
			}
		}(i)
	}
	wg.Wait()
	duration := time.Since(start)

	testutil.MustWaitForCount(t, &hits, numRequests*fetchesPerRequest, testutil.WithTimeout(10*time.Second))

	t.Logf("=== View Throughput Test ===")
	t.Logf("Requests:      %d in %v", numRequests, duration)
	t.Logf("Rate:          %.0f runs/sec", float64(numRequests)/duration.Seconds())
	t.Logf("Host fetches:  %d", hits.Load())
	t.Logf("Failed:        %d", failed.Load())

	if failed.Load() > 0 {
		t.Errorf("Expected every request to succeed, %d failed", failed.Load())
	}
}

// TestSlowArtifactHost checks that a request bounded by a deadline returns
// instead of waiting on a host that never answers.
func TestSlowArtifactHost(t *testing.T) {
	release := make(chan struct{})
	host := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	serverURL, cleanup := createInstrumentedServer(t, host)
	defer cleanup()
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, serverURL+"/v1/index", nil)

	start := time.Now()
	_, err := http.DefaultClient.Do(req)
	if err == nil {
		t.Fatal("Expected the client deadline to end the request")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Request took %v, expected it to end near the deadline", elapsed)
	}
}

func createInstrumentedServer(tb testing.TB, host *httptest.Server) (string, func()) {
	metrics, _, err := observability.NewMetrics(context.Background())
	if err != nil {
		tb.Fatalf("Failed to create metrics: %v", err)
	}

	locator, err := analytics.NewLocator(fmt.Sprintf("%s/data/", host.URL))
	if err != nil {
		tb.Fatalf("Failed to create locator: %v", err)
	}
	client := fetch.NewClient(locator, fetch.WithMetrics(metrics))
	cfg := config.Defaults()

	router := api.NewRouter(api.RouterConfig{
		Client:    client,
		IndexPath: cfg.IndexPath,
		Loader: dashboard.NewLoader(client, render.New(cfg.Display), dashboard.Config{
			Concurrency: cfg.FetchConcurrency,
			Metrics:     metrics,
		}),
		Metrics:       metrics,
		HealthChecker: health.NewChecker(client.NewProbe(cfg.IndexPath)),
	})
	server := httptest.NewServer(router)

	return server.URL, func() {
		server.Close()
		host.Close()
	}
}
