package api

import (
	"bufio"
	"dashboard/internal/analytics"
	"dashboard/internal/config"
	"dashboard/internal/dashboard"
	"dashboard/internal/fetch"
	"dashboard/internal/health"
	"dashboard/internal/render"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const salesIndex = `{
	"generated_at": "2024-05-01T00:00:00Z",
	"dags": [
		{"dag_id": "sales_etl", "dag_label": "Sales ETL", "path": "sales_etl/manifest.json"},
		{"dag_id": "broken", "path": "broken/manifest.json"}
	]
}`

const salesManifest = `{"dag_id": "sales_etl", "generated_at": "2024-05-01", "tasks": [
	{"task_id": "summary", "artifacts": [
		{"dag_id": "sales_etl", "task_id": "summary", "artifact_id": "kpis", "title": "KPIs",
		 "type": "metrics", "relative_path": "summary/kpis.json"},
		{"dag_id": "sales_etl", "task_id": "summary", "artifact_id": "missing", "title": "Missing",
		 "type": "table", "relative_path": "summary/missing.json"}
	]}
]}`

// newTestRouter serves the given documents from a fake artifact host and
// returns a router reading from it.
func newTestRouter(t *testing.T, docs map[string]string) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	for path, body := range docs {
		mux.HandleFunc("GET /data/"+path, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		})
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	loc, err := analytics.NewLocator(srv.URL + "/data/")
	if err != nil {
		t.Fatalf("NewLocator() error = %v", err)
	}
	client := fetch.NewClient(loc)
	loader := dashboard.NewLoader(client, render.New(config.Defaults().Display), dashboard.Config{Concurrency: 4})

	return NewRouter(RouterConfig{
		Client:        client,
		IndexPath:     "index.json",
		Loader:        loader,
		HealthChecker: health.NewChecker(client.NewProbe("index.json")),
	})
}

func salesDocs() map[string]string {
	return map[string]string{
		"index.json":                  salesIndex,
		"sales_etl/manifest.json":     salesManifest,
		"sales_etl/summary/kpis.json": `{"items": [{"id": "tx", "label": "Transactions", "value": 1234}]}`,
	}
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHandler_Livez(t *testing.T) {
	t.Parallel()
	handler := &Handler{
		health: health.NewChecker(nil),
	}

	req := httptest.NewRequest(http.MethodGet, "/livez", nil)
	w := httptest.NewRecorder()

	handler.Livez(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	response := decode[health.Response](t, w)
	if response.Status != health.StatusHealthy {
		t.Errorf("Expected status healthy, got %s", response.Status)
	}
}

func TestHandler_Readyz_NoHost(t *testing.T) {
	t.Parallel()
	handler := &Handler{
		health: health.NewChecker(nil),
	}

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	w := httptest.NewRecorder()

	handler.Readyz(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
	}
}

func TestHandler_Readyz_HostServesIndex(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t, salesDocs())

	w := get(t, router, "/readyz")

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
}

func TestHandler_GetIndex(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t, salesDocs())

	w := get(t, router, "/v1/index")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	resp := decode[IndexResponse](t, w)
	if resp.Phase != "index_loaded" {
		t.Errorf("Expected phase index_loaded, got %s", resp.Phase)
	}
	if len(resp.Runs) != 2 {
		t.Fatalf("Expected 2 runs, got %d", len(resp.Runs))
	}
	if resp.Runs[0].Label != "Sales ETL" || resp.Runs[1].Label != "broken" {
		t.Errorf("unexpected labels %q, %q", resp.Runs[0].Label, resp.Runs[1].Label)
	}
}

func TestHandler_GetIndex_Empty(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t, map[string]string{
		"index.json": `{"generated_at": "2024-05-01", "dags": []}`,
	})

	w := get(t, router, "/v1/index")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}
	resp := decode[IndexResponse](t, w)
	if resp.Phase != "empty" {
		t.Errorf("Expected phase empty, got %s", resp.Phase)
	}
	if resp.Runs == nil || len(resp.Runs) != 0 {
		t.Errorf("Expected an empty run list, got %v", resp.Runs)
	}
}

func TestHandler_GetIndex_Unavailable(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t, map[string]string{})

	w := get(t, router, "/v1/index")

	if w.Code != http.StatusBadGateway {
		t.Fatalf("Expected status %d, got %d", http.StatusBadGateway, w.Code)
	}
	resp := decode[map[string]string](t, w)
	if !strings.Contains(resp["error"], "index.json") {
		t.Errorf("Expected error to name the index path, got %q", resp["error"])
	}
}

func TestHandler_GetRun(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t, salesDocs())

	w := get(t, router, "/v1/runs/sales_etl")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	resp := decode[RunResponse](t, w)
	if resp.BasePath != "sales_etl/" {
		t.Errorf("Expected base path sales_etl/, got %q", resp.BasePath)
	}
	if !strings.HasPrefix(resp.BaseURL, "http://") || !strings.HasSuffix(resp.BaseURL, "/data/sales_etl/") {
		t.Errorf("Expected base url under /data/sales_etl/, got %q", resp.BaseURL)
	}
	if resp.Manifest == nil || len(resp.Manifest.Artifacts()) != 2 {
		t.Errorf("Expected manifest with 2 artifacts, got %+v", resp.Manifest)
	}
}

func TestHandler_GetRun_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		docs    map[string]string
		path    string
		status  int
		message string
	}{
		{"unknown run", salesDocs(), "/v1/runs/nope", http.StatusNotFound, `run "nope" does not exist in the dashboard index`},
		{"manifest missing", salesDocs(), "/v1/runs/broken", http.StatusBadGateway, "could not load manifest broken/manifest.json"},
		{"empty index", map[string]string{"index.json": `{"dags": []}`}, "/v1/runs/sales_etl", http.StatusNotFound, `run "sales_etl" does not exist`},
		{"index missing", map[string]string{}, "/v1/runs/sales_etl", http.StatusBadGateway, "could not load index index.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			router := newTestRouter(t, tt.docs)

			w := get(t, router, tt.path)

			if w.Code != tt.status {
				t.Fatalf("Expected status %d, got %d: %s", tt.status, w.Code, w.Body.String())
			}
			resp := decode[map[string]string](t, w)
			if !strings.Contains(resp["error"], tt.message) {
				t.Errorf("Expected error containing %q, got %q", tt.message, resp["error"])
			}
		})
	}
}

func TestHandler_ListViews(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t, salesDocs())

	w := get(t, router, "/v1/runs/sales_etl/views")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	resp := decode[ViewsResponse](t, w)
	if len(resp.Views) != 2 {
		t.Fatalf("Expected 2 views, got %d", len(resp.Views))
	}
	if resp.Views[0].Status != render.StatusReady || resp.Views[0].Cards[0].Value != "1,234" {
		t.Errorf("unexpected kpis view %+v", resp.Views[0])
	}
	if resp.Views[1].Status != render.StatusError {
		t.Errorf("Expected missing artifact to fail alone, got %s", resp.Views[1].Status)
	}
}

func TestHandler_ListViews_Stream(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t, salesDocs())

	w := get(t, router, "/v1/runs/sales_etl/views?stream=true")

	if ct := w.Header().Get("Content-Type"); ct != ndjsonContentType {
		t.Fatalf("Expected content type %s, got %s", ndjsonContentType, ct)
	}
	var loading []string
	statuses := make(map[string]render.Status)
	scanner := bufio.NewScanner(w.Body)
	for scanner.Scan() {
		var v render.View
		if err := json.Unmarshal(scanner.Bytes(), &v); err != nil {
			t.Fatalf("decode line %q: %v", scanner.Text(), err)
		}
		if v.Status == render.StatusLoading {
			if _, settled := statuses[v.Key]; settled {
				t.Errorf("placeholder for %s arrived after its view", v.Key)
			}
			loading = append(loading, v.Key)
			continue
		}
		if _, dup := statuses[v.Key]; dup {
			t.Errorf("view %s streamed twice", v.Key)
		}
		statuses[v.Key] = v.Status
	}
	if len(loading) != 2 {
		t.Errorf("Expected 2 loading placeholders, got %v", loading)
	}
	if len(statuses) != 2 {
		t.Fatalf("Expected 2 streamed views, got %d", len(statuses))
	}
	if statuses["summary/kpis"] != render.StatusReady || statuses["summary/missing"] != render.StatusError {
		t.Errorf("unexpected statuses %v", statuses)
	}
}

func TestHandler_GetView(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t, salesDocs())

	w := get(t, router, "/v1/runs/sales_etl/views/summary/kpis")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}
	view := decode[render.View](t, w)
	if view.Kind != "metrics" {
		t.Errorf("Expected metrics view, got %q", view.Kind)
	}

	w = get(t, router, "/v1/runs/sales_etl/views/summary/nope")
	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d for unknown artifact, got %d", http.StatusNotFound, w.Code)
	}
}

func TestMiddleware_Logging(t *testing.T) {
	t.Parallel()
	called := false
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	handler := LoggingMiddleware()(inner)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if !called {
		t.Error("Inner handler was not called")
	}
}

func TestMiddleware_Recovery(t *testing.T) {
	t.Parallel()
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("test panic")
	})

	handler := RecoveryMiddleware()(inner)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	w := httptest.NewRecorder()

	// Should not panic
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
}

func TestMiddleware_RequestID(t *testing.T) {
	t.Parallel()
	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestID(r.Context())
	})

	handler := RequestIDMiddleware()(inner)

	// Generated when absent
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))
	if seen == "" || w.Header().Get(RequestIDHeader) != seen {
		t.Errorf("Expected generated id echoed in header, got %q / %q", seen, w.Header().Get(RequestIDHeader))
	}

	// Propagated when present
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if seen != "abc-123" || w.Header().Get(RequestIDHeader) != "abc-123" {
		t.Errorf("Expected propagated id abc-123, got %q", seen)
	}
}

func TestMiddleware_CORS(t *testing.T) {
	t.Parallel()
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := CORSMiddleware()(inner)

	// Test OPTIONS preflight
	req := httptest.NewRequest(http.MethodOptions, "/test", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("Expected CORS header")
	}
	if w.Header().Get("Access-Control-Allow-Methods") != "GET, OPTIONS" {
		t.Errorf("Expected read-only methods, got %q", w.Header().Get("Access-Control-Allow-Methods"))
	}
}

func TestRouter_RejectsWrites(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t, salesDocs())

	req := httptest.NewRequest(http.MethodPost, "/v1/index", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status %d, got %d", http.StatusMethodNotAllowed, w.Code)
	}
}
