package dashboard

import (
	"context"
	"dashboard/internal/analytics"
	"dashboard/internal/apperrors"
	"dashboard/internal/config"
	"dashboard/internal/fetch"
	"dashboard/internal/render"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManifest() *analytics.DagManifest {
	return &analytics.DagManifest{
		DagID: "sales_etl",
		Tasks: []analytics.TaskArtifacts{
			{TaskID: "summary", Artifacts: []analytics.ArtifactMeta{
				{TaskID: "summary", ArtifactID: "kpis", Title: "KPIs", Type: analytics.TypeMetrics, RelativePath: "summary/kpis.json"},
				{TaskID: "summary", ArtifactID: "missing", Title: "Missing", Type: analytics.TypeTable, RelativePath: "summary/missing.json"},
			}},
			{TaskID: "tables", Artifacts: []analytics.ArtifactMeta{
				{TaskID: "tables", ArtifactID: "empty", Title: "Empty", Type: analytics.TypeTable, RelativePath: "tables/empty.json"},
				{TaskID: "tables", ArtifactID: "escape", Title: "Escape", Type: analytics.TypeData, RelativePath: "../other/secret.json"},
				{TaskID: "tables", ArtifactID: "daily", Title: "Daily", Type: analytics.TypeTable, RelativePath: "/tables/daily.json"},
			}},
		},
	}
}

type viewRecorder struct {
	mu    sync.Mutex
	views map[string]int
}

func (r *viewRecorder) RecordArtifactView(ctx context.Context, kind, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.views == nil {
		r.views = make(map[string]int)
	}
	r.views[status]++
}

func newLoader(t *testing.T, handler http.Handler, cfg Config) *Loader {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	loc, err := analytics.NewLocator(srv.URL + "/data/")
	require.NoError(t, err)
	return NewLoader(fetch.NewClient(loc), render.New(config.Defaults().Display), cfg)
}

func artifactHost() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /data/sales_etl/summary/kpis.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"items": [{"id": "tx", "label": "Transactions", "value": 42}]}`))
	})
	mux.HandleFunc("GET /data/sales_etl/tables/empty.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	mux.HandleFunc("GET /data/sales_etl/tables/daily.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"rows": [{"day": "mon", "total": 3}]}`))
	})
	return mux
}

func TestLoader_LoadAllIsolatesFailures(t *testing.T) {
	t.Parallel()
	rec := &viewRecorder{}
	l := newLoader(t, artifactHost(), Config{Concurrency: 2, Metrics: rec})

	views, err := l.LoadAll(context.Background(), testManifest(), "sales_etl/")
	require.NoError(t, err)
	require.Len(t, views, 5)

	byKey := make(map[string]render.View)
	for _, v := range views {
		byKey[v.Key] = v
	}

	assert.Equal(t, "summary/kpis", views[0].Key, "views keep manifest order")
	assert.Equal(t, render.StatusReady, byKey["summary/kpis"].Status)
	assert.Equal(t, "42", byKey["summary/kpis"].Cards[0].Value)

	missing := byKey["summary/missing"]
	assert.Equal(t, render.StatusError, missing.Status)
	assert.Contains(t, missing.Message, "sales_etl/summary/missing.json")

	assert.Equal(t, render.StatusEmpty, byKey["tables/empty"].Status)

	escape := byKey["tables/escape"]
	assert.Equal(t, render.StatusError, escape.Status)
	assert.Contains(t, escape.Message, "../other/secret.json")

	daily := byKey["tables/daily"]
	assert.Equal(t, render.StatusReady, daily.Status)
	require.NotNil(t, daily.Table)

	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, 2, rec.views["ready"])
	assert.Equal(t, 2, rec.views["error"])
	assert.Equal(t, 1, rec.views["empty"])
}

func TestLoader_StreamEmitsAsArtifactsResolve(t *testing.T) {
	t.Parallel()
	release := make(chan struct{})
	mux := http.NewServeMux()
	mux.Handle("/", artifactHost())
	mux.HandleFunc("GET /data/sales_etl/summary/missing.json", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
		http.NotFound(w, r)
	})

	l := newLoader(t, mux, Config{})

	emitted := make(chan render.View, 5)
	done := make(chan error, 1)
	go func() {
		done <- l.Stream(context.Background(), testManifest(), "sales_etl/", func(v render.View) {
			emitted <- v
		})
	}()

	// Four views arrive while the slow artifact is still pending.
	for range 4 {
		select {
		case v := <-emitted:
			assert.NotEqual(t, "summary/missing", v.Key)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for early views")
		}
	}

	close(release)
	require.NoError(t, <-done)
	last := <-emitted
	assert.Equal(t, "summary/missing", last.Key)
}

func TestLoader_CanceledArtifactsAreNotEmitted(t *testing.T) {
	t.Parallel()
	l := newLoader(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}), Config{Concurrency: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var count int
	err := l.Stream(ctx, testManifest(), "sales_etl/", func(v render.View) {
		if v.Status != render.StatusError {
			count++
		}
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, count)
}

func TestLoader_LoadOne(t *testing.T) {
	t.Parallel()
	l := newLoader(t, artifactHost(), Config{})

	v, err := l.LoadOne(context.Background(), testManifest(), "sales_etl/", "tables", "daily")
	require.NoError(t, err)
	assert.Equal(t, render.StatusReady, v.Status)

	_, err = l.LoadOne(context.Background(), testManifest(), "sales_etl/", "tables", "nope")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
