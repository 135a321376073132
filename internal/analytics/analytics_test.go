package analytics

import (
	"encoding/json"
	"testing"
)

func TestManifestBase(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{"sales_etl/manifest.json", "sales_etl/"},
		{"/sales_etl/Manifest.JSON", "sales_etl/"},
		{"runs/2024/etl/manifest.json", "runs/2024/etl/"},
		{"manifest.json", ""},
		{"runs/etl/", "runs/etl/"},
	}
	for _, tt := range tests {
		if got := ManifestBase(tt.in); got != tt.want {
			t.Errorf("ManifestBase(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestArtifactPath(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		base    string
		rel     string
		want    string
		wantErr bool
	}{
		{"simple", "etl/", "summary/top.json", "etl/summary/top.json", false},
		{"leading slash stripped", "etl/", "/summary/top.json", "etl/summary/top.json", false},
		{"base without slash", "etl", "a.json", "etl/a.json", false},
		{"empty base", "", "a.json", "a.json", false},
		{"traversal", "etl/", "../secret.json", "", true},
		{"absolute url", "etl/", "https://evil.example.com/a.json", "", true},
		{"empty", "etl/", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ArtifactPath(tt.base, tt.rel)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ArtifactPath() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ArtifactPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLocator(t *testing.T) {
	t.Parallel()
	loc, err := NewLocator("http://localhost:8000/data")
	if err != nil {
		t.Fatalf("NewLocator() error = %v", err)
	}

	got, err := loc.URL("/index.json")
	if err != nil {
		t.Fatalf("URL() error = %v", err)
	}
	if got != "http://localhost:8000/data/index.json" {
		t.Errorf("URL() = %q", got)
	}

	if dir := loc.Dir("etl/"); dir != "http://localhost:8000/data/etl/" {
		t.Errorf("Dir() = %q", dir)
	}
	if dir := loc.Dir(""); dir != "http://localhost:8000/data/" {
		t.Errorf("Dir(\"\") = %q", dir)
	}

	if _, err := loc.URL("../outside.json"); err == nil {
		t.Error("expected traversal to be rejected")
	}
}

func TestNewLocator_Invalid(t *testing.T) {
	t.Parallel()
	if _, err := NewLocator("data/"); err == nil {
		t.Error("expected relative base to be rejected")
	}
}

func TestArtifactType_Normalize(t *testing.T) {
	t.Parallel()
	tests := map[ArtifactType]ArtifactType{
		TypeMetrics: TypeMetrics,
		TypeTable:   TypeTable,
		TypeData:    TypeData,
		"":          TypeData,
		"chart":     TypeData,
	}
	for in, want := range tests {
		if got := in.Normalize(); got != want {
			t.Errorf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestVisualizationHint_Chartable(t *testing.T) {
	t.Parallel()
	var nilHint *VisualizationHint
	if nilHint.Chartable() {
		t.Error("nil hint must not be chartable")
	}
	if (&VisualizationHint{Type: VisualizationBar, XField: "day"}).Chartable() {
		t.Error("hint without y_field must not be chartable")
	}
	if !(&VisualizationHint{Type: VisualizationLine, XField: "day", YField: "total"}).Chartable() {
		t.Error("complete hint should be chartable")
	}
}

func TestDashboardIndex_Normalize(t *testing.T) {
	t.Parallel()
	idx := DashboardIndex{Dags: []DagIndexEntry{
		{DagID: "a", Path: "a/manifest.json"},
		{DagID: "", Path: "x/manifest.json"},
		{DagID: "b"},
		{DagID: "a", Path: "dup/manifest.json"},
		{DagID: "c", Path: "c/manifest.json"},
	}}

	dropped := idx.Normalize()

	if len(dropped) != 3 {
		t.Errorf("expected 3 dropped entries, got %v", dropped)
	}
	if len(idx.Dags) != 2 || idx.Dags[0].DagID != "a" || idx.Dags[1].DagID != "c" {
		t.Errorf("unexpected kept entries %+v", idx.Dags)
	}
	if idx.Dags[0].Path != "a/manifest.json" {
		t.Error("expected first occurrence to win")
	}
}

func TestManifest_Decode(t *testing.T) {
	t.Parallel()
	raw := `{
		"dag_id": "sales_etl",
		"generated_at": "2024-05-01T00:00:00Z",
		"tasks": [{
			"task_id": "summary",
			"artifacts": [{
				"dag_id": "sales_etl", "task_id": "summary", "artifact_id": "daily",
				"title": "Daily", "type": "table", "relative_path": "summary/daily.json",
				"visualization": {"type": "line", "x_field": "date", "y_field": "total"},
				"row_count": 30, "extra": {"sort_field": "total", "top_n": 5}
			}]
		}]
	}`

	var m DagManifest
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	a, ok := m.Find("summary", "daily")
	if !ok {
		t.Fatal("expected artifact to be found")
	}
	if !a.Visualization.Chartable() {
		t.Error("expected chartable hint")
	}
	if a.RowCount == nil || *a.RowCount != 30 {
		t.Errorf("RowCount = %v", a.RowCount)
	}
	if a.ExtraString("sort_field") != "total" || a.ExtraInt("top_n") != 5 {
		t.Errorf("unexpected extra %+v", a.Extra)
	}
	if a.Key() != "summary/daily" {
		t.Errorf("Key() = %q", a.Key())
	}
	if len(m.Artifacts()) != 1 {
		t.Errorf("Artifacts() = %d", len(m.Artifacts()))
	}
	if _, ok := m.Find("summary", "missing"); ok {
		t.Error("expected missing artifact lookup to fail")
	}
}
