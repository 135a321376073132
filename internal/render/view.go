// Package render turns classified artifact payloads into views: the
// widget-neutral structures that chart and table components draw, plus a
// terminal rendition of them.
package render

import (
	"dashboard/internal/analytics"
	"dashboard/internal/stats"
)

// Status is the lifecycle position of a view.
type Status string

const (
	StatusLoading Status = "loading"
	StatusReady   Status = "ready"
	StatusEmpty   Status = "empty"
	StatusError   Status = "error"
)

// View is everything needed to draw one artifact card. Exactly the blocks
// relevant to Kind are populated.
type View struct {
	Key          string                 `json:"key"`
	TaskID       string                 `json:"task_id"`
	ArtifactID   string                 `json:"artifact_id"`
	Title        string                 `json:"title"`
	Description  string                 `json:"description,omitempty"`
	ArtifactType analytics.ArtifactType `json:"artifact_type"`
	Status       Status                 `json:"status"`
	Kind         string                 `json:"kind,omitempty"`

	Cards    []Card        `json:"cards,omitempty"`
	Table    *TableView    `json:"table,omitempty"`
	Chart    *ChartView    `json:"chart,omitempty"`
	Boxplot  *BoxplotView  `json:"boxplot,omitempty"`
	Heatmap  *HeatmapView  `json:"heatmap,omitempty"`
	Pie      []stats.Slice `json:"pie,omitempty"`
	Profiles []ProfileView `json:"profiles,omitempty"`
	Chips    []string      `json:"chips,omitempty"`
	Raw      string        `json:"raw,omitempty"`
	Notices  []string      `json:"notices,omitempty"`
	Message  string        `json:"message,omitempty"`
}

// Card is one formatted key figure.
type Card struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Value  string `json:"value"`
	Suffix string `json:"suffix,omitempty"`
}

// TableView is a truncated table. Total counts rows before truncation.
type TableView struct {
	Columns []string       `json:"columns"`
	Rows    []stats.Record `json:"rows"`
	Total   int            `json:"total"`
}

// Truncated reports whether rows were cut for display.
func (t *TableView) Truncated() bool {
	return len(t.Rows) < t.Total
}

// ChartKind is the chart a widget should draw.
type ChartKind string

const (
	ChartLine    ChartKind = "line"
	ChartBar     ChartKind = "bar"
	ChartScatter ChartKind = "scatter"
)

// Point is one plotted value.
type Point struct {
	X any     `json:"x"`
	Y float64 `json:"y"`
}

// Series is a named sequence of points.
type Series struct {
	Name   string  `json:"name"`
	Points []Point `json:"points"`
}

// ChartView is a chart-ready set of series. Dropped counts rows left out
// because their value was not a finite number.
type ChartView struct {
	Type    ChartKind `json:"type"`
	XField  string    `json:"x_field"`
	YField  string    `json:"y_field"`
	Series  []Series  `json:"series"`
	Dropped int       `json:"dropped,omitempty"`
}

// BoxplotView is a set of five-number summaries.
type BoxplotView struct {
	Field  string           `json:"field"`
	Groups []stats.BoxGroup `json:"groups"`
	Total  int              `json:"total"`
}

// HeatmapView is a labeled grid. Nil cells have no value.
type HeatmapView struct {
	Rows    []string     `json:"rows"`
	Columns []string     `json:"columns"`
	Cells   [][]*float64 `json:"cells"`
}

// ProfileView describes one cluster.
type ProfileView struct {
	Cluster         string   `json:"cluster"`
	Label           string   `json:"label"`
	Description     string   `json:"description,omitempty"`
	Customers       string   `json:"customers"`
	Percentage      string   `json:"percentage"`
	Metrics         []Card   `json:"metrics,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// NewView returns a view carrying the artifact's identity with the given
// status.
func NewView(meta analytics.ArtifactMeta, status Status) View {
	return View{
		Key:          meta.Key(),
		TaskID:       meta.TaskID,
		ArtifactID:   meta.ArtifactID,
		Title:        meta.Title,
		Description:  meta.Description,
		ArtifactType: meta.Type.Normalize(),
		Status:       status,
	}
}

// Failed returns an error view for an artifact that could not be loaded.
func Failed(meta analytics.ArtifactMeta, message string) View {
	v := NewView(meta, StatusError)
	v.Message = message
	return v
}

// Loading returns a placeholder view for an artifact still being fetched.
func Loading(meta analytics.ArtifactMeta) View {
	return NewView(meta, StatusLoading)
}
