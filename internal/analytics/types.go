// Package analytics defines the dashboard data model: the index of pipeline
// runs, per-run manifests and the metadata describing each artifact.
package analytics

import (
	"fmt"
)

// ArtifactType selects the transform and view applied to an artifact.
type ArtifactType string

const (
	TypeMetrics ArtifactType = "metrics"
	TypeTable   ArtifactType = "table"
	TypeData    ArtifactType = "data"
)

// Normalize maps unknown or empty types to TypeData, the raw fallback.
func (t ArtifactType) Normalize() ArtifactType {
	switch t {
	case TypeMetrics, TypeTable:
		return t
	default:
		return TypeData
	}
}

// VisualizationType is the chart kind requested by a table artifact.
type VisualizationType string

const (
	VisualizationLine VisualizationType = "line"
	VisualizationBar  VisualizationType = "bar"
)

// VisualizationHint is an optional rendering directive on table artifacts.
type VisualizationHint struct {
	Type   VisualizationType `json:"type"`
	XField string            `json:"x_field,omitempty"`
	YField string            `json:"y_field,omitempty"`
}

// Chartable reports whether the hint names a chart type and both axes.
func (h *VisualizationHint) Chartable() bool {
	return h != nil && h.Type != "" && h.XField != "" && h.YField != ""
}

// ArtifactMeta describes one JSON output produced by a pipeline task.
type ArtifactMeta struct {
	DagID         string             `json:"dag_id"`
	TaskID        string             `json:"task_id"`
	ArtifactID    string             `json:"artifact_id"`
	Title         string             `json:"title"`
	Type          ArtifactType       `json:"type"`
	RelativePath  string             `json:"relative_path"`
	Description   string             `json:"description,omitempty"`
	GeneratedAt   string             `json:"generated_at,omitempty"`
	Visualization *VisualizationHint `json:"visualization,omitempty"`
	RowCount      *int               `json:"row_count,omitempty"`
	Extra         map[string]any     `json:"extra,omitempty"`
}

// Key identifies the artifact within its manifest.
func (m ArtifactMeta) Key() string {
	return m.TaskID + "/" + m.ArtifactID
}

// ExtraString returns a string value from Extra, or "".
func (m ArtifactMeta) ExtraString(key string) string {
	if v, ok := m.Extra[key].(string); ok {
		return v
	}
	return ""
}

// ExtraInt returns a positive integer value from Extra, or 0.
func (m ArtifactMeta) ExtraInt(key string) int {
	if v, ok := m.Extra[key].(float64); ok && v > 0 {
		return int(v)
	}
	return 0
}

// TaskArtifacts groups the artifacts produced by one task.
type TaskArtifacts struct {
	TaskID    string         `json:"task_id"`
	Artifacts []ArtifactMeta `json:"artifacts"`
}

// DagManifest lists every artifact produced by one pipeline run.
type DagManifest struct {
	DagID       string          `json:"dag_id"`
	DagLabel    string          `json:"dag_label,omitempty"`
	GeneratedAt string          `json:"generated_at"`
	Tasks       []TaskArtifacts `json:"tasks"`
}

// Artifacts returns every artifact in task order.
func (m *DagManifest) Artifacts() []ArtifactMeta {
	var out []ArtifactMeta
	for _, task := range m.Tasks {
		out = append(out, task.Artifacts...)
	}
	return out
}

// Find returns the artifact with the given task and artifact id.
func (m *DagManifest) Find(taskID, artifactID string) (ArtifactMeta, bool) {
	for _, task := range m.Tasks {
		if task.TaskID != taskID {
			continue
		}
		for _, a := range task.Artifacts {
			if a.ArtifactID == artifactID {
				return a, true
			}
		}
	}
	return ArtifactMeta{}, false
}

// DagIndexEntry points at the manifest of one pipeline run.
type DagIndexEntry struct {
	DagID       string `json:"dag_id"`
	DagLabel    string `json:"dag_label,omitempty"`
	GeneratedAt string `json:"generated_at,omitempty"`
	Path        string `json:"path"`
}

// Label is the display name of the run.
func (e DagIndexEntry) Label() string {
	if e.DagLabel != "" {
		return e.DagLabel
	}
	return e.DagID
}

// DashboardIndex lists the available runs in discovery order.
type DashboardIndex struct {
	GeneratedAt string          `json:"generated_at"`
	Dags        []DagIndexEntry `json:"dags"`
}

// Find returns the entry for dagID.
func (idx *DashboardIndex) Find(dagID string) (DagIndexEntry, bool) {
	for _, d := range idx.Dags {
		if d.DagID == dagID {
			return d, true
		}
	}
	return DagIndexEntry{}, false
}

// Normalize drops entries without an id or path and repeated ids, keeping
// the first occurrence. It returns a description of each dropped entry.
func (idx *DashboardIndex) Normalize() []string {
	var dropped []string
	seen := make(map[string]bool, len(idx.Dags))
	kept := idx.Dags[:0]
	for i, d := range idx.Dags {
		switch {
		case d.DagID == "":
			dropped = append(dropped, fmt.Sprintf("dags[%d]: dag_id is required", i))
		case d.Path == "":
			dropped = append(dropped, fmt.Sprintf("dags[%d]: path is required", i))
		case seen[d.DagID]:
			dropped = append(dropped, fmt.Sprintf("dags[%d]: duplicate dag_id %q", i, d.DagID))
		default:
			seen[d.DagID] = true
			kept = append(kept, d)
		}
	}
	idx.Dags = kept
	return dropped
}
