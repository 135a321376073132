// Package payload classifies artifact JSON into one of the known envelope
// shapes. Classification never fails: payloads missing the fields their
// shape needs become Empty, and shapes nobody recognizes become Unrecognized.
package payload

import (
	"dashboard/internal/stats"
	"encoding/json"
)

// Kind discriminates envelope variants.
type Kind string

const (
	KindEmpty                Kind = "empty"
	KindUnrecognized         Kind = "unrecognized"
	KindMetrics              Kind = "metrics"
	KindTable                Kind = "table"
	KindTimeSeries           Kind = "time_series"
	KindDistribution         Kind = "distribution"
	KindCorrelation          Kind = "correlation"
	KindHeatmap              Kind = "heatmap"
	KindClusterProfiles      Kind = "cluster_profiles"
	KindClusterVisualization Kind = "cluster_visualization"
	KindClusterAssignments   Kind = "cluster_assignments"
	KindRecommendations      Kind = "recommendations"
	KindBasicMetrics         Kind = "basic_metrics"
	KindRecords              Kind = "records"
)

// Envelope is a classified payload. The concrete type is one of the pointer
// types in this package and always matches Kind.
type Envelope interface {
	Kind() Kind
}

// Empty is a payload that parsed but lacks the fields its shape requires.
type Empty struct {
	Reason string
}

// Unrecognized is a payload of unknown shape, kept verbatim.
type Unrecognized struct {
	Raw json.RawMessage
}

// MetricItem is one key figure. Value is a string, a float64 or nil.
type MetricItem struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Value  any    `json:"value"`
	Suffix string `json:"suffix,omitempty"`
}

// Metrics is the payload of metrics artifacts.
type Metrics struct {
	Items []MetricItem
}

// Table is the payload of table artifacts. Schema is never empty: when the
// payload omits it, it is the first row's keys in document order.
type Table struct {
	Rows   []stats.Record
	Schema []string
	// Skipped counts rows that were not JSON objects.
	Skipped int
}

// SeriesStatistics are the precomputed aggregates of a time series.
type SeriesStatistics struct {
	Mean *float64 `json:"promedio"`
	Min  *float64 `json:"minimo"`
	Max  *float64 `json:"maximo"`
}

// TimeSeries is a dated series of one value column.
type TimeSeries struct {
	Name        string
	DateColumn  string
	ValueColumn string
	Statistics  *SeriesStatistics
	Data        []stats.Record
}

// DistributionFormat is the record layout of a distribution payload.
type DistributionFormat string

const (
	FormatMelt      DistributionFormat = "melt"
	FormatCategory  DistributionFormat = "category"
	FormatCustomer  DistributionFormat = "customer"
	FormatDayOfWeek DistributionFormat = "day_of_week"
	FormatGeneric   DistributionFormat = "generic"
)

// Distribution is a set of records describing a numeric distribution.
type Distribution struct {
	Name   string
	Format DistributionFormat
	Data   []stats.Record
}

// Correlation is a named correlation matrix.
type Correlation struct {
	Name string
	Data stats.Correlation
}

// HeatmapCategory is one row of a category performance heatmap.
type HeatmapCategory struct {
	ID     any
	Name   string
	Values stats.Record
}

// Heatmap is a categories by metrics grid of normalized values.
type Heatmap struct {
	Name       string
	Categories []HeatmapCategory
	Metrics    []string
}

// ClusterProfile describes one customer segment.
type ClusterProfile struct {
	ClusterID               any          `json:"cluster_id"`
	Label                   string       `json:"label"`
	Description             string       `json:"description"`
	NCustomers              any          `json:"n_customers"`
	Percentage              any          `json:"percentage"`
	Metrics                 stats.Record `json:"metrics"`
	BusinessRecommendations []string     `json:"business_recommendations"`
}

// ClusterProfiles is a segmentation summary keyed by cluster id.
type ClusterProfiles struct {
	NClusters int
	Profiles  map[string]ClusterProfile
}

// ClusterVisualization carries cluster sizes, labels and statistics.
type ClusterVisualization struct {
	NClusters    int
	Statistics   []stats.Record
	Labels       map[string]string
	Distribution map[string]float64
}

// ClusterAssignments is a sample of customers with their cluster.
type ClusterAssignments struct {
	NClusters      int
	TotalCustomers int
	Samples        []stats.Record
}

// RecommendationSubject names what recommendations are keyed by.
type RecommendationSubject string

const (
	SubjectProduct  RecommendationSubject = "product"
	SubjectCustomer RecommendationSubject = "customer"
)

// RecommendationEntry lists the suggestions for one product or customer.
type RecommendationEntry struct {
	SubjectID       any
	Recommendations []stats.Record
}

// Recommendations is either the wrapped {data: [...]} form with summary
// figures or the flat array form without them.
type Recommendations struct {
	Subject       RecommendationSubject
	Wrapped       bool
	Entries       []RecommendationEntry
	Total         *float64
	MinSupport    *float64
	MinConfidence *float64
}

// BasicMetrics are the headline totals of a run. Each total is nil when
// neither its English nor its Spanish key is present.
type BasicMetrics struct {
	TotalTransactions *float64
	TotalSalesUnits   *float64
	UniqueCustomers   *float64
	UniqueProducts    *float64
}

// Records is a plain {data: [...]} list such as a top-N table. SortField is
// the ranking field declared by the artifact, if any.
type Records struct {
	Data      []stats.Record
	Fields    []string
	SortField string
}

func (*Empty) Kind() Kind                { return KindEmpty }
func (*Unrecognized) Kind() Kind         { return KindUnrecognized }
func (*Metrics) Kind() Kind              { return KindMetrics }
func (*Table) Kind() Kind                { return KindTable }
func (*TimeSeries) Kind() Kind           { return KindTimeSeries }
func (*Distribution) Kind() Kind         { return KindDistribution }
func (*Correlation) Kind() Kind          { return KindCorrelation }
func (*Heatmap) Kind() Kind              { return KindHeatmap }
func (*ClusterProfiles) Kind() Kind      { return KindClusterProfiles }
func (*ClusterVisualization) Kind() Kind { return KindClusterVisualization }
func (*ClusterAssignments) Kind() Kind   { return KindClusterAssignments }
func (*Recommendations) Kind() Kind      { return KindRecommendations }
func (*BasicMetrics) Kind() Kind         { return KindBasicMetrics }
func (*Records) Kind() Kind              { return KindRecords }
