package payload

import (
	"bytes"
	"dashboard/internal/analytics"
	"dashboard/internal/stats"
	"encoding/json"
	"fmt"
)

// object is a JSON object whose members are decoded on demand.
type object map[string]json.RawMessage

func (o object) has(key string) bool {
	_, ok := o[key]
	return ok
}

func (o object) str(key string) string {
	var s string
	if raw, ok := o[key]; ok {
		_ = json.Unmarshal(raw, &s)
	}
	return s
}

func (o object) number(key string) *float64 {
	raw, ok := o[key]
	if !ok {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	n, ok := stats.Number(v)
	if !ok {
		return nil
	}
	return &n
}

func (o object) integer(key string) int {
	if n := o.number(key); n != nil {
		return int(*n)
	}
	return 0
}

func (o object) records(key string) ([]stats.Record, bool) {
	raw, ok := o[key]
	if !ok {
		return nil, false
	}
	recs, _, ok := decodeRecords(raw)
	return recs, ok
}

func asObject(raw json.RawMessage) (object, bool) {
	var o object
	if err := json.Unmarshal(raw, &o); err != nil || o == nil {
		return nil, false
	}
	return o, true
}

// decodeRecords decodes a JSON array keeping only its object elements. It
// reports false when raw is not an array.
func decodeRecords(raw json.RawMessage) (recs []stats.Record, skipped int, ok bool) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		return nil, 0, false
	}
	recs = make([]stats.Record, 0, len(items))
	for _, item := range items {
		var r stats.Record
		if err := json.Unmarshal(item, &r); err != nil || r == nil {
			skipped++
			continue
		}
		recs = append(recs, r)
	}
	return recs, skipped, true
}

// orderedKeys returns the member names of a JSON object in document order.
func orderedKeys(raw json.RawMessage) []string {
	dec := json.NewDecoder(bytes.NewReader(raw))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return nil
	}
	var keys []string
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return keys
		}
		key, ok := tok.(string)
		if !ok {
			return keys
		}
		keys = append(keys, key)
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return keys
		}
	}
	return keys
}

// firstObjectKeys returns the ordered keys of the first object in a JSON
// array.
func firstObjectKeys(raw json.RawMessage) []string {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	for _, item := range items {
		if keys := orderedKeys(item); keys != nil {
			return keys
		}
	}
	return nil
}

func empty(format string, args ...any) *Empty {
	return &Empty{Reason: fmt.Sprintf(format, args...)}
}

// Classify resolves an artifact payload into its envelope, dispatching on
// the artifact's declared type.
func Classify(meta analytics.ArtifactMeta, raw json.RawMessage) Envelope {
	switch meta.Type.Normalize() {
	case analytics.TypeMetrics:
		return classifyMetrics(raw)
	case analytics.TypeTable:
		return classifyTable(raw)
	default:
		return classifyData(meta, raw)
	}
}

func classifyMetrics(raw json.RawMessage) Envelope {
	o, ok := asObject(raw)
	if !ok || !o.has("items") {
		return empty("payload has no items")
	}
	var items []json.RawMessage
	if err := json.Unmarshal(o["items"], &items); err != nil {
		return empty("items is not a list")
	}
	m := &Metrics{Items: make([]MetricItem, 0, len(items))}
	for _, item := range items {
		var mi MetricItem
		if err := json.Unmarshal(item, &mi); err != nil {
			continue
		}
		m.Items = append(m.Items, mi)
	}
	if len(m.Items) == 0 {
		return empty("payload has no items")
	}
	return m
}

func classifyTable(raw json.RawMessage) Envelope {
	o, ok := asObject(raw)
	if !ok || !o.has("rows") {
		return empty("payload has no rows")
	}
	rows, skipped, ok := decodeRecords(o["rows"])
	if !ok {
		return empty("rows is not a list")
	}
	if len(rows) == 0 {
		return empty("table has no rows")
	}

	var schema []string
	if o.has("schema") {
		_ = json.Unmarshal(o["schema"], &schema)
	}
	if len(schema) == 0 {
		schema = firstObjectKeys(o["rows"])
	}
	return &Table{Rows: rows, Schema: schema, Skipped: skipped}
}

// classifyData recognizes the domain envelopes a pipeline may emit for
// data artifacts. Checks run from the most to the least specific marker.
func classifyData(meta analytics.ArtifactMeta, raw json.RawMessage) Envelope {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return empty("payload is empty")
	}
	if trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err == nil && len(items) == 0 {
			return empty("payload is empty")
		}
		if recs, ok := classifyRecommendationArray(trimmed, false); ok {
			return recs
		}
		return &Unrecognized{Raw: raw}
	}

	o, ok := asObject(trimmed)
	if !ok {
		return &Unrecognized{Raw: raw}
	}
	if len(o) == 0 {
		return empty("payload has no fields")
	}

	switch {
	case o.has("correlation_data"):
		return classifyCorrelation(o)
	case o.has("cluster_profiles"):
		return classifyClusterProfiles(o)
	case o.has("visualization_data"):
		return classifyClusterVisualization(o)
	case o.has("sample_assignments"):
		return classifyClusterAssignments(o)
	case o.has("date_column") && o.has("value_column"):
		return classifyTimeSeries(o)
	case o.has("heatmap_name"):
		return classifyHeatmap(o)
	case o.has("distribution_name"):
		return classifyDistribution(o)
	case o.has("basic_metrics") || hasAny(o, basicMetricKeys()...):
		return classifyBasicMetrics(o)
	case o.has("data"):
		return classifyWrappedData(meta, o, raw)
	default:
		return &Unrecognized{Raw: raw}
	}
}

func hasAny(o object, keys ...string) bool {
	for _, k := range keys {
		if o.has(k) {
			return true
		}
	}
	return false
}

func classifyWrappedData(meta analytics.ArtifactMeta, o object, raw json.RawMessage) Envelope {
	if recs, ok := classifyRecommendationArray(o["data"], true); ok {
		recs.Total = o.number("total_products")
		if recs.Subject == SubjectCustomer {
			recs.Total = o.number("total_customers")
		}
		recs.MinSupport = o.number("min_support")
		recs.MinConfidence = o.number("min_confidence")
		return recs
	}

	data, ok := o.records("data")
	if !ok {
		return &Unrecognized{Raw: raw}
	}
	if len(data) == 0 {
		return empty("data is empty")
	}
	return &Records{
		Data:      data,
		Fields:    firstObjectKeys(o["data"]),
		SortField: meta.ExtraString("sort_field"),
	}
}

func classifyCorrelation(o object) Envelope {
	var doc struct {
		Variables []string                   `json:"variables"`
		Names     map[string]string          `json:"variable_names"`
		Matrix    map[string]json.RawMessage `json:"matrix"`
	}
	if err := json.Unmarshal(o["correlation_data"], &doc); err != nil {
		return empty("correlation_data is malformed")
	}
	if len(doc.Variables) == 0 {
		return empty("correlation matrix has no variables")
	}
	return &Correlation{
		Name: o.str("matrix_name"),
		Data: stats.Correlation{
			Variables: doc.Variables,
			Names:     doc.Names,
			Matrix:    correlationCells(doc.Matrix),
		},
	}
}

// correlationCells decodes every cell on its own. Rows that are not objects
// and cells that do not coerce to a number are left out, so they read as nil.
func correlationCells(rows map[string]json.RawMessage) stats.Matrix {
	matrix := make(stats.Matrix, len(rows))
	for name, raw := range rows {
		var cells map[string]any
		if err := json.Unmarshal(raw, &cells); err != nil {
			continue
		}
		row := make(map[string]*float64, len(cells))
		for col, v := range cells {
			if f, ok := stats.Number(v); ok {
				row[col] = &f
			}
		}
		matrix[name] = row
	}
	return matrix
}

func classifyTimeSeries(o object) Envelope {
	data, ok := o.records("data")
	if !ok || len(data) == 0 {
		return empty("time series has no data")
	}
	ts := &TimeSeries{
		Name:        o.str("series_name"),
		DateColumn:  o.str("date_column"),
		ValueColumn: o.str("value_column"),
		Data:        data,
	}
	if ts.DateColumn == "" || ts.ValueColumn == "" {
		return empty("time series does not name its columns")
	}
	if o.has("statistics") {
		var s SeriesStatistics
		if err := json.Unmarshal(o["statistics"], &s); err == nil {
			ts.Statistics = &s
		}
	}
	return ts
}

func classifyDistribution(o object) Envelope {
	data, ok := o.records("data")
	if !ok || len(data) == 0 {
		return empty("distribution has no data")
	}
	return &Distribution{
		Name:   o.str("distribution_name"),
		Format: DetectFormat(data),
		Data:   data,
	}
}

// DetectFormat infers the record layout of distribution data from its
// first record.
func DetectFormat(data []stats.Record) DistributionFormat {
	if len(data) == 0 {
		return FormatGeneric
	}
	first := data[0]
	has := func(k string) bool {
		_, ok := first[k]
		return ok
	}
	switch {
	case has("metric_name") && has("value"):
		return FormatMelt
	case has("customer_id") && has("total_products_purchased"):
		return FormatCustomer
	case has("total_products_sold") && (has("category_name") || has("category_id")):
		return FormatCategory
	case has("day_name") || has("day_of_week"):
		return FormatDayOfWeek
	default:
		return FormatGeneric
	}
}

func classifyHeatmap(o object) Envelope {
	inner, ok := asObject(o["data"])
	if !ok {
		return empty("heatmap has no data")
	}
	var metrics []string
	if inner.has("metrics") {
		_ = json.Unmarshal(inner["metrics"], &metrics)
	}
	cats, ok := inner.records("categories")
	if !ok || len(cats) == 0 || len(metrics) == 0 {
		return empty("heatmap has no categories or metrics")
	}

	h := &Heatmap{Name: o.str("heatmap_name"), Metrics: metrics}
	for _, c := range cats {
		name, _ := c["category_name"].(string)
		values, _ := c["values"].(map[string]any)
		h.Categories = append(h.Categories, HeatmapCategory{
			ID:     c["category_id"],
			Name:   name,
			Values: values,
		})
	}
	return h
}

func classifyClusterProfiles(o object) Envelope {
	var profiles map[string]ClusterProfile
	if err := json.Unmarshal(o["cluster_profiles"], &profiles); err != nil {
		return empty("cluster_profiles is malformed")
	}
	if len(profiles) == 0 {
		return empty("no cluster profiles")
	}
	return &ClusterProfiles{NClusters: o.integer("n_clusters"), Profiles: profiles}
}

func classifyClusterVisualization(o object) Envelope {
	inner, ok := asObject(o["visualization_data"])
	if !ok {
		return empty("visualization_data is malformed")
	}
	cv := &ClusterVisualization{NClusters: o.integer("n_clusters")}
	cv.Statistics, _ = inner.records("cluster_statistics")
	if inner.has("cluster_labels") {
		_ = json.Unmarshal(inner["cluster_labels"], &cv.Labels)
	}
	if inner.has("distribution") {
		var dist map[string]any
		if err := json.Unmarshal(inner["distribution"], &dist); err == nil {
			cv.Distribution = make(map[string]float64, len(dist))
			for id, v := range dist {
				cv.Distribution[id] = stats.NumberOr(v, 0)
			}
		}
	}
	if len(cv.Distribution) == 0 && len(cv.Statistics) == 0 {
		return empty("no cluster distribution or statistics")
	}
	return cv
}

func classifyClusterAssignments(o object) Envelope {
	samples, ok := o.records("sample_assignments")
	if !ok || len(samples) == 0 {
		return empty("no sample assignments")
	}
	return &ClusterAssignments{
		NClusters:      o.integer("n_clusters"),
		TotalCustomers: o.integer("total_customers"),
		Samples:        samples,
	}
}

// classifyRecommendationArray recognizes a list of recommendation entries,
// keyed by product_id or customer_id.
func classifyRecommendationArray(raw json.RawMessage, wrapped bool) (*Recommendations, bool) {
	entries, _, ok := decodeRecords(raw)
	if !ok || len(entries) == 0 {
		return nil, false
	}
	first := entries[0]
	if _, ok := first["recommendations"]; !ok {
		return nil, false
	}

	subject, idKey := SubjectProduct, "product_id"
	if _, ok := first["customer_id"]; ok {
		subject, idKey = SubjectCustomer, "customer_id"
	} else if _, ok := first["product_id"]; !ok {
		return nil, false
	}

	recs := &Recommendations{Subject: subject, Wrapped: wrapped}
	for _, e := range entries {
		entry := RecommendationEntry{SubjectID: e[idKey]}
		if list, ok := e["recommendations"].([]any); ok {
			for _, item := range list {
				if r, ok := item.(map[string]any); ok {
					entry.Recommendations = append(entry.Recommendations, r)
				}
			}
		}
		recs.Entries = append(recs.Entries, entry)
	}
	return recs, true
}

type metricAlias struct {
	dst  func(*BasicMetrics) **float64
	keys []string
}

var basicMetricAliases = []metricAlias{
	{func(b *BasicMetrics) **float64 { return &b.TotalTransactions }, []string{"total_transactions", "total_transacciones"}},
	{func(b *BasicMetrics) **float64 { return &b.TotalSalesUnits }, []string{"total_sales_units", "total_productos_vendidos"}},
	{func(b *BasicMetrics) **float64 { return &b.UniqueCustomers }, []string{"unique_customers", "clientes_unicos"}},
	{func(b *BasicMetrics) **float64 { return &b.UniqueProducts }, []string{"unique_products", "productos_unicos"}},
}

func basicMetricKeys() []string {
	var keys []string
	for _, a := range basicMetricAliases {
		keys = append(keys, a.keys...)
	}
	return keys
}

func classifyBasicMetrics(o object) Envelope {
	src := o
	if o.has("basic_metrics") {
		inner, ok := asObject(o["basic_metrics"])
		if !ok {
			return empty("basic_metrics is malformed")
		}
		src = inner
	}

	bm := &BasicMetrics{}
	found := false
	for _, alias := range basicMetricAliases {
		for _, key := range alias.keys {
			if n := src.number(key); n != nil {
				*alias.dst(bm) = n
				found = true
				break
			}
		}
	}
	if !found {
		return empty("no basic metrics present")
	}
	return bm
}
