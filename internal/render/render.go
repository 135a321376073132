package render

import (
	"bytes"
	"cmp"
	"dashboard/internal/analytics"
	"dashboard/internal/config"
	"dashboard/internal/payload"
	"dashboard/internal/stats"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Renderer builds views according to a display policy.
type Renderer struct {
	display config.DisplayConfig
	exclude map[string]bool
}

// New creates a renderer. Non-positive limits fall back to the defaults.
func New(display config.DisplayConfig) *Renderer {
	defaults := config.Defaults().Display
	if display.BoxplotGroupCap <= 0 {
		display.BoxplotGroupCap = defaults.BoxplotGroupCap
	}
	if display.TopCustomers <= 0 {
		display.TopCustomers = defaults.TopCustomers
	}
	if display.TopListSize <= 0 {
		display.TopListSize = defaults.TopListSize
	}
	if display.TableMaxRows <= 0 {
		display.TableMaxRows = defaults.TableMaxRows
	}
	if display.RecommendationMaxRows <= 0 {
		display.RecommendationMaxRows = defaults.RecommendationMaxRows
	}
	return &Renderer{
		display: display,
		exclude: stats.ExcludeSet(display.CorrelationExclude...),
	}
}

// Render classifies raw and builds the matching view. It never fails: a
// payload that does not fit its shape yields an empty view.
func (r *Renderer) Render(meta analytics.ArtifactMeta, raw json.RawMessage) View {
	return r.RenderEnvelope(meta, payload.Classify(meta, raw))
}

// RenderEnvelope builds the view for an already classified payload.
func (r *Renderer) RenderEnvelope(meta analytics.ArtifactMeta, env payload.Envelope) View {
	v := NewView(meta, StatusReady)
	v.Kind = string(env.Kind())

	switch e := env.(type) {
	case *payload.Empty:
		v.Status = StatusEmpty
		v.Message = e.Reason
	case *payload.Unrecognized:
		v.Raw = prettyJSON(e.Raw)
	case *payload.Metrics:
		v.Cards = metricCards(e.Items)
	case *payload.Table:
		r.renderTable(&v, meta, e)
	case *payload.TimeSeries:
		renderTimeSeries(&v, e)
	case *payload.Distribution:
		r.renderDistribution(&v, e)
	case *payload.Correlation:
		r.renderCorrelation(&v, e)
	case *payload.Heatmap:
		renderHeatmap(&v, e)
	case *payload.ClusterProfiles:
		renderProfiles(&v, e)
	case *payload.ClusterVisualization:
		r.renderClusterVisualization(&v, e)
	case *payload.ClusterAssignments:
		renderAssignments(&v, e)
	case *payload.Recommendations:
		r.renderRecommendations(&v, e)
	case *payload.BasicMetrics:
		renderBasicMetrics(&v, e)
	case *payload.Records:
		r.renderRecords(&v, e)
	default:
		v.Status = StatusEmpty
		v.Message = fmt.Sprintf("unsupported payload kind %q", env.Kind())
	}
	return v
}

func prettyJSON(raw json.RawMessage) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

func metricCards(items []payload.MetricItem) []Card {
	cards := make([]Card, 0, len(items))
	for _, it := range items {
		cards = append(cards, Card{
			ID:     it.ID,
			Label:  it.Label,
			Value:  FormatValue(it.Value),
			Suffix: it.Suffix,
		})
	}
	return cards
}

// truncate builds a table view limited to max rows.
func truncate(columns []string, rows []stats.Record, max int) *TableView {
	t := &TableView{Columns: columns, Rows: rows, Total: len(rows)}
	if max > 0 && len(rows) > max {
		t.Rows = rows[:max]
	}
	return t
}

func (v *View) noteTruncation(t *TableView) {
	if t.Truncated() {
		v.Notices = append(v.Notices, fmt.Sprintf("showing %d of %d rows", len(t.Rows), t.Total))
	}
}

func (r *Renderer) renderTable(v *View, meta analytics.ArtifactMeta, t *payload.Table) {
	v.Table = truncate(t.Schema, t.Rows, r.display.TableMaxRows)
	v.noteTruncation(v.Table)
	if t.Skipped > 0 {
		v.Notices = append(v.Notices, fmt.Sprintf("%d malformed rows skipped", t.Skipped))
	}

	hint := meta.Visualization
	if !hint.Chartable() {
		return
	}
	chart := &ChartView{Type: ChartKind(hint.Type), XField: hint.XField, YField: hint.YField}
	series := Series{Name: hint.YField}
	for _, row := range t.Rows {
		y, ok := stats.Number(row[hint.YField])
		if !ok {
			chart.Dropped++
			continue
		}
		series.Points = append(series.Points, Point{X: row[hint.XField], Y: y})
	}
	if len(series.Points) == 0 {
		v.Notices = append(v.Notices, fmt.Sprintf("no numeric values in %q to chart", hint.YField))
		return
	}
	chart.Series = []Series{series}
	v.Chart = chart
}

func renderTimeSeries(v *View, ts *payload.TimeSeries) {
	name := ts.Name
	if name == "" {
		name = ts.ValueColumn
	}
	series := Series{Name: name, Points: make([]Point, 0, len(ts.Data))}
	for _, row := range ts.Data {
		series.Points = append(series.Points, Point{
			X: row[ts.DateColumn],
			Y: stats.NumberOr(row[ts.ValueColumn], 0),
		})
	}
	v.Chart = &ChartView{
		Type:   ChartLine,
		XField: ts.DateColumn,
		YField: ts.ValueColumn,
		Series: []Series{series},
	}
	if s := ts.Statistics; s != nil {
		v.Cards = []Card{
			{ID: "mean", Label: "Mean", Value: FormatOptional(s.Mean)},
			{ID: "min", Label: "Minimum", Value: FormatOptional(s.Min)},
			{ID: "max", Label: "Maximum", Value: FormatOptional(s.Max)},
		}
	}
}

func (r *Renderer) renderDistribution(v *View, d *payload.Distribution) {
	switch d.Format {
	case payload.FormatMelt:
		r.boxplot(v, d.Data, stats.FieldGroup(func(rec stats.Record) string {
			return stringField(rec, "metric_name")
		}, "value"), "value")
	case payload.FormatCategory:
		r.boxplot(v, d.Data, stats.FieldGroup(categoryLabel, "total_products_sold"), "total_products_sold")
	case payload.FormatCustomer:
		columns := []string{"customer_id", "total_products_purchased"}
		top := stats.TopRecords(d.Data, "total_products_purchased", r.display.TopCustomers, columns...)
		r.boxplot(v, top, stats.FieldGroup(stats.ConstantKey("customers"), "total_products_purchased"), "total_products_purchased")
		v.Table = truncate(columns, top, r.display.TableMaxRows)
		v.noteTruncation(v.Table)
		if len(top) < len(d.Data) {
			v.Notices = append(v.Notices, fmt.Sprintf("top %d of %d customers by products purchased", len(top), len(d.Data)))
		}
	default:
		v.Table = truncate(recordColumns(d.Data), d.Data, r.display.TableMaxRows)
		v.noteTruncation(v.Table)
	}
}

func (r *Renderer) boxplot(v *View, records []stats.Record, group stats.GroupFunc, field string) {
	summary := stats.SummarizeGroups(records, group, r.display.BoxplotGroupCap)
	if len(summary.Groups) == 0 {
		v.Status = StatusEmpty
		v.Message = "no values to summarize"
		return
	}
	v.Boxplot = &BoxplotView{Field: field, Groups: summary.Groups, Total: summary.Total}
	if notice := summary.Notice(); notice != "" {
		v.Notices = append(v.Notices, notice)
	}
}

func categoryLabel(rec stats.Record) string {
	if name := stringField(rec, "category_name"); name != "" {
		return name
	}
	return "Category " + FormatValue(rec["category_id"])
}

func stringField(rec stats.Record, key string) string {
	switch x := rec[key].(type) {
	case string:
		return x
	case nil:
		return ""
	default:
		return FormatValue(x)
	}
}

// recordColumns lists the keys of the first record in sorted order. Records
// decoded into maps no longer carry document order.
func recordColumns(records []stats.Record) []string {
	if len(records) == 0 {
		return nil
	}
	cols := make([]string, 0, len(records[0]))
	for k := range records[0] {
		cols = append(cols, k)
	}
	slices.Sort(cols)
	return cols
}

func (r *Renderer) renderCorrelation(v *View, c *payload.Correlation) {
	pruned := stats.PruneCorrelation(c.Data, r.exclude)
	if len(pruned.Variables) == 0 {
		v.Status = StatusEmpty
		v.Message = "every variable is excluded"
		return
	}
	labels := make([]string, len(pruned.Variables))
	for i, name := range pruned.Variables {
		labels[i] = cmp.Or(pruned.Names[name], name)
	}
	cells := make([][]*float64, len(pruned.Variables))
	for i, row := range pruned.Variables {
		cells[i] = make([]*float64, len(pruned.Variables))
		for j, col := range pruned.Variables {
			cells[i][j] = pruned.Matrix.Cell(row, col)
		}
	}
	v.Heatmap = &HeatmapView{Rows: labels, Columns: labels, Cells: cells}
}

func renderHeatmap(v *View, h *payload.Heatmap) {
	hm := &HeatmapView{Columns: h.Metrics}
	for _, c := range h.Categories {
		hm.Rows = append(hm.Rows, cmp.Or(c.Name, "Category "+FormatValue(c.ID)))
		row := make([]*float64, len(h.Metrics))
		for j, metric := range h.Metrics {
			val := stats.NumberOr(c.Values[metric], 0)
			row[j] = &val
		}
		hm.Cells = append(hm.Cells, row)
	}
	v.Heatmap = hm
}

func renderProfiles(v *View, p *payload.ClusterProfiles) {
	ids := make([]string, 0, len(p.Profiles))
	for id := range p.Profiles {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, stats.CompareClusterIDs)

	for _, id := range ids {
		prof := p.Profiles[id]
		pv := ProfileView{
			Cluster:         id,
			Label:           prof.Label,
			Description:     prof.Description,
			Customers:       FormatValue(prof.NCustomers),
			Percentage:      FormatValue(prof.Percentage) + "%",
			Recommendations: prof.BusinessRecommendations,
		}
		keys := make([]string, 0, len(prof.Metrics))
		for k := range prof.Metrics {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		for _, k := range keys {
			pv.Metrics = append(pv.Metrics, Card{ID: k, Label: humanLabel(k), Value: FormatValue(prof.Metrics[k])})
		}
		v.Profiles = append(v.Profiles, pv)
	}
}

func humanLabel(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	if len(words) == 0 {
		return key
	}
	first, size := utf8.DecodeRuneInString(words[0])
	words[0] = string(unicode.ToUpper(first)) + words[0][size:]
	return strings.Join(words, " ")
}

func (r *Renderer) renderClusterVisualization(v *View, cv *payload.ClusterVisualization) {
	if len(cv.Distribution) > 0 {
		v.Pie = stats.ClusterDistribution(cv.Distribution, cv.Labels)
	}
	if len(cv.Statistics) > 0 {
		v.Table = truncate(recordColumns(cv.Statistics), cv.Statistics, r.display.TableMaxRows)
		v.noteTruncation(v.Table)
	}
}

func renderAssignments(v *View, a *payload.ClusterAssignments) {
	const xField, yField = "frequency", "total_volume"

	var order []string
	byCluster := make(map[string]*Series)
	chart := &ChartView{Type: ChartScatter, XField: xField, YField: yField}
	for _, s := range a.Samples {
		x, xok := stats.Number(s[xField])
		y, yok := stats.Number(s[yField])
		if !xok || !yok {
			chart.Dropped++
			continue
		}
		id := FormatValue(s["cluster"])
		series, ok := byCluster[id]
		if !ok {
			series = &Series{Name: "Cluster " + id}
			byCluster[id] = series
			order = append(order, id)
		}
		series.Points = append(series.Points, Point{X: x, Y: y})
	}
	slices.SortFunc(order, stats.CompareClusterIDs)
	for _, id := range order {
		chart.Series = append(chart.Series, *byCluster[id])
	}
	if len(chart.Series) == 0 {
		v.Status = StatusEmpty
		v.Message = "no plottable assignments"
		return
	}
	v.Chart = chart
	total := max(a.TotalCustomers, len(a.Samples))
	v.Notices = append(v.Notices, fmt.Sprintf("sample of %s customers out of %s",
		FormatValue(len(a.Samples)), FormatValue(total)))
}

func (r *Renderer) renderRecommendations(v *View, rec *payload.Recommendations) {
	if rec.Total != nil && *rec.Total > 0 {
		noun := "products with suggestions"
		if rec.Subject == payload.SubjectCustomer {
			noun = "customers prioritized"
		}
		v.Chips = append(v.Chips, FormatNumber(*rec.Total)+" "+noun)
	}
	if rec.MinSupport != nil {
		v.Chips = append(v.Chips, "support ≥ "+FormatPercent(*rec.MinSupport))
	}
	if rec.MinConfidence != nil {
		v.Chips = append(v.Chips, "confidence ≥ "+FormatPercent(*rec.MinConfidence))
	}

	rows := rec.Rows()
	if len(rows) == 0 {
		v.Status = StatusEmpty
		v.Message = "no recommendations were generated"
		return
	}
	v.Table = truncate(rec.Columns(), rows, r.display.RecommendationMaxRows)
	v.noteTruncation(v.Table)
}

func renderBasicMetrics(v *View, bm *payload.BasicMetrics) {
	add := func(id, label string, value *float64) {
		if value != nil {
			v.Cards = append(v.Cards, Card{ID: id, Label: label, Value: FormatNumber(*value)})
		}
	}
	add("transactions", "Total transactions", bm.TotalTransactions)
	add("sales_units", "Total units sold", bm.TotalSalesUnits)
	add("unique_customers", "Unique customers", bm.UniqueCustomers)
	add("unique_products", "Unique products", bm.UniqueProducts)
}

func (r *Renderer) renderRecords(v *View, rec *payload.Records) {
	field := rec.SortField
	if field == "" {
		field = detectSortField(rec.Fields, rec.Data)
	}
	ranked := rec.Data
	if field != "" {
		ranked = stats.TopRecords(rec.Data, field, r.display.TopListSize, rec.Fields...)
	} else if len(ranked) > r.display.TopListSize {
		ranked = ranked[:r.display.TopListSize]
	}
	v.Table = &TableView{Columns: rec.Fields, Rows: ranked, Total: len(rec.Data)}
	v.noteTruncation(v.Table)
}

// detectSortField picks the first field that is numeric in every record and
// is not an identifier.
func detectSortField(fields []string, data []stats.Record) string {
	for _, f := range fields {
		if f == "id" || strings.HasSuffix(f, "_id") {
			continue
		}
		numeric := true
		for _, rec := range data {
			if _, ok := rec[f].(float64); !ok {
				numeric = false
				break
			}
		}
		if numeric {
			return f
		}
	}
	return ""
}
