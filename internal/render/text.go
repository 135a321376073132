package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// maxChartRows bounds how many points of a series are listed in text form.
const maxChartRows = 20

// TextWriter renders views as terminal tables.
type TextWriter struct {
	w     io.Writer
	style table.Style
}

// NewTextWriter creates a writer with the light box-drawing style.
func NewTextWriter(w io.Writer) *TextWriter {
	return &TextWriter{w: w, style: table.StyleLight}
}

// Write renders one view.
func (t *TextWriter) Write(v View) error {
	var b strings.Builder

	fmt.Fprintf(&b, "== %s (%s) ==\n", v.Title, v.Key)
	if v.Description != "" {
		b.WriteString(v.Description + "\n")
	}

	switch v.Status {
	case StatusLoading:
		b.WriteString("loading...\n")
	case StatusError:
		b.WriteString("error: " + v.Message + "\n")
	case StatusEmpty:
		b.WriteString("no data: " + v.Message + "\n")
	}

	if len(v.Chips) > 0 {
		b.WriteString(strings.Join(v.Chips, " · ") + "\n")
	}
	if len(v.Cards) > 0 {
		b.WriteString(t.cards(v.Cards) + "\n")
	}
	for _, p := range v.Profiles {
		b.WriteString(t.profile(p) + "\n")
	}
	if len(v.Pie) > 0 {
		b.WriteString(t.pie(v) + "\n")
	}
	if v.Boxplot != nil {
		b.WriteString(t.boxplot(v.Boxplot) + "\n")
	}
	if v.Heatmap != nil {
		b.WriteString(t.heatmap(v.Heatmap) + "\n")
	}
	if v.Chart != nil {
		b.WriteString(t.chart(v.Chart))
	}
	if v.Table != nil {
		b.WriteString(t.table(v.Table) + "\n")
	}
	if v.Raw != "" {
		b.WriteString(v.Raw + "\n")
	}
	for _, n := range v.Notices {
		b.WriteString("note: " + n + "\n")
	}
	b.WriteString("\n")

	_, err := io.WriteString(t.w, b.String())
	return err
}

func (t *TextWriter) newTable(header ...any) table.Writer {
	tw := table.NewWriter()
	tw.SetStyle(t.style)
	if len(header) > 0 {
		tw.AppendHeader(table.Row(header))
	}
	return tw
}

func (t *TextWriter) cards(cards []Card) string {
	tw := t.newTable("Metric", "Value")
	tw.SetColumnConfigs([]table.ColumnConfig{{Number: 2, Align: text.AlignRight}})
	for _, c := range cards {
		tw.AppendRow(table.Row{c.Label, c.Value + c.Suffix})
	}
	return tw.Render()
}

func (t *TextWriter) profile(p ProfileView) string {
	tw := t.newTable("Cluster "+p.Cluster+": "+p.Label, p.Customers+" customers ("+p.Percentage+")")
	for _, m := range p.Metrics {
		tw.AppendRow(table.Row{m.Label, m.Value})
	}
	for _, r := range p.Recommendations {
		tw.AppendFooter(table.Row{"→", r})
	}
	return tw.Render()
}

func (t *TextWriter) pie(v View) string {
	tw := t.newTable("Cluster", "Customers", "Share")
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
	})
	for _, s := range v.Pie {
		tw.AppendRow(table.Row{s.Label, FormatNumber(s.Value), FormatNumber(s.Percentage) + "%"})
	}
	return tw.Render()
}

func (t *TextWriter) boxplot(bp *BoxplotView) string {
	tw := t.newTable("Group", "N", "Min", "Q1", "Median", "Q3", "Max")
	for _, g := range bp.Groups {
		tw.AppendRow(table.Row{
			g.Key, len(g.Values),
			FormatNumber(g.Min), FormatNumber(g.Q1), FormatNumber(g.Median),
			FormatNumber(g.Q3), FormatNumber(g.Max),
		})
	}
	return tw.Render()
}

func (t *TextWriter) heatmap(hm *HeatmapView) string {
	header := table.Row{""}
	for _, c := range hm.Columns {
		header = append(header, c)
	}
	tw := t.newTable(header...)
	for i, label := range hm.Rows {
		row := table.Row{label}
		for _, cell := range hm.Cells[i] {
			if cell == nil {
				row = append(row, "")
				continue
			}
			row = append(row, FormatNumber(*cell))
		}
		tw.AppendRow(row)
	}
	return tw.Render()
}

func (t *TextWriter) chart(c *ChartView) string {
	var b strings.Builder
	for _, s := range c.Series {
		tw := t.newTable(c.XField, s.Name)
		tw.SetTitle(fmt.Sprintf("%s chart: %s", c.Type, s.Name))
		for i, p := range s.Points {
			if i == maxChartRows {
				tw.AppendFooter(table.Row{"…", fmt.Sprintf("%d more", len(s.Points)-maxChartRows)})
				break
			}
			tw.AppendRow(table.Row{FormatValue(p.X), FormatNumber(p.Y)})
		}
		b.WriteString(tw.Render() + "\n")
	}
	if c.Dropped > 0 {
		fmt.Fprintf(&b, "note: %d non-numeric rows left out of the chart\n", c.Dropped)
	}
	return b.String()
}

func (t *TextWriter) table(tv *TableView) string {
	header := make(table.Row, len(tv.Columns))
	for i, c := range tv.Columns {
		header[i] = c
	}
	tw := t.newTable(header...)
	for _, r := range tv.Rows {
		row := make(table.Row, len(tv.Columns))
		for i, c := range tv.Columns {
			row[i] = FormatValue(r[c])
		}
		tw.AppendRow(row)
	}
	return tw.Render()
}
