package stats

import (
	"cmp"
	"fmt"
	"slices"
)

// DefaultGroupCap bounds how many groups a grouped boxplot renders.
const DefaultGroupCap = 20

// GroupFunc extracts the grouping key and numeric value from a record.
// Returning ok=false skips the record.
type GroupFunc func(r Record) (key string, value float64, ok bool)

// BoxGroup is the five-number summary of one group.
type BoxGroup struct {
	Key    string    `json:"key"`
	Values []float64 `json:"values"` // ascending
	Summary
}

// GroupedSummary is the result of SummarizeGroups.
type GroupedSummary struct {
	Groups []BoxGroup `json:"groups"`
	Total  int        `json:"total"` // groups before truncation
}

// Truncated reports whether groups were dropped by the display cap.
func (g GroupedSummary) Truncated() bool {
	return len(g.Groups) < g.Total
}

// Notice describes the truncation to the viewer. Empty when nothing was cut.
func (g GroupedSummary) Notice() string {
	if !g.Truncated() {
		return ""
	}
	return fmt.Sprintf("showing top %d of %d groups by median", len(g.Groups), g.Total)
}

// SummarizeGroups groups records by key, computes the five-number summary of
// each group and orders groups by descending median. Groups with equal
// medians keep the order in which their key first appeared. At most limit
// groups are returned; limit <= 0 disables the cap.
func SummarizeGroups(records []Record, group GroupFunc, limit int) GroupedSummary {
	var order []string
	values := make(map[string][]float64)

	for _, r := range records {
		key, v, ok := group(r)
		if !ok {
			continue
		}
		if _, seen := values[key]; !seen {
			order = append(order, key)
		}
		values[key] = append(values[key], v)
	}

	groups := make([]BoxGroup, 0, len(order))
	for _, key := range order {
		sorted := slices.Clone(values[key])
		slices.Sort(sorted)
		summary, err := Summarize(sorted)
		if err != nil {
			continue
		}
		groups = append(groups, BoxGroup{Key: key, Values: sorted, Summary: summary})
	}

	slices.SortStableFunc(groups, func(a, b BoxGroup) int {
		return cmp.Compare(b.Median, a.Median)
	})

	result := GroupedSummary{Total: len(groups), Groups: groups}
	if limit > 0 && len(groups) > limit {
		result.Groups = groups[:limit]
	}
	return result
}

// FieldGroup builds a GroupFunc that keys records with keyFn and reads the
// numeric value from valueField. Values that do not coerce count as 0.
func FieldGroup(keyFn func(Record) string, valueField string) GroupFunc {
	return func(r Record) (string, float64, bool) {
		return keyFn(r), NumberOr(r[valueField], 0), true
	}
}

// ConstantKey groups every record under the same key.
func ConstantKey(key string) func(Record) string {
	return func(Record) string { return key }
}
