package stats

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
)

// Slice is one segment of a cluster distribution.
type Slice struct {
	Cluster    string  `json:"cluster"`
	Label      string  `json:"label"`
	Value      float64 `json:"value"`
	Percentage float64 `json:"percentage"`
}

// ClusterDistribution joins per-cluster counts with their human labels. The
// total is the sum of counts, so percentages always add up to 100 when any
// count is non-zero. Slices are ordered by cluster id, numerically when ids
// are integers.
func ClusterDistribution(counts map[string]float64, labels map[string]string) []Slice {
	ids := make([]string, 0, len(counts))
	var total float64
	for id, c := range counts {
		ids = append(ids, id)
		total += c
	}
	slices.SortFunc(ids, CompareClusterIDs)

	out := make([]Slice, 0, len(ids))
	for _, id := range ids {
		s := Slice{
			Cluster: id,
			Label:   clusterLabel(id, labels[id]),
			Value:   counts[id],
		}
		if total > 0 {
			s.Percentage = counts[id] / total * 100
		}
		out = append(out, s)
	}
	return out
}

func clusterLabel(id, label string) string {
	if label == "" {
		return fmt.Sprintf("Cluster %s", id)
	}
	return fmt.Sprintf("Cluster %s: %s", id, label)
}

// CompareClusterIDs orders cluster ids numerically when both are integers,
// integers before other ids, and lexically otherwise.
func CompareClusterIDs(a, b string) int {
	ai, aErr := strconv.Atoi(a)
	bi, bErr := strconv.Atoi(b)
	switch {
	case aErr == nil && bErr == nil:
		return cmp.Compare(ai, bi)
	case aErr == nil:
		return -1
	case bErr == nil:
		return 1
	default:
		return cmp.Compare(a, b)
	}
}
