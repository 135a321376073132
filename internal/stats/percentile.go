// Package stats provides the numeric transforms that turn pipeline tables into
// chart-ready series: percentile estimation, grouped five-number summaries,
// correlation-matrix pruning, stable top-N ranking and cluster aggregation.
//
// All functions are pure and deterministic. None of them mutate their input.
package stats

import (
	"errors"
	"math"
	"slices"
)

// ErrEmpty is returned when a summary is requested for no values.
var ErrEmpty = errors.New("stats: no values")

// Percentile estimates the p-th percentile (0..100) of sorted by linear
// interpolation between the two nearest order statistics.
//
// sorted must be in ascending order. An empty slice yields NaN; callers are
// expected to guard with an empty-state check before calling.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}

	index := (p / 100) * float64(n-1)
	lower := int(math.Floor(index))
	upper := int(math.Ceil(index))
	lower = clampIndex(lower, n)
	upper = clampIndex(upper, n)

	weight := index - math.Floor(index)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// Summary is a five-number summary used for boxplots.
type Summary struct {
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
}

// Summarize computes the five-number summary of values. The input does not
// need to be sorted and is left untouched.
func Summarize(values []float64) (Summary, error) {
	if len(values) == 0 {
		return Summary{}, ErrEmpty
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	return Summary{
		Min:    sorted[0],
		Q1:     Percentile(sorted, 25),
		Median: Percentile(sorted, 50),
		Q3:     Percentile(sorted, 75),
		Max:    sorted[len(sorted)-1],
	}, nil
}
