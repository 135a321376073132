package stats

import (
	"cmp"
	"slices"
)

// TopN returns the n items with the largest key in descending order. The sort
// is stable: items with equal keys keep their input order. n <= 0 returns
// every item ranked.
func TopN[T any](items []T, key func(T) float64, n int) []T {
	ranked := slices.Clone(items)
	slices.SortStableFunc(ranked, func(a, b T) int {
		return cmp.Compare(key(b), key(a))
	})
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// TopRecords ranks records by the numeric field sortField and keeps only the
// listed fields of each survivor. Records whose sort field does not coerce
// rank as 0. With no fields given, records are carried through whole.
func TopRecords(records []Record, sortField string, n int, fields ...string) []Record {
	ranked := TopN(records, func(r Record) float64 {
		return NumberOr(r[sortField], 0)
	}, n)

	if len(fields) == 0 {
		return ranked
	}

	projected := make([]Record, 0, len(ranked))
	for _, r := range ranked {
		p := make(Record, len(fields))
		for _, f := range fields {
			if v, ok := r[f]; ok {
				p[f] = v
			}
		}
		projected = append(projected, p)
	}
	return projected
}
