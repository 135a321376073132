package stats

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Record is one row of a decoded JSON table.
type Record = map[string]any

// Number coerces a decoded JSON value to a finite float64.
// Numeric strings are parsed, booleans read as 1/0. ok is false for nil,
// empty strings, non-numeric values and anything that is not finite.
func Number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// NumberOr is Number with a fallback for values that do not coerce.
func NumberOr(v any, fallback float64) float64 {
	if f, ok := Number(v); ok {
		return f
	}
	return fallback
}
