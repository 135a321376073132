package render

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/dustin/go-humanize"
)

// Placeholder is shown for absent values.
const Placeholder = "—"

// FormatValue formats a payload value for display: integers get thousands
// separators, other numbers two decimals, nil the placeholder.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return Placeholder
	case string:
		return x
	case float64:
		return FormatNumber(x)
	case int:
		return humanize.Comma(int64(x))
	case int64:
		return humanize.Comma(x)
	case bool:
		return fmt.Sprint(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

// FormatNumber formats a number for display.
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return Placeholder
	case f == math.Trunc(f) && math.Abs(f) < 1e15:
		return humanize.Comma(int64(f))
	default:
		return humanize.FormatFloat("#,###.##", f)
	}
}

// FormatOptional formats a possibly absent number.
func FormatOptional(f *float64) string {
	if f == nil {
		return Placeholder
	}
	return FormatNumber(*f)
}

// FormatPercent formats a 0..1 ratio as a percentage with one decimal.
func FormatPercent(ratio float64) string {
	return humanize.FormatFloat("#,###.#", ratio*100) + "%"
}
