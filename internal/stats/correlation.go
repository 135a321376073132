package stats

// Matrix is a correlation matrix keyed by variable name. A nil cell means the
// upstream pipeline produced no numeric value for that pair.
type Matrix map[string]map[string]*float64

// Correlation is a correlation matrix with its ordered variable set and
// display names.
type Correlation struct {
	Variables []string          `json:"variables"`
	Names     map[string]string `json:"variable_names"`
	Matrix    Matrix            `json:"matrix"`
}

// Cell returns the value for (row, col). Missing rows or cells yield nil.
func (m Matrix) Cell(row, col string) *float64 {
	r, ok := m[row]
	if !ok {
		return nil
	}
	return r[col]
}

// PruneCorrelation restricts c to the variables not in exclude. Every cell of
// the result is looked up independently, so an asymmetric or sparse input
// never causes an error; absent cells come back nil.
func PruneCorrelation(c Correlation, exclude map[string]bool) Correlation {
	kept := make([]string, 0, len(c.Variables))
	for _, v := range c.Variables {
		if !exclude[v] {
			kept = append(kept, v)
		}
	}

	matrix := make(Matrix, len(kept))
	for _, row := range kept {
		cells := make(map[string]*float64, len(kept))
		for _, col := range kept {
			if cell := c.Matrix.Cell(row, col); cell != nil {
				v := *cell
				cells[col] = &v
			} else {
				cells[col] = nil
			}
		}
		matrix[row] = cells
	}

	names := make(map[string]string, len(c.Names))
	for k, v := range c.Names {
		if !exclude[k] {
			names[k] = v
		}
	}

	return Correlation{Variables: kept, Names: names, Matrix: matrix}
}

// ExcludeSet builds a lookup set from variable names.
func ExcludeSet(vars ...string) map[string]bool {
	set := make(map[string]bool, len(vars))
	for _, v := range vars {
		set[v] = true
	}
	return set
}
