package diagnostics

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"mcmcstats/domain/core"
	"mcmcstats/domain/draws"
	"mcmcstats/internal/ess"
)

// ColumnName is the pivoted column label of a parameter dimension
func ColumnName(parameter string, dimension int) string {
	return fmt.Sprintf("%s_%d", parameter, dimension)
}

// DrawMatrix is the wide form of one run: one row per iteration, one column
// per parameter dimension.
type DrawMatrix struct {
	Iterations []int
	Columns    []string
	Data       *mat.Dense
}

// Pivot reshapes long-format draws into a DrawMatrix. Identical repeated rows
// collapse; two different values for the same (iteration, column) are a
// DuplicateIteration error.
func Pivot(f *draws.Frame) (*DrawMatrix, error) {
	cells := make(map[string]map[int]float64)
	var columns []string
	iterSet := make(map[int]bool)

	for i := 0; i < f.Len(); i++ {
		r := f.Row(i)
		name := ColumnName(r.ParameterName, r.Dimension)
		col, ok := cells[name]
		if !ok {
			col = make(map[int]float64)
			cells[name] = col
			columns = append(columns, name)
		}
		if prev, seen := col[r.Iteration]; seen {
			if prev == r.Value || (math.IsNaN(prev) && math.IsNaN(r.Value)) {
				continue
			}
			return nil, core.NewDuplicateIterationError(r.Iteration, name)
		}
		col[r.Iteration] = r.Value
		iterSet[r.Iteration] = true
	}

	iterations := make([]int, 0, len(iterSet))
	for it := range iterSet {
		iterations = append(iterations, it)
	}
	sort.Ints(iterations)

	if len(iterations) == 0 || len(columns) == 0 {
		return &DrawMatrix{}, nil
	}

	data := mat.NewDense(len(iterations), len(columns), nil)
	for j, name := range columns {
		col := cells[name]
		for i, it := range iterations {
			v, ok := col[it]
			if !ok {
				return nil, fmt.Errorf("column %s has no draw at iteration %d", name, it)
			}
			data.Set(i, j, v)
		}
	}
	return &DrawMatrix{Iterations: iterations, Columns: columns, Data: data}, nil
}

// MultivariateESS is the batch-means multivariate ESS of the selected draws
// taken jointly over every parameter dimension.
func MultivariateESS(f *draws.Frame, sel draws.Selection) (float64, error) {
	sub, err := requireValues(f, sel)
	if err != nil {
		return math.NaN(), err
	}
	m, err := Pivot(sub)
	if err != nil {
		return math.NaN(), err
	}
	if m.Data == nil {
		return math.NaN(), nil
	}
	return ess.Multivariate(m.Data), nil
}
