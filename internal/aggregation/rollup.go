package aggregation

import (
	"fmt"
	"math"
	"strings"

	"mcmcstats/domain/stats"
	"mcmcstats/internal/moments"
)

// Suffixes of the rollup columns: every numeric column X of the per-rep
// table becomes X_mean and X_sd.
const (
	SuffixMean = "_mean"
	SuffixSD   = "_sd"
	SuffixBias = "_Bias"
	SuffixRMSE = "_RMSE"
)

// TruthFields are the statistics compared against ground truth, in column order
var TruthFields = []string{stats.ColMean, stats.ColSD, stats.ColVar}

type group struct {
	key  []stats.Cell
	rows []int
}

// groupRows partitions rows by the key columns, groups in first-seen order
func groupRows(t *stats.Table, keys []int) []group {
	var groups []group
	index := make(map[string]int)
	cols := t.Columns()
	var b strings.Builder
	for r := 0; r < t.NumRows(); r++ {
		b.Reset()
		for _, k := range keys {
			b.WriteString(t.Cell(r, k).Format(cols[k].Kind))
			b.WriteByte(0)
		}
		id := b.String()
		g, ok := index[id]
		if !ok {
			key := make([]stats.Cell, len(keys))
			for i, k := range keys {
				key[i] = t.Cell(r, k)
			}
			g = len(groups)
			index[id] = g
			groups = append(groups, group{key: key})
		}
		groups[g].rows = append(groups[g].rows, r)
	}
	return groups
}

// Summarise groups t by the key columns and replaces every other numeric
// column X (except those in exclude) with X_mean and X_sd across the rows of
// each group. The sd is the sample sd, NaN for a single row. With truth,
// Bias and RMSE of Mean, SD and Var are appended.
func Summarise(t *stats.Table, keys []string, exclude []string, truth *stats.GroundTruth) (*stats.Table, error) {
	skip := make(map[string]bool, len(keys)+len(exclude))
	var keyIdx []int
	var outCols []stats.Column
	for _, name := range keys {
		col, i, ok := t.Column(name)
		if !ok {
			return nil, fmt.Errorf("rollup key column %q missing", name)
		}
		keyIdx = append(keyIdx, i)
		outCols = append(outCols, col)
		skip[name] = true
	}
	for _, name := range exclude {
		skip[name] = true
	}

	var valueIdx []int
	for i, col := range t.Columns() {
		if skip[col.Name] || col.Kind != stats.KindNumber {
			continue
		}
		valueIdx = append(valueIdx, i)
		outCols = append(outCols, stats.NumberColumn(col.Name+SuffixMean), stats.NumberColumn(col.Name+SuffixSD))
	}

	if truth != nil {
		for _, f := range TruthFields {
			if !t.Has(f) {
				return nil, fmt.Errorf("rollup: truth comparison needs column %q", f)
			}
			outCols = append(outCols, stats.NumberColumn(f+SuffixBias), stats.NumberColumn(f+SuffixRMSE))
		}
	}

	groups := groupRows(t, keyIdx)
	rows := make([][]stats.Cell, 0, len(groups))
	for _, g := range groups {
		row := append([]stats.Cell(nil), g.key...)
		for _, c := range valueIdx {
			xs := columnValues(t, g.rows, c)
			mean, sd := meanSD(xs)
			row = append(row, stats.Num(mean), stats.Num(sd))
		}
		if truth != nil {
			name, dim := truthKey(t, g.rows[0])
			for _, f := range TruthFields {
				_, c, _ := t.Column(f)
				want, ok := truth.Lookup(name, dim, f)
				if !ok {
					row = append(row, stats.Missing(stats.KindNumber), stats.Missing(stats.KindNumber))
					continue
				}
				bias, rmse := BiasRMSE(columnValues(t, g.rows, c), want)
				row = append(row, stats.Num(bias), stats.Num(rmse))
			}
		}
		rows = append(rows, row)
	}
	return stats.NewTable(outCols, rows)
}

func columnValues(t *stats.Table, rows []int, c int) []float64 {
	xs := make([]float64, len(rows))
	for i, r := range rows {
		xs[i] = t.Cell(r, c).Num
	}
	return xs
}

func meanSD(xs []float64) (float64, float64) {
	mean, err := moments.Mean(xs)
	if err != nil {
		return math.NaN(), math.NaN()
	}
	sd, err := moments.SampleSD(xs)
	if err != nil {
		sd = math.NaN()
	}
	return mean, sd
}

func truthKey(t *stats.Table, r int) (string, int) {
	name, _ := t.Text(r, stats.ColParameterName)
	dim, _ := t.Float(r, stats.ColDimension)
	return name, int(dim)
}

// BiasRMSE compares estimates with a true value:
// Bias = mean(e - truth), RMSE = sqrt(mean((e - truth)^2))
func BiasRMSE(estimates []float64, truth float64) (float64, float64) {
	if len(estimates) == 0 {
		return math.NaN(), math.NaN()
	}
	var sum, sumSq float64
	for _, e := range estimates {
		d := e - truth
		sum += d
		sumSq += d * d
	}
	n := float64(len(estimates))
	return sum / n, math.Sqrt(sumSq / n)
}

// keyColumns open the record key of a statistics table; anything before the
// first of them was prepended by an outer level
var keyColumns = map[string]bool{
	stats.ColRep:           true,
	stats.ColChain:         true,
	stats.ColExternalIndex: true,
	stats.ColParameterName: true,
	stats.ColDimension:     true,
}

func leadingNames(t *stats.Table) []string {
	var names []string
	for _, c := range t.Columns() {
		if keyColumns[c.Name] {
			break
		}
		names = append(names, c.Name)
	}
	return names
}

// Prepend tags every row of each table with constant leading columns and
// stacks the results. Tables with differing columns are unioned; every
// prepended column of every table, including those an inner level added,
// stays ahead of the record key.
func Prepend(tables []*stats.Table, columns [][]stats.Column, values [][]stats.Cell) (*stats.Table, error) {
	tagged := make([]*stats.Table, len(tables))
	var lead []string
	for i, t := range tables {
		var err error
		if tagged[i], err = t.Prepend(columns[i], values[i]); err != nil {
			return nil, err
		}
		lead = append(lead, leadingNames(tagged[i])...)
	}
	merged, err := stats.Concat(tagged...)
	if err != nil {
		return nil, err
	}
	return merged.MoveFirst(lead...), nil
}
