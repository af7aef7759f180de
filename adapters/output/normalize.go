package output

import (
	"fmt"
	"math"
	"regexp"
	"strconv"

	"mcmcstats/domain/core"
	"mcmcstats/domain/draws"
)

const (
	colIteration     = "Iteration"
	colParameterName = "ParameterName"
	colDimension     = "Dimension"
)

// IsTidy reports whether the raw data is in tidy long format
func IsTidy(d *RawData) bool {
	return d.Has(colParameterName)
}

// ToFrame normalises tidy or legacy wide data to tidy draws
func ToFrame(d *RawData) (*draws.Frame, error) {
	if IsTidy(d) {
		return TidyFrame(d)
	}
	return WideFrame(d)
}

// TidyFrame converts long-format data: one row per (iteration, chain,
// parameter, dimension). Unknown columns are ignored.
func TidyFrame(d *RawData) (*draws.Frame, error) {
	for _, c := range []string{colIteration, colParameterName, colDimension} {
		if !d.Has(c) {
			return nil, core.NewMissingColumnError(c)
		}
	}

	var schema draws.Schema
	fieldCols := make(map[draws.Field]int)
	for i, h := range d.Headers {
		if f, ok := draws.ParseField(h); ok {
			schema = schema.With(f)
			fieldCols[f] = i
		}
	}
	iterCol, _ := d.Col(colIteration)
	nameCol, _ := d.Col(colParameterName)
	dimCol, _ := d.Col(colDimension)

	rows := make([]draws.Row, len(d.Rows))
	for i, raw := range d.Rows {
		line := i + 2
		var r draws.Row
		var err error
		if r.Iteration, err = parseInt(raw[iterCol]); err != nil {
			return nil, fmt.Errorf("row %d: Iteration: %w", line, err)
		}
		r.ParameterName = raw[nameCol]
		if r.Dimension, err = parseInt(raw[dimCol]); err != nil {
			return nil, fmt.Errorf("row %d: Dimension: %w", line, err)
		}
		for f, c := range fieldCols {
			if err := setField(&r, f, raw[c]); err != nil {
				return nil, fmt.Errorf("row %d: %s: %w", line, f, err)
			}
		}
		rows[i] = r
	}
	return draws.NewFrame(schema, rows), nil
}

func setField(r *draws.Row, f draws.Field, s string) error {
	var err error
	switch f {
	case draws.FieldChain:
		r.Chain, err = parseInt(s)
	case draws.FieldTarget:
		r.Target, err = parseInt(s)
	case draws.FieldExternalTarget:
		r.ExternalTarget = s
	case draws.FieldTargetParameters:
		r.TargetParameters = s
	case draws.FieldExternalTargetParameters:
		r.ExternalTargetParameters = s
	case draws.FieldValue:
		r.Value, err = parseFloat(s)
	case draws.FieldLogWeight:
		r.LogWeight, err = parseFloat(s)
	case draws.FieldRep:
		r.Rep, err = parseInt(s)
	case draws.FieldExternalIndex:
		r.ExternalIndex, err = parseInt(s)
	case draws.FieldTime:
		r.Time, err = parseFloat(s)
	}
	return err
}

// Legacy wide format: one row per iteration, one column per variable, plus
// a chain-label column.
const (
	colWideChain = "Chain"
	colWideTime  = "Time"
)

var (
	bracketName = regexp.MustCompile(`^(.+)\[(\d+)\]$`)
	suffixName  = regexp.MustCompile(`^(.+)_(\d+)$`)
)

// SplitVariable maps a wide column name to (parameter, dimension):
// "name" -> (name, 1), "name_k" and "name[k]" -> (name, k)
func SplitVariable(column string) (string, int) {
	for _, re := range []*regexp.Regexp{bracketName, suffixName} {
		if m := re.FindStringSubmatch(column); m != nil {
			if k, err := strconv.Atoi(m[2]); err == nil {
				return m[1], k
			}
		}
	}
	return column, 1
}

// WideFrame converts legacy wide data. Chain labels that are not integers
// are numbered 1..k in order of appearance. Without an Iteration column,
// iterations count from 1 within each chain.
func WideFrame(d *RawData) (*draws.Frame, error) {
	chainCol, ok := d.Col(colWideChain)
	if !ok {
		return nil, core.NewMissingColumnError(colWideChain)
	}
	iterCol, hasIter := d.Col(colIteration)
	timeCol, hasTime := d.Col(colWideTime)

	type variable struct {
		col  int
		name string
		dim  int
	}
	var vars []variable
	for i, h := range d.Headers {
		if i == chainCol || (hasIter && i == iterCol) || (hasTime && i == timeCol) {
			continue
		}
		name, dim := SplitVariable(h)
		vars = append(vars, variable{col: i, name: name, dim: dim})
	}
	if len(vars) == 0 {
		return nil, core.NewMissingColumnError(draws.FieldValue.String())
	}

	schema := draws.NewSchema(draws.FieldChain, draws.FieldValue)
	if hasTime {
		schema = schema.With(draws.FieldTime)
	}

	labels := make(map[string]int)
	counters := make(map[int]int)
	rows := make([]draws.Row, 0, len(d.Rows)*len(vars))
	for i, raw := range d.Rows {
		line := i + 2
		chain, err := chainLabel(labels, raw[chainCol])
		if err != nil {
			return nil, fmt.Errorf("row %d: Chain: %w", line, err)
		}
		counters[chain]++
		iteration := counters[chain]
		if hasIter {
			if iteration, err = parseInt(raw[iterCol]); err != nil {
				return nil, fmt.Errorf("row %d: Iteration: %w", line, err)
			}
		}
		var elapsed float64
		if hasTime {
			if elapsed, err = parseFloat(raw[timeCol]); err != nil {
				return nil, fmt.Errorf("row %d: Time: %w", line, err)
			}
		}
		for _, v := range vars {
			value, err := parseFloat(raw[v.col])
			if err != nil {
				return nil, fmt.Errorf("row %d: %s: %w", line, d.Headers[v.col], err)
			}
			rows = append(rows, draws.Row{
				Iteration:     iteration,
				Chain:         chain,
				ParameterName: v.name,
				Dimension:     v.dim,
				Value:         value,
				Time:          elapsed,
			})
		}
	}
	return draws.NewFrame(schema, rows), nil
}

func chainLabel(labels map[string]int, s string) (int, error) {
	if s == "" {
		return 0, fmt.Errorf("empty chain label")
	}
	if n, err := parseInt(s); err == nil {
		return n, nil
	}
	if n, ok := labels[s]; ok {
		return n, nil
	}
	n := len(labels) + 1
	labels[s] = n
	return n, nil
}

func parseFloat(s string) (float64, error) {
	if isMissing(s) {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

// parseInt accepts integral floats ("3.0") as written by some spreadsheet tools
func parseInt(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("invalid integer %q", s)
	}
	return int(f), nil
}
