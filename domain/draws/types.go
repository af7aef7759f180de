// Package draws models tidy sampler output: one row per (iteration, chain,
// parameter, dimension) observation, with an explicit schema recording which
// optional columns the producing sampler emitted.
package draws

import (
	"sort"
	"strings"
)

// Field identifies an optional column of tidy sampler output.
// Iteration, ParameterName and Dimension are always present.
type Field uint16

const (
	FieldChain Field = 1 << iota
	FieldTarget
	FieldExternalTarget
	FieldTargetParameters
	FieldExternalTargetParameters
	FieldValue
	FieldLogWeight
	FieldRep
	FieldExternalIndex
	FieldTime
)

var fieldNames = []struct {
	field Field
	name  string
}{
	{FieldChain, "Chain"},
	{FieldTarget, "Target"},
	{FieldExternalTarget, "ExternalTarget"},
	{FieldTargetParameters, "TargetParameters"},
	{FieldExternalTargetParameters, "ExternalTargetParameters"},
	{FieldValue, "Value"},
	{FieldLogWeight, "LogWeight"},
	{FieldRep, "Rep"},
	{FieldExternalIndex, "ExternalIndex"},
	{FieldTime, "Time"},
}

// String returns the column name of the field
func (f Field) String() string {
	for _, fn := range fieldNames {
		if fn.field == f {
			return fn.name
		}
	}
	return "Unknown"
}

// ParseField maps a column name to its Field
func ParseField(name string) (Field, bool) {
	for _, fn := range fieldNames {
		if fn.name == name {
			return fn.field, true
		}
	}
	return 0, false
}

// Schema is the set of optional columns present in a Frame.
type Schema uint16

// NewSchema builds a schema from fields
func NewSchema(fields ...Field) Schema {
	var s Schema
	for _, f := range fields {
		s |= Schema(f)
	}
	return s
}

// Standard is the schema of plain single-target MCMC output.
var Standard = NewSchema(FieldChain, FieldValue, FieldTime)

// Has reports whether the column is present
func (s Schema) Has(f Field) bool {
	return s&Schema(f) != 0
}

// With returns a copy of the schema including f
func (s Schema) With(f Field) Schema {
	return s | Schema(f)
}

// Without returns a copy of the schema excluding f
func (s Schema) Without(f Field) Schema {
	return s &^ Schema(f)
}

// Columns lists every column name, required ones first
func (s Schema) Columns() []string {
	cols := []string{"Iteration"}
	for _, fn := range fieldNames {
		if fn.field == FieldValue || fn.field == FieldLogWeight || fn.field == FieldTime {
			continue
		}
		if s.Has(fn.field) {
			cols = append(cols, fn.name)
		}
	}
	cols = append(cols, "ParameterName", "Dimension")
	for _, f := range []Field{FieldValue, FieldLogWeight, FieldTime} {
		if s.Has(f) {
			cols = append(cols, f.String())
		}
	}
	return cols
}

func (s Schema) String() string {
	return strings.Join(s.Columns(), ",")
}

// Row is one sampled value. Fields whose column is absent from the owning
// Frame's schema hold their zero value and must not be interpreted.
type Row struct {
	Iteration                int
	Chain                    int
	Target                   int
	ExternalTarget           string
	TargetParameters         string
	ExternalTargetParameters string
	ParameterName            string
	Dimension                int
	Value                    float64
	LogWeight                float64
	Rep                      int
	ExternalIndex            int
	Time                     float64
}

// Frame is an immutable table of rows sharing one schema.
type Frame struct {
	schema Schema
	rows   []Row
}

// NewFrame copies rows into a new frame
func NewFrame(schema Schema, rows []Row) *Frame {
	owned := make([]Row, len(rows))
	copy(owned, rows)
	return &Frame{schema: schema, rows: owned}
}

// Schema returns the optional columns present
func (f *Frame) Schema() Schema { return f.schema }

// Len returns the number of rows
func (f *Frame) Len() int { return len(f.rows) }

// Row returns the i-th row by value
func (f *Frame) Row(i int) Row { return f.rows[i] }

// Rows returns a copy of all rows
func (f *Frame) Rows() []Row {
	out := make([]Row, len(f.rows))
	copy(out, f.rows)
	return out
}

// Filter returns a new frame holding the rows for which keep returns true
func (f *Frame) Filter(keep func(Row) bool) *Frame {
	out := make([]Row, 0, len(f.rows))
	for _, r := range f.rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	return &Frame{schema: f.schema, rows: out}
}

// Values returns the Value column in row order
func (f *Frame) Values() []float64 {
	out := make([]float64, len(f.rows))
	for i, r := range f.rows {
		out[i] = r.Value
	}
	return out
}

// LogWeights returns the LogWeight column in row order
func (f *Frame) LogWeights() []float64 {
	out := make([]float64, len(f.rows))
	for i, r := range f.rows {
		out[i] = r.LogWeight
	}
	return out
}

// MaxIteration returns the largest Iteration, or 0 for an empty frame
func (f *Frame) MaxIteration() int {
	max := 0
	for i, r := range f.rows {
		if i == 0 || r.Iteration > max {
			max = r.Iteration
		}
	}
	return max
}

// Targets returns the distinct Target values in ascending order
func (f *Frame) Targets() []int {
	seen := make(map[int]bool)
	var out []int
	for _, r := range f.rows {
		if !seen[r.Target] {
			seen[r.Target] = true
			out = append(out, r.Target)
		}
	}
	sort.Ints(out)
	return out
}

// Concat stacks frames; the result schema is the union of the inputs
func Concat(frames ...*Frame) *Frame {
	var schema Schema
	total := 0
	for _, f := range frames {
		schema |= f.schema
		total += len(f.rows)
	}
	rows := make([]Row, 0, total)
	for _, f := range frames {
		rows = append(rows, f.rows...)
	}
	return &Frame{schema: schema, rows: rows}
}

// Selection narrows a frame to one rep/chain/external-index. Each filter is
// applied only when the corresponding column exists.
type Selection struct {
	Chain         int
	Rep           int
	ExternalIndex int
}

// DefaultSelection selects the first chain of the first rep
func DefaultSelection() Selection {
	return Selection{Chain: 1, Rep: 1, ExternalIndex: 1}
}

// Select applies the selection
func (f *Frame) Select(sel Selection) *Frame {
	s := f.schema
	return f.Filter(func(r Row) bool {
		if s.Has(FieldRep) && r.Rep != sel.Rep {
			return false
		}
		if s.Has(FieldChain) && r.Chain != sel.Chain {
			return false
		}
		if s.Has(FieldExternalIndex) && r.ExternalIndex != sel.ExternalIndex {
			return false
		}
		return true
	})
}
