package stats

import (
	"fmt"
	"math"
	"strconv"
)

// Kind is the storage type of a table column
type Kind int

const (
	KindString Kind = iota
	KindNumber
)

func (k Kind) String() string {
	if k == KindNumber {
		return "number"
	}
	return "string"
}

// Column describes one table column
type Column struct {
	Name string
	Kind Kind
}

// StringColumn and NumberColumn are shorthands for column descriptors
func StringColumn(name string) Column { return Column{Name: name, Kind: KindString} }
func NumberColumn(name string) Column { return Column{Name: name, Kind: KindNumber} }

// Cell holds one value; only the field matching the column kind is meaningful.
// A missing number is NaN, a missing string is "".
type Cell struct {
	Str string
	Num float64
}

// Str, Num and Int build cells
func Str(s string) Cell { return Cell{Str: s} }
func Num(v float64) Cell { return Cell{Num: v} }
func Int(v int) Cell { return Cell{Num: float64(v)} }

// Missing returns the NA cell for a column kind
func Missing(k Kind) Cell {
	if k == KindNumber {
		return Cell{Num: math.NaN()}
	}
	return Cell{}
}

// Format renders the cell for text output; NaN numbers render as "NA"
func (c Cell) Format(k Kind) string {
	if k == KindString {
		return c.Str
	}
	if math.IsNaN(c.Num) {
		return "NA"
	}
	return strconv.FormatFloat(c.Num, 'g', -1, 64)
}

// Table is an immutable column-typed table. It is the representation of
// every statistics table the aggregation pipeline produces.
type Table struct {
	columns []Column
	index   map[string]int
	rows    [][]Cell
}

// NewTable validates and copies columns and rows
func NewTable(columns []Column, rows [][]Cell) (*Table, error) {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if c.Name == "" {
			return nil, fmt.Errorf("column %d has no name", i)
		}
		if _, dup := index[c.Name]; dup {
			return nil, fmt.Errorf("duplicate column %q", c.Name)
		}
		index[c.Name] = i
	}
	owned := make([][]Cell, len(rows))
	for i, r := range rows {
		if len(r) != len(columns) {
			return nil, fmt.Errorf("row %d has %d cells, want %d", i, len(r), len(columns))
		}
		owned[i] = append([]Cell(nil), r...)
	}
	cols := append([]Column(nil), columns...)
	return &Table{columns: cols, index: index, rows: owned}, nil
}

// EmptyTable returns a table with columns and no rows
func EmptyTable(columns []Column) *Table {
	t, err := NewTable(columns, nil)
	if err != nil {
		panic(err)
	}
	return t
}

// Columns returns a copy of the column descriptors
func (t *Table) Columns() []Column {
	return append([]Column(nil), t.columns...)
}

// Names returns the column names in order
func (t *Table) Names() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.Name
	}
	return names
}

// NumRows returns the row count
func (t *Table) NumRows() int { return len(t.rows) }

// Has reports whether a column exists
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column looks up a column descriptor and its position
func (t *Table) Column(name string) (Column, int, bool) {
	i, ok := t.index[name]
	if !ok {
		return Column{}, -1, false
	}
	return t.columns[i], i, true
}

// Cell returns the cell at row r, column position c
func (t *Table) Cell(r, c int) Cell { return t.rows[r][c] }

// Row returns a copy of row r
func (t *Table) Row(r int) []Cell { return append([]Cell(nil), t.rows[r]...) }

// Float returns a number cell by column name
func (t *Table) Float(r int, name string) (float64, error) {
	col, i, ok := t.Column(name)
	if !ok {
		return 0, fmt.Errorf("no column %q", name)
	}
	if col.Kind != KindNumber {
		return 0, fmt.Errorf("column %q is not numeric", name)
	}
	return t.rows[r][i].Num, nil
}

// Text returns a cell formatted as text by column name
func (t *Table) Text(r int, name string) (string, error) {
	col, i, ok := t.Column(name)
	if !ok {
		return "", fmt.Errorf("no column %q", name)
	}
	return t.rows[r][i].Format(col.Kind), nil
}

// Floats returns a numeric column
func (t *Table) Floats(name string) ([]float64, error) {
	col, i, ok := t.Column(name)
	if !ok {
		return nil, fmt.Errorf("no column %q", name)
	}
	if col.Kind != KindNumber {
		return nil, fmt.Errorf("column %q is not numeric", name)
	}
	out := make([]float64, len(t.rows))
	for r, row := range t.rows {
		out[r] = row[i].Num
	}
	return out, nil
}

// Prepend returns a new table with constant-valued columns inserted first
func (t *Table) Prepend(columns []Column, values []Cell) (*Table, error) {
	if len(columns) != len(values) {
		return nil, fmt.Errorf("prepend: %d columns but %d values", len(columns), len(values))
	}
	cols := append(append([]Column(nil), columns...), t.columns...)
	rows := make([][]Cell, len(t.rows))
	for i, r := range t.rows {
		rows[i] = append(append([]Cell(nil), values...), r...)
	}
	return NewTable(cols, rows)
}

// MoveFirst returns a new table with the named columns leading in the given
// order, followed by the remaining columns in their current order. Unknown
// names are ignored.
func (t *Table) MoveFirst(names ...string) *Table {
	var order []int
	lead := make(map[int]bool, len(names))
	for _, name := range names {
		if i, ok := t.index[name]; ok && !lead[i] {
			lead[i] = true
			order = append(order, i)
		}
	}
	for i := range t.columns {
		if !lead[i] {
			order = append(order, i)
		}
	}
	cols := make([]Column, len(order))
	for j, i := range order {
		cols[j] = t.columns[i]
	}
	rows := make([][]Cell, len(t.rows))
	for r, row := range t.rows {
		out := make([]Cell, len(order))
		for j, i := range order {
			out[j] = row[i]
		}
		rows[r] = out
	}
	nt, _ := NewTable(cols, rows)
	return nt
}

// Drop returns a new table without the named columns; unknown names are ignored
func (t *Table) Drop(names ...string) *Table {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	var keep []int
	var cols []Column
	for i, c := range t.columns {
		if !drop[c.Name] {
			keep = append(keep, i)
			cols = append(cols, c)
		}
	}
	rows := make([][]Cell, len(t.rows))
	for r, row := range t.rows {
		out := make([]Cell, len(keep))
		for j, i := range keep {
			out[j] = row[i]
		}
		rows[r] = out
	}
	nt, _ := NewTable(cols, rows)
	return nt
}

// Concat stacks tables row-wise. Columns are the union in first-seen order;
// cells of columns a table lacks are filled as missing. A column appearing
// with two different kinds is an error.
func Concat(tables ...*Table) (*Table, error) {
	var cols []Column
	pos := make(map[string]int)
	for _, t := range tables {
		for _, c := range t.columns {
			if j, ok := pos[c.Name]; ok {
				if cols[j].Kind != c.Kind {
					return nil, fmt.Errorf("column %q is %s in one table and %s in another",
						c.Name, cols[j].Kind, c.Kind)
				}
				continue
			}
			pos[c.Name] = len(cols)
			cols = append(cols, c)
		}
	}

	var rows [][]Cell
	for _, t := range tables {
		for _, row := range t.rows {
			out := make([]Cell, len(cols))
			for j, c := range cols {
				if i, ok := t.index[c.Name]; ok {
					out[j] = row[i]
				} else {
					out[j] = Missing(c.Kind)
				}
			}
			rows = append(rows, out)
		}
	}
	return NewTable(cols, rows)
}
