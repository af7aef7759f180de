package output

import "strings"

// RawData is one output file as read from disk: a header row and string cells
type RawData struct {
	Headers []string   // Column headers
	Rows    [][]string // Data rows, padded to len(Headers)
	index   map[string]int
}

func newRawData(headers []string, rows [][]string) *RawData {
	d := &RawData{Headers: headers, Rows: rows, index: make(map[string]int, len(headers))}
	for i, h := range headers {
		if _, dup := d.index[h]; !dup {
			d.index[h] = i
		}
	}
	return d
}

// Col returns the position of a header
func (d *RawData) Col(name string) (int, bool) {
	i, ok := d.index[name]
	return i, ok
}

// Has reports whether a header exists
func (d *RawData) Has(name string) bool {
	_, ok := d.index[name]
	return ok
}

func isMissing(s string) bool {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "NA", "NAN", "NULL":
		return true
	}
	return false
}
