package stats

// TruthEntry is the known value of one parameter dimension. Any of Mean, SD
// and Var may be absent.
type TruthEntry struct {
	ParameterName string   `yaml:"parameter" json:"parameter"`
	Dimension     int      `yaml:"dimension" json:"dimension"`
	Mean          *float64 `yaml:"mean,omitempty" json:"mean,omitempty"`
	SD            *float64 `yaml:"sd,omitempty" json:"sd,omitempty"`
	Var           *float64 `yaml:"var,omitempty" json:"var,omitempty"`
}

type truthKey struct {
	name string
	dim  int
}

// GroundTruth indexes truth entries by (ParameterName, Dimension)
type GroundTruth struct {
	entries map[truthKey]TruthEntry
}

// NewGroundTruth builds a lookup; a later entry for the same key wins
func NewGroundTruth(entries []TruthEntry) *GroundTruth {
	g := &GroundTruth{entries: make(map[truthKey]TruthEntry, len(entries))}
	for _, e := range entries {
		if e.Dimension == 0 {
			e.Dimension = 1
		}
		g.entries[truthKey{e.ParameterName, e.Dimension}] = e
	}
	return g
}

// Len returns the number of entries
func (g *GroundTruth) Len() int {
	if g == nil {
		return 0
	}
	return len(g.entries)
}

// Lookup returns the truth value of field (Mean, SD or Var) for a parameter
// dimension, and false when the entry or field is absent.
func (g *GroundTruth) Lookup(name string, dim int, field string) (float64, bool) {
	if g == nil {
		return 0, false
	}
	e, ok := g.entries[truthKey{name, dim}]
	if !ok {
		return 0, false
	}
	var v *float64
	switch field {
	case ColMean:
		v = e.Mean
	case ColSD:
		v = e.SD
	case ColVar:
		v = e.Var
	}
	if v == nil {
		return 0, false
	}
	return *v, true
}

// Float is a helper for building truth entries in code
func Float(v float64) *float64 { return &v }
