package stats

// ============================================================================
// PER-RUN STATISTICS
// ============================================================================

// RecordKey identifies one marginal: a (chain, parameter, dimension) triple,
// optionally scoped to an external index.
type RecordKey struct {
	ExternalIndex int    `json:"external_index,omitempty"`
	Chain         int    `json:"chain"`
	ParameterName string `json:"parameter_name"`
	Dimension     int    `json:"dimension"`
}

// Marginal holds the univariate summary of one parameter dimension.
// Var and SD are sample (n-1) quantities.
type Marginal struct {
	Key  RecordKey `json:"key"`
	Mean float64   `json:"mean"`
	SD   float64   `json:"sd"`
	Var  float64   `json:"var"`
	ESS  float64   `json:"ess"`
}

// RunRecord is one row of run statistics. MultiESS, Time and Iterations are
// shared by every record of the same run.
type RunRecord struct {
	Key                 RecordKey `json:"key"`
	Mean                float64   `json:"mean"`
	SD                  float64   `json:"sd"`
	Var                 float64   `json:"var"`
	ESS                 float64   `json:"ess"`
	MultiESS            float64   `json:"multi_ess"`
	Time                float64   `json:"time"`
	Iterations          int       `json:"iterations"`
	IterationsPerSecond float64   `json:"iterations_per_second"`
	ESSPerSecond        float64   `json:"ess_per_second"`
	MultiESSPerSecond   float64   `json:"multi_ess_per_second"`
	TimePerIteration    float64   `json:"time_per_iteration"`
	TimePerESS          float64   `json:"time_per_ess"`
	TimePerMultiESS     float64   `json:"time_per_multi_ess"`
}

// Column names shared by run statistics and every rollup built on them
const (
	ColExternalIndex = "ExternalIndex"
	ColChain         = "Chain"
	ColParameterName = "ParameterName"
	ColDimension     = "Dimension"
	ColRep           = "Rep"
	ColMethod        = "Method"

	ColMean = "Mean"
	ColSD   = "SD"
	ColVar  = "Var"
)

// RunValueColumns lists the numeric statistics of a RunRecord in table order
var RunValueColumns = []string{
	ColMean, ColSD, ColVar, "ESS", "MultiESS", "Time", "Iterations",
	"IterationsPerSecond", "ESSPerSecond", "MultiESSPerSecond",
	"TimePerIteration", "TimePerESS", "TimePerMultiESS",
}

func (r RunRecord) values() []float64 {
	return []float64{
		r.Mean, r.SD, r.Var, r.ESS, r.MultiESS, r.Time, float64(r.Iterations),
		r.IterationsPerSecond, r.ESSPerSecond, r.MultiESSPerSecond,
		r.TimePerIteration, r.TimePerESS, r.TimePerMultiESS,
	}
}

// RunStatistics is the statistics table of a single run
type RunStatistics struct {
	HasExternalIndex bool        `json:"has_external_index"`
	Records          []RunRecord `json:"records"`
}

// KeyColumns returns the identifying columns of the run statistics table
func (s *RunStatistics) KeyColumns() []Column {
	var cols []Column
	if s.HasExternalIndex {
		cols = append(cols, NumberColumn(ColExternalIndex))
	}
	return append(cols,
		NumberColumn(ColChain),
		StringColumn(ColParameterName),
		NumberColumn(ColDimension),
	)
}

// Table converts the records to a Table
func (s *RunStatistics) Table() *Table {
	cols := s.KeyColumns()
	for _, name := range RunValueColumns {
		cols = append(cols, NumberColumn(name))
	}

	rows := make([][]Cell, len(s.Records))
	for i, r := range s.Records {
		row := make([]Cell, 0, len(cols))
		if s.HasExternalIndex {
			row = append(row, Int(r.Key.ExternalIndex))
		}
		row = append(row, Int(r.Key.Chain), Str(r.Key.ParameterName), Int(r.Key.Dimension))
		for _, v := range r.values() {
			row = append(row, Num(v))
		}
		rows[i] = row
	}

	t, err := NewTable(cols, rows)
	if err != nil {
		// Column set is fixed above; a failure here is a programming error.
		panic(err)
	}
	return t
}
