package diagnostics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcmcstats/domain/core"
	"mcmcstats/domain/draws"
)

func chainFrame(schema draws.Schema, chains int, values map[string][]float64, elapsed float64) *draws.Frame {
	var rows []draws.Row
	for c := 1; c <= chains; c++ {
		for name, xs := range values {
			for i, v := range xs {
				rows = append(rows, draws.Row{
					Iteration:     i + 1,
					Chain:         c,
					ParameterName: name,
					Dimension:     1,
					Value:         v + float64(c-1)*100,
					Time:          elapsed,
				})
			}
		}
	}
	return draws.NewFrame(schema, rows)
}

func wiggle(n int, phase float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(float64(i)*1.7+phase) + 0.3*math.Cos(float64(i)*0.31)
	}
	return out
}

func TestMarginalStatistics_FiltersChain(t *testing.T) {
	f := chainFrame(draws.Standard, 2, map[string][]float64{"mu": {1, 2, 3, 4}}, 1)

	got, err := MarginalStatistics(f, draws.Selection{Chain: 2, Rep: 1, ExternalIndex: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)

	m := got[0]
	assert.Equal(t, 2, m.Key.Chain)
	assert.Equal(t, "mu", m.Key.ParameterName)
	assert.InDelta(t, 102.5, m.Mean, 1e-12)
	assert.InDelta(t, 5.0/3.0, m.Var, 1e-12, "sample variance")
	assert.InDelta(t, math.Sqrt(5.0/3.0), m.SD, 1e-12)
}

func TestMarginalStatistics_SortedKeys(t *testing.T) {
	rows := []draws.Row{
		{Iteration: 1, ParameterName: "b", Dimension: 2, Value: 1},
		{Iteration: 1, ParameterName: "b", Dimension: 1, Value: 1},
		{Iteration: 1, ParameterName: "a", Dimension: 1, Value: 1},
	}
	f := draws.NewFrame(draws.NewSchema(draws.FieldValue), rows)

	got, err := MarginalStatistics(f, draws.DefaultSelection())
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].Key.ParameterName)
	assert.Equal(t, 1, got[1].Key.Dimension)
	assert.Equal(t, 2, got[2].Key.Dimension)
	assert.Equal(t, 1, got[0].Key.Chain, "absent Chain column falls back to the selection")
	assert.True(t, math.IsNaN(got[0].Var), "single draw has no sample variance")
}

func TestMarginalStatistics_ExternalIndex(t *testing.T) {
	schema := draws.NewSchema(draws.FieldValue, draws.FieldExternalIndex)
	rows := []draws.Row{
		{Iteration: 1, ParameterName: "x", Dimension: 1, Value: 1, ExternalIndex: 1},
		{Iteration: 2, ParameterName: "x", Dimension: 1, Value: 3, ExternalIndex: 1},
		{Iteration: 1, ParameterName: "x", Dimension: 1, Value: 10, ExternalIndex: 2},
	}
	got, err := MarginalStatistics(draws.NewFrame(schema, rows), draws.Selection{Chain: 1, Rep: 1, ExternalIndex: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Key.ExternalIndex)
	assert.Equal(t, 2.0, got[0].Mean)
}

func TestMarginalStatistics_MissingValue(t *testing.T) {
	f := draws.NewFrame(draws.NewSchema(draws.FieldChain), []draws.Row{{Iteration: 1, ParameterName: "x"}})
	_, err := MarginalStatistics(f, draws.DefaultSelection())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrMissingColumn)
}

func TestPivot(t *testing.T) {
	f := chainFrame(draws.Standard, 1, map[string][]float64{"a": {1, 2, 3}, "b": {4, 5, 6}}, 1)
	m, err := Pivot(f)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 2, 3}, m.Iterations)
	r, c := m.Data.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 2, c)
	assert.ElementsMatch(t, []string{"a_1", "b_1"}, m.Columns)
}

func TestPivot_Duplicates(t *testing.T) {
	schema := draws.NewSchema(draws.FieldValue)
	same := []draws.Row{
		{Iteration: 1, ParameterName: "x", Dimension: 1, Value: 1},
		{Iteration: 1, ParameterName: "x", Dimension: 1, Value: 1},
		{Iteration: 2, ParameterName: "x", Dimension: 1, Value: 2},
	}
	m, err := Pivot(draws.NewFrame(schema, same))
	require.NoError(t, err)
	assert.Len(t, m.Iterations, 2, "identical rows collapse")

	conflict := append(same, draws.Row{Iteration: 2, ParameterName: "x", Dimension: 1, Value: 5})
	_, err = Pivot(draws.NewFrame(schema, conflict))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDuplicateIteration)
}

func TestMultivariateESS(t *testing.T) {
	f := chainFrame(draws.Standard, 1, map[string][]float64{"a": wiggle(400, 0), "b": wiggle(400, 1)}, 1)
	v, err := MultivariateESS(f, draws.DefaultSelection())
	require.NoError(t, err)
	assert.False(t, math.IsNaN(v))
	assert.Greater(t, v, 0.0)

	empty := draws.NewFrame(draws.Standard, nil)
	v, err = MultivariateESS(empty, draws.DefaultSelection())
	require.NoError(t, err)
	assert.True(t, math.IsNaN(v))
}

func TestRunStatistics_Identity(t *testing.T) {
	f := chainFrame(draws.Standard, 2, map[string][]float64{"a": wiggle(200, 0), "b": wiggle(200, 2)}, 4)
	for _, chain := range []int{1, 2} {
		rs, err := RunStatistics(f, draws.Selection{Chain: chain, Rep: 1, ExternalIndex: 1})
		require.NoError(t, err)
		require.Len(t, rs.Records, 2)

		for _, r := range rs.Records {
			assert.Equal(t, chain, r.Key.Chain)
			assert.Equal(t, 200, r.Iterations)
			assert.Equal(t, 4.0, r.Time)
			assert.Equal(t, float64(r.Iterations)/r.Time, r.IterationsPerSecond)
			assert.Equal(t, r.ESS/r.Time, r.ESSPerSecond)
			assert.Equal(t, r.Time/r.ESS, r.TimePerESS)
			assert.Equal(t, rs.Records[0].MultiESS, r.MultiESS, "MultiESS is broadcast")
		}
	}
}

func TestRunStatistics_ZeroTime(t *testing.T) {
	f := chainFrame(draws.Standard, 1, map[string][]float64{"a": wiggle(50, 0)}, 0)
	rs, err := RunStatistics(f, draws.DefaultSelection())
	require.NoError(t, err, "non-finite rates are not errors")
	r := rs.Records[0]
	assert.True(t, math.IsInf(r.IterationsPerSecond, 1))
	assert.Equal(t, 0.0, r.TimePerIteration)
}

func TestRunStatistics_ConstantChain(t *testing.T) {
	xs := make([]float64, 100)
	for i := range xs {
		xs[i] = 3
	}
	f := chainFrame(draws.Standard, 1, map[string][]float64{"mu": xs}, 10)
	rs, err := RunStatistics(f, draws.DefaultSelection())
	require.NoError(t, err)
	r := rs.Records[0]
	assert.Equal(t, 3.0, r.Mean)
	assert.Equal(t, 10.0, r.IterationsPerSecond)
	assert.False(t, math.IsInf(r.ESS, 0) || math.IsNaN(r.ESS))
}

func TestRunStatistics_MissingTime(t *testing.T) {
	f := draws.NewFrame(draws.NewSchema(draws.FieldValue), []draws.Row{{Iteration: 1, ParameterName: "x", Value: 1}})
	_, err := RunStatistics(f, draws.DefaultSelection())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrMissingColumn)
	assert.Contains(t, err.Error(), "Time")
}

func TestRunStatistics_Table(t *testing.T) {
	f := chainFrame(draws.Standard, 1, map[string][]float64{"a": wiggle(30, 0)}, 2)
	rs, err := RunStatistics(f, draws.DefaultSelection())
	require.NoError(t, err)

	tbl := rs.Table()
	assert.Equal(t, 1, tbl.NumRows())
	assert.False(t, tbl.Has("ExternalIndex"))
	ips, err := tbl.Float(0, "IterationsPerSecond")
	require.NoError(t, err)
	assert.Equal(t, 15.0, ips)
}
