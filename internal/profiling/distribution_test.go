package profiling

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcmcstats/domain/draws"
	"mcmcstats/internal/testkit"
)

func TestAnalyzeDistribution_Uniform(t *testing.T) {
	data := make([]float64, 101)
	for i := range data {
		data[i] = float64(i)
	}
	s, err := AnalyzeDistribution(data)
	require.NoError(t, err)

	assert.Equal(t, 101, s.Draws)
	assert.Equal(t, 0.0, s.Min)
	assert.Equal(t, 100.0, s.Max)
	assert.Equal(t, 50.0, s.Median)
	assert.InDelta(t, 2.5, s.Lower, 1e-12)
	assert.InDelta(t, 97.5, s.Upper, 1e-12)
	assert.InDelta(t, 25.0, s.Q25, 1e-12)
	assert.InDelta(t, 0.0, s.Skewness, 1e-12, "symmetric")
	assert.InDelta(t, -1.2, s.Kurtosis, 0.01, "uniform excess kurtosis")
	assert.Equal(t, 0, s.Outliers)
}

func TestAnalyzeDistribution_Outliers(t *testing.T) {
	data := []float64{1, 2, 2, 3, 3, 3, 4, 4, 5, 100}
	s, err := AnalyzeDistribution(data)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Outliers)
	assert.Greater(t, s.Skewness, 0.0)
	assert.Less(t, s.NormalP, 0.05)
}

func TestAnalyzeDistribution_Small(t *testing.T) {
	s, err := AnalyzeDistribution([]float64{1, 2})
	require.NoError(t, err)
	assert.True(t, math.IsNaN(s.Skewness))
	assert.True(t, math.IsNaN(s.NormalP))
	assert.Equal(t, 1.5, s.Median)

	s, err = AnalyzeDistribution(nil)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(s.Median))
}

func TestProfile_NormalChain(t *testing.T) {
	f, err := testkit.NewChainGenerator(testkit.ChainGeneratorConfig{
		Iterations: 4000,
		Chains:     2,
		Parameters: []testkit.ParameterSpec{{Name: "theta", Dimensions: 2, Mean: []float64{0, 5}, Phi: 0, Scale: 1}},
		Time:       1,
		Seed:       11,
	}).Generate()
	require.NoError(t, err)

	shapes, err := Profile(f, draws.Selection{Chain: 2, Rep: 1, ExternalIndex: 1})
	require.NoError(t, err)
	require.Len(t, shapes, 2)
	assert.Equal(t, 2, shapes[0].Key.Chain)
	assert.Equal(t, 1, shapes[0].Key.Dimension)
	assert.InDelta(t, 5.0, shapes[1].Median, 0.1)
	assert.InDelta(t, 0.0, shapes[0].Skewness, 0.2)
	assert.InDelta(t, -1.96, shapes[0].Lower, 0.15)

	tbl := Table(shapes, false)
	assert.Equal(t, 2, tbl.NumRows())
	median, err := tbl.Float(1, "Median")
	require.NoError(t, err)
	assert.Equal(t, shapes[1].Median, median)
}
