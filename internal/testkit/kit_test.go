package testkit

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcmcstats/adapters/output"
	"mcmcstats/domain/draws"
	"mcmcstats/domain/experiment"
	"mcmcstats/ports"
)

func TestChainGenerator_Deterministic(t *testing.T) {
	cfg := DefaultChainConfig()
	a, err := NewChainGenerator(cfg).Generate()
	require.NoError(t, err)
	b, err := NewChainGenerator(cfg).Generate()
	require.NoError(t, err)
	assert.Equal(t, a.Values(), b.Values())

	cfg.Seed++
	c, err := NewChainGenerator(cfg).Generate()
	require.NoError(t, err)
	assert.NotEqual(t, a.Values(), c.Values())
}

func TestChainGenerator_Stationary(t *testing.T) {
	cfg := ChainGeneratorConfig{
		Iterations: 20000,
		Chains:     2,
		Parameters: []ParameterSpec{{Name: "theta", Dimensions: 2, Mean: []float64{-3, 5}, Phi: 0.3, Scale: 1}},
		Time:       1,
		Seed:       7,
	}
	f, err := NewChainGenerator(cfg).Generate()
	require.NoError(t, err)
	assert.Equal(t, 2*2*20000, f.Len())

	for d, want := range []float64{-3, 5} {
		dim := d + 1
		xs := f.Filter(func(r draws.Row) bool { return r.Dimension == dim }).Values()
		var sum float64
		for _, x := range xs {
			sum += x
		}
		assert.InDelta(t, want, sum/float64(len(xs)), 0.1)
	}
}

func TestChainGenerator_Invalid(t *testing.T) {
	cfg := DefaultChainConfig()
	cfg.Parameters[0].Phi = 1
	_, err := NewChainGenerator(cfg).Generate()
	assert.Error(t, err)
}

func TestSMCFrame(t *testing.T) {
	f := SMCFrame(3, 50, 1)
	assert.Equal(t, []int{0, 1, 2}, f.Targets())
	assert.Equal(t, 150, f.Len())
	assert.Equal(t, "beta=0.5", f.Row(50).TargetParameters)
	assert.Equal(t, 0.0, f.Row(0).LogWeight, "beta=0 is unweighted")
}

func TestSyntheticSampler(t *testing.T) {
	dir := t.TempDir()
	boom := errors.New("boom")
	s := NewAR1Sampler(100, 2).FailRep(2, boom)

	job := ports.SamplerJob{
		Model:      "ar1",
		Parameters: experiment.ParameterSet{{Name: "mu", Values: []float64{4}}},
		ResultsDir: dir,
		Rep:        1,
		Seed:       11,
	}
	require.NoError(t, s.Run(context.Background(), job))

	f, err := output.NewLoader("").Load(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 100, f.Len())
	assert.Equal(t, 2.0, f.Row(0).Time)
	assert.False(t, math.IsNaN(f.Row(0).Value))

	job.Rep = 2
	assert.ErrorIs(t, s.Run(context.Background(), job), boom)
	assert.Len(t, s.Jobs(), 2)
}
