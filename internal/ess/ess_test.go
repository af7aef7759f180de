package ess

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func iid(rng *rand.Rand, n int) []float64 {
	x := make([]float64, n)
	for i := range x {
		x[i] = rng.NormFloat64()
	}
	return x
}

func ar1(rng *rand.Rand, n int, phi float64) []float64 {
	x := make([]float64, n)
	for i := 1; i < n; i++ {
		x[i] = phi*x[i-1] + rng.NormFloat64()
	}
	return x
}

func TestBatchSize(t *testing.T) {
	assert.Equal(t, 1, BatchSize(0))
	assert.Equal(t, 1, BatchSize(3))
	assert.Equal(t, 10, BatchSize(100))
	assert.Equal(t, 10, BatchSize(120))
}

func TestUnivariate_IndependentDraws(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	n := 10000
	got := Univariate(iid(rng, n))
	assert.Greater(t, got, 0.5*float64(n))
	assert.Less(t, got, 1.6*float64(n))
}

func TestUnivariate_AutocorrelatedDraws(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	n := 10000
	got := Univariate(ar1(rng, n, 0.9))
	// Theoretical value is n(1-phi)/(1+phi), about 526.
	assert.Greater(t, got, 200.0)
	assert.Less(t, got, 900.0)
}

func TestUnivariate_Degenerate(t *testing.T) {
	constant := make([]float64, 100)
	for i := range constant {
		constant[i] = 3
	}
	assert.Equal(t, 0.0, Univariate(constant))
	assert.True(t, math.IsNaN(Univariate([]float64{1})), "one batch")
	assert.InDelta(t, 3.0, Univariate([]float64{1, 2, 3}), 1e-12, "three batches of size one")
	assert.True(t, math.IsNaN(Univariate(nil)))
}

func TestMultivariate_SingleColumnMatchesUnivariate(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	x := ar1(rng, 2500, 0.5)
	uni := Univariate(x)
	multi := Multivariate(Matrix([][]float64{x}))
	assert.InEpsilon(t, uni, multi, 1e-9)
}

func TestMultivariate_IndependentColumns(t *testing.T) {
	rng := rand.New(rand.NewSource(4))
	n := 10000
	m := Matrix([][]float64{iid(rng, n), iid(rng, n), iid(rng, n)})
	got := Multivariate(m)
	assert.Greater(t, got, 0.5*float64(n))
	assert.Less(t, got, 1.6*float64(n))
}

func TestMultivariate_Degenerate(t *testing.T) {
	a := make([]float64, 64)
	b := make([]float64, 64)
	for i := range a {
		a[i], b[i] = 1, 2
	}
	assert.Equal(t, 0.0, Multivariate(Matrix([][]float64{a, b})))
	assert.True(t, math.IsNaN(Multivariate(Matrix([][]float64{{1}, {2}}))))
}

func TestMatrix_Layout(t *testing.T) {
	m := Matrix([][]float64{{1, 2, 3}, {4, 5, 6}})
	require.NotNil(t, m)
	r, c := m.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 5.0, m.At(1, 1))
	assert.Nil(t, Matrix(nil))
}
