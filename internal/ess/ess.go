// Package ess estimates effective sample sizes of Markov chain output using
// non-overlapping batch means with batch size floor(sqrt(n)).
package ess

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// BatchSize returns floor(sqrt(n)), at least 1
func BatchSize(n int) int {
	b := int(math.Floor(math.Sqrt(float64(n))))
	if b < 1 {
		return 1
	}
	return b
}

// ratio turns (sample variance, asymptotic variance) into an ESS-style ratio.
// A chain with no asymptotic variance and no sample variance carries no
// information (0); one with sample variance but none asymptotically is +Inf.
func ratio(n int, lambda, sigma float64) float64 {
	if sigma == 0 {
		if lambda == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return float64(n) * lambda / sigma
}

// Univariate returns n * var(x) / sigma², where sigma² is the batch-means
// estimate of the asymptotic variance of the mean. Fewer than two full
// batches yield NaN.
func Univariate(x []float64) float64 {
	n := len(x)
	b := BatchSize(n)
	a := n / b
	if a < 2 {
		return math.NaN()
	}

	mu := stat.Mean(x, nil)
	sum := 0.0
	for k := 0; k < a; k++ {
		d := stat.Mean(x[k*b:(k+1)*b], nil) - mu
		sum += d * d
	}
	sigma := float64(b) * sum / float64(a-1)
	lambda := stat.Variance(x, nil)
	return ratio(n, lambda, sigma)
}

// Multivariate returns n * (det Λ / det Σ)^(1/p) for an n×p matrix of draws,
// where Λ is the sample covariance and Σ the batch-means estimate of the
// asymptotic covariance.
func Multivariate(x mat.Matrix) float64 {
	n, p := x.Dims()
	if n == 0 || p == 0 {
		return math.NaN()
	}
	b := BatchSize(n)
	a := n / b
	if a < 2 {
		return math.NaN()
	}

	var lambda mat.SymDense
	stat.CovarianceMatrix(&lambda, x, nil)

	mu := make([]float64, p)
	col := make([]float64, n)
	for j := 0; j < p; j++ {
		mat.Col(col, j, x)
		mu[j] = stat.Mean(col, nil)
	}

	centred := mat.NewDense(a, p, nil)
	for k := 0; k < a; k++ {
		for j := 0; j < p; j++ {
			sum := 0.0
			for i := k * b; i < (k+1)*b; i++ {
				sum += x.At(i, j)
			}
			centred.Set(k, j, sum/float64(b)-mu[j])
		}
	}

	var sigma mat.SymDense
	sigma.SymOuterK(float64(b)/float64(a-1), centred.T())

	logLambda, signLambda := mat.LogDet(&lambda)
	logSigma, signSigma := mat.LogDet(&sigma)
	singularLambda := signLambda <= 0 || math.IsInf(logLambda, -1)
	singularSigma := signSigma <= 0 || math.IsInf(logSigma, -1)

	switch {
	case singularSigma && singularLambda:
		return 0
	case singularSigma:
		return math.Inf(1)
	case singularLambda:
		return 0
	}
	return float64(n) * math.Exp((logLambda-logSigma)/float64(p))
}

// Matrix builds an n×p dense matrix from p column vectors of equal length n.
// It returns nil when there are no columns or no rows.
func Matrix(columns [][]float64) *mat.Dense {
	if len(columns) == 0 || len(columns[0]) == 0 {
		return nil
	}
	n := len(columns[0])
	p := len(columns)
	data := make([]float64, n*p)
	for j, c := range columns {
		for i := 0; i < n; i++ {
			data[i*p+j] = c[i]
		}
	}
	return mat.NewDense(n, p, data)
}
