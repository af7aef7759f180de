// Package moments provides weighted and unweighted moment estimators over
// sampler draws, including importance-weighted expectations.
package moments

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
	gstat "gonum.org/v1/gonum/stat"

	"mcmcstats/domain/core"
)

func validate(values, weights []float64) error {
	if len(values) == 0 {
		return fmt.Errorf("%w: no values", core.ErrEmptyInput)
	}
	if len(values) != len(weights) {
		return fmt.Errorf("%d values but %d weights", len(values), len(weights))
	}
	positive := false
	for _, w := range weights {
		if w < 0 || math.IsNaN(w) {
			return fmt.Errorf("weights must be non-negative, got %g", w)
		}
		if w > 0 {
			positive = true
		}
	}
	if !positive {
		return fmt.Errorf("weights must contain at least one positive entry")
	}
	return nil
}

// WeightedMean returns sum(w*x)/sum(w)
func WeightedMean(values, weights []float64) (float64, error) {
	if err := validate(values, weights); err != nil {
		return math.NaN(), err
	}
	return gstat.Mean(values, weights), nil
}

// WeightedVar returns the weighted mean of squared deviations from the
// weighted mean. With uniform weights this is the population variance.
func WeightedVar(values, weights []float64) (float64, error) {
	mean, err := WeightedMean(values, weights)
	if err != nil {
		return math.NaN(), err
	}
	sq := make([]float64, len(values))
	for i, v := range values {
		d := v - mean
		sq[i] = d * d
	}
	return gstat.Mean(sq, weights), nil
}

// WeightedSD is the square root of WeightedVar
func WeightedSD(values, weights []float64) (float64, error) {
	v, err := WeightedVar(values, weights)
	if err != nil {
		return math.NaN(), err
	}
	return math.Sqrt(v), nil
}

// WeightsFromLog exponentiates log weights after shifting by their maximum.
// The shift leaves every normalized weighted moment unchanged.
func WeightsFromLog(logWeights []float64) []float64 {
	if len(logWeights) == 0 {
		return nil
	}
	shift := floats.Max(logWeights)
	if math.IsInf(shift, -1) {
		shift = 0
	}
	w := make([]float64, len(logWeights))
	for i, lw := range logWeights {
		w[i] = math.Exp(lw - shift)
	}
	return w
}

// Mean is the unweighted mean
func Mean(values []float64) (float64, error) {
	m, err := stats.Mean(values)
	if err != nil {
		return math.NaN(), fmt.Errorf("%w: %v", core.ErrEmptyInput, err)
	}
	return m, nil
}

// SampleSD is the unweighted (n-1) standard deviation. It is NaN for fewer
// than two values.
func SampleSD(values []float64) (float64, error) {
	if len(values) == 0 {
		return math.NaN(), fmt.Errorf("%w: no values", core.ErrEmptyInput)
	}
	if len(values) < 2 {
		return math.NaN(), nil
	}
	sd, err := stats.StandardDeviationSample(values)
	if err != nil {
		return math.NaN(), err
	}
	return sd, nil
}
