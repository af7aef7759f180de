package moments

import (
	"fmt"
	"math"

	"mcmcstats/domain/core"
	"mcmcstats/domain/draws"
	"mcmcstats/internal/target"
)

// Query identifies the draws an expectation is taken over
type Query struct {
	ParameterName string
	Dimension     int
	Target        target.Options
	// PreWeighting marks draws that were already resampled, so any LogWeight
	// column is ignored.
	PreWeighting bool
}

func (q Query) draws(f *draws.Frame) (*draws.Frame, error) {
	if !f.Schema().Has(draws.FieldValue) {
		return nil, core.NewMissingColumnError(draws.FieldValue.String())
	}
	sel, err := target.Select(f, q.Target)
	if err != nil {
		return nil, err
	}
	out := sel.Frame.Filter(func(r draws.Row) bool {
		return r.ParameterName == q.ParameterName && r.Dimension == q.Dimension
	})
	if out.Len() == 0 {
		return nil, fmt.Errorf("%w: no draws for %s[%d]", core.ErrEmptyInput, q.ParameterName, q.Dimension)
	}
	return out, nil
}

func (q Query) weighted(f *draws.Frame) bool {
	return f.Schema().Has(draws.FieldLogWeight) && !q.PreWeighting
}

// Expectation estimates E[parameter] from the selected draws, importance
// weighted when log weights are present.
func Expectation(f *draws.Frame, q Query) (float64, error) {
	sub, err := q.draws(f)
	if err != nil {
		return math.NaN(), err
	}
	if q.weighted(sub) {
		return WeightedMean(sub.Values(), WeightsFromLog(sub.LogWeights()))
	}
	return Mean(sub.Values())
}

// StandardDeviation estimates the posterior standard deviation of a parameter
// the same way Expectation estimates its mean.
func StandardDeviation(f *draws.Frame, q Query) (float64, error) {
	sub, err := q.draws(f)
	if err != nil {
		return math.NaN(), err
	}
	if q.weighted(sub) {
		return WeightedSD(sub.Values(), WeightsFromLog(sub.LogWeights()))
	}
	return SampleSD(sub.Values())
}
