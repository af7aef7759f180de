package diagnostics

import (
	"mcmcstats/domain/core"
	"mcmcstats/domain/draws"
	domainstats "mcmcstats/domain/stats"
)

// RunStatistics combines marginal statistics, multivariate ESS and timing for
// one run. Zero time or zero ESS produce infinite or NaN rates; they are not
// errors.
func RunStatistics(f *draws.Frame, sel draws.Selection) (*domainstats.RunStatistics, error) {
	if !f.Schema().Has(draws.FieldTime) {
		return nil, core.NewMissingColumnError(draws.FieldTime.String())
	}

	marginals, err := MarginalStatistics(f, sel)
	if err != nil {
		return nil, err
	}
	multiESS, err := MultivariateESS(f, sel)
	if err != nil {
		return nil, err
	}

	sub := f.Select(sel)
	var elapsed float64
	if sub.Len() > 0 {
		elapsed = sub.Row(0).Time
	}
	iterations := sub.MaxIteration()
	n := float64(iterations)

	records := make([]domainstats.RunRecord, len(marginals))
	for i, m := range marginals {
		records[i] = domainstats.RunRecord{
			Key:                 m.Key,
			Mean:                m.Mean,
			SD:                  m.SD,
			Var:                 m.Var,
			ESS:                 m.ESS,
			MultiESS:            multiESS,
			Time:                elapsed,
			Iterations:          iterations,
			IterationsPerSecond: n / elapsed,
			ESSPerSecond:        m.ESS / elapsed,
			MultiESSPerSecond:   multiESS / elapsed,
			TimePerIteration:    elapsed / n,
			TimePerESS:          elapsed / m.ESS,
			TimePerMultiESS:     elapsed / multiESS,
		}
	}

	return &domainstats.RunStatistics{
		HasExternalIndex: f.Schema().Has(draws.FieldExternalIndex),
		Records:          records,
	}, nil
}
