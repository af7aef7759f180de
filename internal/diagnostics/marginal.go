// Package diagnostics computes per-run MCMC summaries: marginal moments,
// univariate and multivariate effective sample sizes, and throughput.
package diagnostics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"mcmcstats/domain/core"
	"mcmcstats/domain/draws"
	domainstats "mcmcstats/domain/stats"
	"mcmcstats/internal/ess"
)

// requireValues checks the frame carries draws and narrows it to the selection
func requireValues(f *draws.Frame, sel draws.Selection) (*draws.Frame, error) {
	if !f.Schema().Has(draws.FieldValue) {
		return nil, core.NewMissingColumnError(draws.FieldValue.String())
	}
	return f.Select(sel), nil
}

func recordKey(schema draws.Schema, sel draws.Selection, r draws.Row) domainstats.RecordKey {
	key := domainstats.RecordKey{
		Chain:         sel.Chain,
		ParameterName: r.ParameterName,
		Dimension:     r.Dimension,
	}
	if schema.Has(draws.FieldChain) {
		key.Chain = r.Chain
	}
	if schema.Has(draws.FieldExternalIndex) {
		key.ExternalIndex = r.ExternalIndex
	}
	return key
}

func lessKey(a, b domainstats.RecordKey) bool {
	if a.ExternalIndex != b.ExternalIndex {
		return a.ExternalIndex < b.ExternalIndex
	}
	if a.Chain != b.Chain {
		return a.Chain < b.Chain
	}
	if a.ParameterName != b.ParameterName {
		return a.ParameterName < b.ParameterName
	}
	return a.Dimension < b.Dimension
}

// groupChains splits rows into per-key value sequences ordered by iteration
func groupChains(f *draws.Frame, sel draws.Selection) ([]domainstats.RecordKey, map[domainstats.RecordKey][]float64) {
	type draw struct {
		iteration int
		value     float64
	}
	schema := f.Schema()
	groups := make(map[domainstats.RecordKey][]draw)
	var keys []domainstats.RecordKey
	for i := 0; i < f.Len(); i++ {
		r := f.Row(i)
		k := recordKey(schema, sel, r)
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], draw{iteration: r.Iteration, value: r.Value})
	}
	sort.Slice(keys, func(i, j int) bool { return lessKey(keys[i], keys[j]) })

	out := make(map[domainstats.RecordKey][]float64, len(groups))
	for k, ds := range groups {
		sort.SliceStable(ds, func(i, j int) bool { return ds[i].iteration < ds[j].iteration })
		values := make([]float64, len(ds))
		for i, d := range ds {
			values[i] = d.value
		}
		out[k] = values
	}
	return keys, out
}

// Chains returns the selected draws of every marginal, each ordered by
// iteration, with the keys in table order
func Chains(f *draws.Frame, sel draws.Selection) ([]domainstats.RecordKey, map[domainstats.RecordKey][]float64, error) {
	sub, err := requireValues(f, sel)
	if err != nil {
		return nil, nil, err
	}
	keys, chains := groupChains(sub, sel)
	return keys, chains, nil
}

// MarginalStatistics summarises every (external index, chain, parameter,
// dimension) of the selected draws: sample mean, sd, variance and ESS.
func MarginalStatistics(f *draws.Frame, sel draws.Selection) ([]domainstats.Marginal, error) {
	keys, chains, err := Chains(f, sel)
	if err != nil {
		return nil, err
	}

	out := make([]domainstats.Marginal, 0, len(keys))
	for _, k := range keys {
		x := chains[k]
		mean, variance := stat.MeanVariance(x, nil)
		if len(x) < 2 {
			variance = math.NaN()
		}
		out = append(out, domainstats.Marginal{
			Key:  k,
			Mean: mean,
			SD:   math.Sqrt(variance),
			Var:  variance,
			ESS:  ess.Univariate(x),
		})
	}
	return out, nil
}
