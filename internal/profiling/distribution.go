// Package profiling describes the shape of each marginal posterior of a run:
// quantiles, credible interval, skewness, kurtosis and a normality test.
package profiling

import (
	"math"
	"sort"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat/distuv"

	"mcmcstats/domain/draws"
	domainstats "mcmcstats/domain/stats"
	"mcmcstats/internal/diagnostics"
)

// Credible interval bounds, in percent
const (
	LowerPercentile = 2.5
	UpperPercentile = 97.5
)

// Shape summarises the distribution of one marginal's draws
type Shape struct {
	Key      domainstats.RecordKey
	Draws    int
	Min      float64
	Lower    float64
	Q25      float64
	Median   float64
	Q75      float64
	Upper    float64
	Max      float64
	Skewness float64
	Kurtosis float64 // excess
	NormalP  float64 // Jarque-Bera p-value
	Outliers int     // outside 1.5 IQR of the quartiles
}

// ShapeColumns are the value columns of a profile table
var ShapeColumns = []string{
	"Draws", "Min", "Q2.5", "Q25", "Median", "Q75", "Q97.5", "Max",
	"Skewness", "Kurtosis", "NormalP", "Outliers",
}

// Profile computes the shape of every marginal of the selected draws
func Profile(f *draws.Frame, sel draws.Selection) ([]Shape, error) {
	keys, chains, err := diagnostics.Chains(f, sel)
	if err != nil {
		return nil, err
	}
	out := make([]Shape, 0, len(keys))
	for _, k := range keys {
		shape, err := AnalyzeDistribution(chains[k])
		if err != nil {
			return nil, err
		}
		shape.Key = k
		out = append(out, shape)
	}
	return out, nil
}

// AnalyzeDistribution computes the shape of one sample. Moments need at
// least four draws and are NaN below that.
func AnalyzeDistribution(data []float64) (Shape, error) {
	shape := Shape{Draws: len(data)}
	if len(data) == 0 {
		nan := math.NaN()
		shape.Min, shape.Lower, shape.Q25, shape.Median = nan, nan, nan, nan
		shape.Q75, shape.Upper, shape.Max = nan, nan, nan
		shape.Skewness, shape.Kurtosis, shape.NormalP = nan, nan, nan
		return shape, nil
	}

	var err error
	if shape.Min, err = stats.Min(data); err != nil {
		return shape, err
	}
	if shape.Max, err = stats.Max(data); err != nil {
		return shape, err
	}
	if shape.Median, err = stats.Median(data); err != nil {
		return shape, err
	}
	for _, q := range []struct {
		p   float64
		dst *float64
	}{
		{LowerPercentile, &shape.Lower},
		{25, &shape.Q25},
		{75, &shape.Q75},
		{UpperPercentile, &shape.Upper},
	} {
		if *q.dst, err = quantile(data, q.p); err != nil {
			return shape, err
		}
	}

	mean, err := stats.Mean(data)
	if err != nil {
		return shape, err
	}
	sd, err := stats.StandardDeviationPopulation(data)
	if err != nil {
		return shape, err
	}
	shape.Skewness = calculateSkewness(data, mean, sd)
	shape.Kurtosis = calculateKurtosis(data, mean, sd)
	shape.NormalP = jarqueBera(len(data), shape.Skewness, shape.Kurtosis)
	shape.Outliers = detectOutliers(data, shape.Q25, shape.Q75)
	return shape, nil
}

// quantile interpolates linearly between order statistics
func quantile(data []float64, percent float64) (float64, error) {
	if len(data) == 0 {
		return math.NaN(), nil
	}
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)
	h := (float64(len(sorted)) - 1) * percent / 100
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= len(sorted) {
		return sorted[len(sorted)-1], nil
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i]), nil
}

// calculateSkewness computes the moment coefficient of skewness
func calculateSkewness(data []float64, mean, sd float64) float64 {
	if len(data) < 4 || sd == 0 {
		return math.NaN()
	}
	var sum float64
	for _, x := range data {
		d := (x - mean) / sd
		sum += d * d * d
	}
	return sum / float64(len(data))
}

// calculateKurtosis computes the excess kurtosis
func calculateKurtosis(data []float64, mean, sd float64) float64 {
	if len(data) < 4 || sd == 0 {
		return math.NaN()
	}
	var sum float64
	for _, x := range data {
		d := (x - mean) / sd
		sum += d * d * d * d
	}
	return sum/float64(len(data)) - 3
}

// jarqueBera returns the p-value of the Jarque-Bera normality statistic,
// asymptotically chi-squared with two degrees of freedom
func jarqueBera(n int, skewness, excessKurtosis float64) float64 {
	if math.IsNaN(skewness) || math.IsNaN(excessKurtosis) {
		return math.NaN()
	}
	jb := float64(n) / 6 * (skewness*skewness + excessKurtosis*excessKurtosis/4)
	return distuv.ChiSquared{K: 2}.Survival(jb)
}

// detectOutliers counts draws outside the 1.5 IQR fences
func detectOutliers(data []float64, q25, q75 float64) int {
	iqr := q75 - q25
	lowerBound := q25 - 1.5*iqr
	upperBound := q75 + 1.5*iqr

	outlierCount := 0
	for _, x := range data {
		if x < lowerBound || x > upperBound {
			outlierCount++
		}
	}
	return outlierCount
}

// Table converts shapes into a table keyed like run statistics
func Table(shapes []Shape, hasExternalIndex bool) *domainstats.Table {
	keys := (&domainstats.RunStatistics{HasExternalIndex: hasExternalIndex}).KeyColumns()
	cols := append([]domainstats.Column(nil), keys...)
	for _, name := range ShapeColumns {
		cols = append(cols, domainstats.NumberColumn(name))
	}

	rows := make([][]domainstats.Cell, len(shapes))
	for i, s := range shapes {
		row := make([]domainstats.Cell, 0, len(cols))
		if hasExternalIndex {
			row = append(row, domainstats.Int(s.Key.ExternalIndex))
		}
		row = append(row, domainstats.Int(s.Key.Chain), domainstats.Str(s.Key.ParameterName), domainstats.Int(s.Key.Dimension))
		for _, v := range []float64{
			float64(s.Draws), s.Min, s.Lower, s.Q25, s.Median, s.Q75, s.Upper, s.Max,
			s.Skewness, s.Kurtosis, s.NormalP, float64(s.Outliers),
		} {
			row = append(row, domainstats.Num(v))
		}
		rows[i] = row
	}
	t, err := domainstats.NewTable(cols, rows)
	if err != nil {
		panic(err)
	}
	return t
}
