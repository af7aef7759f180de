package testkit

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"mcmcstats/domain/draws"
)

// ParameterSpec describes one synthetic parameter: an AR(1) process per
// dimension with the given stationary mean, autocorrelation and scale.
type ParameterSpec struct {
	Name       string    `json:"name"`
	Dimensions int       `json:"dimensions"`
	Mean       []float64 `json:"mean"` // per dimension; a single value is broadcast
	Phi        float64   `json:"phi"`
	Scale      float64   `json:"scale"`
}

func (p ParameterSpec) mean(dim int) float64 {
	switch {
	case len(p.Mean) == 0:
		return 0
	case dim < len(p.Mean):
		return p.Mean[dim]
	default:
		return p.Mean[0]
	}
}

// ChainGeneratorConfig configures the synthetic chain generator
type ChainGeneratorConfig struct {
	Iterations int             `json:"iterations"`
	Chains     int             `json:"chains"`
	Parameters []ParameterSpec `json:"parameters"`
	Time       float64         `json:"time"`
	Seed       int64           `json:"seed"`
}

// DefaultChainConfig returns a single-chain, single-parameter configuration
func DefaultChainConfig() ChainGeneratorConfig {
	return ChainGeneratorConfig{
		Iterations: 500,
		Chains:     1,
		Parameters: []ParameterSpec{{Name: "mu", Dimensions: 1, Phi: 0.5, Scale: 1}},
		Time:       1,
		Seed:       42,
	}
}

// ChainGenerator produces tidy draws of stationary AR(1) chains
type ChainGenerator struct {
	config ChainGeneratorConfig
	noise  distuv.Normal
}

// NewChainGenerator creates a generator seeded from config.Seed
func NewChainGenerator(config ChainGeneratorConfig) *ChainGenerator {
	seed := uint64(config.Seed)
	return &ChainGenerator{
		config: config,
		noise: distuv.Normal{
			Mu:    0,
			Sigma: 1,
			Src:   rand.NewPCG(seed, seed^0x9e3779b97f4a7c15),
		},
	}
}

// Generate draws every chain, parameter and dimension in tidy form
func (g *ChainGenerator) Generate() (*draws.Frame, error) {
	cfg := g.config
	if cfg.Iterations <= 0 || cfg.Chains <= 0 {
		return nil, fmt.Errorf("iterations and chains must be positive")
	}
	var rows []draws.Row
	for chain := 1; chain <= cfg.Chains; chain++ {
		for _, p := range cfg.Parameters {
			if math.Abs(p.Phi) >= 1 {
				return nil, fmt.Errorf("parameter %s: |phi| must be below 1", p.Name)
			}
			dims := p.Dimensions
			if dims <= 0 {
				dims = 1
			}
			for d := 0; d < dims; d++ {
				mean := p.mean(d)
				innovation := p.Scale * math.Sqrt(1-p.Phi*p.Phi)
				x := mean + p.Scale*g.noise.Rand()
				for it := 1; it <= cfg.Iterations; it++ {
					if it > 1 {
						x = mean + p.Phi*(x-mean) + innovation*g.noise.Rand()
					}
					rows = append(rows, draws.Row{
						Iteration:     it,
						Chain:         chain,
						ParameterName: p.Name,
						Dimension:     d + 1,
						Value:         x,
						Time:          cfg.Time,
					})
				}
			}
		}
	}
	return draws.NewFrame(draws.Standard, rows), nil
}

// AR1 returns n draws of a zero-mean unit-variance AR(1) process
func AR1(n int, phi float64, seed int64) []float64 {
	g := NewChainGenerator(ChainGeneratorConfig{Seed: seed})
	out := make([]float64, n)
	x := g.noise.Rand()
	for i := range out {
		if i > 0 {
			x = phi*x + math.Sqrt(1-phi*phi)*g.noise.Rand()
		}
		out[i] = x
	}
	return out
}

// ConstantFrame is one chain of a scalar parameter fixed at value
func ConstantFrame(name string, iterations int, value, elapsed float64) *draws.Frame {
	rows := make([]draws.Row, iterations)
	for i := range rows {
		rows[i] = draws.Row{
			Iteration:     i + 1,
			Chain:         1,
			ParameterName: name,
			Dimension:     1,
			Value:         value,
			Time:          elapsed,
		}
	}
	return draws.NewFrame(draws.Standard, rows)
}

// SMCFrame builds a tempered SMC population: for each target t in
// 0..targets-1, particles draws of "x" with log weights and a TargetParameters
// label of the form "beta=<t/(targets-1)>".
func SMCFrame(targets, particles int, seed int64) *draws.Frame {
	g := NewChainGenerator(ChainGeneratorConfig{Seed: seed})
	schema := draws.NewSchema(draws.FieldChain, draws.FieldTarget, draws.FieldTargetParameters,
		draws.FieldValue, draws.FieldLogWeight, draws.FieldTime)

	var rows []draws.Row
	for t := 0; t < targets; t++ {
		beta := 1.0
		if targets > 1 {
			beta = float64(t) / float64(targets-1)
		}
		for i := 1; i <= particles; i++ {
			x := g.noise.Rand()
			rows = append(rows, draws.Row{
				Iteration:        i,
				Chain:            1,
				Target:           t,
				TargetParameters: fmt.Sprintf("beta=%g", beta),
				ParameterName:    "x",
				Dimension:        1,
				Value:            x,
				LogWeight:        -0.5 * beta * x * x,
				Time:             1,
			})
		}
	}
	return draws.NewFrame(schema, rows)
}
