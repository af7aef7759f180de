package ports

import (
	"context"

	"mcmcstats/domain/experiment"
)

// SamplerJob is one leaf invocation of the external sampler: a single rep of
// one parameter configuration of one model.
type SamplerJob struct {
	Model         string
	Command       []string
	Parameters    experiment.ParameterSet
	InitialValues map[string][]float64
	ResultsDir    string
	Rep           int
	Seed          int64
}

// SamplerPort runs an MCMC/SMC sampler that writes tidy draws into
// job.ResultsDir. Implementations must only touch that directory.
type SamplerPort interface {
	Run(ctx context.Context, job SamplerJob) error
}
