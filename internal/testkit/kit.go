// Package testkit provides synthetic samplers and draw fixtures for tests and
// the development demo.
package testkit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"mcmcstats/adapters/output"
	"mcmcstats/domain/draws"
	"mcmcstats/internal"
	"mcmcstats/ports"
)

// DrawsFunc produces the draws one sampler job writes
type DrawsFunc func(job ports.SamplerJob) (*draws.Frame, error)

// SyntheticSampler is an in-process ports.SamplerPort. It writes tidy draws
// into job.ResultsDir and records every job it receives.
type SyntheticSampler struct {
	generate DrawsFunc
	failures map[int]error

	mu   sync.Mutex
	jobs []ports.SamplerJob
}

// NewSyntheticSampler wraps a draws function as a sampler
func NewSyntheticSampler(generate DrawsFunc) *SyntheticSampler {
	return &SyntheticSampler{generate: generate, failures: make(map[int]error)}
}

// NewAR1Sampler samples AR(1) chains whose stationary mean is the job's "mu"
// parameter (default 0) and autocorrelation its "phi" parameter (default 0.5).
// The job seed drives the noise, so equal seeds give identical draws.
func NewAR1Sampler(iterations int, elapsed float64) *SyntheticSampler {
	return NewSyntheticSampler(func(job ports.SamplerJob) (*draws.Frame, error) {
		spec := ParameterSpec{Name: "mu", Dimensions: 1, Phi: 0.5, Scale: 1}
		if mu, ok := job.Parameters.Get("mu"); ok {
			spec.Mean = mu
			spec.Dimensions = len(mu)
		}
		if phi, ok := job.Parameters.Get("phi"); ok {
			spec.Phi = phi[0]
		}
		return NewChainGenerator(ChainGeneratorConfig{
			Iterations: iterations,
			Chains:     1,
			Parameters: []ParameterSpec{spec},
			Time:       elapsed,
			Seed:       job.Seed,
		}).Generate()
	})
}

// NewConstantSampler writes a constant chain of "mu" whose value is chosen per job
func NewConstantSampler(iterations int, elapsed float64, value func(job ports.SamplerJob) float64) *SyntheticSampler {
	return NewSyntheticSampler(func(job ports.SamplerJob) (*draws.Frame, error) {
		return ConstantFrame("mu", iterations, value(job), elapsed), nil
	})
}

// FailRep makes every job of the given rep return err
func (s *SyntheticSampler) FailRep(rep int, err error) *SyntheticSampler {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[rep] = err
	return s
}

// Run implements ports.SamplerPort
func (s *SyntheticSampler) Run(ctx context.Context, job ports.SamplerJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.jobs = append(s.jobs, job)
	failure := s.failures[job.Rep]
	s.mu.Unlock()

	if failure != nil {
		return failure
	}
	f, err := s.generate(job)
	if err != nil {
		return fmt.Errorf("synthetic sampler: %w", err)
	}
	if err := os.MkdirAll(job.ResultsDir, 0o755); err != nil {
		return err
	}
	return output.WriteDraws(filepath.Join(job.ResultsDir, output.DefaultDrawsFile), f)
}

// Jobs returns the jobs received so far
func (s *SyntheticSampler) Jobs() []ports.SamplerJob {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.SamplerJob(nil), s.jobs...)
}

// WriteRun writes a frame as the draws of a result directory, creating it
func WriteRun(dir string, f *draws.Frame) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(dir, output.DefaultDrawsFile)
	internal.DefaultLogger.Component("TestKit").Debug("Writing %d draws to %s", f.Len(), path)
	return output.WriteDraws(path, f)
}
