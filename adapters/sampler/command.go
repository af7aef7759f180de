// Package sampler runs an external MCMC/SMC program as the sampler
// collaborator of the aggregation pipeline.
package sampler

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"mcmcstats/domain/core"
	"mcmcstats/domain/experiment"
	"mcmcstats/internal"
	"mcmcstats/internal/errors"
	"mcmcstats/ports"
)

const (
	// JobFile is written into each rep directory before the command starts
	JobFile = "job.yaml"
	// LogFile receives the command's combined stdout and stderr
	LogFile = "sampler.log"

	maxErrorOutput = 2048
)

// Placeholders substituted in command arguments
const (
	PlaceholderResultsDir = "{results_dir}"
	PlaceholderSeed       = "{seed}"
	PlaceholderRep        = "{rep}"
	PlaceholderJob        = "{job}"
	PlaceholderModel      = "{model}"
)

// Job is the YAML document handed to the sampler program
type Job struct {
	Model         string                  `yaml:"model"`
	Rep           int                     `yaml:"rep"`
	Seed          int64                   `yaml:"seed"`
	ResultsDir    string                  `yaml:"results_dir"`
	Parameters    experiment.ParameterSet `yaml:"parameters"`
	InitialValues map[string][]float64    `yaml:"initial_values,omitempty"`
}

// Command runs job.Command (or Default when the model defines none). The
// job is passed three ways: a job.yaml in the results directory, argument
// placeholders, and MCMC_* environment variables.
type Command struct {
	Default []string
	Timeout time.Duration
	Env     []string
}

// NewCommand creates a command sampler with an optional fallback command
func NewCommand(defaultCommand ...string) *Command {
	return &Command{Default: defaultCommand}
}

var _ ports.SamplerPort = (*Command)(nil)

var logger = internal.DefaultLogger.Component("CommandSampler")

// Run executes one rep. Any failure, including a non-zero exit, is wrapped
// with core.ErrSamplerFailure.
func (c *Command) Run(ctx context.Context, job ports.SamplerJob) error {
	argv := job.Command
	if len(argv) == 0 {
		argv = c.Default
	}
	if len(argv) == 0 {
		return fmt.Errorf("%w: model %q has no sampler command", core.ErrSamplerFailure, job.Model)
	}

	if err := os.MkdirAll(job.ResultsDir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", core.ErrSamplerFailure, err)
	}
	jobPath := filepath.Join(job.ResultsDir, JobFile)
	if err := writeJob(jobPath, job); err != nil {
		return fmt.Errorf("%w: %v", core.ErrSamplerFailure, err)
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	args := substituteArgs(argv[1:], job, jobPath)
	cmd := exec.CommandContext(ctx, argv[0], args...)
	cmd.Dir = job.ResultsDir
	cmd.WaitDelay = time.Second
	cmd.Env = append(append(os.Environ(), c.Env...),
		"MCMC_MODEL="+job.Model,
		"MCMC_REP="+strconv.Itoa(job.Rep),
		"MCMC_SEED="+strconv.FormatInt(job.Seed, 10),
		"MCMC_RESULTS_DIR="+job.ResultsDir,
		"MCMC_JOB_FILE="+jobPath,
	)

	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	logger.Info("rep %d of %s: %s %s", job.Rep, job.Model, argv[0], strings.Join(args, " "))
	start := time.Now()
	runErr := cmd.Run()

	if err := os.WriteFile(filepath.Join(job.ResultsDir, LogFile), output.Bytes(), 0o644); err != nil {
		logger.Warn("failed to write %s: %v", LogFile, err)
	}

	if runErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			runErr = fmt.Errorf("timed out after %s", c.Timeout)
		}
		cause := errors.ExternalServiceError(argv[0], fmt.Errorf("%v: %s", runErr, tail(output.String())))
		return fmt.Errorf("%w: rep %d: %w", core.ErrSamplerFailure, job.Rep, cause)
	}

	logger.Debug("rep %d of %s finished in %s", job.Rep, job.Model, time.Since(start).Round(time.Millisecond))
	return nil
}

func writeJob(path string, job ports.SamplerJob) error {
	data, err := yaml.Marshal(Job{
		Model:         job.Model,
		Rep:           job.Rep,
		Seed:          job.Seed,
		ResultsDir:    job.ResultsDir,
		Parameters:    job.Parameters,
		InitialValues: job.InitialValues,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadJob decodes a job file, for sampler programs written in Go
func ReadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var job Job
	if err := yaml.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("invalid job file %s: %w", path, err)
	}
	return &job, nil
}

func substituteArgs(args []string, job ports.SamplerJob, jobPath string) []string {
	r := strings.NewReplacer(
		PlaceholderResultsDir, job.ResultsDir,
		PlaceholderSeed, strconv.FormatInt(job.Seed, 10),
		PlaceholderRep, strconv.Itoa(job.Rep),
		PlaceholderJob, jobPath,
		PlaceholderModel, job.Model,
	)
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = r.Replace(a)
	}
	return out
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxErrorOutput {
		s = "..." + s[len(s)-maxErrorOutput:]
	}
	return s
}
