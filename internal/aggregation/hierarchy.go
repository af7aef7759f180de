// Package aggregation rolls run statistics up the rep, parameter-set and
// model levels of an experiment.
package aggregation

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"mcmcstats/domain/core"
	"mcmcstats/domain/draws"
	"mcmcstats/domain/experiment"
	"mcmcstats/domain/stats"
	"mcmcstats/internal"
	"mcmcstats/internal/diagnostics"
	"mcmcstats/internal/execution"
	"mcmcstats/ports"
)

// Result directory prefixes of the three levels
const (
	RepDirPrefix       = "rep"
	ParameterDirPrefix = "parameters"
	ModelDirPrefix     = "model"
)

// Config controls sampling and per-run selection
type Config struct {
	BaseSeed  int64
	Reps      int
	Selection draws.Selection
}

// DefaultConfig runs a single rep with seed 1 on the first chain
func DefaultConfig() Config {
	return Config{BaseSeed: 1, Reps: 1, Selection: draws.DefaultSelection()}
}

// Hierarchy runs and aggregates experiments. The sampler may be nil when
// only existing results are summarised.
type Hierarchy struct {
	sampler  ports.SamplerPort
	loader   ports.RunLoaderPort
	lister   ports.DirectoryListerPort
	executor ports.ExecutorPort
	config   Config
	logger   *internal.Logger
}

// New wires a hierarchy; a nil executor means sequential execution
func New(sampler ports.SamplerPort, loader ports.RunLoaderPort, lister ports.DirectoryListerPort, executor ports.ExecutorPort, config Config) *Hierarchy {
	if executor == nil {
		executor = execution.Sequential{}
	}
	if config.Reps < 1 {
		config.Reps = 1
	}
	return &Hierarchy{
		sampler:  sampler,
		loader:   loader,
		lister:   lister,
		executor: executor,
		config:   config,
		logger:   internal.DefaultLogger.Component("Aggregation"),
	}
}

// WithLogger replaces the default logger
func (h *Hierarchy) WithLogger(l *internal.Logger) *Hierarchy {
	h.logger = l.Component("Aggregation")
	return h
}

// Config returns the effective sampling configuration
func (h *Hierarchy) Config() Config { return h.config }

// Executor returns the rep executor in use
func (h *Hierarchy) Executor() ports.ExecutorPort { return h.executor }

// Dir returns the result directory of the i-th unit (1-based) of a level
func Dir(parent, prefix string, i int) string {
	return filepath.Join(parent, prefix+strconv.Itoa(i))
}

// ============================================================================
// REPS LEVEL
// ============================================================================

// SampleReps invokes the sampler once per rep of one configuration, writing
// rep j into dir/rep{j} with seed BaseSeed+j. It blocks until every rep has
// finished; failed reps are reported together as *core.RepFailures.
func (h *Hierarchy) SampleReps(ctx context.Context, model experiment.Model, config experiment.Configuration, dir string) error {
	if h.sampler == nil {
		return fmt.Errorf("no sampler configured")
	}
	if err := h.pruneReps(dir); err != nil {
		return err
	}
	h.logger.Info("Sampling %d reps of %s into %s (%s)", h.config.Reps, model.Name, dir, h.executor.Name())
	return h.executor.RunReps(ctx, h.config.Reps, func(ctx context.Context, rep int) error {
		return h.sampler.Run(ctx, ports.SamplerJob{
			Model:         model.Name,
			Command:       model.Command,
			Parameters:    config.Parameters,
			InitialValues: config.InitialValues,
			ResultsDir:    Dir(dir, RepDirPrefix, rep),
			Rep:           rep,
			Seed:          execution.Seed(h.config.BaseSeed, rep),
		})
	})
}

// Load reads the draws of one result directory
func (h *Hierarchy) Load(ctx context.Context, dir string) (*draws.Frame, error) {
	return h.loader.Load(ctx, dir)
}

// RunTable loads one result directory and returns its run statistics table
func (h *Hierarchy) RunTable(ctx context.Context, dir string) (*stats.Table, *stats.RunStatistics, error) {
	frame, err := h.Load(ctx, dir)
	if err != nil {
		return nil, nil, err
	}
	rs, err := diagnostics.RunStatistics(frame, h.config.Selection)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", dir, err)
	}
	return rs.Table(), rs, nil
}

// SummariseReps aggregates the existing rep subdirectories of dir: each is
// tagged with its Rep number (discovery order, from 1), and every statistic
// is reduced to its mean and sd across reps. With truth, Bias and RMSE
// columns are appended and Chain is no longer a key.
func (h *Hierarchy) SummariseReps(ctx context.Context, dir string, truth *stats.GroundTruth) (*stats.Table, error) {
	start := time.Now()
	dirs, err := h.lister.ListSubdirectories(dir)
	if err != nil {
		return nil, err
	}
	if len(dirs) == 0 {
		return nil, fmt.Errorf("%w: no rep directories in %s", core.ErrEmptyInput, dir)
	}

	tables := make([]*stats.Table, len(dirs))
	cols := make([][]stats.Column, len(dirs))
	vals := make([][]stats.Cell, len(dirs))
	var keys []string
	for i, d := range dirs {
		t, rs, err := h.RunTable(ctx, d)
		if err != nil {
			return nil, err
		}
		if keys == nil {
			for _, c := range rs.KeyColumns() {
				if truth != nil && c.Name == stats.ColChain {
					continue
				}
				keys = append(keys, c.Name)
			}
		}
		tables[i] = t
		cols[i] = []stats.Column{stats.NumberColumn(stats.ColRep)}
		vals[i] = []stats.Cell{stats.Int(i + 1)}
	}

	perRep, err := Prepend(tables, cols, vals)
	if err != nil {
		return nil, err
	}
	summary, err := Summarise(perRep, keys, []string{stats.ColRep, stats.ColChain}, truth)
	if err != nil {
		return nil, err
	}
	h.logger.Debug("%d reps of %s summarised in %v (%d rows)", len(dirs), dir, time.Since(start), summary.NumRows())
	return summary, nil
}

// pruneReps removes rep{k} directories with k beyond the configured rep
// count, left behind by an earlier run with more reps
func (h *Hierarchy) pruneReps(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to list %s: %w", dir, err)
	}
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), RepDirPrefix) {
			continue
		}
		k, err := strconv.Atoi(strings.TrimPrefix(e.Name(), RepDirPrefix))
		if err != nil || k <= h.config.Reps {
			continue
		}
		h.logger.Warn("Removing stale %s from %s", e.Name(), dir)
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return fmt.Errorf("failed to remove stale rep %s: %w", e.Name(), err)
		}
	}
	return nil
}

// OverReps samples every rep of a configuration and summarises them
func (h *Hierarchy) OverReps(ctx context.Context, model experiment.Model, config experiment.Configuration, dir string, truth *stats.GroundTruth) (*stats.Table, error) {
	if err := h.SampleReps(ctx, model, config, dir); err != nil {
		return nil, fmt.Errorf("model %s: %w", model.Name, err)
	}
	return h.SummariseReps(ctx, dir, truth)
}

// ============================================================================
// PARAMETER-SET LEVEL
// ============================================================================

// SummariseParameterSets aggregates the existing parameters{i} directories of
// a model, prepending each configuration's flattened parameter columns. The
// number of directories must equal the number of configurations.
func (h *Hierarchy) SummariseParameterSets(ctx context.Context, model experiment.Model, dir string) (*stats.Table, error) {
	dirs, err := h.lister.ListSubdirectories(dir)
	if err != nil {
		return nil, err
	}
	if len(dirs) != len(model.Configurations) {
		return nil, core.NewConfigurationCountMismatchError(len(dirs), len(model.Configurations))
	}

	tables := make([]*stats.Table, len(dirs))
	cols := make([][]stats.Column, len(dirs))
	vals := make([][]stats.Cell, len(dirs))
	for i, d := range dirs {
		t, err := h.SummariseReps(ctx, d, model.Truth(i))
		if err != nil {
			return nil, fmt.Errorf("model %s parameter set %d: %w", model.Name, i+1, err)
		}
		tables[i] = t
		cols[i], vals[i] = model.Configurations[i].Parameters.Columns()
	}
	return Prepend(tables, cols, vals)
}

// OverParameterSets samples every configuration of a model in order, then
// summarises them
func (h *Hierarchy) OverParameterSets(ctx context.Context, model experiment.Model, dir string) (*stats.Table, error) {
	for i, config := range model.Configurations {
		if err := h.sampleConfiguration(ctx, model, i, config, dir); err != nil {
			return nil, err
		}
	}
	return h.SummariseParameterSets(ctx, model, dir)
}

func (h *Hierarchy) sampleConfiguration(ctx context.Context, model experiment.Model, i int, config experiment.Configuration, dir string) error {
	h.logger.Info("%s parameter set %d/%d", model.Name, i+1, len(model.Configurations))
	if err := h.SampleReps(ctx, model, config, Dir(dir, ParameterDirPrefix, i+1)); err != nil {
		return fmt.Errorf("model %s parameter set %d: %w", model.Name, i+1, err)
	}
	return nil
}

// ============================================================================
// MODEL LEVEL
// ============================================================================

// SummariseModels aggregates the existing model{i} directories, prepending
// a Method column holding each model's name
func (h *Hierarchy) SummariseModels(ctx context.Context, models []experiment.Model, dir string) (*stats.Table, error) {
	dirs, err := h.lister.ListSubdirectories(dir)
	if err != nil {
		return nil, err
	}
	if len(dirs) != len(models) {
		return nil, core.NewConfigurationCountMismatchError(len(dirs), len(models))
	}

	tables := make([]*stats.Table, len(dirs))
	cols := make([][]stats.Column, len(dirs))
	vals := make([][]stats.Cell, len(dirs))
	for i, d := range dirs {
		t, err := h.SummariseParameterSets(ctx, models[i], d)
		if err != nil {
			return nil, err
		}
		tables[i] = t
		cols[i] = []stats.Column{stats.StringColumn(stats.ColMethod)}
		vals[i] = []stats.Cell{stats.Str(models[i].Name)}
	}
	return Prepend(tables, cols, vals)
}

// OverModels runs the whole experiment: every model, every configuration,
// every rep, then the three rollups
func (h *Hierarchy) OverModels(ctx context.Context, models []experiment.Model, dir string) (*stats.Table, error) {
	start := time.Now()
	for i, m := range models {
		modelDir := Dir(dir, ModelDirPrefix, i+1)
		h.logger.Info("Model %d/%d: %s", i+1, len(models), m.Name)
		for j, config := range m.Configurations {
			if err := h.sampleConfiguration(ctx, m, j, config, modelDir); err != nil {
				return nil, err
			}
		}
	}
	t, err := h.SummariseModels(ctx, models, dir)
	if err != nil {
		return nil, err
	}
	h.logger.Info("Experiment aggregated in %v (%d rows)", time.Since(start), t.NumRows())
	return t, nil
}
