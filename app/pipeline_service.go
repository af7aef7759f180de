package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"mcmcstats/adapters/output"
	"mcmcstats/domain/draws"
	"mcmcstats/domain/experiment"
	"mcmcstats/domain/run"
	"mcmcstats/domain/stats"
	"mcmcstats/internal"
	"mcmcstats/internal/aggregation"
	"mcmcstats/internal/errors"
	"mcmcstats/internal/plotting"
	"mcmcstats/internal/profiling"
	"mcmcstats/internal/report"
	"mcmcstats/ports"
)

// Layout of an experiment results directory
const (
	RunsDir        = "runs"
	PlotsDir       = "plots"
	StatisticsName = "statistics"
)

// PipelineOptions selects output formats
type PipelineOptions struct {
	TableFormat string // csv or xlsx
	PlotFormat  string // png, svg or pdf
}

// PipelineService runs experiments end to end: sampling, the three rollups,
// then the table, plots, report and optional database copy.
type PipelineService struct {
	hierarchy *aggregation.Hierarchy
	renderer  ports.ChartRendererPort
	repo      ports.StatisticsRepository
	options   PipelineOptions
	logger    *internal.Logger
}

// NewPipelineService creates a pipeline service; renderer and repo may be nil
func NewPipelineService(hierarchy *aggregation.Hierarchy, renderer ports.ChartRendererPort, repo ports.StatisticsRepository, options PipelineOptions) *PipelineService {
	if options.TableFormat == "" {
		options.TableFormat = "csv"
	}
	if options.PlotFormat == "" {
		options.PlotFormat = "png"
	}
	return &PipelineService{
		hierarchy: hierarchy,
		renderer:  renderer,
		repo:      repo,
		options:   options,
		logger:    internal.DefaultLogger.Component("Pipeline"),
	}
}

// RunResult describes what RunExperiment produced
type RunResult struct {
	Manifest  *run.Manifest
	Table     *stats.Table
	TablePath string
	Charts    []string
	ReportDir string
}

// RunExperiment executes exp into dir. doc is the experiment file as read,
// fingerprinted into the manifest.
func (s *PipelineService) RunExperiment(ctx context.Context, exp *experiment.Experiment, doc []byte, dir string) (*RunResult, error) {
	start := time.Now()
	cfg := s.hierarchy.Config()
	manifest := run.NewManifest(exp.Name, exp.ModelNames(), doc, cfg.BaseSeed, cfg.Reps, s.hierarchy.Executor().Name())
	if err := manifest.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid manifest")
	}
	if err := manifest.Write(dir); err != nil {
		return nil, errors.Wrap(err, "failed to write manifest")
	}
	s.logger.Info("Run %s: %d models, %d reps, seed %d", manifest.RunID, len(exp.Models), cfg.Reps, cfg.BaseSeed)

	t, err := s.hierarchy.OverModels(ctx, exp.Models, filepath.Join(dir, RunsDir))
	if err != nil {
		return nil, err
	}

	result := &RunResult{Manifest: manifest, Table: t, ReportDir: dir}
	result.TablePath = filepath.Join(dir, StatisticsName+"."+s.options.TableFormat)
	if err := output.WriteTable(result.TablePath, t); err != nil {
		return nil, errors.Wrap(err, "failed to write statistics table")
	}

	if s.repo != nil {
		if err := s.repo.SaveTable(ctx, manifest.RunID, StatisticsName, t); err != nil {
			return nil, errors.Wrap(err, "failed to persist statistics table")
		}
		s.logger.Debug("Stored %s for run %s", StatisticsName, manifest.RunID)
	}

	for _, spec := range exp.Plots {
		path := filepath.Join(dir, PlotsDir, spec.Name+"."+s.options.PlotFormat)
		if err := s.Plot(ctx, t, spec, path); err != nil {
			return nil, err
		}
		rel, _ := filepath.Rel(dir, path)
		result.Charts = append(result.Charts, filepath.ToSlash(rel))
	}

	r := report.Report{Title: exp.Name, Manifest: manifest, Table: t, Charts: result.Charts}
	if err := r.Write(dir); err != nil {
		return nil, errors.Wrap(err, "failed to write report")
	}

	s.logger.Info("Run %s finished in %v", manifest.RunID, time.Since(start))
	return result, nil
}

// SummariseRun computes the run statistics of one existing result directory
func (s *PipelineService) SummariseRun(ctx context.Context, dir string) (*stats.Table, error) {
	t, _, err := s.hierarchy.RunTable(ctx, dir)
	return t, err
}

// ProfileRun describes the posterior shape of every marginal of one result directory
func (s *PipelineService) ProfileRun(ctx context.Context, dir string) (*stats.Table, error) {
	frame, err := s.hierarchy.Load(ctx, dir)
	if err != nil {
		return nil, err
	}
	shapes, err := profiling.Profile(frame, s.hierarchy.Config().Selection)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", dir, err)
	}
	return profiling.Table(shapes, frame.Schema().Has(draws.FieldExternalIndex)), nil
}

// SummariseReps rolls up existing rep directories under dir
func (s *PipelineService) SummariseReps(ctx context.Context, dir string, truth *stats.GroundTruth) (*stats.Table, error) {
	return s.hierarchy.SummariseReps(ctx, dir, truth)
}

// Plot renders one plot of t to path
func (s *PipelineService) Plot(ctx context.Context, t *stats.Table, spec experiment.PlotSpec, path string) error {
	if s.renderer == nil {
		return errors.InternalError("no chart renderer configured")
	}
	c, err := plotting.Render(t, plotting.Encoding{
		X:        spec.X,
		Y:        spec.Y,
		Colour:   spec.Colour,
		Linetype: spec.Linetype,
		LogX:     spec.LogX,
		LogY:     spec.LogY,
	})
	if err != nil {
		return fmt.Errorf("plot %s: %w", spec.Name, err)
	}
	c.Title = spec.Name
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return s.renderer.Render(ctx, c, path)
}
