package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"mcmcstats/adapters/output"
	"mcmcstats/adapters/plot"
	"mcmcstats/app"
	"mcmcstats/domain/draws"
	"mcmcstats/domain/experiment"
	"mcmcstats/domain/stats"
	"mcmcstats/internal/aggregation"
	"mcmcstats/internal/execution"
	"mcmcstats/internal/testkit"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "mcmcstats-dev",
		Short: "mcmcstats development tools",
	}

	rootCmd.AddCommand(
		newSeedCmd(),
		newDemoCmd(),
		newDeterminismTestCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// demoExperiment compares two AR(1) "samplers" with different
// autocorrelation over a grid of stationary means
func demoExperiment() *experiment.Experiment {
	model := func(name string, phi float64) experiment.Model {
		m := experiment.Model{Name: name}
		for _, mu := range []float64{0, 1, 2, 4} {
			m.Configurations = append(m.Configurations, experiment.Configuration{
				Parameters: experiment.ParameterSet{
					{Name: "mu", Values: []float64{mu}},
					{Name: "phi", Values: []float64{phi}},
				},
				GroundTruth: []stats.TruthEntry{
					{ParameterName: "mu", Dimension: 1, Mean: stats.Float(mu), SD: stats.Float(1)},
				},
			})
		}
		return m
	}
	return &experiment.Experiment{
		Name:     "ar1-demo",
		BaseSeed: 1,
		Reps:     5,
		Models:   []experiment.Model{model("fast-mixing", 0.2), model("slow-mixing", 0.9)},
		Plots: []experiment.PlotSpec{
			{Name: "ess", X: "mu", Y: "ESS_mean", Colour: "Method"},
			{Name: "bias", X: "mu", Y: "Mean_RMSE", Colour: "Method", LogY: true},
		},
	}
}

func newPipeline(reps int, seed int64, parallel bool) (*app.PipelineService, error) {
	strategy := execution.StrategySequential
	if parallel {
		strategy = execution.StrategyParallel
	}
	executor, err := execution.New(strategy, 0)
	if err != nil {
		return nil, err
	}
	h := aggregation.New(testkit.NewAR1Sampler(2000, 1.5), output.NewLoader(""), output.FSLister{}, executor, aggregation.Config{
		BaseSeed:  seed,
		Reps:      reps,
		Selection: draws.DefaultSelection(),
	})
	return app.NewPipelineService(h, plot.NewRenderer(), nil, app.PipelineOptions{}), nil
}

func newSeedCmd() *cobra.Command {
	var reps, iterations, chains int
	var seed int64

	cmd := &cobra.Command{
		Use:   "seed [dir]",
		Short: "Write synthetic rep directories for the reps command",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for rep := 1; rep <= reps; rep++ {
				f, err := testkit.NewChainGenerator(testkit.ChainGeneratorConfig{
					Iterations: iterations,
					Chains:     chains,
					Parameters: []testkit.ParameterSpec{
						{Name: "theta", Dimensions: 2, Mean: []float64{0, 3}, Phi: 0.6, Scale: 1},
						{Name: "sigma", Dimensions: 1, Mean: []float64{1}, Phi: 0.3, Scale: 0.2},
					},
					Time: 2,
					Seed: execution.Seed(seed, rep),
				}).Generate()
				if err != nil {
					return err
				}
				if err := testkit.WriteRun(aggregation.Dir(args[0], aggregation.RepDirPrefix, rep), f); err != nil {
					return err
				}
			}
			fmt.Printf("Wrote %d reps to %s\n", reps, args[0])
			return nil
		},
	}

	cmd.Flags().IntVar(&reps, "reps", 5, "Number of rep directories")
	cmd.Flags().IntVar(&iterations, "iterations", 1000, "Iterations per chain")
	cmd.Flags().IntVar(&chains, "chains", 2, "Chains per rep")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Base seed")
	return cmd
}

func newDemoCmd() *cobra.Command {
	var out string
	var parallel bool

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a synthetic experiment end to end",
		RunE: func(cmd *cobra.Command, args []string) error {
			exp := demoExperiment()
			pipeline, err := newPipeline(exp.Reps, exp.BaseSeed, parallel)
			if err != nil {
				return err
			}
			result, err := pipeline.RunExperiment(cmd.Context(), exp, []byte(exp.Name), out)
			if err != nil {
				return err
			}
			fmt.Printf("Run %s: %d rows\n", result.Manifest.RunID, result.Table.NumRows())
			fmt.Printf("Report: %s\n", filepath.Join(out, "report.html"))
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "demo-results", "Results directory")
	cmd.Flags().BoolVar(&parallel, "parallel", true, "Run reps in parallel")
	return cmd
}

func newDeterminismTestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "determinism",
		Short: "Check that equal seeds reproduce identical tables under both strategies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return testDeterminism(cmd.Context())
		},
	}
	return cmd
}

func testDeterminism(ctx context.Context) error {
	exp := demoExperiment()
	exp.Plots = nil

	var tables []*stats.Table
	for _, parallel := range []bool{false, true} {
		dir, err := os.MkdirTemp("", "mcmcstats-determinism-")
		if err != nil {
			return err
		}
		defer os.RemoveAll(dir)

		pipeline, err := newPipeline(exp.Reps, exp.BaseSeed, parallel)
		if err != nil {
			return err
		}
		result, err := pipeline.RunExperiment(ctx, exp, []byte(exp.Name), dir)
		if err != nil {
			return err
		}
		tables = append(tables, result.Table)
	}

	if err := compareTables(tables[0], tables[1]); err != nil {
		return fmt.Errorf("determinism check failed: %w", err)
	}
	fmt.Println("Sequential and parallel runs produced identical tables")
	return nil
}

// compareTables compares every cell by its formatted text
func compareTables(a, b *stats.Table) error {
	if a.NumRows() != b.NumRows() {
		return fmt.Errorf("row counts differ: %d vs %d", a.NumRows(), b.NumRows())
	}
	names := a.Names()
	if len(names) != len(b.Names()) {
		return fmt.Errorf("column counts differ: %d vs %d", len(names), len(b.Names()))
	}
	for r := 0; r < a.NumRows(); r++ {
		for c, col := range a.Columns() {
			x, y := a.Cell(r, c).Format(col.Kind), b.Cell(r, c).Format(col.Kind)
			if x != y {
				return fmt.Errorf("row %d column %s: %s vs %s", r+1, col.Name, x, y)
			}
		}
	}
	return nil
}
