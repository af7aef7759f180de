package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"mcmcstats/adapters/output"
	"mcmcstats/domain/draws"
	"mcmcstats/domain/experiment"
	"mcmcstats/domain/stats"
	"mcmcstats/internal/config"
	"mcmcstats/internal/container"
	"mcmcstats/internal/report"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	_ "modernc.org/sqlite"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "mcmcstats",
		Short: "Run MCMC/SMC experiments and aggregate their statistics",
	}

	rootCmd.AddCommand(
		newSummarizeCmd(),
		newProfileCmd(),
		newRepsCmd(),
		newRunCmd(),
		newPlotCmd(),
		newReportCmd(),
		newMigrateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type selectionFlags struct {
	chain, rep, externalIndex int
}

func (s *selectionFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&s.chain, "chain", 1, "Chain to summarise")
	cmd.Flags().IntVar(&s.rep, "rep", 1, "Rep label recorded when the output has no Rep column")
	cmd.Flags().IntVar(&s.externalIndex, "external-index", 1, "External target index, when present")
}

func (s *selectionFlags) selection() draws.Selection {
	return draws.Selection{Chain: s.chain, Rep: s.rep, ExternalIndex: s.externalIndex}
}

func loadContainer(ctx context.Context) (*container.Container, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	c, err := container.New(cfg)
	if err != nil {
		return nil, err
	}
	if err := c.Connect(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// emit writes t to out, or prints it as a markdown table when out is empty
func emit(t *stats.Table, out string) error {
	if out == "" {
		_, err := os.Stdout.Write(report.Report{Table: t}.Markdown())
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return err
	}
	if err := output.WriteTable(out, t); err != nil {
		return err
	}
	fmt.Printf("Wrote %d rows to %s\n", t.NumRows(), out)
	return nil
}

func newSummarizeCmd() *cobra.Command {
	var sel selectionFlags
	var out string

	cmd := &cobra.Command{
		Use:   "summarize [results-dir]",
		Short: "Compute run statistics for one sampler output directory",
		Long: `Compute marginal statistics, ESS, multivariate ESS and timing rates for one
chain of one sampler output directory.

Example: mcmcstats summarize results/model1/parameters1/rep1 --chain 2 --out run.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			t, err := c.Pipeline(c.Hierarchy(0, 0, sel.selection())).SummariseRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return emit(t, out)
		},
	}

	sel.register(cmd)
	cmd.Flags().StringVar(&out, "out", "", "Write the table to a .csv or .xlsx file instead of stdout")
	return cmd
}

func newProfileCmd() *cobra.Command {
	var sel selectionFlags
	var out string

	cmd := &cobra.Command{
		Use:   "profile [results-dir]",
		Short: "Describe the posterior shape of every marginal of one output directory",
		Long: `Report quantiles, the 95% credible interval, skewness, excess kurtosis,
a Jarque-Bera normality p-value and an IQR outlier count per marginal.

Example: mcmcstats profile results/model1/parameters1/rep1 --out shape.xlsx`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			t, err := c.Pipeline(c.Hierarchy(0, 0, sel.selection())).ProfileRun(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return emit(t, out)
		},
	}

	sel.register(cmd)
	cmd.Flags().StringVar(&out, "out", "", "Write the table to a .csv or .xlsx file instead of stdout")
	return cmd
}

func newRepsCmd() *cobra.Command {
	var sel selectionFlags
	var out, truthFile string

	cmd := &cobra.Command{
		Use:   "reps [parameter-set-dir]",
		Short: "Aggregate existing rep directories of one parameter set",
		Long: `Aggregate the rep subdirectories of a parameter-set directory into mean and sd
across reps. With --truth, Bias and RMSE columns are added for Mean, SD and Var.

The truth file is a YAML list:
  - {parameter: x, dimension: 1, mean: 0, sd: 1}

Example: mcmcstats reps results/model1/parameters1 --truth truth.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var truth *stats.GroundTruth
			if truthFile != "" {
				var err error
				if truth, err = readTruth(truthFile); err != nil {
					return err
				}
			}

			c, err := loadContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			t, err := c.Pipeline(c.Hierarchy(0, 0, sel.selection())).SummariseReps(cmd.Context(), args[0], truth)
			if err != nil {
				return err
			}
			return emit(t, out)
		},
	}

	sel.register(cmd)
	cmd.Flags().StringVar(&out, "out", "", "Write the table to a .csv or .xlsx file instead of stdout")
	cmd.Flags().StringVar(&truthFile, "truth", "", "YAML file of ground-truth entries")
	return cmd
}

func readTruth(path string) (*stats.GroundTruth, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []stats.TruthEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("invalid truth file %s: %w", path, err)
	}
	return stats.NewGroundTruth(entries), nil
}

func newRunCmd() *cobra.Command {
	var sel selectionFlags
	var out, strategy string
	var seed int64
	var reps, workers int

	cmd := &cobra.Command{
		Use:   "run [experiment.yaml]",
		Short: "Sample and aggregate a whole experiment",
		Long: `Run every model, parameter set and rep of an experiment through its sampler
command, then aggregate reps, parameter sets and models into one table.

Each rep gets seed base_seed + rep. The results directory receives
manifest.json, runs/, statistics.csv (or .xlsx), plots/ and report.{md,html}.
Flags override the environment; values in the experiment file override both.

Example: mcmcstats run experiment.yaml --reps 10 --strategy parallel --out results/scaling`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			exp, err := experiment.Parse(doc)
			if err != nil {
				return err
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("strategy") {
				cfg.Execution.Strategy = strategy
			}
			if cmd.Flags().Changed("workers") {
				cfg.Execution.Workers = workers
			}
			if cmd.Flags().Changed("seed") {
				cfg.Execution.BaseSeed = seed
			}
			if cmd.Flags().Changed("reps") {
				cfg.Execution.Reps = reps
			}
			if exp.BaseSeed != 0 {
				cfg.Execution.BaseSeed = exp.BaseSeed
			}
			if exp.Reps != 0 {
				cfg.Execution.Reps = exp.Reps
			}

			c, err := container.New(cfg)
			if err != nil {
				return err
			}
			if err := c.Connect(cmd.Context()); err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			if out == "" {
				name := exp.Name
				if name == "" {
					name = "experiment"
				}
				out = filepath.Join(cfg.Paths.ResultsDir, name)
			}

			result, err := c.Pipeline(c.Hierarchy(0, 0, sel.selection())).RunExperiment(cmd.Context(), exp, doc, out)
			if err != nil {
				return err
			}
			fmt.Printf("Run %s: %d rows -> %s\n", result.Manifest.RunID, result.Table.NumRows(), result.TablePath)
			for _, chart := range result.Charts {
				fmt.Printf("  chart %s\n", filepath.Join(out, chart))
			}
			return nil
		},
	}

	sel.register(cmd)
	cmd.Flags().StringVar(&out, "out", "", "Results directory (default RESULTS_DIR/<experiment name>)")
	cmd.Flags().StringVar(&strategy, "strategy", config.StrategySequential, "Rep execution strategy: sequential|parallel")
	cmd.Flags().IntVar(&workers, "workers", 0, "Parallel workers (0 = number of CPUs)")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Base seed")
	cmd.Flags().IntVar(&reps, "reps", 1, "Reps per parameter set")
	return cmd
}

func newPlotCmd() *cobra.Command {
	var spec experiment.PlotSpec
	var out string

	cmd := &cobra.Command{
		Use:   "plot [table]",
		Short: "Draw a line graph from an aggregated table",
		Long: `Draw one column of an aggregated table against another. Rows are split into
lines by the identifying columns and the optional colour and linetype columns.

Example: mcmcstats plot statistics.csv --x sigma --y ESSPerSecond_mean --colour Method --log-y --out ess.svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := output.ReadTable(args[0])
			if err != nil {
				return err
			}
			c, err := loadContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())

			if out == "" {
				out = spec.Y + "." + c.Config.Output.PlotFormat
			}
			spec.Name = spec.Y + " vs " + spec.X
			if err := c.Pipeline(c.Hierarchy(0, 0, draws.DefaultSelection())).Plot(cmd.Context(), t, spec, out); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&spec.X, "x", "", "Column on the x axis")
	cmd.Flags().StringVar(&spec.Y, "y", "", "Column on the y axis")
	cmd.Flags().StringVar(&spec.Colour, "colour", "", "Column mapped to line colour")
	cmd.Flags().StringVar(&spec.Linetype, "linetype", "", "Column mapped to line dashes")
	cmd.Flags().BoolVar(&spec.LogX, "log-x", false, "Natural-log x axis")
	cmd.Flags().BoolVar(&spec.LogY, "log-y", false, "Natural-log y axis")
	cmd.Flags().StringVar(&out, "out", "", "Output file; the extension selects png, svg or pdf")
	_ = cmd.MarkFlagRequired("x")
	_ = cmd.MarkFlagRequired("y")
	return cmd
}

func newReportCmd() *cobra.Command {
	var title, out string
	var charts []string

	cmd := &cobra.Command{
		Use:   "report [table]",
		Short: "Render an aggregated table as markdown and HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := output.ReadTable(args[0])
			if err != nil {
				return err
			}
			if title == "" {
				title = filepath.Base(args[0])
			}
			if err := (report.Report{Title: title, Table: t, Charts: charts}).Write(out); err != nil {
				return err
			}
			fmt.Printf("Wrote %s and %s\n", filepath.Join(out, "report.md"), filepath.Join(out, "report.html"))
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Report title (default: table file name)")
	cmd.Flags().StringVar(&out, "out", ".", "Directory for report.md and report.html")
	cmd.Flags().StringSliceVar(&charts, "chart", nil, "Chart image to embed, relative to --out (repeatable)")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the statistics tables in DATABASE_URL",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadContainer(cmd.Context())
			if err != nil {
				return err
			}
			defer c.Shutdown(cmd.Context())
			if c.DB == nil {
				return fmt.Errorf("DATABASE_URL is not set")
			}
			fmt.Println("Database schema is up to date")
			return nil
		},
	}
}
