package container

import (
	"context"
	"fmt"

	"mcmcstats/adapters/output"
	"mcmcstats/adapters/plot"
	"mcmcstats/adapters/postgres"
	"mcmcstats/adapters/sampler"
	"mcmcstats/app"
	"mcmcstats/internal"
	"mcmcstats/domain/draws"
	"mcmcstats/internal/aggregation"
	"mcmcstats/internal/config"
	"mcmcstats/internal/execution"
	"mcmcstats/internal/migration"
	"mcmcstats/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config

	// Infrastructure
	DB *sqlx.DB

	// Repositories (data access layer); nil without a database
	StatisticsRepo ports.StatisticsRepository

	// Collaborators
	Sampler  ports.SamplerPort
	Loader   ports.RunLoaderPort
	Lister   ports.DirectoryListerPort
	Executor ports.ExecutorPort
	Renderer ports.ChartRendererPort
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	executor, err := execution.New(cfg.Execution.Strategy, cfg.Execution.Workers)
	if err != nil {
		return nil, fmt.Errorf("failed to create executor: %w", err)
	}

	return &Container{
		Config:   cfg,
		Sampler:  sampler.NewCommand(),
		Loader:   output.NewLoader(cfg.Paths.DrawsFile),
		Lister:   output.FSLister{},
		Executor: executor,
		Renderer: plot.NewRenderer(),
	}, nil
}

// Connect opens the configured database, if any, and initializes the
// repositories. Without DATABASE_URL it does nothing.
func (c *Container) Connect(ctx context.Context) error {
	if !c.Config.Database.Enabled() {
		return nil
	}
	db, err := sqlx.ConnectContext(ctx, c.Config.Database.Driver, c.Config.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	return c.InitWithDatabase(ctx, db)
}

// InitWithDatabase migrates the schema and initializes components that
// require database access
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	c.DB = db

	// Test database connection
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	runner := migration.NewRunner()
	if err := runner.Run(ctx, db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	c.StatisticsRepo = postgres.NewStatisticsRepository(db)
	internal.DefaultLogger.Component("Container").Info("Initialized with database (schema %s)", runner.Version())
	return nil
}

// Hierarchy builds an aggregation hierarchy. Zero seed and reps fall back
// to the configured values.
func (c *Container) Hierarchy(baseSeed int64, reps int, selection draws.Selection) *aggregation.Hierarchy {
	if baseSeed == 0 {
		baseSeed = c.Config.Execution.BaseSeed
	}
	if reps == 0 {
		reps = c.Config.Execution.Reps
	}
	return aggregation.New(c.Sampler, c.Loader, c.Lister, c.Executor, aggregation.Config{
		BaseSeed:  baseSeed,
		Reps:      reps,
		Selection: selection,
	})
}

// Pipeline wires a pipeline service over a hierarchy
func (c *Container) Pipeline(h *aggregation.Hierarchy) *app.PipelineService {
	return app.NewPipelineService(h, c.Renderer, c.StatisticsRepo, app.PipelineOptions{
		TableFormat: c.Config.Output.TableFormat,
		PlotFormat:  c.Config.Output.PlotFormat,
	})
}

// Shutdown releases the database connection
func (c *Container) Shutdown(ctx context.Context) error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
