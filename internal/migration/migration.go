package migration

import (
	"context"

	"mcmcstats/internal/errors"

	"github.com/jmoiron/sqlx"
)

// Migrator defines the interface for database migration operations
type Migrator interface {
	Run(ctx context.Context, db *sqlx.DB) error
	Version() string
}

// MigrationRunner creates the statistics schema. The DDL is kept to the
// subset shared by PostgreSQL and SQLite.
type MigrationRunner struct {
	version string
}

// NewRunner creates a new migration runner
func NewRunner() *MigrationRunner {
	return &MigrationRunner{version: "1.0.0"}
}

// Version returns the migration version
func (r *MigrationRunner) Version() string {
	return r.version
}

// Run executes all database migrations in order; each step is idempotent
func (r *MigrationRunner) Run(ctx context.Context, db *sqlx.DB) error {
	if err := r.createStatisticsTablesTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create statistics_tables table")
	}
	if err := r.createStatisticsCellsTable(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create statistics_cells table")
	}
	if err := r.createIndexes(ctx, db); err != nil {
		return errors.Wrap(err, "failed to create indexes")
	}
	return nil
}

func (r *MigrationRunner) createStatisticsTablesTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS statistics_tables (
			run_id VARCHAR(64) NOT NULL,
			name VARCHAR(255) NOT NULL,
			columns TEXT NOT NULL,
			num_rows INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL,
			PRIMARY KEY (run_id, name)
		)
	`)
	return err
}

// Cells are stored long-format. value_text holds the exact value (NA and
// Inf included); value_num is NULL for strings and non-finite numbers.
func (r *MigrationRunner) createStatisticsCellsTable(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS statistics_cells (
			run_id VARCHAR(64) NOT NULL,
			name VARCHAR(255) NOT NULL,
			row_index INTEGER NOT NULL,
			column_index INTEGER NOT NULL,
			column_name VARCHAR(255) NOT NULL,
			value_text TEXT NOT NULL,
			value_num DOUBLE PRECISION,
			PRIMARY KEY (run_id, name, row_index, column_index)
		)
	`)
	return err
}

func (r *MigrationRunner) createIndexes(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS idx_statistics_cells_column
		ON statistics_cells (run_id, name, column_name)
	`)
	return err
}
