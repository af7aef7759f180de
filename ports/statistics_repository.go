package ports

import (
	"context"

	"mcmcstats/domain/core"
	"mcmcstats/domain/stats"
)

// StatisticsRepository persists aggregated statistics tables per run
type StatisticsRepository interface {
	SaveTable(ctx context.Context, runID core.RunID, name string, table *stats.Table) error
	LoadTable(ctx context.Context, runID core.RunID, name string) (*stats.Table, error)
	ListTables(ctx context.Context, runID core.RunID) ([]string, error)
}
