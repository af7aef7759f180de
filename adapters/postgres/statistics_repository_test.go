package postgres

import (
	"context"
	"math"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"mcmcstats/domain/core"
	"mcmcstats/domain/stats"
	"mcmcstats/internal/errors"
	"mcmcstats/internal/migration"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
	db, err := sqlx.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, migration.NewRunner().Run(context.Background(), db))
	return db
}

func statsTable(t *testing.T, rows int) *stats.Table {
	cols := []stats.Column{stats.StringColumn("Method"), stats.NumberColumn("sigma"), stats.NumberColumn("ESS_mean")}
	var cells [][]stats.Cell
	for i := 0; i < rows; i++ {
		cells = append(cells, []stats.Cell{stats.Str("rwm"), stats.Num(float64(i) / 3), stats.Num(float64(i) * 1.5)})
	}
	if rows > 1 {
		cells[0][2] = stats.Num(math.NaN())
		cells[1][2] = stats.Num(math.Inf(1))
	}
	tbl, err := stats.NewTable(cols, cells)
	require.NoError(t, err)
	return tbl
}

func TestStatisticsRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewStatisticsRepository(newTestDB(t))
	runID := core.NewRunID()

	in := statsTable(t, 700)
	require.NoError(t, repo.SaveTable(ctx, runID, "models", in))

	out, err := repo.LoadTable(ctx, runID, "models")
	require.NoError(t, err)
	assert.Equal(t, in.Columns(), out.Columns())
	require.Equal(t, 700, out.NumRows())

	v, err := out.Float(0, "ESS_mean")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(v))
	v, err = out.Float(1, "ESS_mean")
	require.NoError(t, err)
	assert.True(t, math.IsInf(v, 1))
	v, err = out.Float(699, "sigma")
	require.NoError(t, err)
	assert.Equal(t, 699.0/3, v, "values round-trip exactly")
}

func TestStatisticsRepository_Replace(t *testing.T) {
	ctx := context.Background()
	repo := NewStatisticsRepository(newTestDB(t))
	runID := core.NewRunID()

	require.NoError(t, repo.SaveTable(ctx, runID, "reps", statsTable(t, 5)))
	require.NoError(t, repo.SaveTable(ctx, runID, "reps", statsTable(t, 2)))
	require.NoError(t, repo.SaveTable(ctx, runID, "models", statsTable(t, 1)))

	out, err := repo.LoadTable(ctx, runID, "reps")
	require.NoError(t, err)
	assert.Equal(t, 2, out.NumRows())

	names, err := repo.ListTables(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, []string{"models", "reps"}, names)

	_, err = repo.LoadTable(ctx, core.NewRunID(), "reps")
	require.Error(t, err)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
	assert.Contains(t, err.Error(), `statistics table "reps"`)
}
