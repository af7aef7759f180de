package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcmcstats/internal/errors"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"RESULTS_DIR", "DRAWS_FILE", "BASE_SEED", "REPS", "EXECUTION_STRATEGY",
		"WORKERS", "TABLE_FORMAT", "PLOT_FORMAT", "DATABASE_DRIVER", "DATABASE_URL"} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "./results", cfg.Paths.ResultsDir)
	assert.Equal(t, "draws.csv", cfg.Paths.DrawsFile)
	assert.Equal(t, int64(1), cfg.Execution.BaseSeed)
	assert.Equal(t, 1, cfg.Execution.Reps)
	assert.Equal(t, StrategySequential, cfg.Execution.Strategy)
	assert.Equal(t, "png", cfg.Output.PlotFormat)
	assert.False(t, cfg.Database.Enabled())
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("BASE_SEED", "1234")
	t.Setenv("REPS", "20")
	t.Setenv("EXECUTION_STRATEGY", "Parallel")
	t.Setenv("WORKERS", "4")
	t.Setenv("PLOT_FORMAT", "svg")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "file:stats.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int64(1234), cfg.Execution.BaseSeed)
	assert.Equal(t, 20, cfg.Execution.Reps)
	assert.Equal(t, StrategyParallel, cfg.Execution.Strategy)
	assert.Equal(t, 4, cfg.Execution.Workers)
	assert.Equal(t, "svg", cfg.Output.PlotFormat)
	assert.True(t, cfg.Database.Enabled())
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"BASE_SEED":          "abc",
		"REPS":               "0",
		"EXECUTION_STRATEGY": "threads",
		"PLOT_FORMAT":        "gif",
		"TABLE_FORMAT":       "json",
		"DATABASE_DRIVER":    "mysql",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
		})
	}
}
