package config

import (
	"os"
	"strconv"
	"strings"

	"mcmcstats/internal/errors"
)

// Execution strategies understood by the rep executor
const (
	StrategySequential = "sequential"
	StrategyParallel   = "parallel"
)

// Config represents the complete application configuration
type Config struct {
	Paths     PathConfig
	Execution ExecutionConfig
	Output    OutputConfig
	Database  DatabaseConfig
}

// PathConfig holds file system paths
type PathConfig struct {
	ResultsDir string
	DrawsFile  string
}

// ExecutionConfig controls how replications are sampled
type ExecutionConfig struct {
	BaseSeed int64
	Reps     int
	Strategy string
	Workers  int
}

// OutputConfig controls the rendered artefacts
type OutputConfig struct {
	TableFormat string
	PlotFormat  string
}

// DatabaseConfig holds database connection settings; an empty URL disables
// statistics persistence
type DatabaseConfig struct {
	Driver string
	URL    string
}

// Enabled reports whether a database is configured
func (d DatabaseConfig) Enabled() bool { return d.URL != "" }

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	seed, err := getEnvInt64("BASE_SEED", 1)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load execution configuration")
	}

	config := &Config{
		Paths: PathConfig{
			ResultsDir: getEnvOrDefault("RESULTS_DIR", "./results"),
			DrawsFile:  getEnvOrDefault("DRAWS_FILE", "draws.csv"),
		},
		Execution: ExecutionConfig{
			BaseSeed: seed,
			Reps:     getEnvIntOrDefault("REPS", 1),
			Strategy: strings.ToLower(getEnvOrDefault("EXECUTION_STRATEGY", StrategySequential)),
			Workers:  getEnvIntOrDefault("WORKERS", 0),
		},
		Output: OutputConfig{
			TableFormat: strings.ToLower(getEnvOrDefault("TABLE_FORMAT", "csv")),
			PlotFormat:  strings.ToLower(getEnvOrDefault("PLOT_FORMAT", "png")),
		},
		Database: DatabaseConfig{
			Driver: getEnvOrDefault("DATABASE_DRIVER", "postgres"),
			URL:    os.Getenv("DATABASE_URL"),
		},
	}

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func validateConfig(config *Config) error {
	if config.Paths.ResultsDir == "" {
		return errors.ConfigInvalid("RESULTS_DIR must not be empty")
	}
	if config.Execution.Reps < 1 {
		return errors.ConfigInvalid("REPS must be at least 1")
	}
	switch config.Execution.Strategy {
	case StrategySequential, StrategyParallel:
	default:
		return errors.ConfigInvalid("EXECUTION_STRATEGY must be sequential or parallel, got " + config.Execution.Strategy)
	}
	if config.Execution.Workers < 0 {
		return errors.ConfigInvalid("WORKERS must not be negative")
	}
	switch config.Output.TableFormat {
	case "csv", "xlsx":
	default:
		return errors.ConfigInvalid("TABLE_FORMAT must be csv or xlsx, got " + config.Output.TableFormat)
	}
	switch config.Output.PlotFormat {
	case "png", "svg", "pdf":
	default:
		return errors.ConfigInvalid("PLOT_FORMAT must be png, svg or pdf, got " + config.Output.PlotFormat)
	}
	switch config.Database.Driver {
	case "postgres", "sqlite":
	default:
		return errors.ConfigInvalid("DATABASE_DRIVER must be postgres or sqlite, got " + config.Database.Driver)
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// Seeds are reproducibility inputs, so a malformed one is an error rather
// than a silent default.
func getEnvInt64(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	v, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, errors.ConfigInvalid(key + " must be an integer, got " + value)
	}
	return v, nil
}
