package sampler

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcmcstats/domain/core"
	"mcmcstats/domain/experiment"
	"mcmcstats/internal/errors"
	"mcmcstats/ports"
)

func skipWithoutShell(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires /bin/sh")
	}
}

func testJob(dir string) ports.SamplerJob {
	return ports.SamplerJob{
		Model:      "rwm",
		Parameters: experiment.ParameterSet{{Name: "sigma", Values: []float64{0.5}}, {Name: "mu", Values: []float64{0, 1}}},
		ResultsDir: filepath.Join(dir, "rep2"),
		Rep:        2,
		Seed:       102,
	}
}

func TestCommand_WritesJobAndSubstitutes(t *testing.T) {
	skipWithoutShell(t)
	job := testJob(t.TempDir())
	job.Command = []string{"/bin/sh", "-c", `echo "{seed} {rep} $MCMC_SEED" > draws.csv`}

	require.NoError(t, NewCommand().Run(context.Background(), job))

	out, err := os.ReadFile(filepath.Join(job.ResultsDir, "draws.csv"))
	require.NoError(t, err)
	assert.Equal(t, "102 2 102\n", string(out))

	decoded, err := ReadJob(filepath.Join(job.ResultsDir, JobFile))
	require.NoError(t, err)
	assert.Equal(t, int64(102), decoded.Seed)
	assert.Equal(t, job.Parameters, decoded.Parameters)
	assert.FileExists(t, filepath.Join(job.ResultsDir, LogFile))
}

func TestCommand_DefaultCommand(t *testing.T) {
	skipWithoutShell(t)
	job := testJob(t.TempDir())
	sampler := NewCommand("/bin/sh", "-c", "touch from-default")

	require.NoError(t, sampler.Run(context.Background(), job))
	assert.FileExists(t, filepath.Join(job.ResultsDir, "from-default"))
}

func TestCommand_Failure(t *testing.T) {
	skipWithoutShell(t)
	job := testJob(t.TempDir())
	job.Command = []string{"/bin/sh", "-c", "echo diverged >&2; exit 3"}

	err := NewCommand().Run(context.Background(), job)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrSamplerFailure)
	assert.Equal(t, errors.CodeExternalService, errors.GetCode(err))
	assert.Contains(t, err.Error(), "diverged")
}

func TestCommand_Timeout(t *testing.T) {
	skipWithoutShell(t)
	job := testJob(t.TempDir())
	job.Command = []string{"/bin/sh", "-c", "exec sleep 5"}
	sampler := &Command{Timeout: 50 * time.Millisecond}

	err := sampler.Run(context.Background(), job)
	require.Error(t, err)
	assert.True(t, core.IsSamplerFailure(err))
	assert.Contains(t, err.Error(), "timed out")
}

func TestCommand_NoCommand(t *testing.T) {
	err := NewCommand().Run(context.Background(), testJob(t.TempDir()))
	assert.ErrorIs(t, err, core.ErrSamplerFailure)
}
