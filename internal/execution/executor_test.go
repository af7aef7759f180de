package execution

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcmcstats/domain/core"
	"mcmcstats/ports"
)

func TestSeed(t *testing.T) {
	assert.Equal(t, int64(43), Seed(42, 1))
	assert.Equal(t, int64(52), Seed(42, 10))
}

func TestNew(t *testing.T) {
	e, err := New("", 0)
	require.NoError(t, err)
	assert.Equal(t, StrategySequential, e.Name())

	e, err = New(StrategyParallel, 3)
	require.NoError(t, err)
	assert.Equal(t, Parallel{Workers: 3}, e)

	_, err = New("cluster", 1)
	assert.Error(t, err)
}

func executors() []ports.ExecutorPort {
	return []ports.ExecutorPort{Sequential{}, NewParallel(2), NewParallel(0)}
}

func TestRunReps_AllReps(t *testing.T) {
	for _, e := range executors() {
		t.Run(e.Name(), func(t *testing.T) {
			var mu sync.Mutex
			seen := make(map[int]bool)
			err := e.RunReps(context.Background(), 5, func(ctx context.Context, rep int) error {
				mu.Lock()
				seen[rep] = true
				mu.Unlock()
				return nil
			})
			require.NoError(t, err)
			assert.Equal(t, map[int]bool{1: true, 2: true, 3: true, 4: true, 5: true}, seen)
		})
	}
}

func TestRunReps_CollectsFailures(t *testing.T) {
	for _, e := range executors() {
		t.Run(e.Name(), func(t *testing.T) {
			var ran int32
			err := e.RunReps(context.Background(), 4, func(ctx context.Context, rep int) error {
				atomic.AddInt32(&ran, 1)
				if rep == 2 || rep == 4 {
					return fmt.Errorf("exit status %d", rep)
				}
				return nil
			})
			require.Error(t, err)
			assert.Equal(t, int32(4), ran, "siblings still run")
			assert.True(t, errors.Is(err, core.ErrSamplerFailure))

			var failures *core.RepFailures
			require.True(t, errors.As(err, &failures))
			assert.Equal(t, []int{2, 4}, failures.Reps())
			assert.Contains(t, err.Error(), "rep 4: exit status 4")
		})
	}
}

func TestParallel_Bounded(t *testing.T) {
	var current, peak int32
	p := NewParallel(2)
	err := p.RunReps(context.Background(), 8, func(ctx context.Context, rep int) error {
		n := atomic.AddInt32(&current, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if n <= old || atomic.CompareAndSwapInt32(&peak, old, n) {
				break
			}
		}
		defer atomic.AddInt32(&current, -1)
		return nil
	})
	require.NoError(t, err)
	assert.LessOrEqual(t, peak, int32(2))
}

func TestSequential_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Sequential{}.RunReps(ctx, 3, func(ctx context.Context, rep int) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}
