// Package execution dispatches the independent reps of one parameter
// configuration under a selectable strategy.
package execution

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"mcmcstats/domain/core"
	"mcmcstats/internal"
	"mcmcstats/ports"
)

// Strategy names accepted by New
const (
	StrategySequential = "sequential"
	StrategyParallel   = "parallel"
)

// Seed is the seed of a rep: the base seed plus the rep index
func Seed(base int64, rep int) int64 {
	return base + int64(rep)
}

// New returns the executor for a strategy name; workers applies to parallel only
func New(strategy string, workers int) (ports.ExecutorPort, error) {
	switch strategy {
	case "", StrategySequential:
		return Sequential{}, nil
	case StrategyParallel:
		return NewParallel(workers), nil
	default:
		return nil, fmt.Errorf("unknown execution strategy %q", strategy)
	}
}

var logger = internal.DefaultLogger.Component("RepExecutor")

// repLog collects per-rep outcomes; safe for concurrent use
type repLog struct {
	mu       sync.Mutex
	failures []core.RepFailure
}

func (l *repLog) run(ctx context.Context, name string, rep int, task ports.RepTask) {
	start := time.Now()
	err := task(ctx, rep)
	duration := time.Since(start)
	if err == nil {
		logger.Debug("%s rep %d finished in %v", name, rep, duration)
		return
	}
	logger.Warn("%s rep %d failed after %v: %v", name, rep, duration, err)
	l.mu.Lock()
	l.failures = append(l.failures, core.RepFailure{Rep: rep, Err: err})
	l.mu.Unlock()
}

func (l *repLog) err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return core.NewRepFailures(l.failures)
}

// Sequential runs reps one after another in rep order
type Sequential struct{}

// Name implements ports.ExecutorPort
func (Sequential) Name() string { return StrategySequential }

// RunReps implements ports.ExecutorPort
func (s Sequential) RunReps(ctx context.Context, reps int, task ports.RepTask) error {
	var l repLog
	for rep := 1; rep <= reps; rep++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		l.run(ctx, s.Name(), rep, task)
	}
	return l.err()
}

// Parallel runs up to Workers reps at a time
type Parallel struct {
	Workers int
}

// NewParallel bounds concurrency to workers, or the CPU count when workers < 1
func NewParallel(workers int) Parallel {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	return Parallel{Workers: workers}
}

// Name implements ports.ExecutorPort
func (p Parallel) Name() string { return StrategyParallel }

// RunReps implements ports.ExecutorPort. Rep errors are collected rather
// than returned to the group, so one failure does not cancel the others.
func (p Parallel) RunReps(ctx context.Context, reps int, task ports.RepTask) error {
	var l repLog
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Workers)
	for rep := 1; rep <= reps; rep++ {
		rep := rep
		g.Go(func() error {
			l.run(gctx, p.Name(), rep, task)
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}
	return l.err()
}
