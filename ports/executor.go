package ports

import "context"

// RepTask runs one rep; reps are numbered from 1
type RepTask func(ctx context.Context, rep int) error

// ExecutorPort dispatches independent reps and blocks until all finish.
// A failed rep never stops its siblings; failures are reported together.
type ExecutorPort interface {
	Name() string
	RunReps(ctx context.Context, reps int, task RepTask) error
}
