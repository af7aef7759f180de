package core

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Domain errors - centralized error definitions
var (
	// Validation errors
	ErrMissingColumn              = errors.New("required column missing")
	ErrInvalidTarget              = errors.New("invalid target")
	ErrConfigurationCountMismatch = errors.New("configuration count mismatch")
	ErrDuplicateIteration         = errors.New("duplicate iteration")
	ErrNonPositiveLogInput        = errors.New("non-positive value on log axis")

	// Collaborator errors
	ErrSamplerFailure = errors.New("sampler failure")

	// Input errors
	ErrEmptyInput = errors.New("empty input")
)

// Error constructors with context
func NewMissingColumnError(column string) error {
	return fmt.Errorf("%w: %s", ErrMissingColumn, column)
}

func NewInvalidTargetError(kind string, value any) error {
	return fmt.Errorf("%w: %s %v not present in data", ErrInvalidTarget, kind, value)
}

func NewConfigurationCountMismatchError(directories, configurations int) error {
	return fmt.Errorf("%w: found %d result directories for %d configurations",
		ErrConfigurationCountMismatch, directories, configurations)
}

func NewDuplicateIterationError(iteration int, column string) error {
	return fmt.Errorf("%w: iteration %d appears more than once for %s", ErrDuplicateIteration, iteration, column)
}

func NewNonPositiveLogInputError(axis string, value float64) error {
	return fmt.Errorf("%w: %s axis contains %g", ErrNonPositiveLogInput, axis, value)
}

// RepFailure records the sampler error of a single rep.
type RepFailure struct {
	Rep int
	Err error
}

// RepFailures is returned at the reps-level join when one or more sampler
// invocations failed. Reps are listed in ascending order.
type RepFailures struct {
	Failures []RepFailure
}

// NewRepFailures builds a RepFailures error, or nil when there is nothing to report.
func NewRepFailures(failures []RepFailure) error {
	if len(failures) == 0 {
		return nil
	}
	sorted := make([]RepFailure, len(failures))
	copy(sorted, failures)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Rep < sorted[j].Rep })
	return &RepFailures{Failures: sorted}
}

func (e *RepFailures) Error() string {
	parts := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		parts[i] = fmt.Sprintf("rep %d: %v", f.Rep, f.Err)
	}
	return fmt.Sprintf("%s in %d rep(s): %s", ErrSamplerFailure, len(e.Failures), strings.Join(parts, "; "))
}

// Is lets errors.Is(err, ErrSamplerFailure) match.
func (e *RepFailures) Is(target error) bool {
	return target == ErrSamplerFailure
}

// Unwrap exposes the individual rep causes.
func (e *RepFailures) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f.Err
	}
	return errs
}

// Reps returns the indices of the failed reps.
func (e *RepFailures) Reps() []int {
	reps := make([]int, len(e.Failures))
	for i, f := range e.Failures {
		reps[i] = f.Rep
	}
	return reps
}

// Error checking helpers
func IsValidationError(err error) bool {
	return errors.Is(err, ErrMissingColumn) ||
		errors.Is(err, ErrInvalidTarget) ||
		errors.Is(err, ErrConfigurationCountMismatch) ||
		errors.Is(err, ErrDuplicateIteration) ||
		errors.Is(err, ErrNonPositiveLogInput)
}

func IsSamplerFailure(err error) bool {
	return errors.Is(err, ErrSamplerFailure)
}
