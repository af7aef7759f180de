package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

func TestParseRunID(t *testing.T) {
	tests := []struct {
		input    string
		hasError bool
	}{
		{NewRunID().String(), false},
		{"", true},
		{"   ", true},
		{"not-a-uuid", true},
	}

	for _, tt := range tests {
		_, err := ParseRunID(tt.input)
		if tt.hasError {
			assert.Error(t, err, "input %q", tt.input)
		} else {
			assert.NoError(t, err, "input %q", tt.input)
		}
	}
}

func TestComputeSettingsHash_OrderIndependent(t *testing.T) {
	a := ComputeSettingsHash(map[string]interface{}{"reps": 3, "seed": 42})
	b := ComputeSettingsHash(map[string]interface{}{"seed": 42, "reps": 3})
	c := ComputeSettingsHash(map[string]interface{}{"seed": 43, "reps": 3})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a.Short(), 12)
}

func TestRepFailures(t *testing.T) {
	assert.NoError(t, NewRepFailures(nil))

	cause := errors.New("exit status 1")
	err := NewRepFailures([]RepFailure{{Rep: 3, Err: cause}, {Rep: 1, Err: fmt.Errorf("timeout")}})
	require.Error(t, err)

	assert.True(t, IsSamplerFailure(err))
	assert.ErrorIs(t, err, cause)
	assert.False(t, IsValidationError(err))

	var failures *RepFailures
	require.True(t, errors.As(err, &failures))
	assert.Equal(t, []int{1, 3}, failures.Reps())
	assert.Contains(t, err.Error(), "rep 1: timeout")
}

func TestValidationErrors(t *testing.T) {
	for _, err := range []error{
		NewMissingColumnError("Value"),
		NewInvalidTargetError("target", 7),
		NewConfigurationCountMismatchError(2, 3),
		NewDuplicateIterationError(4, "mu_1"),
		NewNonPositiveLogInputError("x", 0),
	} {
		assert.True(t, IsValidationError(err), err.Error())
	}
	assert.ErrorIs(t, NewMissingColumnError("Value"), ErrMissingColumn)
}
