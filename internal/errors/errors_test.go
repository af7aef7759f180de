package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWrap_KeepsCode(t *testing.T) {
	base := ConfigInvalid("REPS must be at least 1")
	err := Wrap(base, "configuration validation failed")

	assert.Equal(t, CodeConfigInvalid, GetCode(err))
	assert.Equal(t, "configuration validation failed: REPS must be at least 1", err.Error())
	assert.True(t, stderrors.Is(err, base))
}

func TestWrap_PlainError(t *testing.T) {
	sentinel := stderrors.New("boom")
	err := Wrap(sentinel, "rep 3")
	assert.Equal(t, CodeInternalError, GetCode(err))
	assert.ErrorIs(t, err, sentinel)
	assert.Nil(t, Wrap(nil, "ignored"))
}

func TestWrap_CodeThroughFmtWrap(t *testing.T) {
	inner := fmt.Errorf("load: %w", DatabaseError("query failed", stderrors.New("conn reset")))
	err := Wrap(inner, "failed to persist statistics table")
	assert.Equal(t, CodeDatabaseError, GetCode(err))
	assert.Equal(t, "failed to persist statistics table: load: query failed: conn reset", err.Error())
}

func TestGetCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", ExternalServiceError("./sampler", stderrors.New("exit status 1")))
	assert.Equal(t, CodeExternalService, GetCode(err))
	assert.Contains(t, err.Error(), "./sampler failed: exit status 1")
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("x")))

	nf := NotFound("statistics table %q", "reps")
	assert.Equal(t, CodeNotFound, GetCode(nf))
	assert.Equal(t, `statistics table "reps" not found`, nf.Error())
}
