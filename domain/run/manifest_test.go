package run

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcmcstats/domain/core"
)

func TestRunFingerprint_Deterministic(t *testing.T) {
	h := core.NewHash([]byte("models: []"))
	fp1 := NewRunFingerprint(h, 42, 3, "1.0.0")
	fp2 := NewRunFingerprint(h, 42, 3, "1.0.0")
	assert.Equal(t, fp1.Fingerprint, fp2.Fingerprint)
	assert.Equal(t, int64(42), fp1.BaseSeed)
}

func TestRunFingerprint_Unique(t *testing.T) {
	h := core.NewHash([]byte("models: []"))
	base := NewRunFingerprint(h, 42, 3, "1.0.0")

	testCases := []struct {
		name string
		fp   RunFingerprint
	}{
		{"different experiment", NewRunFingerprint(core.NewHash([]byte("other")), 42, 3, "1.0.0")},
		{"different seed", NewRunFingerprint(h, 43, 3, "1.0.0")},
		{"different reps", NewRunFingerprint(h, 42, 4, "1.0.0")},
		{"different code", NewRunFingerprint(h, 42, 3, "1.0.1")},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.NotEqual(t, base.Fingerprint, tc.fp.Fingerprint)
		})
	}
}

func TestManifest_WriteRead(t *testing.T) {
	dir := t.TempDir()
	m := NewManifest("scaling", []string{"rwm", "mala"}, []byte("doc"), 7, 5, "parallel")
	require.NoError(t, m.Write(dir))

	back, err := ReadManifest(dir)
	require.NoError(t, err)
	assert.Equal(t, m.RunID, back.RunID)
	assert.Equal(t, m.Fingerprint, back.Fingerprint)
	assert.Equal(t, []string{"rwm", "mala"}, back.Models)
	assert.True(t, m.CreatedAt.Equal(back.CreatedAt))

	_, err = core.ParseRunID(back.RunID.String())
	assert.NoError(t, err)
}

func TestManifest_Validate(t *testing.T) {
	m := NewManifest("x", nil, nil, 1, 1, "sequential")
	assert.Error(t, m.Validate())

	m = NewManifest("x", []string{"a"}, nil, 1, 0, "sequential")
	assert.Error(t, m.Validate())
}
