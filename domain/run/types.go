package run

import (
	"fmt"

	"mcmcstats/domain/core"
)

// RunFingerprint ensures deterministic replay: equal fingerprints mean the
// same experiment, seeds, rep count and code produced the results
type RunFingerprint struct {
	ExperimentHash core.Hash `json:"experiment_hash"`
	BaseSeed       int64     `json:"base_seed"`
	Reps           int       `json:"reps"`
	CodeVersion    string    `json:"code_version"`
	Fingerprint    core.Hash `json:"fingerprint"` // Hash of all above
}

// NewRunFingerprint creates a fingerprint from determinism parameters.
// The execution strategy is deliberately not part of it.
func NewRunFingerprint(experimentHash core.Hash, baseSeed int64, reps int, codeVersion string) RunFingerprint {
	return RunFingerprint{
		ExperimentHash: experimentHash,
		BaseSeed:       baseSeed,
		Reps:           reps,
		CodeVersion:    codeVersion,
		Fingerprint:    computeRunFingerprint(experimentHash, baseSeed, reps, codeVersion),
	}
}

func computeRunFingerprint(experimentHash core.Hash, baseSeed int64, reps int, codeVersion string) core.Hash {
	data := fmt.Sprintf("experiment:%s|seed:%d|reps:%d|code:%s", experimentHash, baseSeed, reps, codeVersion)
	return core.NewHash([]byte(data))
}
