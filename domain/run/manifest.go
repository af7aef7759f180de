// Package run records how a results directory was produced.
package run

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"mcmcstats/domain/core"
)

// ManifestFile is written at the root of every experiment results directory
const ManifestFile = "manifest.json"

// CodeVersion is stamped into manifests
var CodeVersion = "0.1.0"

// Manifest is the replay record of one experiment run
type Manifest struct {
	RunID       core.RunID     `json:"run_id"`
	Experiment  string         `json:"experiment"`
	Models      []string       `json:"models"`
	BaseSeed    int64          `json:"base_seed"`
	Reps        int            `json:"reps"`
	Strategy    string         `json:"strategy"`
	CodeVersion string         `json:"code_version"`
	Fingerprint RunFingerprint `json:"fingerprint"`
	CreatedAt   time.Time      `json:"created_at"`
}

// NewManifest creates a manifest for an experiment document. experimentDoc is
// the raw experiment file, hashed into the fingerprint.
func NewManifest(name string, models []string, experimentDoc []byte, baseSeed int64, reps int, strategy string) *Manifest {
	return &Manifest{
		RunID:       core.NewRunID(),
		Experiment:  name,
		Models:      append([]string(nil), models...),
		BaseSeed:    baseSeed,
		Reps:        reps,
		Strategy:    strategy,
		CodeVersion: CodeVersion,
		Fingerprint: NewRunFingerprint(core.NewHash(experimentDoc), baseSeed, reps, CodeVersion),
		CreatedAt:   time.Now().UTC(),
	}
}

// Validate checks if the manifest is complete
func (m *Manifest) Validate() error {
	if core.ID(m.RunID).IsEmpty() {
		return fmt.Errorf("run manifest: run_id cannot be empty")
	}
	if len(m.Models) == 0 {
		return fmt.Errorf("run manifest: no models")
	}
	if m.Reps < 1 {
		return fmt.Errorf("run manifest: reps must be positive, got %d", m.Reps)
	}
	if m.Fingerprint.Fingerprint.IsEmpty() {
		return fmt.Errorf("run manifest: fingerprint cannot be empty")
	}
	return nil
}

// Write stores the manifest as dir/manifest.json
func (m *Manifest) Write(dir string) error {
	if err := m.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, ManifestFile), data, 0o644)
}

// ReadManifest loads dir/manifest.json
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("invalid manifest: %w", err)
	}
	return &m, nil
}
