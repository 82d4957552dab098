package experiment

import (
	"fmt"

	"anchortest/domain/core"
	"anchortest/internal/errors"
)

// Manifest records what determines an experiment's data and resampling.
// Two experiments with the same fingerprint draw the same samples and the
// same bootstrap replicates.
type Manifest struct {
	ExperimentID   core.ExperimentID `json:"experiment_id"`
	PlanName       string            `json:"plan_name"`
	PlanHash       core.Hash         `json:"plan_hash"`
	Seed           uint64            `json:"seed"`
	BootstrapSeed  uint64            `json:"bootstrap_seed"`
	MaxRetries     int               `json:"max_retries"`
	RetryThreshold float64           `json:"retry_threshold"`
	CodeVersion    string            `json:"code_version"`
	Fingerprint    core.Hash         `json:"fingerprint"`
	CreatedAt      core.Timestamp    `json:"created_at"`
}

// NewManifest creates a manifest and computes its fingerprint
func NewManifest(
	id core.ExperimentID,
	planName string,
	planHash core.Hash,
	seed, bootstrapSeed uint64,
	maxRetries int,
	retryThreshold float64,
	codeVersion string,
) *Manifest {
	return &Manifest{
		ExperimentID:   id,
		PlanName:       planName,
		PlanHash:       planHash,
		Seed:           seed,
		BootstrapSeed:  bootstrapSeed,
		MaxRetries:     maxRetries,
		RetryThreshold: retryThreshold,
		CodeVersion:    codeVersion,
		Fingerprint:    computeFingerprint(planHash, seed, bootstrapSeed, maxRetries, retryThreshold, codeVersion),
		CreatedAt:      core.Now(),
	}
}

// computeFingerprint hashes the determinism parameters. The experiment ID
// and creation time are left out.
func computeFingerprint(planHash core.Hash, seed, bootstrapSeed uint64, maxRetries int, retryThreshold float64, codeVersion string) core.Hash {
	data := fmt.Sprintf("plan:%s|seed:%d|bootstrap:%d|retries:%d|threshold:%g|code:%s",
		planHash, seed, bootstrapSeed, maxRetries, retryThreshold, codeVersion)
	return core.NewHash([]byte(data))
}

// Validate checks if the manifest is complete
func (m *Manifest) Validate() error {
	if m.ExperimentID.String() == "" {
		return errors.InvalidInput("manifest: experiment_id cannot be empty")
	}
	if m.PlanHash.IsEmpty() {
		return errors.InvalidInput("manifest: plan_hash cannot be empty")
	}
	if m.CodeVersion == "" {
		return errors.InvalidInput("manifest: code_version cannot be empty")
	}
	return nil
}
