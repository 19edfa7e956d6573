// Package run records what a power run computed and everything needed to
// replay it: the design fingerprint, the grid, the seed, and the outcome
// counts that qualify the estimates.
package run

import (
	"time"

	"gopower/domain/core"
	"gopower/domain/design"
)

// Manifest is the truth source for a completed (or aborted) power run.
// A manifest plus the code version is enough to reproduce the run bit for
// bit, since every replication's seed derives from (Seed, n, replication).
type Manifest struct {
	RunID      core.RunID            `json:"run_id"`
	DesignHash core.DesignHash       `json:"design_hash"`
	Grid       design.SampleSizeGrid `json:"grid"`
	Term       string                `json:"term"`
	Alpha      float64               `json:"alpha"`
	Seed       int64                 `json:"seed"`
	CodeVersion string               `json:"code_version"`

	TotalReplications int   `json:"total_replications"`
	FailedFits        int   `json:"failed_fits"`
	RuntimeMs         int64 `json:"runtime_ms"`
	Aborted           bool  `json:"aborted"`

	CreatedAt time.Time `json:"created_at"`
}

// NewManifest creates a manifest for a run about to start. Counts and
// runtime are filled in by the driver on completion.
func NewManifest(spec design.Spec, grid design.SampleSizeGrid, term string, alpha float64, seed int64, codeVersion string) *Manifest {
	return &Manifest{
		RunID:       core.RunID(core.NewID()),
		DesignHash:  spec.Hash(),
		Grid:        grid,
		Term:        term,
		Alpha:       alpha,
		Seed:        seed,
		CodeVersion: codeVersion,
		CreatedAt:   time.Now().UTC(),
	}
}

// Validate checks if the manifest is complete.
func (m *Manifest) Validate() error {
	if core.ID(m.RunID).IsEmpty() {
		return core.NewInvalidParameterError("run_manifest", "run_id cannot be empty")
	}
	if m.DesignHash == "" {
		return core.NewInvalidParameterError("run_manifest", "design_hash cannot be empty")
	}
	if m.Term == "" {
		return core.NewInvalidParameterError("run_manifest", "term cannot be empty")
	}
	if m.Alpha <= 0 || m.Alpha >= 1 {
		return core.NewInvalidParameterError("run_manifest", "alpha must be in (0, 1)")
	}
	return m.Grid.Validate()
}
