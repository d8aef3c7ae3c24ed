package app

import (
	"github.com/GriffinCanCode/SourceHealth/internal/domain/health"
	"github.com/GriffinCanCode/SourceHealth/internal/domain/repair"
	"github.com/GriffinCanCode/SourceHealth/internal/domain/snapshot"
)

// RepairOptions controls one repair pass.
type RepairOptions struct {
	// AutoFix writes eligible suggestions back to the source file.
	AutoFix bool
	// Threshold overrides the configured auto-fix confidence when set. Zero
	// applies every non-empty suggestion.
	Threshold *float64
	// Verify re-validates the source after writing.
	Verify bool
	// Confirm, when set, decides every suggestion instead of the threshold.
	Confirm func(repair.RepairSuggestion) bool
}

// RepairRun is everything one repair pass produced.
type RepairRun struct {
	Validation health.SourceValidationResult
	Repair     repair.SourceRepair
	// Apply is nil unless fixes were requested.
	Apply *repair.ApplyReport
}

// SnapshotRun is the outcome of regenerating one snapshot.
type SnapshotRun struct {
	Snapshot    *snapshot.Snapshot
	Path        string
	FetchErrors []string
}
