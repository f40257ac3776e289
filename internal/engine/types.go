package engine

import (
	"fmt"
	"time"
)

// RunRequest represents the modifiers of one roomservice run.
type RunRequest struct {
	// Force treats every participating room as changed
	Force bool

	// Only restricts the run to the named rooms
	Only []string

	// Ignore excludes the named rooms from the run
	Ignore []string

	// AfterOnly runs only the after hooks of changed rooms
	AfterOnly bool

	// NoAfter suppresses the after hooks
	NoAfter bool

	// Dry reports the changed rooms without running any hook
	Dry bool

	// DumpScope writes each room's visited file list next to its cache entry
	DumpScope bool

	// UpdateHashesOnly recomputes and persists fingerprints without running hooks
	UpdateHashesOnly bool

	// Jobs caps the concurrent room tasks of a fan-out phase; 0 means unlimited
	Jobs int
}

// Validate checks the request against the rooms known to project.
func (r *RunRequest) Validate(project Project) error {
	if len(r.Only) > 0 && len(r.Ignore) > 0 {
		return fmt.Errorf("%w: --only & --ignore options provided, only one of these should be provided at a time", ErrValidation)
	}
	if r.AfterOnly && r.NoAfter {
		return fmt.Errorf("%w: both --after & --no-after options provided", ErrValidation)
	}
	if r.Jobs < 0 {
		return fmt.Errorf("%w: --jobs must not be negative, got %d", ErrValidation, r.Jobs)
	}
	for _, name := range r.Only {
		if !project.Has(name) {
			return fmt.Errorf("%w: %q was provided to --only and does not exist in config", ErrValidation, name)
		}
	}
	for _, name := range r.Ignore {
		if !project.Has(name) {
			return fmt.Errorf("%w: %q was provided to --ignore and does not exist in config", ErrValidation, name)
		}
	}
	return nil
}

// Outcome describes where a run stopped.
type Outcome int

const (
	// OutcomeUpToDate means no participating room changed.
	OutcomeUpToDate Outcome = iota

	// OutcomeDry means changed rooms were reported and nothing ran.
	OutcomeDry

	// OutcomeHashesUpdated means fingerprints were persisted without running hooks.
	OutcomeHashesUpdated

	// OutcomeExecuted means the hook phases ran for the changed rooms.
	OutcomeExecuted
)

// String returns a short name for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeUpToDate:
		return "up-to-date"
	case OutcomeDry:
		return "dry"
	case OutcomeHashesUpdated:
		return "hashes-updated"
	case OutcomeExecuted:
		return "executed"
	default:
		return "unknown"
	}
}

// RunResult represents the result of a run.
type RunResult struct {
	// RunID identifies the run in log records
	RunID string

	Outcome Outcome

	// Changed lists the rooms selected for building, ordered by name
	Changed []string

	// Errored lists the rooms whose hooks failed, ordered by name
	Errored []string

	// Written lists the rooms whose cache entry was written, ordered by name
	Written []string

	Duration time.Duration
}
