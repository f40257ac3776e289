// Package engine provides the phase orchestrator of roomservice.
//
// A run fingerprints every participating room concurrently, compares each
// fingerprint with the one recorded by the previous run, and executes the
// hooks of the changed rooms in a fixed sequence of phases. Each phase is a
// barrier. A failing room hook marks only that room as errored; a failing
// global hook aborts the run. Finally the fingerprints of every participating
// room that did not error are persisted.
//
// Key components:
//   - Engine: the orchestrator, constructed once per project
//   - RunRequest/RunResult: the modifiers and outcome of one run
//   - Reporter: user-facing progress events
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/curtiswilkinson/roomservice/internal/clock"
	"github.com/curtiswilkinson/roomservice/internal/hash"
	"github.com/curtiswilkinson/roomservice/internal/logging"
	"github.com/curtiswilkinson/roomservice/internal/room"
	"github.com/curtiswilkinson/roomservice/internal/shell"
	"github.com/curtiswilkinson/roomservice/internal/state"
)

// Project is the set of rooms and global hooks a run operates on.
type Project interface {
	Root() string
	BeforeAll() string
	AfterAll() string

	// Rooms returns every room ordered by name.
	Rooms() []room.Room

	Has(name string) bool
}

// Fingerprinter computes the fingerprint of a room's file tree.
type Fingerprinter interface {
	Fingerprint(ctx context.Context, name, path string, dumpScope bool) (hash.Fingerprint, error)
}

// Engine orchestrates roomservice runs.
type Engine struct {
	project       Project
	fingerprinter Fingerprinter
	store         state.HashStore
	executor      shell.Executor
	reporter      Reporter
	logger        *slog.Logger
	clock         clock.Clock
}

// New creates a new Engine with the given dependencies.
func New(
	project Project,
	fingerprinter Fingerprinter,
	store state.HashStore,
	executor shell.Executor,
	reporter Reporter,
	logger *slog.Logger,
	clk clock.Clock,
) *Engine {
	if reporter == nil {
		reporter = NopReporter{}
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Engine{
		project:       project,
		fingerprinter: fingerprinter,
		store:         store,
		executor:      executor,
		reporter:      reporter,
		logger:        logger,
		clock:         clk,
	}
}

// roomRun is the mutable run-state of one room. During a fan-out phase it is
// read by the task handling the room and written only at the phase barrier.
type roomRun struct {
	room        room.Room
	hooks       room.Hooks
	shouldBuild bool
	latest      hash.Fingerprint
	errored     bool
}

// Run executes one roomservice run.
//
// A non-nil result accompanies ErrRoomsFailed so callers can still report
// timing and the rooms that were written. Every other error is fatal and
// returns a nil result.
func (e *Engine) Run(ctx context.Context, req *RunRequest) (*RunResult, error) {
	if err := req.Validate(e.project); err != nil {
		return nil, err
	}

	start := e.clock.Now()
	result := &RunResult{RunID: uuid.NewString()}
	log := e.logger.With(logging.RunID(result.RunID))

	runs := e.participants(req)
	log.Debug("run started", slog.Int("rooms", len(runs)), slog.Bool("force", req.Force))

	e.reporter.Diffing(req.UpdateHashesOnly)
	if err := e.hashRooms(ctx, log, runs, req); err != nil {
		return nil, err
	}

	if req.UpdateHashesOnly {
		written, err := e.finalize(log, runs)
		if err != nil {
			return nil, err
		}
		result.Outcome = OutcomeHashesUpdated
		result.Written = written
		result.Duration = e.clock.Since(start)
		return result, nil
	}

	selected := make([]*roomRun, 0, len(runs))
	for _, run := range runs {
		if run.shouldBuild {
			selected = append(selected, run)
			result.Changed = append(result.Changed, run.room.Name)
		}
	}

	if len(selected) == 0 {
		e.reporter.UpToDate()
		result.Outcome = OutcomeUpToDate
		result.Duration = e.clock.Since(start)
		return result, nil
	}

	e.reporter.Changed(result.Changed)
	if req.Dry {
		result.Outcome = OutcomeDry
		result.Duration = e.clock.Since(start)
		return result, nil
	}

	result.Outcome = OutcomeExecuted
	if err := e.runGlobal(ctx, log, phaseBeforeAll, e.project.BeforeAll()); err != nil {
		return nil, err
	}
	for _, ph := range phases {
		if err := e.runPhase(ctx, log, ph, selected, req.Jobs); err != nil {
			return nil, err
		}
	}
	if err := e.runGlobal(ctx, log, phaseAfterAll, e.project.AfterAll()); err != nil {
		return nil, err
	}

	written, err := e.finalize(log, runs)
	if err != nil {
		return nil, err
	}
	result.Written = written

	for _, run := range selected {
		if run.errored {
			result.Errored = append(result.Errored, run.room.Name)
		}
	}
	e.reporter.Summary(result.Errored)
	result.Duration = e.clock.Since(start)
	log.Debug("run finished", logging.Duration(result.Duration), slog.Int("errored", len(result.Errored)))

	if len(result.Errored) > 0 {
		return result, fmt.Errorf("%w: %s", ErrRoomsFailed, strings.Join(result.Errored, ", "))
	}
	return result, nil
}

// Participants returns the rooms taking part in a run of req, ordered by
// name: every room, narrowed by req.Only or req.Ignore.
func (e *Engine) Participants(req *RunRequest) []room.Room {
	only := toSet(req.Only)
	ignore := toSet(req.Ignore)

	var rooms []room.Room
	for _, r := range e.project.Rooms() {
		if len(only) > 0 && !only[r.Name] {
			continue
		}
		if ignore[r.Name] {
			continue
		}
		rooms = append(rooms, r)
	}
	return rooms
}

// participants returns the run-state of every participating room, with hooks
// filtered by the after modifiers.
func (e *Engine) participants(req *RunRequest) []*roomRun {
	var runs []*roomRun
	for _, r := range e.Participants(req) {
		runs = append(runs, &roomRun{
			room:  r,
			hooks: r.Hooks.Filter(req.AfterOnly, req.NoAfter),
		})
	}
	return runs
}

// finalize persists the latest fingerprint of every room that did not error.
// Errored rooms keep their previous entry.
func (e *Engine) finalize(log *slog.Logger, runs []*roomRun) ([]string, error) {
	var written []string
	for _, run := range runs {
		if run.errored {
			log.Debug("keeping previous cache entry", logging.Room(run.room.Name))
			continue
		}
		if err := e.store.Write(run.room.Name, run.latest); err != nil {
			return nil, fmt.Errorf("failed to finalize run: %w", err)
		}
		written = append(written, run.room.Name)
	}
	return written, nil
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}
