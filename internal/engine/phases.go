package engine

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/curtiswilkinson/roomservice/internal/logging"
	"github.com/curtiswilkinson/roomservice/internal/room"
)

// Names of the global phases.
const (
	phaseBeforeAll = "Before All"
	phaseAfterAll  = "After All"
)

type concurrency int

const (
	sequential concurrency = iota
	parallel
)

// phase is one room-hook step of the lifecycle.
type phase struct {
	name string
	kind room.HookKind
	mode concurrency

	// includeErrored runs the hook for rooms that already errored
	includeErrored bool
}

// phases lists the room-hook phases in execution order.
var phases = []phase{
	{name: "Before Synchronous", kind: room.HookBeforeSynchronous, mode: sequential},
	{name: "Before", kind: room.HookBefore, mode: parallel},
	{name: "Run Parallel", kind: room.HookRunParallel, mode: parallel},
	{name: "Run Synchronously", kind: room.HookRunSynchronous, mode: sequential},
	{name: "After", kind: room.HookAfter, mode: parallel},
	{name: "Finally", kind: room.HookFinally, mode: parallel, includeErrored: true},
}

// active reports whether any selected room defines the phase's hook.
func (p phase) active(selected []*roomRun) bool {
	for _, run := range selected {
		if run.hooks.Has(p.kind) {
			return true
		}
	}
	return false
}

// eligible returns the selected rooms the phase runs for, in name order.
func (p phase) eligible(selected []*roomRun) []int {
	var out []int
	for i, run := range selected {
		if !run.hooks.Has(p.kind) {
			continue
		}
		if run.errored && !p.includeErrored {
			continue
		}
		out = append(out, i)
	}
	return out
}

// runPhase executes one room-hook phase and returns once every task has
// finished. Hook failures mark rooms errored; only cancellation is returned.
func (e *Engine) runPhase(ctx context.Context, log *slog.Logger, p phase, selected []*roomRun, jobs int) error {
	if !p.active(selected) {
		return nil
	}
	e.reporter.PhaseStarted(p.name)
	log = log.With(logging.Phase(p.name))

	switch p.mode {
	case sequential:
		for _, i := range p.eligible(selected) {
			i := i
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := e.runHook(ctx, log, p, selected[i]); err != nil {
				selected[i].errored = true
			}
		}
	case parallel:
		failed := make(chan int, len(selected))
		var g errgroup.Group
		g.SetLimit(jobLimit(jobs))
		for _, i := range p.eligible(selected) {
			i := i
			run := selected[i]
			g.Go(func() error {
				if err := e.runHook(ctx, log, p, run); err != nil {
					failed <- i
				}
				return nil
			})
		}
		_ = g.Wait()
		close(failed)
		for i := range failed {
			selected[i].errored = true
		}
	}

	return ctx.Err()
}

// runHook runs the phase's hook for one room and reports the outcome.
func (e *Engine) runHook(ctx context.Context, log *slog.Logger, p phase, run *roomRun) error {
	name := run.room.Name
	command := run.hooks.Get(p.kind)

	e.reporter.HookStarted(name, p.name)
	start := e.clock.Now()
	err := e.executor.Run(ctx, run.room.Path, command, name)
	elapsed := e.clock.Since(start)

	if err != nil {
		log.Warn("hook failed", logging.Room(name), logging.Command(command), logging.Duration(elapsed), logging.Error(err))
		e.reporter.HookFailed(name, p.name, err)
		return err
	}
	log.Debug("hook completed", logging.Room(name), logging.Command(command), logging.Duration(elapsed))
	e.reporter.HookSucceeded(name, p.name)
	return nil
}

// runGlobal runs a project-wide hook in the project root. A failure aborts
// the run.
func (e *Engine) runGlobal(ctx context.Context, log *slog.Logger, name, command string) error {
	if command == "" {
		return nil
	}
	e.reporter.PhaseStarted(name)
	e.reporter.HookStarted(name, name)

	if err := e.executor.Run(ctx, e.project.Root(), command, name); err != nil {
		log.Error("global hook failed", logging.Phase(name), logging.Command(command), logging.Error(err))
		e.reporter.HookFailed(name, name, err)
		return fmt.Errorf("%w: error in %s hook, aborting roomservice run: %w", ErrGlobalHook, name, err)
	}
	e.reporter.HookSucceeded(name, name)
	return ctx.Err()
}
