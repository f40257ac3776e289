package shell

import (
	"context"
	"sync"
)

// Call records one invocation of a FakeExecutor.
type Call struct {
	Dir     string
	Command string
	Name    string
}

// FakeExecutor implements Executor without spawning processes. Commands
// registered with Fail return a *CommandError; everything else succeeds.
type FakeExecutor struct {
	mu    sync.Mutex
	calls []Call
	fails map[string]error
	hook  func(Call)
}

// NewFakeExecutor creates a new FakeExecutor.
func NewFakeExecutor() *FakeExecutor {
	return &FakeExecutor{fails: make(map[string]error)}
}

// Fail makes every run of command exit non-zero.
func (f *FakeExecutor) Fail(command string) {
	f.FailWith(command, &CommandError{Command: command, ExitCode: 1, Stderr: []byte("failed")})
}

// FailWith makes every run of command return err.
func (f *FakeExecutor) FailWith(command string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fails[command] = err
}

// OnRun registers a callback invoked, outside the lock, for every run.
func (f *FakeExecutor) OnRun(fn func(Call)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hook = fn
}

// Run records the call and returns the configured outcome.
func (f *FakeExecutor) Run(ctx context.Context, dir, command, name string) error {
	call := Call{Dir: dir, Command: command, Name: name}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	err := f.fails[command]
	hook := f.hook
	f.mu.Unlock()

	if hook != nil {
		hook(call)
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// Calls returns a copy of the recorded calls in invocation order.
func (f *FakeExecutor) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

// Commands returns the recorded commands in invocation order.
func (f *FakeExecutor) Commands() []string {
	calls := f.Calls()
	out := make([]string, len(calls))
	for i, c := range calls {
		out[i] = c.Command
	}
	return out
}
