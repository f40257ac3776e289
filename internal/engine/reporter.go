package engine

// Reporter receives user-facing progress events of a run. Hook events are
// delivered concurrently from fan-out phases, so implementations must be safe
// for concurrent use.
type Reporter interface {
	// Diffing is called before fingerprinting. updateOnly is set for
	// --update-hashes runs.
	Diffing(updateOnly bool)

	// UpToDate is called when no participating room changed.
	UpToDate()

	// Changed lists the rooms selected for building.
	Changed(rooms []string)

	// PhaseStarted is called once per active phase, before any of its hooks.
	PhaseStarted(phase string)

	HookStarted(name, phase string)
	HookSucceeded(name, phase string)

	// HookFailed carries the executor error, usually a *shell.CommandError.
	HookFailed(name, phase string, err error)

	// Summary is called at the end of a run that executed hooks.
	Summary(errored []string)
}

// NopReporter discards every event.
type NopReporter struct{}

func (NopReporter) Diffing(bool)                     {}
func (NopReporter) UpToDate()                        {}
func (NopReporter) Changed([]string)                 {}
func (NopReporter) PhaseStarted(string)              {}
func (NopReporter) HookStarted(string, string)       {}
func (NopReporter) HookSucceeded(string, string)     {}
func (NopReporter) HookFailed(string, string, error) {}
func (NopReporter) Summary([]string)                 {}
