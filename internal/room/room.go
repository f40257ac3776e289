// Package room models the units roomservice builds.
//
// A Room is a named subproject: a canonical path plus a set of lifecycle
// hooks, each an optional shell command. The Registry owns the rooms of one
// project, keyed by name, together with the project-wide beforeAll/afterAll
// hooks and the project's cache directory.
package room

// HookKind identifies one of the per-room lifecycle hooks.
type HookKind int

const (
	HookBeforeSynchronous HookKind = iota
	HookBefore
	HookRunParallel
	HookRunSynchronous
	HookAfter
	HookFinally
)

// String returns the configuration key of the hook.
func (k HookKind) String() string {
	switch k {
	case HookBeforeSynchronous:
		return "beforeSynchronous"
	case HookBefore:
		return "before"
	case HookRunParallel:
		return "runParallel"
	case HookRunSynchronous:
		return "runSynchronous"
	case HookAfter:
		return "after"
	case HookFinally:
		return "finally"
	default:
		return "unknown"
	}
}

// Hooks holds a room's lifecycle commands. An empty command means the hook
// is not defined for the room.
type Hooks struct {
	BeforeSynchronous string
	Before            string
	RunParallel       string
	RunSynchronous    string
	After             string
	Finally           string
}

// Get returns the command for kind, or "" when undefined.
func (h Hooks) Get(kind HookKind) string {
	switch kind {
	case HookBeforeSynchronous:
		return h.BeforeSynchronous
	case HookBefore:
		return h.Before
	case HookRunParallel:
		return h.RunParallel
	case HookRunSynchronous:
		return h.RunSynchronous
	case HookAfter:
		return h.After
	case HookFinally:
		return h.Finally
	default:
		return ""
	}
}

// Has reports whether the hook of kind is defined.
func (h Hooks) Has(kind HookKind) bool {
	return h.Get(kind) != ""
}

// Filter applies the run modifiers. afterOnly keeps only the after hook;
// noAfter drops it.
func (h Hooks) Filter(afterOnly, noAfter bool) Hooks {
	if afterOnly {
		h = Hooks{After: h.After}
	}
	if noAfter {
		h.After = ""
	}
	return h
}

// Room is the immutable identity and configuration of a room.
type Room struct {
	// Name is the unique key of the room and the name of its cache entry
	Name string

	// Path is the absolute, canonical room directory
	Path string

	// Include is the advisory include glob; it does not narrow the hash walk
	Include string

	Hooks Hooks
}

// Spec is the unresolved declaration of a room, as read from configuration.
type Spec struct {
	Name    string
	Path    string
	Include string
	Hooks   Hooks
}
