package engine

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/curtiswilkinson/roomservice/internal/clock"
	"github.com/curtiswilkinson/roomservice/internal/hash"
	"github.com/curtiswilkinson/roomservice/internal/room"
	"github.com/curtiswilkinson/roomservice/internal/shell"
	"github.com/curtiswilkinson/roomservice/internal/state"
)

// fakeProject implements Project over a fixed room list.
type fakeProject struct {
	root      string
	beforeAll string
	afterAll  string
	rooms     map[string]room.Room
}

func newFakeProject(rooms ...room.Room) *fakeProject {
	p := &fakeProject{root: "/project", rooms: make(map[string]room.Room)}
	for _, r := range rooms {
		if r.Path == "" {
			r.Path = "/project/" + r.Name
		}
		p.rooms[r.Name] = r
	}
	return p
}

func (p *fakeProject) Root() string      { return p.root }
func (p *fakeProject) BeforeAll() string { return p.beforeAll }
func (p *fakeProject) AfterAll() string  { return p.afterAll }

func (p *fakeProject) Has(name string) bool {
	_, ok := p.rooms[name]
	return ok
}

func (p *fakeProject) Rooms() []room.Room {
	out := make([]room.Room, 0, len(p.rooms))
	for _, r := range p.rooms {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// fakeFingerprinter returns configured fingerprints; unknown rooms hash to
// "fp-<name>".
type fakeFingerprinter struct {
	mu    sync.Mutex
	fps   map[string]hash.Fingerprint
	errs  map[string]error
	calls []string
	scope []bool
}

func newFakeFingerprinter() *fakeFingerprinter {
	return &fakeFingerprinter{
		fps:  make(map[string]hash.Fingerprint),
		errs: make(map[string]error),
	}
}

func (f *fakeFingerprinter) set(name string, fp hash.Fingerprint) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fps[name] = fp
}

func (f *fakeFingerprinter) Fingerprint(ctx context.Context, name, path string, dumpScope bool) (hash.Fingerprint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	f.scope = append(f.scope, dumpScope)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err, ok := f.errs[name]; ok {
		return "", err
	}
	if fp, ok := f.fps[name]; ok {
		return fp, nil
	}
	return hash.Fingerprint("fp-" + name), nil
}

func (f *fakeFingerprinter) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := append([]string(nil), f.calls...)
	sort.Strings(out)
	return out
}

// recordingReporter records every event as a string.
type recordingReporter struct {
	mu       sync.Mutex
	events   []string
	phases   []string
	changed  []string
	errored  []string
	upToDate bool
}

func (r *recordingReporter) add(ev string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingReporter) Diffing(updateOnly bool) {
	if updateOnly {
		r.add("updating")
		return
	}
	r.add("diffing")
}

func (r *recordingReporter) UpToDate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upToDate = true
}

func (r *recordingReporter) Changed(rooms []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changed = append([]string(nil), rooms...)
}

func (r *recordingReporter) PhaseStarted(phase string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.phases = append(r.phases, phase)
}

func (r *recordingReporter) HookStarted(name, phase string)   { r.add("start " + phase + " " + name) }
func (r *recordingReporter) HookSucceeded(name, phase string) { r.add("ok " + phase + " " + name) }
func (r *recordingReporter) HookFailed(name, phase string, err error) {
	r.add("fail " + phase + " " + name)
}

func (r *recordingReporter) Summary(errored []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errored = append([]string(nil), errored...)
}

func (r *recordingReporter) phaseNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.phases...)
}

// timelineExecutor records start and end events of every command and keeps
// each command running for a short time, so overlapping phases would show up
// as interleaved events.
type timelineExecutor struct {
	mu      sync.Mutex
	events  []string
	active  int32
	maxSeen int32
	delay   time.Duration
}

func (x *timelineExecutor) Run(ctx context.Context, dir, command, name string) error {
	n := atomic.AddInt32(&x.active, 1)
	for {
		seen := atomic.LoadInt32(&x.maxSeen)
		if n <= seen || atomic.CompareAndSwapInt32(&x.maxSeen, seen, n) {
			break
		}
	}
	x.record("start " + command)
	time.Sleep(x.delay)
	x.record("end " + command)
	atomic.AddInt32(&x.active, -1)
	return nil
}

func (x *timelineExecutor) record(ev string) {
	x.mu.Lock()
	defer x.mu.Unlock()
	x.events = append(x.events, ev)
}

func (x *timelineExecutor) timeline() []string {
	x.mu.Lock()
	defer x.mu.Unlock()
	return append([]string(nil), x.events...)
}

type testEnv struct {
	project  *fakeProject
	fp       *fakeFingerprinter
	store    *state.MemoryHashStore
	exec     *shell.FakeExecutor
	reporter *recordingReporter
	clock    *clock.FakeClock
}

func newTestEnv(rooms ...room.Room) *testEnv {
	return &testEnv{
		project:  newFakeProject(rooms...),
		fp:       newFakeFingerprinter(),
		store:    state.NewMemoryHashStore(),
		exec:     shell.NewFakeExecutor(),
		reporter: &recordingReporter{},
		clock:    clock.NewFakeClock(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
	}
}

func (env *testEnv) engine(t *testing.T) *Engine {
	t.Helper()
	return New(env.project, env.fp, env.store, env.exec, env.reporter, nil, env.clock)
}

func (env *testEnv) engineWith(t *testing.T, exec shell.Executor) *Engine {
	t.Helper()
	return New(env.project, env.fp, env.store, exec, env.reporter, nil, env.clock)
}
