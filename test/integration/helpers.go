package integration

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/curtiswilkinson/roomservice/internal/clock"
	"github.com/curtiswilkinson/roomservice/internal/config"
	"github.com/curtiswilkinson/roomservice/internal/engine"
	"github.com/curtiswilkinson/roomservice/internal/fsops"
	"github.com/curtiswilkinson/roomservice/internal/hash"
	"github.com/curtiswilkinson/roomservice/internal/room"
	"github.com/curtiswilkinson/roomservice/internal/shell"
	"github.com/curtiswilkinson/roomservice/internal/state"
)

// testProject is a project on disk whose hooks append to a log file, so the
// hooks that ran can be read back.
type testProject struct {
	t    *testing.T
	root string
	log  string
}

func newTestProject(t *testing.T, cfg string, files map[string]string) *testProject {
	t.Helper()
	root, err := filepath.EvalSymlinks(t.TempDir())
	if err != nil {
		t.Fatalf("failed to resolve temp dir: %v", err)
	}
	p := &testProject{t: t, root: root, log: filepath.Join(root, "hooks.log")}
	p.write(config.ConfigFileName, cfg)
	for rel, content := range files {
		p.write(rel, content)
	}
	return p
}

func (p *testProject) write(rel, content string) {
	p.t.Helper()
	path := filepath.Join(p.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		p.t.Fatalf("failed to create dir for %s: %v", rel, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		p.t.Fatalf("failed to write %s: %v", rel, err)
	}
}

// newEngine wires real implementations the way the CLI does.
func (p *testProject) newEngine() *engine.Engine {
	p.t.Helper()
	paths, err := config.FindProject(p.root)
	if err != nil {
		p.t.Fatalf("FindProject failed: %v", err)
	}
	cfg, err := config.Load(paths.ConfigFile)
	if err != nil {
		p.t.Fatalf("Load failed: %v", err)
	}

	fs := fsops.NewRealFS()
	registry, err := room.FromConfig(fs, paths, cfg)
	if err != nil {
		p.t.Fatalf("FromConfig failed: %v", err)
	}

	return engine.New(
		registry,
		hash.NewTreeHasher(hash.NewBlake2bHasher(), fs, paths.Root, paths.CacheDir),
		state.NewFileHashStore(fs, paths.CacheDir),
		shell.NewShellExecutor(),
		nil,
		nil,
		&clock.RealClock{},
	)
}

// hooks returns the lines written to the hook log and truncates it.
func (p *testProject) hooks() []string {
	p.t.Helper()
	data, err := os.ReadFile(p.log)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		p.t.Fatalf("failed to read hook log: %v", err)
	}
	if err := os.Remove(p.log); err != nil {
		p.t.Fatalf("failed to reset hook log: %v", err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// cacheEntry returns the cache entry of a room, or "" when absent.
func (p *testProject) cacheEntry(name string) string {
	p.t.Helper()
	data, err := os.ReadFile(filepath.Join(p.root, config.CacheDirName, name))
	if os.IsNotExist(err) {
		return ""
	}
	if err != nil {
		p.t.Fatalf("failed to read cache entry: %v", err)
	}
	return string(data)
}
