package cli

import (
	"io"
	"log/slog"
	"os"

	"github.com/curtiswilkinson/roomservice/internal/clock"
	"github.com/curtiswilkinson/roomservice/internal/config"
	"github.com/curtiswilkinson/roomservice/internal/engine"
	"github.com/curtiswilkinson/roomservice/internal/fsops"
	"github.com/curtiswilkinson/roomservice/internal/hash"
	"github.com/curtiswilkinson/roomservice/internal/logging"
	"github.com/curtiswilkinson/roomservice/internal/room"
	"github.com/curtiswilkinson/roomservice/internal/shell"
	"github.com/curtiswilkinson/roomservice/internal/state"
)

// app bundles the engine with the project it was built for.
type app struct {
	engine   *engine.Engine
	registry *room.Registry
	logger   *slog.Logger
	out      io.Writer
}

// newApp locates the project and creates an engine with real implementations
// of all dependencies.
func newApp(opts *runOptions, out io.Writer) (*app, error) {
	paths, err := config.FindProject(opts.project)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(paths.ConfigFile)
	if err != nil {
		return nil, err
	}

	fs := fsops.NewRealFS()
	registry, err := room.FromConfig(fs, paths, cfg)
	if err != nil {
		return nil, err
	}

	logger := logging.New(os.Stderr, opts.verbose)
	logger.Debug("project loaded",
		logging.Path(paths.Root),
		slog.String("config", paths.ConfigFile),
		slog.Int("rooms", len(registry.Rooms())))

	fingerprinter := hash.NewTreeHasher(hash.NewBlake2bHasher(), fs, paths.Root, paths.CacheDir)
	store := state.NewFileHashStore(fs, paths.CacheDir)
	executor := shell.NewShellExecutor()
	reporter := newConsoleReporter(out)

	eng := engine.New(registry, fingerprinter, store, executor, reporter, logger, &clock.RealClock{})
	return &app{engine: eng, registry: registry, logger: logger, out: out}, nil
}

// formatError formats an error for display.
func formatError(err error) string {
	return errorColor.Sprintf("Error: %v", err)
}

// roomPaths returns the paths of the rooms taking part in req.
func (a *app) roomPaths(req *engine.RunRequest) []string {
	var paths []string
	for _, r := range a.engine.Participants(req) {
		paths = append(paths, r.Path)
	}
	return paths
}
