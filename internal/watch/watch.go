// Package watch re-runs roomservice when files under the watched rooms change.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/curtiswilkinson/roomservice/internal/hash"
	"github.com/curtiswilkinson/roomservice/internal/logging"
)

// DefaultDebounce is the quiet period after the last change before a run.
const DefaultDebounce = 300 * time.Millisecond

// RunFunc performs one run. Its error is logged and does not stop watching.
type RunFunc func(ctx context.Context) error

// Watcher watches a set of directory trees.
type Watcher struct {
	roots    []string
	debounce time.Duration
	logger   *slog.Logger
}

// New creates a Watcher over roots. A non-positive debounce uses
// DefaultDebounce.
func New(roots []string, debounce time.Duration, logger *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Watcher{roots: roots, debounce: debounce, logger: logger}
}

// Run calls run once, then again after every debounced batch of changes,
// until ctx is done. The roots are watched before the first run, so changes
// made while it executes trigger another run.
func (w *Watcher) Run(ctx context.Context, run RunFunc) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	for _, root := range w.roots {
		if err := addDirsRecursive(watcher, root, w.logger); err != nil {
			return err
		}
	}

	requests, trigger, stop := newDebouncer(w.debounce)
	defer stop()

	w.invoke(ctx, run)

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(watcher, ev, trigger)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", logging.Error(err))
		case <-requests:
			w.invoke(ctx, run)
		}
	}
}

func (w *Watcher) invoke(ctx context.Context, run RunFunc) {
	if err := run(ctx); err != nil && ctx.Err() == nil {
		w.logger.Warn("run failed", logging.Error(err))
	}
}

// handleEvent starts watching new directories and triggers a run for every
// relevant change.
func (w *Watcher) handleEvent(watcher *fsnotify.Watcher, ev fsnotify.Event, trigger func()) {
	if ev.Op == fsnotify.Chmod || shouldIgnoreEvent(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = addDirsRecursive(watcher, ev.Name, w.logger)
		}
	}
	w.logger.Debug("file change detected", logging.Path(ev.Name), slog.String("op", ev.Op.String()))
	trigger()
}

// addDirsRecursive watches root and every directory below it that is not a
// default exclude.
func addDirsRecursive(w *fsnotify.Watcher, root string, logger *slog.Logger) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("failed to watch %s: %w", root, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && isExcludedDir(d.Name()) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			logger.Warn("watch add failed", logging.Path(path), logging.Error(err))
		}
		return nil
	})
}

func isExcludedDir(name string) bool {
	return slices.Contains(hash.DefaultExcludes, name)
}

// shouldIgnoreEvent reports whether an event cannot affect a fingerprint:
// editor swap and backup files, and anything inside a default exclude.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)
	if strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") || strings.HasSuffix(base, ".swx") {
		return true
	}
	if strings.HasPrefix(base, ".#") || strings.HasPrefix(base, ".roomservice-tmp-") {
		return true
	}
	for _, part := range strings.Split(filepath.ToSlash(filepath.Dir(path)), "/") {
		if isExcludedDir(part) {
			return true
		}
	}
	return isExcludedDir(base)
}

// newDebouncer returns a channel that receives one value after trigger has
// not been called for delay. stop cancels a pending signal.
func newDebouncer(delay time.Duration) (<-chan struct{}, func(), func()) {
	var mu sync.Mutex
	var timer *time.Timer
	requests := make(chan struct{}, 1)

	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(delay, func() {
			select {
			case requests <- struct{}{}:
			default:
			}
		})
	}

	stop := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
	}

	return requests, trigger, stop
}
