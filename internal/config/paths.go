// Package config locates a roomservice project and loads its configuration.
//
// A project is the directory containing roomservice.config.yml. Its cache of
// room fingerprints lives in <root>/.roomservice. The project can be given
// explicitly (a config file or a directory to search from) or found by
// searching upward from the current directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/curtiswilkinson/roomservice/internal/fsops"
)

const (
	// ConfigFileName is the name of the project configuration file.
	ConfigFileName = "roomservice.config.yml"

	// CacheDirName is the name of the cache directory inside the project root.
	CacheDirName = ".roomservice"

	// ProjectEnv overrides the starting point of project discovery.
	ProjectEnv = "ROOMSERVICE_PROJECT"
)

// ErrConfigNotFound indicates no configuration file could be located.
var ErrConfigNotFound = errors.New("no config found")

// Paths contains the filesystem locations of a project.
type Paths struct {
	// Root is the absolute, canonical project root
	Root string

	// CacheDir holds one fingerprint file per room (Root/.roomservice)
	CacheDir string

	// ConfigFile is the configuration file that was found
	ConfigFile string
}

// FindProject resolves the project from start.
//
// An empty start falls back to $ROOMSERVICE_PROJECT and then the current
// directory. A file is taken as the config file and its parent directory as
// the root. A directory is searched, together with its ancestors, for
// roomservice.config.yml.
func FindProject(start string) (*Paths, error) {
	if start == "" {
		start = os.Getenv(ProjectEnv)
	}
	if start == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		start = cwd
	}

	abs, err := canonical(start)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, start)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, start)
	}
	if !info.IsDir() {
		return newPaths(filepath.Dir(abs), abs), nil
	}

	current := abs
	for {
		candidate := filepath.Join(current, ConfigFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return newPaths(current, candidate), nil
		}

		parent := filepath.Dir(current)
		if parent == current {
			// Reached root directory
			return nil, fmt.Errorf("%w: searched upward from %s", ErrConfigNotFound, abs)
		}
		current = parent
	}
}

func newPaths(root, configFile string) *Paths {
	return &Paths{
		Root:       root,
		CacheDir:   filepath.Join(root, CacheDirName),
		ConfigFile: configFile,
	}
}

// EnsureCacheDir creates the cache directory. An existing directory is fine;
// any other failure is returned.
func (p *Paths) EnsureCacheDir(fs fsops.FS) error {
	if err := fs.Mkdir(p.CacheDir, 0755); err != nil {
		return fmt.Errorf("unable to create %s directory in project: %w", CacheDirName, err)
	}
	return nil
}

// canonical returns the absolute path with symlinks resolved.
func canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
