package room

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/curtiswilkinson/roomservice/internal/config"
	"github.com/curtiswilkinson/roomservice/internal/fsops"
	"github.com/curtiswilkinson/roomservice/internal/hash"
)

var (
	// ErrRoomPathMissing indicates a room's path does not exist.
	ErrRoomPathMissing = errors.New("path does not exist")

	// ErrDuplicateRoom indicates a room name was registered twice.
	ErrDuplicateRoom = errors.New("duplicate room")

	// ErrReservedRoomName indicates a room name that would collide with
	// another file in the cache directory.
	ErrReservedRoomName = errors.New("reserved room name")
)

// Registry owns the validated, path-resolved rooms of one project.
type Registry struct {
	fs        fsops.FS
	root      string
	cacheDir  string
	beforeAll string
	afterAll  string
	rooms     map[string]Room
}

// NewRegistry creates the registry for the project at paths and ensures its
// cache directory exists.
func NewRegistry(fs fsops.FS, paths *config.Paths) (*Registry, error) {
	if err := paths.EnsureCacheDir(fs); err != nil {
		return nil, err
	}
	return &Registry{
		fs:       fs,
		root:     paths.Root,
		cacheDir: paths.CacheDir,
		rooms:    make(map[string]Room),
	}, nil
}

// FromConfig builds a registry holding every room and global hook of cfg.
func FromConfig(fs fsops.FS, paths *config.Paths, cfg *config.Config) (*Registry, error) {
	reg, err := NewRegistry(fs, paths)
	if err != nil {
		return nil, err
	}
	reg.SetBeforeAll(cfg.BeforeAll)
	reg.SetAfterAll(cfg.AfterAll)

	for _, name := range cfg.RoomNames() {
		rc := cfg.Rooms[name]
		spec := Spec{
			Name:    name,
			Path:    rc.Path,
			Include: rc.Include,
			Hooks: Hooks{
				BeforeSynchronous: rc.BeforeSynchronous,
				Before:            rc.Before,
				RunParallel:       rc.RunParallel,
				RunSynchronous:    rc.RunSynchronous,
				After:             rc.After,
				Finally:           rc.Finally,
			},
		}
		if err := reg.AddRoom(spec); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// AddRoom resolves spec.Path against the project root and registers the room.
func (r *Registry) AddRoom(spec Spec) error {
	if err := r.fs.ValidateIdentifier(spec.Name); err != nil {
		return fmt.Errorf("invalid room name: %w", err)
	}
	// Cache entries and scope dumps share the cache directory.
	if strings.HasSuffix(spec.Name, hash.ScopeSuffix) {
		return fmt.Errorf("%w: %q must not end in %q", ErrReservedRoomName, spec.Name, hash.ScopeSuffix)
	}
	if _, ok := r.rooms[spec.Name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateRoom, spec.Name)
	}

	path := spec.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(r.root, path)
	}

	exists, err := r.fs.Exists(path)
	if err != nil {
		return fmt.Errorf("failed to check path for room %q: %w", spec.Name, err)
	}
	if !exists {
		return fmt.Errorf("%w for room %q at %q", ErrRoomPathMissing, spec.Name, spec.Path)
	}

	canonical, err := filepath.EvalSymlinks(path)
	if err != nil {
		return fmt.Errorf("failed to resolve path for room %q: %w", spec.Name, err)
	}
	canonical, err = filepath.Abs(canonical)
	if err != nil {
		return fmt.Errorf("failed to resolve path for room %q: %w", spec.Name, err)
	}
	if info, err := os.Stat(canonical); err != nil || !info.IsDir() {
		return fmt.Errorf("path for room %q at %q is not a directory", spec.Name, spec.Path)
	}

	include := spec.Include
	if include == "" {
		include = config.DefaultInclude
	}

	r.rooms[spec.Name] = Room{
		Name:    spec.Name,
		Path:    canonical,
		Include: include,
		Hooks:   spec.Hooks,
	}
	return nil
}

// SetBeforeAll sets the project-wide hook run once before any room hook.
func (r *Registry) SetBeforeAll(cmd string) { r.beforeAll = cmd }

// SetAfterAll sets the project-wide hook run once after every room hook.
func (r *Registry) SetAfterAll(cmd string) { r.afterAll = cmd }

// BeforeAll returns the beforeAll hook, or "".
func (r *Registry) BeforeAll() string { return r.beforeAll }

// AfterAll returns the afterAll hook, or "".
func (r *Registry) AfterAll() string { return r.afterAll }

// Root returns the project root.
func (r *Registry) Root() string { return r.root }

// CacheDir returns the project's cache directory.
func (r *Registry) CacheDir() string { return r.cacheDir }

// Has reports whether a room with name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.rooms[name]
	return ok
}

// Rooms returns every registered room ordered by name.
func (r *Registry) Rooms() []Room {
	out := make([]Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		out = append(out, room)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
