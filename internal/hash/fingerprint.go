package hash

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/curtiswilkinson/roomservice/internal/fsops"
)

// Fingerprint summarises the content of a room's file tree. Two fingerprints
// are equal exactly when every visited file has the same digest, in the same
// order.
type Fingerprint string

// String returns the string representation of the Fingerprint.
func (f Fingerprint) String() string {
	return string(f)
}

// ScopeSuffix is appended to a room name to form its scope dump file name.
const ScopeSuffix = ".scope"

// TreeHasher computes fingerprints of directory trees.
//
// The walk honors .gitignore and .ignore files in the visited directories and
// in the directories between the project root and the room, skips
// DefaultExcludes, and never follows symlinks. filepath.WalkDir visits entries
// in lexical order, so the fingerprint of a tree does not depend on the
// directory-entry order of the underlying filesystem.
type TreeHasher struct {
	hasher      Hasher
	fs          fsops.FS
	projectRoot string
	scopeDir    string
}

// NewTreeHasher creates a TreeHasher. Ignore files are resolved relative to
// projectRoot; scope dumps are written into scopeDir.
func NewTreeHasher(hasher Hasher, fs fsops.FS, projectRoot, scopeDir string) *TreeHasher {
	return &TreeHasher{
		hasher:      hasher,
		fs:          fs,
		projectRoot: filepath.Clean(projectRoot),
		scopeDir:    scopeDir,
	}
}

// Fingerprint walks roomPath and returns its fingerprint. When dumpScope is
// set the visited file paths are also written, one per line, to
// <scopeDir>/<name>.scope. Any unreadable file fails the whole computation.
func (t *TreeHasher) Fingerprint(ctx context.Context, name, roomPath string, dumpScope bool) (Fingerprint, error) {
	roomPath = filepath.Clean(roomPath)
	base := t.matchRoot(roomPath)

	roomRel, err := filepath.Rel(base, roomPath)
	if err != nil {
		return "", fmt.Errorf("failed to hash room %q: %w", name, err)
	}
	roomDomain := splitPath(roomRel)

	rules, err := t.ancestorRules(newIgnoreRules(roomDomain), base, roomDomain)
	if err != nil {
		return "", fmt.Errorf("failed to hash room %q: %w", name, err)
	}

	var sum strings.Builder
	var scope strings.Builder
	rulesByDir := map[string]*ignoreRules{}

	err = filepath.WalkDir(roomPath, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(base, path)
		if err != nil {
			return err
		}
		components := splitPath(rel)

		if d.IsDir() {
			parent := rules
			if path != roomPath {
				parent = rulesByDir[filepath.Dir(path)]
				if parent.match(components, true) {
					return filepath.SkipDir
				}
			}
			dirRules, err := parent.with(path, components)
			if err != nil {
				return err
			}
			rulesByDir[path] = dirRules
			return nil
		}

		// Symlinks, sockets and devices are not content.
		if !d.Type().IsRegular() {
			return nil
		}
		if rulesByDir[filepath.Dir(path)].match(components, false) {
			return nil
		}

		digest, err := t.hasher.HashFile(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		sum.WriteString(digest)
		sum.WriteByte('\n')

		if dumpScope {
			scope.WriteString(path)
			scope.WriteByte('\n')
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to hash room %q: %w", name, err)
	}

	if dumpScope {
		scopePath := filepath.Join(t.scopeDir, name+ScopeSuffix)
		if err := t.fs.AtomicWrite(scopePath, []byte(scope.String()), 0644); err != nil {
			return "", fmt.Errorf("failed to dump scope for room %q: %w", name, err)
		}
	}

	return Fingerprint(sum.String()), nil
}

// matchRoot returns the directory ignore patterns are anchored at: the project
// root when the room lives inside it, otherwise the room itself.
func (t *TreeHasher) matchRoot(roomPath string) string {
	rel, err := filepath.Rel(t.projectRoot, roomPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return roomPath
	}
	return t.projectRoot
}

// ancestorRules extends rules with the ignore files found from base down to,
// but excluding, the room directory identified by roomDomain.
func (t *TreeHasher) ancestorRules(rules *ignoreRules, base string, roomDomain []string) (*ignoreRules, error) {
	var err error
	dir := base
	for i := 0; i < len(roomDomain); i++ {
		rules, err = rules.with(dir, roomDomain[:i])
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(dir, roomDomain[i])
	}
	return rules, nil
}
