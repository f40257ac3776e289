package hash

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"
)

// IgnoreFiles are read from every visited directory, and from the directories
// between the project root and a room, using gitignore syntax.
var IgnoreFiles = []string{".gitignore", ".ignore"}

// DefaultExcludes are directory names that never contribute to a fingerprint:
// version control metadata, the roomservice cache and common dependency and
// build output directories.
var DefaultExcludes = []string{
	".git",
	".hg",
	".svn",
	".roomservice",
	"node_modules",
	"bower_components",
	"dist",
	"build",
	"target",
	"__pycache__",
}

// ignoreRules is an ordered list of gitignore patterns. Later patterns take
// precedence over earlier ones, as with git.
type ignoreRules struct {
	patterns []gitignore.Pattern
}

// newIgnoreRules seeds the rules with DefaultExcludes scoped to the room
// directory, so a room is never excluded by its own location.
func newIgnoreRules(roomDomain []string) *ignoreRules {
	r := &ignoreRules{}
	for _, name := range DefaultExcludes {
		r.patterns = append(r.patterns, gitignore.ParsePattern(name+"/", roomDomain))
	}
	return r
}

// with returns a copy of r extended by the ignore files found in dir. domain
// is dir expressed as path components relative to the match root.
func (r *ignoreRules) with(dir string, domain []string) (*ignoreRules, error) {
	var added []gitignore.Pattern
	for _, name := range IgnoreFiles {
		patterns, err := readIgnoreFile(filepath.Join(dir, name), domain)
		if err != nil {
			return nil, err
		}
		added = append(added, patterns...)
	}
	if len(added) == 0 {
		return r, nil
	}

	next := &ignoreRules{patterns: make([]gitignore.Pattern, 0, len(r.patterns)+len(added))}
	next.patterns = append(next.patterns, r.patterns...)
	next.patterns = append(next.patterns, added...)
	return next, nil
}

// match reports whether path (components relative to the match root) is ignored.
func (r *ignoreRules) match(path []string, isDir bool) bool {
	for i := len(r.patterns) - 1; i >= 0; i-- {
		switch r.patterns[i].Match(path, isDir) {
		case gitignore.Exclude:
			return true
		case gitignore.Include:
			return false
		}
	}
	return false
}

func readIgnoreFile(path string, domain []string) ([]gitignore.Pattern, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open ignore file %s: %w", path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	var patterns []gitignore.Pattern
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, domain))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ignore file %s: %w", path, err)
	}
	return patterns, nil
}

// splitPath turns a slash- or separator-delimited relative path into components.
func splitPath(rel string) []string {
	rel = filepath.ToSlash(rel)
	if rel == "." || rel == "" {
		return nil
	}
	return strings.Split(rel, "/")
}
