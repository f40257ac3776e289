package hash

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/curtiswilkinson/roomservice/internal/fsops"
)

// writeTree creates files (relative path -> content) under root.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create dir for %s: %v", rel, err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", rel, err)
		}
	}
}

func newTestTreeHasher(t *testing.T, root string) *TreeHasher {
	t.Helper()
	scopeDir := filepath.Join(root, ".roomservice")
	if err := os.MkdirAll(scopeDir, 0755); err != nil {
		t.Fatalf("failed to create scope dir: %v", err)
	}
	return NewTreeHasher(NewBlake2bHasher(), fsops.NewRealFS(), root, scopeDir)
}

func mustFingerprint(t *testing.T, h *TreeHasher, name, path string) Fingerprint {
	t.Helper()
	fp, err := h.Fingerprint(context.Background(), name, path, false)
	if err != nil {
		t.Fatalf("Fingerprint(%s) failed: %v", name, err)
	}
	return fp
}

func TestTreeHasher_Idempotent(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"web/index.js":      "console.log('hi')",
		"web/src/app.js":    "export default 1",
		"web/src/style.css": "body {}",
	})
	h := newTestTreeHasher(t, root)
	room := filepath.Join(root, "web")

	first := mustFingerprint(t, h, "web", room)
	second := mustFingerprint(t, h, "web", room)

	if first == "" {
		t.Fatal("expected a non-empty fingerprint")
	}
	if first != second {
		t.Errorf("fingerprint changed without mutation:\n%s\nvs\n%s", first, second)
	}
	if lines := strings.Count(first.String(), "\n"); lines != 3 {
		t.Errorf("expected one digest per file (3), got %d", lines)
	}
}

func TestTreeHasher_DetectsChanges(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T, room string)
	}{
		{
			name: "file content changed",
			mutate: func(t *testing.T, room string) {
				writeTree(t, room, map[string]string{"index.js": "console.log('bye')"})
			},
		},
		{
			name: "file added",
			mutate: func(t *testing.T, room string) {
				writeTree(t, room, map[string]string{"lib/new.js": "new"})
			},
		},
		{
			name: "file removed",
			mutate: func(t *testing.T, room string) {
				if err := os.Remove(filepath.Join(room, "index.js")); err != nil {
					t.Fatalf("remove failed: %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeTree(t, root, map[string]string{
				"web/index.js":    "console.log('hi')",
				"web/lib/util.js": "util",
			})
			h := newTestTreeHasher(t, root)
			room := filepath.Join(root, "web")

			before := mustFingerprint(t, h, "web", room)
			tt.mutate(t, room)
			after := mustFingerprint(t, h, "web", room)

			if before == after {
				t.Error("expected fingerprint to change")
			}
		})
	}
}

func TestTreeHasher_SkipsExcludedContent(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
		// path (relative to root) that is rewritten between the two fingerprints
		touch string
	}{
		{
			name:  "dependency directory",
			files: map[string]string{"web/index.js": "x", "web/node_modules/dep/index.js": "dep"},
			touch: "web/node_modules/dep/index.js",
		},
		{
			name:  "version control directory",
			files: map[string]string{"web/index.js": "x", "web/.git/HEAD": "ref"},
			touch: "web/.git/HEAD",
		},
		{
			name:  "gitignore inside the room",
			files: map[string]string{"web/index.js": "x", "web/.gitignore": "*.log\n", "web/debug.log": "1"},
			touch: "web/debug.log",
		},
		{
			name:  "ignore file inside the room",
			files: map[string]string{"web/index.js": "x", "web/.ignore": "coverage/\n", "web/coverage/lcov.info": "1"},
			touch: "web/coverage/lcov.info",
		},
		{
			name:  "gitignore at the project root",
			files: map[string]string{".gitignore": "*.tmp\n", "web/index.js": "x", "web/cache.tmp": "1"},
			touch: "web/cache.tmp",
		},
		{
			name:  "gitignore in a nested directory",
			files: map[string]string{"web/index.js": "x", "web/src/.gitignore": "generated.js\n", "web/src/generated.js": "1"},
			touch: "web/src/generated.js",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeTree(t, root, tt.files)
			h := newTestTreeHasher(t, root)
			room := filepath.Join(root, "web")

			before := mustFingerprint(t, h, "web", room)
			writeTree(t, root, map[string]string{tt.touch: "changed content"})
			after := mustFingerprint(t, h, "web", room)

			if before != after {
				t.Errorf("change to %s should not affect the fingerprint", tt.touch)
			}
		})
	}
}

func TestTreeHasher_NegatedIgnoreRule(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"web/.gitignore": "*.log\n!keep.log\n",
		"web/keep.log":   "1",
	})
	h := newTestTreeHasher(t, root)
	room := filepath.Join(root, "web")

	before := mustFingerprint(t, h, "web", room)
	writeTree(t, root, map[string]string{"web/keep.log": "2"})
	after := mustFingerprint(t, h, "web", room)

	if before == after {
		t.Error("re-included file should contribute to the fingerprint")
	}
}

func TestTreeHasher_RoomNamedLikeExcludedDirectory(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"build/Makefile": "all:"})
	h := newTestTreeHasher(t, root)

	fp := mustFingerprint(t, h, "build", filepath.Join(root, "build"))
	if fp == "" {
		t.Error("a room located at an excluded directory name should still hash its own files")
	}
}

func TestTreeHasher_ProjectRootRoomSkipsCacheDir(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{"main.go": "package main"})
	h := newTestTreeHasher(t, root)

	before := mustFingerprint(t, h, "root", root)
	writeTree(t, root, map[string]string{".roomservice/root": "previous fingerprint"})
	after := mustFingerprint(t, h, "root", root)

	if before != after {
		t.Error("the cache directory must not contribute to a fingerprint")
	}
}

func TestTreeHasher_DoesNotFollowSymlinks(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	writeTree(t, root, map[string]string{"web/index.js": "x"})
	writeTree(t, outside, map[string]string{"shared.js": "v1"})

	if err := os.Symlink(filepath.Join(outside, "shared.js"), filepath.Join(root, "web", "shared.js")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}

	h := newTestTreeHasher(t, root)
	room := filepath.Join(root, "web")

	before := mustFingerprint(t, h, "web", room)
	writeTree(t, outside, map[string]string{"shared.js": "v2"})
	after := mustFingerprint(t, h, "web", room)

	if before != after {
		t.Error("symlink target content should not affect the fingerprint")
	}
}

func TestTreeHasher_WalkOrder(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"web/b.txt":     "b",
		"web/a.txt":     "a",
		"web/sub/c.txt": "c",
	})

	fake := NewFakeHasher()
	room := filepath.Join(root, "web")
	fake.SetHash(filepath.Join(room, "a.txt"), "A")
	fake.SetHash(filepath.Join(room, "b.txt"), "B")
	fake.SetHash(filepath.Join(room, "sub", "c.txt"), "C")

	h := NewTreeHasher(fake, fsops.NewRealFS(), root, root)
	fp, err := h.Fingerprint(context.Background(), "web", room, false)
	if err != nil {
		t.Fatalf("Fingerprint failed: %v", err)
	}

	if fp != "A\nB\nC\n" {
		t.Errorf("fingerprint = %q, want lexical walk order %q", fp, "A\nB\nC\n")
	}
}

func TestTreeHasher_DumpScope(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"api/main.go":        "package main",
		"api/node_modules/x": "skip me",
	})
	h := newTestTreeHasher(t, root)
	room := filepath.Join(root, "api")

	if _, err := h.Fingerprint(context.Background(), "api", room, true); err != nil {
		t.Fatalf("Fingerprint failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, ".roomservice", "api"+ScopeSuffix))
	if err != nil {
		t.Fatalf("scope file not written: %v", err)
	}
	want := filepath.Join(room, "main.go") + "\n"
	if string(data) != want {
		t.Errorf("scope = %q, want %q", data, want)
	}
}

func TestTreeHasher_Errors(t *testing.T) {
	t.Run("unreadable file fails the computation", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root, map[string]string{"web/secret.txt": "x"})
		room := filepath.Join(root, "web")

		fake := NewFakeHasher()
		boom := errors.New("permission denied")
		fake.SetError(filepath.Join(room, "secret.txt"), boom)

		h := NewTreeHasher(fake, fsops.NewRealFS(), root, root)
		if _, err := h.Fingerprint(context.Background(), "web", room, false); !errors.Is(err, boom) {
			t.Errorf("expected wrapped hashing error, got: %v", err)
		}
	})

	t.Run("missing room path", func(t *testing.T) {
		root := t.TempDir()
		h := newTestTreeHasher(t, root)
		if _, err := h.Fingerprint(context.Background(), "gone", filepath.Join(root, "gone"), false); err == nil {
			t.Error("expected error for missing room path")
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		root := t.TempDir()
		writeTree(t, root, map[string]string{"web/a.txt": "a"})
		h := newTestTreeHasher(t, root)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := h.Fingerprint(ctx, "web", filepath.Join(root, "web"), false); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got: %v", err)
		}
	})
}
