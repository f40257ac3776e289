package state

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/curtiswilkinson/roomservice/internal/fsops"
	"github.com/curtiswilkinson/roomservice/internal/hash"
)

func TestFileHashStore_RoundTrip(t *testing.T) {
	cacheDir := t.TempDir()
	store := NewFileHashStore(fsops.NewRealFS(), cacheDir)

	if _, ok := store.Previous("web"); ok {
		t.Fatal("expected no entry before the first write")
	}

	fp := hash.Fingerprint("aaaa\nbbbb\n")
	if err := store.Write("web", fp); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, ok := store.Previous("web")
	if !ok {
		t.Fatal("expected entry after write")
	}
	if got != fp {
		t.Errorf("Previous = %q, want %q", got, fp)
	}

	// The entry is the raw fingerprint, named after the room.
	data, err := os.ReadFile(filepath.Join(cacheDir, "web"))
	if err != nil {
		t.Fatalf("cache file missing: %v", err)
	}
	if string(data) != string(fp) {
		t.Errorf("cache file content = %q, want %q", data, fp)
	}
}

func TestFileHashStore_Overwrite(t *testing.T) {
	store := NewFileHashStore(fsops.NewRealFS(), t.TempDir())

	if err := store.Write("api", "old"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := store.Write("api", "new"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	got, _ := store.Previous("api")
	if got != "new" {
		t.Errorf("Previous = %q, want %q", got, "new")
	}
}

func TestFileHashStore_UnreadableEntryIsNoRecord(t *testing.T) {
	cacheDir := t.TempDir()
	// A directory where the entry file should be cannot be read as a file.
	if err := os.Mkdir(filepath.Join(cacheDir, "web"), 0755); err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	store := NewFileHashStore(fsops.NewRealFS(), cacheDir)
	if _, ok := store.Previous("web"); ok {
		t.Error("an unreadable entry should be reported as missing")
	}
}

func TestFileHashStore_WriteErrors(t *testing.T) {
	t.Run("missing cache directory", func(t *testing.T) {
		store := NewFileHashStore(fsops.NewRealFS(), filepath.Join(t.TempDir(), "gone"))
		if err := store.Write("web", "fp"); err == nil {
			t.Error("expected error when the cache directory does not exist")
		}
	})

	t.Run("unsafe room name", func(t *testing.T) {
		store := NewFileHashStore(fsops.NewRealFS(), t.TempDir())
		if err := store.Write("../escape", "fp"); err == nil {
			t.Error("expected error for a room name containing a path separator")
		}
	})
}

func TestMemoryHashStore(t *testing.T) {
	store := NewMemoryHashStore()
	store.Set("seeded", "fp0")

	if fp, ok := store.Previous("seeded"); !ok || fp != "fp0" {
		t.Errorf("Previous(seeded) = %q, %v", fp, ok)
	}
	if len(store.Writes()) != 0 {
		t.Error("Set should not record a write")
	}

	if err := store.Write("web", "fp1"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	boom := errors.New("disk full")
	store.FailWrite("api", boom)
	if err := store.Write("api", "fp2"); !errors.Is(err, boom) {
		t.Errorf("expected configured failure, got %v", err)
	}

	writes := store.Writes()
	if len(writes) != 1 || writes[0] != "web" {
		t.Errorf("Writes = %v, want [web]", writes)
	}
}
