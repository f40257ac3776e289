package state

import (
	"fmt"
	"path/filepath"
	"sync"

	"github.com/curtiswilkinson/roomservice/internal/fsops"
	"github.com/curtiswilkinson/roomservice/internal/hash"
)

// HashStore provides an interface for persisting room fingerprints.
type HashStore interface {
	// Previous returns the fingerprint recorded for the room, if any.
	// A missing or unreadable entry is reported as ok == false, never as an error.
	Previous(room string) (fp hash.Fingerprint, ok bool)

	// Write creates or overwrites the room's entry.
	Write(room string, fp hash.Fingerprint) error
}

// FileHashStore implements HashStore with one file per room.
type FileHashStore struct {
	fs       fsops.FS
	cacheDir string
}

// NewFileHashStore creates a new FileHashStore rooted at cacheDir.
func NewFileHashStore(fs fsops.FS, cacheDir string) *FileHashStore {
	return &FileHashStore{
		fs:       fs,
		cacheDir: cacheDir,
	}
}

// EntryPath returns the cache entry path for a room.
func (s *FileHashStore) EntryPath(room string) string {
	return filepath.Join(s.cacheDir, room)
}

// Previous reads the cache entry for the room.
func (s *FileHashStore) Previous(room string) (hash.Fingerprint, bool) {
	data, err := s.fs.ReadFile(s.EntryPath(room))
	if err != nil {
		return "", false
	}
	return hash.Fingerprint(data), true
}

// Write saves the room's fingerprint atomically.
func (s *FileHashStore) Write(room string, fp hash.Fingerprint) error {
	if err := s.fs.ValidateIdentifier(room); err != nil {
		return fmt.Errorf("invalid room name: %w", err)
	}
	if err := s.fs.AtomicWrite(s.EntryPath(room), []byte(fp), 0644); err != nil {
		return fmt.Errorf("failed to write cache entry for room %q: %w", room, err)
	}
	return nil
}

// MemoryHashStore implements HashStore in memory.
type MemoryHashStore struct {
	mu      sync.Mutex
	entries map[string]hash.Fingerprint
	writes  []string
	failOn  map[string]error
}

// NewMemoryHashStore creates an empty MemoryHashStore.
func NewMemoryHashStore() *MemoryHashStore {
	return &MemoryHashStore{
		entries: make(map[string]hash.Fingerprint),
		failOn:  make(map[string]error),
	}
}

// Set seeds an entry without recording a write.
func (s *MemoryHashStore) Set(room string, fp hash.Fingerprint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[room] = fp
}

// FailWrite makes Write fail for the room.
func (s *MemoryHashStore) FailWrite(room string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn[room] = err
}

// Previous returns the stored entry.
func (s *MemoryHashStore) Previous(room string) (hash.Fingerprint, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fp, ok := s.entries[room]
	return fp, ok
}

// Write stores the entry and records the write.
func (s *MemoryHashStore) Write(room string, fp hash.Fingerprint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failOn[room]; ok {
		return err
	}
	s.entries[room] = fp
	s.writes = append(s.writes, room)
	return nil
}

// Writes returns the room names written so far, in write order.
func (s *MemoryHashStore) Writes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.writes))
	copy(out, s.writes)
	return out
}
