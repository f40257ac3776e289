// Package hash provides content fingerprinting for change detection.
//
// Roomservice decides whether a room needs to be rebuilt by comparing a
// fingerprint of the room's file tree against the one recorded on the last
// successful run. A fingerprint is the concatenation, in walk order, of a
// 128-bit BLAKE2b digest of every regular file under the room. The package
// provides both a real per-file hasher and a fake implementation for testing.
package hash

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/crypto/blake2b"
)

// DigestSize is the size in bytes of a per-file digest.
const DigestSize = 16

// digestKey keys the BLAKE2b digest so fingerprints are specific to roomservice.
var digestKey = []byte("roomservice")

// Hasher provides an abstraction for file hashing operations.
type Hasher interface {
	// HashFile computes the hash of the file at the given path.
	HashFile(path string) (string, error)
}

// Blake2bHasher implements Hasher using a keyed 128-bit BLAKE2b digest.
type Blake2bHasher struct{}

// NewBlake2bHasher creates a new Blake2bHasher.
func NewBlake2bHasher() *Blake2bHasher {
	return &Blake2bHasher{}
}

// HashFile computes the hex-encoded BLAKE2b-128 digest of the file at path.
func (h *Blake2bHasher) HashFile(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	hasher, err := blake2b.New(DigestSize, digestKey)
	if err != nil {
		return "", fmt.Errorf("failed to create digest: %w", err)
	}
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// FakeHasher implements Hasher with deterministic hashes for testing.
type FakeHasher struct {
	mu     sync.Mutex
	hashes map[string]string
	errs   map[string]error
}

// NewFakeHasher creates a new FakeHasher.
func NewFakeHasher() *FakeHasher {
	return &FakeHasher{
		hashes: make(map[string]string),
		errs:   make(map[string]error),
	}
}

// SetHash sets the hash for a specific path (for testing).
func (h *FakeHasher) SetHash(path, hash string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.hashes[path] = hash
}

// SetError makes HashFile fail for a specific path.
func (h *FakeHasher) SetError(path string, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errs[path] = err
}

// HashFile returns the predetermined hash for the given path.
func (h *FakeHasher) HashFile(path string) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err, ok := h.errs[path]; ok {
		return "", err
	}
	if hash, ok := h.hashes[path]; ok {
		return hash, nil
	}
	// Default hash if not set
	return "fakehash", nil
}
