// Package state persists the fingerprints recorded by previous runs.
//
// Each room has one cache entry: a file named after the room inside the
// project's .roomservice directory, holding the raw fingerprint of the most
// recent run in which the room did not error. An absent or unreadable entry
// means "no prior record", which makes the room count as changed.
//
// Key concepts:
//   - HashStore: Interface for reading and writing cache entries
//   - FileHashStore: One-file-per-room implementation over fsops.FS
//   - MemoryHashStore: In-memory implementation for tests
package state
