// Package engine implements the log-structured key-value storage
// engine: an append-only command log on disk, a lock-free in-memory
// index pointing into it, and online compaction that reclaims space
// from overwritten and removed keys without blocking readers.
package engine

import (
	"errors"

	"kvs/internal/record"
)

// Engine is the capability surface every storage backend exposes.
// KvStore is the log-structured implementation in this package;
// internal/boltengine provides an alternative backed by an embedded
// B+tree store, selected at the server boundary, not here.
type Engine interface {
	Get(key string) (value string, found bool, err error)
	Set(key, value string) error
	Remove(key string) error
	Close() error
}

// ReaderProvider is satisfied by Engine implementations that can hand
// out a private, per-caller Reader (see KvStore.NewReader). Callers
// that issue many reads from one goroutine, such as a server
// connection handler, should obtain one of these instead of calling
// Get directly, to avoid contending on the engine's shared cache.
// BoltEngine does not implement this; bbolt reads need no such cache.
type ReaderProvider interface {
	NewReader() *Reader
}

var (
	// ErrKeyNotFound is returned by Remove for a key the index has no
	// entry for. Get instead reports absence through its found return.
	ErrKeyNotFound = errors.New("engine: key not found")
	// ErrClosed is returned by any operation on a closed engine.
	ErrClosed = errors.New("engine: engine is closed")
	// ErrCorruptIndex is returned when a record read back through the
	// index does not decode to the kind the index expects (always a
	// Set, since removed keys are never indexed). It indicates the
	// on-disk log and in-memory index have diverged.
	ErrCorruptIndex = errors.New("engine: index points at a non-set record")
)

// ValidateKey rejects keys that are empty or not valid UTF-8 text, and
// returns their NFC-normalized form.
func ValidateKey(key string) (string, error) {
	return record.ValidateText(key)
}
