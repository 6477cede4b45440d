// Package index is the in-memory key directory: a lock-free,
// read-optimized map from key to the location of its most recent
// command record. Readers consult it without blocking the writer or
// each other; only writes (Set/Remove) are serialized, by the engine's
// single writer lock.
package index

import (
	"github.com/launix-de/NonLockingReadMap"
)

// Entry is the position of one command record: which generation file
// it lives in, and its byte range within that file.
type Entry struct {
	Key    string
	Gen    uint64
	Start  int64
	Length int64
}

// GetKey satisfies NonLockingReadMap.KeyGetter[string].
func (e Entry) GetKey() string { return e.Key }

// ComputeSize satisfies NonLockingReadMap.Sizable. It estimates the
// entry's resident memory footprint, used by Index.ComputeSize to
// report the in-memory index's contribution to engine memory use.
func (e Entry) ComputeSize() uint {
	return uint(len(e.Key)) + 8 + 8 + 8 + 16 // Gen + Start + Length + struct overhead
}

// Index is the engine's key directory.
type Index struct {
	m NonLockingReadMap.NonLockingReadMap[Entry, string]
}

// New returns an empty index.
func New() *Index {
	idx := &Index{m: NonLockingReadMap.New[Entry, string]()}
	return idx
}

// Get returns the entry for key and whether it was present.
func (idx *Index) Get(key string) (Entry, bool) {
	e := idx.m.Get(key)
	if e == nil {
		return Entry{}, false
	}
	return *e, true
}

// Set records e under e.Key, replacing any prior entry, and returns
// the replaced entry (for reclaiming its stale bytes), if there was one.
func (idx *Index) Set(e Entry) (prev Entry, hadPrev bool) {
	old := idx.m.Set(&e)
	if old == nil {
		return Entry{}, false
	}
	return *old, true
}

// Remove deletes key from the index and returns its prior entry, if any.
func (idx *Index) Remove(key string) (prev Entry, hadPrev bool) {
	old := idx.m.Remove(key)
	if old == nil {
		return Entry{}, false
	}
	return *old, true
}

// All returns every live entry. Used to rebuild a fresh generation
// during compaction.
func (idx *Index) All() []Entry {
	ptrs := idx.m.GetAll()
	out := make([]Entry, len(ptrs))
	for i, p := range ptrs {
		out[i] = *p
	}
	return out
}

// Len returns the number of live keys.
func (idx *Index) Len() int {
	return len(idx.m.GetAll())
}

// ComputeSize estimates the index's resident memory footprint.
func (idx *Index) ComputeSize() uint {
	return idx.m.ComputeSize()
}
