// Package boltengine is the alternative Engine implementation named
// by the storage engine's capability contract: an embedded B+tree
// store instead of the log-structured design in internal/engine.
// Callers that only need the Engine interface can swap between the
// two without any other code change.
package boltengine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"kvs/internal/engine"
	"kvs/internal/marker"

	bolt "go.etcd.io/bbolt"
)

var bucketName = []byte("kv")

// BoltEngine stores keys and values in a single bbolt bucket. Every
// operation is its own transaction; bbolt serializes writers and lets
// readers proceed against a consistent snapshot, so this engine needs
// no locking of its own.
type BoltEngine struct {
	db *bolt.DB
}

// Open creates or opens a bbolt-backed store rooted at dir.
func Open(dir string) (*BoltEngine, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("boltengine: create data dir %s: %w", dir, err)
	}
	if err := marker.Ensure(dir, marker.Bolt); err != nil {
		return nil, err
	}

	path := filepath.Join(dir, "data.bolt")
	db, err := bolt.Open(path, 0o644, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("boltengine: open %s: %w", path, err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("boltengine: create bucket: %w", err)
	}

	return &BoltEngine{db: db}, nil
}

// Get returns key's current value.
func (e *BoltEngine) Get(key string) (string, bool, error) {
	key, err := engine.ValidateKey(key)
	if err != nil {
		return "", false, err
	}

	var value string
	var found bool
	err = e.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(key))
		if v != nil {
			found = true
			value = string(v)
		}
		return nil
	})
	if err != nil {
		return "", false, fmt.Errorf("boltengine: get %q: %w", key, err)
	}
	return value, found, nil
}

// Set writes key -> value, replacing any previous value.
func (e *BoltEngine) Set(key, value string) error {
	key, err := engine.ValidateKey(key)
	if err != nil {
		return err
	}
	err = e.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("boltengine: set %q: %w", key, err)
	}
	return nil
}

// Remove deletes key, returning engine.ErrKeyNotFound if it has no entry.
func (e *BoltEngine) Remove(key string) error {
	key, err := engine.ValidateKey(key)
	if err != nil {
		return err
	}
	err = e.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b.Get([]byte(key)) == nil {
			return engine.ErrKeyNotFound
		}
		return b.Delete([]byte(key))
	})
	if err != nil && !errors.Is(err, engine.ErrKeyNotFound) {
		return fmt.Errorf("boltengine: remove %q: %w", key, err)
	}
	return err
}

// Close closes the underlying bbolt database.
func (e *BoltEngine) Close() error {
	if err := e.db.Close(); err != nil {
		return fmt.Errorf("boltengine: close: %w", err)
	}
	return nil
}

var _ engine.Engine = (*BoltEngine)(nil)
