package boltengine

import (
	"testing"

	"kvs/internal/engine"
	"kvs/internal/marker"
)

func TestSetGetRemove(t *testing.T) {
	dir := t.TempDir()
	e, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer e.Close()

	if err := e.Set("key1", "value1"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, ok, err := e.Get("key1")
	if err != nil || !ok || got != "value1" {
		t.Errorf("Get(key1) = (%q, %v, %v), want (value1, true, nil)", got, ok, err)
	}

	if err := e.Remove("key1"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, ok, _ := e.Get("key1"); ok {
		t.Errorf("Get(key1) after Remove: want not found")
	}

	if err := e.Remove("key1"); err != engine.ErrKeyNotFound {
		t.Errorf("Remove(key1) again: error = %v, want %v", err, engine.ErrKeyNotFound)
	}
}

func TestPersistenceAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	e, err := Open(dir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	e.Set("a", "1")
	if err := e.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	e2, err := Open(dir)
	if err != nil {
		t.Fatalf("re-Open() error = %v", err)
	}
	defer e2.Close()

	got, ok, err := e2.Get("a")
	if err != nil || !ok || got != "1" {
		t.Errorf("Get(a) after reopen = (%q, %v, %v), want (1, true, nil)", got, ok, err)
	}
}

func TestOpen_EngineMismatch(t *testing.T) {
	dir := t.TempDir()
	if err := marker.Ensure(dir, marker.Log); err != nil {
		t.Fatalf("marker.Ensure() error = %v", err)
	}
	if _, err := Open(dir); err == nil {
		t.Errorf("Open() on kvs-marked directory: want error, got nil")
	}
}
