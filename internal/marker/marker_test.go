package marker

import (
	"errors"
	"testing"
)

func TestEnsure_CreatesOnFirstUse(t *testing.T) {
	dir := t.TempDir()
	if err := Ensure(dir, Log); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	if err := Ensure(dir, Log); err != nil {
		t.Fatalf("Ensure() second call error = %v", err)
	}
}

func TestEnsure_DetectsMismatch(t *testing.T) {
	dir := t.TempDir()
	if err := Ensure(dir, Log); err != nil {
		t.Fatalf("Ensure() error = %v", err)
	}
	err := Ensure(dir, Bolt)
	if !errors.Is(err, ErrMismatch) {
		t.Errorf("Ensure() error = %v, want %v", err, ErrMismatch)
	}
}
