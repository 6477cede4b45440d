// Package marker guards a data directory against being reopened with a
// different storage engine than the one that created it. The engine
// kind is recorded in a small marker file, written atomically so a
// crash mid-write can never leave it half-written.
package marker

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
)

// FileName is the marker file's name within an engine's data directory.
const FileName = "type"

// Known engine kinds.
const (
	Log  = "kvs"
	Bolt = "bbolt"
)

// ErrMismatch is returned when dir's marker names a different engine
// kind than the one now trying to open it.
var ErrMismatch = errors.New("marker: data directory belongs to a different engine")

// Ensure records kind as dir's engine on first use, or confirms it
// matches an existing marker. It fails with ErrMismatch if dir was
// previously opened with a different kind.
func Ensure(dir, kind string) error {
	path := filepath.Join(dir, FileName)

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := atomic.WriteFile(path, strings.NewReader(kind)); err != nil {
			return fmt.Errorf("marker: write %s: %w", path, err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("marker: read %s: %w", path, err)
	}

	existing := strings.TrimSpace(string(data))
	if existing != kind {
		return fmt.Errorf("%w: directory holds %q, requested %q", ErrMismatch, existing, kind)
	}
	return nil
}
