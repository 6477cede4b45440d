package engine

import (
	"fmt"

	"github.com/docker/go-units"
)

// Config holds the tunables for a log-structured store.
type Config struct {
	// CompactionThreshold is the number of stale bytes the log may
	// accumulate before a compaction is triggered.
	CompactionThreshold uint64
	// ReaderCacheSize bounds the number of open file descriptors each
	// reader cache (the shared default one, and every one returned by
	// NewReader) may hold before evicting the least recently used.
	ReaderCacheSize int
}

// DefaultConfig returns the tunables used when none are supplied.
func DefaultConfig() Config {
	return Config{
		CompactionThreshold: 1 << 20, // 1MiB
		ReaderCacheSize:     64,
	}
}

// ParseThreshold parses a human byte-size string such as "1MiB" or
// "512kB" into a byte count, for wiring CompactionThreshold from a
// command-line flag or config file.
func ParseThreshold(s string) (uint64, error) {
	n, err := units.RAMInBytes(s)
	if err != nil {
		return 0, fmt.Errorf("engine: parse threshold %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("engine: threshold %q must not be negative", s)
	}
	return uint64(n), nil
}
