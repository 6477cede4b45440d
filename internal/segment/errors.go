package segment

import "errors"

var (
	// ErrNotFound is returned when a generation has no on-disk log file.
	ErrNotFound = errors.New("segment: generation not found")
	// ErrClosed is returned by operations on a segment whose file has
	// already been closed or deleted.
	ErrClosed = errors.New("segment: segment is closed")
)
