// Package segment manages the on-disk generation log files that back
// the storage engine: naming, creation, append, random-offset read,
// listing and deletion. It knows nothing about keys or indexes; it
// only moves already-encoded record bytes to and from disk.
package segment

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

const fileSuffix = ".log"

// Path returns the on-disk path of generation gen inside dir.
func Path(dir string, gen uint64) string {
	return filepath.Join(dir, fmt.Sprintf("%d%s", gen, fileSuffix))
}

// List returns every generation present in dir, ascending.
func List(dir string) ([]uint64, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("segment: list %s: %w", dir, err)
	}

	var gens []uint64
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileSuffix) {
			continue
		}
		stem := strings.TrimSuffix(e.Name(), fileSuffix)
		gen, err := strconv.ParseUint(stem, 10, 64)
		if err != nil {
			continue // not one of ours, ignore
		}
		gens = append(gens, gen)
	}
	sort.Slice(gens, func(i, j int) bool { return gens[i] < gens[j] })
	return gens, nil
}

// Writer appends records to a single generation's log file. It is not
// safe for concurrent use; the engine serializes all writes through a
// single writer lock (see internal/engine).
type Writer struct {
	gen    uint64
	file   *os.File
	buf    *bufio.Writer
	offset int64 // next write position, equal to bytes written so far
}

// Create opens a brand new generation file for writing. It fails if
// the file already exists, since generations are append-once.
func Create(dir string, gen uint64) (*Writer, error) {
	path := Path(dir, gen)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("segment: create %s: %w", path, err)
	}
	return &Writer{gen: gen, file: f, buf: bufio.NewWriter(f)}, nil
}

// OpenWriter reopens an existing generation file for appending, with
// offset positioned at its current length. Used to resume writing the
// active generation after a restart.
func OpenWriter(dir string, gen uint64) (*Writer, error) {
	path := Path(dir, gen)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("segment: open writer %s: %w", path, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("segment: stat %s: %w", path, err)
	}
	return &Writer{gen: gen, file: f, buf: bufio.NewWriter(f), offset: fi.Size()}, nil
}

// Generation returns the generation number this writer appends to.
func (w *Writer) Generation() uint64 { return w.gen }

// Offset returns the writer's current end-of-file position.
func (w *Writer) Offset() int64 { return w.offset }

// Append writes b and returns the byte range it now occupies in the
// generation file. The write is buffered; call Sync to make it durable.
func (w *Writer) Append(b []byte) (start, end int64, err error) {
	start = w.offset
	n, err := w.buf.Write(b)
	if err != nil {
		return start, start, fmt.Errorf("segment: append to generation %d: %w", w.gen, err)
	}
	w.offset += int64(n)
	return start, w.offset, nil
}

// Sync flushes buffered writes and fdatasyncs the file, making every
// Append since the last Sync crash-durable.
func (w *Writer) Sync() error {
	if err := w.buf.Flush(); err != nil {
		return fmt.Errorf("segment: flush generation %d: %w", w.gen, err)
	}
	if err := unix.Fdatasync(int(w.file.Fd())); err != nil {
		return fmt.Errorf("segment: fdatasync generation %d: %w", w.gen, err)
	}
	return nil
}

// Close flushes and closes the underlying file without deleting it.
func (w *Writer) Close() error {
	if err := w.Sync(); err != nil {
		w.file.Close()
		return err
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("segment: close generation %d: %w", w.gen, err)
	}
	return nil
}

// Reader provides random-offset reads into one generation's log file.
// Multiple Readers may be open on the same generation concurrently,
// each with its own *os.File so no seek position is shared.
type Reader struct {
	gen  uint64
	file *os.File
}

// OpenReader opens gen for reading. Returns ErrNotFound if the
// generation file does not exist.
func OpenReader(dir string, gen uint64) (*Reader, error) {
	path := Path(dir, gen)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("segment: open reader %s: %w", path, err)
	}
	return &Reader{gen: gen, file: f}, nil
}

// Generation returns the generation number this reader reads from.
func (r *Reader) Generation() uint64 { return r.gen }

// ReadAt reads exactly len(b) bytes starting at off.
func (r *Reader) ReadAt(b []byte, off int64) (int, error) {
	n, err := r.file.ReadAt(b, off)
	if err != nil {
		return n, fmt.Errorf("segment: read generation %d at %d: %w", r.gen, off, err)
	}
	return n, nil
}

// Size returns the reader's current file size, as seen on disk.
func (r *Reader) Size() (int64, error) {
	fi, err := r.file.Stat()
	if err != nil {
		return 0, fmt.Errorf("segment: stat generation %d: %w", r.gen, err)
	}
	return fi.Size(), nil
}

// Close releases the file descriptor. It does not affect the
// generation file on disk.
func (r *Reader) Close() error {
	return r.file.Close()
}

// Remove deletes the generation file from dir. A Reader still open on
// it keeps reading the deleted file until closed, since a
// deleted-but-open file lingers until its last descriptor closes.
// Compaction evicts the generation from the store's default reader
// cache before calling Remove; other caches may still hold it (see
// internal/readercache).
func Remove(dir string, gen uint64) error {
	path := Path(dir, gen)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("segment: remove generation %d: %w", gen, err)
	}
	return nil
}
