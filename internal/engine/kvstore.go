package engine

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"kvs/internal/index"
	"kvs/internal/marker"
	"kvs/internal/readercache"
	"kvs/internal/record"
	"kvs/internal/segment"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// KvStore is the log-structured Engine implementation: every Set and
// Remove is appended as a command record to the active generation
// file, and the index tracks only the most recent record per key.
// Reads never take the writer lock; they consult the index and then
// read the located bytes directly off disk.
type KvStore struct {
	dir    string
	log    *zap.SugaredLogger
	cfg    Config
	index  *index.Index
	closed atomic.Bool

	// writerMu serializes every mutation, matching the single-writer
	// model: at most one Set, Remove or compaction runs at a time.
	writerMu         sync.Mutex
	writer           *segment.Writer
	uncompactedBytes uint64

	// defaultCache backs Get for callers that did not obtain their own
	// Reader. Its internal mutex only guards descriptor bookkeeping;
	// the actual read happens lock-free once a descriptor is in hand.
	defaultCache *readercache.Cache
}

// Open loads (or creates) a log-structured store rooted at dir with
// DefaultConfig, replaying every existing generation to rebuild the
// index.
func Open(dir string, logger *zap.SugaredLogger) (*KvStore, error) {
	return OpenWithConfig(dir, logger, DefaultConfig())
}

// OpenWithConfig is Open with an explicit Config.
func OpenWithConfig(dir string, logger *zap.SugaredLogger, cfg Config) (*KvStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("engine: create data dir %s: %w", dir, err)
	}
	if err := marker.Ensure(dir, marker.Log); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	gens, err := segment.List(dir)
	if err != nil {
		return nil, err
	}

	idx := index.New()
	var uncompacted uint64
	for _, gen := range gens {
		n, err := buildIndex(dir, gen, idx, logger)
		if err != nil {
			return nil, err
		}
		uncompacted += n
	}

	var currentGen uint64 = 1
	if len(gens) > 0 {
		currentGen = gens[len(gens)-1] + 1
	}
	writer, err := segment.Create(dir, currentGen)
	if err != nil {
		return nil, err
	}

	logger.Infow("opened log-structured store", "dir", dir, "generations", len(gens), "keys", idx.Len(), "indexBytes", idx.ComputeSize())

	return &KvStore{
		dir:              dir,
		log:              logger,
		cfg:              cfg,
		index:            idx,
		writer:           writer,
		uncompactedBytes: uncompacted,
		defaultCache:     readercache.New(dir, cfg.ReaderCacheSize),
	}, nil
}

// buildIndex replays generation gen's command records into idx and
// returns the number of bytes they make stale (overwritten sets and
// the tombstones themselves). A corrupt or truncated trailing record
// stops the replay, and is logged as a warning, but never invalidates
// records already decoded, since that is exactly what a crash or
// partial compaction leaves behind (see StreamDecoder.Next).
func buildIndex(dir string, gen uint64, idx *index.Index, log *zap.SugaredLogger) (uint64, error) {
	path := segment.Path(dir, gen)
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("engine: open generation %d for replay: %w", gen, err)
	}
	defer f.Close()

	dec := record.NewStreamDecoder(f, 0)
	var stale uint64
	for {
		start, end, cmd, err := dec.Next()
		if err == io.EOF {
			break
		}
		if err == record.ErrCorruptRecord {
			log.Warnw("replay stopped at corrupt or truncated record", "gen", gen, "offset", start)
			break
		}
		if err != nil {
			return stale, fmt.Errorf("engine: replay generation %d: %w", gen, err)
		}

		switch cmd.Kind {
		case record.KindSet:
			prev, had := idx.Set(index.Entry{Key: cmd.Key, Gen: gen, Start: start, Length: end - start})
			if had {
				stale += uint64(prev.Length)
			}
		case record.KindRemove:
			if prev, had := idx.Remove(cmd.Key); had {
				stale += uint64(prev.Length)
			}
			stale += uint64(end - start)
		}
	}
	return stale, nil
}

// Get returns the current value for key using the store's shared
// default reader cache. Callers issuing many reads from a dedicated
// goroutine (a server connection) should prefer NewReader instead, to
// avoid contending on the shared cache's bookkeeping.
func (s *KvStore) Get(key string) (string, bool, error) {
	if s.closed.Load() {
		return "", false, ErrClosed
	}
	key, err := ValidateKey(key)
	if err != nil {
		return "", false, err
	}
	return s.get(key, s.defaultCache)
}

func (s *KvStore) get(key string, cache *readercache.Cache) (string, bool, error) {
	entry, ok := s.index.Get(key)
	if !ok {
		return "", false, nil
	}

	r, err := cache.Get(entry.Gen)
	if err != nil {
		return "", false, err
	}

	buf := make([]byte, entry.Length)
	if _, err := r.ReadAt(buf, entry.Start); err != nil {
		return "", false, fmt.Errorf("engine: read key %q: %w", key, err)
	}

	cmd, err := record.Decode(buf)
	if err != nil {
		return "", false, fmt.Errorf("engine: decode key %q: %w", key, err)
	}
	if cmd.Kind != record.KindSet {
		return "", false, ErrCorruptIndex
	}
	return cmd.Value, true, nil
}

// Set writes key -> value, replacing any previous value.
func (s *KvStore) Set(key, value string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	key, err := ValidateKey(key)
	if err != nil {
		return err
	}
	value, err = record.ValidateValue(value)
	if err != nil {
		return err
	}

	s.writerMu.Lock()
	defer s.writerMu.Unlock()

	buf := record.Encode(record.Command{Kind: record.KindSet, Key: key, Value: value})
	start, end, err := s.writer.Append(buf)
	if err != nil {
		return err
	}
	if err := s.writer.Sync(); err != nil {
		return err
	}

	prev, had := s.index.Set(index.Entry{Key: key, Gen: s.writer.Generation(), Start: start, Length: end - start})
	if had {
		s.uncompactedBytes += uint64(prev.Length)
	}

	if s.uncompactedBytes > s.cfg.CompactionThreshold {
		return s.compact()
	}
	return nil
}

// Remove deletes key. It returns ErrKeyNotFound if key has no entry.
func (s *KvStore) Remove(key string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	key, err := ValidateKey(key)
	if err != nil {
		return err
	}

	s.writerMu.Lock()
	defer s.writerMu.Unlock()

	if _, ok := s.index.Get(key); !ok {
		return ErrKeyNotFound
	}

	buf := record.Encode(record.Command{Kind: record.KindRemove, Key: key})
	start, end, err := s.writer.Append(buf)
	if err != nil {
		return err
	}
	if err := s.writer.Sync(); err != nil {
		return err
	}

	prev, _ := s.index.Remove(key)
	s.uncompactedBytes += uint64(prev.Length) + uint64(end-start)

	if s.uncompactedBytes > s.cfg.CompactionThreshold {
		return s.compact()
	}
	return nil
}

// Close flushes and closes the active generation and every cached
// reader handle. It is safe to call Close concurrently with in-flight
// reads, which only ever hold descriptors this call is about to close;
// any ReadAt already in progress on those descriptors completes
// normally, since closing a file descriptor does not interrupt reads
// already issued against it on any platform this store targets.
func (s *KvStore) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}

	s.writerMu.Lock()
	werr := s.writer.Close()
	s.writerMu.Unlock()

	cerr := s.defaultCache.Close()
	return multierr.Append(werr, cerr)
}

// NewReader returns a Reader with its own private cache of open
// generation file descriptors, for a caller (typically one server
// connection) that will issue many Get calls without contending on
// the store's shared default cache.
func (s *KvStore) NewReader() *Reader {
	return &Reader{store: s, cache: readercache.New(s.dir, s.cfg.ReaderCacheSize)}
}

var _ ReaderProvider = (*KvStore)(nil)
