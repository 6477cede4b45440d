package engine

import (
	"fmt"

	"kvs/internal/index"
	"kvs/internal/readercache"
	"kvs/internal/segment"
)

// compact rewrites every live key into a fresh generation, then
// removes every generation made entirely stale by that rewrite. It
// must be called with writerMu held.
//
// Two new generations are opened: compactGen holds the rewritten
// records, and the active writer's generation + 2 becomes the new
// active generation, so writes resumed immediately after compact never
// land in the generation compact is still finishing.
func (s *KvStore) compact() error {
	compactGen := s.writer.Generation() + 1
	nextGen := s.writer.Generation() + 2

	compactWriter, err := segment.Create(s.dir, compactGen)
	if err != nil {
		return err
	}

	readSrc := readercache.New(s.dir, 0)
	defer readSrc.Close()

	for _, e := range s.index.All() {
		r, err := readSrc.Get(e.Gen)
		if err != nil {
			compactWriter.Close()
			return fmt.Errorf("engine: compact: open source generation %d: %w", e.Gen, err)
		}
		buf := make([]byte, e.Length)
		if _, err := r.ReadAt(buf, e.Start); err != nil {
			compactWriter.Close()
			return fmt.Errorf("engine: compact: read key %q: %w", e.Key, err)
		}

		start, end, err := compactWriter.Append(buf)
		if err != nil {
			compactWriter.Close()
			return err
		}

		s.index.Set(index.Entry{Key: e.Key, Gen: compactGen, Start: start, Length: end - start})
	}

	if err := compactWriter.Close(); err != nil {
		return err
	}

	if err := s.writer.Close(); err != nil {
		return err
	}
	newWriter, err := segment.Create(s.dir, nextGen)
	if err != nil {
		return err
	}
	s.writer = newWriter
	s.uncompactedBytes = 0

	gens, err := segment.List(s.dir)
	if err != nil {
		return err
	}
	for _, gen := range gens {
		if gen >= compactGen {
			continue
		}
		s.defaultCache.Evict(gen)
		if err := segment.Remove(s.dir, gen); err != nil {
			return err
		}
	}

	s.log.Infow("compaction finished", "compactGen", compactGen, "nextGen", nextGen, "keys", s.index.Len(), "indexBytes", s.index.ComputeSize())
	return nil
}
