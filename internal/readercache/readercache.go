// Package readercache gives each reader its own small, bounded cache of
// open generation file descriptors. Each server connection owns one
// Cache (via engine.KvStore.NewReader); in-process callers of
// KvStore.Get share the store's default Cache. A Cache's mutex only
// guards its own bookkeeping, so reads through different Caches never
// contend with each other or with the writer. The LRU bound and eviction bookkeeping are reused from
// the engine-wide segment cache this package replaces.
package readercache

import (
	"container/list"
	"sync"

	"kvs/internal/segment"
)

const defaultCapacity = 64

// Cache holds open *segment.Reader handles for one reader, evicting
// the least recently used generation once it grows past capacity.
type Cache struct {
	mu       sync.Mutex
	dir      string
	capacity int
	lru      *list.List
	items    map[uint64]*list.Element
}

type cacheItem struct {
	reader *segment.Reader
}

// New returns an empty cache rooted at dir, the engine's data directory.
// capacity <= 0 selects a sensible default.
func New(dir string, capacity int) *Cache {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Cache{
		dir:      dir,
		capacity: capacity,
		lru:      list.New(),
		items:    make(map[uint64]*list.Element),
	}
}

// Get returns an open reader for gen, opening and caching one if this
// Cache does not already hold it.
func (c *Cache) Get(gen uint64) (*segment.Reader, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.items[gen]; ok {
		c.lru.MoveToFront(elem)
		return elem.Value.(*cacheItem).reader, nil
	}

	r, err := segment.OpenReader(c.dir, gen)
	if err != nil {
		return nil, err
	}

	if c.lru.Len() >= c.capacity {
		c.evictOldest()
	}

	elem := c.lru.PushFront(&cacheItem{reader: r})
	c.items[gen] = elem
	return r, nil
}

// Evict closes and drops gen from the cache, if present. Call this
// once a generation has been removed by compaction so a stale
// descriptor for an unlinked file is never returned again.
func (c *Cache) Evict(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[gen]
	if !ok {
		return
	}
	c.lru.Remove(elem)
	delete(c.items, gen)
	_ = elem.Value.(*cacheItem).reader.Close()
}

func (c *Cache) evictOldest() {
	elem := c.lru.Back()
	if elem == nil {
		return
	}
	c.lru.Remove(elem)
	item := elem.Value.(*cacheItem)
	delete(c.items, item.reader.Generation())
	_ = item.reader.Close()
}

// Close closes every reader this cache holds.
func (c *Cache) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for e := c.lru.Front(); e != nil; e = e.Next() {
		_ = e.Value.(*cacheItem).reader.Close()
	}
	c.lru.Init()
	c.items = make(map[uint64]*list.Element)
	return nil
}
