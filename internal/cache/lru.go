// Package cache memoizes parsed git config files across the ancestor walks of
// a single batch run. Nothing outlives the process.
package cache

import (
	"sync"
	"sync/atomic"

	"github.com/Sumatoshi-tech/fileurl/pkg/gitconfig"
)

// DefaultEntries bounds the number of cached records.
const DefaultEntries = 512

// RecordCache is an LRU of parsed config records keyed by file location.
type RecordCache struct {
	mu         sync.Mutex
	entries    map[string]*lruEntry
	head       *lruEntry // Most recently used.
	tail       *lruEntry // Least recently used.
	maxEntries int

	// Metrics (atomic for lock-free reads).
	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

type lruEntry struct {
	key    string
	record gitconfig.Record
	prev   *lruEntry
	next   *lruEntry
}

// NewRecordCache creates a cache holding at most maxEntries records.
func NewRecordCache(maxEntries int) *RecordCache {
	if maxEntries <= 0 {
		maxEntries = DefaultEntries
	}

	return &RecordCache{
		entries:    make(map[string]*lruEntry),
		maxEntries: maxEntries,
	}
}

// Get returns the record stored under key.
func (c *RecordCache) Get(key string) (gitconfig.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.misses.Add(1)

		return gitconfig.Record{}, false
	}

	c.hits.Add(1)
	c.moveToFront(entry)

	return entry.record, true
}

// Put stores rec under key, evicting the least recently used entry when full.
func (c *RecordCache) Put(key string, rec gitconfig.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		entry.record = rec
		c.moveToFront(entry)

		return
	}

	for len(c.entries) >= c.maxEntries && c.tail != nil {
		c.remove(c.tail)
		c.evictions.Add(1)
	}

	entry := &lruEntry{key: key, record: rec}

	c.entries[key] = entry
	c.addToFront(entry)
}

// Clear removes all entries.
func (c *RecordCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*lruEntry)
	c.head = nil
	c.tail = nil
}

// Stats returns cache statistics.
func (c *RecordCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Entries:   len(c.entries),
	}
}

// Stats holds cache performance counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Entries   int
}

// HitRate returns the cache hit rate (0.0 to 1.0).
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0.0
	}

	return float64(s.Hits) / float64(total)
}

func (c *RecordCache) remove(entry *lruEntry) {
	c.removeFromList(entry)
	delete(c.entries, entry.key)
}

// moveToFront moves an entry to the front of the LRU list (most recently used).
func (c *RecordCache) moveToFront(entry *lruEntry) {
	if entry == c.head {
		return
	}

	c.removeFromList(entry)
	c.addToFront(entry)
}

func (c *RecordCache) addToFront(entry *lruEntry) {
	entry.prev = nil
	entry.next = c.head

	if c.head != nil {
		c.head.prev = entry
	}

	c.head = entry

	if c.tail == nil {
		c.tail = entry
	}
}

func (c *RecordCache) removeFromList(entry *lruEntry) {
	if entry.prev != nil {
		entry.prev.next = entry.next
	} else {
		c.head = entry.next
	}

	if entry.next != nil {
		entry.next.prev = entry.prev
	} else {
		c.tail = entry.prev
	}

	entry.prev = nil
	entry.next = nil
}
