// Package cache keeps analysis results keyed by a digest of the analysed
// input, bounded in memory by an LRU policy and persisted to disk with
// msgpack.
package cache

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/l3aro/go-cfg-complexity/pkg/complexity"
)

// ErrKeyNotFound is returned when a key is not found in the cache.
var ErrKeyNotFound = errors.New("key not found")

// keyVersion is mixed into every key so results stored by an older layout
// are never returned.
const keyVersion = "ccm/1"

// Entry is one cached analysis of one input.
type Entry struct {
	Key        string              `msgpack:"key"`
	Source     string              `msgpack:"source"`
	Results    []complexity.Result `msgpack:"results"`
	AccessedAt time.Time           `msgpack:"accessed_at"`
	CreatedAt  time.Time           `msgpack:"created_at"`
	Size       int                 `msgpack:"size"` // estimated size in bytes
}

// Key returns the cache key for analysing content, read from a file named
// source, with opts. The strategy is left out: both walks give the same
// results.
func Key(source string, content []byte, opts complexity.Options) string {
	d := xxhash.New()
	_, _ = d.WriteString(keyVersion)
	_, _ = d.WriteString(filepath.Ext(source))
	_, _ = d.WriteString(strconv.FormatBool(opts.Classical))
	_, _ = d.WriteString(strconv.FormatBool(opts.Trace))
	_, _ = d.Write(content)
	return strconv.FormatUint(d.Sum64(), 16)
}

// LRUCache is an in-memory LRU cache of analysis results with optional disk
// persistence. It is safe for concurrent use.
type LRUCache struct {
	mu           sync.Mutex
	items        map[string]*listItem
	lru          *list // doubly-linked list (most recent at front)
	maxSize      int
	maxBytes     int64
	currentBytes int64
	hits         int64
	misses       int64
	onEvict      func(key string, e Entry)
}

// listItem is an item in the doubly-linked list.
type listItem struct {
	Entry
	prev *listItem
	next *listItem
}

type list struct {
	head *listItem // most recently accessed
	tail *listItem // least recently accessed
	len  int
}

func (l *list) unlink(item *listItem) {
	if item.prev != nil {
		item.prev.next = item.next
	} else {
		l.head = item.next
	}
	if item.next != nil {
		item.next.prev = item.prev
	} else {
		l.tail = item.prev
	}
	item.prev, item.next = nil, nil
	l.len--
}

func (l *list) pushFront(item *listItem) {
	item.next = l.head
	item.prev = nil
	if l.head != nil {
		l.head.prev = item
	}
	l.head = item
	if l.tail == nil {
		l.tail = item
	}
	l.len++
}

func (l *list) moveToFront(item *listItem) {
	if item == l.head {
		return
	}
	l.unlink(item)
	l.pushFront(item)
}

// removeBack removes and returns the least recently used item.
func (l *list) removeBack() *listItem {
	item := l.tail
	if item == nil {
		return nil
	}
	l.unlink(item)
	return item
}

// Options configures the LRU cache.
type Options struct {
	// MaxSize is the maximum number of entries.
	// 0 means unlimited.
	MaxSize int

	// MaxBytes is the approximate maximum size in bytes.
	// 0 means unlimited.
	MaxBytes int64

	// OnEvict is called when an entry is evicted.
	OnEvict func(key string, e Entry)
}

// New creates a new LRU cache with the given options.
func New(opts Options) *LRUCache {
	return &LRUCache{
		items:    make(map[string]*listItem),
		lru:      &list{},
		maxSize:  opts.MaxSize,
		maxBytes: opts.MaxBytes,
		onEvict:  opts.OnEvict,
	}
}

// Get returns the results stored under key.
func (c *LRUCache) Get(key string) ([]complexity.Result, bool) {
	e, err := c.Lookup(key)
	if err != nil {
		return nil, false
	}
	return e.Results, true
}

// Lookup returns the entry stored under key, or ErrKeyNotFound.
func (c *LRUCache) Lookup(key string) (Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, found := c.items[key]
	if !found {
		c.misses++
		return Entry{}, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
	}

	c.hits++
	item.AccessedAt = time.Now()
	c.lru.moveToFront(item)
	return item.Entry, nil
}

// Set stores the results of analysing source under key.
func (c *LRUCache) Set(key, source string, results []complexity.Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	size := estimateSize(source, results)
	now := time.Now()

	if item, exists := c.items[key]; exists {
		c.currentBytes -= int64(item.Size)
		item.Source = source
		item.Results = results
		item.Size = size
		item.AccessedAt = now
		c.currentBytes += int64(size)
		c.lru.moveToFront(item)
		c.evictIfNeeded()
		return
	}

	item := &listItem{
		Entry: Entry{
			Key:        key,
			Source:     source,
			Results:    results,
			AccessedAt: now,
			CreatedAt:  now,
			Size:       size,
		},
	}
	c.items[key] = item
	c.lru.pushFront(item)
	c.currentBytes += int64(size)

	c.evictIfNeeded()
}

// Clear removes all entries from the cache.
func (c *LRUCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*listItem)
	c.lru = &list{}
	c.currentBytes = 0
}

// Len returns the number of entries in the cache.
func (c *LRUCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Stats holds cache counters.
type Stats struct {
	Length       int   `json:"length"`
	CurrentBytes int64 `json:"current_bytes"`
	HitCount     int64 `json:"hit_count"`
	MissCount    int64 `json:"miss_count"`
}

// Stats returns the current cache statistics.
func (c *LRUCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Length:       len(c.items),
		CurrentBytes: c.currentBytes,
		HitCount:     c.hits,
		MissCount:    c.misses,
	}
}

func (c *LRUCache) evictIfNeeded() {
	for c.shouldEvict() {
		item := c.lru.removeBack()
		if item == nil {
			break
		}
		delete(c.items, item.Key)
		c.currentBytes -= int64(item.Size)

		if c.onEvict != nil {
			c.onEvict(item.Key, item.Entry)
		}
	}
}

func (c *LRUCache) shouldEvict() bool {
	if c.maxSize > 0 && c.lru.len > c.maxSize {
		return true
	}
	if c.maxBytes > 0 && c.currentBytes > c.maxBytes && c.lru.len > 1 {
		return true
	}
	return false
}

// Save writes the cache to w using msgpack, most recently used first.
func (c *LRUCache) Save(w io.Writer) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := make([]Entry, 0, len(c.items))
	for item := c.lru.head; item != nil; item = item.next {
		entries = append(entries, item.Entry)
	}

	return msgpack.NewEncoder(w).Encode(entries)
}

// Load replaces the cache contents with entries read from r, keeping their
// recency order. Entries beyond the size limits are evicted.
func (c *LRUCache) Load(r io.Reader) error {
	var entries []Entry
	if err := msgpack.NewDecoder(r).Decode(&entries); err != nil {
		return fmt.Errorf("failed to decode cache: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*listItem)
	c.lru = &list{}
	c.currentBytes = 0

	for i := len(entries) - 1; i >= 0; i-- {
		item := &listItem{Entry: entries[i]}
		c.items[item.Key] = item
		c.lru.pushFront(item)
		c.currentBytes += int64(item.Size)
	}
	c.evictIfNeeded()

	return nil
}

// PersistToFile saves the cache to path, creating its directory.
func PersistToFile(c *LRUCache, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	if err := c.Save(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("failed to write cache: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write cache: %w", err)
	}
	return os.Rename(tmp, path)
}

// LoadFromFile loads the cache from a file. A missing file leaves the cache
// empty.
func LoadFromFile(c *LRUCache, path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to open cache file: %w", err)
	}
	defer f.Close()

	return c.Load(f)
}

// estimateSize approximates the memory held by an entry.
func estimateSize(source string, results []complexity.Result) int {
	size := len(source)
	for _, r := range results {
		size += len(r.Function) + 64 + len(r.Trace)*24
	}
	return size
}
