// SPDX-License-Identifier: EPL-2.0

// Package cache memoizes probe results per resource.
package cache

import (
	"container/list"
	"log/slog"
	"sync"

	"github.com/ik5/pcmstream/format"
)

// DefaultCapacity is the number of resources remembered when no capacity is
// given.
const DefaultCapacity = 20

// ProbeFunc describes the streams of one resource.
type ProbeFunc func() ([]format.FileDescriptor, error)

type entry struct {
	key string
	fds []format.FileDescriptor
}

// ProbeCache is a bounded map from resource locator to probe result. When
// full, the entry inserted first is evicted; lookups do not refresh an
// entry's position. Safe for concurrent use.
type ProbeCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	entries  map[string]*list.Element
	log      *slog.Logger
}

// New returns an empty cache. capacity <= 0 selects DefaultCapacity and a nil
// logger discards.
func New(capacity int, logger *slog.Logger) *ProbeCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &ProbeCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element, capacity),
		log:      logger,
	}
}

// Get returns a copy of the cached result for key.
func (c *ProbeCache) Get(key string) ([]format.FileDescriptor, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}

	return clone(el.Value.(*entry).fds), true
}

// Put stores fds under key. A nil result is not stored. Replacing an
// existing key keeps its insertion position.
func (c *ProbeCache) Put(key string, fds []format.FileDescriptor) {
	if fds == nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*entry).fds = clone(fds)
		return
	}

	c.entries[key] = c.order.PushBack(&entry{key: key, fds: clone(fds)})

	for c.order.Len() > c.capacity {
		oldest := c.order.Front()
		c.order.Remove(oldest)

		evicted := oldest.Value.(*entry).key
		delete(c.entries, evicted)
		c.log.Debug("probe cache evict", "resource", evicted)
	}
}

// GetOrProbe returns the cached result for key or runs probe and caches
// what it returns. probe runs without the cache lock held, so two callers
// missing on the same key may both probe. Errors are never cached.
func (c *ProbeCache) GetOrProbe(key string, probe ProbeFunc) ([]format.FileDescriptor, error) {
	if fds, ok := c.Get(key); ok {
		c.log.Debug("probe cache hit", "resource", key)
		return fds, nil
	}

	c.log.Debug("probe cache miss", "resource", key)

	fds, err := probe()
	if err != nil {
		return nil, err
	}

	c.Put(key, fds)

	return fds, nil
}

// Len is the number of cached resources.
func (c *ProbeCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.order.Len()
}

// Capacity is the maximum number of cached resources.
func (c *ProbeCache) Capacity() int { return c.capacity }

// Purge drops every entry.
func (c *ProbeCache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	clear(c.entries)
}

func clone(fds []format.FileDescriptor) []format.FileDescriptor {
	out := make([]format.FileDescriptor, len(fds))
	copy(out, fds)

	return out
}
