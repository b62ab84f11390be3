package tess

import "sync"

// IndexCache memoizes index lists that depend only on ring size. Entries
// are shared between shapes and must never be modified; Get returns slices
// with capacity clipped to their length so an append cannot write into the
// shared array.
type IndexCache struct {
	build func(n int) []uint32

	mu      sync.RWMutex
	entries map[int][]uint32
}

func NewIndexCache(build func(n int) []uint32) *IndexCache {
	return &IndexCache{build: build, entries: make(map[int][]uint32)}
}

// Get returns the index list for a ring of n vertices.
func (c *IndexCache) Get(n int) []uint32 {
	c.mu.RLock()
	s, ok := c.entries[n]
	c.mu.RUnlock()
	if ok {
		return s[:len(s):len(s)]
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok = c.entries[n]; !ok {
		s = c.build(n)
		c.entries[n] = s
	}
	return s[:len(s):len(s)]
}

// Len returns the number of cached ring sizes.
func (c *IndexCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
