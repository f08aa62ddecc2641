package match

import "sync"

// Cache memoizes resolution results keyed by (pattern identity, search
// window). Both window bounds are part of the key: a candidate found in
// a wide window may lie past a narrower window's end, and a miss in a
// narrow window says nothing about a wider one. Because the index never
// changes during a run, entries never need invalidation, and one cache
// may be shared by any number of workers aligning the same document.
type Cache struct {
	mu sync.RWMutex
	m  map[cacheKey]cacheEntry
}

type cacheKey struct {
	pattern string
	start   int
	end     int
}

type cacheEntry struct {
	cand  Candidate
	found bool
}

// NewCache returns an empty resolution cache.
func NewCache() *Cache {
	return &Cache{m: make(map[cacheKey]cacheEntry)}
}

func (c *Cache) get(pattern string, win Window) (Candidate, bool, bool) {
	c.mu.RLock()
	e, ok := c.m[cacheKey{pattern, win.Start, win.End}]
	c.mu.RUnlock()
	return e.cand, e.found, ok
}

func (c *Cache) put(pattern string, win Window, cand Candidate, found bool) {
	c.mu.Lock()
	c.m[cacheKey{pattern, win.Start, win.End}] = cacheEntry{cand: cand, found: found}
	c.mu.Unlock()
}

// Len returns the number of cached resolutions.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}
