package filter

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// programCache holds compiled filters keyed by expression
type programCache struct {
	lru *lru.Cache[string, CompiledFilter]
}

// newProgramCache creates a cache holding at most size filters, and at least one
func newProgramCache(size int) *programCache {
	// lru.New only fails for a non-positive size
	c, _ := lru.New[string, CompiledFilter](max(size, 1))
	return &programCache{lru: c}
}

// Get retrieves a compiled filter
func (c *programCache) Get(expression string) (CompiledFilter, bool) {
	return c.lru.Get(expression)
}

// Put adds or refreshes a compiled filter
func (c *programCache) Put(expression string, f CompiledFilter) {
	c.lru.Add(expression, f)
}

// Clear removes all items from the cache
func (c *programCache) Clear() {
	c.lru.Purge()
}

// Size returns the number of items in the cache
func (c *programCache) Size() int {
	return c.lru.Len()
}
