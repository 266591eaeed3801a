package cache

import "github.com/pixperk/lockcache/pkg/types"

// number of goroutines blocked on lid
func (c *Cache) Waiters(lid types.LockID) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, exists := c.locks[lid]; exists {
		return e.waiters
	}
	return 0
}

// forces lid into state, for handler tests that need a state no call
// sequence leaves in place deterministically
func (c *Cache) SetState(lid types.LockID, state types.CacheState) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entry(lid).state = state
}
