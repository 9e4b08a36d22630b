package bindless

import "log/slog"

// HandleCache is the monotonically-increasing-index-plus-free-list
// allocator backing one array of the bindless table.
type HandleCache struct {
	capacity uint32
	next     uint32
	free     []uint32
	versions []uint16
}

// NewHandleCache creates a cache over an array of the given capacity.
func NewHandleCache(capacity uint32) *HandleCache {
	return &HandleCache{
		capacity: capacity,
		versions: make([]uint16, capacity),
	}
}

// noSlot is the sentinel index returned by Allocate when the array is
// exhausted. The caller (Table) turns this into a logged capacity warning
// rather than a fatal error.
const noSlot = ^uint32(0)

// Allocate reserves a slot, preferring a freed slot over growing next, and
// returns its index and current version. ok is false if the array is full.
func (c *HandleCache) Allocate() (index uint32, version uint16, ok bool) {
	if n := len(c.free); n > 0 {
		idx := c.free[n-1]
		c.free = c.free[:n-1]
		return idx, c.versions[idx], true
	}
	if c.next >= c.capacity {
		return 0, 0, false
	}
	idx := c.next
	c.next++
	return idx, c.versions[idx], true
}

// Free releases a slot back to the free list and bumps its version so any
// handle still referencing the old generation fails Validate. Version
// wrap-around on sustained churn is only logged, never fatal.
func (c *HandleCache) Free(index uint32) {
	if index >= c.capacity {
		return
	}
	c.versions[index]++
	if c.versions[index] == 0 {
		slog.Warn("bindless handle version wrapped around", "index", index)
	}
	c.free = append(c.free, index)
}

// Validate reports whether index/version still refer to a live allocation.
func (c *HandleCache) Validate(index uint32, version uint16) bool {
	if index >= c.capacity {
		return false
	}
	return c.versions[index] == version
}

// Capacity returns the array's fixed capacity.
func (c *HandleCache) Capacity() uint32 { return c.capacity }

// InUse returns the number of currently-allocated slots.
func (c *HandleCache) InUse() uint32 {
	return c.next - uint32(len(c.free))
}
