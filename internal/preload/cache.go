package preload

import (
	"image"
	"slices"

	"photoview/internal/metrics"
)

// DefaultBytesPerPixel is the footprint of one RGBA pixel.
const DefaultBytesPerPixel = 4

// Eviction reasons reported to metrics.
const (
	SideBehind   = "behind"
	SideAhead    = "ahead"
	SideRejected = "rejected"
)

// Entry is one decoded raster held by the cache.
type Entry struct {
	Raster   image.Image
	FullSize image.Point
	Angle    int
}

// Cache maps sequence indices to decoded rasters.
type Cache struct {
	budget        int64
	bytesPerPixel int
	capacity      int
	viewSize      image.Point

	entries map[int]Entry
	pending map[int]struct{}
}

// New creates a cache with the given budget in bytes. The capacity stays at
// one until SetViewSize is called.
func New(budget int64) *Cache {
	c := &Cache{
		budget:        budget,
		bytesPerPixel: DefaultBytesPerPixel,
		capacity:      1,
		entries:       make(map[int]Entry),
		pending:       make(map[int]struct{}),
	}
	metrics.PreloadCacheCapacity.Set(float64(c.capacity))
	return c
}

// SetViewSize recomputes the capacity for a view of the given size and
// clears the cache. Outstanding requests are forgotten; their results carry
// the old size and are expected to be discarded by the caller.
func (c *Cache) SetViewSize(size image.Point) {
	c.viewSize = size
	c.capacity = capacityFor(c.budget, size, c.bytesPerPixel)
	metrics.PreloadCacheCapacity.Set(float64(c.capacity))
	c.Clear()
}

func capacityFor(budget int64, size image.Point, bpp int) int {
	frame := int64(size.X) * int64(size.Y) * int64(bpp)
	if frame <= 0 {
		return 1
	}
	n := int(budget / frame)
	if n < 1 {
		return 1
	}
	return n
}

// ViewSize returns the size the cache was last sized for.
func (c *Cache) ViewSize() image.Point {
	return c.viewSize
}

// Capacity returns the maximum number of resident entries.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Len returns the number of resident entries.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Indices returns the resident indices in ascending order.
func (c *Cache) Indices() []int {
	out := make([]int, 0, len(c.entries))
	for i := range c.entries {
		out = append(out, i)
	}
	slices.Sort(out)
	return out
}

// Contains reports whether index is resident, regardless of angle.
func (c *Cache) Contains(index int) bool {
	_, ok := c.entries[index]
	return ok
}

// Pending reports whether a background request for index is outstanding.
func (c *Cache) Pending(index int) bool {
	_, ok := c.pending[index]
	return ok
}

// Get returns the entry for index when it was decoded at angle. An entry
// with a different angle is dropped and reported as a miss.
func (c *Cache) Get(index, angle int) (Entry, bool) {
	e, ok := c.entries[index]
	if ok && e.Angle == angle {
		metrics.PreloadCacheHits.Inc()
		return e, true
	}
	if ok {
		c.remove(index)
	}
	metrics.PreloadCacheMisses.Inc()
	return Entry{}, false
}

// Invalidate drops the entry and any outstanding request for index.
func (c *Cache) Invalidate(index int) {
	delete(c.pending, index)
	c.remove(index)
}

// Abandon releases the slot of an outstanding request that failed or was
// cancelled, so a later fill cycle may request it again.
func (c *Cache) Abandon(index int) {
	delete(c.pending, index)
}

// Clear drops every entry and outstanding request.
func (c *Cache) Clear() {
	clear(c.entries)
	clear(c.pending)
	metrics.PreloadCacheClears.Inc()
	metrics.PreloadCacheEntries.Set(0)
}

// RemoveIndex drops index and shifts every higher key down by one, following
// a removal from the underlying sequence.
func (c *Cache) RemoveIndex(index int) {
	entries := make(map[int]Entry, len(c.entries))
	for i, e := range c.entries {
		switch {
		case i < index:
			entries[i] = e
		case i > index:
			entries[i-1] = e
		}
	}
	pending := make(map[int]struct{}, len(c.pending))
	for i := range c.pending {
		switch {
		case i < index:
			pending[i] = struct{}{}
		case i > index:
			pending[i-1] = struct{}{}
		}
	}
	c.entries, c.pending = entries, pending
	metrics.PreloadCacheEntries.Set(float64(len(c.entries)))
}

// Put stores a completed load. The current index is always admitted. Any
// other index is admitted while there is room, or when it outranks the worst
// resident entry, which is then evicted. It reports whether the entry was
// stored.
func (c *Cache) Put(index int, e Entry, current int, forward bool) bool {
	delete(c.pending, index)

	if _, ok := c.entries[index]; ok || len(c.entries) < c.capacity {
		c.store(index, e)
		c.trim(current, forward)
		return true
	}

	victim, ok := c.victim(current, forward, nil)
	if index != current && (!ok || !outranks(index, victim, current, forward)) {
		metrics.PreloadCacheEvictions.WithLabelValues(SideRejected).Inc()
		return false
	}
	c.store(index, e)
	c.trim(current, forward)
	return true
}

// Fill tops up background requests from current in the travel direction.
// count is the sequence length; request is called once per index to load.
// It returns the number of requests issued.
func (c *Cache) Fill(current, count int, forward bool, request func(index int)) int {
	step := 1
	if !forward {
		step = -1
	}
	lookahead := (c.capacity + 1) / 2

	buffered := 0
	for d := 1; d <= lookahead; d++ {
		i := current + step*d
		if i < 0 || i >= count {
			break
		}
		if c.Contains(i) || c.Pending(i) {
			buffered++
		}
	}

	issued := 0
	for d := 1; d <= c.capacity; d++ {
		i := current + step*d
		if i < 0 || i >= count {
			break
		}
		if c.Contains(i) || c.Pending(i) {
			continue
		}

		if c.used(current) >= c.capacity {
			if buffered >= lookahead {
				break
			}
			minAhead := max(d, lookahead)
			victim, ok := c.victim(current, forward, func(v int) bool {
				return behind(v, current, forward) || distance(v, current) > minAhead
			})
			if !ok {
				break
			}
			c.evict(victim, current, forward)
		}

		c.pending[i] = struct{}{}
		metrics.PreloadRequestsIssued.Inc()
		request(i)
		issued++
		if d <= lookahead {
			buffered++
		}
	}
	return issued
}

// used counts occupied slots: resident entries, outstanding requests, and a
// reservation for the current index while it is not resident.
func (c *Cache) used(current int) int {
	n := len(c.entries) + len(c.pending)
	if !c.Contains(current) && !c.Pending(current) {
		n++
	}
	return n
}

// trim evicts until the resident count fits the capacity again. Only the
// admission of the current index can push the cache over.
func (c *Cache) trim(current int, forward bool) {
	for len(c.entries) > c.capacity {
		v, ok := c.victim(current, forward, nil)
		if !ok {
			return
		}
		c.evict(v, current, forward)
	}
}

// victim returns the resident index that should be evicted first, skipping
// the current index and anything allow rejects.
func (c *Cache) victim(current int, forward bool, allow func(int) bool) (int, bool) {
	best, found := 0, false
	for i := range c.entries {
		if i == current || (allow != nil && !allow(i)) {
			continue
		}
		if !found || outranks(best, i, current, forward) {
			best, found = i, true
		}
	}
	return best, found
}

// outranks reports whether a should be kept in preference to b: entries
// ahead beat entries behind, and nearer entries beat farther ones.
func outranks(a, b, current int, forward bool) bool {
	ab, bb := behind(a, current, forward), behind(b, current, forward)
	if ab != bb {
		return bb
	}
	da, db := distance(a, current), distance(b, current)
	if da != db {
		return da < db
	}
	return a < b
}

func behind(i, current int, forward bool) bool {
	if forward {
		return i < current
	}
	return i > current
}

func distance(i, current int) int {
	if i < current {
		return current - i
	}
	return i - current
}

func (c *Cache) store(index int, e Entry) {
	c.entries[index] = e
	metrics.PreloadCacheEntries.Set(float64(len(c.entries)))
}

func (c *Cache) evict(index, current int, forward bool) {
	side := SideAhead
	if behind(index, current, forward) {
		side = SideBehind
	}
	metrics.PreloadCacheEvictions.WithLabelValues(side).Inc()
	c.remove(index)
}

func (c *Cache) remove(index int) {
	if _, ok := c.entries[index]; !ok {
		return
	}
	delete(c.entries, index)
	metrics.PreloadCacheEntries.Set(float64(len(c.entries)))
}
