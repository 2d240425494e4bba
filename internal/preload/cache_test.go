package preload

import (
	"image"
	"slices"
	"testing"
)

var view = image.Pt(100, 50)

// newCache returns a cache sized for view holding exactly capacity frames.
func newCache(t *testing.T, capacity int) *Cache {
	t.Helper()
	c := New(int64(capacity * view.X * view.Y * DefaultBytesPerPixel))
	c.SetViewSize(view)
	if c.Capacity() != capacity {
		t.Fatalf("Capacity() = %d, want %d", c.Capacity(), capacity)
	}
	return c
}

func entry(angle int) Entry {
	return Entry{
		Raster:   image.NewRGBA(image.Rect(0, 0, 4, 2)),
		FullSize: image.Pt(400, 200),
		Angle:    angle,
	}
}

// recorder collects the indices a fill cycle requests.
type recorder struct{ got []int }

func (r *recorder) request(i int) { r.got = append(r.got, i) }

func TestCapacity(t *testing.T) {
	tests := []struct {
		name   string
		budget int64
		size   image.Point
		want   int
	}{
		{name: "Exact multiple", budget: 3 * 100 * 50 * 4, size: image.Pt(100, 50), want: 3},
		{name: "Rounds down", budget: 3*100*50*4 - 1, size: image.Pt(100, 50), want: 2},
		{name: "Minimum one", budget: 10, size: image.Pt(1920, 1080), want: 1},
		{name: "Empty view", budget: 1 << 20, size: image.Point{}, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(tt.budget)
			c.SetViewSize(tt.size)
			if got := c.Capacity(); got != tt.want {
				t.Errorf("Capacity() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCapacityShrinksAsViewGrows(t *testing.T) {
	c := New(64 << 20)
	c.SetViewSize(image.Pt(800, 600))
	small := c.Capacity()
	c.SetViewSize(image.Pt(1600, 1200))
	if c.Capacity() >= small {
		t.Errorf("Capacity() = %d after growing the view, want < %d", c.Capacity(), small)
	}
}

func TestGetAngleMismatch(t *testing.T) {
	c := newCache(t, 3)
	c.Put(1, entry(90), 0, true)

	if _, ok := c.Get(1, 0); ok {
		t.Fatal("Get with a different angle should miss")
	}
	if c.Contains(1) {
		t.Error("mismatching entry should be dropped")
	}

	c.Put(1, entry(90), 0, true)
	e, ok := c.Get(1, 90)
	if !ok || e.Angle != 90 {
		t.Errorf("Get(1, 90) = %+v, %v", e, ok)
	}
}

func TestResizeClears(t *testing.T) {
	c := newCache(t, 3)
	c.Put(0, entry(0), 0, true)
	c.Put(1, entry(0), 0, true)
	c.Fill(0, 10, true, func(int) {})

	c.SetViewSize(image.Pt(200, 100))

	if c.Len() != 0 {
		t.Errorf("Len() = %d after resize, want 0", c.Len())
	}
	if _, ok := c.Get(1, 0); ok {
		t.Error("previously cached neighbour should miss after resize")
	}
	if c.Pending(2) {
		t.Error("outstanding requests should be forgotten after resize")
	}
}

func TestFillRequestsAhead(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		current  int
		count    int
		forward  bool
		want     []int
	}{
		// The current index holds one slot while it is loading.
		{name: "Forward", capacity: 4, current: 2, count: 10, forward: true, want: []int{3, 4, 5}},
		{name: "Backward", capacity: 4, current: 5, count: 10, forward: false, want: []int{4, 3, 2}},
		{name: "Stops at end", capacity: 4, current: 8, count: 10, forward: true, want: []int{9}},
		{name: "Stops at start", capacity: 4, current: 0, count: 10, forward: false, want: nil},
		{name: "Capacity one", capacity: 1, current: 0, count: 10, forward: true, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newCache(t, tt.capacity)
			var r recorder
			n := c.Fill(tt.current, tt.count, tt.forward, r.request)
			if n != len(tt.want) || !slices.Equal(r.got, tt.want) {
				t.Errorf("Fill requested %v (n=%d), want %v", r.got, n, tt.want)
			}
			for _, i := range tt.want {
				if !c.Pending(i) {
					t.Errorf("index %d should be pending", i)
				}
			}
		})
	}
}

func TestFillDoesNotRerequest(t *testing.T) {
	c := newCache(t, 4)
	c.Put(2, entry(0), 2, true)

	var first recorder
	c.Fill(2, 10, true, first.request)

	var second recorder
	c.Fill(2, 10, true, second.request)
	if len(second.got) != 0 {
		t.Errorf("second Fill requested %v, want nothing", second.got)
	}

	c.Abandon(first.got[0])
	var third recorder
	c.Fill(2, 10, true, third.request)
	if !slices.Equal(third.got, first.got[:1]) {
		t.Errorf("Fill after Abandon requested %v, want %v", third.got, first.got[:1])
	}
}

func TestFillEvictsBehindFirst(t *testing.T) {
	c := newCache(t, 4)
	for _, i := range []int{3, 4, 5, 9} {
		c.Put(i, entry(0), 4, true)
	}
	// Moving to 5: 3 and 4 are behind, 9 is ahead but beyond the window.
	var r recorder
	c.Fill(5, 20, true, r.request)

	if !slices.Equal(r.got, []int{6, 7}) {
		t.Fatalf("Fill requested %v, want [6 7]", r.got)
	}
	if got := c.Indices(); !slices.Equal(got, []int{5, 9}) {
		t.Errorf("Indices() = %v, want [5 9]", got)
	}
}

func TestFillKeepsNearerAheadEntries(t *testing.T) {
	c := newCache(t, 2)
	c.Put(0, entry(0), 0, true)
	c.Put(1, entry(0), 0, true)

	// Full with the current index and the next one: nothing to evict.
	var r recorder
	c.Fill(0, 10, true, r.request)
	if len(r.got) != 0 {
		t.Errorf("Fill requested %v, want nothing", r.got)
	}
	if got := c.Indices(); !slices.Equal(got, []int{0, 1}) {
		t.Errorf("Indices() = %v, want [0 1]", got)
	}
}

func TestFillDirectionReversal(t *testing.T) {
	c := newCache(t, 3)
	for _, i := range []int{4, 5, 6} {
		c.Put(i, entry(0), 5, true)
	}
	// Viewer turns around at 5: 6 is now behind and goes first.
	var r recorder
	c.Fill(5, 20, false, r.request)

	if len(r.got) == 0 || r.got[0] != 3 {
		t.Fatalf("Fill requested %v, want to start at 3", r.got)
	}
	if c.Contains(6) {
		t.Error("entry behind the new direction should have been evicted")
	}
	if !c.Contains(4) || !c.Contains(5) {
		t.Errorf("Indices() = %v, want 4 and 5 kept", c.Indices())
	}
}

func TestPutRanking(t *testing.T) {
	t.Run("Current always admitted", func(t *testing.T) {
		c := newCache(t, 2)
		c.Put(6, entry(0), 5, true)
		c.Put(7, entry(0), 5, true)
		if !c.Put(5, entry(0), 5, true) {
			t.Fatal("current index rejected")
		}
		if got := c.Indices(); !slices.Equal(got, []int{5, 6}) {
			t.Errorf("Indices() = %v, want [5 6]", got)
		}
	})

	t.Run("Behind rejected when full ahead", func(t *testing.T) {
		c := newCache(t, 2)
		c.Put(5, entry(0), 5, true)
		c.Put(6, entry(0), 5, true)
		if c.Put(4, entry(0), 5, true) {
			t.Error("entry behind should be rejected")
		}
		if got := c.Indices(); !slices.Equal(got, []int{5, 6}) {
			t.Errorf("Indices() = %v, want [5 6]", got)
		}
	})

	t.Run("Nearer ahead replaces farther", func(t *testing.T) {
		c := newCache(t, 2)
		c.Put(5, entry(0), 5, true)
		c.Put(8, entry(0), 5, true)
		if !c.Put(6, entry(0), 5, true) {
			t.Error("nearer entry should be admitted")
		}
		if got := c.Indices(); !slices.Equal(got, []int{5, 6}) {
			t.Errorf("Indices() = %v, want [5 6]", got)
		}
	})

	t.Run("Ahead replaces behind", func(t *testing.T) {
		c := newCache(t, 2)
		c.Put(3, entry(0), 5, true)
		c.Put(5, entry(0), 5, true)
		if !c.Put(9, entry(0), 5, true) {
			t.Error("ahead entry should replace the one behind")
		}
		if got := c.Indices(); !slices.Equal(got, []int{5, 9}) {
			t.Errorf("Indices() = %v, want [5 9]", got)
		}
	})
}

func TestInvalidateAndRemoveIndex(t *testing.T) {
	c := newCache(t, 6)
	for _, i := range []int{1, 2, 3} {
		c.Put(i, entry(0), 1, true)
	}
	c.Fill(1, 10, true, func(int) {})

	c.Invalidate(2)
	if c.Contains(2) {
		t.Error("Invalidate(2) left the entry")
	}

	c.RemoveIndex(2)
	if got := c.Indices(); !slices.Equal(got, []int{1, 2}) {
		t.Errorf("Indices() after RemoveIndex = %v, want [1 2]", got)
	}
	if !c.Pending(3) || !c.Pending(5) || c.Pending(6) {
		t.Error("pending indices above the removed one should shift down")
	}
}

// navigate moves to current the way the display pipeline does: look up the
// entry, load it when missing, top up, then deliver every outstanding load.
func navigate(c *Cache, current, count int, forward bool) {
	if _, ok := c.Get(current, 0); !ok {
		c.Invalidate(current)
		c.Put(current, entry(0), current, forward)
	}
	var r recorder
	c.Fill(current, count, forward, r.request)
	for _, i := range r.got {
		c.Put(i, entry(0), current, forward)
	}
}

func TestForwardWalk(t *testing.T) {
	c := newCache(t, 2)
	want := [][]int{{0, 1}, {1, 2}, {2, 3}, {3, 4}, {3, 4}}
	for current := 0; current < 5; current++ {
		navigate(c, current, 5, true)

		got := c.Indices()
		if !slices.Equal(got, want[current]) {
			t.Errorf("at %d: Indices() = %v, want %v", current, got, want[current])
		}
		if c.Len() > c.Capacity() {
			t.Errorf("at %d: Len() = %d exceeds capacity %d", current, c.Len(), c.Capacity())
		}
		if current >= 2 && slices.ContainsFunc(got, func(i int) bool { return i < 2 }) {
			t.Errorf("at %d: cache still holds an index behind the window: %v", current, got)
		}
	}
}

func TestNeverExceedsCapacity(t *testing.T) {
	c := New(5 * 100 * 50 * DefaultBytesPerPixel)
	c.SetViewSize(view)

	moves := []int{1, 1, 1, -1, -1, 3, 1, 1, -2, 1, 1, 1, 1, -1, 1}
	current, forward := 0, true
	for step, m := range moves {
		if step == 6 {
			c.SetViewSize(image.Pt(50, 50))
		}
		if step == 11 {
			c.SetViewSize(image.Pt(200, 100))
		}
		forward = m > 0
		current = min(max(current+m, 0), 19)
		navigate(c, current, 20, forward)
		if c.Len() > c.Capacity() {
			t.Fatalf("step %d: Len() = %d exceeds capacity %d", step, c.Len(), c.Capacity())
		}
	}
}

func TestLookaheadNeverDecreases(t *testing.T) {
	c := newCache(t, 6)
	const current = 10
	lookahead := (c.Capacity() + 1) / 2

	// Scattered entries behind, near and far ahead.
	for _, i := range []int{4, 7, 12, 16} {
		c.Put(i, entry(0), current, true)
	}
	c.Put(current, entry(0), current, true)

	resident := func() int {
		n := 0
		for d := 1; d <= lookahead; d++ {
			if c.Contains(current + d) {
				n++
			}
		}
		return n
	}

	prev := resident()
	for cycle := 0; cycle < 4; cycle++ {
		var r recorder
		c.Fill(current, 30, true, r.request)
		if got := resident(); got < prev {
			t.Fatalf("cycle %d: look-ahead fell from %d to %d after fill", cycle, prev, got)
		}
		// Deliver half of the requests, fail the rest.
		for k, i := range r.got {
			if k%2 == 0 {
				c.Put(i, entry(0), current, true)
			} else {
				c.Abandon(i)
			}
		}
		got := resident()
		if got < prev {
			t.Fatalf("cycle %d: look-ahead fell from %d to %d", cycle, prev, got)
		}
		if c.Len() > c.Capacity() {
			t.Fatalf("cycle %d: Len() = %d exceeds capacity %d", cycle, c.Len(), c.Capacity())
		}
		prev = got
	}
	if prev != lookahead {
		t.Errorf("look-ahead settled at %d, want %d", prev, lookahead)
	}
}
