package display

import (
	"errors"
	"image"
	"math"
	"testing"

	"photoview/internal/decoder"
	"photoview/internal/geometry"
	"photoview/internal/sequence"
)

type submission struct {
	handle   decoder.Handle
	id       sequence.ItemID
	size     image.Point
	angle    int
	priority decoder.Priority
}

// fakeDecoder records submissions; tests turn them into results by hand.
type fakeDecoder struct {
	next      decoder.Handle
	subs      []submission
	delivered int
	cancelled map[decoder.Handle]bool
	cancelAll int
	full      map[sequence.ItemID]image.Point
	failing   map[sequence.ItemID]bool
}

func newFakeDecoder() *fakeDecoder {
	return &fakeDecoder{
		cancelled: map[decoder.Handle]bool{},
		full:      map[sequence.ItemID]image.Point{},
		failing:   map[sequence.ItemID]bool{},
	}
}

func (f *fakeDecoder) Submit(id sequence.ItemID, size image.Point, angle int, p decoder.Priority) decoder.Handle {
	f.next++
	f.subs = append(f.subs, submission{handle: f.next, id: id, size: size, angle: angle, priority: p})
	return f.next
}

func (f *fakeDecoder) Cancel(h decoder.Handle) { f.cancelled[h] = true }
func (f *fakeDecoder) CancelAll()              { f.cancelAll++ }

// result produces what a real decoder would return for s.
func (f *fakeDecoder) result(s submission) decoder.Result {
	r := decoder.Result{
		Handle:        s.handle,
		ItemID:        s.id,
		RequestedSize: s.size,
		Angle:         s.angle,
		Priority:      s.priority,
	}
	if f.failing[s.id] {
		r.Err = decoder.ErrDecodeFailed
		return r
	}
	full, ok := f.full[s.id]
	if !ok {
		full = image.Pt(2000, 1500)
	}
	if decoder.NormalizeAngle(s.angle)%180 == 90 {
		full = image.Pt(full.Y, full.X)
	}
	size := full
	if s.size.X > 0 {
		k := math.Min(1, math.Min(float64(s.size.X)/float64(full.X), float64(s.size.Y)/float64(full.Y)))
		size = image.Pt(int(math.Round(float64(full.X)*k)), int(math.Round(float64(full.Y)*k)))
	}
	r.FullSize = full
	r.Raster = image.NewRGBA(image.Rectangle{Max: size})
	return r
}

// deliver hands every not yet delivered, uncancelled submission to p.
func (f *fakeDecoder) deliver(p *Pipeline) {
	for f.delivered < len(f.subs) {
		s := f.subs[f.delivered]
		f.delivered++
		if !f.cancelled[s.handle] {
			p.HandleResult(f.result(s))
		}
	}
}

// take removes and returns the undelivered submissions.
func (f *fakeDecoder) take() []submission {
	out := append([]submission(nil), f.subs[f.delivered:]...)
	f.delivered = len(f.subs)
	return out
}

func (f *fakeDecoder) interactive() []submission {
	var out []submission
	for _, s := range f.subs {
		if s.priority == decoder.Interactive {
			out = append(out, s)
		}
	}
	return out
}

var testView = image.Pt(400, 300)

func frames(n int) int64 {
	return int64(n * testView.X * testView.Y * 4)
}

func newPipeline(t *testing.T, capacity int, mode ViewSizeMode) (*Pipeline, *fakeDecoder) {
	t.Helper()
	dec := newFakeDecoder()
	seq := sequence.NewList([]sequence.ItemID{"0", "1", "2", "3", "4"})
	p := New(dec, seq, Config{CacheBudget: frames(capacity), ViewSize: testView, Mode: mode})
	return p, dec
}

func TestSetCurrent(t *testing.T) {
	p, dec := newPipeline(t, 3, FitToWindow)

	if p.SetCurrent("missing", true) {
		t.Error("SetCurrent(missing) = true")
	}

	var ready int
	p.OnReady = func(image.Image) { ready++ }
	var geo Geometry
	p.OnGeometryChanged = func(g Geometry) { geo = g }

	if !p.SetCurrent("0", true) {
		t.Fatal("SetCurrent(0) = false")
	}
	if p.Busy() != 1 {
		t.Errorf("Busy() = %d while loading, want 1", p.Busy())
	}
	if got := dec.interactive(); len(got) != 1 || got[0].id != "0" || got[0].size != testView {
		t.Fatalf("interactive submissions = %+v", got)
	}
	if !p.Cache().Pending(1) || !p.Cache().Pending(2) {
		t.Error("neighbours should be requested while the current item loads")
	}

	dec.deliver(p)

	if p.Busy() != 0 {
		t.Errorf("Busy() = %d after load, want 0", p.Busy())
	}
	if ready != 1 {
		t.Errorf("OnReady called %d times, want 1", ready)
	}
	frame := p.CurrentFrame()
	if frame == nil || frame.Bounds().Size() != testView {
		t.Fatalf("CurrentFrame() = %v, want a %v frame", frame, testView)
	}
	if !geo.ZoomWindow.Near(geometry.R(0, 0, 400, 300)) {
		t.Errorf("zoom window = %v, want the whole preview", geo.ZoomWindow)
	}
	if math.Abs(geo.SizeRatio-0.2) > 1e-9 {
		t.Errorf("SizeRatio = %v, want 0.2", geo.SizeRatio)
	}
	if got := p.Cache().Indices(); len(got) != 3 {
		t.Errorf("cache = %v, want 3 entries", got)
	}
}

func TestNavigationServedFromCache(t *testing.T) {
	p, dec := newPipeline(t, 3, FitToWindow)
	p.SetCurrent("0", true)
	dec.deliver(p)
	before := len(dec.interactive())

	if !p.Next() {
		t.Fatal("Next() = false")
	}
	if len(dec.interactive()) != before {
		t.Error("cached neighbour should not need an interactive decode")
	}
	if p.Busy() != 0 || p.CurrentFrame() == nil {
		t.Errorf("Busy() = %d, frame = %v", p.Busy(), p.CurrentFrame())
	}
	if p.Index() != 1 {
		t.Errorf("Index() = %d, want 1", p.Index())
	}
	if p.Cache().Contains(0) {
		t.Error("entry behind should make room for the next neighbour")
	}

	if !p.Last() || p.Index() != 4 {
		t.Errorf("Last() moved to %d", p.Index())
	}
	if p.Next() {
		t.Error("Next() at the end = true")
	}
	if !p.First() || p.Index() != 0 {
		t.Errorf("First() moved to %d", p.Index())
	}
	if p.Prev() {
		t.Error("Prev() at the start = true")
	}
}

func TestGoTo(t *testing.T) {
	p, dec := newPipeline(t, 3, FitToWindow)
	p.SetCurrent("0", true)
	dec.deliver(p)

	for _, idx := range []int{-1, 5} {
		if p.GoTo(idx) {
			t.Errorf("GoTo(%d) = true", idx)
		}
	}
	if p.Index() != 0 {
		t.Errorf("Index() = %d after rejected jumps, want 0", p.Index())
	}

	if !p.GoTo(3) {
		t.Fatal("GoTo(3) = false")
	}
	dec.deliver(p)
	if p.Index() != 3 || p.State().ItemID != "3" {
		t.Errorf("Index() = %d, ItemID = %q, want 3", p.Index(), p.State().ItemID)
	}
	if p.CurrentFrame() == nil {
		t.Error("CurrentFrame() = nil after GoTo")
	}

	if got := p.IndexOf("2"); got != 2 {
		t.Errorf("IndexOf(2) = %d, want 2", got)
	}
	if got := p.IndexOf("missing"); got != -1 {
		t.Errorf("IndexOf(missing) = %d, want -1", got)
	}
}

func TestZoomPadsToViewAspect(t *testing.T) {
	dec := newFakeDecoder()
	seq := sequence.NewList([]sequence.ItemID{"big"})
	view := image.Pt(2000, 1500)
	p := New(dec, seq, Config{CacheBudget: 1, ViewSize: view})
	p.SetCurrent("big", true)
	dec.deliver(p)

	if !p.Zoom(geometry.Pt(100, 100), geometry.Pt(300, 200)) {
		t.Fatal("Zoom() = false")
	}
	z := p.Geometry().ZoomWindow
	if math.Abs(z.Dx()/z.Dy()-4.0/3.0) > 1e-9 {
		t.Errorf("zoom aspect = %v, want 4:3", z.Dx()/z.Dy())
	}
	if z.Dx()*z.Dy() < 200*100 {
		t.Errorf("zoom area %v smaller than requested", z.Dx()*z.Dy())
	}
	if !z.Near(geometry.R(100, 75, 300, 225)) {
		t.Errorf("zoom = %v, want (100,75)-(300,225)", z)
	}
	for _, s := range dec.subs {
		if s.size == decoder.FullSize {
			t.Error("raster already at full size, no full load expected")
		}
	}

	if p.Zoom(geometry.Pt(10, 10), geometry.Pt(10, 50)) {
		t.Error("zero-area zoom accepted")
	}
	if !p.Geometry().ZoomWindow.Near(z) {
		t.Error("rejected zoom changed the window")
	}
}

func TestZoomCeiling(t *testing.T) {
	dec := newFakeDecoder()
	seq := sequence.NewList([]sequence.ItemID{"0"})
	p := New(dec, seq, Config{CacheBudget: frames(1), ViewSize: testView, MaxScaledPixels: 1e6})
	p.SetCurrent("0", true)
	dec.deliver(p)

	if p.Zoom(geometry.Pt(0, 0), geometry.Pt(40, 30)) {
		t.Error("zoom past the ceiling accepted")
	}
	if !p.Geometry().ZoomWindow.Near(geometry.R(0, 0, 400, 300)) {
		t.Errorf("window = %v after rejected zoom", p.Geometry().ZoomWindow)
	}
	if !p.ZoomIn() {
		t.Error("small step zoom rejected")
	}
}

func TestZoomInOut(t *testing.T) {
	p, dec := newPipeline(t, 1, FitToWindow)
	p.SetCurrent("0", true)
	dec.deliver(p)

	if !p.ZoomIn() {
		t.Fatal("ZoomIn() = false")
	}
	if z := p.Geometry().ZoomWindow; !z.Near(geometry.R(40, 30, 360, 270)) {
		t.Errorf("after ZoomIn window = %v", z)
	}
	p.ZoomOut()
	if z := p.Geometry().ZoomWindow; !z.Near(geometry.R(0, 0, 400, 300)) {
		t.Errorf("after ZoomOut window = %v, want full preview", z)
	}

	p.ZoomIn()
	p.ZoomIn()
	p.ZoomFull()
	if z := p.Geometry().ZoomWindow; !z.Near(geometry.R(0, 0, 400, 300)) {
		t.Errorf("after ZoomFull window = %v", z)
	}
}

func TestFullSizeKeepsVisibleRegion(t *testing.T) {
	p, dec := newPipeline(t, 1, FitToWindow)
	p.SetCurrent("0", true)
	dec.deliver(p)

	if !p.Zoom(geometry.Pt(100, 75), geometry.Pt(200, 150)) {
		t.Fatal("Zoom() = false")
	}
	subs := dec.take()
	if len(subs) != 1 || subs[0].size != decoder.FullSize || subs[0].priority != decoder.Interactive {
		t.Fatalf("expected one interactive full size request, got %+v", subs)
	}
	if p.Busy() != 1 {
		t.Errorf("Busy() = %d during full load", p.Busy())
	}

	// A second zoom while loading does not ask again.
	p.ZoomIn()
	p.ZoomOut()
	p.Zoom(geometry.Pt(100, 75), geometry.Pt(200, 150))
	if extra := dec.take(); len(extra) != 0 {
		t.Errorf("duplicate full size requests: %+v", extra)
	}

	p.Pan(geometry.Pt(20, 10))
	before := p.Geometry().ZoomWindow

	p.HandleResult(dec.result(subs[0]))

	after := p.Geometry().ZoomWindow
	if want := before.Scale(5, 5); !after.Near(want) {
		t.Errorf("window after full load = %v, want %v", after, want)
	}
	if got := p.State().RasterSize; got != image.Pt(2000, 1500) {
		t.Errorf("raster = %v, want full size", got)
	}
	if p.Busy() != 0 {
		t.Errorf("Busy() = %d after full load", p.Busy())
	}
}

func TestResizeClearsCache(t *testing.T) {
	p, dec := newPipeline(t, 3, FitToWindow)
	p.SetCurrent("0", true)

	subs := dec.take()
	p.HandleResult(dec.result(subs[0]))

	p.Resize(image.Pt(800, 600))
	if p.Cache().Len() != 0 {
		t.Errorf("cache holds %v after resize", p.Cache().Indices())
	}

	// Neighbours requested at the old size arrive late.
	for _, s := range subs[1:] {
		p.HandleResult(dec.result(s))
	}
	if p.Cache().Contains(1) {
		t.Error("result at the old size was cached")
	}

	full := false
	for _, s := range dec.take() {
		full = full || s.size == decoder.FullSize
	}
	if !full {
		t.Error("view doubled past the preview, expected a full size load")
	}

	p.Next()
	last := dec.interactive()[len(dec.interactive())-1]
	if last.id != "1" || last.size != image.Pt(800, 600) {
		t.Errorf("previously cached neighbour should be reloaded at the new size, got %+v", last)
	}
}

func TestResizeWhileLoading(t *testing.T) {
	p, dec := newPipeline(t, 1, FitToWindow)
	p.SetCurrent("0", true)
	old := dec.take()

	p.Resize(image.Pt(200, 150))
	if p.Busy() != 1 {
		t.Errorf("Busy() = %d after resize, want 1", p.Busy())
	}
	if !dec.cancelled[old[0].handle] {
		t.Error("preview at the old size should be cancelled")
	}
	for _, s := range old {
		p.HandleResult(dec.result(s))
	}
	if p.CurrentFrame() != nil {
		t.Error("preview at the old size should not be shown")
	}

	dec.deliver(p)
	if f := p.CurrentFrame(); f == nil || f.Bounds().Size() != image.Pt(200, 150) {
		t.Errorf("frame = %v, want 200x150", f)
	}
	if p.Busy() != 0 {
		t.Errorf("Busy() = %d, want 0", p.Busy())
	}
}

func TestNavigateBackWhileLoading(t *testing.T) {
	p, dec := newPipeline(t, 3, FitToWindow)
	p.SetCurrent("0", true)
	p.Next()
	p.Prev()

	if p.Busy() != 1 {
		t.Errorf("Busy() = %d, want 1", p.Busy())
	}
	var live int
	for _, s := range dec.interactive() {
		if !dec.cancelled[s.handle] {
			live++
		}
	}
	if live != 1 {
		t.Errorf("%d interactive requests outstanding, want 1", live)
	}

	dec.deliver(p)
	if p.Busy() != 0 || p.State().ItemID != "0" || p.CurrentFrame() == nil {
		t.Errorf("Busy() = %d, item = %q, frame = %v", p.Busy(), p.State().ItemID, p.CurrentFrame())
	}
}

func TestResizeIgnoresEmptySize(t *testing.T) {
	p, dec := newPipeline(t, 3, FitToWindow)
	p.SetCurrent("0", true)
	dec.deliver(p)

	for _, size := range []image.Point{{}, {X: -1, Y: 5}, {X: 400, Y: 0}} {
		p.Resize(size)
		if got := p.Geometry().ViewSize; got != testView {
			t.Errorf("Resize(%v) changed view to %v", size, got)
		}
	}
	if subs := dec.take(); len(subs) != 0 {
		t.Errorf("Resize with an empty size submitted %+v", subs)
	}
	if p.CurrentFrame() == nil {
		t.Error("frame dropped by ignored resize")
	}
}

func TestRotateInvalidatesOnlyCurrent(t *testing.T) {
	rotations := NewMemoryRotations()
	dec := newFakeDecoder()
	seq := sequence.NewList([]sequence.ItemID{"0", "1", "2", "3", "4"})
	p := New(dec, seq, Config{CacheBudget: frames(4), ViewSize: testView, Rotations: rotations})

	p.SetCurrent("0", true)
	dec.deliver(p)
	p.Next()
	dec.deliver(p)
	cached := p.Cache().Indices()

	if !p.Rotate(90) {
		t.Fatal("Rotate() = false")
	}
	if p.Cache().Contains(1) {
		t.Error("current entry should be invalidated")
	}
	for _, i := range cached {
		if i != 1 && !p.Cache().Contains(i) {
			t.Errorf("entry %d dropped by rotation", i)
		}
	}
	if rotations.Rotation("1") != 90 {
		t.Errorf("stored rotation = %d, want 90", rotations.Rotation("1"))
	}

	last := dec.interactive()[len(dec.interactive())-1]
	if last.id != "1" || last.angle != 90 {
		t.Fatalf("reload = %+v, want item 1 at 90", last)
	}
	dec.deliver(p)
	if got := p.State().FullSize; got != image.Pt(1500, 2000) {
		t.Errorf("full size after rotation = %v", got)
	}

	// Returning to the item uses the stored angle.
	p.Prev()
	p.Next()
	if p.State().Angle != 90 {
		t.Errorf("angle after revisit = %d", p.State().Angle)
	}
}

func TestStaleAngleDiscarded(t *testing.T) {
	p, dec := newPipeline(t, 1, FitToWindow)
	p.SetCurrent("0", true)
	first := dec.take()

	p.Rotate(180)
	p.HandleResult(dec.result(first[0]))
	if p.CurrentFrame() != nil {
		t.Error("result at the old angle should be discarded")
	}
	dec.deliver(p)
	if p.CurrentFrame() == nil || p.State().Angle != 180 {
		t.Errorf("frame = %v, angle = %d", p.CurrentFrame(), p.State().Angle)
	}
	if p.Busy() != 0 {
		t.Errorf("Busy() = %d", p.Busy())
	}
}

// failingRotations accepts no new rotations.
type failingRotations struct {
	*MemoryRotations
}

func (failingRotations) SetRotation(sequence.ItemID, int) error {
	return errors.New("disk full")
}

func TestRotateSurvivesFailedSave(t *testing.T) {
	dec := newFakeDecoder()
	seq := sequence.NewList([]sequence.ItemID{"0", "1", "2"})
	p := New(dec, seq, Config{
		CacheBudget: frames(3),
		ViewSize:    testView,
		Rotations:   failingRotations{NewMemoryRotations()},
	})
	p.SetCurrent("0", true)
	dec.deliver(p)

	if !p.Rotate(90) {
		t.Fatal("Rotate() = false")
	}
	dec.deliver(p)

	st := p.State()
	if st.RasterSize == (image.Point{}) || p.CurrentFrame() == nil {
		t.Fatalf("no raster after rotation, state %+v", st)
	}
	if st.Angle != 90 || st.FullSize != image.Pt(1500, 2000) {
		t.Errorf("angle = %d, full size = %v, want 90 and 1500x2000", st.Angle, st.FullSize)
	}
	if st.Unavailable || p.Busy() != 0 {
		t.Errorf("Unavailable = %v, Busy() = %d", st.Unavailable, p.Busy())
	}
	if !p.ZoomIn() {
		t.Error("ZoomIn() = false on the rotated item")
	}
}

func TestBackgroundFailureOfCurrentIgnored(t *testing.T) {
	p, dec := newPipeline(t, 3, FitToWindow)

	var unavailable int
	p.OnUnavailable = func(sequence.ItemID, error) { unavailable++ }

	p.SetCurrent("0", true)
	subs := dec.take()
	p.HandleResult(dec.result(subs[0]))

	var preload submission
	for _, s := range subs[1:] {
		if s.id == "1" {
			preload = s
		}
	}
	if preload.handle == 0 || preload.priority != decoder.Background {
		t.Fatalf("no background request for item 1 in %+v", subs)
	}

	// Move onto the item while its preload is still running, then fail it.
	p.Next()
	dec.failing["1"] = true
	p.HandleResult(dec.result(preload))

	if unavailable != 0 || p.State().Unavailable {
		t.Errorf("background failure marked the item unavailable (callbacks %d)", unavailable)
	}
	if p.Busy() != 1 {
		t.Errorf("Busy() = %d, want the interactive request still outstanding", p.Busy())
	}

	dec.failing["1"] = false
	dec.deliver(p)
	if p.CurrentFrame() == nil || p.State().ItemID != "1" {
		t.Errorf("item 1 not shown, state %+v", p.State())
	}
}

func TestFailures(t *testing.T) {
	p, dec := newPipeline(t, 3, FitToWindow)
	dec.failing["0"] = true
	dec.failing["1"] = true

	var unavailable []sequence.ItemID
	p.OnUnavailable = func(id sequence.ItemID, err error) {
		if !errors.Is(err, decoder.ErrDecodeFailed) {
			t.Errorf("OnUnavailable err = %v", err)
		}
		unavailable = append(unavailable, id)
	}

	p.SetCurrent("0", true)
	dec.deliver(p)

	if len(unavailable) != 1 || unavailable[0] != "0" {
		t.Errorf("unavailable = %v, want [0]", unavailable)
	}
	if p.CurrentFrame() != nil || !p.State().Unavailable {
		t.Error("failed current item should leave no frame")
	}
	if p.Cache().Pending(1) || p.Cache().Contains(1) {
		t.Error("failed preload should release its slot")
	}
	if p.Busy() != 0 {
		t.Errorf("Busy() = %d", p.Busy())
	}
}

func TestStopResetsBusy(t *testing.T) {
	p, dec := newPipeline(t, 3, FitToWindow)
	p.SetCurrent("0", true)
	p.Zoom(geometry.Pt(0, 0), geometry.Pt(10, 10))
	p.Next()
	if p.Busy() != 1 {
		t.Fatalf("Busy() = %d, want 1", p.Busy())
	}

	p.Stop()
	if dec.cancelAll != 1 {
		t.Errorf("CancelAll called %d times", dec.cancelAll)
	}
	if p.Busy() != 0 {
		t.Errorf("Busy() = %d after Stop", p.Busy())
	}

	// Results that slip through after Stop never drive busy negative.
	subs := dec.take()
	for _, s := range subs {
		p.HandleResult(dec.result(s))
		p.HandleResult(dec.result(s))
	}
	if p.Busy() != 0 {
		t.Errorf("Busy() = %d after late results", p.Busy())
	}
	if p.Cache().Len() != 0 {
		t.Errorf("late results were cached: %v", p.Cache().Indices())
	}
}

func TestRemoveItem(t *testing.T) {
	dec := newFakeDecoder()
	seq := sequence.NewList([]sequence.ItemID{"a", "b", "c", "d", "e"})
	p := New(dec, seq, Config{CacheBudget: frames(3), ViewSize: testView})
	var gone error
	p.OnUnavailable = func(_ sequence.ItemID, err error) { gone = err }

	p.SetCurrent("c", true)
	dec.deliver(p)

	steps := []struct {
		remove sequence.ItemID
		want   sequence.ItemID
	}{
		{"c", "d"},
		{"a", "d"},
		{"d", "e"},
		{"e", "b"},
	}
	for _, s := range steps {
		if !p.RemoveItem(s.remove) {
			t.Fatalf("RemoveItem(%s) = false", s.remove)
		}
		dec.deliver(p)
		if got := p.State().ItemID; got != s.want {
			t.Errorf("after removing %s current = %s, want %s", s.remove, got, s.want)
		}
		if p.Cache().Len() > p.Cache().Capacity() {
			t.Errorf("cache over capacity: %v", p.Cache().Indices())
		}
	}

	if p.RemoveItem("zzz") {
		t.Error("RemoveItem(unknown) = true")
	}
	p.RemoveItem("b")
	if !errors.Is(gone, ErrEmptySequence) || p.Index() != -1 {
		t.Errorf("empty sequence: err = %v, index = %d", gone, p.Index())
	}
}

func TestNaturalSize(t *testing.T) {
	p, dec := newPipeline(t, 1, NaturalSize)
	p.SetCurrent("0", true)
	p.HandleResult(dec.result(dec.take()[0]))

	if z := p.Geometry().ZoomWindow; !z.Near(geometry.R(160, 120, 240, 180)) {
		t.Errorf("natural window on preview = %v", z)
	}
	dec.deliver(p)
	g := p.Geometry()
	if math.Abs(g.SizeRatio-1) > 1e-9 {
		t.Errorf("SizeRatio = %v after full load, want 1", g.SizeRatio)
	}
	if !g.ZoomWindow.Near(geometry.R(800, 600, 1200, 900)) {
		t.Errorf("natural window on full raster = %v", g.ZoomWindow)
	}
}

func TestNaturalSizeIfFits(t *testing.T) {
	p, dec := newPipeline(t, 1, NaturalSizeIfFits)
	dec.full["0"] = image.Pt(200, 100)
	dec.full["1"] = image.Pt(4000, 3000)

	p.SetCurrent("0", true)
	dec.deliver(p)
	g := p.Geometry()
	if math.Abs(g.SizeRatio-1) > 1e-9 {
		t.Errorf("small item SizeRatio = %v, want 1", g.SizeRatio)
	}
	if !g.ZoomWindow.Near(geometry.R(-100, -100, 300, 200)) {
		t.Errorf("small item window = %v", g.ZoomWindow)
	}

	p.Next()
	dec.deliver(p)
	if z := p.Geometry().ZoomWindow; !z.Near(geometry.R(0, 0, 400, 300)) {
		t.Errorf("large item window = %v, want fitted", z)
	}
}

func TestDrain(t *testing.T) {
	p, dec := newPipeline(t, 3, FitToWindow)
	p.SetCurrent("0", true)

	ch := make(chan decoder.Result, 8)
	for _, s := range dec.take() {
		ch <- dec.result(s)
	}
	if n := p.Drain(ch); n != 3 {
		t.Errorf("Drain() = %d, want 3", n)
	}
	if n := p.Drain(ch); n != 0 {
		t.Errorf("second Drain() = %d, want 0", n)
	}
	if p.CurrentFrame() == nil {
		t.Error("no frame after draining")
	}
}

func TestParseViewSizeMode(t *testing.T) {
	tests := []struct {
		in   string
		want ViewSizeMode
		ok   bool
	}{
		{"fit", FitToWindow, true},
		{"", FitToWindow, true},
		{"Natural", NaturalSize, true},
		{"natural-if-fits", NaturalSizeIfFits, true},
		{"zoomed", FitToWindow, false},
	}
	for _, tt := range tests {
		got, ok := ParseViewSizeMode(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseViewSizeMode(%q) = %v, %v", tt.in, got, ok)
		}
	}
}
