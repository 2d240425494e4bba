package display

import (
	"image"
	"strings"

	"photoview/internal/decoder"
	"photoview/internal/filters"
	"photoview/internal/geometry"
	"photoview/internal/logging"
	"photoview/internal/metrics"
	"photoview/internal/preload"
	"photoview/internal/sequence"
)

// Defaults for Config fields left at zero.
const (
	DefaultFullSizeThreshold = 1.5
	// DefaultMaxScaledPixels bounds the area the whole raster may cover at
	// the requested zoom, about 32k x 32k.
	DefaultMaxScaledPixels = 1 << 30
	// ZoomStep is the factor applied by ZoomIn and undone by ZoomOut.
	ZoomStep = 1.25
)

// ViewSizeMode decides the zoom window an item starts with.
type ViewSizeMode int

const (
	// FitToWindow shows the whole item.
	FitToWindow ViewSizeMode = iota
	// NaturalSize shows the item at one image pixel per screen pixel.
	NaturalSize
	// NaturalSizeIfFits uses natural size for items smaller than the view
	// and fits larger ones.
	NaturalSizeIfFits
)

// ParseViewSizeMode parses "fit", "natural" or "natural-if-fits".
func ParseViewSizeMode(s string) (ViewSizeMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fit", "":
		return FitToWindow, true
	case "natural":
		return NaturalSize, true
	case "natural-if-fits":
		return NaturalSizeIfFits, true
	}
	return FitToWindow, false
}

func (m ViewSizeMode) String() string {
	switch m {
	case NaturalSize:
		return "natural"
	case NaturalSizeIfFits:
		return "natural-if-fits"
	}
	return "fit"
}

// Decoder is the part of decoder.Service the pipeline drives.
type Decoder interface {
	Submit(id sequence.ItemID, size image.Point, angle int, priority decoder.Priority) decoder.Handle
	Cancel(h decoder.Handle)
	CancelAll()
}

// Geometry describes what the view currently shows.
type Geometry struct {
	ViewSize   image.Point
	ZoomWindow geometry.Rect
	// SizeRatio is screen pixels per full-resolution image pixel.
	SizeRatio float64
}

// Config configures a Pipeline.
type Config struct {
	CacheBudget       int64
	ViewSize          image.Point
	Mode              ViewSizeMode
	FullSizeThreshold float64
	MaxScaledPixels   float64
	Rotations         RotationStore
}

type request struct {
	id       sequence.ItemID
	size     image.Point
	angle    int
	priority decoder.Priority
	full     bool
}

// Pipeline is one viewing session's display state. It is not safe for
// concurrent use.
type Pipeline struct {
	cfg   Config
	dec   Decoder
	seq   *sequence.List
	cache *preload.Cache

	view    image.Point
	current int
	forward bool

	raster      image.Image
	fullSize    image.Point
	angle       int
	zoom        geometry.Rect
	frame       image.Image
	unavailable bool

	filter      filters.Filter
	filterNames []string

	pending       map[decoder.Handle]request
	busy          int
	previewHandle decoder.Handle
	fullHandle    decoder.Handle
	fullPreview   image.Point

	// OnReady is called with every new frame.
	OnReady func(frame image.Image)
	// OnUnavailable is called when the current item cannot be shown.
	OnUnavailable func(id sequence.ItemID, err error)
	// OnGeometryChanged is called whenever the zoom window or view changes.
	OnGeometryChanged func(Geometry)
}

// New creates a Pipeline over seq. Nothing is shown until SetCurrent.
func New(dec Decoder, seq *sequence.List, cfg Config) *Pipeline {
	if cfg.FullSizeThreshold <= 0 {
		cfg.FullSizeThreshold = DefaultFullSizeThreshold
	}
	if cfg.MaxScaledPixels == 0 {
		cfg.MaxScaledPixels = DefaultMaxScaledPixels
	}
	if cfg.Rotations == nil {
		cfg.Rotations = NewMemoryRotations()
	}

	p := &Pipeline{
		cfg:     cfg,
		dec:     dec,
		seq:     seq,
		cache:   preload.New(cfg.CacheBudget),
		view:    cfg.ViewSize,
		current: -1,
		forward: true,
		pending: make(map[decoder.Handle]request),
	}
	p.cache.SetViewSize(p.view)
	metrics.SequenceLength.Set(float64(seq.Count()))
	return p
}

// SetCurrent shows id, travelling forward or backward. It returns false if
// id is not in the sequence.
func (p *Pipeline) SetCurrent(id sequence.ItemID, forward bool) bool {
	idx := p.seq.IndexOf(id)
	if idx < 0 {
		return false
	}
	p.goTo(idx, forward)
	return true
}

// Next moves one item forward. It returns false at the end.
func (p *Pipeline) Next() bool {
	if p.current+1 >= p.seq.Count() {
		return false
	}
	p.goTo(p.current+1, true)
	return true
}

// Prev moves one item back. It returns false at the start.
func (p *Pipeline) Prev() bool {
	if p.current <= 0 {
		return false
	}
	p.goTo(p.current-1, false)
	return true
}

// First moves to the first item.
func (p *Pipeline) First() bool {
	if p.seq.Count() == 0 {
		return false
	}
	p.goTo(0, true)
	return true
}

// Last moves to the last item.
func (p *Pipeline) Last() bool {
	if p.seq.Count() == 0 {
		return false
	}
	p.goTo(p.seq.Count()-1, false)
	return true
}

// GoTo shows the item at index. The travel direction follows the jump. It
// returns false for an index outside the sequence.
func (p *Pipeline) GoTo(index int) bool {
	if index < 0 || index >= p.seq.Count() {
		return false
	}
	p.goTo(index, index >= p.current)
	return true
}

func (p *Pipeline) goTo(idx int, forward bool) {
	p.cancelInteractive()
	p.current = idx
	p.forward = forward
	p.unavailable = false

	id := p.seq.At(idx)
	p.angle = p.cfg.Rotations.Rotation(id)

	if e, ok := p.cache.Get(idx, p.angle); ok {
		logging.Debug("Display: %s served from preload cache", id)
		p.adopt(e.Raster, e.FullSize)
	} else {
		p.cache.Invalidate(idx)
		p.raster = nil
		p.requestCurrent()
	}
	p.fill()
}

// requestCurrent asks for a preview of the current item. Callers cancel any
// outstanding interactive request first.
func (p *Pipeline) requestCurrent() {
	id := p.seq.At(p.current)
	p.previewHandle = p.submit(request{id: id, size: p.view, angle: p.angle, priority: decoder.Interactive})
}

// cancelInteractive withdraws the outstanding preview and full size
// requests, so at most one interactive request is ever in flight.
func (p *Pipeline) cancelInteractive() {
	for _, h := range []decoder.Handle{p.previewHandle, p.fullHandle} {
		if _, ok := p.pending[h]; h == 0 || !ok {
			continue
		}
		p.dec.Cancel(h)
		delete(p.pending, h)
		p.resolve()
	}
	p.previewHandle = 0
	p.fullHandle = 0
}

func (p *Pipeline) submit(r request) decoder.Handle {
	h := p.dec.Submit(r.id, r.size, r.angle, r.priority)
	if h == 0 {
		return 0
	}
	p.pending[h] = r
	if r.priority == decoder.Interactive {
		p.busy++
		metrics.ViewerBusy.Set(float64(p.busy))
	}
	return h
}

func (p *Pipeline) resolve() {
	if p.busy > 0 {
		p.busy--
	}
	metrics.ViewerBusy.Set(float64(p.busy))
}

// fill tops up background loads around the current item.
func (p *Pipeline) fill() {
	if p.current < 0 {
		return
	}
	p.cache.Fill(p.current, p.seq.Count(), p.forward, func(i int) {
		id := p.seq.At(i)
		angle := p.cfg.Rotations.Rotation(id)
		if p.submit(request{id: id, size: p.view, angle: angle, priority: decoder.Background}) == 0 {
			p.cache.Abandon(i)
		}
	})
}

// adopt makes raster the current image, applies the standard view size and
// renders it.
func (p *Pipeline) adopt(raster image.Image, full image.Point) {
	p.raster = raster
	p.fullSize = full
	p.unavailable = false
	p.zoom = p.standardZoom()
	if p.cfg.Mode == NaturalSize {
		p.potentiallyLoadFullSize()
	}
	p.render()
}

func (p *Pipeline) bounds() geometry.Rect {
	return geometry.FromSize(geometry.SizeOf(p.raster.Bounds().Size()))
}

func (p *Pipeline) standardZoom() geometry.Rect {
	bounds := p.bounds()
	view := geometry.SizeOf(p.view)
	full := geometry.SizeOf(p.fullSize)

	natural := p.cfg.Mode == NaturalSize ||
		(p.cfg.Mode == NaturalSizeIfFits && geometry.Fits(full, view))
	if !natural {
		return bounds
	}
	z, ok := geometry.ApplyZoom(geometry.NaturalWindow(bounds.Size(), full, view), view)
	if !ok {
		return bounds
	}
	return z
}

// potentiallyLoadFullSize requests the full-resolution raster when the
// loaded one is smaller and no such request is outstanding.
func (p *Pipeline) potentiallyLoadFullSize() {
	if p.raster == nil || p.fullHandle != 0 {
		return
	}
	size := p.raster.Bounds().Size()
	if size.X >= p.fullSize.X && size.Y >= p.fullSize.Y {
		return
	}

	id := p.seq.At(p.current)
	h := p.submit(request{id: id, size: decoder.FullSize, angle: p.angle, priority: decoder.Interactive, full: true})
	if h == 0 {
		return
	}
	p.fullHandle = h
	p.fullPreview = size
	metrics.FullSizeLoads.Inc()
	logging.Debug("Display: loading %s at full size %v (preview %v)", id, p.fullSize, size)
}

// Drain applies every result already waiting on ch without blocking.
func (p *Pipeline) Drain(ch <-chan decoder.Result) int {
	n := 0
	for {
		select {
		case r, ok := <-ch:
			if !ok {
				return n
			}
			p.HandleResult(r)
			n++
		default:
			return n
		}
	}
}

// HandleResult applies one decode result.
func (p *Pipeline) HandleResult(r decoder.Result) {
	req, ok := p.pending[r.Handle]
	if !ok {
		stale("unknown", r)
		return
	}
	delete(p.pending, r.Handle)
	if req.priority == decoder.Interactive {
		p.resolve()
	}
	if r.Handle == p.previewHandle {
		p.previewHandle = 0
	}

	if req.full {
		p.handleFull(r)
		return
	}

	idx := p.seq.IndexOf(r.ItemID)
	if r.RequestedSize != p.view {
		stale("size", r)
		return
	}
	if idx < 0 {
		stale("item", r)
		return
	}

	if r.Err != nil {
		p.cache.Abandon(idx)
		if idx == p.current && p.raster == nil && r.Angle == p.angle && req.priority == decoder.Interactive {
			p.setUnavailable(r.Err)
		} else {
			logging.Debug("Display: dropping failed preload of %s: %v", r.ItemID, r.Err)
		}
		return
	}

	// The current item's angle is authoritative even when saving it failed.
	want := p.cfg.Rotations.Rotation(r.ItemID)
	if idx == p.current {
		want = p.angle
	}
	if r.Angle != want {
		p.cache.Abandon(idx)
		stale("angle", r)
		return
	}

	entry := preload.Entry{Raster: r.Raster, FullSize: r.FullSize, Angle: r.Angle}
	if idx == p.current && p.raster == nil {
		// A preload can beat the preview it was promoted to.
		p.cancelInteractive()
		p.cache.Put(idx, entry, p.current, p.forward)
		p.adopt(r.Raster, r.FullSize)
		p.fill()
		return
	}
	if !p.cache.Put(idx, entry, p.current, p.forward) {
		logging.Debug("Display: preload of %s rejected, cache full of nearer items", r.ItemID)
	}
}

func (p *Pipeline) handleFull(r decoder.Result) {
	if r.Handle != p.fullHandle {
		stale("item", r)
		return
	}
	p.fullHandle = 0

	if r.Err != nil {
		logging.Warn("Display: full size load of %s failed, keeping preview: %v", r.ItemID, r.Err)
		return
	}
	if p.raster == nil || p.current < 0 || p.seq.At(p.current) != r.ItemID {
		stale("item", r)
		return
	}
	if r.Angle != p.angle {
		stale("angle", r)
		return
	}

	// Keep the visible region: the window is in preview coordinates.
	size := r.Raster.Bounds().Size()
	fx := float64(size.X) / float64(p.fullPreview.X)
	fy := float64(size.Y) / float64(p.fullPreview.Y)
	p.zoom = p.zoom.Scale(fx, fy)
	p.raster = r.Raster
	p.fullSize = r.FullSize
	p.cache.Invalidate(p.current)
	logging.Debug("Display: %s now at full size %v", r.ItemID, size)
	p.render()
}

func (p *Pipeline) setUnavailable(err error) {
	p.unavailable = true
	p.frame = nil
	metrics.ContentUnavailable.Inc()
	var id sequence.ItemID
	if p.current >= 0 {
		id = p.seq.At(p.current)
	}
	logging.Warn("Display: content unavailable for %s: %v", id, err)
	if p.OnUnavailable != nil {
		p.OnUnavailable(id, err)
	}
}

func stale(reason string, r decoder.Result) {
	metrics.DecodeStaleResults.WithLabelValues(reason).Inc()
	logging.Debug("Display: discarding stale result %d for %s (%s)", r.Handle, r.ItemID, reason)
}

// Stop cancels every outstanding request and clears the busy state.
func (p *Pipeline) Stop() {
	p.dec.CancelAll()
	for _, r := range p.pending {
		if r.priority == decoder.Background {
			if idx := p.seq.IndexOf(r.id); idx >= 0 {
				p.cache.Abandon(idx)
			}
		}
	}
	clear(p.pending)
	p.previewHandle = 0
	p.fullHandle = 0
	p.busy = 0
	metrics.ViewerBusy.Set(0)
}
