package display

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"time"

	"photoview/internal/geometry"
	"photoview/internal/metrics"
	"photoview/internal/sequence"

	xdraw "golang.org/x/image/draw"
)

// ErrEmptySequence is reported when the last item has been removed.
var ErrEmptySequence = errors.New("sequence is empty")

// render crops the zoom window out of the raster, scales it onto a frame of
// the view size and publishes the frame and geometry.
func (p *Pipeline) render() {
	if p.raster == nil || p.view.X <= 0 || p.view.Y <= 0 {
		return
	}
	start := time.Now()

	frame := image.NewRGBA(image.Rectangle{Max: p.view})
	draw.Draw(frame, frame.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	view := geometry.SizeOf(p.view)
	src := p.zoom.Intersect(p.bounds())
	if !src.Empty() {
		dst := geometry.ImageRectToScreen(src, p.zoom, view).ImageRect().Intersect(frame.Bounds())
		sr := src.ImageRect().Add(p.raster.Bounds().Min)
		if !dst.Empty() && !sr.Empty() {
			xdraw.ApproxBiLinear.Scale(frame, dst, p.raster, sr, draw.Over, nil)
		}
	}

	var out image.Image = frame
	if p.filter != nil {
		out = p.filter(frame)
	}
	p.frame = out

	metrics.FramesRendered.Inc()
	metrics.FrameRenderDuration.Observe(time.Since(start).Seconds())

	if p.OnReady != nil {
		p.OnReady(out)
	}
	if p.OnGeometryChanged != nil {
		p.OnGeometryChanged(p.Geometry())
	}
}

// CurrentFrame returns the last rendered frame, or nil when nothing can be
// shown.
func (p *Pipeline) CurrentFrame() image.Image {
	return p.frame
}

// Geometry returns the current view geometry.
func (p *Pipeline) Geometry() Geometry {
	g := Geometry{ViewSize: p.view, ZoomWindow: p.zoom}
	if p.raster == nil || p.fullSize.X == 0 {
		return g
	}
	_, ratio := geometry.Offset(p.zoom.Size(), geometry.SizeOf(p.view))
	g.SizeRatio = ratio * float64(p.raster.Bounds().Dx()) / float64(p.fullSize.X)
	return g
}

// State is a snapshot of the pipeline for status displays.
type State struct {
	Index       int             `json:"index"`
	Count       int             `json:"count"`
	ItemID      sequence.ItemID `json:"item"`
	Angle       int             `json:"angle"`
	Busy        int             `json:"busy"`
	Unavailable bool            `json:"unavailable"`
	FullSize    image.Point     `json:"fullSize"`
	RasterSize  image.Point     `json:"rasterSize"`
	Geometry    Geometry        `json:"geometry"`
	Mode        string          `json:"mode"`
	Filters     []string        `json:"filters,omitempty"`
	Cached      []int           `json:"cached"`
	Capacity    int             `json:"cacheCapacity"`
}

// State returns a snapshot of the pipeline.
func (p *Pipeline) State() State {
	s := State{
		Index:       p.current,
		Count:       p.seq.Count(),
		Angle:       p.angle,
		Busy:        p.busy,
		Unavailable: p.unavailable,
		FullSize:    p.fullSize,
		Geometry:    p.Geometry(),
		Mode:        p.cfg.Mode.String(),
		Filters:     p.filterNames,
		Cached:      p.cache.Indices(),
		Capacity:    p.cache.Capacity(),
	}
	if p.current >= 0 {
		s.ItemID = p.seq.At(p.current)
	}
	if p.raster != nil {
		s.RasterSize = p.raster.Bounds().Size()
	}
	return s
}

// Busy returns the number of outstanding interactive requests.
func (p *Pipeline) Busy() int {
	return p.busy
}

// Index returns the current index, or -1.
func (p *Pipeline) Index() int {
	return p.current
}

// IndexOf returns the position of id in the sequence, or -1.
func (p *Pipeline) IndexOf(id sequence.ItemID) int {
	return p.seq.IndexOf(id)
}

// Count returns the sequence length.
func (p *Pipeline) Count() int {
	return p.seq.Count()
}

// CacheStats returns the number of resident preload entries and the
// current capacity.
func (p *Pipeline) CacheStats() (entries, capacity int) {
	return p.cache.Len(), p.cache.Capacity()
}

// Cache exposes the preload cache for inspection.
func (p *Pipeline) Cache() CacheView {
	return p.cache
}

// CacheView is the read side of the preload cache.
type CacheView interface {
	Len() int
	Capacity() int
	Indices() []int
	Contains(index int) bool
	Pending(index int) bool
}
