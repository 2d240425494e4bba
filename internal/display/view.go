package display

import (
	"image"

	"photoview/internal/decoder"
	"photoview/internal/filters"
	"photoview/internal/geometry"
	"photoview/internal/logging"
	"photoview/internal/metrics"
	"photoview/internal/sequence"
)

// Zoom shows the image region spanned by a and b, given in the loaded
// raster's coordinates. The region is padded to the view's aspect ratio. It
// returns false, leaving the view unchanged, for an empty region or one that
// would scale the raster past the configured ceiling.
func (p *Pipeline) Zoom(a, b geometry.Point) bool {
	if p.raster == nil {
		return false
	}
	z, ok := geometry.ApplyZoom(geometry.Normalize(a, b), geometry.SizeOf(p.view))
	if !ok {
		metrics.ZoomRejected.WithLabelValues("empty").Inc()
		logging.Debug("Display: ignoring zero-area zoom %v-%v", a, b)
		return false
	}
	return p.setZoom(z)
}

// ZoomScreen is Zoom with the corners given in view coordinates.
func (p *Pipeline) ZoomScreen(a, b geometry.Point) bool {
	if p.raster == nil {
		return false
	}
	r := geometry.ScreenRectToImage(geometry.Normalize(a, b), p.zoom, geometry.SizeOf(p.view))
	return p.Zoom(r.Min, r.Max)
}

// ZoomIn magnifies about the centre of the view by ZoomStep.
func (p *Pipeline) ZoomIn() bool {
	return p.zoomBy(ZoomStep)
}

// ZoomOut undoes one ZoomIn. Zooming out past the whole raster settles on
// the fitted view.
func (p *Pipeline) ZoomOut() bool {
	return p.zoomBy(1 / ZoomStep)
}

func (p *Pipeline) zoomBy(factor float64) bool {
	if p.raster == nil {
		return false
	}
	z, ok := geometry.ZoomAround(p.zoom, factor, geometry.SizeOf(p.view), p.bounds())
	if !ok {
		metrics.ZoomRejected.WithLabelValues("empty").Inc()
		return false
	}
	return p.setZoom(z)
}

// ZoomFull shows the whole raster.
func (p *Pipeline) ZoomFull() bool {
	if p.raster == nil {
		return false
	}
	p.zoom = p.bounds()
	p.render()
	return true
}

func (p *Pipeline) setZoom(z geometry.Rect) bool {
	raster := geometry.SizeOf(p.raster.Bounds().Size())
	if !geometry.WithinCeiling(raster, z, geometry.SizeOf(p.view), p.cfg.MaxScaledPixels) {
		metrics.ZoomRejected.WithLabelValues("ceiling").Inc()
		logging.Debug("Display: zoom %v would exceed %.0f scaled pixels", z, p.cfg.MaxScaledPixels)
		return false
	}
	p.zoom = z
	p.cache.Invalidate(p.current)
	p.potentiallyLoadFullSize()
	p.render()
	return true
}

// Pan moves the zoom window by d, in raster coordinates. The window centre
// stays on the raster.
func (p *Pipeline) Pan(d geometry.Point) bool {
	if p.raster == nil {
		return false
	}
	z := p.zoom.Translate(d)
	c, b := z.Center(), p.bounds()
	dx := min(max(c.X, b.Min.X), b.Max.X) - c.X
	dy := min(max(c.Y, b.Min.Y), b.Max.Y) - c.Y
	p.zoom = z.Translate(geometry.Pt(dx, dy))
	p.render()
	return true
}

// PanScreen is Pan with d given in view pixels.
func (p *Pipeline) PanScreen(d geometry.Point) bool {
	if p.raster == nil {
		return false
	}
	_, ratio := geometry.Offset(p.zoom.Size(), geometry.SizeOf(p.view))
	if ratio == 0 {
		return false
	}
	return p.Pan(d.Mul(1 / ratio))
}

// Resize changes the view size. The preload cache is rebuilt for the new
// size, and a full size load starts when the view outgrows the preview by
// more than the configured threshold. Non-positive sizes are ignored.
func (p *Pipeline) Resize(size image.Point) {
	if size == p.view {
		return
	}
	if size.X <= 0 || size.Y <= 0 {
		logging.Debug("Display: ignoring view size %v", size)
		return
	}
	p.view = size
	p.cache.SetViewSize(size)
	logging.Debug("Display: view resized to %v, cache capacity %d", size, p.cache.Capacity())

	if p.current < 0 {
		return
	}
	if p.raster == nil {
		// The outstanding preview was requested at the old size.
		p.cancelInteractive()
		p.requestCurrent()
	} else {
		if p.zoom.Near(p.bounds()) {
			p.zoom = p.bounds()
		} else if z, ok := geometry.ApplyZoom(p.zoom, geometry.SizeOf(size)); ok {
			p.zoom = z
		}
		loaded := p.raster.Bounds().Size()
		t := p.cfg.FullSizeThreshold
		if float64(size.X) > float64(loaded.X)*t || float64(size.Y) > float64(loaded.Y)*t {
			p.potentiallyLoadFullSize()
		}
		p.render()
	}
	p.fill()
}

// Rotate turns the current item clockwise by delta degrees, remembers the
// new angle and reloads the item. Other cached items are kept.
func (p *Pipeline) Rotate(delta int) bool {
	if p.current < 0 {
		return false
	}
	id := p.seq.At(p.current)
	p.angle = decoder.NormalizeAngle(p.angle + delta)
	if err := p.cfg.Rotations.SetRotation(id, p.angle); err != nil {
		logging.Warn("Display: failed to save rotation for %s: %v", id, err)
	}

	p.cancelInteractive()
	p.cache.Invalidate(p.current)
	p.raster = nil
	p.requestCurrent()
	return true
}

// RemoveItem drops id from the sequence. When it was current, the next item
// is shown, or the previous one at the end of the sequence.
func (p *Pipeline) RemoveItem(id sequence.ItemID) bool {
	idx := p.seq.Remove(id)
	if idx < 0 {
		return false
	}
	p.cache.RemoveIndex(idx)
	metrics.SequenceLength.Set(float64(p.seq.Count()))

	switch {
	case p.seq.Count() == 0:
		p.cancelInteractive()
		p.current = -1
		p.raster = nil
		p.setUnavailable(ErrEmptySequence)
	case idx == p.current:
		if idx < p.seq.Count() {
			p.goTo(idx, true)
		} else {
			p.goTo(idx-1, false)
		}
	case idx < p.current:
		p.current--
	}
	return true
}

// SetFilters applies f, named by names, to every frame from now on. A nil
// filter disables filtering.
func (p *Pipeline) SetFilters(f filters.Filter, names []string) {
	p.filter = f
	p.filterNames = names
	if p.raster != nil {
		p.render()
	}
}
