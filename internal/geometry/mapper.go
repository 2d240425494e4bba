package geometry

import "math"

// Offset fits logical into physical preserving aspect ratio. It returns the
// offset that centers the scaled logical size inside physical, and the
// uniform ratio min(pw/lw, ph/lh). An empty logical size yields ratio 0.
func Offset(logical, physical Size) (Point, float64) {
	if logical.Empty() || physical.Empty() {
		return Point{}, 0
	}
	ratio := math.Min(physical.W/logical.W, physical.H/logical.H)
	return Point{
		X: (physical.W - logical.W*ratio) / 2,
		Y: (physical.H - logical.H*ratio) / 2,
	}, ratio
}

// ImageToScreen maps an image-space point into widget coordinates given the
// visible zoom window.
func ImageToScreen(p Point, zoom Rect, widget Size) Point {
	off, ratio := Offset(zoom.Size(), widget)
	return p.Sub(zoom.Min).Mul(ratio).Add(off)
}

// ScreenToImage is the inverse of ImageToScreen. With a degenerate zoom
// window or widget it returns the window origin.
func ScreenToImage(p Point, zoom Rect, widget Size) Point {
	off, ratio := Offset(zoom.Size(), widget)
	if ratio == 0 {
		return zoom.Min
	}
	return p.Sub(off).Mul(1 / ratio).Add(zoom.Min)
}

// ScreenRectToImage maps both corners of a widget rectangle into image space.
func ScreenRectToImage(r Rect, zoom Rect, widget Size) Rect {
	return Normalize(ScreenToImage(r.Min, zoom, widget), ScreenToImage(r.Max, zoom, widget))
}

// ImageRectToScreen maps both corners of an image rectangle onto the widget.
func ImageRectToScreen(r Rect, zoom Rect, widget Size) Rect {
	return Normalize(ImageToScreen(r.Min, zoom, widget), ImageToScreen(r.Max, zoom, widget))
}

// Normalize orders two arbitrary corners into a rectangle whose Min is the
// top-left and Max the bottom-right.
func Normalize(p1, p2 Point) Rect {
	return Rect{
		Min: Pt(math.Min(p1.X, p2.X), math.Min(p1.Y, p2.Y)),
		Max: Pt(math.Max(p1.X, p2.X), math.Max(p1.Y, p2.Y)),
	}
}

// ApplyZoom pads requested symmetrically along one axis so that its aspect
// ratio equals the widget's. The result never shrinks the request. It
// returns false for a zero-area request or an empty widget.
func ApplyZoom(requested Rect, widget Size) (Rect, bool) {
	r := Normalize(requested.Min, requested.Max)
	if r.Empty() || widget.Empty() {
		return Rect{}, false
	}

	want := widget.Aspect()
	have := r.Dx() / r.Dy()
	switch {
	case have < want:
		d := (r.Dy()*want - r.Dx()) / 2
		r.Min.X -= d
		r.Max.X += d
	case have > want:
		d := (r.Dx()/want - r.Dy()) / 2
		r.Min.Y -= d
		r.Max.Y += d
	}
	return r, true
}

// ScaledArea returns the pixel area the whole raster would cover if it were
// scaled so that zoom fits the widget. Rendering backends allocate roughly
// this much when asked for such a zoom, so it is what the safety ceiling is
// checked against.
func ScaledArea(raster Size, zoom Rect, widget Size) float64 {
	_, ratio := Offset(zoom.Size(), widget)
	return raster.W * ratio * raster.H * ratio
}

// WithinCeiling reports whether zoom may be shown without exceeding
// maxPixels. A non-positive ceiling disables the check.
func WithinCeiling(raster Size, zoom Rect, widget Size, maxPixels float64) bool {
	if maxPixels <= 0 {
		return true
	}
	return ScaledArea(raster, zoom, widget) <= maxPixels
}

// ZoomAround shrinks (factor > 1) or grows (factor < 1) zoom about its
// center and pads the result to the widget aspect. When zooming out past
// the raster on both axes the full bounds are returned instead, so repeated
// zoom-out settles on the fit-to-window view.
func ZoomAround(zoom Rect, factor float64, widget Size, bounds Rect) (Rect, bool) {
	if factor <= 0 || zoom.Empty() {
		return Rect{}, false
	}
	c := zoom.Center()
	w := zoom.Dx() / factor / 2
	h := zoom.Dy() / factor / 2
	r, ok := ApplyZoom(R(c.X-w, c.Y-h, c.X+w, c.Y+h), widget)
	if !ok {
		return Rect{}, false
	}
	if factor < 1 && r.Dx() >= bounds.Dx() && r.Dy() >= bounds.Dy() {
		return bounds, true
	}
	return r, true
}

// NaturalWindow returns the zoom window, in raster coordinates, that shows
// the item at one full-resolution pixel per screen pixel, centered on the
// raster. raster is the loaded (possibly preview-sized) raster and full the
// item's true size. The window may extend past the raster when the image is
// smaller than the widget.
func NaturalWindow(raster, full, widget Size) Rect {
	if raster.Empty() || full.Empty() || widget.Empty() {
		return FromSize(raster)
	}
	w := widget.W * raster.W / full.W
	h := widget.H * raster.H / full.H
	c := FromSize(raster).Center()
	return R(c.X-w/2, c.Y-h/2, c.X+w/2, c.Y+h/2)
}

// Fits reports whether inner fits in outer on both axes.
func Fits(inner, outer Size) bool {
	return inner.W <= outer.W && inner.H <= outer.H
}
