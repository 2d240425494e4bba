package geometry

import (
	"image"
	"math"
)

// Epsilon is the tolerance used when comparing derived coordinates.
const Epsilon = 1e-6

// Point is a position in either image or screen space.
type Point struct {
	X, Y float64
}

// Pt is shorthand for Point{X: x, Y: y}.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Add returns p+q.
func (p Point) Add(q Point) Point {
	return Point{p.X + q.X, p.Y + q.Y}
}

// Sub returns p-q.
func (p Point) Sub(q Point) Point {
	return Point{p.X - q.X, p.Y - q.Y}
}

// Mul scales both coordinates by k.
func (p Point) Mul(k float64) Point {
	return Point{p.X * k, p.Y * k}
}

// Near reports whether p and q agree within Epsilon on both axes.
func (p Point) Near(q Point) bool {
	return math.Abs(p.X-q.X) <= Epsilon && math.Abs(p.Y-q.Y) <= Epsilon
}

// Size is a width/height pair.
type Size struct {
	W, H float64
}

// Sz is shorthand for Size{W: w, H: h}.
func Sz(w, h float64) Size {
	return Size{W: w, H: h}
}

// SizeOf converts an integer image size.
func SizeOf(p image.Point) Size {
	return Size{W: float64(p.X), H: float64(p.Y)}
}

// Empty reports whether either dimension is non-positive.
func (s Size) Empty() bool {
	return s.W <= 0 || s.H <= 0
}

// Area returns W*H.
func (s Size) Area() float64 {
	return s.W * s.H
}

// Aspect returns W/H, or 0 for an empty size.
func (s Size) Aspect() float64 {
	if s.Empty() {
		return 0
	}
	return s.W / s.H
}

// ImagePoint rounds the size to integer pixels.
func (s Size) ImagePoint() image.Point {
	return image.Pt(int(math.Round(s.W)), int(math.Round(s.H)))
}

// Rect is an axis-aligned rectangle. Rectangles built by Normalize always
// satisfy Min.X <= Max.X and Min.Y <= Max.Y.
type Rect struct {
	Min, Max Point
}

// R builds a normalized rectangle from corner coordinates.
func R(x0, y0, x1, y1 float64) Rect {
	return Normalize(Pt(x0, y0), Pt(x1, y1))
}

// RectOf converts an integer rectangle.
func RectOf(r image.Rectangle) Rect {
	return Rect{
		Min: Pt(float64(r.Min.X), float64(r.Min.Y)),
		Max: Pt(float64(r.Max.X), float64(r.Max.Y)),
	}
}

// FromSize returns the rectangle (0,0)-(s.W,s.H).
func FromSize(s Size) Rect {
	return Rect{Max: Pt(s.W, s.H)}
}

// Dx returns the width.
func (r Rect) Dx() float64 {
	return r.Max.X - r.Min.X
}

// Dy returns the height.
func (r Rect) Dy() float64 {
	return r.Max.Y - r.Min.Y
}

// Size returns the rectangle's dimensions.
func (r Rect) Size() Size {
	return Size{W: r.Dx(), H: r.Dy()}
}

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool {
	return r.Dx() <= 0 || r.Dy() <= 0
}

// Center returns the midpoint.
func (r Rect) Center() Point {
	return Point{(r.Min.X + r.Max.X) / 2, (r.Min.Y + r.Max.Y) / 2}
}

// Translate moves the rectangle by d.
func (r Rect) Translate(d Point) Rect {
	return Rect{Min: r.Min.Add(d), Max: r.Max.Add(d)}
}

// Scale multiplies every coordinate by fx horizontally and fy vertically.
func (r Rect) Scale(fx, fy float64) Rect {
	return Rect{
		Min: Pt(r.Min.X*fx, r.Min.Y*fy),
		Max: Pt(r.Max.X*fx, r.Max.Y*fy),
	}
}

// Intersect returns the overlap of r and s, or the zero Rect.
func (r Rect) Intersect(s Rect) Rect {
	out := Rect{
		Min: Pt(math.Max(r.Min.X, s.Min.X), math.Max(r.Min.Y, s.Min.Y)),
		Max: Pt(math.Min(r.Max.X, s.Max.X), math.Min(r.Max.Y, s.Max.Y)),
	}
	if out.Empty() {
		return Rect{}
	}
	return out
}

// Contains reports whether p lies inside r (edges inclusive).
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Near reports whether both corners agree within Epsilon.
func (r Rect) Near(s Rect) bool {
	return r.Min.Near(s.Min) && r.Max.Near(s.Max)
}

// ImageRect rounds outward to the smallest integer rectangle covering r.
func (r Rect) ImageRect() image.Rectangle {
	return image.Rect(
		int(math.Floor(r.Min.X+Epsilon)), int(math.Floor(r.Min.Y+Epsilon)),
		int(math.Ceil(r.Max.X-Epsilon)), int(math.Ceil(r.Max.Y-Epsilon)),
	)
}
