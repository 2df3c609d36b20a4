// Package geom holds the rectangle math shared by the field editor: the
// percentage space fields live in, the absolute page-unit space they are
// exported to, and the pixel space pointer events arrive in.
//
// Percentage space has its origin at the page's top-left corner with Y
// growing downward; every coordinate is in [0, 100]. Absolute space has its
// origin at the bottom-left corner with Y growing upward, in page units.
package geom

import "math"

// FullExtent is the size of the page in percentage space.
const FullExtent = 100.0

// Point is a position in whichever space the caller is working in.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a width/height pair: page dimensions in page units, or a
// viewport in pixels.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IsZero reports whether either side is non-positive.
func (s Size) IsZero() bool {
	return s.Width <= 0 || s.Height <= 0
}

// Scale returns s with both sides multiplied by k.
func (s Size) Scale(k float64) Size {
	return Size{Width: s.Width * k, Height: s.Height * k}
}

// Rect is an axis-aligned rectangle anchored at its X/Y corner.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the X coordinate of the far edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the Y coordinate of the far edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Contains reports whether other lies entirely inside r. Shared edges count
// as inside; any overlap past an edge does not.
func (r Rect) Contains(other Rect) bool {
	return other.X >= r.X &&
		other.Y >= r.Y &&
		other.Right() <= r.Right() &&
		other.Bottom() <= r.Bottom()
}

// ContainsPoint reports whether p lies inside r, edges included.
func (r Rect) ContainsPoint(p Point) bool {
	return p.X >= r.X && p.X <= r.Right() && p.Y >= r.Y && p.Y <= r.Bottom()
}

// AtLeast reports whether both sides of r reach min.
func (r Rect) AtLeast(min float64) bool {
	return r.Width >= min && r.Height >= min
}

// RectFromPoints returns the rectangle spanned by two corners given in any order.
func RectFromPoints(a, b Point) Rect {
	return Rect{
		X:      math.Min(a.X, b.X),
		Y:      math.Min(a.Y, b.Y),
		Width:  math.Abs(b.X - a.X),
		Height: math.Abs(b.Y - a.Y),
	}
}

// ClampPosition keeps the rectangle's extent on the page by limiting X to
// [0, 100-width] and Y to [0, 100-height]. Width and height are unchanged.
func ClampPosition(r Rect) Rect {
	r.X = clamp(r.X, 0, FullExtent-r.Width)
	r.Y = clamp(r.Y, 0, FullExtent-r.Height)
	return r
}

// ClampPoint limits both coordinates of p to [0, 100].
func ClampPoint(p Point) Point {
	return Point{X: clamp(p.X, 0, FullExtent), Y: clamp(p.Y, 0, FullExtent)}
}

// PixelToPercent maps a pixel position inside a viewport to percentage space.
func PixelToPercent(p Point, viewport Size) Point {
	if viewport.IsZero() {
		return Point{}
	}
	return Point{
		X: p.X / viewport.Width * FullExtent,
		Y: p.Y / viewport.Height * FullExtent,
	}
}

// PercentToPixel maps a percentage-space rectangle into a viewport.
func PercentToPixel(r Rect, viewport Size) Rect {
	return Rect{
		X:      r.X / FullExtent * viewport.Width,
		Y:      r.Y / FullExtent * viewport.Height,
		Width:  r.Width / FullExtent * viewport.Width,
		Height: r.Height / FullExtent * viewport.Height,
	}
}

func clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	return math.Max(lo, math.Min(v, hi))
}
