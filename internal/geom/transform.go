package geom

import "math"

// ToAbsolute maps a percentage rectangle onto a page of the given
// dimensions. The result's Y is the rectangle's bottom edge measured up
// from the page's bottom edge. Full precision is kept; round with Round2
// when serialising.
func ToAbsolute(r Rect, page Size) Rect {
	return Rect{
		X:      r.X / FullExtent * page.Width,
		Y:      page.Height - (r.Y+r.Height)/FullExtent*page.Height,
		Width:  r.Width / FullExtent * page.Width,
		Height: r.Height / FullExtent * page.Height,
	}
}

// FromAbsolute is the inverse of ToAbsolute.
func FromAbsolute(r Rect, page Size) Rect {
	if page.IsZero() {
		return Rect{}
	}
	height := r.Height / page.Height * FullExtent
	return Rect{
		X:      r.X / page.Width * FullExtent,
		Y:      (page.Height-r.Y)/page.Height*FullExtent - height,
		Width:  r.Width / page.Width * FullExtent,
		Height: height,
	}
}

// ToPercentage is the serialisation counterpart of ToAbsolute: fields are
// already stored in percentage space, so this only rounds.
func ToPercentage(r Rect) Rect {
	return r.Round2()
}

// Round2 rounds every component to two decimal places.
func (r Rect) Round2() Rect {
	return Rect{
		X:      Round2(r.X),
		Y:      Round2(r.Y),
		Width:  Round2(r.Width),
		Height: Round2(r.Height),
	}
}

// Round2 rounds v to two decimal places, halves away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
