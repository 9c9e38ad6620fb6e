package geom

import (
	"fmt"
	"math"
)

// BBox is an axis-aligned box spanned by its Lower and Upper corners.
type BBox struct {
	Lower Point
	Upper Point
}

// NewBBox creates a box from its lower and upper corners.
func NewBBox(lower, upper Point) BBox {
	return BBox{Lower: lower, Upper: upper}
}

// Cube creates the box [lo, hi] on every axis.
func Cube(lo, hi float64) BBox {
	return BBox{Lower: Pt(lo, lo, lo), Upper: Pt(hi, hi, hi)}
}

// Empty returns a box that contains nothing and acts as the identity for Extend.
func Empty() BBox {
	inf := math.Inf(1)
	return BBox{Lower: Pt(inf, inf, inf), Upper: Pt(-inf, -inf, -inf)}
}

// BoundingBox returns the smallest closed box containing every point.
// It returns Empty() when points is empty.
func BoundingBox(points ...Point) BBox {
	b := Empty()
	for _, p := range points {
		b = b.Extend(p)
	}
	return b
}

// String returns a string representation of the BBox.
func (b BBox) String() string {
	return fmt.Sprintf("[%v, %v]", b.Lower, b.Upper)
}

// Extend returns the smallest box containing b and p.
func (b BBox) Extend(p Point) BBox {
	for d := range Dim {
		b.Lower[d] = math.Min(b.Lower[d], p[d])
		b.Upper[d] = math.Max(b.Upper[d], p[d])
	}
	return b
}

// IsEmpty reports whether the box has lower > upper on some axis.
func (b BBox) IsEmpty() bool {
	for d := range Dim {
		if b.Lower[d] > b.Upper[d] {
			return true
		}
	}
	return false
}

// Valid reports whether the box is finite and has positive extent on every
// axis, as required of an index domain.
func (b BBox) Valid() bool {
	for d := range Dim {
		lo, hi := b.Lower[d], b.Upper[d]
		if math.IsNaN(lo) || math.IsNaN(hi) || math.IsInf(lo, 0) || math.IsInf(hi, 0) {
			return false
		}
		if !(lo < hi) {
			return false
		}
	}
	return true
}

// Extents returns the edge lengths of the box.
func (b BBox) Extents() Point {
	var e Point
	for d := range Dim {
		e[d] = b.Upper[d] - b.Lower[d]
	}
	return e
}

// Content returns the volume of the box, or 0 if it is empty.
func (b BBox) Content() float64 {
	if b.IsEmpty() {
		return 0
	}
	e := b.Extents()
	return e[0] * e[1] * e[2]
}

// Midpoint returns the center of the box.
func (b BBox) Midpoint() Point {
	var m Point
	for d := range Dim {
		m[d] = b.Lower[d] + 0.5*(b.Upper[d]-b.Lower[d])
	}
	return m
}

// Contains reports whether p lies in the closed box.
func (b BBox) Contains(p Point) bool {
	return p[0] >= b.Lower[0] && p[0] <= b.Upper[0] &&
		p[1] >= b.Lower[1] && p[1] <= b.Upper[1] &&
		p[2] >= b.Lower[2] && p[2] <= b.Upper[2]
}

// ContainsHalfOpen reports whether p lies in the box closed at the lower and
// open at the upper bound.
func (b BBox) ContainsHalfOpen(p Point) bool {
	return p[0] >= b.Lower[0] && p[0] < b.Upper[0] &&
		p[1] >= b.Lower[1] && p[1] < b.Upper[1] &&
		p[2] >= b.Lower[2] && p[2] < b.Upper[2]
}

// Overlaps reports whether two closed boxes share at least one point.
func (b BBox) Overlaps(o BBox) bool {
	for d := range Dim {
		if b.Upper[d] < o.Lower[d] || o.Upper[d] < b.Lower[d] {
			return false
		}
	}
	return true
}

// OverlapsHalfOpen reports whether the closed window b shares a point with
// the half-open partition box o.
func (b BBox) OverlapsHalfOpen(o BBox) bool {
	for d := range Dim {
		if b.Lower[d] >= o.Upper[d] || b.Upper[d] < o.Lower[d] {
			return false
		}
	}
	return true
}

// Inside reports whether b is contained in the closed box o.
func (b BBox) Inside(o BBox) bool {
	for d := range Dim {
		if b.Lower[d] < o.Lower[d] || b.Upper[d] > o.Upper[d] {
			return false
		}
	}
	return true
}

// Intersect returns the intersection of two boxes. The result may be empty.
func (b BBox) Intersect(o BBox) BBox {
	var r BBox
	for d := range Dim {
		r.Lower[d] = math.Max(b.Lower[d], o.Lower[d])
		r.Upper[d] = math.Min(b.Upper[d], o.Upper[d])
	}
	return r
}

// Octant returns the 3-bit code of the octant of p relative to mid. Bit d is
// set iff p[d] >= mid[d].
func Octant(p, mid Point) uint8 {
	var code uint8
	for d := range Dim {
		if p[d] >= mid[d] {
			code |= 1 << d
		}
	}
	return code
}

// OctantBox returns the sub-box of b selected by code when b is bisected at mid.
func (b BBox) OctantBox(code uint8, mid Point) BBox {
	r := b
	for d := range Dim {
		if code&(1<<d) != 0 {
			r.Lower[d] = mid[d]
		} else {
			r.Upper[d] = mid[d]
		}
	}
	return r
}

// Bisectable reports whether splitting b at its midpoint yields eight
// non-degenerate half-open octants in float64 arithmetic.
func (b BBox) Bisectable() bool {
	m := b.Midpoint()
	for d := range Dim {
		if !(b.Lower[d] < m[d] && m[d] < b.Upper[d]) {
			return false
		}
	}
	return true
}
