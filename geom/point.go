package geom

import "fmt"

// Dim is the number of coordinates in a Point.
const Dim = 3

// Axis identifies one coordinate of a Point.
type Axis uint8

// Axes of a Point.
const (
	X Axis = iota
	Y
	Z
)

// String returns a string representation of the Axis.
func (a Axis) String() string {
	switch a {
	case X:
		return "x"
	case Y:
		return "y"
	case Z:
		return "z"
	default:
		return "unknown"
	}
}

// Point is the multi-key of a record.
type Point [Dim]float64

// Pt is shorthand for Point{x, y, z}.
func Pt(x, y, z float64) Point {
	return Point{x, y, z}
}

// String returns a string representation of the Point.
func (p Point) String() string {
	return fmt.Sprintf("(%g, %g, %g)", p[0], p[1], p[2])
}

// Less reports whether p orders before q on axis a.
func (p Point) Less(q Point, a Axis) bool {
	return p[a] < q[a]
}
