// Package geom holds the small amount of 2D math the editor needs: points,
// axis-aligned rectangles, and orthogonal segment helpers.
package geom

import "math"

// Epsilon is the tolerance used when deciding whether two coordinates are
// on the same horizontal or vertical line.
const Epsilon = 1e-6

type Vec2 struct {
	X float64 `json:"x" cbor:"x" msgpack:"x" yaml:"x"`
	Y float64 `json:"y" cbor:"y" msgpack:"y" yaml:"y"`
}

func V(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{v.X + o.X, v.Y + o.Y}
}

func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{v.X - o.X, v.Y - o.Y}
}

func (v Vec2) Scale(s float64) Vec2 {
	return Vec2{v.X * s, v.Y * s}
}

func (v Vec2) Len() float64 {
	return math.Hypot(v.X, v.Y)
}

func (v Vec2) Dist(o Vec2) float64 {
	return v.Sub(o).Len()
}

// Near reports whether v and o coincide within Epsilon on both axes.
func (v Vec2) Near(o Vec2) bool {
	return math.Abs(v.X-o.X) <= Epsilon && math.Abs(v.Y-o.Y) <= Epsilon
}

// RotateQuarter rotates v about the origin by quarter turns. Positive turns
// are clockwise in a y-down coordinate system.
func (v Vec2) RotateQuarter(turns int) Vec2 {
	switch ((turns % 4) + 4) % 4 {
	case 1:
		return Vec2{-v.Y, v.X}
	case 2:
		return Vec2{-v.X, -v.Y}
	case 3:
		return Vec2{v.Y, -v.X}
	}
	return v
}

// MirrorX mirrors v across the vertical axis through the origin.
func (v Vec2) MirrorX() Vec2 {
	return Vec2{-v.X, v.Y}
}

// Axis is the direction an orthogonal segment runs along.
type Axis int

const (
	Horizontal Axis = iota
	Vertical
)

func (a Axis) String() string {
	if a == Vertical {
		return "vertical"
	}
	return "horizontal"
}

// Perpendicular returns the other axis.
func (a Axis) Perpendicular() Axis {
	if a == Vertical {
		return Horizontal
	}
	return Vertical
}

// SegmentAxis classifies the span a->b. Degenerate and diagonal spans fall
// back to the dominant direction, with ties going horizontal.
func SegmentAxis(a, b Vec2) Axis {
	dx := math.Abs(b.X - a.X)
	dy := math.Abs(b.Y - a.Y)
	if dx <= Epsilon && dy > Epsilon {
		return Vertical
	}
	if dy <= Epsilon {
		return Horizontal
	}
	if dy > dx {
		return Vertical
	}
	return Horizontal
}

// ClosestPointOnSegment returns the point on a->b nearest to p.
func ClosestPointOnSegment(a, b, p Vec2) Vec2 {
	d := b.Sub(a)
	l2 := d.X*d.X + d.Y*d.Y
	if l2 <= Epsilon*Epsilon {
		return a
	}
	t := ((p.X-a.X)*d.X + (p.Y-a.Y)*d.Y) / l2
	t = Clamp(t, 0, 1)
	return a.Add(d.Scale(t))
}

// DistToSegment is the euclidean distance from p to the span a->b.
func DistToSegment(a, b, p Vec2) float64 {
	return ClosestPointOnSegment(a, b, p).Dist(p)
}

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
