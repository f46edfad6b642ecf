package geom

import "math"

// Rect is an axis-aligned rectangle. The zero Rect is empty.
type Rect struct {
	Min, Max Vec2
	valid    bool
}

// EmptyRect returns a rectangle that contains nothing and acts as the
// identity for Union.
func EmptyRect() Rect {
	return Rect{}
}

// R builds a rectangle from two opposite corners in any order.
func R(a, b Vec2) Rect {
	return Rect{
		Min:   Vec2{math.Min(a.X, b.X), math.Min(a.Y, b.Y)},
		Max:   Vec2{math.Max(a.X, b.X), math.Max(a.Y, b.Y)},
		valid: true,
	}
}

// RectAround builds a rectangle of the given size centered on c.
func RectAround(c Vec2, w, h float64) Rect {
	return R(Vec2{c.X - w/2, c.Y - h/2}, Vec2{c.X + w/2, c.Y + h/2})
}

// BoundsOf returns the smallest rectangle holding every point.
func BoundsOf(points ...Vec2) Rect {
	r := EmptyRect()
	for _, p := range points {
		r = r.Extend(p)
	}
	return r
}

func (r Rect) Empty() bool {
	return !r.valid
}

func (r Rect) Width() float64 {
	if !r.valid {
		return 0
	}
	return r.Max.X - r.Min.X
}

func (r Rect) Height() float64 {
	if !r.valid {
		return 0
	}
	return r.Max.Y - r.Min.Y
}

func (r Rect) Center() Vec2 {
	return Vec2{(r.Min.X + r.Max.X) / 2, (r.Min.Y + r.Max.Y) / 2}
}

func (r Rect) Extend(p Vec2) Rect {
	if !r.valid {
		return Rect{Min: p, Max: p, valid: true}
	}
	return Rect{
		Min:   Vec2{math.Min(r.Min.X, p.X), math.Min(r.Min.Y, p.Y)},
		Max:   Vec2{math.Max(r.Max.X, p.X), math.Max(r.Max.Y, p.Y)},
		valid: true,
	}
}

func (r Rect) Union(o Rect) Rect {
	if !o.valid {
		return r
	}
	if !r.valid {
		return o
	}
	return r.Extend(o.Min).Extend(o.Max)
}

// Expand grows the rectangle by d on every side.
func (r Rect) Expand(d float64) Rect {
	if !r.valid {
		return r
	}
	return Rect{
		Min:   Vec2{r.Min.X - d, r.Min.Y - d},
		Max:   Vec2{r.Max.X + d, r.Max.Y + d},
		valid: true,
	}
}

func (r Rect) Translate(d Vec2) Rect {
	if !r.valid {
		return r
	}
	return Rect{Min: r.Min.Add(d), Max: r.Max.Add(d), valid: true}
}

func (r Rect) ContainsPoint(p Vec2) bool {
	return r.valid && p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// ContainsRect reports whether o lies entirely inside r.
func (r Rect) ContainsRect(o Rect) bool {
	return r.valid && o.valid && r.ContainsPoint(o.Min) && r.ContainsPoint(o.Max)
}

// Intersects reports whether the rectangles overlap. Touching edges count.
func (r Rect) Intersects(o Rect) bool {
	if !r.valid || !o.valid {
		return false
	}
	return r.Min.X <= o.Max.X && o.Min.X <= r.Max.X && r.Min.Y <= o.Max.Y && o.Min.Y <= r.Max.Y
}

// Corners returns the four corners clockwise from Min.
func (r Rect) Corners() [4]Vec2 {
	return [4]Vec2{r.Min, {r.Max.X, r.Min.Y}, r.Max, {r.Min.X, r.Max.Y}}
}
