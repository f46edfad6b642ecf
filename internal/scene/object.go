package scene

import "wiredraw/internal/geom"

// Draw order. Higher layers are drawn later and win hit tests.
const (
	LayerGrid     = 0
	LayerRoute    = 10
	LayerElement  = 20
	LayerTerminal = 30
)

// Shape is hit-testable geometry in an object's local space.
type Shape interface {
	Bounds() geom.Rect
	Hit(p geom.Vec2, tol float64) bool
}

// Transform maps an object's local space into world space.
type Transform interface {
	Apply(local geom.Vec2) geom.Vec2
	Invert(world geom.Vec2) geom.Vec2
}

type Box struct {
	Rect geom.Rect
}

func (b Box) Bounds() geom.Rect {
	return b.Rect
}

func (b Box) Hit(p geom.Vec2, tol float64) bool {
	return b.Rect.Expand(tol).ContainsPoint(p)
}

type Disc struct {
	Center geom.Vec2
	Radius float64
}

func (d Disc) Bounds() geom.Rect {
	return geom.RectAround(d.Center, d.Radius*2, d.Radius*2)
}

func (d Disc) Hit(p geom.Vec2, tol float64) bool {
	return p.Dist(d.Center) <= d.Radius+tol
}

// Line is a straight span. Its shape is read through a func so owners can
// move the span without re-registering the object.
type Line struct {
	Ends func() (geom.Vec2, geom.Vec2)
}

func (l Line) Bounds() geom.Rect {
	a, b := l.Ends()
	return geom.R(a, b)
}

func (l Line) Hit(p geom.Vec2, tol float64) bool {
	a, b := l.Ends()
	return geom.DistToSegment(a, b, p) <= tol
}

// Object is one render/hit-test primitive registered with the engine.
// Subjects own their objects; the engine only orders and picks them.
type Object struct {
	id        uint64
	Layer     int
	Shape     Shape
	Transform Transform
	Hidden    bool
	// Tag is free-form owner data, e.g. the terminal uid of a click target.
	Tag string
}

func NewObject(layer int, shape Shape, xf Transform) *Object {
	return &Object{Layer: layer, Shape: shape, Transform: xf}
}

// ID is assigned when the object is added to an engine; zero before that.
func (o *Object) ID() uint64 {
	return o.id
}

func (o *Object) toLocal(world geom.Vec2) geom.Vec2 {
	if o.Transform == nil {
		return world
	}
	return o.Transform.Invert(world)
}

func (o *Object) toWorld(local geom.Vec2) geom.Vec2 {
	if o.Transform == nil {
		return local
	}
	return o.Transform.Apply(local)
}

// WorldBounds transforms the local bounds' corners into world space.
func (o *Object) WorldBounds() geom.Rect {
	local := o.Shape.Bounds()
	if local.Empty() {
		return local
	}
	r := geom.EmptyRect()
	for _, c := range local.Corners() {
		r = r.Extend(o.toWorld(c))
	}
	return r
}

// Center is the world position of the local bounds' center.
func (o *Object) Center() geom.Vec2 {
	return o.toWorld(o.Shape.Bounds().Center())
}

// Hit tests a world-space point. Transforms are rigid so tolerances carry over.
func (o *Object) Hit(world geom.Vec2, tol float64) bool {
	if o.Hidden {
		return false
	}
	return o.Shape.Hit(o.toLocal(world), tol)
}
