package subject

import (
	"strconv"
	"time"

	"wiredraw/internal/geom"
	"wiredraw/internal/scene"
)

// Segment is one straight span of a route. It is always selectable; only
// spans with a bend vertex at both ends can be dragged.
type Segment struct {
	route    *Route
	index    int
	obj      *scene.Object
	selected bool
	dragging bool
}

func newSegment(r *Route, i int) *Segment {
	s := &Segment{route: r, index: i}
	s.obj = scene.NewObject(scene.LayerRoute, scene.Line{Ends: s.Ends}, nil)
	return s
}

func (s *Segment) UID() string           { return s.route.UID() + "#" + strconv.Itoa(s.index) }
func (s *Segment) Kind() Kind            { return KindSegment }
func (s *Segment) Route() *Route         { return s.route }
func (s *Segment) Index() int            { return s.index }
func (s *Segment) Object() *scene.Object { return s.obj }

func (s *Segment) Capabilities() Capability {
	if s.route.segmentMovable(s.index) {
		return Draggable | Selectable
	}
	return Selectable
}

// Ends returns the live end points of the span.
func (s *Segment) Ends() (geom.Vec2, geom.Vec2) {
	pts := s.route.points
	if s.index+1 >= len(pts) {
		return geom.Vec2{}, geom.Vec2{}
	}
	return pts[s.index], pts[s.index+1]
}

func (s *Segment) Axis() geom.Axis {
	a, b := s.Ends()
	return geom.SegmentAxis(a, b)
}

func (s *Segment) Objects() []*scene.Object  { return []*scene.Object{s.obj} }
func (s *Segment) Owns(o *scene.Object) bool { return o == s.obj }

func (s *Segment) Bounds() geom.Rect {
	a, b := s.Ends()
	return geom.R(a, b)
}

func (s *Segment) Selected() bool      { return s.selected }
func (s *Segment) SetSelected(on bool) { s.selected = on }

// BeginDrag fixes the drag axis to the span's current orientation.
func (s *Segment) BeginDrag() {
	if !s.route.segmentMovable(s.index) {
		return
	}
	s.dragging = true
	s.route.beginSegmentDrag(s.index)
}

// DragOffset moves the span perpendicular to its axis; the parallel
// component of total is ignored.
func (s *Segment) DragOffset(total geom.Vec2) {
	if !s.dragging {
		return
	}
	s.route.setSegmentOffset(s.index, total)
}

func (s *Segment) CancelDrag() {
	if !s.dragging {
		return
	}
	s.dragging = false
	s.route.cancelSegmentDrag()
}

func (s *Segment) Dragging() bool { return s.dragging }

// CommitDrag writes the dragged span into the owning route.
func (s *Segment) CommitDrag() bool {
	if !s.dragging {
		return false
	}
	s.dragging = false
	return s.route.CommitSegmentDrag()
}

func (s *Segment) Update(time.Duration) {}

func (s *Segment) Paint(p scene.Painter) {
	a, b := s.Ends()
	st := tone(s.selected || s.route.selected)
	if s.dragging {
		st.Tone = scene.TonePreview
	}
	p.Line(a, b, st)
}
