package subject

import (
	"slices"
	"time"

	"github.com/golang/glog"

	"wiredraw/internal/doc"
	"wiredraw/internal/geom"
	"wiredraw/internal/scene"
)

// Resolver gives routes live access to terminal positions and to the wire
// axis at branch points.
type Resolver interface {
	TerminalWorld(ep doc.Endpoint) (geom.Vec2, bool)
	BranchAxis(elementUID, excludeRouteUID string) (geom.Axis, bool)
	IsBranch(elementUID string) bool
}

type segmentDrag struct {
	active bool
	index  int
	axis   geom.Axis
	offset float64
}

// Route is the live subject of a connection. It owns one Segment per span
// between consecutive points, so N vertices always give N+1 segments.
type Route struct {
	data   *doc.Route
	res    Resolver
	engine *scene.Engine

	start, end             geom.Vec2
	anchorStart, anchorEnd geom.Vec2
	anchored               bool
	resolved               bool

	vertices []geom.Vec2
	points   []geom.Vec2
	segments []*Segment
	drag     segmentDrag

	selected bool
	revision int
}

// NewRoute builds the subject and resolves its geometry. engine may be nil,
// in which case segment objects are not registered anywhere.
func NewRoute(data *doc.Route, res Resolver, engine *scene.Engine) *Route {
	r := &Route{data: data, res: res, engine: engine}
	r.Refresh()
	return r
}

func (r *Route) UID() string              { return r.data.UID }
func (r *Route) Kind() Kind               { return KindRoute }
func (r *Route) Capabilities() Capability { return 0 }
func (r *Route) Data() *doc.Route         { return r.data }
func (r *Route) Resolved() bool           { return r.resolved }
func (r *Route) Revision() int            { return r.revision }
func (r *Route) Selected() bool           { return r.selected }
func (r *Route) SetSelected(on bool)      { r.selected = on }

// Segments returns the live segments in path order.
func (r *Route) Segments() []*Segment {
	return slices.Clone(r.segments)
}

// Points is start terminal, live bend vertices, end terminal.
func (r *Route) Points() []geom.Vec2 {
	return slices.Clone(r.points)
}

// Vertices are the live bend points, including any segment drag preview.
func (r *Route) Vertices() []geom.Vec2 {
	return slices.Clone(r.vertices)
}

func (r *Route) Objects() []*scene.Object {
	objs := make([]*scene.Object, 0, len(r.segments))
	for _, s := range r.segments {
		objs = append(objs, s.obj)
	}
	return objs
}

func (r *Route) Owns(o *scene.Object) bool {
	return r.SegmentFor(o) != nil
}

// SegmentFor maps a hit object back to its segment.
func (r *Route) SegmentFor(o *scene.Object) *Segment {
	for _, s := range r.segments {
		if s.obj == o {
			return s
		}
	}
	return nil
}

// Contains reports whether seg is currently one of this route's segments.
func (r *Route) Contains(seg *Segment) bool {
	return seg != nil && seg.route == r && seg.index < len(r.segments) && r.segments[seg.index] == seg
}

func (r *Route) Bounds() geom.Rect {
	return geom.BoundsOf(r.points...)
}

func (r *Route) snap() BranchSnap {
	for _, ep := range []doc.Endpoint{r.data.End, r.data.Start} {
		if !r.res.IsBranch(ep.ElementUID) {
			continue
		}
		if axis, ok := r.res.BranchAxis(ep.ElementUID, r.data.UID); ok {
			return BranchSnap{Active: true, Axis: axis}
		}
	}
	return BranchSnap{}
}

// Refresh re-derives the live path from the current terminal positions.
func (r *Route) Refresh() {
	s, okS := r.res.TerminalWorld(r.data.Start)
	e, okE := r.res.TerminalWorld(r.data.End)
	if !okS || !okE {
		if r.resolved {
			glog.Warningf("route %s: endpoint no longer resolves", r.data.UID)
		}
		r.resolved = false
		return
	}
	r.resolved = true
	r.start, r.end = s, e
	if !r.anchored {
		r.anchorStart, r.anchorEnd = s, e
		r.anchored = true
	}

	if r.data.AutoRoute {
		r.vertices = AutoVertices(s, e, r.snap())
	} else {
		r.vertices = slices.Clone(r.data.Vertices)
		if n := len(r.vertices); n > 0 {
			committed := r.data.Vertices
			r.vertices[0] = trackEndpoint(geom.SegmentAxis(r.anchorStart, committed[0]), r.vertices[0], s)
			r.vertices[n-1] = trackEndpoint(geom.SegmentAxis(committed[n-1], r.anchorEnd), r.vertices[n-1], e)
		}
	}

	if r.drag.active && r.drag.index >= 1 && r.drag.index < len(r.vertices) {
		a, b := r.drag.index-1, r.drag.index
		if r.drag.axis == geom.Horizontal {
			r.vertices[a].Y += r.drag.offset
			r.vertices[b].Y += r.drag.offset
		} else {
			r.vertices[a].X += r.drag.offset
			r.vertices[b].X += r.drag.offset
		}
	}

	r.points = make([]geom.Vec2, 0, len(r.vertices)+2)
	r.points = append(r.points, s)
	r.points = append(r.points, r.vertices...)
	r.points = append(r.points, e)
	r.syncSegments()
}

func (r *Route) syncSegments() {
	want := len(r.points) - 1
	if want == len(r.segments) {
		return
	}
	if want < len(r.segments) {
		dropped := r.segments[want:]
		r.segments = r.segments[:want]
		if r.engine != nil {
			for _, s := range dropped {
				r.engine.Remove(s.obj)
			}
		}
		return
	}
	for i := len(r.segments); i < want; i++ {
		s := newSegment(r, i)
		r.segments = append(r.segments, s)
		if r.engine != nil {
			r.engine.Add(s.obj)
		}
	}
}

// Resync swaps in new route data and re-derives the path.
func (r *Route) Resync(data *doc.Route) {
	r.data = data
	r.drag = segmentDrag{}
	r.anchored = false
	r.revision++
	r.Refresh()
}

// CommitVertices writes the live bend points into the route data and
// re-anchors endpoint tracking. It reports whether the data changed.
func (r *Route) CommitVertices() bool {
	if !r.resolved {
		return false
	}
	changed := !slices.Equal(r.data.Vertices, r.vertices)
	if changed {
		r.data.Vertices = slices.Clone(r.vertices)
	}
	r.anchorStart, r.anchorEnd = r.start, r.end
	return changed
}

// segmentMovable reports whether segment i has a bend vertex at both ends.
// Spans touching a terminal stay anchored to it.
func (r *Route) segmentMovable(i int) bool {
	return i >= 1 && i < len(r.points)-2
}

func (r *Route) beginSegmentDrag(i int) {
	if !r.segmentMovable(i) {
		return
	}
	r.drag = segmentDrag{active: true, index: i, axis: geom.SegmentAxis(r.points[i], r.points[i+1])}
}

func (r *Route) setSegmentOffset(i int, total geom.Vec2) {
	if !r.drag.active || r.drag.index != i {
		return
	}
	if r.drag.axis == geom.Horizontal {
		r.drag.offset = total.Y
	} else {
		r.drag.offset = total.X
	}
	r.Refresh()
}

func (r *Route) cancelSegmentDrag() {
	if !r.drag.active {
		return
	}
	r.drag = segmentDrag{}
	r.Refresh()
}

// CommitSegmentDrag freezes a dragged segment into the route. A dragged
// auto route becomes a manual one so the edit survives later moves.
func (r *Route) CommitSegmentDrag() bool {
	if !r.drag.active {
		return false
	}
	moved := r.drag.offset != 0
	if moved {
		r.data.AutoRoute = false
		r.data.Vertices = slices.Clone(r.vertices)
		r.anchorStart, r.anchorEnd = r.start, r.end
	}
	r.drag = segmentDrag{}
	r.Refresh()
	return moved
}

// Update keeps the path attached to terminals that moved this frame.
func (r *Route) Update(time.Duration) {
	r.Refresh()
}

func (r *Route) Paint(p scene.Painter) {
	for _, s := range r.segments {
		s.Paint(p)
	}
}

// Detach removes every segment object from the engine.
func (r *Route) Detach() {
	if r.engine == nil {
		return
	}
	for _, s := range r.segments {
		r.engine.Remove(s.obj)
	}
}
