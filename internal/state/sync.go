// Package state keeps the document graph and the live subject set in
// lockstep. It is the only owner of the subject registry and the selection;
// controls read and mutate both through its methods.
package state

import (
	"errors"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/golang/glog"

	"wiredraw/internal/doc"
	"wiredraw/internal/geom"
	"wiredraw/internal/scene"
	"wiredraw/internal/subject"
)

var (
	ErrUnresolved   = errors.New("state: reference does not resolve")
	ErrSameTerminal = errors.New("state: route must join two different terminals")
)

type Synchronizer struct {
	engine *scene.Engine
	grid   *subject.Grid

	doc    *doc.Document
	loaded bool

	subjects map[string]subject.Subject
	order    []string

	selection []subject.Subject

	onDocumentChanged  func(*doc.Document)
	onSelectionChanged func([]string)
}

// New creates an empty synchronizer and registers it with the engine's
// frame tick. gridExtent sizes the backdrop grid in world units.
func New(engine *scene.Engine, gridExtent float64) *Synchronizer {
	s := &Synchronizer{
		engine:   engine,
		grid:     subject.NewGrid(engine, gridExtent),
		subjects: make(map[string]subject.Subject),
	}
	engine.AddUpdater(s)
	return s
}

// OnDocumentChanged registers the callback fired after every local edit
// with a snapshot of the edited document.
func (s *Synchronizer) OnDocumentChanged(fn func(*doc.Document)) {
	s.onDocumentChanged = fn
}

// OnSelectionChanged registers the callback fired with the selected uids.
func (s *Synchronizer) OnSelectionChanged(fn func([]string)) {
	s.onSelectionChanged = fn
}

func (s *Synchronizer) Engine() *scene.Engine { return s.engine }
func (s *Synchronizer) Grid() *subject.Grid   { return s.grid }
func (s *Synchronizer) Loaded() bool          { return s.loaded }

// Document is the live document of record. Callers must not mutate it.
func (s *Synchronizer) Document() *doc.Document {
	return s.doc
}

// Snapshot returns a deep copy of the current document.
func (s *Synchronizer) Snapshot() *doc.Document {
	return s.doc.Clone()
}

// LoadDocument tears down every subject and mounts d. Elements are mounted
// before routes so route endpoints resolve.
func (s *Synchronizer) LoadDocument(d *doc.Document) {
	if d == nil {
		panic("state: LoadDocument called without a document")
	}
	s.teardown()
	s.doc = d.Clone()
	for _, uid := range s.doc.ElementUIDs() {
		s.mountElement(s.doc.Elements[uid])
	}
	for _, uid := range s.doc.RouteUIDs() {
		s.mountRoute(s.doc.Routes[uid])
	}
	s.refreshRoutes()
	s.loaded = true
	glog.V(1).Infof("state: loaded document %s (%d elements, %d routes)", s.doc.UID, len(s.doc.Elements), len(s.doc.Routes))
}

// Unload tears everything down. A later UpdateDocument is a usage error
// until the next LoadDocument.
func (s *Synchronizer) Unload() {
	s.teardown()
	s.doc = nil
	s.loaded = false
}

func (s *Synchronizer) teardown() {
	for _, uid := range slices.Clone(s.order) {
		s.unmount(uid)
	}
	if len(s.selection) > 0 {
		s.selection = nil
		s.selectionChanged(false)
	}
}

// UpdateDocument reconciles the live subjects against updated. Subjects
// whose data is unchanged are left alone.
func (s *Synchronizer) UpdateDocument(updated *doc.Document) {
	if !s.loaded {
		panic("state: UpdateDocument called before LoadDocument")
	}
	if updated == nil {
		panic("state: UpdateDocument called without a document")
	}
	next := updated.Clone()

	var created, resynced, removed int
	for _, uid := range s.doc.RouteUIDs() {
		if _, ok := next.Routes[uid]; !ok {
			s.unmount(uid)
			removed++
		}
	}
	for _, uid := range s.doc.ElementUIDs() {
		if _, ok := next.Elements[uid]; !ok {
			s.unmount(uid)
			removed++
		}
	}

	for _, uid := range next.ElementUIDs() {
		nd := next.Elements[uid]
		cur, ok := s.subjects[uid].(*subject.Element)
		switch {
		case !ok:
			s.mountElement(nd)
			created++
		case cur.Data().Equal(nd):
			next.Elements[uid] = cur.Data()
		default:
			old := cur.Resync(nd)
			if old != nil {
				s.engine.Remove(old...)
				s.engine.Add(cur.Objects()...)
			}
			resynced++
		}
	}
	for _, uid := range next.RouteUIDs() {
		nd := next.Routes[uid]
		cur, ok := s.subjects[uid].(*subject.Route)
		switch {
		case !ok:
			s.mountRoute(nd)
			created++
		case cur.Data().Equal(nd):
			next.Routes[uid] = cur.Data()
		default:
			cur.Resync(nd)
			resynced++
		}
	}

	s.doc = next
	s.refreshRoutes()
	s.pruneSelection()
	glog.V(2).Infof("state: reconciled %s: %d created, %d resynced, %d removed", next.UID, created, resynced, removed)
}

func (s *Synchronizer) register(sub subject.Subject) {
	uid := sub.UID()
	if _, ok := s.subjects[uid]; !ok {
		s.order = append(s.order, uid)
	}
	s.subjects[uid] = sub
}

func (s *Synchronizer) mountElement(d *doc.Element) *subject.Element {
	e := subject.NewElement(d)
	s.engine.Add(e.Objects()...)
	s.register(e)
	return e
}

func (s *Synchronizer) mountRoute(d *doc.Route) *subject.Route {
	r := subject.NewRoute(d, s, s.engine)
	if !r.Resolved() {
		glog.Warningf("state: route %s mounted with unresolved endpoint", d.UID)
	}
	s.register(r)
	return r
}

func (s *Synchronizer) unmount(uid string) {
	sub, ok := s.subjects[uid]
	if !ok {
		return
	}
	switch v := sub.(type) {
	case *subject.Route:
		v.Detach()
	default:
		s.engine.Remove(sub.Objects()...)
	}
	delete(s.subjects, uid)
	s.order = slices.DeleteFunc(s.order, func(x string) bool { return x == uid })
}

// refreshRoutes re-derives manual routes before auto routes, since an auto
// route meeting a branch point reads its neighbours' geometry.
func (s *Synchronizer) refreshRoutes() {
	for _, auto := range []bool{false, true} {
		for _, uid := range s.order {
			if r, ok := s.subjects[uid].(*subject.Route); ok && r.Data().AutoRoute == auto {
				r.Refresh()
			}
		}
	}
}

// Update ticks every subject. Elements go first so routes see their live
// terminal positions.
func (s *Synchronizer) Update(elapsed time.Duration) {
	s.grid.Update(elapsed)
	for _, uid := range s.order {
		if e, ok := s.subjects[uid].(*subject.Element); ok {
			e.Update(elapsed)
		}
	}
	s.refreshRoutes()
}

// Paint draws the grid, then the content.
func (s *Synchronizer) Paint(p scene.Painter) {
	s.grid.Paint(p)
	s.PaintContent(p)
}

// PaintContent draws routes, then elements.
func (s *Synchronizer) PaintContent(p scene.Painter) {
	for _, kind := range []subject.Kind{subject.KindRoute, subject.KindElement} {
		for _, uid := range s.order {
			if sub := s.subjects[uid]; sub.Kind() == kind {
				sub.Paint(p)
			}
		}
	}
}

// Subjects returns element and route subjects in registration order.
func (s *Synchronizer) Subjects() []subject.Subject {
	out := make([]subject.Subject, 0, len(s.order))
	for _, uid := range s.order {
		out = append(out, s.subjects[uid])
	}
	return out
}

// Selectables lists everything a click or box can select, in registration
// order. Routes contribute their segments.
func (s *Synchronizer) Selectables() []subject.Subject {
	var out []subject.Subject
	for _, uid := range s.order {
		switch v := s.subjects[uid].(type) {
		case *subject.Route:
			for _, seg := range v.Segments() {
				out = append(out, seg)
			}
		default:
			if subject.IsSelectable(v) {
				out = append(out, v)
			}
		}
	}
	return out
}

// SubjectByUID finds an element, route, or "route#index" segment.
func (s *Synchronizer) SubjectByUID(uid string) (subject.Subject, bool) {
	if sub, ok := s.subjects[uid]; ok {
		return sub, true
	}
	routeUID, idx, ok := strings.Cut(uid, "#")
	if !ok {
		return nil, false
	}
	r, ok := s.subjects[routeUID].(*subject.Route)
	if !ok {
		return nil, false
	}
	i, err := strconv.Atoi(idx)
	if err != nil {
		return nil, false
	}
	segs := r.Segments()
	if i < 0 || i >= len(segs) {
		return nil, false
	}
	return segs[i], true
}

// SubjectForObject maps a picked render object to its subject. Route hits
// resolve to the segment.
func (s *Synchronizer) SubjectForObject(o *scene.Object) (subject.Subject, bool) {
	for _, uid := range s.order {
		switch v := s.subjects[uid].(type) {
		case *subject.Route:
			if seg := v.SegmentFor(o); seg != nil {
				return seg, true
			}
		default:
			if v.Owns(o) {
				return v, true
			}
		}
	}
	return nil, false
}

// TerminalForObject reports the endpoint behind a terminal click target.
func (s *Synchronizer) TerminalForObject(o *scene.Object) (doc.Endpoint, bool) {
	sub, ok := s.SubjectForObject(o)
	if !ok {
		return doc.Endpoint{}, false
	}
	e, ok := sub.(*subject.Element)
	if !ok {
		return doc.Endpoint{}, false
	}
	t, ok := e.TerminalFor(o)
	if !ok {
		return doc.Endpoint{}, false
	}
	return doc.Endpoint{ElementUID: e.UID(), TerminalUID: t.UID}, true
}

func (s *Synchronizer) Element(uid string) (*subject.Element, bool) {
	e, ok := s.subjects[uid].(*subject.Element)
	return e, ok
}

func (s *Synchronizer) Route(uid string) (*subject.Route, bool) {
	r, ok := s.subjects[uid].(*subject.Route)
	return r, ok
}

// SetHoverTerminal highlights ep as a drop target, clearing every other
// highlight. A zero endpoint clears all.
func (s *Synchronizer) SetHoverTerminal(ep doc.Endpoint) {
	for _, uid := range s.order {
		if e, ok := s.subjects[uid].(*subject.Element); ok {
			if uid == ep.ElementUID {
				e.SetHoverTerminal(ep.TerminalUID)
			} else {
				e.SetHoverTerminal("")
			}
		}
	}
}

// ContentBounds covers every mounted subject.
func (s *Synchronizer) ContentBounds() geom.Rect {
	r := geom.EmptyRect()
	for _, uid := range s.order {
		r = r.Union(s.subjects[uid].Bounds())
	}
	return r
}

// TerminalWorld resolves an endpoint against the live subjects.
func (s *Synchronizer) TerminalWorld(ep doc.Endpoint) (geom.Vec2, bool) {
	e, ok := s.Element(ep.ElementUID)
	if !ok {
		return geom.Vec2{}, false
	}
	return e.TerminalWorld(ep.TerminalUID)
}

func (s *Synchronizer) IsBranch(elementUID string) bool {
	e, ok := s.Element(elementUID)
	return ok && e.IsBranch()
}

// BranchAxis reports the axis of the first wire leaving a branch point,
// ignoring the route asking and any degenerate span.
func (s *Synchronizer) BranchAxis(elementUID, excludeRouteUID string) (geom.Axis, bool) {
	for _, uid := range s.order {
		r, ok := s.subjects[uid].(*subject.Route)
		if !ok || uid == excludeRouteUID || !r.Resolved() {
			continue
		}
		pts := r.Points()
		if len(pts) < 2 {
			continue
		}
		var a, b geom.Vec2
		switch elementUID {
		case r.Data().Start.ElementUID:
			a, b = pts[0], pts[1]
		case r.Data().End.ElementUID:
			a, b = pts[len(pts)-2], pts[len(pts)-1]
		default:
			continue
		}
		if a.Near(b) {
			continue
		}
		return geom.SegmentAxis(a, b), true
	}
	return 0, false
}

func (s *Synchronizer) commit(reason string) {
	glog.V(2).Infof("state: document %s changed: %s", s.doc.UID, reason)
	if s.onDocumentChanged != nil {
		s.onDocumentChanged(s.doc.Clone())
	}
}
