package state

import (
	"fmt"

	"github.com/golang/glog"

	"wiredraw/internal/doc"
	"wiredraw/internal/geom"
	"wiredraw/internal/subject"
)

// BranchResult describes the outcome of a branch insertion.
type BranchResult struct {
	Branch *doc.Element
	Left   *doc.Route
	Right  *doc.Route
	Leg    *doc.Route
}

// PlacePart drops a new element for part at a world point.
func (s *Synchronizer) PlacePart(part doc.PartVersion, at geom.Vec2) (*doc.Element, error) {
	e := doc.NewElement(part, at)
	if err := s.AddElement(e); err != nil {
		return nil, err
	}
	return e, nil
}

// AddElement mounts an element built by the caller.
func (s *Synchronizer) AddElement(e *doc.Element) error {
	if err := s.doc.AddElement(e); err != nil {
		return err
	}
	s.mountElement(e)
	s.commit("add element " + e.UID)
	return nil
}

func (s *Synchronizer) addRoute(r *doc.Route) (*subject.Route, error) {
	if err := s.doc.AddRoute(r); err != nil {
		return nil, err
	}
	sub := s.mountRoute(r)
	if r.AutoRoute {
		sub.CommitVertices()
	}
	return sub, nil
}

func (s *Synchronizer) resolves(ep doc.Endpoint) error {
	if _, ok := s.TerminalWorld(ep); !ok {
		return fmt.Errorf("endpoint %s: %w", ep, ErrUnresolved)
	}
	return nil
}

// CreateRoute joins two terminals with an auto-routed connection. The
// computed bend points are stored with the route.
func (s *Synchronizer) CreateRoute(start, end doc.Endpoint) (*doc.Route, error) {
	if start == end {
		return nil, ErrSameTerminal
	}
	for _, ep := range []doc.Endpoint{start, end} {
		if err := s.resolves(ep); err != nil {
			glog.Warningf("state: routing aborted: %v", err)
			return nil, err
		}
	}
	r := doc.NewRoute(start, end, nil, true)
	if _, err := s.addRoute(r); err != nil {
		glog.Warningf("state: routing aborted: %v", err)
		return nil, err
	}
	s.commit("create route " + r.UID)
	return r, nil
}

// CreateRoutingFromTerminalToRoutePoint forks an existing route at a point
// on seg and wires start to the fork.
//
// A branch point is placed where at projects onto seg. The original route
// is replaced by two manual routes that keep its bend points on either side
// of the split, and a third auto route joins start to the branch.
func (s *Synchronizer) CreateRoutingFromTerminalToRoutePoint(start doc.Endpoint, seg *subject.Segment, at geom.Vec2) (BranchResult, error) {
	if seg == nil {
		return BranchResult{}, fmt.Errorf("branch: no segment: %w", ErrUnresolved)
	}
	orig := seg.Route()
	if cur, ok := s.Route(orig.UID()); !ok || cur != orig || !orig.Contains(seg) {
		glog.Warningf("state: branch aborted: route %s is not mounted", orig.UID())
		return BranchResult{}, fmt.Errorf("branch: route %s: %w", orig.UID(), ErrUnresolved)
	}
	if err := s.resolves(start); err != nil {
		glog.Warningf("state: branch aborted: %v", err)
		return BranchResult{}, err
	}
	if start == orig.Data().Start || start == orig.Data().End {
		return BranchResult{}, ErrSameTerminal
	}

	a, b := seg.Ends()
	p := geom.ClosestPointOnSegment(a, b, at)
	verts := orig.Vertices()
	i := seg.Index()
	data := orig.Data()

	branch := doc.NewBranchElement(p)
	if err := s.doc.AddElement(branch); err != nil {
		return BranchResult{}, err
	}
	s.mountElement(branch)
	fork := doc.Endpoint{ElementUID: branch.UID, TerminalUID: doc.BranchTerminalUID}

	s.doc.RemoveRoute(data.UID)
	s.unmount(data.UID)

	res := BranchResult{Branch: branch}
	res.Left = doc.NewRoute(data.Start, fork, clonePoints(verts[:i]), false)
	res.Right = doc.NewRoute(fork, data.End, clonePoints(verts[i:]), false)
	res.Leg = doc.NewRoute(start, fork, nil, true)
	for _, r := range []*doc.Route{res.Left, res.Right} {
		if _, err := s.addRoute(r); err != nil {
			return res, err
		}
	}
	s.refreshRoutes()
	if _, err := s.addRoute(res.Leg); err != nil {
		return res, err
	}
	s.pruneSelection()
	glog.V(1).Infof("state: route %s split at %v by branch %s", data.UID, p, branch.UID)
	s.commit("branch " + data.UID)
	return res, nil
}

func clonePoints(ps []geom.Vec2) []geom.Vec2 {
	if len(ps) == 0 {
		return nil
	}
	return append([]geom.Vec2(nil), ps...)
}

// selectedUIDs splits the selection into element uids and the uids of
// routes with a selected segment.
func (s *Synchronizer) selectedUIDs() (elements, routes []string) {
	seen := map[string]bool{}
	for _, sub := range s.selection {
		switch v := sub.(type) {
		case *subject.Element:
			elements = append(elements, v.UID())
		case *subject.Segment:
			uid := v.Route().UID()
			if !seen[uid] {
				seen[uid] = true
				routes = append(routes, uid)
			}
		}
	}
	return elements, routes
}

// DeleteSelection removes the selected elements with every route touching
// them, plus every route with a selected segment. Branch points left
// without routes go too.
func (s *Synchronizer) DeleteSelection() bool {
	elements, routes := s.selectedUIDs()
	if len(elements) == 0 && len(routes) == 0 {
		return false
	}
	s.UnselectAll(true)
	for _, uid := range elements {
		for _, r := range s.doc.RemoveElement(uid) {
			s.unmount(r)
		}
		s.unmount(uid)
	}
	for _, uid := range routes {
		if s.doc.RemoveRoute(uid) {
			s.unmount(uid)
		}
	}
	for _, uid := range s.doc.PruneOrphanBranches() {
		s.unmount(uid)
	}
	s.refreshRoutes()
	s.NotifySelection()
	s.commit(fmt.Sprintf("delete %d elements, %d routes", len(elements), len(routes)))
	return true
}

type dragCommitter interface {
	CommitDrag() bool
}

// CommitDrag writes drag previews into the document. Routes attached to a
// moved element store their re-derived bend points.
func (s *Synchronizer) CommitDrag(subs []subject.Subject) bool {
	moved := false
	touched := map[string]bool{}
	for _, sub := range subs {
		c, ok := sub.(dragCommitter)
		if !ok || !c.CommitDrag() {
			continue
		}
		moved = true
		if e, ok := sub.(*subject.Element); ok {
			touched[e.UID()] = true
		}
	}
	if !moved {
		return false
	}
	s.commitAttachedRoutes(touched)
	s.commit("drag")
	return true
}

func (s *Synchronizer) commitAttachedRoutes(elements map[string]bool) {
	s.refreshRoutes()
	for _, uid := range s.order {
		r, ok := s.subjects[uid].(*subject.Route)
		if !ok {
			continue
		}
		d := r.Data()
		if elements[d.Start.ElementUID] || elements[d.End.ElementUID] || d.AutoRoute {
			r.CommitVertices()
		}
	}
}

// RotateSelection turns every selected element a quarter turn about its
// own origin. Flipped elements turn the other way on screen.
func (s *Synchronizer) RotateSelection(clockwise bool) bool {
	turns := -1
	if clockwise {
		turns = 1
	}
	return s.transformSelection("rotate", func(p doc.Position) doc.Position {
		return p.Rotated(turns)
	})
}

// FlipSelection mirrors every selected element.
func (s *Synchronizer) FlipSelection() bool {
	return s.transformSelection("flip", func(p doc.Position) doc.Position {
		p.Flip = !p.Flip
		return p
	})
}

func (s *Synchronizer) transformSelection(reason string, fn func(doc.Position) doc.Position) bool {
	touched := map[string]bool{}
	for _, sub := range s.selection {
		e, ok := sub.(*subject.Element)
		if !ok || e.IsBranch() {
			continue
		}
		e.Data().Position = fn(e.Data().Position)
		touched[e.UID()] = true
	}
	if len(touched) == 0 {
		return false
	}
	s.commitAttachedRoutes(touched)
	s.commit(reason)
	return true
}

// CopySelection returns copies of the selected elements and of every route
// that touches them or has a selected segment.
func (s *Synchronizer) CopySelection() ([]*doc.Element, []*doc.Route) {
	elementUIDs, routeUIDs := s.selectedUIDs()
	var els []*doc.Element
	for _, uid := range elementUIDs {
		els = append(els, s.doc.Elements[uid].Clone())
	}
	include := map[string]bool{}
	for _, uid := range routeUIDs {
		include[uid] = true
	}
	for _, uid := range elementUIDs {
		for _, r := range s.doc.RoutesFor(uid) {
			include[r.UID] = true
		}
	}
	var routes []*doc.Route
	for _, uid := range s.doc.RouteUIDs() {
		if include[uid] {
			routes = append(routes, s.doc.Routes[uid].Clone())
		}
	}
	return els, routes
}

// PasteItems mounts already re-identified elements and routes and selects
// the pasted elements. Routes that do not resolve are skipped.
func (s *Synchronizer) PasteItems(elements []*doc.Element, routes []*doc.Route) int {
	var mounted []*subject.Element
	for _, e := range elements {
		if err := s.doc.AddElement(e); err != nil {
			glog.Warningf("state: paste: %v", err)
			continue
		}
		mounted = append(mounted, s.mountElement(e))
	}
	added := len(mounted)
	for _, r := range routes {
		if err := s.resolves(r.Start); err != nil {
			glog.Warningf("state: paste: route %s: %v", r.UID, err)
			continue
		}
		if err := s.resolves(r.End); err != nil {
			glog.Warningf("state: paste: route %s: %v", r.UID, err)
			continue
		}
		if _, err := s.addRoute(r); err != nil {
			glog.Warningf("state: paste: %v", err)
			continue
		}
		added++
	}
	if added == 0 {
		return 0
	}
	s.refreshRoutes()
	s.UnselectAll(true)
	for _, e := range mounted {
		s.SelectSubject(e, true)
	}
	s.NotifySelection()
	s.commit(fmt.Sprintf("paste %d items", added))
	return added
}
