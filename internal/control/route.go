package control

import (
	"time"

	"github.com/golang/glog"

	"wiredraw/internal/doc"
	"wiredraw/internal/geom"
	"wiredraw/internal/scene"
	"wiredraw/internal/state"
	"wiredraw/internal/subject"
)

type routeState int

const (
	routeIdle routeState = iota
	routeRouting
)

// Route draws new connections: press on a terminal, then release or click
// on another terminal to commit. Releasing on a route segment forks that
// route at a branch point instead.
type Route struct {
	base
	picker

	state  routeState
	start  doc.Endpoint
	cursor geom.Vec2
	hover  doc.Endpoint
}

func NewRoute(sync *state.Synchronizer, pickRadius float64) *Route {
	return &Route{base: base{enabled: true}, picker: picker{sync: sync, radius: pickRadius}}
}

// Routing reports whether a connection is being drawn.
func (r *Route) Routing() bool { return r.state == routeRouting }

// Start is the terminal the pending connection leaves from.
func (r *Route) Start() doc.Endpoint { return r.start }

func (r *Route) Handle(ev *Event) {
	switch ev.Kind {
	case Press:
		if ev.Consumed() {
			return
		}
		r.press(ev)
	case Move:
		r.cursor = r.world(ev.Screen)
		if r.state == routeRouting {
			r.track(ev.Screen)
		}
	case Release:
		if r.state != routeRouting || ev.Consumed() {
			return
		}
		r.release(ev)
	case Key:
		if ev.Key == "esc" && r.state == routeRouting {
			glog.V(2).Infof("control: routing from %s cancelled", r.start)
			r.reset()
			ev.Consume()
		}
	}
}

func (r *Route) press(ev *Event) {
	if r.state == routeRouting {
		// The gesture resolves on release.
		ev.Consume()
		return
	}
	ep, ok := r.terminal(ev.Screen)
	if !ok {
		return
	}
	r.state = routeRouting
	r.start = ep
	r.cursor = r.world(ev.Screen)
	ev.Consume()
}

func (r *Route) track(screen geom.Vec2) {
	ep, ok := r.terminal(screen)
	if !ok || ep == r.start {
		ep = doc.Endpoint{}
	}
	if ep != r.hover {
		r.hover = ep
		r.sync.SetHoverTerminal(ep)
	}
}

func (r *Route) release(ev *Event) {
	ev.Consume()
	if ep, ok := r.terminal(ev.Screen); ok {
		if ep == r.start {
			// Press and release on the same terminal: wait for a second click.
			return
		}
		if _, err := r.sync.CreateRoute(r.start, ep); err != nil {
			glog.Warningf("control: route %s -> %s: %v", r.start, ep, err)
		}
		r.reset()
		return
	}
	if seg := r.segment(ev.Screen); seg != nil {
		if _, err := r.sync.CreateRoutingFromTerminalToRoutePoint(r.start, seg, r.world(ev.Screen)); err != nil {
			glog.Warningf("control: branch from %s: %v", r.start, err)
		}
		r.reset()
		return
	}
	r.reset()
}

func (r *Route) reset() {
	r.state = routeIdle
	r.start = doc.Endpoint{}
	if !r.hover.IsZero() {
		r.hover = doc.Endpoint{}
		r.sync.SetHoverTerminal(doc.Endpoint{})
	}
}

func (r *Route) Update(time.Duration) {}

// Paint previews the pending connection as an auto-routed path.
func (r *Route) Paint(p scene.Painter) {
	if r.state != routeRouting {
		return
	}
	from, ok := r.sync.TerminalWorld(r.start)
	if !ok {
		return
	}
	to := r.cursor
	if t, ok := r.sync.TerminalWorld(r.hover); ok && !r.hover.IsZero() {
		to = t
	}
	pts := append([]geom.Vec2{from}, subject.AutoVertices(from, to, subject.BranchSnap{})...)
	pts = append(pts, to)
	st := scene.Style{Tone: scene.TonePreview}
	for i := 0; i+1 < len(pts); i++ {
		p.Line(pts[i], pts[i+1], st)
	}
}
