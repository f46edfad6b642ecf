// Package scene owns the camera, viewport, registered hit-test objects, and
// the per-frame update tick.
package scene

import (
	"slices"
	"time"

	"github.com/golang/glog"

	"wiredraw/internal/geom"
)

// Camera is orthographic. Position is the world point at the viewport
// center and Target is where the camera looks; in 2D they coincide but both
// are kept so viewer state round-trips.
type Camera struct {
	Position geom.Vec2 `json:"position" msgpack:"position"`
	Target   geom.Vec2 `json:"target" msgpack:"target"`
	Zoom     float64   `json:"zoom" msgpack:"zoom"`
}

func DefaultCamera() Camera {
	return Camera{Zoom: 1}
}

type Viewport struct {
	Width  float64
	Height float64
}

func (v Viewport) Center() geom.Vec2 {
	return geom.V(v.Width/2, v.Height/2)
}

// Updater is ticked once per frame.
type Updater interface {
	Update(elapsed time.Duration)
}

type Engine struct {
	camera   Camera
	viewport Viewport

	objects []*Object
	nextID  uint64

	updaters       []Updater
	cameraWatchers []func(Camera)

	frames uint64
}

func NewEngine(vp Viewport) *Engine {
	return &Engine{
		camera:   DefaultCamera(),
		viewport: vp,
	}
}

func (e *Engine) Camera() Camera {
	return e.camera
}

// SetCamera replaces the camera and notifies watchers. A non-positive zoom
// is replaced with 1.
func (e *Engine) SetCamera(c Camera) {
	if c.Zoom <= 0 {
		c.Zoom = 1
	}
	c.Target = c.Position
	if c == e.camera {
		return
	}
	e.camera = c
	for _, w := range e.cameraWatchers {
		w(c)
	}
}

func (e *Engine) ResetCamera() {
	e.SetCamera(DefaultCamera())
}

// OnCameraChange registers a watcher called after every camera change.
func (e *Engine) OnCameraChange(fn func(Camera)) {
	e.cameraWatchers = append(e.cameraWatchers, fn)
}

func (e *Engine) Viewport() Viewport {
	return e.viewport
}

func (e *Engine) SetViewport(vp Viewport) {
	e.viewport = vp
}

// ScreenToWorld unprojects a viewport pixel into world space.
func (e *Engine) ScreenToWorld(p geom.Vec2) geom.Vec2 {
	return p.Sub(e.viewport.Center()).Scale(1 / e.camera.Zoom).Add(e.camera.Position)
}

func (e *Engine) WorldToScreen(p geom.Vec2) geom.Vec2 {
	return p.Sub(e.camera.Position).Scale(e.camera.Zoom).Add(e.viewport.Center())
}

// VisibleRect is the world rectangle covered by the viewport.
func (e *Engine) VisibleRect() geom.Rect {
	return geom.R(e.ScreenToWorld(geom.V(0, 0)), e.ScreenToWorld(geom.V(e.viewport.Width, e.viewport.Height)))
}

// Contains is the frustum containment test: r lies entirely on screen.
func (e *Engine) Contains(r geom.Rect) bool {
	return e.VisibleRect().ContainsRect(r)
}

// Add registers an object for drawing and picking.
func (e *Engine) Add(objs ...*Object) {
	for _, o := range objs {
		if o.id != 0 {
			continue
		}
		e.nextID++
		o.id = e.nextID
		e.objects = append(e.objects, o)
	}
}

func (e *Engine) Remove(objs ...*Object) {
	for _, o := range objs {
		if o.id == 0 {
			continue
		}
		id := o.id
		e.objects = slices.DeleteFunc(e.objects, func(x *Object) bool { return x.id == id })
		o.id = 0
	}
}

// Objects returns registered objects in draw order.
func (e *Engine) Objects() []*Object {
	out := slices.Clone(e.objects)
	slices.SortStableFunc(out, func(a, b *Object) int { return a.Layer - b.Layer })
	return out
}

// Pick returns the objects under a screen point, topmost first. tolPx is the
// pick radius in screen pixels.
func (e *Engine) Pick(screen geom.Vec2, tolPx float64) []*Object {
	world := e.ScreenToWorld(screen)
	// Exact hits still land after float error in the segment projection.
	tol := max(tolPx/e.camera.Zoom, geom.Epsilon)
	var hits []*Object
	for _, o := range e.objects {
		if o.Hit(world, tol) {
			hits = append(hits, o)
		}
	}
	// Later layers first, then most recently added first.
	slices.SortStableFunc(hits, func(a, b *Object) int {
		if a.Layer != b.Layer {
			return b.Layer - a.Layer
		}
		if a.id > b.id {
			return -1
		}
		return 1
	})
	return hits
}

func (e *Engine) AddUpdater(u Updater) {
	e.updaters = append(e.updaters, u)
}

func (e *Engine) RemoveUpdater(u Updater) {
	e.updaters = slices.DeleteFunc(e.updaters, func(x Updater) bool { return x == u })
}

// Tick runs one frame: every registered updater sees the elapsed time.
func (e *Engine) Tick(elapsed time.Duration) {
	e.frames++
	for _, u := range e.updaters {
		u.Update(elapsed)
	}
	if glog.V(3) {
		glog.Infof("scene: frame %d elapsed=%s objects=%d", e.frames, elapsed, len(e.objects))
	}
}

func (e *Engine) Frames() uint64 {
	return e.frames
}
