package control

import (
	"math"
	"time"

	"github.com/golang/glog"

	"wiredraw/internal/geom"
	"wiredraw/internal/scene"
	"wiredraw/internal/state"
)

// ZoomOptions bounds and paces the camera.
type ZoomOptions struct {
	Min  float64
	Max  float64
	Step float64
	// FitPadding is the fraction of the fitted box added on every side.
	FitPadding float64
	// MinContentFraction is the smallest share of the viewport the content
	// may shrink to when zooming out.
	MinContentFraction float64
	// Bleed relaxes the content-derived minimum when it is the binding one.
	Bleed float64
	// PanStep is how far, in pixels, one arrow key moves the camera.
	PanStep float64
}

func DefaultZoomOptions() ZoomOptions {
	return ZoomOptions{
		Min:                0.1,
		Max:                10,
		Step:               1.25,
		FitPadding:         0.1,
		MinContentFraction: 0.05,
		Bleed:              0.8,
		PanStep:            40,
	}
}

// Zoom handles wheel zoom anchored at the cursor, discrete zoom steps,
// zoom-to-fit, and panning.
type Zoom struct {
	base
	sync *state.Synchronizer
	opts ZoomOptions
}

func NewZoom(sync *state.Synchronizer, opts ZoomOptions) *Zoom {
	return &Zoom{base: base{enabled: true}, sync: sync, opts: opts}
}

func (z *Zoom) Options() ZoomOptions { return z.opts }

func (z *Zoom) Handle(ev *Event) {
	switch ev.Kind {
	case Wheel:
		if ev.Consumed() || ev.Delta == 0 {
			return
		}
		z.ZoomAt(ev.Screen, math.Pow(z.opts.Step, ev.Delta))
		ev.Consume()
	case Key:
		if ev.Consumed() {
			return
		}
		if z.key(ev.Key) {
			ev.Consume()
		}
	}
}

func (z *Zoom) key(k string) bool {
	switch k {
	case "+", "=":
		z.ZoomIn()
	case "-", "_":
		z.ZoomOut()
	case "0":
		z.ZoomToFit()
	case "up":
		z.Pan(0, -z.opts.PanStep)
	case "down":
		z.Pan(0, z.opts.PanStep)
	case "left":
		z.Pan(-z.opts.PanStep, 0)
	case "right":
		z.Pan(z.opts.PanStep, 0)
	default:
		return false
	}
	return true
}

// EffectiveMin is the lowest zoom allowed for the current content. The
// content-derived minimum only binds when it is above the global one, and
// then it is relaxed by the bleed factor.
func (z *Zoom) EffectiveMin() float64 {
	lo := z.opts.Min
	bounds := z.sync.ContentBounds()
	vp := z.sync.Engine().Viewport()
	if !bounds.Empty() && z.opts.MinContentFraction > 0 && vp.Width > 0 && vp.Height > 0 {
		w := math.Max(bounds.Width(), geom.Epsilon)
		h := math.Max(bounds.Height(), geom.Epsilon)
		dyn := z.opts.MinContentFraction * math.Min(vp.Width/w, vp.Height/h)
		if dyn > lo {
			lo = math.Max(lo, dyn*z.opts.Bleed)
		}
	}
	return math.Min(lo, z.opts.Max)
}

// Clamp limits a zoom factor to the allowed range.
func (z *Zoom) Clamp(zoom float64) float64 {
	return geom.Clamp(zoom, z.EffectiveMin(), z.opts.Max)
}

// ZoomAt scales the camera by factor, keeping the world point under screen
// fixed on screen.
func (z *Zoom) ZoomAt(screen geom.Vec2, factor float64) {
	eng := z.sync.Engine()
	cam := eng.Camera()
	anchor := eng.ScreenToWorld(screen)
	next := z.Clamp(cam.Zoom * factor)
	if next == cam.Zoom {
		return
	}
	off := screen.Sub(eng.Viewport().Center()).Scale(1 / next)
	cam.Zoom = next
	cam.Position = anchor.Sub(off)
	eng.SetCamera(cam)
}

func (z *Zoom) ZoomIn() {
	z.ZoomAt(z.sync.Engine().Viewport().Center(), z.opts.Step)
}

func (z *Zoom) ZoomOut() {
	z.ZoomAt(z.sync.Engine().Viewport().Center(), 1/z.opts.Step)
}

// ZoomToFit frames the selection, or all content when nothing is
// selected. With nothing on the diagram the camera is reset.
func (z *Zoom) ZoomToFit() {
	eng := z.sync.Engine()
	bounds := z.sync.SelectionBounds()
	if bounds.Empty() {
		if len(z.sync.Document().Elements) == 0 {
			eng.ResetCamera()
			return
		}
		bounds = z.sync.ContentBounds()
	}
	z.Fit(bounds)
}

// Fit frames bounds with the configured padding.
func (z *Zoom) Fit(bounds geom.Rect) {
	eng := z.sync.Engine()
	vp := eng.Viewport()
	pad := 1 + 2*z.opts.FitPadding
	w := math.Max(bounds.Width()*pad, geom.Epsilon)
	h := math.Max(bounds.Height()*pad, geom.Epsilon)
	zoom := z.Clamp(math.Min(vp.Width/w, vp.Height/h))
	eng.SetCamera(scene.Camera{Position: bounds.Center(), Zoom: zoom})
	if glog.V(2) {
		glog.Infof("control: fit %v at zoom %.3f", bounds, zoom)
	}
}

// Pan moves the camera by a screen-space distance.
func (z *Zoom) Pan(dx, dy float64) {
	eng := z.sync.Engine()
	cam := eng.Camera()
	cam.Position = cam.Position.Add(geom.V(dx, dy).Scale(1 / cam.Zoom))
	eng.SetCamera(cam)
}

// Restore applies a saved camera, clamping its zoom.
func (z *Zoom) Restore(cam scene.Camera) {
	if cam.Zoom <= 0 {
		cam.Zoom = 1
	}
	cam.Zoom = z.Clamp(cam.Zoom)
	z.sync.Engine().SetCamera(cam)
}

func (z *Zoom) Update(time.Duration) {}
