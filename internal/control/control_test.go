package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wiredraw/internal/clipboard"
	"wiredraw/internal/doc"
	"wiredraw/internal/geom"
	"wiredraw/internal/scene"
	"wiredraw/internal/state"
)

const testPick = 1

func resistor() doc.PartVersion {
	return doc.PartVersion{
		PartUID: "res",
		Version: "1",
		Name:    "Resistor",
		Kind:    doc.KindSymbol,
		Width:   4,
		Height:  2,
		Terminals: []doc.Terminal{
			{UID: "a", X: -2},
			{UID: "b", X: 2},
		},
	}
}

type rig struct {
	engine *scene.Engine
	sync   *state.Synchronizer
	drag   *Drag
	route  *Route
	box    *SelectBox
	sel    *Select
	zoom   *Zoom
	set    *Set
	clip   *clipboard.MemoryBackend
}

func newRig(t *testing.T, d *doc.Document) *rig {
	t.Helper()
	r := &rig{engine: scene.NewEngine(scene.Viewport{Width: 800, Height: 600})}
	r.sync = state.New(r.engine, 256)
	r.sync.LoadDocument(d)
	r.clip = &clipboard.MemoryBackend{}
	r.route = NewRoute(r.sync, testPick)
	r.drag = NewDrag(r.sync, testPick)
	r.box = NewSelectBox(r.sync)
	r.sel = NewSelect(r.sync, clipboard.New(r.clip, nil), testPick)
	r.zoom = NewZoom(r.sync, DefaultZoomOptions())
	r.set = NewSet(r.route, r.drag, r.box, r.sel, r.zoom)
	return r
}

func (r *rig) screen(x, y float64) geom.Vec2 {
	return r.engine.WorldToScreen(geom.V(x, y))
}

func (r *rig) send(kind EventKind, x, y float64, mods Modifiers) bool {
	return r.set.Dispatch(&Event{Kind: kind, Screen: r.screen(x, y), Mods: mods})
}

func (r *rig) click(x, y float64, mods Modifiers) {
	r.send(Press, x, y, mods)
	r.send(Release, x, y, mods)
}

func (r *rig) gesture(x0, y0, x1, y1 float64, mods Modifiers) {
	r.send(Press, x0, y0, mods)
	r.send(Move, (x0+x1)/2, (y0+y1)/2, mods)
	r.engine.Tick(0)
	r.send(Move, x1, y1, mods)
	r.send(Release, x1, y1, mods)
}

func (r *rig) key(k string) bool {
	return r.set.Dispatch(&Event{Kind: Key, Key: k})
}

func element(t *testing.T, d *doc.Document, uid string, x, y float64) *doc.Element {
	t.Helper()
	e := doc.NewElement(resistor(), geom.V(x, y))
	e.UID = uid
	require.NoError(t, d.AddElement(e))
	return e
}

func threeElements(t *testing.T) *doc.Document {
	d := doc.New("test", "")
	element(t, d, "e1", 0, 0)
	element(t, d, "e2", 44, 20)
	element(t, d, "e3", 0, 40)
	return d
}

func TestRubberBandSelection(t *testing.T) {
	d := doc.New("test", "")
	element(t, d, "e1", 0, 0)
	element(t, d, "e2", 0, 20)
	element(t, d, "e3", -100, 200)
	element(t, d, "e4", 100, 200)
	r := doc.NewRoute(
		doc.Endpoint{ElementUID: "e3", TerminalUID: "b"},
		doc.Endpoint{ElementUID: "e4", TerminalUID: "a"},
		[]geom.Vec2{{X: -50, Y: 200}, {X: -50, Y: 50}, {X: 50, Y: 50}, {X: 50, Y: 200}}, false)
	r.UID = "r1"
	require.NoError(t, d.AddRoute(r))

	t.Run("without modifier the last hit wins", func(t *testing.T) {
		g := newRig(t, d)
		g.gesture(-8, -8, 8, 55, 0)
		assert.Equal(t, []string{"r1#2"}, g.sync.SelectedUIDs())
		assert.False(t, g.box.Active())
	})
	t.Run("with modifier every hit is added", func(t *testing.T) {
		g := newRig(t, d)
		g.gesture(-8, -8, 8, 55, Shift)
		assert.Equal(t, []string{"e1", "e2", "r1#2"}, g.sync.SelectedUIDs())
	})
	t.Run("a click is not a box", func(t *testing.T) {
		g := newRig(t, d)
		e1, _ := g.sync.Element("e1")
		g.sync.SelectSubject(e1, true)
		g.click(-8, -8, 0)
		assert.Empty(t, g.sync.SelectedUIDs(), "empty-space click clears the selection")
	})
}

func TestClickSelection(t *testing.T) {
	g := newRig(t, threeElements(t))
	g.click(0, 0.5, 0)
	assert.Equal(t, []string{"e1"}, g.sync.SelectedUIDs())

	g.click(44, 20.5, Shift)
	assert.Equal(t, []string{"e1", "e2"}, g.sync.SelectedUIDs())

	g.click(44, 20.5, Shift)
	assert.Equal(t, []string{"e1"}, g.sync.SelectedUIDs())

	g.click(0, 40.5, 0)
	assert.Equal(t, []string{"e3"}, g.sync.SelectedUIDs())
	assert.Equal(t, doc.Position{X: 0, Y: 0}, g.sync.Document().Elements["e1"].Position, "a click does not move")
}

func TestDragMovesElement(t *testing.T) {
	g := newRig(t, threeElements(t))
	g.gesture(0, 0.5, 10, 5.5, 0)
	assert.Equal(t, doc.Position{X: 10, Y: 5}, g.sync.Document().Elements["e1"].Position)
	assert.Empty(t, g.sync.SelectedUIDs(), "a committed drag is not a click")
	assert.False(t, g.drag.Active())
}

func TestDragMovesSelection(t *testing.T) {
	g := newRig(t, threeElements(t))
	for _, uid := range []string{"e1", "e2"} {
		e, _ := g.sync.Element(uid)
		g.sync.SelectSubject(e, true)
	}
	g.gesture(0, 0.5, 5, 10.5, 0)
	els := g.sync.Document().Elements
	assert.Equal(t, doc.Position{X: 5, Y: 10}, els["e1"].Position)
	assert.Equal(t, doc.Position{X: 49, Y: 30}, els["e2"].Position)
	assert.Equal(t, doc.Position{X: 0, Y: 40}, els["e3"].Position)
}

func TestDragEscapeCancels(t *testing.T) {
	g := newRig(t, threeElements(t))
	g.send(Press, 0, 0.5, 0)
	g.send(Move, 10, 10, 0)
	e1, _ := g.sync.Element("e1")
	assert.Equal(t, 10.0, e1.Position().X)
	assert.True(t, g.key("esc"))
	g.send(Release, 10, 10, 0)
	assert.Equal(t, doc.Position{}, e1.Position())
	assert.Equal(t, doc.Position{}, g.sync.Document().Elements["e1"].Position)
}

func TestDragSegmentAlongAxis(t *testing.T) {
	g := newRig(t, threeElements(t))
	ep1 := doc.Endpoint{ElementUID: "e1", TerminalUID: "b"}
	ep2 := doc.Endpoint{ElementUID: "e2", TerminalUID: "a"}
	r, err := g.sync.CreateRoute(ep1, ep2)
	require.NoError(t, err)

	// The middle span is vertical at x=22.
	g.gesture(22, 10, 30, 14, 0)
	got := g.sync.Document().Routes[r.UID]
	assert.False(t, got.AutoRoute)
	assert.Equal(t, []geom.Vec2{{X: 30, Y: 0}, {X: 30, Y: 20}}, got.Vertices)
}

func TestRouteTwoTerminals(t *testing.T) {
	g := newRig(t, threeElements(t))
	g.gesture(2, 0, 42, 20, 0)
	require.Len(t, g.sync.Document().Routes, 1)
	for _, r := range g.sync.Document().Routes {
		assert.Equal(t, doc.Endpoint{ElementUID: "e1", TerminalUID: "b"}, r.Start)
		assert.Equal(t, doc.Endpoint{ElementUID: "e2", TerminalUID: "a"}, r.End)
		assert.True(t, r.AutoRoute)
	}
	assert.False(t, g.route.Routing())
}

func TestRouteClickClick(t *testing.T) {
	g := newRig(t, threeElements(t))
	g.click(2, 0, 0)
	require.True(t, g.route.Routing())

	g.send(Move, 42, 20, 0)
	e2, _ := g.sync.Element("e2")
	assert.Equal(t, "a", e2.HoverTerminal())

	g.click(42, 20, 0)
	assert.False(t, g.route.Routing())
	assert.Len(t, g.sync.Document().Routes, 1)
	assert.Empty(t, e2.HoverTerminal())
}

func TestRouteCancel(t *testing.T) {
	g := newRig(t, threeElements(t))
	g.click(2, 0, 0)
	require.True(t, g.route.Routing())
	assert.True(t, g.key("esc"))
	assert.False(t, g.route.Routing())

	g.click(2, 0, 0)
	g.click(200, 200, 0)
	assert.False(t, g.route.Routing(), "release on nothing cancels")
	assert.Empty(t, g.sync.Document().Routes)
}

func TestRouteOntoSegmentInsertsBranch(t *testing.T) {
	g := newRig(t, threeElements(t))
	g.gesture(2, 0, 42, 20, 0)
	require.Len(t, g.sync.Document().Routes, 1)
	var orig string
	for uid := range g.sync.Document().Routes {
		orig = uid
	}

	g.gesture(2, 40, 22, 10, 0)

	d := g.sync.Document()
	assert.NotContains(t, d.Routes, orig)
	assert.Len(t, d.Routes, 3)
	var branch *doc.Element
	for _, e := range d.Elements {
		if e.IsBranch() {
			branch = e
		}
	}
	require.NotNil(t, branch)
	assert.Equal(t, doc.Position{X: 22, Y: 10}, branch.Position)

	legs := map[string]bool{}
	for _, r := range d.Routes {
		other := r.Start.ElementUID
		if other == branch.UID {
			other = r.End.ElementUID
		}
		legs[other] = true
	}
	assert.Equal(t, map[string]bool{"e1": true, "e2": true, "e3": true}, legs)
	assert.NoError(t, d.Validate())
}

func TestKeyboardCommands(t *testing.T) {
	g := newRig(t, threeElements(t))
	g.click(0, 0.5, 0)

	assert.True(t, g.key("r"))
	assert.Equal(t, 1, g.sync.Document().Elements["e1"].Position.Orientation)
	assert.True(t, g.key("R"))
	assert.Equal(t, 0, g.sync.Document().Elements["e1"].Position.Orientation)

	assert.True(t, g.key("ctrl+c"))
	g.send(Move, 100, 100, 0)
	assert.True(t, g.key("ctrl+v"))
	require.Len(t, g.sync.Document().Elements, 4)
	sel := g.sync.SelectedUIDs()
	require.Len(t, sel, 1)
	assert.NotEqual(t, "e1", sel[0])
	assert.Equal(t, doc.Position{X: 100, Y: 100}, g.sync.Document().Elements[sel[0]].Position)

	assert.True(t, g.key("delete"))
	assert.Len(t, g.sync.Document().Elements, 3)

	g.click(0, 0.5, 0)
	assert.True(t, g.key("ctrl+x"))
	assert.NotContains(t, g.sync.Document().Elements, "e1")
	g.send(Move, 0, 0, 0)
	g.key("ctrl+v")
	assert.Len(t, g.sync.Document().Elements, 3)

	assert.False(t, g.key("q"))
}

func TestWheelZoomKeepsCursorAnchor(t *testing.T) {
	g := newRig(t, threeElements(t))
	at := geom.V(600, 350)
	before := g.engine.ScreenToWorld(at)
	require.True(t, g.set.Dispatch(&Event{Kind: Wheel, Screen: at, Delta: 1}))
	assert.InDelta(t, 1.25, g.engine.Camera().Zoom, 1e-9)
	after := g.engine.ScreenToWorld(at)
	assert.InDelta(t, before.X, after.X, 1e-9)
	assert.InDelta(t, before.Y, after.Y, 1e-9)
}

func TestZoomIsClamped(t *testing.T) {
	g := newRig(t, threeElements(t))
	for i := 0; i < 40; i++ {
		g.set.Dispatch(&Event{Kind: Wheel, Screen: geom.V(100, 100), Delta: 1})
	}
	assert.Equal(t, 10.0, g.engine.Camera().Zoom)

	for i := 0; i < 80; i++ {
		g.set.Dispatch(&Event{Kind: Wheel, Screen: geom.V(100, 100), Delta: -1})
	}
	z := g.engine.Camera().Zoom
	assert.Equal(t, g.zoom.EffectiveMin(), z)
	assert.GreaterOrEqual(t, z, 0.1)
}

func TestEffectiveMin(t *testing.T) {
	g := newRig(t, threeElements(t))
	// Content spans 48 x 42 world units.
	dyn := 0.05 * (600.0 / 42)
	assert.InDelta(t, dyn*0.8, g.zoom.EffectiveMin(), 1e-9)

	empty := newRig(t, doc.New("empty", ""))
	assert.Equal(t, 0.1, empty.zoom.EffectiveMin())
}

func TestZoomToFit(t *testing.T) {
	g := newRig(t, threeElements(t))
	opts := DefaultZoomOptions()
	opts.Max = 100
	g.zoom = NewZoom(g.sync, opts)

	g.zoom.ZoomToFit()
	cam := g.engine.Camera()
	assert.Equal(t, geom.V(22, 20), cam.Position)
	assert.InDelta(t, 600/(42*1.2), cam.Zoom, 1e-9)
	assert.True(t, g.engine.Contains(g.sync.ContentBounds()))

	e2, _ := g.sync.Element("e2")
	g.sync.SelectSubject(e2, true)
	g.zoom.ZoomToFit()
	assert.Equal(t, geom.V(44, 20), g.engine.Camera().Position)
	assert.Equal(t, 100.0, g.engine.Camera().Zoom)
}

func TestZoomToFitEmptyResetsCamera(t *testing.T) {
	g := newRig(t, doc.New("empty", ""))
	g.zoom.Pan(100, 50)
	g.zoom.ZoomIn()
	require.NotEqual(t, scene.DefaultCamera(), g.engine.Camera())
	g.zoom.ZoomToFit()
	assert.Equal(t, scene.DefaultCamera(), g.engine.Camera())
}

func TestPanKeys(t *testing.T) {
	g := newRig(t, threeElements(t))
	assert.True(t, g.key("right"))
	assert.Equal(t, geom.V(40, 0), g.engine.Camera().Position)
	g.zoom.Restore(scene.Camera{Position: geom.V(1, 2), Zoom: 100})
	assert.Equal(t, 10.0, g.engine.Camera().Zoom)
	assert.True(t, g.key("up"))
	assert.Equal(t, geom.V(1, -2), g.engine.Camera().Position)
}
