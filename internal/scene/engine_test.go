package scene

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wiredraw/internal/geom"
)

type countingUpdater struct {
	ticks   int
	elapsed time.Duration
}

func (c *countingUpdater) Update(elapsed time.Duration) {
	c.ticks++
	c.elapsed += elapsed
}

type shift struct{ d geom.Vec2 }

func (s shift) Apply(p geom.Vec2) geom.Vec2  { return p.Add(s.d) }
func (s shift) Invert(p geom.Vec2) geom.Vec2 { return p.Sub(s.d) }

func TestScreenWorldRoundTrip(t *testing.T) {
	e := NewEngine(Viewport{Width: 200, Height: 100})
	e.SetCamera(Camera{Position: geom.V(50, 50), Zoom: 2})

	assert.Equal(t, geom.V(50, 50), e.ScreenToWorld(geom.V(100, 50)))
	assert.Equal(t, geom.V(0, 25), e.ScreenToWorld(geom.V(0, 0)))

	p := geom.V(13, 77)
	assert.InDelta(t, p.X, e.ScreenToWorld(e.WorldToScreen(p)).X, 1e-9)
	assert.InDelta(t, p.Y, e.ScreenToWorld(e.WorldToScreen(p)).Y, 1e-9)
}

func TestContains(t *testing.T) {
	e := NewEngine(Viewport{Width: 100, Height: 100})
	assert.True(t, e.Contains(geom.R(geom.V(-10, -10), geom.V(10, 10))))
	assert.False(t, e.Contains(geom.R(geom.V(-10, -10), geom.V(60, 10))))

	e.SetCamera(Camera{Zoom: 0.5})
	assert.True(t, e.Contains(geom.R(geom.V(-10, -10), geom.V(60, 10))))
}

func TestPickOrdersTopmostFirst(t *testing.T) {
	e := NewEngine(Viewport{Width: 100, Height: 100})
	body := NewObject(LayerElement, Box{Rect: geom.RectAround(geom.Vec2{}, 10, 10)}, nil)
	term := NewObject(LayerTerminal, Disc{Radius: 1}, shift{geom.V(5, 0)})
	wire := NewObject(LayerRoute, Line{Ends: func() (geom.Vec2, geom.Vec2) {
		return geom.V(-50, 0), geom.V(50, 0)
	}}, nil)
	e.Add(wire, body, term)
	require.NotZero(t, term.ID())

	hits := e.Pick(e.WorldToScreen(geom.V(5, 0)), 0)
	require.Len(t, hits, 3)
	assert.Same(t, term, hits[0])
	assert.Same(t, body, hits[1])
	assert.Same(t, wire, hits[2])

	hits = e.Pick(e.WorldToScreen(geom.V(30, 0.5)), 1)
	require.Len(t, hits, 1)
	assert.Same(t, wire, hits[0])

	e.Remove(term)
	assert.Zero(t, term.ID())
	assert.Len(t, e.Pick(e.WorldToScreen(geom.V(5, 0)), 0), 2)
}

func TestPickZeroToleranceOnLongWire(t *testing.T) {
	e := NewEngine(Viewport{Width: 100, Height: 100})
	e.SetCamera(Camera{Position: geom.V(0.1, 0.3), Zoom: 0.7})
	wire := NewObject(LayerRoute, Line{Ends: func() (geom.Vec2, geom.Vec2) {
		return geom.V(-50, 0.1), geom.V(50, 0.1)
	}}, nil)
	e.Add(wire)

	for _, x := range []float64{-49.9, -3.3, 5, 17.7, 49.9} {
		hits := e.Pick(e.WorldToScreen(geom.V(x, 0.1)), 0)
		assert.Len(t, hits, 1, "x=%v", x)
	}
	assert.Empty(t, e.Pick(e.WorldToScreen(geom.V(5, 0.2)), 0))
}

func TestObjectWorldBoundsUsesTransform(t *testing.T) {
	o := NewObject(LayerElement, Box{Rect: geom.R(geom.V(0, 0), geom.V(2, 2))}, shift{geom.V(10, 10)})
	b := o.WorldBounds()
	assert.Equal(t, geom.V(10, 10), b.Min)
	assert.Equal(t, geom.V(12, 12), b.Max)
	assert.Equal(t, geom.V(11, 11), o.Center())
}

func TestTickAndCameraWatchers(t *testing.T) {
	e := NewEngine(Viewport{Width: 10, Height: 10})
	u := &countingUpdater{}
	e.AddUpdater(u)

	var seen []Camera
	e.OnCameraChange(func(c Camera) { seen = append(seen, c) })

	e.Tick(16 * time.Millisecond)
	e.Tick(16 * time.Millisecond)
	assert.Equal(t, 2, u.ticks)
	assert.Equal(t, 32*time.Millisecond, u.elapsed)

	e.SetCamera(Camera{Position: geom.V(1, 2), Zoom: 3})
	e.SetCamera(Camera{Position: geom.V(1, 2), Zoom: 3})
	require.Len(t, seen, 1)
	assert.Equal(t, geom.V(1, 2), seen[0].Target)

	e.RemoveUpdater(u)
	e.Tick(time.Millisecond)
	assert.Equal(t, 2, u.ticks)
}
