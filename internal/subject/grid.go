package subject

import (
	"math"
	"time"

	"wiredraw/internal/geom"
	"wiredraw/internal/scene"
)

// GridUID is the fixed uid of the backdrop subject.
const GridUID = "grid"

type gridBucket struct {
	minZoom   float64
	divisions int
}

// Eight zoom ranges, each doubling the line density of the previous one.
var gridBuckets = [8]gridBucket{
	{0, 4},
	{0.25, 8},
	{0.5, 16},
	{1, 32},
	{2, 64},
	{4, 128},
	{8, 256},
	{16, 512},
}

// GridDivisions picks the division count for a camera zoom.
func GridDivisions(zoom float64) int {
	d := gridBuckets[0].divisions
	for _, b := range gridBuckets {
		if zoom >= b.minZoom {
			d = b.divisions
		}
	}
	return d
}

// Grid is the non-interactive backdrop. It only redraws when the camera
// crosses into a different zoom bucket.
type Grid struct {
	engine    *scene.Engine
	extent    float64
	divisions int
	redraws   int
}

// NewGrid covers a square of side extent centered on the world origin.
func NewGrid(engine *scene.Engine, extent float64) *Grid {
	g := &Grid{engine: engine, extent: extent}
	g.Update(0)
	return g
}

func (g *Grid) UID() string              { return GridUID }
func (g *Grid) Kind() Kind               { return KindGrid }
func (g *Grid) Capabilities() Capability { return 0 }
func (g *Grid) Objects() []*scene.Object { return nil }
func (g *Grid) Owns(*scene.Object) bool  { return false }
func (g *Grid) Selected() bool           { return false }
func (g *Grid) SetSelected(bool)         {}
func (g *Grid) Divisions() int           { return g.divisions }
func (g *Grid) Redraws() int             { return g.redraws }
func (g *Grid) Spacing() float64         { return g.extent / float64(g.divisions) }
func (g *Grid) Bounds() geom.Rect        { return geom.RectAround(geom.Vec2{}, g.extent, g.extent) }

func (g *Grid) Update(time.Duration) {
	d := GridDivisions(g.engine.Camera().Zoom)
	if d == g.divisions {
		return
	}
	g.divisions = d
	g.redraws++
}

// Paint draws only the lines inside the visible part of the grid.
func (g *Grid) Paint(p scene.Painter) {
	area := g.Bounds()
	vis := g.engine.VisibleRect()
	if !area.Intersects(vis) {
		return
	}
	step := g.Spacing()
	st := scene.Style{Tone: scene.ToneGrid}
	x0 := math.Max(area.Min.X, math.Floor(vis.Min.X/step)*step)
	x1 := math.Min(area.Max.X, vis.Max.X)
	y0 := math.Max(area.Min.Y, math.Floor(vis.Min.Y/step)*step)
	y1 := math.Min(area.Max.Y, vis.Max.Y)
	for x := x0; x <= x1; x += step {
		p.Line(geom.V(x, y0), geom.V(x, y1), st)
	}
	for y := y0; y <= y1; y += step {
		p.Line(geom.V(x0, y), geom.V(x1, y), st)
	}
}
