package scene

import "wiredraw/internal/geom"

type Tone int

const (
	ToneNormal Tone = iota
	ToneSelected
	ToneHover
	ToneGrid
	TonePreview
)

type Style struct {
	Tone Tone
	Fill bool
}

// Painter draws world-space primitives. Implementations decide how world
// space maps onto their surface.
type Painter interface {
	Line(a, b geom.Vec2, st Style)
	Rect(r geom.Rect, st Style)
	Circle(c geom.Vec2, radius float64, st Style)
	Text(at geom.Vec2, s string, st Style)
}

// Paintable is anything that can draw itself.
type Paintable interface {
	Paint(p Painter)
}
