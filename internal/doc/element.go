package doc

import (
	"maps"
	"slices"

	"wiredraw/internal/geom"
)

type SymbolKind string

const (
	KindSymbol SymbolKind = "symbol"
	KindModule SymbolKind = "module"
	KindBranch SymbolKind = "branch"
)

// BranchTerminalUID is the single terminal every branch point carries.
const BranchTerminalUID = "branch"

// Terminal is a connection point. X and Y are relative to the owning
// element's center before orientation and flip are applied.
type Terminal struct {
	UID  string  `json:"uid" yaml:"uid"`
	Name string  `json:"name,omitempty" yaml:"name,omitempty"`
	Type string  `json:"type,omitempty" yaml:"type,omitempty"`
	X    float64 `json:"x" yaml:"x"`
	Y    float64 `json:"y" yaml:"y"`
}

func (t Terminal) Local() geom.Vec2 {
	return geom.V(t.X, t.Y)
}

// PartVersion is the snapshot of a library part an element was placed from.
type PartVersion struct {
	PartUID   string     `json:"part_uid" yaml:"uid"`
	Version   string     `json:"version" yaml:"version"`
	Name      string     `json:"name" yaml:"name"`
	Kind      SymbolKind `json:"kind" yaml:"kind"`
	Symbol    string     `json:"symbol,omitempty" yaml:"symbol,omitempty"`
	Width     float64    `json:"width" yaml:"width"`
	Height    float64    `json:"height" yaml:"height"`
	Terminals []Terminal `json:"terminals" yaml:"terminals"`
}

func (p PartVersion) Clone() PartVersion {
	p.Terminals = slices.Clone(p.Terminals)
	return p
}

func (p PartVersion) Equal(o PartVersion) bool {
	return p.PartUID == o.PartUID && p.Version == o.Version && p.Name == o.Name &&
		p.Kind == o.Kind && p.Symbol == o.Symbol && p.Width == o.Width && p.Height == o.Height &&
		slices.Equal(p.Terminals, o.Terminals)
}

// Position places an element on the diagram. Orientation counts clockwise
// quarter turns; Flip mirrors the part before it is rotated.
type Position struct {
	X           float64 `json:"x"`
	Y           float64 `json:"y"`
	Orientation int     `json:"orientation"`
	Flip        bool    `json:"flip"`
}

func (p Position) Origin() geom.Vec2 {
	return geom.V(p.X, p.Y)
}

// Apply maps a part-local point into world space.
func (p Position) Apply(local geom.Vec2) geom.Vec2 {
	if p.Flip {
		local = local.MirrorX()
	}
	return local.RotateQuarter(p.Orientation).Add(p.Origin())
}

// Invert maps a world point back into part-local space.
func (p Position) Invert(world geom.Vec2) geom.Vec2 {
	local := world.Sub(p.Origin()).RotateQuarter(-p.Orientation)
	if p.Flip {
		local = local.MirrorX()
	}
	return local
}

// Rotated turns the element by quarter turns about its own origin. A
// flipped element turns the other way so the on-screen direction matches
// what the user asked for.
func (p Position) Rotated(turns int) Position {
	if p.Flip {
		turns = -turns
	}
	p.Orientation = (((p.Orientation + turns) % 4) + 4) % 4
	return p
}

type Element struct {
	UID        string            `json:"uid"`
	Part       PartVersion       `json:"part"`
	Position   Position          `json:"position"`
	Properties map[string]string `json:"properties,omitempty"`
}

// NewElement places a part snapshot at the given point.
func NewElement(part PartVersion, at geom.Vec2) *Element {
	return &Element{
		UID:        NewUID(),
		Part:       part.Clone(),
		Position:   Position{X: at.X, Y: at.Y},
		Properties: make(map[string]string),
	}
}

// BranchPart is the synthetic part used for branch points.
func BranchPart() PartVersion {
	return PartVersion{
		PartUID:   "branch",
		Version:   "1",
		Name:      "Branch",
		Kind:      KindBranch,
		Terminals: []Terminal{{UID: BranchTerminalUID}},
	}
}

// NewBranchElement creates a branch point at the given world position.
func NewBranchElement(at geom.Vec2) *Element {
	return NewElement(BranchPart(), at)
}

func (e *Element) IsBranch() bool {
	return e.Part.Kind == KindBranch
}

func (e *Element) Terminal(uid string) (Terminal, bool) {
	for _, t := range e.Part.Terminals {
		if t.UID == uid {
			return t, true
		}
	}
	return Terminal{}, false
}

// TerminalWorld returns a terminal's position on the diagram.
func (e *Element) TerminalWorld(uid string) (geom.Vec2, bool) {
	t, ok := e.Terminal(uid)
	if !ok {
		return geom.Vec2{}, false
	}
	return e.Position.Apply(t.Local()), true
}

// LocalBounds is the part's body box around its own center.
func (e *Element) LocalBounds() geom.Rect {
	return geom.RectAround(geom.Vec2{}, e.Part.Width, e.Part.Height)
}

// Bounds is the world-space box of the transformed body.
func (e *Element) Bounds() geom.Rect {
	r := geom.EmptyRect()
	for _, c := range e.LocalBounds().Corners() {
		r = r.Extend(e.Position.Apply(c))
	}
	return r
}

func (e *Element) Clone() *Element {
	if e == nil {
		return nil
	}
	c := *e
	c.Part = e.Part.Clone()
	c.Properties = maps.Clone(e.Properties)
	return &c
}

func (e *Element) Equal(o *Element) bool {
	if e == nil || o == nil {
		return e == o
	}
	return e.UID == o.UID && e.Position == o.Position && e.Part.Equal(o.Part) &&
		maps.Equal(e.Properties, o.Properties)
}
