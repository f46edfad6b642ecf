package subject

import (
	"time"

	"wiredraw/internal/doc"
	"wiredraw/internal/geom"
	"wiredraw/internal/scene"
)

const (
	// TerminalRadius is the click-target radius around each terminal.
	TerminalRadius = 0.5
	branchRadius   = 0.35
	pinLength      = 1.0
)

// placement is the live element transform: the document position plus
// any uncommitted drag preview.
type placement struct {
	el *Element
}

func (p placement) current() doc.Position {
	pos := p.el.data.Position
	pos.X += p.el.preview.X
	pos.Y += p.el.preview.Y
	return pos
}

func (p placement) Apply(local geom.Vec2) geom.Vec2 {
	return p.current().Apply(local)
}

func (p placement) Invert(world geom.Vec2) geom.Vec2 {
	return p.current().Invert(world)
}

// body draws one element variant in part-local space.
type body interface {
	variant() string
	shape(e *doc.Element) scene.Shape
	paint(p scene.Painter, el *Element, st scene.Style)
}

// Element is the live subject for a placed part. Orientation and flip are
// carried by the transform; geometry is never rebuilt for them.
type Element struct {
	data     *doc.Element
	body     body
	xf       placement
	bodyObj  *scene.Object
	termObjs []*scene.Object

	preview  geom.Vec2
	dragging bool
	selected bool
	hover    string
	revision int
}

func NewElement(data *doc.Element) *Element {
	e := &Element{data: data}
	e.xf = placement{el: e}
	e.build()
	return e
}

func bodyFor(kind doc.SymbolKind) body {
	switch kind {
	case doc.KindModule:
		return moduleBody{}
	case doc.KindBranch:
		return branchBody{}
	}
	return symbolBody{}
}

func (e *Element) build() {
	e.body = bodyFor(e.data.Part.Kind)
	e.bodyObj = scene.NewObject(scene.LayerElement, e.body.shape(e.data), e.xf)
	e.termObjs = e.termObjs[:0]
	for _, t := range e.data.Part.Terminals {
		o := scene.NewObject(scene.LayerTerminal, scene.Disc{Center: t.Local(), Radius: TerminalRadius}, e.xf)
		o.Tag = t.UID
		e.termObjs = append(e.termObjs, o)
	}
}

func (e *Element) UID() string              { return e.data.UID }
func (e *Element) Kind() Kind               { return KindElement }
func (e *Element) Capabilities() Capability { return Draggable | Selectable }
func (e *Element) Data() *doc.Element       { return e.data }
func (e *Element) Variant() string          { return e.body.variant() }
func (e *Element) Revision() int            { return e.revision }
func (e *Element) Selected() bool           { return e.selected }
func (e *Element) SetSelected(on bool)      { e.selected = on }
func (e *Element) IsBranch() bool           { return e.data.IsBranch() }

func (e *Element) Objects() []*scene.Object {
	return append([]*scene.Object{e.bodyObj}, e.termObjs...)
}

func (e *Element) Owns(o *scene.Object) bool {
	if o == e.bodyObj {
		return true
	}
	for _, t := range e.termObjs {
		if t == o {
			return true
		}
	}
	return false
}

// TerminalFor returns the terminal behind a click-target object.
func (e *Element) TerminalFor(o *scene.Object) (doc.Terminal, bool) {
	for _, t := range e.termObjs {
		if t == o {
			return e.data.Terminal(t.Tag)
		}
	}
	return doc.Terminal{}, false
}

// Position is the live position including any drag preview.
func (e *Element) Position() doc.Position {
	return e.xf.current()
}

// TerminalWorld is the live world position of a terminal.
func (e *Element) TerminalWorld(uid string) (geom.Vec2, bool) {
	t, ok := e.data.Terminal(uid)
	if !ok {
		return geom.Vec2{}, false
	}
	return e.xf.Apply(t.Local()), true
}

func (e *Element) Bounds() geom.Rect {
	return e.bodyObj.WorldBounds()
}

// SetHoverTerminal highlights one terminal as a drop target; "" clears.
func (e *Element) SetHoverTerminal(uid string) {
	e.hover = uid
}

func (e *Element) HoverTerminal() string {
	return e.hover
}

// Resync swaps in new element data. Click targets are rebuilt only when
// the part itself changed.
func (e *Element) Resync(data *doc.Element) []*scene.Object {
	partChanged := !data.Part.Equal(e.data.Part)
	e.data = data
	e.preview = geom.Vec2{}
	e.dragging = false
	e.revision++
	if !partChanged {
		return nil
	}
	old := e.Objects()
	e.build()
	return old
}

func (e *Element) BeginDrag() {
	e.dragging = true
	e.preview = geom.Vec2{}
}

func (e *Element) DragOffset(total geom.Vec2) {
	if !e.dragging {
		return
	}
	e.preview = total
}

func (e *Element) CancelDrag() {
	e.dragging = false
	e.preview = geom.Vec2{}
}

func (e *Element) Dragging() bool {
	return e.dragging
}

// CommitDrag writes the previewed position into the element data and
// reports whether it moved.
func (e *Element) CommitDrag() bool {
	if !e.dragging {
		return false
	}
	moved := e.preview != (geom.Vec2{})
	e.data.Position.X += e.preview.X
	e.data.Position.Y += e.preview.Y
	e.preview = geom.Vec2{}
	e.dragging = false
	return moved
}

func (e *Element) Update(time.Duration) {}

func (e *Element) label() string {
	if d := e.data.Properties["designator"]; d != "" {
		return d
	}
	return e.data.Part.Name
}

func (e *Element) Paint(p scene.Painter) {
	st := tone(e.selected)
	e.body.paint(p, e, st)
	for _, t := range e.data.Part.Terminals {
		at := e.xf.Apply(t.Local())
		ts := st
		if t.UID == e.hover {
			ts = scene.Style{Tone: scene.ToneHover, Fill: true}
		}
		if !e.IsBranch() || t.UID == e.hover {
			p.Circle(at, TerminalRadius/2, ts)
		}
	}
}

// symbolBody renders a standard part from its symbol asset reference.
type symbolBody struct{}

func (symbolBody) variant() string { return "symbol" }

func (symbolBody) shape(d *doc.Element) scene.Shape {
	return scene.Box{Rect: d.LocalBounds()}
}

func (symbolBody) paint(p scene.Painter, el *Element, st scene.Style) {
	b := el.Bounds()
	p.Rect(b, st)
	text := el.label()
	if el.data.Part.Symbol != "" {
		text = el.data.Part.Symbol + " " + text
	}
	p.Text(b.Center(), text, st)
}

// moduleBody draws a box with a pin stub per terminal.
type moduleBody struct{}

func (moduleBody) variant() string { return "module" }

func (moduleBody) shape(d *doc.Element) scene.Shape {
	return scene.Box{Rect: d.LocalBounds()}
}

func (moduleBody) paint(p scene.Painter, el *Element, st scene.Style) {
	local := el.data.LocalBounds()
	inner := local.Expand(-pinLength)
	if inner.Width() <= 0 || inner.Height() <= 0 {
		inner = local
	}
	p.Rect(geom.BoundsOf(el.xf.Apply(inner.Min), el.xf.Apply(inner.Max)), st)
	for _, t := range el.data.Part.Terminals {
		tip := t.Local()
		root := geom.V(geom.Clamp(tip.X, inner.Min.X, inner.Max.X), geom.Clamp(tip.Y, inner.Min.Y, inner.Max.Y))
		p.Line(el.xf.Apply(root), el.xf.Apply(tip), st)
		if t.Name != "" {
			p.Text(el.xf.Apply(root.Add(tip).Scale(0.5)), t.Name, st)
		}
	}
	p.Text(el.Bounds().Center(), el.label(), st)
}

// branchBody is the junction dot of a branch point.
type branchBody struct{}

func (branchBody) variant() string { return "branch" }

func (branchBody) shape(*doc.Element) scene.Shape {
	return scene.Disc{Radius: branchRadius}
}

func (branchBody) paint(p scene.Painter, el *Element, st scene.Style) {
	st.Fill = true
	p.Circle(el.xf.Apply(geom.Vec2{}), branchRadius, st)
}
