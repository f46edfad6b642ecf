package control

import (
	"time"

	"wiredraw/internal/geom"
	"wiredraw/internal/scene"
	"wiredraw/internal/state"
)

// minBoxPx is the smallest drag, in pixels, that counts as a box rather
// than a click.
const minBoxPx = 2

// SelectBox is the rubber-band selection.
type SelectBox struct {
	base
	sync *state.Synchronizer

	active     bool
	start, end geom.Vec2
	world      geom.Rect
}

func NewSelectBox(sync *state.Synchronizer) *SelectBox {
	return &SelectBox{base: base{enabled: true}, sync: sync}
}

func (b *SelectBox) Active() bool { return b.active }

// World is the box in world coordinates.
func (b *SelectBox) World() geom.Rect { return b.world }

func (b *SelectBox) Handle(ev *Event) {
	switch ev.Kind {
	case Press:
		if ev.Consumed() {
			return
		}
		b.active = true
		b.start, b.end = ev.Screen, ev.Screen
		b.project()
	case Move:
		if !b.active {
			return
		}
		b.end = ev.Screen
		b.project()
	case Release:
		if !b.active {
			return
		}
		b.end = ev.Screen
		b.project()
		b.active = false
		if b.start.Dist(b.end) < minBoxPx {
			return
		}
		b.apply(ev.Additive())
		ev.Consume()
	case Key:
		if ev.Key == "esc" && b.active {
			b.active = false
			ev.Consume()
		}
	}
}

// project converts both screen corners to world space through the current
// camera.
func (b *SelectBox) project() {
	eng := b.sync.Engine()
	b.world = geom.R(eng.ScreenToWorld(b.start), eng.ScreenToWorld(b.end))
}

// apply selects every selectable the box touches, in registry order.
// Without the modifier each hit replaces the previous one.
func (b *SelectBox) apply(additive bool) {
	visible := b.sync.Engine().VisibleRect()
	for _, sub := range b.sync.Selectables() {
		bounds := sub.Bounds()
		if !bounds.Intersects(visible) || !bounds.Intersects(b.world) {
			continue
		}
		if additive {
			b.sync.SelectSubject(sub, true)
		} else {
			b.sync.SelectExclusive(sub, true)
		}
	}
	b.sync.NotifySelection()
}

// Update re-projects the box so it tracks camera moves mid-gesture.
func (b *SelectBox) Update(time.Duration) {
	if b.active {
		b.project()
	}
}

func (b *SelectBox) Paint(p scene.Painter) {
	if !b.active || b.start.Dist(b.end) < minBoxPx {
		return
	}
	p.Rect(b.world, scene.Style{Tone: scene.TonePreview})
}
