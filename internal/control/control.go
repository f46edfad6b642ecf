// Package control turns raw pointer and key input into edits. Every enabled
// control sees every event in order; a control that acts on an event marks
// it consumed so later controls can stand back.
package control

import (
	"time"

	"wiredraw/internal/doc"
	"wiredraw/internal/geom"
	"wiredraw/internal/scene"
	"wiredraw/internal/state"
	"wiredraw/internal/subject"
)

type EventKind int

const (
	Press EventKind = iota
	Move
	Release
	Wheel
	Key
)

func (k EventKind) String() string {
	switch k {
	case Press:
		return "press"
	case Move:
		return "move"
	case Release:
		return "release"
	case Wheel:
		return "wheel"
	case Key:
		return "key"
	}
	return "unknown"
}

type Modifiers uint8

const (
	Shift Modifiers = 1 << iota
	Ctrl
	Alt
)

func (m Modifiers) Has(o Modifiers) bool {
	return m&o == o
}

// Event is one input event in viewport pixels. Wheel events carry the
// number of notches in Delta, positive to zoom in. Key events carry the
// key name, e.g. "esc", "ctrl+c", "r".
type Event struct {
	Kind   EventKind
	Screen geom.Vec2
	Delta  float64
	Key    string
	Mods   Modifiers

	consumed bool
}

func (e *Event) Consume()       { e.consumed = true }
func (e *Event) Consumed() bool { return e.consumed }

// Additive reports whether the multi-select modifier is held.
func (e *Event) Additive() bool {
	return e.Mods.Has(Shift) || e.Mods.Has(Ctrl)
}

type Control interface {
	Enabled() bool
	SetEnabled(on bool)
	Handle(ev *Event)
	Update(elapsed time.Duration)
}

type base struct {
	enabled bool
}

func (b *base) Enabled() bool      { return b.enabled }
func (b *base) SetEnabled(on bool) { b.enabled = on }

// Set dispatches events to controls in a fixed order.
type Set struct {
	controls []Control
}

func NewSet(controls ...Control) *Set {
	return &Set{controls: controls}
}

// Dispatch hands ev to every enabled control and reports whether any of
// them consumed it.
func (s *Set) Dispatch(ev *Event) bool {
	for _, c := range s.controls {
		if c.Enabled() {
			c.Handle(ev)
		}
	}
	return ev.Consumed()
}

func (s *Set) Update(elapsed time.Duration) {
	for _, c := range s.controls {
		if c.Enabled() {
			c.Update(elapsed)
		}
	}
}

// Paint draws control overlays such as the selection box and the route
// preview.
func (s *Set) Paint(p scene.Painter) {
	for _, c := range s.controls {
		if pc, ok := c.(scene.Paintable); ok && c.Enabled() {
			pc.Paint(p)
		}
	}
}

// picker hit-tests the scene on behalf of a control.
type picker struct {
	sync   *state.Synchronizer
	radius float64
}

func (p picker) world(screen geom.Vec2) geom.Vec2 {
	return p.sync.Engine().ScreenToWorld(screen)
}

func (p picker) hits(screen geom.Vec2) []*scene.Object {
	return p.sync.Engine().Pick(screen, p.radius)
}

// first returns the topmost subject under screen accepted by keep.
func (p picker) first(screen geom.Vec2, keep func(subject.Subject) bool) subject.Subject {
	for _, o := range p.hits(screen) {
		sub, ok := p.sync.SubjectForObject(o)
		if ok && keep(sub) {
			return sub
		}
	}
	return nil
}

func (p picker) terminal(screen geom.Vec2) (doc.Endpoint, bool) {
	for _, o := range p.hits(screen) {
		if ep, ok := p.sync.TerminalForObject(o); ok {
			return ep, true
		}
	}
	return doc.Endpoint{}, false
}

func (p picker) segment(screen geom.Vec2) *subject.Segment {
	sub := p.first(screen, func(s subject.Subject) bool { return s.Kind() == subject.KindSegment })
	seg, _ := sub.(*subject.Segment)
	return seg
}
