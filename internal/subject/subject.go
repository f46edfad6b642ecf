// Package subject holds the live scene representations of document
// entities. Each subject owns its render objects and knows how to draw,
// highlight, and preview-move itself.
package subject

import (
	"time"

	"wiredraw/internal/geom"
	"wiredraw/internal/scene"
)

type Kind int

const (
	KindElement Kind = iota
	KindRoute
	KindSegment
	KindGrid
)

func (k Kind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindRoute:
		return "route"
	case KindSegment:
		return "segment"
	case KindGrid:
		return "grid"
	}
	return "unknown"
}

type Capability uint8

const (
	Draggable Capability = 1 << iota
	Selectable
)

func (c Capability) Has(o Capability) bool {
	return c&o == o
}

type Subject interface {
	UID() string
	Kind() Kind
	Capabilities() Capability
	Objects() []*scene.Object
	Owns(o *scene.Object) bool
	Bounds() geom.Rect
	Selected() bool
	SetSelected(on bool)
	Update(elapsed time.Duration)
	Paint(p scene.Painter)
}

// Dragger is implemented by subjects that preview-move under the cursor.
// DragOffset takes the total world-space offset since BeginDrag.
type Dragger interface {
	Subject
	BeginDrag()
	DragOffset(total geom.Vec2)
	CancelDrag()
	Dragging() bool
}

func IsDraggable(s Subject) bool {
	return s != nil && s.Capabilities().Has(Draggable)
}

func IsSelectable(s Subject) bool {
	return s != nil && s.Capabilities().Has(Selectable)
}

func tone(selected bool) scene.Style {
	if selected {
		return scene.Style{Tone: scene.ToneSelected}
	}
	return scene.Style{}
}
