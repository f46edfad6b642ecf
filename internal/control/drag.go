package control

import (
	"time"

	"github.com/golang/glog"

	"wiredraw/internal/geom"
	"wiredraw/internal/state"
	"wiredraw/internal/subject"
)

// Drag moves draggable subjects under the pointer. Dragging a selected
// subject moves the whole selection.
type Drag struct {
	base
	picker

	latched subject.Dragger
	group   []subject.Dragger
	origin  geom.Vec2
	moved   bool
}

func NewDrag(sync *state.Synchronizer, pickRadius float64) *Drag {
	return &Drag{base: base{enabled: true}, picker: picker{sync: sync, radius: pickRadius}}
}

// Active reports whether a drag gesture is in progress.
func (d *Drag) Active() bool { return d.latched != nil }

func (d *Drag) Handle(ev *Event) {
	switch ev.Kind {
	case Press:
		if ev.Consumed() {
			return
		}
		d.press(ev)
	case Move:
		if d.latched == nil {
			return
		}
		total := d.world(ev.Screen).Sub(d.origin)
		for _, s := range d.group {
			s.DragOffset(total)
		}
		d.moved = d.moved || !total.Near(geom.Vec2{})
	case Release:
		if d.latched == nil {
			return
		}
		d.release(ev)
	case Key:
		if ev.Key == "esc" && d.latched != nil {
			d.cancel()
			ev.Consume()
		}
	}
}

func (d *Drag) press(ev *Event) {
	sub := d.first(ev.Screen, subject.IsDraggable)
	dr, ok := sub.(subject.Dragger)
	if !ok {
		return
	}
	d.latched = dr
	d.group = []subject.Dragger{dr}
	if d.sync.IsSelected(dr) {
		d.group = d.group[:0]
		for _, s := range d.sync.Selection() {
			if g, ok := s.(subject.Dragger); ok && subject.IsDraggable(g) {
				d.group = append(d.group, g)
			}
		}
	}
	d.origin = d.world(ev.Screen)
	d.moved = false
	for _, s := range d.group {
		s.BeginDrag()
	}
	ev.Consume()
}

func (d *Drag) release(ev *Event) {
	if !d.moved {
		d.cancel()
		return
	}
	subs := make([]subject.Subject, 0, len(d.group))
	for _, s := range d.group {
		subs = append(subs, s)
	}
	if d.sync.CommitDrag(subs) {
		glog.V(2).Infof("control: drag committed %d subjects", len(subs))
	}
	d.reset()
	ev.Consume()
}

func (d *Drag) cancel() {
	for _, s := range d.group {
		s.CancelDrag()
	}
	d.reset()
}

func (d *Drag) reset() {
	d.latched = nil
	d.group = nil
	d.moved = false
}

func (d *Drag) Update(time.Duration) {}
