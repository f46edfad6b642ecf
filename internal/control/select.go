package control

import (
	"errors"
	"time"

	"github.com/golang/glog"

	"wiredraw/internal/clipboard"
	"wiredraw/internal/doc"
	"wiredraw/internal/geom"
	"wiredraw/internal/state"
	"wiredraw/internal/subject"
)

// Select handles click selection and the keyboard commands that act on the
// selection.
type Select struct {
	base
	picker

	clip   *clipboard.Service
	cursor geom.Vec2
}

// NewSelect registers the control as the clipboard's paste listener.
func NewSelect(sync *state.Synchronizer, clip *clipboard.Service, pickRadius float64) *Select {
	s := &Select{base: base{enabled: true}, picker: picker{sync: sync, radius: pickRadius}, clip: clip}
	if clip != nil {
		clip.Init(s.pasted)
	}
	return s
}

func (s *Select) Handle(ev *Event) {
	switch ev.Kind {
	case Move, Press:
		s.cursor = s.world(ev.Screen)
	case Release:
		s.cursor = s.world(ev.Screen)
		if ev.Consumed() {
			return
		}
		s.click(ev)
	case Key:
		if ev.Consumed() {
			return
		}
		if s.command(ev.Key) {
			ev.Consume()
		}
	}
}

func (s *Select) click(ev *Event) {
	hit := s.first(ev.Screen, subject.IsSelectable)
	switch {
	case hit == nil:
		s.sync.UnselectAll(false)
	case ev.Additive():
		s.sync.ToggleSubject(hit, false)
	default:
		s.sync.SelectExclusive(hit, false)
	}
	ev.Consume()
}

// command runs a keyboard command and reports whether key was one.
func (s *Select) command(key string) bool {
	switch key {
	case "ctrl+c":
		s.Copy()
	case "ctrl+x":
		s.Cut()
	case "ctrl+v":
		s.Paste()
	case "ctrl+a":
		s.sync.SelectAll(false)
	case "r":
		s.sync.RotateSelection(true)
	case "R", "shift+r":
		s.sync.RotateSelection(false)
	case "f":
		s.sync.FlipSelection()
	case "delete", "backspace":
		s.sync.DeleteSelection()
	case "esc":
		s.sync.UnselectAll(false)
	default:
		return false
	}
	return true
}

// Copy serializes the selection to the clipboard.
func (s *Select) Copy() bool {
	if s.clip == nil {
		return false
	}
	elements, routes := s.sync.CopySelection()
	if len(elements) == 0 && len(routes) == 0 {
		return false
	}
	if err := s.clip.Copy(elements, routes); err != nil {
		glog.Errorf("control: copy: %v", err)
		return false
	}
	return true
}

// Cut copies then deletes the selection.
func (s *Select) Cut() bool {
	if !s.Copy() {
		return false
	}
	return s.sync.DeleteSelection()
}

// Paste drops the clipboard contents at the last known cursor position.
func (s *Select) Paste() {
	if s.clip == nil {
		return
	}
	if _, err := s.clip.Paste(s.cursor); err != nil && !errors.Is(err, clipboard.ErrEmpty) {
		glog.Errorf("control: paste: %v", err)
	}
}

func (s *Select) pasted(elements []*doc.Element, routes []*doc.Route) {
	s.sync.PasteItems(elements, routes)
}

func (s *Select) Update(time.Duration) {}
