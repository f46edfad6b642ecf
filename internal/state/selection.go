package state

import (
	"slices"

	"wiredraw/internal/geom"
	"wiredraw/internal/subject"
)

// Selection returns the selected subjects in selection order.
func (s *Synchronizer) Selection() []subject.Subject {
	return slices.Clone(s.selection)
}

// SelectedUIDs returns the uids of the selection in selection order.
func (s *Synchronizer) SelectedUIDs() []string {
	uids := make([]string, 0, len(s.selection))
	for _, sub := range s.selection {
		uids = append(uids, sub.UID())
	}
	return uids
}

func (s *Synchronizer) IsSelected(sub subject.Subject) bool {
	return slices.Contains(s.selection, sub)
}

// SelectionBounds covers every selected subject.
func (s *Synchronizer) SelectionBounds() geom.Rect {
	r := geom.EmptyRect()
	for _, sub := range s.selection {
		r = r.Union(sub.Bounds())
	}
	return r
}

// SelectSubject adds sub to the selection. Subjects without the selectable
// capability are ignored. silent suppresses the change notification.
func (s *Synchronizer) SelectSubject(sub subject.Subject, silent bool) {
	if !subject.IsSelectable(sub) || s.IsSelected(sub) {
		return
	}
	sub.SetSelected(true)
	s.selection = append(s.selection, sub)
	s.selectionChanged(silent)
}

func (s *Synchronizer) UnselectSubject(sub subject.Subject, silent bool) {
	if !s.IsSelected(sub) {
		return
	}
	sub.SetSelected(false)
	s.selection = slices.DeleteFunc(s.selection, func(x subject.Subject) bool { return x == sub })
	s.selectionChanged(silent)
}

// ToggleSubject flips sub in or out of the selection.
func (s *Synchronizer) ToggleSubject(sub subject.Subject, silent bool) {
	if s.IsSelected(sub) {
		s.UnselectSubject(sub, silent)
		return
	}
	s.SelectSubject(sub, silent)
}

// SelectExclusive makes sub the only selected subject.
func (s *Synchronizer) SelectExclusive(sub subject.Subject, silent bool) {
	if !subject.IsSelectable(sub) {
		return
	}
	if len(s.selection) == 1 && s.selection[0] == sub {
		return
	}
	s.UnselectAll(true)
	s.SelectSubject(sub, silent)
}

func (s *Synchronizer) SelectAll(silent bool) {
	changed := false
	for _, sub := range s.Selectables() {
		if s.IsSelected(sub) {
			continue
		}
		sub.SetSelected(true)
		s.selection = append(s.selection, sub)
		changed = true
	}
	if changed {
		s.selectionChanged(silent)
	}
}

func (s *Synchronizer) UnselectAll(silent bool) {
	if len(s.selection) == 0 {
		return
	}
	for _, sub := range s.selection {
		sub.SetSelected(false)
	}
	s.selection = nil
	s.selectionChanged(silent)
}

// NotifySelection fires the selection callback, closing a batch of silent
// selection calls.
func (s *Synchronizer) NotifySelection() {
	s.selectionChanged(false)
}

func (s *Synchronizer) selectionChanged(silent bool) {
	if silent || s.onSelectionChanged == nil {
		return
	}
	s.onSelectionChanged(s.SelectedUIDs())
}

// live reports whether a selected subject is still mounted.
func (s *Synchronizer) live(sub subject.Subject) bool {
	switch v := sub.(type) {
	case *subject.Segment:
		r, ok := s.Route(v.Route().UID())
		return ok && r == v.Route() && r.Contains(v)
	default:
		cur, ok := s.subjects[sub.UID()]
		return ok && cur == sub
	}
}

// pruneSelection drops selected subjects that are no longer mounted.
func (s *Synchronizer) pruneSelection() {
	n := len(s.selection)
	s.selection = slices.DeleteFunc(s.selection, func(sub subject.Subject) bool {
		if s.live(sub) {
			return false
		}
		sub.SetSelected(false)
		return true
	})
	if len(s.selection) != n {
		s.selectionChanged(false)
	}
}
