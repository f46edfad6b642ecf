// Package history keeps undo and redo stacks of committed document edits.
package history

import (
	"wiredraw/internal/doc"
)

type ActionType int

const (
	ActionEdit ActionType = iota
	ActionAddElement
	ActionDeleteElement
	ActionMoveElement
	ActionAddRoute
	ActionDeleteRoute
	ActionEditRoute
	ActionPaste
)

func (t ActionType) String() string {
	switch t {
	case ActionAddElement:
		return "add element"
	case ActionDeleteElement:
		return "delete"
	case ActionMoveElement:
		return "move"
	case ActionAddRoute:
		return "add route"
	case ActionDeleteRoute:
		return "delete route"
	case ActionEditRoute:
		return "edit route"
	case ActionPaste:
		return "paste"
	}
	return "edit"
}

// Action is one undoable edit. Data is the document after the edit and
// Inverse the document before it.
type Action struct {
	Type    ActionType
	Data    *doc.Document
	Inverse *doc.Document
}

const DefaultLimit = 100

type History struct {
	undoStack []Action
	redoStack []Action
	limit     int
}

// New returns a history keeping at most limit undo steps. A limit of zero
// or less uses DefaultLimit.
func New(limit int) *History {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &History{limit: limit}
}

// Record pushes an edit and clears the redo stack. Edits that leave the
// content unchanged are ignored.
func (h *History) Record(before, after *doc.Document) bool {
	if before == nil || after == nil || before.SameContent(after) {
		return false
	}
	h.undoStack = append(h.undoStack, Action{
		Type:    Classify(before, after),
		Data:    after.Clone(),
		Inverse: before.Clone(),
	})
	if over := len(h.undoStack) - h.limit; over > 0 {
		h.undoStack = append(h.undoStack[:0], h.undoStack[over:]...)
	}
	h.redoStack = h.redoStack[:0]
	return true
}

// Undo pops the last edit and returns the document to restore.
func (h *History) Undo() (*doc.Document, ActionType, bool) {
	if len(h.undoStack) == 0 {
		return nil, ActionEdit, false
	}
	lastIndex := len(h.undoStack) - 1
	action := h.undoStack[lastIndex]
	h.undoStack = h.undoStack[:lastIndex]
	h.redoStack = append(h.redoStack, action)
	return action.Inverse.Clone(), action.Type, true
}

// Redo reapplies the last undone edit.
func (h *History) Redo() (*doc.Document, ActionType, bool) {
	if len(h.redoStack) == 0 {
		return nil, ActionEdit, false
	}
	lastIndex := len(h.redoStack) - 1
	action := h.redoStack[lastIndex]
	h.redoStack = h.redoStack[:lastIndex]
	h.undoStack = append(h.undoStack, action)
	return action.Data.Clone(), action.Type, true
}

func (h *History) CanUndo() bool { return len(h.undoStack) > 0 }
func (h *History) CanRedo() bool { return len(h.redoStack) > 0 }
func (h *History) Len() int      { return len(h.undoStack) }

func (h *History) Clear() {
	h.undoStack = nil
	h.redoStack = nil
}

// Classify names the edit between two revisions of a document.
func Classify(before, after *doc.Document) ActionType {
	var added, removed, moved int
	for uid, e := range after.Elements {
		old, ok := before.Elements[uid]
		switch {
		case !ok:
			added++
		case old.Position != e.Position:
			moved++
		}
	}
	for uid := range before.Elements {
		if _, ok := after.Elements[uid]; !ok {
			removed++
		}
	}
	var routesAdded, routesRemoved, routesEdited int
	for uid, r := range after.Routes {
		old, ok := before.Routes[uid]
		switch {
		case !ok:
			routesAdded++
		case !old.Equal(r):
			routesEdited++
		}
	}
	for uid := range before.Routes {
		if _, ok := after.Routes[uid]; !ok {
			routesRemoved++
		}
	}

	switch {
	case removed > 0 && added == 0:
		return ActionDeleteElement
	case added > 1 && removed == 0:
		return ActionPaste
	case added == 1 && removed == 0 && routesAdded == 0:
		return ActionAddElement
	case added == 0 && removed == 0 && moved > 0:
		return ActionMoveElement
	case added+removed+moved > 0:
		return ActionEdit
	case routesRemoved > 0 && routesAdded == 0:
		return ActionDeleteRoute
	case routesAdded > 0 && routesRemoved == 0 && routesEdited == 0:
		return ActionAddRoute
	case routesEdited > 0 && routesAdded == 0 && routesRemoved == 0:
		return ActionEditRoute
	}
	return ActionEdit
}
