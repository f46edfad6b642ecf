package history

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wiredraw/internal/doc"
	"wiredraw/internal/geom"
)

func part() doc.PartVersion {
	return doc.PartVersion{
		PartUID: "res", Version: "1", Kind: doc.KindSymbol, Width: 4, Height: 2,
		Terminals: []doc.Terminal{{UID: "a", X: -2}, {UID: "b", X: 2}},
	}
}

func withElement(t *testing.T, d *doc.Document, at geom.Vec2) (*doc.Document, *doc.Element) {
	t.Helper()
	next := d.Clone()
	e := doc.NewElement(part(), at)
	require.NoError(t, next.AddElement(e))
	return next, e
}

func TestUndoRedo(t *testing.T) {
	h := New(0)
	d0 := doc.New("d", "u")
	d1, e := withElement(t, d0, geom.V(0, 0))
	d2 := d1.Clone()
	d2.Elements[e.UID].Position.X = 10

	assert.True(t, h.Record(d0, d1))
	assert.True(t, h.Record(d1, d2))
	assert.Equal(t, 2, h.Len())

	got, kind, ok := h.Undo()
	require.True(t, ok)
	assert.Equal(t, ActionMoveElement, kind)
	assert.True(t, got.SameContent(d1))

	got, kind, ok = h.Undo()
	require.True(t, ok)
	assert.Equal(t, ActionAddElement, kind)
	assert.True(t, got.SameContent(d0))
	assert.False(t, h.CanUndo())

	_, _, ok = h.Undo()
	assert.False(t, ok)

	got, _, ok = h.Redo()
	require.True(t, ok)
	assert.True(t, got.SameContent(d1))
	assert.True(t, h.CanRedo())
}

func TestRecordClearsRedo(t *testing.T) {
	h := New(0)
	d0 := doc.New("d", "u")
	d1, _ := withElement(t, d0, geom.V(0, 0))
	h.Record(d0, d1)
	h.Undo()
	require.True(t, h.CanRedo())

	d2, _ := withElement(t, d0, geom.V(5, 5))
	h.Record(d0, d2)
	assert.False(t, h.CanRedo())
}

func TestRecordIgnoresNoops(t *testing.T) {
	h := New(0)
	d := doc.New("d", "u")
	assert.False(t, h.Record(d, d.Clone()))
	assert.False(t, h.Record(nil, d))
	assert.Zero(t, h.Len())
}

func TestRecordedSnapshotsAreIsolated(t *testing.T) {
	h := New(0)
	d0 := doc.New("d", "u")
	d1, e := withElement(t, d0, geom.V(0, 0))
	h.Record(d0, d1)
	d1.Elements[e.UID].Position.X = 99

	h.Undo()
	got, _, _ := h.Redo()
	assert.Equal(t, 0.0, got.Elements[e.UID].Position.X)
}

func TestLimit(t *testing.T) {
	h := New(3)
	d := doc.New("d", "u")
	for i := 0; i < 5; i++ {
		next, _ := withElement(t, d, geom.V(float64(i), 0))
		h.Record(d, next)
		d = next
	}
	assert.Equal(t, 3, h.Len())
	for h.CanUndo() {
		h.Undo()
	}
	got, _, _ := h.Redo()
	assert.Len(t, got.Elements, 3, "oldest steps were dropped")
}

func TestClassify(t *testing.T) {
	d0 := doc.New("d", "u")
	d1, a := withElement(t, d0, geom.V(0, 0))
	d2, b := withElement(t, d1, geom.V(20, 0))

	withRoute := d2.Clone()
	r := doc.NewRoute(
		doc.Endpoint{ElementUID: a.UID, TerminalUID: "b"},
		doc.Endpoint{ElementUID: b.UID, TerminalUID: "a"},
		[]geom.Vec2{geom.V(10, 0), geom.V(10, 0)}, true)
	require.NoError(t, withRoute.AddRoute(r))

	editedRoute := withRoute.Clone()
	editedRoute.Routes[r.UID].AutoRoute = false

	deleted := withRoute.Clone()
	deleted.RemoveElement(a.UID)

	pasted := d0.Clone()
	require.NoError(t, pasted.AddElement(doc.NewElement(part(), geom.V(0, 0))))
	require.NoError(t, pasted.AddElement(doc.NewElement(part(), geom.V(5, 0))))

	tests := []struct {
		name          string
		before, after *doc.Document
		want          ActionType
	}{
		{"add element", d0, d1, ActionAddElement},
		{"add route", d2, withRoute, ActionAddRoute},
		{"edit route", withRoute, editedRoute, ActionEditRoute},
		{"delete cascade", withRoute, deleted, ActionDeleteElement},
		{"delete route", withRoute, d2, ActionDeleteRoute},
		{"paste", d0, pasted, ActionPaste},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.before, tt.after))
		})
	}
}
