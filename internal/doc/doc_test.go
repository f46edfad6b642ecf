package doc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wiredraw/internal/geom"
)

func resistor() PartVersion {
	return PartVersion{
		PartUID: "res",
		Version: "1",
		Name:    "Resistor",
		Kind:    KindSymbol,
		Width:   4,
		Height:  2,
		Terminals: []Terminal{
			{UID: "a", X: -2, Y: 0},
			{UID: "b", X: 2, Y: 0},
		},
	}
}

func twoElementDoc(t *testing.T) (*Document, *Element, *Element, *Route) {
	t.Helper()
	d := New("test", "owner")
	a := NewElement(resistor(), geom.V(0, 0))
	b := NewElement(resistor(), geom.V(20, 10))
	require.NoError(t, d.AddElement(a))
	require.NoError(t, d.AddElement(b))
	r := NewRoute(Endpoint{a.UID, "b"}, Endpoint{b.UID, "a"}, nil, true)
	require.NoError(t, d.AddRoute(r))
	return d, a, b, r
}

func TestTerminalWorldAppliesTransform(t *testing.T) {
	e := NewElement(resistor(), geom.V(10, 10))

	p, ok := e.TerminalWorld("b")
	require.True(t, ok)
	assert.Equal(t, geom.V(12, 10), p)

	e.Position.Orientation = 1
	p, _ = e.TerminalWorld("b")
	assert.Equal(t, geom.V(10, 12), p)

	e.Position = Position{X: 10, Y: 10, Flip: true}
	p, _ = e.TerminalWorld("b")
	assert.Equal(t, geom.V(8, 10), p)

	assert.Equal(t, geom.V(2, 0), e.Position.Invert(geom.V(8, 10)))

	_, ok = e.TerminalWorld("missing")
	assert.False(t, ok)
}

func TestRotatedHonoursFlip(t *testing.T) {
	p := Position{}
	assert.Equal(t, 1, p.Rotated(1).Orientation)
	assert.Equal(t, 3, p.Rotated(-1).Orientation)

	p.Flip = true
	assert.Equal(t, 3, p.Rotated(1).Orientation)
}

func TestAddRouteValidatesEndpoints(t *testing.T) {
	d, a, _, _ := twoElementDoc(t)

	err := d.AddRoute(NewRoute(Endpoint{a.UID, "b"}, Endpoint{"ghost", "a"}, nil, true))
	assert.ErrorIs(t, err, ErrMissingElement)

	err = d.AddRoute(NewRoute(Endpoint{a.UID, "zz"}, Endpoint{a.UID, "a"}, nil, true))
	assert.ErrorIs(t, err, ErrMissingTerminal)
}

func TestRemoveElementCascadesRoutes(t *testing.T) {
	d, a, b, r := twoElementDoc(t)
	c := NewElement(resistor(), geom.V(40, 0))
	require.NoError(t, d.AddElement(c))
	keep := NewRoute(Endpoint{b.UID, "b"}, Endpoint{c.UID, "a"}, nil, true)
	require.NoError(t, d.AddRoute(keep))

	removed := d.RemoveElement(a.UID)

	assert.Equal(t, []string{r.UID}, removed)
	assert.NotContains(t, d.Routes, r.UID)
	assert.Contains(t, d.Routes, keep.UID)
	assert.NoError(t, d.Validate())
}

func TestPruneOrphanBranches(t *testing.T) {
	d, a, _, _ := twoElementDoc(t)
	br := NewBranchElement(geom.V(5, 5))
	require.NoError(t, d.AddElement(br))
	leg := NewRoute(Endpoint{a.UID, "a"}, Endpoint{br.UID, BranchTerminalUID}, nil, true)
	require.NoError(t, d.AddRoute(leg))

	assert.Empty(t, d.PruneOrphanBranches())

	d.RemoveRoute(leg.UID)
	assert.Equal(t, []string{br.UID}, d.PruneOrphanBranches())
	assert.NotContains(t, d.Elements, br.UID)
}

func TestDuplicateKeepsContent(t *testing.T) {
	d, _, _, _ := twoElementDoc(t)
	d.Properties["title"] = "amp"

	dup := d.Duplicate(NewUID())

	assert.NotEqual(t, d.UID, dup.UID)
	assert.True(t, d.SameContent(dup))

	for uid, e := range dup.Elements {
		e.Position.X += 1
		assert.NotEqual(t, e.Position, d.Elements[uid].Position)
	}
	assert.False(t, d.SameContent(dup))
}

func TestRouteEqualIgnoresNilVersusEmpty(t *testing.T) {
	r := NewRoute(Endpoint{"a", "1"}, Endpoint{"b", "2"}, nil, true)
	c := r.Clone()
	c.Vertices = []geom.Vec2{}
	assert.True(t, r.Equal(c))

	c.Vertices = append(c.Vertices, geom.V(1, 1))
	assert.False(t, r.Equal(c))
}

func TestBounds(t *testing.T) {
	d, _, _, r := twoElementDoc(t)
	r.Vertices = []geom.Vec2{geom.V(10, -30)}

	b := d.Bounds()
	assert.Equal(t, geom.V(-2, -30), b.Min)
	assert.Equal(t, geom.V(22, 11), b.Max)
}
