package clipboard

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wiredraw/internal/doc"
	"wiredraw/internal/geom"
)

func part() doc.PartVersion {
	return doc.PartVersion{
		PartUID: "res",
		Version: "1",
		Name:    "Resistor",
		Kind:    doc.KindSymbol,
		Width:   4,
		Height:  2,
		Terminals: []doc.Terminal{
			{UID: "a", X: -2},
			{UID: "b", X: 2},
		},
	}
}

func sequence() func() string {
	n := 0
	return func() string {
		n++
		return "new-" + strconv.Itoa(n)
	}
}

type pasted struct {
	elements []*doc.Element
	routes   []*doc.Route
}

func newService(t *testing.T) (*Service, *MemoryBackend, *pasted) {
	t.Helper()
	mem := &MemoryBackend{}
	svc := New(mem, sequence())
	got := &pasted{}
	svc.Init(func(e []*doc.Element, r []*doc.Route) {
		got.elements, got.routes = e, r
	})
	return svc, mem, got
}

func TestCopyPasteRoundTrip(t *testing.T) {
	svc, _, got := newService(t)

	a := doc.NewElement(part(), geom.V(10, 10))
	b := doc.NewElement(part(), geom.V(30, 20))
	c := doc.NewElement(part(), geom.V(50, 50))
	ab := doc.NewRoute(doc.Endpoint{ElementUID: a.UID, TerminalUID: "b"}, doc.Endpoint{ElementUID: b.UID, TerminalUID: "a"},
		[]geom.Vec2{{X: 20, Y: 10}, {X: 20, Y: 20}}, false)
	// c is not copied, so this route cannot survive the paste.
	bc := doc.NewRoute(doc.Endpoint{ElementUID: b.UID, TerminalUID: "b"}, doc.Endpoint{ElementUID: c.UID, TerminalUID: "a"}, nil, true)

	require.NoError(t, svc.Copy([]*doc.Element{a, b}, []*doc.Route{ab, bc}))
	n, err := svc.Paste(geom.V(100, 100))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	require.Len(t, got.elements, 2)
	require.Len(t, got.routes, 1)
	pa, pb := got.elements[0], got.elements[1]
	for _, e := range got.elements {
		assert.NotEqual(t, a.UID, e.UID)
		assert.NotEqual(t, b.UID, e.UID)
	}
	assert.Equal(t, doc.Position{X: 100, Y: 100}, pa.Position)
	assert.Equal(t, doc.Position{X: 120, Y: 110}, pb.Position, "relative offset is kept")

	r := got.routes[0]
	assert.NotEqual(t, ab.UID, r.UID)
	assert.Equal(t, doc.Endpoint{ElementUID: pa.UID, TerminalUID: "b"}, r.Start)
	assert.Equal(t, doc.Endpoint{ElementUID: pb.UID, TerminalUID: "a"}, r.End)
	assert.Equal(t, []geom.Vec2{{X: 110, Y: 100}, {X: 110, Y: 110}}, r.Vertices)

	assert.Equal(t, geom.V(10, 10), a.Position.Origin(), "source items are untouched")
}

func TestPasteMalformedIsEmpty(t *testing.T) {
	svc, mem, got := newService(t)
	for _, text := range []string{
		"just some text",
		`{"format":"other","version":1,"items":[]}`,
		`{"format":"wiredraw/items","version":1,"items":[{"type":"element","data":"oops"}]}`,
	} {
		require.NoError(t, mem.WriteAll(text))
		n, err := svc.Paste(geom.V(0, 0))
		assert.NoError(t, err, text)
		assert.Zero(t, n, text)
	}
	assert.Nil(t, got.elements)
}

func TestPasteEmptyClipboard(t *testing.T) {
	svc, _, _ := newService(t)
	_, err := svc.Paste(geom.V(0, 0))
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestPasteRequiresInit(t *testing.T) {
	svc := New(&MemoryBackend{}, nil)
	_, err := svc.Paste(geom.V(0, 0))
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestDecodeSkipsUnknownItems(t *testing.T) {
	els, routes, err := Decode(`{"format":"wiredraw/items","version":1,"items":[{"type":"note","data":{}}]}`)
	require.NoError(t, err)
	assert.Empty(t, els)
	assert.Empty(t, routes)
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "a\nb\nc", cleanText("a\r\nb\rc\x00"))
	assert.Equal(t, `{"x":1 & 2}`, cleanText(`<html><body>{&quot;x&quot;:1 &amp; 2}</body></html>`))
}
