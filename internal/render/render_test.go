package render

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wiredraw/internal/geom"
	"wiredraw/internal/scene"
)

func identity(v geom.Vec2) geom.Vec2 { return v }

func TestTextPainterRouteCorners(t *testing.T) {
	p := NewTextPainter(8, 3, identity)
	st := scene.Style{}
	p.Line(geom.V(0, 8), geom.V(40, 8), st)
	p.Line(geom.V(40, 8), geom.V(40, 40), st)

	assert.Equal(t, []string{
		"─────┐  ",
		"     │  ",
		"     │  ",
	}, p.Lines())
}

func TestTextPainterJunction(t *testing.T) {
	p := NewTextPainter(5, 3, identity)
	st := scene.Style{}
	p.Line(geom.V(0, 24), geom.V(32, 24), st)
	p.Line(geom.V(16, 0), geom.V(16, 40), st)

	assert.Equal(t, "  │\n──┼──\n  │", p.String())
}

func TestTextPainterRect(t *testing.T) {
	p := NewTextPainter(4, 3, identity)
	p.Rect(geom.R(geom.V(0, 0), geom.V(24, 32)), scene.Style{})
	assert.Equal(t, []string{"+--+", "|  |", "+--+"}, p.Lines())

	p = NewTextPainter(4, 3, identity)
	p.Rect(geom.R(geom.V(0, 0), geom.V(24, 32)), scene.Style{Tone: scene.ToneSelected})
	assert.Equal(t, []string{"####", "#  #", "####"}, p.Lines())
}

func TestTextPainterBodyHidesLinesBeneath(t *testing.T) {
	p := NewTextPainter(5, 3, identity)
	p.Line(geom.V(0, 24), geom.V(32, 24), scene.Style{})
	p.Rect(geom.R(geom.V(8, 0), geom.V(24, 32)), scene.Style{})
	assert.Equal(t, []string{" +-+ ", "─| |─", " +-+ "}, p.Lines())
}

func TestTextPainterTextAndCircle(t *testing.T) {
	p := NewTextPainter(6, 3, identity)
	p.Text(geom.V(16, 40), "ab", scene.Style{})
	p.Circle(geom.V(0, 0), 1, scene.Style{})
	p.Circle(geom.V(40, 0), 1, scene.Style{Fill: true})
	assert.Equal(t, "o    ●\n\n ab", p.String())
}

func TestTextPainterClipsOffscreen(t *testing.T) {
	p := NewTextPainter(3, 2, identity)
	p.Line(geom.V(-100, 8), geom.V(100, 8), scene.Style{})
	p.Text(geom.V(-50, 20), "hidden", scene.Style{})
	assert.Equal(t, []string{"───", "   "}, p.Lines())
}

func TestTextPainterGridCrossings(t *testing.T) {
	p := NewTextPainter(4, 3, identity)
	grid := scene.Style{Tone: scene.ToneGrid}
	p.Line(geom.V(16, 0), geom.V(16, 48), grid)
	p.Line(geom.V(0, 16), geom.V(32, 16), grid)

	assert.Equal(t, []string{"    ", "  · ", "    "}, p.Lines())
}

func TestTextPainterFollowsProjection(t *testing.T) {
	engine := scene.NewEngine(scene.Viewport{Width: 80, Height: 48})
	engine.SetCamera(scene.Camera{Position: geom.V(0, 0), Zoom: 2})
	p := ForEngine(engine)
	cols, rows := p.Size()
	assert.Equal(t, 10, cols)
	assert.Equal(t, 3, rows)

	// World origin lands at the viewport center: pixel (40,24), cell (5,1).
	p.Circle(geom.V(0, 0), 1, scene.Style{})
	assert.Equal(t, "     o    ", p.Lines()[1])
}

func TestTextPainterStyled(t *testing.T) {
	p := NewTextPainter(4, 1, identity)
	p.Text(geom.V(16, 0), "ab", scene.Style{Tone: scene.ToneSelected})
	lines := p.Styled(DefaultStyles())
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "ab")
}

func TestPNGPainter(t *testing.T) {
	p, err := NewPNGPainter(geom.R(geom.V(0, 0), geom.V(10, 5)), PNGOptions{Scale: 2, Padding: 1})
	require.NoError(t, err)
	p.Line(geom.V(0, 2), geom.V(10, 2), scene.Style{})
	p.Rect(geom.R(geom.V(0, 0), geom.V(4, 4)), scene.Style{Fill: true})
	p.Text(geom.V(5, 2), "R1", scene.Style{})

	img := p.Image()
	assert.Equal(t, 24, img.Bounds().Dx())
	assert.Equal(t, 14, img.Bounds().Dy())

	r, _, _, _ := img.At(16, 6).RGBA()
	assert.Less(t, r, uint32(0xffff), "line pixels are drawn")
	r, _, _, _ = img.At(23, 13).RGBA()
	assert.Equal(t, uint32(0xffff), r, "background stays white")

	var buf bytes.Buffer
	require.NoError(t, p.EncodePNG(&buf))
	decoded, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())
}

func TestPNGPainterLimitsSize(t *testing.T) {
	p, err := NewPNGPainter(geom.R(geom.V(0, 0), geom.V(1000, 10)), PNGOptions{Scale: 4, MaxSide: 400})
	require.NoError(t, err)
	assert.Equal(t, 400, p.Image().Bounds().Dx())
	assert.Equal(t, 4, p.Image().Bounds().Dy())
}

func TestPNGPainterRejectsEmptyBounds(t *testing.T) {
	_, err := NewPNGPainter(geom.EmptyRect(), DefaultPNGOptions())
	assert.ErrorIs(t, err, ErrNothingToExport)
}
