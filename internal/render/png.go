package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"

	"wiredraw/internal/geom"
	"wiredraw/internal/scene"
)

var ErrNothingToExport = errors.New("render: nothing to export")

type PNGOptions struct {
	// Scale is pixels per world unit.
	Scale float64
	// Padding is world units added around the content.
	Padding  float64
	FontSize float64
	// MaxSide caps the longer image side in pixels; Scale shrinks to fit.
	MaxSide int
}

func DefaultPNGOptions() PNGOptions {
	return PNGOptions{Scale: 4, Padding: 8, FontSize: 12, MaxSide: 8192}
}

var tonePalette = map[scene.Tone]color.Color{
	scene.ToneNormal:   color.Black,
	scene.ToneSelected: color.RGBA{R: 0x1f, G: 0x5f, B: 0xd0, A: 0xff},
	scene.ToneHover:    color.RGBA{R: 0x10, G: 0xa0, B: 0x40, A: 0xff},
	scene.ToneGrid:     color.RGBA{R: 0xe0, G: 0xe0, B: 0xe0, A: 0xff},
	scene.TonePreview:  color.RGBA{R: 0xd0, G: 0x90, B: 0x10, A: 0xff},
}

// PNGPainter draws world-space primitives onto an image framing a fixed
// world rectangle.
type PNGPainter struct {
	dc     *gg.Context
	origin geom.Vec2
	scale  float64
}

// NewPNGPainter frames bounds with padding on a white canvas.
func NewPNGPainter(bounds geom.Rect, opts PNGOptions) (*PNGPainter, error) {
	if bounds.Empty() {
		return nil, ErrNothingToExport
	}
	if opts.Scale <= 0 {
		opts.Scale = DefaultPNGOptions().Scale
	}
	if opts.FontSize <= 0 {
		opts.FontSize = DefaultPNGOptions().FontSize
	}
	framed := bounds.Expand(opts.Padding)
	scale := opts.Scale
	if opts.MaxSide > 0 {
		side := max(framed.Width(), framed.Height()) * scale
		if side > float64(opts.MaxSide) {
			scale *= float64(opts.MaxSide) / side
		}
	}
	w := int(framed.Width()*scale + 0.5)
	h := int(framed.Height()*scale + 0.5)
	if w < 1 || h < 1 {
		return nil, ErrNothingToExport
	}

	dc := gg.NewContext(w, h)
	dc.SetColor(color.White)
	dc.Clear()

	ttfFont, err := truetype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("render: parse font: %w", err)
	}
	dc.SetFontFace(truetype.NewFace(ttfFont, &truetype.Options{
		Size:    opts.FontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	}))
	return &PNGPainter{dc: dc, origin: framed.Min, scale: scale}, nil
}

func (p *PNGPainter) px(world geom.Vec2) (float64, float64) {
	v := world.Sub(p.origin).Scale(p.scale)
	return v.X, v.Y
}

func (p *PNGPainter) use(st scene.Style) {
	c, ok := tonePalette[st.Tone]
	if !ok {
		c = color.Black
	}
	p.dc.SetColor(c)
	p.dc.SetLineWidth(1.5)
}

func (p *PNGPainter) Line(a, b geom.Vec2, st scene.Style) {
	p.use(st)
	x1, y1 := p.px(a)
	x2, y2 := p.px(b)
	p.dc.DrawLine(x1, y1, x2, y2)
	p.dc.Stroke()
}

func (p *PNGPainter) Rect(r geom.Rect, st scene.Style) {
	p.use(st)
	x, y := p.px(r.Min)
	p.dc.DrawRectangle(x, y, r.Width()*p.scale, r.Height()*p.scale)
	if st.Fill {
		p.dc.Fill()
		return
	}
	p.dc.Stroke()
}

func (p *PNGPainter) Circle(c geom.Vec2, radius float64, st scene.Style) {
	p.use(st)
	x, y := p.px(c)
	p.dc.DrawCircle(x, y, radius*p.scale)
	if st.Fill {
		p.dc.Fill()
		return
	}
	p.dc.Stroke()
}

func (p *PNGPainter) Text(at geom.Vec2, s string, st scene.Style) {
	p.use(st)
	x, y := p.px(at)
	p.dc.DrawStringAnchored(s, x, y, 0.5, 0.5)
}

func (p *PNGPainter) Image() image.Image { return p.dc.Image() }

func (p *PNGPainter) EncodePNG(w io.Writer) error { return p.dc.EncodePNG(w) }

func (p *PNGPainter) SavePNG(path string) error { return p.dc.SavePNG(path) }
