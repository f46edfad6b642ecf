// Package render draws a scene onto concrete surfaces: a terminal cell grid
// and a PNG image.
package render

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"wiredraw/internal/geom"
	"wiredraw/internal/scene"
)

// Pixels per terminal cell. Cells are twice as tall as they are wide.
const (
	CellWidth  = 8.0
	CellHeight = 16.0
)

const (
	linkUp uint8 = 1 << iota
	linkDown
	linkLeft
	linkRight
)

var linkRunes = map[uint8]rune{
	linkUp:                                   '│',
	linkDown:                                 '│',
	linkUp | linkDown:                        '│',
	linkLeft:                                 '─',
	linkRight:                                '─',
	linkLeft | linkRight:                     '─',
	linkDown | linkRight:                     '┌',
	linkDown | linkLeft:                      '┐',
	linkUp | linkRight:                       '└',
	linkUp | linkLeft:                        '┘',
	linkUp | linkDown | linkRight:            '├',
	linkUp | linkDown | linkLeft:             '┤',
	linkDown | linkLeft | linkRight:          '┬',
	linkUp | linkLeft | linkRight:            '┴',
	linkUp | linkDown | linkLeft | linkRight: '┼',
}

type cell struct {
	r     rune
	links uint8
	tone  scene.Tone
	set   bool
}

func (c cell) rune() rune {
	if c.r != 0 {
		return c.r
	}
	if c.links != 0 {
		return linkRunes[c.links]
	}
	return ' '
}

// TextPainter rasterises world-space primitives onto a grid of terminal
// cells through a world-to-screen projection.
type TextPainter struct {
	cols, rows int
	project    func(geom.Vec2) geom.Vec2
	cells      [][]cell
	gridCols   map[int]bool
	gridRows   map[int]bool
}

// NewTextPainter returns a blank cols x rows grid. project maps world
// points to screen pixels.
func NewTextPainter(cols, rows int, project func(geom.Vec2) geom.Vec2) *TextPainter {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	cells := make([][]cell, rows)
	for i := range cells {
		cells[i] = make([]cell, cols)
	}
	return &TextPainter{
		cols:     cols,
		rows:     rows,
		project:  project,
		cells:    cells,
		gridCols: make(map[int]bool),
		gridRows: make(map[int]bool),
	}
}

// ForEngine sizes a painter to the engine viewport and projects through its
// camera.
func ForEngine(e *scene.Engine) *TextPainter {
	vp := e.Viewport()
	return NewTextPainter(int(vp.Width/CellWidth), int(vp.Height/CellHeight), e.WorldToScreen)
}

func (t *TextPainter) Size() (cols, rows int) { return t.cols, t.rows }

func (t *TextPainter) toCell(world geom.Vec2) (int, int) {
	s := t.project(world)
	return int(math.Floor(s.X / CellWidth)), int(math.Floor(s.Y / CellHeight))
}

func (t *TextPainter) valid(x, y int) bool {
	return x >= 0 && y >= 0 && x < t.cols && y < t.rows
}

func (t *TextPainter) put(x, y int, r rune, tone scene.Tone) {
	if !t.valid(x, y) {
		return
	}
	t.cells[y][x] = cell{r: r, tone: tone, set: true}
}

func (t *TextPainter) link(x, y int, bits uint8, tone scene.Tone) {
	if !t.valid(x, y) {
		return
	}
	c := &t.cells[y][x]
	if c.r != 0 {
		*c = cell{}
	}
	c.links |= bits
	c.tone = tone
	c.set = true
}

func (t *TextPainter) Line(a, b geom.Vec2, st scene.Style) {
	x0, y0 := t.toCell(a)
	x1, y1 := t.toCell(b)
	if st.Tone == scene.ToneGrid {
		// Grid lines only mark their crossings.
		if x0 == x1 {
			t.gridCols[x0] = true
		} else if y0 == y1 {
			t.gridRows[y0] = true
		}
		return
	}
	switch {
	case y0 == y1 && x0 == x1:
		t.link(x0, y0, 0, st.Tone)
	case y0 == y1:
		if x0 > x1 {
			x0, x1 = x1, x0
		}
		for x := x0; x <= x1; x++ {
			var bits uint8
			if x > x0 {
				bits |= linkLeft
			}
			if x < x1 {
				bits |= linkRight
			}
			t.link(x, y0, bits, st.Tone)
		}
	case x0 == x1:
		if y0 > y1 {
			y0, y1 = y1, y0
		}
		for y := y0; y <= y1; y++ {
			var bits uint8
			if y > y0 {
				bits |= linkUp
			}
			if y < y1 {
				bits |= linkDown
			}
			t.link(x0, y, bits, st.Tone)
		}
	default:
		t.diagonal(x0, y0, x1, y1, st.Tone)
	}
}

// diagonal walks Bresenham's line with dots.
func (t *TextPainter) diagonal(x0, y0, x1, y1 int, tone scene.Tone) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		t.put(x0, y0, '·', tone)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

// Rect draws a border of '+', '-' and '|', or '#' throughout when selected.
func (t *TextPainter) Rect(r geom.Rect, st scene.Style) {
	x0, y0 := t.toCell(r.Min)
	x1, y1 := t.toCell(r.Max)
	corner, horizontal, vertical := '+', '-', '|'
	if st.Tone == scene.ToneSelected {
		corner, horizontal, vertical = '#', '#', '#'
	}
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			edgeY := y == y0 || y == y1
			edgeX := x == x0 || x == x1
			switch {
			case edgeX && edgeY:
				t.put(x, y, corner, st.Tone)
			case edgeY:
				t.put(x, y, horizontal, st.Tone)
			case edgeX:
				t.put(x, y, vertical, st.Tone)
			case st.Fill:
				t.put(x, y, '░', st.Tone)
			case t.valid(x, y):
				// The body hides whatever was drawn beneath it.
				t.cells[y][x] = cell{}
			}
		}
	}
}

func (t *TextPainter) Circle(c geom.Vec2, _ float64, st scene.Style) {
	x, y := t.toCell(c)
	r := 'o'
	if st.Fill {
		r = '●'
	}
	t.put(x, y, r, st.Tone)
}

// Text centres s on the cell under at.
func (t *TextPainter) Text(at geom.Vec2, s string, st scene.Style) {
	x, y := t.toCell(at)
	runes := []rune(s)
	x -= len(runes) / 2
	for i, r := range runes {
		t.put(x+i, y, r, st.Tone)
	}
}

func (t *TextPainter) finish() [][]rune {
	out := make([][]rune, t.rows)
	for y := range t.cells {
		out[y] = make([]rune, t.cols)
		for x, c := range t.cells[y] {
			r := c.rune()
			if !c.set && t.gridCols[x] && t.gridRows[y] {
				r = '·'
			}
			out[y][x] = r
		}
	}
	return out
}

// Lines returns the plain rendering, one string per row.
func (t *TextPainter) Lines() []string {
	grid := t.finish()
	lines := make([]string, len(grid))
	for i, row := range grid {
		lines[i] = string(row)
	}
	return lines
}

// String joins Lines with newlines and trims trailing blanks from each row.
func (t *TextPainter) String() string {
	lines := t.Lines()
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " ")
	}
	return strings.Join(lines, "\n")
}

// Styled renders every row with runs of cells styled by tone. Tones with
// no style are left plain.
func (t *TextPainter) Styled(styles map[scene.Tone]lipgloss.Style) []string {
	grid := t.finish()
	lines := make([]string, len(grid))
	for y, row := range grid {
		var b strings.Builder
		start := 0
		for x := 1; x <= len(row); x++ {
			if x < len(row) && t.toneAt(x, y) == t.toneAt(start, y) {
				continue
			}
			run := string(row[start:x])
			if st, ok := styles[t.toneAt(start, y)]; ok {
				run = st.Render(run)
			}
			b.WriteString(run)
			start = x
		}
		lines[y] = b.String()
	}
	return lines
}

func (t *TextPainter) toneAt(x, y int) scene.Tone {
	c := t.cells[y][x]
	if !c.set {
		if t.gridCols[x] && t.gridRows[y] {
			return scene.ToneGrid
		}
		return scene.ToneNormal
	}
	return c.tone
}

// DefaultStyles colours selection, hover, grid, and preview cells.
func DefaultStyles() map[scene.Tone]lipgloss.Style {
	return map[scene.Tone]lipgloss.Style{
		scene.ToneSelected: lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		scene.ToneHover:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
		scene.ToneGrid:     lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
		scene.TonePreview:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
