package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/golang/glog"
	"github.com/sahilm/fuzzy"

	"wiredraw/internal/config"
	"wiredraw/internal/doc"
	"wiredraw/internal/editor"
	"wiredraw/internal/persist"
)

const frameInterval = 50 * time.Millisecond

type Mode int

const (
	ModeStartup Mode = iota
	ModeNormal
	ModePlace
	ModeFileInput
	ModeConfirm
)

type tickMsg time.Time

// runMsg carries editor work queued from another goroutine.
type runMsg func()

type docEntry struct {
	id   string
	name string
}

type model struct {
	cfg   *config.Config
	ed    *editor.Editor
	store *persist.FileStore

	width          int
	height         int
	cursorX        int
	cursorY        int
	mode           Mode
	help           bool
	lastTick       time.Time
	docs           []docEntry
	selectedDoc    int
	filename       string
	parts          []doc.PartVersion
	partQuery      string
	matches        []int
	partIndex      int
	confirmCount   int
	errorMessage   string
	successMessage string
}

var (
	modeStyle    = lipgloss.NewStyle().Bold(true).Reverse(true).Padding(0, 1)
	nameStyle    = lipgloss.NewStyle().Bold(true)
	syncedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	syncingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

func newModel(cfg *config.Config, ed *editor.Editor, store *persist.FileStore, catalog *persist.Catalog) model {
	return model{
		cfg:         cfg,
		ed:          ed,
		store:       store,
		mode:        ModeStartup,
		selectedDoc: -1,
		parts:       catalog.Parts(),
	}
}

type partSource []doc.PartVersion

func (p partSource) String(i int) string { return p[i].PartUID + " " + p[i].Name }
func (p partSource) Len() int            { return len(p) }

// filterParts narrows the catalog to the parts matching partQuery, best
// match first.
func (m *model) filterParts() {
	m.partIndex = 0
	m.matches = nil
	if strings.TrimSpace(m.partQuery) == "" {
		for i := range m.parts {
			m.matches = append(m.matches, i)
		}
		return
	}
	for _, match := range fuzzy.FindFrom(strings.TrimSpace(m.partQuery), partSource(m.parts)) {
		m.matches = append(m.matches, match.Index)
	}
}

func (m model) currentPart() (doc.PartVersion, bool) {
	if len(m.matches) == 0 {
		return doc.PartVersion{}, false
	}
	return m.parts[m.matches[m.partIndex]], true
}

// scanDocuments lists the stored documents by name.
func (m *model) scanDocuments() {
	m.docs = nil
	m.selectedDoc = -1
	ids, err := m.store.List()
	if err != nil {
		m.errorMessage = err.Error()
		return
	}
	ctx := context.Background()
	for _, id := range ids {
		d, err := m.store.Load(ctx, id)
		if err != nil {
			glog.Warningf("wiredraw: skipping %s: %v", id, err)
			continue
		}
		m.docs = append(m.docs, docEntry{id: id, name: d.Name})
	}
	sort.Slice(m.docs, func(i, j int) bool {
		if m.docs[i].name != m.docs[j].name {
			return m.docs[i].name < m.docs[j].name
		}
		return m.docs[i].id < m.docs[j].id
	})
	if len(m.docs) > 0 {
		m.selectedDoc = 0
	}
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m model) Init() tea.Cmd {
	return tick()
}

func (m *model) ensureCursorInBounds() {
	m.cursorX = max(0, min(m.cursorX, m.width-1))
	m.cursorY = max(0, min(m.cursorY, m.canvasRows()-1))
}

// canvasRows leaves the last terminal row for the status line.
func (m model) canvasRows() int {
	return max(1, m.height-1)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ensureCursorInBounds()
		m.ed.Resize(float64(m.width)*8, float64(m.canvasRows())*16)
		return m, nil

	case tickMsg:
		now := time.Time(msg)
		var elapsed time.Duration
		if !m.lastTick.IsZero() {
			elapsed = now.Sub(m.lastTick)
		}
		m.lastTick = now
		m.ed.Tick(elapsed)
		return m, tick()

	case runMsg:
		msg()
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		// ctrl+c copies once a document is open.
		if msg.String() == "ctrl+c" && m.mode != ModeNormal {
			return m, tea.Quit
		}
		if m.help {
			switch msg.String() {
			case "esc", "q", "?":
				m.help = false
			}
			return m, nil
		}
		switch m.mode {
		case ModeStartup:
			return m.handleStartupKey(msg)
		case ModeFileInput:
			return m.handleFileInputKey(msg)
		case ModePlace:
			return m.handlePlaceKey(msg)
		case ModeConfirm:
			return m.handleConfirmKey(msg)
		default:
			return m.handleNormalKey(msg)
		}
	}
	return m, nil
}

func (m model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	m.cursorX, m.cursorY = msg.X, msg.Y
	m.ensureCursorInBounds()
	if msg.Y >= m.canvasRows() {
		return m, nil
	}
	switch m.mode {
	case ModeNormal:
		if ev, ok := mouseEvent(msg); ok {
			m.ed.HandleEvent(ev)
		}
	case ModePlace:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			m.placeAtCursor()
		}
	}
	return m, nil
}

func (m model) handleStartupKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "j", "down":
		if m.selectedDoc < len(m.docs)-1 {
			m.selectedDoc++
		}
	case "k", "up":
		if m.selectedDoc > 0 {
			m.selectedDoc--
		}
	case "n":
		m.mode = ModeFileInput
		m.filename = ""
	case "enter", "o":
		if m.selectedDoc < 0 {
			return m, nil
		}
		if err := m.ed.Open(context.Background(), m.docs[m.selectedDoc].id); err != nil {
			m.errorMessage = err.Error()
			return m, nil
		}
		m.mode = ModeNormal
	}
	return m, nil
}

func (m model) handleFileInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		m.mode = ModeStartup
		return m, nil
	case tea.KeyEnter:
		name := strings.TrimSpace(m.filename)
		if name == "" {
			name = "untitled"
		}
		if _, err := m.ed.Create(context.Background(), name); err != nil {
			m.errorMessage = err.Error()
			return m, nil
		}
		m.mode = ModeNormal
		m.successMessage = "created " + name
	case tea.KeyBackspace:
		if r := []rune(m.filename); len(r) > 0 {
			m.filename = string(r[:len(r)-1])
		}
	case tea.KeyRunes, tea.KeySpace:
		m.filename += string(msg.Runes)
	}
	return m, nil
}

func (m model) handlePlaceKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEscape:
		m.mode = ModeNormal
	case tea.KeyTab, tea.KeyDown:
		if len(m.matches) > 0 {
			m.partIndex = (m.partIndex + 1) % len(m.matches)
		}
	case tea.KeyShiftTab, tea.KeyUp:
		if len(m.matches) > 0 {
			m.partIndex = (m.partIndex + len(m.matches) - 1) % len(m.matches)
		}
	case tea.KeyEnter:
		m.placeAtCursor()
	case tea.KeyBackspace:
		if r := []rune(m.partQuery); len(r) > 0 {
			m.partQuery = string(r[:len(r)-1])
			m.filterParts()
		}
	case tea.KeyRunes, tea.KeySpace:
		m.partQuery += string(msg.Runes)
		m.filterParts()
	}
	return m, nil
}

func (m *model) placeAtCursor() {
	part, ok := m.currentPart()
	if !ok {
		m.errorMessage = "no part matches " + m.partQuery
		return
	}
	at := m.ed.ScreenToWorld(cellCenter(m.cursorX, m.cursorY))
	e, err := m.ed.PlacePart(context.Background(), part.PartUID, part.Version, at)
	if err != nil {
		m.errorMessage = err.Error()
		return
	}
	m.errorMessage = ""
	m.successMessage = fmt.Sprintf("placed %s v%s", part.Name, e.Part.Version)
}

func (m model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		if m.ed.DeleteSelection() {
			m.successMessage = fmt.Sprintf("deleted %d", m.confirmCount)
		}
		m.mode = ModeNormal
	case "n", "N", "esc", "q":
		m.mode = ModeNormal
	}
	return m, nil
}

func (m model) handleNormalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.errorMessage = ""
	m.successMessage = ""
	key := msg.String()
	if dx, dy, ok := panDelta(key, m.cfg.Zoom.PanStep); ok {
		m.ed.Pan(dx, dy)
		return m, nil
	}
	switch key {
	case "q":
		return m, tea.Quit
	case "?":
		m.help = true
	case "p":
		if len(m.parts) > 0 {
			m.mode = ModePlace
			m.partQuery = ""
			m.filterParts()
		}
	case "u":
		if !m.ed.Undo() {
			m.errorMessage = "nothing to undo"
		}
	case "U":
		if !m.ed.Redo() {
			m.errorMessage = "nothing to redo"
		}
	case "z":
		m.ed.ZoomToFit()
	case "ctrl+s":
		if err := m.ed.Writer().Flush(context.Background()); err != nil {
			m.errorMessage = err.Error()
		} else {
			m.successMessage = "saved"
		}
	case "e":
		m.export(".png", m.ed.ExportPNG)
	case "E":
		m.export(".txt", m.ed.ExportText)
	case "D":
		d, err := m.ed.DuplicateDocument(context.Background())
		if err != nil {
			m.errorMessage = err.Error()
		} else {
			m.successMessage = "saved copy " + d.UID
		}
	case "O":
		if err := m.ed.Close(context.Background()); err != nil {
			m.errorMessage = err.Error()
		}
		m.scanDocuments()
		m.mode = ModeStartup
	case "delete", "backspace", "x":
		n := len(m.ed.SelectedUIDs())
		if n == 0 {
			return m, nil
		}
		if m.cfg.Confirmations {
			m.confirmCount = n
			m.mode = ModeConfirm
			return m, nil
		}
		m.ed.DeleteSelection()
	case "v":
		if _, err := m.ed.Paste(m.ed.ScreenToWorld(cellCenter(m.cursorX, m.cursorY))); err != nil {
			m.errorMessage = err.Error()
		}
	default:
		m.ed.HandleEvent(keyEvent(msg))
	}
	return m, nil
}

// export writes the document next to the other saved files, named after it.
func (m *model) export(ext string, write func(io.Writer) error) {
	path, err := m.cfg.GetSavePath(exportName(m.ed.Document().Name) + ext)
	if err != nil {
		m.errorMessage = err.Error()
		return
	}
	f, err := os.Create(path)
	if err != nil {
		m.errorMessage = err.Error()
		return
	}
	err = write(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		m.errorMessage = err.Error()
		return
	}
	m.successMessage = "exported " + path
}

func exportName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, strings.TrimSpace(name))
	if name == "" {
		return "diagram"
	}
	return name
}
