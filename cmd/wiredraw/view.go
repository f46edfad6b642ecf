package main

import (
	"fmt"
	"strings"

	"wiredraw/internal/persist"
)

func (m model) View() string {
	if m.help {
		return m.helpView()
	}
	var result strings.Builder
	switch m.mode {
	case ModeStartup, ModeFileInput:
		result.WriteString(m.startupView())
	default:
		frame := m.ed.Frame()
		rows := min(len(frame), m.canvasRows())
		for i := 0; i < rows; i++ {
			result.WriteString(frame[i])
			result.WriteString("\n")
		}
	}
	result.WriteString(m.statusLine())
	return result.String()
}

func (m model) startupView() string {
	var b strings.Builder
	b.WriteString("wiredraw\n")
	b.WriteString(strings.Repeat("─", max(m.width, 8)))
	b.WriteString("\n")
	if m.mode == ModeFileInput {
		b.WriteString("New document name: ")
		b.WriteString(m.filename)
		b.WriteString("█\n")
		return b.String()
	}
	if len(m.docs) == 0 {
		b.WriteString(dimStyle.Render("(no documents yet, press n to create one)"))
		b.WriteString("\n")
		return b.String()
	}

	maxDocs := max(1, m.canvasRows()-3)
	start := 0
	if m.selectedDoc >= maxDocs {
		start = m.selectedDoc - maxDocs + 1
	}
	end := min(len(m.docs), start+maxDocs)
	for i := start; i < end; i++ {
		line := fmt.Sprintf("%s  %s", m.docs[i].name, dimStyle.Render(m.docs[i].id))
		if i == m.selectedDoc {
			b.WriteString("> " + nameStyle.Render(line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}
	return b.String()
}

func (m model) statusLine() string {
	parts := []string{modeStyle.Render(m.modeString())}
	if d := m.ed.Document(); d != nil {
		parts = append(parts, nameStyle.Render(d.Name))
		state, err := m.ed.SyncState()
		parts = append(parts, syncLabel(state, err))
		if n := len(m.ed.SelectedUIDs()); n > 0 {
			parts = append(parts, fmt.Sprintf("%d selected", n))
		}
		if m.ed.Routing() {
			parts = append(parts, "routing")
		}
		parts = append(parts, dimStyle.Render(fmt.Sprintf("zoom %.2f", m.ed.Camera().Zoom)))
	}
	switch m.mode {
	case ModePlace:
		label := "no match"
		if p, ok := m.currentPart(); ok {
			label = fmt.Sprintf("%s v%s (%d/%d)", p.Name, p.Version, m.partIndex+1, len(m.matches))
		}
		parts = append(parts, fmt.Sprintf("part %q: %s, tab cycles, enter or click places", m.partQuery, label))
	case ModeConfirm:
		parts = append(parts, errorStyle.Render(fmt.Sprintf("delete %d items? (y/n)", m.confirmCount)))
	}
	switch {
	case m.errorMessage != "":
		parts = append(parts, errorStyle.Render(m.errorMessage))
	case m.successMessage != "":
		parts = append(parts, syncedStyle.Render(m.successMessage))
	default:
		parts = append(parts, dimStyle.Render("? for help"))
	}
	return strings.Join(parts, " ")
}

func syncLabel(state persist.SyncState, err error) string {
	switch state {
	case persist.Syncing:
		return syncingStyle.Render("● " + state.String())
	case persist.SyncError:
		msg := state.String()
		if err != nil {
			msg += ": " + err.Error()
		}
		return errorStyle.Render("● " + msg)
	default:
		return syncedStyle.Render("● " + state.String())
	}
}

func (m model) modeString() string {
	switch m.mode {
	case ModeStartup:
		return "STARTUP"
	case ModeNormal:
		return "NORMAL"
	case ModePlace:
		return "PLACE"
	case ModeFileInput:
		return "NEW"
	case ModeConfirm:
		return "CONFIRM"
	default:
		return "UNKNOWN"
	}
}

var helpLines = []string{
	"wiredraw help",
	"=============",
	"",
	"Navigation:",
	"-----------",
	"  h/←/j/↓/k/↑/l/→  Pan the view",
	"  Shift+h/j/k/l    Pan twice as far",
	"  +/-  wheel       Zoom in and out",
	"  0 or z           Zoom to fit the selection or the whole diagram",
	"",
	"Editing:",
	"--------",
	"  click            Select; shift+click adds to the selection",
	"  drag             Move parts or route segments, or box-select on empty space",
	"  drag terminal    Draw a route; release on a terminal or a route to connect",
	"  p                Place a part: type to filter, tab to cycle, esc when done",
	"  r / R            Rotate the selection clockwise / counter-clockwise",
	"  f                Flip the selection",
	"  x / delete       Delete the selection",
	"  ctrl+c/x/v       Copy, cut, paste",
	"  v                Paste at the cursor",
	"  u / U            Undo / redo (also ctrl+z, ctrl+y)",
	"",
	"Files:",
	"------",
	"  ctrl+s           Save now",
	"  e / E            Export PNG / text",
	"  D                Save a copy of the document",
	"  O                Close and pick another document",
	"  q                Quit",
	"",
	"Press ? or esc to close this help.",
}

func (m model) helpView() string {
	rows := min(len(helpLines), m.canvasRows())
	return strings.Join(helpLines[:rows], "\n")
}
