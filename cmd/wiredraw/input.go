package main

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"wiredraw/internal/control"
	"wiredraw/internal/geom"
	"wiredraw/internal/render"
)

// cellCenter maps a terminal cell to the viewport pixel at its center.
func cellCenter(x, y int) geom.Vec2 {
	return geom.V(float64(x)*render.CellWidth+render.CellWidth/2, float64(y)*render.CellHeight+render.CellHeight/2)
}

func mouseMods(msg tea.MouseMsg) control.Modifiers {
	var mods control.Modifiers
	if msg.Shift {
		mods |= control.Shift
	}
	if msg.Ctrl {
		mods |= control.Ctrl
	}
	if msg.Alt {
		mods |= control.Alt
	}
	return mods
}

// mouseEvent translates a terminal mouse report. Only the left button
// drives the controls; the wheel zooms.
func mouseEvent(msg tea.MouseMsg) (control.Event, bool) {
	ev := control.Event{Screen: cellCenter(msg.X, msg.Y), Mods: mouseMods(msg)}
	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		ev.Kind, ev.Delta = control.Wheel, 1
	case msg.Button == tea.MouseButtonWheelDown:
		ev.Kind, ev.Delta = control.Wheel, -1
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		ev.Kind = control.Press
	case msg.Action == tea.MouseActionRelease:
		ev.Kind = control.Release
	case msg.Action == tea.MouseActionMotion:
		ev.Kind = control.Move
	default:
		return control.Event{}, false
	}
	return ev, true
}

func keyMods(key string) control.Modifiers {
	var mods control.Modifiers
	if strings.Contains(key, "shift+") {
		mods |= control.Shift
	}
	if strings.Contains(key, "ctrl+") {
		mods |= control.Ctrl
	}
	if strings.Contains(key, "alt+") {
		mods |= control.Alt
	}
	return mods
}

func keyEvent(msg tea.KeyMsg) control.Event {
	key := msg.String()
	return control.Event{Kind: control.Key, Key: key, Mods: keyMods(key)}
}

// panDelta returns the camera pan, in pixels, for a navigation key.
// Shifted and capital vi keys move twice as far.
func panDelta(key string, step float64) (dx, dy float64, ok bool) {
	speed := step * float64(getMoveSpeed(key))
	switch key {
	case "h", "left", "H", "shift+left":
		return -speed, 0, true
	case "l", "right", "L", "shift+right":
		return speed, 0, true
	case "k", "up", "K", "shift+up":
		return 0, -speed, true
	case "j", "down", "J", "shift+down":
		return 0, speed, true
	}
	return 0, 0, false
}

func getMoveSpeed(key string) int {
	switch key {
	case "H", "L", "K", "J", "shift+left", "shift+right", "shift+up", "shift+down":
		return 2
	default:
		return 1
	}
}
