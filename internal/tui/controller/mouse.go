package controller

import (
	"fmt"

	"callflow/internal/editor"
	"callflow/internal/tui/model"

	tea "github.com/charmbracelet/bubbletea"
)

// handleMouseMsg translates terminal mouse events into editor pointer events.
// Only the canvas reacts to the mouse; overlays only scroll.
func handleMouseMsg(m *model.Model, msg tea.MouseMsg) (*model.Model, tea.Cmd) {
	if tea.MouseEvent(msg).IsWheel() {
		return handleWheel(m, msg)
	}

	switch m.CurrentAppMode {
	case model.ModeCanvas:
	case model.ModeForm:
		// clicking the canvas leaves the form, keeping what was typed
		if msg.Action != tea.MouseActionPress {
			return m, nil
		}
		if _, ok := m.CanvasPoint(msg.X, msg.Y); !ok {
			return m, nil
		}
		if err := m.CommitField(); err != nil {
			return m, nil
		}
		m.CloseForm()
	default:
		return m, nil
	}

	if msg.Button != tea.MouseButtonLeft && msg.Action != tea.MouseActionMotion && msg.Action != tea.MouseActionRelease {
		return m, nil
	}

	var res editor.Result
	switch msg.Action {
	case tea.MouseActionPress:
		p, ok := m.CanvasPoint(msg.X, msg.Y)
		if !ok {
			return m, nil
		}
		res = m.Editor.PointerDown(p)
	case tea.MouseActionMotion:
		if !m.Editor.IsDragging() {
			return m, nil
		}
		res = m.Editor.PointerMove(m.Viewport.Point(msg.X, msg.Y-1))
	case tea.MouseActionRelease:
		res = m.Editor.PointerUp(m.Viewport.Point(msg.X, msg.Y-1))
	}
	return m, applyResult(m, res)
}

// applyResult keeps the layout in step with the editor after an interaction.
func applyResult(m *model.Model, res editor.Result) tea.Cmd {
	switch res.Action {
	case editor.ActionSelected, editor.ActionCleared:
		m.SyncViewport()
	case editor.ActionNodeAdded:
		m.SyncViewport()
		n, ok := m.Store().Node(res.NodeID)
		if ok {
			LogInfo("added %s", n.ID)
			return m.SetStatusMessage(fmt.Sprintf("Added %s", n.Type), model.StatusBarSuccess, statusDuration)
		}
	}
	return nil
}

func handleWheel(m *model.Model, msg tea.MouseMsg) (*model.Model, tea.Cmd) {
	if m.CurrentAppMode == model.ModeLogOverlay {
		var cmd tea.Cmd
		m.LogViewport, cmd = m.LogViewport.Update(msg)
		return m, cmd
	}
	if m.CurrentAppMode != model.ModeCanvas && m.CurrentAppMode != model.ModeForm {
		return m, nil
	}
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		if msg.Shift {
			m.Pan(-4, 0)
		} else {
			m.Pan(0, -2)
		}
	case tea.MouseButtonWheelDown:
		if msg.Shift {
			m.Pan(4, 0)
		} else {
			m.Pan(0, 2)
		}
	case tea.MouseButtonWheelLeft:
		m.Pan(-4, 0)
	case tea.MouseButtonWheelRight:
		m.Pan(4, 0)
	}
	return m, nil
}
