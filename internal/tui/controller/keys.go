package controller

import (
	"fmt"
	"strings"

	"callflow/internal/canvas"
	"callflow/internal/editor"
	"callflow/internal/graph"
	"callflow/internal/tui/model"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// handleKeyMsg routes a key press to the handler of the current mode.
func handleKeyMsg(m *model.Model, msg tea.KeyMsg) (*model.Model, tea.Cmd) {
	switch m.CurrentAppMode {
	case model.ModeForm:
		return handleFormKey(m, msg)
	case model.ModeRawJSON:
		return handleJSONKey(m, msg)
	case model.ModeHelpOverlay:
		if key.Matches(msg, m.Keys.Esc, m.Keys.Help, m.Keys.Quit) {
			m.RestoreMode()
		}
		return m, nil
	case model.ModeLogOverlay:
		return handleLogKey(m, msg)
	}
	return handleCanvasKey(m, msg)
}

func handleCanvasKey(m *model.Model, msg tea.KeyMsg) (*model.Model, tea.Cmd) {
	if m.ConfirmQuit {
		m.ConfirmQuit = false
		if key.Matches(msg, m.Keys.Quit) {
			m.CurrentAppMode = model.ModeQuitting
			return m, tea.Quit
		}
		m.ClearStatusMessage()
	}

	if m.Editor.Menu().Open {
		switch {
		case key.Matches(msg, m.Keys.Up):
			m.Editor.MoveHighlight(-1)
			return m, nil
		case key.Matches(msg, m.Keys.Down), key.Matches(msg, m.Keys.Tab):
			m.Editor.MoveHighlight(1)
			return m, nil
		case key.Matches(msg, m.Keys.Enter):
			n, ok := m.Editor.ChooseHighlighted()
			if !ok {
				return m, nil
			}
			return m, applyResult(m, editor.Result{Action: editor.ActionNodeAdded, NodeID: n.ID})
		case key.Matches(msg, m.Keys.Esc):
			m.Editor.CloseMenu()
			return m, nil
		}
	}

	switch {
	case key.Matches(msg, m.Keys.Quit):
		if m.Editor.Dirty() {
			m.ConfirmQuit = true
			return m, m.SetStatusMessage("Unsaved changes: press q again to quit, ctrl+s to save", model.StatusBarWarning, 2*statusDuration)
		}
		m.CurrentAppMode = model.ModeQuitting
		return m, tea.Quit

	case key.Matches(msg, m.Keys.Help):
		m.SwitchMode(model.ModeHelpOverlay)
		return m, nil

	case key.Matches(msg, m.Keys.ToggleLog):
		m.SwitchMode(model.ModeLogOverlay)
		m.LogViewport.GotoBottom()
		return m, nil

	case key.Matches(msg, m.Keys.Tab):
		m.Editor.SelectNext(1)
		m.SyncViewport()
		return m, nil

	case key.Matches(msg, m.Keys.ShiftTab):
		m.Editor.SelectNext(-1)
		m.SyncViewport()
		return m, nil

	case key.Matches(msg, m.Keys.Up):
		return m, move(m, 0, -1)
	case key.Matches(msg, m.Keys.Down):
		return m, move(m, 0, 1)
	case key.Matches(msg, m.Keys.Left):
		return m, move(m, -1, 0)
	case key.Matches(msg, m.Keys.Right):
		return m, move(m, 1, 0)

	case key.Matches(msg, m.Keys.Esc):
		m.Editor.CloseMenu()
		m.Editor.ClearSelection()
		m.SyncViewport()
		return m, nil

	case key.Matches(msg, m.Keys.AddNode):
		return m, openMenu(m)

	case key.Matches(msg, m.Keys.Delete):
		return m, deleteSelected(m)

	case key.Matches(msg, m.Keys.Duplicate):
		n, ok := m.Editor.DuplicateSelected()
		if !ok {
			return m, m.SetStatusMessage("Select a node other than start to duplicate", model.StatusBarInfo, statusDuration)
		}
		m.SyncViewport()
		return m, m.SetStatusMessage(fmt.Sprintf("Duplicated as %s", n.ID), model.StatusBarSuccess, statusDuration)

	case key.Matches(msg, m.Keys.Enter):
		if !m.OpenForm() {
			return m, m.SetStatusMessage("Select a node to configure", model.StatusBarInfo, statusDuration)
		}
		return m, nil

	case key.Matches(msg, m.Keys.RawJSON):
		if err := m.OpenRawJSON(); err != nil {
			return m, m.SetStatusMessage(err.Error(), model.StatusBarInfo, statusDuration)
		}
		return m, nil

	case key.Matches(msg, m.Keys.Save):
		return m, save(m)

	case key.Matches(msg, m.Keys.Reload):
		if err := m.Reload(); err != nil {
			LogError(err, "reload failed")
			return m, m.SetStatusMessage("Reload failed: "+err.Error(), model.StatusBarError, statusDuration)
		}
		return m, m.SetStatusMessage("Reloaded from disk", model.StatusBarInfo, statusDuration)

	case key.Matches(msg, m.Keys.Validate):
		return m, validate(m)

	case key.Matches(msg, m.Keys.Copy):
		out, err := m.YAML()
		if err == nil {
			err = clipboard.WriteAll(out)
		}
		if err != nil {
			LogError(err, "failed to copy flow")
			return m, m.SetStatusMessage("Copy failed", model.StatusBarError, statusDuration)
		}
		return m, m.SetStatusMessage("Flow copied as YAML", model.StatusBarSuccess, statusDuration)

	case key.Matches(msg, m.Keys.Fit):
		m.FitView()
		return m, nil

	case key.Matches(msg, m.Keys.ToggleDark):
		lipgloss.SetHasDarkBackground(!lipgloss.HasDarkBackground())
		return m, nil
	}
	return m, nil
}

// move nudges the selected node by one cell, or pans when nothing is selected.
func move(m *model.Model, dx, dy int) tea.Cmd {
	d := graph.Position{X: float64(dx) * m.Viewport.CellWidth, Y: float64(dy) * m.Viewport.CellHeight}
	if !m.Editor.Nudge(d) {
		m.Pan(dx*2, dy)
	}
	return nil
}

func openMenu(m *model.Model) tea.Cmd {
	n, ok := m.Editor.SelectedNode()
	if !ok {
		return m.SetStatusMessage("Select a node to add a step after it", model.StatusBarInfo, statusDuration)
	}
	if !canvas.HasAddButton(n) {
		return m.SetStatusMessage(fmt.Sprintf("%s nodes end the call; nothing can follow them", n.Type), model.StatusBarInfo, statusDuration)
	}
	m.Editor.OpenMenuForSelected()
	return nil
}

func deleteSelected(m *model.Model) tea.Cmd {
	n, ok := m.Editor.SelectedNode()
	switch {
	case !ok:
		return m.SetStatusMessage("Select a node to delete", model.StatusBarInfo, statusDuration)
	case n.Type == graph.TypeStart:
		return m.SetStatusMessage("The start node cannot be deleted", model.StatusBarWarning, statusDuration)
	}
	m.Editor.DeleteSelected()
	m.SyncViewport()
	return m.SetStatusMessage(fmt.Sprintf("Deleted %s", n.ID), model.StatusBarSuccess, statusDuration)
}

func save(m *model.Model) tea.Cmd {
	if err := m.Save(); err != nil {
		LogError(err, "save failed")
		return m.SetStatusMessage("Save failed: "+err.Error(), model.StatusBarError, statusDuration)
	}
	return m.SetStatusMessage(fmt.Sprintf("Saved %s (v%d)", m.Path, m.Document.Version), model.StatusBarSuccess, statusDuration)
}

func validate(m *model.Model) tea.Cmd {
	issues := m.Validate()
	if len(issues) == 0 {
		return m.SetStatusMessage("No issues found", model.StatusBarSuccess, statusDuration)
	}
	for _, issue := range issues {
		LogWarn("%s", issue)
	}
	msgs := make([]string, 0, len(issues))
	for _, issue := range issues {
		msgs = append(msgs, issue.Message)
	}
	return m.SetStatusMessage(fmt.Sprintf("%d issue(s): %s", len(issues), strings.Join(msgs, "; ")), model.StatusBarWarning, 2*statusDuration)
}

func handleFormKey(m *model.Model, msg tea.KeyMsg) (*model.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		m.CloseForm()
		return handleCanvasKey(m, msg)

	case key.Matches(msg, m.Keys.Esc):
		m.CloseForm()
		return m, nil

	case key.Matches(msg, m.Keys.Save):
		if err := m.CommitField(); err != nil {
			return m, nil
		}
		return m, save(m)

	case msg.Type == tea.KeyEnter, msg.Type == tea.KeyTab, msg.Type == tea.KeyDown:
		if err := m.CommitField(); err != nil {
			return m, nil
		}
		m.FocusField(m.FormFocus + 1)
		return m, nil

	case msg.Type == tea.KeyShiftTab, msg.Type == tea.KeyUp:
		if err := m.CommitField(); err != nil {
			return m, nil
		}
		m.FocusField(m.FormFocus - 1)
		return m, nil

	case msg.Type == tea.KeyLeft && m.CycleChoice(-1):
		return m, nil
	case msg.Type == tea.KeyRight && m.CycleChoice(1):
		return m, nil
	}

	var cmd tea.Cmd
	m.FieldInput, cmd = m.FieldInput.Update(msg)
	return m, cmd
}

func handleJSONKey(m *model.Model, msg tea.KeyMsg) (*model.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		m.CloseRawJSON()
		return handleCanvasKey(m, msg)

	case key.Matches(msg, m.Keys.Esc):
		m.CloseRawJSON()
		return m, nil
	case key.Matches(msg, m.Keys.Save):
		if err := m.ApplyRawJSON(); err != nil {
			return m, nil
		}
		return m, m.SetStatusMessage("Tool configuration updated", model.StatusBarSuccess, statusDuration)
	}

	var cmd tea.Cmd
	m.JSONInput, cmd = m.JSONInput.Update(msg)
	return m, cmd
}

func handleLogKey(m *model.Model, msg tea.KeyMsg) (*model.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Esc), key.Matches(msg, m.Keys.ToggleLog):
		m.RestoreMode()
		return m, nil
	case key.Matches(msg, m.Keys.Copy):
		if err := clipboard.WriteAll(strings.Join(m.ActivityLog, "\n")); err != nil {
			LogError(err, "failed to copy logs")
			return m, m.SetStatusMessage("Copy logs failed", model.StatusBarError, statusDuration)
		}
		return m, m.SetStatusMessage("Logs copied", model.StatusBarSuccess, statusDuration)
	}

	var cmd tea.Cmd
	m.LogViewport, cmd = m.LogViewport.Update(msg)
	return m, cmd
}
