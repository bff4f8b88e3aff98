package controller

import (
	"fmt"
	"time"

	"callflow/internal/tui/model"

	tea "github.com/charmbracelet/bubbletea"
)

const statusDuration = 3 * time.Second

// Update is the central message dispatcher of the editor.
func Update(msg tea.Msg, m *model.Model) (*model.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Resize(msg.Width, msg.Height)
		return m, nil

	case tea.KeyMsg:
		return handleKeyMsg(m, msg)

	case tea.MouseMsg:
		return handleMouseMsg(m, msg)

	case model.ClearStatusBarMsg:
		m.ClearStatusMessage()
		return m, nil

	case model.LogEntryMsg:
		m.AppendLogLine(msg.Entry.String())
		return m, model.ListenForLogs(m.LogChannel)

	case model.WatcherStartedMsg:
		return m, model.WaitForFileChange(m.Watcher)

	case model.FileChangedMsg:
		return m, tea.Batch(handleFileChanged(m), model.WaitForFileChange(m.Watcher))

	case model.ErrorMsg:
		LogError(msg.Err, "%s failed", msg.Op)
		return m, m.SetStatusMessage(fmt.Sprintf("%s failed: %v", msg.Op, msg.Err), model.StatusBarError, statusDuration)
	}
	return m, nil
}

func handleFileChanged(m *model.Model) tea.Cmd {
	change, err := m.HandleFileChange()
	if err != nil {
		LogError(err, "failed to read %s after it changed", m.Path)
		return m.SetStatusMessage("Flow changed on disk but could not be read", model.StatusBarError, statusDuration)
	}
	switch change {
	case model.ChangeReloaded:
		LogInfo("reloaded %s (version %d)", m.Path, m.Document.Version)
		return m.SetStatusMessage("Reloaded flow changed on disk", model.StatusBarInfo, statusDuration)
	case model.ChangeConflict:
		LogWarn("%s changed on disk while there are unsaved edits", m.Path)
		return m.SetStatusMessage("Flow changed on disk: R reloads, ctrl+s overwrites", model.StatusBarWarning, 2*statusDuration)
	case model.ChangeRemoved:
		LogWarn("%s was removed", m.Path)
		return m.SetStatusMessage("Flow file removed; ctrl+s writes it again", model.StatusBarWarning, 2*statusDuration)
	}
	return nil
}
