package controller

import (
	"fmt"

	"callflow/internal/config"
	"callflow/internal/tui/model"
	"callflow/pkg/logging"

	tea "github.com/charmbracelet/bubbletea"
)

// NewProgram creates the Bubble Tea program that edits the flow at path.
// Cell motion mouse mode reports motion only while a button is held, which
// is exactly when a drag needs it.
func NewProgram(path string, cfg config.CallflowConfig, logChannel <-chan logging.LogEntry) (*tea.Program, *model.Model, error) {
	m, err := model.InitializeModel(path, cfg, logChannel)
	if err != nil {
		return nil, nil, err
	}

	app := NewAppModel(m)
	p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion())
	return p, m, nil
}

// Run edits the flow at path until the user quits.
func Run(path string, cfg config.CallflowConfig, logChannel <-chan logging.LogEntry) error {
	p, m, err := NewProgram(path, cfg, logChannel)
	if err != nil {
		return err
	}
	defer m.Shutdown()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running editor: %w", err)
	}
	if m.Editor.Dirty() {
		logging.Warn(controllerSubsystem, "quit with unsaved changes to %s", m.Path)
	}
	return nil
}
