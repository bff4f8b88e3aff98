package model

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"callflow/internal/canvas"
	"callflow/internal/config"
	"callflow/internal/editor"
	"callflow/internal/graph"
	"callflow/internal/storage"
	"callflow/pkg/logging"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

const subsystem = "TUI"

// InitializeModel opens the flow at path, or starts a new one when the file
// does not exist yet. Nothing is written until the user saves.
func InitializeModel(path string, cfg config.CallflowConfig, logChannel <-chan logging.LogEntry) (*Model, error) {
	opts := cfg.GraphOptions()

	isNew := false
	doc, err := storage.Load(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		isNew = true
		doc = storage.NewDocument(storage.NameFromPath(path), graph.New(opts...))
	case err != nil:
		return nil, err
	}

	store, issues := doc.Store(opts...)
	for _, issue := range issues {
		logging.Warn(subsystem, "%s: %s", path, issue)
	}

	m := &Model{
		CurrentAppMode: ModeCanvas,
		LastAppMode:    ModeCanvas,

		Config:   cfg,
		Path:     path,
		Document: doc,
		Editor:   editor.New(store, editor.WithMetrics(cfg.Metrics())),
		Issues:   issues,
		IsNew:    isNew,

		FieldInput:  textinput.New(),
		JSONInput:   textarea.New(),
		Keys:        DefaultKeyMap(),
		Help:        help.New(),
		LogViewport: viewport.New(80, 20),
		LogChannel:  logChannel,
		ActivityLog: []string{},
	}

	m.FieldInput.CharLimit = 500
	m.JSONInput.ShowLineNumbers = true
	m.JSONInput.CharLimit = 0

	m.Viewport = canvas.Fit(store.Nodes(), m.Editor.Metrics(), cfg.Canvas.CellWidth, cfg.Canvas.CellHeight)
	m.Resize(80, 24)

	if cfg.Storage.WatchEnabled() {
		w, err := storage.NewWatcher(path, 0)
		if err != nil {
			logging.Warn(subsystem, "file watching disabled: %v", err)
		} else {
			m.Watcher = w
		}
	}

	return m, nil
}

// Init implements the tea.Model interface
func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{ListenForLogs(m.LogChannel)}
	if m.Watcher != nil {
		cmds = append(cmds, m.startWatcher())
	}
	if len(m.Issues) > 0 {
		cmds = append(cmds, m.SetStatusMessage(
			fmt.Sprintf("%d issue(s) repaired while loading, press v for details", len(m.Issues)),
			StatusBarWarning, statusDuration))
	}
	return tea.Batch(cmds...)
}

func (m *Model) startWatcher() tea.Cmd {
	ctx, cancel := context.WithCancel(context.Background())
	m.watchCancel = cancel
	w := m.Watcher
	return func() tea.Msg {
		if err := w.Start(ctx); err != nil {
			return ErrorMsg{Op: "watch", Err: err}
		}
		return WatcherStartedMsg{}
	}
}

// Shutdown stops background work. It is called once the program exits.
func (m *Model) Shutdown() {
	if m.watchCancel != nil {
		m.watchCancel()
		m.watchCancel = nil
	}
	if m.Watcher != nil {
		m.Watcher.Stop()
		m.Watcher = nil
	}
}
