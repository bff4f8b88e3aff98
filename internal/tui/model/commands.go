package model

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"callflow/internal/canvas"
	"callflow/internal/graph"
	"callflow/internal/storage"
	"callflow/pkg/logging"

	tea "github.com/charmbracelet/bubbletea"
)

const statusDuration = 3 * time.Second

// ListenForLogs delivers the next log entry. The controller re-issues it
// after each entry.
func ListenForLogs(ch <-chan logging.LogEntry) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		entry, ok := <-ch
		if !ok {
			return nil
		}
		return LogEntryMsg{Entry: entry}
	}
}

// WaitForFileChange delivers the next change notification of w.
func WaitForFileChange(w *storage.Watcher) tea.Cmd {
	if w == nil {
		return nil
	}
	changes := w.Changes()
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return FileChangedMsg{}
	}
}

// Save writes the flow to disk and marks the editor clean.
func (m *Model) Save() error {
	saved, err := storage.Save(m.Path, m.Document.WithStore(m.Store()))
	if err != nil {
		return err
	}
	m.Document = saved
	m.IsNew = false
	m.Editor.MarkSaved()
	logging.Info(subsystem, "saved %s (version %d)", m.Path, saved.Version)
	return nil
}

// Reload replaces the graph with the file on disk, dropping unsaved edits.
func (m *Model) Reload() error {
	doc, err := storage.Load(m.Path)
	if err != nil {
		return err
	}
	m.apply(doc)
	return nil
}

func (m *Model) apply(doc storage.Document) {
	store, issues := doc.Store(m.Config.GraphOptions()...)
	for _, issue := range issues {
		logging.Warn(subsystem, "%s: %s", m.Path, issue)
	}
	m.Document = doc
	m.Issues = issues
	m.IsNew = false
	m.Editor.Replace(store)
	m.CurrentAppMode = ModeCanvas
	m.SyncViewport()
}

// ExternalChange decides what a change on disk means for the open flow.
type ExternalChange int

const (
	ChangeNone ExternalChange = iota
	ChangeReloaded
	ChangeConflict
	ChangeRemoved
)

// HandleFileChange reconciles the editor with the file after a change on
// disk. Our own saves are recognized by version and ignored. Unsaved edits
// are never discarded; the change is reported as a conflict instead.
func (m *Model) HandleFileChange() (ExternalChange, error) {
	doc, err := storage.Load(m.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return ChangeRemoved, nil
	}
	if err != nil {
		return ChangeNone, err
	}
	if !m.IsNew && doc.Version == m.Document.Version {
		return ChangeNone, nil
	}
	if m.Editor.Dirty() {
		return ChangeConflict, nil
	}
	m.apply(doc)
	return ChangeReloaded, nil
}

// Validate refreshes Issues from the current graph.
func (m *Model) Validate() []graph.Issue {
	m.Issues = m.Store().Validate()
	return m.Issues
}

// YAML encodes the current graph as a YAML document.
func (m *Model) YAML() (string, error) {
	b, err := storage.Encode(m.Document.WithStore(m.Store()), storage.FormatYAML)
	if err != nil {
		return "", fmt.Errorf("failed to encode flow: %w", err)
	}
	return string(b), nil
}

// FitView pans and sizes the viewport so that the whole flow is visible
// when it fits, keeping the current cell size.
func (m *Model) FitView() {
	fit := canvas.Fit(m.Store().Nodes(), m.Editor.Metrics(), m.Viewport.CellWidth, m.Viewport.CellHeight)
	m.Viewport.Origin = fit.Origin
	m.SyncViewport()
}
