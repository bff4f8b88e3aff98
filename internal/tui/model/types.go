package model

import (
	"context"
	"time"

	"callflow/internal/canvas"
	"callflow/internal/config"
	"callflow/internal/editor"
	"callflow/internal/graph"
	"callflow/internal/storage"
	"callflow/internal/tui/design"
	"callflow/pkg/logging"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// AppMode represents the current mode of the application
type AppMode int

const (
	ModeCanvas AppMode = iota
	ModeForm
	ModeRawJSON
	ModeHelpOverlay
	ModeLogOverlay
	ModeQuitting
)

func (m AppMode) String() string {
	switch m {
	case ModeCanvas:
		return "canvas"
	case ModeForm:
		return "form"
	case ModeRawJSON:
		return "json"
	case ModeHelpOverlay:
		return "help"
	case ModeLogOverlay:
		return "log"
	case ModeQuitting:
		return "quitting"
	}
	return "unknown"
}

// MessageType represents the type of status bar message
type MessageType int

const (
	StatusBarInfo MessageType = iota
	StatusBarSuccess
	StatusBarError
	StatusBarWarning
)

// MaxActivityLogLines caps the in-memory activity log.
const MaxActivityLogLines = 500

// Model is the state of the terminal editor for one open flow.
type Model struct {
	Width  int
	Height int

	CurrentAppMode AppMode
	LastAppMode    AppMode

	Config   config.CallflowConfig
	Path     string
	Document storage.Document
	Editor   *editor.Editor
	Viewport canvas.Viewport
	Issues   []graph.Issue
	// IsNew is set until the flow is first written to disk.
	IsNew bool

	// Configuration panel
	FormFocus  int
	FieldInput textinput.Model
	FieldError string
	JSONInput  textarea.Model
	JSONError  string

	Keys KeyMap
	Help help.Model

	ActivityLog []string
	LogViewport viewport.Model
	LogChannel  <-chan logging.LogEntry

	Watcher     *storage.Watcher
	watchCancel context.CancelFunc

	StatusBarMessage     string
	StatusBarMessageType MessageType
	StatusBarClearCancel chan struct{}

	// ConfirmQuit is set after a quit request with unsaved changes.
	ConfirmQuit bool
}

// Store is the graph being edited.
func (m *Model) Store() *graph.Store {
	return m.Editor.Store()
}

// PanelOpen reports whether the configuration panel takes screen space.
func (m *Model) PanelOpen() bool {
	_, ok := m.Editor.SelectedNode()
	return ok
}

// CanvasSize is the number of cells available to the canvas: the full
// width minus the panel, and the height minus header and status bar.
func (m *Model) CanvasSize() (cols, rows int) {
	cols = m.Width
	if m.PanelOpen() {
		cols -= design.PanelWidth
	}
	return max(cols, 1), max(m.Height-2, 1)
}

// Resize recomputes every size that depends on the terminal dimensions.
func (m *Model) Resize(width, height int) {
	m.Width = width
	m.Height = height
	m.SyncViewport()

	m.LogViewport.Width = max(width-6, 10)
	m.LogViewport.Height = max(height-10, 3)
	m.FieldInput.Width = max(design.PanelWidth-6, 8)
	m.JSONInput.SetWidth(max(width-8, 20))
	m.JSONInput.SetHeight(max(height-13, 3))
	m.Help.Width = width
}

// SyncViewport fits the canvas viewport to the current layout. It must run
// whenever the selection changes since the panel narrows the canvas.
func (m *Model) SyncViewport() {
	m.Viewport.Cols, m.Viewport.Rows = m.CanvasSize()
	m.Editor.SetViewport(m.Viewport.Bounds())
}

// Pan moves the visible canvas area by whole cells.
func (m *Model) Pan(dcols, drows int) {
	m.Viewport = m.Viewport.Pan(dcols, drows)
	m.Editor.SetViewport(m.Viewport.Bounds())
}

// CanvasPoint maps a terminal cell to canvas pixel space. The canvas starts
// below the header row.
func (m *Model) CanvasPoint(x, y int) (graph.Position, bool) {
	cols, rows := m.CanvasSize()
	col, row := x, y-1
	if col < 0 || row < 0 || col >= cols || row >= rows {
		return graph.Position{}, false
	}
	return m.Viewport.Point(col, row), true
}

// SetStatusMessage shows message in the status bar and clears it after
// clearAfter unless another message replaces it first.
func (m *Model) SetStatusMessage(message string, msgType MessageType, clearAfter time.Duration) tea.Cmd {
	m.StatusBarMessage = message
	m.StatusBarMessageType = msgType

	if m.StatusBarClearCancel != nil {
		close(m.StatusBarClearCancel)
	}

	m.StatusBarClearCancel = make(chan struct{})
	captured := m.StatusBarClearCancel

	return tea.Tick(clearAfter, func(t time.Time) tea.Msg {
		select {
		case <-captured:
			return nil
		default:
			return ClearStatusBarMsg{}
		}
	})
}

// ClearStatusMessage removes the status bar message.
func (m *Model) ClearStatusMessage() {
	m.StatusBarMessage = ""
	m.StatusBarMessageType = StatusBarInfo
	if m.StatusBarClearCancel != nil {
		close(m.StatusBarClearCancel)
		m.StatusBarClearCancel = nil
	}
}

// SwitchMode enters mode, remembering the previous one for overlays.
func (m *Model) SwitchMode(mode AppMode) {
	if m.CurrentAppMode == mode {
		return
	}
	m.LastAppMode = m.CurrentAppMode
	m.CurrentAppMode = mode
}

// RestoreMode leaves an overlay.
func (m *Model) RestoreMode() {
	m.CurrentAppMode = m.LastAppMode
	m.LastAppMode = ModeCanvas
}
