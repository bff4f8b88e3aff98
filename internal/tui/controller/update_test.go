package controller

import (
	"os"
	"path/filepath"
	"testing"

	"callflow/internal/canvas"
	"callflow/internal/config"
	"callflow/internal/graph"
	"callflow/internal/tui/model"
	"callflow/pkg/logging"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T) *model.Model {
	t.Helper()
	cfg := config.GetDefaultConfig()
	cfg.Canvas.IDs = config.IDStyleSequence
	off := false
	cfg.Storage.Watch = &off

	m, err := model.InitializeModel(filepath.Join(t.TempDir(), "support.yaml"), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(m.Shutdown)

	m, _ = Update(tea.WindowSizeMsg{Width: 120, Height: 40}, m)
	return m
}

// screen returns the terminal coordinates of the cell containing p.
func screen(t *testing.T, m *model.Model, p graph.Position, within canvas.Rect) (int, int) {
	t.Helper()
	col, row := m.Viewport.Cell(p)
	require.True(t, within.Contains(m.Viewport.Point(col, row)), "cell center must stay inside the target")
	return col, row + 1
}

func mouse(x, y int, action tea.MouseAction, button tea.MouseButton) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: action, Button: button}
}

func press(m *model.Model, x, y int) *model.Model {
	m, _ = Update(mouse(x, y, tea.MouseActionPress, tea.MouseButtonLeft), m)
	return m
}

func release(m *model.Model, x, y int) *model.Model {
	m, _ = Update(mouse(x, y, tea.MouseActionRelease, tea.MouseButtonNone), m)
	return m
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func nodeCenter(t *testing.T, m *model.Model, id string) (int, int) {
	n, ok := m.Store().Node(id)
	require.True(t, ok)
	r := canvas.NodeRect(n, m.Editor.Metrics())
	return screen(t, m, graph.Position{X: r.X + r.W/2, Y: r.Y + r.H/2}, r)
}

func TestMouse_ClickSelects(t *testing.T) {
	m := newTestModel(t)
	fullCols := m.Viewport.Cols

	x, y := nodeCenter(t, m, graph.StartID)
	m = press(m, x, y)
	assert.True(t, m.Editor.IsDragging())
	m = release(m, x, y)

	assert.Equal(t, graph.StartID, m.Editor.Selected())
	assert.Less(t, m.Viewport.Cols, fullCols, "the panel takes canvas space")
	assert.False(t, m.Editor.Dirty())

	// background click clears
	m = press(m, 0, m.Height-3)
	m = release(m, 0, m.Height-3)
	assert.Empty(t, m.Editor.Selected())
	assert.Equal(t, fullCols, m.Viewport.Cols)
}

func TestMouse_DragMovesNode(t *testing.T) {
	m := newTestModel(t)
	before, _ := m.Store().Node(graph.StartID)

	x, y := nodeCenter(t, m, graph.StartID)
	m = press(m, x, y)
	m, _ = Update(mouse(x+5, y+3, tea.MouseActionMotion, tea.MouseButtonLeft), m)
	m = release(m, x+5, y+3)

	after, _ := m.Store().Node(graph.StartID)
	assert.Equal(t, before.Position.X+5*m.Viewport.CellWidth, after.Position.X)
	assert.Equal(t, before.Position.Y+3*m.Viewport.CellHeight, after.Position.Y)
	assert.Empty(t, m.Editor.Selected(), "a drag is not a click")
	assert.True(t, m.Editor.Dirty())
	assert.False(t, m.Editor.IsDragging())
}

func TestMouse_MotionWithoutDragIsIgnored(t *testing.T) {
	m := newTestModel(t)
	before, _ := m.Store().Node(graph.StartID)
	m, _ = Update(mouse(3, 3, tea.MouseActionMotion, tea.MouseButtonLeft), m)
	after, _ := m.Store().Node(graph.StartID)
	assert.Equal(t, before.Position, after.Position)
}

func TestMouse_AddButtonOpensMenu(t *testing.T) {
	m := newTestModel(t)
	start, _ := m.Store().Node(graph.StartID)
	btn := canvas.AddButtonRect(start, m.Editor.Metrics())
	x, y := screen(t, m, graph.Position{X: btn.X + btn.W/2, Y: btn.Y + btn.H/2}, btn)

	m = press(m, x, y)
	m = release(m, x, y)
	require.True(t, m.Editor.Menu().Open)
	assert.Equal(t, graph.StartID, m.Editor.Menu().SourceID)

	m, _ = Update(tea.KeyMsg{Type: tea.KeyDown}, m)
	m, cmd := Update(tea.KeyMsg{Type: tea.KeyEnter}, m)
	assert.NotNil(t, cmd)

	assert.False(t, m.Editor.Menu().Open)
	assert.Equal(t, 2, m.Store().Len())
	added, ok := m.Editor.SelectedNode()
	require.True(t, ok)
	assert.Equal(t, m.Editor.MenuItems()[1].Type, added.Type)
	assert.Equal(t, start.Position.Y+150, added.Position.Y)
}

func TestMouse_Wheel(t *testing.T) {
	m := newTestModel(t)
	origin := m.Viewport.Origin
	m, _ = Update(mouse(5, 5, tea.MouseActionPress, tea.MouseButtonWheelDown), m)
	assert.Equal(t, origin.Y+2*m.Viewport.CellHeight, m.Viewport.Origin.Y)
}

func TestKeys_CanvasEditing(t *testing.T) {
	m := newTestModel(t)

	m, _ = Update(keyRunes("a"), m)
	assert.False(t, m.Editor.Menu().Open)
	assert.NotEmpty(t, m.StatusBarMessage)

	m, _ = Update(tea.KeyMsg{Type: tea.KeyTab}, m)
	require.Equal(t, graph.StartID, m.Editor.Selected())

	m, _ = Update(keyRunes("x"), m)
	assert.Equal(t, 1, m.Store().Len(), "start survives delete")
	assert.Equal(t, model.StatusBarWarning, m.StatusBarMessageType)

	m, _ = Update(keyRunes("a"), m)
	require.True(t, m.Editor.Menu().Open)
	m, _ = Update(tea.KeyMsg{Type: tea.KeyEnter}, m)
	require.Equal(t, 2, m.Store().Len())
	sub := m.Editor.Selected()

	m, _ = Update(keyRunes("d"), m)
	assert.Equal(t, 3, m.Store().Len())
	dup := m.Editor.Selected()
	assert.NotEqual(t, sub, dup)

	before, _ := m.Store().Node(dup)
	m, _ = Update(tea.KeyMsg{Type: tea.KeyRight}, m)
	after, _ := m.Store().Node(dup)
	assert.Equal(t, before.Position.X+m.Viewport.CellWidth, after.Position.X)

	m, _ = Update(keyRunes("x"), m)
	assert.Equal(t, 2, m.Store().Len())
	assert.Empty(t, m.Editor.Selected())

	m, _ = Update(tea.KeyMsg{Type: tea.KeyCtrlS}, m)
	assert.False(t, m.Editor.Dirty())
	_, err := os.Stat(m.Path)
	assert.NoError(t, err)
	assert.Equal(t, model.StatusBarSuccess, m.StatusBarMessageType)
}

func TestKeys_TerminalNodeHasNoMenu(t *testing.T) {
	m := newTestModel(t)
	end, ok := m.Store().AddNode(graph.TypeEnd, graph.StartID)
	require.True(t, ok)
	require.True(t, m.Editor.Select(end.ID))

	m, _ = Update(keyRunes("a"), m)
	assert.False(t, m.Editor.Menu().Open)
}

func TestKeys_Form(t *testing.T) {
	m := newTestModel(t)
	sub, _ := m.Store().AddNode(graph.TypeSubagent, graph.StartID)
	require.True(t, m.Editor.Select(sub.ID))

	m, _ = Update(tea.KeyMsg{Type: tea.KeyEnter}, m)
	require.Equal(t, model.ModeForm, m.CurrentAppMode)

	// q types into the field instead of quitting
	m, _ = Update(keyRunes("q"), m)
	m, _ = Update(tea.KeyMsg{Type: tea.KeyEnter}, m)
	got, _ := m.Store().Node(sub.ID)
	assert.Equal(t, "Subagentq", got.Data.(graph.SubagentData).Label)
	assert.Equal(t, 1, m.FormFocus)

	m, _ = Update(tea.KeyMsg{Type: tea.KeyEsc}, m)
	assert.Equal(t, model.ModeCanvas, m.CurrentAppMode)
}

func TestKeys_RawJSON(t *testing.T) {
	m := newTestModel(t)
	tool, _ := m.Store().AddNode(graph.TypeTool, graph.StartID)
	require.True(t, m.Editor.Select(tool.ID))

	m, _ = Update(keyRunes("e"), m)
	require.Equal(t, model.ModeRawJSON, m.CurrentAppMode)

	m.JSONInput.SetValue(`{"name": 12}`)
	m, _ = Update(tea.KeyMsg{Type: tea.KeyCtrlS}, m)
	assert.Equal(t, model.ModeRawJSON, m.CurrentAppMode)
	assert.NotEmpty(t, m.JSONError)

	m.JSONInput.SetValue(`{"label": "Lookup", "name": "lookup_order"}`)
	m, _ = Update(tea.KeyMsg{Type: tea.KeyCtrlS}, m)
	assert.Equal(t, model.ModeCanvas, m.CurrentAppMode)
	got, _ := m.Store().Node(tool.ID)
	assert.Equal(t, "lookup_order", got.Data.(graph.ToolData).Name)
}

func TestKeys_Overlays(t *testing.T) {
	m := newTestModel(t)

	m, _ = Update(keyRunes("?"), m)
	assert.Equal(t, model.ModeHelpOverlay, m.CurrentAppMode)
	m, _ = Update(tea.KeyMsg{Type: tea.KeyEsc}, m)
	assert.Equal(t, model.ModeCanvas, m.CurrentAppMode)

	m, _ = Update(keyRunes("L"), m)
	assert.Equal(t, model.ModeLogOverlay, m.CurrentAppMode)
	m, _ = Update(keyRunes("L"), m)
	assert.Equal(t, model.ModeCanvas, m.CurrentAppMode)
}

func TestKeys_QuitConfirmsUnsavedChanges(t *testing.T) {
	m := newTestModel(t)
	_, cmd := Update(keyRunes("q"), newTestModel(t))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	require.True(t, m.Editor.Select(graph.StartID))
	m.Editor.Nudge(graph.Position{X: 10})

	m, cmd = Update(keyRunes("q"), m)
	assert.True(t, m.ConfirmQuit)
	assert.NotEqual(t, model.ModeQuitting, m.CurrentAppMode)
	require.NotNil(t, cmd)

	// any other key cancels
	m, _ = Update(keyRunes("v"), m)
	assert.False(t, m.ConfirmQuit)

	m, _ = Update(keyRunes("q"), m)
	m, cmd = Update(keyRunes("q"), m)
	assert.Equal(t, model.ModeQuitting, m.CurrentAppMode)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestUpdate_Messages(t *testing.T) {
	m := newTestModel(t)
	m.SetStatusMessage("hello", model.StatusBarInfo, 0)
	m, _ = Update(model.ClearStatusBarMsg{}, m)
	assert.Empty(t, m.StatusBarMessage)

	m, cmd := Update(model.ErrorMsg{Op: "watch", Err: assert.AnError}, m)
	assert.NotNil(t, cmd)
	assert.Equal(t, model.StatusBarError, m.StatusBarMessageType)

	m, _ = Update(model.LogEntryMsg{Entry: logging.LogEntry{Level: logging.LevelInfo, Subsystem: "Test", Message: "hello"}}, m)
	require.Len(t, m.ActivityLog, 1)
	assert.Contains(t, m.ActivityLog[0], "Test: hello")
}

func TestAppModel(t *testing.T) {
	m := newTestModel(t)
	app := NewAppModel(m)
	assert.Same(t, m, app.Model())

	updated, _ := app.Update(tea.WindowSizeMsg{Width: 90, Height: 30})
	assert.Equal(t, 90, updated.(AppModel).Model().Width)
	assert.Contains(t, updated.View(), "callflow")
}
