package view

import (
	"path/filepath"
	"strings"
	"testing"

	"callflow/internal/config"
	"callflow/internal/graph"
	"callflow/internal/tui/model"

	"github.com/charmbracelet/lipgloss"
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
	m.Resize(120, 40)
	return m
}

func TestRender_Canvas(t *testing.T) {
	m := newTestModel(t)
	out := Render(m)

	assert.Contains(t, out, "callflow")
	assert.Contains(t, out, "support (new)")
	assert.Contains(t, out, "1 nodes")
	assert.Contains(t, out, "Start")
	assert.Equal(t, m.Height, lipgloss.Height(out))
	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, lipgloss.Width(line), m.Width)
	}
}

func TestRender_PanelAndMenu(t *testing.T) {
	m := newTestModel(t)
	sub, _ := m.Store().AddNode(graph.TypeSubagent, graph.StartID)
	require.True(t, m.Editor.Select(sub.ID))
	m.SyncViewport()

	out := Render(m)
	assert.Contains(t, out, "Agent")
	assert.Contains(t, out, "Connections")
	assert.Contains(t, out, "← start")
	assert.Equal(t, m.Height, lipgloss.Height(out))

	require.True(t, m.Editor.OpenMenuForSelected())
	out = Render(m)
	assert.Contains(t, out, "enter add")
	assert.Contains(t, out, "Condition")
}

func TestRender_FormError(t *testing.T) {
	m := newTestModel(t)
	n, _ := m.Store().AddNode(graph.TypeTransfer, graph.StartID)
	require.True(t, m.Editor.Select(n.ID))
	m.SyncViewport()
	require.True(t, m.OpenForm())
	m.FocusField(2)
	m.FieldInput.SetValue("soon")
	require.Error(t, m.CommitField())

	out := Render(m)
	assert.Contains(t, out, "✗")
	assert.Contains(t, out, "form")
}

func TestRender_Overlays(t *testing.T) {
	m := newTestModel(t)

	m.SwitchMode(model.ModeHelpOverlay)
	assert.Contains(t, Render(m), "Keyboard shortcuts")
	m.RestoreMode()

	m.SwitchMode(model.ModeLogOverlay)
	assert.Contains(t, Render(m), "nothing logged yet")
	m.AppendLogLine("12:00:00 [INFO] Editor: hello")
	assert.Contains(t, Render(m), "Editor: hello")
	m.RestoreMode()

	tool, _ := m.Store().AddNode(graph.TypeTool, graph.StartID)
	require.True(t, m.Editor.Select(tool.ID))
	require.NoError(t, m.OpenRawJSON())
	out := Render(m)
	assert.Contains(t, out, "Tool configuration: "+tool.ID)

	m.CurrentAppMode = model.ModeQuitting
	assert.Empty(t, Render(m))
}

func TestRender_StatusMessage(t *testing.T) {
	m := newTestModel(t)
	m.SetStatusMessage("Saved support.yaml", model.StatusBarSuccess, 0)
	assert.Contains(t, Render(m), "Saved support.yaml")
}
