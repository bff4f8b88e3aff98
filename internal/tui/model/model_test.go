package model

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"callflow/internal/config"
	"callflow/internal/graph"
	"callflow/internal/storage"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() config.CallflowConfig {
	cfg := config.GetDefaultConfig()
	cfg.Canvas.IDs = config.IDStyleSequence
	off := false
	cfg.Storage.Watch = &off
	return cfg
}

func newModel(t *testing.T, path string) *Model {
	t.Helper()
	m, err := InitializeModel(path, testConfig(), nil)
	require.NoError(t, err)
	t.Cleanup(m.Shutdown)
	return m
}

func TestInitializeModel_NewFlow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "support.yaml")
	m := newModel(t, path)

	assert.True(t, m.IsNew)
	assert.Equal(t, ModeCanvas, m.CurrentAppMode)
	assert.Equal(t, "support", m.Document.Name)
	assert.Equal(t, 1, m.Store().Len())
	assert.False(t, m.Editor.Dirty())

	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err), "opening a new flow must not write it")
}

func TestInitializeModel_ReportsRepairs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	doc := storage.Document{
		Name: "broken",
		Nodes: []graph.NodeRecord{
			{ID: graph.StartID, Type: graph.TypeStart, Data: map[string]any{"label": "Start"}, Connections: []string{"ghost"}},
		},
	}
	_, err := storage.Save(path, doc)
	require.NoError(t, err)

	m := newModel(t, path)
	assert.False(t, m.IsNew)
	assert.NotEmpty(t, m.Issues)
	assert.NotNil(t, m.Init())
}

func TestInitializeModel_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("nodes: [:::"), 0644))

	_, err := InitializeModel(path, testConfig(), nil)
	assert.Error(t, err)
}

func TestSaveAndFileChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "support.yaml")
	m := newModel(t, path)

	_, ok := m.Store().AddNode(graph.TypeSubagent, graph.StartID)
	require.True(t, ok)
	require.NoError(t, m.Save())
	assert.False(t, m.IsNew)
	assert.Equal(t, 1, m.Document.Version)

	// our own write
	change, err := m.HandleFileChange()
	require.NoError(t, err)
	assert.Equal(t, ChangeNone, change)

	// another writer adds a node
	other, err := storage.Load(path)
	require.NoError(t, err)
	store, _ := other.Store()
	_, ok = store.AddNode(graph.TypeEnd, graph.StartID)
	require.True(t, ok)
	_, err = storage.Save(path, other.WithStore(store))
	require.NoError(t, err)

	change, err = m.HandleFileChange()
	require.NoError(t, err)
	assert.Equal(t, ChangeReloaded, change)
	assert.Equal(t, 3, m.Store().Len())
	assert.Equal(t, 2, m.Document.Version)

	// unsaved edits win over the file
	require.True(t, m.Editor.Select(graph.StartID))
	m.Editor.Nudge(graph.Position{X: 10})
	other, err = storage.Load(path)
	require.NoError(t, err)
	_, err = storage.Save(path, other)
	require.NoError(t, err)

	change, err = m.HandleFileChange()
	require.NoError(t, err)
	assert.Equal(t, ChangeConflict, change)
	assert.True(t, m.Editor.Dirty())

	require.NoError(t, m.Reload())
	assert.False(t, m.Editor.Dirty())
	assert.Equal(t, 3, m.Document.Version)

	require.NoError(t, os.Remove(path))
	change, err = m.HandleFileChange()
	require.NoError(t, err)
	assert.Equal(t, ChangeRemoved, change)
}

func TestWaitForFileChange_EndsWhenWatcherStops(t *testing.T) {
	assert.Nil(t, WaitForFileChange(nil))

	w, err := storage.NewWatcher(filepath.Join(t.TempDir(), "flow.yaml"), 0)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	wait := WaitForFileChange(w)
	require.NotNil(t, wait)

	done := make(chan tea.Msg)
	go func() { done <- wait() }()
	w.Stop()

	select {
	case msg := <-done:
		assert.Nil(t, msg)
	case <-time.After(5 * time.Second):
		t.Fatal("command still waiting after the watcher stopped")
	}
}

func TestForm(t *testing.T) {
	m := newModel(t, filepath.Join(t.TempDir(), "f.yaml"))
	n, ok := m.Store().AddNode(graph.TypeTransfer, graph.StartID)
	require.True(t, ok)

	assert.False(t, m.OpenForm(), "no selection, no form")

	require.True(t, m.Editor.Select(n.ID))
	require.True(t, m.OpenForm())
	assert.Equal(t, ModeForm, m.CurrentAppMode)

	f, ok := m.CurrentField()
	require.True(t, ok)
	assert.Equal(t, "label", f.Key)

	m.FieldInput.SetValue("To billing")
	require.NoError(t, m.CommitField())
	got, _ := m.Store().Node(n.ID)
	assert.Equal(t, "To billing", got.Data.(graph.TransferData).Label)

	m.FocusField(2)
	f, _ = m.CurrentField()
	require.Equal(t, "delay", f.Key)
	m.FieldInput.SetValue("soon")
	assert.Error(t, m.CommitField())
	assert.NotEmpty(t, m.FieldError)
	got, _ = m.Store().Node(n.ID)
	assert.Equal(t, 0, got.Data.(graph.TransferData).Delay)

	m.FieldInput.SetValue("5")
	require.NoError(t, m.CommitField())
	assert.Empty(t, m.FieldError)
	got, _ = m.Store().Node(n.ID)
	assert.Equal(t, 5, got.Data.(graph.TransferData).Delay)

	m.FocusField(-1)
	f, _ = m.CurrentField()
	assert.Equal(t, "transferMessage", f.Key)

	m.CloseForm()
	assert.Equal(t, ModeCanvas, m.CurrentAppMode)
}

func TestForm_CycleChoice(t *testing.T) {
	m := newModel(t, filepath.Join(t.TempDir(), "f.yaml"))
	n, _ := m.Store().AddNode(graph.TypePhoneTransfer, graph.StartID)
	require.True(t, m.Editor.Select(n.ID))
	require.True(t, m.OpenForm())

	assert.False(t, m.CycleChoice(1), "label is not a choice")

	m.FocusField(3)
	require.True(t, m.CycleChoice(1))
	assert.Equal(t, graph.TransferCold, m.FieldInput.Value())
	require.True(t, m.CycleChoice(1))
	assert.Equal(t, graph.TransferWarm, m.FieldInput.Value())
}

func TestRawJSON(t *testing.T) {
	m := newModel(t, filepath.Join(t.TempDir(), "f.yaml"))
	sub, _ := m.Store().AddNode(graph.TypeSubagent, graph.StartID)
	tool, _ := m.Store().AddNode(graph.TypeTool, graph.StartID)

	require.True(t, m.Editor.Select(sub.ID))
	assert.Error(t, m.OpenRawJSON())
	assert.Equal(t, ModeCanvas, m.CurrentAppMode)

	require.True(t, m.Editor.Select(tool.ID))
	require.NoError(t, m.OpenRawJSON())
	assert.Equal(t, ModeRawJSON, m.CurrentAppMode)
	assert.Contains(t, m.JSONInput.Value(), `"label"`)

	m.JSONInput.SetValue(`{"label": `)
	assert.Error(t, m.ApplyRawJSON())
	assert.Equal(t, ModeRawJSON, m.CurrentAppMode)
	assert.NotEmpty(t, m.JSONError)

	m.JSONInput.SetValue(`{"label": "Lookup", "name": "lookup_order"}`)
	require.NoError(t, m.ApplyRawJSON())
	assert.Equal(t, ModeCanvas, m.CurrentAppMode)
	got, _ := m.Store().Node(tool.ID)
	assert.Equal(t, "lookup_order", got.Data.(graph.ToolData).Name)
}

func TestLayout(t *testing.T) {
	m := newModel(t, filepath.Join(t.TempDir(), "f.yaml"))
	m.Resize(100, 30)

	cols, rows := m.CanvasSize()
	assert.Equal(t, 100, cols)
	assert.Equal(t, 28, rows)

	_, ok := m.CanvasPoint(5, 0)
	assert.False(t, ok, "header row is not canvas")
	_, ok = m.CanvasPoint(5, 29)
	assert.False(t, ok, "status bar is not canvas")

	p, ok := m.CanvasPoint(0, 1)
	require.True(t, ok)
	assert.Equal(t, m.Viewport.Point(0, 0), p)

	require.True(t, m.Editor.Select(graph.StartID))
	m.SyncViewport()
	cols, _ = m.CanvasSize()
	assert.Less(t, cols, 100)
	assert.Equal(t, cols, m.Viewport.Cols)

	origin := m.Viewport.Origin
	m.Pan(2, 1)
	assert.Equal(t, origin.X+2*m.Viewport.CellWidth, m.Viewport.Origin.X)
	assert.Equal(t, origin.Y+m.Viewport.CellHeight, m.Viewport.Origin.Y)
}

func TestModes(t *testing.T) {
	m := newModel(t, filepath.Join(t.TempDir(), "f.yaml"))
	m.SwitchMode(ModeHelpOverlay)
	assert.Equal(t, ModeHelpOverlay, m.CurrentAppMode)
	assert.Equal(t, ModeCanvas, m.LastAppMode)
	m.RestoreMode()
	assert.Equal(t, ModeCanvas, m.CurrentAppMode)
	assert.Equal(t, "log", ModeLogOverlay.String())
}

func TestAppendLogLine(t *testing.T) {
	m := newModel(t, filepath.Join(t.TempDir(), "f.yaml"))
	for i := 0; i < MaxActivityLogLines+5; i++ {
		m.AppendLogLine(strings.Repeat("x", i%3+1))
	}
	assert.Len(t, m.ActivityLog, MaxActivityLogLines)
}

func TestStatusMessage(t *testing.T) {
	m := newModel(t, filepath.Join(t.TempDir(), "f.yaml"))
	cmd := m.SetStatusMessage("saved", StatusBarSuccess, 0)
	require.NotNil(t, cmd)
	assert.Equal(t, "saved", m.StatusBarMessage)

	first := m.StatusBarClearCancel
	m.SetStatusMessage("again", StatusBarInfo, 0)
	select {
	case <-first:
	default:
		t.Fatal("replacing a message must cancel the pending clear")
	}

	m.ClearStatusMessage()
	assert.Empty(t, m.StatusBarMessage)
	assert.Nil(t, m.StatusBarClearCancel)
}

func TestYAML(t *testing.T) {
	m := newModel(t, filepath.Join(t.TempDir(), "support.yaml"))
	out, err := m.YAML()
	require.NoError(t, err)
	assert.Contains(t, out, "name: support")
	assert.Contains(t, out, "id: start")
}
