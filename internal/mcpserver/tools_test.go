package mcpserver

import (
	"context"
	"encoding/json"
	"math"
	"net"
	"path/filepath"
	"testing"
	"time"

	"callflow/internal/cli"
	"callflow/internal/graph"
	"callflow/internal/storage"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type toolResult struct {
	Flow    string             `json:"flow"`
	Version int                `json:"version"`
	Node    *graph.NodeRecord  `json:"node"`
	Nodes   []graph.NodeRecord `json:"nodes"`
	Issues  []graph.Issue      `json:"issues"`
	Valid   bool               `json:"valid"`
	Total   int                `json:"total"`
}

func call(t *testing.T, h server.ToolHandlerFunc, args map[string]interface{}) (toolResult, *mcp.CallToolResult) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)

	var out toolResult
	if !res.IsError {
		text, ok := mcp.AsTextContent(res.Content[0])
		require.True(t, ok)
		require.NoError(t, json.Unmarshal([]byte(text.Text), &out))
	}
	return out, res
}

func errorText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.True(t, res.IsError)
	text, ok := mcp.AsTextContent(res.Content[0])
	require.True(t, ok)
	return text.Text
}

func newTools(t *testing.T) (*FlowTools, string) {
	t.Helper()
	dir := t.TempDir()
	ft := NewFlowTools(dir, storage.FormatYAML, graph.WithIDGenerator(graph.NewSequenceGenerator(0)))
	_, res := call(t, ft.HandleCreate, map[string]interface{}{"flow": "support", "description": "inbound"})
	require.False(t, res.IsError)
	return ft, dir
}

func TestServerTools_Names(t *testing.T) {
	ft := NewFlowTools(t.TempDir(), "")
	var names []string
	for _, st := range ft.ServerTools() {
		names = append(names, st.Tool.Name)
	}
	assert.Equal(t, []string{
		"flow_list", "flow_get", "flow_create", "flow_add_node", "flow_delete_node",
		"flow_duplicate_node", "flow_update_node", "flow_move_node", "flow_connect",
		"flow_disconnect", "flow_validate", "flow_node_types",
	}, names)
}

func TestHandleCreate(t *testing.T) {
	ft, dir := newTools(t)

	d, err := storage.Load(filepath.Join(dir, "support.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "inbound", d.Description)
	require.Len(t, d.Nodes, 1)
	assert.Equal(t, graph.TypeStart, d.Nodes[0].Type)

	_, res := call(t, ft.HandleCreate, map[string]interface{}{"flow": "support", "format": "json"})
	assert.Contains(t, errorText(t, res), "already exists")

	_, res = call(t, ft.HandleCreate, map[string]interface{}{"flow": "../escape"})
	assert.Contains(t, errorText(t, res), "invalid flow name")

	out, res := call(t, ft.HandleCreate, map[string]interface{}{"flow": "billing", "format": "toml"})
	require.False(t, res.IsError)
	assert.Equal(t, 1, out.Version)
	assert.FileExists(t, filepath.Join(dir, "billing.toml"))
}

func TestHandleAddNode(t *testing.T) {
	ft, dir := newTools(t)

	out, res := call(t, ft.HandleAddNode, map[string]interface{}{
		"flow": "support",
		"type": "subagent",
		"data": map[string]interface{}{"selectedAgent": "billing"},
	})
	require.False(t, res.IsError)
	require.NotNil(t, out.Node)
	assert.Equal(t, 2, out.Version)
	assert.Equal(t, "billing", out.Node.Data["selectedAgent"])
	assert.Equal(t, graph.Position{X: 100, Y: 250}, out.Node.Position)

	d, err := storage.Load(filepath.Join(dir, "support.yaml"))
	require.NoError(t, err)
	require.Len(t, d.Nodes, 2)
	assert.Equal(t, []string{out.Node.ID}, d.Nodes[0].Connections)

	_, res = call(t, ft.HandleAddNode, map[string]interface{}{"flow": "support", "type": "end", "from": "ghost"})
	assert.Contains(t, errorText(t, res), "node not found")

	end, res := call(t, ft.HandleAddNode, map[string]interface{}{"flow": "support", "type": "end", "from": out.Node.ID})
	require.False(t, res.IsError)
	_, res = call(t, ft.HandleAddNode, map[string]interface{}{"flow": "support", "type": "tool", "from": end.Node.ID})
	assert.Contains(t, errorText(t, res), "nothing can follow a terminal node")
	d, err = storage.Load(filepath.Join(dir, "support.yaml"))
	require.NoError(t, err)
	assert.Len(t, d.Nodes, 3)

	_, res = call(t, ft.HandleAddNode, map[string]interface{}{"flow": "support", "type": "voicemail"})
	assert.Contains(t, errorText(t, res), "unknown node type")

	_, res = call(t, ft.HandleAddNode, map[string]interface{}{"flow": "missing", "type": "end"})
	assert.Contains(t, errorText(t, res), "Failed to load flow")
}

func TestHandleDeleteAndDuplicate(t *testing.T) {
	ft, _ := newTools(t)
	added, _ := call(t, ft.HandleAddNode, map[string]interface{}{"flow": "support", "type": "tool"})
	id := added.Node.ID

	_, res := call(t, ft.HandleDeleteNode, map[string]interface{}{"flow": "support", "node": "start"})
	assert.Contains(t, errorText(t, res), "start node")
	_, res = call(t, ft.HandleDuplicateNode, map[string]interface{}{"flow": "support", "node": "start"})
	assert.True(t, res.IsError)

	dup, res := call(t, ft.HandleDuplicateNode, map[string]interface{}{"flow": "support", "node": id})
	require.False(t, res.IsError)
	assert.NotEqual(t, id, dup.Node.ID)
	assert.Empty(t, dup.Node.Connections)
	assert.Equal(t, graph.Position{X: 120, Y: 270}, dup.Node.Position)

	_, res = call(t, ft.HandleDeleteNode, map[string]interface{}{"flow": "support", "node": id})
	require.False(t, res.IsError)

	got, _ := call(t, ft.HandleGet, map[string]interface{}{"flow": "support"})
	require.Len(t, got.Nodes, 2)
	assert.Empty(t, got.Nodes[0].Connections)
}

func TestHandleUpdateNode(t *testing.T) {
	ft, _ := newTools(t)
	added, _ := call(t, ft.HandleAddNode, map[string]interface{}{"flow": "support", "type": "transfer"})
	id := added.Node.ID

	out, res := call(t, ft.HandleUpdateNode, map[string]interface{}{
		"flow": "support", "node": id, "data": map[string]interface{}{"delay": 5},
	})
	require.False(t, res.IsError)
	assert.EqualValues(t, 5, out.Node.Data["delay"])
	assert.Equal(t, "Please hold while I transfer your call.", out.Node.Data["transferMessage"])

	out, res = call(t, ft.HandleUpdateNode, map[string]interface{}{
		"flow": "support", "node": id, "data": `{"label": "Hand off"}`, "replace": true,
	})
	require.False(t, res.IsError)
	assert.Equal(t, "Hand off", out.Node.Data["label"])
	assert.Equal(t, "", out.Node.Data["transferMessage"])

	_, res = call(t, ft.HandleUpdateNode, map[string]interface{}{
		"flow": "support", "node": id, "data": map[string]interface{}{"delay": "soon"},
	})
	assert.True(t, res.IsError)

	_, res = call(t, ft.HandleUpdateNode, map[string]interface{}{"flow": "support", "node": id})
	assert.Equal(t, "data is required", errorText(t, res))

	_, res = call(t, ft.HandleUpdateNode, map[string]interface{}{
		"flow": "support", "node": "ghost", "data": map[string]interface{}{},
	})
	assert.Contains(t, errorText(t, res), "node not found")
}

func TestHandleMoveNode(t *testing.T) {
	ft, _ := newTools(t)

	out, res := call(t, ft.HandleMoveNode, map[string]interface{}{"flow": "support", "node": "start", "x": 40.0, "y": 60.0})
	require.False(t, res.IsError)
	assert.Equal(t, graph.Position{X: 40, Y: 60}, out.Node.Position)

	_, res = call(t, ft.HandleMoveNode, map[string]interface{}{"flow": "support", "node": "start", "x": "left"})
	assert.Equal(t, "x must be a number", errorText(t, res))

	_, res = call(t, ft.HandleMoveNode, map[string]interface{}{"flow": "support", "node": "start", "x": math.NaN(), "y": 1.0})
	assert.Equal(t, graph.ErrInvalidPosition.Error(), errorText(t, res))
	_, res = call(t, ft.HandleMoveNode, map[string]interface{}{"flow": "support", "node": "start", "x": 1.0, "y": math.Inf(-1)})
	assert.Equal(t, graph.ErrInvalidPosition.Error(), errorText(t, res))

	out, _ = call(t, ft.HandleGet, map[string]interface{}{"flow": "support"})
	assert.Equal(t, 2, out.Version)
}

func TestHandleConnectAndValidate(t *testing.T) {
	ft, _ := newTools(t)
	a, _ := call(t, ft.HandleAddNode, map[string]interface{}{"flow": "support", "type": "condition"})
	b, _ := call(t, ft.HandleDuplicateNode, map[string]interface{}{"flow": "support", "node": a.Node.ID})

	report, _ := call(t, ft.HandleValidate, map[string]interface{}{"flow": "support"})
	assert.False(t, report.Valid)
	require.Len(t, report.Issues, 1)
	assert.Equal(t, graph.IssueOrphan, report.Issues[0].Kind)

	_, res := call(t, ft.HandleConnect, map[string]interface{}{"flow": "support", "from": a.Node.ID, "to": b.Node.ID})
	require.False(t, res.IsError)
	_, res = call(t, ft.HandleConnect, map[string]interface{}{"flow": "support", "from": a.Node.ID, "to": b.Node.ID})
	assert.Contains(t, errorText(t, res), "connection already exists")
	_, res = call(t, ft.HandleConnect, map[string]interface{}{"flow": "support", "from": a.Node.ID, "to": "start"})
	assert.True(t, res.IsError)

	report, _ = call(t, ft.HandleValidate, map[string]interface{}{"flow": "support"})
	assert.True(t, report.Valid)
	assert.Empty(t, report.Issues)

	_, res = call(t, ft.HandleDisconnect, map[string]interface{}{"flow": "support", "from": a.Node.ID, "to": b.Node.ID})
	require.False(t, res.IsError)
	_, res = call(t, ft.HandleDisconnect, map[string]interface{}{"flow": "support", "from": a.Node.ID, "to": b.Node.ID})
	assert.True(t, res.IsError)
}

func TestHandleListAndNodeTypes(t *testing.T) {
	ft, _ := newTools(t)
	call(t, ft.HandleCreate, map[string]interface{}{"flow": "billing"})

	list, _ := call(t, ft.HandleList, nil)
	assert.Equal(t, 2, list.Total)

	_, res := call(t, ft.HandleNodeTypes, nil)
	text, _ := mcp.AsTextContent(res.Content[0])
	var types struct {
		Types []struct {
			Type     string         `json:"type"`
			Terminal bool           `json:"terminal"`
			Defaults map[string]any `json:"defaults"`
		} `json:"types"`
	}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &types))
	require.Len(t, types.Types, len(graph.Types()))
	for _, tt := range types.Types {
		if tt.Type == "phone_transfer" {
			assert.True(t, tt.Terminal)
			assert.Equal(t, "warm", tt.Defaults["transferType"])
		}
	}
}

func TestServer_OverSSE(t *testing.T) {
	dir := t.TempDir()
	s := New(Config{Dir: dir})
	ts := server.NewTestServer(s.MCPServer())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := cli.NewCLIClientWithEndpoint(ts.URL + "/sse")
	require.NoError(t, client.Connect(ctx))
	defer client.Close()

	tools, err := client.ListTools(ctx)
	require.NoError(t, err)
	assert.Len(t, tools, 12)

	_, err = client.CallToolSimple(ctx, "flow_create", map[string]interface{}{"flow": "remote"})
	require.NoError(t, err)
	out, err := client.CallToolJSON(ctx, "flow_add_node", map[string]interface{}{"flow": "remote", "type": "end"})
	require.NoError(t, err)
	assert.Equal(t, "remote", out.(map[string]interface{})["flow"])

	d, err := storage.Load(filepath.Join(dir, "remote.yaml"))
	require.NoError(t, err)
	assert.Len(t, d.Nodes, 2)

	_, err = client.CallToolSimple(ctx, "flow_get", map[string]interface{}{"flow": "nope"})
	assert.ErrorContains(t, err, "tool error")
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestServer_StartStop(t *testing.T) {
	s := New(Config{Host: "127.0.0.1", Port: freePort(t), Dir: filepath.Join(t.TempDir(), "flows")})
	assert.Error(t, s.Stop(context.Background()), "stop before start")

	ctx := context.Background()
	require.NoError(t, s.Start(ctx))
	assert.Error(t, s.Start(ctx), "second start")
	assert.DirExists(t, s.config.Dir)

	require.Eventually(t, func() bool {
		conn, err := net.Dial("tcp", s.Addr())
		if err != nil {
			return false
		}
		conn.Close()
		return true
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, s.Stop(ctx))
	select {
	case err, ok := <-s.Done():
		assert.False(t, ok, "unexpected server error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
