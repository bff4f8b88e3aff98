package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"callflow/internal/graph"
	"callflow/internal/storage"
	"callflow/pkg/logging"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const subsystem = "MCPServer"

// FlowTools exposes the call flows stored in one directory as MCP tools.
// Every mutating call loads the flow, applies one graph operation and saves
// it again, so editors watching the file pick the change up.
type FlowTools struct {
	dir    string
	format storage.Format
	opts   []graph.Option

	// mu serializes load-modify-save cycles.
	mu sync.Mutex
}

// NewFlowTools creates the tool set for dir. New flows are written in format.
func NewFlowTools(dir string, format storage.Format, opts ...graph.Option) *FlowTools {
	if format == "" {
		format = storage.FormatYAML
	}
	return &FlowTools{dir: dir, format: format, opts: opts}
}

// ServerTools pairs every tool definition with its handler.
func (ft *FlowTools) ServerTools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: ft.listTool(), Handler: ft.HandleList},
		{Tool: ft.getTool(), Handler: ft.HandleGet},
		{Tool: ft.createTool(), Handler: ft.HandleCreate},
		{Tool: ft.addNodeTool(), Handler: ft.HandleAddNode},
		{Tool: ft.deleteNodeTool(), Handler: ft.HandleDeleteNode},
		{Tool: ft.duplicateNodeTool(), Handler: ft.HandleDuplicateNode},
		{Tool: ft.updateNodeTool(), Handler: ft.HandleUpdateNode},
		{Tool: ft.moveNodeTool(), Handler: ft.HandleMoveNode},
		{Tool: ft.connectTool(), Handler: ft.HandleConnect},
		{Tool: ft.disconnectTool(), Handler: ft.HandleDisconnect},
		{Tool: ft.validateTool(), Handler: ft.HandleValidate},
		{Tool: ft.nodeTypesTool(), Handler: ft.HandleNodeTypes},
	}
}

func flowArg() mcp.ToolOption {
	return mcp.WithString("flow",
		mcp.Required(),
		mcp.Description("Name of the call flow"),
	)
}

func nodeArg(desc string) mcp.ToolOption {
	return mcp.WithString("node",
		mcp.Required(),
		mcp.Description(desc),
	)
}

func nodeTypeNames() []string {
	var names []string
	for _, spec := range graph.MenuTypes() {
		names = append(names, string(spec.Type))
	}
	return names
}

func (ft *FlowTools) listTool() mcp.Tool {
	return mcp.NewTool("flow_list",
		mcp.WithDescription("List the call flows in the flow directory"),
	)
}

func (ft *FlowTools) getTool() mcp.Tool {
	return mcp.NewTool("flow_get",
		mcp.WithDescription("Get the nodes of a call flow"),
		flowArg(),
	)
}

func (ft *FlowTools) createTool() mcp.Tool {
	return mcp.NewTool("flow_create",
		mcp.WithDescription("Create a new call flow containing only the start node"),
		flowArg(),
		mcp.WithString("description",
			mcp.Description("Free text description of the flow"),
		),
		mcp.WithString("format",
			mcp.Description("File format of the new flow"),
			mcp.Enum("yaml", "json", "toml"),
		),
	)
}

func (ft *FlowTools) addNodeTool() mcp.Tool {
	return mcp.NewTool("flow_add_node",
		mcp.WithDescription("Add a node below an existing node and connect it"),
		flowArg(),
		mcp.WithString("type",
			mcp.Required(),
			mcp.Description("Type of the new node"),
			mcp.Enum(nodeTypeNames()...),
		),
		mcp.WithString("from",
			mcp.Description("Id of the node the new node follows (default: start)"),
		),
		mcp.WithObject("data",
			mcp.Description("Initial field values merged into the default data"),
		),
	)
}

func (ft *FlowTools) deleteNodeTool() mcp.Tool {
	return mcp.NewTool("flow_delete_node",
		mcp.WithDescription("Delete a node and every connection to it. The start node cannot be deleted"),
		flowArg(),
		nodeArg("Id of the node to delete"),
	)
}

func (ft *FlowTools) duplicateNodeTool() mcp.Tool {
	return mcp.NewTool("flow_duplicate_node",
		mcp.WithDescription("Copy a node's type and data into a new unconnected node"),
		flowArg(),
		nodeArg("Id of the node to copy"),
	)
}

func (ft *FlowTools) updateNodeTool() mcp.Tool {
	return mcp.NewTool("flow_update_node",
		mcp.WithDescription("Update the data of a node"),
		flowArg(),
		nodeArg("Id of the node to update"),
		mcp.WithObject("data",
			mcp.Required(),
			mcp.Description("Fields to set"),
		),
		mcp.WithBoolean("replace",
			mcp.Description("Replace the whole data object instead of merging"),
			mcp.DefaultBool(false),
		),
	)
}

func (ft *FlowTools) moveNodeTool() mcp.Tool {
	return mcp.NewTool("flow_move_node",
		mcp.WithDescription("Set the canvas position of a node"),
		flowArg(),
		nodeArg("Id of the node to move"),
		mcp.WithNumber("x", mcp.Required(), mcp.Description("Left edge in canvas pixels")),
		mcp.WithNumber("y", mcp.Required(), mcp.Description("Top edge in canvas pixels")),
	)
}

func (ft *FlowTools) connectTool() mcp.Tool {
	return mcp.NewTool("flow_connect",
		mcp.WithDescription("Connect two existing nodes"),
		flowArg(),
		mcp.WithString("from", mcp.Required(), mcp.Description("Source node id")),
		mcp.WithString("to", mcp.Required(), mcp.Description("Target node id")),
	)
}

func (ft *FlowTools) disconnectTool() mcp.Tool {
	return mcp.NewTool("flow_disconnect",
		mcp.WithDescription("Remove the connection between two nodes"),
		flowArg(),
		mcp.WithString("from", mcp.Required(), mcp.Description("Source node id")),
		mcp.WithString("to", mcp.Required(), mcp.Description("Target node id")),
	)
}

func (ft *FlowTools) validateTool() mcp.Tool {
	return mcp.NewTool("flow_validate",
		mcp.WithDescription("Report structural problems such as dangling connections or unreachable nodes"),
		flowArg(),
	)
}

func (ft *FlowTools) nodeTypesTool() mcp.Tool {
	return mcp.NewTool("flow_node_types",
		mcp.WithDescription("List the node types and their data fields"),
	)
}

func arguments(req mcp.CallToolRequest) map[string]interface{} {
	if args, ok := req.Params.Arguments.(map[string]interface{}); ok {
		return args
	}
	return map[string]interface{}{}
}

// objectArg accepts an object or a JSON encoded object.
func objectArg(req mcp.CallToolRequest, key string) (map[string]any, bool, error) {
	v, ok := arguments(req)[key]
	if !ok || v == nil {
		return nil, false, nil
	}
	switch val := v.(type) {
	case map[string]interface{}:
		return val, true, nil
	case string:
		var m map[string]any
		if err := json.Unmarshal([]byte(val), &m); err != nil {
			return nil, true, fmt.Errorf("%s must be a JSON object: %w", key, err)
		}
		return m, true, nil
	}
	return nil, true, fmt.Errorf("%s must be an object", key)
}

func numberArg(req mcp.CallToolRequest, key string) (float64, error) {
	switch v := arguments(req)[key].(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case nil:
		return 0, fmt.Errorf("%s is required", key)
	}
	return 0, fmt.Errorf("%s must be a number", key)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// flowView is what the read and write tools return.
type flowView struct {
	Flow        string             `json:"flow"`
	Description string             `json:"description,omitempty"`
	Version     int                `json:"version"`
	Node        *graph.NodeRecord  `json:"node,omitempty"`
	Nodes       []graph.NodeRecord `json:"nodes,omitempty"`
	Issues      []graph.Issue      `json:"issues,omitempty"`
}

func (ft *FlowTools) open(name string) (string, storage.Document, *graph.Store, []graph.Issue, error) {
	path, err := storage.Find(ft.dir, name)
	if err != nil {
		return "", storage.Document{}, nil, nil, err
	}
	d, err := storage.Load(path)
	if err != nil {
		return "", storage.Document{}, nil, nil, err
	}
	s, issues := d.Store(ft.opts...)
	return path, d, s, issues, nil
}

// edit runs one mutation against a stored flow and saves the result. fn
// returns the node to report back, if any.
func (ft *FlowTools) edit(req mcp.CallToolRequest, fn func(s *graph.Store) (*graph.Node, error)) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("flow")
	if err != nil {
		return mcp.NewToolResultError("flow is required"), nil
	}

	ft.mu.Lock()
	defer ft.mu.Unlock()

	path, d, s, issues, err := ft.open(name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load flow: %v", err)), nil
	}
	node, err := fn(s)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	saved, err := storage.Save(path, d.WithStore(s))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to save flow: %v", err)), nil
	}
	logging.Info(subsystem, "updated flow %s (version %d)", saved.Name, saved.Version)

	view := flowView{Flow: saved.Name, Version: saved.Version, Issues: issues}
	if node != nil {
		rec := node.Record()
		view.Node = &rec
	}
	return jsonResult(view)
}

// HandleList handles flow_list.
func (ft *FlowTools) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := storage.List(ft.dir)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list flows: %v", err)), nil
	}
	if entries == nil {
		entries = []storage.Entry{}
	}
	return jsonResult(map[string]interface{}{
		"flows": entries,
		"total": len(entries),
	})
}

// HandleGet handles flow_get.
func (ft *FlowTools) HandleGet(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("flow")
	if err != nil {
		return mcp.NewToolResultError("flow is required"), nil
	}
	_, d, s, issues, err := ft.open(name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load flow: %v", err)), nil
	}
	return jsonResult(flowView{
		Flow:        d.Name,
		Description: d.Description,
		Version:     d.Version,
		Nodes:       s.Records(),
		Issues:      issues,
	})
}

// HandleCreate handles flow_create.
func (ft *FlowTools) HandleCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("flow")
	if err != nil {
		return mcp.NewToolResultError("flow is required"), nil
	}
	format := ft.format
	if f := req.GetString("format", ""); f != "" {
		if format, err = storage.ParseFormat(f); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	ft.mu.Lock()
	defer ft.mu.Unlock()

	if existing, err := storage.Find(ft.dir, name); err == nil {
		return mcp.NewToolResultError(fmt.Sprintf("flow %s already exists at %s", name, existing)), nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return mcp.NewToolResultError(err.Error()), nil
	}

	path, err := storage.PathFor(ft.dir, name, format)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	d := storage.NewDocument(name, graph.New(ft.opts...))
	d.Description = req.GetString("description", "")
	saved, err := storage.Save(path, d)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to save flow: %v", err)), nil
	}
	logging.Info(subsystem, "created flow %s at %s", name, path)
	return jsonResult(flowView{Flow: saved.Name, Description: saved.Description, Version: saved.Version, Nodes: saved.Nodes})
}

// HandleAddNode handles flow_add_node.
func (ft *FlowTools) HandleAddNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t, err := req.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError("type is required"), nil
	}
	data, _, err := objectArg(req, "data")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	from := req.GetString("from", graph.StartID)

	return ft.edit(req, func(s *graph.Store) (*graph.Node, error) {
		if _, ok := graph.Lookup(graph.NodeType(t)); !ok {
			return nil, fmt.Errorf("%w: %s", graph.ErrUnknownType, t)
		}
		src, ok := s.Node(from)
		if !ok {
			return nil, fmt.Errorf("%w: %s", graph.ErrNodeNotFound, from)
		}
		if graph.IsTerminal(src.Type) {
			return nil, fmt.Errorf("%w: %s is a %s node", graph.ErrTerminalSource, src.ID, src.Type)
		}
		n, ok := s.AddNode(graph.NodeType(t), from)
		if !ok {
			return nil, fmt.Errorf("%w: %s", graph.ErrNodeNotFound, from)
		}
		if len(data) > 0 {
			if err := s.UpdateNodeData(n.ID, data); err != nil {
				return nil, err
			}
			n, _ = s.Node(n.ID)
		}
		return &n, nil
	})
}

// HandleDeleteNode handles flow_delete_node.
func (ft *FlowTools) HandleDeleteNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("node")
	if err != nil {
		return mcp.NewToolResultError("node is required"), nil
	}
	return ft.edit(req, func(s *graph.Store) (*graph.Node, error) {
		if id == s.StartID() {
			return nil, graph.ErrStartProtected
		}
		if !s.DeleteNode(id) {
			return nil, fmt.Errorf("%w: %s", graph.ErrNodeNotFound, id)
		}
		return nil, nil
	})
}

// HandleDuplicateNode handles flow_duplicate_node.
func (ft *FlowTools) HandleDuplicateNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("node")
	if err != nil {
		return mcp.NewToolResultError("node is required"), nil
	}
	return ft.edit(req, func(s *graph.Store) (*graph.Node, error) {
		if id == s.StartID() {
			return nil, graph.ErrStartProtected
		}
		n, ok := s.DuplicateNode(id)
		if !ok {
			return nil, fmt.Errorf("%w: %s", graph.ErrNodeNotFound, id)
		}
		return &n, nil
	})
}

// HandleUpdateNode handles flow_update_node.
func (ft *FlowTools) HandleUpdateNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("node")
	if err != nil {
		return mcp.NewToolResultError("node is required"), nil
	}
	data, ok, err := objectArg(req, "data")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !ok {
		return mcp.NewToolResultError("data is required"), nil
	}
	replace := req.GetBool("replace", false)

	return ft.edit(req, func(s *graph.Store) (*graph.Node, error) {
		update := s.UpdateNodeData
		if replace {
			update = s.ReplaceNodeData
		}
		if err := update(id, data); err != nil {
			return nil, err
		}
		n, _ := s.Node(id)
		return &n, nil
	})
}

// HandleMoveNode handles flow_move_node.
func (ft *FlowTools) HandleMoveNode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("node")
	if err != nil {
		return mcp.NewToolResultError("node is required"), nil
	}
	x, err := numberArg(req, "x")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	y, err := numberArg(req, "y")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !(graph.Position{X: x, Y: y}).Finite() {
		return mcp.NewToolResultError(graph.ErrInvalidPosition.Error()), nil
	}
	return ft.edit(req, func(s *graph.Store) (*graph.Node, error) {
		if !s.SetNodePosition(id, x, y) {
			return nil, fmt.Errorf("%w: %s", graph.ErrNodeNotFound, id)
		}
		n, _ := s.Node(id)
		return &n, nil
	})
}

// HandleConnect handles flow_connect.
func (ft *FlowTools) HandleConnect(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, err := req.RequireString("from")
	if err != nil {
		return mcp.NewToolResultError("from is required"), nil
	}
	to, err := req.RequireString("to")
	if err != nil {
		return mcp.NewToolResultError("to is required"), nil
	}
	return ft.edit(req, func(s *graph.Store) (*graph.Node, error) {
		if err := s.Connect(from, to); err != nil {
			return nil, err
		}
		n, _ := s.Node(from)
		return &n, nil
	})
}

// HandleDisconnect handles flow_disconnect.
func (ft *FlowTools) HandleDisconnect(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, err := req.RequireString("from")
	if err != nil {
		return mcp.NewToolResultError("from is required"), nil
	}
	to, err := req.RequireString("to")
	if err != nil {
		return mcp.NewToolResultError("to is required"), nil
	}
	return ft.edit(req, func(s *graph.Store) (*graph.Node, error) {
		if !s.Disconnect(from, to) {
			return nil, fmt.Errorf("no connection %s -> %s", from, to)
		}
		n, _ := s.Node(from)
		return &n, nil
	})
}

// HandleValidate handles flow_validate. Problems repaired while loading are
// reported together with those found in the repaired graph.
func (ft *FlowTools) HandleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("flow")
	if err != nil {
		return mcp.NewToolResultError("flow is required"), nil
	}
	_, d, s, issues, err := ft.open(name)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to load flow: %v", err)), nil
	}
	issues = graph.MergeIssues(issues, s.Validate())
	if issues == nil {
		issues = []graph.Issue{}
	}
	return jsonResult(map[string]interface{}{
		"flow":   d.Name,
		"valid":  len(issues) == 0,
		"issues": issues,
	})
}

// HandleNodeTypes handles flow_node_types.
func (ft *FlowTools) HandleNodeTypes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var types []map[string]interface{}
	for _, spec := range graph.Types() {
		p, _ := graph.DefaultPayload(spec.Type)
		types = append(types, map[string]interface{}{
			"type":        spec.Type,
			"label":       spec.Label,
			"description": spec.Description,
			"terminal":    spec.Terminal,
			"inMenu":      spec.InMenu,
			"defaults":    graph.Fields(p),
		})
	}
	return jsonResult(map[string]interface{}{"types": types})
}

// ensureDir creates the flow directory so that flow_create works on a fresh
// checkout.
func (ft *FlowTools) ensureDir() error {
	return os.MkdirAll(ft.dir, 0755)
}
