package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mark3labs/mcp-go/mcp"
	"gopkg.in/yaml.v3"
)

// ToolExecutor calls tools on a remote callflow server and prints the
// results with a Printer.
type ToolExecutor struct {
	client  *CLIClient
	printer *Printer
}

// NewToolExecutor creates an executor for endpoint. Call Connect before
// Execute.
func NewToolExecutor(endpoint string, printer *Printer) *ToolExecutor {
	return &ToolExecutor{
		client:  NewCLIClientWithEndpoint(endpoint),
		printer: printer,
	}
}

// Connect establishes the connection to the server.
func (e *ToolExecutor) Connect(ctx context.Context) error {
	return e.client.Connect(ctx)
}

// Close closes the connection.
func (e *ToolExecutor) Close() error {
	return e.client.Close()
}

// Tools prints the tools the server offers.
func (e *ToolExecutor) Tools(ctx context.Context) error {
	tools, err := e.client.ListTools(ctx)
	if err != nil {
		return err
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	p := e.printer
	t := p.newTable("TOOL", "DESCRIPTION")
	for _, tool := range tools {
		t.AppendRow(table.Row{p.paint(text.FgCyan, tool.Name), tool.Description})
	}
	t.Render()
	return nil
}

// Execute calls a tool and prints its output.
func (e *ToolExecutor) Execute(ctx context.Context, toolName string, arguments map[string]interface{}) error {
	result, err := e.client.CallTool(ctx, toolName, arguments)
	if err != nil {
		return fmt.Errorf("failed to execute tool %s: %w", toolName, err)
	}
	return e.printer.ToolResult(result)
}

// ToolResult prints an MCP tool result. Tool failures are returned as
// errors.
func (p *Printer) ToolResult(result *mcp.CallToolResult) error {
	texts := resultTexts(result)
	if result.IsError {
		return fmt.Errorf("%s", strings.Join(texts, "\n"))
	}
	if len(texts) == 0 {
		if !p.options.Quiet {
			fmt.Fprintln(p.out, "No results")
		}
		return nil
	}

	raw := texts[0]
	switch p.options.Format {
	case OutputFormatJSON:
		_, err := fmt.Fprintln(p.out, raw)
		return err
	case OutputFormatYAML:
		var data interface{}
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return fmt.Errorf("failed to parse JSON: %w", err)
		}
		out, err := yaml.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to convert to YAML: %w", err)
		}
		_, err = p.out.Write(out)
		return err
	}
	return p.jsonTable(raw)
}

// jsonTable prints JSON text as a table, falling back to the raw text.
func (p *Printer) jsonTable(raw string) error {
	var data interface{}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		_, err := fmt.Fprintln(p.out, raw)
		return err
	}

	switch d := data.(type) {
	case map[string]interface{}:
		if key := findArrayKey(d); key != "" {
			p.arrayTable(d[key].([]interface{}))
			if len(d) > 1 {
				rest := make(map[string]interface{}, len(d)-1)
				for k, v := range d {
					if k != key {
						rest[k] = v
					}
				}
				p.keyValueTable(rest)
			}
			return nil
		}
		p.keyValueTable(d)
	case []interface{}:
		p.arrayTable(d)
	default:
		fmt.Fprintln(p.out, raw)
	}
	return nil
}

// findArrayKey looks for the list inside wrapped results such as
// {"flow": "x", "nodes": [...]}.
func findArrayKey(data map[string]interface{}) string {
	for _, key := range []string{"flows", "nodes", "types", "issues", "items"} {
		if value, exists := data[key]; exists {
			if _, isArray := value.([]interface{}); isArray {
				return key
			}
		}
	}
	return ""
}

var preferredColumns = []string{"id", "name", "type", "kind", "label", "nodeId", "target", "message", "position", "connections", "version", "nodes"}

func (p *Printer) arrayTable(items []interface{}) {
	if len(items) == 0 {
		fmt.Fprintln(p.out, p.paint(text.FgYellow, "No items found"))
		return
	}
	first, ok := items[0].(map[string]interface{})
	if !ok {
		for _, item := range items {
			fmt.Fprintln(p.out, item)
		}
		return
	}

	var columns []string
	for _, col := range preferredColumns {
		if _, exists := first[col]; exists {
			columns = append(columns, col)
		}
	}
	if len(columns) == 0 {
		for k := range first {
			columns = append(columns, k)
		}
		sort.Strings(columns)
	}

	headers := make([]string, len(columns))
	for i, col := range columns {
		headers[i] = strings.ToUpper(col)
	}
	t := p.newTable(headers...)
	for _, item := range items {
		obj, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		row := make(table.Row, len(columns))
		for i, col := range columns {
			row[i] = cellValue(obj[col])
		}
		t.AppendRow(row)
	}
	t.Render()
}

func (p *Printer) keyValueTable(data map[string]interface{}) {
	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	t := p.newTable("PROPERTY", "VALUE")
	for _, key := range keys {
		t.AppendRow(table.Row{p.paint(text.FgYellow, key), cellValue(data[key])})
	}
	t.Render()
}

func cellValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return "-"
	case []interface{}:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = fmt.Sprintf("%v", item)
		}
		return strings.Join(parts, ", ")
	case map[string]interface{}:
		if x, ok := val["x"]; ok {
			return fmt.Sprintf("%v,%v", x, val["y"])
		}
		b, _ := json.Marshal(val)
		return truncate(string(b), 40)
	case float64:
		return fmt.Sprintf("%g", val)
	}
	return truncate(fmt.Sprintf("%v", v), 40)
}
