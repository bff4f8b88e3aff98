// Package cli prints call flows for the command line and talks to a running
// callflow MCP server.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"callflow/internal/canvas"
	"callflow/internal/graph"
	"callflow/internal/storage"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"
)

// OutputFormat represents the output format for CLI commands
type OutputFormat string

const (
	OutputFormatTable OutputFormat = "table"
	OutputFormatJSON  OutputFormat = "json"
	OutputFormatYAML  OutputFormat = "yaml"
)

// ParseOutputFormat validates a --output flag value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case OutputFormatTable, OutputFormatJSON, OutputFormatYAML:
		return f, nil
	case "":
		return OutputFormatTable, nil
	}
	return "", fmt.Errorf("unsupported output format: %s", s)
}

var (
	warnColor = color.New(color.FgYellow)
	goodColor = color.New(color.FgGreen)
	subtle    = color.New(color.FgHiBlack)
)

// PrinterOptions controls how results are printed.
type PrinterOptions struct {
	Format OutputFormat
	Quiet  bool
	// Color enables ANSI colors in tables.
	Color bool
}

// Printer writes flows, listings and validation reports.
type Printer struct {
	out     io.Writer
	options PrinterOptions
}

// NewPrinter creates a printer writing to out. A nil out means stdout.
func NewPrinter(out io.Writer, options PrinterOptions) *Printer {
	if out == nil {
		out = os.Stdout
	}
	if options.Format == "" {
		options.Format = OutputFormatTable
	}
	return &Printer{out: out, options: options}
}

func (p *Printer) paint(c text.Color, s string) string {
	if !p.options.Color {
		return s
	}
	return c.Sprint(s)
}

func (p *Printer) newTable(headers ...string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(p.out)
	t.SetStyle(table.StyleRounded)
	row := make(table.Row, len(headers))
	for i, h := range headers {
		row[i] = p.paint(text.FgHiCyan, h)
	}
	t.AppendHeader(row)
	return t
}

// structured prints v as JSON or YAML. It reports false for table output.
func (p *Printer) structured(v any) (bool, error) {
	switch p.options.Format {
	case OutputFormatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return true, fmt.Errorf("failed to encode JSON: %w", err)
		}
		_, err = fmt.Fprintln(p.out, string(data))
		return true, err
	case OutputFormatYAML:
		data, err := yaml.Marshal(v)
		if err != nil {
			return true, fmt.Errorf("failed to convert to YAML: %w", err)
		}
		_, err = p.out.Write(data)
		return true, err
	}
	return false, nil
}

// Nodes prints the nodes of a flow in insertion order.
func (p *Printer) Nodes(s *graph.Store) error {
	if ok, err := p.structured(s.Records()); ok {
		return err
	}
	t := p.newTable("ID", "TYPE", "LABEL", "POSITION", "CONNECTIONS", "SUMMARY")
	for _, n := range s.Nodes() {
		conns := subtle.Sprint("-")
		if len(n.Connections) > 0 {
			conns = strings.Join(n.Connections, ", ")
		}
		t.AppendRow(table.Row{
			n.ID,
			p.paint(text.FgCyan, string(n.Type)),
			n.Label(),
			fmt.Sprintf("%g,%g", n.Position.X, n.Position.Y),
			conns,
			truncate(canvas.Summary(n), 40),
		})
	}
	t.Render()
	return nil
}

// Node prints a single node, for example the one a command just created.
func (p *Printer) Node(n graph.Node) error {
	if ok, err := p.structured(n.Record()); ok {
		return err
	}
	if p.options.Quiet {
		fmt.Fprintln(p.out, n.ID)
		return nil
	}
	t := p.newTable("ID", "TYPE", "LABEL", "POSITION", "CONNECTIONS")
	t.AppendRow(table.Row{
		n.ID,
		p.paint(text.FgCyan, string(n.Type)),
		n.Label(),
		fmt.Sprintf("%g,%g", n.Position.X, n.Position.Y),
		strings.Join(n.Connections, ", "),
	})
	t.Render()
	return nil
}

// Success prints a confirmation line. Structured and quiet output skip it.
func (p *Printer) Success(format string, args ...any) {
	if p.options.Quiet || p.options.Format != OutputFormatTable {
		return
	}
	goodColor.Fprintf(p.out, "✓ ")
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Document prints the whole document. Table output shows its metadata
// followed by the node table.
func (p *Printer) Document(d storage.Document) error {
	if ok, err := p.structured(d); ok {
		return err
	}
	fmt.Fprintf(p.out, "%s %s (version %d)\n", p.paint(text.FgHiBlue, "Flow:"), d.Name, d.Version)
	if d.Description != "" {
		fmt.Fprintln(p.out, d.Description)
	}
	s, issues := d.Store()
	if err := p.Nodes(s); err != nil {
		return err
	}
	if len(issues) > 0 {
		p.Issues(issues)
	}
	return nil
}

// Flows prints a directory listing.
func (p *Printer) Flows(entries []storage.Entry) error {
	if ok, err := p.structured(entries); ok {
		return err
	}
	if len(entries) == 0 {
		if !p.options.Quiet {
			fmt.Fprintln(p.out, p.paint(text.FgYellow, "No flows found"))
		}
		return nil
	}
	t := p.newTable("NAME", "FORMAT", "VERSION", "NODES", "UPDATED", "PATH")
	for _, e := range entries {
		updated := "-"
		if !e.UpdatedAt.IsZero() {
			updated = e.UpdatedAt.Local().Format("2006-01-02 15:04")
		}
		t.AppendRow(table.Row{e.Name, string(e.Format), e.Version, e.Nodes, updated, e.Path})
	}
	t.Render()
	fmt.Fprintf(p.out, "\n%s %d flows\n", p.paint(text.FgHiBlue, "Total:"), len(entries))
	return nil
}

// NodeTypes prints the node type registry.
func (p *Printer) NodeTypes() error {
	specs := graph.Types()
	if p.options.Format != OutputFormatTable {
		type entry struct {
			Type        graph.NodeType `json:"type" yaml:"type"`
			Label       string         `json:"label" yaml:"label"`
			Description string         `json:"description" yaml:"description"`
			Terminal    bool           `json:"terminal" yaml:"terminal"`
			InMenu      bool           `json:"inMenu" yaml:"inMenu"`
			Fields      []string       `json:"fields" yaml:"fields"`
		}
		out := make([]entry, 0, len(specs))
		for _, spec := range specs {
			out = append(out, entry{spec.Type, spec.Label, spec.Description, spec.Terminal, spec.InMenu, fieldKeys(spec.Type)})
		}
		_, err := p.structured(out)
		return err
	}
	t := p.newTable("TYPE", "ICON", "LABEL", "TERMINAL", "FIELDS", "DESCRIPTION")
	for _, spec := range specs {
		terminal := ""
		if spec.Terminal {
			terminal = "yes"
		}
		t.AppendRow(table.Row{
			p.paint(text.FgCyan, string(spec.Type)),
			spec.Icon,
			spec.Label,
			terminal,
			strings.Join(fieldKeys(spec.Type), ", "),
			spec.Description,
		})
	}
	t.Render()
	return nil
}

func fieldKeys(t graph.NodeType) []string {
	p, ok := graph.DefaultPayload(t)
	if !ok {
		return nil
	}
	var keys []string
	for k := range graph.Fields(p) {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Issues prints validation warnings. An empty report prints a success line
// unless the printer is quiet.
func (p *Printer) Issues(issues []graph.Issue) {
	if p.options.Format != OutputFormatTable {
		if issues == nil {
			issues = []graph.Issue{}
		}
		_, _ = p.structured(issues)
		return
	}
	if len(issues) == 0 {
		if !p.options.Quiet {
			goodColor.Fprintln(p.out, "✓ no issues")
		}
		return
	}
	for _, i := range issues {
		warnColor.Fprintf(p.out, "⚠ %s", i.Kind)
		fmt.Fprintf(p.out, " %s\n", i.Message)
	}
}

// Canvas renders the flow as it appears in the editor, sized to fit every
// node.
func (p *Printer) Canvas(s *graph.Store, m canvas.Metrics, cellWidth, cellHeight float64) {
	nodes := s.Nodes()
	v := canvas.Fit(nodes, m, cellWidth, cellHeight)
	style := canvas.Plain
	if p.options.Color {
		style = ansiStyler
	}
	fmt.Fprintln(p.out, canvas.Render(canvas.Scene{Nodes: nodes, Metrics: m}, v, style))
}

var typeColors = map[graph.NodeType]text.Color{
	graph.TypeStart:         text.FgGreen,
	graph.TypeSubagent:      text.FgBlue,
	graph.TypeCondition:     text.FgYellow,
	graph.TypeTool:          text.FgCyan,
	graph.TypeTransfer:      text.FgMagenta,
	graph.TypePhoneTransfer: text.FgMagenta,
	graph.TypeEnd:           text.FgRed,
}

func ansiStyler(class canvas.Class, t graph.NodeType, s string) string {
	switch class {
	case canvas.ClassNode, canvas.ClassSelected:
		if c, ok := typeColors[t]; ok {
			return c.Sprint(s)
		}
	case canvas.ClassEdge, canvas.ClassArrow:
		return text.FgHiBlack.Sprint(s)
	case canvas.ClassButton:
		return text.FgHiGreen.Sprint(s)
	}
	return s
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
