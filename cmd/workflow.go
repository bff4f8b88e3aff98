package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"callflow/internal/cli"
	"callflow/internal/editor"
	"callflow/internal/graph"
	"callflow/internal/storage"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	workflowOutputFormat string
	workflowQuiet        bool

	workflowDescription string
	workflowNodeType    string
	workflowFrom        string
	workflowDataJSON    string
	workflowNoCanvas    bool
)

// workflowCmd groups the commands that read and edit flow files directly.
var workflowCmd = &cobra.Command{
	Use:     "workflow",
	Aliases: []string{"flow"},
	Short:   "Create, inspect and edit call flow files",
	Long: `Create, inspect and edit call flow files without opening the editor.

<flow> is a path ending in .yaml, .yml, .json or .toml, or the name of a
flow in the flow directory (storage.dir in the configuration).

Every editing command loads the flow, applies one graph operation and
saves it, bumping the flow version.`,
}

var workflowNewCmd = &cobra.Command{
	Use:   "new <flow>",
	Short: "Create a flow holding only the start node",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorkflowNew,
}

var workflowShowCmd = &cobra.Command{
	Use:   "show <flow>",
	Short: "Show a flow as a node table and canvas drawing",
	Args:  cobra.ExactArgs(1),
	RunE:  runWorkflowShow,
}

var workflowValidateCmd = &cobra.Command{
	Use:   "validate <flow>",
	Short: "Report structural problems in a flow",
	Long: `Reports problems such as edges to missing nodes, duplicate ids, nodes
nothing leads to and connections into the start node. The command fails
when any problem is found.`,
	Args: cobra.ExactArgs(1),
	RunE: runWorkflowValidate,
}

var workflowAddCmd = &cobra.Command{
	Use:   "add <flow>",
	Short: "Add a node after an existing node",
	Long: `Adds a node of --type below the --from node (default: start) and connects
it. Terminal nodes such as end cannot be used as --from.`,
	Args: cobra.ExactArgs(1),
	RunE: runWorkflowAdd,
}

var workflowDeleteNodeCmd = &cobra.Command{
	Use:   "delete-node <flow> <node-id>",
	Short: "Delete a node and every connection to it",
	Args:  cobra.ExactArgs(2),
	RunE:  runWorkflowDeleteNode,
}

var workflowDuplicateCmd = &cobra.Command{
	Use:   "duplicate <flow> <node-id>",
	Short: "Copy a node's configuration into a new, unconnected node",
	Args:  cobra.ExactArgs(2),
	RunE:  runWorkflowDuplicate,
}

var workflowConnectCmd = &cobra.Command{
	Use:   "connect <flow> <from-id> <to-id>",
	Short: "Connect two nodes",
	Args:  cobra.ExactArgs(3),
	RunE:  runWorkflowConnect,
}

var workflowDisconnectCmd = &cobra.Command{
	Use:   "disconnect <flow> <from-id> <to-id>",
	Short: "Remove a connection",
	Args:  cobra.ExactArgs(3),
	RunE:  runWorkflowDisconnect,
}

var workflowSetCmd = &cobra.Command{
	Use:   "set <flow> <node-id> [key=value...]",
	Short: "Change a node's configuration",
	Long: `Sets configuration fields of a node. Values are converted the way the
editor's configuration panel converts them, so numbers and choices are
checked. Use --data to merge a JSON object instead, for example to set
the parameters of a tool node.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runWorkflowSet,
}

var workflowMoveCmd = &cobra.Command{
	Use:   "move <flow> <node-id> <x> <y>",
	Short: "Place a node at a canvas position",
	Args:  cobra.ExactArgs(4),
	RunE:  runWorkflowMove,
}

var workflowExportCmd = &cobra.Command{
	Use:   "export <flow> <output-file>",
	Short: "Write a flow in another format",
	Long:  `Writes the flow to <output-file>, choosing YAML, JSON or TOML by its extension. Use '-' for YAML on stdout.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runWorkflowExport,
}

var workflowListCmd = &cobra.Command{
	Use:   "list [dir]",
	Short: "List the flows in a directory",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runWorkflowList,
}

var workflowTypesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the node types and their default configuration",
	Args:  cobra.NoArgs,
	RunE:  runWorkflowTypes,
}

func init() {
	rootCmd.AddCommand(workflowCmd)

	workflowCmd.AddCommand(workflowNewCmd)
	workflowCmd.AddCommand(workflowShowCmd)
	workflowCmd.AddCommand(workflowValidateCmd)
	workflowCmd.AddCommand(workflowAddCmd)
	workflowCmd.AddCommand(workflowDeleteNodeCmd)
	workflowCmd.AddCommand(workflowDuplicateCmd)
	workflowCmd.AddCommand(workflowConnectCmd)
	workflowCmd.AddCommand(workflowDisconnectCmd)
	workflowCmd.AddCommand(workflowSetCmd)
	workflowCmd.AddCommand(workflowMoveCmd)
	workflowCmd.AddCommand(workflowExportCmd)
	workflowCmd.AddCommand(workflowListCmd)
	workflowCmd.AddCommand(workflowTypesCmd)

	workflowCmd.PersistentFlags().StringVarP(&workflowOutputFormat, "output", "o", "table", "Output format (table, json, yaml)")
	workflowCmd.PersistentFlags().BoolVarP(&workflowQuiet, "quiet", "q", false, "Suppress non-essential output")

	workflowNewCmd.Flags().StringVar(&workflowDescription, "description", "", "flow description")
	workflowShowCmd.Flags().BoolVar(&workflowNoCanvas, "no-canvas", false, "print the node table only")
	workflowAddCmd.Flags().StringVarP(&workflowNodeType, "type", "t", "", "node type (see 'callflow workflow types')")
	workflowAddCmd.Flags().StringVar(&workflowFrom, "from", graph.StartID, "node the new node follows")
	_ = workflowAddCmd.MarkFlagRequired("type")
	workflowSetCmd.Flags().StringVar(&workflowDataJSON, "data", "", "JSON object merged into the node configuration")
}

func newPrinter(cmd *cobra.Command) (*cli.Printer, error) {
	format, err := cli.ParseOutputFormat(workflowOutputFormat)
	if err != nil {
		return nil, err
	}
	return cli.NewPrinter(cmd.OutOrStdout(), cli.PrinterOptions{
		Format: format,
		Quiet:  workflowQuiet,
		Color:  !color.NoColor,
	}), nil
}

func runWorkflowNew(cmd *cobra.Command, args []string) error {
	p, err := newPrinter(cmd)
	if err != nil {
		return err
	}
	path, err := flowPath(args[0], false)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("flow %s already exists", path)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}

	doc := storage.NewDocument(storage.NameFromPath(path), graph.New(appConfig.GraphOptions()...))
	doc.Description = workflowDescription
	saved, err := storage.Save(path, doc)
	if err != nil {
		return err
	}
	p.Success("created %s", path)
	return p.Document(saved)
}

func runWorkflowShow(cmd *cobra.Command, args []string) error {
	p, err := newPrinter(cmd)
	if err != nil {
		return err
	}
	_, doc, store, _, err := openFlow(args[0])
	if err != nil {
		return err
	}
	if err := p.Document(doc); err != nil {
		return err
	}
	if workflowNoCanvas || workflowQuiet || workflowOutputFormat != string(cli.OutputFormatTable) {
		return nil
	}
	p.Canvas(store, appConfig.Metrics(), appConfig.Canvas.CellWidth, appConfig.Canvas.CellHeight)
	return nil
}

func runWorkflowValidate(cmd *cobra.Command, args []string) error {
	p, err := newPrinter(cmd)
	if err != nil {
		return err
	}
	_, _, store, issues, err := openFlow(args[0])
	if err != nil {
		return err
	}
	issues = graph.MergeIssues(issues, store.Validate())
	p.Issues(issues)
	if len(issues) > 0 {
		return fmt.Errorf("%s: %d issue(s) found", args[0], len(issues))
	}
	return nil
}

func runWorkflowAdd(cmd *cobra.Command, args []string) error {
	p, err := newPrinter(cmd)
	if err != nil {
		return err
	}
	t := graph.NodeType(workflowNodeType)
	if _, ok := graph.Lookup(t); !ok {
		return fmt.Errorf("%w: %q", graph.ErrUnknownType, workflowNodeType)
	}

	var added graph.Node
	_, _, err = editFlow(args[0], func(s *graph.Store) error {
		from, ok := s.Node(workflowFrom)
		if !ok {
			return fmt.Errorf("%w: %s", graph.ErrNodeNotFound, workflowFrom)
		}
		if graph.IsTerminal(from.Type) {
			return fmt.Errorf("%w: %s is a %s node", graph.ErrTerminalSource, from.ID, from.Type)
		}
		n, ok := s.AddNode(t, from.ID)
		if !ok {
			return fmt.Errorf("could not add %s after %s", t, from.ID)
		}
		added = n
		return nil
	})
	if err != nil {
		return err
	}
	return p.Node(added)
}

func runWorkflowDeleteNode(cmd *cobra.Command, args []string) error {
	p, err := newPrinter(cmd)
	if err != nil {
		return err
	}
	id := args[1]
	_, _, err = editFlow(args[0], func(s *graph.Store) error {
		if id == s.StartID() {
			return graph.ErrStartProtected
		}
		if !s.DeleteNode(id) {
			return fmt.Errorf("%w: %s", graph.ErrNodeNotFound, id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	p.Success("deleted %s", id)
	return nil
}

func runWorkflowDuplicate(cmd *cobra.Command, args []string) error {
	p, err := newPrinter(cmd)
	if err != nil {
		return err
	}
	id := args[1]
	var dup graph.Node
	_, _, err = editFlow(args[0], func(s *graph.Store) error {
		if id == s.StartID() {
			return graph.ErrStartProtected
		}
		n, ok := s.DuplicateNode(id)
		if !ok {
			return fmt.Errorf("%w: %s", graph.ErrNodeNotFound, id)
		}
		dup = n
		return nil
	})
	if err != nil {
		return err
	}
	return p.Node(dup)
}

func runWorkflowConnect(cmd *cobra.Command, args []string) error {
	p, err := newPrinter(cmd)
	if err != nil {
		return err
	}
	from, to := args[1], args[2]
	if _, _, err := editFlow(args[0], func(s *graph.Store) error {
		return s.Connect(from, to)
	}); err != nil {
		return err
	}
	p.Success("connected %s -> %s", from, to)
	return nil
}

func runWorkflowDisconnect(cmd *cobra.Command, args []string) error {
	p, err := newPrinter(cmd)
	if err != nil {
		return err
	}
	from, to := args[1], args[2]
	if _, _, err := editFlow(args[0], func(s *graph.Store) error {
		if !s.Disconnect(from, to) {
			return fmt.Errorf("no connection %s -> %s", from, to)
		}
		return nil
	}); err != nil {
		return err
	}
	p.Success("disconnected %s -> %s", from, to)
	return nil
}

func runWorkflowSet(cmd *cobra.Command, args []string) error {
	p, err := newPrinter(cmd)
	if err != nil {
		return err
	}
	id := args[1]
	pairs, err := parseAssignments(args[2:])
	if err != nil {
		return err
	}
	if len(pairs) == 0 && workflowDataJSON == "" {
		return fmt.Errorf("nothing to set: pass key=value pairs or --data")
	}

	var updated graph.Node
	_, _, err = editFlow(args[0], func(s *graph.Store) error {
		ed := editor.New(s)
		for _, kv := range pairs {
			if err := ed.SetField(id, kv[0], kv[1]); err != nil {
				return err
			}
		}
		if workflowDataJSON != "" {
			var fields map[string]any
			if err := json.Unmarshal([]byte(workflowDataJSON), &fields); err != nil {
				return fmt.Errorf("invalid --data: %w", err)
			}
			if err := s.UpdateNodeData(id, fields); err != nil {
				return err
			}
		}
		n, ok := s.Node(id)
		if !ok {
			return fmt.Errorf("%w: %s", graph.ErrNodeNotFound, id)
		}
		updated = n
		return nil
	})
	if err != nil {
		return err
	}
	return p.Node(updated)
}

// parseAssignments splits key=value arguments.
func parseAssignments(args []string) ([][2]string, error) {
	pairs := make([][2]string, 0, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid assignment %q, expected key=value", arg)
		}
		pairs = append(pairs, [2]string{k, v})
	}
	return pairs, nil
}

func runWorkflowMove(cmd *cobra.Command, args []string) error {
	p, err := newPrinter(cmd)
	if err != nil {
		return err
	}
	id := args[1]
	x, err := strconv.ParseFloat(args[2], 64)
	if err != nil {
		return fmt.Errorf("invalid x %q: %w", args[2], err)
	}
	y, err := strconv.ParseFloat(args[3], 64)
	if err != nil {
		return fmt.Errorf("invalid y %q: %w", args[3], err)
	}
	if !(graph.Position{X: x, Y: y}).Finite() {
		return fmt.Errorf("%w: %s, %s", graph.ErrInvalidPosition, args[2], args[3])
	}

	var moved graph.Node
	_, _, err = editFlow(args[0], func(s *graph.Store) error {
		if !s.SetNodePosition(id, x, y) {
			return fmt.Errorf("%w: %s", graph.ErrNodeNotFound, id)
		}
		moved, _ = s.Node(id)
		return nil
	})
	if err != nil {
		return err
	}
	return p.Node(moved)
}

func runWorkflowExport(cmd *cobra.Command, args []string) error {
	_, doc, store, _, err := openFlow(args[0])
	if err != nil {
		return err
	}
	// export the repaired graph, not the raw file
	doc = doc.WithStore(store)

	out := args[1]
	if out == "-" {
		data, err := storage.Encode(doc, storage.FormatYAML)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	}

	f, err := storage.FormatFor(out)
	if err != nil {
		return err
	}
	data, err := storage.Encode(doc, f)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(out); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	if !workflowQuiet {
		fmt.Fprintf(cmd.OutOrStdout(), "exported %s to %s\n", args[0], out)
	}
	return nil
}

func runWorkflowList(cmd *cobra.Command, args []string) error {
	p, err := newPrinter(cmd)
	if err != nil {
		return err
	}
	dir := appConfig.Storage.Dir
	if len(args) == 1 {
		dir = args[0]
	}
	entries, err := storage.List(dir)
	if err != nil {
		return err
	}
	return p.Flows(entries)
}

func runWorkflowTypes(cmd *cobra.Command, args []string) error {
	p, err := newPrinter(cmd)
	if err != nil {
		return err
	}
	return p.NodeTypes()
}
