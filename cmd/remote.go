package cmd

import (
	"encoding/json"
	"strings"

	"callflow/internal/cli"

	"github.com/spf13/cobra"
)

var remoteEndpoint string

// remoteCmd talks to a running 'callflow serve'.
var remoteCmd = &cobra.Command{
	Use:   "remote",
	Short: "Call the tools of a running callflow MCP server",
	Long: `Calls the MCP tools of a running 'callflow serve' the same way an agent
would. This is handy for checking what an agent sees.

Note: the server must be running before using these commands.`,
}

var remoteToolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools the server offers",
	Args:  cobra.NoArgs,
	RunE:  runRemoteTools,
}

var remoteCallCmd = &cobra.Command{
	Use:   "call <tool> [key=value...]",
	Short: "Call a tool",
	Long: `Calls <tool> with the given arguments. Values that parse as JSON (numbers,
booleans, objects) are sent as such; anything else is sent as a string.

  callflow remote call flow_add_node flow=support type=subagent from=start
  callflow remote call flow_update_node flow=support id=subagent_1 'data={"selectedAgent":"billing"}'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRemoteCall,
}

func init() {
	rootCmd.AddCommand(remoteCmd)
	remoteCmd.AddCommand(remoteToolsCmd)
	remoteCmd.AddCommand(remoteCallCmd)

	remoteCmd.PersistentFlags().StringVar(&remoteEndpoint, "endpoint", "", "server SSE endpoint (default from config server.host and server.port)")
	remoteCmd.PersistentFlags().StringVarP(&workflowOutputFormat, "output", "o", "table", "Output format (table, json, yaml)")
	remoteCmd.PersistentFlags().BoolVarP(&workflowQuiet, "quiet", "q", false, "Suppress non-essential output")
}

func newExecutor(cmd *cobra.Command) (*cli.ToolExecutor, error) {
	p, err := newPrinter(cmd)
	if err != nil {
		return nil, err
	}
	endpoint := remoteEndpoint
	if endpoint == "" {
		endpoint = cli.Endpoint(appConfig.Server.Host, appConfig.Server.Port)
	}
	executor := cli.NewToolExecutor(endpoint, p)
	if err := executor.Connect(cmd.Context()); err != nil {
		return nil, err
	}
	return executor, nil
}

func runRemoteTools(cmd *cobra.Command, args []string) error {
	executor, err := newExecutor(cmd)
	if err != nil {
		return err
	}
	defer executor.Close()
	return executor.Tools(cmd.Context())
}

func runRemoteCall(cmd *cobra.Command, args []string) error {
	pairs, err := parseAssignments(args[1:])
	if err != nil {
		return err
	}
	arguments := make(map[string]interface{}, len(pairs))
	for _, kv := range pairs {
		arguments[kv[0]] = argumentValue(kv[1])
	}

	executor, err := newExecutor(cmd)
	if err != nil {
		return err
	}
	defer executor.Close()
	return executor.Execute(cmd.Context(), args[0], arguments)
}

// argumentValue sends JSON literals typed and everything else as text.
func argumentValue(raw string) interface{} {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return raw
	}
	var v interface{}
	if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
		return v
	}
	return raw
}
