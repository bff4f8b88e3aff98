package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"callflow/internal/mcpserver"
	"callflow/pkg/logging"

	"github.com/spf13/cobra"
)

var (
	serveHost string
	servePort int
	serveDir  string
)

// serveCmd starts the MCP server that exposes the flow directory to agents.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve call flows to MCP clients over SSE",
	Long: `Starts an MCP server so that AI assistants can list, inspect and edit the
call flows in the flow directory. Every tool call loads the flow, applies
one graph operation and saves it again.

Clients connect to http://<host>:<port>/sse. Use 'callflow remote' to call
the tools from the command line.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := mcpserver.Config{
		Host:         appConfig.Server.Host,
		Port:         appConfig.Server.Port,
		Dir:          appConfig.Storage.Dir,
		Format:       appConfig.DefaultFormat(),
		Version:      rootCmd.Version,
		GraphOptions: appConfig.GraphOptions(),
	}
	if cmd.Flags().Changed("host") {
		cfg.Host = serveHost
	}
	if cmd.Flags().Changed("port") {
		cfg.Port = servePort
	}
	if cmd.Flags().Changed("dir") {
		cfg.Dir = serveDir
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := mcpserver.New(cfg)
	if err := server.Start(ctx); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Serving flows from %s at %s\n", cfg.Dir, server.Endpoint())

	select {
	case <-ctx.Done():
		logging.Info("Serve", "Shutting down")
	case err, ok := <-server.Done():
		if ok && err != nil {
			return fmt.Errorf("mcp server stopped: %w", err)
		}
		return nil
	}

	return server.Stop(context.Background())
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "listen host (default from config: localhost)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "listen port (default from config: 8095)")
	serveCmd.Flags().StringVar(&serveDir, "dir", "", "flow directory (default from config: flows)")
}
