// Package mcpserver serves the call flows of a directory to MCP clients over
// SSE so that agents can build and edit flows.
package mcpserver

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"callflow/internal/graph"
	"callflow/internal/storage"
	"callflow/pkg/logging"

	"github.com/mark3labs/mcp-go/server"
)

// Config configures a Server.
type Config struct {
	Host   string
	Port   int
	Dir    string
	Format storage.Format
	// Version is reported to clients during the handshake.
	Version      string
	GraphOptions []graph.Option
}

// Server is the callflow MCP server.
type Server struct {
	config Config
	tools  *FlowTools

	mu        sync.Mutex
	mcpServer *server.MCPServer
	sseServer *server.SSEServer
	errCh     chan error
}

// New creates a server. Nothing listens until Start.
func New(config Config) *Server {
	if config.Host == "" {
		config.Host = "localhost"
	}
	if config.Port == 0 {
		config.Port = 8095
	}
	if config.Version == "" {
		config.Version = "dev"
	}
	return &Server{
		config: config,
		tools:  NewFlowTools(config.Dir, config.Format, config.GraphOptions...),
	}
}

// Addr is the listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// Endpoint is the URL clients connect to.
func (s *Server) Endpoint() string {
	return fmt.Sprintf("http://%s/sse", s.Addr())
}

// MCPServer builds the MCP server with every flow tool registered. It does
// not listen; Start serves it over SSE.
func (s *Server) MCPServer() *server.MCPServer {
	mcpServer := server.NewMCPServer(
		"callflow",
		s.config.Version,
		server.WithToolCapabilities(true),
	)
	mcpServer.AddTools(s.tools.ServerTools()...)
	return mcpServer
}

// Start begins serving in the background. Listen errors are reported by
// Done.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mcpServer != nil {
		return fmt.Errorf("mcp server already started")
	}
	if err := s.tools.ensureDir(); err != nil {
		return fmt.Errorf("failed to create flow directory %s: %w", s.config.Dir, err)
	}

	s.mcpServer = s.MCPServer()
	s.sseServer = server.NewSSEServer(
		s.mcpServer,
		server.WithBaseURL("http://"+s.Addr()),
		server.WithSSEEndpoint("/sse"),
		server.WithMessageEndpoint("/message"),
		server.WithKeepAlive(true),
		server.WithKeepAliveInterval(30*time.Second),
	)
	s.errCh = make(chan error, 1)

	logging.Info(subsystem, "Starting MCP server on %s serving flows from %s", s.Addr(), s.config.Dir)

	sseServer, errCh, addr := s.sseServer, s.errCh, s.Addr()
	go func() {
		err := sseServer.Start(addr)
		if err != nil && err != http.ErrServerClosed {
			logging.Error(subsystem, err, "SSE server error")
			errCh <- err
		}
		close(errCh)
	}()
	return nil
}

// Done delivers a listen error, or is closed once the server stops.
func (s *Server) Done() <-chan error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errCh
}

// Stop shuts the server down, waiting at most five seconds for open
// connections.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	sseServer := s.sseServer
	s.mcpServer = nil
	s.sseServer = nil
	s.mu.Unlock()

	if sseServer == nil {
		return fmt.Errorf("mcp server not started")
	}

	logging.Info(subsystem, "Stopping MCP server")
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sseServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down SSE server: %w", err)
	}
	return nil
}
