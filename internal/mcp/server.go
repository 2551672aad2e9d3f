package mcp

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	logger "github.com/sirupsen/logrus"
)

// ServerName is advertised to MCP clients.
const ServerName = "change-analyzer"

// Server exposes the analysis over MCP on stdio.
type Server struct {
	mcp *server.MCPServer
}

// NewServer creates a server with the analyze_changes tool registered.
func NewServer(runner Runner, version string) *Server {
	s := server.NewMCPServer(
		ServerName,
		version,
		server.WithToolCapabilities(true),
	)
	AddAnalyzeChangesTool(s, runner)
	return &Server{mcp: s}
}

// Serve blocks until stdin closes, a shutdown signal arrives or ctx is done.
// Logs go to stderr; stdout carries the protocol.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("[mcp] serving on stdio")
		if err := server.ServeStdio(s.mcp); err != nil {
			errCh <- fmt.Errorf("MCP server error: %w", err)
			return
		}
		errCh <- nil
	}()

	select {
	case <-sigCh:
		logger.Info("[mcp] received shutdown signal, stopping")
		return nil
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
