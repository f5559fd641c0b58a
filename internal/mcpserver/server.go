package mcpserver

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/docschat/docschat/internal/history"
	"github.com/docschat/docschat/internal/inkeep"
)

const (
	// ServerName is the MCP server name
	ServerName = "docschat-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp    *server.MCPServer
	docs   *inkeep.Client
	ledger *history.Store
}

// NewServer creates a new MCP server instance. The history store is
// optional; without it the deployment_status tool reports no data.
func NewServer(docs *inkeep.Client, ledger *history.Store) (*Server, error) {
	if docs == nil {
		return nil, fmt.Errorf("docs client is required")
	}

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:    mcpServer,
		docs:   docs,
		ledger: ledger,
	}

	s.registerTools()

	return s, nil
}

// Serve starts the MCP server on stdio and blocks until the context is
// canceled or stdin closes
func (s *Server) Serve(ctx context.Context) error {
	if s.ledger != nil {
		defer func() { _ = s.ledger.Close() }()
	}
	return s.serve(ctx, os.Stdin, os.Stdout)
}

func (s *Server) serve(ctx context.Context, in io.Reader, out io.Writer) error {
	return server.NewStdioServer(s.mcp).Listen(ctx, in, out)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(askDocsTool(), s.handleAskDocs)
	s.mcp.AddTool(searchDocsTool(), s.handleSearchDocs)
	s.mcp.AddTool(deploymentStatusTool(), s.handleDeploymentStatus)
}
