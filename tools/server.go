package tools

import (
	"context"
	"io"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"
)

// ServerName is reported to MCP clients during initialization.
const ServerName = "TestRail MCP Server"

// NewServer registers every tool of ts on a new MCP server.
func NewServer(ts *Toolset, version string) *server.MCPServer {
	s := server.NewMCPServer(ServerName, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	for _, t := range ts.Tools() {
		s.AddTool(t.Definition, ts.handler(t))
	}

	return s
}

func (ts *Toolset) handler(t Tool) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return ts.run(ctx, t, req.GetArguments()), nil
	}
}

// ServeStdio runs s over the given streams until ctx is done or input ends.
// stdout carries protocol messages only; diagnostics go to logger.
func ServeStdio(ctx context.Context, s *server.MCPServer, in io.Reader, out io.Writer, logger zerolog.Logger) error {
	stdio := server.NewStdioServer(s)
	stdio.SetErrorLogger(log.New(logger, "", 0))

	logger.Info().Msg("MCP server listening on stdio")
	return stdio.Listen(ctx, in, out)
}
