// Package mcpserver serves registered actions as MCP tools over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/doeshing/orbit-go/internal/app"
	"github.com/doeshing/orbit-go/internal/domain"
	"github.com/doeshing/orbit-go/internal/ports"
)

// Invoker is the part of app.Control the server needs.
type Invoker interface {
	ExportToolSchema() []domain.ToolSchema
	InvokeByName(ctx context.Context, name string, params map[string]any, bypassPolicy bool) (domain.InvocationResult, error)
}

// Server wraps an MCP server whose tools are orbit actions.
type Server struct {
	invoker Invoker
	logger  ports.Logger
	mcp     *server.MCPServer
	tools   []mcp.Tool
}

// New registers one MCP tool per exported action schema.
func New(invoker Invoker, version string, log ports.Logger) (*Server, error) {
	s := &Server{
		invoker: invoker,
		logger:  log,
		mcp: server.NewMCPServer(
			"orbit",
			version,
			server.WithToolCapabilities(false),
			server.WithRecovery(),
		),
	}
	for _, schema := range invoker.ExportToolSchema() {
		raw, err := json.Marshal(schema.Parameters)
		if err != nil {
			return nil, fmt.Errorf("encode schema for %s: %w", schema.Name, err)
		}
		tool := mcp.NewToolWithRawSchema(schema.Name, schema.Description, raw)
		s.tools = append(s.tools, tool)
		s.mcp.AddTool(tool, s.Handle)
	}
	return s, nil
}

// Tools lists the registered MCP tools in export order.
func (s *Server) Tools() []mcp.Tool {
	return append([]mcp.Tool(nil), s.tools...)
}

// Handle invokes the requested action. Orbit errors become tool errors so
// the client sees the message; confirmation-required actions fail because
// the stdio transport has no way to ask the user.
func (s *Server) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.Params.Name
	params := req.GetArguments()
	if params == nil {
		params = map[string]any{}
	}
	result, err := s.invoker.InvokeByName(ctx, name, params, false)
	if err != nil {
		s.logger.Warn("mcp tool call failed", map[string]interface{}{"action": name, "error": err.Error()})
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(app.FormatValue(result.Value)), nil
}

// ServeStdio blocks serving MCP over stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}
