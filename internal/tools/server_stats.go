package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/mcp-dataplex/internal/service"
)

// ToolServerStats is the name of the self-report tool.
const ToolServerStats = "get_server_stats"

// ServerStatsTool handles the get_server_stats MCP tool. It is not
// journaled itself.
type ServerStatsTool struct {
	svc   *service.Service
	stats service.StatsSource // nil when the journal is disabled
}

// NewServerStatsTool creates a ServerStatsTool. stats may be nil.
func NewServerStatsTool(svc *service.Service, stats service.StatsSource) *ServerStatsTool {
	return &ServerStatsTool{svc: svc, stats: stats}
}

// Definition returns the MCP tool definition for registration.
func (t *ServerStatsTool) Definition() mcp.Tool {
	return mcp.NewTool(ToolServerStats,
		mcp.WithDescription(
			"Show server statistics: configured project, result cache size, and per-tool "+
				"call counts and the most recent calls from the local journal (when enabled).",
		),
	)
}

// Handle processes the get_server_stats tool call.
func (t *ServerStatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := t.svc.Status(ctx, t.stats)
	if err != nil {
		return mcp.NewToolResultError("Error: " + err.Error()), nil
	}
	return jsonResult(st), nil
}
