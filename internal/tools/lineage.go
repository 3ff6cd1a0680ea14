package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/mcp-dataplex/internal/logging"
	"github.com/HendryAvila/mcp-dataplex/internal/service"
)

// DataLineageTool handles the get_data_lineage MCP tool. The depth is
// fixed at service.DefaultLineageDepth; only the call subcommand varies it.
type DataLineageTool struct {
	svc *service.Service
	runner
}

// NewDataLineageTool creates a DataLineageTool. rec may be nil.
func NewDataLineageTool(svc *service.Service, logger *logging.Logger, rec Recorder) *DataLineageTool {
	return &DataLineageTool{svc: svc, runner: newRunner(logger, rec)}
}

// Definition returns the MCP tool definition for registration.
func (t *DataLineageTool) Definition() mcp.Tool {
	return mcp.NewTool(service.ToolDataLineage,
		mcp.WithDescription(
			"Get upstream and downstream data lineage for a BigQuery table with Mermaid "+
				"diagram visualization (max depth: 3 levels)",
		),
		datasetParam(),
		tableParam(),
	)
}

// Handle processes the get_data_lineage tool call.
func (t *DataLineageTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	return t.run(ctx, service.ToolDataLineage, args, func(ctx context.Context) (any, error) {
		datasetID, tableID, err := tableArgs(args)
		if err != nil {
			return nil, err
		}
		return t.svc.DataLineage(ctx, datasetID, tableID, service.DefaultLineageDepth)
	}), nil
}

// QualityResultsTool handles the get_data_quality_results MCP tool.
type QualityResultsTool struct {
	svc *service.Service
	runner
}

// NewQualityResultsTool creates a QualityResultsTool. rec may be nil.
func NewQualityResultsTool(svc *service.Service, logger *logging.Logger, rec Recorder) *QualityResultsTool {
	return &QualityResultsTool{svc: svc, runner: newRunner(logger, rec)}
}

// Definition returns the MCP tool definition for registration.
func (t *QualityResultsTool) Definition() mcp.Tool {
	return mcp.NewTool(service.ToolQualityResults,
		mcp.WithDescription("Get the latest data quality scan results for a BigQuery table"),
		datasetParam(),
		tableParam(),
	)
}

// Handle processes the get_data_quality_results tool call.
func (t *QualityResultsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	return t.run(ctx, service.ToolQualityResults, args, func(ctx context.Context) (any, error) {
		datasetID, tableID, err := tableArgs(args)
		if err != nil {
			return nil, err
		}
		return t.svc.QualityResults(ctx, datasetID, tableID)
	}), nil
}
