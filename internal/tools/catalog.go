package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/mcp-dataplex/internal/logging"
	"github.com/HendryAvila/mcp-dataplex/internal/service"
)

// ListDatasetsTool handles the list_datasets MCP tool.
type ListDatasetsTool struct {
	svc *service.Service
	runner
}

// NewListDatasetsTool creates a ListDatasetsTool. rec may be nil.
func NewListDatasetsTool(svc *service.Service, logger *logging.Logger, rec Recorder) *ListDatasetsTool {
	return &ListDatasetsTool{svc: svc, runner: newRunner(logger, rec)}
}

// Definition returns the MCP tool definition for registration.
func (t *ListDatasetsTool) Definition() mcp.Tool {
	return mcp.NewTool(service.ToolListDatasets,
		mcp.WithDescription("List all BigQuery datasets in the configured GCP project"),
	)
}

// Handle processes the list_datasets tool call.
func (t *ListDatasetsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return t.run(ctx, service.ToolListDatasets, req.GetArguments(), func(ctx context.Context) (any, error) {
		return t.svc.ListDatasets(ctx)
	}), nil
}

// ListTablesTool handles the list_tables MCP tool.
type ListTablesTool struct {
	svc *service.Service
	runner
}

// NewListTablesTool creates a ListTablesTool. rec may be nil.
func NewListTablesTool(svc *service.Service, logger *logging.Logger, rec Recorder) *ListTablesTool {
	return &ListTablesTool{svc: svc, runner: newRunner(logger, rec)}
}

// Definition returns the MCP tool definition for registration.
func (t *ListTablesTool) Definition() mcp.Tool {
	return mcp.NewTool(service.ToolListTables,
		mcp.WithDescription("List all tables in a BigQuery dataset"),
		datasetParam(),
	)
}

// Handle processes the list_tables tool call.
func (t *ListTablesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	return t.run(ctx, service.ToolListTables, args, func(ctx context.Context) (any, error) {
		datasetID, err := service.StringArg(args, "datasetId", "Dataset ID")
		if err != nil {
			return nil, err
		}
		return t.svc.ListTables(ctx, datasetID)
	}), nil
}

// TableMetadataTool handles the get_table_metadata MCP tool.
type TableMetadataTool struct {
	svc *service.Service
	runner
}

// NewTableMetadataTool creates a TableMetadataTool. rec may be nil.
func NewTableMetadataTool(svc *service.Service, logger *logging.Logger, rec Recorder) *TableMetadataTool {
	return &TableMetadataTool{svc: svc, runner: newRunner(logger, rec)}
}

// Definition returns the MCP tool definition for registration.
func (t *TableMetadataTool) Definition() mcp.Tool {
	return mcp.NewTool(service.ToolTableMetadata,
		mcp.WithDescription(
			"Get comprehensive metadata for a BigQuery table including schema, descriptions, "+
				"clustering, partitioning, and partition filters",
		),
		datasetParam(),
		tableParam(),
	)
}

// Handle processes the get_table_metadata tool call.
func (t *TableMetadataTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	return t.run(ctx, service.ToolTableMetadata, args, func(ctx context.Context) (any, error) {
		datasetID, tableID, err := tableArgs(args)
		if err != nil {
			return nil, err
		}
		return t.svc.TableMetadata(ctx, datasetID, tableID)
	}), nil
}

func datasetParam() mcp.ToolOption {
	return mcp.WithString("datasetId",
		mcp.Required(),
		mcp.Description("The dataset ID"),
	)
}

func tableParam() mcp.ToolOption {
	return mcp.WithString("tableId",
		mcp.Required(),
		mcp.Description("The table ID"),
	)
}

// tableArgs reads datasetId and tableId with the same type rules as
// service.Execute.
func tableArgs(args map[string]any) (string, string, error) {
	datasetID, err := service.StringArg(args, "datasetId", "Dataset ID")
	if err != nil {
		return "", "", err
	}
	tableID, err := service.StringArg(args, "tableId", "Table ID")
	if err != nil {
		return "", "", err
	}
	return datasetID, tableID, nil
}
