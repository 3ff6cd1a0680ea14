package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/HendryAvila/mcp-dataplex/internal/validation"
)

// ErrUnknownTool is returned by Execute for names outside the tool set.
var ErrUnknownTool = errors.New("unknown tool")

// ToolHandler executes a tool by name. Transports (the MCP server, the
// call subcommand) depend on this rather than on Service directly.
type ToolHandler interface {
	Execute(ctx context.Context, name string, args map[string]any) (any, error)
}

var _ ToolHandler = (*Service)(nil)

// ToolNames lists every tool Execute accepts, in registration order.
func ToolNames() []string {
	return []string{ToolListDatasets, ToolListTables, ToolTableMetadata, ToolDataLineage, ToolQualityResults}
}

// Execute routes a tool call to its operation. Arguments are validated
// before any collaborator is called. get_data_lineage also accepts an
// optional integer "maxDepth" (1..10, default 3).
func (s *Service) Execute(ctx context.Context, name string, args map[string]any) (any, error) {
	if args == nil {
		args = map[string]any{}
	}

	switch name {
	case ToolListDatasets:
		return s.ListDatasets(ctx)

	case ToolListTables:
		datasetID, err := StringArg(args, "datasetId", "Dataset ID")
		if err != nil {
			return nil, err
		}
		return s.ListTables(ctx, datasetID)

	case ToolTableMetadata, ToolDataLineage, ToolQualityResults:
		datasetID, err := StringArg(args, "datasetId", "Dataset ID")
		if err != nil {
			return nil, err
		}
		tableID, err := StringArg(args, "tableId", "Table ID")
		if err != nil {
			return nil, err
		}

		switch name {
		case ToolTableMetadata:
			return s.TableMetadata(ctx, datasetID, tableID)
		case ToolQualityResults:
			return s.QualityResults(ctx, datasetID, tableID)
		default:
			depth := DefaultLineageDepth
			if raw, ok := args["maxDepth"]; ok {
				depth, err = validation.ValidateDepth(raw, validation.DefaultMaxDepth)
				if err != nil {
					return nil, err
				}
			}
			return s.DataLineage(ctx, datasetID, tableID, depth)
		}

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
}

// stringArg reads a required string argument.
func StringArg(args map[string]any, key, label string) (string, error) {
	v, ok := args[key].(string)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", validation.ErrInvalidArgument, label)
	}
	return v, nil
}
