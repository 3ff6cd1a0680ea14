// Package prompts implements MCP prompt handlers for the Dataplex server.
//
// Prompts are user-triggered workflows (like slash commands) that tell the
// AI which tools to call and how to present the answers.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/mcp-dataplex/internal/service"
)

// TableOverviewPrompt handles the table-overview MCP prompt.
type TableOverviewPrompt struct{}

// NewTableOverviewPrompt creates a TableOverviewPrompt.
func NewTableOverviewPrompt() *TableOverviewPrompt {
	return &TableOverviewPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *TableOverviewPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("table-overview",
		mcp.WithPromptDescription(
			"Summarize one BigQuery table: schema and storage, where its data comes from "+
				"and goes to, and its latest data quality scan.",
		),
		mcp.WithArgument("datasetId",
			mcp.ArgumentDescription("The dataset ID"),
			mcp.RequiredArgument(),
		),
		mcp.WithArgument("tableId",
			mcp.ArgumentDescription("The table ID"),
			mcp.RequiredArgument(),
		),
	)
}

// Handle processes the table-overview prompt request.
func (p *TableOverviewPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	datasetID := strings.TrimSpace(req.Params.Arguments["datasetId"])
	tableID := strings.TrimSpace(req.Params.Arguments["tableId"])
	if datasetID == "" || tableID == "" {
		return nil, fmt.Errorf("datasetId and tableId are required")
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Overview of %s.%s", datasetID, tableID),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"Give me an overview of the BigQuery table `%[1]s.%[2]s`.\n\n"+
						"1. Call `%[3]s` and summarize the schema (highlight REQUIRED and REPEATED columns), "+
						"partitioning, clustering, row count and size.\n"+
						"2. Call `%[4]s` and list the upstream sources and downstream consumers. "+
						"Render the returned `mermaidDiagram` as a mermaid code block.\n"+
						"3. Call `%[5]s`. If it only returns a message, say no scan is configured; "+
						"otherwise report pass/fail per dimension and when it last ran.\n"+
						"4. Finish with anything that looks risky: failing checks, missing descriptions, "+
						"or tables with no lineage.",
					datasetID, tableID,
					service.ToolTableMetadata, service.ToolDataLineage, service.ToolQualityResults,
				)),
			},
		},
	}, nil
}
