package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/mcp-dataplex/internal/service"
)

// ExplorePrompt handles the explore-datasets MCP prompt.
// It walks the AI through the project top-down.
type ExplorePrompt struct{}

// NewExplorePrompt creates an ExplorePrompt.
func NewExplorePrompt() *ExplorePrompt {
	return &ExplorePrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *ExplorePrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("explore-datasets",
		mcp.WithPromptDescription(
			"Browse the configured project: list its datasets, then the tables in the one you pick.",
		),
		mcp.WithArgument("datasetId",
			mcp.ArgumentDescription("Optional dataset to start from. If omitted, all datasets are listed first."),
		),
	)
}

// Handle processes the explore-datasets prompt request.
func (p *ExplorePrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	var text string
	if ds := req.Params.Arguments["datasetId"]; ds != "" {
		text = fmt.Sprintf(
			"Call `%s` for dataset `%s` and show the tables as a list. "+
				"Ask me which table to look at, then use the `table-overview` prompt steps for it.",
			service.ToolListTables, ds)
	} else {
		text = fmt.Sprintf(
			"Call `%s` and show me the datasets in this project. "+
				"Ask me which one to open, then call `%s` for it.",
			service.ToolListDatasets, service.ToolListTables)
	}

	return &mcp.GetPromptResult{
		Description: "Explore BigQuery datasets",
		Messages: []mcp.PromptMessage{
			{Role: mcp.RoleUser, Content: mcp.NewTextContent(text)},
		},
	}, nil
}
