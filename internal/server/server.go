// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it creates the GCP clients, the cache and
// the journal, and injects them into the tools, prompts and resources.
// No business logic lives here, only wiring.
package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/server"
	"google.golang.org/api/option"

	"github.com/HendryAvila/mcp-dataplex/internal/cache"
	"github.com/HendryAvila/mcp-dataplex/internal/config"
	"github.com/HendryAvila/mcp-dataplex/internal/gcp"
	"github.com/HendryAvila/mcp-dataplex/internal/journal"
	"github.com/HendryAvila/mcp-dataplex/internal/lineage"
	"github.com/HendryAvila/mcp-dataplex/internal/logging"
	"github.com/HendryAvila/mcp-dataplex/internal/prompts"
	"github.com/HendryAvila/mcp-dataplex/internal/resources"
	"github.com/HendryAvila/mcp-dataplex/internal/service"
	"github.com/HendryAvila/mcp-dataplex/internal/tools"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Name is the MCP server name.
const Name = "mcp-dataplex"

// NewService builds the GCP clients and the cached tool service. The
// returned cleanup closes every client; it is always non-nil.
func NewService(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*service.Service, func(), error) {
	opts := []option.ClientOption{option.WithUserAgent(Name + "/" + Version)}
	project, location := cfg.GCP.ProjectID, cfg.GCP.Location

	bq, err := gcp.NewBigQuery(ctx, project, logger, opts...)
	if err != nil {
		return nil, noop, err
	}
	dp, err := gcp.NewDataplex(ctx, project, location, logger, opts...)
	if err != nil {
		_ = bq.Close()
		return nil, noop, err
	}
	lc, err := gcp.NewLineage(ctx, project, location, logger, opts...)
	if err != nil {
		_ = bq.Close()
		_ = dp.Close()
		return nil, noop, err
	}

	cleanup := func() {
		if err := errors.Join(bq.Close(), dp.Close(), lc.Close()); err != nil {
			logger.Warn("closing GCP clients", "error", err.Error())
		}
	}

	asm := lineage.NewAssembler(lc, lc, project, location, logger.Logger)
	svc := service.New(service.Deps{Catalog: bq, Quality: dp, Lineage: asm}, project, cache.New[any](cfg.Cache.Enabled), logger)

	logger.Info("service ready",
		"project", project,
		"location", location,
		"cache_enabled", cfg.Cache.Enabled,
	)
	return svc, cleanup, nil
}

// New creates and configures the MCP server with all tools, prompts and
// resources registered.
//
// The returned cleanup closes the GCP clients and the journal and must be
// called on shutdown. It is always non-nil.
func New(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*server.MCPServer, func(), error) {
	svc, closeClients, err := NewService(ctx, cfg, logger)
	if err != nil {
		return nil, noop, fmt.Errorf("creating service: %w", err)
	}

	jr := openJournal(cfg.Journal, logger)

	cleanup := func() {
		closeClients()
		if jr != nil {
			if err := jr.Close(); err != nil {
				logger.Warn("journal close", "error", err.Error())
			}
		}
	}

	return newMCPServer(svc, jr, cfg.GCP.Location, logger), cleanup, nil
}

// openJournal opens the tool-call journal when enabled. It is optional: if
// it fails to open, the tools keep working and the stats tool reports
// without journal data.
func openJournal(cfg config.JournalConfig, logger *logging.Logger) *journal.Journal {
	if !cfg.Enabled {
		return nil
	}
	jr, err := journal.New(journal.Config{DataDir: cfg.Dir})
	if err != nil {
		logger.Warn("journal disabled", "error", err.Error())
		return nil
	}
	return jr
}

// newMCPServer registers everything on a fresh MCP server. jr may be nil.
func newMCPServer(svc *service.Service, jr *journal.Journal, location string, logger *logging.Logger) *server.MCPServer {
	s := server.NewMCPServer(
		Name,
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	// A nil *journal.Journal must not become a non-nil interface.
	var (
		rec   tools.Recorder
		stats service.StatsSource
	)
	if jr != nil {
		rec, stats = jr, jr
	}

	// --- Register tools ---

	listDatasets := tools.NewListDatasetsTool(svc, logger, rec)
	s.AddTool(listDatasets.Definition(), listDatasets.Handle)

	listTables := tools.NewListTablesTool(svc, logger, rec)
	s.AddTool(listTables.Definition(), listTables.Handle)

	metadata := tools.NewTableMetadataTool(svc, logger, rec)
	s.AddTool(metadata.Definition(), metadata.Handle)

	lineageTool := tools.NewDataLineageTool(svc, logger, rec)
	s.AddTool(lineageTool.Definition(), lineageTool.Handle)

	quality := tools.NewQualityResultsTool(svc, logger, rec)
	s.AddTool(quality.Definition(), quality.Handle)

	serverStats := tools.NewServerStatsTool(svc, stats)
	s.AddTool(serverStats.Definition(), serverStats.Handle)

	// --- Register prompts ---

	overview := prompts.NewTableOverviewPrompt()
	s.AddPrompt(overview.Definition(), overview.Handle)

	explore := prompts.NewExplorePrompt()
	s.AddPrompt(explore.Definition(), explore.Handle)

	// --- Register resources ---

	resourceHandler := resources.NewHandler(svc, stats, location)
	s.AddResource(resourceHandler.StatusResource(), resourceHandler.HandleStatus)

	return s
}

// noop is the cleanup returned when nothing was opened.
func noop() {}

// serverInstructions tells the AI how to use the tools together.
func serverInstructions() string {
	return `You have access to mcp-dataplex, a read-only MCP server for BigQuery metadata,
Dataplex data quality, and Data Lineage in one GCP project.

## Tools

- list_datasets: datasets in the configured project. Start here when the user
  has not named a dataset.
- list_tables(datasetId): tables in one dataset.
- get_table_metadata(datasetId, tableId): schema with column descriptions and
  modes, clustering, partitioning (including whether a partition filter is
  required), row and byte counts, creation and modification times.
- get_data_lineage(datasetId, tableId): upstream sources and downstream
  consumers with the process that produced each link, plus a Mermaid
  diagram. Render mermaidDiagram in a mermaid code block.
- get_data_quality_results(datasetId, tableId): the latest Dataplex data
  quality scan. A response with only "message" means no scan is configured,
  which is not an error.
- get_server_stats: cache size and per-tool call counts.

## Notes

- Dataset and table IDs contain only letters, digits and underscores.
- Results are cached for the life of the server; repeated questions are cheap.
- If a tool reports that an API is not enabled, tell the user which API
  (Dataplex or Data Lineage) to enable in the project.`
}
