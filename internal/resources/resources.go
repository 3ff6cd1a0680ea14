// Package resources implements MCP resource handlers for the Dataplex server.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (dataplex://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/mcp-dataplex/internal/service"
)

// StatusURI addresses the server status resource.
const StatusURI = "dataplex://server/status"

// Handler manages resource endpoints.
type Handler struct {
	svc      *service.Service
	stats    service.StatsSource // nil when the journal is disabled
	location string
}

// NewHandler creates a resource Handler with its dependencies.
// stats may be nil.
func NewHandler(svc *service.Service, stats service.StatsSource, location string) *Handler {
	return &Handler{svc: svc, stats: stats, location: location}
}

// StatusResource returns the MCP resource definition for server status.
func (h *Handler) StatusResource() mcp.Resource {
	return mcp.NewResource(
		StatusURI,
		"Dataplex Server Status",
		mcp.WithResourceDescription("Configured project and location, result cache size, tool-call journal stats and recent calls"),
		mcp.WithMIMEType("application/json"),
	)
}

type statusDocument struct {
	*service.Status
	Location string `json:"location"`
}

// HandleStatus returns the current server status as JSON.
func (h *Handler) HandleStatus(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	st, err := h.svc.Status(ctx, h.stats)
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}

	data, err := json.MarshalIndent(statusDocument{Status: st, Location: h.location}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling status: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
