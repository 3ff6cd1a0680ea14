// Package tools implements the MCP tool handlers for the Dataplex server.
//
// Each tool receives its dependencies via its struct and exposes
// Definition() for registration and Handle() as the mcp-go handler.
// Handlers never return a Go error: failures become error results so the
// transport stays up.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HendryAvila/mcp-dataplex/internal/journal"
	"github.com/HendryAvila/mcp-dataplex/internal/logging"
	"github.com/HendryAvila/mcp-dataplex/internal/validation"
)

// Recorder stores one tool call. *journal.Journal satisfies it.
type Recorder interface {
	Record(ctx context.Context, p journal.RecordParams) (string, error)
}

// runner is the shared invoke path: log, call, record, render.
type runner struct {
	logger   *logging.Logger
	recorder Recorder // nil when the journal is disabled
}

func newRunner(logger *logging.Logger, rec Recorder) runner {
	if logger == nil {
		logger = logging.Discard()
	}
	return runner{logger: logger, recorder: rec}
}

// run executes call and renders its value as indented JSON, or its error
// as a sanitized error result.
func (r runner) run(ctx context.Context, tool string, args map[string]any, call func(context.Context) (any, error)) *mcp.CallToolResult {
	requestID := uuid.NewString()
	r.logger.ToolCall(requestID, tool, args)

	start := time.Now()
	v, err := call(ctx)
	elapsed := time.Since(start)

	r.logger.ToolResult(requestID, tool, err == nil, elapsed)
	r.record(ctx, tool, args, err, elapsed)

	if err != nil {
		r.logger.Error("tool failed", err, "tool", tool, "request_id", requestID)
		return mcp.NewToolResultError("Error: " + validation.ErrorMessage(err))
	}

	return jsonResult(v)
}

// jsonResult renders v as two-space indented JSON text.
func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Error: encoding result: %v", err))
	}
	return mcp.NewToolResultText(string(out))
}

func (r runner) record(ctx context.Context, tool string, args map[string]any, callErr error, elapsed time.Duration) {
	if r.recorder == nil {
		return
	}
	p := journal.RecordParams{
		Tool:     tool,
		Args:     argsSummary(args),
		Success:  callErr == nil,
		Duration: elapsed,
	}
	if callErr != nil {
		p.Error = validation.ErrorMessage(callErr)
	}
	if _, err := r.recorder.Record(context.WithoutCancel(ctx), p); err != nil {
		r.logger.Warn("journal record failed", "tool", tool, "error", err.Error())
	}
}

// argsSummary renders args as sorted key=value pairs, sanitized.
func argsSummary(args map[string]any) string {
	if len(args) == 0 {
		return ""
	}
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, args[k]))
	}
	return validation.SanitizeForLogging(strings.Join(parts, " "))
}
