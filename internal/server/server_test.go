package server

import (
	"bytes"
	"context"
	"encoding/json"
	"iter"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/mcp-dataplex/internal/cache"
	"github.com/HendryAvila/mcp-dataplex/internal/catalog"
	"github.com/HendryAvila/mcp-dataplex/internal/config"
	"github.com/HendryAvila/mcp-dataplex/internal/journal"
	"github.com/HendryAvila/mcp-dataplex/internal/lineage"
	"github.com/HendryAvila/mcp-dataplex/internal/logging"
	"github.com/HendryAvila/mcp-dataplex/internal/service"
	mcpserver "github.com/mark3labs/mcp-go/server"
)

type emptyCatalog struct{}

func (emptyCatalog) ListDatasets(context.Context) ([]string, error) { return []string{"sales"}, nil }
func (emptyCatalog) ListTables(context.Context, string) ([]string, error) {
	return []string{}, nil
}
func (emptyCatalog) TableMetadata(context.Context, string, string) (*catalog.TableMetadata, error) {
	return &catalog.TableMetadata{}, nil
}
func (emptyCatalog) QualityResults(context.Context, string, string) (*catalog.QualityResult, error) {
	return nil, nil
}

type noLinks struct{}

func (noLinks) SearchLinks(context.Context, string, lineage.Direction) iter.Seq2[lineage.RawLink, error] {
	return func(func(lineage.RawLink, error) bool) {}
}

func (noLinks) ResolveProcess(context.Context, string) (*lineage.ProcessDetails, error) {
	return nil, nil
}

func newTestServer(t *testing.T, jr *journal.Journal) *mcpserver.MCPServer {
	t.Helper()
	asm := lineage.NewAssembler(noLinks{}, noLinks{}, "proj", "us-central1", nil)
	svc := service.New(service.Deps{Catalog: emptyCatalog{}, Quality: emptyCatalog{}, Lineage: asm},
		"proj", cache.New[any](true), logging.Discard())
	return newMCPServer(svc, jr, "us-central1", logging.Discard())
}

// call sends one JSON-RPC request and returns the marshaled response.
func call(t *testing.T, s *mcpserver.MCPServer, id int, method string, params any) string {
	t.Helper()
	msg, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
		"params":  params,
	})
	require.NoError(t, err)

	resp := s.HandleMessage(context.Background(), msg)
	out, err := json.Marshal(resp)
	require.NoError(t, err)
	return string(out)
}

func initialize(t *testing.T, s *mcpserver.MCPServer) string {
	t.Helper()
	return call(t, s, 1, "initialize", map[string]any{
		"protocolVersion": "2025-03-26",
		"capabilities":    map[string]any{},
		"clientInfo":      map[string]any{"name": "test", "version": "0"},
	})
}

func TestServer_Initialize(t *testing.T) {
	s := newTestServer(t, nil)
	out := initialize(t, s)

	assert.Contains(t, out, `"name":"mcp-dataplex"`)
	assert.Contains(t, out, "get_data_lineage")
}

func TestServer_ListsEveryTool(t *testing.T) {
	s := newTestServer(t, nil)
	initialize(t, s)

	out := call(t, s, 2, "tools/list", map[string]any{})
	for _, name := range append(service.ToolNames(), "get_server_stats") {
		assert.Contains(t, out, `"name":"`+name+`"`)
	}
}

func TestServer_PromptsAndResources(t *testing.T) {
	s := newTestServer(t, nil)
	initialize(t, s)

	prompts := call(t, s, 2, "prompts/list", map[string]any{})
	assert.Contains(t, prompts, "table-overview")
	assert.Contains(t, prompts, "explore-datasets")

	res := call(t, s, 3, "resources/read", map[string]any{"uri": "dataplex://server/status"})
	assert.Contains(t, res, `\"project\": \"proj\"`)
}

func TestServer_ToolCallIsJournaled(t *testing.T) {
	jr, err := journal.New(journal.Config{DataDir: t.TempDir()})
	require.NoError(t, err)
	defer jr.Close()

	s := newTestServer(t, jr)
	initialize(t, s)

	out := call(t, s, 2, "tools/call", map[string]any{"name": "list_datasets", "arguments": map[string]any{}})
	assert.Contains(t, out, "sales")

	out = call(t, s, 3, "tools/call", map[string]any{
		"name":      "get_table_metadata",
		"arguments": map[string]any{"datasetId": "bad-id", "tableId": "t"},
	})
	assert.Contains(t, out, `"isError":true`)

	entries, err := jr.Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "get_table_metadata", entries[0].Tool)
	assert.False(t, entries[0].Success)

	status := call(t, s, 4, "resources/read", map[string]any{"uri": "dataplex://server/status"})
	assert.Contains(t, status, `\"recentCalls\"`)
	assert.Contains(t, status, `\"tool\": \"get_table_metadata\"`)
}

func TestServerInstructions_MentionsEveryTool(t *testing.T) {
	text := serverInstructions()
	for _, name := range service.ToolNames() {
		assert.True(t, strings.Contains(text, name), name)
	}
}

func TestOpenJournal(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		assert.Nil(t, openJournal(config.JournalConfig{Enabled: false, Dir: t.TempDir()}, logging.Discard()))
	})

	t.Run("empty dir warns and continues", func(t *testing.T) {
		var logs bytes.Buffer
		jr := openJournal(config.JournalConfig{Enabled: true}, logging.NewWithWriter(&logs, false))
		assert.Nil(t, jr)
		assert.Contains(t, logs.String(), "journal disabled")

		// The server still comes up and tools still answer.
		s := newTestServer(t, jr)
		initialize(t, s)
		out := call(t, s, 2, "tools/call", map[string]any{"name": "list_datasets", "arguments": map[string]any{}})
		assert.Contains(t, out, "sales")
	})

	t.Run("opens", func(t *testing.T) {
		jr := openJournal(config.JournalConfig{Enabled: true, Dir: t.TempDir()}, logging.Discard())
		require.NotNil(t, jr)
		require.NoError(t, jr.Close())
	})
}
