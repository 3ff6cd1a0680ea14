package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HendryAvila/mcp-dataplex/internal/catalog"
	"github.com/HendryAvila/mcp-dataplex/internal/lineage"
	"github.com/HendryAvila/mcp-dataplex/internal/validation"
)

func TestExecute_Routes(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	table := map[string]any{"datasetId": "sales", "tableId": "orders"}

	tests := []struct {
		name  string
		args  map[string]any
		check func(t *testing.T, v any)
	}{
		{ToolListDatasets, nil, func(t *testing.T, v any) {
			assert.Equal(t, []string{"sales", "raw"}, v.(*DatasetsResult).Datasets)
		}},
		{ToolListTables, map[string]any{"datasetId": "sales"}, func(t *testing.T, v any) {
			assert.Equal(t, []string{"sales_orders"}, v.(*TablesResult).Tables)
		}},
		{ToolTableMetadata, table, func(t *testing.T, v any) {
			assert.Equal(t, "orders", v.(*catalog.TableMetadata).TableID)
		}},
		{ToolDataLineage, table, func(t *testing.T, v any) {
			assert.Len(t, v.(*lineage.Result).Links, 2)
		}},
		{ToolQualityResults, table, func(t *testing.T, v any) {
			assert.Equal(t, NoQualityMessage, v.(*QualityResponse).Message)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := f.svc.Execute(ctx, tt.name, tt.args)
			require.NoError(t, err)
			tt.check(t, v)
		})
	}
}

func TestExecute_UnknownTool(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.svc.Execute(context.Background(), "drop_table", nil)
	require.ErrorIs(t, err, ErrUnknownTool)
	assert.Contains(t, err.Error(), "drop_table")
}

func TestExecute_ArgumentTypes(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.svc.Execute(ctx, ToolListTables, map[string]any{"datasetId": 42})
	require.ErrorIs(t, err, validation.ErrInvalidArgument)
	assert.Contains(t, err.Error(), "Dataset ID must be a string")

	_, err = f.svc.Execute(ctx, ToolTableMetadata, map[string]any{"datasetId": "sales"})
	require.ErrorIs(t, err, validation.ErrInvalidArgument)

	assert.Zero(t, f.catalog.count("tables"))
	assert.Zero(t, f.catalog.count("metadata"))
}

func TestExecute_MaxDepth(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.svc.Execute(ctx, ToolDataLineage, map[string]any{"datasetId": "sales", "tableId": "orders", "maxDepth": float64(5)})
	require.NoError(t, err)
	assert.True(t, f.svc.Cache().Has("lineage:sales:orders:5"))

	for _, bad := range []any{0, 11, 2.5, "3"} {
		_, err := f.svc.Execute(ctx, ToolDataLineage, map[string]any{"datasetId": "sales", "tableId": "orders", "maxDepth": bad})
		assert.ErrorIs(t, err, validation.ErrInvalidArgument, "%v", bad)
	}
}
