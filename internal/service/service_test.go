package service

import (
	"context"
	"errors"
	"iter"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/HendryAvila/mcp-dataplex/internal/cache"
	"github.com/HendryAvila/mcp-dataplex/internal/catalog"
	"github.com/HendryAvila/mcp-dataplex/internal/lineage"
	"github.com/HendryAvila/mcp-dataplex/internal/validation"
)

// ─── Fakes ───────────────────────────────────────────────────────────────────

type fakeCatalog struct {
	mu    sync.Mutex
	calls map[string]int
	err   error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{calls: map[string]int{}}
}

func (f *fakeCatalog) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeCatalog) hit(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeCatalog) ListDatasets(context.Context) ([]string, error) {
	f.hit("datasets")
	if f.err != nil {
		return nil, f.err
	}
	return []string{"sales", "raw"}, nil
}

func (f *fakeCatalog) ListTables(_ context.Context, datasetID string) ([]string, error) {
	f.hit("tables")
	return []string{datasetID + "_orders"}, nil
}

func (f *fakeCatalog) TableMetadata(_ context.Context, datasetID, tableID string) (*catalog.TableMetadata, error) {
	f.hit("metadata")
	return &catalog.TableMetadata{DatasetID: datasetID, TableID: tableID, NumRows: "10"}, nil
}

type fakeQuality struct {
	calls  int
	result *catalog.QualityResult
	err    error
}

func (f *fakeQuality) QualityResults(context.Context, string, string) (*catalog.QualityResult, error) {
	f.calls++
	return f.result, f.err
}

// linkSource answers every search with the same links or error.
type linkSource struct {
	up, down []lineage.RawLink
	err      error
	mu       sync.Mutex
	searches int
}

func (l *linkSource) SearchLinks(_ context.Context, _ string, dir lineage.Direction) iter.Seq2[lineage.RawLink, error] {
	l.mu.Lock()
	l.searches++
	l.mu.Unlock()
	links := l.up
	if dir == lineage.Downstream {
		links = l.down
	}
	return func(yield func(lineage.RawLink, error) bool) {
		if l.err != nil {
			yield(lineage.RawLink{}, l.err)
			return
		}
		for _, r := range links {
			if !yield(r, nil) {
				return
			}
		}
	}
}

type noProcesses struct{}

func (noProcesses) ResolveProcess(context.Context, string) (*lineage.ProcessDetails, error) {
	return nil, errors.New("not used")
}

type fixture struct {
	svc     *Service
	catalog *fakeCatalog
	quality *fakeQuality
	links   *linkSource
}

func newFixture(t *testing.T, cacheEnabled bool) *fixture {
	t.Helper()
	f := &fixture{
		catalog: newFakeCatalog(),
		quality: &fakeQuality{},
		links: &linkSource{
			up:   []lineage.RawLink{{Source: "bigquery:proj.raw.orders_raw", Target: "bigquery:proj.sales.orders"}},
			down: []lineage.RawLink{{Source: "bigquery:proj.sales.orders", Target: "bigquery:proj.reporting.orders_summary"}},
		},
	}
	asm := lineage.NewAssembler(f.links, noProcesses{}, "proj", "us-central1", nil)
	f.svc = New(Deps{Catalog: f.catalog, Quality: f.quality, Lineage: asm}, "proj", cache.New[any](cacheEnabled), nil)
	return f
}

// ─── Idempotence ─────────────────────────────────────────────────────────────

func TestService_SecondCallServedFromCache(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	tests := []struct {
		name  string
		run   func() (any, error)
		calls func() int
	}{
		{"datasets", func() (any, error) { return f.svc.ListDatasets(ctx) }, func() int { return f.catalog.count("datasets") }},
		{"tables", func() (any, error) { return f.svc.ListTables(ctx, "sales") }, func() int { return f.catalog.count("tables") }},
		{"metadata", func() (any, error) { return f.svc.TableMetadata(ctx, "sales", "orders") }, func() int { return f.catalog.count("metadata") }},
		{"lineage", func() (any, error) { return f.svc.DataLineage(ctx, "sales", "orders", DefaultLineageDepth) }, func() int { return f.links.searches }},
		{"quality", func() (any, error) { return f.svc.QualityResults(ctx, "sales", "orders") }, func() int { return f.quality.calls }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, err := tt.run()
			require.NoError(t, err)
			before := tt.calls()

			second, err := tt.run()
			require.NoError(t, err)

			assert.Equal(t, before, tt.calls(), "collaborator must not be called again")
			assert.Same(t, first, second)
		})
	}
	assert.Equal(t, 1, f.catalog.count("datasets"))
	assert.Equal(t, 2, f.links.searches, "one search per direction")
}

func TestService_DisabledCacheAlwaysCallsThrough(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.svc.ListDatasets(ctx)
	require.NoError(t, err)
	_, err = f.svc.ListDatasets(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, f.catalog.count("datasets"))
}

func TestService_ErrorsAreNotCached(t *testing.T) {
	f := newFixture(t, true)
	f.catalog.err = status.Error(codes.PermissionDenied, "denied")
	ctx := context.Background()

	_, err := f.svc.ListDatasets(ctx)
	require.Error(t, err)

	f.catalog.err = nil
	res, err := f.svc.ListDatasets(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"sales", "raw"}, res.Datasets)
	assert.Equal(t, 2, f.catalog.count("datasets"))
}

func TestService_KeysSeparateArguments(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	a, err := f.svc.TableMetadata(ctx, "sales", "orders")
	require.NoError(t, err)
	b, err := f.svc.TableMetadata(ctx, "sales", "customers")
	require.NoError(t, err)

	assert.Equal(t, "orders", a.TableID)
	assert.Equal(t, "customers", b.TableID)
	assert.Equal(t, 2, f.catalog.count("metadata"))
}

// ─── Validation boundary ─────────────────────────────────────────────────────

func TestService_ValidationBeforeCollaborator(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	bad := []struct{ ds, tbl string }{
		{"my-dataset", "orders"},
		{"sales", "order items"},
		{"sales", strings.Repeat("t", 1025)},
		{"", "orders"},
	}
	for _, b := range bad {
		_, err := f.svc.TableMetadata(ctx, b.ds, b.tbl)
		assert.ErrorIs(t, err, validation.ErrInvalidArgument)
		_, err = f.svc.DataLineage(ctx, b.ds, b.tbl, DefaultLineageDepth)
		assert.ErrorIs(t, err, validation.ErrInvalidArgument)
		_, err = f.svc.QualityResults(ctx, b.ds, b.tbl)
		assert.ErrorIs(t, err, validation.ErrInvalidArgument)
	}
	_, err := f.svc.ListTables(ctx, "bad-name")
	assert.ErrorIs(t, err, validation.ErrInvalidArgument)

	assert.Equal(t, 0, f.catalog.count("metadata"))
	assert.Equal(t, 0, f.catalog.count("tables"))
	assert.Equal(t, 0, f.links.searches)
	assert.Equal(t, 0, f.quality.calls)
}

func TestService_MaxLengthIdentifierAccepted(t *testing.T) {
	f := newFixture(t, true)
	long := strings.Repeat("a", validation.MaxIdentifierLength)

	res, err := f.svc.TableMetadata(context.Background(), long, long)
	require.NoError(t, err)
	assert.Equal(t, long, res.TableID)
}

// ─── Lineage ─────────────────────────────────────────────────────────────────

func TestService_DataLineage(t *testing.T) {
	f := newFixture(t, true)

	res, err := f.svc.DataLineage(context.Background(), "sales", "orders", DefaultLineageDepth)
	require.NoError(t, err)

	assert.Len(t, res.Links, 2)
	assert.Equal(t, "raw.orders_raw", res.Upstream[0].DisplayName)
	assert.Equal(t, "reporting.orders_summary", res.Downstream[0].DisplayName)
	assert.Contains(t, res.MermaidDiagram, `Current["sales.orders"]:::current`)
}

func TestService_DataLineageNoDataFallback(t *testing.T) {
	f := newFixture(t, true)
	f.links.err = status.Error(codes.NotFound, "lineage api disabled")

	res, err := f.svc.DataLineage(context.Background(), "sales", "orders", DefaultLineageDepth)
	require.NoError(t, err)

	assert.Empty(t, res.Upstream)
	assert.Empty(t, res.Downstream)
	assert.Empty(t, res.Links)
	assert.NotNil(t, res.Links)
	assert.Contains(t, res.MermaidDiagram, `Current["sales.orders"]:::current`)
	assert.Contains(t, res.MermaidDiagram, `Note["`+NoLineageMessage+`"]:::note`)

	searches := f.links.searches
	again, err := f.svc.DataLineage(context.Background(), "sales", "orders", DefaultLineageDepth)
	require.NoError(t, err)
	assert.Same(t, res, again)
	assert.Equal(t, searches, f.links.searches)
}

func TestService_DataLineageOtherErrorsPropagate(t *testing.T) {
	f := newFixture(t, true)
	f.links.err = status.Error(codes.PermissionDenied, "denied")

	res, err := f.svc.DataLineage(context.Background(), "sales", "orders", DefaultLineageDepth)
	assert.Nil(t, res)
	require.Error(t, err)
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
}

func TestService_DataLineageDepthKey(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.svc.DataLineage(ctx, "sales", "orders", DefaultLineageDepth)
	require.NoError(t, err)
	_, err = f.svc.DataLineage(ctx, "sales", "orders", 5)
	require.NoError(t, err)

	assert.Equal(t, 4, f.links.searches, "a different depth is a different cache entry")
	assert.True(t, f.svc.Cache().Has(cache.Key("lineage", "sales", "orders")))
	assert.True(t, f.svc.Cache().Has(cache.Key("lineage", "sales", "orders", "5")))
}

// ─── Quality ─────────────────────────────────────────────────────────────────

func TestService_QualityNoScan(t *testing.T) {
	f := newFixture(t, true)

	res, err := f.svc.QualityResults(context.Background(), "sales", "orders")
	require.NoError(t, err)

	assert.Nil(t, res.QualityResult)
	assert.Equal(t, NoQualityMessage, res.Message)
}

func TestService_QualityResult(t *testing.T) {
	f := newFixture(t, true)
	f.quality.result = &catalog.QualityResult{ScanName: "orders dq", Passed: true}

	res, err := f.svc.QualityResults(context.Background(), "sales", "orders")
	require.NoError(t, err)

	require.NotNil(t, res.QualityResult)
	assert.Equal(t, "orders dq", res.ScanName)
	assert.Empty(t, res.Message)
}

func TestService_QualityTransportErrorDistinct(t *testing.T) {
	f := newFixture(t, true)
	f.quality.err = catalog.ErrAPIUnavailable

	res, err := f.svc.QualityResults(context.Background(), "sales", "orders")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, catalog.ErrAPIUnavailable)
}
