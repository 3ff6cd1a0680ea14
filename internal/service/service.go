// Package service is the cached tool layer: the five metadata operations,
// each validating its arguments, consulting the shared result cache, and
// calling the live collaborator only on a miss.
package service

import (
	"context"
	"errors"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/HendryAvila/mcp-dataplex/internal/cache"
	"github.com/HendryAvila/mcp-dataplex/internal/catalog"
	"github.com/HendryAvila/mcp-dataplex/internal/lineage"
	"github.com/HendryAvila/mcp-dataplex/internal/logging"
	"github.com/HendryAvila/mcp-dataplex/internal/validation"
)

// Tool names exposed over MCP.
const (
	ToolListDatasets   = "list_datasets"
	ToolListTables     = "list_tables"
	ToolTableMetadata  = "get_table_metadata"
	ToolDataLineage    = "get_data_lineage"
	ToolQualityResults = "get_data_quality_results"
)

// Cache key tags, one per tool.
const (
	tagDatasets = "datasets"
	tagTables   = "tables"
	tagMetadata = "metadata"
	tagLineage  = "lineage"
	tagQuality  = "quality"
)

// DefaultLineageDepth is the depth used by the get_data_lineage tool.
const DefaultLineageDepth = 3

// Messages returned in place of data when a table has none.
const (
	NoLineageMessage = "No lineage data available for this table"
	NoQualityMessage = "No data quality scans configured for this table"
)

var tracer = otel.Tracer("github.com/HendryAvila/mcp-dataplex/internal/service")

// LineageAssembler builds lineage for one table.
type LineageAssembler interface {
	Assemble(ctx context.Context, anchor lineage.Anchor, maxDepth int) (*lineage.Result, error)
}

// DatasetsResult is the list_datasets payload.
type DatasetsResult struct {
	Datasets []string `json:"datasets"`
}

// TablesResult is the list_tables payload.
type TablesResult struct {
	Tables []string `json:"tables"`
}

// QualityResponse is either a scan result or, when the table has no scan,
// only Message.
type QualityResponse struct {
	*catalog.QualityResult
	Message string `json:"message,omitempty"`
}

// Deps are the collaborators a Service calls on cache misses.
type Deps struct {
	Catalog catalog.Catalog
	Quality catalog.QualityScanner
	Lineage LineageAssembler
}

// Service runs the cached tool operations.
type Service struct {
	deps    Deps
	project string
	cache   *cache.ResultCache[any]
	logger  *logging.Logger
}

// New creates a Service. project names the GCP project lineage anchors live in.
func New(deps Deps, project string, c *cache.ResultCache[any], logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{deps: deps, project: project, cache: c, logger: logger}
}

// Cache exposes the result cache, for status reporting.
func (s *Service) Cache() *cache.ResultCache[any] {
	return s.cache
}

// ListDatasets lists datasets in the project.
func (s *Service) ListDatasets(ctx context.Context) (*DatasetsResult, error) {
	return cached(ctx, s, cache.Key(tagDatasets), func(ctx context.Context) (*DatasetsResult, error) {
		ids, err := s.deps.Catalog.ListDatasets(ctx)
		if err != nil {
			return nil, err
		}
		return &DatasetsResult{Datasets: ids}, nil
	})
}

// ListTables lists tables in a dataset.
func (s *Service) ListTables(ctx context.Context, datasetID string) (*TablesResult, error) {
	datasetID, err := validation.ValidateDatasetID(datasetID)
	if err != nil {
		return nil, err
	}
	return cached(ctx, s, cache.Key(tagTables, datasetID), func(ctx context.Context) (*TablesResult, error) {
		ids, err := s.deps.Catalog.ListTables(ctx, datasetID)
		if err != nil {
			return nil, err
		}
		return &TablesResult{Tables: ids}, nil
	})
}

// TableMetadata returns schema and storage details for a table.
func (s *Service) TableMetadata(ctx context.Context, datasetID, tableID string) (*catalog.TableMetadata, error) {
	datasetID, tableID, err := validateTable(datasetID, tableID)
	if err != nil {
		return nil, err
	}
	return cached(ctx, s, cache.Key(tagMetadata, datasetID, tableID), func(ctx context.Context) (*catalog.TableMetadata, error) {
		return s.deps.Catalog.TableMetadata(ctx, datasetID, tableID)
	})
}

// DataLineage returns upstream/downstream lineage for a table. When the
// lineage index has nothing for the table, the result is empty with a
// diagram explaining so; that answer is cached like any other.
func (s *Service) DataLineage(ctx context.Context, datasetID, tableID string, maxDepth int) (*lineage.Result, error) {
	datasetID, tableID, err := validateTable(datasetID, tableID)
	if err != nil {
		return nil, err
	}

	key := cache.Key(tagLineage, datasetID, tableID)
	if maxDepth != DefaultLineageDepth {
		key = cache.Key(tagLineage, datasetID, tableID, strconv.Itoa(maxDepth))
	}

	anchor := lineage.Anchor{Project: s.project, Dataset: datasetID, Table: tableID}
	return cached(ctx, s, key, func(ctx context.Context) (*lineage.Result, error) {
		res, err := s.deps.Lineage.Assemble(ctx, anchor, maxDepth)
		if errors.Is(err, lineage.ErrNoLineageData) {
			s.logger.Info("no lineage data", "dataset", datasetID, "table", tableID)
			return &lineage.Result{
				Upstream:       []lineage.Node{},
				Downstream:     []lineage.Node{},
				Links:          []lineage.Link{},
				MermaidDiagram: lineage.RenderEmpty(anchor.Label(), NoLineageMessage),
			}, nil
		}
		return res, err
	})
}

// QualityResults returns the latest data-quality scan for a table, or a
// message-only response when no scan is configured.
func (s *Service) QualityResults(ctx context.Context, datasetID, tableID string) (*QualityResponse, error) {
	datasetID, tableID, err := validateTable(datasetID, tableID)
	if err != nil {
		return nil, err
	}
	return cached(ctx, s, cache.Key(tagQuality, datasetID, tableID), func(ctx context.Context) (*QualityResponse, error) {
		res, err := s.deps.Quality.QualityResults(ctx, datasetID, tableID)
		if err != nil {
			return nil, err
		}
		if res == nil {
			return &QualityResponse{Message: NoQualityMessage}, nil
		}
		return &QualityResponse{QualityResult: res}, nil
	})
}

// cached serves key from the cache or runs load and stores its result.
// Failed loads are never cached.
func cached[T any](ctx context.Context, s *Service, key string, load func(context.Context) (T, error)) (T, error) {
	ctx, span := tracer.Start(ctx, "service.cached")
	defer span.End()
	span.SetAttributes(attribute.String("cache.key", key))

	if v, ok := s.cache.Get(key); ok {
		if typed, ok := v.(T); ok {
			s.logger.Cache(true, key)
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return typed, nil
		}
	}
	s.logger.Cache(false, key)
	span.SetAttributes(attribute.Bool("cache.hit", false))

	v, err := load(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load failed")
		var zero T
		return zero, err
	}
	s.cache.Set(key, v)
	return v, nil
}

func validateTable(datasetID, tableID string) (string, string, error) {
	datasetID, err := validation.ValidateDatasetID(datasetID)
	if err != nil {
		return "", "", err
	}
	tableID, err = validation.ValidateTableID(tableID)
	if err != nil {
		return "", "", err
	}
	return datasetID, tableID, nil
}
