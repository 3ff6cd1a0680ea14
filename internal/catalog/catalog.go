// Package catalog defines the BigQuery and Dataplex records returned by the
// metadata tools and the collaborator interfaces that produce them.
package catalog

import (
	"context"
	"errors"
)

// ErrAPIUnavailable marks a remote API that is disabled or not visible to
// the caller's credentials.
var ErrAPIUnavailable = errors.New("API unavailable")

// SchemaField is one column in a table schema.
type SchemaField struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Mode        string  `json:"mode"`
	Description *string `json:"description"`
}

// Schema lists a table's top-level columns.
type Schema struct {
	Fields []SchemaField `json:"fields"`
}

// Clustering lists clustering columns; Fields is nil for unclustered tables.
type Clustering struct {
	Fields []string `json:"fields"`
}

// Partitioning describes how a table is partitioned.
// Type is "RANGE" for integer-range partitioning or the time unit
// (DAY, HOUR, ...) for time partitioning; nil when unpartitioned.
type Partitioning struct {
	Type                   *string `json:"type"`
	Field                  *string `json:"field"`
	RequirePartitionFilter bool    `json:"requirePartitionFilter"`
}

// TableMetadata is the get_table_metadata result.
type TableMetadata struct {
	TableID          string       `json:"tableId"`
	DatasetID        string       `json:"datasetId"`
	ProjectID        string       `json:"projectId"`
	Description      *string      `json:"description"`
	Schema           Schema       `json:"schema"`
	Clustering       Clustering   `json:"clustering"`
	Partitioning     Partitioning `json:"partitioning"`
	NumRows          string       `json:"numRows"`
	NumBytes         string       `json:"numBytes"`
	CreationTime     string       `json:"creationTime"`
	LastModifiedTime string       `json:"lastModifiedTime"`
}

// QualityDimension is the outcome of one data-quality dimension.
type QualityDimension struct {
	Dimension string  `json:"dimension"`
	Passed    bool    `json:"passed"`
	Score     float64 `json:"score"`
}

// QualityResult is the latest data-quality scan outcome for a table.
type QualityResult struct {
	ScanName      string             `json:"scanName"`
	TableID       string             `json:"tableId"`
	DatasetID     string             `json:"datasetId"`
	ExecutionTime string             `json:"executionTime"`
	Passed        bool               `json:"passed"`
	Dimensions    []QualityDimension `json:"dimensions"`
	RowCount      int64              `json:"rowCount"`
}

// Catalog lists and describes BigQuery resources.
type Catalog interface {
	ListDatasets(ctx context.Context) ([]string, error)
	ListTables(ctx context.Context, datasetID string) ([]string, error)
	TableMetadata(ctx context.Context, datasetID, tableID string) (*TableMetadata, error)
}

// QualityScanner fetches data-quality scan results. It returns (nil, nil)
// when no scan is configured for the table or the scan has no result yet.
type QualityScanner interface {
	QualityResults(ctx context.Context, datasetID, tableID string) (*QualityResult, error)
}

// StringPtr returns nil for empty strings.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
