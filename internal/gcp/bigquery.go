package gcp

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/option"

	"github.com/HendryAvila/mcp-dataplex/internal/catalog"
	"github.com/HendryAvila/mcp-dataplex/internal/logging"
)

// isoMillis matches JavaScript's Date.toISOString output.
const isoMillis = "2006-01-02T15:04:05.000Z"

// BigQuery implements catalog.Catalog.
type BigQuery struct {
	client  *bigquery.Client
	project string
	logger  *logging.Logger
}

var _ catalog.Catalog = (*BigQuery)(nil)

// NewBigQuery opens a BigQuery client for project.
func NewBigQuery(ctx context.Context, project string, logger *logging.Logger, opts ...option.ClientOption) (*BigQuery, error) {
	client, err := bigquery.NewClient(ctx, project, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating bigquery client: %w", err)
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &BigQuery{client: client, project: project, logger: logger}, nil
}

// Close releases the underlying client.
func (b *BigQuery) Close() error {
	return b.client.Close()
}

// ListDatasets returns every dataset ID in the project.
func (b *BigQuery) ListDatasets(ctx context.Context) ([]string, error) {
	b.logger.APICall("bigquery", "Datasets")
	it := b.client.Datasets(ctx)
	datasets, err := drain(pages(it.Next))
	if err != nil {
		return nil, fmt.Errorf("listing datasets: %w", err)
	}
	ids := make([]string, 0, len(datasets))
	for _, ds := range datasets {
		ids = append(ids, ds.DatasetID)
	}
	return ids, nil
}

// ListTables returns every table ID in datasetID.
func (b *BigQuery) ListTables(ctx context.Context, datasetID string) ([]string, error) {
	b.logger.APICall("bigquery", "Tables")
	it := b.client.Dataset(datasetID).Tables(ctx)
	tables, err := drain(pages(it.Next))
	if err != nil {
		return nil, fmt.Errorf("listing tables in %s: %w", datasetID, err)
	}
	ids := make([]string, 0, len(tables))
	for _, t := range tables {
		ids = append(ids, t.TableID)
	}
	return ids, nil
}

// TableMetadata fetches schema, clustering, partitioning and size details.
func (b *BigQuery) TableMetadata(ctx context.Context, datasetID, tableID string) (*catalog.TableMetadata, error) {
	b.logger.APICall("bigquery", "Metadata")
	md, err := b.client.Dataset(datasetID).Table(tableID).Metadata(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching metadata for %s.%s: %w", datasetID, tableID, err)
	}
	return convertTableMetadata(b.project, datasetID, tableID, md), nil
}

func convertTableMetadata(project, datasetID, tableID string, md *bigquery.TableMetadata) *catalog.TableMetadata {
	fields := make([]catalog.SchemaField, 0, len(md.Schema))
	for _, f := range md.Schema {
		fields = append(fields, catalog.SchemaField{
			Name:        f.Name,
			Type:        string(f.Type),
			Mode:        fieldMode(f),
			Description: catalog.StringPtr(f.Description),
		})
	}

	var clustering catalog.Clustering
	if md.Clustering != nil && len(md.Clustering.Fields) > 0 {
		clustering.Fields = md.Clustering.Fields
	}

	partitioning := catalog.Partitioning{RequirePartitionFilter: md.RequirePartitionFilter}
	switch {
	case md.TimePartitioning != nil:
		partitioning.Type = catalog.StringPtr(string(md.TimePartitioning.Type))
		partitioning.Field = catalog.StringPtr(md.TimePartitioning.Field)
	case md.RangePartitioning != nil:
		partitioning.Type = catalog.StringPtr("RANGE")
		partitioning.Field = catalog.StringPtr(md.RangePartitioning.Field)
	}

	return &catalog.TableMetadata{
		TableID:          tableID,
		DatasetID:        datasetID,
		ProjectID:        project,
		Description:      catalog.StringPtr(md.Description),
		Schema:           catalog.Schema{Fields: fields},
		Clustering:       clustering,
		Partitioning:     partitioning,
		NumRows:          strconv.FormatUint(md.NumRows, 10),
		NumBytes:         strconv.FormatInt(md.NumBytes, 10),
		CreationTime:     formatTime(md.CreationTime),
		LastModifiedTime: formatTime(md.LastModifiedTime),
	}
}

func fieldMode(f *bigquery.FieldSchema) string {
	switch {
	case f.Repeated:
		return "REPEATED"
	case f.Required:
		return "REQUIRED"
	default:
		return "NULLABLE"
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(isoMillis)
}
