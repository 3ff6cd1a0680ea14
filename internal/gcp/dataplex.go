package gcp

import (
	"context"
	"fmt"
	"iter"
	"time"

	dataplex "cloud.google.com/go/dataplex/apiv1"
	"cloud.google.com/go/dataplex/apiv1/dataplexpb"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/HendryAvila/mcp-dataplex/internal/catalog"
	"github.com/HendryAvila/mcp-dataplex/internal/logging"
)

// dataScanAPI is the slice of the Dataplex DataScan service we call.
type dataScanAPI interface {
	ListScans(ctx context.Context, parent string) iter.Seq2[*dataplexpb.DataScan, error]
	GetScan(ctx context.Context, name string) (*dataplexpb.DataScan, error)
	Close() error
}

type sdkDataScans struct {
	client *dataplex.DataScanClient
}

func (s sdkDataScans) ListScans(ctx context.Context, parent string) iter.Seq2[*dataplexpb.DataScan, error] {
	it := s.client.ListDataScans(ctx, &dataplexpb.ListDataScansRequest{Parent: parent})
	return pages(it.Next)
}

func (s sdkDataScans) GetScan(ctx context.Context, name string) (*dataplexpb.DataScan, error) {
	return s.client.GetDataScan(ctx, &dataplexpb.GetDataScanRequest{
		Name: name,
		View: dataplexpb.GetDataScanRequest_FULL,
	})
}

func (s sdkDataScans) Close() error {
	return s.client.Close()
}

// Dataplex implements catalog.QualityScanner over Dataplex data scans.
type Dataplex struct {
	scans    dataScanAPI
	project  string
	location string
	logger   *logging.Logger
}

var _ catalog.QualityScanner = (*Dataplex)(nil)

// NewDataplex opens a Dataplex DataScan client.
func NewDataplex(ctx context.Context, project, location string, logger *logging.Logger, opts ...option.ClientOption) (*Dataplex, error) {
	client, err := dataplex.NewDataScanClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating dataplex client: %w", err)
	}
	return newDataplex(sdkDataScans{client: client}, project, location, logger), nil
}

func newDataplex(scans dataScanAPI, project, location string, logger *logging.Logger) *Dataplex {
	if location == "" {
		location = DefaultLocation
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Dataplex{scans: scans, project: project, location: location, logger: logger}
}

// Close releases the underlying client.
func (d *Dataplex) Close() error {
	return d.scans.Close()
}

// QualityResults finds the scan whose data source is the table and returns
// its latest data-quality result. (nil, nil) means no scan or no result yet.
func (d *Dataplex) QualityResults(ctx context.Context, datasetID, tableID string) (*catalog.QualityResult, error) {
	resource := d.tableResource(datasetID, tableID)

	d.logger.APICall("dataplex", "ListDataScans")
	var match *dataplexpb.DataScan
	for scan, err := range d.scans.ListScans(ctx, parent(d.project, d.location)) {
		if err != nil {
			return nil, translateScanError(err)
		}
		if scan.GetData().GetResource() == resource {
			match = scan
			break
		}
	}
	if match == nil {
		return nil, nil
	}

	d.logger.APICall("dataplex", "GetDataScan")
	full, err := d.scans.GetScan(ctx, match.GetName())
	if err != nil {
		return nil, translateScanError(err)
	}
	if full.GetDataQualityResult() == nil {
		return nil, nil
	}

	result := convertQualityResult(full, datasetID, tableID)
	if match.GetDisplayName() != "" {
		result.ScanName = match.GetDisplayName()
	}
	return result, nil
}

// tableResource is the Dataplex data-source name of a BigQuery table.
func (d *Dataplex) tableResource(datasetID, tableID string) string {
	return fmt.Sprintf("//bigquery.googleapis.com/projects/%s/datasets/%s/tables/%s", d.project, datasetID, tableID)
}

func convertQualityResult(scan *dataplexpb.DataScan, datasetID, tableID string) *catalog.QualityResult {
	res := scan.GetDataQualityResult()

	dims := make([]catalog.QualityDimension, 0, len(res.GetDimensions()))
	for _, dim := range res.GetDimensions() {
		name := dim.GetDimension().GetName()
		if name == "" {
			name = "Unknown"
		}
		dims = append(dims, catalog.QualityDimension{
			Dimension: name,
			Passed:    dim.GetPassed(),
			Score:     float64(dim.GetScore()),
		})
	}

	executionTime := "Unknown"
	if ts := scan.GetExecutionStatus().GetLatestJobEndTime(); ts != nil {
		executionTime = ts.AsTime().UTC().Format(time.RFC3339)
	}

	return &catalog.QualityResult{
		ScanName:      scan.GetName(),
		TableID:       tableID,
		DatasetID:     datasetID,
		ExecutionTime: executionTime,
		Passed:        res.GetPassed(),
		Dimensions:    dims,
		RowCount:      res.GetRowCount(),
	}
}

func translateScanError(err error) error {
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("%w: Data Scan API error. Please ensure Dataplex API is enabled and "+
			"the service account has appropriate permissions", catalog.ErrAPIUnavailable)
	}
	return fmt.Errorf("dataplex data scans: %w", err)
}
