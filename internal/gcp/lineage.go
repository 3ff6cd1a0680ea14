package gcp

import (
	"context"
	"fmt"
	"iter"

	datalineage "cloud.google.com/go/datacatalog/lineage/apiv1"
	"cloud.google.com/go/datacatalog/lineage/apiv1/lineagepb"
	"google.golang.org/api/option"

	"github.com/HendryAvila/mcp-dataplex/internal/lineage"
	"github.com/HendryAvila/mcp-dataplex/internal/logging"
)

// lineageAPI is the slice of the Data Lineage service we call.
type lineageAPI interface {
	SearchLinks(ctx context.Context, req *lineagepb.SearchLinksRequest) iter.Seq2[*lineagepb.Link, error]
	GetProcess(ctx context.Context, name string) (*lineagepb.Process, error)
	Close() error
}

type sdkLineage struct {
	client *datalineage.Client
}

func (s sdkLineage) SearchLinks(ctx context.Context, req *lineagepb.SearchLinksRequest) iter.Seq2[*lineagepb.Link, error] {
	it := s.client.SearchLinks(ctx, req)
	return pages(it.Next)
}

func (s sdkLineage) GetProcess(ctx context.Context, name string) (*lineagepb.Process, error) {
	return s.client.GetProcess(ctx, &lineagepb.GetProcessRequest{Name: name})
}

func (s sdkLineage) Close() error {
	return s.client.Close()
}

// Lineage implements lineage.LinkSource and lineage.ProcessResolver over the
// Data Lineage API.
type Lineage struct {
	api      lineageAPI
	project  string
	location string
	logger   *logging.Logger
}

var (
	_ lineage.LinkSource      = (*Lineage)(nil)
	_ lineage.ProcessResolver = (*Lineage)(nil)
)

// NewLineage opens a Data Lineage client.
func NewLineage(ctx context.Context, project, location string, logger *logging.Logger, opts ...option.ClientOption) (*Lineage, error) {
	client, err := datalineage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating lineage client: %w", err)
	}
	return newLineage(sdkLineage{client: client}, project, location, logger), nil
}

func newLineage(api lineageAPI, project, location string, logger *logging.Logger) *Lineage {
	if location == "" {
		location = DefaultLocation
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Lineage{api: api, project: project, location: location, logger: logger}
}

// Close releases the underlying client.
func (l *Lineage) Close() error {
	return l.api.Close()
}

// SearchLinks searches links whose target (Upstream) or source (Downstream)
// is fullyQualifiedName. Pages are fetched as the caller ranges.
func (l *Lineage) SearchLinks(ctx context.Context, fullyQualifiedName string, dir lineage.Direction) iter.Seq2[lineage.RawLink, error] {
	ref := &lineagepb.EntityReference{FullyQualifiedName: fullyQualifiedName}
	req := &lineagepb.SearchLinksRequest{Parent: parent(l.project, l.location)}
	if dir == lineage.Downstream {
		req.Criteria = &lineagepb.SearchLinksRequest_Source{Source: ref}
	} else {
		req.Criteria = &lineagepb.SearchLinksRequest_Target{Target: ref}
	}

	l.logger.APICall("lineage", "SearchLinks")
	links := l.api.SearchLinks(ctx, req)
	return func(yield func(lineage.RawLink, error) bool) {
		for link, err := range links {
			if err != nil {
				yield(lineage.RawLink{}, err)
				return
			}
			raw := lineage.RawLink{
				Name:   link.GetName(),
				Source: link.GetSource().GetFullyQualifiedName(),
				Target: link.GetTarget().GetFullyQualifiedName(),
			}
			if !yield(raw, nil) {
				return
			}
		}
	}
}

// ResolveProcess fetches a process and unwraps its attributes.
func (l *Lineage) ResolveProcess(ctx context.Context, processName string) (*lineage.ProcessDetails, error) {
	l.logger.APICall("lineage", "GetProcess")
	p, err := l.api.GetProcess(ctx, processName)
	if err != nil {
		return nil, fmt.Errorf("getting process %s: %w", processName, err)
	}

	sourceType := ""
	if origin := p.GetOrigin(); origin != nil {
		sourceType = origin.GetSourceType().String()
	}
	return lineage.NewProcessDetails(p.GetName(), p.GetDisplayName(), sourceType, p.GetAttributes()), nil
}
