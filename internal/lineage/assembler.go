package lineage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// linksPerDepth scales maxDepth into a per-direction result cap.
const linksPerDepth = 10

var processPattern = regexp.MustCompile(`projects/[^/]+/locations/[^/]+/processes/([^/]+)`)

var tracer = otel.Tracer("github.com/HendryAvila/mcp-dataplex/internal/lineage")

// Assembler builds lineage results for BigQuery tables.
type Assembler struct {
	links     LinkSource
	processes ProcessResolver
	project   string
	location  string
	logger    *slog.Logger
}

// NewAssembler creates an Assembler. Process references found on links are
// rewritten into project/location before being resolved.
func NewAssembler(links LinkSource, processes ProcessResolver, project, location string, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Assembler{
		links:     links,
		processes: processes,
		project:   project,
		location:  location,
		logger:    logger,
	}
}

// Assemble returns the lineage around anchor.
//
// maxDepth does not walk multiple hops: the link index answers one hop per
// direction, and maxDepth only caps how many links each direction returns
// (maxDepth*10).
//
// If the index reports the resource as not found, Assemble returns an error
// wrapping ErrNoLineageData; any other search failure is returned as is.
func (a *Assembler) Assemble(ctx context.Context, anchor Anchor, maxDepth int) (*Result, error) {
	ctx, span := tracer.Start(ctx, "lineage.Assemble")
	defer span.End()

	fqn := anchor.FullyQualifiedName()
	limit := maxDepth * linksPerDepth
	span.SetAttributes(attribute.String("lineage.resource", fqn), attribute.Int("lineage.limit", limit))

	var upstreamLinks, downstreamLinks []RawLink
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		upstreamLinks, err = a.search(gctx, fqn, Upstream, limit)
		return err
	})
	g.Go(func() error {
		var err error
		downstreamLinks, err = a.search(gctx, fqn, Downstream, limit)
		return err
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %v", ErrNoLineageData, err)
		}
		return nil, err
	}

	seen := make(map[string]bool)
	upstream := collectNodes(upstreamLinks, seen)
	downstream := collectNodes(downstreamLinks, seen)

	merged := make([]RawLink, 0, len(upstreamLinks)+len(downstreamLinks))
	merged = append(merged, upstreamLinks...)
	merged = append(merged, downstreamLinks...)
	links := a.enrich(ctx, merged)

	return &Result{
		Upstream:       upstream,
		Downstream:     downstream,
		Links:          links,
		MermaidDiagram: Render(anchor.Label(), upstream, downstream),
	}, nil
}

// search drains at most limit links from one directional search.
func (a *Assembler) search(ctx context.Context, fqn string, dir Direction, limit int) ([]RawLink, error) {
	ctx, span := tracer.Start(ctx, "lineage.search")
	defer span.End()
	span.SetAttributes(attribute.String("lineage.direction", dir.String()))

	out := []RawLink{}
	if limit <= 0 {
		return out, nil
	}
	for link, err := range a.links.SearchLinks(ctx, fqn, dir) {
		if err != nil {
			return nil, fmt.Errorf("searching %s links: %w", dir, err)
		}
		out = append(out, link)
		if len(out) >= limit {
			break
		}
	}
	span.SetAttributes(attribute.Int("lineage.links", len(out)))
	return out, nil
}

// enrich attaches process details to each link. Each distinct process is
// resolved at most once; a failed lookup leaves Process nil on every link
// that references it.
func (a *Assembler) enrich(ctx context.Context, raw []RawLink) []Link {
	links := make([]Link, 0, len(raw))
	memo := make(map[string]*ProcessDetails)

	for _, r := range raw {
		if r.Source == "" || r.Target == "" {
			continue
		}
		link := Link{Source: r.Source, Target: r.Target}

		if name, ok := a.ProcessReference(r.Name); ok {
			details, done := memo[name]
			if !done {
				var err error
				details, err = a.processes.ResolveProcess(ctx, name)
				if err != nil {
					a.logger.Warn("failed to fetch process details",
						slog.String("process", name),
						slog.String("error", err.Error()),
					)
					details = nil
				}
				memo[name] = details
			}
			link.Process = details
		}

		links = append(links, link)
	}
	return links
}

// ProcessReference extracts the process from a link name of the form
// projects/{p}/locations/{l}/processes/{id}/runs/{run}/lineageEvents/{ev}
// and returns it as projects/{project}/locations/{location}/processes/{id}.
func (a *Assembler) ProcessReference(linkName string) (string, bool) {
	if linkName == "" {
		return "", false
	}
	m := processPattern.FindStringSubmatch(linkName)
	if m == nil {
		return "", false
	}
	return fmt.Sprintf("projects/%s/locations/%s/processes/%s", a.project, a.location, m[1]), true
}

// collectNodes appends every endpoint not yet in seen, in link order.
func collectNodes(links []RawLink, seen map[string]bool) []Node {
	nodes := []Node{}
	for _, l := range links {
		for _, resource := range [2]string{l.Source, l.Target} {
			if resource == "" || seen[resource] {
				continue
			}
			seen[resource] = true
			nodes = append(nodes, ParseNode(resource))
		}
	}
	return nodes
}

// ParseNode classifies a fully-qualified name such as
// "bigquery:proj.dataset.table". The display name is the last two
// dot-separated segments; the "bigquery" prefix marks a table, anything
// else a job.
func ParseNode(resource string) Node {
	system, name, found := strings.Cut(resource, ":")
	if !found || name == "" {
		name = resource
	} else if i := strings.IndexByte(name, ':'); i >= 0 {
		name = name[:i]
	}

	parts := strings.Split(name, ".")
	if len(parts) > 2 {
		parts = parts[len(parts)-2:]
	}

	typ := NodeJob
	if found && system == "bigquery" {
		typ = NodeTable
	}
	return Node{
		Resource:    resource,
		DisplayName: strings.Join(parts, "."),
		Type:        typ,
	}
}

func isNotFound(err error) bool {
	if errors.Is(err, ErrNoLineageData) {
		return true
	}
	if status.Code(err) == codes.NotFound {
		return true
	}
	return strings.Contains(err.Error(), "NOT_FOUND")
}
