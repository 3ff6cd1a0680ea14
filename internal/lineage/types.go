// Package lineage assembles table-level data lineage from a link index.
//
// An Assembler runs one search per direction against a LinkSource, folds
// the returned edges into deduplicated node lists, attaches provenance
// (the process that produced each edge) through a ProcessResolver, and
// renders the result as a Mermaid flowchart.
package lineage

import (
	"context"
	"errors"
	"fmt"
	"iter"
)

// ErrNoLineageData is returned when the lineage index reports the resource
// as unknown or the lineage API as disabled.
var ErrNoLineageData = errors.New(
	"Data Lineage API is not enabled or no lineage data available. " +
		"Please ensure the Data Lineage API is enabled in your GCP project",
)

// NodeType is the coarse classification of a lineage node.
type NodeType string

const (
	NodeTable NodeType = "table"
	NodeView  NodeType = "view"
	NodeJob   NodeType = "job"
)

// Node is one distinct resource seen while assembling a lineage result.
type Node struct {
	Resource    string   `json:"resource"`
	DisplayName string   `json:"displayName"`
	Type        NodeType `json:"type"`
}

// ProcessDetails describes the job that produced an edge.
type ProcessDetails struct {
	ProcessName string         `json:"processName"`
	DisplayName string         `json:"displayName"`
	SourceType  string         `json:"sourceType"`
	Attributes  map[string]any `json:"attributes"`
	Description string         `json:"description,omitempty"`
	CreatedBy   string         `json:"createdBy,omitempty"`
}

// Link is a directed edge between two resources.
// Process is nil when the edge has no process reference or the lookup failed.
type Link struct {
	Source  string          `json:"source"`
	Target  string          `json:"target"`
	Process *ProcessDetails `json:"process,omitempty"`
}

// Result is the full answer to one lineage request.
type Result struct {
	Upstream       []Node `json:"upstream"`
	Downstream     []Node `json:"downstream"`
	Links          []Link `json:"links"`
	MermaidDiagram string `json:"mermaidDiagram"`
}

// Direction selects which side of the anchor a search walks.
type Direction int

const (
	// Upstream finds links whose target is the anchor (its ancestors).
	Upstream Direction = iota
	// Downstream finds links whose source is the anchor (its descendants).
	Downstream
)

func (d Direction) String() string {
	switch d {
	case Upstream:
		return "upstream"
	case Downstream:
		return "downstream"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// RawLink is an edge as returned by the link index. Name is the link's
// resource name, from which the producing process can be derived.
type RawLink struct {
	Name   string
	Source string
	Target string
}

// LinkSource searches the lineage link index. The returned sequence is
// lazy; callers stop ranging once they have enough links.
type LinkSource interface {
	SearchLinks(ctx context.Context, fullyQualifiedName string, dir Direction) iter.Seq2[RawLink, error]
}

// ProcessResolver fetches details for a process resource name.
type ProcessResolver interface {
	ResolveProcess(ctx context.Context, processName string) (*ProcessDetails, error)
}

// Anchor identifies the BigQuery table a lineage request is about.
type Anchor struct {
	Project string
	Dataset string
	Table   string
}

// FullyQualifiedName returns the lineage index name, e.g. "bigquery:proj.ds.tbl".
func (a Anchor) FullyQualifiedName() string {
	return fmt.Sprintf("bigquery:%s.%s.%s", a.Project, a.Dataset, a.Table)
}

// Label is the diagram label for the anchor, "dataset.table".
func (a Anchor) Label() string {
	return a.Dataset + "." + a.Table
}
