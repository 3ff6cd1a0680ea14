package lineage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRender_Golden(t *testing.T) {
	upstream := []Node{{Resource: "bigquery:proj.raw.orders_raw", DisplayName: "raw.orders_raw", Type: NodeTable}}
	downstream := []Node{
		{Resource: "bigquery:proj.reporting.orders_summary", DisplayName: "reporting.orders_summary", Type: NodeTable},
		{Resource: "bigquery:proj.mart.revenue", DisplayName: "mart.revenue", Type: NodeTable},
	}

	got := Render("sales.orders", upstream, downstream)

	want := `graph LR
  Current["sales.orders"]:::current
  U0["raw.orders_raw"]
  U0 --> Current
  D0["reporting.orders_summary"]
  Current --> D0
  D1["mart.revenue"]
  Current --> D1
  classDef current fill:#f9f,stroke:#333,stroke-width:4px`
	assert.Equal(t, want, got)
}

func TestRender_NoNeighbours(t *testing.T) {
	got := Render("sales.orders", nil, nil)

	assert.Equal(t, "graph LR\n  Current[\"sales.orders\"]:::current\n  classDef current fill:#f9f,stroke:#333,stroke-width:4px", got)
}

func TestRender_Deterministic(t *testing.T) {
	up := []Node{{DisplayName: "a.b"}, {DisplayName: "c.d"}}
	down := []Node{{DisplayName: "e.f"}}

	assert.Equal(t, Render("x.y", up, down), Render("x.y", up, down))
}

func TestRender_EscapesQuotes(t *testing.T) {
	got := Render(`ds."weird"`, nil, nil)
	assert.Contains(t, got, `Current["ds.#quot;weird#quot;"]`)
}

func TestRenderEmpty_Golden(t *testing.T) {
	got := RenderEmpty("sales.orders", "No lineage data available for this table")

	want := `graph LR
  Current["sales.orders"]:::current
  Note["No lineage data available for this table"]:::note
  Note -.-> Current
  classDef current fill:#f9f,stroke:#333,stroke-width:4px
  classDef note fill:#fff,stroke:#999,stroke-width:1px,stroke-dasharray: 5 5`
	assert.Equal(t, want, got)
	assert.Equal(t, 1, strings.Count(got, ":::current"))
	assert.Equal(t, 1, strings.Count(got, ":::note"))
}
