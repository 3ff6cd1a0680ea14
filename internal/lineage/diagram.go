package lineage

import (
	"fmt"
	"strings"
)

const (
	currentClass = "  classDef current fill:#f9f,stroke:#333,stroke-width:4px"
	noteClass    = "  classDef note fill:#fff,stroke:#999,stroke-width:1px,stroke-dasharray: 5 5"
)

// Render draws the anchor with its upstream nodes pointing at it and its
// downstream nodes pointing away from it. Output order follows the input
// slices, so equal inputs always render identically.
func Render(anchor string, upstream, downstream []Node) string {
	lines := []string{
		"graph LR",
		fmt.Sprintf("  Current[\"%s\"]:::current", escapeLabel(anchor)),
	}

	for i, n := range upstream {
		id := fmt.Sprintf("U%d", i)
		lines = append(lines,
			fmt.Sprintf("  %s[\"%s\"]", id, escapeLabel(n.DisplayName)),
			fmt.Sprintf("  %s --> Current", id),
		)
	}

	for i, n := range downstream {
		id := fmt.Sprintf("D%d", i)
		lines = append(lines,
			fmt.Sprintf("  %s[\"%s\"]", id, escapeLabel(n.DisplayName)),
			fmt.Sprintf("  Current --> %s", id),
		)
	}

	lines = append(lines, currentClass)
	return strings.Join(lines, "\n")
}

// RenderEmpty draws the anchor next to a dashed note carrying message.
func RenderEmpty(anchor, message string) string {
	return strings.Join([]string{
		"graph LR",
		fmt.Sprintf("  Current[\"%s\"]:::current", escapeLabel(anchor)),
		fmt.Sprintf("  Note[\"%s\"]:::note", escapeLabel(message)),
		"  Note -.-> Current",
		currentClass,
		noteClass,
	}, "\n")
}

// escapeLabel keeps a label from terminating its quoted Mermaid string.
func escapeLabel(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}
