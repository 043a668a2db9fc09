package render

import (
	"fmt"
	"strings"
)

// ExportDOT generates a Graphviz DOT rendering of the diagram description.
func ExportDOT(d *DiagramDescription) string {
	var b strings.Builder
	b.WriteString("digraph modules {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [fontname=\"Helvetica\" shape=box style=filled fillcolor=\"#1f6feb\"];\n")
	b.WriteString("  edge [fontname=\"Helvetica\" fontsize=10 color=\"#8b949e\"];\n\n")

	for _, c := range d.Clusters {
		b.WriteString(fmt.Sprintf("  subgraph cluster_%s {\n", sanitizeID(c.Key)))
		b.WriteString(fmt.Sprintf("    label=\"%s\";\n", c.Key))
		b.WriteString("    style=dashed;\n")
		b.WriteString("    color=\"#58a6ff\";\n")
		for _, n := range c.Nodes {
			b.WriteString(fmt.Sprintf("    \"%s\" [label=\"%s\"];\n", n.ID, n.Label))
		}
		b.WriteString("  }\n\n")
	}

	for _, e := range d.Edges {
		b.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\";\n", e.From, e.To))
	}

	b.WriteString("}\n")
	return b.String()
}

// ExportMermaid generates a Mermaid rendering of the diagram description.
func ExportMermaid(d *DiagramDescription) string {
	var b strings.Builder
	b.WriteString("graph LR\n")

	for _, c := range d.Clusters {
		b.WriteString(fmt.Sprintf("  subgraph %s\n", sanitizeID(c.Key)))
		for _, n := range c.Nodes {
			b.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", sanitizeID(n.ID), n.Label))
		}
		b.WriteString("  end\n")
	}

	for _, e := range d.Edges {
		b.WriteString(fmt.Sprintf("  %s --> %s\n", sanitizeID(e.From), sanitizeID(e.To)))
	}

	return b.String()
}

func sanitizeID(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			return r
		}
		return '_'
	}, s)
}
