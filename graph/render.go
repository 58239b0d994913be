package graph

import (
	"fmt"
	"strings"
)

/**
 * The renderer produces a Graphviz DOT document for a chart: one
 * record per node with its display descriptor, nested charts as dotted
 * clusters, and the adjacency drawn between the real endpoints (an
 * edge into a nested chart lands on its Start, an edge out leaves from
 * its End).
 */

// RenderDOT renders the chart, including nested charts, as a DOT
// string.
func (c *Chart) RenderDOT() string {
	r := newChartRenderer()
	r.write("digraph D {")
	r.drawChart(c.name+".", c)
	r.write("}")
	return r.sb.String()
}

func (c *Chart) String() string {
	return c.RenderDOT()
}

func newChartRenderer() *chartRenderer {
	return &chartRenderer{&strings.Builder{}}
}

type chartRenderer struct {
	sb *strings.Builder
}

func (r *chartRenderer) drawChart(prefix string, c *Chart) {
	for name, n := range c.nodes {
		if n.kind == KindChart {
			r.write("subgraph cluster_%s{", idString(prefix+name))
			r.write("style=dotted")
			r.drawChart(prefix+name+".", n.chart)
			r.write("}")
			continue
		}
		r.drawNode(prefix, n)
	}
	r.drawLinks(prefix, c)
	r.write("label=%s", quoteString(c.name))
}

func (r *chartRenderer) drawNode(prefix string, n *Node) {
	label := n.visual.Label
	if label == "" {
		label = n.name
	}
	attrs := ""
	if n.visual.Shape != "" {
		attrs += fmt.Sprintf(" shape=%s", quoteString(n.visual.Shape))
	}
	if n.visual.Color != "" {
		attrs += fmt.Sprintf(" color=%s", quoteString(n.visual.Color))
	}
	if n.visual.Style != "" {
		attrs += fmt.Sprintf(" style=%s", quoteString(n.visual.Style))
	}
	r.write("%s [label=%s%s]", idString(prefix+n.name), quoteString(label), attrs)
}

func (r *chartRenderer) drawLinks(prefix string, c *Chart) {
	for from, targets := range c.links {
		fromID := r.realVertex(prefix, c, from, true)
		for _, to := range targets {
			r.write("%s -> %s", fromID, r.realVertex(prefix, c, to, false))
		}
	}
}

// realVertex resolves an edge endpoint: nested charts are entered at
// Start and left from End.
func (r *chartRenderer) realVertex(prefix string, c *Chart, name string, isFrom bool) string {
	n := c.nodes[name]
	if n != nil && n.kind == KindChart {
		if isFrom {
			return idString(prefix + name + "." + EndName)
		}
		return idString(prefix + name + "." + StartName)
	}
	return idString(prefix + name)
}

func (r *chartRenderer) write(format string, s ...any) {
	r.sb.WriteString(fmt.Sprintf(format+"\n", s...))
}

func quoteString(s string) string {
	return "\"" + strings.ReplaceAll(s, "\"", "\\\"") + "\""
}

var idleChars = []string{" ", "'", "\"", "(", ")", "*", "&", "^", "%", "$", "#", "@", "!", "?", "<", ">", "[", "]", "{", "}", "."}

func idString(s string) string {
	for _, ch := range idleChars {
		s = strings.ReplaceAll(s, ch, "_")
	}
	return s
}
