package graph

import (
	"github.com/ConnorStoneAstro/flow/utils"
)

/**
 * Cloning exists for clone-before-dispatch: a Pipe never runs its
 * template directly, every unit of work receives an owned copy so
 * concurrent runs cannot observe each other's per-run bookkeeping
 * (cursor, path, benchmarks, decision reordering, node durations).
 */

// Clone deep-copies the node. A standalone clone keeps no links, links
// are only reproduced when a whole chart is cloned.
func (n *Node) Clone() *Node {
	c := n.cloneDetached(nil)
	return c
}

func (n *Node) cloneDetached(owner *Chart) *Node {
	c := &Node{
		name:     n.name,
		kind:     n.kind,
		owner:    owner,
		action:   n.action,
		selector: n.selector,
	}
	if n.visual != nil {
		visual := *n.visual
		c.visual = &visual
	}
	if n.chart != nil {
		sub := n.chart.Clone()
		sub.owner = owner
		c.chart = sub
		sub.asNode = c
		c.visual = sub.visual
	}
	if n.pipe != nil {
		p := n.pipe.Clone()
		c.pipe = p
		p.asNode = c
		c.visual = p.visual
	}
	return c
}

// Clone deep-copies the chart: fresh nodes, links reproduced in their
// current order (including any decision reordering), empty per-run
// logs.
func (c *Chart) Clone() *Chart {
	clone := &Chart{
		name:     c.name,
		safeMode: c.safeMode,
		nodes:    make(map[string]*Node, len(c.nodes)),
		links:    make(map[string][]string, len(c.links)),
		current:  StartName,
		tidy:     c.tidy,
		path:     utils.NewPath(),
	}
	if c.visual != nil {
		visual := *c.visual
		clone.visual = &visual
	}

	for name, n := range c.nodes {
		clone.nodes[name] = n.cloneDetached(clone)
	}
	for name, n := range c.nodes {
		cn := clone.nodes[name]
		for _, fw := range n.forward {
			cn.forward = append(cn.forward, clone.nodes[fw.name])
		}
		for _, rv := range n.reverse {
			cn.reverse = append(cn.reverse, clone.nodes[rv.name])
		}
	}
	for from, to := range c.links {
		clone.links[from] = append([]string(nil), to...)
	}
	return clone
}
