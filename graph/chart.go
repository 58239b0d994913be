package graph

import (
	"context"
	"time"

	"github.com/juju/errors"
	log "github.com/sirupsen/logrus"

	"github.com/ConnorStoneAstro/flow/types"
	"github.com/ConnorStoneAstro/flow/utils"
)

/**
 * Chart owns a named collection of nodes plus their adjacency and
 * executes them in sequence from Start to End, threading the state
 * through each node. A chart is itself usable as a node in a larger
 * chart, its per-run fields (current node, path, benchmarks, state)
 * are reset at the start of every run and must not be shared between
 * concurrent runs: Pipe clones the whole chart per unit of work.
 */
type Chart struct {
	name     string
	owner    *Chart
	safeMode bool

	nodes map[string]*Node
	// links mirrors the forward structure for inspection and
	// rendering, in link order.
	links map[string][]string

	current    string
	path       utils.Path
	benchmarks []time.Duration
	state      types.State
	tidy       bool

	visual *types.Visual
	asNode *Node
}

func NewChart(name string, opts ...types.ChartOption) *Chart {
	options := types.NewChartOptions()
	for _, opt := range opts {
		opt(options)
	}

	c := &Chart{
		name:     name,
		safeMode: options.SafeMode,
		nodes:    make(map[string]*Node),
		links:    make(map[string][]string),
		current:  StartName,
		visual:   defaultVisual(KindChart),
	}
	// AddNode cannot fail on an empty chart
	_ = c.AddNode(newStart())
	_ = c.AddNode(newEnd())
	return c
}

func (c *Chart) Name() string { return c.name }

// Owner is the enclosing chart, nil at the top of the nesting
// hierarchy.
func (c *Chart) Owner() *Chart { return c.owner }

func (c *Chart) SafeMode() bool { return c.safeMode }

func (c *Chart) Visual() *types.Visual { return c.visual }

// Path is the ordered log of node names visited by the last run.
func (c *Chart) Path() []string { return c.path }

// Benchmarks is the per-node duration log parallel to Path.
func (c *Chart) Benchmarks() []time.Duration { return c.benchmarks }

// CurrentNode is the traversal cursor, useful to locate a failure.
func (c *Chart) CurrentNode() string { return c.current }

// State is the running state as accumulated by the last run.
func (c *Chart) State() types.State { return c.state }

func (c *Chart) Node(name string) (*Node, bool) {
	n, exists := c.nodes[name]
	return n, exists
}

func (c *Chart) NodeNames() []string {
	names := make([]string, 0, len(c.nodes))
	for name := range c.nodes {
		names = append(names, name)
	}
	return names
}

// Adjacency is a copy of the link structure, from name to target names
// in link order.
func (c *Chart) Adjacency() map[string][]string {
	adjacency := make(map[string][]string, len(c.links))
	for from, to := range c.links {
		adjacency[from] = append([]string(nil), to...)
	}
	return adjacency
}

// AsNode wraps the chart for use as a node in an enclosing chart.
func (c *Chart) AsNode() *Node {
	if c.asNode == nil {
		c.asNode = &Node{name: c.name, kind: KindChart, chart: c, visual: c.visual}
	}
	return c.asNode
}

// AddNode registers a node under its name. Duplicate names are a
// LinkError, or a no-op in safe mode.
func (c *Chart) AddNode(n *Node) error {
	if _, exists := c.nodes[n.name]; exists {
		if c.safeMode {
			return nil
		}
		return types.NewLinkErrorf("%s already in %s", n.name, c.name)
	}
	n.owner = c
	if n.kind == KindChart {
		n.chart.owner = c
	}
	c.nodes[n.name] = n
	c.links[n.name] = []string{}
	c.tidy = false
	return nil
}

func (c *Chart) AddProcess(name string, action types.Action) error {
	return c.AddNode(NewProcess(name, action))
}

func (c *Chart) AddDecision(name string, selector types.Selector) error {
	return c.AddNode(NewDecision(name, selector))
}

// AddChart registers sub as a nested node of this chart.
func (c *Chart) AddChart(sub *Chart) error {
	return c.AddNode(sub.AsNode())
}

func (c *Chart) AddPipe(p *Pipe) error {
	return c.AddNode(p.AsNode())
}

// LinkNodes links from forward to to. Duplicate edges are a LinkError,
// or a no-op in safe mode.
func (c *Chart) LinkNodes(from, to string) error {
	fromNode, exists := c.nodes[from]
	if !exists {
		return errors.NotFoundf("node %s in %s", from, c.name)
	}
	toNode, exists := c.nodes[to]
	if !exists {
		return errors.NotFoundf("node %s in %s", to, c.name)
	}
	if err := fromNode.LinkForward(toNode); err != nil {
		return errors.Trace(err)
	}
	if !containsString(c.links[from], to) {
		c.links[from] = append(c.links[from], to)
	}
	c.tidy = false
	return nil
}

// UnlinkNodes undoes LinkNodes.
func (c *Chart) UnlinkNodes(from, to string) error {
	fromNode, exists := c.nodes[from]
	if !exists {
		return errors.NotFoundf("node %s in %s", from, c.name)
	}
	toNode, exists := c.nodes[to]
	if !exists {
		return errors.NotFoundf("node %s in %s", to, c.name)
	}
	if err := fromNode.UnlinkForward(toNode); err != nil {
		return errors.Trace(err)
	}
	c.links[from] = removeString(c.links[from], to)
	c.tidy = false
	return nil
}

// InsertNode splices name into the graph in front of before: every
// predecessor of before is rewired to name, then name links to before.
func (c *Chart) InsertNode(name, before string) error {
	if _, exists := c.nodes[name]; !exists {
		return errors.NotFoundf("node %s in %s", name, c.name)
	}
	beforeNode, exists := c.nodes[before]
	if !exists {
		return errors.NotFoundf("node %s in %s", before, c.name)
	}

	for _, pred := range beforeNode.Reverse() {
		if err := c.UnlinkNodes(pred.name, before); err != nil {
			return errors.Trace(err)
		}
		if err := c.LinkNodes(pred.name, name); err != nil {
			return errors.Trace(err)
		}
	}
	return errors.Trace(c.LinkNodes(name, before))
}

/**
 * tidyEnds links every node left without a successor to End. It runs
 * lazily at the first execution after a topology change, so partially
 * built charts can still be inspected.
 */
func (c *Chart) tidyEnds() {
	for name, n := range c.nodes {
		if n.kind == KindEnd {
			continue
		}
		if len(n.forward) == 0 {
			log.WithFields(log.Fields{"chart": c.name, "node": name}).
				Debug("undirected node, linking to End")
			// linking a fresh edge to End cannot fail here
			_ = c.LinkNodes(name, EndName)
		}
	}
	c.tidy = true
}

// Run executes the chart on the state, from Start to End.
func (c *Chart) Run(ctx context.Context, state types.State) (types.State, error) {
	return c.run(ctx, state)
}

func (c *Chart) run(ctx context.Context, state types.State) (types.State, error) {
	start := c.nodes[StartName]
	if len(start.forward) == 0 {
		return state, errors.BadRequestf(
			"chart %s has no structure: %s must be linked to a node", c.name, StartName)
	}
	if !c.tidy {
		c.tidyEnds()
	}

	c.state = state
	c.path = utils.NewPath()
	c.benchmarks = make([]time.Duration, 0, len(c.nodes))

	cursor := start
	for {
		c.current = cursor.name
		c.path = c.path.AddString(cursor.name)
		log.WithFields(log.Fields{"chart": c.name, "node": cursor.name}).
			Debug("node entered")

		out, err := cursor.run(newNodeContext(ctx, c.name, cursor.name), c.state)
		c.benchmarks = append(c.benchmarks, cursor.elapsed)

		if err != nil {
			switch {
			case types.IsExitChart(err):
				c.repairEndLink(cursor)
				log.WithFields(log.Fields{"chart": c.name, "node": cursor.name}).
					Info("chart exit signal")
				return c.state, nil

			case types.IsExitFlow(err):
				c.repairEndLink(cursor)
				log.WithFields(log.Fields{"chart": c.name, "node": cursor.name}).
					Info("flow exit signal")
				if c.owner == nil {
					return c.state, nil
				}
				// propagate one nesting level at a time
				return c.state, err

			default:
				log.WithFields(log.Fields{"chart": c.name, "node": cursor.name}).
					Errorf("node failed: %v", errors.ErrorStack(err))
				if !c.safeMode {
					return c.state, errors.Trace(err)
				}
				// safe mode: the failing node becomes a no-op
			}
		} else {
			c.state = out
		}

		if cursor.kind == KindEnd {
			return c.state, nil
		}
		next, ok := cursor.Next()
		if !ok {
			return c.state, nil
		}
		cursor = next
	}
}

// repairEndLink records the early termination in the adjacency so a
// later rendering shows where the chart exited.
func (c *Chart) repairEndLink(n *Node) {
	if n.kind == KindEnd || containsString(c.links[n.name], EndName) {
		return
	}
	_ = c.LinkNodes(n.name, EndName)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func removeString(list []string, s string) []string {
	for i, v := range list {
		if v == s {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
