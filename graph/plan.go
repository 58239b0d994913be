package graph

import (
	"github.com/juju/errors"

	"github.com/ConnorStoneAstro/flow/types"
)

/**
 * A chart plan is the serializable shape of a chart's object graph:
 * names, kinds, links and per-node display configuration. Actions and
 * selectors are not representable as data, on restore they are rebound
 * from caller-supplied tables keyed by node name (identity when
 * absent).
 */

type ChartPlan struct {
	Name     string                 `json:",omitempty"`
	SafeMode bool                   `json:",omitempty"`
	Nodes    map[string]*NodePlan   `json:",omitempty"`
	Links    map[string][]string    `json:",omitempty"`
}

type NodePlan struct {
	Name   string        `json:",omitempty"`
	Kind   string        `json:",omitempty"`
	Visual *types.Visual `json:",omitempty"`

	Chart *ChartPlan `json:",omitempty"`
	Pipe  *PipePlan  `json:",omitempty"`
}

type PipePlan struct {
	Policy        string    `json:",omitempty"`
	Workers       int       `json:",omitempty"`
	SafeMode      bool      `json:",omitempty"`
	ReturnSuccess bool      `json:",omitempty"`
	BatchKey      string    `json:",omitempty"`
	Template      *NodePlan `json:",omitempty"`
}

// Rebind supplies the callables to reattach when restoring a plan.
type Rebind struct {
	Actions   map[string]types.Action
	Selectors map[string]types.Selector
}

// ExportPlan captures the chart's structure for persistence.
func (c *Chart) ExportPlan() *ChartPlan {
	plan := &ChartPlan{
		Name:     c.name,
		SafeMode: c.safeMode,
		Nodes:    make(map[string]*NodePlan, len(c.nodes)),
		Links:    c.Adjacency(),
	}
	for name, n := range c.nodes {
		plan.Nodes[name] = n.exportPlan()
	}
	return plan
}

func (n *Node) exportPlan() *NodePlan {
	plan := &NodePlan{Name: n.name, Kind: n.kind.String()}
	if n.visual != nil {
		visual := *n.visual
		plan.Visual = &visual
	}
	if n.chart != nil {
		plan.Chart = n.chart.ExportPlan()
	}
	if n.pipe != nil {
		plan.Pipe = n.pipe.exportPlan()
	}
	return plan
}

func (p *Pipe) exportPlan() *PipePlan {
	return &PipePlan{
		Policy:        string(p.policy),
		Workers:       p.workers,
		SafeMode:      p.safeMode,
		ReturnSuccess: p.returnSuccess,
		BatchKey:      p.batchKey,
		Template:      p.template.exportPlan(),
	}
}

// ChartFromPlan reconstructs a chart from its plan, rebinding actions
// and selectors by node name.
func ChartFromPlan(plan *ChartPlan, rebind *Rebind) (*Chart, error) {
	if rebind == nil {
		rebind = &Rebind{}
	}

	var opts []types.ChartOption
	if plan.SafeMode {
		opts = append(opts, types.ChartSafeMode())
	}
	c := NewChart(plan.Name, opts...)

	for name, nodePlan := range plan.Nodes {
		if name == StartName || name == EndName {
			continue
		}
		n, err := nodeFromPlan(name, nodePlan, rebind)
		if err != nil {
			return nil, errors.Trace(err)
		}
		if err := c.AddNode(n); err != nil {
			return nil, errors.Trace(err)
		}
	}
	for from, targets := range plan.Links {
		for _, to := range targets {
			if err := c.LinkNodes(from, to); err != nil {
				return nil, errors.Trace(err)
			}
		}
	}
	return c, nil
}

func nodeFromPlan(name string, plan *NodePlan, rebind *Rebind) (*Node, error) {
	switch plan.Kind {
	case "process", "start", "end":
		n := NewProcess(name, rebind.Actions[name])
		restoreVisual(n, plan)
		return n, nil

	case "decision":
		selector, exists := rebind.Selectors[name]
		if !exists {
			return nil, errors.NotFoundf("selector for decision %s", name)
		}
		n := NewDecision(name, selector)
		restoreVisual(n, plan)
		return n, nil

	case "chart":
		sub, err := ChartFromPlan(plan.Chart, rebind)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return sub.AsNode(), nil

	case "pipe":
		p, err := pipeFromPlan(name, plan.Pipe, rebind)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return p.AsNode(), nil
	}
	return nil, errors.NotSupportedf("node kind %q for %s", plan.Kind, name)
}

func pipeFromPlan(name string, plan *PipePlan, rebind *Rebind) (*Pipe, error) {
	if plan == nil || plan.Template == nil {
		return nil, errors.BadRequestf("pipe %s plan has no template", name)
	}

	var template any
	if plan.Template.Kind == "chart" {
		sub, err := ChartFromPlan(plan.Template.Chart, rebind)
		if err != nil {
			return nil, errors.Trace(err)
		}
		template = sub
	} else {
		n, err := nodeFromPlan(plan.Template.Name, plan.Template, rebind)
		if err != nil {
			return nil, errors.Trace(err)
		}
		template = n
	}

	opts := []types.PipeOption{
		types.WithPolicy(types.Policy(plan.Policy)),
		types.WithWorkers(plan.Workers),
		types.WithBatchKey(plan.BatchKey),
	}
	if !plan.SafeMode {
		opts = append(opts, types.DisablePipeSafeMode())
	}
	if plan.ReturnSuccess {
		opts = append(opts, types.ReturnSuccess())
	}
	return NewPipe(name, template, opts...)
}

func restoreVisual(n *Node, plan *NodePlan) {
	if plan.Visual != nil {
		visual := *plan.Visual
		n.visual = &visual
	}
}
