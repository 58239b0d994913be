package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/juju/errors"

	"github.com/ConnorStoneAstro/flow/types"
)

const (
	StartName = "Start"
	EndName   = "End"
)

type Kind int

const (
	KindStart    Kind = 1
	KindEnd      Kind = 2
	KindProcess  Kind = 3
	KindDecision Kind = 4
	KindChart    Kind = 5
	KindPipe     Kind = 6
)

func (k Kind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindEnd:
		return "end"
	case KindProcess:
		return "process"
	case KindDecision:
		return "decision"
	case KindChart:
		return "chart"
	case KindPipe:
		return "pipe"
	}
	return "unknown"
}

/**
 * Node is the atomic unit of work in a chart. The kind discriminator
 * selects the behaviour: process nodes apply their action, decision
 * nodes reorder their successors, chart and pipe nodes delegate to the
 * contained Chart/Pipe. Forward and reverse link lists are always kept
 * symmetric by the linking operations.
 */
type Node struct {
	name  string
	kind  Kind
	owner *Chart

	forward []*Node
	reverse []*Node

	action   types.Action
	selector types.Selector
	chart    *Chart
	pipe     *Pipe

	elapsed time.Duration
	visual  *types.Visual
}

// NewProcess builds a process node. A nil action is identity.
func NewProcess(name string, action types.Action) *Node {
	return &Node{
		name:   name,
		kind:   KindProcess,
		action: action,
		visual: defaultVisual(KindProcess),
	}
}

// NewDecision builds a decision node whose selector picks the successor
// to follow.
func NewDecision(name string, selector types.Selector) *Node {
	return &Node{
		name:     name,
		kind:     KindDecision,
		selector: selector,
		visual:   defaultVisual(KindDecision),
	}
}

func newStart() *Node {
	return &Node{name: StartName, kind: KindStart, visual: defaultVisual(KindStart)}
}

func newEnd() *Node {
	return &Node{name: EndName, kind: KindEnd, visual: defaultVisual(KindEnd)}
}

// defaultVisual returns a fresh descriptor per node, attributes are
// never shared between instances.
func defaultVisual(kind Kind) *types.Visual {
	switch kind {
	case KindStart:
		return &types.Visual{Shape: "box", Color: "blue", Style: "rounded"}
	case KindEnd:
		return &types.Visual{Shape: "box", Color: "red", Style: "rounded"}
	case KindDecision:
		return &types.Visual{Shape: "diamond"}
	case KindChart:
		return &types.Visual{Shape: "hexagon"}
	case KindPipe:
		return &types.Visual{Shape: "parallelogram"}
	}
	return &types.Visual{Shape: "box"}
}

func (n *Node) Name() string { return n.name }

func (n *Node) Kind() Kind { return n.kind }

// Owner is the containing chart, nil for a top-level node.
func (n *Node) Owner() *Chart { return n.owner }

func (n *Node) Forward() []*Node {
	return append([]*Node(nil), n.forward...)
}

func (n *Node) Reverse() []*Node {
	return append([]*Node(nil), n.reverse...)
}

// Next is the successor traversal advances to: forward[0].
func (n *Node) Next() (*Node, bool) {
	if len(n.forward) == 0 {
		return nil, false
	}
	return n.forward[0], true
}

// LastDuration is the wall time of the most recent Run.
func (n *Node) LastDuration() time.Duration { return n.elapsed }

func (n *Node) Visual() *types.Visual { return n.visual }

// UpdateAction replaces the node's action.
func (n *Node) UpdateAction(action types.Action) {
	n.action = action
}

func (n *Node) safeMode() bool {
	return n.owner != nil && n.owner.safeMode
}

// LinkForward appends target to the forward list and records n in the
// target's reverse set. A duplicate edge is a LinkError, or a no-op
// when the owning chart is in safe mode.
func (n *Node) LinkForward(target *Node) error {
	if n.kind == KindEnd {
		return types.NewLinkErrorf("%s cannot link forward", EndName)
	}
	if containsNode(n.forward, target) {
		if n.safeMode() {
			return nil
		}
		return types.NewLinkErrorf("%s already linked to %s", target.name, n.name)
	}
	if err := target.linkReverse(n); err != nil {
		return errors.Trace(err)
	}
	n.forward = append(n.forward, target)
	return nil
}

// UnlinkForward is the exact inverse of LinkForward.
func (n *Node) UnlinkForward(target *Node) error {
	if !containsNode(n.forward, target) {
		if n.safeMode() {
			return nil
		}
		return types.NewLinkErrorf("%s is not linked to %s", target.name, n.name)
	}
	target.unlinkReverse(n)
	n.forward = removeNode(n.forward, target)
	return nil
}

func (n *Node) linkReverse(source *Node) error {
	if n.kind == KindStart {
		return types.NewLinkErrorf("nothing may link to %s", StartName)
	}
	if !containsNode(n.reverse, source) {
		n.reverse = append(n.reverse, source)
	}
	return nil
}

func (n *Node) unlinkReverse(source *Node) {
	n.reverse = removeNode(n.reverse, source)
}

// Run applies the node to the state and records the elapsed wall time.
// This wrapper is universal to all node kinds.
func (n *Node) Run(ctx context.Context, state types.State) (types.State, error) {
	chartName := ""
	if n.owner != nil {
		chartName = n.owner.name
	}
	return n.run(newNodeContext(ctx, chartName, n.name), state)
}

func (n *Node) run(ctx types.Context, state types.State) (out types.State, retErr error) {
	start := time.Now()
	defer func() {
		n.elapsed = time.Since(start)
		if r := recover(); r != nil {
			retErr = errors.Errorf("panic on %s: %v", n.name, r)
		}
	}()

	switch n.kind {
	case KindStart, KindEnd:
		return state, nil

	case KindProcess:
		if n.action == nil {
			return state, nil
		}
		return n.action(ctx, state)

	case KindDecision:
		return n.decide(ctx, state)

	case KindChart:
		return n.chart.run(ctx, state)

	case KindPipe:
		return n.pipe.runAsNode(ctx, state)
	}
	return nil, errors.NotSupportedf("node kind %v", n.kind)
}

func (n *Node) String() string {
	return fmt.Sprintf("%s(%s)", n.name, n.kind)
}

func containsNode(list []*Node, target *Node) bool {
	for _, n := range list {
		if n == target {
			return true
		}
	}
	return false
}

func removeNode(list []*Node, target *Node) []*Node {
	for i, n := range list {
		if n == target {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}
