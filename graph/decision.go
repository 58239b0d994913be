package graph

import (
	"github.com/juju/errors"
	"github.com/spf13/cast"

	"github.com/ConnorStoneAstro/flow/types"
)

/**
 * decide runs the selector and swaps the chosen successor into
 * forward[0], so "next" becomes the selected branch. The reorder is
 * permanent until the next invocation, selection itself is re-evaluated
 * on every call. The state passes through unchanged.
 */
func (n *Node) decide(ctx types.Context, state types.State) (types.State, error) {
	if n.selector == nil {
		return state, errors.BadRequestf("decision %s has no selector", n.name)
	}
	res, err := n.selector(ctx, state)
	if err != nil {
		return state, err
	}

	index, err := n.resolveBranch(res)
	if err != nil {
		return state, errors.Trace(err)
	}
	if index != 0 {
		n.forward[0], n.forward[index] = n.forward[index], n.forward[0]
	}
	return state, nil
}

func (n *Node) resolveBranch(selected any) (int, error) {
	switch v := selected.(type) {
	case *Node:
		for i, fw := range n.forward {
			if fw == v || fw.name == v.name {
				return i, nil
			}
		}
		return 0, errors.NotFoundf("decision %s: branch node %s, options: %v",
			n.name, v.name, n.branchNames())

	case string:
		for i, fw := range n.forward {
			if fw.name == v {
				return i, nil
			}
		}
		return 0, errors.NotFoundf("decision %s: branch %q, options: %v",
			n.name, v, n.branchNames())
	}

	index, err := cast.ToIntE(selected)
	if err != nil {
		return 0, errors.NotValidf("decision %s: selector result %v(%T)", n.name, selected, selected)
	}
	if index < 0 || index >= len(n.forward) {
		return 0, errors.NotFoundf("decision %s: branch index %d of %d",
			n.name, index, len(n.forward))
	}
	return index, nil
}

func (n *Node) branchNames() []string {
	names := make([]string, 0, len(n.forward))
	for _, fw := range n.forward {
		names = append(names, fw.name)
	}
	return names
}
