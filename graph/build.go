package graph

import (
	"strings"

	"github.com/juju/errors"
)

// Step is one entry of a sequence build: a name, optionally tagged
// "name:kind", and an optional fan-out to named targets. A step with
// no fan-out links to the following step.
type Step struct {
	Name    string
	Targets []string
}

// Seq turns plain names into sequence steps.
func Seq(names ...string) []Step {
	steps := make([]Step, len(names))
	for i, name := range names {
		steps[i] = Step{Name: name}
	}
	return steps
}

/**
 * BuildSequence assembles the chart from an ordered list of steps.
 * Consecutive steps are linked, fan-out steps link to their named
 * targets instead. Start is linked to the first step and the last
 * step to End when not wired explicitly. Building may be called
 * multiple times, each call adds to the chart.
 */
func (c *Chart) BuildSequence(steps []Step, specs map[string]*NodeSpec) error {
	names := make([]string, len(steps))
	for i, step := range steps {
		name, err := c.registerStep(step.Name, specs)
		if err != nil {
			return errors.Trace(err)
		}
		names[i] = name
	}

	for i, step := range steps {
		if len(step.Targets) > 0 {
			for _, target := range step.Targets {
				if err := c.LinkNodes(names[i], target); err != nil {
					return errors.Trace(err)
				}
			}
			continue
		}
		if i+1 < len(steps) {
			if err := c.LinkNodes(names[i], names[i+1]); err != nil {
				return errors.Trace(err)
			}
		}
	}

	if len(names) > 0 {
		if len(c.nodes[StartName].forward) == 0 && names[0] != StartName {
			if err := c.LinkNodes(StartName, names[0]); err != nil {
				return errors.Trace(err)
			}
		}
		last := names[len(names)-1]
		if len(c.nodes[EndName].reverse) == 0 && last != EndName {
			if err := c.LinkNodes(last, EndName); err != nil {
				return errors.Trace(err)
			}
		}
	}
	return errors.Trace(c.checkStructure())
}

/**
 * BuildAdjacency assembles the chart from a mapping of step name to
 * one or more successor names. Both sides are registered from specs
 * when not already present.
 */
func (c *Chart) BuildAdjacency(structure map[string][]string, specs map[string]*NodeSpec) error {
	for from, targets := range structure {
		if _, err := c.registerStep(from, specs); err != nil {
			return errors.Trace(err)
		}
		for _, to := range targets {
			if _, err := c.registerStep(to, specs); err != nil {
				return errors.Trace(err)
			}
		}
	}
	for from, targets := range structure {
		fromName, _ := splitKindTag(from)
		for _, to := range targets {
			toName, _ := splitKindTag(to)
			if err := c.LinkNodes(fromName, toName); err != nil {
				return errors.Trace(err)
			}
		}
	}
	return errors.Trace(c.checkStructure())
}

// checkStructure rejects a built chart with no path out of Start.
func (c *Chart) checkStructure() error {
	if len(c.nodes[StartName].forward) == 0 {
		return errors.BadRequestf(
			"chart %s has no structure: %s must be linked to a node", c.name, StartName)
	}
	return nil
}

// registerStep resolves a step identifier to a node, creating it
// through the kind registry when it is not already in the chart.
func (c *Chart) registerStep(step string, specs map[string]*NodeSpec) (string, error) {
	name, tag := splitKindTag(step)
	if _, exists := c.nodes[name]; exists {
		return name, nil
	}

	spec, exists := specs[name]
	if !exists {
		spec = &NodeSpec{}
	}
	kind := spec.kindTag()
	if tag != "" {
		kind = tag
	}

	factory, exists := lookupKind(kind)
	if !exists {
		return "", errors.NotFoundf("node kind %q for step %s", kind, name)
	}
	n, err := factory(name, spec)
	if err != nil {
		return "", errors.Trace(err)
	}
	return name, errors.Trace(c.AddNode(n))
}

func splitKindTag(step string) (name, tag string) {
	if i := strings.IndexByte(step, ':'); i >= 0 {
		return step[:i], step[i+1:]
	}
	return step, ""
}
