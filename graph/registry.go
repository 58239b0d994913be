package graph

import (
	"sync"

	"github.com/juju/errors"

	"github.com/ConnorStoneAstro/flow/types"
)

// NodeSpec supplies per-step configuration to the build operations:
// the node kind tag plus whatever the kind's factory needs.
type NodeSpec struct {
	Kind     string
	Action   types.Action
	Selector types.Selector
	Chart    *Chart
	Pipe     *Pipe
	Visual   *types.Visual
}

// Factory constructs a node for a registered kind tag.
type Factory func(name string, spec *NodeSpec) (*Node, error)

var kindRegistry = struct {
	mu sync.Mutex

	factories map[string]Factory
}{factories: map[string]Factory{}}

// RegisterKind adds a kind tag to the build registry. Registration is
// static: unknown tags encountered during a build are a reported
// error, never a dynamic lookup.
func RegisterKind(tag string, factory Factory) error {
	kindRegistry.mu.Lock()
	defer kindRegistry.mu.Unlock()

	if _, exists := kindRegistry.factories[tag]; exists {
		return errors.AlreadyExistsf("node kind %q", tag)
	}
	kindRegistry.factories[tag] = factory
	return nil
}

func lookupKind(tag string) (Factory, bool) {
	kindRegistry.mu.Lock()
	defer kindRegistry.mu.Unlock()

	factory, exists := kindRegistry.factories[tag]
	return factory, exists
}

func init() {
	register := func(tag string, factory Factory) {
		if err := RegisterKind(tag, factory); err != nil {
			panic(err)
		}
	}

	register("process", func(name string, spec *NodeSpec) (*Node, error) {
		n := NewProcess(name, spec.Action)
		applyVisual(n, spec)
		return n, nil
	})
	register("decision", func(name string, spec *NodeSpec) (*Node, error) {
		if spec.Selector == nil {
			return nil, errors.BadRequestf("decision %s needs a selector", name)
		}
		n := NewDecision(name, spec.Selector)
		applyVisual(n, spec)
		return n, nil
	})
	register("chart", func(name string, spec *NodeSpec) (*Node, error) {
		if spec.Chart == nil {
			return nil, errors.BadRequestf("chart step %s needs a chart", name)
		}
		return spec.Chart.AsNode(), nil
	})
	register("pipe", func(name string, spec *NodeSpec) (*Node, error) {
		if spec.Pipe == nil {
			return nil, errors.BadRequestf("pipe step %s needs a pipe", name)
		}
		return spec.Pipe.AsNode(), nil
	})
}

func applyVisual(n *Node, spec *NodeSpec) {
	if spec.Visual != nil {
		visual := *spec.Visual
		n.visual = &visual
	}
}

// kindTag infers the factory tag when a spec does not name one.
func (spec *NodeSpec) kindTag() string {
	if spec.Kind != "" {
		return spec.Kind
	}
	switch {
	case spec.Chart != nil:
		return "chart"
	case spec.Pipe != nil:
		return "pipe"
	case spec.Selector != nil:
		return "decision"
	}
	return "process"
}
