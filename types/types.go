package types

import (
	"context"

	"github.com/juju/errors"
)

// Context is passed to every node action. It carries the caller's
// context.Context plus the position of the action inside the chart, so
// self-aware actions can tell where they are running.
type Context interface {
	context.Context

	ChartName() string
	NodeName() string
}

// Action is the behaviour of a process node: it receives the current
// state and returns the updated state. A nil Action is identity.
type Action func(ctx Context, state State) (State, error)

// Selector is the behaviour of a decision node. The returned value
// picks the successor to follow: an int index into the forward list, a
// successor's name, or the successor node itself.
type Selector func(ctx Context, state State) (any, error)

type Policy string

const (
	PolicyParallel Policy = "parallel"
	PolicyIterate  Policy = "iterate"
	PolicyPass     Policy = "pass"
)

// ParsePolicy validates a policy string. It accepts the historical
// spelling "parallelize" for the parallel policy.
func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyParallel, PolicyIterate, PolicyPass:
		return Policy(s), nil
	}
	if s == "parallelize" {
		return PolicyParallel, nil
	}
	return "", errors.NotValidf("policy %q, should be one of: parallel, iterate, pass", s)
}

// Visual holds the display descriptor consumed by the DOT renderer.
// Every node owns its own instance.
type Visual struct {
	Label string `json:",omitempty"`
	Shape string `json:",omitempty"`
	Color string `json:",omitempty"`
	Style string `json:",omitempty"`
}
