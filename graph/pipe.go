package graph

import (
	"context"
	"time"

	"github.com/gammazero/workerpool"
	"github.com/juju/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cast"

	"github.com/ConnorStoneAstro/flow/types"
	"github.com/ConnorStoneAstro/flow/utils"
)

/**
 * Pipe replays a template chart (or node) once per element of an input
 * collection. Each invocation runs on an independent clone of the
 * template, results and per-element path/benchmark logs are aggregated
 * strictly in input order whatever the completion order of the
 * parallel units.
 */
type Pipe struct {
	name     string
	template *Node

	policy        types.Policy
	workers       int
	safeMode      bool
	returnSuccess bool
	batchKey      string

	benchmarks [][]time.Duration
	paths      []utils.Path
	successes  []bool

	visual *types.Visual
	asNode *Node
}

// NewPipe wraps a template *Chart or *Node. The policy and worker
// bound come from the options, an unrecognized policy is a
// configuration error.
func NewPipe(name string, template any, opts ...types.PipeOption) (*Pipe, error) {
	options := types.NewPipeOptions()
	for _, opt := range opts {
		opt(options)
	}

	policy, err := types.ParsePolicy(options.Policy)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if options.Workers < 1 {
		return nil, errors.NotValidf("pipe %s: %d workers", name, options.Workers)
	}

	p := &Pipe{
		name:          name,
		policy:        policy,
		workers:       options.Workers,
		safeMode:      options.SafeMode,
		returnSuccess: options.ReturnSuccess,
		batchKey:      options.BatchKey,
		visual:        defaultVisual(KindPipe),
	}

	switch t := template.(type) {
	case *Chart:
		p.template = t.AsNode()
	case *Node:
		p.template = t
	default:
		return nil, errors.NotValidf("pipe %s: template %T", name, template)
	}
	return p, nil
}

func (p *Pipe) Name() string { return p.name }

func (p *Pipe) Policy() types.Policy { return p.policy }

func (p *Pipe) Visual() *types.Visual { return p.visual }

// UpdateTemplate swaps the template and drops the aggregated logs.
func (p *Pipe) UpdateTemplate(template *Node) {
	p.template = template
	p.benchmarks = nil
	p.paths = nil
	p.successes = nil
}

// Paths holds one visited-node log per input element, in input order,
// populated after Run.
func (p *Pipe) Paths() []utils.Path { return p.paths }

// Benchmarks holds one duration log per input element, in input order.
func (p *Pipe) Benchmarks() [][]time.Duration { return p.benchmarks }

// Successes is populated when the ReturnSuccess option is set.
func (p *Pipe) Successes() []bool { return p.successes }

// AsNode wraps the pipe for use as a node inside a chart.
func (p *Pipe) AsNode() *Node {
	if p.asNode == nil {
		p.asNode = &Node{name: p.name, kind: KindPipe, pipe: p, visual: p.visual}
	}
	return p.asNode
}

// Clone deep-copies the pipe with a cloned template and empty logs.
func (p *Pipe) Clone() *Pipe {
	clone := &Pipe{
		name:          p.name,
		template:      p.template.Clone(),
		policy:        p.policy,
		workers:       p.workers,
		safeMode:      p.safeMode,
		returnSuccess: p.returnSuccess,
		batchKey:      p.batchKey,
	}
	if p.visual != nil {
		visual := *p.visual
		clone.visual = &visual
	}
	return clone
}

type applyResult struct {
	state  types.State
	timing []time.Duration
	path   utils.Path
	err    error
}

// apply runs one unit of work on an owned clone of the template.
func (p *Pipe) apply(ctx context.Context, state types.State) applyResult {
	clone := p.template.Clone()
	log.WithFields(log.Fields{"pipe": p.name, "policy": p.policy, "template": clone.name}).
		Debug("dispatching template run")

	res, err := clone.Run(ctx, state)
	if err != nil {
		cursor := clone.name
		if clone.kind == KindChart {
			cursor = clone.chart.CurrentNode()
		}
		log.WithFields(log.Fields{"pipe": p.name, "node": cursor}).
			Errorf("template run failed: %v", errors.ErrorStack(err))
		if p.safeMode {
			// sentinel result, the logs below still record the
			// partial run for diagnosis
			res, err = nil, nil
		}
	}

	r := applyResult{state: res, err: err}
	if clone.kind == KindChart {
		r.timing = clone.chart.Benchmarks()
		r.path = clone.chart.Path()
	} else {
		r.timing = []time.Duration{clone.elapsed}
		r.path = utils.NewPath(clone.name)
	}
	return r
}

/**
 * Run applies the template per the configured policy. For parallel and
 * iterate the input must be a collection of states and the output is
 * []types.State in input order, with nil sentinel entries for elements
 * that failed in safe mode. For pass the input is a single state.
 */
func (p *Pipe) Run(ctx context.Context, input any) (any, error) {
	p.benchmarks = nil
	p.paths = nil
	p.successes = nil

	switch p.policy {
	case types.PolicyParallel:
		states, err := types.ToStates(input)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return p.runParallel(ctx, states)

	case types.PolicyIterate:
		states, err := types.ToStates(input)
		if err != nil {
			return nil, errors.Trace(err)
		}
		return p.runIterate(ctx, states)

	case types.PolicyPass:
		state, err := toState(input)
		if err != nil {
			return nil, errors.Trace(err)
		}
		r := p.apply(ctx, state)
		p.collect(r)
		return r.state, errors.Trace(r.err)
	}
	return nil, errors.NotValidf("policy %q, should be one of: parallel, iterate, pass", p.policy)
}

func (p *Pipe) runParallel(ctx context.Context, states []types.State) ([]types.State, error) {
	startTime := time.Now()
	wp := workerpool.New(p.workers)
	results := make([]applyResult, len(states))
	for i := range states {
		i, state := i, states[i]
		wp.Submit(func() {
			results[i] = p.apply(ctx, state)
		})
	}
	wp.StopWait()
	log.WithFields(log.Fields{"pipe": p.name, "elements": len(states)}).
		Debugf("finished parallel run in %v", time.Since(startTime))

	out := make([]types.State, len(states))
	var retErr error
	for i, r := range results {
		p.collect(r)
		out[i] = r.state
		if r.err != nil && retErr == nil {
			retErr = r.err
		}
	}
	if retErr != nil {
		return nil, errors.Trace(retErr)
	}
	return out, nil
}

func (p *Pipe) runIterate(ctx context.Context, states []types.State) ([]types.State, error) {
	out := make([]types.State, 0, len(states))
	for _, state := range states {
		r := p.apply(ctx, state)
		p.collect(r)
		if r.err != nil {
			return nil, errors.Trace(r.err)
		}
		out = append(out, r.state)
	}
	return out, nil
}

func (p *Pipe) collect(r applyResult) {
	p.benchmarks = append(p.benchmarks, r.timing)
	p.paths = append(p.paths, r.path)
	if p.returnSuccess {
		p.successes = append(p.successes, r.state != nil && r.err == nil)
	}
}

/**
 * runAsNode lets a pipe participate in a chart. With the pass policy
 * the flowing state is handed to the template directly. With a
 * collection policy the batch is read from, and the results written
 * back to, the configured batch key of the flowing state.
 */
func (p *Pipe) runAsNode(ctx types.Context, state types.State) (types.State, error) {
	if p.policy == types.PolicyPass {
		out, err := p.Run(ctx, state)
		if err != nil {
			return state, errors.Trace(err)
		}
		if out == nil {
			return nil, nil
		}
		return out.(types.State), nil
	}

	batch, exists := state.GetStates(p.batchKey)
	if !exists {
		return state, errors.NotFoundf("pipe %s: state collection under key %q", p.name, p.batchKey)
	}
	out, err := p.Run(ctx, batch)
	if err != nil {
		return state, errors.Trace(err)
	}
	state.Set(p.batchKey, out)
	return state, nil
}

func toState(input any) (types.State, error) {
	switch v := input.(type) {
	case types.State:
		return v, nil
	case map[string]any:
		return types.State(v), nil
	}
	m, err := cast.ToStringMapE(input)
	if err != nil {
		return nil, errors.NotValidf("state %T", input)
	}
	return types.State(m), nil
}
