package graph

import (
	"context"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"

	"github.com/ConnorStoneAstro/flow/types"
)

func doublerChart(t *testing.T) *Chart {
	c := NewChart("doubler")
	assert.Nil(t, c.AddProcess("x2", doubleOf("v", "v")))
	assert.Nil(t, c.LinkNodes(StartName, "x2"))
	return c
}

func batchOf(values ...int) []types.State {
	batch := make([]types.State, len(values))
	for i, v := range values {
		batch[i] = types.State{"v": v}
	}
	return batch
}

func TestPipeParallel(t *testing.T) {
	p, err := NewPipe("fanout", doublerChart(t), types.WithWorkers(2))
	assert.Nil(t, err)

	out, err := p.Run(context.Background(), batchOf(1, 2, 3, 4, 5))
	assert.Nil(t, err)

	states, ok := out.([]types.State)
	assert.True(t, ok)
	assert.Equal(t, 5, len(states))
	for i, state := range states {
		v, _ := state.GetInt("v")
		assert.Equal(t, (i+1)*2, v)
	}
	assert.Equal(t, 5, len(p.Paths()))
	assert.Equal(t, 5, len(p.Benchmarks()))
	assert.Equal(t, 0, len(p.Successes()))
}

func TestPipeIterateMatchesParallel(t *testing.T) {
	parallel, err := NewPipe("par", doublerChart(t))
	assert.Nil(t, err)
	iterate, err := NewPipe("iter", doublerChart(t), types.WithPolicy("iterate"))
	assert.Nil(t, err)

	fromParallel, err := parallel.Run(context.Background(), batchOf(3, 1, 4))
	assert.Nil(t, err)
	fromIterate, err := iterate.Run(context.Background(), batchOf(3, 1, 4))
	assert.Nil(t, err)
	assert.Equal(t, fromParallel, fromIterate)
}

func TestPipePass(t *testing.T) {
	p, err := NewPipe("single", doublerChart(t), types.WithPolicy("pass"))
	assert.Nil(t, err)

	out, err := p.Run(context.Background(), types.State{"v": 21})
	assert.Nil(t, err)
	state, ok := out.(types.State)
	assert.True(t, ok)
	v, _ := state.GetInt("v")
	assert.Equal(t, 42, v)
	assert.Equal(t, 1, len(p.Paths()))
}

func TestPipeNodeTemplate(t *testing.T) {
	p, err := NewPipe("bare", NewProcess("inc", addOne("v", "v")))
	assert.Nil(t, err)

	out, err := p.Run(context.Background(), batchOf(0, 10))
	assert.Nil(t, err)
	states := out.([]types.State)
	v0, _ := states[0].GetInt("v")
	v1, _ := states[1].GetInt("v")
	assert.Equal(t, 1, v0)
	assert.Equal(t, 11, v1)
	assert.Equal(t, []string{"inc"}, []string(p.Paths()[0]))
}

func failOnNegative(ctx types.Context, state types.State) (types.State, error) {
	v, _ := state.GetInt("v")
	if v < 0 {
		return nil, errors.Errorf("negative element %d", v)
	}
	state.Set("v", v*2)
	return state, nil
}

func failingChart(t *testing.T) *Chart {
	c := NewChart("guarded")
	assert.Nil(t, c.AddProcess("check", failOnNegative))
	assert.Nil(t, c.LinkNodes(StartName, "check"))
	return c
}

func TestPipeSafeModeSentinels(t *testing.T) {
	p, err := NewPipe("tolerant", failingChart(t), types.ReturnSuccess())
	assert.Nil(t, err)

	out, err := p.Run(context.Background(), batchOf(1, -1, 3))
	assert.Nil(t, err)

	states := out.([]types.State)
	assert.Equal(t, 3, len(states))
	v, _ := states[0].GetInt("v")
	assert.Equal(t, 2, v)
	assert.Nil(t, states[1])
	v, _ = states[2].GetInt("v")
	assert.Equal(t, 6, v)

	assert.Equal(t, []bool{true, false, true}, p.Successes())
	// the failed element still has its partial logs
	assert.Equal(t, 3, len(p.Paths()))
	assert.Equal(t, []string{StartName, "check"}, []string(p.Paths()[1]))
}

func TestPipeUnsafeModeAborts(t *testing.T) {
	p, err := NewPipe("strict", failingChart(t),
		types.WithPolicy("iterate"), types.DisablePipeSafeMode())
	assert.Nil(t, err)

	out, err := p.Run(context.Background(), batchOf(1, -1, 3))
	assert.NotNil(t, err)
	assert.Nil(t, out)
}

func TestPipeExitChartPerElement(t *testing.T) {
	c := NewChart("optional")
	assert.Nil(t, c.AddProcess("gate", func(ctx types.Context, state types.State) (types.State, error) {
		if skip, _ := state.GetBool("skip"); skip {
			return state, types.NewExitChart()
		}
		return state, nil
	}))
	assert.Nil(t, c.AddProcess("mark", func(ctx types.Context, state types.State) (types.State, error) {
		state.Set("marked", true)
		return state, nil
	}))
	assert.Nil(t, c.LinkNodes(StartName, "gate"))
	assert.Nil(t, c.LinkNodes("gate", "mark"))

	p, err := NewPipe("gated", c, types.WithPolicy("iterate"))
	assert.Nil(t, err)

	out, err := p.Run(context.Background(), []types.State{
		{"skip": true},
		{"skip": false},
	})
	assert.Nil(t, err)

	states := out.([]types.State)
	_, exists := states[0].Get("marked")
	assert.False(t, exists)
	marked, _ := states[1].GetBool("marked")
	assert.True(t, marked)
}

func TestPipeInvalidConfig(t *testing.T) {
	_, err := NewPipe("odd", doublerChart(t), types.WithPolicy("teleport"))
	assert.NotNil(t, err)

	_, err = NewPipe("idle", doublerChart(t), types.WithWorkers(0))
	assert.NotNil(t, err)
	assert.True(t, errors.IsNotValid(errors.Cause(err)))

	_, err = NewPipe("weird", 42)
	assert.NotNil(t, err)
}

func TestPipeBadInput(t *testing.T) {
	p, err := NewPipe("picky", doublerChart(t))
	assert.Nil(t, err)

	_, err = p.Run(context.Background(), "not a batch")
	assert.NotNil(t, err)
}

func TestPipeAsChartNode(t *testing.T) {
	p, err := NewPipe("scaleAll", doublerChart(t), types.WithBatchKey("items"))
	assert.Nil(t, err)

	host := NewChart("host")
	assert.Nil(t, host.AddProcess("load", func(ctx types.Context, state types.State) (types.State, error) {
		state.Set("items", batchOf(1, 2))
		return state, nil
	}))
	assert.Nil(t, host.AddPipe(p))
	assert.Nil(t, host.LinkNodes(StartName, "load"))
	assert.Nil(t, host.LinkNodes("load", "scaleAll"))

	out, err := host.Run(context.Background(), types.State{})
	assert.Nil(t, err)

	items, exists := out.GetStates("items")
	assert.True(t, exists)
	assert.Equal(t, 2, len(items))
	v, _ := items[0].GetInt("v")
	assert.Equal(t, 2, v)
	v, _ = items[1].GetInt("v")
	assert.Equal(t, 4, v)
}

func TestPipeAsNodeMissingBatch(t *testing.T) {
	p, err := NewPipe("hungry", doublerChart(t))
	assert.Nil(t, err)

	host := NewChart("emptyhost")
	assert.Nil(t, host.AddPipe(p))
	assert.Nil(t, host.LinkNodes(StartName, "hungry"))

	_, err = host.Run(context.Background(), types.State{})
	assert.NotNil(t, err)
}

func TestPipeClone(t *testing.T) {
	p, err := NewPipe("orig", doublerChart(t), types.WithPolicy("iterate"))
	assert.Nil(t, err)
	_, err = p.Run(context.Background(), batchOf(1))
	assert.Nil(t, err)

	clone := p.Clone()
	assert.Equal(t, p.Name(), clone.Name())
	assert.Equal(t, p.Policy(), clone.Policy())
	assert.Equal(t, 0, len(clone.Paths()))
}
