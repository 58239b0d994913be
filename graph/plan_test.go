package graph

import (
	"context"
	"testing"

	"github.com/juju/errors"
	"github.com/stretchr/testify/assert"

	"github.com/ConnorStoneAstro/flow/store/mem"
	"github.com/ConnorStoneAstro/flow/types"
)

func planFixture(t *testing.T) (*Chart, *Rebind) {
	rebind := &Rebind{
		Actions: map[string]types.Action{
			"P1": addOne("y", "x"),
			"P2": doubleOf("z", "y"),
		},
		Selectors: map[string]types.Selector{
			"D1": func(ctx types.Context, state types.State) (any, error) {
				return "P2", nil
			},
		},
	}

	c := NewChart("planned")
	assert.Nil(t, c.AddProcess("P1", rebind.Actions["P1"]))
	assert.Nil(t, c.AddDecision("D1", rebind.Selectors["D1"]))
	assert.Nil(t, c.AddProcess("P2", rebind.Actions["P2"]))
	assert.Nil(t, c.LinkNodes(StartName, "P1"))
	assert.Nil(t, c.LinkNodes("P1", "D1"))
	assert.Nil(t, c.LinkNodes("D1", "P2"))
	assert.Nil(t, c.LinkNodes("P2", EndName))
	return c, rebind
}

func TestPlanRoundTrip(t *testing.T) {
	c, rebind := planFixture(t)

	restored, err := ChartFromPlan(c.ExportPlan(), rebind)
	assert.Nil(t, err)

	want, err := c.Run(context.Background(), types.State{"x": 1})
	assert.Nil(t, err)
	got, err := restored.Run(context.Background(), types.State{"x": 1})
	assert.Nil(t, err)
	assert.Equal(t, want, got)
	assert.Equal(t, c.Path(), restored.Path())
}

func TestPlanDecisionNeedsSelector(t *testing.T) {
	c, _ := planFixture(t)

	_, err := ChartFromPlan(c.ExportPlan(), nil)
	assert.NotNil(t, err)
	assert.True(t, errors.IsNotFound(errors.Cause(err)))
}

func TestPlanMissingActionIsIdentity(t *testing.T) {
	c := NewChart("loose")
	assert.Nil(t, c.AddProcess("P1", addOne("y", "x")))
	assert.Nil(t, c.LinkNodes(StartName, "P1"))

	restored, err := ChartFromPlan(c.ExportPlan(), nil)
	assert.Nil(t, err)

	out, err := restored.Run(context.Background(), types.State{"x": 1})
	assert.Nil(t, err)
	_, exists := out.Get("y")
	assert.False(t, exists)
}

func TestPlanNestedChartAndPipe(t *testing.T) {
	inner := NewChart("inner")
	assert.Nil(t, inner.AddProcess("x2", doubleOf("v", "v")))
	assert.Nil(t, inner.LinkNodes(StartName, "x2"))

	p, err := NewPipe("fanout", inner.Clone(), types.WithPolicy("iterate"), types.WithBatchKey("items"))
	assert.Nil(t, err)

	c := NewChart("composite")
	assert.Nil(t, c.AddChart(inner))
	assert.Nil(t, c.AddPipe(p))
	assert.Nil(t, c.LinkNodes(StartName, "inner"))
	assert.Nil(t, c.LinkNodes("inner", "fanout"))

	rebind := &Rebind{Actions: map[string]types.Action{"x2": doubleOf("v", "v")}}
	restored, err := ChartFromPlan(c.ExportPlan(), rebind)
	assert.Nil(t, err)

	fanout, exists := restored.Node("fanout")
	assert.True(t, exists)
	assert.Equal(t, KindPipe, fanout.Kind())
	assert.Equal(t, types.PolicyIterate, fanout.pipe.Policy())
	assert.Equal(t, "items", fanout.pipe.batchKey)

	out, err := restored.Run(context.Background(), types.State{
		"v":     1,
		"items": []types.State{{"v": 3}},
	})
	assert.Nil(t, err)

	v, _ := out.GetInt("v")
	assert.Equal(t, 2, v)
	items, _ := out.GetStates("items")
	assert.Equal(t, 1, len(items))
	v, _ = items[0].GetInt("v")
	assert.Equal(t, 6, v)
}

func TestPlanVisualSurvives(t *testing.T) {
	c := NewChart("dressed")
	assert.Nil(t, c.AddProcess("P1", nil))
	n, _ := c.Node("P1")
	n.Visual().Color = "green"
	assert.Nil(t, c.LinkNodes(StartName, "P1"))

	restored, err := ChartFromPlan(c.ExportPlan(), nil)
	assert.Nil(t, err)
	rn, exists := restored.Node("P1")
	assert.True(t, exists)
	assert.Equal(t, "green", rn.Visual().Color)
}

func TestChartStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := mem.NewMemStore()
	c, rebind := planFixture(t)

	assert.Nil(t, SaveChart(ctx, s, c))

	names, err := ListCharts(ctx, s)
	assert.Nil(t, err)
	assert.Equal(t, []string{"planned"}, names)

	restored, err := LoadChart(ctx, s, "planned", rebind)
	assert.Nil(t, err)

	want, err := c.Run(ctx, types.State{"x": 1})
	assert.Nil(t, err)
	got, err := restored.Run(ctx, types.State{"x": 1})
	assert.Nil(t, err)
	assert.Equal(t, want, got)

	assert.Nil(t, RemoveChart(ctx, s, "planned"))
	_, err = LoadChart(ctx, s, "planned", rebind)
	assert.NotNil(t, err)
}
