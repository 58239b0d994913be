package graph

import (
	"context"

	"github.com/juju/errors"

	"github.com/ConnorStoneAstro/flow/store"
	"github.com/ConnorStoneAstro/flow/utils"
)

const (
	ChartPlanPath = "/chart/"
)

// SaveChart persists the chart's plan under its name.
func SaveChart(ctx context.Context, s store.Store, c *Chart) error {
	b, err := utils.Serialize(c.ExportPlan())
	if err != nil {
		return errors.Trace(err)
	}
	return errors.Trace(s.Set(ctx, ChartPlanPath, c.Name(), b))
}

// LoadChart restores a saved chart, rebinding callables from rebind.
func LoadChart(ctx context.Context, s store.Store, name string, rebind *Rebind) (*Chart, error) {
	b, err := s.Get(ctx, ChartPlanPath, name)
	if err != nil {
		return nil, errors.Trace(err)
	}
	if b == nil {
		return nil, errors.NotFoundf("chart plan %s", name)
	}

	plan := &ChartPlan{}
	if err := utils.Unserialize(b, plan); err != nil {
		return nil, errors.Trace(err)
	}
	return ChartFromPlan(plan, rebind)
}

// RemoveChart deletes a saved chart plan.
func RemoveChart(ctx context.Context, s store.Store, name string) error {
	return errors.Trace(s.Remove(ctx, ChartPlanPath, name))
}

// ListCharts names the saved chart plans.
func ListCharts(ctx context.Context, s store.Store) ([]string, error) {
	names := make([]string, 0)
	err := s.List(ctx, ChartPlanPath, func(name string) bool {
		names = append(names, name)
		return true
	})
	return names, errors.Trace(err)
}
