package graph

import (
	"context"

	"github.com/ConnorStoneAstro/flow/types"
)

var (
	_ types.Context = &nodeContext{}
)

type nodeContext struct {
	context.Context

	chartName string
	nodeName  string
}

func newNodeContext(ctx context.Context, chartName, nodeName string) *nodeContext {
	return &nodeContext{Context: ctx, chartName: chartName, nodeName: nodeName}
}

func (c *nodeContext) ChartName() string {
	return c.chartName
}

func (c *nodeContext) NodeName() string {
	return c.nodeName
}
