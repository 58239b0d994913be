package flow

import (
	"github.com/juju/errors"

	"github.com/ConnorStoneAstro/flow/graph"
	"github.com/ConnorStoneAstro/flow/store"
	"github.com/ConnorStoneAstro/flow/store/mem"
	"github.com/ConnorStoneAstro/flow/store/postgres"
	"github.com/ConnorStoneAstro/flow/types"
)

// NewChart creates an empty chart with Start and End registered.
func NewChart(name string, opts ...types.ChartOption) *graph.Chart {
	return graph.NewChart(name, opts...)
}

// NewProcess creates a process node applying action to the state.
func NewProcess(name string, action types.Action) *graph.Node {
	return graph.NewProcess(name, action)
}

// NewDecision creates a decision node branching on selector.
func NewDecision(name string, selector types.Selector) *graph.Node {
	return graph.NewDecision(name, selector)
}

// NewPipe creates a replication executor over a template chart or
// node.
func NewPipe(name string, template any, opts ...types.PipeOption) (*graph.Pipe, error) {
	return graph.NewPipe(name, template, opts...)
}

// ExitChart is returned by a node action to terminate the current
// chart's traversal.
func ExitChart() error {
	return types.NewExitChart()
}

// ExitFlow is returned by a node action to terminate the whole nesting
// hierarchy.
func ExitFlow() error {
	return types.NewExitFlow()
}

// PostgresConfig holds PostgreSQL connection configuration for the
// chart plan store.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string // disable, require, verify-ca, verify-full
}

// NewStore selects the chart plan store: PostgreSQL when configured,
// the in-memory store otherwise.
func NewStore(config *PostgresConfig) (store.Store, error) {
	if config == nil {
		return mem.NewMemStore(), nil
	}

	pgConfig := &postgres.Config{
		Host:     config.Host,
		Port:     config.Port,
		User:     config.User,
		Password: config.Password,
		Database: config.Database,
		SSLMode:  config.SSLMode,
	}
	s, err := postgres.NewPostgresStore(pgConfig)
	if err != nil {
		return nil, errors.Annotatef(err, "failed to create PostgreSQL store")
	}
	return s, nil
}
