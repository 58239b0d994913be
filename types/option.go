package types

import (
	"github.com/mcuadros/go-defaults"
)

func NewChartOptions() *ChartOptions {
	opts := &ChartOptions{}
	defaults.SetDefaults(opts)
	return opts
}

type ChartOptions struct {
	/**
	 * default: false
	 * In safe mode node action failures are logged and swallowed,
	 * traversal continues with the state unchanged by that step.
	 * Duplicate add/link operations become no-ops instead of
	 * LinkErrors.
	 */
	SafeMode bool `default:"false"`
}

type ChartOption func(*ChartOptions)

func ChartSafeMode() ChartOption {
	return func(opts *ChartOptions) {
		opts.SafeMode = true
	}
}

func NewPipeOptions() *PipeOptions {
	opts := &PipeOptions{}
	defaults.SetDefaults(opts)
	return opts
}

type PipeOptions struct {
	/**
	 * default: parallel
	 * One of: parallel, iterate, pass.
	 */
	Policy string `default:"parallel"`
	/**
	 * default: 4
	 * Worker pool bound for the parallel policy.
	 */
	Workers int `default:"4"`
	/**
	 * default: true
	 * In safe mode a failed per-element run yields a nil sentinel
	 * result instead of aborting the whole pipe. The element's path
	 * and benchmarks are still recorded.
	 */
	SafeMode bool `default:"true"`
	/**
	 * default: false
	 * Record a success flag per element alongside the results.
	 */
	ReturnSuccess bool `default:"false"`
	/**
	 * default: batch
	 * State key holding the input collection when the pipe runs as a
	 * node inside a chart with a collection policy.
	 */
	BatchKey string `default:"batch"`
}

type PipeOption func(*PipeOptions)

func WithPolicy(policy Policy) PipeOption {
	return func(opts *PipeOptions) {
		opts.Policy = string(policy)
	}
}

func WithWorkers(workers int) PipeOption {
	return func(opts *PipeOptions) {
		opts.Workers = workers
	}
}

func DisablePipeSafeMode() PipeOption {
	return func(opts *PipeOptions) {
		opts.SafeMode = false
	}
}

func ReturnSuccess() PipeOption {
	return func(opts *PipeOptions) {
		opts.ReturnSuccess = true
	}
}

func WithBatchKey(key string) PipeOption {
	return func(opts *PipeOptions) {
		opts.BatchKey = key
	}
}
