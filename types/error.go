package types

import (
	"github.com/juju/errors"
)

var (
	_ error = &LinkError{}
	_ error = &ExitChartSignal{}
	_ error = &ExitFlowSignal{}
)

// NewLinkError reports a duplicate or invalid edge operation.
func NewLinkError(otherErr error) error {
	return &LinkError{newBaseErr(otherErr)}
}

func NewLinkErrorf(format string, args ...interface{}) error {
	return NewLinkError(errors.Errorf(format, args...))
}

// NewExitChart builds the signal a node action returns to terminate the
// innermost chart's traversal. Not an error condition, the chart
// converts it into normal termination.
func NewExitChart() error {
	return &ExitChartSignal{newBaseErr(errors.New("exit chart"))}
}

// NewExitFlow builds the signal terminating the whole nesting
// hierarchy. Each enclosing chart stops its own traversal and
// re-raises until a chart with no owner absorbs it.
func NewExitFlow() error {
	return &ExitFlowSignal{newBaseErr(errors.New("exit flow"))}
}

func newBaseErr(otherErr error) *baseError {
	return &baseError{unwrapErr(otherErr)}
}

func unwrapErr(err error) error {
	if err == nil {
		return nil
	}
	if ue, ok := err.(wrappedErr); ok {
		return unwrapErr(ue.UnwrapLocal())
	}
	return err
}

type wrappedErr interface {
	UnwrapLocal() error
}

type baseError struct {
	BaseErr error
}

func (e *baseError) Error() string {
	return e.BaseErr.Error()
}

func (e *baseError) UnwrapLocal() error {
	return e.BaseErr
}

type LinkError struct {
	*baseError
}

type ExitChartSignal struct {
	*baseError
}

type ExitFlowSignal struct {
	*baseError
}

func IsLinkError(err error) bool {
	_, ok := errors.Cause(err).(*LinkError)
	return ok
}

func IsExitChart(err error) bool {
	_, ok := errors.Cause(err).(*ExitChartSignal)
	return ok
}

func IsExitFlow(err error) bool {
	_, ok := errors.Cause(err).(*ExitFlowSignal)
	return ok
}
