package timeexecution

import (
	"errors"
	"fmt"
)

// ErrInvalidMetric is wrapped by every error describing a metric that cannot be dispatched.
var ErrInvalidMetric = errors.New("invalid metric")

// HookError describes a hook that failed while enriching a metric.
type HookError struct {
	Hook   string
	Metric string
	Err    error
}

func (e *HookError) Error() string {
	return fmt.Sprintf("hook: error running hook: hook=%s metric=%s err=%v", e.Hook, e.Metric, e.Err)
}

func (e *HookError) Unwrap() error {
	return e.Err
}

// BackendError describes a backend that failed to accept a metric.
type BackendError struct {
	Backend string
	Metric  string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("dispatch: error writing metric: backend=%s metric=%s err=%v", e.Backend, e.Metric, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// PanicError carries a value recovered from a panic. Timed calls that panic are presented to
// hooks as a PanicError; the original value is re-panicked to the caller afterwards.
type PanicError struct {
	Value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it was itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}

	return nil
}
