package timeexecution

import (
	"context"
	"fmt"
)

// Invocation describes one timed call as seen by a hook.
type Invocation struct {
	// Response is the value returned by the timed call. It is nil when the call failed.
	Response interface{}

	// Err is the failure of the timed call: the returned error, or a *PanicError if the call
	// panicked. It is nil when the call succeeded.
	Err error

	// Metric is a copy of the metric accumulated so far. Changes to it are discarded; hooks
	// change the metric through the fields they return.
	Metric Metric

	// Args are the positional arguments of the timed call, if the wrapper captured any.
	Args []interface{}

	// Kwargs are named arguments attached to the timed call.
	Kwargs map[string]interface{}
}

// Failed reports whether the timed call failed.
func (inv Invocation) Failed() bool {
	return inv.Err != nil
}

// Hook enriches the metric of a timed call. Run returns the fields to merge into the metric, or
// nil to leave it unchanged. Returned fields override existing ones, including name and value.
type Hook interface {
	Run(inv Invocation) (Fields, error)
}

// HookFunc adapts an ordinary function to the Hook interface.
type HookFunc func(inv Invocation) (Fields, error)

// Run calls f.
func (f HookFunc) Run(inv Invocation) (Fields, error) {
	return f(inv)
}

// hookName identifies a hook in logs and reports.
func hookName(hook Hook) string {
	if named, ok := hook.(fmt.Stringer); ok {
		return named.String()
	}

	return fmt.Sprintf("%T", hook)
}

// RunHooks runs the configured hook chain over metric, in order, and returns the resulting metric.
// A hook that fails, panics, or returns fields that would make the metric invalid is reported and
// skipped; the remaining hooks still run on the metric accumulated so far.
func (c *Config) RunHooks(ctx context.Context, metric Metric, inv Invocation) Metric {
	return c.load().runHooks(ctx, metric, inv)
}

// runHooks runs the hook chain of one configuration snapshot.
func (s *settings) runHooks(ctx context.Context, metric Metric, inv Invocation) Metric {
	for idx, hook := range s.hooks {
		fields, err := runHook(hook, metric, inv)
		if err == nil && len(fields) > 0 {
			candidate := metric.Clone()
			candidate.Merge(fields)

			if err = candidate.Validate(); err == nil {
				metric = candidate
			}
		}

		if err != nil {
			s.report(ctx, &HookError{
				Hook:   fmt.Sprintf("%d:%s", idx, hookName(hook)),
				Metric: metric.Name(),
				Err:    err,
			}, map[string]string{"stage": "hook", "metric": metric.Name()})
		}
	}

	return metric
}

// runHook invokes a single hook with its own copy of the running metric, converting a panic into
// an error.
func runHook(hook Hook, metric Metric, inv Invocation) (fields Fields, err error) {
	defer func() {
		if r := recover(); r != nil {
			fields = nil
			err = &PanicError{Value: r}
		}
	}()

	inv.Metric = metric.Clone()

	return hook.Run(inv)
}
