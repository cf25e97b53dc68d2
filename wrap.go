package timeexecution

import (
	"context"
	"fmt"
	"time"
)

// Call describes the unit of work being timed.
type Call struct {
	// Name of the metric. When empty, it is derived from the timed function with FuncName.
	Name string

	// Args and Kwargs are handed to hooks as the arguments of the call.
	Args   []interface{}
	Kwargs map[string]interface{}
}

// outcome captures how a timed function finished.
type outcome[T any] struct {
	response  T
	err       error
	panicked  bool
	recovered interface{}
}

// Time runs fn once, measures how long it takes, and emits the resulting metric through config
// (the process-wide configuration if nil): the base metric is built, the hook chain runs, and the
// metric is dispatched to every backend.
//
// The outcome of fn is handed back untouched. Its response and error are returned as-is, and if
// fn panics the metric is emitted before the original panic value is re-raised. Emission never
// fails the call: hook and backend failures go to the configured reporter. Emission is not
// cancelled along with ctx; only the context values are passed on to backends.
func Time[T any](ctx context.Context, config *Config, call Call, fn func() (T, error)) (T, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if config == nil {
		config = Default()
	}
	if call.Name == "" {
		call.Name = FuncName(fn)
	}

	timer := NewTimer()
	out := invoke(fn)
	elapsed := timer.Elapsed()

	inv := Invocation{Args: call.Args, Kwargs: call.Kwargs}
	switch {
	case out.panicked:
		inv.Err = &PanicError{Value: out.recovered}
	case out.err != nil:
		inv.Err = out.err
	default:
		inv.Response = out.response
	}

	config.emit(context.WithoutCancel(ctx), call.Name, elapsed, inv)

	if out.panicked {
		panic(out.recovered)
	}

	return out.response, out.err
}

// invoke calls fn, capturing a panic instead of unwinding.
func invoke[T any](fn func() (T, error)) (out outcome[T]) {
	defer func() {
		if r := recover(); r != nil {
			out.panicked = true
			out.recovered = r
		}
	}()

	out.response, out.err = fn()

	return out
}

// emit builds, enriches, and dispatches the metric of one timed call against a single
// configuration snapshot. Nothing raised here escapes to the timed call.
func (c *Config) emit(ctx context.Context, name string, elapsed time.Duration, inv Invocation) {
	s := c.load()

	defer func() {
		if r := recover(); r != nil {
			s.report(ctx, fmt.Errorf("timeexecution: error emitting metric: metric=%s err=%w", name, &PanicError{Value: r}), map[string]string{
				"stage":  "emit",
				"metric": name,
			})
		}
	}()

	metric := BuildMetric(name, elapsed, s.host())
	metric = s.runHooks(ctx, metric, inv)

	_ = s.dispatch(ctx, metric)
}

// CallOption adjusts how a wrapped function is timed.
type CallOption func(*callOptions)

type callOptions struct {
	config *Config
	name   string
	kwargs map[string]interface{}
}

// WithConfig emits the metrics of a wrapped function through config instead of the process-wide
// configuration.
func WithConfig(config *Config) CallOption {
	return func(o *callOptions) {
		o.config = config
	}
}

// WithName overrides the metric name derived from the wrapped function.
func WithName(name string) CallOption {
	return func(o *callOptions) {
		o.name = name
	}
}

// WithKwargs attaches named arguments that hooks receive on every call. Hooks must treat the map
// as read-only.
func WithKwargs(kwargs map[string]interface{}) CallOption {
	return func(o *callOptions) {
		o.kwargs = kwargs
	}
}

// newCallOptions resolves the options of a wrapper, deriving the name from the original function.
func newCallOptions(fn interface{}, opts []CallOption) *callOptions {
	o := &callOptions{}
	for _, opt := range opts {
		opt(o)
	}

	if o.name == "" {
		o.name = FuncName(fn)
	}

	return o
}

// call describes one invocation of the wrapped function.
func (o *callOptions) call(args []interface{}) Call {
	return Call{Name: o.name, Args: args, Kwargs: o.kwargs}
}

// Wrap returns a function equivalent to fn that emits a timing metric on every call.
func Wrap[T any](fn func() (T, error), opts ...CallOption) func() (T, error) {
	o := newCallOptions(fn, opts)

	return func() (T, error) {
		return Time(context.Background(), o.config, o.call(nil), fn)
	}
}

// Wrap1 is Wrap for functions taking a single argument, which hooks receive as Args[0].
func Wrap1[A, T any](fn func(A) (T, error), opts ...CallOption) func(A) (T, error) {
	o := newCallOptions(fn, opts)

	return func(arg A) (T, error) {
		return Time(context.Background(), o.config, o.call([]interface{}{arg}), func() (T, error) {
			return fn(arg)
		})
	}
}

// WrapContext is Wrap1 for context-aware functions. The context values travel on to the backends.
func WrapContext[A, T any](fn func(context.Context, A) (T, error), opts ...CallOption) func(context.Context, A) (T, error) {
	o := newCallOptions(fn, opts)

	return func(ctx context.Context, arg A) (T, error) {
		return Time(ctx, o.config, o.call([]interface{}{arg}), func() (T, error) {
			return fn(ctx, arg)
		})
	}
}
