// Package timeexecution records how long function calls take and ships the resulting metrics to
// any number of storage backends.
//
// A timed call produces a metric with three default fields: name (the qualified name of the timed
// function), value (the elapsed time in whole milliseconds) and hostname. Before the metric is
// dispatched, a chain of hooks may rename it or add fields based on the call's outcome. Dispatch
// then writes the metric to every configured backend; a failing backend is reported but never
// affects its siblings or the result of the timed call.
//
// Configuration lives in a Config. Most processes configure the package-level default once at
// startup:
//
//	timeexecution.Configure([]timeexecution.Backend{statsdBackend}, []timeexecution.Hook{hooks.Status()})
//
//	hello := timeexecution.Wrap(func() (string, error) { return "World", nil }, timeexecution.WithName("main.hello"))
//	greeting, err := hello()
//
// Reconfiguration is meant to happen before timed calls start. Configure swaps the active lists
// in one atomic store, but concurrent reconfiguration while calls are in flight is not supported.
//
// Metrics that are not tied to a timed call can be sent with WriteMetric; they skip the default
// fields and the hook chain.
package timeexecution
