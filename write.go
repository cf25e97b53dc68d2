package timeexecution

import (
	"context"
)

// WriteMetric dispatches a caller-constructed metric to every configured backend. The metric holds
// name followed by fields; no default fields are added and no hooks run. It returns an error only
// when the metric is invalid, e.g. when fields lacks a numeric value.
func (c *Config) WriteMetric(ctx context.Context, name string, fields Fields) error {
	return c.Dispatch(ctx, NewMetric(name, fields))
}

// WriteMetric dispatches a metric through the process-wide configuration.
//
//	timeexecution.WriteMetric("cpu.load.1m", timeexecution.Fields{"value": 0.42})
func WriteMetric(name string, fields Fields) error {
	return defaultConfig.WriteMetric(context.Background(), name, fields)
}
