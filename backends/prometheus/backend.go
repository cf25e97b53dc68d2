// Package prometheus exposes timed metrics as Prometheus series.
//
// Every metric name becomes a label value rather than a series of its own, so one registry serves
// any number of timed functions: a histogram of values, the last observed value, and a write count,
// all labelled by name and hostname.
package prometheus

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	te "github.com/kpn-digital/timeexecution"
)

// DefaultNamespace prefixes the series of a backend created without a namespace.
const DefaultNamespace = "timeexecution"

var labelNames = []string{"name", "hostname"}

// Backend records metrics into Prometheus collectors.
type Backend struct {
	values *prometheus.HistogramVec
	last   *prometheus.GaugeVec
	writes *prometheus.CounterVec
}

// New creates a backend and registers its collectors with registerer.
func New(namespace string, registerer prometheus.Registerer) (*Backend, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	b := &Backend{
		values: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "value",
				Help:      "Distribution of metric values, in milliseconds for timed calls",
				Buckets:   prometheus.ExponentialBuckets(1, 2, 16), // 1ms to ~32s
			},
			labelNames,
		),
		last: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_value",
				Help:      "Most recently written metric value",
			},
			labelNames,
		),
		writes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "writes_total",
				Help:      "Total number of metrics written",
			},
			labelNames,
		),
	}

	for _, collector := range []prometheus.Collector{b.values, b.last, b.writes} {
		if err := registerer.Register(collector); err != nil {
			return nil, fmt.Errorf("prometheus: error registering collector: err=%w", err)
		}
	}

	return b, nil
}

// Write observes the metric value under its name and hostname labels.
func (b *Backend) Write(ctx context.Context, name string, fields te.Fields) error {
	value, ok := te.ToFloat64(fields[te.ValueField])
	if !ok {
		return fmt.Errorf("prometheus: non-numeric metric value: metric=%s value=%v", name, fields[te.ValueField])
	}

	hostname, _ := fields[te.HostnameField].(string)

	b.values.WithLabelValues(name, hostname).Observe(value)
	b.last.WithLabelValues(name, hostname).Set(value)
	b.writes.WithLabelValues(name, hostname).Inc()

	return nil
}

func (b *Backend) String() string {
	return "prometheus"
}
