// Package otel records metrics as OpenTelemetry histograms.
package otel

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	te "github.com/kpn-digital/timeexecution"
)

// Backend records each metric name as its own Float64Histogram. Fields other than the value are
// attached to the measurement as attributes.
type Backend struct {
	meter      otelmetric.Meter
	provider   *sdkmetric.MeterProvider
	histograms map[string]otelmetric.Float64Histogram
	mutex      sync.Mutex
}

// New creates a backend recording through meter.
func New(meter otelmetric.Meter) *Backend {
	return &Backend{
		meter:      meter,
		histograms: make(map[string]otelmetric.Float64Histogram),
	}
}

// Write records the metric value.
func (b *Backend) Write(ctx context.Context, name string, fields te.Fields) error {
	value, ok := te.ToFloat64(fields[te.ValueField])
	if !ok {
		return fmt.Errorf("otel: non-numeric metric value: metric=%s value=%v", name, fields[te.ValueField])
	}

	histogram, err := b.histogram(name)
	if err != nil {
		return err
	}

	histogram.Record(ctx, value, otelmetric.WithAttributes(attributes(fields)...))

	return nil
}

// histogram returns the instrument of a metric name, creating it on first use.
func (b *Backend) histogram(name string) (otelmetric.Float64Histogram, error) {
	instrumentName := InstrumentName(name)

	b.mutex.Lock()
	defer b.mutex.Unlock()

	if histogram, ok := b.histograms[instrumentName]; ok {
		return histogram, nil
	}

	histogram, err := b.meter.Float64Histogram(
		instrumentName,
		otelmetric.WithDescription("Metric values emitted by timeexecution"),
		otelmetric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("otel: failed to create histogram %q: %w", instrumentName, err)
	}
	b.histograms[instrumentName] = histogram

	return histogram, nil
}

// Shutdown flushes and stops the meter provider, if the backend owns one.
func (b *Backend) Shutdown(ctx context.Context) error {
	if b.provider == nil {
		return nil
	}

	return b.provider.Shutdown(ctx)
}

func (b *Backend) String() string {
	return "otel"
}

// InstrumentName maps a metric name onto the OpenTelemetry instrument name syntax: characters
// outside [A-Za-z0-9_.-/] become underscores and names not starting with a letter are prefixed.
func InstrumentName(name string) string {
	sanitized := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '_', r == '.', r == '-', r == '/':
			return r
		}
		return '_'
	}, name)

	if sanitized == "" || !isLetter(sanitized[0]) {
		sanitized = "m_" + sanitized
	}

	if len(sanitized) > 255 {
		sanitized = sanitized[:255]
	}

	return sanitized
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

// attributes converts every field except the value into an attribute, sorted by key.
func attributes(fields te.Fields) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(fields))

	for _, key := range fields.SortedKeys() {
		if key == te.ValueField {
			continue
		}

		switch v := fields[key].(type) {
		case string:
			attrs = append(attrs, attribute.String(key, v))
		case bool:
			attrs = append(attrs, attribute.Bool(key, v))
		case float32, float64:
			f, _ := te.ToFloat64(v)
			attrs = append(attrs, attribute.Float64(key, f))
		default:
			if i, ok := te.ToInt64(v); ok {
				attrs = append(attrs, attribute.Int64(key, i))
			} else {
				attrs = append(attrs, attribute.String(key, fmt.Sprint(v)))
			}
		}
	}

	return attrs
}
