// Package statsd provides a backend shipping metrics to a statsd server over UDP.
//
// The value field of a metric becomes a timing when it is an integer number of milliseconds and a
// gauge otherwise. String and boolean fields are attached to every emitted line as InfluxDB-style
// tags, and any other numeric field is emitted as a gauge named after the metric and the field,
// like "pkg.hello.size".
package statsd

import (
	"context"
	"fmt"
	"strconv"
	"time"

	te "github.com/kpn-digital/timeexecution"
)

// Backend writes metrics through a statsd Client.
type Backend struct {
	client *Client
}

// New creates a backend writing through client.
func New(client *Client) *Backend {
	return &Backend{client: client}
}

// Write emits the metric value and its numeric fields.
func (b *Backend) Write(ctx context.Context, name string, fields te.Fields) error {
	tags := make(map[string]string)
	gauges := make(te.Fields)

	for key, value := range fields {
		if key == te.ValueField {
			continue
		}

		switch v := value.(type) {
		case string:
			tags[key] = v
		case bool:
			tags[key] = strconv.FormatBool(v)
		default:
			if f, ok := te.ToFloat64(v); ok {
				gauges[key] = f
			}
		}
	}

	if err := b.writeValue(name, fields[te.ValueField], tags); err != nil {
		return fmt.Errorf("statsd: error emitting metric: metric=%s err=%w", name, err)
	}

	for _, key := range gauges.SortedKeys() {
		if err := b.client.Gauge(name+"."+key, gauges[key].(float64), tags); err != nil {
			return fmt.Errorf("statsd: error emitting metric field: metric=%s field=%s err=%w", name, key, err)
		}
	}

	return nil
}

// writeValue emits the main value of a metric.
func (b *Backend) writeValue(name string, value interface{}, tags map[string]string) error {
	if d, ok := value.(time.Duration); ok {
		return b.client.TimingDuration(name, d, tags)
	}

	if ms, ok := te.ToInt64(value); ok {
		return b.client.Timing(name, ms, tags)
	}

	if f, ok := te.ToFloat64(value); ok {
		return b.client.Gauge(name, f, tags)
	}

	return fmt.Errorf("statsd: non-numeric metric value: value=%v", value)
}

// Close releases the statsd connection.
func (b *Backend) Close() error {
	return b.client.Close()
}

func (b *Backend) String() string {
	return "statsd"
}
