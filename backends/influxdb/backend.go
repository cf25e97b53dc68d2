// Package influxdb provides a backend writing metrics as InfluxDB points.
package influxdb

import (
	"context"
	"fmt"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	te "github.com/kpn-digital/timeexecution"
)

// Config describes the InfluxDB server and the destination of the points.
type Config struct {
	URL    string
	Token  string
	Org    string
	Bucket string

	// TagKeys lists the fields written as tags rather than fields. Defaults to the hostname.
	TagKeys []string
}

// Backend writes one point per metric, using the metric name as measurement.
type Backend struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	tagKeys  map[string]bool
	now      func() time.Time
}

// New creates a backend writing synchronously to the configured bucket.
func New(cfg Config) (*Backend, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("influxdb: missing server url")
	}

	if cfg.Bucket == "" {
		return nil, fmt.Errorf("influxdb: missing bucket")
	}

	tagKeys := cfg.TagKeys
	if tagKeys == nil {
		tagKeys = []string{te.HostnameField}
	}

	client := influxdb2.NewClient(cfg.URL, cfg.Token)

	b := &Backend{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		tagKeys:  make(map[string]bool, len(tagKeys)),
		now:      time.Now,
	}
	for _, key := range tagKeys {
		b.tagKeys[key] = true
	}

	return b, nil
}

// Write sends the metric as a single point timestamped at the time of the write.
func (b *Backend) Write(ctx context.Context, name string, fields te.Fields) error {
	tags := make(map[string]string)
	values := make(map[string]interface{}, len(fields))

	for key, value := range fields {
		if b.tagKeys[key] {
			tags[key] = fmt.Sprint(value)
			continue
		}
		values[key] = value
	}

	point := influxdb2.NewPoint(name, tags, values, b.now())
	if err := b.writeAPI.WritePoint(ctx, point); err != nil {
		return fmt.Errorf("influxdb: error writing point: measurement=%s err=%w", name, err)
	}

	return nil
}

// Close releases the client resources.
func (b *Backend) Close() error {
	b.client.Close()
	return nil
}

func (b *Backend) String() string {
	return "influxdb"
}
