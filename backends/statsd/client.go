package statsd

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cactus/go-statsd-client/v5/statsd"
)

// Client is an abstraction over a UDP statsd emitter.
type Client struct {
	backend     statsd.Statter
	defaultTags map[string]string
	sampleRate  float32
}

// NewClient creates a new statsd client pointing the specified listener/server address with an
// optional prefix and set of default tags to include with every metric. A zero sample rate sends
// every metric.
func NewClient(addr string, prefix string, defaultTags map[string]string, sampleRate float32) (*Client, error) {
	client, err := statsd.NewClientWithConfig(&statsd.ClientConfig{
		Address: addr,
		Prefix:  prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("statsd: error creating statsd client: err=%w", err)
	}

	if sampleRate == 0 {
		sampleRate = 1
	}

	return &Client{
		backend:     client,
		defaultTags: defaultTags,
		sampleRate:  sampleRate,
	}, nil
}

// Timing emits a time duration metric in milliseconds.
func (c *Client) Timing(metric string, ms int64, tags map[string]string) error {
	return c.backend.Timing(c.formatMetric(metric, tags), ms, c.sampleRate)
}

// TimingDuration emits a time duration metric.
func (c *Client) TimingDuration(metric string, duration time.Duration, tags map[string]string) error {
	return c.backend.TimingDuration(c.formatMetric(metric, tags), duration, c.sampleRate)
}

// Gauge emits a gauge metric. Fractional values are kept as-is.
func (c *Client) Gauge(metric string, value float64, tags map[string]string) error {
	return c.backend.Raw(c.formatMetric(metric, tags), strconv.FormatFloat(value, 'f', -1, 64)+"|g", c.sampleRate)
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	return c.backend.Close()
}

// formatMetric serializes a metric and a map of tags (in addition to any default tags) into a
// single string to ship to the time-series database backend.
func (c *Client) formatMetric(metric string, tags map[string]string) string {
	// Some characters, like colons, are incompatible with the statsd protocol.
	// This standardizes on URL escaping to encode such characters that may appear in the metric
	// name or tag keys/values.
	escapedMetric := url.QueryEscape(metric)

	if len(c.defaultTags)+len(tags) == 0 {
		return escapedMetric
	}

	// Call tags take precedence over the default tags.
	mergedTags := make(map[string]string, len(c.defaultTags)+len(tags))
	for key, value := range c.defaultTags {
		mergedTags[key] = value
	}
	for key, value := range tags {
		mergedTags[key] = value
	}

	keys := make([]string, 0, len(mergedTags))
	for key := range mergedTags {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	// Tags are delimited InfluxDB-style.
	components := make([]string, 0, len(keys))
	for _, key := range keys {
		components = append(
			components,
			fmt.Sprintf("%s=%s", url.QueryEscape(key), url.QueryEscape(mergedTags[key])),
		)
	}

	return fmt.Sprintf("%s,%s", escapedMetric, strings.Join(components, ","))
}
