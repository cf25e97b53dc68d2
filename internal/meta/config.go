package meta

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kpn-digital/timeexecution/log"
)

// Defaults applied by validate for omitted options.
const (
	DefaultStatsdSampleRate = 1.0
	DefaultPrometheusPath   = "/metrics"
	DefaultOTLPInterval     = 30 * time.Second
	DefaultSysloadInterval  = 10 * time.Second
)

// ApplicationConfig is a top-level block for application-level meta configuration.
type ApplicationConfig struct {
	SentryDSN       string        `yaml:"sentry_dsn"`
	Hostname        string        `yaml:"hostname"`
	DispatchTimeout time.Duration `yaml:"dispatch_timeout"`
	LogFormat       string        `yaml:"log_format"`
}

// LogBackendConfig configures the backend writing metrics to the application log.
type LogBackendConfig struct {
	Level string `yaml:"level"`
}

// StatsdBackendConfig configures the statsd backend.
type StatsdBackendConfig struct {
	Address    string            `yaml:"addr"`
	Prefix     string            `yaml:"prefix"`
	SampleRate float64           `yaml:"sample_rate"`
	Tags       map[string]string `yaml:"tags"`
}

// PrometheusBackendConfig configures the Prometheus backend and its scrape endpoint.
type PrometheusBackendConfig struct {
	Address   string `yaml:"addr"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
}

// OTelBackendConfig configures the OpenTelemetry backend.
type OTelBackendConfig struct {
	Protocol string            `yaml:"protocol"`
	Endpoint string            `yaml:"endpoint"`
	Insecure bool              `yaml:"insecure"`
	Headers  map[string]string `yaml:"headers"`
	Interval time.Duration     `yaml:"interval"`
	Resource map[string]string `yaml:"resource"`
}

// InfluxDBBackendConfig configures the InfluxDB backend.
type InfluxDBBackendConfig struct {
	URL     string   `yaml:"url"`
	Token   string   `yaml:"token"`
	Org     string   `yaml:"org"`
	Bucket  string   `yaml:"bucket"`
	TagKeys []string `yaml:"tag_keys"`
}

// ElasticsearchBackendConfig configures the Elasticsearch backend.
type ElasticsearchBackendConfig struct {
	Addresses []string `yaml:"addrs"`
	Username  string   `yaml:"username"`
	Password  string   `yaml:"password"`
	Index     string   `yaml:"index"`
}

// AsyncConfig moves network backends behind a bounded queue.
type AsyncConfig struct {
	QueueSize int `yaml:"queue_size"`
}

// BackendsConfig is a top-level block listing the enabled backends. Backends are dispatched to in
// the order of the fields below.
type BackendsConfig struct {
	Log           *LogBackendConfig           `yaml:"log"`
	Statsd        *StatsdBackendConfig        `yaml:"statsd"`
	Prometheus    *PrometheusBackendConfig    `yaml:"prometheus"`
	OTel          *OTelBackendConfig          `yaml:"otel"`
	InfluxDB      *InfluxDBBackendConfig      `yaml:"influxdb"`
	Elasticsearch *ElasticsearchBackendConfig `yaml:"elasticsearch"`
	Async         *AsyncConfig                `yaml:"async"`
}

// HooksConfig is a top-level block enabling the built-in hooks. They run in the order of the
// fields below.
type HooksConfig struct {
	Static      map[string]string `yaml:"static"`
	Status      bool              `yaml:"status"`
	ErrorFields bool              `yaml:"error_fields"`
	HTTPStatus  bool              `yaml:"http_status"`
}

// SysloadConfig is a top-level block for host load sampling.
type SysloadConfig struct {
	Interval time.Duration `yaml:"interval"`
	Prefix   string        `yaml:"prefix"`
}

// Config describes all application configuration options.
type Config struct {
	Application *ApplicationConfig `yaml:"application"`
	Backends    *BackendsConfig    `yaml:"backends"`
	Hooks       *HooksConfig       `yaml:"hooks"`
	Sysload     *SysloadConfig     `yaml:"sysload"`
}

// ParseConfig parses a Config struct instance from a file specified as a path on disk.
func ParseConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: error reading config: err=%w", err)
	}

	return Parse(data)
}

// Parse parses and validates a Config from its YAML representation.
func Parse(data []byte) (*Config, error) {
	var cfg *Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: error parsing config: err=%w", err)
	}

	// An empty document is a valid configuration with every block omitted.
	if cfg == nil {
		cfg = &Config{}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate the contents of the configuration and fill in defaults. Returns an error if validation
// failed; nil otherwise.
func (c *Config) validate() error {
	/* Application */

	if c.Application == nil {
		c.Application = &ApplicationConfig{}
	}

	if c.Application.DispatchTimeout < 0 {
		return fmt.Errorf("config: dispatch timeout must not be negative")
	}

	switch c.Application.LogFormat {
	case "":
		c.Application.LogFormat = "console"
	case "console", "json":
	default:
		return fmt.Errorf("config: unknown log format: format=%s", c.Application.LogFormat)
	}

	/* Backends */

	// Users can omit the backends block entirely to disable metrics reporting.
	if c.Backends != nil {
		if err := c.Backends.validate(); err != nil {
			return err
		}
	}

	/* Sysload */

	if c.Sysload != nil {
		if c.Sysload.Interval == 0 {
			c.Sysload.Interval = DefaultSysloadInterval
		}

		if c.Sysload.Interval < 0 {
			return fmt.Errorf("config: sysload interval must be positive")
		}
	}

	return nil
}

func (b *BackendsConfig) validate() error {
	if b.Log != nil {
		if b.Log.Level == "" {
			b.Log.Level = log.Info.String()
		}

		if _, ok := log.ParseLevel(b.Log.Level); !ok {
			return fmt.Errorf("config: unknown log backend level: level=%s", b.Log.Level)
		}
	}

	if b.Statsd != nil {
		if b.Statsd.Address == "" {
			return fmt.Errorf("config: missing statsd address")
		}

		if b.Statsd.SampleRate == 0 {
			b.Statsd.SampleRate = DefaultStatsdSampleRate
		}

		if b.Statsd.SampleRate < 0 || b.Statsd.SampleRate > 1 {
			return fmt.Errorf("config: statsd sample rate must be in range [0.0, 1.0]")
		}
	}

	if b.Prometheus != nil && b.Prometheus.Path == "" {
		b.Prometheus.Path = DefaultPrometheusPath
	}

	if b.OTel != nil {
		if b.OTel.Endpoint == "" {
			return fmt.Errorf("config: missing otel endpoint")
		}

		switch b.OTel.Protocol {
		case "":
			b.OTel.Protocol = "http"
		case "http", "grpc":
		default:
			return fmt.Errorf("config: unknown otel protocol: protocol=%s", b.OTel.Protocol)
		}

		if b.OTel.Interval == 0 {
			b.OTel.Interval = DefaultOTLPInterval
		}
	}

	if b.InfluxDB != nil {
		if b.InfluxDB.URL == "" {
			return fmt.Errorf("config: missing influxdb url")
		}

		if b.InfluxDB.Bucket == "" {
			return fmt.Errorf("config: missing influxdb bucket")
		}
	}

	if b.Elasticsearch != nil {
		if len(b.Elasticsearch.Addresses) == 0 {
			return fmt.Errorf("config: no elasticsearch addresses specified")
		}

		if b.Elasticsearch.Index == "" {
			return fmt.Errorf("config: missing elasticsearch index")
		}
	}

	if b.Async != nil && b.Async.QueueSize < 0 {
		return fmt.Errorf("config: async queue size must not be negative")
	}

	return nil
}
