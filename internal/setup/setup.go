// Package setup assembles an emission pipeline from the application configuration.
package setup

import (
	"context"
	"errors"
	"fmt"
	"io"

	promclient "github.com/prometheus/client_golang/prometheus"

	te "github.com/kpn-digital/timeexecution"
	"github.com/kpn-digital/timeexecution/backends/async"
	"github.com/kpn-digital/timeexecution/backends/elasticsearch"
	"github.com/kpn-digital/timeexecution/backends/influxdb"
	logbackend "github.com/kpn-digital/timeexecution/backends/logger"
	"github.com/kpn-digital/timeexecution/backends/otel"
	"github.com/kpn-digital/timeexecution/backends/prometheus"
	"github.com/kpn-digital/timeexecution/backends/statsd"
	"github.com/kpn-digital/timeexecution/hooks"
	"github.com/kpn-digital/timeexecution/internal/meta"
	"github.com/kpn-digital/timeexecution/log"
	"github.com/kpn-digital/timeexecution/report/sentry"
)

// Pipeline is a configured emission pipeline along with the resources backing it.
type Pipeline struct {
	Config *te.Config

	// Registry and Exporter are set when the Prometheus backend is enabled. Exporter is nil
	// unless a listening address was configured.
	Registry *promclient.Registry
	Exporter *prometheus.Exporter

	closers []func(ctx context.Context) error
}

// NewLogger creates the application logger in the configured format, writing to out.
func NewLogger(format string, level log.Level, out io.Writer) log.Logger {
	if format == "json" {
		return log.NewZerologLogger(level, out)
	}

	return log.NewWriterLogger(level, out)
}

// Build creates every configured backend, hook, and reporter. On failure, resources created so far
// are released.
func Build(ctx context.Context, cfg *meta.Config, logger log.Logger) (*Pipeline, error) {
	p := &Pipeline{}

	backends, err := p.buildBackends(ctx, cfg.Backends, logger)
	if err != nil {
		_ = p.Close(ctx)
		return nil, err
	}

	reporter, err := p.buildReporter(cfg.Application, logger)
	if err != nil {
		_ = p.Close(ctx)
		return nil, err
	}

	var hostname te.HostnameProvider = &te.OSHostname{}
	if cfg.Application != nil && cfg.Application.Hostname != "" {
		hostname = te.StaticHostname(cfg.Application.Hostname)
	}

	opts := []te.Option{
		te.WithLogger(logger),
		te.WithReporter(reporter),
		te.WithHostname(hostname),
	}
	if cfg.Application != nil {
		opts = append(opts, te.WithDispatchTimeout(cfg.Application.DispatchTimeout))
	}

	p.Config = te.NewConfig(backends, buildHooks(cfg.Hooks), opts...)

	return p, nil
}

// Close releases every resource of the pipeline, newest first, flushing queued metrics.
func (p *Pipeline) Close(ctx context.Context) error {
	var errs []error
	for idx := len(p.closers) - 1; idx >= 0; idx-- {
		if err := p.closers[idx](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	p.closers = nil

	return errors.Join(errs...)
}

func (p *Pipeline) onClose(closer func(ctx context.Context) error) {
	p.closers = append(p.closers, closer)
}

func (p *Pipeline) buildReporter(cfg *meta.ApplicationConfig, logger log.Logger) (te.Reporter, error) {
	var reporter te.Reporter = te.NewLogReporter(logger)

	if cfg == nil || cfg.SentryDSN == "" {
		return reporter, nil
	}

	logger.Info("setup: configuring sentry error reporting")

	sentryReporter, err := sentry.New(cfg.SentryDSN, meta.Version())
	if err != nil {
		return nil, err
	}
	p.onClose(func(ctx context.Context) error { return sentryReporter.Close() })

	return te.MultiReporter{reporter, sentryReporter}, nil
}

func (p *Pipeline) buildBackends(ctx context.Context, cfg *meta.BackendsConfig, logger log.Logger) ([]te.Backend, error) {
	if cfg == nil {
		logger.Warn("setup: no backends specified; metrics are discarded")
		return nil, nil
	}

	var backends []te.Backend

	// Network backends are moved behind a queue when async is enabled.
	remote := func(backend te.Backend) te.Backend {
		if cfg.Async == nil {
			return backend
		}

		queued := async.New(backend, cfg.Async.QueueSize, logger)
		p.onClose(queued.Close)

		return queued
	}

	if cfg.Log != nil {
		level, _ := log.ParseLevel(cfg.Log.Level)
		logger.Info("setup: configuring log backend: level=%s", level)
		backends = append(backends, logbackend.New(logger, level))
	}

	if cfg.Statsd != nil {
		logger.Info("setup: configuring statsd backend: addr=%s sample_rate=%f", cfg.Statsd.Address, cfg.Statsd.SampleRate)

		client, err := statsd.NewClient(cfg.Statsd.Address, cfg.Statsd.Prefix, cfg.Statsd.Tags, float32(cfg.Statsd.SampleRate))
		if err != nil {
			return nil, err
		}

		backend := statsd.New(client)
		p.onClose(func(ctx context.Context) error { return backend.Close() })
		backends = append(backends, remote(backend))
	}

	if cfg.Prometheus != nil {
		logger.Info("setup: configuring prometheus backend: addr=%s path=%s", cfg.Prometheus.Address, cfg.Prometheus.Path)

		registry := promclient.NewRegistry()
		backend, err := prometheus.New(cfg.Prometheus.Namespace, registry)
		if err != nil {
			return nil, err
		}

		p.Registry = registry
		if cfg.Prometheus.Address != "" {
			p.Exporter = prometheus.NewExporter(cfg.Prometheus.Address, cfg.Prometheus.Path, registry, registry, logger)
		}
		backends = append(backends, backend)
	}

	if cfg.OTel != nil {
		logger.Info("setup: configuring otel backend: protocol=%s endpoint=%s", cfg.OTel.Protocol, cfg.OTel.Endpoint)

		backend, err := otel.NewOTLP(ctx, otel.OTLPConfig{
			Protocol: cfg.OTel.Protocol,
			Endpoint: cfg.OTel.Endpoint,
			Insecure: cfg.OTel.Insecure,
			Headers:  cfg.OTel.Headers,
			Interval: cfg.OTel.Interval,
			Resource: cfg.OTel.Resource,
		})
		if err != nil {
			return nil, err
		}

		p.onClose(backend.Shutdown)
		backends = append(backends, remote(backend))
	}

	if cfg.InfluxDB != nil {
		logger.Info("setup: configuring influxdb backend: url=%s bucket=%s", cfg.InfluxDB.URL, cfg.InfluxDB.Bucket)

		backend, err := influxdb.New(influxdb.Config{
			URL:     cfg.InfluxDB.URL,
			Token:   cfg.InfluxDB.Token,
			Org:     cfg.InfluxDB.Org,
			Bucket:  cfg.InfluxDB.Bucket,
			TagKeys: cfg.InfluxDB.TagKeys,
		})
		if err != nil {
			return nil, err
		}

		p.onClose(func(ctx context.Context) error { return backend.Close() })
		backends = append(backends, remote(backend))
	}

	if cfg.Elasticsearch != nil {
		logger.Info("setup: configuring elasticsearch backend: index=%s", cfg.Elasticsearch.Index)

		backend, err := elasticsearch.New(elasticsearch.Config{
			Addresses: cfg.Elasticsearch.Addresses,
			Username:  cfg.Elasticsearch.Username,
			Password:  cfg.Elasticsearch.Password,
			Index:     cfg.Elasticsearch.Index,
		})
		if err != nil {
			return nil, err
		}

		backends = append(backends, remote(backend))
	}

	if len(backends) == 0 {
		logger.Warn("setup: backends block is empty; metrics are discarded")
	}

	return backends, nil
}

func buildHooks(cfg *meta.HooksConfig) []te.Hook {
	if cfg == nil {
		return nil
	}

	var chain []te.Hook

	if len(cfg.Static) > 0 {
		fields := make(te.Fields, len(cfg.Static))
		for key, value := range cfg.Static {
			fields[key] = value
		}
		chain = append(chain, hooks.Static(fields))
	}

	if cfg.Status {
		chain = append(chain, hooks.Status())
	}

	if cfg.ErrorFields {
		chain = append(chain, hooks.ErrorFields())
	}

	if cfg.HTTPStatus {
		chain = append(chain, hooks.HTTPStatus())
	}

	return chain
}

// String describes the pipeline for startup logs.
func (p *Pipeline) String() string {
	return fmt.Sprintf("pipeline: backends=%d hooks=%d", len(p.Config.Backends()), len(p.Config.Hooks()))
}
