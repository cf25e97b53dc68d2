package timeexecution

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/kpn-digital/timeexecution/log"
)

// Config is the configuration store of the emission pipeline: the ordered backends metrics are
// dispatched to, the ordered hook chain, and the providers used while emitting.
//
// Reads are lock-free. Configure replaces the whole configuration in a single atomic store, so a
// concurrent emission observes either the previous or the new configuration, never a mix. The
// store is meant to be configured at startup, before timed calls begin; concurrent Configure calls
// race and the last one wins.
type Config struct {
	current atomic.Pointer[settings]
}

// settings is an immutable snapshot of a Config.
type settings struct {
	backends []Backend
	hooks    []Hook
	hostname HostnameProvider
	reporter Reporter
	logger   log.Logger
	timeout  time.Duration

	// explicitReporter is set once WithReporter is applied; WithLogger then leaves the reporter alone.
	explicitReporter bool
}

// Option adjusts a Config beyond its backend and hook lists.
type Option func(*settings)

// WithHostname sets the provider of the hostname field.
func WithHostname(provider HostnameProvider) Option {
	return func(s *settings) {
		s.hostname = provider
	}
}

// WithReporter sets the reporter receiving telemetry failures.
func WithReporter(reporter Reporter) Option {
	return func(s *settings) {
		s.reporter = reporter
		s.explicitReporter = true
	}
}

// WithLogger sets the logger used for debug traces of emissions. Unless a reporter was given with
// WithReporter, now or in an earlier Configure, failures are reported through this logger.
func WithLogger(logger log.Logger) Option {
	return func(s *settings) {
		if !s.explicitReporter {
			s.reporter = NewLogReporter(logger)
		}
		s.logger = logger
	}
}

// WithDispatchTimeout bounds every backend write. A write still running when the timeout expires
// is reported and the dispatcher moves on to the next backend. Zero disables the bound.
func WithDispatchTimeout(timeout time.Duration) Option {
	return func(s *settings) {
		s.timeout = timeout
	}
}

// NewConfig creates a configuration store with the given backends and hooks. Without options it
// resolves the hostname from the operating system and reports failures to standard output.
func NewConfig(backends []Backend, hooks []Hook, opts ...Option) *Config {
	logger := log.NewConsoleLogger(log.Error)

	c := &Config{}
	c.current.Store(&settings{
		hostname: &OSHostname{},
		reporter: NewLogReporter(logger),
		logger:   logger,
	})
	c.Configure(backends, hooks, opts...)

	return c
}

// Configure replaces the active backend and hook lists. Options given here are applied on top of
// the previous configuration; settings not mentioned are kept. Backends and hooks are not
// validated: a malformed entry surfaces when it is first used.
func (c *Config) Configure(backends []Backend, hooks []Hook, opts ...Option) {
	next := *c.load()
	next.backends = append([]Backend(nil), backends...)
	next.hooks = append([]Hook(nil), hooks...)

	for _, opt := range opts {
		opt(&next)
	}

	c.current.Store(&next)
}

// Backends returns the currently configured backends, in dispatch order.
func (c *Config) Backends() []Backend {
	return append([]Backend(nil), c.load().backends...)
}

// Hooks returns the currently configured hooks, in execution order.
func (c *Config) Hooks() []Hook {
	return append([]Hook(nil), c.load().hooks...)
}

// Hostname returns the host identity used for timed metrics.
func (c *Config) Hostname() string {
	return c.load().host()
}

// load returns the current snapshot.
func (c *Config) load() *settings {
	return c.current.Load()
}

// host resolves the hostname field, tolerating an unset provider.
func (s *settings) host() string {
	if s.hostname == nil {
		return unknownName
	}

	return s.hostname.Hostname()
}

// report hands a failure to the configured reporter. A misbehaving reporter is contained here.
func (s *settings) report(ctx context.Context, err error, tags map[string]string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("timeexecution: reporter panicked: value=%v err=%v", r, err)
		}
	}()

	s.reporter.Report(ctx, err, tags)
}

// A single process-wide configuration, empty until Configure is called.
var defaultConfig = NewConfig(nil, nil)

// Default returns the process-wide configuration used by Configure, Wrap, and WriteMetric.
func Default() *Config {
	return defaultConfig
}

// Configure replaces the backends and hooks of the process-wide configuration.
func Configure(backends []Backend, hooks []Hook, opts ...Option) {
	defaultConfig.Configure(backends, hooks, opts...)
}

// Backends returns the backends of the process-wide configuration.
func Backends() []Backend {
	return defaultConfig.Backends()
}

// Hooks returns the hooks of the process-wide configuration.
func Hooks() []Hook {
	return defaultConfig.Hooks()
}
