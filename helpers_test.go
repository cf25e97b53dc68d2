package timeexecution_test

import (
	"context"
	"sync"

	te "github.com/kpn-digital/timeexecution"
	"github.com/kpn-digital/timeexecution/backends/memory"
	"github.com/kpn-digital/timeexecution/log"
)

// reported is a single failure captured by recordingReporter.
type reported struct {
	err  error
	tags map[string]string
}

// recordingReporter keeps every report for inspection.
type recordingReporter struct {
	reports []reported
	mutex   sync.Mutex
}

func (r *recordingReporter) Report(ctx context.Context, err error, tags map[string]string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.reports = append(r.reports, reported{err: err, tags: tags})
}

func (r *recordingReporter) all() []reported {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return append([]reported(nil), r.reports...)
}

// newTestConfig creates a config with a fixed hostname, a silent logger, and a recording reporter.
func newTestConfig(backends []te.Backend, hooks []te.Hook, opts ...te.Option) (*te.Config, *recordingReporter) {
	reporter := &recordingReporter{}
	opts = append([]te.Option{
		te.WithHostname(te.StaticHostname("test-host")),
		te.WithLogger(log.NewNopLogger()),
		te.WithReporter(reporter),
	}, opts...)

	return te.NewConfig(backends, hooks, opts...), reporter
}

func hello() (string, error) {
	return "World", nil
}

var _ te.Backend = memory.New()
