package timeexecution

import (
	"context"
	"sort"
	"strings"

	"github.com/kpn-digital/timeexecution/log"
)

// Reporter receives telemetry failures: failed hooks, failed backend writes, and invalid metrics.
// Reports are the only visible effect of such failures; they never reach the timed call.
type Reporter interface {
	Report(ctx context.Context, err error, tags map[string]string)
}

// LogReporter reports failures as error log lines.
type LogReporter struct {
	Logger log.Logger
}

// NewLogReporter creates a reporter logging through logger.
func NewLogReporter(logger log.Logger) *LogReporter {
	return &LogReporter{Logger: logger}
}

// Report logs err along with its tags, sorted by key.
func (r *LogReporter) Report(ctx context.Context, err error, tags map[string]string) {
	keys := make([]string, 0, len(tags))
	for key := range tags {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, key+"="+tags[key])
	}

	r.Logger.Error("timeexecution: %v [%s]", err, strings.Join(pairs, " "))
}

// MultiReporter fans a report out to several reporters in order.
type MultiReporter []Reporter

// Report forwards the report to every reporter.
func (m MultiReporter) Report(ctx context.Context, err error, tags map[string]string) {
	for _, reporter := range m {
		reporter.Report(ctx, err, tags)
	}
}
