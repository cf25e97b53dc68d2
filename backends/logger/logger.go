// Package logger provides a backend writing every metric as a log line.
package logger

import (
	"context"
	"fmt"
	"strings"

	te "github.com/kpn-digital/timeexecution"
	"github.com/kpn-digital/timeexecution/log"
)

// Backend logs metrics through a log.Logger.
type Backend struct {
	logger log.Logger
	level  log.Level
}

// New creates a backend logging metrics at the given level.
func New(logger log.Logger, level log.Level) *Backend {
	return &Backend{logger: logger, level: level}
}

// Write logs the metric name and its fields, sorted by key.
func (b *Backend) Write(ctx context.Context, name string, fields te.Fields) error {
	keys := fields.SortedKeys()
	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%v", key, fields[key]))
	}

	line := fmt.Sprintf("metric: %s %s", name, strings.Join(pairs, " "))

	switch b.level {
	case log.Debug:
		b.logger.Debug("%s", line)
	case log.Info:
		b.logger.Info("%s", line)
	case log.Warn:
		b.logger.Warn("%s", line)
	case log.Error:
		b.logger.Error("%s", line)
	default:
		return fmt.Errorf("logger: unsupported log level: level=%s", b.level)
	}

	return nil
}

func (b *Backend) String() string {
	return "logger"
}
