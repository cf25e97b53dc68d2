package timeexecution

import (
	"context"
	"fmt"
)

// Dispatcher sends finalized metrics to every backend of a Config.
type Dispatcher struct {
	config *Config
}

// NewDispatcher creates a dispatcher reading its backends from config. A nil config means the
// process-wide default.
func NewDispatcher(config *Config) *Dispatcher {
	if config == nil {
		config = Default()
	}

	return &Dispatcher{config: config}
}

// Dispatch writes metric to every configured backend, in configured order. Each backend receives
// the metric name and its own copy of the remaining fields. A failing backend is reported and does
// not prevent the write to the backends after it. The only error returned is an ErrInvalidMetric
// for a metric lacking a name or numeric value, in which case no backend is written to.
func (d *Dispatcher) Dispatch(ctx context.Context, metric Metric) error {
	return d.config.Dispatch(ctx, metric)
}

// Dispatch writes metric to every configured backend. See Dispatcher.Dispatch.
func (c *Config) Dispatch(ctx context.Context, metric Metric) error {
	return c.load().dispatch(ctx, metric)
}

// dispatch fans a metric out to the backends of one configuration snapshot.
func (s *settings) dispatch(ctx context.Context, metric Metric) error {
	if err := metric.Validate(); err != nil {
		s.report(ctx, fmt.Errorf("dispatch: refusing to dispatch metric: err=%w", err), map[string]string{
			"stage":  "dispatch",
			"metric": metric.Name(),
		})
		return err
	}

	name := metric.Name()
	payload := metric.Payload()

	for _, backend := range s.backends {
		if err := s.write(ctx, backend, name, payload.Clone()); err != nil {
			bName := backendName(backend)
			s.report(ctx, &BackendError{Backend: bName, Metric: name, Err: err}, map[string]string{
				"stage":   "dispatch",
				"backend": bName,
				"metric":  name,
			})
			continue
		}

		s.logger.Debug("dispatch: wrote metric: backend=%s metric=%s", backendName(backend), name)
	}

	return nil
}

// write performs a single backend write, converting panics into errors. With a dispatch timeout
// configured, the write runs on its own goroutine and is abandoned once the timeout expires.
func (s *settings) write(ctx context.Context, backend Backend, name string, fields Fields) error {
	if s.timeout <= 0 {
		return safeWrite(ctx, backend, name, fields)
	}

	writeCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result := make(chan error, 1)
	go func() {
		result <- safeWrite(writeCtx, backend, name, fields)
	}()

	select {
	case err := <-result:
		return err
	case <-writeCtx.Done():
		return fmt.Errorf("dispatch: backend did not complete write: timeout=%v err=%w", s.timeout, writeCtx.Err())
	}
}

// safeWrite calls Write, recovering from a panicking or nil backend.
func safeWrite(ctx context.Context, backend Backend, name string, fields Fields) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()

	return backend.Write(ctx, name, fields)
}
