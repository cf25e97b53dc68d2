package timeexecution

import (
	"context"
	"fmt"
)

// Backend is a sink capable of persisting metrics to some external store. Write receives the
// metric name, used as the series or index selector, and the remaining fields as payload. The
// payload map is owned by the backend for the duration of the call.
//
// Backends are shared by every goroutine emitting metrics, so Write must be safe for concurrent
// use. A backend that wants a readable identity in failure reports implements fmt.Stringer.
type Backend interface {
	Write(ctx context.Context, name string, fields Fields) error
}

// BackendFunc adapts an ordinary function to the Backend interface.
type BackendFunc func(ctx context.Context, name string, fields Fields) error

// Write calls f.
func (f BackendFunc) Write(ctx context.Context, name string, fields Fields) error {
	return f(ctx, name, fields)
}

// backendName identifies a backend in logs and reports.
func backendName(backend Backend) string {
	if named, ok := backend.(fmt.Stringer); ok {
		return named.String()
	}

	return fmt.Sprintf("%T", backend)
}
