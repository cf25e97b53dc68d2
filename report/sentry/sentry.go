// Package sentry reports telemetry failures to Sentry.
package sentry

import (
	"context"
	"fmt"

	"github.com/getsentry/raven-go"
)

// Reporter captures every reported failure as a Sentry event, tagged with the pipeline stage,
// backend, and metric involved.
type Reporter struct {
	client *raven.Client
}

// New creates a reporter sending to dsn. Events carry release as their release version.
func New(dsn string, release string) (*Reporter, error) {
	client, err := raven.New(dsn)
	if err != nil {
		return nil, fmt.Errorf("sentry: error creating client: err=%w", err)
	}

	if release != "" {
		client.SetRelease(release)
	}

	return &Reporter{client: client}, nil
}

// Report captures err. Delivery happens in the background.
func (r *Reporter) Report(ctx context.Context, err error, tags map[string]string) {
	r.client.CaptureError(err, tags)
}

// Close waits for in-flight events to be sent and releases the client.
func (r *Reporter) Close() error {
	r.client.Wait()
	r.client.Close()

	return nil
}
