package prometheus

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kpn-digital/timeexecution/log"
)

// Exporter serves a registry over HTTP for Prometheus to scrape.
type Exporter struct {
	addr   string
	path   string
	server *http.Server
	logger log.Logger
}

// NewExporter creates an exporter serving gatherer at path on addr. Scrapes are counted by the
// promhttp handler metrics, registered with registerer if it is not nil.
func NewExporter(addr string, path string, gatherer prometheus.Gatherer, registerer prometheus.Registerer, logger log.Logger) *Exporter {
	var handler http.Handler = promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{EnableOpenMetrics: true})
	if registerer != nil {
		handler = promhttp.InstrumentMetricHandler(registerer, handler)
	}

	mux := http.NewServeMux()
	mux.Handle(path, handler)

	return &Exporter{
		addr:   addr,
		path:   path,
		logger: logger,
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler returns the HTTP handler serving the metrics path.
func (e *Exporter) Handler() http.Handler {
	return e.server.Handler
}

// Start serves HTTP requests until ctx is done or the server fails.
func (e *Exporter) Start(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		e.logger.Info("prometheus: starting exporter: addr=%s path=%s", e.addr, e.path)
		if err := e.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return e.Stop()
	}
}

// Stop gracefully stops the exporter.
func (e *Exporter) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	e.logger.Info("prometheus: shutting down exporter")

	return e.server.Shutdown(ctx)
}
