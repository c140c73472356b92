package telemetry

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultReadHeaderTimeout = 10 * time.Second

// Exporter serves the recorder's metrics over HTTP at /metrics.
type Exporter struct {
	registry *prometheus.Registry

	mu     sync.Mutex
	server *http.Server
}

// NewExporter builds a registry holding the recorder's collectors plus the Go
// runtime and process collectors.
func NewExporter(r *Recorder) (*Exporter, error) {
	reg := prometheus.NewRegistry()
	if err := r.Register(reg); err != nil {
		return nil, err
	}
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return &Exporter{registry: reg}, nil
}

// Registry returns the underlying Prometheus registry.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Handler returns the /metrics handler.
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Serve serves metrics on lis until Shutdown is called. It returns nil after
// a graceful shutdown.
func (e *Exporter) Serve(lis net.Listener) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", e.Handler())

	e.mu.Lock()
	e.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
	}
	srv := e.server
	e.mu.Unlock()

	if err := srv.Serve(lis); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the exporter.
func (e *Exporter) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.server == nil {
		return nil
	}
	return e.server.Shutdown(ctx)
}
