package exporter

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/galois26/ais-ingester/internal/config"
)

// Exporter serves the ingester's registry on /metrics and a liveness probe
// on /healthz while sessions run.
type Exporter struct {
	mux    *http.ServeMux
	server *http.Server
	ready  atomic.Bool
}

func New(cfg config.MetricsConfig, reg *prometheus.Registry) *Exporter {
	mux := http.NewServeMux()
	e := &Exporter{mux: mux}

	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if !e.ready.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("draining"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	e.server = &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	e.ready.Store(true)
	return e
}

// Handler exposes the mux for tests and embedding.
func (e *Exporter) Handler() http.Handler { return e.mux }

// Addr is the configured listen address.
func (e *Exporter) Addr() string { return e.server.Addr }

// ServeListener blocks until Shutdown. http.ErrServerClosed is not an error here.
func (e *Exporter) ServeListener(l net.Listener) error {
	err := e.server.Serve(l)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown marks the exporter unhealthy and stops the server.
func (e *Exporter) Shutdown(ctx context.Context) error {
	e.ready.Store(false)
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	return e.server.Shutdown(ctx)
}
