package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes the tvscraper registry on its own port, away from the REST
// API so scrapes never go through API auth.
type Server struct {
	httpServer *http.Server
	log        *slog.Logger
}

// promLogger adapts slog for promhttp's error logger.
type promLogger struct {
	log *slog.Logger
}

func (l *promLogger) Println(v ...interface{}) {
	l.log.Error("metrics handler error", "error", fmt.Sprint(v...))
}

// NewServer creates a server answering /metrics from reg on the given port.
func NewServer(port int, reg *prometheus.Registry) *Server {
	log := slog.With("component", "metrics-server")

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newMux(reg, log),
			ReadHeaderTimeout: 5 * time.Second,
		},
		log: log,
	}
}

func newMux(reg *prometheus.Registry, log *slog.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		Registry:          reg,
		ErrorLog:          &promLogger{log: log},
		EnableOpenMetrics: true,
	}))
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/metrics", http.StatusFound)
	})
	return mux
}

// Handler returns the HTTP handler, for tests.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("serving tvscraper metrics", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.log.Error("metrics server stopped", "error", err)
		return err
	}
	return nil
}

// Shutdown stops the server, waiting for in-flight scrapes.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// NewRegistry builds the registry served by Server. It holds the Go runtime
// and process collectors, a StoreCollector over source, and the mutation and
// resolution metrics returned alongside it.
func NewRegistry(source StatsSource) (*prometheus.Registry, *Metrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		NewStoreCollector(source),
	)
	return reg, New(reg)
}
