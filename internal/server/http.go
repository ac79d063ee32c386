package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/socially/internal/shared"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 10 * time.Second

// MetricsHandler serves the prometheus exposition format for a gatherer.
type MetricsHandler struct {
	http.Handler
}

// NewMetricsHandler creates a [MetricsHandler] for gatherer.
func NewMetricsHandler(gatherer prometheus.Gatherer) *MetricsHandler {
	return &MetricsHandler{Handler: promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})}
}

func (h *MetricsHandler) Routes() []string { return []string{"/metrics"} }

// HealthHandler reports liveness together with the linked provider.
type HealthHandler struct {
	provider string
	started  time.Time
}

// NewHealthHandler creates a [HealthHandler] for the named provider.
func NewHealthHandler(provider string) *HealthHandler {
	return &HealthHandler{provider: provider, started: time.Now()}
}

func (h *HealthHandler) Routes() []string { return []string{"/healthz"} }

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	body, err := shared.MarshalJSON(map[string]string{
		"status":   "ok",
		"provider": h.provider,
		"uptime":   time.Since(h.started).Round(time.Second).String(),
	}, false)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// Server is the metrics and health HTTP server.
type Server struct {
	server *http.Server
	logger *log.Logger
}

// New builds a [Server] listening on cfg with the metrics and health handlers registered.
func New(cfg shared.ServerConfig, gatherer prometheus.Gatherer, provider string, logger *log.Logger) *Server {
	if logger == nil {
		logger = shared.DefaultLogger()
	}
	logger = shared.WithLogger(logger, "component", "server")

	router := NewBasicRouter()
	router.Use(RecoverMiddleware(logger), LoggingMiddleware(logger))
	router.Handler(NewMetricsHandler(gatherer))
	router.Handler(NewHealthHandler(provider))

	return &Server{
		server: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger,
	}
}

// Handler returns the root handler, for tests.
func (s *Server) Handler() http.Handler { return s.server.Handler }

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("starting metrics server", "addr", s.server.Addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("failed to shut down metrics server", "error", err)
		}
	}()

	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server failed: %w", err)
	}
	return nil
}
