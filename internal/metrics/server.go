package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"breathein/internal/api"
	"breathein/internal/logging"
)

// StatusFunc returns the current daemon status.
type StatusFunc func() api.DaemonStatus

// Server serves metrics and status over HTTP.
type Server struct {
	bind     string
	logger   *slog.Logger
	listener net.Listener
	server   *http.Server
}

// NewServer returns nil when bind is empty.
func NewServer(bind string, reg *Registry, status StatusFunc, logger *slog.Logger) *Server {
	bind = strings.TrimSpace(bind)
	if bind == "" || reg == nil {
		return nil
	}
	srv := &Server{
		bind:   bind,
		logger: logging.NewComponentLogger(logger, "metrics"),
	}
	srv.server = &http.Server{
		Handler:           NewRouter(reg, status),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

// NewRouter builds the chi router. A nil status func serves 503 on
// /v1/status.
func NewRouter(reg *Registry, status StatusFunc) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg.Gatherer(), promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/v1/status", func(w http.ResponseWriter, _ *http.Request) {
		if status == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "status unavailable"})
			return
		}
		writeJSON(w, http.StatusOK, status())
	})
	return r
}

// Start listens on the bind address and serves in the background.
func (s *Server) Start() error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("metrics listen %s: %w", s.bind, err)
	}
	s.listener = listener
	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.WarnWithContext(s.logger, "metrics server stopped", "metrics_server_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "metrics and HTTP status unavailable"),
			)
		}
	}()
	s.logger.Info("metrics server listening", logging.String("addr", listener.Addr().String()))
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil || s.listener == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
