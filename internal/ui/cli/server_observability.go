package cli

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"

	"weave/internal/core/app"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ObservabilityServer exposes /metrics, /health and /build while watching.
type ObservabilityServer struct {
	addr     string
	health   *app.HealthService
	server   *http.Server
	listener net.Listener
}

func NewObservabilityServer(addr string, health *app.HealthService) *ObservabilityServer {
	return &ObservabilityServer{addr: addr, health: health}
}

func (s *ObservabilityServer) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		status := s.health.Check(r.Context())
		code := http.StatusOK
		if status.Status != "up" {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, status)
	})
	mux.HandleFunc("GET /build", func(w http.ResponseWriter, r *http.Request) {
		report, ok := s.health.LastBuild()
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no build yet"})
			return
		}
		writeJSON(w, http.StatusOK, report)
	})
	return mux
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Debug("write response", "error", err)
	}
}

// Start binds before returning so a busy port fails the caller, then serves
// in the background.
func (s *ObservabilityServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.server = &http.Server{
		Handler:     s.routes(),
		BaseContext: func(net.Listener) context.Context { return ctx },
	}
	slog.Info("observability server listening", "addr", ln.Addr().String())

	go func() {
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			slog.Error("observability server failed", "error", err)
		}
	}()
	return nil
}

// Addr is the bound address once started; it differs from the configured
// one when port 0 was requested.
func (s *ObservabilityServer) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

func (s *ObservabilityServer) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
