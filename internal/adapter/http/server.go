package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/tsg-reader/internal/domain"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RecordSource exposes the most recently parsed record.
type RecordSource interface {
	LastRecord() (domain.Record, bool)
}

// Server exposes health, readiness, metrics, and latest-record HTTP endpoints.
type Server struct {
	httpServer *http.Server
	sessionID  string
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// /records/latest routes.
func NewServer(addr string, ready sharedobs.ReadinessChecker, records RecordSource, sessionID string, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		sessionID: sessionID,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.HandleFunc("GET /records/latest", handleLatest(records))
	mux.Handle("GET /metrics", promhttp.Handler())

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy", "session_id": s.sessionID})
}

func handleLatest(records RecordSource) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		rec, ok := records.LastRecord()
		if !ok {
			sharedobs.WriteJSON(w, http.StatusNotFound, map[string]string{"error": "no record parsed yet"})
			return
		}
		sharedobs.WriteJSON(w, http.StatusOK, rec)
	}
}
