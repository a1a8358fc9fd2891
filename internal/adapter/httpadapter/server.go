package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/dock-health-etl/internal/domain"
	"github.com/couchcryptid/dock-health-etl/internal/report"
)

// Server exposes health, readiness, metrics, and history HTTP endpoints while
// the job is running.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// historyResponse is the body of GET /history.
type historyResponse struct {
	Column string            `json:"column"`
	Rows   []domain.CountRow `json:"rows"`
	Chart  report.Chart      `json:"chart"`
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics and
// /history routes. column names the count column of the history table.
func NewServer(addr string, ready sharedobs.ReadinessChecker, history report.HistoryReader, column string, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /history", s.handleHistory(history, column))

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

func (s *Server) handleHistory(history report.HistoryReader, column string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rows, err := history.Rows(r.Context())
		if err != nil {
			s.logger.Warn("history read failed", "error", err)
			sharedobs.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
			return
		}
		if rows == nil {
			rows = []domain.CountRow{}
		}
		sharedobs.WriteJSON(w, http.StatusOK, historyResponse{
			Column: column,
			Rows:   rows,
			Chart:  report.BuildChart(column, rows),
		})
	}
}
