// Package api exposes the engine's read-only HTTP surface: health,
// running status, and a window of recent strategy outcomes. Operator
// control-plane and push (websocket) surfaces are out of scope; see
// DESIGN.md for the teacher features dropped alongside them.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/mev-engine/sandwich-arb-engine/internal/config"
	"github.com/mev-engine/sandwich-arb-engine/pkg/metrics"
	"github.com/mev-engine/sandwich-arb-engine/pkg/strategy"
)

// Server is the status/health REST API.
type Server struct {
	cfg       *config.Config
	manager   *strategy.Manager
	collector *metrics.Collector
	log       *zap.SugaredLogger

	httpServer *http.Server
	startedAt  time.Time
}

// NewServer constructs a Server. manager and collector are read, never
// mutated, by every handler.
func NewServer(cfg *config.Config, manager *strategy.Manager, collector *metrics.Collector, log *zap.SugaredLogger) *Server {
	s := &Server{cfg: cfg, manager: manager, collector: collector, log: log, startedAt: time.Now()}
	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      s.router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}
	return s
}

func (s *Server) router() http.Handler {
	router := mux.NewRouter()
	router.Use(s.loggingMiddleware)

	router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/metrics", metrics.PrometheusHandler().ServeHTTP).Methods(http.MethodGet)

	v1 := router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	v1.HandleFunc("/opportunities", s.handleRecentOpportunities).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
	})
	return c.Handler(router)
}

// Start begins serving in a background goroutine.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.log.Errorw("api server stopped with error", "error", err)
		}
	}()
	s.log.Infow("api server listening", "addr", s.httpServer.Addr)
	return nil
}

// Stop shuts the HTTP server down gracefully.
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Uptime    string    `json:"uptime"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, healthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Uptime:    time.Since(s.startedAt).Round(time.Second).String(),
	})
}

type statusResponse struct {
	Status    string             `json:"status"`
	Uptime    string             `json:"uptime"`
	Timestamp time.Time          `json:"timestamp"`
	Strategy  strategy.Stats     `json:"strategy"`
	Recent    []metrics.Record   `json:"recent_opportunities"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, statusResponse{
		Status:    "running",
		Uptime:    time.Since(s.startedAt).Round(time.Second).String(),
		Timestamp: time.Now(),
		Strategy:  s.manager.GetStats(),
		Recent:    s.collector.Recent(10),
	})
}

func (s *Server) handleRecentOpportunities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.collector.Recent(100))
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (w *loggingResponseWriter) WriteHeader(code int) {
	w.statusCode = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		s.log.Debugw("api request", "method", r.Method, "path", r.URL.Path, "status", wrapped.statusCode, "duration", time.Since(start))
	})
}
