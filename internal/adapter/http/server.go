// Package http exposes the navigator's JSON API alongside health, readiness,
// and metrics endpoints.
package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/safepath-navigator/internal/domain"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// CrimeTypeCatalog serves the cached crime-type list.
type CrimeTypeCatalog interface {
	Types(ctx context.Context) []string
}

// Navigator is the session state the API reads and drives.
type Navigator interface {
	Filter() domain.FilterState
	SetFilter(ctx context.Context, f domain.FilterState) []domain.CrimeRecord
	Records() []domain.CrimeRecord
	RefreshCrimes(ctx context.Context, vp domain.Viewport) []domain.CrimeRecord
	RangeCrimes(ctx context.Context, b domain.Bounds) []domain.CrimeRecord
	PlanRoutes(ctx context.Context, origin, destination string) (domain.RoutePlan, error)
	Plan() (domain.RoutePlan, bool)
	Hover(originalIndex int) ([]domain.DisplayState, error)
	Leave(originalIndex int) ([]domain.DisplayState, error)
	Select(originalIndex int) ([]domain.DisplayState, error)
	DisplayStates() []domain.DisplayState
}

// Server exposes the API plus /healthz, /readyz, and /metrics.
type Server struct {
	httpServer *http.Server
	nav        Navigator
	catalog    CrimeTypeCatalog
	logger     *slog.Logger
}

// NewServer creates an HTTP server with all routes registered.
func NewServer(addr string, nav Navigator, catalog CrimeTypeCatalog, ready ReadinessChecker, logger *slog.Logger) *Server {
	router := mux.NewRouter()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		nav:     nav,
		catalog: catalog,
		logger:  logger,
	}

	router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/readyz", s.handleReady(ready)).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(s.logRequests)
	api.HandleFunc("/crime-types", s.handleCrimeTypes).Methods(http.MethodGet)
	api.HandleFunc("/filter", s.handleGetFilter).Methods(http.MethodGet)
	api.HandleFunc("/filter", s.handlePutFilter).Methods(http.MethodPut)
	api.HandleFunc("/crimes", s.handleGetCrimes).Methods(http.MethodGet)
	api.HandleFunc("/crimes/refresh", s.handleRefreshCrimes).Methods(http.MethodPost)
	api.HandleFunc("/crimes/range", s.handleRangeCrimes).Methods(http.MethodGet)
	api.HandleFunc("/routes", s.handleGetRoutes).Methods(http.MethodGet)
	api.HandleFunc("/routes", s.handlePlanRoutes).Methods(http.MethodPost)
	api.HandleFunc("/routes/{index:[0-9]+}/{action:hover|leave|select}", s.handleInteraction).Methods(http.MethodPost)

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
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			s.writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug("api request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

// writeJSON encodes v before writing the header; encode failures answer 500.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("encode response", "status", status, "error", err)
		status = http.StatusInternalServerError
		body = []byte(`{"error":"response encoding failed"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n')) //nolint:errcheck // client may have gone away
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
