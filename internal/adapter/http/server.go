package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/quake-report/internal/domain"
	"github.com/couchcryptid/quake-report/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/lo"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Source serves the latest loaded batch and accepts refresh requests.
type Source interface {
	ReadinessChecker
	Latest() (pipeline.Result, bool)
	Refresh()
}

// Connectivity reports whether the network is reachable.
type Connectivity interface {
	Available(ctx context.Context) bool
}

// Server exposes the earthquake list plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	source     Source
	network    Connectivity
	location   *time.Location
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /earthquakes, /refresh, /healthz,
// /readyz, and /metrics routes. Dates render in loc.
func NewServer(addr string, source Source, network Connectivity, loc *time.Location, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		source:   source,
		network:  network,
		location: loc,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(source))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /earthquakes", s.handleList)
	mux.HandleFunc("GET /earthquakes/{index}", s.handleOpen)
	mux.HandleFunc("POST /refresh", s.handleRefresh)

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
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

type listResponse struct {
	Status      string                `json:"status"`
	Count       int                   `json:"count"`
	FetchedAt   time.Time             `json:"fetched_at"`
	Earthquakes []domain.Presentation `json:"earthquakes"`
	Message     string                `json:"message,omitempty"`
	Error       string                `json:"error,omitempty"`
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	res, ok := s.source.Latest()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "loading"})
		return
	}

	resp := listResponse{
		Status:    "ok",
		Count:     len(res.Earthquakes),
		FetchedAt: res.FetchedAt,
		Earthquakes: lo.Map(res.Earthquakes, func(e domain.Earthquake, _ int) domain.Presentation {
			return domain.Present(e, s.location)
		}),
	}
	if res.Err != nil {
		resp.Error = res.Err.Error()
	}
	if len(res.Earthquakes) == 0 {
		resp.Status = "empty"
		resp.Message = domain.EmptyStateMessage(res.HasData, s.online(r.Context()))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleOpen hands the event detail page to the client's browser.
func (s *Server) handleOpen(w http.ResponseWriter, r *http.Request) {
	idx, err := strconv.Atoi(r.PathValue("index"))
	if err != nil || idx < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "index must be a non-negative integer"})
		return
	}
	res, _ := s.source.Latest()
	quake, err := lo.Nth(res.Earthquakes, idx)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no earthquake at index " + strconv.Itoa(idx)})
		return
	}
	http.Redirect(w, r, quake.URL, http.StatusFound)
}

func (s *Server) handleRefresh(w http.ResponseWriter, _ *http.Request) {
	s.source.Refresh()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "refreshing"})
}

func (s *Server) online(ctx context.Context) bool {
	if s.network == nil {
		return true
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.network.Available(ctx)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
