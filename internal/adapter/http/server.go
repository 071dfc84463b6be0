package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/windwardlabs/regatta-forecast/internal/areas"
	"github.com/windwardlabs/regatta-forecast/internal/domain"
	"github.com/windwardlabs/regatta-forecast/internal/forecast"
)

// BundleProvider serves bundles and exposes the cache for inspection.
type BundleProvider interface {
	Get(ctx context.Context, area domain.RaceArea) (domain.AreaBundle, error)
	Entries(ctx context.Context) ([]forecast.EntryInfo, error)
	Clear(ctx context.Context) (int, error)
}

// RefreshTrigger rebuilds every area's bundle on demand.
type RefreshTrigger interface {
	RefreshAll(ctx context.Context) map[string]error
}

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Server exposes the forecast API plus health, readiness, and metrics routes.
type Server struct {
	httpServer *http.Server
	registry   *areas.Registry
	bundles    BundleProvider
	refresher  RefreshTrigger
	logger     *slog.Logger
}

// NewServer creates the API server. Routes:
//
//	GET    /healthz
//	GET    /readyz
//	GET    /metrics
//	GET    /v1/areas
//	GET    /v1/areas/{key}/bundle
//	POST   /v1/refresh
//	GET    /v1/cache
//	DELETE /v1/cache
func NewServer(addr string, registry *areas.Registry, bundles BundleProvider, refresher RefreshTrigger, ready ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:        addr,
			Handler:     mux,
			ReadTimeout: 10 * time.Second,
			// A refresh pass may rebuild every area against slow
			// upstreams, so responses get a generous deadline.
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		registry:  registry,
		bundles:   bundles,
		refresher: refresher,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /v1/areas", s.handleListAreas)
	mux.HandleFunc("GET /v1/areas/{key}/bundle", s.handleBundle)
	mux.HandleFunc("POST /v1/refresh", s.handleRefresh)
	mux.HandleFunc("GET /v1/cache", s.handleCacheEntries)
	mux.HandleFunc("DELETE /v1/cache", s.handleCacheClear)

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

func (s *Server) handleListAreas(w http.ResponseWriter, _ *http.Request) {
	list := s.registry.All()
	writeJSON(w, http.StatusOK, map[string]any{
		"areas": list,
		"count": len(list),
	})
}

func (s *Server) handleBundle(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	area, ok := s.registry.Get(key)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown race area: " + key})
		return
	}

	bundle, err := s.bundles.Get(r.Context(), area)
	if err != nil {
		s.logger.Error("bundle request failed", "area", key, "error", err)
		// Upstream errors may carry provider URLs; clients get the
		// generic unavailable state, the log gets the detail.
		status := http.StatusInternalServerError
		if errors.Is(err, forecast.ErrWeatherUnavailable) {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, map[string]string{"error": "weather data unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, bundle)
}

type refreshResponse struct {
	Refreshed int               `json:"refreshed"`
	Failed    map[string]string `json:"failed,omitempty"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	failed := s.refresher.RefreshAll(r.Context())

	resp := refreshResponse{Refreshed: s.registry.Len() - len(failed)}
	if len(failed) > 0 {
		resp.Failed = make(map[string]string, len(failed))
		for key, err := range failed {
			resp.Failed[key] = err.Error()
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCacheEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.bundles.Entries(r.Context())
	if err != nil {
		s.logger.Error("cache listing failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "cache unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"entries": entries,
		"count":   len(entries),
	})
}

func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	n, err := s.bundles.Clear(r.Context())
	if err != nil {
		s.logger.Error("cache clear failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "cache unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"cleared": n})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort health response
}
