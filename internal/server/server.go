// Package server exposes zone queries over HTTP as JSON.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/pable/go-cs-zones/internal/analysis"
	"github.com/pable/go-cs-zones/internal/metrics"
	"github.com/pable/go-cs-zones/internal/model"
)

// ErrBadRequest marks malformed query parameters.
var ErrBadRequest = errors.New("bad request")

const (
	readHeaderTimeout = 5 * time.Second
	writeTimeout      = 30 * time.Second
	idleTimeout       = 60 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Lister lists stored datasets.
type Lister interface {
	ListDatasets() ([]model.Dataset, error)
}

// Server routes HTTP requests to the analysis service.
type Server struct {
	svc     *analysis.Service
	lister  Lister
	metrics *metrics.Manager
	log     zerolog.Logger
	mux     *http.ServeMux
}

// New builds a Server and registers its routes.
func New(svc *analysis.Service, lister Lister, m *metrics.Manager, log zerolog.Logger) *Server {
	s := &Server{svc: svc, lister: lister, metrics: m, log: log, mux: http.NewServeMux()}
	s.route("GET /healthz", "/healthz", s.handleHealth)
	s.route("GET /datasets", "/datasets", s.handleDatasets)
	s.route("GET /datasets/{id}/dominance", "/datasets/{id}/dominance", s.handleDominance)
	s.route("GET /datasets/{id}/entry-time", "/datasets/{id}/entry-time", s.handleEntryTime)
	s.route("GET /datasets/{id}/heatmap", "/datasets/{id}/heatmap", s.handleHeatmap)
	s.mux.Handle("GET /metrics", m.Handler())
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.log.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// route registers h with request metrics labelled by the route template.
func (s *Server) route(pattern, label string, h http.HandlerFunc) {
	s.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		h(wrapped, r)
		s.metrics.ObserveHTTP(label, r.Method, wrapped.statusCode, time.Since(start))
		s.log.Debug().Str("method", r.Method).Str("path", r.URL.Path).
			Int("status", wrapped.statusCode).Dur("took", time.Since(start)).Msg("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDatasets(w http.ResponseWriter, r *http.Request) {
	list, err := s.lister.ListDatasets()
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]datasetJSON, 0, len(list))
	for _, ds := range list {
		out = append(out, toDatasetJSON(ds))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDominance(w http.ResponseWriter, r *http.Request) {
	res, err := s.svc.Dominance(r.PathValue("id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleEntryTime(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.svc.EntryTime(r.PathValue("id"), q)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	res, err := s.svc.Heatmap(r.PathValue("id"), q)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func parseQuery(r *http.Request) (analysis.Query, error) {
	v := r.URL.Query()
	q := analysis.Query{Team: v.Get("team"), Area: v.Get("area")}
	if q.Team == "" || q.Area == "" {
		return q, fmt.Errorf("%w: team and area are required", ErrBadRequest)
	}
	side, err := model.ParseSide(v.Get("side"))
	if err != nil {
		return q, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	q.Side = side
	return q, nil
}

type datasetJSON struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	MapName     string    `json:"map_name,omitempty"`
	SampleCount int       `json:"sample_count"`
	ImportedAt  time.Time `json:"imported_at"`
}

func toDatasetJSON(ds model.Dataset) datasetJSON {
	return datasetJSON{
		ID:          ds.ID,
		Name:        ds.Name,
		MapName:     ds.MapName,
		SampleCount: ds.SampleCount,
		ImportedAt:  ds.ImportedAt,
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, ErrBadRequest):
		status, code = http.StatusBadRequest, "bad_request"
	case errors.Is(err, analysis.ErrDatasetNotFound):
		status, code = http.StatusNotFound, "not_found"
	case analysis.IsDomainError(err):
		status, code = http.StatusUnprocessableEntity, "no_result"
	default:
		s.log.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, errorResponse{Code: code, Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// responseWriter captures the status code for metrics.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
