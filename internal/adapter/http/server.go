package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/couchcryptid/natal-chart-service/internal/domain"
	"github.com/couchcryptid/natal-chart-service/internal/interpret"
	"github.com/couchcryptid/natal-chart-service/internal/report"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const maxBodyBytes = 1 << 20

// Place autocomplete bounds: shorter queries return no suggestions without
// reaching the geocoder.
const (
	minPlaceQuery  = 3
	maxPlaceResult = 5
)

// ChartComputer computes a chart and its element tally for a birth request.
type ChartComputer interface {
	Compute(ctx context.Context, req domain.ChartRequest) (domain.ChartResult, error)
}

// PlaceSuggester proposes birth places for a partial name, best match first.
type PlaceSuggester interface {
	Suggest(ctx context.Context, query string, n int) ([]domain.Location, error)
}

// Server exposes the chart API plus health, readiness, and metrics routes.
type Server struct {
	httpServer *http.Server
	charts     ChartComputer
	places     PlaceSuggester
	catalog    *interpret.Catalog
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the chart API plus /healthz, /readyz,
// and /metrics. A nil places leaves /places unregistered.
func NewServer(addr string, charts ChartComputer, places PlaceSuggester, catalog *interpret.Catalog, ready sharedobs.ReadinessChecker, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		charts:  charts,
		places:  places,
		catalog: catalog,
		logger:  logger,
	}

	mux.HandleFunc("POST /chart", s.handleChart)
	mux.HandleFunc("GET /interpretations", s.handleInterpretations)
	mux.HandleFunc("POST /export-pdf", s.handleExportPDF)
	if places != nil {
		mux.HandleFunc("GET /places", s.handlePlaces)
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
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

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	var req domain.ChartRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	res, err := s.charts.Compute(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// placeJSON is one autocomplete entry.
type placeJSON struct {
	DisplayName string  `json:"display_name"`
	Latitude    float64 `json:"lat"`
	Longitude   float64 `json:"lon"`
	Timezone    string  `json:"timezone,omitempty"`
}

func (s *Server) handlePlaces(w http.ResponseWriter, r *http.Request) {
	out := []placeJSON{}

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if utf8.RuneCountInString(q) < minPlaceQuery {
		writeJSON(w, http.StatusOK, out)
		return
	}

	locs, err := s.places.Suggest(r.Context(), q, maxPlaceResult)
	if err != nil {
		s.writeError(w, err)
		return
	}
	for _, l := range locs {
		out = append(out, placeJSON{
			DisplayName: l.DisplayName,
			Latitude:    l.Latitude,
			Longitude:   l.Longitude,
			Timezone:    l.Timezone,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleInterpretations(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Tables())
}

// exportRequest accepts either a birth request to compute, or a chart the
// client already holds along with the birth details it was computed from.
type exportRequest struct {
	domain.ChartRequest
	Chart *domain.Chart        `json:"chart,omitempty"`
	User  *domain.ChartRequest `json:"user,omitempty"`
}

func (s *Server) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	var res domain.ChartResult
	switch {
	case req.Chart != nil:
		c := *req.Chart
		if req.User != nil {
			c = c.WithMetadata(c.ID, req.User.City, req.User.Date, req.User.Time, c.ComputedAt)
		}
		res = domain.ChartResult{Chart: c, Elements: domain.AnalyzeElements(c)}
	default:
		var err error
		if res, err = s.charts.Compute(r.Context(), req.ChartRequest); err != nil {
			s.writeError(w, err)
			return
		}
	}

	pdf, err := report.BuildChartPDF(res.Chart, res.Elements, s.catalog)
	if err != nil {
		s.writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="natal-chart.pdf"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(pdf); err != nil {
		s.logger.Warn("write pdf response failed", "error", err)
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: decode request body: %w", domain.ErrInvalidInput, err)
	}
	return nil
}

// statusFor maps domain error kinds to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrLocationNotFound), errors.Is(err, domain.ErrTimezoneNotFound):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrEphemerisFailure), errors.Is(err, domain.ErrGeocoderUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // headers already sent
}
