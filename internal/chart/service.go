// Package chart computes natal charts from a birth request by resolving the
// place, converting local birth time to a Julian Day, and querying the
// ephemeris.
package chart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	_ "time/tzdata" // birth places may use zones missing from the host

	"github.com/couchcryptid/natal-chart-service/internal/domain"
	"github.com/couchcryptid/natal-chart-service/internal/observability"
	"github.com/google/uuid"
)

// Service computes charts. It is safe for concurrent use when its
// collaborators are.
type Service struct {
	eph           domain.Ephemeris
	locator       domain.Locator
	defaultSystem domain.HouseSystem
	metrics       *observability.Metrics
	logger        *slog.Logger
}

// NewService wires a chart service. defaultSystem applies to requests that
// do not name a house system; empty means Placidus.
func NewService(eph domain.Ephemeris, locator domain.Locator, defaultSystem domain.HouseSystem, metrics *observability.Metrics, logger *slog.Logger) *Service {
	if defaultSystem == "" {
		defaultSystem = domain.Placidus
	}
	return &Service{
		eph:           eph,
		locator:       locator,
		defaultSystem: defaultSystem,
		metrics:       metrics,
		logger:        logger,
	}
}

// Compute returns the chart for req together with its element tally.
func (s *Service) Compute(ctx context.Context, req domain.ChartRequest) (domain.ChartResult, error) {
	c, err := s.ComputeChart(ctx, req)
	if err != nil {
		return domain.ChartResult{}, err
	}
	return domain.ChartResult{Chart: c, Elements: domain.AnalyzeElements(c)}, nil
}

// ComputeChart validates req, resolves its place, and builds the chart.
// Errors wrap one of the domain error kinds.
func (s *Service) ComputeChart(ctx context.Context, req domain.ChartRequest) (domain.Chart, error) {
	start := time.Now()
	system := s.defaultSystem

	c, err := s.compute(ctx, req, &system)
	s.metrics.ChartsComputed.WithLabelValues(string(system), outcome(err)).Inc()
	s.metrics.ChartDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.logger.Warn("chart computation failed",
			"error", err,
			"city", req.City,
			"date", req.Date,
			"time", req.Time,
		)
		return domain.Chart{}, err
	}

	s.logger.Debug("chart computed",
		"id", c.ID,
		"city", req.City,
		"house_system", system,
		"polarity", c.Polarity,
	)
	return c, nil
}

func (s *Service) compute(ctx context.Context, req domain.ChartRequest, system *domain.HouseSystem) (domain.Chart, error) {
	if err := req.Validate(); err != nil {
		return domain.Chart{}, err
	}
	if req.HouseSystem != "" {
		hs, err := domain.ParseHouseSystem(req.HouseSystem)
		if err != nil {
			return domain.Chart{}, err
		}
		*system = hs
	}

	loc, err := s.locator.Resolve(ctx, req.City)
	if err != nil {
		return domain.Chart{}, err
	}
	tz, err := time.LoadLocation(loc.Timezone)
	if err != nil {
		return domain.Chart{}, fmt.Errorf("%w: load %q: %w", domain.ErrTimezoneNotFound, loc.Timezone, err)
	}

	local, err := domain.ParseLocalTime(req.Date, req.Time, tz)
	if err != nil {
		return domain.Chart{}, err
	}

	c, err := domain.BuildChart(ctx, s.eph, domain.ChartInput{
		JulianDay:   domain.JulianDay(local.UTC()),
		Latitude:    loc.Latitude,
		Longitude:   loc.Longitude,
		HouseSystem: *system,
	})
	if err != nil {
		return domain.Chart{}, err
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	return c.WithMetadata(id, req.City, req.Date, req.Time, domain.Now()), nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, domain.ErrLocationNotFound):
		return "location"
	case errors.Is(err, domain.ErrTimezoneNotFound):
		return "timezone"
	case errors.Is(err, domain.ErrEphemerisFailure):
		return "ephemeris"
	case errors.Is(err, domain.ErrGeocoderUnavailable):
		return "geocoder"
	default:
		return "error"
	}
}
