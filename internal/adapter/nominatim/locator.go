package nominatim

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/couchcryptid/natal-chart-service/internal/domain"
	"github.com/couchcryptid/natal-chart-service/internal/observability"
)

// TimezoneFinder maps coordinates to an IANA timezone name, returning "" when
// the point lies in no zone. tzf.F satisfies it.
type TimezoneFinder interface {
	GetTimezoneName(lng, lat float64) string
}

// Locator implements domain.Locator: geocode the place, then look up the
// timezone at the resulting coordinates.
type Locator struct {
	searcher Searcher
	tz       TimezoneFinder
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewLocator combines a searcher and a timezone finder.
func NewLocator(searcher Searcher, tz TimezoneFinder, metrics *observability.Metrics, logger *slog.Logger) *Locator {
	return &Locator{searcher: searcher, tz: tz, metrics: metrics, logger: logger}
}

// Resolve returns coordinates and timezone for place.
func (l *Locator) Resolve(ctx context.Context, place string) (domain.Location, error) {
	place = strings.TrimSpace(place)
	if place == "" {
		return domain.Location{}, fmt.Errorf("%w: empty place name", domain.ErrLocationNotFound)
	}

	p, err := l.searcher.Search(ctx, place)
	if err != nil {
		return domain.Location{}, fmt.Errorf("%w: %q: %w", domain.ErrGeocoderUnavailable, place, err)
	}
	if !p.Found() {
		return domain.Location{}, fmt.Errorf("%w: %q", domain.ErrLocationNotFound, place)
	}

	tz := l.tz.GetTimezoneName(p.Lon, p.Lat)
	if tz == "" {
		l.metrics.GeocodeRequests.WithLabelValues("no_timezone").Inc()
		l.logger.Warn("no timezone for coordinates", "place", place, "lat", p.Lat, "lon", p.Lon)
		return domain.Location{}, fmt.Errorf("%w: %.4f,%.4f", domain.ErrTimezoneNotFound, p.Lat, p.Lon)
	}

	return domain.Location{
		Latitude:    p.Lat,
		Longitude:   p.Lon,
		Timezone:    tz,
		DisplayName: p.DisplayName,
	}, nil
}
