package nominatim

import (
	"context"
	"fmt"
	"strings"

	"github.com/couchcryptid/natal-chart-service/internal/domain"
)

// Suggester returns several candidate places for a partial query.
type Suggester interface {
	Suggest(ctx context.Context, query string, n int) ([]Place, error)
}

// Autocompleter turns geocoding candidates into locations with timezones
// attached, for place pickers.
type Autocompleter struct {
	suggester Suggester
	tz        TimezoneFinder
}

// NewAutocompleter combines a suggester and a timezone finder.
func NewAutocompleter(suggester Suggester, tz TimezoneFinder) *Autocompleter {
	return &Autocompleter{suggester: suggester, tz: tz}
}

// Suggest returns up to n locations matching query. Candidates outside every
// timezone are kept with an empty Timezone.
func (a *Autocompleter) Suggest(ctx context.Context, query string, n int) ([]domain.Location, error) {
	query = strings.TrimSpace(query)
	places, err := a.suggester.Suggest(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", domain.ErrGeocoderUnavailable, query, err)
	}

	out := make([]domain.Location, 0, len(places))
	for _, p := range places {
		out = append(out, domain.Location{
			Latitude:    p.Lat,
			Longitude:   p.Lon,
			Timezone:    a.tz.GetTimezoneName(p.Lon, p.Lat),
			DisplayName: p.DisplayName,
		})
	}
	return out, nil
}
