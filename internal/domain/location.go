package domain

import "context"

// Location is a resolved place: WGS-84 coordinates plus an IANA timezone name.
type Location struct {
	Latitude    float64
	Longitude   float64
	Timezone    string
	DisplayName string
}

// Locator resolves a free-text place name.
type Locator interface {
	// Resolve returns ErrLocationNotFound when no place matches,
	// ErrTimezoneNotFound when the coordinates fall outside every timezone,
	// and ErrGeocoderUnavailable when the lookup itself fails.
	Resolve(ctx context.Context, place string) (Location, error)
}
