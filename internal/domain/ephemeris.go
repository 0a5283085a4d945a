package domain

import (
	"context"
	"time"
)

// HouseData is the house-cusp response of an ephemeris: twelve cusp
// longitudes plus the ascendant and midheaven angles, all in degrees.
type HouseData struct {
	Cusps     [12]float64
	Ascendant float64
	Midheaven float64
}

// Ephemeris supplies raw ecliptic longitudes. Implementations return a single
// scalar per call; any response-shape handling belongs in the adapter.
type Ephemeris interface {
	BodyLongitude(ctx context.Context, jd float64, body Body) (float64, error)
	HouseCusps(ctx context.Context, jd, lat, lon float64, system HouseSystem) (HouseData, error)
	FixedStarLongitude(ctx context.Context, name string, jd float64) (float64, error)
}

// JulianDay converts an instant to a Julian Day number in Universal Time
// using the Gregorian calendar algorithm (Meeus, Astronomical Algorithms 7.1).
func JulianDay(t time.Time) float64 {
	t = t.UTC()
	y, m := t.Year(), int(t.Month())
	hours := float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600
	day := float64(t.Day()) + hours/24

	if m <= 2 {
		y--
		m += 12
	}
	a := y / 100
	b := 2 - a + a/4

	return float64(int(365.25*float64(y+4716))) +
		float64(int(30.6001*float64(m+1))) +
		day + float64(b) - 1524.5
}
