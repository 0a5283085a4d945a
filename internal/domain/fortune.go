package domain

import "math"

// Polarity is whether the Sun was above (day) or below (night) the horizon.
type Polarity string

const (
	DayChart   Polarity = "day"
	NightChart Polarity = "night"
)

// PolarityForSunHouse classifies a chart by the Sun's house. Houses 7-12 lie
// above the horizon.
func PolarityForSunHouse(sunHouse int) Polarity {
	if sunHouse >= 7 && sunHouse <= 12 {
		return DayChart
	}
	return NightChart
}

// PartOfFortuneLongitude returns the Lot of Fortune longitude:
//
//	day:   Asc + Moon - Sun
//	night: Asc + Sun - Moon
//
// both reduced modulo 360.
func PartOfFortuneLongitude(ascendant, sun, moon Longitude, polarity Polarity) Longitude {
	asc, s, m := float64(ascendant), float64(sun), float64(moon)
	var raw float64
	if polarity == DayChart {
		raw = asc + m - s
	} else {
		raw = asc + s - m
	}
	return mustLongitude(math.Mod(raw, 360))
}
