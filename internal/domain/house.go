package domain

import (
	"fmt"
	"strings"
)

// HouseSystem selects how house numbers are assigned for a whole chart.
type HouseSystem string

const (
	// Placidus assigns houses by locating a longitude between quadrant cusps.
	Placidus HouseSystem = "placidus"
	// WholeSign assigns houses by counting signs from the rising sign.
	WholeSign HouseSystem = "whole_sign"
)

// ParseHouseSystem accepts "placidus" or "whole_sign" (also "whole-sign",
// "wholesign"), case-insensitive. An empty string is rejected.
func ParseHouseSystem(s string) (HouseSystem, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "placidus", "p":
		return Placidus, nil
	case "whole_sign", "whole-sign", "wholesign", "w":
		return WholeSign, nil
	default:
		return "", fmt.Errorf("%w: unknown house system %q", ErrInvalidInput, s)
	}
}

// Flag returns the single-letter house system code used by ephemeris services.
func (h HouseSystem) Flag() string {
	if h == WholeSign {
		return "W"
	}
	return "P"
}

// HouseCusps holds the starting longitudes of houses 1 through 12.
// A cusp greater than its successor marks an interval crossing 0°.
type HouseCusps [12]Longitude

// HouseAssigner maps a longitude to a house number 1..12.
type HouseAssigner interface {
	House(l Longitude) int
}

// NewHouseAssigner returns the strategy for system. Whole-sign only needs the
// ascendant; Placidus only needs the cusps.
func NewHouseAssigner(system HouseSystem, cusps HouseCusps, ascendant Longitude) (HouseAssigner, error) {
	switch system {
	case Placidus:
		return cuspAssigner{cusps: cusps}, nil
	case WholeSign:
		return wholeSignAssigner{rising: ToZodiac(ascendant).Sign}, nil
	default:
		return nil, fmt.Errorf("%w: unknown house system %q", ErrInvalidInput, system)
	}
}

type cuspAssigner struct {
	cusps HouseCusps
}

func (a cuspAssigner) House(l Longitude) int { return PlacidusHouse(l, a.cusps) }

type wholeSignAssigner struct {
	rising Sign
}

func (a wholeSignAssigner) House(l Longitude) int {
	return WholeSignHouse(ToZodiac(l).Sign, a.rising)
}

// PlacidusHouse returns the first house whose [start, end) cusp interval
// contains l, treating start >= end as an interval that wraps through 0°.
// A cusp set with no matching interval yields 12.
func PlacidusHouse(l Longitude, cusps HouseCusps) int {
	for i := range 12 {
		start, end := cusps[i], cusps[(i+1)%12]
		if start < end {
			if l >= start && l < end {
				return i + 1
			}
			continue
		}
		if l >= start || l < end {
			return i + 1
		}
	}
	return 12
}

// WholeSignHouse counts signs from the rising sign: the rising sign is house 1.
func WholeSignHouse(body, rising Sign) int {
	return ((body.Index()-rising.Index()+12)%12 + 1)
}
