// Package domain models natal chart computation: mapping ecliptic longitudes
// to zodiac positions, assigning houses, deriving the Part of Fortune, and
// tallying elements.
//
// # Collaborators
//
// Raw longitudes come from an [Ephemeris] (planetary positions, house cusps,
// fixed stars) and places are resolved by a [Locator] (coordinates and IANA
// timezone). Both are interfaces; adapters live under internal/adapter.
// Julian Day numbers are plain calendar arithmetic and computed here by
// [JulianDay].
//
// # Longitudes
//
// Every longitude is reduced into [0, 360) by [NewLongitude] before it is
// mapped. [ToZodiac] indexes the sign table directly and relies on that:
//
//	sign   = Signs[floor(L / 30)]
//	degree = L mod 30, rounded to 0.01° (29.995 and above report 29.99)
//
// # Houses
//
// A chart uses exactly one [HouseSystem]:
//
//	placidus:   house i spans [cusp[i-1], cusp[i mod 12]); a start cusp
//	            greater than or equal to its end wraps through 0°.
//	            First match wins; no match falls back to house 12.
//	whole_sign: ((sign(body) - sign(rising) + 12) mod 12) + 1
//
// The rising point is always house 1.
//
// # Part of Fortune
//
// Day/night polarity comes from the Sun's house under the chart's house
// system: houses 7-12 are above the horizon (day), 1-6 below (night).
//
//	day:   Asc + Moon - Sun   (mod 360)
//	night: Asc + Sun - Moon   (mod 360)
//
// The semicircle test (Sun within [Asc, Asc+180)) is not used.
//
// # Elements
//
// [AnalyzeElements] counts Sun through Saturn plus the rising point and
// reports whole percentages per element. A chart with none of those entries
// yields all zeros.
package domain
