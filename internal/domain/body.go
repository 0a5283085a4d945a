package domain

import "fmt"

// Body identifies a chart entry: a celestial body, the rising point, a fixed
// star, or a derived point. It is the only key used for chart maps; JSON keys,
// display labels and interpretation lookups all go through bodyTable.
type Body int

const (
	Sun Body = iota
	Moon
	Mercury
	Venus
	Mars
	Jupiter
	Saturn
	Uranus
	Neptune
	Pluto
	Chiron
	Juno
	Rising
	Regulus
	PartOfFortune
)

type bodyInfo struct {
	key         string // JSON key and interpretation key
	label       string
	glyph       string
	ephemerisID int // Swiss Ephemeris body number; -1 when not an ephemeris body
}

var bodyTable = [...]bodyInfo{
	Sun:           {key: "sun", label: "Sun", glyph: "☉", ephemerisID: 0},
	Moon:          {key: "moon", label: "Moon", glyph: "☽", ephemerisID: 1},
	Mercury:       {key: "mercury", label: "Mercury", glyph: "☿", ephemerisID: 2},
	Venus:         {key: "venus", label: "Venus", glyph: "♀", ephemerisID: 3},
	Mars:          {key: "mars", label: "Mars", glyph: "♂", ephemerisID: 4},
	Jupiter:       {key: "jupiter", label: "Jupiter", glyph: "♃", ephemerisID: 5},
	Saturn:        {key: "saturn", label: "Saturn", glyph: "♄", ephemerisID: 6},
	Uranus:        {key: "uranus", label: "Uranus", glyph: "♅", ephemerisID: 7},
	Neptune:       {key: "neptune", label: "Neptune", glyph: "♆", ephemerisID: 8},
	Pluto:         {key: "pluto", label: "Pluto", glyph: "♇", ephemerisID: 9},
	Chiron:        {key: "chiron", label: "Chiron", glyph: "⚷", ephemerisID: 15},
	Juno:          {key: "juno", label: "Juno", glyph: "⚵", ephemerisID: 19},
	Rising:        {key: "rising", label: "Rising", glyph: "ASC", ephemerisID: -1},
	Regulus:       {key: "regulus", label: "Regulus", glyph: "★", ephemerisID: -1},
	PartOfFortune: {key: "part_of_fortune", label: "Part of Fortune", glyph: "⊗", ephemerisID: -1},
}

// PlanetaryBodies are the bodies whose longitudes come from the ephemeris, in
// chart-build order.
var PlanetaryBodies = []Body{
	Sun, Moon, Mercury, Venus, Mars, Jupiter, Saturn,
	Uranus, Neptune, Pluto, Chiron, Juno,
}

// AllBodies lists every chart entry in display order.
var AllBodies = []Body{
	Sun, Moon, Mercury, Venus, Mars, Jupiter, Saturn,
	Uranus, Neptune, Pluto, Chiron, PartOfFortune, Regulus, Juno, Rising,
}

// RegulusStarName is the name passed to the ephemeris fixed-star lookup.
const RegulusStarName = "Regulus"

func (b Body) valid() bool { return b >= 0 && int(b) < len(bodyTable) }

// Key returns the snake_case identifier used in JSON and text lookups.
func (b Body) Key() string {
	if !b.valid() {
		return fmt.Sprintf("body(%d)", int(b))
	}
	return bodyTable[b].key
}

// Label returns the human-readable name.
func (b Body) Label() string {
	if !b.valid() {
		return b.Key()
	}
	return bodyTable[b].label
}

// Glyph returns the astrological symbol used by presentation layers.
func (b Body) Glyph() string {
	if !b.valid() {
		return ""
	}
	return bodyTable[b].glyph
}

// EphemerisID returns the ephemeris body number, or false for synthetic entries.
func (b Body) EphemerisID() (int, bool) {
	if !b.valid() || bodyTable[b].ephemerisID < 0 {
		return 0, false
	}
	return bodyTable[b].ephemerisID, true
}

func (b Body) String() string { return b.Key() }

// ParseBody resolves a JSON key back to its Body.
func ParseBody(key string) (Body, bool) {
	for i, info := range bodyTable {
		if info.key == key {
			return Body(i), true
		}
	}
	return 0, false
}
