package domain

import "math"

// Element is one of the four classical elements.
type Element string

const (
	Fire  Element = "Fire"
	Earth Element = "Earth"
	Air   Element = "Air"
	Water Element = "Water"
)

// Elements lists the elements in triplicity order.
var Elements = []Element{Fire, Earth, Air, Water}

var signElements = [12]Element{
	Aries: Fire, Taurus: Earth, Gemini: Air, Cancer: Water,
	Leo: Fire, Virgo: Earth, Libra: Air, Scorpio: Water,
	Sagittarius: Fire, Capricorn: Earth, Aquarius: Air, Pisces: Water,
}

// Element returns the element the sign belongs to.
func (s Sign) Element() Element { return signElements[s] }

// ElementBodies are the entries counted by AnalyzeElements: the seven
// classical planets plus the rising point.
var ElementBodies = []Body{Sun, Moon, Mercury, Venus, Mars, Jupiter, Saturn, Rising}

// ElementTally holds the rounded share of classified entries per element.
type ElementTally struct {
	Fire  int `json:"Fire"`
	Earth int `json:"Earth"`
	Air   int `json:"Air"`
	Water int `json:"Water"`
}

// Percent returns the tally for e.
func (t ElementTally) Percent(e Element) int {
	switch e {
	case Fire:
		return t.Fire
	case Earth:
		return t.Earth
	case Air:
		return t.Air
	case Water:
		return t.Water
	default:
		return 0
	}
}

// AnalyzeElements counts the elements of ElementBodies present in the chart
// and converts the counts to whole percentages. Rounding is per element, so
// the sum may differ from 100 by one or two. An empty subset yields all zeros.
func AnalyzeElements(c Chart) ElementTally {
	counts := make(map[Element]int, len(Elements))
	total := 0
	for _, b := range ElementBodies {
		p, ok := c.Placement(b)
		if !ok {
			continue
		}
		counts[p.Sign.Element()]++
		total++
	}
	if total == 0 {
		return ElementTally{}
	}

	pct := func(e Element) int {
		return int(math.Round(float64(counts[e]) * 100 / float64(total)))
	}
	return ElementTally{
		Fire:  pct(Fire),
		Earth: pct(Earth),
		Air:   pct(Air),
		Water: pct(Water),
	}
}
