package domain

import (
	"fmt"
	"math"
	"strings"
)

// Sign is one of the twelve 30° zodiac segments, Aries first.
type Sign int

const (
	Aries Sign = iota
	Taurus
	Gemini
	Cancer
	Leo
	Virgo
	Libra
	Scorpio
	Sagittarius
	Capricorn
	Aquarius
	Pisces
)

var signNames = [12]string{
	"Aries", "Taurus", "Gemini", "Cancer", "Leo", "Virgo",
	"Libra", "Scorpio", "Sagittarius", "Capricorn", "Aquarius", "Pisces",
}

// Signs lists all signs in zodiacal order.
var Signs = []Sign{Aries, Taurus, Gemini, Cancer, Leo, Virgo, Libra, Scorpio, Sagittarius, Capricorn, Aquarius, Pisces}

func (s Sign) String() string {
	if s < 0 || int(s) >= len(signNames) {
		return fmt.Sprintf("Sign(%d)", int(s))
	}
	return signNames[s]
}

// Index returns the zero-based position of the sign starting at Aries.
func (s Sign) Index() int { return int(s) }

func (s Sign) MarshalText() ([]byte, error) {
	if s < 0 || int(s) >= len(signNames) {
		return nil, fmt.Errorf("invalid sign %d", int(s))
	}
	return []byte(signNames[s]), nil
}

func (s *Sign) UnmarshalText(text []byte) error {
	v, ok := ParseSign(string(text))
	if !ok {
		return fmt.Errorf("unknown sign %q", text)
	}
	*s = v
	return nil
}

// ParseSign matches a sign name case-insensitively.
func ParseSign(name string) (Sign, bool) {
	for i, n := range signNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return Sign(i), true
		}
	}
	return 0, false
}

// Longitude is an ecliptic longitude in degrees, always within [0, 360).
// Values are only produced by NewLongitude so mapping never sees 360 or more.
type Longitude float64

// NewLongitude reduces deg modulo 360. NaN and infinities are rejected.
func NewLongitude(deg float64) (Longitude, error) {
	if math.IsNaN(deg) || math.IsInf(deg, 0) {
		return 0, fmt.Errorf("non-finite longitude %v", deg)
	}
	l := math.Mod(deg, 360)
	if l < 0 {
		l += 360
	}
	// Adding 360 to a tiny negative remainder can round back up to 360, and
	// -0 must not leak into output as "-0".
	if l >= 360 || l == 0 {
		l = 0
	}
	return Longitude(l), nil
}

// mustLongitude is for values already reduced by arithmetic inside the package.
func mustLongitude(deg float64) Longitude {
	l, err := NewLongitude(deg)
	if err != nil {
		panic(err)
	}
	return l
}

// Degrees returns the raw value.
func (l Longitude) Degrees() float64 { return float64(l) }

// ZodiacPosition is a longitude expressed as sign plus degree within the sign.
type ZodiacPosition struct {
	Sign   Sign
	Degree float64
}

// ToZodiac maps a normalized longitude to its sign and degree, the degree
// rounded to two decimals.
func ToZodiac(l Longitude) ZodiacPosition {
	idx := int(math.Floor(float64(l) / 30))
	deg := roundDegree(math.Mod(float64(l), 30))
	return ZodiacPosition{Sign: Signs[idx], Degree: deg}
}

// roundDegree rounds to 0.01°, keeping the result below 30.
func roundDegree(d float64) float64 {
	r := math.Round(d*100) / 100
	if r >= 30 {
		return 29.99
	}
	return r
}

// Longitude reconstructs the ecliptic longitude from the position.
func (p ZodiacPosition) Longitude() float64 {
	return float64(p.Sign.Index())*30 + p.Degree
}

func (p ZodiacPosition) String() string {
	return fmt.Sprintf("%.2f° %s", p.Degree, p.Sign)
}
