package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Placement is where one chart entry falls: sign, degree within sign, house.
type Placement struct {
	Sign      Sign    `json:"sign"`
	Degree    float64 `json:"degree"`
	House     int     `json:"house"`
	Longitude float64 `json:"longitude"`
}

// Chart is a computed natal chart. It is built once by BuildChart and not
// modified afterwards; use Placement to read entries.
type Chart struct {
	ID          string
	City        string
	Date        string
	Time        string
	HouseSystem HouseSystem
	Polarity    Polarity
	ComputedAt  time.Time

	placements map[Body]Placement
}

// Placement returns the entry for b, if the chart has one.
func (c Chart) Placement(b Body) (Placement, bool) {
	p, ok := c.placements[b]
	return p, ok
}

// Len reports how many entries the chart holds.
func (c Chart) Len() int { return len(c.placements) }

// WithMetadata returns a copy of c carrying the request labels. Placements are
// shared; they are never written after BuildChart returns.
func (c Chart) WithMetadata(id, city, date, clockTime string, computedAt time.Time) Chart {
	c.ID = id
	c.City = city
	c.Date = date
	c.Time = clockTime
	c.ComputedAt = computedAt
	return c
}

// MarshalJSON writes the chart as one flat object keyed by body key, with the
// request labels alongside.
func (c Chart) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(c.placements)+7)
	for b, p := range c.placements {
		out[b.Key()] = p
	}
	out["city"] = c.City
	out["date"] = c.Date
	if c.ID != "" {
		out["id"] = c.ID
	}
	if c.Time != "" {
		out["time"] = c.Time
	}
	if c.HouseSystem != "" {
		out["house_system"] = c.HouseSystem
	}
	if c.Polarity != "" {
		out["polarity"] = c.Polarity
	}
	if !c.ComputedAt.IsZero() {
		out["computed_at"] = c.ComputedAt.UTC().Format(time.RFC3339)
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the flat form written by MarshalJSON.
func (c *Chart) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Chart{placements: make(map[Body]Placement)}
	strField := func(key string, dst *string) error {
		v, ok := raw[key]
		if !ok {
			return nil
		}
		return json.Unmarshal(v, dst)
	}
	var hs, pol, computed string
	for key, dst := range map[string]*string{
		"id": &c.ID, "city": &c.City, "date": &c.Date, "time": &c.Time,
		"house_system": &hs, "polarity": &pol, "computed_at": &computed,
	} {
		if err := strField(key, dst); err != nil {
			return fmt.Errorf("chart field %s: %w", key, err)
		}
	}
	c.HouseSystem = HouseSystem(hs)
	c.Polarity = Polarity(pol)
	if computed != "" {
		t, err := time.Parse(time.RFC3339, computed)
		if err != nil {
			return fmt.Errorf("chart field computed_at: %w", err)
		}
		c.ComputedAt = t
	}
	for _, b := range AllBodies {
		v, ok := raw[b.Key()]
		if !ok {
			continue
		}
		var p Placement
		if err := json.Unmarshal(v, &p); err != nil {
			return fmt.Errorf("chart entry %s: %w", b.Key(), err)
		}
		c.placements[b] = p
	}
	return nil
}

// ChartInput is everything BuildChart needs besides the ephemeris.
type ChartInput struct {
	JulianDay   float64
	Latitude    float64
	Longitude   float64
	HouseSystem HouseSystem
}

// BuildChart assembles a chart from ephemeris data. Every ephemeris call must
// succeed with a finite value; otherwise the whole build fails with
// ErrEphemerisFailure and no chart is returned.
func BuildChart(ctx context.Context, eph Ephemeris, in ChartInput) (Chart, error) {
	if in.HouseSystem == "" {
		in.HouseSystem = Placidus
	}
	if in.HouseSystem != Placidus && in.HouseSystem != WholeSign {
		return Chart{}, fmt.Errorf("%w: unknown house system %q", ErrInvalidInput, in.HouseSystem)
	}

	houses, err := eph.HouseCusps(ctx, in.JulianDay, in.Latitude, in.Longitude, in.HouseSystem)
	if err != nil {
		return Chart{}, ephemerisErr("house cusps", err)
	}
	asc, err := NewLongitude(houses.Ascendant)
	if err != nil {
		return Chart{}, ephemerisErr("ascendant", err)
	}
	var cusps HouseCusps
	for i, v := range houses.Cusps {
		if cusps[i], err = NewLongitude(v); err != nil {
			return Chart{}, ephemerisErr(fmt.Sprintf("cusp %d", i+1), err)
		}
	}

	assigner, err := NewHouseAssigner(in.HouseSystem, cusps, asc)
	if err != nil {
		return Chart{}, err
	}

	placements := make(map[Body]Placement, len(AllBodies))
	place := func(b Body, l Longitude) {
		z := ToZodiac(l)
		placements[b] = Placement{Sign: z.Sign, Degree: z.Degree, House: assigner.House(l), Longitude: roundLongitude(l)}
	}

	rising := ToZodiac(asc)
	placements[Rising] = Placement{Sign: rising.Sign, Degree: rising.Degree, House: 1, Longitude: roundLongitude(asc)}

	raw := make(map[Body]Longitude, len(PlanetaryBodies))
	for _, b := range PlanetaryBodies {
		v, err := eph.BodyLongitude(ctx, in.JulianDay, b)
		if err != nil {
			return Chart{}, ephemerisErr(b.Key(), err)
		}
		l, err := NewLongitude(v)
		if err != nil {
			return Chart{}, ephemerisErr(b.Key(), err)
		}
		raw[b] = l
		place(b, l)
	}

	star, err := eph.FixedStarLongitude(ctx, RegulusStarName, in.JulianDay)
	if err != nil {
		return Chart{}, ephemerisErr(Regulus.Key(), err)
	}
	starLon, err := NewLongitude(star)
	if err != nil {
		return Chart{}, ephemerisErr(Regulus.Key(), err)
	}
	place(Regulus, starLon)

	polarity := PolarityForSunHouse(placements[Sun].House)
	place(PartOfFortune, PartOfFortuneLongitude(asc, raw[Sun], raw[Moon], polarity))

	return Chart{
		HouseSystem: in.HouseSystem,
		Polarity:    polarity,
		placements:  placements,
	}, nil
}

func ephemerisErr(what string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrEphemerisFailure, what, err)
}

func roundLongitude(l Longitude) float64 {
	r := math.Round(float64(l)*10000) / 10000
	if r >= 360 {
		return 0
	}
	return r
}

// NewChart builds a chart directly from placements. It is meant for tests and
// for decoding charts produced elsewhere.
func NewChart(placements map[Body]Placement) Chart {
	cp := make(map[Body]Placement, len(placements))
	for b, p := range placements {
		cp[b] = p
	}
	return Chart{placements: cp}
}
