package domain

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- stub ephemeris ---

type stubEphemeris struct {
	bodies    map[Body]float64
	houses    HouseData
	star      float64
	bodyErr   map[Body]error
	housesErr error
	starErr   error

	bodyCalls  int
	houseCalls int
	lastSystem HouseSystem
}

func (s *stubEphemeris) BodyLongitude(_ context.Context, _ float64, b Body) (float64, error) {
	s.bodyCalls++
	if err := s.bodyErr[b]; err != nil {
		return 0, err
	}
	return s.bodies[b], nil
}

func (s *stubEphemeris) HouseCusps(_ context.Context, _, _, _ float64, system HouseSystem) (HouseData, error) {
	s.houseCalls++
	s.lastSystem = system
	return s.houses, s.housesErr
}

func (s *stubEphemeris) FixedStarLongitude(_ context.Context, _ string, _ float64) (float64, error) {
	return s.star, s.starErr
}

func newStubEphemeris() *stubEphemeris {
	return &stubEphemeris{
		bodies: map[Body]float64{
			Sun:     84.5,
			Moon:    200,
			Mercury: 70,
			Venus:   45.25,
			Mars:    3,
			Jupiter: 95,
			Saturn:  294,
			Uranus:  278,
			Neptune: 283,
			Pluto:   226,
			Chiron:  106,
			Juno:    360,
		},
		houses: HouseData{
			Cusps:     [12]float64{100, 125, 150, 180, 220, 250, 280, 305, 330, 0, 40, 70},
			Ascendant: 100,
			Midheaven: 0,
		},
		star: 149.8,
	}
}

// --- tests ---

func TestBuildChart_Placidus(t *testing.T) {
	eph := newStubEphemeris()

	c, err := BuildChart(context.Background(), eph, ChartInput{JulianDay: 2448058.1, Latitude: 40.7, Longitude: -74, HouseSystem: Placidus})
	require.NoError(t, err)

	want := map[Body]Placement{
		Sun:           {Sign: Gemini, Degree: 24.5, House: 12, Longitude: 84.5},
		Moon:          {Sign: Libra, Degree: 20, House: 4, Longitude: 200},
		Mercury:       {Sign: Gemini, Degree: 10, House: 12, Longitude: 70},
		Venus:         {Sign: Taurus, Degree: 15.25, House: 11, Longitude: 45.25},
		Mars:          {Sign: Aries, Degree: 3, House: 10, Longitude: 3},
		Jupiter:       {Sign: Cancer, Degree: 5, House: 12, Longitude: 95},
		Saturn:        {Sign: Capricorn, Degree: 24, House: 7, Longitude: 294},
		Uranus:        {Sign: Capricorn, Degree: 8, House: 6, Longitude: 278},
		Neptune:       {Sign: Capricorn, Degree: 13, House: 7, Longitude: 283},
		Pluto:         {Sign: Scorpio, Degree: 16, House: 5, Longitude: 226},
		Chiron:        {Sign: Cancer, Degree: 16, House: 1, Longitude: 106},
		Juno:          {Sign: Aries, Degree: 0, House: 10, Longitude: 0},
		Rising:        {Sign: Cancer, Degree: 10, House: 1, Longitude: 100},
		Regulus:       {Sign: Leo, Degree: 29.8, House: 2, Longitude: 149.8},
		PartOfFortune: {Sign: Scorpio, Degree: 5.5, House: 4, Longitude: 215.5},
	}

	floatEq := cmp.Comparer(func(a, b float64) bool { return math.Abs(a-b) < 1e-9 })
	if diff := cmp.Diff(want, c.placements, floatEq); diff != "" {
		t.Fatalf("placements mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, Placidus, c.HouseSystem)
	assert.Equal(t, DayChart, c.Polarity)
	assert.Equal(t, 1, eph.houseCalls)
	assert.Equal(t, len(PlanetaryBodies), eph.bodyCalls)
}

func TestBuildChart_WholeSign(t *testing.T) {
	eph := newStubEphemeris()

	c, err := BuildChart(context.Background(), eph, ChartInput{HouseSystem: WholeSign})
	require.NoError(t, err)
	assert.Equal(t, WholeSign, eph.lastSystem)

	houses := map[Body]int{
		Sun:           12, // Gemini from Cancer
		Moon:          4,  // Libra
		Venus:         11, // Taurus
		Saturn:        7,  // Capricorn
		Regulus:       2,  // Leo
		Rising:        1,
		PartOfFortune: 5, // Scorpio
	}
	for b, want := range houses {
		p, ok := c.Placement(b)
		require.True(t, ok, b.Key())
		assert.Equal(t, want, p.House, b.Key())
	}
	assert.Equal(t, DayChart, c.Polarity)
}

func TestBuildChart_NightChart(t *testing.T) {
	eph := newStubEphemeris()
	eph.bodies[Sun] = 200   // Libra, house 4
	eph.bodies[Moon] = 84.5 // Gemini

	c, err := BuildChart(context.Background(), eph, ChartInput{HouseSystem: Placidus})
	require.NoError(t, err)
	assert.Equal(t, NightChart, c.Polarity)

	// night: Asc + Sun - Moon = 100 + 200 - 84.5
	pof, ok := c.Placement(PartOfFortune)
	require.True(t, ok)
	assert.InDelta(t, 215.5, pof.Longitude, 1e-9)
}

func TestBuildChart_DefaultsToPlacidus(t *testing.T) {
	eph := newStubEphemeris()
	c, err := BuildChart(context.Background(), eph, ChartInput{})
	require.NoError(t, err)
	assert.Equal(t, Placidus, c.HouseSystem)
	assert.Equal(t, Placidus, eph.lastSystem)
}

func TestBuildChart_Failures(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name   string
		mutate func(*stubEphemeris)
	}{
		{"body lookup fails", func(s *stubEphemeris) { s.bodyErr = map[Body]error{Juno: boom} }},
		{"body is NaN", func(s *stubEphemeris) { s.bodies[Mars] = math.NaN() }},
		{"house cusps fail", func(s *stubEphemeris) { s.housesErr = boom }},
		{"cusp is infinite", func(s *stubEphemeris) { s.houses.Cusps[5] = math.Inf(1) }},
		{"ascendant is NaN", func(s *stubEphemeris) { s.houses.Ascendant = math.NaN() }},
		{"fixed star fails", func(s *stubEphemeris) { s.starErr = boom }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eph := newStubEphemeris()
			tt.mutate(eph)

			c, err := BuildChart(context.Background(), eph, ChartInput{HouseSystem: Placidus})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrEphemerisFailure)
			assert.Zero(t, c.Len(), "no partial chart")
		})
	}
}

func TestBuildChart_UnknownHouseSystem(t *testing.T) {
	eph := newStubEphemeris()
	_, err := BuildChart(context.Background(), eph, ChartInput{HouseSystem: "koch"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Zero(t, eph.houseCalls)
}

func TestChart_JSON(t *testing.T) {
	c, err := BuildChart(context.Background(), newStubEphemeris(), ChartInput{HouseSystem: Placidus})
	require.NoError(t, err)
	computed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	c = c.WithMetadata("chart-1", "New York, USA", "1990-06-15", "14:30", computed)

	data, err := json.Marshal(c)
	require.NoError(t, err)

	var flat map[string]any
	require.NoError(t, json.Unmarshal(data, &flat))
	assert.Equal(t, "New York, USA", flat["city"])
	assert.Equal(t, "1990-06-15", flat["date"])
	assert.Equal(t, "placidus", flat["house_system"])
	sun, ok := flat["sun"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Gemini", sun["sign"])
	assert.InDelta(t, 24.5, sun["degree"], 1e-9)
	assert.InDelta(t, 12, sun["house"], 1e-9)
	assert.Contains(t, flat, "part_of_fortune")
	assert.Contains(t, flat, "rising")
	assert.Contains(t, flat, "regulus")

	var decoded Chart
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, c.ID, decoded.ID)
	assert.Equal(t, c.City, decoded.City)
	assert.Equal(t, computed, decoded.ComputedAt)
	assert.Equal(t, DayChart, decoded.Polarity)
	assert.Equal(t, c.Len(), decoded.Len())
	pof, ok := decoded.Placement(PartOfFortune)
	require.True(t, ok)
	assert.Equal(t, Scorpio, pof.Sign)
}
