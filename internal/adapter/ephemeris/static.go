package ephemeris

import (
	"context"
	"fmt"
	"os"

	"github.com/couchcryptid/natal-chart-service/internal/domain"
	"gopkg.in/yaml.v3"
)

// Fixture is a fixed set of ephemeris answers, independent of time and place.
// It backs offline runs and tests.
//
//	bodies:
//	  sun: 84.5
//	  moon: 200
//	cusps: [100, 125, 150, 180, 220, 250, 280, 305, 330, 0, 40, 70]
//	ascendant: 100
//	midheaven: 0
//	stars:
//	  Regulus: 149.8
type Fixture struct {
	Bodies    map[string]float64 `yaml:"bodies"`
	Cusps     []float64          `yaml:"cusps"`
	Ascendant float64            `yaml:"ascendant"`
	Midheaven float64            `yaml:"midheaven"`
	Stars     map[string]float64 `yaml:"stars"`
}

// Static implements domain.Ephemeris from a Fixture.
type Static struct {
	fixture Fixture
}

// NewStatic validates f and wraps it.
func NewStatic(f Fixture) (*Static, error) {
	if len(f.Cusps) != 12 {
		return nil, fmt.Errorf("fixture needs 12 cusps, got %d", len(f.Cusps))
	}
	for key := range f.Bodies {
		if _, ok := domain.ParseBody(key); !ok {
			return nil, fmt.Errorf("fixture has unknown body %q", key)
		}
	}
	return &Static{fixture: f}, nil
}

// LoadFixture reads a YAML fixture file.
func LoadFixture(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture: %w", err)
	}
	var f Fixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	return NewStatic(f)
}

func (s *Static) BodyLongitude(_ context.Context, _ float64, body domain.Body) (float64, error) {
	v, ok := s.fixture.Bodies[body.Key()]
	if !ok {
		return 0, fmt.Errorf("fixture has no longitude for %s", body)
	}
	return v, nil
}

func (s *Static) HouseCusps(_ context.Context, _, _, _ float64, _ domain.HouseSystem) (domain.HouseData, error) {
	var hd domain.HouseData
	copy(hd.Cusps[:], s.fixture.Cusps)
	hd.Ascendant = s.fixture.Ascendant
	hd.Midheaven = s.fixture.Midheaven
	return hd, nil
}

func (s *Static) FixedStarLongitude(_ context.Context, name string, _ float64) (float64, error) {
	v, ok := s.fixture.Stars[name]
	if !ok {
		return 0, fmt.Errorf("fixture has no longitude for star %s", name)
	}
	return v, nil
}

// CheckReadiness always succeeds.
func (s *Static) CheckReadiness(context.Context) error { return nil }
