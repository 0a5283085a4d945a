// Package interpret holds the text used to describe chart placements.
package interpret

import (
	_ "embed"
	"fmt"
	"strconv"

	"github.com/couchcryptid/natal-chart-service/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

// Catalog maps bodies, signs and houses to interpretation fragments.
type Catalog struct {
	Bodies map[string]string `yaml:"bodies"`
	Signs  map[string]string `yaml:"signs"`
	Houses map[int]string    `yaml:"houses"`
}

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Parse decodes a YAML catalog and checks it covers every body, sign and
// house.
func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for _, b := range domain.AllBodies {
		if c.Bodies[b.Key()] == "" {
			return nil, fmt.Errorf("catalog has no text for body %s", b.Key())
		}
	}
	for _, s := range domain.Signs {
		if c.Signs[s.String()] == "" {
			return nil, fmt.Errorf("catalog has no text for sign %s", s)
		}
	}
	for h := 1; h <= 12; h++ {
		if c.Houses[h] == "" {
			return nil, fmt.Errorf("catalog has no text for house %d", h)
		}
	}
	return &c, nil
}

// SignText describes body b placed in sign s.
func (c *Catalog) SignText(b domain.Body, s domain.Sign) string {
	return fmt.Sprintf("%s in %s: %s expresses itself %s.", b.Label(), s, c.Bodies[b.Key()], c.Signs[s.String()])
}

// HouseText describes body b placed in house h. Houses outside 1..12 give "".
func (c *Catalog) HouseText(b domain.Body, h int) string {
	area, ok := c.Houses[h]
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s in house %d: %s is played out in matters of %s.", b.Label(), h, c.Bodies[b.Key()], area)
}

// Describe joins the sign and house text for one placement.
func (c *Catalog) Describe(b domain.Body, p domain.Placement) string {
	text := c.SignText(b, p.Sign)
	if h := c.HouseText(b, p.House); h != "" {
		text += " " + h
	}
	return text
}

// Tables is the lookup form served to clients: text by body label, then by
// sign name or house number.
type Tables struct {
	PlanetSign  map[string]map[string]string `json:"planet_sign"`
	PlanetHouse map[string]map[string]string `json:"planet_house"`
}

// Tables expands the catalog for every body, sign and house.
func (c *Catalog) Tables() Tables {
	t := Tables{
		PlanetSign:  make(map[string]map[string]string, len(domain.AllBodies)),
		PlanetHouse: make(map[string]map[string]string, len(domain.AllBodies)),
	}
	for _, b := range domain.AllBodies {
		signs := make(map[string]string, len(domain.Signs))
		for _, s := range domain.Signs {
			signs[s.String()] = c.SignText(b, s)
		}
		houses := make(map[string]string, 12)
		for h := 1; h <= 12; h++ {
			houses[strconv.Itoa(h)] = c.HouseText(b, h)
		}
		t.PlanetSign[b.Label()] = signs
		t.PlanetHouse[b.Label()] = houses
	}
	return t
}
