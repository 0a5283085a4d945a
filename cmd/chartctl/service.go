package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/natal-chart-service/internal/adapter/ephemeris"
	"github.com/couchcryptid/natal-chart-service/internal/adapter/nominatim"
	"github.com/couchcryptid/natal-chart-service/internal/chart"
	"github.com/couchcryptid/natal-chart-service/internal/config"
	"github.com/couchcryptid/natal-chart-service/internal/domain"
	"github.com/couchcryptid/natal-chart-service/internal/observability"
	"github.com/ringsaturn/tzf"
)

// fixedLocator resolves every place to the coordinates given on the command line.
type fixedLocator struct {
	loc domain.Location
}

func (f fixedLocator) Resolve(_ context.Context, place string) (domain.Location, error) {
	loc := f.loc
	loc.DisplayName = place
	return loc, nil
}

func buildService(opts *options) (*chart.Service, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if opts.verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	// The CLI is short-lived; its metrics are never scraped.
	metrics := observability.NewMetricsForTesting()

	var eph domain.Ephemeris
	if opts.fixture != "" {
		static, err := ephemeris.LoadFixture(opts.fixture)
		if err != nil {
			return nil, err
		}
		eph = static
	} else {
		eph = ephemeris.NewClient(cfg.EphemerisURL, cfg.EphemerisTimeout, metrics, logger)
	}

	var locator domain.Locator
	if opts.timezone != "" {
		locator = fixedLocator{loc: domain.Location{
			Latitude:  opts.latitude,
			Longitude: opts.longitude,
			Timezone:  opts.timezone,
		}}
	} else {
		finder, err := tzf.NewDefaultFinder()
		if err != nil {
			return nil, fmt.Errorf("load timezone boundaries: %w", err)
		}
		client := nominatim.NewClient(cfg.NominatimURL, cfg.NominatimUserAgent, cfg.GeocodeTimeout, metrics, logger)
		locator = nominatim.NewLocator(client, finder, metrics, logger)
	}

	return chart.NewService(eph, locator, cfg.HouseSystem, metrics, logger), nil
}
