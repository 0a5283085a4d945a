package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/natal-chart-service/internal/adapter/ephemeris"
	httpadapter "github.com/couchcryptid/natal-chart-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/natal-chart-service/internal/adapter/kafka"
	"github.com/couchcryptid/natal-chart-service/internal/adapter/nominatim"
	"github.com/couchcryptid/natal-chart-service/internal/chart"
	"github.com/couchcryptid/natal-chart-service/internal/config"
	"github.com/couchcryptid/natal-chart-service/internal/interpret"
	"github.com/couchcryptid/natal-chart-service/internal/observability"
	"github.com/couchcryptid/natal-chart-service/internal/pipeline"
	"github.com/joho/godotenv"
	"github.com/ringsaturn/tzf"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	finder, err := tzf.NewDefaultFinder()
	if err != nil {
		logger.Error("failed to load timezone boundaries", "error", err)
		os.Exit(1)
	}
	catalog, err := interpret.Default()
	if err != nil {
		logger.Error("failed to load interpretation catalog", "error", err)
		os.Exit(1)
	}

	eph := ephemeris.NewClient(cfg.EphemerisURL, cfg.EphemerisTimeout, metrics, logger)

	searcher := nominatim.NewClient(cfg.NominatimURL, cfg.NominatimUserAgent, cfg.GeocodeTimeout, metrics, logger)
	locator := nominatim.NewLocator(
		nominatim.NewCachedSearcher(searcher, cfg.GeocodeCacheSize, metrics),
		finder, metrics, logger,
	)
	logger.Info("collaborators configured",
		"ephemeris_url", cfg.EphemerisURL,
		"nominatim_url", cfg.NominatimURL,
		"geocode_cache_size", cfg.GeocodeCacheSize,
		"house_system", cfg.HouseSystem,
	)

	charts := chart.NewService(eph, locator, cfg.HouseSystem, metrics, logger)
	places := nominatim.NewAutocompleter(searcher, finder)
	srv := httpadapter.NewServer(cfg.HTTPAddr, charts, places, catalog, eph, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	var reader *kafkaadapter.Reader
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		p := pipeline.New(reader, pipeline.NewTransformer(charts, logger), writer, logger, metrics, cfg.BatchSize)

		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	} else {
		logger.Info("chart request pipeline disabled")
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
