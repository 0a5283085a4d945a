//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"

	"github.com/couchcryptid/natal-chart-service/internal/adapter/ephemeris"
	"github.com/couchcryptid/natal-chart-service/internal/chart"
	"github.com/couchcryptid/natal-chart-service/internal/domain"
	"github.com/couchcryptid/natal-chart-service/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	container, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0", kafka.WithClusterID("natal-chart-test"))
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start kafka container")

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

type staticLocator map[string]domain.Location

func (s staticLocator) Resolve(_ context.Context, place string) (domain.Location, error) {
	loc, ok := s[place]
	if !ok {
		return domain.Location{}, domain.ErrLocationNotFound
	}
	return loc, nil
}

// newChartService computes charts from a fixed ephemeris and two known places.
func newChartService(t *testing.T) *chart.Service {
	t.Helper()
	eph, err := ephemeris.NewStatic(ephemeris.Fixture{
		Bodies: map[string]float64{
			"sun": 84.5, "moon": 200, "mercury": 70, "venus": 45.25, "mars": 3, "jupiter": 95,
			"saturn": 294, "uranus": 278, "neptune": 283, "pluto": 226, "chiron": 106, "juno": 360,
		},
		Cusps:     []float64{100, 125, 150, 180, 220, 250, 280, 305, 330, 0, 40, 70},
		Ascendant: 100,
		Stars:     map[string]float64{domain.RegulusStarName: 149.8},
	})
	require.NoError(t, err)

	locator := staticLocator{
		"New York": {Latitude: 40.7128, Longitude: -74.006, Timezone: "America/New_York"},
		"Lisbon":   {Latitude: 38.7223, Longitude: -9.1393, Timezone: "Europe/Lisbon"},
	}
	return chart.NewService(eph, locator, domain.Placidus, observability.NewMetricsForTesting(), discardLogger())
}
