package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/natal-chart-service/internal/domain"
)

// ChartComputer computes a chart and its element tally for a birth request.
type ChartComputer interface {
	Compute(ctx context.Context, req domain.ChartRequest) (domain.ChartResult, error)
}

// ChartTransformer implements Transformer on top of a ChartComputer.
type ChartTransformer struct {
	charts ChartComputer
	logger *slog.Logger
}

// NewTransformer creates a ChartTransformer.
func NewTransformer(charts ChartComputer, logger *slog.Logger) *ChartTransformer {
	return &ChartTransformer{
		charts: charts,
		logger: logger,
	}
}

// Transform decodes the request, computes the chart, and serializes
// {"chart", "elements"} keyed by chart ID.
func (t *ChartTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	req, err := domain.ParseChartRequest(raw)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	res, err := t.charts.Compute(ctx, req)
	if err != nil {
		return domain.OutputEvent{}, err
	}

	data, err := json.Marshal(res)
	if err != nil {
		return domain.OutputEvent{}, fmt.Errorf("serialize chart result: %w", err)
	}

	return domain.OutputEvent{
		Key:   []byte(res.Chart.ID),
		Value: data,
		Headers: map[string]string{
			"house_system": string(res.Chart.HouseSystem),
			"polarity":     string(res.Chart.Polarity),
			"computed_at":  res.Chart.ComputedAt.UTC().Format(time.RFC3339),
		},
	}, nil
}
