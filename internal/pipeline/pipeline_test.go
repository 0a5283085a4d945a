package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/natal-chart-service/internal/domain"
	"github.com/couchcryptid/natal-chart-service/internal/observability"
	"github.com/couchcryptid/natal-chart-service/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// --- mocks ---

type mockExtractor struct {
	batches [][]domain.RawEvent
	next    int
}

func (m *mockExtractor) ExtractBatch(ctx context.Context, _ int) ([]domain.RawEvent, error) {
	if m.next >= len(m.batches) {
		// block until cancelled to simulate an idle topic
		<-ctx.Done()
		return nil, ctx.Err()
	}
	b := m.batches[m.next]
	m.next++
	return b, nil
}

type mockTransformer struct {
	failKeys map[string]bool
}

func (m *mockTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	if m.failKeys[string(raw.Key)] {
		return domain.OutputEvent{}, domain.ErrLocationNotFound
	}
	return domain.OutputEvent{Key: raw.Key, Value: raw.Value}, nil
}

// flakyTransformer fails with err for the first failures[key] attempts of a
// request, then succeeds. A negative count fails forever.
type flakyTransformer struct {
	err      error
	failures map[string]int
	attempts map[string]int
}

func (f *flakyTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	key := string(raw.Key)
	if f.attempts == nil {
		f.attempts = map[string]int{}
	}
	f.attempts[key]++
	if n := f.failures[key]; n < 0 || f.attempts[key] <= n {
		return domain.OutputEvent{}, f.err
	}
	return domain.OutputEvent{Key: raw.Key, Value: raw.Value}, nil
}

type mockLoader struct {
	err    error
	loaded []domain.OutputEvent
	calls  int
}

func (m *mockLoader) LoadBatch(_ context.Context, events []domain.OutputEvent) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	m.loaded = append(m.loaded, events...)
	return nil
}

type commitLog struct {
	keys []string
}

func (c *commitLog) event(key string) domain.RawEvent {
	return domain.RawEvent{
		Key:   []byte(key),
		Value: []byte(`{"date":"1990-06-15","time":"14:30","city":"New York"}`),
		Topic: "chart-requests",
		Commit: func(context.Context) error {
			c.keys = append(c.keys, key)
			return nil
		},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func runFor(t *testing.T, p *pipeline.Pipeline, d time.Duration) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	require.NoError(t, p.Run(ctx))
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	commits := &commitLog{}
	ext := &mockExtractor{batches: [][]domain.RawEvent{{commits.event("a"), commits.event("b")}}}
	ldr := &mockLoader{}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), metrics, 10)
	require.Error(t, p.CheckReadiness(context.Background()))

	runFor(t, p, 300*time.Millisecond)

	want := []domain.OutputEvent{
		{Key: []byte("a"), Value: commits.event("a").Value},
		{Key: []byte("b"), Value: commits.event("b").Value},
	}
	if diff := cmp.Diff(want, ldr.loaded); diff != "" {
		t.Fatalf("loaded mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"a", "b"}, commits.keys)
	assert.NoError(t, p.CheckReadiness(context.Background()))
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.RequestsConsumed), 1e-9)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.ResultsProduced), 1e-9)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.PipelineRunning), 1e-9)
}

func TestPipeline_Run_ContextCancellation(t *testing.T) {
	ldr := &mockLoader{}
	p := pipeline.New(&mockExtractor{}, &mockTransformer{}, ldr, discardLogger(), observability.NewMetricsForTesting(), 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, p.Run(ctx))
	assert.Zero(t, ldr.calls)
}

func TestPipeline_Run_SkipsFailedRequests(t *testing.T) {
	commits := &commitLog{}
	ext := &mockExtractor{batches: [][]domain.RawEvent{{commits.event("atlantis"), commits.event("ok")}}}
	ldr := &mockLoader{}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ext, &mockTransformer{failKeys: map[string]bool{"atlantis": true}}, ldr, discardLogger(), metrics, 10)
	runFor(t, p, 300*time.Millisecond)

	require.Len(t, ldr.loaded, 1)
	assert.Equal(t, []byte("ok"), ldr.loaded[0].Key)
	assert.Equal(t, []string{"atlantis", "ok"}, commits.keys, "rejected requests are committed and skipped")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.TransformErrors), 1e-9)
	assert.Zero(t, testutil.ToFloat64(metrics.TransformRetries))
}

func TestPipeline_Run_TransientFailureStaysUncommitted(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ephemeris down", fmt.Errorf("%w: sun: connection refused", domain.ErrEphemerisFailure)},
		{"geocoder down", fmt.Errorf("%w: %q: status 503", domain.ErrGeocoderUnavailable, "New York")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			commits := &commitLog{}
			ext := &mockExtractor{batches: [][]domain.RawEvent{{commits.event("a"), commits.event("b")}}}
			tfm := &flakyTransformer{err: tt.err, failures: map[string]int{"a": -1, "b": -1}}
			ldr := &mockLoader{}
			metrics := observability.NewMetricsForTesting()

			p := pipeline.New(ext, tfm, ldr, discardLogger(), metrics, 10)
			runFor(t, p, 300*time.Millisecond)

			assert.Empty(t, commits.keys)
			assert.Empty(t, ldr.loaded)
			assert.Zero(t, ldr.calls)
			assert.GreaterOrEqual(t, tfm.attempts["a"], 2, "the failing request is retried in place")
			assert.Zero(t, tfm.attempts["b"], "later requests wait behind the failing one")
			assert.Zero(t, testutil.ToFloat64(metrics.TransformErrors))
			assert.GreaterOrEqual(t, testutil.ToFloat64(metrics.TransformRetries), 2.0)
		})
	}
}

func TestPipeline_Run_TransientFailureRecovers(t *testing.T) {
	commits := &commitLog{}
	ext := &mockExtractor{batches: [][]domain.RawEvent{{commits.event("a"), commits.event("b")}}}
	tfm := &flakyTransformer{
		err:      fmt.Errorf("%w: moon: timeout", domain.ErrEphemerisFailure),
		failures: map[string]int{"a": 1},
	}
	ldr := &mockLoader{}
	metrics := observability.NewMetricsForTesting()

	p := pipeline.New(ext, tfm, ldr, discardLogger(), metrics, 10)
	runFor(t, p, 500*time.Millisecond)

	require.Len(t, ldr.loaded, 2)
	assert.Equal(t, []byte("a"), ldr.loaded[0].Key)
	assert.Equal(t, []string{"a", "b"}, commits.keys)
	assert.Equal(t, 2, tfm.attempts["a"])
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.TransformRetries), 1e-9)
	assert.Zero(t, testutil.ToFloat64(metrics.TransformErrors))
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_SkippedRequestWaitsForPublish(t *testing.T) {
	commits := &commitLog{}
	ext := &mockExtractor{batches: [][]domain.RawEvent{{commits.event("ok"), commits.event("atlantis")}}}
	ldr := &mockLoader{err: errors.New("broker unavailable")}

	p := pipeline.New(ext, &mockTransformer{failKeys: map[string]bool{"atlantis": true}}, ldr, discardLogger(), observability.NewMetricsForTesting(), 10)
	runFor(t, p, 300*time.Millisecond)

	assert.Empty(t, commits.keys, "committing the skipped offset would also commit the unpublished chart before it")
}

func TestPipeline_Run_AllFailed(t *testing.T) {
	commits := &commitLog{}
	ext := &mockExtractor{batches: [][]domain.RawEvent{{commits.event("bad")}}}
	ldr := &mockLoader{}

	p := pipeline.New(ext, &mockTransformer{failKeys: map[string]bool{"bad": true}}, ldr, discardLogger(), observability.NewMetricsForTesting(), 10)
	runFor(t, p, 300*time.Millisecond)

	assert.Zero(t, ldr.calls)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_LoadFailureDoesNotCommit(t *testing.T) {
	commits := &commitLog{}
	ext := &mockExtractor{batches: [][]domain.RawEvent{{commits.event("a")}}}
	ldr := &mockLoader{err: errors.New("broker unavailable")}

	p := pipeline.New(ext, &mockTransformer{}, ldr, discardLogger(), observability.NewMetricsForTesting(), 10)
	runFor(t, p, 300*time.Millisecond)

	assert.GreaterOrEqual(t, ldr.calls, 2, "the same batch is retried")
	assert.Empty(t, commits.keys)
	assert.Error(t, p.CheckReadiness(context.Background()))
}

// --- transformer ---

type fakeCharts struct {
	err error
	got domain.ChartRequest
}

func (f *fakeCharts) Compute(_ context.Context, req domain.ChartRequest) (domain.ChartResult, error) {
	f.got = req
	if f.err != nil {
		return domain.ChartResult{}, f.err
	}
	c := domain.NewChart(map[domain.Body]domain.Placement{
		domain.Sun: {Sign: domain.Gemini, Degree: 24.5, House: 12, Longitude: 84.5},
	}).WithMetadata(req.ID, req.City, req.Date, req.Time, time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC))
	return domain.ChartResult{Chart: c, Elements: domain.AnalyzeElements(c)}, nil
}

func TestChartTransformer_Transform(t *testing.T) {
	charts := &fakeCharts{}
	tfm := pipeline.NewTransformer(charts, discardLogger())

	out, err := tfm.Transform(context.Background(), (&commitLog{}).event("req-7"))
	require.NoError(t, err)

	assert.Equal(t, "req-7", charts.got.ID, "message key becomes the request ID")
	assert.Equal(t, []byte("req-7"), out.Key)
	assert.Equal(t, "2026-03-01T12:00:00Z", out.Headers["computed_at"])

	var body struct {
		Chart    map[string]json.RawMessage `json:"chart"`
		Elements domain.ElementTally        `json:"elements"`
	}
	require.NoError(t, json.Unmarshal(out.Value, &body))
	assert.JSONEq(t, `"New York"`, string(body.Chart["city"]))
	assert.Equal(t, domain.ElementTally{Air: 100}, body.Elements)
}

func TestChartTransformer_Errors(t *testing.T) {
	tests := []struct {
		name  string
		value string
		err   error
		want  error
	}{
		{"malformed json", `{"date":`, nil, domain.ErrInvalidInput},
		{"missing city", `{"date":"1990-06-15","time":"14:30"}`, nil, domain.ErrInvalidInput},
		{"compute fails", `{"date":"1990-06-15","time":"14:30","city":"Atlantis"}`, domain.ErrLocationNotFound, domain.ErrLocationNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tfm := pipeline.NewTransformer(&fakeCharts{err: tt.err}, discardLogger())
			_, err := tfm.Transform(context.Background(), domain.RawEvent{Key: []byte("k"), Value: []byte(tt.value)})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
