package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/natal-chart-service/internal/observability"
)

// Place is a single geocoding match.
type Place struct {
	Lat         float64
	Lon         float64
	DisplayName string
	Importance  float64
}

// Found reports whether the search produced a match.
func (p Place) Found() bool { return p.DisplayName != "" }

// Searcher performs forward geocoding of free-text place names. An empty
// Place with a nil error means nothing matched.
type Searcher interface {
	Search(ctx context.Context, query string) (Place, error)
}

// Client implements Searcher using the OpenStreetMap Nominatim search API.
type Client struct {
	userAgent  string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Nominatim client. Nominatim's usage policy requires an
// identifying User-Agent.
func NewClient(baseURL, userAgent string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		userAgent: userAgent,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// MaxSuggestions caps how many places Suggest returns.
const MaxSuggestions = 5

// Search returns the best match for query.
func (c *Client) Search(ctx context.Context, query string) (Place, error) {
	places, err := c.lookup(ctx, query, 1)
	if err != nil || len(places) == 0 {
		return Place{}, err
	}
	return places[0], nil
}

// Suggest returns up to n candidate places for a partial query, best first.
// n is clamped to [1, MaxSuggestions].
func (c *Client) Suggest(ctx context.Context, query string, n int) ([]Place, error) {
	n = max(1, min(n, MaxSuggestions))
	return c.lookup(ctx, query, n)
}

func (c *Client) lookup(ctx context.Context, query string, limit int) ([]Place, error) {
	params := url.Values{
		"q":      {query},
		"format": {"jsonv2"},
		"limit":  {strconv.Itoa(limit)},
	}
	u := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())

	start := time.Now()
	places, err := c.doRequest(ctx, u)
	c.metrics.GeocodeDuration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		c.logger.Warn("nominatim search failed", "query", query, "limit", limit, "error", err)
	case len(places) == 0:
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
	default:
		c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	}
	return places, err
}

func (c *Client) doRequest(ctx context.Context, fullURL string) ([]Place, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, body)
	}

	var results []result
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	places := make([]Place, 0, len(results))
	for _, r := range results {
		lat, errLat := strconv.ParseFloat(r.Lat, 64)
		lon, errLon := strconv.ParseFloat(r.Lon, 64)
		if errLat != nil || errLon != nil {
			return nil, fmt.Errorf("invalid coordinates %q,%q", r.Lat, r.Lon)
		}
		places = append(places, Place{
			Lat:         lat,
			Lon:         lon,
			DisplayName: r.DisplayName,
			Importance:  r.Importance,
		})
	}
	return places, nil
}

// Nominatim API response types.

type result struct {
	Lat         string  `json:"lat"` // decimal string
	Lon         string  `json:"lon"`
	DisplayName string  `json:"display_name"`
	Importance  float64 `json:"importance"`
}
