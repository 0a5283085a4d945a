package ephemeris

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/natal-chart-service/internal/domain"
	"github.com/couchcryptid/natal-chart-service/internal/observability"
)

// Client implements domain.Ephemeris against an HTTP ephemeris service that
// wraps the Swiss Ephemeris (body numbers and house system letters follow it).
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an ephemeris service client.
func NewClient(baseURL string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// BodyLongitude returns the ecliptic longitude of body at jd (UT).
func (c *Client) BodyLongitude(ctx context.Context, jd float64, body domain.Body) (float64, error) {
	id, ok := body.EphemerisID()
	if !ok {
		return 0, fmt.Errorf("%s has no ephemeris id", body)
	}
	u := fmt.Sprintf("%s/v1/bodies/%d?%s", c.baseURL, id, url.Values{"jd": {formatJD(jd)}}.Encode())

	var resp positionResponse
	if err := c.get(ctx, u, "body", &resp); err != nil {
		return 0, err
	}
	return resp.longitude()
}

// HouseCusps returns the twelve house cusps and angles for the given moment
// and geographic position.
func (c *Client) HouseCusps(ctx context.Context, jd, lat, lon float64, system domain.HouseSystem) (domain.HouseData, error) {
	params := url.Values{
		"jd":   {formatJD(jd)},
		"lat":  {strconv.FormatFloat(lat, 'f', 6, 64)},
		"lon":  {strconv.FormatFloat(lon, 'f', 6, 64)},
		"hsys": {system.Flag()},
	}
	u := fmt.Sprintf("%s/v1/houses?%s", c.baseURL, params.Encode())

	var resp housesResponse
	if err := c.get(ctx, u, "houses", &resp); err != nil {
		return domain.HouseData{}, err
	}
	return resp.houseData()
}

// FixedStarLongitude returns the ecliptic longitude of a named fixed star.
func (c *Client) FixedStarLongitude(ctx context.Context, name string, jd float64) (float64, error) {
	u := fmt.Sprintf("%s/v1/stars/%s?%s", c.baseURL, url.PathEscape(name), url.Values{"jd": {formatJD(jd)}}.Encode())

	var resp positionResponse
	if err := c.get(ctx, u, "star", &resp); err != nil {
		return 0, err
	}
	return resp.longitude()
}

// CheckReadiness pings the service health endpoint.
func (c *Client) CheckReadiness(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ephemeris service unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ephemeris service unhealthy: status %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) get(ctx context.Context, fullURL, call string, out any) error {
	start := time.Now()
	err := c.doRequest(ctx, fullURL, out)
	c.metrics.EphemerisDuration.WithLabelValues(call).Observe(time.Since(start).Seconds())

	if err != nil {
		c.metrics.EphemerisRequests.WithLabelValues(call, "error").Inc()
		c.logger.Warn("ephemeris request failed", "call", call, "error", err)
		return fmt.Errorf("%s request: %w", call, err)
	}
	c.metrics.EphemerisRequests.WithLabelValues(call, "success").Inc()
	return nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("ephemeris API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func formatJD(jd float64) string {
	return strconv.FormatFloat(jd, 'f', 8, 64)
}

// Ephemeris API response types.

// positionResponse accepts either {"longitude": 12.3} or the raw Swiss
// Ephemeris shape {"position": [lon, lat, dist, ...]}; some deployments return
// "position" as a bare number.
type positionResponse struct {
	Longitude *float64        `json:"longitude"`
	Position  json.RawMessage `json:"position"`
}

var errNoLongitude = errors.New("response carries no longitude")

func (r positionResponse) longitude() (float64, error) {
	if r.Longitude != nil {
		return *r.Longitude, nil
	}
	if len(r.Position) == 0 {
		return 0, errNoLongitude
	}

	var scalar float64
	if err := json.Unmarshal(r.Position, &scalar); err == nil {
		return scalar, nil
	}
	var vec []float64
	if err := json.Unmarshal(r.Position, &vec); err != nil {
		return 0, fmt.Errorf("decode position: %w", err)
	}
	if len(vec) == 0 {
		return 0, errNoLongitude
	}
	return vec[0], nil
}

type housesResponse struct {
	Cusps []float64 `json:"cusps"`
	Ascmc []float64 `json:"ascmc"` // [ascendant, midheaven, ...]
}

func (r housesResponse) houseData() (domain.HouseData, error) {
	cusps := r.Cusps
	// Older Swiss Ephemeris bindings return 13 entries with index 0 unused.
	if len(cusps) == 13 {
		cusps = cusps[1:]
	}
	if len(cusps) != 12 {
		return domain.HouseData{}, fmt.Errorf("expected 12 house cusps, got %d", len(r.Cusps))
	}
	if len(r.Ascmc) < 2 {
		return domain.HouseData{}, fmt.Errorf("expected ascendant and midheaven, got %d angles", len(r.Ascmc))
	}

	var hd domain.HouseData
	copy(hd.Cusps[:], cusps)
	hd.Ascendant = r.Ascmc[0]
	hd.Midheaven = r.Ascmc[1]
	return hd, nil
}
