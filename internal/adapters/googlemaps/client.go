// Package googlemaps implements ports.Geocoder on the Google Places
// Autocomplete and Geocoding web services.
package googlemaps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"

	"github.com/samirrijal/riskmap/internal/core/domain"
	"github.com/samirrijal/riskmap/internal/core/ports"
	"github.com/samirrijal/riskmap/internal/pkg/metrics"
)

const (
	DefaultBaseURL = "https://maps.googleapis.com"

	autocompletePath = "/maps/api/place/autocomplete/json"
	geocodePath      = "/maps/api/geocode/json"

	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
)

// ErrNoResults means the provider matched nothing for a candidate.
var ErrNoResults = errors.New("no geocoding results")

// Config configures a Client.
type Config struct {
	APIKey            string
	BaseURL           string
	Language          string
	Region            string
	RequestsPerSecond float64
	Timeout           time.Duration
}

// Client talks to the Google Maps web services.
type Client struct {
	cfg     Config
	http    *fasthttp.Client
	limiter *rate.Limiter
}

var _ ports.Geocoder = (*Client)(nil)

// New creates a Client. The API key is required.
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("googlemaps: api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	return &Client{
		cfg: cfg,
		http: &fasthttp.Client{
			Name:                "riskmap",
			ReadTimeout:         cfg.Timeout,
			WriteTimeout:        cfg.Timeout,
			MaxIdleConnDuration: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), int(cfg.RequestsPerSecond)+1),
	}, nil
}

type autocompleteResponse struct {
	Status       string       `json:"status"`
	ErrorMessage string       `json:"error_message"`
	Predictions  []prediction `json:"predictions"`
}

type prediction struct {
	PlaceID     string `json:"place_id"`
	Description string `json:"description"`
}

type geocodeResponse struct {
	Status       string          `json:"status"`
	ErrorMessage string          `json:"error_message"`
	Results      []geocodeResult `json:"results"`
}

type geocodeResult struct {
	FormattedAddress string `json:"formatted_address"`
	Geometry         struct {
		Location *struct {
			Lat *float64 `json:"lat"`
			Lng *float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

// Suggest returns autocomplete predictions for query. ZERO_RESULTS is an
// empty list. Predictions lacking a description are dropped and logged.
func (c *Client) Suggest(ctx context.Context, query string) ([]domain.Candidate, error) {
	params := url.Values{"input": {query}}
	var resp autocompleteResponse
	if err := c.get(ctx, "autocomplete", autocompletePath, params, &resp); err != nil {
		return nil, err
	}
	if err := checkStatus(resp.Status, resp.ErrorMessage); err != nil {
		return nil, err
	}

	candidates := make([]domain.Candidate, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		if strings.TrimSpace(p.Description) == "" {
			slog.WarnContext(ctx, "dropping malformed prediction", "place_id", p.PlaceID)
			continue
		}
		candidates = append(candidates, domain.Candidate{PlaceID: p.PlaceID, Description: p.Description})
	}
	return candidates, nil
}

// Resolve geocodes a candidate by place id, or by its description when it
// has none, and returns the first result's location.
func (c *Client) Resolve(ctx context.Context, candidate domain.Candidate) (domain.Coordinate, error) {
	params := url.Values{}
	switch {
	case candidate.PlaceID != "":
		params.Set("place_id", candidate.PlaceID)
	case strings.TrimSpace(candidate.Description) != "":
		params.Set("address", candidate.Description)
	default:
		return domain.Coordinate{}, domain.ErrMalformedGeocodeHit
	}

	var resp geocodeResponse
	if err := c.get(ctx, "geocode", geocodePath, params, &resp); err != nil {
		return domain.Coordinate{}, err
	}
	if err := checkStatus(resp.Status, resp.ErrorMessage); err != nil {
		return domain.Coordinate{}, err
	}
	if len(resp.Results) == 0 {
		return domain.Coordinate{}, ErrNoResults
	}

	loc := resp.Results[0].Geometry.Location
	if loc == nil || loc.Lat == nil || loc.Lng == nil {
		slog.WarnContext(ctx, "geocode result without location", "place_id", candidate.PlaceID)
		return domain.Coordinate{}, fmt.Errorf("%w: result has no location", domain.ErrMalformedGeocodeHit)
	}
	coord := domain.Coordinate{Lat: *loc.Lat, Lng: *loc.Lng}
	if !coord.Valid() {
		slog.WarnContext(ctx, "geocode result out of range", "lat", coord.Lat, "lng", coord.Lng)
		return domain.Coordinate{}, fmt.Errorf("%w: location out of range", domain.ErrMalformedGeocodeHit)
	}
	return coord, nil
}

func (c *Client) get(ctx context.Context, op, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("googlemaps: rate limit: %w", err)
	}

	params.Set("key", c.cfg.APIKey)
	if c.cfg.Language != "" {
		params.Set("language", c.cfg.Language)
	}
	if c.cfg.Region != "" {
		params.Set("region", c.cfg.Region)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.cfg.BaseURL + path + "?" + params.Encode())
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")

	deadline := time.Now().Add(c.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	start := time.Now()
	metrics.GeocodeRequests.WithLabelValues(op).Inc()
	err := c.http.DoDeadline(req, resp, deadline)
	metrics.GeocodeDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GeocodeFailures.WithLabelValues(op).Inc()
		return fmt.Errorf("googlemaps: %s request: %w", op, err)
	}
	if code := resp.StatusCode(); code != fasthttp.StatusOK {
		metrics.GeocodeFailures.WithLabelValues(op).Inc()
		return fmt.Errorf("googlemaps: %s returned status %d", op, code)
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		metrics.GeocodeFailures.WithLabelValues(op).Inc()
		return fmt.Errorf("%w: %s: %w", domain.ErrMalformedGeocodeHit, op, err)
	}
	return nil
}

func checkStatus(status, message string) error {
	switch status {
	case statusOK, statusZeroResults:
		return nil
	case "":
		return fmt.Errorf("%w: missing status", domain.ErrMalformedGeocodeHit)
	}
	if message != "" {
		return fmt.Errorf("googlemaps: %s: %s", status, message)
	}
	return fmt.Errorf("googlemaps: %s", status)
}
