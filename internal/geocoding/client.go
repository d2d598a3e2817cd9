// Package geocoding resolves coordinates into postal addresses through an
// external reverse-geocoding API, with caching, retries and a circuit
// breaker so a degraded provider never stalls ingestion or analytics.
package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Sentinel outcomes of a reverse-geocoding call. ErrZeroResults is a
// definitive answer, not a fault: the provider looked and found nothing.
// ErrRateLimited and ErrUnavailable are the transient outcomes worth
// retrying; everything else is definitive and surfaced as-is.
var (
	ErrZeroResults = errors.New("geocoding: no address for coordinates")
	ErrRateLimited = errors.New("geocoding: provider rate limit hit")
	ErrUnavailable = errors.New("geocoding: provider unavailable")
)

// DefaultTimeout bounds a single provider call
const DefaultTimeout = 5 * time.Second

// ReverseGeocoder is the provider port the resolver depends on
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
}

// Client calls the reverse-geocoding HTTP API keyed by an API key
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// geocodeResponse is the provider's JSON shape
type geocodeResponse struct {
	Status  string `json:"status"` // "OK", "ZERO_RESULTS", "OVER_QUERY_LIMIT", ...
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
	ErrorMessage string `json:"error_message"`
}

// NewClient creates a reverse-geocoding client. baseURL is configurable so
// tests can stand in a local server.
func NewClient(baseURL, apiKey string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: logger,
	}
}

// ReverseGeocode resolves a coordinate pair into a formatted address.
// Returns ErrZeroResults for a definitive empty answer and ErrRateLimited
// for HTTP 429 / OVER_QUERY_LIMIT responses.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("geocoding api key not configured")
	}

	apiURL := fmt.Sprintf("%s/geocode/json?latlng=%s&key=%s",
		c.baseURL,
		url.QueryEscape(fmt.Sprintf("%.6f,%.6f", lat, lon)),
		url.QueryEscape(c.apiKey),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network faults and timeouts are transient from the caller's view
		return "", fmt.Errorf("%w: send request: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", ErrRateLimited
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return "", fmt.Errorf("%w: api returned status %d", ErrUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geocoding api returned status %d", resp.StatusCode)
	}

	var result geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	switch result.Status {
	case "OK":
		if len(result.Results) == 0 {
			return "", ErrZeroResults
		}
		return result.Results[0].FormattedAddress, nil
	case "ZERO_RESULTS":
		return "", ErrZeroResults
	case "OVER_QUERY_LIMIT":
		return "", ErrRateLimited
	default:
		c.logger.Warn("geocoding api error",
			zap.String("status", result.Status),
			zap.String("message", result.ErrorMessage),
			zap.Float64("lat", lat),
			zap.Float64("lon", lon))
		return "", fmt.Errorf("geocoding api error: %s", result.Status)
	}
}
