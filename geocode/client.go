// Package geocode talks to a Nominatim-compatible geocoding provider.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"civicsync-client/models"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public Nominatim endpoint
	DefaultBaseURL = "https://nominatim.openstreetmap.org"
	// DefaultUserAgent is sent on every request, as the Nominatim usage policy requires
	DefaultUserAgent = "civicsync-client/1.0"
	// SearchLimit bounds the number of matches requested per query
	SearchLimit = 15
	// ReverseZoom asks for building-level detail
	ReverseZoom = 18
)

// ErrNoAddress is returned by Reverse when the provider has no display name
// for the position.
var ErrNoAddress = errors.New("geocode: no address for position")

// Client is a rate-limited geocoding client.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	userAgent    string
	countryCodes string
	limiter      *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithCountryCodes restricts searches to a comma-separated country list.
func WithCountryCodes(codes string) Option {
	return func(c *Client) { c.countryCodes = codes }
}

// WithRateLimit sets the allowed requests per second. Zero or less disables
// the limit.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// NewClient returns a client for baseURL limited to one request per second.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  DefaultUserAgent,
		limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search looks up places matching query.
func (c *Client) Search(ctx context.Context, query string) ([]models.Place, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("q", query)
	params.Set("addressdetails", "1")
	params.Set("namedetails", "1")
	params.Set("limit", strconv.Itoa(SearchLimit))
	if c.countryCodes != "" {
		params.Set("countrycodes", c.countryCodes)
	}

	var places []models.Place
	if err := c.get(ctx, "/search", params, &places); err != nil {
		return nil, err
	}
	return places, nil
}

// Reverse resolves a position to a place. A response without a display name
// yields ErrNoAddress.
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (models.Place, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	params.Set("zoom", strconv.Itoa(ReverseZoom))
	params.Set("addressdetails", "1")
	params.Set("namedetails", "1")

	var place models.Place
	if err := c.get(ctx, "/reverse", params, &place); err != nil {
		return models.Place{}, err
	}
	if strings.TrimSpace(place.DisplayName) == "" {
		return models.Place{}, ErrNoAddress
	}
	return place, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
	}

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("geocoder returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
