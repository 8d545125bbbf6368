// Package geocode resolves place names to coordinates via the Nominatim
// search API.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// ErrNotFound means the service answered but knows no such place. Expected
// and non-fatal; callers persist the article with null coordinates.
var ErrNotFound = errors.New("place not found")

// countryQualifier disambiguates bare town names toward Poland.
const countryQualifier = ", Polska"

// Point is a geographic coordinate pair.
type Point struct {
	Lat float64
	Lon float64
}

// Client is a Nominatim geocoding client. Calls are rate limited to one per
// second per the public instance's usage policy.
type Client struct {
	baseURL   string
	userAgent string
	client    *http.Client
	limiter   *rate.Limiter
}

// NewClient creates a geocoding client. timeout <= 0 falls back to 10
// seconds per call. userAgent should identify the deployment with a contact,
// as Nominatim requires.
func NewClient(baseURL, userAgent string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "https://nominatim.openstreetmap.org"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
		limiter:   rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

// Lookup resolves a place name to coordinates. The name is qualified with
// the country before lookup. Returns ErrNotFound when the service has no
// match; any other error is a transport or service problem.
func (c *Client) Lookup(ctx context.Context, place string) (Point, error) {
	if place == "" {
		return Point{}, ErrNotFound
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return Point{}, err
	}

	q := url.Values{}
	q.Set("q", place+countryQualifier)
	q.Set("format", "json")
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return Point{}, fmt.Errorf("creating request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return Point{}, fmt.Errorf("geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Point{}, fmt.Errorf("geocoding service returned %d", resp.StatusCode)
	}

	var results []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return Point{}, fmt.Errorf("decoding geocoding response: %w", err)
	}

	if len(results) == 0 {
		return Point{}, ErrNotFound
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return Point{}, fmt.Errorf("parsing latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return Point{}, fmt.Errorf("parsing longitude: %w", err)
	}

	return Point{Lat: lat, Lon: lon}, nil
}
