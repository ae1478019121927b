package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultBaseURL = "https://api.aladhan.com/v1"

// MethodMoonsightingCommittee is the Al Adhan id of the Moonsighting Committee
// Worldwide calculation method.
const MethodMoonsightingCommittee = 15

// Client talks to the Al Adhan prayer times API.
type Client struct {
	httpClient *http.Client
	// BaseURL is the API base URL. Tests point it at an httptest server.
	BaseURL string
}

// NewClient creates a new API client with a 10 second timeout.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		BaseURL: defaultBaseURL,
	}
}

// Options selects the calculation method and juristic school. Negative values
// leave the choice to the API.
type Options struct {
	Method int
	School int
}

func (o Options) apply(params url.Values) {
	if o.Method >= 0 {
		params.Set("method", strconv.Itoa(o.Method))
	}
	if o.School >= 0 {
		params.Set("school", strconv.Itoa(o.School))
	}
}

// FetchByCoordinates fetches the timings of one day at the given coordinates.
func (c *Client) FetchByCoordinates(ctx context.Context, date time.Time, lat, lon float64, opts Options) (*Response, error) {
	endpoint := fmt.Sprintf("%s/timings/%s", c.BaseURL, date.Format("02-01-2006"))

	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', 6, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', 6, 64))
	opts.apply(params)

	return c.doRequest(ctx, endpoint, params)
}

// FetchByCity fetches the timings of one day for a city and country.
func (c *Client) FetchByCity(ctx context.Context, date time.Time, city, country string, opts Options) (*Response, error) {
	endpoint := fmt.Sprintf("%s/timingsByCity/%s", c.BaseURL, date.Format("02-01-2006"))

	params := url.Values{}
	params.Set("city", city)
	params.Set("country", country)
	opts.apply(params)

	return c.doRequest(ctx, endpoint, params)
}

func (c *Client) doRequest(ctx context.Context, endpoint string, params url.Values) (*Response, error) {
	reqURL := endpoint + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build API request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var apiResp Response
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("failed to decode API response: %w", err)
	}

	if apiResp.Code != http.StatusOK {
		return nil, fmt.Errorf("API error: code=%d status=%s", apiResp.Code, apiResp.Status)
	}

	return &apiResp, nil
}
