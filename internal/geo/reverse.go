package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// DefaultPlaceName is used when a place lookup succeeds but names nothing.
const DefaultPlaceName = "Lokasi Kamu"

// userAgent identifies the app to Nominatim, which rejects anonymous clients.
const userAgent = "nunggu-bedug/1.0"

// nominatimURL is a variable so tests can point it at an httptest server.
var nominatimURL = "https://nominatim.openstreetmap.org/reverse"

type nominatimResponse struct {
	Error   string `json:"error"`
	Address struct {
		City    string `json:"city"`
		Town    string `json:"town"`
		Village string `json:"village"`
		County  string `json:"county"`
	} `json:"address"`
}

// Reverse looks up a human-readable place name for the coordinates using
// OpenStreetMap Nominatim. The most specific of city, town, village and county
// wins.
func Reverse(ctx context.Context, lat, lng float64) (string, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, nominatimURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "id")

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("reverse geocoding request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reverse geocoding returned status %d", resp.StatusCode)
	}

	var result nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode reverse geocoding response: %w", err)
	}
	if result.Error != "" {
		return "", fmt.Errorf("reverse geocoding failed: %s", result.Error)
	}

	for _, name := range []string{result.Address.City, result.Address.Town, result.Address.Village, result.Address.County} {
		if name != "" {
			return name, nil
		}
	}
	return DefaultPlaceName, nil
}

// DisplayName is Reverse that never fails: any error degrades to the
// coordinates with two decimals.
func DisplayName(ctx context.Context, lat, lng float64) string {
	name, err := Reverse(ctx, lat, lng)
	if err != nil {
		return fmt.Sprintf("%.2f, %.2f", lat, lng)
	}
	return name
}
