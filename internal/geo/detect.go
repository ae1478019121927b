// Package geo resolves where the user is: IP-based detection for hosts
// without a positioning device and reverse geocoding for display names.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"
)

// ErrLocationUnavailable wraps every failure to determine a position.
var ErrLocationUnavailable = errors.New("location unavailable")

// ErrInvalidCoordinates is returned for NaN, infinite or out-of-range
// coordinates.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// Location holds geographic coordinates detected from the user's IP.
type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	City      string  `json:"city"`
	Country   string  `json:"country"`
	Timezone  string  `json:"timezone"`
}

// ipAPIResponse maps the response from ip-api.com.
type ipAPIResponse struct {
	Status   string  `json:"status"`
	Message  string  `json:"message"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	City     string  `json:"city"`
	Country  string  `json:"country"`
	Timezone string  `json:"timezone"`
}

// geoAPIURL is a variable so tests can point it at an httptest server.
var geoAPIURL = "http://ip-api.com/json/?fields=status,message,lat,lon,city,country,timezone"

var httpClient = &http.Client{Timeout: 5 * time.Second}

// ValidateCoordinates checks that lat and lng are finite and on the globe.
func ValidateCoordinates(lat, lng float64) error {
	for _, v := range []float64{lat, lng} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: not a finite number", ErrInvalidCoordinates)
		}
	}
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %g out of range", ErrInvalidCoordinates, lat)
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("%w: longitude %g out of range", ErrInvalidCoordinates, lng)
	}
	return nil
}

// DetectLocation uses ip-api.com to determine the user's location from their
// public IP address. Every failure wraps ErrLocationUnavailable.
func DetectLocation(ctx context.Context) (*Location, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, geoAPIURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLocationUnavailable, err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: geolocation request failed: %v", ErrLocationUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: geolocation API returned status %d", ErrLocationUnavailable, resp.StatusCode)
	}

	var result ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: failed to decode geolocation response: %v", ErrLocationUnavailable, err)
	}

	if result.Status != "success" {
		return nil, fmt.Errorf("%w: %s", ErrLocationUnavailable, result.Message)
	}
	if err := ValidateCoordinates(result.Lat, result.Lon); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLocationUnavailable, err)
	}

	return &Location{
		Latitude:  result.Lat,
		Longitude: result.Lon,
		City:      result.City,
		Country:   result.Country,
		Timezone:  result.Timezone,
	}, nil
}
