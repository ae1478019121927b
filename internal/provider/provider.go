// Package provider produces a day's prayer schedule for a position, either
// from the Al Adhan API or computed offline from the sun's position.
package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/nunggu-bedug/internal/prayer"
)

// ErrUnavailable is returned when no schedule could be produced.
var ErrUnavailable = errors.New("prayer schedule unavailable")

// ErrCoordinatesRequired is returned by providers that cannot resolve a city.
var ErrCoordinatesRequired = errors.New("coordinates required")

// Query selects the position and calendar day of a schedule.
type Query struct {
	Lat float64
	Lng float64
	// City and Country may replace the coordinates for providers that can
	// geocode them.
	City    string
	Country string
	// Date selects the calendar day by its year, month and day. Zero means
	// today at the queried position.
	Date time.Time
}

// HasCoordinates reports whether the query is positioned by lat/lng.
func (q Query) HasCoordinates() bool {
	return q.City == "" || q.Lat != 0 || q.Lng != 0
}

// Day returns the calendar day of the query as midnight UTC. Without an
// explicit Date it is the day at the queried longitude's solar time.
func (q Query) Day(now time.Time) time.Time {
	d := q.Date
	if d.IsZero() {
		d = now.UTC().Add(time.Duration(q.Lng / 15 * float64(time.Hour)))
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// Provider computes one day's schedule. Returned schedules are validated.
type Provider interface {
	Name() string
	Schedule(ctx context.Context, q Query) (prayer.Schedule, error)
}

// Chain tries each provider in order and returns the first schedule.
type Chain []Provider

func (c Chain) Name() string {
	names := make([]string, len(c))
	for i, p := range c {
		names[i] = p.Name()
	}
	return strings.Join(names, ",")
}

func (c Chain) Schedule(ctx context.Context, q Query) (prayer.Schedule, error) {
	var last error
	for _, p := range c {
		s, err := p.Schedule(ctx, q)
		if err == nil {
			return s, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return prayer.Schedule{}, fmt.Errorf("%w: %w", ErrUnavailable, ctxErr)
		}
		log.Warn().Err(err).Str("provider", p.Name()).Msg("provider failed, trying next")
		last = err
	}
	if last == nil {
		return prayer.Schedule{}, fmt.Errorf("%w: no providers configured", ErrUnavailable)
	}
	return prayer.Schedule{}, fmt.Errorf("%w: %w", ErrUnavailable, last)
}
