package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/nunggu-bedug/internal/api"
	"github.com/smokyabdulrahman/nunggu-bedug/internal/cache"
	"github.com/smokyabdulrahman/nunggu-bedug/internal/config"
	"github.com/smokyabdulrahman/nunggu-bedug/internal/geo"
	"github.com/smokyabdulrahman/nunggu-bedug/internal/prayer"
	"github.com/smokyabdulrahman/nunggu-bedug/internal/provider"
)

// Seams replaced in tests.
var (
	now            = time.Now
	detectLocation = geo.DetectLocation
	placeName      = geo.DisplayName
	newProvider    = buildProvider
)

const placeTimeout = 5 * time.Second

const retryHint = "check your connection and try again, or set a location:\n" +
	"  nunggu-bedug config set latitude <lat>\n" +
	"  nunggu-bedug config set longitude <lng>"

// resolvedLocation is where the schedule is computed for.
type resolvedLocation struct {
	Lat, Lon float64
	City     string
	Country  string
	// Place names a detected position for display.
	Place string
	// Timezone is an IANA name hint from geolocation, possibly empty.
	Timezone string
}

func (l resolvedLocation) hasCoordinates() bool {
	return l.City == "" || l.Lat != 0 || l.Lon != 0
}

// Label is a short human description of the location.
func (l resolvedLocation) Label() string {
	switch {
	case l.Place != "":
		return l.Place
	case l.City != "" && l.Country != "":
		return l.City + ", " + l.Country
	case l.City != "":
		return l.City
	default:
		return fmt.Sprintf("%.4f, %.4f", l.Lat, l.Lon)
	}
}

func (l resolvedLocation) query(date time.Time) provider.Query {
	q := provider.Query{Date: date}
	if l.hasCoordinates() {
		q.Lat, q.Lng = l.Lat, l.Lon
	} else {
		q.City, q.Country = l.City, l.Country
	}
	return q
}

// resolveLocation picks the location by priority: CLI flags and config
// (already merged into cfg) > cached geolocation > IP auto-detect.
func resolveLocation(ctx context.Context, cfg *config.Config, c *cache.Cache) (resolvedLocation, error) {
	switch {
	case cfg.Latitude != 0 || cfg.Longitude != 0:
		if err := geo.ValidateCoordinates(cfg.Latitude, cfg.Longitude); err != nil {
			return resolvedLocation{}, err
		}
		return resolvedLocation{Lat: cfg.Latitude, Lon: cfg.Longitude}, nil
	case cfg.City != "":
		if cfg.Country == "" {
			return resolvedLocation{}, errors.New("--country is required when using --city")
		}
		return resolvedLocation{City: cfg.City, Country: cfg.Country}, nil
	}

	if c != nil {
		if cached := c.LoadGeo(); cached != nil {
			log.Debug().Str("city", cached.City).Msg("using cached geolocation")
			return fromGeo(cached), nil
		}
	}

	detected, err := detectLocation(ctx)
	if err != nil {
		return resolvedLocation{}, fmt.Errorf("no location specified and auto-detection failed: %w\n%s", err, retryHint)
	}
	if c != nil {
		if err := c.SaveGeo(detected); err != nil {
			log.Warn().Err(err).Msg("failed to cache geolocation")
		}
	}
	return fromGeo(detected), nil
}

// fromGeo keeps the detected city as a display name only; coordinates
// drive the calculation.
func fromGeo(g *geo.Location) resolvedLocation {
	return resolvedLocation{
		Lat:      g.Latitude,
		Lon:      g.Longitude,
		Place:    strings.Join(nonEmpty(g.City, g.Country), ", "),
		Timezone: g.Timezone,
	}
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// buildProvider assembles the schedule source selected by cfg.Provider.
// Remote lookups go through the file cache when one is available.
func buildProvider(cfg *config.Config, c *cache.Cache, loc *time.Location) (provider.Provider, error) {
	method := cfg.MethodOrDefault(api.MethodMoonsightingCommittee)
	school := cfg.SchoolOrDefault(-1)

	var remote provider.Provider = provider.NewAladhan(api.NewClient(), method, school)
	if c != nil {
		remote = provider.NewCached(remote, provider.FileStore{Cache: c}, method)
	}
	offline := provider.NewSuncalc(loc)

	switch config.Or(cfg.Provider, config.ProviderAuto) {
	case config.ProviderAladhan:
		return remote, nil
	case config.ProviderSuncalc:
		return offline, nil
	case config.ProviderAuto:
		return provider.Chain{remote, offline}, nil
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// session is what every schedule-showing command needs: the merged config,
// the resolved location and a provider.
type session struct {
	cfg      *config.Config
	loc      resolvedLocation
	provider provider.Provider
	layout   string
	prayers  []string
}

func newSession(cmd *cobra.Command) (*session, error) {
	cfg := effectiveConfig(cmd)

	c, err := cache.New(cfg.CacheDir)
	if err != nil {
		log.Warn().Err(err).Msg("cache disabled")
		c = nil
	}

	loc, err := resolveLocation(cmd.Context(), cfg, c)
	if err != nil {
		return nil, err
	}

	tz := time.Local
	if loc.Timezone != "" {
		if l, err := time.LoadLocation(loc.Timezone); err == nil {
			tz = l
		}
	}
	p, err := newProvider(cfg, c, tz)
	if err != nil {
		return nil, err
	}

	prayers := prayer.Keys
	if cfg.Prayers != "" {
		prayers = strings.Split(cfg.Prayers, ",")
	}

	return &session{
		cfg:      cfg,
		loc:      loc,
		provider: p,
		layout:   prayer.GoTimeLayout(cfg.TimeFormat),
		prayers:  prayers,
	}, nil
}

// schedule returns the schedule for date, or for today when date is zero.
func (s *session) schedule(ctx context.Context, date time.Time) (prayer.Schedule, error) {
	sched, err := s.provider.Schedule(ctx, s.loc.query(date))
	if err != nil {
		return prayer.Schedule{}, fmt.Errorf("failed to get prayer times for %s: %w", s.loc.Label(), err)
	}
	return sched, nil
}

// describe names a location given only as coordinates. Lookup failures
// degrade to the coordinates.
func (s *session) describe(ctx context.Context) {
	if s.loc.Place != "" || s.loc.City != "" || !s.loc.hasCoordinates() {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, placeTimeout)
	defer cancel()
	s.loc.Place = placeName(ctx, s.loc.Lat, s.loc.Lon)
}

// clockIn returns the current time in the schedule's zone.
func clockIn(sched prayer.Schedule) time.Time {
	return now().In(sched.Fajr.Location())
}
