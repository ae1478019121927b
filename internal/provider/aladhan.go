package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/nunggu-bedug/internal/api"
	"github.com/smokyabdulrahman/nunggu-bedug/internal/prayer"
)

// Aladhan fetches schedules from the Al Adhan timings API.
type Aladhan struct {
	Client  *api.Client
	Options api.Options
	now     func() time.Time
}

// NewAladhan returns an Al Adhan provider. A negative method or school lets
// the API choose.
func NewAladhan(client *api.Client, method, school int) *Aladhan {
	if client == nil {
		client = api.NewClient()
	}
	return &Aladhan{
		Client:  client,
		Options: api.Options{Method: method, School: school},
		now:     time.Now,
	}
}

func (a *Aladhan) Name() string { return "aladhan" }

func (a *Aladhan) Schedule(ctx context.Context, q Query) (prayer.Schedule, error) {
	day := q.Day(a.now())

	var (
		resp *api.Response
		err  error
	)
	if q.HasCoordinates() {
		resp, err = a.Client.FetchByCoordinates(ctx, day, q.Lat, q.Lng, a.Options)
	} else {
		resp, err = a.Client.FetchByCity(ctx, day, q.City, q.Country, a.Options)
	}
	if err != nil {
		return prayer.Schedule{}, fmt.Errorf("aladhan: %w", err)
	}

	loc := time.UTC
	if tz := resp.Data.Meta.Timezone; tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			log.Warn().Err(err).Str("timezone", tz).Msg("unknown timezone, using UTC")
		} else {
			loc = l
		}
	}

	date := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc)
	s, err := prayer.ParseTimings(resp.Data.Timings, date, loc)
	if err != nil {
		return prayer.Schedule{}, fmt.Errorf("aladhan: %w", err)
	}
	return s, nil
}
