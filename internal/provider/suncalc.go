package provider

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sixdouglas/suncalc"

	"github.com/smokyabdulrahman/nunggu-bedug/internal/prayer"
)

// Offsets applied on top of the astronomical events.
const (
	dhuhrOffset   = time.Minute
	maghribOffset = time.Minute
)

// Suncalc computes schedules offline from the sun's position. Fajr and isha
// use the -18 degree twilight; asr uses a shadow length of one.
type Suncalc struct {
	// Location renders the resulting instants. Nil means UTC.
	Location *time.Location
	now      func() time.Time
}

// NewSuncalc returns an offline provider rendering times in loc.
func NewSuncalc(loc *time.Location) *Suncalc {
	return &Suncalc{Location: loc, now: time.Now}
}

func (s *Suncalc) Name() string { return "suncalc" }

func (s *Suncalc) Schedule(ctx context.Context, q Query) (prayer.Schedule, error) {
	if err := ctx.Err(); err != nil {
		return prayer.Schedule{}, err
	}
	if !q.HasCoordinates() {
		return prayer.Schedule{}, fmt.Errorf("suncalc: %w", ErrCoordinatesRequired)
	}

	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	now := time.Now
	if s.now != nil {
		now = s.now
	}

	day := q.Day(now())
	// Reference instant near local solar noon so the events belong to day.
	ref := day.Add(12*time.Hour - time.Duration(q.Lng/15*float64(time.Hour)))
	times := suncalc.GetTimes(ref, q.Lat, q.Lng)

	noon := times[suncalc.SolarNoon].Value
	sunset := times[suncalc.Sunset].Value
	fajr := times[suncalc.NightEnd].Value

	sched := prayer.Schedule{
		Date:     time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc),
		Timezone: loc.String(),
		Imsak:    fajr.Add(-prayer.ImsakOffset).In(loc),
		Fajr:     fajr.In(loc),
		Sunrise:  times[suncalc.Sunrise].Value.In(loc),
		Dhuhr:    noon.Add(dhuhrOffset).In(loc),
		Asr:      asrTime(noon, sunset, q.Lat, q.Lng).In(loc),
		Maghrib:  sunset.Add(maghribOffset).In(loc),
		Isha:     times[suncalc.Night].Value.In(loc),
	}
	if err := sched.Validate(); err != nil {
		return prayer.Schedule{}, fmt.Errorf("suncalc: no usable schedule at %.4f,%.4f: %w", q.Lat, q.Lng, err)
	}
	return sched, nil
}

// asrTime finds the afternoon instant when an object's shadow equals its
// length plus its shadow at noon.
func asrTime(noon, sunset time.Time, lat, lng float64) time.Time {
	if !noon.Before(sunset) {
		return time.Time{}
	}
	noonAlt := suncalc.GetPosition(noon, lat, lng).Altitude
	zenith := math.Abs(math.Pi/2 - noonAlt)
	target := math.Atan(1 / (1 + math.Tan(zenith)))
	if noonAlt < target {
		return time.Time{}
	}

	// Altitude falls monotonically from noon to sunset.
	lo, hi := noon, sunset
	for hi.Sub(lo) > time.Second {
		mid := lo.Add(hi.Sub(lo) / 2)
		if suncalc.GetPosition(mid, lat, lng).Altitude > target {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo.Truncate(time.Second)
}
