// Package prayer models one day of prayer times and the fasting window
// between fajr and maghrib.
package prayer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/smokyabdulrahman/nunggu-bedug/internal/api"
)

// Keys of the seven daily markers, in chronological order.
const (
	Imsak   = "imsak"
	Fajr    = "fajr"
	Sunrise = "sunrise"
	Dhuhr   = "dhuhr"
	Asr     = "asr"
	Maghrib = "maghrib"
	Isha    = "isha"
)

// Keys lists every marker of a Schedule in chronological order.
var Keys = []string{Imsak, Fajr, Sunrise, Dhuhr, Asr, Maghrib, Isha}

// Names maps a marker key to its Indonesian display name.
var Names = map[string]string{
	Imsak:   "Imsak",
	Fajr:    "Subuh",
	Sunrise: "Terbit",
	Dhuhr:   "Dzuhur",
	Asr:     "Ashar",
	Maghrib: "Maghrib",
	Isha:    "Isya",
}

// ShortNames maps a marker key to a status-bar abbreviation.
var ShortNames = map[string]string{
	Imsak:   "Im",
	Fajr:    "S",
	Sunrise: "T",
	Dhuhr:   "D",
	Asr:     "A",
	Maghrib: "M",
	Isha:    "I",
}

// ImsakOffset is how long before fajr imsak falls when a source does not
// report it.
const ImsakOffset = 10 * time.Minute

// ErrScheduleOrder is returned when a schedule's instants are not strictly
// increasing in Keys order.
var ErrScheduleOrder = errors.New("prayer times are not in chronological order")

// Prayer is a single named instant of the day.
type Prayer struct {
	Key  string
	Name string
	Time time.Time
}

// Schedule holds one day's instants. It is never mutated once built; a new
// day or location means a new Schedule.
type Schedule struct {
	Date     time.Time `json:"date"`
	Timezone string    `json:"timezone,omitempty"`
	Imsak    time.Time `json:"imsak"`
	Fajr     time.Time `json:"fajr"`
	Sunrise  time.Time `json:"sunrise"`
	Dhuhr    time.Time `json:"dhuhr"`
	Asr      time.Time `json:"asr"`
	Maghrib  time.Time `json:"maghrib"`
	Isha     time.Time `json:"isha"`
}

// Time returns the instant for a marker key.
func (s Schedule) Time(key string) (time.Time, bool) {
	switch key {
	case Imsak:
		return s.Imsak, true
	case Fajr:
		return s.Fajr, true
	case Sunrise:
		return s.Sunrise, true
	case Dhuhr:
		return s.Dhuhr, true
	case Asr:
		return s.Asr, true
	case Maghrib:
		return s.Maghrib, true
	case Isha:
		return s.Isha, true
	}
	return time.Time{}, false
}

// Prayers returns the seven markers in chronological order.
func (s Schedule) Prayers() []Prayer {
	out := make([]Prayer, 0, len(Keys))
	for _, k := range Keys {
		t, _ := s.Time(k)
		out = append(out, Prayer{Key: k, Name: Names[k], Time: t})
	}
	return out
}

// Select returns the markers named in keys, keeping schedule order.
func (s Schedule) Select(keys []string) ([]Prayer, error) {
	want := make(map[string]bool, len(keys))
	for _, k := range keys {
		k = strings.ToLower(strings.TrimSpace(k))
		if _, ok := Names[k]; !ok {
			return nil, fmt.Errorf("unknown prayer name: %s", k)
		}
		want[k] = true
	}
	var out []Prayer
	for _, p := range s.Prayers() {
		if want[p.Key] {
			out = append(out, p)
		}
	}
	return out, nil
}

// Validate checks that every instant is set and strictly after the previous.
func (s Schedule) Validate() error {
	var prev Prayer
	for i, p := range s.Prayers() {
		if p.Time.IsZero() {
			return fmt.Errorf("%w: %s is missing", ErrScheduleOrder, p.Key)
		}
		if i > 0 && !p.Time.After(prev.Time) {
			return fmt.Errorf("%w: %s (%s) is not after %s (%s)", ErrScheduleOrder,
				p.Key, p.Time.Format(time.RFC3339), prev.Key, prev.Time.Format(time.RFC3339))
		}
		prev = p
	}
	return nil
}

// In returns a copy of the schedule with every instant expressed in loc.
func (s Schedule) In(loc *time.Location) Schedule {
	s.Date = s.Date.In(loc)
	s.Imsak = s.Imsak.In(loc)
	s.Fajr = s.Fajr.In(loc)
	s.Sunrise = s.Sunrise.In(loc)
	s.Dhuhr = s.Dhuhr.In(loc)
	s.Asr = s.Asr.In(loc)
	s.Maghrib = s.Maghrib.In(loc)
	s.Isha = s.Isha.In(loc)
	return s
}

// NextPrayer finds the first prayer strictly after now.
// It returns nil once every prayer of the day has passed.
func NextPrayer(prayers []Prayer, now time.Time) *Prayer {
	for i := range prayers {
		if prayers[i].Time.After(now) {
			return &prayers[i]
		}
	}
	return nil
}

// CurrentPrayer returns the latest prayer at or before now, or nil before the
// first one.
func CurrentPrayer(prayers []Prayer, now time.Time) *Prayer {
	var cur *Prayer
	for i := range prayers {
		if prayers[i].Time.After(now) {
			break
		}
		cur = &prayers[i]
	}
	return cur
}

// TimeRemaining returns the duration until the given prayer time.
func TimeRemaining(p Prayer, now time.Time) time.Duration {
	return p.Time.Sub(now)
}

// FormatRemaining formats a duration as "Xj Ym", or "Ym" under an hour.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		return "0m"
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60

	if h > 0 {
		return fmt.Sprintf("%dj %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

// ParseTimings converts Al Adhan wall-clock timings for date into a validated
// Schedule in loc. A missing Imsak falls back to fajr minus ImsakOffset.
func ParseTimings(timings api.Timings, date time.Time, loc *time.Location) (Schedule, error) {
	day := date.In(loc)
	s := Schedule{
		Date:     time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, loc),
		Timezone: loc.String(),
	}

	fields := []struct {
		key string
		raw string
		dst *time.Time
	}{
		{Fajr, timings.Fajr, &s.Fajr},
		{Sunrise, timings.Sunrise, &s.Sunrise},
		{Dhuhr, timings.Dhuhr, &s.Dhuhr},
		{Asr, timings.Asr, &s.Asr},
		{Maghrib, timings.Maghrib, &s.Maghrib},
		{Isha, timings.Isha, &s.Isha},
	}
	for _, f := range fields {
		t, err := parseTimeStr(f.raw, day, loc)
		if err != nil {
			return Schedule{}, fmt.Errorf("failed to parse time for %s (%q): %w", f.key, f.raw, err)
		}
		*f.dst = t
	}

	if strings.TrimSpace(timings.Imsak) == "" {
		s.Imsak = s.Fajr.Add(-ImsakOffset)
	} else {
		t, err := parseTimeStr(timings.Imsak, day, loc)
		if err != nil {
			return Schedule{}, fmt.Errorf("failed to parse time for %s (%q): %w", Imsak, timings.Imsak, err)
		}
		s.Imsak = t
	}

	if err := s.Validate(); err != nil {
		return Schedule{}, err
	}
	return s, nil
}

// parseTimeStr parses "15:02" or "15:02 (WIB)" into a time on date in loc.
func parseTimeStr(raw string, date time.Time, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(raw)
	if idx := strings.Index(s, " "); idx != -1 {
		s = s[:idx]
	}

	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return time.Time{}, fmt.Errorf("invalid time format: %q", raw)
	}

	var hour, min int
	if _, err := fmt.Sscanf(parts[0], "%d", &hour); err != nil {
		return time.Time{}, fmt.Errorf("invalid hour in %q: %w", raw, err)
	}
	if _, err := fmt.Sscanf(parts[1], "%d", &min); err != nil {
		return time.Time{}, fmt.Errorf("invalid minute in %q: %w", raw, err)
	}
	if hour < 0 || hour > 23 || min < 0 || min > 59 {
		return time.Time{}, fmt.Errorf("time out of range: %q", raw)
	}

	return time.Date(date.Year(), date.Month(), date.Day(), hour, min, 0, 0, loc), nil
}
