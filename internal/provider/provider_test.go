package provider

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/smokyabdulrahman/nunggu-bedug/internal/prayer"
)

// stubProvider returns a fixed schedule or error and counts calls.
type stubProvider struct {
	name  string
	sched prayer.Schedule
	err   error
	calls atomic.Int32
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Schedule(context.Context, Query) (prayer.Schedule, error) {
	s.calls.Add(1)
	return s.sched, s.err
}

func sampleSchedule() prayer.Schedule {
	at := func(h, m int) time.Time { return time.Date(2026, 3, 11, h, m, 0, 0, time.UTC) }
	return prayer.Schedule{
		Date:     at(0, 0),
		Timezone: "UTC",
		Imsak:    at(4, 20),
		Fajr:     at(4, 30),
		Sunrise:  at(5, 50),
		Dhuhr:    at(12, 0),
		Asr:      at(15, 10),
		Maghrib:  at(18, 0),
		Isha:     at(19, 10),
	}
}

func TestQueryDay(t *testing.T) {
	now := time.Date(2026, 3, 11, 20, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		q    Query
		want string
	}{
		{"explicit date", Query{Lng: 106.8, Date: time.Date(2026, 3, 1, 23, 0, 0, 0, time.UTC)}, "2026-03-01"},
		{"greenwich", Query{Lng: 0}, "2026-03-11"},
		{"east of greenwich is already tomorrow", Query{Lng: 106.8}, "2026-03-12"},
		{"west of greenwich", Query{Lng: -74}, "2026-03-11"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.q.Day(now).Format("2006-01-02"); got != tt.want {
				t.Errorf("Day() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestQueryHasCoordinates(t *testing.T) {
	if !(Query{Lat: -6.2, Lng: 106.8}).HasCoordinates() {
		t.Error("coordinates query should have coordinates")
	}
	if (Query{City: "Jakarta", Country: "Indonesia"}).HasCoordinates() {
		t.Error("city-only query should not have coordinates")
	}
	if !(Query{}).HasCoordinates() {
		t.Error("empty query is positioned at 0,0")
	}
}

func TestChain_FirstSuccessWins(t *testing.T) {
	failing := &stubProvider{name: "aladhan", err: errors.New("boom")}
	working := &stubProvider{name: "suncalc", sched: sampleSchedule()}
	unused := &stubProvider{name: "other", sched: sampleSchedule()}

	c := Chain{failing, working, unused}
	got, err := c.Schedule(context.Background(), Query{Lat: 1, Lng: 2})
	if err != nil {
		t.Fatalf("Schedule() error: %v", err)
	}
	if !got.Maghrib.Equal(sampleSchedule().Maghrib) {
		t.Errorf("Maghrib = %v", got.Maghrib)
	}
	if failing.calls.Load() != 1 || working.calls.Load() != 1 || unused.calls.Load() != 0 {
		t.Errorf("calls = %d/%d/%d, want 1/1/0", failing.calls.Load(), working.calls.Load(), unused.calls.Load())
	}
	if c.Name() != "aladhan,suncalc,other" {
		t.Errorf("Name() = %q", c.Name())
	}
}

func TestChain_AllFail(t *testing.T) {
	last := errors.New("second failure")
	c := Chain{
		&stubProvider{name: "a", err: errors.New("first failure")},
		&stubProvider{name: "b", err: last},
	}
	_, err := c.Schedule(context.Background(), Query{})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("error should wrap ErrUnavailable, got %v", err)
	}
	if !errors.Is(err, last) {
		t.Errorf("error should wrap the last failure, got %v", err)
	}
}

func TestChain_Empty(t *testing.T) {
	_, err := Chain{}.Schedule(context.Background(), Query{})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("error should wrap ErrUnavailable, got %v", err)
	}
}

func TestChain_StopsOnCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	second := &stubProvider{name: "b", sched: sampleSchedule()}
	c := Chain{&stubProvider{name: "a", err: context.Canceled}, second}

	_, err := c.Schedule(ctx, Query{})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error should wrap context.Canceled, got %v", err)
	}
	if second.calls.Load() != 0 {
		t.Error("second provider should not be tried after cancellation")
	}
}
