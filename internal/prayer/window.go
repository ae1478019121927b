package prayer

import (
	"errors"
	"time"
)

// ErrInvalidWindow is returned when a window does not start before it ends.
var ErrInvalidWindow = errors.New("window start must be before window end")

// Progress describes where now sits inside a time window.
type Progress struct {
	Remaining time.Duration
	// Fraction is the elapsed share of the window in [0, 1].
	Fraction float64
	Complete bool
}

// ComputeProgress places now inside the window [start, end). Before start the
// fraction is 0; at or after end the window is complete with nothing
// remaining. It has no side effects.
func ComputeProgress(start, end, now time.Time) (Progress, error) {
	if !start.Before(end) {
		return Progress{}, ErrInvalidWindow
	}
	if !now.Before(end) {
		return Progress{Fraction: 1, Complete: true}, nil
	}

	total := end.Sub(start)
	elapsed := now.Sub(start)
	fraction := float64(elapsed) / float64(total)
	switch {
	case fraction < 0:
		fraction = 0
	case fraction > 1:
		fraction = 1
	}

	return Progress{
		Remaining: end.Sub(now),
		Fraction:  fraction,
	}, nil
}

// FastingProgress applies ComputeProgress to the fajr..maghrib window.
func (s Schedule) FastingProgress(now time.Time) (Progress, error) {
	return ComputeProgress(s.Fajr, s.Maghrib, now)
}
