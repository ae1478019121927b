package prayer

import (
	"errors"
	"testing"
	"time"
)

func TestComputeProgress_Scenarios(t *testing.T) {
	fajr, maghrib := at(4, 30), at(18, 0)

	tests := []struct {
		name          string
		now           time.Time
		wantFraction  float64
		wantRemaining time.Duration
		wantComplete  bool
	}{
		{"at fajr", at(4, 30), 0, 13*time.Hour + 30*time.Minute, false},
		{"halfway", at(11, 15), 0.5, 6*time.Hour + 45*time.Minute, false},
		{"at maghrib", at(18, 0), 1, 0, true},
		{"after maghrib", at(20, 0), 1, 0, true},
		{"before fajr", at(3, 0), 0, 15 * time.Hour, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeProgress(fajr, maghrib, tt.now)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Fraction != tt.wantFraction {
				t.Errorf("Fraction = %v, want %v", got.Fraction, tt.wantFraction)
			}
			if got.Remaining != tt.wantRemaining {
				t.Errorf("Remaining = %v, want %v", got.Remaining, tt.wantRemaining)
			}
			if got.Complete != tt.wantComplete {
				t.Errorf("Complete = %v, want %v", got.Complete, tt.wantComplete)
			}
		})
	}
}

func TestComputeProgress_StrictlyInside(t *testing.T) {
	start, end := at(4, 30), at(18, 0)
	for now := start.Add(time.Second); now.Before(end); now = now.Add(17 * time.Minute) {
		got, err := ComputeProgress(start, end, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Fraction <= 0 || got.Fraction >= 1 {
			t.Errorf("now=%v: Fraction = %v, want (0, 1)", now, got.Fraction)
		}
		if got.Remaining != end.Sub(now) {
			t.Errorf("now=%v: Remaining = %v, want %v", now, got.Remaining, end.Sub(now))
		}
		if got.Complete {
			t.Errorf("now=%v: unexpectedly complete", now)
		}
	}
}

func TestComputeProgress_Idempotent(t *testing.T) {
	start, end, now := at(4, 30), at(18, 0), at(9, 41)
	a, errA := ComputeProgress(start, end, now)
	b, errB := ComputeProgress(start, end, now)
	if errA != nil || errB != nil {
		t.Fatalf("unexpected errors: %v, %v", errA, errB)
	}
	if a != b {
		t.Errorf("results differ: %+v vs %+v", a, b)
	}
}

func TestComputeProgress_InvalidWindow(t *testing.T) {
	for _, end := range []time.Time{at(4, 30), at(3, 0)} {
		if _, err := ComputeProgress(at(4, 30), end, at(5, 0)); !errors.Is(err, ErrInvalidWindow) {
			t.Errorf("end=%v: err = %v, want ErrInvalidWindow", end, err)
		}
	}
}

func TestSchedule_FastingProgress(t *testing.T) {
	got, err := sampleSchedule().FastingProgress(at(11, 15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Fraction != 0.5 {
		t.Errorf("Fraction = %v, want 0.5", got.Fraction)
	}
}
