package display

import (
	"strings"
	"testing"
	"time"

	"github.com/smokyabdulrahman/nunggu-bedug/internal/prayer"
)

func at(h, m int) time.Time {
	return time.Date(2026, 3, 11, h, m, 0, 0, time.UTC)
}

func TestTable_Render(t *testing.T) {
	SetEnabled(false)

	tbl := NewTable("Waktu", "Jam")
	tbl.AddRow("Subuh", "04:36")
	tbl.AddRow("Maghrib", "18:04")

	want := "" +
		"  Waktu    Jam\n" +
		"  ───────  ─────\n" +
		"  Subuh    04:36\n" +
		"  Maghrib  18:04\n"
	if got := tbl.Render(); got != want {
		t.Errorf("Render() =\n%s\nwant\n%s", got, want)
	}
}

func TestTable_EmptyHeaders(t *testing.T) {
	if got := NewTable().Render(); got != "" {
		t.Errorf("Render() with no headers = %q, want empty", got)
	}
}

func TestFormatRow_MissingCells(t *testing.T) {
	if got := formatRow([]string{"a"}, []int{3, 4}); got != "a" {
		t.Errorf("formatRow() = %q, want %q", got, "a")
	}
}

func TestScheduleTable(t *testing.T) {
	prayers := []prayer.Prayer{
		{Key: prayer.Fajr, Name: "Subuh", Time: at(4, 30)},
		{Key: prayer.Asr, Name: "Ashar", Time: at(15, 10)},
		{Key: prayer.Maghrib, Name: "Maghrib", Time: at(18, 0)},
	}

	SetEnabled(false)
	got := ScheduleTable(prayers, at(12, 0), "15:04")
	for _, want := range []string{"Subuh    04:30\n", "Ashar    15:10  3j 10m", "Maghrib  18:00  6j 0m"} {
		if !strings.Contains(got, want) {
			t.Errorf("ScheduleTable() missing %q in:\n%s", want, got)
		}
	}

	SetEnabled(true)
	defer SetEnabled(false)
	got = ScheduleTable(prayers, at(12, 0), "15:04")
	if !strings.Contains(got, Highlight("Ashar    15:10  3j 10m")) {
		t.Errorf("next prayer should be highlighted:\n%q", got)
	}
	if !strings.Contains(got, Muted("Subuh    04:30")) {
		t.Errorf("past prayer should be muted:\n%q", got)
	}
}

func TestProgressBar(t *testing.T) {
	SetEnabled(false)

	tests := []struct {
		percent float64
		want    string
	}{
		{0, "░░░░░░░░░░"},
		{50, "█████░░░░░"},
		{100, "██████████"},
		{150, "██████████"},
		{-5, "░░░░░░░░░░"},
	}
	for _, tt := range tests {
		if got := ProgressBar(tt.percent, 10); got != tt.want {
			t.Errorf("ProgressBar(%v) = %q, want %q", tt.percent, got, tt.want)
		}
	}
	if ProgressBar(50, 0) != "" {
		t.Error("zero width should render nothing")
	}
}

func TestClock(t *testing.T) {
	if got := Clock("01", "02", "03"); got != "01:02:03" {
		t.Errorf("Clock() = %q", got)
	}
}
