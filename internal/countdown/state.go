package countdown

import (
	"fmt"
	"math"
	"time"

	"github.com/smokyabdulrahman/nunggu-bedug/internal/notify"
	"github.com/smokyabdulrahman/nunggu-bedug/internal/prayer"
)

// Display text, in the app's single locale (id-ID).
const (
	placeholder         = "--"
	labelCalculating    = "Menghitung perjalanan puasa..."
	labelDetecting      = "Mendeteksi lokasi..."
	labelProgressFormat = "%d%% perjalanan puasa hari ini"
	labelHeadingFormat  = "Menuju Maghrib · %s"
	labelComplete       = "Sudah waktunya berbuka!"
	labelHeadingDone    = "Sudah waktunya buka puasa"
)

// State is what a presentation layer renders. It is replaced wholesale on
// every tick.
type State struct {
	Hours   string `json:"hours"`
	Minutes string `json:"minutes"`
	Seconds string `json:"seconds"`
	// Progress is the elapsed share of the fast in percent, unrounded.
	Progress      float64 `json:"progress"`
	ProgressLabel string  `json:"progressLabel"`
	Headline      string  `json:"headline"`
	Complete      bool    `json:"isComplete"`
}

// InitialState is shown before any schedule is loaded.
func InitialState() State {
	return State{
		Hours:         placeholder,
		Minutes:       placeholder,
		Seconds:       placeholder,
		ProgressLabel: labelCalculating,
		Headline:      labelDetecting,
	}
}

// Snapshot computes the state of the fajr..maghrib window at now. layout
// formats the maghrib time in the headline; empty means "15:04".
func Snapshot(s prayer.Schedule, now time.Time, layout string) (State, prayer.Progress, error) {
	p, err := s.FastingProgress(now)
	if err != nil {
		return InitialState(), prayer.Progress{}, err
	}
	if p.Complete {
		return State{
			Hours:         "00",
			Minutes:       "00",
			Seconds:       "00",
			Progress:      100,
			ProgressLabel: labelComplete,
			Headline:      labelHeadingDone,
			Complete:      true,
		}, p, nil
	}

	if layout == "" {
		layout = "15:04"
	}
	h, m, sec := splitDuration(p.Remaining)
	percent := p.Fraction * 100
	return State{
		Hours:         pad2(h),
		Minutes:       pad2(m),
		Seconds:       pad2(sec),
		Progress:      percent,
		ProgressLabel: fmt.Sprintf(labelProgressFormat, int(math.Floor(percent))),
		Headline:      fmt.Sprintf(labelHeadingFormat, s.Maghrib.Format(layout)),
	}, p, nil
}

// splitDuration decomposes d on whole milliseconds into hours, minutes and
// seconds.
func splitDuration(d time.Duration) (h, m, s int64) {
	ms := d.Milliseconds()
	h = ms / 3_600_000
	m = (ms % 3_600_000) / 60_000
	s = (ms % 60_000) / 1000
	return h, m, s
}

func pad2(v int64) string {
	return fmt.Sprintf("%02d", v)
}

func nearEndMessage(at time.Time) notify.Message {
	return notify.Message{
		Kind:  notify.KindNearEnd,
		Title: "🌅 5 Menit Lagi Buka Puasa!",
		Body:  "Siapkan menu berbukamu!",
		At:    at,
	}
}

func completeMessage(at time.Time) notify.Message {
	return notify.Message{
		Kind:  notify.KindComplete,
		Title: "🥁 Bedug! Waktunya Buka Puasa!",
		Body:  "Allahumma laka shumtu...",
		At:    at,
	}
}
