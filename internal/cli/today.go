package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/nunggu-bedug/internal/countdown"
	"github.com/smokyabdulrahman/nunggu-bedug/internal/display"
	"github.com/smokyabdulrahman/nunggu-bedug/internal/prayer"
)

func runToday(cmd *cobra.Command, args []string) error {
	sess, err := newSession(cmd)
	if err != nil {
		return err
	}

	sched, err := sess.schedule(cmd.Context(), time.Time{})
	if err != nil {
		return err
	}
	n := clockIn(sched)

	prayers, err := sched.Select(sess.prayers)
	if err != nil {
		return err
	}
	state, _, err := countdown.Snapshot(sched, n, sess.layout)
	if err != nil {
		return err
	}

	sess.describe(cmd.Context())
	out := cmd.OutOrStdout()
	if FlagJSON {
		return printTodayJSON(out, sched, prayers, state, n, sess.loc, sess.layout)
	}
	printTodayRich(out, sched, prayers, state, n, sess.loc, sess.layout)
	return nil
}

// printTodayRich renders the colored terminal output for today's schedule.
func printTodayRich(w io.Writer, sched prayer.Schedule, prayers []prayer.Prayer, state countdown.State, now time.Time, loc resolvedLocation, layout string) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", display.Heading("Jadwal Sholat"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %s\n", loc.Label())
	if sched.Timezone != "" {
		fmt.Fprintf(w, "  %s\n", display.Muted(sched.Timezone))
	}
	fmt.Fprintf(w, "  %s\n", now.Format("02 Jan 2006"))
	fmt.Fprintln(w)

	fmt.Fprint(w, display.ScheduleTable(prayers, now, layout))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  %s\n", state.Headline)
	if state.Complete {
		fmt.Fprintf(w, "  %s\n", display.Success(state.ProgressLabel))
	} else {
		fmt.Fprintf(w, "  %s  %s\n", display.ProgressBar(state.Progress, 30), state.ProgressLabel)
		fmt.Fprintf(w, "  %s\n", display.Clock(state.Hours, state.Minutes, state.Seconds))
	}
	fmt.Fprintln(w)
}

// todayJSON is the JSON output structure for the root command.
type todayJSON struct {
	Location todayJSONLocation `json:"location"`
	Date     string            `json:"date"`
	Timings  map[string]string `json:"timings"`
	Current  string            `json:"current"`
	Next     *todayJSONNext    `json:"next"`
	Fasting  countdown.State   `json:"fasting"`
}

type todayJSONLocation struct {
	Name      string  `json:"name"`
	City      string  `json:"city,omitempty"`
	Country   string  `json:"country,omitempty"`
	Timezone  string  `json:"timezone"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

type todayJSONNext struct {
	Prayer    string `json:"prayer"`
	Time      string `json:"time"`
	Remaining string `json:"remaining"`
}

// printTodayJSON renders structured JSON output.
func printTodayJSON(w io.Writer, sched prayer.Schedule, prayers []prayer.Prayer, state countdown.State, now time.Time, loc resolvedLocation, layout string) error {
	timings := make(map[string]string, len(prayers))
	for _, p := range prayers {
		timings[p.Key] = p.Time.Format(layout)
	}

	out := todayJSON{
		Location: todayJSONLocation{
			Name:      loc.Label(),
			City:      loc.City,
			Country:   loc.Country,
			Timezone:  sched.Timezone,
			Latitude:  loc.Lat,
			Longitude: loc.Lon,
		},
		Date:    now.Format("2006-01-02"),
		Timings: timings,
		Fasting: state,
	}

	if current := prayer.CurrentPrayer(prayers, now); current != nil {
		out.Current = current.Key
	}
	if next := prayer.NextPrayer(prayers, now); next != nil {
		out.Next = &todayJSONNext{
			Prayer:    next.Key,
			Time:      next.Time.Format(layout),
			Remaining: prayer.FormatRemaining(prayer.TimeRemaining(*next, now)),
		}
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}
