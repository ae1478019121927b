package cli

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/nunggu-bedug/internal/countdown"
	"github.com/smokyabdulrahman/nunggu-bedug/internal/display"
	"github.com/smokyabdulrahman/nunggu-bedug/internal/prayer"
)

// Status line formats.
const (
	StatusFull      = "full"
	StatusClock     = "clock"
	StatusRemaining = "remaining"
	StatusPercent   = "percent"
)

var flagStatusFormat string

// statusData is what custom status templates are executed against.
type statusData struct {
	Name      string // "Maghrib"
	Time      string // "18:04"
	Remaining string // "2j 15m"
	Clock     string // "02:15:30"
	Percent   int
	Label     string // "83% perjalanan puasa hari ini"
	Complete  bool
}

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print a one-line fasting countdown for status bars",
		Long: "Print the time left until Maghrib on one line, for tmux or other status bars.\n\n" +
			"Formats: full, clock, remaining, percent, or a Go template over\n" +
			".Name, .Time, .Remaining, .Clock, .Percent, .Label and .Complete,\n" +
			"e.g. '{{.Clock}} ({{.Percent}}%)'.",
		RunE: runStatus,
	}
	cmd.Flags().StringVar(&flagStatusFormat, "format", StatusFull, "Status format or Go template")
	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	sess, err := newSession(cmd)
	if err != nil {
		return err
	}
	sched, err := sess.schedule(cmd.Context(), time.Time{})
	if err != nil {
		return err
	}

	line, err := formatStatus(sched, clockIn(sched), flagStatusFormat, sess.layout)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), line)
	return nil
}

// formatStatus renders the fast's progress at now. Once maghrib has passed
// the built-in formats print the completion label.
func formatStatus(sched prayer.Schedule, now time.Time, format, layout string) (string, error) {
	state, p, err := countdown.Snapshot(sched, now, layout)
	if err != nil {
		return "", err
	}

	data := statusData{
		Name:      prayer.Names[prayer.Maghrib],
		Time:      sched.Maghrib.Format(layout),
		Remaining: prayer.FormatRemaining(p.Remaining),
		Clock:     display.Clock(state.Hours, state.Minutes, state.Seconds),
		Percent:   int(math.Floor(state.Progress)),
		Label:     state.ProgressLabel,
		Complete:  state.Complete,
	}

	if strings.Contains(format, "{{") {
		return prayer.ExecTemplate(format, data), nil
	}
	if data.Complete {
		return data.Label, nil
	}

	switch format {
	case StatusClock:
		return data.Clock, nil
	case StatusRemaining:
		return data.Remaining, nil
	case StatusPercent:
		return fmt.Sprintf("%d%%", data.Percent), nil
	default:
		return fmt.Sprintf("%s %s (%s)", data.Name, data.Time, data.Remaining), nil
	}
}
