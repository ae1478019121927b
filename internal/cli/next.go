package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/nunggu-bedug/internal/prayer"
)

var (
	flagFormat  string
	flagPrayers string
)

func newNextCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show the next prayer with countdown",
		Long:  "Display the next upcoming prayer time with a countdown.",
		RunE:  runNext,
	}

	cmd.Flags().StringVar(&flagFormat, "format", prayer.FormatFull, "Display format: time-remaining, next-prayer-time, name-and-time, name-and-remaining, short-name-and-time, short-name-and-remaining, full, or a custom Go template")
	cmd.Flags().StringVar(&flagPrayers, "prayers", "", "Comma-separated list of prayers to track (overrides config)")

	return cmd
}

func runNext(cmd *cobra.Command, args []string) error {
	sess, err := newSession(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("prayers") && flagPrayers != "" {
		sess.prayers = strings.Split(flagPrayers, ",")
	}

	next, today, n, err := nextPrayer(cmd.Context(), sess)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if next == nil {
		// Tomorrow is unavailable; a status bar still gets a line.
		if len(today) > 0 {
			fmt.Fprintf(out, "%s --:--", today[len(today)-1].Name)
			return nil
		}
		return fmt.Errorf("could not determine next prayer")
	}

	fmt.Fprint(out, prayer.FormatOutput(*next, n, flagFormat, sess.layout))
	return nil
}

// nextPrayer finds the first selected prayer after now, looking into
// tomorrow once today's have all passed. A failed lookup for tomorrow
// returns a nil prayer with today's list.
func nextPrayer(ctx context.Context, sess *session) (*prayer.Prayer, []prayer.Prayer, time.Time, error) {
	sched, err := sess.schedule(ctx, time.Time{})
	if err != nil {
		return nil, nil, time.Time{}, err
	}
	n := clockIn(sched)

	today, err := sched.Select(sess.prayers)
	if err != nil {
		return nil, nil, n, err
	}
	if next := prayer.NextPrayer(today, n); next != nil {
		return next, today, n, nil
	}

	tomorrow, err := sess.schedule(ctx, n.AddDate(0, 0, 1))
	if err != nil {
		log.Warn().Err(err).Msg("failed to get tomorrow's prayer times")
		return nil, today, n, nil
	}
	upcoming, err := tomorrow.Select(sess.prayers)
	if err != nil {
		return nil, today, n, err
	}
	if len(upcoming) == 0 {
		return nil, today, n, nil
	}
	return &upcoming[0], today, n, nil
}
