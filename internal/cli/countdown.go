package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/smokyabdulrahman/nunggu-bedug/internal/clock"
	"github.com/smokyabdulrahman/nunggu-bedug/internal/config"
	"github.com/smokyabdulrahman/nunggu-bedug/internal/countdown"
	"github.com/smokyabdulrahman/nunggu-bedug/internal/display"
	"github.com/smokyabdulrahman/nunggu-bedug/internal/notify"
)

const (
	appName = "Nunggu Bedug"
	// barTotal is the bar's resolution; progress is drawn in tenths of a
	// percent.
	barTotal = 1000

	iftarGreeting = "Selamat Berbuka!"
	iftarDua      = "Allahumma laka shumtu wa bika amantu wa 'ala rizqika afthartu."
)

var (
	flagNotify     string
	flagNoBar      bool
	countdownClock clock.Clock = clock.Real{}
)

func newCountdownCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "countdown",
		Short: "Live countdown to Maghrib",
		Long: "Count down the fast until Maghrib with a progress bar, notify five minutes\n" +
			"before and at Maghrib, then exit. Notification channels come from the notify\n" +
			"config key (desktop, mqtt, log or none) unless --notify is given.",
		RunE: runCountdown,
	}
	cmd.Flags().StringVar(&flagNotify, "notify", "", "Notification channels, comma-separated: desktop, mqtt, log or none")
	cmd.Flags().BoolVar(&flagNoBar, "no-bar", false, "Print one line per minute instead of a progress bar")
	return cmd
}

func runCountdown(cmd *cobra.Command, args []string) error {
	sess, err := newSession(cmd)
	if err != nil {
		return err
	}
	sched, err := sess.schedule(cmd.Context(), time.Time{})
	if err != nil {
		return err
	}

	channels := sess.cfg.Notify
	if cmd.Flags().Changed("notify") {
		channels = flagNotify
	}
	notifier, closeNotifier, err := buildNotifier(channels, sess.cfg)
	if err != nil {
		return err
	}
	defer closeNotifier()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sess.describe(ctx)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s  %s\n\n", display.Heading(appName), sess.loc.Label())

	var view countdownView
	if flagNoBar {
		view = newLineView(out)
	} else {
		view = newBarView(out)
	}

	d := countdown.New(
		countdown.WithClock(countdownClock),
		countdown.WithNotifier(notifier),
		countdown.WithTimeLayout(sess.layout),
		countdown.WithOnUpdate(view.update),
	)
	if err := d.Load(sched); err != nil {
		view.abort()
		return fmt.Errorf("cannot count down: %w", err)
	}

	select {
	case <-ctx.Done():
		d.Stop()
		view.abort()
		fmt.Fprintln(out, display.Muted("Dihentikan."))
		return nil
	case <-d.Done():
	}

	view.finish()
	d.Flush()
	fmt.Fprintf(out, "\n  %s\n  %s\n\n", display.Success(iftarGreeting), iftarDua)
	return nil
}

// buildNotifier turns a notify config value into a notifier. The returned
// func releases broker connections.
func buildNotifier(channels string, cfg *config.Config) (notify.Notifier, func(), error) {
	names, err := config.ParseNotify(config.Or(channels, config.NotifyDesktop))
	if err != nil {
		return nil, nil, err
	}

	var (
		multi   notify.Multi
		closers []func()
	)
	for _, name := range names {
		switch name {
		case config.NotifyDesktop:
			multi = append(multi, notify.NewDesktop(appName))
		case config.NotifyLog:
			multi = append(multi, notify.Log{})
		case config.NotifyMQTT:
			if cfg.MQTTBroker == "" {
				return nil, nil, fmt.Errorf("notify mqtt needs a broker: nunggu-bedug config set mqtt_broker tcp://host:1883")
			}
			clientID := "nunggu-bedug-" + uuid.NewString()[:8]
			m, err := notify.NewMQTT(cfg.MQTTBroker, clientID, config.Or(cfg.MQTTTopic, notify.DefaultTopic))
			if err != nil {
				// The countdown still runs without the broker.
				log.Warn().Err(err).Str("broker", cfg.MQTTBroker).Msg("MQTT notifications disabled")
				continue
			}
			multi = append(multi, m)
			closers = append(closers, m.Close)
		}
	}

	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}
	return multi, closeAll, nil
}

// countdownView renders driver updates. update is called from the driver's
// tick goroutine.
type countdownView interface {
	update(countdown.State)
	finish()
	abort()
}

// barView draws an mpb progress bar with the remaining time beside it.
type barView struct {
	progress *mpb.Progress
	bar      *mpb.Bar
	state    atomic.Value // countdown.State
}

func newBarView(w io.Writer) *barView {
	v := &barView{}
	v.state.Store(countdown.InitialState())
	v.progress = mpb.New(mpb.WithOutput(w), mpb.WithWidth(48), mpb.WithRefreshRate(200*time.Millisecond))
	v.bar = v.progress.New(barTotal,
		mpb.BarStyle().Lbound("╢").Filler("█").Tip("█").Padding("░").Rbound("╟"),
		mpb.PrependDecorators(
			decor.Any(func(decor.Statistics) string { return v.current().Headline }, decor.WC{W: 26, C: decor.DindentRight}),
		),
		mpb.AppendDecorators(
			decor.OnComplete(
				decor.Any(func(decor.Statistics) string {
					st := v.current()
					return display.Clock(st.Hours, st.Minutes, st.Seconds) + "  " + st.ProgressLabel
				}),
				"Bedug!",
			),
		),
	)
	return v
}

func (v *barView) current() countdown.State {
	return v.state.Load().(countdown.State)
}

func (v *barView) update(st countdown.State) {
	v.state.Store(st)
	v.bar.SetCurrent(int64(st.Progress / 100 * barTotal))
}

func (v *barView) finish() {
	v.bar.SetCurrent(barTotal)
	v.progress.Wait()
}

func (v *barView) abort() {
	v.bar.Abort(false)
	v.progress.Wait()
}

// lineView prints a plain line whenever the minute changes, for logs and
// terminals without cursor control.
type lineView struct {
	w    io.Writer
	last atomic.Value // string
}

func newLineView(w io.Writer) *lineView {
	v := &lineView{w: w}
	v.last.Store("")
	return v
}

func (v *lineView) update(st countdown.State) {
	key := st.Hours + ":" + st.Minutes
	if st.Complete || v.last.Swap(key) == key {
		return
	}
	fmt.Fprintf(v.w, "%s  %s:%s  %s\n", st.Headline, st.Hours, st.Minutes, st.ProgressLabel)
}

func (v *lineView) finish() {}
func (v *lineView) abort()  {}
