// Package countdown drives the live countdown from fajr to maghrib and fires
// the near-end and fast-complete notifications.
package countdown

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/nunggu-bedug/internal/clock"
	"github.com/smokyabdulrahman/nunggu-bedug/internal/notify"
	"github.com/smokyabdulrahman/nunggu-bedug/internal/prayer"
)

const (
	// TickInterval is how often the state is recomputed.
	TickInterval = time.Second
	// NearEndThreshold is the remaining time under which the near-end
	// notification fires.
	NearEndThreshold = 5 * time.Minute

	defaultNotifyTimeout = 10 * time.Second
)

// Phase is the driver's lifecycle position.
type Phase int

const (
	Idle Phase = iota
	Active
	Complete
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Active:
		return "active"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// notificationFlags are one-shot guards, reset only by Load.
type notificationFlags struct {
	nearEnd  bool
	complete bool
}

// Option configures a Driver.
type Option func(*Driver)

// WithClock replaces the wall clock.
func WithClock(c clock.Clock) Option {
	return func(d *Driver) { d.clock = c }
}

// WithNotifier sets where near-end and complete notifications go.
func WithNotifier(n notify.Notifier) Option {
	return func(d *Driver) { d.notifier = n }
}

// WithOnUpdate registers a callback receiving every recomputed state. It may
// call State or Stop but must not call Load.
func WithOnUpdate(fn func(State)) Option {
	return func(d *Driver) { d.onUpdate = fn }
}

// WithTimeLayout sets the layout used for the maghrib time in the headline.
func WithTimeLayout(layout string) Option {
	return func(d *Driver) { d.layout = layout }
}

// Driver owns one schedule at a time and recomputes its State every
// TickInterval until maghrib. Ticks are strictly sequential; a generation
// counter keeps a timer from a replaced schedule from touching the new one.
type Driver struct {
	clock         clock.Clock
	notifier      notify.Notifier
	onUpdate      func(State)
	layout        string
	notifyTimeout time.Duration

	// emitMu serializes ticks so updates reach onUpdate in order.
	emitMu sync.Mutex
	// pending counts notifications still being delivered.
	pending sync.WaitGroup

	mu       sync.Mutex
	gen      uint64
	phase    Phase
	schedule prayer.Schedule
	state    State
	flags    notificationFlags
	timer    clock.Timer
	done     chan struct{}
}

// New returns an idle driver.
func New(opts ...Option) *Driver {
	d := &Driver{
		clock:         clock.Real{},
		notifier:      notify.Nop{},
		layout:        "15:04",
		notifyTimeout: defaultNotifyTimeout,
		state:         InitialState(),
		done:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Load replaces the schedule. Any pending tick is cancelled, the
// notification flags are cleared and one tick runs before Load returns.
// A schedule whose fajr is not before maghrib is rejected with
// prayer.ErrInvalidWindow and leaves the driver untouched.
func (d *Driver) Load(s prayer.Schedule) error {
	if !s.Fajr.Before(s.Maghrib) {
		return prayer.ErrInvalidWindow
	}

	d.emitMu.Lock()
	d.mu.Lock()
	d.cancelLocked()
	d.gen++
	gen := d.gen
	d.schedule = s
	d.state = InitialState()
	d.flags = notificationFlags{}
	d.phase = Active
	d.done = make(chan struct{})
	d.mu.Unlock()
	d.emitMu.Unlock()

	d.tick(gen)
	return nil
}

// Stop cancels the pending tick and returns the driver to Idle. The owner
// calls it when the view that renders the countdown goes away.
func (d *Driver) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cancelLocked()
	d.gen++
	d.phase = Idle
}

// State returns the latest computed state.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Phase returns where the driver is in its lifecycle.
func (d *Driver) Phase() Phase {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.phase
}

// Schedule returns the loaded schedule.
func (d *Driver) Schedule() prayer.Schedule {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.schedule
}

// Flush blocks until every notification dispatched so far has been
// delivered or has timed out.
func (d *Driver) Flush() {
	d.pending.Wait()
}

// Done is closed when the current schedule reaches Complete.
func (d *Driver) Done() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.done
}

func (d *Driver) cancelLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Driver) tick(gen uint64) {
	d.emitMu.Lock()
	defer d.emitMu.Unlock()

	d.mu.Lock()
	if gen != d.gen || d.phase != Active {
		d.mu.Unlock()
		return
	}

	now := d.clock.Now()
	st, p, err := Snapshot(d.schedule, now, d.layout)
	if err != nil {
		// Load already rejected invalid windows.
		d.mu.Unlock()
		log.Error().Err(err).Msg("countdown tick failed")
		return
	}
	d.state = st

	var events []notify.Message
	if p.Complete {
		if !d.flags.complete {
			d.flags.complete = true
			events = append(events, completeMessage(now))
		}
	} else if p.Remaining < NearEndThreshold && !d.flags.nearEnd {
		d.flags.nearEnd = true
		events = append(events, nearEndMessage(now))
	}
	if d.notifier == nil {
		events = nil
	}
	// Counted before Done closes so Flush after Done sees them.
	d.pending.Add(len(events))

	if p.Complete {
		d.phase = Complete
		d.timer = nil
		close(d.done)
	} else {
		d.timer = d.clock.AfterFunc(TickInterval, func() { d.tick(gen) })
	}
	onUpdate := d.onUpdate
	d.mu.Unlock()

	if onUpdate != nil {
		onUpdate(st)
	}
	for _, m := range events {
		d.dispatch(m)
	}
}

// dispatch delivers m in the background. The caller has already counted it
// in pending. Unauthorized capabilities and delivery errors are ignored.
func (d *Driver) dispatch(m notify.Message) {
	n := d.notifier
	timeout := d.notifyTimeout
	go func() {
		defer d.pending.Done()
		if !n.Authorized() {
			log.Debug().Str("kind", string(m.Kind)).Msg("notifications not authorized")
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := n.Notify(ctx, m); err != nil {
			log.Debug().Err(err).Str("kind", string(m.Kind)).Msg("notification not delivered")
		}
	}()
}
