// Package notify delivers the countdown's one-shot alerts to whatever
// notification capability the host has. Delivery is best effort: callers
// check Authorized and ignore failures.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// Kind identifies which countdown event a message is about.
type Kind string

const (
	KindNearEnd  Kind = "near_end"
	KindComplete Kind = "complete"
)

// Message is a short system notification.
type Message struct {
	Kind  Kind      `json:"kind"`
	Title string    `json:"title"`
	Body  string    `json:"body"`
	At    time.Time `json:"at"`
}

// Notifier is a notification capability.
type Notifier interface {
	// Authorized reports whether the capability is present and allowed to
	// show notifications.
	Authorized() bool
	Notify(ctx context.Context, m Message) error
}

// Nop never delivers anything.
type Nop struct{}

func (Nop) Authorized() bool                      { return false }
func (Nop) Notify(context.Context, Message) error { return nil }

// Log writes notifications to the structured log. It is always authorized.
type Log struct{}

func (Log) Authorized() bool { return true }

func (Log) Notify(_ context.Context, m Message) error {
	log.Info().Str("kind", string(m.Kind)).Str("title", m.Title).Msg(m.Body)
	return nil
}

// Func adapts a function into an always-authorized Notifier.
type Func func(ctx context.Context, m Message) error

func (f Func) Authorized() bool { return true }

func (f Func) Notify(ctx context.Context, m Message) error { return f(ctx, m) }

// Multi fans a message out to every authorized member.
type Multi []Notifier

func (m Multi) Authorized() bool {
	for _, n := range m {
		if n.Authorized() {
			return true
		}
	}
	return false
}

func (m Multi) Notify(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range m {
		if !n.Authorized() {
			continue
		}
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
