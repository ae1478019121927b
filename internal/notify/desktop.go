package notify

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	notifyService = "org.freedesktop.Notifications"
	notifyPath    = dbus.ObjectPath("/org/freedesktop/Notifications")
	notifyMethod  = notifyService + ".Notify"
)

// Desktop shows notifications through the freedesktop notification service
// on the session bus.
type Desktop struct {
	AppName string
	// Expire is how long the notification stays on screen.
	Expire time.Duration

	once sync.Once
	conn *dbus.Conn
	ok   bool
}

// NewDesktop returns a Desktop notifier. The bus is contacted lazily on the
// first Authorized call.
func NewDesktop(appName string) *Desktop {
	return &Desktop{AppName: appName, Expire: 10 * time.Second}
}

// Authorized reports whether a session bus is reachable and something owns
// the notification service name.
func (d *Desktop) Authorized() bool {
	d.once.Do(func() {
		conn, err := dbus.SessionBus()
		if err != nil {
			return
		}
		var owned bool
		if err := conn.BusObject().Call("org.freedesktop.DBus.NameHasOwner", 0, notifyService).Store(&owned); err != nil {
			return
		}
		d.conn = conn
		d.ok = owned
	})
	return d.ok
}

func (d *Desktop) Notify(ctx context.Context, m Message) error {
	if !d.Authorized() {
		return fmt.Errorf("desktop notifications unavailable")
	}
	obj := d.conn.Object(notifyService, notifyPath)
	call := obj.CallWithContext(ctx, notifyMethod, 0,
		d.AppName,
		uint32(0),
		"",
		m.Title,
		m.Body,
		[]string{},
		map[string]dbus.Variant{"urgency": dbus.MakeVariant(byte(1))},
		int32(d.Expire/time.Millisecond),
	)
	if call.Err != nil {
		return fmt.Errorf("desktop notify: %w", call.Err)
	}
	return nil
}
