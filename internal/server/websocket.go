package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/nunggu-bedug/internal/countdown"
	"github.com/smokyabdulrahman/nunggu-bedug/internal/notify"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	// Clients only send control frames.
	maxMessageSize = 512
	// completeGrace bounds how long the stream waits for the complete event
	// after the countdown finishes.
	completeGrace = 2 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// GET /api/countdown/ws?lat=&lng=
//
// Runs a countdown driver for the connection and streams every state and
// notification. The stream closes once the fast is complete or the client
// goes away.
func (ctl *Controller) countdownStream(c *gin.Context) {
	s, _, ok := ctl.schedule(c)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Err(err).Str("request_id", requestID(c)).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	activeStreams.Inc()
	defer activeStreams.Dec()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// The client sends nothing; reading only detects the close and pongs.
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	out := make(chan StreamMessage, 32)
	d := countdown.New(
		countdown.WithClock(ctl.clock),
		countdown.WithOnUpdate(func(st countdown.State) {
			select {
			case out <- StreamMessage{Type: messageState, State: &st}:
			default:
				// Slow client; the next tick carries a fresher state.
			}
		}),
		countdown.WithNotifier(notify.Func(func(nctx context.Context, m notify.Message) error {
			select {
			case out <- StreamMessage{Type: messageEvent, Event: newEventPayload(m)}:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			case <-nctx.Done():
				return nctx.Err()
			}
		})),
	)
	defer d.Stop()

	if err := d.Load(s); err != nil {
		_ = conn.WriteJSON(StreamMessage{Type: messageError, Error: err.Error()})
		return
	}

	ping := time.NewTicker(pingPeriod)
	defer ping.Stop()

	finished := d.Done()
	var grace <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-finished:
			finished = nil
			grace = time.After(completeGrace)
		case <-grace:
			closeStream(conn)
			return
		case msg := <-out:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug().Err(err).Str("request_id", requestID(c)).Msg("websocket write failed")
				return
			}
			if msg.Event != nil && msg.Event.Kind == notify.KindComplete {
				closeStream(conn)
				return
			}
		}
	}
}

func closeStream(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "complete")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}
