package server

import (
	"time"

	"github.com/smokyabdulrahman/nunggu-bedug/internal/countdown"
	"github.com/smokyabdulrahman/nunggu-bedug/internal/notify"
	"github.com/smokyabdulrahman/nunggu-bedug/internal/prayer"
)

// timestampLayout is ISO-8601 with milliseconds, always rendered in UTC.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

func timestamp(t time.Time) string {
	return t.UTC().Format(timestampLayout)
}

// ErrorResponse is the body of every 4xx and 5xx answer.
type ErrorResponse struct {
	Error string `json:"error"`
}

// PrayerTimesResponse is the body of GET /api/prayer-times.
type PrayerTimesResponse struct {
	Date    string `json:"date"`
	Imsak   string `json:"imsak"`
	Fajr    string `json:"fajr"`
	Sunrise string `json:"sunrise"`
	Dhuhr   string `json:"dhuhr"`
	Asr     string `json:"asr"`
	Maghrib string `json:"maghrib"`
	Isha    string `json:"isha"`
}

func newPrayerTimesResponse(now time.Time, s prayer.Schedule) PrayerTimesResponse {
	return PrayerTimesResponse{
		Date:    timestamp(now),
		Imsak:   timestamp(s.Imsak),
		Fajr:    timestamp(s.Fajr),
		Sunrise: timestamp(s.Sunrise),
		Dhuhr:   timestamp(s.Dhuhr),
		Asr:     timestamp(s.Asr),
		Maghrib: timestamp(s.Maghrib),
		Isha:    timestamp(s.Isha),
	}
}

// CountdownResponse is the body of GET /api/countdown.
type CountdownResponse struct {
	Phase    string              `json:"phase"`
	State    countdown.State     `json:"state"`
	Timezone string              `json:"timezone,omitempty"`
	Schedule PrayerTimesResponse `json:"schedule"`
}

// ReverseGeocodeResponse is the body of GET /api/reverse-geocode.
type ReverseGeocodeResponse struct {
	Name string `json:"name"`
}

// Websocket message types.
const (
	messageState = "state"
	messageEvent = "event"
	messageError = "error"
)

// StreamMessage is one frame of the countdown websocket.
type StreamMessage struct {
	Type  string           `json:"type"`
	State *countdown.State `json:"state,omitempty"`
	Event *EventPayload    `json:"event,omitempty"`
	Error string           `json:"error,omitempty"`
}

// EventPayload carries a notification to the browser, which shows it if the
// user granted permission.
type EventPayload struct {
	Kind  notify.Kind `json:"kind"`
	Title string      `json:"title"`
	Body  string      `json:"body"`
	At    string      `json:"at"`
}

func newEventPayload(m notify.Message) *EventPayload {
	return &EventPayload{Kind: m.Kind, Title: m.Title, Body: m.Body, At: timestamp(m.At)}
}
