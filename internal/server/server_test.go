package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smokyabdulrahman/nunggu-bedug/internal/clock"
	"github.com/smokyabdulrahman/nunggu-bedug/internal/notify"
	"github.com/smokyabdulrahman/nunggu-bedug/internal/prayer"
	"github.com/smokyabdulrahman/nunggu-bedug/internal/provider"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	zerolog.SetGlobalLevel(zerolog.Disabled)
	os.Exit(m.Run())
}

var wib = time.FixedZone("WIB", 7*60*60)

func wibAt(h, m, s int) time.Time {
	return time.Date(2026, 3, 11, h, m, s, 0, wib)
}

func jakartaSchedule() prayer.Schedule {
	return prayer.Schedule{
		Date:     wibAt(0, 0, 0),
		Timezone: "Asia/Jakarta",
		Imsak:    wibAt(4, 26, 0),
		Fajr:     wibAt(4, 36, 0),
		Sunrise:  wibAt(5, 50, 0),
		Dhuhr:    wibAt(11, 58, 0),
		Asr:      wibAt(15, 7, 0),
		Maghrib:  wibAt(18, 4, 0),
		Isha:     wibAt(19, 13, 0),
	}
}

// fakeProvider records the last query and returns a fixed result.
type fakeProvider struct {
	mu    sync.Mutex
	sched prayer.Schedule
	err   error
	last  provider.Query
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Schedule(_ context.Context, q provider.Query) (prayer.Schedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = q
	return f.sched, f.err
}

func (f *fakeProvider) lastQuery() provider.Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func setupRouter(p provider.Provider, clk clock.Clock) *gin.Engine {
	return New(Options{
		Provider: p,
		Clock:    clk,
		Geocode: func(_ context.Context, lat, lng float64) string {
			return "Jakarta"
		},
		CORSOrigins: []string{"*"},
	})
}

func get(t *testing.T, r http.Handler, target string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	r.ServeHTTP(w, req)
	return w
}

func TestPrayerTimes_BadRequest(t *testing.T) {
	r := setupRouter(&fakeProvider{sched: jakartaSchedule()}, clock.NewFake(wibAt(12, 0, 0)))

	tests := []struct {
		name    string
		target  string
		wantErr string
	}{
		{"unparseable lat", "/api/prayer-times?lat=abc&lng=106.8", "lat and lng are required"},
		{"missing lng", "/api/prayer-times?lat=-6.2", "lat and lng are required"},
		{"missing both", "/api/prayer-times", "lat and lng are required"},
		{"NaN", "/api/prayer-times?lat=NaN&lng=106.8", "lat and lng are required"},
		{"infinite", "/api/prayer-times?lat=-6.2&lng=Inf", "lat and lng are required"},
		{"latitude range", "/api/prayer-times?lat=95&lng=106.8", "latitude"},
		{"longitude range", "/api/prayer-times?lat=-6.2&lng=200", "longitude"},
		{"bad date", "/api/prayer-times?lat=-6.2&lng=106.8&date=11-03-2026", "YYYY-MM-DD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, r, tt.target)
			require.Equal(t, http.StatusBadRequest, w.Code)

			var body ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Contains(t, body.Error, tt.wantErr)
		})
	}
}

func TestPrayerTimes_ExactErrorBody(t *testing.T) {
	r := setupRouter(&fakeProvider{sched: jakartaSchedule()}, clock.NewFake(wibAt(12, 0, 0)))

	w := get(t, r, "/api/prayer-times?lat=abc&lng=1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"lat and lng are required"}`, w.Body.String())
}

func TestPrayerTimes_OK(t *testing.T) {
	fp := &fakeProvider{sched: jakartaSchedule()}
	r := setupRouter(fp, clock.NewFake(wibAt(12, 0, 0)))

	w := get(t, r, "/api/prayer-times?lat=-6.2&lng=106.8")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body, 8)
	assert.Equal(t, "2026-03-11T05:00:00.000Z", body["date"])
	assert.Equal(t, "2026-03-10T21:26:00.000Z", body["imsak"])
	assert.Equal(t, "2026-03-10T21:36:00.000Z", body["fajr"])
	assert.Equal(t, "2026-03-11T11:04:00.000Z", body["maghrib"])

	var prev time.Time
	for _, k := range prayer.Keys {
		ts, err := time.Parse(time.RFC3339, body[k])
		require.NoError(t, err, k)
		assert.True(t, ts.After(prev), "%s should be after the previous marker", k)
		prev = ts
	}

	q := fp.lastQuery()
	assert.Equal(t, -6.2, q.Lat)
	assert.Equal(t, 106.8, q.Lng)
	assert.True(t, q.Date.IsZero())
}

func TestPrayerTimes_Date(t *testing.T) {
	fp := &fakeProvider{sched: jakartaSchedule()}
	r := setupRouter(fp, clock.NewFake(wibAt(12, 0, 0)))

	w := get(t, r, "/api/prayer-times?lat=-6.2&lng=106.8&date=2026-04-01")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2026-04-01", fp.lastQuery().Date.Format("2006-01-02"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "2026-03-10T17:00:00.000Z", body["date"], "date carries the requested day, not the request time")
}

func TestPrayerTimes_ProviderFailure(t *testing.T) {
	fp := &fakeProvider{err: errors.New("upstream down")}
	r := setupRouter(fp, clock.NewFake(wibAt(12, 0, 0)))

	w := get(t, r, "/api/prayer-times?lat=-6.2&lng=106.8")
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.JSONEq(t, `{"error":"failed to calculate prayer times"}`, w.Body.String())
}

func TestCountdown(t *testing.T) {
	r := setupRouter(&fakeProvider{sched: jakartaSchedule()}, clock.NewFake(wibAt(11, 20, 0)))

	w := get(t, r, "/api/countdown?lat=-6.2&lng=106.8")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var body CountdownResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "active", body.Phase)
	assert.Equal(t, "06", body.State.Hours)
	assert.Equal(t, "44", body.State.Minutes)
	assert.Equal(t, "00", body.State.Seconds)
	assert.Equal(t, "50% perjalanan puasa hari ini", body.State.ProgressLabel)
	assert.Equal(t, "Menuju Maghrib · 18:04", body.State.Headline)
	assert.Equal(t, "Asia/Jakarta", body.Timezone)
	assert.Equal(t, "2026-03-11T11:04:00.000Z", body.Schedule.Maghrib)
}

func TestCountdown_Complete(t *testing.T) {
	r := setupRouter(&fakeProvider{sched: jakartaSchedule()}, clock.NewFake(wibAt(18, 30, 0)))

	w := get(t, r, "/api/countdown?lat=-6.2&lng=106.8")
	require.Equal(t, http.StatusOK, w.Code)

	var body CountdownResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "complete", body.Phase)
	assert.True(t, body.State.Complete)
	assert.Equal(t, "Sudah waktunya berbuka!", body.State.ProgressLabel)
	assert.Equal(t, float64(100), body.State.Progress)
}

func TestReverseGeocode(t *testing.T) {
	r := setupRouter(&fakeProvider{}, clock.NewFake(wibAt(12, 0, 0)))

	w := get(t, r, "/api/reverse-geocode?lat=-6.2&lng=106.8")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"name":"Jakarta"}`, w.Body.String())

	w = get(t, r, "/api/reverse-geocode?lat=x")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHealthzAndRequestID(t *testing.T) {
	r := setupRouter(&fakeProvider{}, clock.Real{})

	w := get(t, r, "/healthz")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	w = get(t, r, "/healthz", RequestIDHeader, "abc-123")
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestCORS(t *testing.T) {
	r := setupRouter(&fakeProvider{sched: jakartaSchedule()}, clock.NewFake(wibAt(12, 0, 0)))

	w := get(t, r, "/api/prayer-times?lat=-6.2&lng=106.8", "Origin", "https://bedug.example")
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestMetrics(t *testing.T) {
	r := setupRouter(&fakeProvider{sched: jakartaSchedule()}, clock.NewFake(wibAt(12, 0, 0)))
	get(t, r, "/api/prayer-times?lat=-6.2&lng=106.8")
	ObserveCacheLookup(true)

	w := get(t, r, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `nunggu_bedug_http_requests_total{method="GET",route="/api/prayer-times",status="200"}`)
	assert.Contains(t, w.Body.String(), `nunggu_bedug_schedule_cache_lookups_total{result="hit"}`)
}

func TestCorsConfig(t *testing.T) {
	assert.True(t, corsConfig(nil).AllowAllOrigins)
	assert.True(t, corsConfig([]string{"*"}).AllowAllOrigins)

	cfg := corsConfig([]string{"https://a.example"})
	assert.False(t, cfg.AllowAllOrigins)
	assert.Equal(t, []string{"https://a.example"}, cfg.AllowOrigins)
}

func readMessage(t *testing.T, conn *websocket.Conn) StreamMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg StreamMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestCountdownStream(t *testing.T) {
	clk := clock.NewFake(wibAt(18, 3, 58))
	srv := httptest.NewServer(setupRouter(&fakeProvider{sched: jakartaSchedule()}, clk))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/countdown/ws?lat=-6.2&lng=106.8"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	first := readMessage(t, conn)
	require.Equal(t, messageState, first.Type)
	assert.Equal(t, "02", first.State.Seconds)

	nearEnd := readMessage(t, conn)
	require.Equal(t, messageEvent, nearEnd.Type)
	assert.Equal(t, notify.KindNearEnd, nearEnd.Event.Kind)

	clk.Advance(2 * time.Second)

	var sawComplete bool
	for !sawComplete {
		msg := readMessage(t, conn)
		if msg.Type == messageEvent {
			assert.Equal(t, notify.KindComplete, msg.Event.Kind)
			assert.Equal(t, "🥁 Bedug! Waktunya Buka Puasa!", msg.Event.Title)
			sawComplete = true
		}
	}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "want normal close, got %v", err)
}

func TestCountdownStream_BadRequest(t *testing.T) {
	srv := httptest.NewServer(setupRouter(&fakeProvider{}, clock.Real{}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/countdown/ws?lat=abc"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCountdownStream_OversizedFrameClosesStream(t *testing.T) {
	clk := clock.NewFake(wibAt(11, 20, 0))
	srv := httptest.NewServer(setupRouter(&fakeProvider{sched: jakartaSchedule()}, clk))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/countdown/ws?lat=-6.2&lng=106.8"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	first := readMessage(t, conn)
	require.Equal(t, messageState, first.Type)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(strings.Repeat("x", 4096))))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		if _, _, err = conn.ReadMessage(); err != nil {
			break
		}
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		t.Fatalf("stream stayed open after an oversized frame: %v", err)
	}
	assert.True(t, websocket.IsCloseError(err, websocket.CloseMessageTooBig, websocket.CloseAbnormalClosure), "got %v", err)
}
