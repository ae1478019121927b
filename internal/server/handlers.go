package server

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/nunggu-bedug/internal/clock"
	"github.com/smokyabdulrahman/nunggu-bedug/internal/countdown"
	"github.com/smokyabdulrahman/nunggu-bedug/internal/geo"
	"github.com/smokyabdulrahman/nunggu-bedug/internal/prayer"
	"github.com/smokyabdulrahman/nunggu-bedug/internal/provider"
)

var errCoordinatesRequired = errors.New("lat and lng are required")

const msgScheduleFailed = "failed to calculate prayer times"

// Controller serves the /api routes from one schedule provider.
type Controller struct {
	provider provider.Provider
	clock    clock.Clock
	geocode  func(ctx context.Context, lat, lng float64) string
	timeout  time.Duration
}

// NewController builds a controller. opts is expected to carry the defaults
// New fills in.
func NewController(opts Options) *Controller {
	return &Controller{
		provider: opts.Provider,
		clock:    opts.Clock,
		geocode:  opts.Geocode,
		timeout:  opts.ProviderTimeout,
	}
}

// RegisterRoutes mounts the controller's routes on r.
func RegisterRoutes(r gin.IRoutes, ctl *Controller) {
	r.GET("/prayer-times", ctl.prayerTimes)
	r.GET("/countdown", ctl.countdownSnapshot)
	r.GET("/countdown/ws", ctl.countdownStream)
	r.GET("/reverse-geocode", ctl.reverseGeocode)
}

// parseCoordinates reads lat and lng. Missing, unparseable and non-finite
// values all report errCoordinatesRequired.
func parseCoordinates(c *gin.Context) (float64, float64, error) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	if latErr != nil || lngErr != nil {
		return 0, 0, errCoordinatesRequired
	}
	for _, v := range []float64{lat, lng} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, 0, errCoordinatesRequired
		}
	}
	if err := geo.ValidateCoordinates(lat, lng); err != nil {
		return 0, 0, err
	}
	return lat, lng, nil
}

func parseQuery(c *gin.Context) (provider.Query, error) {
	lat, lng, err := parseCoordinates(c)
	if err != nil {
		return provider.Query{}, err
	}
	q := provider.Query{Lat: lat, Lng: lng}
	if raw := c.Query("date"); raw != "" {
		d, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return provider.Query{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", raw)
		}
		q.Date = d
	}
	return q, nil
}

// schedule resolves the request's schedule, writing the error response itself
// when it fails.
func (ctl *Controller) schedule(c *gin.Context) (prayer.Schedule, provider.Query, bool) {
	q, err := parseQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return prayer.Schedule{}, q, false
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), ctl.timeout)
	defer cancel()

	s, err := ctl.provider.Schedule(ctx, q)
	if err != nil {
		scheduleFailures.Inc()
		log.Error().Err(err).
			Str("request_id", requestID(c)).
			Float64("lat", q.Lat).
			Float64("lng", q.Lng).
			Msg("schedule lookup failed")
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: msgScheduleFailed})
		return prayer.Schedule{}, q, false
	}
	return s, q, true
}

// GET /api/prayer-times?lat=&lng=[&date=YYYY-MM-DD]
//
// date is the request time, or the start of the requested day when date is
// given.
func (ctl *Controller) prayerTimes(c *gin.Context) {
	s, q, ok := ctl.schedule(c)
	if !ok {
		return
	}
	stamp := ctl.clock.Now()
	if !q.Date.IsZero() {
		stamp = s.Date
	}
	c.JSON(http.StatusOK, newPrayerTimesResponse(stamp, s))
}

// GET /api/countdown?lat=&lng=
func (ctl *Controller) countdownSnapshot(c *gin.Context) {
	s, _, ok := ctl.schedule(c)
	if !ok {
		return
	}

	now := ctl.clock.Now()
	state, p, err := countdown.Snapshot(s, now, "15:04")
	if err != nil {
		c.JSON(http.StatusBadGateway, ErrorResponse{Error: msgScheduleFailed})
		return
	}

	phase := countdown.Active
	if p.Complete {
		phase = countdown.Complete
	}
	c.JSON(http.StatusOK, CountdownResponse{
		Phase:    phase.String(),
		State:    state,
		Timezone: s.Timezone,
		Schedule: newPrayerTimesResponse(now, s),
	})
}

// GET /api/reverse-geocode?lat=&lng=
func (ctl *Controller) reverseGeocode(c *gin.Context) {
	lat, lng, err := parseCoordinates(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, ReverseGeocodeResponse{Name: ctl.geocode(c.Request.Context(), lat, lng)})
}
