// Package server exposes prayer schedules and the fasting countdown over HTTP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/smokyabdulrahman/nunggu-bedug/internal/clock"
	"github.com/smokyabdulrahman/nunggu-bedug/internal/geo"
	"github.com/smokyabdulrahman/nunggu-bedug/internal/provider"
)

const (
	defaultProviderTimeout = 15 * time.Second
	shutdownTimeout        = 10 * time.Second
)

// Options wires the router's collaborators. Only Provider is required.
type Options struct {
	Provider provider.Provider
	// Clock drives countdown streams and stamps responses.
	Clock clock.Clock
	// Geocode names a position; it must not fail.
	Geocode func(ctx context.Context, lat, lng float64) string
	// CORSOrigins lists allowed origins; empty or "*" allows all.
	CORSOrigins     []string
	ProviderTimeout time.Duration
}

// New builds the gin engine with middleware and all routes.
func New(opts Options) *gin.Engine {
	if opts.Clock == nil {
		opts.Clock = clock.Real{}
	}
	if opts.Geocode == nil {
		opts.Geocode = geo.DisplayName
	}
	if opts.ProviderTimeout <= 0 {
		opts.ProviderTimeout = defaultProviderTimeout
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestID(), AccessLog(), Metrics())
	r.Use(cors.New(corsConfig(opts.CORSOrigins)))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	RegisterRoutes(r.Group("/api"), NewController(opts))
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "OPTIONS", "HEAD"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

// Run serves h on addr until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
