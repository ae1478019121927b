package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/smokyabdulrahman/nunggu-bedug/internal/api"
	"github.com/smokyabdulrahman/nunggu-bedug/internal/config"
	"github.com/smokyabdulrahman/nunggu-bedug/internal/provider"
	"github.com/smokyabdulrahman/nunggu-bedug/internal/server"
)

var flagEnvFiles []string

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve prayer times and the countdown over HTTP",
		Long: "Run the HTTP API: GET /api/prayer-times, /api/countdown, /api/countdown/ws\n" +
			"and /api/reverse-geocode, plus /healthz and /metrics.\n\n" +
			"Settings come from the environment, optionally loaded from .env files:\n" +
			"SERVER_ADDRESS, PROVIDER, ALADHAN_METHOD, ALADHAN_BASE_URL, REDIS_ADDRESS,\n" +
			"REDIS_USERNAME, REDIS_PASSWORD, CACHE_TTL, CORS_ORIGINS, GIN_MODE, LOG_LEVEL.",
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.Flags().StringSliceVar(&flagEnvFiles, "env-file", nil, "Environment files to load (default: .env)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	env, err := config.LoadEnvironment(flagEnvFiles...)
	if err != nil {
		return err
	}

	// LOG_LEVEL applies unless --log-level was given.
	if !flagWasSet(cmd.Flags(), cmd.Root().PersistentFlags(), "log-level") {
		if lvl, err := zerolog.ParseLevel(env.LogLevel); err == nil {
			zerolog.SetGlobalLevel(lvl)
		} else {
			log.Warn().Str("level", env.LogLevel).Msg("ignoring invalid LOG_LEVEL")
		}
	}
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	p := serverProvider(env)
	log.Info().
		Str("provider", p.Name()).
		Str("addr", env.ServerAddress).
		Bool("redis", env.RedisAddress != "").
		Msg("starting server")

	router := server.New(server.Options{
		Provider:    p,
		CORSOrigins: env.CORSOrigins,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, env.ServerAddress, router); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// serverProvider builds the server's schedule source. Remote results are
// shared through Redis when REDIS_ADDRESS is set.
func serverProvider(env config.Environment) provider.Provider {
	client := api.NewClient()
	if env.AladhanBaseURL != "" {
		client.BaseURL = env.AladhanBaseURL
	}

	var remote provider.Provider = provider.NewAladhan(client, env.AladhanMethod, -1)
	if env.RedisAddress != "" {
		store := provider.NewRedisStore(env.RedisAddress, env.RedisUsername, env.RedisPassword, env.CacheTTL)
		cached := provider.NewCached(remote, store, env.AladhanMethod)
		cached.Observe = server.ObserveCacheLookup
		remote = cached
	}
	offline := provider.NewSuncalc(time.UTC)

	switch env.Provider {
	case config.ProviderAladhan:
		return remote
	case config.ProviderSuncalc:
		return offline
	default:
		return provider.Chain{remote, offline}
	}
}
