package cli

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/smokyabdulrahman/nunggu-bedug/internal/config"
)

// Global flags shared across all subcommands.
var (
	FlagCity       string
	FlagCountry    string
	FlagLatitude   float64
	FlagLongitude  float64
	FlagMethod     int
	FlagSchool     int
	FlagProvider   string
	FlagJSON       bool
	FlagCacheDir   string
	FlagTimeFormat string
	FlagLogLevel   string
	FlagLogJSON    bool
)

// loadedConfig holds the config loaded during PersistentPreRunE.
// Available to all subcommand handlers.
var loadedConfig *config.Config

// NewRootCmd creates the root command for the nunggu-bedug CLI.
// The version parameter is set by the calling binary via ldflags.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "nunggu-bedug",
		Short: "Countdown to iftar and daily prayer times",
		Long: "Nunggu Bedug counts down the fast from Subuh to Maghrib, shows the day's\n" +
			"prayer times and serves both over HTTP.",
		Version: version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := setupLogging(cmd.ErrOrStderr(), FlagLogLevel, FlagLogJSON); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			loadedConfig = cfg
			return nil
		},
		// Default action: show today's prayer schedule.
		RunE:          runToday,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Register global persistent flags.
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&FlagCity, "city", "", "Override city (takes precedence over config)")
	pf.StringVar(&FlagCountry, "country", "", "Override country")
	pf.Float64Var(&FlagLatitude, "latitude", 0, "Override latitude")
	pf.Float64Var(&FlagLongitude, "longitude", 0, "Override longitude")
	pf.IntVar(&FlagMethod, "method", -1, "Override calculation method (0-23)")
	pf.IntVar(&FlagSchool, "school", -1, "Override school (0=Shafi, 1=Hanafi)")
	pf.StringVar(&FlagProvider, "provider", "", "Schedule source: auto, aladhan or suncalc")
	pf.BoolVar(&FlagJSON, "json", false, "Output as JSON (where supported)")
	pf.StringVar(&FlagCacheDir, "cache-dir", "", "Cache directory (default: ~/.cache/nunggu-bedug/)")
	pf.StringVar(&FlagTimeFormat, "time-format", "", "Time format: 12h or 24h (overrides config)")
	pf.StringVar(&FlagLogLevel, "log-level", "warn", "Log level: debug, info, warn or error")
	pf.BoolVar(&FlagLogJSON, "log-json", false, "Write logs as JSON instead of console text")

	rootCmd.AddCommand(newNextCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newCountdownCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newMethodsCmd())

	return rootCmd
}

// setupLogging points the global zerolog logger at w. Logs never go to
// stdout, which is reserved for command output.
func setupLogging(w io.Writer, level string, asJSON bool) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)

	if asJSON {
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}).With().Timestamp().Logger()
	}
	return nil
}

// effectiveConfig returns the merged configuration values,
// applying the priority: CLI flags > config file > defaults.
// It uses cobra's Changed() to detect whether a flag was explicitly set.
func effectiveConfig(cmd *cobra.Command) *config.Config {
	merged := config.Config{}
	if loadedConfig != nil {
		merged = *loadedConfig
	}
	cfg := &merged
	defaults := config.Defaults()

	flags := cmd.Flags()
	root := cmd.Root().PersistentFlags()

	if flagWasSet(flags, root, "city") {
		cfg.City = FlagCity
	}
	if flagWasSet(flags, root, "country") {
		cfg.Country = FlagCountry
	}
	if flagWasSet(flags, root, "latitude") {
		cfg.Latitude = FlagLatitude
	}
	if flagWasSet(flags, root, "longitude") {
		cfg.Longitude = FlagLongitude
	}
	if flagWasSet(flags, root, "method") {
		cfg.Method = &FlagMethod
	} else if cfg.Method == nil {
		cfg.Method = defaults.Method
	}
	if flagWasSet(flags, root, "school") {
		cfg.School = &FlagSchool
	} else if cfg.School == nil {
		cfg.School = defaults.School
	}
	if flagWasSet(flags, root, "cache-dir") {
		cfg.CacheDir = FlagCacheDir
	}
	if flagWasSet(flags, root, "provider") {
		cfg.Provider = FlagProvider
	}
	cfg.Provider = config.Or(cfg.Provider, defaults.Provider)
	cfg.Notify = config.Or(cfg.Notify, defaults.Notify)

	if flagWasSet(flags, root, "time-format") {
		cfg.TimeFormat = FlagTimeFormat
	}
	cfg.TimeFormat = config.Or(cfg.TimeFormat, defaults.TimeFormat)

	return cfg
}

// flagWasSet checks if a flag was explicitly set on either the local or persistent flag set.
func flagWasSet(local, persistent *pflag.FlagSet, name string) bool {
	if f := local.Lookup(name); f != nil && f.Changed {
		return true
	}
	if f := persistent.Lookup(name); f != nil && f.Changed {
		return true
	}
	return false
}
