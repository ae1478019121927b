package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/smokyabdulrahman/nunggu-bedug/internal/api"
)

// Environment configures the HTTP server.
type Environment struct {
	ServerAddress  string
	Provider       string
	AladhanMethod  int
	AladhanBaseURL string
	RedisAddress   string
	RedisUsername  string
	RedisPassword  string
	CacheTTL       time.Duration
	CORSOrigins    []string
	GinMode        string
	LogLevel       string
}

// LoadEnvironment reads the server settings from the process environment,
// after loading any of files that exist. Variables already set win over the
// files. With no files, ".env" is tried.
func LoadEnvironment(files ...string) (Environment, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Environment{}, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	env := Environment{
		ServerAddress:  Or(os.Getenv("SERVER_ADDRESS"), ":8787"),
		Provider:       Or(os.Getenv("PROVIDER"), ProviderAuto),
		AladhanMethod:  api.MethodMoonsightingCommittee,
		AladhanBaseURL: os.Getenv("ALADHAN_BASE_URL"),
		RedisAddress:   os.Getenv("REDIS_ADDRESS"),
		RedisUsername:  os.Getenv("REDIS_USERNAME"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		CacheTTL:       12 * time.Hour,
		CORSOrigins:    []string{"*"},
		GinMode:        os.Getenv("GIN_MODE"),
		LogLevel:       Or(os.Getenv("LOG_LEVEL"), "info"),
	}

	switch env.Provider {
	case ProviderAuto, ProviderAladhan, ProviderSuncalc:
	default:
		return Environment{}, fmt.Errorf("invalid PROVIDER %q: must be auto, aladhan or suncalc", env.Provider)
	}

	if v := os.Getenv("ALADHAN_METHOD"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 0 || m > 23 {
			return Environment{}, fmt.Errorf("invalid ALADHAN_METHOD %q: must be between 0 and 23", v)
		}
		env.AladhanMethod = m
	}

	if v := os.Getenv("CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return Environment{}, fmt.Errorf("invalid CACHE_TTL %q: must be a positive duration", v)
		}
		env.CacheTTL = d
	}

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		if len(origins) > 0 {
			env.CORSOrigins = origins
		}
	}

	return env, nil
}
