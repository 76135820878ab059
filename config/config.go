/*
Package config loads server configuration.

SOURCES (later wins):
  1. Defaults
  2. .env file in the working directory, if present (godotenv)
  3. Process environment
  4. Command-line flags (applied by cmd/server)

VARIABLES:
  PORT            HTTP port (8080)
  DB_PATH         SQLite path (fees.db); ":memory:" for in-memory
  LOG_LEVEL       zerolog level (info)
  LOG_FORMAT      json | console (json)
  SAVE_DELAY      Debounce quiet period, Go duration (2s)
  RATE_PARTNER    Hourly rate, Partner grade (700)
  RATE_MANAGER    Hourly rate, Manager grade (500)
  RATE_EXECUTIVE  Hourly rate, Executive grade (250)
  RATE_SECRETARY  Hourly rate, Secretary grade (70)

The rate table loaded here is the only one the server uses; it is passed
into fees.NewEngine and nowhere else.
*/
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
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/warp/fee-engine/fees"
	"github.com/warp/fee-engine/session"
)

type Config struct {
	Port      int
	DBPath    string
	LogLevel  zerolog.Level
	LogFormat string
	SaveDelay time.Duration
	Rates     fees.RateTable
}

func Default() Config {
	return Config{
		Port:      8080,
		DBPath:    "fees.db",
		LogLevel:  zerolog.InfoLevel,
		LogFormat: "json",
		SaveDelay: session.DefaultDelay,
		Rates:     fees.DefaultRates(),
	}
}

// Load reads the optional env files (".env" when none are given), then the
// environment. A missing env file is not an error.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from any key lookup. Tests pass a map-backed
// lookup instead of touching the process environment.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	var errs []error

	if v, ok := lookup("PORT"); ok {
		port, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || port <= 0 || port > 65535 {
			errs = append(errs, fmt.Errorf("PORT: invalid port %q", v))
		} else {
			cfg.Port = port
		}
	}
	if v, ok := lookup("DB_PATH"); ok && strings.TrimSpace(v) != "" {
		cfg.DBPath = strings.TrimSpace(v)
	}
	if v, ok := lookup("LOG_LEVEL"); ok && strings.TrimSpace(v) != "" {
		lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(v)))
		if err != nil {
			errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
		} else {
			cfg.LogLevel = lvl
		}
	}
	if v, ok := lookup("LOG_FORMAT"); ok && strings.TrimSpace(v) != "" {
		switch f := strings.ToLower(strings.TrimSpace(v)); f {
		case "json", "console":
			cfg.LogFormat = f
		default:
			errs = append(errs, fmt.Errorf("LOG_FORMAT: want json or console, got %q", v))
		}
	}
	if v, ok := lookup("SAVE_DELAY"); ok && strings.TrimSpace(v) != "" {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("SAVE_DELAY: invalid duration %q", v))
		} else {
			cfg.SaveDelay = d
		}
	}

	rates := []struct {
		key  string
		dest *decimal.Decimal
	}{
		{"RATE_PARTNER", &cfg.Rates.Partner},
		{"RATE_MANAGER", &cfg.Rates.Manager},
		{"RATE_EXECUTIVE", &cfg.Rates.Executive},
		{"RATE_SECRETARY", &cfg.Rates.Secretary},
	}
	for _, r := range rates {
		v, ok := lookup(r.key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.key, err))
			continue
		}
		*r.dest = d
	}
	if err := cfg.Rates.Validate(); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Logger builds the process logger from LogLevel and LogFormat.
func (c Config) Logger() zerolog.Logger {
	var log zerolog.Logger
	if c.LogFormat == "console" {
		log = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		log = zerolog.New(os.Stderr)
	}
	return log.Level(c.LogLevel).With().Timestamp().Str("service", "fee-engine").Logger()
}
