package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config contains runtime configuration required by the service.
type Config struct {
	DatabaseURL    string
	HTTPAddr       string
	DBMaxConns     int32    // 0 keeps the pgxpool default
	TrustedProxies []string // empty: client address is the TCP peer
	LogLevel       slog.Level
	LogJSON        bool
}

// Load reads required values from environment variables.
// A .env file in the working directory is applied first when present;
// variables already set in the environment take precedence over it.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	dbURL := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dbURL == "" {
		return Config{}, errors.New("DATABASE_URL environment variable is required")
	}

	cfg := Config{
		DatabaseURL: dbURL,
		HTTPAddr:    ":8000",
		LogLevel:    slog.LevelInfo,
	}

	if v := strings.TrimSpace(os.Getenv("HTTP_ADDR")); v != "" {
		cfg.HTTPAddr = v
	}

	if v := strings.TrimSpace(os.Getenv("DB_MAX_CONNS")); v != "" {
		n, err := strconv.ParseInt(v, 10, 32)
		if err != nil || n <= 0 {
			return Config{}, errors.New("DB_MAX_CONNS must be a positive integer")
		}
		cfg.DBMaxConns = int32(n)
	}

	for _, p := range strings.Split(os.Getenv("TRUSTED_PROXIES"), ",") {
		if p = strings.TrimSpace(p); p != "" {
			cfg.TrustedProxies = append(cfg.TrustedProxies, p)
		}
	}

	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
		}
	}

	switch strings.ToLower(strings.TrimSpace(os.Getenv("LOG_FORMAT"))) {
	case "", "text":
	case "json":
		cfg.LogJSON = true
	default:
		return Config{}, errors.New(`LOG_FORMAT must be "text" or "json"`)
	}

	return cfg, nil
}
