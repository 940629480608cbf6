// Package config reads settings from the environment, after loading a .env
// file from the working directory if there is one.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every setting. It is read once at startup and passed down.
type Config struct {
	// Remote service
	BaseURL string        `env:"ARTSY_BASE_URL" envDefault:"https://node-app-12.uw.r.appspot.com/api/"`
	Timeout time.Duration `env:"ARTSY_TIMEOUT"  envDefault:"30s"`
	Rate    float64       `env:"ARTSY_RATE"     envDefault:"10"`
	Burst   int           `env:"ARTSY_BURST"    envDefault:"5"`

	// Local state
	DBPath         string `env:"ARTSY_DB"              envDefault:"artsy.db"`
	PersistCookies bool   `env:"ARTSY_PERSIST_COOKIES" envDefault:"false"`

	// Components
	SearchDebounce    time.Duration `env:"ARTSY_SEARCH_DEBOUNCE"     envDefault:"300ms"`
	SearchMinLength   int           `env:"ARTSY_SEARCH_MIN_LENGTH"   envDefault:"3"`
	SessionRetries    int           `env:"ARTSY_SESSION_RETRIES"     envDefault:"3"`
	SessionRetryDelay time.Duration `env:"ARTSY_SESSION_RETRY_DELAY" envDefault:"500ms"`

	// Logging
	LogLevel  string `env:"ARTSY_LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"ARTSY_LOG_FORMAT" envDefault:"console"`

	// Local state server
	Listen string `env:"ARTSY_LISTEN" envDefault:"127.0.0.1:9999"`
}

// Load reads .env, if present, then the environment. Variables already set
// in the environment win over .env.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: reading .env: %w", err)
	}
	return Parse()
}

// Parse reads the environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}
	if cfg.SearchMinLength < 1 {
		return nil, fmt.Errorf("config: ARTSY_SEARCH_MIN_LENGTH must be positive, got %d", cfg.SearchMinLength)
	}
	if cfg.SessionRetries < 1 {
		return nil, fmt.Errorf("config: ARTSY_SESSION_RETRIES must be positive, got %d", cfg.SessionRetries)
	}
	return cfg, nil
}
