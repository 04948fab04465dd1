// Package config reads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Config holds the server settings. Command-line flags override these.
type Config struct {
	DBPath    string `env:"GARDEROBA_DB,default=garderoba.sqlite3"`
	Addr      string `env:"GARDEROBA_ADDR,default=:8080"`
	AdminUser string `env:"GARDEROBA_ADMIN,default=admin"`
	AdminMail string `env:"GARDEROBA_ADMIN_EMAIL,default=admin@garderoba.local"`
	LogPath   string `env:"GARDEROBA_LOG"`
	SeedPath  string `env:"GARDEROBA_SEED"`

	// WelcomePoints are credited to every newly registered user.
	WelcomePoints int `env:"GARDEROBA_WELCOME_POINTS,default=50"`

	// RateLimit is the sustained per-user rate, in requests per second, of
	// favorite, interest and exchange requests.
	RateLimit float64 `env:"GARDEROBA_RATE_LIMIT,default=5"`
	RateBurst int     `env:"GARDEROBA_RATE_BURST,default=10"`

	OTLPEndpoint string `env:"GARDEROBA_OTLP_ENDPOINT"`
	OTLPInsecure bool   `env:"GARDEROBA_OTLP_INSECURE,default=false"`
}

// Load reads envFile into the environment, if it exists, and decodes the
// GARDEROBA_* variables. Variables already set take precedence over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	var c Config
	if err := envdecode.Decode(&c); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decoding environment: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks that the settings are usable.
func (c *Config) Validate() error {
	switch {
	case c.DBPath == "":
		return errors.New("database path is required")
	case c.Addr == "":
		return errors.New("listen address is required")
	case c.AdminUser == "":
		return errors.New("admin username is required")
	case c.WelcomePoints < 0:
		return fmt.Errorf("welcome points must not be negative, got %d", c.WelcomePoints)
	case c.RateLimit <= 0:
		return fmt.Errorf("rate limit must be positive, got %v", c.RateLimit)
	case c.RateBurst < 1:
		return fmt.Errorf("rate burst must be at least 1, got %d", c.RateBurst)
	}
	return nil
}
