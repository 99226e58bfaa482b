// Package config loads the server configuration from the environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the server binary's environment-driven configuration.
type Config struct {
	Addr string `env:"LISTEN_ADDR" envDefault:":8080"`

	// AuthMode selects the account/session backend: memory, sqlite or postgres.
	AuthMode   string        `env:"AUTH_MODE" envDefault:"memory"`
	AuthDBPath string        `env:"AUTH_SQLITE_PATH" envDefault:"clubpoker.db"`
	AuthDSN    string        `env:"AUTH_POSTGRES_DSN"`
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"720h"`

	// HistoryMode selects hand-history persistence: none, sqlite or postgres.
	HistoryMode   string `env:"HISTORY_MODE" envDefault:"sqlite"`
	HistoryDBPath string `env:"HISTORY_SQLITE_PATH" envDefault:"clubpoker.db"`
	HistoryDSN    string `env:"HISTORY_POSTGRES_DSN"`

	// Table defaults applied by the lobby.
	SmallBlind    int64         `env:"SMALL_BLIND" envDefault:"10"`
	BigBlind      int64         `env:"BIG_BLIND" envDefault:"20"`
	DefaultBuyIn  int64         `env:"DEFAULT_BUY_IN" envDefault:"2000"`
	ActionTimeout time.Duration `env:"ACTION_TIMEOUT" envDefault:"30s"`
	NextHandDelay time.Duration `env:"NEXT_HAND_DELAY" envDefault:"5s"`
}

// Load parses and validates the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the loaded values for contradictions.
func (c Config) Validate() error {
	switch c.AuthMode {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid AUTH_MODE %q (memory, sqlite or postgres)", c.AuthMode)
	}
	switch c.HistoryMode {
	case "none", "sqlite", "postgres":
	default:
		return fmt.Errorf("invalid HISTORY_MODE %q (none, sqlite or postgres)", c.HistoryMode)
	}
	if c.AuthMode == "postgres" && c.AuthDSN == "" {
		return fmt.Errorf("AUTH_POSTGRES_DSN required for AUTH_MODE=postgres")
	}
	if c.HistoryMode == "postgres" && c.HistoryDSN == "" {
		return fmt.Errorf("HISTORY_POSTGRES_DSN required for HISTORY_MODE=postgres")
	}
	if c.SmallBlind <= 0 || c.BigBlind <= c.SmallBlind {
		return fmt.Errorf("invalid blinds %d/%d", c.SmallBlind, c.BigBlind)
	}
	if c.DefaultBuyIn < c.BigBlind*2 {
		return fmt.Errorf("DEFAULT_BUY_IN %d too small for big blind %d", c.DefaultBuyIn, c.BigBlind)
	}
	if c.ActionTimeout < time.Second {
		return fmt.Errorf("ACTION_TIMEOUT %s below 1s", c.ActionTimeout)
	}
	return nil
}
