// Package config reads runtime settings from VSTATS_* environment variables.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is the environment variable prefix for every setting.
const Prefix = "VSTATS"

type Config struct {
	// DBPath is the SQLite database file.
	DBPath   string `envconfig:"DB_PATH" default:"vstats.db"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	// RosterPath is the default roster file for new sessions.
	RosterPath string `envconfig:"ROSTER_PATH"`

	Outbox Outbox
	Feed   Feed
}

// Outbox settings are read from VSTATS_OUTBOX_*.
type Outbox struct {
	MaxTries        uint          `envconfig:"MAX_TRIES" default:"5"`
	InitialInterval time.Duration `envconfig:"INITIAL_INTERVAL" default:"100ms"`
	MaxInterval     time.Duration `envconfig:"MAX_INTERVAL" default:"2s"`
}

// Feed settings are read from VSTATS_FEED_*.
type Feed struct {
	// Addr is the listen address for the websocket feed. Empty disables it.
	Addr string `envconfig:"ADDR"`
}

// New loads the configuration from the environment.
func New() (*Config, error) {
	var c Config
	if err := envconfig.Process(Prefix, &c); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if c.Outbox.MaxTries == 0 {
		return nil, fmt.Errorf("load config: %s_OUTBOX_MAX_TRIES must be at least 1", Prefix)
	}
	return &c, nil
}

// ParseLevel converts a level name (debug, info, warn, error) to a slog level.
func ParseLevel(name string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(name))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", name)
	}
	return l, nil
}
