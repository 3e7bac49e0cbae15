// Package config loads strata's runtime configuration from, in order of
// precedence, environment variables, a .env file, and an optional
// strata.yaml in the working directory.
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds everything the CLI and migration engine need.
type Config struct {
	// DatabaseURL is the connection URL, e.g. postgres://... or app.db.
	DatabaseURL string `mapstructure:"database_url"`
	// Dialect names the database explicitly; empty means infer from the URL.
	Dialect string `mapstructure:"dialect"`
	// MigrationsDir is where migration directories live.
	MigrationsDir string `mapstructure:"migrations_dir"`
	// State selects where applied-state is recorded: "table" or "journal".
	State string `mapstructure:"state"`
	// JournalPath is the journal file location when State is "journal".
	JournalPath string `mapstructure:"journal_path"`
	// Transactional wraps each migration in a transaction.
	Transactional bool `mapstructure:"transactional"`
}

// Load reads configuration. A missing .env and a missing strata.yaml are
// both fine; an unreadable or malformed config file is not.
func Load() (*Config, error) {
	// Values from a .env file become process env vars, which viper then
	// sees; real env vars are never overwritten.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("STRATA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("database_url", "")
	v.SetDefault("dialect", "")
	v.SetDefault("migrations_dir", "migrations")
	v.SetDefault("state", "table")
	v.SetDefault("journal_path", "migrations/journal.json")
	v.SetDefault("transactional", true)

	v.SetConfigName("strata")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.State {
	case "table", "journal":
	default:
		return fmt.Errorf("state must be \"table\" or \"journal\", got %q", c.State)
	}
	if c.MigrationsDir == "" {
		return fmt.Errorf("migrations_dir must not be empty")
	}
	return nil
}
