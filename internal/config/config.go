package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// Config represents the global ~/.sigexport/config.toml. Every field can also be set
// through a SIGEXPORT_* environment variable, and CLI flags override both.
type Config struct {
	Source       string `toml:"source" envconfig:"SOURCE"`
	Paginate     int    `toml:"paginate" envconfig:"PAGINATE" validate:"gte=0"`
	Quote        bool   `toml:"quote" envconfig:"QUOTE"`
	HTML         bool   `toml:"html" envconfig:"HTML"`
	IncludeEmpty bool   `toml:"include_empty" envconfig:"INCLUDE_EMPTY"`
	Workers      int    `toml:"workers" envconfig:"WORKERS" validate:"gte=1,lte=64"`
	TimeZone     string `toml:"time_zone" envconfig:"TIME_ZONE" validate:"omitempty,timezone"`
	Stylesheet   string `toml:"stylesheet" envconfig:"STYLESHEET"`
	LogFile      string `toml:"log_file" envconfig:"LOG_FILE"`
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Paginate: 100,
		Quote:    true,
		HTML:     true,
		Workers:  4,
	}
}

// Load reads config from the given path on top of the defaults. Returns error if file missing.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Resolve loads the file at path if it exists, then applies environment overrides and
// validates the result. A missing file is not an error.
func Resolve(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		loaded, err := Load(path)
		switch {
		case err == nil:
			cfg = loaded
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
	}
	if err := envconfig.Process("sigexport", cfg); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Location returns the configured time zone, or the local zone when unset.
func (c *Config) Location() (*time.Location, error) {
	if c.TimeZone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.TimeZone)
}

// Save writes config to the given path, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}
