package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"

	"historyview/internal/i18n"
	"historyview/internal/logger"
)

// MaxPageSize bounds the page size accepted from configuration and requests.
const MaxPageSize = 500

// Config represents configuration data for the history service.
type Config struct {
	ListenAddr     string        `yaml:"listen_addr"`
	DataDirectory  string        `yaml:"data_directory"`
	EventsFile     string        `yaml:"events_file"`
	RefreshSeconds int           `yaml:"refresh_seconds"`
	PageSize       int           `yaml:"page_size"`
	Language       string        `yaml:"language"`
	DateLayout     string        `yaml:"date_layout"`
	Timezone       string        `yaml:"timezone"`
	HideRecipients bool          `yaml:"hide_recipients"`
	Database       Database      `yaml:"database"`
	Logging        logger.Config `yaml:"logging"`
}

// Database selects the PostgreSQL history store. An empty URL keeps the
// file store.
type Database struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
}

// DefaultConfig returns sensible defaults in case no configuration file is provided.
func DefaultConfig() Config {
	return Config{
		ListenAddr:     ":8080",
		DataDirectory:  filepath.Join(".dist", "data"),
		EventsFile:     "history.json",
		RefreshSeconds: 30,
		PageSize:       25,
		Language:       "en",
		DateLayout:     i18n.DefaultDateLayout,
		Timezone:       "UTC",
		Database:       Database{MaxOpenConns: 4},
		Logging:        logger.DefaultConfig(),
	}
}

// Load reads configuration from yaml file. Missing files fall back to defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	defaults := DefaultConfig()
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = defaults.ListenAddr
	}
	if cfg.DataDirectory == "" {
		cfg.DataDirectory = defaults.DataDirectory
	}
	if cfg.EventsFile == "" {
		cfg.EventsFile = defaults.EventsFile
	}
	if cfg.RefreshSeconds < 0 {
		cfg.RefreshSeconds = 0
	}
	if cfg.DateLayout == "" {
		cfg.DateLayout = defaults.DateLayout
	}
	if cfg.Database.MaxOpenConns <= 0 {
		cfg.Database.MaxOpenConns = defaults.Database.MaxOpenConns
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the service cannot run with.
func (c Config) Validate() error {
	if c.PageSize < 1 || c.PageSize > MaxPageSize {
		return fmt.Errorf("page_size must be between 1 and %d", MaxPageSize)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := i18n.New(i18n.Options{Language: c.Language}); err != nil {
		return fmt.Errorf("language: %w", err)
	}
	return nil
}

// EventsPath is the location of the JSON history export.
func (c Config) EventsPath() string {
	if filepath.IsAbs(c.EventsFile) {
		return c.EventsFile
	}
	return filepath.Join(c.DataDirectory, c.EventsFile)
}

// RefreshInterval is how often the file store is reloaded; zero disables it.
func (c Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshSeconds) * time.Second
}

// Location resolves the configured display time zone.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone: %w", err)
	}
	return loc, nil
}

// UsePostgres reports whether history is read from PostgreSQL.
func (c Config) UsePostgres() bool {
	return c.Database.URL != ""
}

// Formatter builds the display formatter described by the configuration.
func (c Config) Formatter() (*i18n.Catalog, error) {
	loc, err := c.Location()
	if err != nil {
		return nil, err
	}
	return i18n.New(i18n.Options{
		Language:   c.Language,
		DateLayout: c.DateLayout,
		Location:   loc,
	})
}
