// Package logger configures zerolog for the history service.
package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config selects level, destination and timestamp format.
type Config struct {
	Level      string `yaml:"level"`
	Debug      bool   `yaml:"debug"`
	Output     string `yaml:"output"`
	TimeFormat string `yaml:"time_format"`
}

// DefaultConfig logs at info level to stdout.
func DefaultConfig() Config {
	return Config{Level: "info", Output: "stdout"}
}

// New builds a logger writing JSON lines to w. A nil w selects the output
// named in the config.
func New(cfg Config, w io.Writer) (zerolog.Logger, error) {
	if w == nil {
		switch cfg.Output {
		case "", "stdout":
			w = os.Stdout
		case "stderr":
			w = os.Stderr
		default:
			return zerolog.Nop(), fmt.Errorf("unknown log output %q", cfg.Output)
		}
	}

	level := zerolog.InfoLevel
	if cfg.Debug {
		level = zerolog.DebugLevel
	} else if cfg.Level != "" {
		var err error
		level, err = zerolog.ParseLevel(cfg.Level)
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("parse log level: %w", err)
		}
	}

	if cfg.TimeFormat != "" {
		zerolog.TimeFieldFormat = cfg.TimeFormat
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}

// Init installs the configured logger as the global zerolog logger.
func Init(cfg Config) (zerolog.Logger, error) {
	l, err := New(cfg, nil)
	if err != nil {
		return l, err
	}
	log.Logger = l
	return l, nil
}

// WithComponent returns a child logger tagged with component.
func WithComponent(l zerolog.Logger, component string) zerolog.Logger {
	return l.With().Str("component", component).Logger()
}
