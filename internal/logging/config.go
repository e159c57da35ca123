// Package logging builds the zap loggers used by the manifold CLI.
package logging

import (
	"fmt"

	"go.uber.org/zap/zapcore"

	"github.com/mesh-intelligence/manifold/pkg/types"
)

// Output formats.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config holds logging configuration.
type Config struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// NewDefaultConfig returns warn-level console logging so CLI output stays
// readable.
func NewDefaultConfig() Config {
	return Config{Level: "warn", Format: FormatConsole}
}

// Validate checks config for errors.
func (c Config) Validate() error {
	if c.Format != FormatJSON && c.Format != FormatConsole {
		return fmt.Errorf("%w: %q", types.ErrInvalidLogFormat, c.Format)
	}
	if _, err := c.level(); err != nil {
		return err
	}
	return nil
}

func (c Config) level() (zapcore.Level, error) {
	if c.Level == "" {
		return zapcore.InfoLevel, nil
	}
	lvl, err := zapcore.ParseLevel(c.Level)
	if err != nil {
		return 0, fmt.Errorf("log level: %w", err)
	}
	return lvl, nil
}
