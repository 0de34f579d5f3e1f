package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap/zapcore"
)

// Log formats accepted by Config.Format.
const (
	FormatAuto    = "auto"
	FormatConsole = "console"
	FormatJSON    = "json"
	FormatLogfmt  = "logfmt"
)

type Config struct {
	Format string        `toml:"format"`
	Level  zapcore.Level `toml:"level"`
}

// NewConfig returns a new instance of Config with defaults.
func NewConfig() Config {
	return Config{
		Format: FormatAuto,
		Level:  zapcore.InfoLevel,
	}
}

// Validate rejects unknown formats.
func (c Config) Validate() error {
	switch strings.ToLower(c.Format) {
	case "", FormatAuto, FormatConsole, FormatJSON, FormatLogfmt:
		return nil
	}
	return fmt.Errorf("unknown log format %q; supported formats are auto, console, json, logfmt", c.Format)
}
