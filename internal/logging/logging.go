// Package logging builds the zerolog logger of the goavsc CLI.
package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	EnvLogLevel     = "GOAVSC_LOG_LEVEL"
	EnvLogTimestamp = "GOAVSC_LOG_TIMESTAMP"
	EnvLogNoColor   = "GOAVSC_LOG_NOCOLOR"
)

// Config controls the console logger.
type Config struct {
	Level     zerolog.Level
	Timestamp bool
	NoColor   bool
}

// DefaultConfig logs at level (info when unrecognized) with timestamps.
func DefaultConfig(level string) Config {
	cfg := Config{Level: zerolog.InfoLevel, Timestamp: true}
	if lvl, ok := ParseLevel(level); ok {
		cfg.Level = lvl
	}
	return cfg
}

// ApplyEnv overrides cfg from the GOAVSC_LOG_* environment variables.
func ApplyEnv(cfg *Config) {
	if lvl, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		cfg.Level = lvl
	}
	if v, ok := parseBool(os.Getenv(EnvLogTimestamp)); ok {
		cfg.Timestamp = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		cfg.NoColor = v
	}
}

// New returns a console logger writing to out.
func New(out io.Writer, cfg Config) zerolog.Logger {
	w := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    cfg.NoColor,
	}
	if !cfg.Timestamp {
		w.PartsExclude = []string{zerolog.TimestampFieldName}
	}
	ctx := zerolog.New(w).Level(cfg.Level).With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	return ctx.Str("app", "goavsc").Logger()
}

// ParseLevel accepts zerolog level names plus a few aliases.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
