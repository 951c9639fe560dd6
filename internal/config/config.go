// Package config loads the optional TOML configuration of the goavsc CLI.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/BurntSushi/toml"

	goavsc "github.com/reoring/goavsc"
)

// DefaultPath is read when no -config flag is given and the file exists.
const DefaultPath = "goavsc.toml"

// Config holds CLI settings. Zero MaxDepth and MaxBytes select the library
// defaults.
type Config struct {
	MaxDepth      int
	MaxBytes      int64
	DuplicateKeys string // ignore, warn or error
	JSONDriver    string // encoding/json or go-json
	ExtractPath   string // gjson path of an embedded schema
	LogLevel      string
	Indent        string
}

// Default returns the settings used when no file is present.
func Default() Config {
	return Config{
		DuplicateKeys: "ignore",
		JSONDriver:    "encoding/json",
		LogLevel:      "info",
		Indent:        "  ",
	}
}

type fileConfig struct {
	MaxDepth      int    `toml:"max_depth"`
	MaxBytes      int64  `toml:"max_bytes"`
	DuplicateKeys string `toml:"duplicate_keys"`
	JSONDriver    string `toml:"json_driver"`
	ExtractPath   string `toml:"extract_path"`
	LogLevel      string `toml:"log_level"`
	Indent        string `toml:"indent"`
}

// Load reads path on top of Default. Only keys present in the file override
// the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if keys := meta.Undecoded(); len(keys) > 0 {
		return Config{}, fmt.Errorf("load config: unknown key %q", keys[0].String())
	}

	if meta.IsDefined("max_depth") {
		cfg.MaxDepth = raw.MaxDepth
	}
	if meta.IsDefined("max_bytes") {
		if raw.MaxBytes < 0 {
			return Config{}, fmt.Errorf("max_bytes must not be negative, got %d", raw.MaxBytes)
		}
		cfg.MaxBytes = raw.MaxBytes
	}
	if meta.IsDefined("duplicate_keys") {
		cfg.DuplicateKeys = strings.ToLower(strings.TrimSpace(raw.DuplicateKeys))
	}
	if meta.IsDefined("json_driver") {
		cfg.JSONDriver = strings.TrimSpace(raw.JSONDriver)
	}
	if meta.IsDefined("extract_path") {
		cfg.ExtractPath = strings.TrimSpace(raw.ExtractPath)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.ToLower(strings.TrimSpace(raw.LogLevel))
	}
	if meta.IsDefined("indent") {
		cfg.Indent = raw.Indent
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadOptional is Load, except that a missing file yields Default.
func LoadOptional(path string) (Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Validate checks the enumerated settings.
func (c Config) Validate() error {
	if _, err := c.severity(); err != nil {
		return err
	}
	switch c.JSONDriver {
	case "encoding/json", "go-json":
	default:
		return fmt.Errorf("json_driver must be encoding/json or go-json, got %q", c.JSONDriver)
	}
	return nil
}

func (c Config) severity() (goavsc.Severity, error) {
	switch c.DuplicateKeys {
	case "", "ignore":
		return goavsc.Ignore, nil
	case "warn":
		return goavsc.Warn, nil
	case "error":
		return goavsc.Error, nil
	}
	return goavsc.Ignore, fmt.Errorf("duplicate_keys must be ignore, warn or error, got %q", c.DuplicateKeys)
}

// ParseOpt converts the settings into library options. onWarning receives
// duplicate-key warnings when DuplicateKeys is "warn".
func (c Config) ParseOpt(onWarning func(goavsc.Issue)) goavsc.ParseOpt {
	sev, _ := c.severity()
	return goavsc.ParseOpt{
		Strictness: goavsc.Strictness{OnDuplicateKey: sev},
		MaxDepth:   c.MaxDepth,
		MaxBytes:   c.MaxBytes,
		OnWarning:  onWarning,
	}
}
