// Package config holds runtime settings for the ringkv CLI: defaults,
// an optional YAML file overlay, and command-line flags applied last by
// the caller.
package config

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/ringkv/internal/engine"
)

// Config holds runtime settings.
//
// Fields:
//   - LogLevel: debug, info, warn or error.
//   - LogFormat: text or json handler for slog.
//   - OutputFormat: text or json command output.
//   - StepLimit: per-Drain task limit of the dispatcher.
type Config struct {
	LogLevel     string `yaml:"log_level"`
	LogFormat    string `yaml:"log_format"`
	OutputFormat string `yaml:"output_format"`
	StepLimit    int    `yaml:"step_limit"`
}

var (
	validLevels = map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	validFormats = map[string]bool{"text": true, "json": true}
)

// Default returns the built-in settings.
func Default() Config {
	return Config{
		LogLevel:     "warn",
		LogFormat:    "text",
		OutputFormat: "text",
		StepLimit:    engine.DefaultStepLimit,
	}
}

// LoadFile overlays the YAML file at path onto cfg. Keys absent from the
// file keep their current values; unknown keys are an error.
func LoadFile(cfg Config, path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}
	return Decode(cfg, data)
}

// Decode overlays YAML data onto cfg.
func Decode(cfg Config, data []byte) (Config, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && err != io.EOF {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Validate rejects unknown levels and formats and non-positive limits.
func (c Config) Validate() error {
	if _, ok := validLevels[c.LogLevel]; !ok {
		return fmt.Errorf("invalid log_level %q: must be debug, info, warn or error", c.LogLevel)
	}
	if !validFormats[c.LogFormat] {
		return fmt.Errorf("invalid log_format %q: must be text or json", c.LogFormat)
	}
	if !validFormats[c.OutputFormat] {
		return fmt.Errorf("invalid output_format %q: must be text or json", c.OutputFormat)
	}
	if c.StepLimit <= 0 {
		return fmt.Errorf("invalid step_limit %d: must be positive", c.StepLimit)
	}
	return nil
}

// Logger builds the slog logger writing to w. Call Validate first; an
// unknown level falls back to info.
func (c Config) Logger(w io.Writer) *slog.Logger {
	level, ok := validLevels[c.LogLevel]
	if !ok {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
