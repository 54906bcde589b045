package config

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/ringkv/internal/engine"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, engine.DefaultStepLimit, cfg.StepLimit)
}

func TestDecodeOverlay(t *testing.T) {
	cfg, err := Decode(Default(), []byte("log_level: debug\nstep_limit: 50\n"))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 50, cfg.StepLimit)
	assert.Equal(t, "text", cfg.LogFormat, "absent keys keep defaults")
}

func TestDecodeEmpty(t *testing.T) {
	cfg, err := Decode(Default(), nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestDecodeUnknownField(t *testing.T) {
	_, err := Decode(Default(), []byte("log_lvl: debug\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_lvl")
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ringkv.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output_format: json\n"), 0644))

	cfg, err := LoadFile(Default(), path)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.OutputFormat)

	_, err = LoadFile(Default(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"level", func(c *Config) { c.LogLevel = "trace" }, "log_level"},
		{"log format", func(c *Config) { c.LogFormat = "xml" }, "log_format"},
		{"output format", func(c *Config) { c.OutputFormat = "yaml" }, "output_format"},
		{"step limit", func(c *Config) { c.StepLimit = 0 }, "step_limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.LogLevel = "info"
	cfg.LogFormat = "json"

	logger := cfg.Logger(&buf)
	logger.Debug("hidden")
	logger.Info("shown", "table", "T")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "shown", line["msg"])
	assert.Equal(t, "T", line["table"])
}
