// SPDX-FileCopyrightText: 2025 The Hardware Sampling Authors
// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 100*time.Millisecond, cfg.Sampling.Interval)
	assert.Empty(t, cfg.Sampling.Sources)
	assert.Equal(t, "hwsampler.yaml", cfg.Output.File)
	assert.Equal(t, "yaml", cfg.Output.Format)
	assert.False(t, cfg.Web.Enabled)
	assert.Equal(t, []string{":28100"}, cfg.Web.ListenAddresses)

	require.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	yamlData := `
log:
  level: debug
  format: json
sampling:
  interval: 250ms
  sources:
    - cpu
    - nvidia
output:
  file: /tmp/run.csv
  format: csv
web:
  enabled: true
`
	cfg, err := Load(strings.NewReader(yamlData))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 250*time.Millisecond, cfg.Sampling.Interval)
	assert.Equal(t, []string{"cpu", "nvidia"}, cfg.Sampling.Sources)
	assert.Equal(t, "/tmp/run.csv", cfg.Output.File)
	assert.Equal(t, "csv", cfg.Output.Format)
	assert.True(t, cfg.Web.Enabled)
}

func TestLoad_PartialKeepsDefaults(t *testing.T) {
	cfg, err := Load(strings.NewReader("log:\n  level: warn\n"))
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 100*time.Millisecond, cfg.Sampling.Interval)
}

func TestLoad_Invalid(t *testing.T) {
	tt := []struct {
		name string
		yaml string
	}{{
		name: "bad yaml",
		yaml: "log: [",
	}, {
		name: "bad log level",
		yaml: "log:\n  level: chatty\n",
	}, {
		name: "bad output format",
		yaml: "output:\n  format: xml\n",
	}, {
		name: "zero interval",
		yaml: "sampling:\n  interval: 0s\n",
	}, {
		name: "negative duration",
		yaml: "sampling:\n  duration: -5s\n",
	}, {
		name: "empty source name",
		yaml: "sampling:\n  sources:\n    - ''\n",
	}, {
		name: "empty output file",
		yaml: "output:\n  file: ''\n",
	}}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(strings.NewReader(tc.yaml))
			assert.Error(t, err)
		})
	}
}

func TestFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log:\n  format: json\n"), 0o644))

	cfg, err := FromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Log.Format)

	_, err = FromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRegisterFlags_OverridesOnlySetFlags(t *testing.T) {
	app := kingpin.New("test", "")
	update := RegisterFlags(app)

	_, err := app.Parse([]string{
		"--log.level=debug",
		"--sample.interval=1s",
		"--source=fake",
		"--source=cpu",
		"--output.format=json",
	})
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.Log.Format = "json" // pretend this came from a config file
	require.NoError(t, update(cfg))

	// flags that were set override
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, time.Second, cfg.Sampling.Interval)
	assert.Equal(t, []string{"fake", "cpu"}, cfg.Sampling.Sources)
	assert.Equal(t, "json", cfg.Output.Format)

	// flags that were not set leave the config untouched
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "hwsampler.yaml", cfg.Output.File)
}

func TestRegisterFlags_NoFlags(t *testing.T) {
	app := kingpin.New("test", "")
	update := RegisterFlags(app)

	_, err := app.Parse([]string{})
	require.NoError(t, err)

	cfg := DefaultConfig()
	require.NoError(t, update(cfg))
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestRegisterFlags_InvalidEnum(t *testing.T) {
	app := kingpin.New("test", "")
	RegisterFlags(app)

	_, err := app.Parse([]string{"--output.format=xml"})
	assert.Error(t, err)
}

func TestString(t *testing.T) {
	cfg := DefaultConfig()
	s := cfg.String()
	assert.Contains(t, s, "level: info")
	assert.Contains(t, s, "format: yaml")
	assert.Contains(t, s, "interval: 100ms")
}
