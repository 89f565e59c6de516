// SPDX-FileCopyrightText: 2025 The Hardware Sampling Authors
// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"gopkg.in/yaml.v3"
)

// Config represents the complete application configuration
type (
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	}

	Sampling struct {
		// Interval between two consecutive samples
		Interval time.Duration `yaml:"interval"`

		// Sources lists the metric sources to record; empty means all
		// available sources
		Sources []string `yaml:"sources"`

		// Duration bounds the recording; zero means record until a
		// termination signal arrives
		Duration time.Duration `yaml:"duration"`
	}

	Output struct {
		File   string `yaml:"file"`
		Format string `yaml:"format"`
	}

	Web struct {
		Enabled         bool     `yaml:"enabled"`
		ListenAddresses []string `yaml:"listenAddresses"`
		// Path to exporter-toolkit web config for TLS / basic-auth
		ConfigFile string `yaml:"configFile"`
	}

	Config struct {
		Log      Log      `yaml:"log"`
		Sampling Sampling `yaml:"sampling"`
		Output   Output   `yaml:"output"`
		Web      Web      `yaml:"web"`
	}
)

const (
	// Flags
	LogLevelFlag       = "log.level"
	LogFormatFlag      = "log.format"
	SampleIntervalFlag = "sample.interval"
	SourceFlag         = "source"
	DurationFlag       = "duration"
	OutputFileFlag     = "output.file"
	OutputFormatFlag   = "output.format"
	WebEnabledFlag     = "web.enable"
	WebListenFlag      = "web.listen-address"
	WebConfigFlag      = "web.config-file"
)

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	cfg := &Config{
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Sampling: Sampling{
			Interval: 100 * time.Millisecond,
			Sources:  []string{},
			Duration: 0,
		},
		Output: Output{
			File:   "hwsampler.yaml",
			Format: "yaml",
		},
		Web: Web{
			Enabled:         false,
			ListenAddresses: []string{":28100"},
		},
	}

	return cfg
}

// Load loads configuration from an io.Reader
func Load(r io.Reader) (*Config, error) {
	cfg := DefaultConfig()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.sanitize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FromFile loads configuration from a file
func FromFile(filePath string) (*Config, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	return Load(file)
}

type ConfigUpdaterFn func(*Config) error

// RegisterFlags registers command-line flags with kingpin app
// and returns ConfigUpdaterFn that updates the config from parsed flags
// as command line arguments override config file settings
func RegisterFlags(app *kingpin.Application) ConfigUpdaterFn {
	// track flags that were explicitly set
	flagsSet := map[string]bool{}

	app.PreAction(func(ctx *kingpin.ParseContext) error {
		// Clear the map in case this function is called multiple times
		flagsSet = map[string]bool{}

		for _, element := range ctx.Elements {
			if flag, ok := element.Clause.(*kingpin.FlagClause); ok && element.Value != nil {
				flagsSet[flag.Model().Name] = true
			}
		}
		return nil
	})

	// Logging
	logLevel := app.Flag(LogLevelFlag, "Logging level: debug, info, warn, error").Default("info").Enum("debug", "info", "warn", "error")
	logFormat := app.Flag(LogFormatFlag, "Logging format: text or json").Default("text").Enum("text", "json")

	// Sampling
	sampleInterval := app.Flag(SampleIntervalFlag, "Interval between two consecutive samples").Default("100ms").Duration()
	sources := app.Flag(SourceFlag, "Metric source to record; repeatable, records all available sources when omitted").Strings()
	duration := app.Flag(DurationFlag, "Stop recording after this duration; 0 records until interrupted").Default("0").Duration()

	// Output
	outputFile := app.Flag(OutputFileFlag, "File the recording is dumped to").Default("hwsampler.yaml").String()
	outputFormat := app.Flag(OutputFormatFlag, "Dump format: yaml, csv or json").Default("yaml").Enum("yaml", "csv", "json")

	// Web
	webEnabled := app.Flag(WebEnabledFlag, "Expose live metrics over HTTP while recording").Default("false").Bool()
	webListen := app.Flag(WebListenFlag, "Web server listen address; repeatable").Default(":28100").Strings()
	webConfig := app.Flag(WebConfigFlag, "Path to web configuration file for TLS or basic auth").Default("").String()

	return func(cfg *Config) error {
		// Logging settings
		if flagsSet[LogLevelFlag] {
			cfg.Log.Level = *logLevel
		}

		if flagsSet[LogFormatFlag] {
			cfg.Log.Format = *logFormat
		}

		// Sampling settings
		if flagsSet[SampleIntervalFlag] {
			cfg.Sampling.Interval = *sampleInterval
		}

		if flagsSet[SourceFlag] {
			cfg.Sampling.Sources = *sources
		}

		if flagsSet[DurationFlag] {
			cfg.Sampling.Duration = *duration
		}

		// Output settings
		if flagsSet[OutputFileFlag] {
			cfg.Output.File = *outputFile
		}

		if flagsSet[OutputFormatFlag] {
			cfg.Output.Format = *outputFormat
		}

		// Web settings
		if flagsSet[WebEnabledFlag] {
			cfg.Web.Enabled = *webEnabled
		}

		if flagsSet[WebListenFlag] {
			cfg.Web.ListenAddresses = *webListen
		}

		if flagsSet[WebConfigFlag] {
			cfg.Web.ConfigFile = *webConfig
		}

		cfg.sanitize()
		return cfg.Validate()
	}
}

func (c *Config) sanitize() {
	c.Log.Level = strings.TrimSpace(c.Log.Level)
	c.Log.Format = strings.TrimSpace(c.Log.Format)
	c.Output.File = strings.TrimSpace(c.Output.File)
	c.Output.Format = strings.TrimSpace(c.Output.Format)
	c.Web.ConfigFile = strings.TrimSpace(c.Web.ConfigFile)

	for i, s := range c.Sampling.Sources {
		c.Sampling.Sources[i] = strings.TrimSpace(s)
	}
}

// Validate checks for configuration errors
func (c *Config) Validate() error {
	var errs []string
	{ // log level

		validLogLevels := map[string]bool{
			"debug": true,
			"info":  true,
			"warn":  true,
			"error": true,
		}

		// Validate logging settings
		if _, valid := validLogLevels[c.Log.Level]; !valid {
			errs = append(errs, fmt.Sprintf("invalid log level: %s", c.Log.Level))
		}
	}
	{ // log format
		validFormats := map[string]bool{
			"text": true,
			"json": true,
		}
		if _, valid := validFormats[c.Log.Format]; !valid {
			errs = append(errs, fmt.Sprintf("invalid log format: %s", c.Log.Format))
		}
	}
	{ // sampling
		if c.Sampling.Interval <= 0 {
			errs = append(errs, fmt.Sprintf("invalid sampling interval: %s", c.Sampling.Interval))
		}
		if c.Sampling.Duration < 0 {
			errs = append(errs, fmt.Sprintf("invalid sampling duration: %s", c.Sampling.Duration))
		}
		for _, s := range c.Sampling.Sources {
			if s == "" {
				errs = append(errs, "empty source name")
			}
		}
	}
	{ // output
		validFormats := map[string]bool{
			"yaml": true,
			"csv":  true,
			"json": true,
		}
		if _, valid := validFormats[c.Output.Format]; !valid {
			errs = append(errs, fmt.Sprintf("invalid output format: %s", c.Output.Format))
		}
		if c.Output.File == "" {
			errs = append(errs, "output file must not be empty")
		}
	}
	{ // web
		if c.Web.Enabled && len(c.Web.ListenAddresses) == 0 {
			errs = append(errs, "web server enabled but no listen address configured")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(errs, ", "))
	}

	return nil
}

func (c *Config) String() string {
	bytes, err := yaml.Marshal(c)
	if err == nil {
		return string(bytes)
	}
	// NOTE:  this code path should not happen but if it does (i.e if yaml marshal) fails
	// for some reason, manually build the string
	return c.manualString()
}

func (c *Config) manualString() string {
	cfgs := []struct {
		Name  string
		Value string
	}{
		{LogLevelFlag, c.Log.Level},
		{LogFormatFlag, c.Log.Format},
		{SampleIntervalFlag, c.Sampling.Interval.String()},
		{SourceFlag, strings.Join(c.Sampling.Sources, ",")},
		{DurationFlag, c.Sampling.Duration.String()},
		{OutputFileFlag, c.Output.File},
		{OutputFormatFlag, c.Output.Format},
	}
	sb := strings.Builder{}

	for _, cfg := range cfgs {
		sb.WriteString(cfg.Name)
		sb.WriteString(": ")
		sb.WriteString(cfg.Value)
		sb.WriteString("\n")
	}

	return sb.String()
}
