// SPDX-FileCopyrightText: 2025 The Hardware Sampling Authors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"syscall"

	"github.com/alecthomas/kingpin/v2"

	"github.com/SC-SGS/hardware-sampling/internal/config"
	"github.com/SC-SGS/hardware-sampling/internal/exporter/prometheus"
	"github.com/SC-SGS/hardware-sampling/internal/logger"
	"github.com/SC-SGS/hardware-sampling/internal/recorder"
	"github.com/SC-SGS/hardware-sampling/internal/server"
	"github.com/SC-SGS/hardware-sampling/internal/service"
	"github.com/SC-SGS/hardware-sampling/internal/session"
	"github.com/SC-SGS/hardware-sampling/internal/version"
)

func main() {
	// parse args and config and exit with error if there is an error
	cfg, err := parseArgsAndConfig()
	if err != nil {
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	slog.SetDefault(log)
	logVersionInfo(log)
	printConfigInfo(log, cfg)

	services, err := createServices(log, cfg)
	if err != nil {
		log.Error("Failed to create services", "error", err)
		os.Exit(1)
	}

	if err := service.Init(log, services); err != nil {
		log.Error("Initialization failed", "error", err)
		os.Exit(1)
	}

	if err := service.Run(context.Background(), log, services); err != nil {
		log.Error("Recorder terminated with an error", "error", err)
		os.Exit(1)
	}
	log.Info("Graceful shutdown completed")
}

func logVersionInfo(log *slog.Logger) {
	v := version.Info()
	log.Info("Hardware sampler version information",
		"version", v.Version,
		"buildTime", v.BuildTime,
		"gitCommit", v.GitCommit,
		"goVersion", v.GoVersion,
		"goOS", v.GoOS,
		"goArch", v.GoArch,
	)
}

func parseArgsAndConfig() (*config.Config, error) {
	const appName = "hwsampler"
	app := kingpin.New(appName, "Hardware telemetry sampling session recorder.")

	configFile := app.Flag("config.file", "Path to YAML configuration file").String()
	updateConfig := config.RegisterFlags(app)
	kingpin.MustParse(app.Parse(os.Args[1:]))

	log := logger.New("info", "text", os.Stderr)
	cfg := config.DefaultConfig()
	if *configFile != "" {
		log.Info("Loading configuration file", "path", *configFile)
		loadedCfg, err := config.FromFile(*configFile)
		if err != nil {
			log.Error("Error loading config file", "error", err.Error())
			return nil, err
		}
		// Replace default config with loaded config
		cfg = loadedCfg
		log.Info("Completed loading of configuration file", "path", *configFile)
	}

	// Apply command line flags (these override config file settings)
	if err := updateConfig(cfg); err != nil {
		log.Error("Error applying command line flags", "error", err.Error())
		return nil, err
	}

	return cfg, nil
}

func printConfigInfo(log *slog.Logger, cfg *config.Config) {
	if !log.Enabled(context.Background(), slog.LevelInfo) || cfg.Log.Format == "json" {
		return
	}

	fmt.Printf(`
Configuration
━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━
%s
━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━
`, cfg)
}

func createServices(log *slog.Logger, cfg *config.Config) ([]service.Service, error) {
	log.Debug("Creating all services")

	format, err := session.ParseFormat(cfg.Output.Format)
	if err != nil {
		return nil, err
	}

	rec := recorder.NewRecorder(
		recorder.WithLogger(log),
		recorder.WithInterval(cfg.Sampling.Interval),
		recorder.WithDuration(cfg.Sampling.Duration),
		recorder.WithSources(cfg.Sampling.Sources),
		recorder.WithOutput(cfg.Output.File, format),
		recorder.WithSummary(os.Stdout),
	)

	services := []service.Service{
		rec,
		service.NewSignalHandler(os.Interrupt, syscall.SIGTERM),
	}

	if cfg.Web.Enabled {
		apiServer := server.NewAPIServer(
			server.WithLogger(log),
			server.WithListen(cfg.Web.ListenAddresses, cfg.Web.ConfigFile),
		)
		promExporter := prometheus.NewExporter(
			apiServer,
			prometheus.WithLogger(log),
			prometheus.WithCollectors(prometheus.CreateCollectors(rec, prometheus.WithLogger(log))),
		)
		services = append(services, promExporter, apiServer)
	}

	return services, nil
}
