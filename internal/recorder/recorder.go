// SPDX-FileCopyrightText: 2025 The Hardware Sampling Authors
// SPDX-License-Identifier: MIT

package recorder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/SC-SGS/hardware-sampling/internal/device"
	"github.com/SC-SGS/hardware-sampling/internal/exporter/stdout"
	"github.com/SC-SGS/hardware-sampling/internal/service"
	"github.com/SC-SGS/hardware-sampling/internal/session"
)

type (
	Initializer = service.Initializer
	Runner      = service.Runner
	Shutdowner  = service.Shutdowner
)

// Recorder is the service wrapper around a SystemRecorder. Init
// discovers the configured metric sources, Run records until the
// context is cancelled or the configured duration elapses, then stops
// all sessions and dumps the recording to the output file.
type Recorder struct {
	// input
	logger       *slog.Logger
	interval     time.Duration
	duration     time.Duration
	sourceNames  []string
	outputFile   string
	outputFormat session.Format
	summary      io.Writer

	// built by Init
	sources []device.MetricSource
	system  *session.SystemRecorder
}

var (
	_ Initializer = (*Recorder)(nil)
	_ Runner      = (*Recorder)(nil)
	_ Shutdowner  = (*Recorder)(nil)
)

type Opts struct {
	logger       *slog.Logger
	interval     time.Duration
	duration     time.Duration
	sourceNames  []string
	outputFile   string
	outputFormat session.Format
	summary      io.Writer
}

// DefaultOpts returns a new Opts with defaults set
func DefaultOpts() Opts {
	return Opts{
		logger:       slog.Default(),
		interval:     session.DefaultInterval,
		duration:     0,
		sourceNames:  nil,
		outputFile:   "hwsampler.yaml",
		outputFormat: session.FormatYAML,
	}
}

// OptionFn is a function that sets one or more options in Opts
type OptionFn func(*Opts)

// WithLogger sets the logger for the Recorder
func WithLogger(logger *slog.Logger) OptionFn {
	return func(o *Opts) {
		o.logger = logger
	}
}

// WithInterval sets the sampling interval
func WithInterval(d time.Duration) OptionFn {
	return func(o *Opts) {
		o.interval = d
	}
}

// WithDuration bounds the recording; zero records until the context is
// cancelled
func WithDuration(d time.Duration) OptionFn {
	return func(o *Opts) {
		o.duration = d
	}
}

// WithSources selects the metric sources to record by name; empty
// selects all available sources
func WithSources(names []string) OptionFn {
	return func(o *Opts) {
		o.sourceNames = names
	}
}

// WithOutput sets the dump target
func WithOutput(file string, format session.Format) OptionFn {
	return func(o *Opts) {
		o.outputFile = file
		o.outputFormat = format
	}
}

// WithSummary makes the recorder write a per-session summary table to
// the given writer after the dump; nil disables the summary
func WithSummary(w io.Writer) OptionFn {
	return func(o *Opts) {
		o.summary = w
	}
}

func NewRecorder(applyOpts ...OptionFn) *Recorder {
	opts := DefaultOpts()
	for _, apply := range applyOpts {
		apply(&opts)
	}

	return &Recorder{
		logger:       opts.logger.With("service", "recorder"),
		interval:     opts.interval,
		duration:     opts.duration,
		sourceNames:  opts.sourceNames,
		outputFile:   opts.outputFile,
		outputFormat: opts.outputFormat,
		summary:      opts.summary,
	}
}

func (r *Recorder) Name() string {
	return "recorder"
}

// Init discovers the metric sources and builds one session per source.
func (r *Recorder) Init() error {
	if len(r.sourceNames) == 0 {
		r.sources = device.DiscoverAll(r.logger)
		if len(r.sources) == 0 {
			return fmt.Errorf("no metric source available; registered: %v", device.RegisteredSources())
		}
	} else {
		for _, name := range r.sourceNames {
			source, err := device.Discover(name, r.logger)
			if err != nil {
				r.closeSources()
				return err
			}
			r.sources = append(r.sources, source)
		}
	}

	names := make([]string, 0, len(r.sources))
	for _, s := range r.sources {
		names = append(names, s.Name())
	}
	r.logger.Info("Discovered metric sources", "sources", names)

	system, err := session.NewSystemRecorder(r.sources,
		session.WithLogger(r.logger),
		session.WithInterval(r.interval),
	)
	if err != nil {
		r.closeSources()
		return err
	}
	r.system = system
	return nil
}

// Run starts all sessions and blocks until the context is cancelled or
// the configured duration elapses, then stops the sessions and dumps
// the recording. Returning ends the whole run group, so a bounded
// recording terminates the program.
func (r *Recorder) Run(ctx context.Context) error {
	if err := r.system.Start(); err != nil {
		return fmt.Errorf("failed to start recording: %w", err)
	}
	r.logger.Info("Recording started", "interval", r.interval, "duration", r.duration)

	var deadline <-chan time.Time
	if r.duration > 0 {
		timer := time.NewTimer(r.duration)
		defer timer.Stop()
		deadline = timer.C
	}

	select {
	case <-ctx.Done():
		r.logger.Info("Stopping recording on context done")
	case <-deadline:
		r.logger.Info("Stopping recording after configured duration", "duration", r.duration)
	}

	if err := r.system.Stop(); err != nil {
		return fmt.Errorf("failed to stop recording: %w", err)
	}

	if err := r.system.DumpAll(r.outputFile, r.outputFormat); err != nil {
		return fmt.Errorf("failed to dump recording: %w", err)
	}
	r.logger.Info("Recording written", "file", r.outputFile, "format", r.outputFormat)

	if r.summary != nil {
		exporter := stdout.NewExporter(
			stdout.WithLogger(r.logger),
			stdout.WithOutput(r.summary),
		)
		if err := exporter.Export(r.system.Sessions()); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}
	return nil
}

func (r *Recorder) Shutdown() error {
	return r.closeSources()
}

func (r *Recorder) closeSources() error {
	var errs []error
	for _, s := range r.sources {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close source %s: %w", s.Name(), err))
		}
	}
	r.sources = nil
	return errors.Join(errs...)
}

// AddEvent records a named marker on all sessions.
func (r *Recorder) AddEvent(label string) error {
	if r.system == nil {
		return fmt.Errorf("%w: recorder is not initialized", session.ErrInvalidState)
	}
	return r.system.AddEvent(label)
}

// Sessions returns the recording sessions; nil before Init.
func (r *Recorder) Sessions() []*session.Session {
	if r.system == nil {
		return nil
	}
	return r.system.Sessions()
}
