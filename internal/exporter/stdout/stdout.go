// SPDX-FileCopyrightText: 2025 The Hardware Sampling Authors
// SPDX-License-Identifier: MIT

package stdout

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/SC-SGS/hardware-sampling/internal/session"
)

// Exporter writes a human readable summary of stopped sessions
type Exporter struct {
	logger *slog.Logger
	out    io.Writer
}

type Opts struct {
	logger *slog.Logger
	out    io.Writer
}

// DefaultOpts() returns a new Opts with defaults set
func DefaultOpts() Opts {
	return Opts{
		logger: slog.Default(),
		out:    os.Stdout,
	}
}

// OptionFn is a function sets one more more options in Opts struct
type OptionFn func(*Opts)

// WithLogger sets the logger for the Exporter
func WithLogger(logger *slog.Logger) OptionFn {
	return func(o *Opts) {
		o.logger = logger
	}
}

func WithOutput(out io.Writer) OptionFn {
	return func(o *Opts) {
		o.out = out
	}
}

func NewExporter(applyOpts ...OptionFn) *Exporter {
	opts := DefaultOpts()
	for _, apply := range applyOpts {
		apply(&opts)
	}

	return &Exporter{
		logger: opts.logger.With("service", "stdout"),
		out:    opts.out,
	}
}

// Name implements service.Name
func (e *Exporter) Name() string {
	return "stdout"
}

// Export writes one summary table per session: per-metric min, max,
// average and last value over all samples.
func (e *Exporter) Export(sessions []*session.Session) error {
	for _, s := range sessions {
		if err := e.exportSession(s); err != nil {
			return err
		}
	}
	return nil
}

func (e *Exporter) exportSession(s *session.Session) error {
	md := s.Metadata()
	samples := s.Samples()

	duration := md.StopTime.Sub(md.StartTime)
	if _, err := fmt.Fprintf(e.out, "source: %s  samples: %d  events: %d  gaps: %d  duration: %s\n",
		md.Device, len(samples), s.EventCount(), s.GapCount(), duration); err != nil {
		return err
	}

	rows := make([][]string, 0, len(md.Metrics))
	for _, metric := range md.Metrics {
		rows = append(rows, summarize(metric, samples))
	}

	table := tablewriter.NewWriter(e.out)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Formatting.Alignment = tw.AlignRight
	})
	table.Header([]string{"Metric", "Min", "Max", "Avg", "Last"})
	if err := table.Bulk(rows); err != nil {
		return err
	}
	return table.Render()
}

func summarize(metric string, samples []session.SampleRecord) []string {
	var (
		minV, maxV, sum, last float64
		n                     int
	)
	for _, sample := range samples {
		v, ok := sample.Values[metric]
		if !ok {
			continue
		}
		if n == 0 || v < minV {
			minV = v
		}
		if n == 0 || v > maxV {
			maxV = v
		}
		sum += v
		last = v
		n++
	}

	if n == 0 {
		return []string{metric, "-", "-", "-", "-"}
	}
	return []string{
		metric,
		fmt.Sprintf("%.2f", minV),
		fmt.Sprintf("%.2f", maxV),
		fmt.Sprintf("%.2f", sum/float64(n)),
		fmt.Sprintf("%.2f", last),
	}
}
