// SPDX-FileCopyrightText: 2025 The Hardware Sampling Authors
// SPDX-License-Identifier: MIT

package collector

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/SC-SGS/hardware-sampling/internal/session"
)

// SessionProvider exposes the recording sessions to collect from. The
// recorder service implements it.
type SessionProvider interface {
	Sessions() []*session.Session
}

// SessionCollector exposes the live state of all recording sessions:
// the latest sampled value per metric and running totals of samples,
// events and gaps.
type SessionCollector struct {
	sessions SessionProvider
	logger   *slog.Logger

	valueDesc   *prometheus.Desc
	samplesDesc *prometheus.Desc
	eventsDesc  *prometheus.Desc
	gapsDesc    *prometheus.Desc
	stateDesc   *prometheus.Desc
}

// NewSessionCollector creates a collector over the given sessions
func NewSessionCollector(sessions SessionProvider, logger *slog.Logger) *SessionCollector {
	const source = "source"

	return &SessionCollector{
		sessions: sessions,
		logger:   logger.With("collector", "session"),

		valueDesc: prometheus.NewDesc(
			prometheus.BuildFQName(samplerNS, "session", "metric_value"),
			"Latest sampled value of a metric",
			[]string{source, "metric"}, nil),
		samplesDesc: prometheus.NewDesc(
			prometheus.BuildFQName(samplerNS, "session", "samples_total"),
			"Number of samples recorded in the session",
			[]string{source}, nil),
		eventsDesc: prometheus.NewDesc(
			prometheus.BuildFQName(samplerNS, "session", "events_total"),
			"Number of events recorded in the session",
			[]string{source}, nil),
		gapsDesc: prometheus.NewDesc(
			prometheus.BuildFQName(samplerNS, "session", "gaps_total"),
			"Number of sampling gaps recorded in the session",
			[]string{source}, nil),
		stateDesc: prometheus.NewDesc(
			prometheus.BuildFQName(samplerNS, "session", "running"),
			"1 while the session is running, 0 otherwise",
			[]string{source}, nil),
	}
}

func (c *SessionCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.valueDesc
	ch <- c.samplesDesc
	ch <- c.eventsDesc
	ch <- c.gapsDesc
	ch <- c.stateDesc
}

func (c *SessionCollector) Collect(ch chan<- prometheus.Metric) {
	for _, s := range c.sessions.Sessions() {
		md := s.Metadata()

		running := 0.0
		if s.State() == session.Running {
			running = 1.0
		}
		ch <- prometheus.MustNewConstMetric(c.stateDesc, prometheus.GaugeValue, running, md.Device)
		ch <- prometheus.MustNewConstMetric(c.samplesDesc, prometheus.CounterValue, float64(s.SampleCount()), md.Device)
		ch <- prometheus.MustNewConstMetric(c.eventsDesc, prometheus.CounterValue, float64(s.EventCount()), md.Device)
		ch <- prometheus.MustNewConstMetric(c.gapsDesc, prometheus.CounterValue, float64(s.GapCount()), md.Device)

		last, ok := s.LastSample()
		if !ok {
			continue
		}
		for _, metric := range md.Metrics {
			value, ok := last.Values[metric]
			if !ok {
				continue
			}
			ch <- prometheus.MustNewConstMetric(c.valueDesc, prometheus.GaugeValue, value, md.Device, metric)
		}
	}
}
