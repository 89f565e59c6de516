// SPDX-FileCopyrightText: 2025 The Hardware Sampling Authors
// SPDX-License-Identifier: MIT

package device

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/prometheus/procfs/sysfs"
)

const defaultSysfsPath = "/sys"

// raplSource reads cumulative energy counters from the Linux powercap
// interface (intel-rapl zones) via sysfs. Each zone becomes one
// metric reporting joules consumed since the source was created.
type raplSource struct {
	logger *slog.Logger
	fs     sysfs.FS

	zones   []sysfs.RaplZone
	metrics []string

	// wraparound correction per zone, keyed by metric name
	lastRaw map[string]uint64
	carry   map[string]uint64
}

var _ MetricSource = (*raplSource)(nil)

func init() {
	Register("cpu", func(logger *slog.Logger) (MetricSource, error) {
		return NewRaplSource(defaultSysfsPath, WithRaplLogger(logger))
	})
}

// RaplOptionFn is a functional option for configuring the RAPL source
type RaplOptionFn func(*raplSource)

// WithRaplLogger sets the logger for the RAPL source
func WithRaplLogger(logger *slog.Logger) RaplOptionFn {
	return func(s *raplSource) {
		s.logger = logger.With("source", s.Name())
	}
}

// NewRaplSource creates a metric source backed by the powercap sysfs
// tree rooted at sysfsPath. It fails if no RAPL zone is exposed.
func NewRaplSource(sysfsPath string, opts ...RaplOptionFn) (MetricSource, error) {
	fs, err := sysfs.NewFS(sysfsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create sysfs filesystem: %w", err)
	}

	source := &raplSource{
		logger:  slog.Default().With("source", "cpu"),
		fs:      fs,
		lastRaw: map[string]uint64{},
		carry:   map[string]uint64{},
	}
	for _, opt := range opts {
		opt(source)
	}

	zones, err := sysfs.GetRaplZones(fs)
	if err != nil {
		return nil, fmt.Errorf("failed to read rapl zones: %w", err)
	}
	if len(zones) == 0 {
		return nil, fmt.Errorf("no RAPL zones found under %s", sysfsPath)
	}

	// verify the counters are actually readable before declaring
	// the source available
	if _, err := zones[0].GetEnergyMicrojoules(); err != nil {
		return nil, fmt.Errorf("failed to read energy from zone %s: %w", zones[0].Name, err)
	}

	source.zones = zones
	source.metrics = make([]string, 0, len(zones))
	for _, zone := range zones {
		source.metrics = append(source.metrics, raplMetricName(zone))
	}
	sort.Strings(source.metrics)

	source.logger.Debug("discovered RAPL zones", "zones", source.metrics)
	return source, nil
}

func raplMetricName(zone sysfs.RaplZone) string {
	return fmt.Sprintf("cpu_%s-%d_energy_joules", zone.Name, zone.Index)
}

func (s *raplSource) Name() string {
	return "cpu"
}

func (s *raplSource) MetricNames() []string {
	return s.metrics
}

func (s *raplSource) Sample() (map[string]float64, error) {
	values := make(map[string]float64, len(s.zones))
	for _, zone := range s.zones {
		raw, err := zone.GetEnergyMicrojoules()
		if err != nil {
			return nil, fmt.Errorf("failed to read energy from zone %s: %w", zone.Name, err)
		}

		metric := raplMetricName(zone)

		// RAPL counters wrap at MaxMicrojoules; carry the overflow so
		// the reported series stays monotonic
		if last, ok := s.lastRaw[metric]; ok && raw < last {
			s.carry[metric] += uint64(zone.MaxMicrojoules)
		}
		s.lastRaw[metric] = raw

		values[metric] = Energy(s.carry[metric] + raw).Joules()
	}
	return values, nil
}

func (s *raplSource) Close() error {
	return nil
}
