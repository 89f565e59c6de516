// SPDX-FileCopyrightText: 2025 The Hardware Sampling Authors
// SPDX-License-Identifier: MIT

package device

import (
	"log/slog"
	"math/rand"
	"sort"
)

// NOTE: This fake source is not intended to be used in production and
// exists for tests and demos on machines without readable counters.
var defaultFakeMetrics = []string{
	"cpu_package-0_energy_joules",
	"cpu_dram-0_energy_joules",
}

// fakeSource produces synthetic, monotonically growing counter values.
type fakeSource struct {
	logger  *slog.Logger
	metrics []string
	values  map[string]float64
	rng     *rand.Rand
}

var _ MetricSource = (*fakeSource)(nil)

func init() {
	// manual: synthetic data must never enter a default recording
	RegisterManual("fake", func(logger *slog.Logger) (MetricSource, error) {
		return NewFakeSource(nil, WithFakeLogger(logger)), nil
	})
}

// FakeOptFn is a functional option for configuring the fake source
type FakeOptFn func(*fakeSource)

// WithFakeLogger sets the logger for the fake source
func WithFakeLogger(logger *slog.Logger) FakeOptFn {
	return func(s *fakeSource) {
		s.logger = logger.With("source", s.Name())
	}
}

// WithFakeSeed makes the generated series reproducible
func WithFakeSeed(seed int64) FakeOptFn {
	return func(s *fakeSource) {
		s.rng = rand.New(rand.NewSource(seed))
	}
}

// NewFakeSource creates a fake metric source reporting the given
// metrics. A nil or empty metric list selects a default set.
func NewFakeSource(metrics []string, opts ...FakeOptFn) MetricSource {
	if len(metrics) == 0 {
		metrics = defaultFakeMetrics
	}
	sorted := make([]string, len(metrics))
	copy(sorted, metrics)
	sort.Strings(sorted)

	source := &fakeSource{
		logger:  slog.Default().With("source", "fake"),
		metrics: sorted,
		values:  make(map[string]float64, len(sorted)),
		rng:     rand.New(rand.NewSource(rand.Int63())),
	}
	for _, opt := range opts {
		opt(source)
	}
	return source
}

func (s *fakeSource) Name() string {
	return "fake"
}

func (s *fakeSource) MetricNames() []string {
	return s.metrics
}

func (s *fakeSource) Sample() (map[string]float64, error) {
	values := make(map[string]float64, len(s.metrics))
	for _, metric := range s.metrics {
		s.values[metric] += 0.1 + s.rng.Float64()
		values[metric] = s.values[metric]
	}
	return values, nil
}

func (s *fakeSource) Close() error {
	return nil
}
