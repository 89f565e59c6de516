// SPDX-FileCopyrightText: 2025 The Hardware Sampling Authors
// SPDX-License-Identifier: MIT

package device

// MetricSource is a capability that reads the current values of one or
// more hardware metrics, e.g. RAPL energy counters or NVML power draw.
// A MetricSource is sampled by a single collection goroutine; unless
// documented otherwise, implementations need not be safe for
// concurrent use.
type MetricSource interface {
	// Name returns a string identifying the metric source
	Name() string

	// MetricNames returns the names of all metrics this source
	// reports. The set is fixed for the lifetime of the source and
	// every successful Sample returns a value for each name.
	MetricNames() []string

	// Sample reads the current value of every metric. A non-nil error
	// means the whole reading failed; partial results are never
	// returned.
	Sample() (map[string]float64, error)

	// Close releases any resources held by the source
	Close() error
}
