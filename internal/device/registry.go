// SPDX-FileCopyrightText: 2025 The Hardware Sampling Authors
// SPDX-License-Identifier: MIT

package device

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Factory is a function that creates a MetricSource for a specific
// backend. It receives a logger and returns a source or an error if
// the backend's hardware/drivers are not available.
type Factory func(logger *slog.Logger) (MetricSource, error)

// entry holds a registered factory. Manual entries are selectable by
// name only and never enter automatic discovery.
type entry struct {
	factory Factory
	manual  bool
}

var (
	registry   = make(map[string]entry)
	registryMu sync.RWMutex
)

// Register adds a metric source factory under the given name.
func Register(name string, factory Factory) {
	register(name, factory, false)
}

// RegisterManual adds a metric source factory that is only selectable
// by name. DiscoverAll skips it, so synthetic sources never show up in
// a default recording on real hardware.
func RegisterManual(name string, factory Factory) {
	register(name, factory, true)
}

func register(name string, factory Factory, manual bool) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = entry{factory: factory, manual: manual}
}

// Discover returns a MetricSource for a specific backend, or an error
// if the backend is not registered or has no available hardware.
func Discover(name string, logger *slog.Logger) (MetricSource, error) {
	registryMu.RLock()
	e, ok := registry[name]
	registryMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("metric source %q is not registered", name)
	}

	source, err := e.factory(logger)
	if err != nil {
		return nil, fmt.Errorf("metric source %q is unavailable: %w", name, err)
	}

	if len(source.MetricNames()) == 0 {
		_ = source.Close()
		return nil, fmt.Errorf("metric source %q reports no metrics", name)
	}

	return source, nil
}

// DiscoverAll probes all registered hardware backends and returns
// sources with available hardware. Backends that fail to initialize
// are skipped with a debug log; manually registered backends are never
// probed.
//
// Returns an empty slice if no source is available.
func DiscoverAll(logger *slog.Logger) []MetricSource {
	var sources []MetricSource
	for _, name := range discoverableSources() {
		source, err := Discover(name, logger)
		if err != nil {
			logger.Debug("skipping metric source", "source", name, "error", err)
			continue
		}
		sources = append(sources, source)
	}
	return sources
}

// RegisteredSources returns the names of all registered backends in
// lexical order, including manual ones.
func RegisteredSources() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// discoverableSources returns the names of all backends eligible for
// automatic discovery in lexical order.
func discoverableSources() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name, e := range registry {
		if e.manual {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ClearRegistry removes all registered backends.
// This is primarily useful for testing.
func ClearRegistry() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = make(map[string]entry)
}
