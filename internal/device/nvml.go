// SPDX-FileCopyrightText: 2025 The Hardware Sampling Authors
// SPDX-License-Identifier: MIT

package device

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
)

// nvmlLib abstracts the NVML library functions for testability.
// This allows mocking NVML calls in unit tests.
type nvmlLib interface {
	Init() nvml.Return
	Shutdown() nvml.Return
	DeviceGetCount() (int, nvml.Return)
	DeviceGetHandleByIndex(index int) (nvmlDeviceHandle, nvml.Return)
	ErrorString(ret nvml.Return) string
}

// nvmlDeviceHandle abstracts operations on an NVML device handle.
type nvmlDeviceHandle interface {
	GetName() (string, nvml.Return)
	GetUUID() (string, nvml.Return)
	GetPowerUsage() (uint32, nvml.Return)
	GetTotalEnergyConsumption() (uint64, nvml.Return)
	GetUtilizationRates() (nvml.Utilization, nvml.Return)
	GetMemoryInfo() (nvml.Memory, nvml.Return)
}

// realNvmlLib is the production implementation that calls the actual
// NVML library.
type realNvmlLib struct{}

func (r *realNvmlLib) Init() nvml.Return {
	return nvml.Init()
}

func (r *realNvmlLib) Shutdown() nvml.Return {
	return nvml.Shutdown()
}

func (r *realNvmlLib) DeviceGetCount() (int, nvml.Return) {
	return nvml.DeviceGetCount()
}

func (r *realNvmlLib) DeviceGetHandleByIndex(index int) (nvmlDeviceHandle, nvml.Return) {
	handle, ret := nvml.DeviceGetHandleByIndex(index)
	if ret != nvml.SUCCESS {
		return nil, ret
	}
	return &realDeviceHandle{device: handle}, ret
}

func (r *realNvmlLib) ErrorString(ret nvml.Return) string {
	return nvml.ErrorString(ret)
}

// realDeviceHandle wraps an actual nvml.Device
type realDeviceHandle struct {
	device nvml.Device
}

func (h *realDeviceHandle) GetName() (string, nvml.Return) {
	return h.device.GetName()
}

func (h *realDeviceHandle) GetUUID() (string, nvml.Return) {
	return h.device.GetUUID()
}

func (h *realDeviceHandle) GetPowerUsage() (uint32, nvml.Return) {
	return h.device.GetPowerUsage()
}

func (h *realDeviceHandle) GetTotalEnergyConsumption() (uint64, nvml.Return) {
	return h.device.GetTotalEnergyConsumption()
}

func (h *realDeviceHandle) GetUtilizationRates() (nvml.Utilization, nvml.Return) {
	return h.device.GetUtilizationRates()
}

func (h *realDeviceHandle) GetMemoryInfo() (nvml.Memory, nvml.Return) {
	return h.device.GetMemoryInfo()
}

// nvmlSource samples power draw, cumulative energy, utilization and
// memory usage of every NVIDIA GPU visible through NVML.
type nvmlSource struct {
	logger  *slog.Logger
	nvml    nvmlLib
	devices []nvmlDeviceHandle
	metrics []string
}

var _ MetricSource = (*nvmlSource)(nil)

func init() {
	Register("nvidia", func(logger *slog.Logger) (MetricSource, error) {
		return NewNVMLSource(WithNVMLLogger(logger))
	})
}

// NVMLOptionFn is a functional option for configuring the NVML source
type NVMLOptionFn func(*nvmlSource)

// WithNVMLLogger sets the logger for the NVML source
func WithNVMLLogger(logger *slog.Logger) NVMLOptionFn {
	return func(s *nvmlSource) {
		s.logger = logger.With("source", s.Name())
	}
}

// withNVMLLib injects an alternative NVML implementation (for testing)
func withNVMLLib(lib nvmlLib) NVMLOptionFn {
	return func(s *nvmlSource) {
		s.nvml = lib
	}
}

// NewNVMLSource initializes NVML and enumerates all GPU devices. It
// fails if the NVML library cannot be loaded or no device is present.
func NewNVMLSource(opts ...NVMLOptionFn) (MetricSource, error) {
	source := &nvmlSource{
		logger: slog.Default().With("source", "nvidia"),
		nvml:   &realNvmlLib{},
	}
	for _, opt := range opts {
		opt(source)
	}

	if ret := source.nvml.Init(); ret != nvml.SUCCESS {
		return nil, fmt.Errorf("failed to initialize NVML: %s", source.nvml.ErrorString(ret))
	}

	count, ret := source.nvml.DeviceGetCount()
	if ret != nvml.SUCCESS {
		_ = source.nvml.Shutdown()
		return nil, fmt.Errorf("failed to count NVIDIA devices: %s", source.nvml.ErrorString(ret))
	}
	if count == 0 {
		_ = source.nvml.Shutdown()
		return nil, fmt.Errorf("no NVIDIA devices found")
	}

	for i := range count {
		handle, ret := source.nvml.DeviceGetHandleByIndex(i)
		if ret != nvml.SUCCESS {
			_ = source.nvml.Shutdown()
			return nil, fmt.Errorf("failed to get handle for device %d: %s", i, source.nvml.ErrorString(ret))
		}
		source.devices = append(source.devices, handle)

		name, _ := handle.GetName()
		source.logger.Debug("discovered NVIDIA device", "index", i, "name", name)

		source.metrics = append(source.metrics,
			nvmlMetricName(i, "power_watts"),
			nvmlMetricName(i, "energy_joules"),
			nvmlMetricName(i, "utilization_ratio"),
			nvmlMetricName(i, "memory_used_bytes"),
		)
	}
	sort.Strings(source.metrics)

	return source, nil
}

func nvmlMetricName(index int, metric string) string {
	return fmt.Sprintf("gpu%d_%s", index, metric)
}

func (s *nvmlSource) Name() string {
	return "nvidia"
}

func (s *nvmlSource) MetricNames() []string {
	return s.metrics
}

func (s *nvmlSource) Sample() (map[string]float64, error) {
	values := make(map[string]float64, len(s.metrics))
	for i, dev := range s.devices {
		// NVML reports milliwatts
		mw, ret := dev.GetPowerUsage()
		if ret != nvml.SUCCESS {
			return nil, fmt.Errorf("failed to read power of device %d: %s", i, s.nvml.ErrorString(ret))
		}
		values[nvmlMetricName(i, "power_watts")] = (Power(mw) * MilliWatt).Watts()

		// NVML reports millijoules
		mj, ret := dev.GetTotalEnergyConsumption()
		if ret != nvml.SUCCESS {
			return nil, fmt.Errorf("failed to read energy of device %d: %s", i, s.nvml.ErrorString(ret))
		}
		values[nvmlMetricName(i, "energy_joules")] = Energy(mj * 1000).Joules()

		util, ret := dev.GetUtilizationRates()
		if ret != nvml.SUCCESS {
			return nil, fmt.Errorf("failed to read utilization of device %d: %s", i, s.nvml.ErrorString(ret))
		}
		values[nvmlMetricName(i, "utilization_ratio")] = float64(util.Gpu) / 100.0

		mem, ret := dev.GetMemoryInfo()
		if ret != nvml.SUCCESS {
			return nil, fmt.Errorf("failed to read memory of device %d: %s", i, s.nvml.ErrorString(ret))
		}
		values[nvmlMetricName(i, "memory_used_bytes")] = float64(mem.Used)
	}
	return values, nil
}

func (s *nvmlSource) Close() error {
	if ret := s.nvml.Shutdown(); ret != nvml.SUCCESS {
		return fmt.Errorf("failed to shutdown NVML: %s", s.nvml.ErrorString(ret))
	}
	return nil
}
