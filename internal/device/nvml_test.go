// SPDX-FileCopyrightText: 2025 The Hardware Sampling Authors
// SPDX-License-Identifier: MIT

package device

import (
	"testing"

	"github.com/NVIDIA/go-nvml/pkg/nvml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubNvmlLib implements nvmlLib in memory.
type stubNvmlLib struct {
	initRet     nvml.Return
	devices     []nvmlDeviceHandle
	shutdowns   int
	countFailed bool
}

func (s *stubNvmlLib) Init() nvml.Return { return s.initRet }

func (s *stubNvmlLib) Shutdown() nvml.Return {
	s.shutdowns++
	return nvml.SUCCESS
}

func (s *stubNvmlLib) DeviceGetCount() (int, nvml.Return) {
	if s.countFailed {
		return 0, nvml.ERROR_UNKNOWN
	}
	return len(s.devices), nvml.SUCCESS
}

func (s *stubNvmlLib) DeviceGetHandleByIndex(index int) (nvmlDeviceHandle, nvml.Return) {
	if index < 0 || index >= len(s.devices) {
		return nil, nvml.ERROR_INVALID_ARGUMENT
	}
	return s.devices[index], nvml.SUCCESS
}

func (s *stubNvmlLib) ErrorString(ret nvml.Return) string { return "stub error" }

// stubDevice implements nvmlDeviceHandle with fixed readings.
type stubDevice struct {
	name     string
	powerMW  uint32
	energyMJ uint64
	util     uint32
	memUsed  uint64
	powerRet nvml.Return
}

func (d *stubDevice) GetName() (string, nvml.Return) { return d.name, nvml.SUCCESS }
func (d *stubDevice) GetUUID() (string, nvml.Return) { return "GPU-stub", nvml.SUCCESS }

func (d *stubDevice) GetPowerUsage() (uint32, nvml.Return) {
	if d.powerRet != nvml.SUCCESS {
		return 0, d.powerRet
	}
	return d.powerMW, nvml.SUCCESS
}

func (d *stubDevice) GetTotalEnergyConsumption() (uint64, nvml.Return) {
	return d.energyMJ, nvml.SUCCESS
}

func (d *stubDevice) GetUtilizationRates() (nvml.Utilization, nvml.Return) {
	return nvml.Utilization{Gpu: d.util}, nvml.SUCCESS
}

func (d *stubDevice) GetMemoryInfo() (nvml.Memory, nvml.Return) {
	return nvml.Memory{Used: d.memUsed}, nvml.SUCCESS
}

func TestNVMLSource_InitFailure(t *testing.T) {
	lib := &stubNvmlLib{initRet: nvml.ERROR_LIBRARY_NOT_FOUND}
	_, err := NewNVMLSource(withNVMLLib(lib))
	assert.ErrorContains(t, err, "failed to initialize NVML")
}

func TestNVMLSource_NoDevices(t *testing.T) {
	lib := &stubNvmlLib{initRet: nvml.SUCCESS}
	_, err := NewNVMLSource(withNVMLLib(lib))
	assert.ErrorContains(t, err, "no NVIDIA devices")
	assert.Equal(t, 1, lib.shutdowns, "NVML must be shut down on failed discovery")
}

func TestNVMLSource_Sample(t *testing.T) {
	lib := &stubNvmlLib{
		initRet: nvml.SUCCESS,
		devices: []nvmlDeviceHandle{
			&stubDevice{name: "Stub A100", powerMW: 250_000, energyMJ: 3_000_000, util: 75, memUsed: 1 << 30},
		},
	}

	source, err := NewNVMLSource(withNVMLLib(lib))
	require.NoError(t, err)

	assert.Equal(t, "nvidia", source.Name())
	assert.Equal(t, []string{
		"gpu0_energy_joules",
		"gpu0_memory_used_bytes",
		"gpu0_power_watts",
		"gpu0_utilization_ratio",
	}, source.MetricNames())

	values, err := source.Sample()
	require.NoError(t, err)
	assert.InDelta(t, 250.0, values["gpu0_power_watts"], 1e-9)
	assert.InDelta(t, 3000.0, values["gpu0_energy_joules"], 1e-9)
	assert.InDelta(t, 0.75, values["gpu0_utilization_ratio"], 1e-9)
	assert.InDelta(t, float64(1<<30), values["gpu0_memory_used_bytes"], 1e-9)

	require.NoError(t, source.Close())
	assert.Equal(t, 1, lib.shutdowns)
}

func TestNVMLSource_SampleReadFailure(t *testing.T) {
	lib := &stubNvmlLib{
		initRet: nvml.SUCCESS,
		devices: []nvmlDeviceHandle{
			&stubDevice{name: "Stub", powerRet: nvml.ERROR_GPU_IS_LOST},
		},
	}

	source, err := NewNVMLSource(withNVMLLib(lib))
	require.NoError(t, err)

	_, err = source.Sample()
	assert.ErrorContains(t, err, "failed to read power")
}
