// SPDX-FileCopyrightText: 2025 The Hardware Sampling Authors
// SPDX-License-Identifier: MIT

package stdout

import (
	"bytes"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SC-SGS/hardware-sampling/internal/device"
	"github.com/SC-SGS/hardware-sampling/internal/session"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func stoppedSession(t *testing.T) *session.Session {
	t.Helper()

	source := &device.MockSource{}
	source.On("Name").Return("mock")
	source.On("MetricNames").Return([]string{"mock_energy_joules"})
	source.On("Sample").Return(map[string]float64{"mock_energy_joules": 12.5}, nil)

	s, err := session.NewSession(source,
		session.WithLogger(discardLogger()),
		session.WithInterval(5*time.Millisecond),
	)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	require.Eventually(t, func() bool {
		return s.SampleCount() >= 2
	}, 5*time.Second, time.Millisecond)
	require.NoError(t, s.AddEvent("phase-1"))
	require.NoError(t, s.Stop())
	return s
}

func TestExporter_Export(t *testing.T) {
	out := &bytes.Buffer{}
	exporter := NewExporter(WithLogger(discardLogger()), WithOutput(out))
	assert.Equal(t, "stdout", exporter.Name())

	s := stoppedSession(t)
	require.NoError(t, exporter.Export([]*session.Session{s}))

	content := out.String()
	assert.Contains(t, content, "source: mock")
	assert.Contains(t, content, "samples: ")
	assert.Contains(t, content, "events: 1")
	assert.Contains(t, content, "mock_energy_joules")
	// constant source value shows up as min, max, avg and last
	assert.Contains(t, content, "12.50")
}

func TestExporter_ExportEmpty(t *testing.T) {
	out := &bytes.Buffer{}
	exporter := NewExporter(WithOutput(out))

	require.NoError(t, exporter.Export(nil))
	assert.Empty(t, out.String())
}

func TestSummarize(t *testing.T) {
	samples := []session.SampleRecord{
		{Values: map[string]float64{"m": 1.0}},
		{Values: map[string]float64{"m": 3.0}},
		{Values: map[string]float64{"m": 2.0}},
	}

	row := summarize("m", samples)
	assert.Equal(t, []string{"m", "1.00", "3.00", "2.00", "2.00"}, row)

	row = summarize("absent", samples)
	assert.Equal(t, []string{"absent", "-", "-", "-", "-"}, row)
}
