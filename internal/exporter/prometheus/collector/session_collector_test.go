// SPDX-FileCopyrightText: 2025 The Hardware Sampling Authors
// SPDX-License-Identifier: MIT

package collector

import (
	"io"
	"log/slog"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SC-SGS/hardware-sampling/internal/device"
	"github.com/SC-SGS/hardware-sampling/internal/session"
)

type staticProvider struct {
	sessions []*session.Session
}

func (p *staticProvider) Sessions() []*session.Session {
	return p.sessions
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// gather registers the collector with a fresh registry and returns the
// metric families keyed by name
func gather(t *testing.T, c prom.Collector) map[string]*dto.MetricFamily {
	t.Helper()
	registry := prom.NewPedanticRegistry()
	require.NoError(t, registry.Register(c))

	mfs, err := registry.Gather()
	require.NoError(t, err)

	byName := make(map[string]*dto.MetricFamily, len(mfs))
	for _, mf := range mfs {
		byName[mf.GetName()] = mf
	}
	return byName
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

func newRunningSession(t *testing.T) *session.Session {
	t.Helper()

	source := &device.MockSource{}
	source.On("Name").Return("mock")
	source.On("MetricNames").Return([]string{"mock_energy_joules"})
	source.On("Sample").Return(map[string]float64{"mock_energy_joules": 42.5}, nil)

	s, err := session.NewSession(source,
		session.WithLogger(discardLogger()),
		session.WithInterval(5*time.Millisecond),
	)
	require.NoError(t, err)
	require.NoError(t, s.Start())
	t.Cleanup(func() {
		if s.State() == session.Running {
			_ = s.Stop()
		}
	})

	require.Eventually(t, func() bool {
		return s.SampleCount() >= 1
	}, 5*time.Second, time.Millisecond)
	return s
}

func TestSessionCollector_Empty(t *testing.T) {
	c := NewSessionCollector(&staticProvider{}, discardLogger())

	families := gather(t, c)
	assert.Empty(t, families)
}

func TestSessionCollector_RunningSession(t *testing.T) {
	s := newRunningSession(t)
	require.NoError(t, s.AddEvent("phase-1"))

	c := NewSessionCollector(&staticProvider{sessions: []*session.Session{s}}, discardLogger())
	families := gather(t, c)

	running, ok := families["hws_session_running"]
	require.True(t, ok)
	require.Len(t, running.GetMetric(), 1)
	assert.Equal(t, 1.0, running.GetMetric()[0].GetGauge().GetValue())
	assert.Equal(t, "mock", labelValue(running.GetMetric()[0], "source"))

	samples, ok := families["hws_session_samples_total"]
	require.True(t, ok)
	assert.Equal(t, float64(s.SampleCount()), samples.GetMetric()[0].GetCounter().GetValue())

	events, ok := families["hws_session_events_total"]
	require.True(t, ok)
	assert.Equal(t, 1.0, events.GetMetric()[0].GetCounter().GetValue())

	gaps, ok := families["hws_session_gaps_total"]
	require.True(t, ok)
	assert.Equal(t, 0.0, gaps.GetMetric()[0].GetCounter().GetValue())

	values, ok := families["hws_session_metric_value"]
	require.True(t, ok)
	require.Len(t, values.GetMetric(), 1)
	m := values.GetMetric()[0]
	assert.Equal(t, 42.5, m.GetGauge().GetValue())
	assert.Equal(t, "mock", labelValue(m, "source"))
	assert.Equal(t, "mock_energy_joules", labelValue(m, "metric"))
}

func TestSessionCollector_StoppedSession(t *testing.T) {
	s := newRunningSession(t)
	require.NoError(t, s.Stop())

	c := NewSessionCollector(&staticProvider{sessions: []*session.Session{s}}, discardLogger())
	families := gather(t, c)

	running, ok := families["hws_session_running"]
	require.True(t, ok)
	assert.Equal(t, 0.0, running.GetMetric()[0].GetGauge().GetValue())

	// last sampled value stays visible after the session stopped
	_, ok = families["hws_session_metric_value"]
	assert.True(t, ok)
}

func TestSessionCollector_Describe(t *testing.T) {
	c := NewSessionCollector(&staticProvider{}, discardLogger())

	ch := make(chan *prom.Desc, 10)
	c.Describe(ch)
	close(ch)

	descs := 0
	for range ch {
		descs++
	}
	assert.Equal(t, 5, descs)
}
