// SPDX-FileCopyrightText: 2025 The Hardware Sampling Authors
// SPDX-License-Identifier: MIT

package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeSource_Defaults(t *testing.T) {
	source := NewFakeSource(nil)
	assert.Equal(t, "fake", source.Name())
	assert.Equal(t, defaultFakeMetrics, source.MetricNames())
	assert.NoError(t, source.Close())
}

func TestFakeSource_SampleCoversAllMetrics(t *testing.T) {
	metrics := []string{"b_metric", "a_metric"}
	source := NewFakeSource(metrics, WithFakeSeed(42))

	// metric names are reported in lexical order
	assert.Equal(t, []string{"a_metric", "b_metric"}, source.MetricNames())

	values, err := source.Sample()
	require.NoError(t, err)
	assert.Len(t, values, 2)
	for _, name := range source.MetricNames() {
		assert.Contains(t, values, name)
	}
}

func TestFakeSource_ValuesGrowMonotonically(t *testing.T) {
	source := NewFakeSource(nil, WithFakeSeed(7))

	prev := map[string]float64{}
	for range 10 {
		values, err := source.Sample()
		require.NoError(t, err)
		for name, v := range values {
			assert.Greater(t, v, prev[name], "metric %s must grow", name)
			prev[name] = v
		}
	}
}

func TestFakeSource_SeedReproducible(t *testing.T) {
	a := NewFakeSource(nil, WithFakeSeed(1))
	b := NewFakeSource(nil, WithFakeSeed(1))

	for range 5 {
		va, err := a.Sample()
		require.NoError(t, err)
		vb, err := b.Sample()
		require.NoError(t, err)
		assert.Equal(t, va, vb)
	}
}
