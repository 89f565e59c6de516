// SPDX-FileCopyrightText: 2025 The Hardware Sampling Authors
// SPDX-License-Identifier: MIT

package collector

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildInfoCollector(t *testing.T) {
	c := NewBuildInfoCollector()

	families := gather(t, c)
	info, ok := families["hws_build_info"]
	require.True(t, ok)
	require.Len(t, info.GetMetric(), 1)

	m := info.GetMetric()[0]
	assert.Equal(t, 1.0, m.GetGauge().GetValue())
	assert.Equal(t, "dev", labelValue(m, "version"))
	assert.Equal(t, runtime.GOARCH, labelValue(m, "arch"))
	assert.Equal(t, runtime.Version(), labelValue(m, "goversion"))
}
