// SPDX-FileCopyrightText: 2025 The Hardware Sampling Authors
// SPDX-License-Identifier: MIT

package device

import (
	"github.com/stretchr/testify/mock"
)

// MockSource is a mock implementation of MetricSource for use in tests
// of packages that consume metric sources.
type MockSource struct {
	mock.Mock
}

var _ MetricSource = (*MockSource)(nil)

func (m *MockSource) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockSource) MetricNames() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

func (m *MockSource) Sample() (map[string]float64, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]float64), args.Error(1)
}

func (m *MockSource) Close() error {
	args := m.Called()
	return args.Error(0)
}
