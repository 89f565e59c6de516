// SPDX-FileCopyrightText: 2025 The Hardware Sampling Authors
// SPDX-License-Identifier: MIT

package session

import "time"

// State is the lifecycle state of a Session. A session moves
// Idle → Running → Stopped exactly once; there is no restart.
type State int

const (
	Idle State = iota
	Running
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// SampleRecord is one point-in-time capture of all metrics of the
// session's source.
type SampleRecord struct {
	Time   time.Time
	Values map[string]float64
}

// Event is a caller-defined timestamped marker correlating workload
// phases with samples. Duplicate labels are permitted.
type Event struct {
	Time  time.Time
	Label string
}

// Gap marks a failed sampling attempt. Sample loss is recorded, not
// silently dropped and not fatal to the session.
type Gap struct {
	Time   time.Time
	Reason string
}

// Metadata describes a stopped session.
type Metadata struct {
	Device    string
	StartTime time.Time
	StopTime  time.Time
	Interval  time.Duration
	Metrics   []string
}
