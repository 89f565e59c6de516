// SPDX-FileCopyrightText: 2025 The Hardware Sampling Authors
// SPDX-License-Identifier: MIT

package session

import (
	"log/slog"
	"time"

	"k8s.io/utils/clock"
)

// DefaultInterval is the sampling interval used when none is given.
const DefaultInterval = 100 * time.Millisecond

type Opts struct {
	logger   *slog.Logger
	interval time.Duration
	clock    clock.WithTicker
}

// DefaultOpts returns a new Opts with defaults set
func DefaultOpts() Opts {
	return Opts{
		logger:   slog.Default(),
		interval: DefaultInterval,
		clock:    clock.RealClock{},
	}
}

// OptionFn is a function that sets one or more options in Opts
type OptionFn func(*Opts)

// WithLogger sets the logger for the session
func WithLogger(logger *slog.Logger) OptionFn {
	return func(o *Opts) {
		o.logger = logger
	}
}

// WithInterval sets the sampling interval for the session
func WithInterval(d time.Duration) OptionFn {
	return func(o *Opts) {
		o.interval = d
	}
}

// WithClock sets the clock for the session
func WithClock(c clock.WithTicker) OptionFn {
	return func(o *Opts) {
		o.clock = c
	}
}
