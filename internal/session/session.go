// SPDX-FileCopyrightText: 2025 The Hardware Sampling Authors
// SPDX-License-Identifier: MIT

package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/SC-SGS/hardware-sampling/internal/device"
	"k8s.io/utils/clock"
)

// Session records one bounded sampling interval of a single metric
// source. It owns a background collection goroutine while Running and
// buffers samples, events and gaps until the session is dumped.
//
// All methods are safe for concurrent use.
type Session struct {
	logger   *slog.Logger
	source   device.MetricSource
	interval time.Duration
	clock    clock.WithTicker
	metrics  []string

	mu        sync.Mutex
	state     State
	stopping  bool
	startedAt time.Time
	stoppedAt time.Time
	samples   []SampleRecord
	events    []Event
	gaps      []Gap

	cancel  context.CancelFunc
	flushed sync.WaitGroup
}

// NewSession creates a session in the Idle state. The sampling
// interval must be positive.
func NewSession(source device.MetricSource, applyOpts ...OptionFn) (*Session, error) {
	opts := DefaultOpts()
	for _, apply := range applyOpts {
		apply(&opts)
	}

	if opts.interval <= 0 {
		return nil, fmt.Errorf("%w: sampling interval must be positive, got %s", ErrInvalidArgument, opts.interval)
	}

	metrics := make([]string, len(source.MetricNames()))
	copy(metrics, source.MetricNames())
	sort.Strings(metrics)

	return &Session{
		logger:   opts.logger.With("session", source.Name()),
		source:   source,
		interval: opts.interval,
		clock:    opts.clock,
		metrics:  metrics,
	}, nil
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start transitions Idle → Running and begins periodic collection in
// a background goroutine. A session can be started only once.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.state != Idle {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot start a %s session", ErrInvalidState, state)
	}
	s.state = Running
	s.startedAt = s.clock.Now()

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	// armed before the lock is released so a racing Stop can never
	// observe a zero counter and return before the loop has flushed
	s.flushed.Add(1)
	go s.collectLoop(ctx)
	s.mu.Unlock()

	s.logger.Debug("session started", "interval", s.interval)
	return nil
}

// AddEvent appends a named marker with the current timestamp. Valid in
// any non-Stopped state; the label must not be empty.
func (s *Session) AddEvent(label string) error {
	if label == "" {
		return fmt.Errorf("%w: event label must not be empty", ErrInvalidArgument)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == Stopped || s.stopping {
		return fmt.Errorf("%w: cannot add event to a stopped session", ErrInvalidState)
	}

	// timestamp taken under the lock so the event sequence stays
	// ordered even with concurrent callers
	s.events = append(s.events, Event{Time: s.clock.Now(), Label: label})
	return nil
}

// Stop transitions Running → Stopped. It signals the collection
// goroutine and blocks until it has flushed its final sample, so no
// sample is appended after Stop returns.
func (s *Session) Stop() error {
	s.mu.Lock()
	if s.state != Running || s.stopping {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: cannot stop a %s session", ErrInvalidState, state)
	}
	s.stopping = true
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.flushed.Wait()

	s.mu.Lock()
	s.state = Stopped
	s.stoppedAt = s.clock.Now()
	s.mu.Unlock()

	s.logger.Debug("session stopped",
		"samples", s.SampleCount(),
		"events", s.EventCount(),
		"gaps", s.GapCount(),
	)
	return nil
}

// collectLoop runs in its own goroutine while the session is Running.
// It samples once immediately, then on every tick, and takes a final
// flush sample when stopped.
func (s *Session) collectLoop(ctx context.Context) {
	defer s.flushed.Done()

	s.collectOnce()

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C():
			s.collectOnce()
		case <-ctx.Done():
			// final flush before Stop is allowed to return
			s.collectOnce()
			return
		}
	}
}

// collectOnce reads the source and appends either a sample or a gap.
func (s *Session) collectOnce() {
	now := s.clock.Now()
	values, err := s.source.Sample()
	if err != nil {
		s.logger.Warn("sampling failed, recording gap", "error", err)
		s.mu.Lock()
		s.gaps = append(s.gaps, Gap{Time: now, Reason: err.Error()})
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	s.samples = append(s.samples, SampleRecord{Time: now, Values: values})
	s.mu.Unlock()
}

// Metadata describes the session. StopTime is zero until Stopped.
func (s *Session) Metadata() Metadata {
	s.mu.Lock()
	defer s.mu.Unlock()

	metrics := make([]string, len(s.metrics))
	copy(metrics, s.metrics)
	return Metadata{
		Device:    s.source.Name(),
		StartTime: s.startedAt,
		StopTime:  s.stoppedAt,
		Interval:  s.interval,
		Metrics:   metrics,
	}
}

// Samples returns a copy of all recorded samples in order.
func (s *Session) Samples() []SampleRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	samples := make([]SampleRecord, len(s.samples))
	copy(samples, s.samples)
	return samples
}

// Events returns a copy of all recorded events in insertion order.
func (s *Session) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	return events
}

// Gaps returns a copy of all recorded sampling gaps in order.
func (s *Session) Gaps() []Gap {
	s.mu.Lock()
	defer s.mu.Unlock()
	gaps := make([]Gap, len(s.gaps))
	copy(gaps, s.gaps)
	return gaps
}

// LastSample returns the most recent sample, if any.
func (s *Session) LastSample() (SampleRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.samples) == 0 {
		return SampleRecord{}, false
	}
	return s.samples[len(s.samples)-1], true
}

func (s *Session) SampleCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.samples)
}

func (s *Session) EventCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.events)
}

func (s *Session) GapCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.gaps)
}
