// SPDX-FileCopyrightText: 2025 The Hardware Sampling Authors
// SPDX-License-Identifier: MIT

package session

import (
	"errors"
	"fmt"

	"github.com/SC-SGS/hardware-sampling/internal/device"
)

// SystemRecorder drives one session per metric source so the whole
// system can be recorded with a single Start/Stop pair. Events are
// fanned out to every session.
type SystemRecorder struct {
	sessions []*Session
}

// NewSystemRecorder creates one Idle session per source. All sessions
// share the same options.
func NewSystemRecorder(sources []device.MetricSource, applyOpts ...OptionFn) (*SystemRecorder, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: at least one metric source is required", ErrInvalidArgument)
	}

	sessions := make([]*Session, 0, len(sources))
	for _, source := range sources {
		s, err := NewSession(source, applyOpts...)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return &SystemRecorder{sessions: sessions}, nil
}

// Sessions returns the underlying sessions in source order.
func (r *SystemRecorder) Sessions() []*Session {
	return r.sessions
}

// Start starts every session. On failure, sessions started so far are
// stopped before returning.
func (r *SystemRecorder) Start() error {
	for i, s := range r.sessions {
		if err := s.Start(); err != nil {
			for _, started := range r.sessions[:i] {
				_ = started.Stop()
			}
			return err
		}
	}
	return nil
}

// AddEvent records the marker on every session.
func (r *SystemRecorder) AddEvent(label string) error {
	var errs []error
	for _, s := range r.sessions {
		if err := s.AddEvent(label); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Stop stops every session, continuing past failures so no collection
// goroutine is left running.
func (r *SystemRecorder) Stop() error {
	var errs []error
	for _, s := range r.sessions {
		if err := s.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DumpAll serializes all stopped sessions into a single file, one
// document per session, written atomically.
func (r *SystemRecorder) DumpAll(path string, format Format) error {
	docs := make([]document, 0, len(r.sessions))
	for _, s := range r.sessions {
		if s.State() != Stopped {
			return fmt.Errorf("%w: can dump sessions only after they have been stopped", ErrInvalidState)
		}
		docs = append(docs, s.document())
	}

	data, err := encodeDocuments(format, docs)
	if err != nil {
		return err
	}
	return atomicWrite(path, data)
}
