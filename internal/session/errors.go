// SPDX-FileCopyrightText: 2025 The Hardware Sampling Authors
// SPDX-License-Identifier: MIT

package session

import "errors"

var (
	// ErrInvalidState is returned when an operation is called out of
	// lifecycle order, e.g. Start on a running session or Dump before
	// Stop.
	ErrInvalidState = errors.New("invalid session state")

	// ErrInvalidArgument is returned for malformed input such as an
	// empty event label.
	ErrInvalidArgument = errors.New("invalid argument")
)
