// SPDX-FileCopyrightText: 2025 The Hardware Sampling Authors
// SPDX-License-Identifier: MIT

package device

import "fmt"

// Energy represents energy usage as an uint64 MicroJoule count, which
// is the granularity both RAPL and NVML expose. The maximum energy
// that can be captured is 2^64 - 1 MicroJoules.
type Energy uint64

const (
	MicroJoule Energy = 1
	Joule             = 1000 * 1000 * MicroJoule
)

func (e Energy) MicroJoules() uint64 {
	return uint64(e)
}

func (e Energy) Joules() float64 {
	return float64(e) / float64(Joule)
}

func (e Energy) String() string {
	return fmt.Sprintf("%.2fJ", e.Joules())
}

// Power represents power usage as a float64 MicroWatt count.
type Power float64

const (
	MicroWatt Power = 1.0
	MilliWatt       = 1000 * MicroWatt
	Watt            = 1000 * MilliWatt
)

func (p Power) MicroWatts() float64 {
	return float64(p)
}

func (p Power) Watts() float64 {
	return float64(p / Watt)
}

func (p Power) String() string {
	return fmt.Sprintf("%.2fW", p.Watts())
}
