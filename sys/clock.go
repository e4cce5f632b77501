package sys

import (
	"fmt"
	"time"
)

// Tick is a raw counter reading in units of Calibration.Frequency.
//
// Ticks are monotonically non-decreasing within a process run. They are not
// tied to any epoch and are meaningless when compared across processes or
// hosts.
type Tick = uint64

// Deltatime is an elapsed time in seconds or milliseconds, depending on the
// function that produced it.
type Deltatime = float64

// ^-- Tick and Deltatime are type aliases to consolidate documentation and
// aid in reference searches.

// Mode is how a Counter established its frequency.
type Mode uint8

const (
	// ModeNative means the operating system reports or fixes the frequency of
	// a true high-resolution counter, such as QueryPerformanceFrequency or
	// clock_gettime nanoseconds.
	ModeNative Mode = iota

	// ModeCalibrated means the frequency was measured against a reference
	// clock, for example the amd64 time stamp counter.
	ModeCalibrated

	// ModeFallback means no native high-resolution counter was used. A coarser
	// clock stands in for it and its known resolution is the frequency.
	ModeFallback
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	switch m {
	case ModeNative:
		return "native"
	case ModeCalibrated:
		return "calibrated"
	case ModeFallback:
		return "fallback"
	}
	return fmt.Sprintf("mode(%d)", uint8(m))
}

// Calibration is the result of opening a Counter. It does not change for the
// lifetime of the Counter.
type Calibration struct {
	// Source names the counter, ex. "clock_gettime(CLOCK_MONOTONIC)".
	Source string

	// Frequency is the number of ticks per second. It must be positive.
	Frequency uint64

	// Resolution is the smallest step the counter is known to advance by, or
	// zero if unknown or finer than a nanosecond.
	Resolution time.Duration

	// Mode is how Frequency was established.
	Mode Mode
}

// Counter is a raw high-resolution counter source.
//
// # Notes
//
//   - Open must be called once before Read. It acquires any platform handle
//     and reports the frequency.
//   - Read is on the hot path and must not allocate or fail.
//   - Close releases what Open acquired. It is safe to call more than once.
type Counter interface {
	Open() (Calibration, error)
	Read() Tick
	Close() error
}

// Walltime returns the current time in epoch seconds with a nanosecond
// fraction.
type Walltime func() (sec int64, nsec int32)
