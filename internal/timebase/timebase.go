// Package timebase converts raw tick deltas to real time units given a fixed
// counter frequency.
//
// Counter frequencies range from ~100Hz (coarse fallback clocks) to several
// GHz (time stamp counters), so the naive `dt * 1000 / frequency` overflows for
// long durations on fast counters and truncates to zero for short durations on
// slow ones. Every conversion here splits the delta into a whole part and a
// remainder, and only the remainder is divided in floating point.
package timebase

import (
	"math"
	"math/bits"
	"time"
)

const millisPerSecond = 1000

// Timebase is immutable once returned by New, so it is safe for concurrent
// use.
type Timebase struct {
	frequency uint64
	// millisecondDivisor is ticks per millisecond when frequency is an exact
	// multiple of 1000, otherwise zero.
	millisecondDivisor uint64
}

// New returns a Timebase for the given ticks per second.
//
// Note: frequency must be positive. Callers validate it before calling.
func New(frequency uint64) Timebase {
	tb := Timebase{frequency: frequency}
	if frequency >= millisPerSecond && frequency%millisPerSecond == 0 {
		tb.millisecondDivisor = frequency / millisPerSecond
	}
	return tb
}

// Frequency returns ticks per second.
func (tb Timebase) Frequency() uint64 {
	return tb.frequency
}

// Seconds returns dt / frequency.
func (tb Timebase) Seconds(dt uint64) float64 {
	whole, rem := dt/tb.frequency, dt%tb.frequency
	return float64(whole) + float64(rem)/float64(tb.frequency)
}

// Milliseconds returns dt * 1000 / frequency.
func (tb Timebase) Milliseconds(dt uint64) float64 {
	if d := tb.millisecondDivisor; d != 0 {
		whole, rem := dt/d, dt%d
		return float64(whole) + float64(rem)/float64(d)
	}

	// Widen dt*1000 to 128 bits. bits.Div64 panics when the quotient does not
	// fit 64 bits, which only happens for frequencies below 1000.
	hi, lo := bits.Mul64(dt, millisPerSecond)
	if hi >= tb.frequency {
		return tb.Seconds(dt) * millisPerSecond
	}
	whole, rem := bits.Div64(hi, lo, tb.frequency)
	return float64(whole) + float64(rem)/float64(tb.frequency)
}

// Duration returns dt as a time.Duration, saturating at math.MaxInt64.
func (tb Timebase) Duration(dt uint64) time.Duration {
	whole, rem := dt/tb.frequency, dt%tb.frequency
	if whole > uint64(math.MaxInt64/int64(time.Second)) {
		return math.MaxInt64
	}
	// rem < frequency so rem*1e9 is widened to avoid overflow on GHz counters.
	hi, lo := bits.Mul64(rem, uint64(time.Second))
	nanos, _ := bits.Div64(hi, lo, tb.frequency)
	d := time.Duration(whole) * time.Second
	if d > math.MaxInt64-time.Duration(nanos) {
		return math.MaxInt64
	}
	return d + time.Duration(nanos)
}
