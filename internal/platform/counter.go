package platform

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/tetratelabs/hrtimer/sys"
)

// NewPortableCounter returns a sys.Counter that reads the Go runtime
// monotonic clock via time.Since. It works on every runtime.GOOS, but costs
// more per read than NewNativeCounter.
func NewPortableCounter() sys.Counter {
	return &portableCounter{}
}

// portableCounter uses time.Now to ensure a monotonic clock reading on all
// platforms via time.Since.
type portableCounter struct {
	base time.Time
}

// Open implements sys.Counter.Open
func (c *portableCounter) Open() (sys.Calibration, error) {
	c.base = time.Now()
	return sys.Calibration{
		Source:     "time.Since",
		Frequency:  nanosPerSecond,
		Resolution: time.Nanosecond,
		Mode:       sys.ModeNative,
	}, nil
}

// Read implements sys.Counter.Read
func (c *portableCounter) Read() sys.Tick {
	return uint64(time.Since(c.base))
}

// Close implements sys.Counter.Close
func (c *portableCounter) Close() error {
	return nil
}

// NewCoarseCounter returns a sys.Counter that stands in for a missing
// high-resolution counter. Readings are quantized to resolution, which
// becomes the reported frequency, and the calibration is sys.ModeFallback.
//
// For example, a resolution of time.Microsecond behaves like gettimeofday and
// reports a frequency of 1MHz, while time.Millisecond behaves like
// GetTickCount and reports 1kHz.
//
// Note: Open fails unless resolution is in (0, 1s] and divides 1s evenly, as
// otherwise the frequency would not be an integer.
func NewCoarseCounter(resolution time.Duration) sys.Counter {
	return &coarseCounter{resolution: resolution}
}

type coarseCounter struct {
	portableCounter
	resolution time.Duration
}

// Open implements sys.Counter.Open
func (c *coarseCounter) Open() (sys.Calibration, error) {
	if c.resolution <= 0 || c.resolution > time.Second || time.Second%c.resolution != 0 {
		return sys.Calibration{}, fmt.Errorf("invalid coarse resolution %v: must evenly divide 1s", c.resolution)
	}
	if _, err := c.portableCounter.Open(); err != nil {
		return sys.Calibration{}, err
	}
	return sys.Calibration{
		Source:     fmt.Sprintf("coarse(%v)", c.resolution),
		Frequency:  uint64(time.Second / c.resolution),
		Resolution: c.resolution,
		Mode:       sys.ModeFallback,
	}, nil
}

// Read implements sys.Counter.Read
func (c *coarseCounter) Read() sys.Tick {
	return uint64(time.Since(c.base) / c.resolution)
}

// FakeCounter is a deterministic sys.Counter for tests. The first Read after
// Open returns zero and each subsequent Read advances by Step.
//
// FakeCounter is safe for concurrent reads.
type FakeCounter struct {
	// Calibration is returned by Open unless OpenErr is set.
	Calibration sys.Calibration

	// Step is the number of ticks each Read advances.
	Step uint64

	// OpenErr, when non-nil, is returned by Open.
	OpenErr error

	ticks  atomic.Uint64
	opens  atomic.Int32
	closes atomic.Int32
}

// NewFakeCounter returns a FakeCounter reporting frequency as sys.ModeNative.
func NewFakeCounter(frequency, step uint64) *FakeCounter {
	return &FakeCounter{
		Calibration: sys.Calibration{Source: "fake", Frequency: frequency, Mode: sys.ModeNative},
		Step:        step,
	}
}

// Open implements sys.Counter.Open
func (c *FakeCounter) Open() (sys.Calibration, error) {
	c.opens.Add(1)
	if c.OpenErr != nil {
		return sys.Calibration{}, c.OpenErr
	}
	c.ticks.Store(0)
	return c.Calibration, nil
}

// Read implements sys.Counter.Read
func (c *FakeCounter) Read() sys.Tick {
	return c.ticks.Add(c.Step) - c.Step
}

// Close implements sys.Counter.Close
func (c *FakeCounter) Close() error {
	c.closes.Add(1)
	return nil
}

// Opens returns how many times Open was called.
func (c *FakeCounter) Opens() int {
	return int(c.opens.Load())
}

// Closes returns how many times Close was called.
func (c *FakeCounter) Closes() int {
	return int(c.closes.Load())
}
