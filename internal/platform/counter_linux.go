package platform

import (
	"fmt"
	"time"
	_ "unsafe" // for go:linkname

	"golang.org/x/sys/unix"

	"github.com/tetratelabs/hrtimer/sys"
)

// runtime.nanotime reads CLOCK_MONOTONIC through the vDSO, which is several
// times faster than unix.ClockGettime issuing a real system call.
//
//go:noescape
//go:linkname nanotime runtime.nanotime
func nanotime() int64

// NewNativeCounter returns the highest resolution counter of this
// runtime.GOOS: CLOCK_MONOTONIC, reported in nanoseconds.
func NewNativeCounter() sys.Counter {
	return monotonicCounter{}
}

type monotonicCounter struct{}

// Open implements sys.Counter.Open
//
// The clock is probed with unix.ClockGettime, so a kernel without
// CLOCK_MONOTONIC fails here instead of on the first Read.
func (monotonicCounter) Open() (sys.Calibration, error) {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return sys.Calibration{}, fmt.Errorf("clock_gettime(CLOCK_MONOTONIC): %w", err)
	}
	var res unix.Timespec
	if err := unix.ClockGetres(unix.CLOCK_MONOTONIC, &res); err != nil {
		return sys.Calibration{}, fmt.Errorf("clock_getres(CLOCK_MONOTONIC): %w", err)
	}
	return sys.Calibration{
		Source:     "clock_gettime(CLOCK_MONOTONIC)",
		Frequency:  nanosPerSecond,
		Resolution: time.Duration(res.Nano()),
		Mode:       sys.ModeNative,
	}, nil
}

// Read implements sys.Counter.Read
func (monotonicCounter) Read() sys.Tick {
	return uint64(nanotime())
}

// Close implements sys.Counter.Close
func (monotonicCounter) Close() error {
	return nil
}
