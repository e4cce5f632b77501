package platform

import (
	"fmt"
	_ "unsafe" // for go:linkname

	"golang.org/x/sys/unix"

	"github.com/tetratelabs/hrtimer/sys"
)

// runtime.nanotime reads mach_absolute_time scaled to nanoseconds, which is
// the same timebase as CLOCK_UPTIME_RAW.
//
//go:noescape
//go:linkname nanotime runtime.nanotime
func nanotime() int64

// NewNativeCounter returns the highest resolution counter of this
// runtime.GOOS: CLOCK_UPTIME_RAW, reported in nanoseconds.
func NewNativeCounter() sys.Counter {
	return uptimeCounter{}
}

type uptimeCounter struct{}

// Open implements sys.Counter.Open
func (uptimeCounter) Open() (sys.Calibration, error) {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_UPTIME_RAW, &ts); err != nil {
		return sys.Calibration{}, fmt.Errorf("clock_gettime(CLOCK_UPTIME_RAW): %w", err)
	}
	return sys.Calibration{
		Source:    "clock_gettime(CLOCK_UPTIME_RAW)",
		Frequency: nanosPerSecond,
		Mode:      sys.ModeNative,
	}, nil
}

// Read implements sys.Counter.Read
func (uptimeCounter) Read() sys.Tick {
	return uint64(nanotime())
}

// Close implements sys.Counter.Close
func (uptimeCounter) Close() error {
	return nil
}
