package platform

import (
	"fmt"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/tetratelabs/hrtimer/sys"
)

// NewNativeCounter returns the highest resolution counter of this
// runtime.GOOS: QueryPerformanceCounter.
//
// On Windows, time.Now does not use QueryPerformanceCounter, but "interrupt
// time", which is monotonic but does not have nanosecond precision. Hence, the
// counter is read directly from kernel32.dll.
//
// See https://learn.microsoft.com/en-us/windows/win32/api/profileapi/nf-profileapi-queryperformancecounter
func NewNativeCounter() sys.Counter {
	return &qpcCounter{}
}

type qpcCounter struct {
	dll     *windows.DLL
	counter *windows.Proc
}

// Open implements sys.Counter.Open
//
// kernel32.dll is loaded here and released by Close. The frequency is
// returned as reported, so a zero frequency is left for the caller to reject.
func (c *qpcCounter) Open() (sys.Calibration, error) {
	dll, err := windows.LoadDLL("kernel32.dll")
	if err != nil {
		return sys.Calibration{}, err
	}
	frequencyProc, err := dll.FindProc("QueryPerformanceFrequency")
	if err != nil {
		_ = dll.Release()
		return sys.Calibration{}, err
	}
	counter, err := dll.FindProc("QueryPerformanceCounter")
	if err != nil {
		_ = dll.Release()
		return sys.Calibration{}, err
	}

	var frequency int64
	if r1, _, err := frequencyProc.Call(uintptr(unsafe.Pointer(&frequency))); r1 == 0 {
		_ = dll.Release()
		return sys.Calibration{}, fmt.Errorf("QueryPerformanceFrequency: %w", err)
	}
	if frequency < 0 {
		frequency = 0
	}

	c.dll, c.counter = dll, counter
	cal := sys.Calibration{
		Source:    "QueryPerformanceCounter",
		Frequency: uint64(frequency),
		Mode:      sys.ModeNative,
	}
	if frequency > 0 {
		cal.Resolution = time.Second / time.Duration(frequency)
	}
	return cal, nil
}

// Read implements sys.Counter.Read
func (c *qpcCounter) Read() sys.Tick {
	var count int64
	_, _, _ = c.counter.Call(uintptr(unsafe.Pointer(&count)))
	return uint64(count)
}

// Close implements sys.Counter.Close
func (c *qpcCounter) Close() (err error) {
	if c.dll != nil {
		err = c.dll.Release()
		c.dll, c.counter = nil, nil
	}
	return
}
