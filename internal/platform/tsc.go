package platform

import (
	"fmt"
	"sort"
	"time"

	"github.com/tetratelabs/hrtimer/internal/timebase"
	"github.com/tetratelabs/hrtimer/sys"
)

const (
	// DefaultCalibrationWindow is how long each calibration round of
	// NewTSCCounter sleeps.
	DefaultCalibrationWindow = 10 * time.Millisecond

	calibrationRounds = 5
)

// NewTSCCounter returns a sys.Counter that reads the amd64 time stamp counter
// with RDTSC. The TSC has no architectural way to report its frequency, so
// Open measures it against NewNativeCounter over several rounds of window and
// keeps the median. The calibration is sys.ModeCalibrated.
//
// Open returns ErrUnsupported when runtime.GOARCH is not amd64. A zero or
// negative window uses DefaultCalibrationWindow.
//
// Note: Readings are only monotonic across cores when the CPU has an invariant
// TSC, which is the case on x86 processors made in the last decade.
func NewTSCCounter(window time.Duration) sys.Counter {
	if window <= 0 {
		window = DefaultCalibrationWindow
	}
	return &tscCounter{
		read:         readTSC,
		newReference: NewNativeCounter,
		sleep:        time.Sleep,
		window:       window,
	}
}

type tscCounter struct {
	// read is nil when the platform has no TSC.
	read         func() uint64
	newReference func() sys.Counter
	sleep        func(time.Duration)
	window       time.Duration
}

// Open implements sys.Counter.Open
func (c *tscCounter) Open() (sys.Calibration, error) {
	if c.read == nil {
		return sys.Calibration{}, fmt.Errorf("rdtsc: %w", ErrUnsupported)
	}

	ref := c.newReference()
	refCal, err := ref.Open()
	if err != nil {
		return sys.Calibration{}, fmt.Errorf("rdtsc: opening reference counter: %w", err)
	}
	defer ref.Close()
	if refCal.Frequency == 0 {
		return sys.Calibration{}, fmt.Errorf("rdtsc: reference counter %s reported zero frequency", refCal.Source)
	}

	frequency := calibrate(c.read, ref, timebase.New(refCal.Frequency), c.window, c.sleep)
	cal := sys.Calibration{
		Source:    "rdtsc",
		Frequency: frequency,
		Mode:      sys.ModeCalibrated,
	}
	if frequency > 0 && frequency <= nanosPerSecond {
		cal.Resolution = time.Second / time.Duration(frequency)
	}
	return cal, nil
}

// calibrate returns the median of calibrationRounds frequency estimates of
// read, each timed against ref over window. It returns zero if every round
// observed no elapsed reference time.
func calibrate(read func() uint64, ref sys.Counter, refBase timebase.Timebase, window time.Duration, sleep func(time.Duration)) uint64 {
	freqs := make([]uint64, 0, calibrationRounds)
	for i := 0; i < calibrationRounds; i++ {
		refStart, start := ref.Read(), read()
		sleep(window)
		end, refEnd := read(), ref.Read()

		elapsed := refBase.Seconds(refEnd - refStart)
		if elapsed <= 0 {
			continue
		}
		freqs = append(freqs, uint64(float64(end-start)/elapsed))
	}
	if len(freqs) == 0 {
		return 0
	}
	sort.Slice(freqs, func(i, j int) bool { return freqs[i] < freqs[j] })
	return freqs[len(freqs)/2]
}

// Read implements sys.Counter.Read
func (c *tscCounter) Read() sys.Tick {
	return c.read()
}

// Close implements sys.Counter.Close
func (c *tscCounter) Close() error {
	return nil
}
