package hrtimer

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tetratelabs/hrtimer/internal/platform"
	"github.com/tetratelabs/hrtimer/sys"
)

// Source selects the counter a Clock reads.
type Source uint8

const (
	// SourceNative is the highest resolution counter of the runtime.GOOS:
	// QueryPerformanceCounter on Windows, CLOCK_MONOTONIC on Linux and
	// CLOCK_UPTIME_RAW on Darwin. Other platforms fall back to SourceCoarse
	// at microsecond resolution, reported as sys.ModeFallback.
	SourceNative Source = iota

	// SourceTSC reads the amd64 time stamp counter, calibrating its frequency
	// against SourceNative. It fails to initialize on other architectures.
	SourceTSC

	// SourcePortable reads the Go runtime monotonic clock via time.Since.
	SourcePortable

	// SourceCoarse quantizes SourcePortable to ClockConfig.WithCoarseResolution
	// and reports sys.ModeFallback. This emulates platforms that lack a
	// high-resolution counter.
	SourceCoarse
)

var sourceNames = [...]string{
	SourceNative:   "native",
	SourceTSC:      "tsc",
	SourcePortable: "portable",
	SourceCoarse:   "coarse",
}

// String implements fmt.Stringer.
func (s Source) String() string {
	if int(s) < len(sourceNames) {
		return sourceNames[s]
	}
	return fmt.Sprintf("source(%d)", uint8(s))
}

// ParseSource returns the Source with the given String value.
func ParseSource(name string) (Source, error) {
	for i, n := range sourceNames {
		if n == name {
			return Source(i), nil
		}
	}
	return 0, fmt.Errorf("unknown source %q", name)
}

// ClockConfig controls Clock behavior, with the default implementation as
// NewClockConfig
//
// The example below uses the time stamp counter with a longer calibration:
//
//	config := hrtimer.NewClockConfig().
//		WithSource(hrtimer.SourceTSC).
//		WithCalibrationWindow(50 * time.Millisecond)
//
// Note: ClockConfig is immutable. Each WithXXX function returns a new instance
// including the corresponding change.
type ClockConfig interface {
	// WithSource selects the counter. Defaults to SourceNative.
	WithSource(Source) ClockConfig

	// WithCounter overrides WithSource with a custom counter, ex. a fake for
	// tests. The Clock opens and closes it.
	WithCounter(sys.Counter) ClockConfig

	// WithCoarseResolution sets the resolution of SourceCoarse. It must be in
	// (0, 1s] and divide 1s evenly. Defaults to time.Microsecond.
	WithCoarseResolution(time.Duration) ClockConfig

	// WithCalibrationWindow sets how long each calibration round of SourceTSC
	// lasts. Defaults to 10ms.
	WithCalibrationWindow(time.Duration) ClockConfig

	// WithWalltime overrides the epoch clock read by Clock.System. Defaults to
	// time.Now.
	WithWalltime(sys.Walltime) ClockConfig

	// WithLogger sets the logger used to report calibration at debug level.
	// Defaults to discarding output.
	WithLogger(logrus.FieldLogger) ClockConfig
}

type clockConfig struct {
	source            Source
	counter           sys.Counter
	coarseResolution  time.Duration
	calibrationWindow time.Duration
	walltime          sys.Walltime
	logger            logrus.FieldLogger
}

// discardLogger is shared as logrus.Logger is safe for concurrent use.
var discardLogger = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}()

// defaultConfig helps avoid copy/pasting the wrong defaults.
var defaultConfig = &clockConfig{
	source:            SourceNative,
	coarseResolution:  time.Microsecond,
	calibrationWindow: platform.DefaultCalibrationWindow,
	walltime:          platform.Walltime,
	logger:            discardLogger,
}

// NewClockConfig returns a ClockConfig using SourceNative.
func NewClockConfig() ClockConfig {
	return defaultConfig.clone()
}

// clone makes a deep copy of this config.
func (c *clockConfig) clone() *clockConfig {
	ret := *c
	return &ret
}

// WithSource implements ClockConfig.WithSource
func (c *clockConfig) WithSource(source Source) ClockConfig {
	ret := c.clone()
	ret.source = source
	return ret
}

// WithCounter implements ClockConfig.WithCounter
func (c *clockConfig) WithCounter(counter sys.Counter) ClockConfig {
	ret := c.clone()
	ret.counter = counter
	return ret
}

// WithCoarseResolution implements ClockConfig.WithCoarseResolution
func (c *clockConfig) WithCoarseResolution(resolution time.Duration) ClockConfig {
	ret := c.clone()
	ret.coarseResolution = resolution
	return ret
}

// WithCalibrationWindow implements ClockConfig.WithCalibrationWindow
func (c *clockConfig) WithCalibrationWindow(window time.Duration) ClockConfig {
	ret := c.clone()
	ret.calibrationWindow = window
	return ret
}

// WithWalltime implements ClockConfig.WithWalltime
func (c *clockConfig) WithWalltime(walltime sys.Walltime) ClockConfig {
	if walltime == nil {
		walltime = platform.Walltime
	}
	ret := c.clone()
	ret.walltime = walltime
	return ret
}

// WithLogger implements ClockConfig.WithLogger
func (c *clockConfig) WithLogger(logger logrus.FieldLogger) ClockConfig {
	if logger == nil {
		logger = discardLogger
	}
	ret := c.clone()
	ret.logger = logger
	return ret
}

// sourceName is the name of the counter newCounter returns.
func (c *clockConfig) sourceName() string {
	if c.counter != nil {
		return "custom"
	}
	return c.source.String()
}

func (c *clockConfig) newCounter() (sys.Counter, error) {
	if c.counter != nil {
		return c.counter, nil
	}
	switch c.source {
	case SourceNative:
		return platform.NewNativeCounter(), nil
	case SourceTSC:
		return platform.NewTSCCounter(c.calibrationWindow), nil
	case SourcePortable:
		return platform.NewPortableCounter(), nil
	case SourceCoarse:
		return platform.NewCoarseCounter(c.coarseResolution), nil
	}
	return nil, fmt.Errorf("invalid source %v", c.source)
}
