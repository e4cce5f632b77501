// Package hrtimer measures elapsed time with the highest resolution counter of
// the host, and converts ticks of that counter to seconds and milliseconds.
//
// A Clock is created with NewClock and threaded through callers. For parity
// with C-style timer libraries, this package also keeps one process-wide Clock
// managed by Initialize and Shutdown:
//
//	if err := hrtimer.Initialize(); err != nil {
//		log.Fatal(err)
//	}
//	defer hrtimer.Shutdown()
//
//	start := hrtimer.Current()
//	doWork()
//	fmt.Printf("took %.3fms\n", hrtimer.TicksToMilliseconds(hrtimer.ElapsedTicks(start)))
//
// The measurement functions do not check Initialize was called, as they are
// meant for hot paths. Calling them before Initialize, or after Shutdown,
// panics.
package hrtimer

import (
	"sync"
	"sync/atomic"

	"github.com/tetratelabs/hrtimer/internal/platform"
	"github.com/tetratelabs/hrtimer/sys"
)

var (
	// lifecycle serializes Initialize and Shutdown. Readers only load global.
	lifecycle sync.Mutex
	global    atomic.Pointer[Clock]
)

// Initialize creates the process-wide Clock with NewClockConfig.
//
// See InitializeWithConfig
func Initialize() error {
	return InitializeWithConfig(nil)
}

// InitializeWithConfig creates the process-wide Clock with config.
//
// Calling this again before Shutdown is a no-op which returns nil, even when
// config differs. On error, which is an *InitError, nothing is installed and
// the process-wide Clock must be considered unavailable.
//
// Note: This must not race with the measurement functions. Call it once
// during startup, before any goroutine reads the clock.
func InitializeWithConfig(config ClockConfig) error {
	lifecycle.Lock()
	defer lifecycle.Unlock()

	if global.Load() != nil {
		return nil
	}
	c, err := NewClock(config)
	if err != nil {
		return err
	}
	global.Store(c)
	return nil
}

// Shutdown closes the process-wide Clock. It is safe to call when Initialize
// was never called or failed.
//
// Note: This must not race with the measurement functions. Call it once
// during teardown, after all goroutines stopped reading the clock.
func Shutdown() {
	lifecycle.Lock()
	defer lifecycle.Unlock()

	if c := global.Swap(nil); c != nil {
		_ = c.Close()
	}
}

// Default returns the process-wide Clock, or nil if not initialized.
func Default() *Clock {
	return global.Load()
}

// Calibration returns Clock.Calibration of the process-wide Clock.
func Calibration() sys.Calibration {
	return global.Load().Calibration()
}

// Current returns Clock.Current of the process-wide Clock.
func Current() sys.Tick {
	return global.Load().Current()
}

// Elapsed returns Clock.Elapsed of the process-wide Clock.
func Elapsed(t sys.Tick) sys.Deltatime {
	return global.Load().Elapsed(t)
}

// ElapsedTicks returns Clock.ElapsedTicks of the process-wide Clock.
func ElapsedTicks(t sys.Tick) sys.Tick {
	return global.Load().ElapsedTicks(t)
}

// TicksPerSecond returns Clock.TicksPerSecond of the process-wide Clock.
func TicksPerSecond() uint64 {
	return global.Load().TicksPerSecond()
}

// TicksToSeconds returns Clock.TicksToSeconds of the process-wide Clock.
func TicksToSeconds(dt sys.Tick) sys.Deltatime {
	return global.Load().TicksToSeconds(dt)
}

// TicksToMilliseconds returns Clock.TicksToMilliseconds of the process-wide
// Clock.
func TicksToMilliseconds(dt sys.Tick) sys.Deltatime {
	return global.Load().TicksToMilliseconds(dt)
}

// System returns the wall clock as milliseconds since the UNIX epoch.
//
// Unlike the other functions, this works without Initialize, in which case it
// reads time.Now.
func System() uint64 {
	if c := global.Load(); c != nil {
		return c.System()
	}
	return epochMillis(platform.Walltime)
}
