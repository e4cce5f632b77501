package hrtimer

import (
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tetratelabs/hrtimer/internal/timebase"
	"github.com/tetratelabs/hrtimer/sys"
)

// Clock measures elapsed time with an opened counter whose frequency was fixed
// by NewClock. All methods except Close are safe for concurrent use without
// locking, as nothing they read changes after NewClock returns.
type Clock struct {
	counter     sys.Counter
	walltime    sys.Walltime
	calibration sys.Calibration
	timebase    timebase.Timebase
	closed      atomic.Bool
}

// NewClock opens and calibrates the counter selected by config, or
// NewClockConfig if nil.
//
// The returned error is an *InitError when the counter failed to open or
// reported a zero frequency. In that case, the counter is already closed.
func NewClock(config ClockConfig) (*Clock, error) {
	if config == nil {
		config = NewClockConfig()
	}
	cfg := config.(*clockConfig)
	log := cfg.logger.WithField("source", cfg.sourceName())

	counter, err := cfg.newCounter()
	if err != nil {
		return nil, &InitError{source: cfg.sourceName(), err: err}
	}

	cal, err := counter.Open()
	if err == nil && cal.Frequency == 0 {
		err = ErrInvalidFrequency
	}
	if err != nil {
		_ = counter.Close()
		log.WithError(err).Debug("counter unavailable")
		return nil, &InitError{source: cfg.sourceName(), err: err}
	}

	log.WithFields(logrus.Fields{
		"counter":    cal.Source,
		"frequency":  cal.Frequency,
		"resolution": cal.Resolution,
		"mode":       cal.Mode,
	}).Debug("counter calibrated")

	return &Clock{
		counter:     counter,
		walltime:    cfg.walltime,
		calibration: cal,
		timebase:    timebase.New(cal.Frequency),
	}, nil
}

// Calibration returns how the counter was opened, including whether it is a
// sys.ModeFallback counter.
func (c *Clock) Calibration() sys.Calibration {
	return c.calibration
}

// Current returns the current counter value.
func (c *Clock) Current() sys.Tick {
	return c.counter.Read()
}

// ElapsedTicks returns the ticks since t, which must be a prior result of
// Current on this Clock.
//
// Note: Counter wraparound is not handled. At the frequencies involved, a
// 64-bit counter does not wrap within the uptime of a host.
func (c *Clock) ElapsedTicks(t sys.Tick) sys.Tick {
	return c.counter.Read() - t
}

// Elapsed returns the seconds since t, which must be a prior result of
// Current on this Clock.
func (c *Clock) Elapsed(t sys.Tick) sys.Deltatime {
	return c.timebase.Seconds(c.ElapsedTicks(t))
}

// TicksPerSecond returns the frequency fixed when the Clock was created.
func (c *Clock) TicksPerSecond() uint64 {
	return c.timebase.Frequency()
}

// TicksToSeconds converts a tick delta to seconds.
func (c *Clock) TicksToSeconds(dt sys.Tick) sys.Deltatime {
	return c.timebase.Seconds(dt)
}

// TicksToMilliseconds converts a tick delta to milliseconds. It neither
// overflows for multi-day deltas on GHz counters, nor truncates sub-millisecond
// deltas to zero.
func (c *Clock) TicksToMilliseconds(dt sys.Tick) sys.Deltatime {
	return c.timebase.Milliseconds(dt)
}

// Duration converts a tick delta to a time.Duration, saturating at the
// maximum duration (~292 years).
func (c *Clock) Duration(dt sys.Tick) time.Duration {
	return c.timebase.Duration(dt)
}

// System returns the wall clock as milliseconds since the UNIX epoch. This is
// unrelated to the counter and can jump when the host clock is adjusted.
func (c *Clock) System() uint64 {
	return epochMillis(c.walltime)
}

// Close releases the counter. Subsequent calls are a no-op. Using the Clock
// after Close is undefined.
func (c *Clock) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	return c.counter.Close()
}

func epochMillis(walltime sys.Walltime) uint64 {
	sec, nsec := walltime()
	return uint64(sec)*1000 + uint64(nsec)/uint64(time.Millisecond)
}
