package platform

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tetratelabs/hrtimer/internal/timebase"
	"github.com/tetratelabs/hrtimer/sys"
)

func TestNewNativeCounter(t *testing.T) {
	c := NewNativeCounter()
	cal, err := c.Open()
	require.NoError(t, err)
	defer c.Close()

	require.NotEmpty(t, cal.Source)
	require.True(t, cal.Frequency > 0)
	requireMonotonic(t, c)
	requireSleepMeasured(t, c, cal.Frequency)
}

func TestNewPortableCounter(t *testing.T) {
	c := NewPortableCounter()
	cal, err := c.Open()
	require.NoError(t, err)
	defer c.Close()

	require.Equal(t, sys.Calibration{
		Source:     "time.Since",
		Frequency:  1_000_000_000,
		Resolution: time.Nanosecond,
		Mode:       sys.ModeNative,
	}, cal)
	requireMonotonic(t, c)
	requireSleepMeasured(t, c, cal.Frequency)
}

func TestNewCoarseCounter(t *testing.T) {
	tests := []struct {
		resolution        time.Duration
		expectedFrequency uint64
	}{
		{resolution: time.Microsecond, expectedFrequency: 1_000_000},
		{resolution: time.Millisecond, expectedFrequency: 1000},
		{resolution: 10 * time.Millisecond, expectedFrequency: 100},
		{resolution: time.Second, expectedFrequency: 1},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.resolution.String(), func(t *testing.T) {
			c := NewCoarseCounter(tc.resolution)
			cal, err := c.Open()
			require.NoError(t, err)
			defer c.Close()

			require.Equal(t, sys.Calibration{
				Source:     "coarse(" + tc.resolution.String() + ")",
				Frequency:  tc.expectedFrequency,
				Resolution: tc.resolution,
				Mode:       sys.ModeFallback,
			}, cal)
			requireMonotonic(t, c)
		})
	}

	t.Run("quantizes", func(t *testing.T) {
		c := NewCoarseCounter(10 * time.Millisecond)
		_, err := c.Open()
		require.NoError(t, err)

		start := c.Read()
		time.Sleep(50 * time.Millisecond)
		// In CI, sleep(50ms) has been seen to take four times as long.
		ticks := c.Read() - start
		require.True(t, ticks >= 4 && ticks <= 25, "50ms read as %d ticks of 10ms", ticks)
	})

	t.Run("invalid resolution", func(t *testing.T) {
		for _, resolution := range []time.Duration{0, -time.Millisecond, 3 * time.Millisecond, 2 * time.Second} {
			_, err := NewCoarseCounter(resolution).Open()
			require.EqualError(t, err, "invalid coarse resolution "+resolution.String()+": must evenly divide 1s")
		}
	})
}

func TestFakeCounter(t *testing.T) {
	c := NewFakeCounter(1000, 5)
	cal, err := c.Open()
	require.NoError(t, err)
	require.Equal(t, sys.Calibration{Source: "fake", Frequency: 1000, Mode: sys.ModeNative}, cal)

	require.Equal(t, sys.Tick(0), c.Read())
	require.Equal(t, sys.Tick(5), c.Read())
	require.Equal(t, sys.Tick(10), c.Read())

	// Reopening resets the counter.
	_, err = c.Open()
	require.NoError(t, err)
	require.Equal(t, sys.Tick(0), c.Read())

	require.NoError(t, c.Close())
	require.Equal(t, 2, c.Opens())
	require.Equal(t, 1, c.Closes())

	t.Run("open error", func(t *testing.T) {
		c := NewFakeCounter(1000, 1)
		c.OpenErr = errors.New("boom")
		_, err := c.Open()
		require.EqualError(t, err, "boom")
		require.Equal(t, 1, c.Opens())
	})
}

func requireMonotonic(t *testing.T, c sys.Counter) {
	prev := c.Read()
	for i := 0; i < 1000; i++ {
		next := c.Read()
		require.True(t, next >= prev, "counter went backwards: %d then %d", prev, next)
		prev = next
	}
}

// requireSleepMeasured is lenient as we can't control the platform clock. In
// CI, a 50ms sleep has returned after 197ms.
func requireSleepMeasured(t *testing.T, c sys.Counter, frequency uint64) {
	start := c.Read()
	time.Sleep(50 * time.Millisecond)
	elapsed := timebase.New(frequency).Seconds(c.Read() - start)
	require.True(t, elapsed >= 0.04 && elapsed <= 0.25, "sleep(50ms) measured as %fs", elapsed)
}
