package hrtimer

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tetratelabs/hrtimer/internal/platform"
)

func TestInitialize(t *testing.T) {
	t.Cleanup(Shutdown)

	require.NoError(t, Initialize())
	c := Default()
	require.NotNil(t, c)
	f := TicksPerSecond()
	require.True(t, f > 0)

	// Initialize is idempotent.
	require.NoError(t, Initialize())
	require.Same(t, c, Default())
	require.Equal(t, f, TicksPerSecond())
	require.Equal(t, c.Calibration(), Calibration())

	require.Equal(t, 1.0, TicksToSeconds(TicksPerSecond()))
	for _, d := range []uint64{1, f * secondsPerDay} {
		ms := TicksToMilliseconds(d)
		require.True(t, ms > 0)
		require.InEpsilon(t, TicksToSeconds(d)*1000, ms, 1e-12)
	}

	prev := Current()
	for i := 0; i < 100; i++ {
		next := Current()
		require.True(t, next >= prev)
		prev = next
	}

	t0 := Current()
	require.True(t, ElapsedTicks(t0) < f)

	// In CI, sleep(50ms) has been seen to return after 197ms.
	t0 = Current()
	time.Sleep(50 * time.Millisecond)
	elapsed := Elapsed(t0)
	require.True(t, elapsed >= 0.04 && elapsed <= 0.20, "sleep(50ms) measured as %fs", elapsed)
}

func TestInitializeWithConfig(t *testing.T) {
	t.Cleanup(Shutdown)

	counter := platform.NewFakeCounter(1000, 1)
	require.NoError(t, InitializeWithConfig(NewClockConfig().WithCounter(counter)))
	require.Equal(t, uint64(1000), TicksPerSecond())

	// A differing config doesn't replace the clock until Shutdown.
	require.NoError(t, InitializeWithConfig(NewClockConfig().WithSource(SourcePortable)))
	require.Equal(t, uint64(1000), TicksPerSecond())
	require.Equal(t, 1, counter.Opens())

	Shutdown()
	require.Nil(t, Default())
	require.Equal(t, 1, counter.Closes())

	require.NoError(t, InitializeWithConfig(NewClockConfig().WithSource(SourcePortable)))
	require.Equal(t, uint64(1_000_000_000), TicksPerSecond())
}

func TestInitializeWithConfig_error(t *testing.T) {
	t.Cleanup(Shutdown)

	counter := platform.NewFakeCounter(0, 1)
	err := InitializeWithConfig(NewClockConfig().WithCounter(counter))
	require.ErrorIs(t, err, ErrInvalidFrequency)
	require.Nil(t, Default())

	// Shutdown after a failed Initialize is a no-op.
	Shutdown()
	require.Equal(t, 1, counter.Closes())

	// Nothing was installed, so a later Initialize is attempted again.
	counter.OpenErr = errors.New("boom")
	require.EqualError(t, InitializeWithConfig(NewClockConfig().WithCounter(counter)),
		"hrtimer: custom counter failed to initialize: boom")
	require.Equal(t, 2, counter.Opens())
}

func TestShutdown(t *testing.T) {
	// Shutdown without Initialize is a no-op.
	Shutdown()
	Shutdown()
	require.Nil(t, Default())

	require.NoError(t, Initialize())
	Shutdown()
	Shutdown()
	require.Nil(t, Default())
}

func TestSystem(t *testing.T) {
	t.Cleanup(Shutdown)

	// Loose as the only thing that could flake this is a time adjustment
	// during the test.
	requireNow := func(system uint64) {
		now := uint64(time.Now().UnixMilli())
		require.True(t, system+2000 >= now && system <= now+2000, "system %d, now %d", system, now)
	}

	requireNow(System()) // works without Initialize

	require.NoError(t, Initialize())
	requireNow(System())

	Shutdown()
	require.NoError(t, InitializeWithConfig(NewClockConfig().WithWalltime(platform.FakeWalltime)))
	require.Equal(t, uint64(1640995200000), System())
}

func TestCurrent_beforeInitialize(t *testing.T) {
	Shutdown()
	require.Panics(t, func() { _ = Current() })
}
