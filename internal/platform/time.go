package platform

import "time"

const FakeEpochNanos = int64(1640995200000000000) // midnight UTC 2022-01-01

// FakeWalltime implements sys.Walltime with FakeEpochNanos.
func FakeWalltime() (sec int64, nsec int32) {
	return FakeEpochNanos / 1e9, int32(FakeEpochNanos % 1e9)
}

// Walltime implements sys.Walltime with time.Now.
//
// Note: time.Now also reads the monotonic clock, which doubles the cost
// compared to runtime.walltime. Epoch time is read far less often than the
// counter, so this is not worth a linkname.
func Walltime() (sec int64, nsec int32) {
	t := time.Now()
	return t.Unix(), int32(t.Nanosecond())
}
