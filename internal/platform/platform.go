// Package platform includes the raw counter sources and epoch clock needed by
// hrtimer, selected per runtime.GOOS and runtime.GOARCH.
//
// Note: Counters here only read and report frequency. Conversion to real time
// units lives in the timebase package so it is written once.
package platform

import "errors"

// ErrUnsupported is returned by sys.Counter.Open when the counter does not
// exist on this runtime.GOOS or runtime.GOARCH.
var ErrUnsupported = errors.New("counter unsupported on this platform")

const nanosPerSecond = uint64(1_000_000_000)
