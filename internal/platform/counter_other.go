//go:build !linux && !darwin && !windows

package platform

import (
	"time"

	"github.com/tetratelabs/hrtimer/sys"
)

// NewNativeCounter returns a sys.ModeFallback counter with microsecond
// resolution, as this runtime.GOOS has no high-resolution counter wired here.
func NewNativeCounter() sys.Counter {
	return NewCoarseCounter(time.Microsecond)
}
