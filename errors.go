package hrtimer

import (
	"errors"
	"fmt"

	"github.com/tetratelabs/hrtimer/internal/platform"
)

// ErrInvalidFrequency is wrapped by an InitError when a counter opened, but
// reported zero ticks per second.
var ErrInvalidFrequency = errors.New("counter reported zero frequency")

// ErrUnsupported is wrapped by an InitError when the configured Source does
// not exist on this runtime.GOOS or runtime.GOARCH, ex. SourceTSC on arm64.
var ErrUnsupported = platform.ErrUnsupported

// InitError is returned by NewClock and Initialize when a counter could not
// be opened or calibrated. The Clock is unusable and no frequency was
// installed.
//
// Use errors.Is to check the cause, ex. errors.Is(err, ErrInvalidFrequency).
type InitError struct {
	source string
	err    error
}

// Source returns the name of the counter that failed, ex. "tsc".
func (e *InitError) Source() string {
	return e.source
}

// Error implements the error interface.
func (e *InitError) Error() string {
	return fmt.Sprintf("hrtimer: %s counter failed to initialize: %v", e.source, e.err)
}

// Unwrap returns the cause.
func (e *InitError) Unwrap() error {
	return e.err
}

// Is allows use via errors.Is
func (e *InitError) Is(err error) bool {
	if target, ok := err.(*InitError); ok {
		return e.source == target.source && errors.Is(e.err, target.err)
	}
	return false
}
