package hammer

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun(t *testing.T) {
	var calls int64
	var seen [4][10]int32
	Run(t, 4, 10, func(p, n int) {
		atomic.AddInt64(&calls, 1)
		atomic.AddInt32(&seen[p][n], 1)
	})

	require.Equal(t, int64(40), calls)
	for p := range seen {
		for n := range seen[p] {
			require.Equal(t, int32(1), seen[p][n], "p=%d n=%d", p, n)
		}
	}
}
