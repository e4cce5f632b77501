// Package hammer stresses code from many goroutines at once, so that `go test
// -race` observes real contention.
package hammer

import (
	"runtime"
	"sync"
	"testing"
)

// Run invokes test in P goroutines, N times per goroutine. All goroutines are
// released at the same time.
//
// Here's an example:
//
//	P := 8               // max count of goroutines
//	N := 1000            // work per goroutine
//	if testing.Short() { // Adjust down if `-test.short`
//		P = 4
//		N = 100
//	}
//
//	hammer.Run(t, P, N, func(p, n int) {
//		require.True(t, clock.Current() > 0)
//	})
//	if t.Failed() {
//		return // At least one test failed, so return now.
//	}
func Run(t testing.TB, P, N int, test func(p, n int)) {
	defer runtime.GOMAXPROCS(runtime.GOMAXPROCS(P / 2)) // Ensure goroutines have to switch cores.

	start := make(chan struct{})
	var ready, done sync.WaitGroup
	ready.Add(P)
	done.Add(P)
	for p := 0; p < P; p++ {
		go func(p int) {
			// require.XX calls runtime.Goexit on failure, so Done must be deferred.
			defer done.Done()
			defer func() {
				if recovered := recover(); recovered != nil {
					t.Error(recovered)
				}
			}()

			ready.Done()
			<-start
			for n := 0; n < N; n++ {
				test(p, n)
			}
		}(p)
	}

	ready.Wait()
	close(start)
	done.Wait()
}
