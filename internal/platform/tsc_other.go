//go:build !amd64

package platform

// readTSC is nil as only amd64 has RDTSC wired.
var readTSC func() uint64
