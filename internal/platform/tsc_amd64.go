package platform

// rdtsc is implemented in tsc_amd64.s
func rdtsc() uint64

var readTSC = rdtsc
