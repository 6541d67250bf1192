package benchmarks

// SequentialStream touches n distinct addresses once each. Every access is
// a cold miss regardless of organization.
func SequentialStream(n int) Workload {
	trace := make([]uint64, n)
	for i := range trace {
		trace[i] = uint64(i)
	}
	return Workload{
		Name:        "sequential_stream",
		Description: "one pass over distinct addresses, all cold misses",
		Trace:       trace,
	}
}

// HotLoop repeats a working set that fits in the cache. After the cold
// pass every access hits.
func HotLoop(workingSet, passes int) Workload {
	trace := make([]uint64, 0, workingSet*passes)
	for p := 0; p < passes; p++ {
		for i := 0; i < workingSet; i++ {
			trace = append(trace, uint64(i))
		}
	}
	return Workload{
		Name:        "hot_loop",
		Description: "repeated working set smaller than the cache",
		Trace:       trace,
	}
}

// Streaming repeats a working set larger than the cache. With round-robin
// replacement every slot is recycled before its address returns, so every
// access misses.
func Streaming(distinct, passes int) Workload {
	trace := make([]uint64, 0, distinct*passes)
	for p := 0; p < passes; p++ {
		for i := 0; i < distinct; i++ {
			trace = append(trace, uint64(i))
		}
	}
	return Workload{
		Name:        "streaming",
		Description: "repeated working set larger than the cache",
		Trace:       trace,
	}
}

// PingPong alternates between two addresses n times. The two addresses
// conflict in a direct-mapped cache when they are numEntries apart, while
// any cache with at least two ways holds both.
func PingPong(a, b uint64, n int) Workload {
	trace := make([]uint64, n)
	for i := range trace {
		if i%2 == 0 {
			trace[i] = a
		} else {
			trace[i] = b
		}
	}
	return Workload{
		Name:        "ping_pong",
		Description: "two alternating addresses",
		Trace:       trace,
	}
}

// GetWorkloads returns the standard validation workloads sized for the
// default 16-entry cache.
func GetWorkloads() []Workload {
	return []Workload{
		SequentialStream(64),
		HotLoop(8, 50),
		Streaming(64, 4),
		PingPong(0x10, 0x20, 200),
	}
}
