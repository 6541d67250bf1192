// Package benchmarks provides workload infrastructure for validating the
// cache model against known-good hit rates.
package benchmarks

import (
	"fmt"
	"io"
	"os"

	"github.com/sarchlab/cachesim/timing/accel"
	"github.com/sarchlab/cachesim/timing/cache"
	"github.com/sarchlab/cachesim/timing/memctrl"
	"github.com/sarchlab/cachesim/timing/traffic"
)

// Workload is a named address trace to replay against the cache.
type Workload struct {
	// Name identifies the workload
	Name string

	// Description explains what the workload exercises
	Description string

	// Trace is the exact sequence of addresses to request, in order
	Trace []uint64
}

// Result holds the measurements for a single workload run.
type Result struct {
	Name string

	// Cycles is the total cycle count until the trace drained
	Cycles int

	// Requests is the number of requests issued
	Requests int

	// Hits and Misses partition Requests
	Hits   int
	Misses int

	// HitRate is Hits / Requests
	HitRate float64

	// StallCycles counts cycles the cache refused an available request
	StallCycles int

	// Mismatches counts responses carrying wrong data. Always zero for a
	// correct model.
	Mismatches int
}

// Config controls how the harness builds the simulated system.
type Config struct {
	// Accel configures the cache and its request plumbing.
	Accel accel.Config

	// MemoryLatency is the fixed downstream latency in cycles.
	MemoryLatency int

	// MaxCycles aborts a run that does not drain in time.
	MaxCycles int

	// Output receives progress lines. Defaults to os.Stdout.
	Output io.Writer
}

func defaultCacheConfig() cache.Config {
	return cache.Config{
		Organization: cache.FullyAssociative,
		AddressWidth: 16,
		DataWidth:    32,
		NumEntries:   16,
		NumReadPorts: 1,
		NumFillPorts: 1,
		Policy:       cache.PolicyRoundRobin,

		TrackOccupancy: true,
	}
}

// DefaultConfig returns a harness configuration with a small
// fully-associative cache and a 20-cycle memory.
func DefaultConfig() Config {
	return Config{
		Accel: accel.Config{
			Cache: defaultCacheConfig(),

			TrackerDepth: 4,
			RespBufDepth: 8,
			ChannelDepth: 8,
		},
		MemoryLatency: 20,
		MaxCycles:     1_000_000,
	}
}

// Harness replays workload traces through a freshly built system per run.
type Harness struct {
	config    Config
	workloads []Workload
}

// NewHarness creates a harness with the given configuration.
func NewHarness(config Config) *Harness {
	if config.Output == nil {
		config.Output = os.Stdout
	}
	return &Harness{config: config}
}

// AddWorkloads appends workloads to the run list.
func (h *Harness) AddWorkloads(workloads []Workload) {
	h.workloads = append(h.workloads, workloads...)
}

// RunAll runs every registered workload and returns one result each.
func (h *Harness) RunAll() []Result {
	results := make([]Result, 0, len(h.workloads))
	for _, w := range h.workloads {
		result, err := h.Run(w)
		if err != nil {
			fmt.Fprintf(h.config.Output, "%s: FAILED: %v\n", w.Name, err)
			continue
		}
		results = append(results, result)
	}
	return results
}

// Run replays a single workload and measures it.
func (h *Harness) Run(w Workload) (Result, error) {
	a, err := accel.New(h.config.Accel)
	if err != nil {
		return Result{}, err
	}

	mem, err := memctrl.New(memctrl.Config{
		Latency:     h.config.MemoryLatency,
		MaxInflight: h.config.Accel.TrackerDepth,
	}, a.DownstreamReq(), a.DownstreamResp())
	if err != nil {
		return Result{}, err
	}

	mask := dataMask(h.config.Accel.Cache.DataWidth)
	for _, addr := range w.Trace {
		mem.Write(addr, traffic.Pattern(addr)&mask)
	}

	next := 0
	completed := 0
	mismatches := 0
	cycle := 0
	for ; cycle < h.config.MaxCycles && completed < len(w.Trace); cycle++ {
		if rsp, ok := a.UpstreamResp().Peek(); ok {
			a.UpstreamResp().Pop()
			if rsp.Data != traffic.Pattern(w.Trace[rsp.ID])&mask {
				mismatches++
			}
			completed++
		}

		if next < len(w.Trace) && a.UpstreamReq().CanPush() {
			a.UpstreamReq().Push(accel.Request{
				ID:      uint64(next),
				Address: w.Trace[next],
			})
			next++
		}

		a.Tick()
		mem.Tick()
	}

	if completed < len(w.Trace) {
		return Result{}, fmt.Errorf(
			"workload %s did not drain in %d cycles (%d/%d responses)",
			w.Name, h.config.MaxCycles, completed, len(w.Trace))
	}

	stats := a.Stats()
	result := Result{
		Name:        w.Name,
		Cycles:      cycle,
		Requests:    int(stats.Requests),
		Hits:        int(stats.Hits),
		Misses:      int(stats.Misses),
		StallCycles: int(stats.StallCycles),
		Mismatches:  mismatches,
	}
	if result.Requests > 0 {
		result.HitRate = float64(result.Hits) / float64(result.Requests)
	}

	fmt.Fprintf(h.config.Output, "%s: %d cycles, hit rate %.3f\n",
		result.Name, result.Cycles, result.HitRate)

	return result, nil
}

func dataMask(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << width) - 1
}
