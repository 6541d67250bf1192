// Package main provides the CacheSim command line interface. It assembles
// a traffic agent, the cache accelerator, and a bounded-latency memory, and
// runs the stack cycle by cycle until the workload drains.
package main

import (
	"flag"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/cachesim/timing/accel"
	"github.com/sarchlab/cachesim/timing/memctrl"
	"github.com/sarchlab/cachesim/timing/scenario"
	"github.com/sarchlab/cachesim/timing/sysconfig"
	"github.com/sarchlab/cachesim/timing/traffic"
)

var (
	configPath   = flag.String("config", "", "Path to system configuration JSON file")
	scenarioPath = flag.String("scenario", "", "Path to traffic scenario YAML file")
	maxCycles    = flag.Int("cycles", 0, "Override the scenario cycle limit")
	verbose      = flag.Bool("v", false, "Verbose output")
)

func main() {
	flag.Parse()

	if *verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	system := sysconfig.Default()
	if *configPath != "" {
		var err error
		system, err = sysconfig.Load(*configPath)
		if err != nil {
			logrus.Fatalf("error loading system config: %v", err)
		}
	}

	workload := scenario.Default()
	if *scenarioPath != "" {
		var err error
		workload, err = scenario.Load(*scenarioPath)
		if err != nil {
			logrus.Fatalf("error loading scenario: %v", err)
		}
	}
	if *maxCycles > 0 {
		workload.MaxCycles = *maxCycles
	}
	if err := workload.Validate(); err != nil {
		logrus.Fatalf("invalid scenario: %v", err)
	}

	os.Exit(run(system, workload))
}

// run simulates the configured system and returns the process exit code.
func run(system *sysconfig.SystemConfig, workload *scenario.Scenario) int {
	accelConfig, err := system.AccelConfig()
	if err != nil {
		logrus.Fatalf("invalid system config: %v", err)
	}

	a, err := accel.New(accelConfig)
	if err != nil {
		logrus.Fatalf("error building accelerator: %v", err)
	}

	memConfig := system.MemConfig()
	memConfig.LatencyFunc = workload.LatencyFunc(memConfig.Latency)
	mem, err := memctrl.New(memConfig, a.DownstreamReq(), a.DownstreamResp())
	if err != nil {
		logrus.Fatalf("error building memory: %v", err)
	}

	// The memory and the checker must agree on contents, truncated the way
	// the cache stores them.
	contents := func(addr uint64) uint64 {
		return traffic.Pattern(addr) & dataMask(system.DataWidth)
	}
	for addr := uint64(0); addr < workload.MaxAddress; addr++ {
		mem.Write(addr, contents(addr))
	}

	agent, err := traffic.New(traffic.Config{
		NumRequests: workload.NumRequests,
		MaxAddress:  workload.MaxAddress,
		Seed:        workload.Seed,
		Contents:    contents,
	}, a.UpstreamReq(), a.UpstreamResp())
	if err != nil {
		logrus.Fatalf("error building traffic agent: %v", err)
	}

	logrus.Infof("simulating %d requests over a %s cache with %d entries",
		workload.NumRequests, system.Organization, system.NumEntries)

	cycle := 0
	for ; cycle < workload.MaxCycles && !agent.Done(); cycle++ {
		agent.Tick()
		a.Tick()
		mem.Tick()

		if *verbose && cycle%10000 == 0 {
			logrus.Debugf("cycle %d: %d/%d responses, %d outstanding",
				cycle, agent.Completed(), agent.Issued(), a.Outstanding())
		}
	}

	if !agent.Done() {
		logrus.Errorf("workload did not drain within %d cycles (%d/%d)",
			workload.MaxCycles, agent.Completed(), workload.NumRequests)
		return 1
	}

	stats := a.Stats()
	logrus.Infof("finished in %d cycles", cycle)
	logrus.Infof("requests: %d, hits: %d, misses: %d, stall cycles: %d",
		stats.Requests, stats.Hits, stats.Misses, stats.StallCycles)
	logrus.Infof("hit rate: %.2f%%",
		100*float64(stats.Hits)/float64(stats.Requests))

	if agent.Mismatches() > 0 {
		logrus.Errorf("%d responses carried wrong data", agent.Mismatches())
		return 1
	}

	return 0
}

// dataMask truncates a value to width bits.
func dataMask(width int) uint64 {
	if width >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << width) - 1
}
