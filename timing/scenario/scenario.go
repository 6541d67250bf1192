// Package scenario loads the workload side of a simulation: how much
// traffic to generate and how the downstream memory behaves while serving
// it.
package scenario

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sarchlab/cachesim/timing/accel"
	"github.com/sarchlab/cachesim/timing/memctrl"
)

// Scenario is the top-level traffic configuration, loaded from YAML.
type Scenario struct {
	// Seed makes the generated request sequence reproducible.
	Seed int64 `yaml:"seed"`

	// NumRequests is the total number of upstream requests to issue.
	NumRequests int `yaml:"num_requests"`

	// MaxAddress bounds generated addresses to [0, MaxAddress).
	MaxAddress uint64 `yaml:"max_address"`

	// OutOfOrder gives each downstream request a latency that depends on
	// its id, so responses complete out of request order.
	OutOfOrder bool `yaml:"out_of_order"`

	// LatencySpread is the maximum extra latency in cycles applied when
	// OutOfOrder is set.
	LatencySpread int `yaml:"latency_spread"`

	// MaxCycles aborts the run when the workload has not drained in time.
	MaxCycles int `yaml:"max_cycles"`
}

// Default returns a short mixed workload.
func Default() *Scenario {
	return &Scenario{
		Seed:          1,
		NumRequests:   1000,
		MaxAddress:    256,
		LatencySpread: 8,
		MaxCycles:     1_000_000,
	}
}

// Load reads a Scenario from a YAML file. Missing fields keep their
// default values.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	s := Default()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario file: %w", err)
	}

	return s, nil
}

// Validate checks the workload parameters.
func (s *Scenario) Validate() error {
	if s.NumRequests < 1 {
		return fmt.Errorf("number of requests must be positive, got %d",
			s.NumRequests)
	}

	if s.MaxAddress < 1 {
		return fmt.Errorf("max address must be positive, got %d",
			s.MaxAddress)
	}

	if s.OutOfOrder && s.LatencySpread < 1 {
		return fmt.Errorf(
			"latency spread must be positive for out-of-order completion")
	}

	if s.MaxCycles < 1 {
		return fmt.Errorf("max cycles must be positive, got %d", s.MaxCycles)
	}

	return nil
}

// LatencyFunc returns the per-request latency function for the downstream
// memory, or nil when completion order should follow request order.
func (s *Scenario) LatencyFunc(baseLatency int) memctrl.LatencyFunc {
	if !s.OutOfOrder {
		return nil
	}

	spread := uint64(s.LatencySpread)
	return func(req accel.Request) int {
		return baseLatency + int(req.ID%spread)
	}
}
