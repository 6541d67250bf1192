// Package sysconfig loads the hardware-side configuration of a simulated
// system: cache geometry, orchestration depths, and memory latency.
package sysconfig

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarchlab/cachesim/timing/accel"
	"github.com/sarchlab/cachesim/timing/cache"
	"github.com/sarchlab/cachesim/timing/memctrl"
)

// SystemConfig holds every construction-time knob of the simulated system.
type SystemConfig struct {
	// Organization is one of "fully-associative", "direct-mapped", or
	// "set-associative".
	Organization string `json:"organization"`

	// Policy is one of "round-robin" or "lru".
	Policy string `json:"policy"`

	// AddressWidth and DataWidth are bit widths, 1 to 64.
	AddressWidth int `json:"address_width"`
	DataWidth    int `json:"data_width"`

	// NumEntries is the total slot count; NumWays is the set-associative
	// way count and must be zero otherwise.
	NumEntries int `json:"num_entries"`
	NumWays    int `json:"num_ways"`

	// TrackerDepth, RespBufDepth, and ChannelDepth size the accelerator's
	// outstanding-request table, response staging buffer, and channels.
	TrackerDepth int `json:"tracker_depth"`
	RespBufDepth int `json:"resp_buf_depth"`
	ChannelDepth int `json:"channel_depth"`

	// MemoryLatency and MemoryMaxInflight configure the downstream memory.
	MemoryLatency     int `json:"memory_latency"`
	MemoryMaxInflight int `json:"memory_max_inflight"`
}

// Default returns a small fully-associative system.
func Default() *SystemConfig {
	return &SystemConfig{
		Organization:      "fully-associative",
		Policy:            "round-robin",
		AddressWidth:      16,
		DataWidth:         64,
		NumEntries:        16,
		TrackerDepth:      8,
		RespBufDepth:      8,
		ChannelDepth:      8,
		MemoryLatency:     20,
		MemoryMaxInflight: 8,
	}
}

// Load reads a SystemConfig from a JSON file. Missing fields keep their
// default values.
func Load(path string) (*SystemConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read system config file: %w", err)
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse system config file: %w", err)
	}

	return config, nil
}

// CacheConfig translates the cache-side fields.
func (c *SystemConfig) CacheConfig() (cache.Config, error) {
	cfg := cache.Config{
		AddressWidth:           c.AddressWidth,
		DataWidth:              c.DataWidth,
		NumEntries:             c.NumEntries,
		NumWays:                c.NumWays,
		NumReadPorts:           1,
		NumFillPorts:           1,
		SupportInvalidateOnHit: true,
		TrackOccupancy:         true,
	}

	switch c.Organization {
	case "fully-associative":
		cfg.Organization = cache.FullyAssociative
	case "direct-mapped":
		cfg.Organization = cache.DirectMapped
	case "set-associative":
		cfg.Organization = cache.SetAssociative
	default:
		return cache.Config{}, fmt.Errorf(
			"unknown organization %q", c.Organization)
	}

	switch c.Policy {
	case "round-robin":
		cfg.Policy = cache.PolicyRoundRobin
	case "lru":
		cfg.Policy = cache.PolicyLRU
	default:
		return cache.Config{}, fmt.Errorf("unknown policy %q", c.Policy)
	}

	return cfg, nil
}

// AccelConfig translates the orchestration fields.
func (c *SystemConfig) AccelConfig() (accel.Config, error) {
	cacheConfig, err := c.CacheConfig()
	if err != nil {
		return accel.Config{}, err
	}

	return accel.Config{
		Cache:        cacheConfig,
		TrackerDepth: c.TrackerDepth,
		RespBufDepth: c.RespBufDepth,
		ChannelDepth: c.ChannelDepth,
	}, nil
}

// MemConfig translates the memory fields.
func (c *SystemConfig) MemConfig() memctrl.Config {
	return memctrl.Config{
		Latency:     c.MemoryLatency,
		MaxInflight: c.MemoryMaxInflight,
	}
}
