// Package memctrl provides a bounded-latency memory model for the
// downstream side of the accelerator. It is the external collaborator the
// cache subsystem is tested and demonstrated against, not part of the cache
// itself.
package memctrl

import (
	"fmt"

	"github.com/sarchlab/cachesim/timing/accel"
	"github.com/sarchlab/cachesim/timing/buffer"
)

// LatencyFunc returns the service latency in cycles for one request.
// Returning different latencies per request makes responses complete out of
// order relative to request order.
type LatencyFunc func(req accel.Request) int

// Config holds the construction-time parameters of a memory.
type Config struct {
	// Latency is the fixed service latency in cycles. Must be at least 1
	// so a response is never visible on the cycle its request transfers.
	Latency int

	// LatencyFunc, when set, overrides Latency per request.
	LatencyFunc LatencyFunc

	// MaxInflight bounds concurrently serviced requests. Requests beyond
	// the bound wait in the request channel (ready deasserted).
	MaxInflight int
}

// Validate checks the memory parameters.
func (c Config) Validate() error {
	if c.Latency < 1 {
		return fmt.Errorf("memory latency must be at least 1 cycle, got %d",
			c.Latency)
	}

	if c.MaxInflight < 1 {
		return fmt.Errorf("max inflight must be positive, got %d",
			c.MaxInflight)
	}

	return nil
}

type access struct {
	readyAt uint64
	rsp     accel.Response
}

// Memory services requests from a request channel and pushes responses into
// a response channel after the configured latency. Contents live in a
// sparse word map so tests can preload arbitrary addresses.
type Memory struct {
	config Config

	reqIn   *buffer.Buffer[accel.Request]
	rspOut  *buffer.Buffer[accel.Response]
	words   map[uint64]uint64
	pending []access

	now uint64
}

// New creates a memory attached to the given downstream channel pair.
func New(
	config Config,
	reqIn *buffer.Buffer[accel.Request],
	rspOut *buffer.Buffer[accel.Response],
) (*Memory, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &Memory{
		config: config,
		reqIn:  reqIn,
		rspOut: rspOut,
		words:  make(map[uint64]uint64),
	}, nil
}

// Write stores a word. Intended for preloading contents before simulation.
func (m *Memory) Write(addr, data uint64) {
	m.words[addr] = data
}

// Read returns the stored word, zero for untouched addresses.
func (m *Memory) Read(addr uint64) uint64 {
	return m.words[addr]
}

// Inflight returns the number of requests currently being serviced.
func (m *Memory) Inflight() int {
	return len(m.pending)
}

// Tick advances the memory by one clock edge: it completes at most one due
// request and accepts at most one new request.
func (m *Memory) Tick() bool {
	m.now++
	madeProgress := false

	madeProgress = m.completeOne() || madeProgress
	madeProgress = m.acceptOne() || madeProgress

	return madeProgress
}

// completeOne pushes the response of the first due access, holding it when
// the response channel is full.
func (m *Memory) completeOne() bool {
	if !m.rspOut.CanPush() {
		return false
	}

	for i, p := range m.pending {
		if p.readyAt > m.now {
			continue
		}

		m.pending = append(m.pending[:i], m.pending[i+1:]...)
		m.rspOut.Push(p.rsp)

		return true
	}

	return false
}

// acceptOne starts servicing the next queued request if a service slot is
// free.
func (m *Memory) acceptOne() bool {
	if len(m.pending) >= m.config.MaxInflight {
		return false
	}

	req, ok := m.reqIn.Peek()
	if !ok {
		return false
	}
	m.reqIn.Pop()

	latency := m.config.Latency
	if m.config.LatencyFunc != nil {
		latency = m.config.LatencyFunc(req)
		if latency < 1 {
			latency = 1
		}
	}

	m.pending = append(m.pending, access{
		readyAt: m.now + uint64(latency),
		rsp:     accel.Response{ID: req.ID, Data: m.words[req.Address]},
	})

	return true
}
