// Package traffic provides a request generator for exercising the
// accelerator against a downstream memory. The agent issues reads from a
// bounded address pool, remembers what every request must return, and
// verifies each response, so a full-system run checks data correctness and
// not just progress.
package traffic

import (
	"fmt"
	"math/rand"

	"github.com/sarchlab/cachesim/timing/accel"
	"github.com/sarchlab/cachesim/timing/buffer"
)

// Contents maps an address to the word the downstream memory holds there.
// The agent and the memory must be primed with the same function.
type Contents func(addr uint64) uint64

// Pattern is a default memory content function with distinct values for
// neighboring addresses.
func Pattern(addr uint64) uint64 {
	return addr*2654435761 + 0x9E37
}

// Config holds the construction-time parameters of an agent.
type Config struct {
	// NumRequests is the total number of requests to issue.
	NumRequests int

	// MaxAddress bounds generated addresses to [0, MaxAddress). A small
	// bound relative to NumRequests forces address reuse and cache hits.
	MaxAddress uint64

	// Seed makes the generated sequence reproducible.
	Seed int64

	// Contents supplies the expected data per address. Defaults to Pattern.
	Contents Contents
}

// Validate checks the agent parameters.
func (c Config) Validate() error {
	if c.NumRequests < 1 {
		return fmt.Errorf("number of requests must be positive, got %d",
			c.NumRequests)
	}

	if c.MaxAddress < 1 {
		return fmt.Errorf("max address must be positive, got %d",
			c.MaxAddress)
	}

	return nil
}

// Agent drives the accelerator's upstream channels.
type Agent struct {
	config   Config
	contents Contents
	rand     *rand.Rand

	reqOut *buffer.Buffer[accel.Request]
	rspIn  *buffer.Buffer[accel.Response]

	expected   map[uint64]uint64
	nextID     uint64
	issued     int
	completed  int
	mismatches int
}

// New creates an agent attached to the given upstream channel pair.
func New(
	config Config,
	reqOut *buffer.Buffer[accel.Request],
	rspIn *buffer.Buffer[accel.Response],
) (*Agent, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	contents := config.Contents
	if contents == nil {
		contents = Pattern
	}

	return &Agent{
		config:   config,
		contents: contents,
		rand:     rand.New(rand.NewSource(config.Seed)),
		reqOut:   reqOut,
		rspIn:    rspIn,
		expected: make(map[uint64]uint64),
	}, nil
}

// Tick consumes at most one response and issues at most one request.
func (a *Agent) Tick() bool {
	madeProgress := false

	madeProgress = a.checkResponse() || madeProgress
	madeProgress = a.issueRequest() || madeProgress

	return madeProgress
}

func (a *Agent) checkResponse() bool {
	rsp, ok := a.rspIn.Peek()
	if !ok {
		return false
	}
	a.rspIn.Pop()

	want, ok := a.expected[rsp.ID]
	if !ok || want != rsp.Data {
		a.mismatches++
	}
	delete(a.expected, rsp.ID)
	a.completed++

	return true
}

func (a *Agent) issueRequest() bool {
	if a.issued >= a.config.NumRequests {
		return false
	}

	if !a.reqOut.CanPush() {
		return false
	}

	addr := uint64(a.rand.Int63n(int64(a.config.MaxAddress)))
	id := a.nextID
	a.nextID++

	a.expected[id] = a.contents(addr)
	a.reqOut.Push(accel.Request{ID: id, Address: addr})
	a.issued++

	return true
}

// Done reports whether every issued request has completed.
func (a *Agent) Done() bool {
	return a.completed == a.config.NumRequests
}

// Issued returns the number of requests sent so far.
func (a *Agent) Issued() int {
	return a.issued
}

// Completed returns the number of responses received so far.
func (a *Agent) Completed() int {
	return a.completed
}

// Mismatches returns the number of responses carrying wrong data or an
// unexpected id.
func (a *Agent) Mismatches() int {
	return a.mismatches
}
