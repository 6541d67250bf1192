// Package accel provides the request/response accelerator that fronts a
// downstream memory with an associative cache.
//
// Upstream requests are looked up in the cache. A hit is answered from the
// cache on the next cycle with no downstream traffic. A miss is forwarded
// on the downstream request channel and recorded in the outstanding-request
// table; when the matching downstream response returns (in any order), the
// cache is filled and the response is forwarded upstream. All four channel
// endpoints are flow controlled and transfer at most one message per cycle.
package accel

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/sarchlab/cachesim/timing/buffer"
	"github.com/sarchlab/cachesim/timing/cache"
	"github.com/sarchlab/cachesim/timing/tracker"
)

// Config holds the construction-time parameters of an accelerator.
type Config struct {
	// Cache configures the embedded cache core. The accelerator drives
	// read port 0 and fill port 0.
	Cache cache.Config

	// TrackerDepth bounds the number of in-flight downstream requests.
	TrackerDepth int

	// RespBufDepth sizes the internal staging buffer that holds responses
	// while the upstream response channel applies backpressure.
	RespBufDepth int

	// ChannelDepth sizes each of the four external channels.
	ChannelDepth int
}

// Validate checks the orchestration parameters. The cache configuration is
// validated by the cache constructor.
func (c Config) Validate() error {
	if c.TrackerDepth < 1 {
		return fmt.Errorf("tracker depth must be positive, got %d",
			c.TrackerDepth)
	}

	if c.RespBufDepth < 1 {
		return fmt.Errorf("response buffer depth must be positive, got %d",
			c.RespBufDepth)
	}

	if c.ChannelDepth < 1 {
		return fmt.Errorf("channel depth must be positive, got %d",
			c.ChannelDepth)
	}

	return nil
}

// Stats holds accelerator counters.
type Stats struct {
	// Requests is the number of upstream requests accepted.
	Requests uint64
	// Hits and Misses partition Requests.
	Hits   uint64
	Misses uint64
	// Responses is the number of responses delivered upstream.
	Responses uint64
	// StallCycles counts cycles where an upstream request was present but
	// could not be accepted.
	StallCycles uint64
}

// Accelerator routes requests between an upstream requester, the cache, and
// a downstream memory.
type Accelerator struct {
	cache   cache.Cache
	tracker *tracker.Table

	upReq    *buffer.Buffer[Request]
	upResp   *buffer.Buffer[Response]
	downReq  *buffer.Buffer[Request]
	downResp *buffer.Buffer[Response]

	// respBuf stages responses headed upstream so backpressure holds them
	// instead of dropping them.
	respBuf *buffer.Buffer[Response]

	pending     Request
	havePending bool

	stats Stats
	log   *logrus.Entry
}

// New creates an accelerator. Configuration errors are reported before any
// cycle executes.
func New(config Config) (*Accelerator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c, err := cache.New(config.Cache)
	if err != nil {
		return nil, err
	}

	t, err := tracker.New(config.TrackerDepth)
	if err != nil {
		return nil, err
	}

	return &Accelerator{
		cache:    c,
		tracker:  t,
		upReq:    buffer.New[Request](config.ChannelDepth),
		upResp:   buffer.New[Response](config.ChannelDepth),
		downReq:  buffer.New[Request](config.ChannelDepth),
		downResp: buffer.New[Response](config.ChannelDepth),
		respBuf:  buffer.New[Response](config.RespBufDepth),
		log:      logrus.WithField("component", "accel"),
	}, nil
}

// UpstreamReq is the channel the requester pushes requests into.
func (a *Accelerator) UpstreamReq() *buffer.Buffer[Request] {
	return a.upReq
}

// UpstreamResp is the channel the requester pops responses from.
func (a *Accelerator) UpstreamResp() *buffer.Buffer[Response] {
	return a.upResp
}

// DownstreamReq is the channel the memory pops requests from.
func (a *Accelerator) DownstreamReq() *buffer.Buffer[Request] {
	return a.downReq
}

// DownstreamResp is the channel the memory pushes responses into.
func (a *Accelerator) DownstreamResp() *buffer.Buffer[Response] {
	return a.downResp
}

// Cache exposes the embedded cache core.
func (a *Accelerator) Cache() cache.Cache {
	return a.cache
}

// Outstanding returns the number of in-flight downstream requests.
func (a *Accelerator) Outstanding() int {
	return a.tracker.Len()
}

// Stats returns the accelerator counters.
func (a *Accelerator) Stats() Stats {
	return a.stats
}

// Tick advances the accelerator by one clock edge. Stages run from the
// response side toward the request side so every stage observes its
// downstream peer's start-of-cycle state.
func (a *Accelerator) Tick() bool {
	madeProgress := false

	madeProgress = a.deliverResponse() || madeProgress
	madeProgress = a.consumeDownstreamResponse() || madeProgress
	madeProgress = a.acceptUpstreamRequest() || madeProgress

	a.cache.Tick()

	madeProgress = a.resolveAcceptedRequest() || madeProgress

	return madeProgress
}

// deliverResponse moves one staged response to the upstream response
// channel when the channel has room.
func (a *Accelerator) deliverResponse() bool {
	rsp, ok := a.respBuf.Peek()
	if !ok {
		return false
	}

	if !a.upResp.CanPush() {
		return false
	}

	a.respBuf.Pop()
	a.upResp.Push(rsp)
	a.stats.Responses++

	return true
}

// consumeDownstreamResponse completes one downstream response: the matching
// tracker entry supplies the fill address, the cache fill is staged for
// this edge, and the response is staged for upstream delivery. A response
// whose id has no outstanding record is a fatal protocol violation.
func (a *Accelerator) consumeDownstreamResponse() bool {
	rsp, ok := a.downResp.Peek()
	if !ok {
		return false
	}

	if !a.respBuf.CanPush() {
		return false
	}

	a.downResp.Pop()

	entry, err := a.tracker.Remove(rsp.ID)
	if err != nil {
		a.log.Panicf("downstream protocol violation: %v", err)
	}

	a.cache.FillPort(0).Set(entry.Address, rsp.Data)
	a.respBuf.Push(Response{ID: rsp.ID, Data: rsp.Data})

	return true
}

// acceptUpstreamRequest pops one upstream request and stages the cache
// lookup. The request is accepted only when the tracker, the downstream
// request channel, and the staging buffer can all absorb a miss; otherwise
// upstream acceptance stalls for this cycle.
func (a *Accelerator) acceptUpstreamRequest() bool {
	if a.havePending {
		return false
	}

	req, ok := a.upReq.Peek()
	if !ok {
		return false
	}

	if a.tracker.IsFull() || !a.downReq.CanPush() || !a.respBuf.CanPush() {
		a.stats.StallCycles++
		return false
	}

	a.upReq.Pop()
	a.cache.ReadPort(0).Request(req.Address)
	a.pending = req
	a.havePending = true
	a.stats.Requests++

	return true
}

// resolveAcceptedRequest routes the request accepted this cycle using the
// lookup result latched at the edge: hits are staged for upstream delivery
// and misses are forwarded downstream and recorded in the tracker.
func (a *Accelerator) resolveAcceptedRequest() bool {
	if !a.havePending {
		return false
	}
	a.havePending = false

	port := a.cache.ReadPort(0)
	if port.Hit {
		a.stats.Hits++
		a.respBuf.Push(Response{ID: a.pending.ID, Data: port.Data})
		return true
	}

	a.stats.Misses++
	a.downReq.Push(a.pending)
	if err := a.tracker.Add(a.pending.ID, a.pending.Address); err != nil {
		// Acceptance already checked for room; a failure here means the
		// upstream side reused an outstanding id.
		a.log.Panicf("upstream protocol violation: %v", err)
	}

	return true
}

// Reset returns the accelerator and its cache to the post-construction
// state, dropping all queued and in-flight requests.
func (a *Accelerator) Reset() {
	a.cache.Reset()
	a.tracker.Reset()
	a.upReq.Clear()
	a.upResp.Clear()
	a.downReq.Clear()
	a.downResp.Clear()
	a.respBuf.Clear()
	a.havePending = false
	a.stats = Stats{}
}
