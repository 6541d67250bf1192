package traffic_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/timing/accel"
	"github.com/sarchlab/cachesim/timing/cache"
	"github.com/sarchlab/cachesim/timing/memctrl"
	"github.com/sarchlab/cachesim/timing/traffic"
)

func TestTraffic(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Traffic Suite")
}

// system wires an agent, an accelerator, and a memory into one clocked
// stack over a shared address pool.
type system struct {
	agent *traffic.Agent
	accel *accel.Accelerator
	mem   *memctrl.Memory
}

func buildSystem(numRequests int, latency memctrl.LatencyFunc) *system {
	const maxAddress = 64

	a, err := accel.New(accel.Config{
		Cache: cache.Config{
			AddressWidth:   16,
			DataWidth:      64,
			NumEntries:     16,
			NumReadPorts:   1,
			NumFillPorts:   1,
			TrackOccupancy: true,
		},
		TrackerDepth: 8,
		RespBufDepth: 8,
		ChannelDepth: 8,
	})
	Expect(err).ToNot(HaveOccurred())

	mem, err := memctrl.New(memctrl.Config{
		Latency:     5,
		LatencyFunc: latency,
		MaxInflight: 8,
	}, a.DownstreamReq(), a.DownstreamResp())
	Expect(err).ToNot(HaveOccurred())

	for addr := uint64(0); addr < maxAddress; addr++ {
		mem.Write(addr, traffic.Pattern(addr))
	}

	agent, err := traffic.New(traffic.Config{
		NumRequests: numRequests,
		MaxAddress:  maxAddress,
		Seed:        1,
	}, a.UpstreamReq(), a.UpstreamResp())
	Expect(err).ToNot(HaveOccurred())

	return &system{agent: agent, accel: a, mem: mem}
}

// run ticks the stack until the agent is done or the cycle limit is hit.
func (s *system) run(limit int) bool {
	for cycle := 0; cycle < limit; cycle++ {
		s.agent.Tick()
		s.accel.Tick()
		s.mem.Tick()

		if s.agent.Done() {
			return true
		}
	}

	return s.agent.Done()
}

var _ = Describe("Traffic agent", func() {
	It("should complete all requests with correct data", func() {
		s := buildSystem(500, nil)

		Expect(s.run(100000)).To(BeTrue())
		Expect(s.agent.Mismatches()).To(Equal(0))
		Expect(s.agent.Completed()).To(Equal(500))
	})

	It("should observe cache hits once the pool is resident", func() {
		s := buildSystem(500, nil)
		s.run(100000)

		stats := s.accel.Stats()
		Expect(stats.Hits).To(BeNumerically(">", 0))
		Expect(stats.Hits + stats.Misses).To(Equal(stats.Requests))
	})

	It("should survive out-of-order downstream completion", func() {
		latency := func(req accel.Request) int {
			return 1 + int(req.ID%7)
		}
		s := buildSystem(300, latency)

		Expect(s.run(100000)).To(BeTrue())
		Expect(s.agent.Mismatches()).To(Equal(0))
	})

	It("should keep the cache occupancy within capacity", func() {
		s := buildSystem(200, nil)
		for cycle := 0; cycle < 100000 && !s.agent.Done(); cycle++ {
			s.agent.Tick()
			s.accel.Tick()
			s.mem.Tick()

			occ := s.accel.Cache().Occupancy()
			Expect(occ).To(BeNumerically("<=", 16))
			Expect(occ).To(BeNumerically(">=", 0))
		}
		Expect(s.agent.Done()).To(BeTrue())
	})

	It("should reject bad configurations", func() {
		_, err := traffic.New(traffic.Config{
			NumRequests: 0,
			MaxAddress:  16,
		}, nil, nil)
		Expect(err).To(MatchError(ContainSubstring("requests")))

		_, err = traffic.New(traffic.Config{
			NumRequests: 1,
			MaxAddress:  0,
		}, nil, nil)
		Expect(err).To(MatchError(ContainSubstring("address")))
	})
})
