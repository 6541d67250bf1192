package accel_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cachesim/timing/accel"
	"github.com/sarchlab/cachesim/timing/cache"
)

func TestAccel(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Accelerator Suite")
}

func defaultConfig() accel.Config {
	return accel.Config{
		Cache: cache.Config{
			AddressWidth:   16,
			DataWidth:      32,
			NumEntries:     4,
			NumReadPorts:   1,
			NumFillPorts:   1,
			TrackOccupancy: true,
		},
		TrackerDepth: 4,
		RespBufDepth: 4,
		ChannelDepth: 4,
	}
}

// tickUntil runs a for at most limit cycles, stopping when cond holds.
func tickUntil(a *accel.Accelerator, limit int, cond func() bool) bool {
	for i := 0; i < limit; i++ {
		if cond() {
			return true
		}
		a.Tick()
	}
	return cond()
}

var _ = Describe("Accelerator", func() {
	var a *accel.Accelerator

	BeforeEach(func() {
		var err error
		a, err = accel.New(defaultConfig())
		Expect(err).ToNot(HaveOccurred())
	})

	It("should forward a miss downstream exactly once, fill, and respond",
		func() {
			a.UpstreamReq().Push(accel.Request{ID: 5, Address: 0x42})

			ok := tickUntil(a, 10, func() bool {
				return a.DownstreamReq().Size() > 0
			})
			Expect(ok).To(BeTrue())
			Expect(a.DownstreamReq().Size()).To(Equal(1))

			req := a.DownstreamReq().Pop()
			Expect(req).To(Equal(accel.Request{ID: 5, Address: 0x42}))
			Expect(a.Outstanding()).To(Equal(1))

			a.DownstreamResp().Push(accel.Response{ID: 5, Data: 0xDEADBEEF})

			ok = tickUntil(a, 10, func() bool {
				return a.UpstreamResp().Size() > 0
			})
			Expect(ok).To(BeTrue())
			Expect(a.UpstreamResp().Pop()).To(Equal(
				accel.Response{ID: 5, Data: 0xDEADBEEF}))
			Expect(a.Outstanding()).To(Equal(0))

			// The same address now hits without new downstream traffic.
			a.UpstreamReq().Push(accel.Request{ID: 6, Address: 0x42})

			ok = tickUntil(a, 10, func() bool {
				return a.UpstreamResp().Size() > 0
			})
			Expect(ok).To(BeTrue())
			Expect(a.UpstreamResp().Pop()).To(Equal(
				accel.Response{ID: 6, Data: 0xDEADBEEF}))
			Expect(a.DownstreamReq().Size()).To(Equal(0))

			stats := a.Stats()
			Expect(stats.Requests).To(Equal(uint64(2)))
			Expect(stats.Misses).To(Equal(uint64(1)))
			Expect(stats.Hits).To(Equal(uint64(1)))
		})

	It("should route out-of-order completions to the right requesters",
		func() {
			addrs := map[uint64]uint64{3: 0x30, 4: 0x40, 5: 0x50}
			for id := uint64(3); id <= 5; id++ {
				a.UpstreamReq().Push(accel.Request{ID: id, Address: addrs[id]})
			}

			ok := tickUntil(a, 20, func() bool {
				return a.DownstreamReq().Size() == 3
			})
			Expect(ok).To(BeTrue())

			forwarded := map[uint64]uint64{}
			for a.DownstreamReq().Size() > 0 {
				req := a.DownstreamReq().Pop()
				forwarded[req.ID] = req.Address
			}
			Expect(forwarded).To(Equal(addrs))

			// Downstream answers in reverse order.
			for _, id := range []uint64{5, 4, 3} {
				a.DownstreamResp().Push(accel.Response{
					ID: id, Data: 0x1000 + id,
				})
			}

			ok = tickUntil(a, 20, func() bool {
				return a.UpstreamResp().Size() == 3
			})
			Expect(ok).To(BeTrue())

			got := map[uint64]uint64{}
			for a.UpstreamResp().Size() > 0 {
				rsp := a.UpstreamResp().Pop()
				got[rsp.ID] = rsp.Data
			}
			Expect(got).To(Equal(map[uint64]uint64{
				3: 0x1003, 4: 0x1004, 5: 0x1005,
			}))
		})

	It("should stall upstream acceptance while downstream is not ready",
		func() {
			cfg := defaultConfig()
			cfg.ChannelDepth = 1
			var err error
			a, err = accel.New(cfg)
			Expect(err).ToNot(HaveOccurred())

			a.UpstreamReq().Push(accel.Request{ID: 1, Address: 0x10})
			for i := 0; i < 5; i++ {
				a.Tick()
			}
			// The miss occupies the downstream request channel; nobody
			// pops it, so the next request cannot be accepted.
			a.UpstreamReq().Push(accel.Request{ID: 2, Address: 0x20})
			for i := 0; i < 5; i++ {
				a.Tick()
			}

			Expect(a.UpstreamReq().Size()).To(Equal(1))
			Expect(a.Stats().Requests).To(Equal(uint64(1)))
			Expect(a.Stats().StallCycles).To(BeNumerically(">", 0))

			// Draining downstream unblocks acceptance.
			a.DownstreamReq().Pop()
			ok := tickUntil(a, 10, func() bool {
				return a.DownstreamReq().Size() == 1
			})
			Expect(ok).To(BeTrue())
			Expect(a.DownstreamReq().Pop().ID).To(Equal(uint64(2)))
		})

	It("should stall upstream acceptance while the tracker is full", func() {
		cfg := defaultConfig()
		cfg.TrackerDepth = 1
		var err error
		a, err = accel.New(cfg)
		Expect(err).ToNot(HaveOccurred())

		a.UpstreamReq().Push(accel.Request{ID: 1, Address: 0x10})
		a.UpstreamReq().Push(accel.Request{ID: 2, Address: 0x20})
		for i := 0; i < 5; i++ {
			a.Tick()
		}

		Expect(a.Outstanding()).To(Equal(1))
		Expect(a.UpstreamReq().Size()).To(Equal(1))

		// Completing the first miss frees the tracker slot.
		Expect(a.DownstreamReq().Pop().ID).To(Equal(uint64(1)))
		a.DownstreamResp().Push(accel.Response{ID: 1, Data: 0xA})
		ok := tickUntil(a, 10, func() bool {
			return a.DownstreamReq().Size() == 1
		})
		Expect(ok).To(BeTrue())
		Expect(a.DownstreamReq().Pop().ID).To(Equal(uint64(2)))
	})

	It("should hold responses under upstream backpressure, not drop them",
		func() {
			cfg := defaultConfig()
			cfg.ChannelDepth = 1
			cfg.RespBufDepth = 1
			var err error
			a, err = accel.New(cfg)
			Expect(err).ToNot(HaveOccurred())

			// Warm the cache with one address.
			a.UpstreamReq().Push(accel.Request{ID: 1, Address: 0x10})
			tickUntil(a, 10, func() bool {
				return a.DownstreamReq().Size() == 1
			})
			a.DownstreamReq().Pop()
			a.DownstreamResp().Push(accel.Response{ID: 1, Data: 0xAB})
			tickUntil(a, 10, func() bool {
				return a.UpstreamResp().Size() == 1
			})

			// Two hit requests while the response channel stays full.
			a.UpstreamReq().Push(accel.Request{ID: 2, Address: 0x10})
			for i := 0; i < 5; i++ {
				a.Tick()
			}
			a.UpstreamReq().Push(accel.Request{ID: 3, Address: 0x10})
			for i := 0; i < 5; i++ {
				a.Tick()
			}

			// Responses drain one by one as the requester pops.
			Expect(a.UpstreamResp().Pop().ID).To(Equal(uint64(1)))
			ok := tickUntil(a, 10, func() bool {
				return a.UpstreamResp().Size() == 1
			})
			Expect(ok).To(BeTrue())
			Expect(a.UpstreamResp().Pop().ID).To(Equal(uint64(2)))

			ok = tickUntil(a, 10, func() bool {
				return a.UpstreamResp().Size() == 1
			})
			Expect(ok).To(BeTrue())
			Expect(a.UpstreamResp().Pop().ID).To(Equal(uint64(3)))
		})

	It("should treat a response with no outstanding record as fatal", func() {
		a.DownstreamResp().Push(accel.Response{ID: 9, Data: 0x1})
		Expect(func() { a.Tick() }).To(Panic())
	})

	It("should clear all state on reset", func() {
		a.UpstreamReq().Push(accel.Request{ID: 1, Address: 0x10})
		for i := 0; i < 3; i++ {
			a.Tick()
		}

		a.Reset()
		Expect(a.Outstanding()).To(Equal(0))
		Expect(a.DownstreamReq().Size()).To(Equal(0))
		Expect(a.Stats().Requests).To(Equal(uint64(0)))
		Expect(a.Cache().Empty()).To(BeTrue())
	})
})

var _ = Describe("Accelerator configuration", func() {
	It("should reject non-positive depths", func() {
		cfg := defaultConfig()
		cfg.TrackerDepth = 0
		_, err := accel.New(cfg)
		Expect(err).To(MatchError(ContainSubstring("tracker depth")))

		cfg = defaultConfig()
		cfg.RespBufDepth = 0
		_, err = accel.New(cfg)
		Expect(err).To(MatchError(ContainSubstring("response buffer")))

		cfg = defaultConfig()
		cfg.ChannelDepth = -1
		_, err = accel.New(cfg)
		Expect(err).To(MatchError(ContainSubstring("channel depth")))
	})

	It("should surface cache configuration errors", func() {
		cfg := defaultConfig()
		cfg.Cache.NumEntries = 0
		_, err := accel.New(cfg)
		Expect(err).To(MatchError(ContainSubstring("entries")))
	})
})
