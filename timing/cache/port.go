package cache

// FillPort carries one fill request per cycle into the cache. The caller
// sets the request fields before calling Tick; the request commits at the
// edge and the fields deassert automatically afterwards.
type FillPort struct {
	// Enable gates the port for this cycle.
	Enable bool

	// Valid marks the supplied data as well formed. A fill commits only
	// when both Enable and Valid are set.
	Valid bool

	// Address is the tag to store, truncated to the configured width.
	Address uint64

	// Data is the value to store, truncated to the configured width.
	Data uint64
}

// Set asserts a well-formed fill request for the coming edge.
func (p *FillPort) Set(addr, data uint64) {
	p.Enable = true
	p.Valid = true
	p.Address = addr
	p.Data = data
}

// clear deasserts the request fields at the edge.
func (p *FillPort) clear() {
	p.Enable = false
	p.Valid = false
	p.Address = 0
	p.Data = 0
}

// ReadPort carries one read request per cycle and exposes the response
// observed at the edge. The caller sets the request fields before Tick; the
// response fields stay valid until the next Tick.
type ReadPort struct {
	// Enable gates the port for this cycle.
	Enable bool

	// Address is the tag to look up, truncated to the configured width.
	Address uint64

	// InvalidateOnHit additionally clears the matched slot on the same edge
	// that commits the read. Only usable when the cache is configured with
	// SupportInvalidateOnHit.
	InvalidateOnHit bool

	// Hit reports whether the previous Tick found a matching valid slot.
	Hit bool

	// Data is the stored value for the matched slot. Zero on a miss.
	Data uint64

	// HitSlot is the global slot index of the match, -1 on a miss.
	HitSlot int
}

// Request asserts a plain read of addr for the coming edge.
func (p *ReadPort) Request(addr uint64) {
	p.Enable = true
	p.Address = addr
	p.InvalidateOnHit = false
}

// RequestInvalidate asserts a read of addr that clears the matched slot.
func (p *ReadPort) RequestInvalidate(addr uint64) {
	p.Enable = true
	p.Address = addr
	p.InvalidateOnHit = true
}

// clear deasserts the request fields at the edge.
func (p *ReadPort) clear() {
	p.Enable = false
	p.Address = 0
	p.InvalidateOnHit = false
}

// respond latches the response observed at the edge.
func (p *ReadPort) respond(hit bool, data uint64, slot int) {
	p.Hit = hit
	p.Data = data
	p.HitSlot = slot
}
