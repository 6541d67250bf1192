package accel

// Request travels on the upstream and downstream request channels.
type Request struct {
	// ID identifies the request on both sides of the accelerator. Ids of
	// concurrently outstanding requests must be unique.
	ID uint64
	// Address is the requested address.
	Address uint64
}

// Response travels on the upstream and downstream response channels,
// matched to its Request by ID.
type Response struct {
	ID   uint64
	Data uint64
}
