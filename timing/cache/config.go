package cache

import "fmt"

// Organization selects how addresses map to slots.
type Organization int

const (
	// FullyAssociative caches may hold any address in any slot.
	FullyAssociative Organization = iota
	// DirectMapped caches hold each address in exactly one slot selected by
	// the low-order address bits.
	DirectMapped
	// SetAssociative caches select a line by the low-order address bits and
	// may hold the address in any way of that line.
	SetAssociative
)

// String returns a human-readable organization name.
func (o Organization) String() string {
	switch o {
	case FullyAssociative:
		return "fully-associative"
	case DirectMapped:
		return "direct-mapped"
	case SetAssociative:
		return "set-associative"
	}
	return fmt.Sprintf("organization(%d)", int(o))
}

// Policy selects the replacement policy used when a fill needs a victim
// slot. Every policy prefers an invalid slot before evicting.
type Policy int

const (
	// PolicyRoundRobin picks the lowest-indexed invalid slot, falling back
	// to a per-line round-robin victim when all slots are valid. This is the
	// default because it is deterministic and trivially reproducible.
	PolicyRoundRobin Policy = iota
	// PolicyLRU evicts the least recently used slot of the line.
	PolicyLRU
)

// String returns a human-readable policy name.
func (p Policy) String() string {
	switch p {
	case PolicyRoundRobin:
		return "round-robin"
	case PolicyLRU:
		return "lru"
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// Config holds the construction-time parameters of a cache. The zero value
// is not usable; all fields except the feature flags must be set.
type Config struct {
	// Organization selects the address-to-slot mapping.
	Organization Organization

	// AddressWidth is the tag width in bits, 1 to 64. Addresses presented
	// on any port are truncated to this width.
	AddressWidth int

	// DataWidth is the stored value width in bits, 1 to 64.
	DataWidth int

	// NumEntries is the total number of slots across all lines.
	NumEntries int

	// NumWays is the number of ways per line. Only configurable for
	// set-associative caches; it must divide NumEntries.
	NumWays int

	// NumReadPorts and NumFillPorts are the number of concurrently usable
	// ports of each kind. At least one of each is required.
	NumReadPorts int
	NumFillPorts int

	// Policy selects the replacement policy. Ignored for direct-mapped
	// caches, where the victim is a pure function of the address.
	Policy Policy

	// SupportInvalidateOnHit enables the read-port modifier that clears the
	// matched slot on the same edge that commits the read.
	SupportInvalidateOnHit bool

	// TrackOccupancy enables per-cycle occupancy bookkeeping and the
	// occupancy drift assertion. Occupancy, Empty, and Full remain
	// available either way; without tracking they are computed on demand.
	TrackOccupancy bool
}

// Validate checks the configuration and returns a descriptive error for the
// first violated constraint. It must pass before any cycle executes.
func (c Config) Validate() error {
	if c.AddressWidth < 1 || c.AddressWidth > 64 {
		return fmt.Errorf("address width must be in 1..64, got %d",
			c.AddressWidth)
	}

	if c.DataWidth < 1 || c.DataWidth > 64 {
		return fmt.Errorf("data width must be in 1..64, got %d", c.DataWidth)
	}

	if c.NumEntries <= 0 {
		return fmt.Errorf("number of entries must be positive, got %d",
			c.NumEntries)
	}

	if c.NumReadPorts < 1 {
		return fmt.Errorf("at least one read port is required, got %d",
			c.NumReadPorts)
	}

	if c.NumFillPorts < 1 {
		return fmt.Errorf("at least one fill port is required, got %d",
			c.NumFillPorts)
	}

	switch c.Organization {
	case FullyAssociative, DirectMapped:
		if c.NumWays != 0 {
			return fmt.Errorf(
				"way count is only configurable for set-associative caches")
		}
	case SetAssociative:
		if c.NumWays < 1 {
			return fmt.Errorf("way count must be positive, got %d", c.NumWays)
		}
		if c.NumEntries%c.NumWays != 0 {
			return fmt.Errorf(
				"way count %d must divide the number of entries %d",
				c.NumWays, c.NumEntries)
		}
	default:
		return fmt.Errorf("unknown organization %d", int(c.Organization))
	}

	switch c.Policy {
	case PolicyRoundRobin, PolicyLRU:
	default:
		return fmt.Errorf("unknown replacement policy %d", int(c.Policy))
	}

	return nil
}

// geometry returns the directory shape for the configured organization.
func (c Config) geometry() (numSets, numWays int) {
	switch c.Organization {
	case FullyAssociative:
		return 1, c.NumEntries
	case DirectMapped:
		return c.NumEntries, 1
	default:
		return c.NumEntries / c.NumWays, c.NumWays
	}
}

// addressMask returns the mask that truncates a value to AddressWidth bits.
func (c Config) addressMask() uint64 {
	if c.AddressWidth >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << c.AddressWidth) - 1
}

// dataMask returns the mask that truncates a value to DataWidth bits.
func (c Config) dataMask() uint64 {
	if c.DataWidth >= 64 {
		return ^uint64(0)
	}
	return (uint64(1) << c.DataWidth) - 1
}
