// Package cache provides the cycle-level associative cache family built on
// Akita cache components.
//
// A cache is an array of {valid, tag, data} slots organized as lines and
// ways. Each cycle the caller stages requests on fill and read ports and
// calls Tick once. Reads observe the state as of the start of the cycle;
// fills and invalidations commit atomically at the edge and become visible
// on the next cycle.
package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
	log "github.com/sirupsen/logrus"
)

// Cache is the capability set shared by all organizations. Concrete types
// are selected at configuration time via the New* constructors.
type Cache interface {
	// FillPort returns the i-th fill port.
	FillPort(i int) *FillPort
	// ReadPort returns the i-th read port.
	ReadPort(i int) *ReadPort
	// Tick advances the cache by one clock edge.
	Tick()
	// Occupancy returns the number of valid slots.
	Occupancy() int
	// Empty reports occupancy == 0.
	Empty() bool
	// Full reports occupancy == NumEntries.
	Full() bool
	// NumEntries returns the total slot count.
	NumEntries() int
	// Config returns the construction-time configuration.
	Config() Config
	// Stats returns the access counters.
	Stats() Stats
	// Reset invalidates every slot and clears all ports and counters.
	Reset()
}

// Stats holds cache access counters.
type Stats struct {
	// Reads is the number of enabled read requests.
	Reads uint64
	// ReadHits and ReadMisses partition Reads.
	ReadHits   uint64
	ReadMisses uint64
	// Fills is the number of committed fills, including in-place updates.
	Fills uint64
	// Evictions counts fills that overwrote a valid slot holding another tag.
	Evictions uint64
	// Invalidates counts slots cleared by invalidate-on-hit reads.
	Invalidates uint64
}

// FullyAssociativeCache may hold any address in any slot.
type FullyAssociativeCache struct {
	*core
}

// DirectMappedCache holds each address in the one slot selected by the
// low-order address bits.
type DirectMappedCache struct {
	*core
}

// SetAssociativeCache selects a line by the low-order address bits and may
// hold the address in any way of that line.
type SetAssociativeCache struct {
	*core
}

// NewFullyAssociative creates a fully-associative cache.
func NewFullyAssociative(config Config) (*FullyAssociativeCache, error) {
	config.Organization = FullyAssociative

	c, err := newCore(config)
	if err != nil {
		return nil, err
	}

	return &FullyAssociativeCache{core: c}, nil
}

// NewDirectMapped creates a direct-mapped cache.
func NewDirectMapped(config Config) (*DirectMappedCache, error) {
	config.Organization = DirectMapped

	c, err := newCore(config)
	if err != nil {
		return nil, err
	}

	return &DirectMappedCache{core: c}, nil
}

// NewSetAssociative creates a set-associative cache.
func NewSetAssociative(config Config) (*SetAssociativeCache, error) {
	config.Organization = SetAssociative

	c, err := newCore(config)
	if err != nil {
		return nil, err
	}

	return &SetAssociativeCache{core: c}, nil
}

// New creates a cache of the organization named in the configuration.
func New(config Config) (Cache, error) {
	switch config.Organization {
	case DirectMapped:
		return NewDirectMapped(config)
	case SetAssociative:
		return NewSetAssociative(config)
	default:
		return NewFullyAssociative(config)
	}
}

// core is the shared implementation behind every organization. The akita
// directory is the entry store: Block.Tag holds the full address because
// the block size is one word, and the set index is addr mod numSets.
type core struct {
	config  Config
	numSets int
	numWays int

	directory *akitacache.DirectoryImpl
	sets      []akitacache.Set
	rr        *roundRobinVictimFinder

	// Data storage, indexed by SetID*numWays + WayID.
	data []uint64

	fillPorts []*FillPort
	readPorts []*ReadPort

	occupancy int
	stats     Stats
}

func newCore(config Config) (*core, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	numSets, numWays := config.geometry()

	c := &core{
		config:  config,
		numSets: numSets,
		numWays: numWays,
		data:    make([]uint64, numSets*numWays),
	}

	var finder akitacache.VictimFinder
	if config.Policy == PolicyLRU {
		finder = akitacache.NewLRUVictimFinder()
	} else {
		c.rr = newRoundRobinVictimFinder()
		finder = c.rr
	}

	c.directory = akitacache.NewDirectory(numSets, numWays, 1, finder)
	c.sets = c.directory.GetSets()

	c.fillPorts = make([]*FillPort, config.NumFillPorts)
	for i := range c.fillPorts {
		c.fillPorts[i] = &FillPort{}
	}

	c.readPorts = make([]*ReadPort, config.NumReadPorts)
	for i := range c.readPorts {
		c.readPorts[i] = &ReadPort{HitSlot: -1}
	}

	return c, nil
}

// FillPort returns the i-th fill port.
func (c *core) FillPort(i int) *FillPort {
	return c.fillPorts[i]
}

// ReadPort returns the i-th read port.
func (c *core) ReadPort(i int) *ReadPort {
	return c.readPorts[i]
}

// NumEntries returns the total slot count.
func (c *core) NumEntries() int {
	return c.config.NumEntries
}

// Config returns the construction-time configuration.
func (c *core) Config() Config {
	return c.config
}

// Stats returns the access counters.
func (c *core) Stats() Stats {
	return c.stats
}

// Occupancy returns the number of valid slots.
func (c *core) Occupancy() int {
	if c.config.TrackOccupancy {
		return c.occupancy
	}
	return c.countValid()
}

// Empty reports occupancy == 0.
func (c *core) Empty() bool {
	return c.Occupancy() == 0
}

// Full reports occupancy == NumEntries.
func (c *core) Full() bool {
	return c.Occupancy() == c.config.NumEntries
}

// Tick advances the cache by one clock edge. Within the edge: reads are
// evaluated against pre-edge state, then invalidate-on-hit clears commit,
// then fills commit in port order, then occupancy is recomputed from the
// post-edge validity vector.
func (c *core) Tick() {
	edgeDelta := 0

	invalidates := c.evaluateReads()
	edgeDelta += c.commitInvalidates(invalidates)
	edgeDelta += c.commitFills()

	if c.config.TrackOccupancy {
		count := c.countValid()
		if count != c.occupancy+edgeDelta {
			log.Panicf(
				"occupancy drift: %d valid slots after edge, expected %d",
				count, c.occupancy+edgeDelta)
		}
		c.occupancy = count
	}

	for _, p := range c.fillPorts {
		p.clear()
	}
	for _, p := range c.readPorts {
		p.clear()
	}
}

// evaluateReads latches a response on every read port and returns the
// blocks to clear for invalidate-on-hit requests.
func (c *core) evaluateReads() []*akitacache.Block {
	var invalidates []*akitacache.Block

	for _, p := range c.readPorts {
		if !p.Enable {
			p.respond(false, 0, -1)
			continue
		}

		c.stats.Reads++
		addr := p.Address & c.config.addressMask()

		block, slot := c.lookup(addr)
		if block == nil {
			c.stats.ReadMisses++
			p.respond(false, 0, -1)
			continue
		}

		if p.InvalidateOnHit {
			if !c.config.SupportInvalidateOnHit {
				log.Panic("invalidate-on-hit is not enabled for this cache")
			}
			invalidates = append(invalidates, block)
		}

		c.stats.ReadHits++
		c.directory.Visit(block)
		p.respond(true, c.data[slot], slot)
	}

	return invalidates
}

// commitInvalidates clears the matched slots and returns the occupancy
// delta. A slot targeted by more than one port in the same cycle is
// cleared once.
func (c *core) commitInvalidates(blocks []*akitacache.Block) int {
	delta := 0

	for _, block := range blocks {
		if !block.IsValid {
			continue
		}

		block.IsValid = false
		block.IsDirty = false
		c.stats.Invalidates++
		delta--
	}

	return delta
}

// commitFills applies fill requests in port order and returns the occupancy
// delta. Each fill selects its destination after earlier same-cycle
// commits, so a slot freed by an invalidate is eligible and two fill ports
// never pick the same slot. A fill whose tag is already present updates
// that slot in place, preserving tag uniqueness.
func (c *core) commitFills() int {
	delta := 0

	for _, p := range c.fillPorts {
		if !p.Enable || !p.Valid {
			continue
		}

		addr := p.Address & c.config.addressMask()
		data := p.Data & c.config.dataMask()
		c.stats.Fills++

		if block, slot := c.lookup(addr); block != nil {
			c.data[slot] = data
			c.directory.Visit(block)
			continue
		}

		victim := c.directory.FindVictim(addr)
		if victim.IsValid {
			c.stats.Evictions++
		} else {
			delta++
		}

		victim.Tag = addr
		victim.IsValid = true
		victim.IsDirty = false
		c.data[c.blockIndex(victim)] = data
		c.directory.Visit(victim)
	}

	return delta
}

// lookup scans the line selected by addr and returns the matching valid
// block and its global slot index, or (nil, -1) on a miss. More than one
// match means the replacement policy has broken tag uniqueness; that is an
// invariant violation rather than a user-facing error, and it panics.
func (c *core) lookup(addr uint64) (*akitacache.Block, int) {
	setID := int(addr % uint64(c.numSets))
	set := c.sets[setID]

	var found *akitacache.Block
	for _, block := range set.Blocks {
		if block.IsValid && block.Tag == addr {
			if found != nil {
				log.Panicf(
					"duplicate tag 0x%X in line %d (ways %d and %d)",
					addr, setID, found.WayID, block.WayID)
			}
			found = block
		}
	}

	if found == nil {
		return nil, -1
	}

	return found, c.blockIndex(found)
}

// blockIndex computes the index into the data array for a block.
func (c *core) blockIndex(block *akitacache.Block) int {
	return block.SetID*c.numWays + block.WayID
}

// countValid counts valid slots across all lines.
func (c *core) countValid() int {
	count := 0
	for _, set := range c.sets {
		for _, block := range set.Blocks {
			if block.IsValid {
				count++
			}
		}
	}

	return count
}

// Reset invalidates every slot and clears all ports and counters.
func (c *core) Reset() {
	c.directory.Reset()
	c.sets = c.directory.GetSets()
	if c.rr != nil {
		c.rr.Reset()
	}

	for i := range c.data {
		c.data[i] = 0
	}

	for _, p := range c.fillPorts {
		p.clear()
	}
	for _, p := range c.readPorts {
		p.clear()
		p.respond(false, 0, -1)
	}

	c.occupancy = 0
	c.stats = Stats{}
}
