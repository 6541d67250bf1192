package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// roundRobinVictimFinder picks the lowest-indexed invalid slot of a line.
// When every slot is valid it evicts ways in round-robin order, which keeps
// eviction deterministic without access-history state.
type roundRobinVictimFinder struct {
	next map[*akitacache.Set]int
}

func newRoundRobinVictimFinder() *roundRobinVictimFinder {
	return &roundRobinVictimFinder{next: make(map[*akitacache.Set]int)}
}

// FindVictim implements the akita cache.VictimFinder interface.
func (f *roundRobinVictimFinder) FindVictim(
	set *akitacache.Set,
) *akitacache.Block {
	for _, block := range set.Blocks {
		if !block.IsValid {
			return block
		}
	}

	way := f.next[set] % len(set.Blocks)
	f.next[set] = way + 1

	return set.Blocks[way]
}

// Reset forgets the round-robin position of every line.
func (f *roundRobinVictimFinder) Reset() {
	f.next = make(map[*akitacache.Set]int)
}
