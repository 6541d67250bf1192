package cache

import (
	"testing"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

func makeSet(valid ...bool) *akitacache.Set {
	set := &akitacache.Set{}
	for i, v := range valid {
		set.Blocks = append(set.Blocks,
			&akitacache.Block{WayID: i, IsValid: v})
	}
	return set
}

func TestRoundRobinPrefersLowestInvalidWay(t *testing.T) {
	f := newRoundRobinVictimFinder()
	set := makeSet(true, false, false, true)

	victim := f.FindVictim(set)
	if victim.WayID != 1 {
		t.Errorf("expected way 1, got %d", victim.WayID)
	}
}

func TestRoundRobinCyclesThroughValidWays(t *testing.T) {
	f := newRoundRobinVictimFinder()
	set := makeSet(true, true, true)

	for round := 0; round < 2; round++ {
		for want := 0; want < 3; want++ {
			victim := f.FindVictim(set)
			if victim.WayID != want {
				t.Errorf("round %d: expected way %d, got %d",
					round, want, victim.WayID)
			}
		}
	}
}

func TestRoundRobinResetRestartsAtWayZero(t *testing.T) {
	f := newRoundRobinVictimFinder()
	set := makeSet(true, true)

	f.FindVictim(set)
	f.Reset()

	victim := f.FindVictim(set)
	if victim.WayID != 0 {
		t.Errorf("expected way 0 after reset, got %d", victim.WayID)
	}
}

func TestGeometryByOrganization(t *testing.T) {
	cases := []struct {
		name     string
		config   Config
		wantSets int
		wantWays int
	}{
		{
			name: "fully associative",
			config: Config{
				Organization: FullyAssociative, NumEntries: 8,
			},
			wantSets: 1, wantWays: 8,
		},
		{
			name: "direct mapped",
			config: Config{
				Organization: DirectMapped, NumEntries: 8,
			},
			wantSets: 8, wantWays: 1,
		},
		{
			name: "set associative",
			config: Config{
				Organization: SetAssociative, NumEntries: 8, NumWays: 2,
			},
			wantSets: 4, wantWays: 2,
		},
	}

	for _, tc := range cases {
		sets, ways := tc.config.geometry()
		if sets != tc.wantSets || ways != tc.wantWays {
			t.Errorf("%s: got %dx%d, want %dx%d",
				tc.name, sets, ways, tc.wantSets, tc.wantWays)
		}
	}
}
