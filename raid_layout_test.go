package raidsim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutMinimums(t *testing.T) {
	for _, tc := range []struct {
		level RaidLevel
		min   int
	}{
		{Raid0, 2},
		{Raid1, 2},
		{Raid5, 3},
	} {
		_, err := newLayoutPolicy(tc.level, tc.min-1)
		assert.ErrorIs(t, err, ErrInsufficientDrives, tc.level.String())
		p, err := newLayoutPolicy(tc.level, tc.min)
		require.NoError(t, err, tc.level.String())
		assert.Equal(t, tc.min, p.minDrives())
	}
}

func TestRaid0Placement(t *testing.T) {
	p, err := newLayoutPolicy(Raid0, 3)
	require.NoError(t, err)
	for b := 0; b < 12; b++ {
		pls := p.placeWrite(b)
		require.Len(t, pls, 1)
		assert.Equal(t, b%3, pls[0].slot, "block %d", b)
		assert.Equal(t, b/3, pls[0].sector, "block %d", b)
		assert.Equal(t, RoleData, pls[0].role)
	}
	_, ok := p.parityFor(0)
	assert.False(t, ok)
}

func TestRaid1Placement(t *testing.T) {
	p, err := newLayoutPolicy(Raid1, 3)
	require.NoError(t, err)
	pls := p.placeWrite(5)
	require.Len(t, pls, 3, "every mirror takes the block")
	for i, pl := range pls {
		assert.Equal(t, i, pl.slot)
		assert.Equal(t, 5, pl.sector, "same sector index on every mirror")
	}
}

// smallest raid5 shape: 3 drives, stripe 0 puts parity
// on drive 0 and the two data blocks on drives 1 and 2
func TestRaid5StripeZeroPlacement(t *testing.T) {
	p, err := newLayoutPolicy(Raid5, 3)
	require.NoError(t, err)

	b0 := p.placeWrite(0)[0]
	assert.Equal(t, placement{slot: 1, sector: 0, role: RoleData}, b0)
	b1 := p.placeWrite(1)[0]
	assert.Equal(t, placement{slot: 2, sector: 0, role: RoleData}, b1)

	parity, ok := p.parityFor(0)
	require.True(t, ok)
	assert.Equal(t, placement{slot: 0, sector: 0, role: RoleParity}, parity)
}

func TestRaid5ParityRotation(t *testing.T) {
	const width = 4
	p, err := newLayoutPolicy(Raid5, width)
	require.NoError(t, err)
	k := width - 1
	for stripe := 0; stripe < 8; stripe++ {
		parity, ok := p.parityFor(stripe * k)
		require.True(t, ok)
		assert.Equal(t, stripe%width, parity.slot, "parity rotates by stripe")
		assert.Equal(t, stripe, parity.sector)
		for j := 0; j < k; j++ {
			pl := p.placeWrite(stripe*k + j)[0]
			assert.NotEqual(t, parity.slot, pl.slot, "data never lands on the parity drive")
			assert.Equal(t, stripe, pl.sector)
		}
	}
}

// blockAt must invert placeWrite for every level and width
func TestBlockAtInvertsPlacement(t *testing.T) {
	for _, level := range []RaidLevel{Raid0, Raid1, Raid5} {
		for width := 3; width <= 6; width++ {
			p, err := newLayoutPolicy(level, width)
			if err != nil {
				t.Fatalf("%s width %d: %s", level, width, err.Error())
			}
			for b := 0; b < 24; b++ {
				for _, pl := range p.placeWrite(b) {
					got, ok := p.blockAt(pl.slot, pl.sector)
					if !ok || got != b {
						t.Fatalf("%s width %d: blockAt(%d,%d)=(%d,%t), want block %d",
							level, width, pl.slot, pl.sector, got, ok, b)
					}
				}
			}
			if level == Raid5 {
				for stripe := 0; stripe < 8; stripe++ {
					parity, _ := p.parityFor(stripe * (width - 1))
					if _, ok := p.blockAt(parity.slot, parity.sector); ok {
						t.Fatalf("%s width %d: parity slot resolved to a data block", level, width)
					}
				}
			}
		}
	}
}

func TestStripeDataBlocks(t *testing.T) {
	p, err := newLayoutPolicy(Raid5, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, p.stripeDataBlocks(0))
	assert.Equal(t, []int{3, 4, 5}, p.stripeDataBlocks(1))
}
