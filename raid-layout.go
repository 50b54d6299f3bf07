package raidsim

// placement pins a logical block to a member slot, a sector index and the
// role the sector assumes after the write.
type placement struct {
	slot   int
	sector int
	role   SectorRole
}

// layoutPolicy is the per-level placement and reconstruction strategy.
// One implementation exists per raid level; the array selects it once at
// creation time so the hot paths never switch on the level tag.
type layoutPolicy interface {
	level() RaidLevel
	minDrives() int
	// tolerates reports whether every logical block is still recoverable
	// with failed member drives down.
	tolerates(failed int) bool
	// placeWrite maps a logical block onto its data sector writes.
	placeWrite(block int) []placement
	// locate lists every physical replica holding the logical block,
	// in preference order for reads.
	locate(block int) []placement
	// parityFor returns the parity sector of the block's stripe.
	parityFor(block int) (placement, bool)
	// stripeDataBlocks lists the logical blocks belonging to a stripe.
	stripeDataBlocks(stripe int) []int
	// blockAt inverts the placement: the logical block stored on
	// (slot, sector), or false for parity and out-of-layout sectors.
	blockAt(slot, sector int) (int, bool)
	// reconstruct regenerates the content of (slot, sector) from the
	// surviving members.
	reconstruct(members []*Drive, slot, sector int) ([]byte, SectorRole, error)
}

func newLayoutPolicy(level RaidLevel, width int) (layoutPolicy, error) {
	var p layoutPolicy
	switch level {
	case Raid0:
		p = &raid0Layout{width: width}
	case Raid1:
		p = &raid1Layout{width: width}
	case Raid5:
		p = &raid5Layout{width: width}
	default:
		return nil, ErrUnknownLevel
	}
	if width < p.minDrives() {
		return nil, ErrInsufficientDrives
	}
	return p, nil
}

// raid0Layout stripes blocks round-robin with no redundancy.
type raid0Layout struct {
	width int
}

func (l *raid0Layout) level() RaidLevel { return Raid0 }

func (l *raid0Layout) minDrives() int { return 2 }

func (l *raid0Layout) tolerates(failed int) bool { return failed == 0 }

func (l *raid0Layout) placeWrite(block int) []placement {
	return []placement{{slot: block % l.width, sector: block / l.width, role: RoleData}}
}

func (l *raid0Layout) locate(block int) []placement { return l.placeWrite(block) }

func (l *raid0Layout) parityFor(int) (placement, bool) { return placement{}, false }

func (l *raid0Layout) stripeDataBlocks(stripe int) []int {
	blocks := make([]int, l.width)
	for i := range blocks {
		blocks[i] = stripe*l.width + i
	}
	return blocks
}

func (l *raid0Layout) blockAt(slot, sector int) (int, bool) {
	return sector*l.width + slot, true
}

func (l *raid0Layout) reconstruct([]*Drive, int, int) ([]byte, SectorRole, error) {
	return nil, RoleEmpty, ErrRebuildAborted
}

// raid1Layout mirrors every block onto every member at the same sector.
type raid1Layout struct {
	width int
}

func (l *raid1Layout) level() RaidLevel { return Raid1 }

func (l *raid1Layout) minDrives() int { return 2 }

func (l *raid1Layout) tolerates(failed int) bool { return failed < l.width }

func (l *raid1Layout) placeWrite(block int) []placement {
	out := make([]placement, l.width)
	for i := range out {
		out[i] = placement{slot: i, sector: block, role: RoleData}
	}
	return out
}

func (l *raid1Layout) locate(block int) []placement { return l.placeWrite(block) }

func (l *raid1Layout) parityFor(int) (placement, bool) { return placement{}, false }

func (l *raid1Layout) stripeDataBlocks(stripe int) []int { return []int{stripe} }

func (l *raid1Layout) blockAt(_, sector int) (int, bool) { return sector, true }

func (l *raid1Layout) reconstruct(members []*Drive, slot, sector int) ([]byte, SectorRole, error) {
	for i, d := range members {
		if i == slot || d.failed() {
			continue
		}
		content, role, err := d.readSector(sector)
		if err != nil {
			return nil, RoleEmpty, err
		}
		return content, role, nil
	}
	return nil, RoleEmpty, ErrRebuildAborted
}

// raid5Layout stripes width-1 data blocks per stripe and rotates the parity
// drive as stripe % width so no single drive absorbs all parity writes.
type raid5Layout struct {
	width int
}

func (l *raid5Layout) level() RaidLevel { return Raid5 }

func (l *raid5Layout) minDrives() int { return 3 }

func (l *raid5Layout) tolerates(failed int) bool { return failed <= 1 }

// dataShards is the number of data blocks per stripe.
func (l *raid5Layout) dataShards() int { return l.width - 1 }

// dataSlot maps the j-th data block of a stripe onto a member slot,
// ascending order skipping the parity slot.
func (l *raid5Layout) dataSlot(stripe, j int) int {
	parity := stripe % l.width
	if j < parity {
		return j
	}
	return j + 1
}

func (l *raid5Layout) placeWrite(block int) []placement {
	k := l.dataShards()
	stripe := block / k
	return []placement{{slot: l.dataSlot(stripe, block%k), sector: stripe, role: RoleData}}
}

func (l *raid5Layout) locate(block int) []placement { return l.placeWrite(block) }

func (l *raid5Layout) parityFor(block int) (placement, bool) {
	stripe := block / l.dataShards()
	return placement{slot: stripe % l.width, sector: stripe, role: RoleParity}, true
}

func (l *raid5Layout) stripeDataBlocks(stripe int) []int {
	k := l.dataShards()
	blocks := make([]int, k)
	for j := range blocks {
		blocks[j] = stripe*k + j
	}
	return blocks
}

func (l *raid5Layout) blockAt(slot, sector int) (int, bool) {
	parity := sector % l.width
	if slot == parity {
		return 0, false
	}
	j := slot
	if slot > parity {
		j = slot - 1
	}
	return sector*l.dataShards() + j, true
}

// reconstruct XOR-folds the sector content of every surviving member; the
// parity identity turns that fold into the missing block (or the missing
// parity) of the stripe.
func (l *raid5Layout) reconstruct(members []*Drive, slot, sector int) ([]byte, SectorRole, error) {
	blocks := make([][]byte, 0, l.width-1)
	empty := true
	for i, d := range members {
		if i == slot {
			continue
		}
		if d.failed() {
			return nil, RoleEmpty, ErrRebuildAborted
		}
		content, role, err := d.readSector(sector)
		if err != nil {
			return nil, RoleEmpty, err
		}
		if role != RoleEmpty {
			empty = false
		}
		blocks = append(blocks, content)
	}
	content := CalculateParity(blocks)
	if empty && len(content) == 0 {
		return nil, RoleEmpty, nil
	}
	role := RoleData
	if slot == sector%l.width {
		role = RoleParity
	}
	return content, role, nil
}
