package raidsim

import (
	"time"
)

// Write splits data into blocks and appends them behind the last written
// logical block. The request fails atomically: the block ledger and the
// last-write timestamp move only after every physical write succeeded
// (already-written sectors are not rolled back, the array is not
// transactional).
func (a *Array) Write(data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.writeAtLocked(a.blockCount(), data)
}

// Edit rewrites starting at the logical offset of the most recent Write.
func (a *Array) Edit(data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.writeAtLocked(a.writeMark, data)
}

func (a *Array) writeAtLocked(offset int, data []byte) error {
	if a.healthState() == Failed {
		return ErrArrayFailed
	}
	if len(data) == 0 {
		// nothing to place, the ledger and the write mark stay put
		return nil
	}
	if a.width < a.policy.minDrives() {
		return ErrInsufficientDrives
	}
	blocks := splitBlocks(data, a.BlockSize)
	for i, blk := range blocks {
		if err := a.writeBlockLocked(offset+i, blk); err != nil {
			return err
		}
	}
	for i, blk := range blocks {
		b := offset + i
		for b >= len(a.blockSizes) {
			a.blockSizes = append(a.blockSizes, 0)
		}
		a.blockSizes[b] = len(blk)
	}
	a.writeMark = offset
	a.lastWrite = time.Now()
	return nil
}

// writeBlockLocked dispatches one logical block through the layout policy
// and, for raid5, refreshes the stripe's parity afterwards.
func (a *Array) writeBlockLocked(block int, content []byte) error {
	placements := a.policy.placeWrite(block)

	// In a degraded raid5 stripe the failed drive may hold a sibling data
	// block. Its content must be captured from the old on-disk state
	// before this write touches the stripe, or the new parity would
	// encode garbage for it.
	missingSlot := -1
	var missingContent []byte
	if a.Level == Raid5 && a.failedMembers() > 0 {
		sector := placements[0].sector
		for slot, d := range a.members() {
			if !d.failed() {
				continue
			}
			if bb, ok := a.policy.blockAt(slot, sector); ok && bb != block {
				c, _, err := a.policy.reconstruct(a.members(), slot, sector)
				if err != nil {
					return err
				}
				// an unwritten sibling folds back to zeros, which the
				// parity xor ignores
				if bb < a.blockCount() {
					size := a.blockSizes[bb]
					c = padBlock(c, size)[:size]
				}
				missingSlot, missingContent = slot, c
			}
			break
		}
	}

	erg := a.getErrGroup()
	for _, pl := range placements {
		pl := pl
		erg.Go(func() error {
			return a.writePhysicalLocked(pl.slot, pl.sector, content, pl.role)
		})
	}
	if err := erg.Wait(); err != nil {
		return err
	}
	a.errgroupPool.Put(erg)

	pp, ok := a.policy.parityFor(block)
	if !ok {
		return nil
	}
	stripe := a.stripeDataLocked(block, content, missingSlot, missingContent)
	parity := CalculateParity(stripe)
	a.emit(SeverityInfo, "parity", "stripe %d: parity recomputed over %d data blocks", pp.sector, len(stripe))
	return a.writePhysicalLocked(pp.slot, pp.sector, parity, RoleParity)
}

// stripeDataLocked assembles the current data blocks of the stripe the
// given block belongs to: the fresh content for the block being written,
// live drive content for its healthy siblings and the pre-captured
// reconstruction for a sibling on a failed drive. Sibling presence follows
// the on-disk sector role, not the ledger, so siblings written earlier in
// the same request are already accounted for.
func (a *Array) stripeDataLocked(block int, content []byte, missingSlot int, missingContent []byte) [][]byte {
	pp, _ := a.policy.parityFor(block)
	stripe := pp.sector
	var out [][]byte
	for _, bb := range a.policy.stripeDataBlocks(stripe) {
		if bb == block {
			out = append(out, content)
			continue
		}
		pl := a.policy.locate(bb)[0]
		d := a.members()[pl.slot]
		if d.failed() {
			if pl.slot == missingSlot {
				out = append(out, missingContent)
			}
			continue
		}
		c, role, err := d.readSector(pl.sector)
		if err != nil || role != RoleData {
			continue
		}
		out = append(out, c)
	}
	return out
}

// writePhysicalLocked lands content on one member slot. A failed member is
// skipped (degraded write); when a rebuild has already migrated the sector,
// the write is mirrored onto the replacement so the finished rebuild holds
// the newest content.
func (a *Array) writePhysicalLocked(slot, sector int, content []byte, role SectorRole) error {
	d := a.members()[slot]
	if !d.failed() {
		if err := d.writeSector(sector, content, role); err != nil {
			return err
		}
		a.emit(SeverityInfo, "write", "drive %d: wrote %q to sector %d as %s",
			d.id, preview(content), sector, role)
	}
	if j := a.job; j != nil && j.State() == RebuildRunning && j.slot == slot && sector < j.cursor {
		if err := j.replacement.writeSector(sector, content, role); err != nil {
			return err
		}
		a.emit(SeverityInfo, "write", "drive %d: sector %d refreshed on the rebuild replacement",
			j.replacement.id, sector)
	}
	return nil
}
