package raidsim

// Read returns the array's full logical contents as one byte sequence.
// Blocks whose drive has failed are served by degraded reconstruction; only
// a terminally failed array refuses to read.
func (a *Array) Read() ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.healthState() == Failed {
		return nil, ErrArrayFailed
	}
	var out []byte
	for b := 0; b < a.blockCount(); b++ {
		content, err := a.readBlockLocked(b)
		if err != nil {
			return nil, err
		}
		size := a.blockSizes[b]
		out = append(out, padBlock(content, size)[:size]...)
	}
	return out, nil
}

// ReadBlock returns one logical block.
func (a *Array) ReadBlock(block int) ([]byte, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.healthState() == Failed {
		return nil, ErrArrayFailed
	}
	if block < 0 || block >= a.blockCount() {
		return nil, ErrBlockOutOfRange
	}
	content, err := a.readBlockLocked(block)
	if err != nil {
		return nil, err
	}
	size := a.blockSizes[block]
	return padBlock(content, size)[:size], nil
}

func (a *Array) readBlockLocked(block int) ([]byte, error) {
	for _, pl := range a.policy.locate(block) {
		d := a.members()[pl.slot]
		if d.failed() {
			continue
		}
		content, _, err := d.readSector(pl.sector)
		if err != nil {
			return nil, err
		}
		return content, nil
	}
	// every replica is down, rebuild the block from the survivors
	pl := a.policy.locate(block)[0]
	content, _, err := a.policy.reconstruct(a.members(), pl.slot, pl.sector)
	if err != nil {
		return nil, err
	}
	a.emit(SeverityInfo, "read", "block %d served by degraded reconstruction", block)
	return content, nil
}
