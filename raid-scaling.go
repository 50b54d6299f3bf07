package raidsim

import (
	"github.com/klauspost/reedsolomon"
)

// AddDrive attaches a fresh drive to the array. On a degraded array it
// immediately becomes the rebuild replacement for the failed member;
// otherwise it waits as a hot spare. Drive ids are never reused.
func (a *Array) AddDrive() (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.healthState() == Failed {
		return 0, ErrArrayFailed
	}
	d := newDrive(a.nextID, a.SectorCount)
	a.nextID++
	a.emit(SeverityInfo, "array", "drive %d attached", d.id)
	if a.healthState() == Degraded && a.job == nil {
		for slot, m := range a.members() {
			if m.failed() {
				a.startRebuildLocked(slot, d)
				return d.id, nil
			}
		}
	}
	a.drives = append(a.drives, d)
	return d.id, nil
}

// RemoveDrive detaches a drive. Hot spares detach freely. A raid1 mirror
// may leave as long as the level minimum holds, since the survivors keep
// every block. Striped members carry unique data, so raid0/raid5 only
// shrink while the array is still empty.
func (a *Array) RemoveDrive(id int) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.healthState() == Failed {
		return ErrArrayFailed
	}
	for i, sp := range a.spares() {
		if sp.id == id {
			a.drives = append(a.drives[:a.width+i], a.drives[a.width+i+1:]...)
			a.emit(SeverityInfo, "array", "spare drive %d detached", id)
			return nil
		}
	}
	slot, d := a.memberSlotByID(id)
	if d == nil {
		return ErrDriveNotFound
	}
	if j := a.job; j != nil && j.State() == RebuildRunning {
		return ErrRebuildInProgress
	}
	if a.width-1 < a.policy.minDrives() {
		return ErrInsufficientDrives
	}
	if a.Level != Raid1 && a.blockCount() > 0 {
		return ErrStripeMember
	}
	a.drives = append(a.drives[:slot], a.drives[slot+1:]...)
	a.width--
	policy, err := newLayoutPolicy(a.Level, a.width)
	if err != nil {
		return err
	}
	a.policy = policy
	if a.Level == Raid5 {
		a.enc, err = reedsolomon.New(a.width-1, 1,
			reedsolomon.WithFastOneParityMatrix(),
			reedsolomon.WithAutoGoroutines(a.BlockSize),
		)
		if err != nil {
			return err
		}
	}
	if a.failedMembers() == 0 && a.healthState() == Degraded {
		a.setHealthLocked(Healthy)
	}
	a.emit(SeverityInfo, "array", "drive %d detached, stripe width now %d", id, a.width)
	return nil
}
