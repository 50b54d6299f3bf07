package raidsim

import (
	"strconv"
	"strings"
)

// HandleDriveFailure marks the drive as failed and runs the array health
// state machine:
//
//	Healthy -> Degraded -> Rebuilding -> Healthy   (tolerated, replaced)
//	Degraded -> Failed                             (second intolerable failure)
//	Healthy -> Failed                              (raid0, any failure)
//
// Failed is terminal for the session.
func (a *Array) HandleDriveFailure(id int) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	slot, d := a.memberSlotByID(id)
	if d == nil {
		return a.failNonMemberLocked(id)
	}
	if d.failed() {
		return ErrDriveAlreadyFailed
	}
	d.markFailed()
	a.emit(SeverityError, "failure", "drive %d: DRIVE FAILURE DETECTED", id)

	if a.healthState() == Failed {
		return nil
	}
	if j := a.job; j != nil && j.State() == RebuildRunning {
		// a second failure while the rebuild is running leaves too few
		// sources to finish it
		a.abortRebuildLocked("second drive failure during rebuild")
		return nil
	}
	if !a.policy.tolerates(a.failedMembers()) {
		a.setHealthLocked(Failed)
		a.warnDataLossLocked("failure exceeds the fault tolerance of " + a.Level.String())
		return nil
	}
	a.setHealthLocked(Degraded)
	if sp := a.takeSpareLocked(); sp != nil {
		a.startRebuildLocked(slot, sp)
	}
	return nil
}

// failNonMemberLocked handles failures of hot spares and of an in-flight
// rebuild replacement, neither of which endangers array data.
func (a *Array) failNonMemberLocked(id int) error {
	for i, sp := range a.spares() {
		if sp.id != id {
			continue
		}
		if sp.failed() {
			return ErrDriveAlreadyFailed
		}
		sp.markFailed()
		a.emit(SeverityError, "failure", "spare drive %d: DRIVE FAILURE DETECTED", id)
		a.drives = append(a.drives[:a.width+i], a.drives[a.width+i+1:]...)
		return nil
	}
	if j := a.job; j != nil && j.replacement.id == id && j.State() == RebuildRunning {
		j.replacement.markFailed()
		a.emit(SeverityError, "failure", "replacement drive %d: DRIVE FAILURE DETECTED", id)
		// sources are intact, so the array only falls back to Degraded
		// and awaits the next replacement
		j.state.Store(int32(RebuildAborted))
		a.job = nil
		a.rebuildPct.Store(-1)
		a.setHealthLocked(Degraded)
		a.emit(SeverityWarn, "rebuild", "rebuild %s aborted: replacement drive failed", j.ID)
		return nil
	}
	return ErrDriveNotFound
}

// abortRebuildLocked tears the running job down and moves the array to the
// terminal Failed state. Callers hold the array guard.
func (a *Array) abortRebuildLocked(cause string) {
	j := a.job
	if j == nil {
		return
	}
	j.state.Store(int32(RebuildAborted))
	a.job = nil
	a.rebuildPct.Store(-1)
	a.emit(SeverityError, "rebuild", "rebuild %s aborted: %s", j.ID, cause)
	a.setHealthLocked(Failed)
	a.warnDataLossLocked(cause)
}

// SimOptions selects the drives SimulateFailure takes down.
type SimOptions struct {
	// FailNum random active member drives are failed when FailDrive is
	// empty. Capped at the member count.
	FailNum int
	// FailDrive is a comma separated list of drive ids and takes
	// precedence over FailNum.
	FailDrive string
}

// SimulateFailure simulates drive failures. Since it is a simulation, no
// real data is harmed; the failed drives simply stop serving reads and
// writes and the failure handler reacts as it would to the real thing.
func (a *Array) SimulateFailure(opt *SimOptions) error {
	var ids []int
	if opt.FailDrive != "" {
		for _, s := range strings.Split(opt.FailDrive, ",") {
			id, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
	} else {
		if opt.FailNum <= 0 {
			return nil
		}
		a.mu.RLock()
		var active []int
		for _, d := range a.members() {
			if !d.failed() {
				active = append(active, d.id)
			}
		}
		a.mu.RUnlock()
		for _, i := range genRandomArr(len(active)) {
			if len(ids) == opt.FailNum {
				break
			}
			ids = append(ids, active[i])
		}
	}
	for _, id := range ids {
		if err := a.HandleDriveFailure(id); err != nil && err != ErrDriveAlreadyFailed {
			return err
		}
	}
	return nil
}
