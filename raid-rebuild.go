package raidsim

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"
)

// RebuildState is the lifecycle of a RebuildJob.
type RebuildState int32

const (
	RebuildRunning RebuildState = iota
	RebuildCompleted
	RebuildAborted
)

func (s RebuildState) String() string {
	switch s {
	case RebuildRunning:
		return "running"
	case RebuildCompleted:
		return "completed"
	case RebuildAborted:
		return "aborted"
	}
	return "unknown"
}

// RebuildJob regenerates a failed member's content onto a replacement
// drive. At most one job runs per array; it exists only while the rebuild
// is active and is owned by the array.
type RebuildJob struct {
	ID            string
	FailedDriveID int
	ReplacementID int

	slot        int
	replacement *Drive
	cursor      int // next sector to migrate, guarded by the array lock
	total       int

	progress *atomic.Int64
	state    *atomic.Int32
	done     chan struct{}
}

// Progress is the completed percentage, safe to poll without any guard.
func (j *RebuildJob) Progress() int { return int(j.progress.Load()) }

func (j *RebuildJob) State() RebuildState { return RebuildState(j.state.Load()) }

// Done closes once the job finished, completed or aborted.
func (j *RebuildJob) Done() <-chan struct{} { return j.done }

// ActiveRebuild returns the array's running job, nil when idle.
func (a *Array) ActiveRebuild() *RebuildJob {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.job
}

// StartRebuild reconstructs the first failed member onto a hot spare. The
// job runs in the background; callers wanting to block use Done.
func (a *Array) StartRebuild() (*RebuildJob, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.healthState() == Failed {
		return nil, ErrArrayFailed
	}
	if j := a.job; j != nil && j.State() == RebuildRunning {
		return nil, ErrRebuildInProgress
	}
	slot := -1
	for i, d := range a.members() {
		if d.failed() {
			slot = i
			break
		}
	}
	if slot < 0 {
		return nil, ErrNoFailedDrive
	}
	sp := a.takeSpareLocked()
	if sp == nil {
		return nil, ErrNoSpare
	}
	return a.startRebuildLocked(slot, sp), nil
}

// takeSpareLocked detaches the first healthy hot spare, nil when none.
func (a *Array) takeSpareLocked() *Drive {
	for i, sp := range a.spares() {
		if sp.failed() {
			continue
		}
		a.drives = append(a.drives[:a.width+i], a.drives[a.width+i+1:]...)
		return sp
	}
	return nil
}

func (a *Array) startRebuildLocked(slot int, replacement *Drive) *RebuildJob {
	j := &RebuildJob{
		ID:            uuid.NewString(),
		FailedDriveID: a.members()[slot].id,
		ReplacementID: replacement.id,
		slot:          slot,
		replacement:   replacement,
		total:         a.SectorCount,
		progress:      atomic.NewInt64(0),
		state:         atomic.NewInt32(int32(RebuildRunning)),
		done:          make(chan struct{}),
	}
	a.job = j
	a.rebuildPct.Store(0)
	a.setHealthLocked(Rebuilding)
	a.emit(SeverityInfo, "rebuild", "rebuild %s started: drive %d -> drive %d",
		j.ID, j.FailedDriveID, j.ReplacementID)
	go a.runRebuild(j)
	return j
}

// runRebuild migrates one sector per pass. Every pass takes the array
// guard, reads the live surviving-drive content (never a snapshot) and
// releases the guard before the pacing delay, so foreground reads and
// writes only ever wait for the actual sector copy.
func (a *Array) runRebuild(j *RebuildJob) {
	defer close(j.done)
	for sector := 0; sector < j.total; sector++ {
		a.mu.Lock()
		if j.State() != RebuildRunning {
			a.mu.Unlock()
			return
		}
		content, role, err := a.policy.reconstruct(a.members(), j.slot, sector)
		if err != nil {
			a.abortRebuildLocked(err.Error())
			a.mu.Unlock()
			return
		}
		if block, ok := a.policy.blockAt(j.slot, sector); ok {
			if block < a.blockCount() {
				// strip the XOR padding back to the block's true size
				size := a.blockSizes[block]
				content = padBlock(content, size)[:size]
			} else {
				content, role = nil, RoleEmpty
			}
		}
		if role != RoleEmpty {
			if err := j.replacement.writeSector(sector, content, role); err != nil {
				a.abortRebuildLocked(err.Error())
				a.mu.Unlock()
				return
			}
		}
		j.cursor = sector + 1
		pct := int64(sector+1) * 100 / int64(j.total)
		j.progress.Store(pct)
		a.rebuildPct.Store(pct)
		a.emit(SeverityInfo, "rebuild", "rebuild %s: sector %d/%d (%d%%)",
			j.ID, sector+1, j.total, pct)
		delay := a.rebuildDelay
		a.mu.Unlock()
		if delay > 0 {
			time.Sleep(delay)
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if j.State() != RebuildRunning {
		return
	}
	j.state.Store(int32(RebuildCompleted))
	// the replacement's identity supersedes the failed drive's slot
	a.drives[j.slot] = j.replacement
	a.job = nil
	a.rebuildPct.Store(-1)
	if a.failedMembers() > 0 {
		a.setHealthLocked(Degraded)
	} else {
		a.setHealthLocked(Healthy)
	}
	a.emit(SeverityInfo, "rebuild", "rebuild %s completed: drive %d replaces drive %d",
		j.ID, j.ReplacementID, j.FailedDriveID)
}
