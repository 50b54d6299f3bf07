package raidsim

import (
	"time"

	"github.com/klauspost/reedsolomon"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
)

// NewArray builds the session's array: one drive per configured slot, the
// layout policy for the level and, for raid5, the single-parity encoder the
// scrub path cross-checks stripes with.
func NewArray(opt *Options) (*Array, error) {
	if opt == nil {
		opt = DefaultOptions()
	}
	level, err := ParseLevel(opt.Level)
	if err != nil {
		return nil, err
	}
	width := opt.DriveCount
	policy, err := newLayoutPolicy(level, width)
	if err != nil {
		return nil, err
	}
	blockSize := opt.BlockSize
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	sectorCount := opt.SectorCount
	if sectorCount <= 0 {
		sectorCount = defaultSectorCount
	}
	a := &Array{
		Level:        level,
		BlockSize:    blockSize,
		SectorCount:  sectorCount,
		width:        width,
		policy:       policy,
		health:       atomic.NewInt32(int32(Healthy)),
		rebuildPct:   atomic.NewInt64(-1),
		rebuildDelay: opt.RebuildDelay(),
		events:       make(chan Event, eventBufferSize),
	}
	a.errgroupPool.New = func() interface{} {
		return &errgroup.Group{}
	}
	for i := 0; i < width; i++ {
		a.drives = append(a.drives, newDrive(a.nextID, sectorCount))
		a.nextID++
	}
	if level == Raid5 {
		a.enc, err = reedsolomon.New(width-1, 1,
			reedsolomon.WithFastOneParityMatrix(),
			reedsolomon.WithAutoGoroutines(blockSize),
		)
		if err != nil {
			return nil, err
		}
	}
	a.emit(SeverityInfo, "array", "%s array initialized: %d drives, %d sectors/drive, block size %d",
		level, width, sectorCount, blockSize)
	return a, nil
}

// members are the drives participating in the layout; the tail of the
// drives slice holds hot spares.
func (a *Array) members() []*Drive { return a.drives[:a.width] }

func (a *Array) spares() []*Drive { return a.drives[a.width:] }

func (a *Array) healthState() ArrayHealth { return ArrayHealth(a.health.Load()) }

func (a *Array) setHealthLocked(h ArrayHealth) {
	old := a.healthState()
	if old == h {
		return
	}
	a.health.Store(int32(h))
	a.emit(SeverityInfo, "state", "array health: %s -> %s", old, h)
}

// Health is safe to poll without the array guard.
func (a *Array) Health() ArrayHealth { return a.healthState() }

// RebuildProgress is the active rebuild's percentage, -1 when idle. Safe to
// poll without the array guard.
func (a *Array) RebuildProgress() int { return int(a.rebuildPct.Load()) }

func (a *Array) memberSlotByID(id int) (int, *Drive) {
	for i, d := range a.members() {
		if d.id == id {
			return i, d
		}
	}
	return -1, nil
}

func (a *Array) failedMembers() int {
	n := 0
	for _, d := range a.members() {
		if d.failed() {
			n++
		}
	}
	return n
}

func (a *Array) blockCount() int { return len(a.blockSizes) }

func (a *Array) getErrGroup() *errgroup.Group {
	return a.errgroupPool.Get().(*errgroup.Group)
}

// DriveStatus summarizes one drive for the status surface.
type DriveStatus struct {
	ID          int
	Health      string
	UsedSectors int
	SectorCount int
	Spare       bool
}

// RebuildStatus summarizes the active rebuild, if any.
type RebuildStatus struct {
	ID            string
	FailedDriveID int
	ReplacementID int
	Progress      int
	State         string
}

// ArrayStatus is the read-only summary behind the status command.
type ArrayStatus struct {
	Level       string
	Health      string
	Width       int
	BlockSize   int
	SectorCount int
	Blocks      int
	LastWrite   time.Time
	Rebuild     *RebuildStatus
	Drives      []DriveStatus
}

// Status snapshots the array and drive health.
func (a *Array) Status() ArrayStatus {
	a.mu.RLock()
	defer a.mu.RUnlock()
	st := ArrayStatus{
		Level:       a.Level.String(),
		Health:      a.healthState().String(),
		Width:       a.width,
		BlockSize:   a.BlockSize,
		SectorCount: a.SectorCount,
		Blocks:      a.blockCount(),
		LastWrite:   a.lastWrite,
	}
	for _, d := range a.members() {
		st.Drives = append(st.Drives, DriveStatus{
			ID:          d.id,
			Health:      d.health.String(),
			UsedSectors: d.usedSectors(),
			SectorCount: len(d.sectors),
		})
	}
	for _, d := range a.spares() {
		st.Drives = append(st.Drives, DriveStatus{
			ID:          d.id,
			Health:      d.health.String(),
			UsedSectors: d.usedSectors(),
			SectorCount: len(d.sectors),
			Spare:       true,
		})
	}
	if j := a.job; j != nil {
		st.Rebuild = &RebuildStatus{
			ID:            j.ID,
			FailedDriveID: j.FailedDriveID,
			ReplacementID: j.ReplacementID,
			Progress:      j.Progress(),
			State:         j.State().String(),
		}
	}
	return st
}

// DriveView returns the read-only snapshot the persistence collaborator
// renders to a drive file. The core formats no text itself.
func (a *Array) DriveView(id int) (DriveSnapshot, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	for _, d := range a.members() {
		if d.id == id {
			return d.snapshot(false), nil
		}
	}
	for _, d := range a.spares() {
		if d.id == id {
			return d.snapshot(true), nil
		}
	}
	if j := a.job; j != nil && j.replacement.id == id {
		return j.replacement.snapshot(true), nil
	}
	return DriveSnapshot{}, ErrDriveNotFound
}

// DriveIDs lists every drive currently attached, members first.
func (a *Array) DriveIDs() []int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	ids := make([]int, 0, len(a.drives))
	for _, d := range a.drives {
		ids = append(ids, d.id)
	}
	if j := a.job; j != nil {
		ids = append(ids, j.replacement.id)
	}
	return ids
}

// Fail conservatively moves the array to Failed. It is the escape hatch for
// unclassified collaborator errors: no further operation may silently
// corrupt the simulated data.
func (a *Array) Fail(cause string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.healthState() == Failed {
		return
	}
	if j := a.job; j != nil && j.State() == RebuildRunning {
		j.state.Store(int32(RebuildAborted))
		a.job = nil
		a.rebuildPct.Store(-1)
	}
	a.setHealthLocked(Failed)
	a.warnDataLossLocked(cause)
}
