package raidsim

import (
	"strings"
	"sync"
	"time"

	"github.com/klauspost/reedsolomon"
	"go.uber.org/atomic"
)

// RaidLevel selects the layout policy of an array.
type RaidLevel int

const (
	Raid0 RaidLevel = iota // striping, no redundancy
	Raid1                  // mirroring
	Raid5                  // striping with rotating parity
)

func (l RaidLevel) String() string {
	switch l {
	case Raid0:
		return "RAID0"
	case Raid1:
		return "RAID1"
	case Raid5:
		return "RAID5"
	}
	return "RAID?"
}

// ParseLevel accepts "raid5", "RAID5" or a bare "5".
func ParseLevel(s string) (RaidLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "raid0", "0":
		return Raid0, nil
	case "raid1", "1":
		return Raid1, nil
	case "raid5", "5":
		return Raid5, nil
	}
	return 0, ErrUnknownLevel
}

// DriveHealth is the health state of a single drive.
type DriveHealth int

const (
	DriveActive DriveHealth = iota
	DriveFailed
)

func (h DriveHealth) String() string {
	if h == DriveFailed {
		return "failed"
	}
	return "active"
}

// ArrayHealth is the health state of the whole array, see HandleDriveFailure
// for the transitions between the states.
type ArrayHealth int32

const (
	Healthy ArrayHealth = iota
	Degraded
	Rebuilding
	Failed
)

func (h ArrayHealth) String() string {
	switch h {
	case Healthy:
		return "healthy"
	case Degraded:
		return "degraded"
	case Rebuilding:
		return "rebuilding"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// SectorRole tells whether a sector currently holds user data or parity.
type SectorRole int

const (
	RoleEmpty SectorRole = iota
	RoleData
	RoleParity
)

func (r SectorRole) String() string {
	switch r {
	case RoleData:
		return "DATA"
	case RoleParity:
		return "PARITY"
	}
	return "EMPTY"
}

// Array is the controller owning the drives and the layout policy.
// All mutating operations take mu; health and the active rebuild's progress
// are additionally mirrored into atomics so status polling never contends
// with a rebuild or a write.
type Array struct {
	Level       RaidLevel
	BlockSize   int
	SectorCount int // sectors per drive

	width  int      // stripe width, fixed at creation (raid1 may shrink)
	drives []*Drive // members occupy the first width slots, spares follow
	nextID int

	health     *atomic.Int32
	rebuildPct *atomic.Int64 // percent of the active rebuild, -1 when idle
	policy     layoutPolicy
	enc        reedsolomon.Encoder // raid5 scrub cross-check

	blockSizes []int // true byte length of every written logical block
	writeMark  int   // logical block offset of the most recent Write
	lastWrite  time.Time

	job        *RebuildJob
	lossWarned bool

	rebuildDelay time.Duration

	events       chan Event
	errgroupPool sync.Pool
	mu           sync.RWMutex
}

const (
	// DefaultBlockSize keeps the demonstration stripes readable.
	DefaultBlockSize = 4

	defaultSectorCount = 16
	eventBufferSize    = 1024
)
