package raidsim

import (
	"errors"
	"fmt"
)

// DriveError reports an operation against a drive that cannot serve it.
type DriveError struct {
	ID    int
	Cause string
}

func (e *DriveError) Error() string {
	return fmt.Sprintf("drive %d is not available for: %s", e.ID, e.Cause)
}

// Error definitions

var ErrUnknownLevel = errors.New("unrecognized raid level, one of (raid0, raid1, raid5)")

var ErrInsufficientDrives = errors.New("too few drives for the raid level")

var ErrDriveNotFound = errors.New("drive not found")

var ErrDriveAlreadyFailed = errors.New("drive already reported failed")

var ErrDriveFailedState = errors.New("drive is failed")

var ErrArrayFailed = errors.New("array has failed, data is lost")

var ErrRebuildAborted = errors.New("too few surviving drives to reconstruct, data renders unrecoverable")

var ErrRebuildInProgress = errors.New("a rebuild is already running on this array")

var ErrNoSpare = errors.New("no replacement drive available, add one first")

var ErrNoFailedDrive = errors.New("no failed drive to rebuild")

var ErrSectorOutOfRange = errors.New("sector index out of range")

var ErrBlockOutOfRange = errors.New("logical block index out of range")

var ErrArrayNotHealthy = errors.New("operation needs a healthy array")

var ErrStripeMember = errors.New("drive carries striped data, only an empty array may shrink")
