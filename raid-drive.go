package raidsim

// Sector is the smallest addressable content unit within a drive.
type Sector struct {
	Index   int
	Role    SectorRole
	Content []byte
}

// Drive wraps a fixed-capacity sector store with identity and health.
// Drives are owned exclusively by the array and are never locked on their
// own; every access runs under the array guard.
type Drive struct {
	id      int
	health  DriveHealth
	sectors []Sector
}

func newDrive(id, sectorCount int) *Drive {
	d := &Drive{id: id, sectors: make([]Sector, sectorCount)}
	for i := range d.sectors {
		d.sectors[i].Index = i
	}
	return d
}

func (d *Drive) ID() int { return d.id }

func (d *Drive) Health() DriveHealth { return d.health }

func (d *Drive) failed() bool { return d.health == DriveFailed }

// writeSector overwrites the sector content and role.
func (d *Drive) writeSector(index int, content []byte, role SectorRole) error {
	if d.failed() {
		return &DriveError{ID: d.id, Cause: ErrDriveFailedState.Error()}
	}
	if index < 0 || index >= len(d.sectors) {
		return ErrSectorOutOfRange
	}
	d.sectors[index].Content = append(d.sectors[index].Content[:0], content...)
	d.sectors[index].Role = role
	return nil
}

// readSector returns a copy of the sector content and its role.
func (d *Drive) readSector(index int) ([]byte, SectorRole, error) {
	if d.failed() {
		return nil, RoleEmpty, &DriveError{ID: d.id, Cause: ErrDriveFailedState.Error()}
	}
	if index < 0 || index >= len(d.sectors) {
		return nil, RoleEmpty, ErrSectorOutOfRange
	}
	s := &d.sectors[index]
	content := make([]byte, len(s.Content))
	copy(content, s.Content)
	return content, s.Role, nil
}

// markFailed is idempotent and reports whether the state actually changed.
func (d *Drive) markFailed() bool {
	if d.failed() {
		return false
	}
	d.health = DriveFailed
	return true
}

func (d *Drive) usedSectors() int {
	used := 0
	for i := range d.sectors {
		if d.sectors[i].Role != RoleEmpty {
			used++
		}
	}
	return used
}

// SectorSnapshot is the read-only view of one sector.
type SectorSnapshot struct {
	Index   int
	Role    string
	Content []byte
}

// DriveSnapshot is the read-only view the persistence collaborator renders.
type DriveSnapshot struct {
	ID          int
	Health      string
	SectorCount int
	UsedSectors int
	Spare       bool
	Sectors     []SectorSnapshot
}

func (d *Drive) snapshot(spare bool) DriveSnapshot {
	snap := DriveSnapshot{
		ID:          d.id,
		Health:      d.health.String(),
		SectorCount: len(d.sectors),
		UsedSectors: d.usedSectors(),
		Spare:       spare,
		Sectors:     make([]SectorSnapshot, 0, len(d.sectors)),
	}
	for i := range d.sectors {
		s := &d.sectors[i]
		content := make([]byte, len(s.Content))
		copy(content, s.Content)
		snap.Sectors = append(snap.Sectors, SectorSnapshot{
			Index:   s.Index,
			Role:    s.Role.String(),
			Content: content,
		})
	}
	return snap
}
