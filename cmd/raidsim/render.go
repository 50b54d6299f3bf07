package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/raidfs/raidsim"
)

// renderDrive formats a drive snapshot the way the demonstration drive
// files look on disk: a banner, a metadata block and an ASCII sector table.
func renderDrive(snap raidsim.DriveSnapshot) string {
	var b strings.Builder
	bar := strings.Repeat("=", 50)
	fmt.Fprintf(&b, "%s\n", bar)
	fmt.Fprintf(&b, "RAID DRIVE %d - DEMONSTRATION FILE\n", snap.ID)
	fmt.Fprintf(&b, "%s\n\n", bar)
	fmt.Fprintf(&b, "METADATA:\n")
	fmt.Fprintf(&b, "Drive ID: %d\n", snap.ID)
	fmt.Fprintf(&b, "Status: %s\n", snap.Health)
	if snap.Spare {
		fmt.Fprintf(&b, "Role: hot spare\n")
	}
	fmt.Fprintf(&b, "Used Sectors: %d/%d\n\n", snap.UsedSectors, snap.SectorCount)
	fmt.Fprintf(&b, "BLOCK DIAGRAM:\n")
	fmt.Fprintf(&b, "+--------+--------+--------+----------+\n")
	fmt.Fprintf(&b, "| Sector | Block  | Type   | Data     |\n")
	fmt.Fprintf(&b, "+--------+--------+--------+----------+\n")
	for _, s := range snap.Sectors {
		if s.Role == "EMPTY" {
			continue
		}
		preview := string(s.Content)
		if len(preview) > 8 {
			preview = preview[:8]
		}
		fmt.Fprintf(&b, "|   %2d   | Block%2d | %-6s | %-8s |\n", s.Index, s.Index, s.Role, preview)
	}
	fmt.Fprintf(&b, "+--------+--------+--------+----------+\n")
	return b.String()
}

func writeDriveFile(dir string, snap raidsim.DriveSnapshot) error {
	path := filepath.Join(dir, fmt.Sprintf("disk_%d", snap.ID))
	return os.WriteFile(path, []byte(renderDrive(snap)), 0666)
}

// refreshDriveFiles re-renders every drive file. A failing render is an
// unclassified collaborator error, so the array is conservatively stopped
// instead of carrying on.
func refreshDriveFiles(arr *raidsim.Array, dir string) {
	for _, id := range arr.DriveIDs() {
		snap, err := arr.DriveView(id)
		if err != nil {
			continue
		}
		if err := writeDriveFile(dir, snap); err != nil {
			arr.Fail("persistence collaborator error: " + err.Error())
			fmt.Println("error:", err)
			return
		}
	}
}

func printStatus(st raidsim.ArrayStatus, progress int) {
	fmt.Printf("%s array, %s, %d member drives, block size %d, %d blocks written\n",
		st.Level, st.Health, st.Width, st.BlockSize, st.Blocks)
	if !st.LastWrite.IsZero() {
		fmt.Printf("last write: %s\n", st.LastWrite.Format("2006-01-02 15:04:05"))
	}
	if st.Rebuild != nil {
		fmt.Printf("rebuild %s: drive %d -> drive %d, %d%% (%s)\n",
			st.Rebuild.ID, st.Rebuild.FailedDriveID, st.Rebuild.ReplacementID,
			progress, st.Rebuild.State)
	}
	for _, d := range st.Drives {
		kind := "member"
		if d.Spare {
			kind = "spare"
		}
		fmt.Printf("  drive %d (%s): %s, %d/%d sectors used\n",
			d.ID, kind, d.Health, d.UsedSectors, d.SectorCount)
	}
}
