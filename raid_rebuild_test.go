package raidsim

import (
	"bytes"
	"testing"
)

func TestRebuildRestoresFailedDriveContent(t *testing.T) {
	for _, level := range []string{"raid1", "raid5"} {
		for _, dn := range testDriveNums[level] {
			arr := newTestArray(t, level, dn, 16, 4, 0)
			data := generateRandomData(23)
			if err := arr.Write(data); err != nil {
				t.Fatalf("level:%s,dn:%d,%s", level, dn, err.Error())
			}
			if err := arr.HandleDriveFailure(1); err != nil {
				t.Fatalf("level:%s,dn:%d,%s", level, dn, err.Error())
			}
			if _, err := arr.AddDrive(); err != nil {
				t.Fatalf("level:%s,dn:%d,%s", level, dn, err.Error())
			}
			waitHealth(t, arr, Healthy)
			got, err := arr.Read()
			if err != nil {
				t.Fatalf("level:%s,dn:%d,%s", level, dn, err.Error())
			}
			if !bytes.Equal(got, data) {
				t.Fatalf("level:%s,dn:%d,read %q after rebuild, want %q", level, dn, got, data)
			}
			verifyParityInvariant(t, arr)

			// the replacement must carry real content, not rely on the
			// survivors: fail another original member and read again
			if err := arr.HandleDriveFailure(0); err != nil {
				t.Fatalf("level:%s,dn:%d,%s", level, dn, err.Error())
			}
			got, err = arr.Read()
			if err != nil {
				t.Fatalf("level:%s,dn:%d,%s", level, dn, err.Error())
			}
			if !bytes.Equal(got, data) {
				t.Fatalf("level:%s,dn:%d,degraded read %q, want %q", level, dn, got, data)
			}
		}
	}
}

func TestRebuildJobLifecycle(t *testing.T) {
	arr := newTestArray(t, "raid5", 4, 16, 4, 5)
	if err := arr.Write(generateRandomData(30)); err != nil {
		t.Fatal(err)
	}
	if err := arr.HandleDriveFailure(2); err != nil {
		t.Fatal(err)
	}
	replacementID, err := arr.AddDrive()
	if err != nil {
		t.Fatal(err)
	}
	j := arr.ActiveRebuild()
	if j == nil {
		t.Fatal("no active rebuild after adding a replacement to a degraded array")
	}
	if j.FailedDriveID != 2 || j.ReplacementID != replacementID {
		t.Fatalf("job covers drive %d -> %d, want 2 -> %d",
			j.FailedDriveID, j.ReplacementID, replacementID)
	}
	if j.State() != RebuildRunning {
		t.Fatalf("job state is %s, want running", j.State())
	}
	waitJob(t, j)
	if j.State() != RebuildCompleted {
		t.Fatalf("job state is %s, want completed", j.State())
	}
	if j.Progress() != 100 {
		t.Fatalf("job progress is %d, want 100", j.Progress())
	}
	waitHealth(t, arr, Healthy)
	if arr.ActiveRebuild() != nil {
		t.Fatal("completed job still registered as active")
	}
	if pct := arr.RebuildProgress(); pct != -1 {
		t.Fatalf("idle rebuild progress is %d, want -1", pct)
	}
}

func TestWriteDuringRebuildReachesReplacement(t *testing.T) {
	arr := newTestArray(t, "raid1", 2, 16, 4, 5)
	before := generateRandomData(12)
	if err := arr.Write(before); err != nil {
		t.Fatal(err)
	}
	if err := arr.HandleDriveFailure(0); err != nil {
		t.Fatal(err)
	}
	if _, err := arr.AddDrive(); err != nil {
		t.Fatal(err)
	}
	j := arr.ActiveRebuild()
	if j == nil {
		t.Fatal("no active rebuild")
	}
	during := generateRandomData(12)
	if err := arr.Write(during); err != nil {
		t.Fatal(err)
	}
	waitJob(t, j)
	waitHealth(t, arr, Healthy)

	// drop the surviving original mirror; every block must now come off
	// the replacement alone
	if err := arr.HandleDriveFailure(1); err != nil {
		t.Fatal(err)
	}
	got, err := arr.Read()
	if err != nil {
		t.Fatal(err)
	}
	want := append(append([]byte{}, before...), during...)
	if !bytes.Equal(got, want) {
		t.Fatalf("read %q from replacement, want %q", got, want)
	}
}

func TestSecondFailureDuringRebuildIsFatal(t *testing.T) {
	arr := newTestArray(t, "raid5", 3, 16, 4, 20)
	if err := arr.Write(generateRandomData(20)); err != nil {
		t.Fatal(err)
	}
	if err := arr.HandleDriveFailure(0); err != nil {
		t.Fatal(err)
	}
	if _, err := arr.AddDrive(); err != nil {
		t.Fatal(err)
	}
	j := arr.ActiveRebuild()
	if j == nil {
		t.Fatal("no active rebuild")
	}
	if err := arr.HandleDriveFailure(1); err != nil {
		t.Fatal(err)
	}
	waitJob(t, j)
	if j.State() != RebuildAborted {
		t.Fatalf("job state is %s, want aborted", j.State())
	}
	if arr.Health() != Failed {
		t.Fatalf("array health is %s, want FAILED", arr.Health())
	}
	if _, err := arr.Read(); err != ErrArrayFailed {
		t.Fatalf("read on failed array returned %v, want %v", err, ErrArrayFailed)
	}
	if _, err := arr.StartRebuild(); err != ErrArrayFailed {
		t.Fatalf("rebuild on failed array returned %v, want %v", err, ErrArrayFailed)
	}
}

func TestReplacementFailureFallsBackToDegraded(t *testing.T) {
	arr := newTestArray(t, "raid5", 3, 16, 4, 20)
	data := generateRandomData(20)
	if err := arr.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := arr.HandleDriveFailure(1); err != nil {
		t.Fatal(err)
	}
	replacementID, err := arr.AddDrive()
	if err != nil {
		t.Fatal(err)
	}
	j := arr.ActiveRebuild()
	if j == nil {
		t.Fatal("no active rebuild")
	}
	// a spare attached mid-rebuild stays on the bench
	spareID, err := arr.AddDrive()
	if err != nil {
		t.Fatal(err)
	}
	if got := arr.ActiveRebuild(); got != j {
		t.Fatal("attaching a spare mid-rebuild replaced the running job")
	}
	if err := arr.HandleDriveFailure(replacementID); err != nil {
		t.Fatal(err)
	}
	waitJob(t, j)
	if j.State() != RebuildAborted {
		t.Fatalf("job state is %s, want aborted", j.State())
	}
	if arr.Health() != Degraded {
		t.Fatalf("array health is %s, want DEGRADED", arr.Health())
	}
	got, err := arr.Read()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("degraded read %q, want %q", got, data)
	}

	// the benched spare finishes the job through an explicit restart
	j2, err := arr.StartRebuild()
	if err != nil {
		t.Fatal(err)
	}
	if j2.ReplacementID != spareID {
		t.Fatalf("restart picked drive %d, want spare %d", j2.ReplacementID, spareID)
	}
	waitJob(t, j2)
	waitHealth(t, arr, Healthy)
	got, err = arr.Read()
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("read %q after second rebuild, want %q", got, data)
	}
	verifyParityInvariant(t, arr)
}

func TestStartRebuildErrors(t *testing.T) {
	arr := newTestArray(t, "raid5", 3, 16, 4, 20)
	if _, err := arr.StartRebuild(); err != ErrNoFailedDrive {
		t.Fatalf("rebuild on healthy array returned %v, want %v", err, ErrNoFailedDrive)
	}
	if err := arr.HandleDriveFailure(0); err != nil {
		t.Fatal(err)
	}
	if _, err := arr.StartRebuild(); err != ErrNoSpare {
		t.Fatalf("rebuild without a spare returned %v, want %v", err, ErrNoSpare)
	}
	if _, err := arr.AddDrive(); err != nil {
		t.Fatal(err)
	}
	j := arr.ActiveRebuild()
	if j == nil {
		t.Fatal("no active rebuild")
	}
	if _, err := arr.StartRebuild(); err != ErrRebuildInProgress {
		t.Fatalf("second rebuild returned %v, want %v", err, ErrRebuildInProgress)
	}
	waitJob(t, j)
}
