package raidsim

import (
	"math/rand"
	"testing"
	"time"
)

// shared test settings
var (
	testDriveNums = map[string][]int{
		"raid0": {2, 3, 4},
		"raid1": {2, 3, 4},
		"raid5": {3, 4, 5},
	}
	testBlockSizes = []int{1, 2, 4, 8}
)

func newTestArray(t *testing.T, level string, drives, sectors, blockSize, delayMs int) *Array {
	t.Helper()
	arr, err := NewArray(&Options{
		Level:          level,
		DriveCount:     drives,
		SectorCount:    sectors,
		BlockSize:      blockSize,
		RebuildDelayMs: delayMs,
	})
	if err != nil {
		t.Fatalf("level:%s,dn:%d,bs:%d,%s", level, drives, blockSize, err.Error())
	}
	return arr
}

func generateRandomData(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte('A' + rand.Intn(26))
	}
	return data
}

func waitHealth(t *testing.T, a *Array, want ArrayHealth) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if a.Health() == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("array health is %s, want %s", a.Health(), want)
}

func waitJob(t *testing.T, j *RebuildJob) {
	t.Helper()
	select {
	case <-j.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("rebuild did not finish in time")
	}
}

// verifyParityInvariant checks that every raid5 stripe's parity sector is
// the XOR fold of the stripe's data sectors.
func verifyParityInvariant(t *testing.T, a *Array) {
	t.Helper()
	if a.Level != Raid5 {
		return
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	k := a.width - 1
	stripes := ceilFracInt(a.blockCount(), k)
	for stripe := 0; stripe < stripes; stripe++ {
		var blocks [][]byte
		for j := 0; j < k; j++ {
			bb := stripe*k + j
			if bb >= a.blockCount() {
				continue
			}
			pl := a.policy.locate(bb)[0]
			c, _, err := a.members()[pl.slot].readSector(pl.sector)
			if err != nil {
				t.Fatalf("stripe %d: %s", stripe, err.Error())
			}
			blocks = append(blocks, c)
		}
		want := CalculateParity(blocks)
		got, role, err := a.members()[stripe%a.width].readSector(stripe)
		if err != nil {
			t.Fatalf("stripe %d: %s", stripe, err.Error())
		}
		if role != RoleParity {
			t.Fatalf("stripe %d: parity sector role is %s, want PARITY", stripe, role)
		}
		if string(padBlock(got, len(want))[:len(want)]) != string(want) {
			t.Fatalf("stripe %d: parity %q does not match xor fold %q", stripe, got, want)
		}
	}
}
