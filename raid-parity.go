package raidsim

// CalculateParity zero-pads every block to the longest one and folds them
// with byte-wise XOR. The fold is its own inverse: XORing the parity with
// all blocks but one yields the missing block, which is exactly what
// degraded reads and rebuilds rely on.
func CalculateParity(blocks [][]byte) []byte {
	longest := 0
	for _, b := range blocks {
		if len(b) > longest {
			longest = len(b)
		}
	}
	parity := make([]byte, longest)
	for _, b := range blocks {
		for i, v := range b {
			parity[i] ^= v
		}
	}
	return parity
}

// padBlock returns b zero-extended to size. b is returned as-is when it is
// already long enough.
func padBlock(b []byte, size int) []byte {
	if len(b) >= size {
		return b
	}
	padded := make([]byte, size)
	copy(padded, b)
	return padded
}
