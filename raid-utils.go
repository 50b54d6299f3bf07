package raidsim

import "math/rand"

// splitBlocks cuts data into blockSize chunks; the last one may be short.
func splitBlocks(data []byte, blockSize int) [][]byte {
	var out [][]byte
	for len(data) > blockSize {
		out = append(out, data[:blockSize])
		data = data[blockSize:]
	}
	return append(out, data)
}

// ceilFracInt returns ceiling of a/b.
func ceilFracInt(a, b int) int {
	return (a + b - 1) / b
}

// genRandomArr returns a random permutation of [0, n).
func genRandomArr(n int) []int {
	return rand.Perm(n)
}
