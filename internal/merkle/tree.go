package merkle

import "fmt"

// PadHash derives the synthetic hash used to fill missing siblings one level
// above the leaves, for a file with the given number of real content blocks
// when pieces leaves are materialized (pieces ≤ blocks, pieces a power of
// two ≥ 1). Starting from the all-zero leaf pad, it self-combines once per
// doubling until the materialized leaf count covers all blocks. Each file's
// pad must be derived from that file's own block count.
func PadHash(blocks, pieces int64) Hash {
	if pieces > blocks {
		panic(fmt.Sprintf("merkle: pad hash for %d pieces over %d blocks", pieces, blocks))
	}
	var pad Hash
	for pieces < blocks {
		pad = Combine(pad, pad)
		pieces *= 2
	}
	return pad
}

// NextPow2 returns the smallest power of two ≥ n. n must be ≥ 1 and small
// enough that the result is addressable as a slice length; violating either
// is a programming error, not an input error.
func NextPow2(n int64) int64 {
	if n < 1 {
		panic("merkle: NextPow2 of non-positive count")
	}
	if n > 1<<62 {
		panic("merkle: leaf count overflow")
	}
	p := int64(1)
	for p < n {
		p <<= 1
	}
	return p
}

// CombineLevel hashes each adjacent pair of nodes, producing the parent
// layer at half the length. The layer length must be even.
func CombineLevel(layer []Hash) []Hash {
	if len(layer)%2 != 0 {
		panic(fmt.Sprintf("merkle: combining odd layer of %d nodes", len(layer)))
	}
	parent := make([]Hash, len(layer)/2)
	for i := range parent {
		parent[i] = Combine(layer[2*i], layer[2*i+1])
	}
	return parent
}

// Root computes the merkle root of a leaf layer, padding on the right with
// the all-zero hash up to the next power of two. An empty layer has the
// all-zero root.
func Root(leaves []Hash) Hash {
	if len(leaves) == 0 {
		return Hash{}
	}
	return RootWithPad(leaves, Hash{})
}

// RootWithPad computes the merkle root of a layer whose missing right-hand
// siblings are filled with pad. The pad must be the correct value for the
// layer's depth: the zero hash at the leaf level, or PadHash of the file's
// block count for a piece layer.
func RootWithPad(layer []Hash, pad Hash) Hash {
	if len(layer) == 0 {
		return pad
	}
	n := NextPow2(int64(len(layer)))
	full := make([]Hash, n)
	copy(full, layer)
	for i := int64(len(layer)); i < n; i++ {
		full[i] = pad
	}
	for len(full) > 1 {
		full = CombineLevel(full)
	}
	return full[0]
}
