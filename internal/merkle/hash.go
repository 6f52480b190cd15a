package merkle

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// HashSize is the size of a SHA-256 digest in bytes.
const HashSize = sha256.Size

// BlockSize is the leaf block size of a v2 merkle tree. Fixed by the
// BitTorrent v2 format, independent of the piece size.
const BlockSize = 16384

// Hash is a SHA-256 digest. Compared by value; the zero Hash is the
// leaf-level pad value.
type Hash [HashSize]byte

// Hex returns the lowercase hex form used in diagnostics and display.
func (h Hash) Hex() string {
	return hex.EncodeToString(h[:])
}

// IsZero reports whether h is the all-zero hash.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// Combine hashes the concatenation of two sibling nodes, producing their
// parent node.
func Combine(left, right Hash) Hash {
	d := sha256.New()
	d.Write(left[:])
	d.Write(right[:])
	var out Hash
	d.Sum(out[:0])
	return out
}

// Sum hashes one leaf block of content.
func Sum(block []byte) Hash {
	return sha256.Sum256(block)
}

// SplitLayer converts a compact layer (32-byte hashes concatenated with no
// separators, as stored in a torrent's "piece layers" dictionary) into a
// hash slice.
func SplitLayer(raw []byte) ([]Hash, error) {
	if len(raw)%HashSize != 0 {
		return nil, fmt.Errorf("compact layer length %d is not a multiple of %d", len(raw), HashSize)
	}
	layer := make([]Hash, len(raw)/HashSize)
	for i := range layer {
		copy(layer[i][:], raw[i*HashSize:])
	}
	return layer, nil
}

// JoinLayer is the inverse of SplitLayer.
func JoinLayer(layer []Hash) []byte {
	raw := make([]byte, 0, len(layer)*HashSize)
	for _, h := range layer {
		raw = append(raw, h[:]...)
	}
	return raw
}
