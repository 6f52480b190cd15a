package merkle

import (
	"errors"
	"fmt"
	"math"
)

// ErrCorruptLayer marks a piece layer that cannot have been produced for its
// file's size and piece size. A single corrupt layer aborts a whole merge:
// the target piece size and tree shape depend on consistent inputs.
var ErrCorruptLayer = errors.New("corrupt piece layer")

// Raise re-expresses a file's piece layer at a larger piece size without
// re-hashing content. layer is the file's bottom layer at pieceSize, fileSize
// the file's content length, and target the wanted piece size: a power-of-two
// multiple of pieceSize. Files small enough to have no layer (at most one
// piece) pass through as nil; their root hash stands alone.
//
// The layer is padded on the right to a full binary tree level using the pad
// value derived from this file's own block count, then combined pairwise one
// level at a time until the target granularity is reached. Trailing entries
// equal to the running pad value are artifacts of padding and are stripped
// from the result.
func Raise(layer []Hash, pieceSize, target, fileSize int64) ([]Hash, error) {
	if pieceSize < BlockSize || pieceSize&(pieceSize-1) != 0 {
		return nil, fmt.Errorf("invalid piece size %d", pieceSize)
	}
	if target < pieceSize || target&(target-1) != 0 {
		return nil, fmt.Errorf("cannot raise piece size %d to %d", pieceSize, target)
	}

	if len(layer) == 0 {
		return nil, nil
	}
	if pieceSize == target {
		return layer, nil
	}
	// A file no larger than one target piece stores no layer at all: its
	// root hash is the only node the coarser tree keeps.
	if fileSize <= target {
		pieces := (fileSize + pieceSize - 1) / pieceSize
		if int64(len(layer)) != pieces {
			return nil, fmt.Errorf("%w: %d hashes for %d bytes at piece size %d (want %d)",
				ErrCorruptLayer, len(layer), fileSize, pieceSize, pieces)
		}
		return nil, nil
	}

	pieces := (fileSize + pieceSize - 1) / pieceSize
	if pieces > math.MaxInt32 {
		return nil, fmt.Errorf("%w: %d pieces of %d bytes", ErrCorruptLayer, pieces, pieceSize)
	}
	if int64(len(layer)) != pieces {
		return nil, fmt.Errorf("%w: %d hashes for %d bytes at piece size %d (want %d)",
			ErrCorruptLayer, len(layer), fileSize, pieceSize, pieces)
	}

	// Pad value for one node at the piece level of this file's tree.
	pad := PadHash(pieceSize/BlockSize, 1)

	full := make([]Hash, NextPow2(pieces))
	copy(full, layer)
	for i := pieces; i < int64(len(full)); i++ {
		full[i] = pad
	}

	for pieceSize < target {
		full = CombineLevel(full)
		pad = Combine(pad, pad)
		pieceSize *= 2
	}

	for len(full) > 0 && full[len(full)-1] == pad {
		full = full[:len(full)-1]
	}
	if len(full) == 0 {
		return nil, nil
	}
	return full, nil
}
