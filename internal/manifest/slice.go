package manifest

import (
	"errors"
	"fmt"
)

// ErrMisalignedFile marks a file whose byte offset does not fall on a piece
// boundary. A piece shared by two files cannot be re-sliced without
// corrupting both, so edits refuse such torrents outright.
var ErrMisalignedFile = errors.New("misaligned file")

// PieceRange is a half-open [Start, End) range of global piece indices.
type PieceRange struct {
	Start, End int64
}

// Len returns the number of pieces in the range.
func (r PieceRange) Len() int64 { return r.End - r.Start }

// Slicer maps byte ranges of a fixed-piece-size manifest onto piece index
// ranges, so a file's hashes can be carved out of a flat piece list without
// re-hashing. Piece size never changes during a slice; raising granularity
// is the merger's job.
type Slicer struct {
	PieceSize int64
}

// FileRange returns the piece range covering a file at the given byte
// offset. The offset must fall on a piece boundary; only the end of the
// final file in a manifest may land mid-piece, which a ceiling division on
// the last partial piece accounts for.
func (s Slicer) FileRange(offset, length int64) (PieceRange, error) {
	if s.PieceSize <= 0 {
		return PieceRange{}, fmt.Errorf("invalid piece size %d", s.PieceSize)
	}
	if offset%s.PieceSize != 0 {
		return PieceRange{}, fmt.Errorf("%w: offset %d is not a multiple of piece size %d",
			ErrMisalignedFile, offset, s.PieceSize)
	}
	start := offset / s.PieceSize
	end := (offset + length + s.PieceSize - 1) / s.PieceSize
	if length == 0 {
		end = start
	}
	return PieceRange{Start: start, End: end}, nil
}

// Cut extracts the hashes for r from a flat hash list of the given stride
// (20 for v1 SHA-1 pieces, 32 for a compact v2 layer).
func Cut(flat []byte, stride int, r PieceRange) ([]byte, error) {
	lo := r.Start * int64(stride)
	hi := r.End * int64(stride)
	if lo < 0 || hi > int64(len(flat)) || lo > hi {
		return nil, fmt.Errorf("piece range [%d, %d) outside hash list of %d entries",
			r.Start, r.End, len(flat)/stride)
	}
	return flat[lo:hi], nil
}

// NextBoundary rounds offset up to the next piece boundary. Hybrid torrents
// place pad files after every non-final file, so each file's v1 offset is
// the previous file's end rounded up.
func (s Slicer) NextBoundary(offset int64) int64 {
	return (offset + s.PieceSize - 1) / s.PieceSize * s.PieceSize
}
