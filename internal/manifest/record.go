// Package manifest holds the in-memory model of a v2 torrent: file records
// keyed by their merkle root, the merge algorithm that unifies records from
// several torrents at a single piece size, and the piece-range slicer used
// when editing a torrent in place.
package manifest

import (
	"fmt"
	"strings"

	"github.com/torrtool/torrtool/internal/merkle"
)

// MinPieceSize is the smallest piece size the v2 format allows.
const MinPieceSize = 16384

// ValidPieceSize reports whether n is a power of two of at least 16 KiB.
func ValidPieceSize(n int64) bool {
	return n >= MinPieceSize && n&(n-1) == 0
}

// Flags are per-file attribute bits, mirroring the torrent "attr" field.
type Flags uint8

const (
	FlagPad Flags = 1 << iota
	FlagExecutable
	FlagHidden
	FlagSymlink
)

// String renders the flags in ls-style columns: p, x, h, l.
func (f Flags) String() string {
	var b strings.Builder
	for _, c := range [...]struct {
		flag Flags
		ch   byte
	}{
		{FlagPad, 'p'},
		{FlagExecutable, 'x'},
		{FlagHidden, 'h'},
		{FlagSymlink, 'l'},
	} {
		if f&c.flag != 0 {
			b.WriteByte(c.ch)
		} else {
			b.WriteByte('-')
		}
	}
	return b.String()
}

// Attr renders the flags as a torrent "attr" value (set bits only).
func (f Flags) Attr() string {
	var b strings.Builder
	if f&FlagPad != 0 {
		b.WriteByte('p')
	}
	if f&FlagExecutable != 0 {
		b.WriteByte('x')
	}
	if f&FlagHidden != 0 {
		b.WriteByte('h')
	}
	if f&FlagSymlink != 0 {
		b.WriteByte('l')
	}
	return b.String()
}

// ParseAttr converts a torrent "attr" string into Flags. Unknown attribute
// characters are ignored.
func ParseAttr(s string) Flags {
	var f Flags
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case 'p':
			f |= FlagPad
		case 'x':
			f |= FlagExecutable
		case 'h':
			f |= FlagHidden
		case 'l':
			f |= FlagSymlink
		}
	}
	return f
}

// FileRecord is one file's contribution to a manifest. Two records with the
// same root hash are the same content regardless of path.
type FileRecord struct {
	// Path is the file's slash-separated path inside the torrent,
	// including the torrent's root directory element.
	Path string

	Length int64

	// PieceSize is the piece size the Layer was computed at. After a
	// merge it equals the manifest's piece size.
	PieceSize int64

	Flags         Flags
	SymlinkTarget string

	// MTime is the file's modification time in unix seconds, 0 if absent.
	MTime int64

	// Root is the file's merkle root: the content identity.
	Root merkle.Hash

	// Layer is the file's piece layer at PieceSize. Files no larger than
	// one piece carry no layer; their root stands alone.
	Layer []merkle.Hash
}

// Pieces returns the number of pieces the file occupies at the given piece
// size.
func (r FileRecord) Pieces(pieceSize int64) int64 {
	return (r.Length + pieceSize - 1) / pieceSize
}

// DHTNode is a bootstrap node carried in the torrent's "nodes" list.
type DHTNode struct {
	Host string
	Port int
}

func (n DHTNode) String() string {
	return fmt.Sprintf("%s:%d", n.Host, n.Port)
}

// Manifest is a full torrent's worth of metadata: file records plus the
// shared fields. It is plain data; the merger and the wire layer own all
// behavior.
type Manifest struct {
	Name      string
	PieceSize int64
	Files     []FileRecord

	// V1Pieces is the flat v1 piece-hash string of a hybrid torrent
	// (20 bytes per global piece index), empty for v2-only torrents.
	// Kept verbatim so edits can re-slice it without re-hashing.
	V1Pieces []byte

	Trackers     [][]string // tiers, in order; URLs in first-seen order
	WebSeeds     []string
	DHTNodes     []DHTNode
	Comment      string
	CreatedBy    string
	CreationDate int64
	Private      bool
}

// TotalLength sums the length of all non-pad files.
func (m *Manifest) TotalLength() int64 {
	var total int64
	for _, f := range m.Files {
		if f.Flags&FlagPad == 0 {
			total += f.Length
		}
	}
	return total
}
