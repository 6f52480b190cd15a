package merkle

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRaiseIdentity(t *testing.T) {
	layer := []Hash{leaf(0), leaf(1), leaf(2)}
	out, err := Raise(layer, 16384, 16384, 40000)
	require.NoError(t, err)
	assert.Equal(t, layer, out)
}

func TestRaiseEmptyLayer(t *testing.T) {
	out, err := Raise(nil, 16384, 65536, 12000)
	require.NoError(t, err)
	assert.Nil(t, out)
}

// A 40000-byte file hashed at 16384-byte pieces has three piece hashes
// (two full blocks and a partial). Raised to 32768 it needs exactly the two
// hashes that cover 40000 bytes at the coarser granularity, with no pad
// artifacts left at the tail.
func TestRaiseOneLevel(t *testing.T) {
	l0, l1, l2 := leaf(0), leaf(1), leaf(2)
	out, err := Raise([]Hash{l0, l1, l2}, 16384, 32768, 40000)
	require.NoError(t, err)

	// At 16 KiB pieces each piece is a single block, so the pad one level
	// above the leaves is the zero hash.
	pad := PadHash(1, 1)
	want := []Hash{Combine(l0, l1), Combine(l2, pad)}
	assert.Equal(t, want, out)
	assert.Len(t, out, 2) // ceil(40000 / 32768)
}

func TestRaiseTwoLevels(t *testing.T) {
	// Five pieces at 16 KiB (81920 bytes), raised two levels to 64 KiB.
	leaves := []Hash{leaf(0), leaf(1), leaf(2), leaf(3), leaf(4)}
	out, err := Raise(leaves, 16384, 65536, 81920)
	require.NoError(t, err)

	pad0 := PadHash(1, 1)
	pad1 := Combine(pad0, pad0)
	want := []Hash{
		Combine(Combine(leaves[0], leaves[1]), Combine(leaves[2], leaves[3])),
		Combine(Combine(leaves[4], pad0), pad1),
	}
	assert.Equal(t, want, out)
	assert.Len(t, out, 2) // ceil(81920 / 65536)
}

func TestRaiseStripsTrailingPad(t *testing.T) {
	// Six pieces pad up to eight; the purely synthetic eighth subtree must
	// not survive the raise.
	leaves := []Hash{leaf(0), leaf(1), leaf(2), leaf(3), leaf(4), leaf(5)}
	out, err := Raise(leaves, 16384, 32768, 98304)
	require.NoError(t, err)
	assert.Len(t, out, 3) // ceil(98304 / 32768)
}

func TestRaiseIdempotent(t *testing.T) {
	leaves := []Hash{leaf(0), leaf(1), leaf(2)}
	raised, err := Raise(leaves, 16384, 32768, 40000)
	require.NoError(t, err)

	again, err := Raise(raised, 32768, 32768, 40000)
	require.NoError(t, err)
	assert.Equal(t, raised, again)
}

func TestRaiseFileWithinOneTargetPiece(t *testing.T) {
	// 32 KiB file: two pieces at 16 KiB, but a single piece at 64 KiB.
	// The coarser tree stores no layer; the root hash stands alone.
	out, err := Raise([]Hash{leaf(0), leaf(1)}, 16384, 65536, 32768)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestRaiseCorruptLayer(t *testing.T) {
	// Two hashes cannot cover 40000 bytes at 16 KiB pieces.
	_, err := Raise([]Hash{leaf(0), leaf(1)}, 16384, 32768, 40000)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorruptLayer)

	// Same mismatch when the file fits in one target piece.
	_, err = Raise([]Hash{leaf(0), leaf(1), leaf(2)}, 16384, 65536, 20000)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorruptLayer)
}

func TestRaiseRejectsBadSizes(t *testing.T) {
	layer := []Hash{leaf(0), leaf(1)}

	_, err := Raise(layer, 10000, 32768, 20000)
	assert.Error(t, err) // piece size not a power of two

	_, err = Raise(layer, 16384, 8192, 20000)
	assert.Error(t, err) // target below native

	_, err = Raise(layer, 16384, 40000, 20000)
	assert.Error(t, err) // target not a power of two
}

// Raising and the root computation must agree: the root derived from the
// raised layer (with the raised pad) equals the root derived from the
// native layer.
func TestRaisePreservesRoot(t *testing.T) {
	leaves := []Hash{leaf(0), leaf(1), leaf(2), leaf(3), leaf(4)}
	fileSize := int64(81920)

	nativeRoot := RootWithPad(leaves, PadHash(1, 1))

	raised, err := Raise(leaves, 16384, 32768, fileSize)
	require.NoError(t, err)
	raisedRoot := RootWithPad(raised, PadHash(2, 1))

	assert.Equal(t, nativeRoot, raisedRoot)
}
