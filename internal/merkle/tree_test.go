package merkle

import (
	"crypto/sha256"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// leaf fabricates a distinct, deterministic hash for tests.
func leaf(b byte) Hash {
	return sha256.Sum256([]byte{b})
}

func TestCombine(t *testing.T) {
	l, r := leaf(1), leaf(2)

	d := sha256.New()
	d.Write(l[:])
	d.Write(r[:])
	var want Hash
	d.Sum(want[:0])

	assert.Equal(t, want, Combine(l, r))
	assert.NotEqual(t, Combine(l, r), Combine(r, l))
}

func TestPadHashLeafLevelIsZero(t *testing.T) {
	assert.Equal(t, Hash{}, PadHash(1, 1))
	assert.Equal(t, Hash{}, PadHash(4, 4))
}

func TestPadHashDepthMonotonic(t *testing.T) {
	// Combining two equal pads at one depth must yield the pad for the
	// next depth up.
	for blocks := int64(1); blocks <= 64; blocks *= 2 {
		lower := PadHash(blocks, 1)
		upper := PadHash(blocks*2, 1)
		assert.Equal(t, upper, Combine(lower, lower), "blocks=%d", blocks)
	}
}

func TestPadHashKnownShape(t *testing.T) {
	zero := Hash{}
	want := Combine(Combine(zero, zero), Combine(zero, zero))
	assert.Equal(t, want, PadHash(4, 1))
}

func TestNextPow2(t *testing.T) {
	tests := []struct {
		n, want int64
	}{
		{1, 1},
		{2, 2},
		{3, 4},
		{4, 4},
		{5, 8},
		{1000, 1024},
		{1 << 30, 1 << 30},
		{(1 << 30) + 1, 1 << 31},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, NextPow2(tc.n), "n=%d", tc.n)
	}
}

func TestNextPow2Panics(t *testing.T) {
	assert.Panics(t, func() { NextPow2(0) })
	assert.Panics(t, func() { NextPow2(-1) })
}

func TestCombineLevel(t *testing.T) {
	l0, l1, l2, l3 := leaf(0), leaf(1), leaf(2), leaf(3)

	parent := CombineLevel([]Hash{l0, l1, l2, l3})
	require.Len(t, parent, 2)
	assert.Equal(t, Combine(l0, l1), parent[0])
	assert.Equal(t, Combine(l2, l3), parent[1])

	assert.Panics(t, func() { CombineLevel([]Hash{l0, l1, l2}) })
}

func TestRoot(t *testing.T) {
	l0, l1, l2 := leaf(0), leaf(1), leaf(2)

	assert.Equal(t, Hash{}, Root(nil))
	assert.Equal(t, l0, Root([]Hash{l0}))
	assert.Equal(t, Combine(l0, l1), Root([]Hash{l0, l1}))

	// Three leaves pad to four with the zero hash.
	want := Combine(Combine(l0, l1), Combine(l2, Hash{}))
	assert.Equal(t, want, Root([]Hash{l0, l1, l2}))
}

func TestRootWithPad(t *testing.T) {
	l0, l1, l2 := leaf(0), leaf(1), leaf(2)
	pad := PadHash(2, 1)

	want := Combine(Combine(l0, l1), Combine(l2, pad))
	assert.Equal(t, want, RootWithPad([]Hash{l0, l1, l2}, pad))
}

func TestSplitJoinLayer(t *testing.T) {
	l0, l1 := leaf(0), leaf(1)
	raw := JoinLayer([]Hash{l0, l1})
	require.Len(t, raw, 2*HashSize)

	layer, err := SplitLayer(raw)
	require.NoError(t, err)
	assert.Equal(t, []Hash{l0, l1}, layer)

	_, err = SplitLayer(raw[:33])
	assert.Error(t, err)

	layer, err = SplitLayer(nil)
	require.NoError(t, err)
	assert.Empty(t, layer)
}

func TestHashHex(t *testing.T) {
	h := leaf(7)
	assert.Len(t, h.Hex(), 64)
	assert.Equal(t, strings.ToLower(h.Hex()), h.Hex())
	assert.False(t, h.IsZero())
	assert.True(t, Hash{}.IsZero())
}
