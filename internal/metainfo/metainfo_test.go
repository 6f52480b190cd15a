package metainfo

import (
	"crypto/sha256"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zeebo/bencode"

	"github.com/torrtool/torrtool/internal/manifest"
	"github.com/torrtool/torrtool/internal/merkle"
)

func testManifest() *manifest.Manifest {
	big := manifest.FileRecord{
		Path:      "docs/big.bin",
		Length:    40000,
		PieceSize: 16384,
		MTime:     1600000000,
		Layer: []merkle.Hash{
			sha256.Sum256([]byte{1}),
			sha256.Sum256([]byte{2}),
			sha256.Sum256([]byte{3}),
		},
	}
	big.Root = merkle.RootWithPad(big.Layer, merkle.PadHash(1, 1))

	small := manifest.FileRecord{
		Path:      "small.bin",
		Length:    100,
		PieceSize: 16384,
		Flags:     manifest.FlagExecutable,
		Root:      sha256.Sum256([]byte{4}),
	}

	return &manifest.Manifest{
		Name:         "demo",
		PieceSize:    16384,
		Files:        []manifest.FileRecord{big, small},
		Trackers:     [][]string{{"https://tr.example/announce"}},
		WebSeeds:     []string{"https://seed.example/"},
		DHTNodes:     []manifest.DHTNode{{Host: "router.example", Port: 6881}},
		Comment:      "round trip",
		CreatedBy:    "torrtool",
		CreationDate: 1700000000,
		Private:      true,
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	m := testManifest()
	data, err := Encode(m)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)

	assert.Equal(t, m.Name, got.Name)
	assert.Equal(t, m.PieceSize, got.PieceSize)
	assert.Equal(t, m.Trackers, got.Trackers)
	assert.Equal(t, m.WebSeeds, got.WebSeeds)
	assert.Equal(t, m.DHTNodes, got.DHTNodes)
	assert.Equal(t, m.Comment, got.Comment)
	assert.Equal(t, m.CreatedBy, got.CreatedBy)
	assert.Equal(t, m.CreationDate, got.CreationDate)
	assert.True(t, got.Private)

	// Decoding orders files lexicographically by path.
	require.Len(t, got.Files, 2)
	assert.Equal(t, m.Files[0], got.Files[0]) // docs/big.bin
	assert.Equal(t, m.Files[1], got.Files[1]) // small.bin
}

func TestEncodeOmitsLayerlessFiles(t *testing.T) {
	m := testManifest()
	data, err := Encode(m)
	require.NoError(t, err)

	var t2 torrentFile
	require.NoError(t, bencode.DecodeBytes(data, &t2))

	// Only the file larger than one piece has a layer entry, keyed by its
	// raw root and holding 3 concatenated hashes.
	require.Len(t, t2.PieceLayers, 1)
	raw, ok := t2.PieceLayers[string(m.Files[0].Root[:])]
	require.True(t, ok)
	assert.Len(t, raw, 3*merkle.HashSize)
}

func TestEncodeSingleTrackerScalar(t *testing.T) {
	m := testManifest()
	data, err := Encode(m)
	require.NoError(t, err)

	var t2 torrentFile
	require.NoError(t, bencode.DecodeBytes(data, &t2))
	assert.Equal(t, "https://tr.example/announce", t2.Announce)
	assert.Empty(t, t2.AnnounceList)
}

func TestEncodeTrackerTiers(t *testing.T) {
	m := testManifest()
	m.Trackers = [][]string{
		{"https://a.example/announce", "https://b.example/announce"},
		{},
		{"https://c.example/announce"},
	}
	data, err := Encode(m)
	require.NoError(t, err)

	var t2 torrentFile
	require.NoError(t, bencode.DecodeBytes(data, &t2))
	assert.Equal(t, "https://a.example/announce", t2.Announce)
	require.Len(t, t2.AnnounceList, 2) // empty tier dropped
	assert.Equal(t, []string{"https://a.example/announce", "https://b.example/announce"}, t2.AnnounceList[0])
	assert.Equal(t, []string{"https://c.example/announce"}, t2.AnnounceList[1])
}

func TestDecodeRejectsV1Only(t *testing.T) {
	data, err := bencode.EncodeBytes(map[string]interface{}{
		"announce": "https://tr.example/announce",
		"info": map[string]interface{}{
			"name":         "old",
			"piece length": 32768,
			"length":       1000,
			"pieces":       string(make([]byte, 20)),
		},
	})
	require.NoError(t, err)

	_, err = Decode(data)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotV2)
}

func TestDecodeMissingPieceLayer(t *testing.T) {
	m := testManifest()
	data, err := Encode(m)
	require.NoError(t, err)

	var top map[string]bencode.RawMessage
	require.NoError(t, bencode.DecodeBytes(data, &top))
	delete(top, "piece layers")
	data, err = bencode.EncodeBytes(top)
	require.NoError(t, err)

	_, err = Decode(data)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no piece layer")
}

func TestRoundTripSymlink(t *testing.T) {
	m := testManifest()
	m.Files = append(m.Files, manifest.FileRecord{
		Path:          "link",
		Flags:         manifest.FlagSymlink,
		SymlinkTarget: "docs/big.bin",
	})

	data, err := Encode(m)
	require.NoError(t, err)
	got, err := Decode(data)
	require.NoError(t, err)

	require.Len(t, got.Files, 3)
	link := got.Files[1] // "link" sorts after "docs", before "small.bin"
	assert.Equal(t, "link", link.Path)
	assert.Equal(t, manifest.FlagSymlink, link.Flags)
	assert.Equal(t, "docs/big.bin", link.SymlinkTarget)
}

func TestRoundTripV1Pieces(t *testing.T) {
	m := testManifest()
	m.V1Pieces = make([]byte, 60) // three sha1 hashes
	for i := range m.V1Pieces {
		m.V1Pieces[i] = byte(i)
	}

	data, err := Encode(m)
	require.NoError(t, err)
	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, m.V1Pieces, got.V1Pieces)
}

func TestEncodePathCollision(t *testing.T) {
	m := testManifest()
	dup := m.Files[1]
	dup.Root = sha256.Sum256([]byte{99})
	m.Files = append(m.Files, dup)

	_, err := Encode(m)
	require.Error(t, err)
	assert.ErrorIs(t, err, manifest.ErrPathCollision)
}

func TestLoadSaveFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.torrent")

	m := testManifest()
	require.NoError(t, Save(m, path))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, m.Name, got.Name)

	_, err = Load(filepath.Join(dir, "missing.torrent"))
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("not bencode"), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}
