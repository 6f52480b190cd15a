package metainfo

import (
	"fmt"
	"os"
	"strings"

	"github.com/zeebo/bencode"

	"github.com/torrtool/torrtool/internal/manifest"
	"github.com/torrtool/torrtool/internal/merkle"
)

// Encode serializes a manifest as a bencoded v2 torrent. Dictionaries are
// built as maps so the encoder emits keys in the canonical sorted order.
func Encode(m *manifest.Manifest) ([]byte, error) {
	if !manifest.ValidPieceSize(m.PieceSize) {
		return nil, fmt.Errorf("invalid piece size %d", m.PieceSize)
	}

	info, err := buildInfo(m)
	if err != nil {
		return nil, err
	}

	out := map[string]interface{}{
		"info":         info,
		"piece layers": buildPieceLayers(m),
	}
	if m.Comment != "" {
		out["comment"] = m.Comment
	}
	if m.CreatedBy != "" {
		out["created by"] = m.CreatedBy
	}
	if m.CreationDate != 0 {
		out["creation date"] = m.CreationDate
	}

	encodeTrackers(out, m.Trackers)
	encodeWebSeeds(out, m.WebSeeds)
	encodeNodes(out, m.DHTNodes)

	return bencode.EncodeBytes(out)
}

func buildInfo(m *manifest.Manifest) (map[string]interface{}, error) {
	tree, err := buildFileTree(m)
	if err != nil {
		return nil, err
	}

	info := map[string]interface{}{
		"meta version": 2,
		"piece length": m.PieceSize,
		"name":         m.Name,
		"file tree":    tree,
	}
	if m.Private {
		info["private"] = 1
	}
	if len(m.V1Pieces) > 0 {
		info["pieces"] = m.V1Pieces
	}
	return info, nil
}

// InfoHash computes the v2 info-hash: the SHA-256 digest of the bencoded
// info dictionary.
func InfoHash(m *manifest.Manifest) (merkle.Hash, error) {
	info, err := buildInfo(m)
	if err != nil {
		return merkle.Hash{}, err
	}
	data, err := bencode.EncodeBytes(info)
	if err != nil {
		return merkle.Hash{}, err
	}
	return merkle.Sum(data), nil
}

// Save writes the encoded manifest to path.
func Save(m *manifest.Manifest, path string) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write torrent: %w", err)
	}
	return nil
}

// buildPieceLayers maps each file's raw 32-byte root to its layer hashes
// concatenated in order. Files with no layer are omitted entirely; their
// root stands alone in the file tree.
func buildPieceLayers(m *manifest.Manifest) map[string]string {
	layers := make(map[string]string)
	for _, f := range m.Files {
		if len(f.Layer) == 0 || f.Flags&(manifest.FlagSymlink|manifest.FlagPad) != 0 {
			continue
		}
		layers[string(f.Root[:])] = string(merkle.JoinLayer(f.Layer))
	}
	return layers
}

func buildFileTree(m *manifest.Manifest) (map[string]interface{}, error) {
	var tree manifest.PathTree
	for i := range m.Files {
		if m.Files[i].Flags&manifest.FlagPad != 0 {
			continue
		}
		if err := tree.Insert(&m.Files[i]); err != nil {
			return nil, err
		}
	}
	return buildDir(tree.Root()), nil
}

func buildDir(dir *manifest.PathNode) map[string]interface{} {
	out := make(map[string]interface{})
	for _, name := range dir.Names() {
		child := dir.Child(name)
		if child.IsDir() {
			out[name] = buildDir(child)
			continue
		}
		out[name] = map[string]interface{}{"": buildLeaf(child.File())}
	}
	return out
}

func buildLeaf(f *manifest.FileRecord) map[string]interface{} {
	leaf := map[string]interface{}{
		"length": f.Length,
	}
	if !f.Root.IsZero() {
		leaf["pieces root"] = string(f.Root[:])
	}
	if attr := f.Flags.Attr(); attr != "" {
		leaf["attr"] = attr
	}
	if f.MTime != 0 {
		leaf["mtime"] = f.MTime
	}
	if f.Flags&manifest.FlagSymlink != 0 && f.SymlinkTarget != "" {
		leaf["symlink path"] = strings.Split(f.SymlinkTarget, "/")
	}
	return leaf
}

// encodeTrackers collapses a single tracker in a single tier to the scalar
// "announce" field; anything more gets an "announce-list".
func encodeTrackers(out map[string]interface{}, tiers [][]string) {
	var nonEmpty [][]string
	for _, tier := range tiers {
		if len(tier) > 0 {
			nonEmpty = append(nonEmpty, tier)
		}
	}
	if len(nonEmpty) == 0 {
		return
	}
	if len(nonEmpty) == 1 && len(nonEmpty[0]) == 1 {
		out["announce"] = nonEmpty[0][0]
		return
	}
	out["announce-list"] = nonEmpty
	out["announce"] = nonEmpty[0][0]
}

func encodeWebSeeds(out map[string]interface{}, seeds []string) {
	switch len(seeds) {
	case 0:
	case 1:
		out["url-list"] = seeds[0]
	default:
		out["url-list"] = seeds
	}
}

func encodeNodes(out map[string]interface{}, nodes []manifest.DHTNode) {
	if len(nodes) == 0 {
		return
	}
	list := make([]interface{}, 0, len(nodes))
	for _, n := range nodes {
		list = append(list, []interface{}{n.Host, n.Port})
	}
	out["nodes"] = list
}
