package metainfo

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/zeebo/bencode"

	"github.com/torrtool/torrtool/internal/manifest"
	"github.com/torrtool/torrtool/internal/merkle"
)

// ErrNotV2 marks a torrent without a v2 file tree. v1-only torrents carry no
// merkle trees, so there is nothing here to operate on.
var ErrNotV2 = errors.New("only BitTorrent v2 torrent files are supported")

// Load reads and decodes a torrent file.
func Load(path string) (*manifest.Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read torrent: %w", err)
	}
	m, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Decode converts a bencoded torrent into a manifest. File paths come out
// relative to the torrent root (the name element is not included).
func Decode(data []byte) (*manifest.Manifest, error) {
	var t torrentFile
	if err := bencode.DecodeBytes(data, &t); err != nil {
		return nil, fmt.Errorf("decode torrent: %w", err)
	}

	if t.Info.MetaVersion != 2 || len(t.Info.FileTree) == 0 {
		return nil, ErrNotV2
	}
	if !manifest.ValidPieceSize(t.Info.PieceLength) {
		return nil, fmt.Errorf("invalid piece size %d", t.Info.PieceLength)
	}

	m := &manifest.Manifest{
		Name:         t.Info.Name,
		PieceSize:    t.Info.PieceLength,
		V1Pieces:     t.Info.Pieces,
		Comment:      t.Comment,
		CreatedBy:    t.CreatedBy,
		CreationDate: t.CreationDate,
		Private:      t.Info.Private != 0,
	}

	if err := walkFileTree(nil, t.Info.FileTree, func(path []string, leaf fileLeaf) error {
		rec, err := recordFromLeaf(path, leaf, t)
		if err != nil {
			return err
		}
		m.Files = append(m.Files, rec)
		return nil
	}); err != nil {
		return nil, err
	}

	m.Trackers = decodeTrackers(t)
	m.WebSeeds = decodeWebSeeds(t.URLList)
	m.DHTNodes = decodeNodes(t.Nodes)
	return m, nil
}

func recordFromLeaf(path []string, leaf fileLeaf, t torrentFile) (manifest.FileRecord, error) {
	rec := manifest.FileRecord{
		Path:      strings.Join(path, "/"),
		Length:    leaf.Length,
		PieceSize: t.Info.PieceLength,
		Flags:     manifest.ParseAttr(leaf.Attr),
		MTime:     leaf.MTime,
	}
	if len(leaf.SymlinkPath) > 0 {
		rec.SymlinkTarget = strings.Join(leaf.SymlinkPath, "/")
	}

	if rec.Flags&manifest.FlagSymlink != 0 {
		return rec, nil
	}
	// Empty files carry no pieces root.
	if rec.Length == 0 && leaf.PiecesRoot == "" {
		return rec, nil
	}

	if len(leaf.PiecesRoot) != merkle.HashSize {
		return rec, fmt.Errorf("file %q: pieces root is %d bytes, want %d",
			rec.Path, len(leaf.PiecesRoot), merkle.HashSize)
	}
	copy(rec.Root[:], leaf.PiecesRoot)

	if rec.Length > t.Info.PieceLength {
		raw, ok := t.PieceLayers[leaf.PiecesRoot]
		if !ok {
			return rec, fmt.Errorf("file %q: no piece layer for root %s", rec.Path, rec.Root.Hex())
		}
		layer, err := merkle.SplitLayer([]byte(raw))
		if err != nil {
			return rec, fmt.Errorf("file %q: %w", rec.Path, err)
		}
		rec.Layer = layer
	}
	return rec, nil
}

// walkFileTree visits the leaves of a file tree in lexicographic path order,
// which is also the bencoded dictionary order.
func walkFileTree(prefix []string, dir map[string]bencode.RawMessage, visit func(path []string, leaf fileLeaf) error) error {
	names := make([]string, 0, len(dir))
	for name := range dir {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if name == "" {
			return fmt.Errorf("file tree: unexpected leaf marker at %q", strings.Join(prefix, "/"))
		}
		path := append(append([]string(nil), prefix...), name)

		var entry map[string]bencode.RawMessage
		if err := bencode.DecodeBytes(dir[name], &entry); err != nil {
			return fmt.Errorf("file tree entry %q: %w", strings.Join(path, "/"), err)
		}

		if raw, ok := entry[""]; ok {
			var leaf fileLeaf
			if err := bencode.DecodeBytes(raw, &leaf); err != nil {
				return fmt.Errorf("file tree leaf %q: %w", strings.Join(path, "/"), err)
			}
			if err := visit(path, leaf); err != nil {
				return err
			}
			continue
		}
		if err := walkFileTree(path, entry, visit); err != nil {
			return err
		}
	}
	return nil
}

func decodeTrackers(t torrentFile) [][]string {
	if len(t.AnnounceList) > 0 {
		tiers := make([][]string, 0, len(t.AnnounceList))
		for _, tier := range t.AnnounceList {
			tiers = append(tiers, append([]string(nil), tier...))
		}
		return tiers
	}
	if t.Announce != "" {
		return [][]string{{t.Announce}}
	}
	return nil
}

// decodeWebSeeds tolerates both forms of url-list: a single string or a
// list of strings.
func decodeWebSeeds(raw bencode.RawMessage) []string {
	if len(raw) == 0 {
		return nil
	}
	var one string
	if err := bencode.DecodeBytes(raw, &one); err == nil {
		return []string{one}
	}
	var many []string
	if err := bencode.DecodeBytes(raw, &many); err == nil {
		return many
	}
	return nil
}

func decodeNodes(nodes [][]interface{}) []manifest.DHTNode {
	var out []manifest.DHTNode
	for _, pair := range nodes {
		if len(pair) != 2 {
			continue
		}
		host, ok := pair[0].(string)
		if !ok {
			continue
		}
		port, ok := pair[1].(int64)
		if !ok {
			continue
		}
		out = append(out, manifest.DHTNode{Host: host, Port: int(port)})
	}
	return out
}
