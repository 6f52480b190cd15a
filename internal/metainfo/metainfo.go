// Package metainfo reads and writes .torrent files, converting between the
// bencoded wire form and the in-memory manifest model. Only BitTorrent v2
// (and hybrid) torrents are supported; a v1-only file has no merkle trees to
// work with.
package metainfo

import (
	"github.com/zeebo/bencode"
)

// torrentFile mirrors the top level of a .torrent file.
type torrentFile struct {
	Announce     string             `bencode:"announce,omitempty"`
	AnnounceList [][]string         `bencode:"announce-list,omitempty"`
	Comment      string             `bencode:"comment,omitempty"`
	CreatedBy    string             `bencode:"created by,omitempty"`
	CreationDate int64              `bencode:"creation date,omitempty"`
	Info         infoDict           `bencode:"info"`
	Nodes        [][]interface{}    `bencode:"nodes,omitempty"`
	PieceLayers  map[string]string  `bencode:"piece layers,omitempty"`
	URLList      bencode.RawMessage `bencode:"url-list,omitempty"`
}

type infoDict struct {
	FileTree    map[string]bencode.RawMessage `bencode:"file tree,omitempty"`
	Length      int64                         `bencode:"length,omitempty"`
	MetaVersion int64                         `bencode:"meta version,omitempty"`
	Name        string                        `bencode:"name"`
	PieceLength int64                         `bencode:"piece length"`
	Pieces      []byte                        `bencode:"pieces,omitempty"`
	Private     int64                         `bencode:"private,omitempty"`
}

// fileLeaf is the dict stored under the "" key of a file-tree entry.
type fileLeaf struct {
	Attr        string   `bencode:"attr,omitempty"`
	Length      int64    `bencode:"length"`
	MTime       int64    `bencode:"mtime,omitempty"`
	PiecesRoot  string   `bencode:"pieces root,omitempty"`
	SymlinkPath []string `bencode:"symlink path,omitempty"`
}
