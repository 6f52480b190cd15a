package main

import (
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"github.com/torrtool/torrtool/internal/manifest"
	"github.com/torrtool/torrtool/internal/metainfo"
)

var modifyOpts struct {
	out      string
	name     string
	trackers [][]string
	webSeeds []string
	dhtNodes []string
	creator  string
	comment  string
	private  bool
	public   bool

	dropTrackers     bool
	dropWebSeeds     bool
	dropDHTNodes     bool
	dropComment      bool
	dropCreator      bool
	dropCreationDate bool
	dropMTime        bool

	dropFiles   []string
	renameFiles []string
}

var modifyCmd = &cobra.Command{
	Use:   "modify [flags] <torrent>",
	Short: "Edit a torrent's metadata without re-hashing",
	Long: `Edit a single torrent: rename it, add or drop trackers, web seeds, DHT
nodes, comment, creator, the private flag and file mtimes, or drop and rename
individual files. Content is never re-hashed; when files are dropped the flat
v1 piece list is re-sliced from the surviving files' piece ranges.

--drop-file and --rename-file match a file's base name exactly. The drop-*
flags run before any additions, so --drop-trackers -t URL leaves exactly one
tracker.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runModify,
}

func init() {
	f := modifyCmd.Flags()
	f.StringVarP(&modifyOpts.out, "out", "o", "a.torrent", "write the resulting torrent to this file")
	f.StringVarP(&modifyOpts.name, "name", "n", "", "change the torrent's name")
	f.VarP(&trackerFlag{tiers: &modifyOpts.trackers, newTier: true}, "tracker", "t", "add a tracker in a new tier (repeatable)")
	f.VarP(&trackerFlag{tiers: &modifyOpts.trackers}, "tracker-tier", "T", "add a tracker to the current tier (repeatable)")
	f.StringArrayVarP(&modifyOpts.webSeeds, "web-seed", "w", nil, "add a web seed URL (repeatable)")
	f.StringArrayVarP(&modifyOpts.dhtNodes, "dht-node", "d", nil, "add a DHT node as host:port (repeatable)")
	f.StringVarP(&modifyOpts.creator, "creator", "C", "", "set the \"created by\" field")
	f.StringVarP(&modifyOpts.comment, "comment", "c", "", "set the \"comment\" field")
	f.BoolVar(&modifyOpts.private, "private", false, "set the \"private\" field")
	f.BoolVar(&modifyOpts.public, "public", false, "clear the \"private\" field")
	f.BoolVar(&modifyOpts.dropTrackers, "drop-trackers", false, "remove all trackers before adding new ones")
	f.BoolVar(&modifyOpts.dropWebSeeds, "drop-web-seeds", false, "remove all web seeds before adding new ones")
	f.BoolVar(&modifyOpts.dropDHTNodes, "drop-dht-nodes", false, "remove all DHT nodes before adding new ones")
	f.BoolVar(&modifyOpts.dropComment, "drop-comment", false, "remove the comment")
	f.BoolVar(&modifyOpts.dropCreator, "drop-creator", false, "remove the creator string")
	f.BoolVar(&modifyOpts.dropCreationDate, "drop-creation-date", false, "remove the creation date")
	f.BoolVar(&modifyOpts.dropMTime, "drop-mtime", false, "remove all file modification times")
	f.StringArrayVar(&modifyOpts.dropFiles, "drop-file", nil, "remove files whose name matches exactly (repeatable)")
	f.StringArrayVar(&modifyOpts.renameFiles, "rename-file", nil, "rename a file, as OLD:NEW (repeatable)")
}

func runModify(_ *cobra.Command, args []string) error {
	if modifyOpts.private && modifyOpts.public {
		return fmt.Errorf("the flags --public and --private are incompatible")
	}
	renames, err := parseRenames(modifyOpts.renameFiles)
	if err != nil {
		return err
	}

	m, err := metainfo.Load(args[0])
	if err != nil {
		return err
	}

	if err := rewriteFiles(m, modifyOpts.dropFiles, renames); err != nil {
		return err
	}

	if modifyOpts.name != "" {
		m.Name = modifyOpts.name
	}

	if modifyOpts.dropTrackers {
		m.Trackers = nil
	}
	for tier, urls := range modifyOpts.trackers {
		for len(m.Trackers) <= tier {
			m.Trackers = append(m.Trackers, nil)
		}
		m.Trackers[tier] = append(m.Trackers[tier], urls...)
	}

	if modifyOpts.dropWebSeeds {
		m.WebSeeds = nil
	}
	m.WebSeeds = append(m.WebSeeds, modifyOpts.webSeeds...)

	if modifyOpts.dropDHTNodes {
		m.DHTNodes = nil
	}
	nodes, err := parseNodes(modifyOpts.dhtNodes)
	if err != nil {
		return err
	}
	m.DHTNodes = append(m.DHTNodes, nodes...)

	if modifyOpts.dropComment {
		m.Comment = ""
	}
	if modifyOpts.comment != "" {
		m.Comment = modifyOpts.comment
	}
	if modifyOpts.dropCreator {
		m.CreatedBy = ""
	}
	if modifyOpts.creator != "" {
		m.CreatedBy = modifyOpts.creator
	}
	if modifyOpts.dropCreationDate {
		m.CreationDate = 0
	}
	if modifyOpts.private {
		m.Private = true
	}
	if modifyOpts.public {
		m.Private = false
	}

	if err := metainfo.Save(m, modifyOpts.out); err != nil {
		return err
	}
	slog.Info("torrent written", "path", modifyOpts.out, "name", m.Name, "files", len(m.Files))
	return nil
}

// rewriteFiles walks the piece-aligned layout, drops pad files and the
// dropped names, applies renames and mtime removal, and re-slices the flat
// v1 piece string from the surviving files' piece ranges.
func rewriteFiles(m *manifest.Manifest, drop []string, renames []rename) error {
	dropSet := make(map[string]bool, len(drop))
	for _, name := range drop {
		dropSet[name] = true
	}
	renameMap := make(map[string]string, len(renames))
	for _, r := range renames {
		renameMap[r.from] = r.to
	}

	s := manifest.Slicer{PieceSize: m.PieceSize}
	hasV1 := len(m.V1Pieces) > 0

	kept := m.Files[:0]
	var v1 []byte
	var off int64
	for _, f := range m.Files {
		fileOff := off
		off += f.Length

		if f.Flags&manifest.FlagPad != 0 {
			continue
		}
		base := path.Base(f.Path)
		if dropSet[base] {
			slog.Debug("dropping file", "path", f.Path)
			continue
		}
		if to, ok := renameMap[base]; ok {
			if dir := path.Dir(f.Path); dir != "." {
				f.Path = dir + "/" + to
			} else {
				f.Path = to
			}
		}
		if modifyOpts.dropMTime {
			f.MTime = 0
		}

		if hasV1 {
			r, err := s.FileRange(fileOff, f.Length)
			if err != nil {
				return fmt.Errorf("file %s: %w", f.Path, err)
			}
			cut, err := manifest.Cut(m.V1Pieces, 20, r)
			if err != nil {
				return fmt.Errorf("file %s: %w", f.Path, err)
			}
			v1 = append(v1, cut...)
		}

		kept = append(kept, f)
	}
	m.Files = kept
	m.V1Pieces = v1
	return nil
}

type rename struct {
	from string
	to   string
}

func parseRenames(specs []string) ([]rename, error) {
	out := make([]rename, 0, len(specs))
	for _, spec := range specs {
		from, to, ok := strings.Cut(spec, ":")
		if !ok || from == "" || to == "" {
			return nil, fmt.Errorf("invalid --rename-file %q: expected OLD:NEW", spec)
		}
		out = append(out, rename{from: from, to: to})
	}
	return out, nil
}
