package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/torrtool/torrtool/internal/hasher"
	"github.com/torrtool/torrtool/internal/manifest"
	"github.com/torrtool/torrtool/internal/metainfo"
)

var addOpts struct {
	out           string
	withMTime     bool
	storeSymlinks bool
	workers       int
}

var addCmd = &cobra.Command{
	Use:   "add [flags] <torrent> <path>...",
	Short: "Hash additional files into an existing v2 torrent",
	Long: `Read a v2 torrent and add the given files or directories to it. New
content is hashed at the torrent's existing piece size and spliced into its
file tree and piece layers.`,
	Args:          cobra.MinimumNArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runAdd,
}

func init() {
	f := addCmd.Flags()
	f.StringVarP(&addOpts.out, "out", "o", "a.torrent", "write the resulting torrent to this file")
	f.BoolVarP(&addOpts.withMTime, "mtime", "m", false, "include file modification times")
	f.BoolVarP(&addOpts.storeSymlinks, "dont-follow-links", "l", false, "store symlinks as symlinks instead of following them")
	f.IntVar(&addOpts.workers, "threads", 0, "number of hashing workers (default: min(NumCPU, 8))")
}

func runAdd(_ *cobra.Command, args []string) error {
	m, err := metainfo.Load(args[0])
	if err != nil {
		return err
	}
	slog.Debug("loaded torrent", "path", args[0], "piece_size", m.PieceSize, "files", len(m.Files))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for _, path := range args[1:] {
		slog.Info("adding", "path", path)
		hm, err := hasher.HashPath(ctx, path, hasher.Options{
			PieceSize:     m.PieceSize,
			Workers:       addOpts.workers,
			WithMTime:     addOpts.withMTime,
			StoreSymlinks: addOpts.storeSymlinks,
		})
		if err != nil {
			return fmt.Errorf("hash %s: %w", path, err)
		}
		for i := range hm.Files {
			rec := hm.Files[i]
			if !(len(hm.Files) == 1 && rec.Path == hm.Name) {
				rec.Path = hm.Name + "/" + rec.Path
			}
			m.Files = append(m.Files, rec)
		}
	}

	// Surface path clashes before writing.
	var tree manifest.PathTree
	for i := range m.Files {
		if m.Files[i].Flags&manifest.FlagPad != 0 {
			continue
		}
		if err := tree.Insert(&m.Files[i]); err != nil {
			return err
		}
	}

	if err := metainfo.Save(m, addOpts.out); err != nil {
		return err
	}
	slog.Info("torrent written", "path", addOpts.out, "files", len(m.Files))
	return nil
}
