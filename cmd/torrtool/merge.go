package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/torrtool/torrtool/internal/manifest"
	"github.com/torrtool/torrtool/internal/metainfo"
)

var mergeOpts struct {
	out     string
	name    string
	workers int
}

var mergeCmd = &cobra.Command{
	Use:   "merge [flags] <torrent>...",
	Short: "Merge several v2 torrents into one",
	Long: `Merge the given v2 torrents into a single torrent. The output uses the
largest piece size among the inputs; smaller-piece layers are raised to it
without re-hashing any content. Files appearing in more than one input (same
pieces root) are included once. Trackers, web seeds, DHT nodes, comment,
creator and creation date are aggregated.`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runMerge,
}

func init() {
	f := mergeCmd.Flags()
	f.StringVarP(&mergeOpts.out, "out", "o", "a.torrent", "write the resulting torrent to this file")
	f.StringVarP(&mergeOpts.name, "name", "n", "", "name of the merged torrent (default: first input's name)")
	f.IntVar(&mergeOpts.workers, "threads", 0, "number of normalization workers (default: min(NumCPU, 8))")
}

func runMerge(_ *cobra.Command, args []string) error {
	sources := make([]*manifest.Manifest, 0, len(args))
	for _, path := range args {
		m, err := metainfo.Load(path)
		if err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		slog.Debug("loaded torrent", "path", path, "name", m.Name, "piece_size", m.PieceSize, "files", len(m.Files))
		sources = append(sources, m)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	merged, skips, err := manifest.Merge(ctx, sources, manifest.MergeOptions{
		Name:    mergeOpts.name,
		Workers: mergeOpts.workers,
	})
	if err != nil {
		return err
	}
	for _, s := range skips {
		slog.Info("ignoring", "path", s.Path, "reason", s.Reason.String())
	}

	if err := metainfo.Save(merged, mergeOpts.out); err != nil {
		return err
	}
	slog.Info("torrent written", "path", mergeOpts.out, "name", merged.Name,
		"piece_size", merged.PieceSize, "files", len(merged.Files), "skipped", len(skips))
	return nil
}
