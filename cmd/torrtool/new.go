package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/torrtool/torrtool/internal/config"
	"github.com/torrtool/torrtool/internal/event"
	"github.com/torrtool/torrtool/internal/hasher"
	"github.com/torrtool/torrtool/internal/manifest"
	"github.com/torrtool/torrtool/internal/metainfo"
	"github.com/torrtool/torrtool/internal/stats"
	"github.com/torrtool/torrtool/internal/ui"
)

var newOpts struct {
	out           string
	trackers      [][]string
	webSeeds      []string
	dhtNodes      []string
	creator       string
	comment       string
	private       bool
	storeSymlinks bool
	withMTime     bool
	pieceSizeKiB  int64
	workers       int
	includeHidden bool
	exclude       []string
}

var newCmd = &cobra.Command{
	Use:   "new [flags] <path>",
	Short: "Create a v2 torrent from a file or directory",
	Long: `Create a BitTorrent v2 torrent from a file or directory. Content is
hashed with SHA-256 in 16 KiB blocks; files hash in parallel. The piece size
defaults to a power of two chosen from the total content size.`,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runNew,
}

func init() {
	f := newCmd.Flags()
	f.StringVarP(&newOpts.out, "out", "o", "a.torrent", "write the resulting torrent to this file")
	f.VarP(&trackerFlag{tiers: &newOpts.trackers, newTier: true}, "tracker", "t", "add a tracker in a new tier (repeatable)")
	f.VarP(&trackerFlag{tiers: &newOpts.trackers}, "tracker-tier", "T", "add a tracker to the current tier (repeatable)")
	f.StringArrayVarP(&newOpts.webSeeds, "web-seed", "w", nil, "add a web seed URL (repeatable)")
	f.StringArrayVarP(&newOpts.dhtNodes, "dht-node", "d", nil, "add a DHT node as host:port (repeatable)")
	f.StringVarP(&newOpts.creator, "creator", "C", "", "set the \"created by\" field")
	f.StringVarP(&newOpts.comment, "comment", "c", "", "set the \"comment\" field")
	f.BoolVarP(&newOpts.private, "private", "p", false, "set the \"private\" field")
	f.BoolVarP(&newOpts.storeSymlinks, "dont-follow-links", "l", false, "store symlinks as symlinks instead of following them")
	f.BoolVarP(&newOpts.withMTime, "mtime", "m", false, "include file modification times")
	f.Int64VarP(&newOpts.pieceSizeKiB, "piece-size", "s", 0, "piece size in kiB (power of two, at least 16)")
	f.IntVar(&newOpts.workers, "threads", 0, "number of hashing workers (default: min(NumCPU, 8))")
	f.StringArrayVar(&newOpts.exclude, "exclude", nil, "skip files matching PATTERN (repeatable)")
	f.BoolVar(&newOpts.includeHidden, "include-hidden", false, "include dot-files and dot-directories")
}

func runNew(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		slog.Warn("failed to load config", "error", err)
	}
	applyNewDefaults(cmd, cfg.Defaults)

	pieceSize := newOpts.pieceSizeKiB * 1024
	if pieceSize != 0 && !manifest.ValidPieceSize(pieceSize) {
		return fmt.Errorf("invalid piece size %d kiB: must be a power of two, at least 16", newOpts.pieceSizeKiB)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	collector := stats.NewCollector()
	opts := hasher.Options{
		PieceSize:     pieceSize,
		Workers:       newOpts.workers,
		WithMTime:     newOpts.withMTime,
		StoreSymlinks: newOpts.storeSymlinks,
		IncludeHidden: newOpts.includeHidden,
		Exclude:       newOpts.exclude,
		Stats:         collector,
	}

	progress := &ui.Progress{W: os.Stderr, Stats: collector}
	var wg sync.WaitGroup
	if !quiet {
		events := make(chan event.Event, 256)
		opts.Events = events
		wg.Add(1)
		go func() {
			defer wg.Done()
			progress.Run(events)
		}()
	}

	m, err := hasher.HashPath(ctx, args[0], opts)
	if opts.Events != nil {
		close(opts.Events)
	}
	wg.Wait()
	if err != nil {
		return fmt.Errorf("hash %s: %w", args[0], err)
	}

	nodes, err := parseNodes(newOpts.dhtNodes)
	if err != nil {
		return err
	}

	m.Trackers = newOpts.trackers
	m.WebSeeds = newOpts.webSeeds
	m.DHTNodes = nodes
	m.Comment = newOpts.comment
	m.CreatedBy = newOpts.creator
	m.CreationDate = time.Now().Unix()
	m.Private = newOpts.private

	if err := metainfo.Save(m, newOpts.out); err != nil {
		return err
	}
	if !quiet {
		progress.Summary()
	}
	slog.Info("torrent written", "path", newOpts.out, "name", m.Name, "piece_size", m.PieceSize, "files", len(m.Files))
	return nil
}

// applyNewDefaults fills flags the user did not set from the config file.
func applyNewDefaults(cmd *cobra.Command, defaults config.DefaultsConfig) {
	flags := cmd.Flags()
	if !flags.Changed("creator") && defaults.Creator != nil {
		newOpts.creator = *defaults.Creator
	}
	if !flags.Changed("comment") && defaults.Comment != nil {
		newOpts.comment = *defaults.Comment
	}
	if !flags.Changed("piece-size") && defaults.PieceSize != nil {
		newOpts.pieceSizeKiB = *defaults.PieceSize / 1024
	}
	if !flags.Changed("threads") && defaults.Workers != nil {
		newOpts.workers = *defaults.Workers
	}
	if !flags.Changed("private") && defaults.Private != nil {
		newOpts.private = *defaults.Private
	}
	if !flags.Changed("tracker") && len(defaults.Trackers) > 0 {
		for _, t := range defaults.Trackers {
			newOpts.trackers = append(newOpts.trackers, []string{t})
		}
	}
	if !flags.Changed("web-seed") && len(defaults.WebSeeds) > 0 {
		newOpts.webSeeds = append(newOpts.webSeeds, defaults.WebSeeds...)
	}
}
