package manifest

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/torrtool/torrtool/internal/merkle"
)

// SkipReason classifies a file the merger dropped without failing the merge.
type SkipReason int

const (
	SkipDuplicate SkipReason = iota + 1
	SkipSymlink
	SkipPadFile
)

var skipNames = [...]string{
	SkipDuplicate: "duplicate",
	SkipSymlink:   "symlinks not supported",
	SkipPadFile:   "pad file",
}

func (r SkipReason) String() string {
	if int(r) < len(skipNames) && skipNames[r] != "" {
		return skipNames[r]
	}
	return "unknown"
}

// Skip reports one recoverable drop. The merge continues; the caller decides
// how to surface these.
type Skip struct {
	Path   string
	Root   merkle.Hash
	Reason SkipReason
}

// MergeOptions tune a merge. The zero value is usable.
type MergeOptions struct {
	// Name overrides the merged torrent's name; default is the first
	// source's name.
	Name string

	// Workers bounds the parallel layer normalization;
	// default min(NumCPU, 8).
	Workers int
}

// Merge combines the file records of several torrents into one manifest at
// a single piece size: the maximum across the sources. Files already seen
// (same root hash), symlinks, and pad files are skipped and reported.
// Layers computed at a smaller piece size are raised to the target. Any
// fatal condition (corrupt layer, two different files on one path) aborts
// with no partial manifest.
func Merge(ctx context.Context, sources []*Manifest, opts MergeOptions) (*Manifest, []Skip, error) {
	if len(sources) == 0 {
		return nil, nil, fmt.Errorf("no sources to merge")
	}

	var target int64
	for _, src := range sources {
		if !ValidPieceSize(src.PieceSize) {
			return nil, nil, fmt.Errorf("source %q: invalid piece size %d", src.Name, src.PieceSize)
		}
		if src.PieceSize > target {
			target = src.PieceSize
		}
	}

	out := &Manifest{
		Name:      opts.Name,
		PieceSize: target,
	}
	if out.Name == "" {
		out.Name = sources[0].Name
	}

	// First pass, in source order: decide which records survive. The
	// ordered Files slice is the single source of truth; byRoot is a
	// lookup view over it.
	var skips []Skip
	byRoot := make(map[merkle.Hash]int)
	var tree PathTree

	for _, src := range sources {
		for i := range src.Files {
			f := src.Files[i]
			switch {
			case f.Flags&FlagPad != 0:
				skips = append(skips, Skip{Path: f.Path, Root: f.Root, Reason: SkipPadFile})
				continue
			case f.Flags&FlagSymlink != 0:
				skips = append(skips, Skip{Path: f.Path, Root: f.Root, Reason: SkipSymlink})
				continue
			}
			if _, seen := byRoot[f.Root]; seen {
				skips = append(skips, Skip{Path: f.Path, Root: f.Root, Reason: SkipDuplicate})
				continue
			}

			rec := f
			rec.Layer = append([]merkle.Hash(nil), f.Layer...)
			out.Files = append(out.Files, rec)
			byRoot[f.Root] = len(out.Files) - 1

			if err := tree.Insert(&out.Files[len(out.Files)-1]); err != nil {
				return nil, nil, fmt.Errorf("file %q: %w", f.Path, err)
			}
		}
	}

	if err := raiseAll(ctx, out.Files, target, opts.Workers); err != nil {
		return nil, nil, err
	}

	mergeMetadata(out, sources)
	return out, skips, nil
}

// raiseAll normalizes every record's layer to the target piece size. Each
// file is independent, so the work fans out across a bounded worker pool;
// records are updated in place so no ordering is imposed on completion.
func raiseAll(ctx context.Context, files []FileRecord, target int64, workers int) error {
	if workers <= 0 {
		workers = min(runtime.NumCPU(), 8)
	}

	jobs := make(chan int, workers)
	errs := make(chan error, 1)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				rec := &files[i]
				raised, err := merkle.Raise(rec.Layer, rec.PieceSize, target, rec.Length)
				if err != nil {
					// Keep draining jobs so the feeder never blocks;
					// only the first error is kept.
					select {
					case errs <- fmt.Errorf("file %q: %w", rec.Path, err):
					default:
					}
					continue
				}
				rec.Layer = raised
				rec.PieceSize = target
			}
		}()
	}

loop:
	for i := range files {
		select {
		case jobs <- i:
		case <-ctx.Done():
			break loop
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case err := <-errs:
		return err
	default:
		return nil
	}
}

func mergeMetadata(out *Manifest, sources []*Manifest) {
	seenTracker := make(map[string]bool)
	seenSeed := make(map[string]bool)
	seenNode := make(map[DHTNode]bool)

	for _, src := range sources {
		for tier, urls := range src.Trackers {
			for len(out.Trackers) <= tier {
				out.Trackers = append(out.Trackers, nil)
			}
			for _, url := range urls {
				if !seenTracker[url] {
					seenTracker[url] = true
					out.Trackers[tier] = append(out.Trackers[tier], url)
				}
			}
		}
		for _, ws := range src.WebSeeds {
			if !seenSeed[ws] {
				seenSeed[ws] = true
				out.WebSeeds = append(out.WebSeeds, ws)
			}
		}
		for _, n := range src.DHTNodes {
			if !seenNode[n] {
				seenNode[n] = true
				out.DHTNodes = append(out.DHTNodes, n)
			}
		}
		if out.Comment == "" {
			out.Comment = src.Comment
		}
		if out.CreatedBy == "" {
			out.CreatedBy = src.CreatedBy
		}
		if src.CreationDate > out.CreationDate {
			out.CreationDate = src.CreationDate
		}
		out.Private = out.Private || src.Private
	}

	// Sets have no inherent order; sort for reproducible output.
	sort.Strings(out.WebSeeds)
	sort.Slice(out.DHTNodes, func(i, j int) bool {
		a, b := out.DHTNodes[i], out.DHTNodes[j]
		if a.Host != b.Host {
			return a.Host < b.Host
		}
		return a.Port < b.Port
	})

	if out.CreationDate == 0 {
		out.CreationDate = time.Now().Unix()
	}
}
