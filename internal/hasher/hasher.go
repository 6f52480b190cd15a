// Package hasher builds v2 manifests from on-disk content: it scans a file
// or directory tree, hashes 16 KiB blocks with SHA-256, and assembles each
// file's piece layer and merkle root at a chosen piece size. Files hash
// independently, so the work fans out over a bounded worker pool.
package hasher

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/torrtool/torrtool/internal/event"
	"github.com/torrtool/torrtool/internal/manifest"
	"github.com/torrtool/torrtool/internal/merkle"
	"github.com/torrtool/torrtool/internal/stats"
)

// MaxPieceSize caps the automatic piece size selection at 16 MiB.
const MaxPieceSize = 16 << 20

// targetPieceCount steers DefaultPieceSize: the piece size doubles until a
// torrent has at most roughly this many pieces.
const targetPieceCount = 2048

// DefaultPieceSize picks a piece size for the given total content length.
func DefaultPieceSize(total int64) int64 {
	ps := int64(manifest.MinPieceSize)
	for ps < MaxPieceSize && total/ps > targetPieceCount {
		ps <<= 1
	}
	return ps
}

// Options control a hashing run. The zero value hashes with an automatic
// piece size and min(NumCPU, 8) workers.
type Options struct {
	// PieceSize in bytes; 0 selects one from the total content length.
	PieceSize int64
	// Workers bounds the number of files hashed concurrently.
	Workers int
	// WithMTime records file modification times in the manifest.
	WithMTime bool

	StoreSymlinks bool
	IncludeHidden bool
	Exclude       []string

	// Events, when set, receives progress notifications. The caller must
	// drain the channel.
	Events chan<- event.Event
	// Stats, when set, is updated as hashing proceeds.
	Stats *stats.Collector
}

// HashPath scans root and hashes every file into a manifest named after the
// root's base name. Any file error aborts the run; a torrent with holes in
// it is worthless.
func HashPath(ctx context.Context, root string, opts Options) (*manifest.Manifest, error) {
	emit(opts.Events, event.Event{Type: event.ScanStarted, Path: root})

	entries, err := Scan(root, ScanOptions{
		StoreSymlinks: opts.StoreSymlinks,
		IncludeHidden: opts.IncludeHidden,
		Exclude:       opts.Exclude,
	})
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("no files under %s", root)
	}

	var total int64
	for _, e := range entries {
		total += e.Size
	}
	if opts.Stats != nil {
		opts.Stats.SetTotals(int64(len(entries)), total)
	}
	emit(opts.Events, event.Event{Type: event.ScanComplete, Total: int64(len(entries)), TotalSize: total})

	pieceSize := opts.PieceSize
	if pieceSize == 0 {
		pieceSize = DefaultPieceSize(total)
	}
	if !manifest.ValidPieceSize(pieceSize) {
		return nil, fmt.Errorf("invalid piece size %d", pieceSize)
	}

	records := make([]manifest.FileRecord, len(entries))
	if err := hashAll(ctx, entries, records, pieceSize, opts); err != nil {
		return nil, err
	}

	return &manifest.Manifest{
		Name:      filepath.Base(filepath.Clean(root)),
		PieceSize: pieceSize,
		Files:     records,
	}, nil
}

func hashAll(ctx context.Context, entries []Entry, records []manifest.FileRecord, pieceSize int64, opts Options) error {
	workers := opts.Workers
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
				if err := hashEntry(&records[i], entries[i], pieceSize, opts); err != nil {
					select {
					case errs <- err:
					default:
					}
				}
			}
		}()
	}

loop:
	for i := range entries {
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

func hashEntry(rec *manifest.FileRecord, e Entry, pieceSize int64, opts Options) error {
	rec.Path = e.Path
	rec.Length = e.Size
	rec.PieceSize = pieceSize
	if opts.WithMTime {
		rec.MTime = e.MTime
	}
	if e.Mode&0o111 != 0 {
		rec.Flags |= manifest.FlagExecutable
	}
	if e.Mode&fs.ModeSymlink != 0 {
		rec.Flags |= manifest.FlagSymlink
		rec.SymlinkTarget = e.SymlinkTarget
		rec.Length = 0
		return nil
	}

	emit(opts.Events, event.Event{Type: event.FileStarted, Path: e.Path, Size: e.Size})

	root, layer, err := hashFile(e.Abs, e.Size, pieceSize)
	if err != nil {
		if opts.Stats != nil {
			opts.Stats.AddFilesFailed(1)
		}
		emit(opts.Events, event.Event{Type: event.FileFailed, Path: e.Path, Size: e.Size, Error: err})
		return fmt.Errorf("hash %s: %w", e.Abs, err)
	}
	rec.Root = root
	rec.Layer = layer

	if opts.Stats != nil {
		opts.Stats.AddFilesHashed(1)
		opts.Stats.AddBytesHashed(e.Size)
	}
	emit(opts.Events, event.Event{Type: event.FileHashed, Path: e.Path, Size: e.Size})
	return nil
}

// hashFile computes a file's merkle root and piece layer. The final partial
// block is hashed over its actual bytes; only whole missing blocks are
// padded, with the zero hash inside a piece and the per-file pad above the
// piece level.
func hashFile(path string, size, pieceSize int64) (merkle.Hash, []merkle.Hash, error) {
	if size == 0 {
		return merkle.Hash{}, nil, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return merkle.Hash{}, nil, err
	}
	defer f.Close()

	blocksPerPiece := pieceSize / merkle.BlockSize
	buf := make([]byte, merkle.BlockSize)

	var layer []merkle.Hash
	blocks := make([]merkle.Hash, 0, blocksPerPiece)
	singlePiece := size <= pieceSize

	flush := func() {
		if singlePiece {
			return
		}
		layer = append(layer, pieceRoot(blocks, blocksPerPiece))
		blocks = blocks[:0]
	}

	var read int64
	for read < size {
		n, err := io.ReadFull(f, buf)
		if err == io.ErrUnexpectedEOF && read+int64(n) == size {
			err = nil
		}
		if err != nil {
			return merkle.Hash{}, nil, err
		}
		read += int64(n)
		blocks = append(blocks, merkle.Sum(buf[:n]))
		if int64(len(blocks)) == blocksPerPiece {
			flush()
		}
	}
	if len(blocks) > 0 {
		flush()
	}

	if singlePiece {
		return merkle.Root(blocks), nil, nil
	}
	root := merkle.RootWithPad(layer, merkle.PadHash(blocksPerPiece, 1))
	return root, layer, nil
}

// pieceRoot hashes one piece's block hashes up to a single node, zero-padding
// to a full complement of blocks.
func pieceRoot(blocks []merkle.Hash, perPiece int64) merkle.Hash {
	full := make([]merkle.Hash, perPiece)
	copy(full, blocks)
	return merkle.Root(full)
}

func emit(ch chan<- event.Event, ev event.Event) {
	if ch == nil {
		return
	}
	ev.Timestamp = time.Now()
	ch <- ev
}
