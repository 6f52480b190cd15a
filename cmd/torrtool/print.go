package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/torrtool/torrtool/internal/metainfo"
	"github.com/torrtool/torrtool/internal/ui"
)

var printOpts struct {
	files      bool
	pieceCount bool
	pieceSize  bool
	infoHash   bool
	comment    bool
	creator    bool
	date       bool
	name       bool
	private    bool
	trackers   bool
	webSeeds   bool
	dhtNodes   bool
	totalSize  bool

	fileRoots      bool
	noAttributes   bool
	fileOffsets    bool
	filePieceRange bool
	noFileSize     bool
	fileMTime      bool
	flat           bool
	showPadFiles   bool
	humanReadable  bool
	forceColor     bool
	noColor        bool
}

var printCmd = &cobra.Command{
	Use:   "print [flags] <torrent>...",
	Short: "Print the contents of torrent files",
	Long: `Print the properties of the given torrents. By default every populated
property is shown; naming specific properties prints only those. The file
list renders as a tree unless --flat is given, colored by file kind when
stdout is a terminal.`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runPrint,
}

func init() {
	f := printCmd.Flags()
	f.BoolVarP(&printOpts.files, "files", "f", false, "list files")
	f.BoolVarP(&printOpts.pieceCount, "piece-count", "n", false, "print the number of pieces")
	f.BoolVar(&printOpts.pieceSize, "piece-size", false, "print the piece size")
	f.BoolVar(&printOpts.infoHash, "info-hash", false, "print the info-hash")
	f.BoolVar(&printOpts.comment, "comment", false, "print the comment field")
	f.BoolVar(&printOpts.creator, "creator", false, "print the creator field")
	f.BoolVar(&printOpts.date, "date", false, "print the creation date field")
	f.BoolVar(&printOpts.name, "name", false, "print the torrent name")
	f.BoolVar(&printOpts.private, "private", false, "print the private field")
	f.BoolVar(&printOpts.trackers, "trackers", false, "print trackers")
	f.BoolVar(&printOpts.webSeeds, "web-seeds", false, "print web seeds")
	f.BoolVar(&printOpts.dhtNodes, "dht-nodes", false, "print DHT nodes")
	f.BoolVar(&printOpts.totalSize, "total-size", false, "print the sum of all non-pad files")
	f.BoolVar(&printOpts.fileRoots, "file-roots", false, "print file merkle root hashes")
	f.BoolVar(&printOpts.noAttributes, "no-file-attributes", false, "don't print file attributes")
	f.BoolVar(&printOpts.fileOffsets, "file-offsets", false, "print file offsets")
	f.BoolVar(&printOpts.filePieceRange, "file-piece-range", false, "print first and last piece index for files")
	f.BoolVar(&printOpts.noFileSize, "no-file-size", false, "don't print file sizes")
	f.BoolVar(&printOpts.fileMTime, "file-mtime", false, "print file modification times")
	f.BoolVar(&printOpts.flat, "flat", false, "print the file list flat instead of as a tree")
	f.BoolVar(&printOpts.showPadFiles, "show-padfiles", false, "show pad files in the file list")
	f.BoolVarP(&printOpts.humanReadable, "human-readable", "H", false, "print file sizes with binary-prefixed units")
	f.BoolVar(&printOpts.forceColor, "color", false, "force colored output")
	f.BoolVar(&printOpts.noColor, "no-color", false, "disable colored output")
}

func runPrint(_ *cobra.Command, args []string) error {
	color := ui.IsTTY(os.Stdout.Fd())
	if printOpts.forceColor {
		color = true
		ui.ForceColor()
	}
	if printOpts.noColor {
		color = false
	}

	selected := printOpts.files || printOpts.pieceCount || printOpts.pieceSize ||
		printOpts.infoHash || printOpts.comment || printOpts.creator ||
		printOpts.date || printOpts.name || printOpts.private ||
		printOpts.trackers || printOpts.webSeeds || printOpts.dhtNodes ||
		printOpts.totalSize

	opts := ui.PrintOptions{
		All:            !selected,
		Files:          printOpts.files,
		PieceCount:     printOpts.pieceCount,
		PieceSize:      printOpts.pieceSize,
		InfoHash:       printOpts.infoHash,
		Comment:        printOpts.comment,
		Creator:        printOpts.creator,
		Date:           printOpts.date,
		Name:           printOpts.name,
		Private:        printOpts.private,
		Trackers:       printOpts.trackers,
		WebSeeds:       printOpts.webSeeds,
		DHTNodes:       printOpts.dhtNodes,
		TotalSize:      printOpts.totalSize,
		FileRoots:      printOpts.fileRoots,
		NoAttributes:   printOpts.noAttributes,
		FileOffsets:    printOpts.fileOffsets,
		FilePieceRange: printOpts.filePieceRange,
		NoFileSize:     printOpts.noFileSize,
		FileMTime:      printOpts.fileMTime,
		Flat:           printOpts.flat,
		ShowPadFiles:   printOpts.showPadFiles,
		HumanReadable:  printOpts.humanReadable,
		Color:          color,
	}

	printer := ui.NewPrinter(os.Stdout, opts)
	failed := 0
	for _, path := range args {
		m, err := metainfo.Load(path)
		if err != nil {
			slog.Error("load failed", "path", path, "error", err)
			failed++
			continue
		}
		if len(args) > 1 {
			fmt.Fprintf(os.Stdout, "%s:\n", path)
		}
		if err := printer.Print(m); err != nil {
			return err
		}
	}
	if failed > 0 {
		return &exitError{code: 1}
	}
	return nil
}
