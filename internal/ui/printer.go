package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/torrtool/torrtool/internal/manifest"
	"github.com/torrtool/torrtool/internal/metainfo"
)

// PrintOptions select what Print renders. The zero value prints nothing;
// set All for the default everything-that-is-populated view.
type PrintOptions struct {
	// All prints every populated field. The individual selectors below
	// force a field on even when it is empty.
	All        bool
	Files      bool
	PieceCount bool
	PieceSize  bool
	InfoHash   bool
	Comment    bool
	Creator    bool
	Date       bool
	Name       bool
	Private    bool
	Trackers   bool
	WebSeeds   bool
	DHTNodes   bool
	TotalSize  bool

	// File list rendering. Attributes and sizes default to on, so the
	// negated fields keep the zero value useful.
	FileRoots      bool
	NoAttributes   bool
	FileOffsets    bool
	FilePieceRange bool
	NoFileSize     bool
	FileMTime      bool
	Flat           bool
	ShowPadFiles   bool
	HumanReadable  bool
	Color          bool
}

// Printer renders manifests with a fixed set of options.
type Printer struct {
	w    io.Writer
	opts PrintOptions

	// pieceSize of the manifest being printed, set by Print.
	pieceSize int64

	symlink lipgloss.Style
	dir     lipgloss.Style
	exec    lipgloss.Style
	hidden  lipgloss.Style
	pad     lipgloss.Style
}

// NewPrinter builds a Printer writing to w. Styles are only applied when
// opts.Color is set.
func NewPrinter(w io.Writer, opts PrintOptions) *Printer {
	p := &Printer{w: w, opts: opts}
	if opts.Color {
		p.symlink = lipgloss.NewStyle().Foreground(lipgloss.Color("5"))
		p.dir = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
		p.exec = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
		p.hidden = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
		p.pad = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	}
	return p
}

// Print writes the selected fields of m.
func (p *Printer) Print(m *manifest.Manifest) error {
	o := p.opts
	p.pieceSize = m.PieceSize

	if (o.All && len(m.DHTNodes) > 0) || o.DHTNodes {
		fmt.Fprintln(p.w, "nodes:")
		for _, n := range m.DHTNodes {
			fmt.Fprintf(p.w, "%s: %d\n", n.Host, n.Port)
		}
	}
	if o.All || o.TotalSize {
		fmt.Fprintf(p.w, "size: %s\n", p.size(contentLength(m)))
	}
	if (o.All && len(m.Trackers) > 0) || o.Trackers {
		fmt.Fprintln(p.w, "trackers:")
		for tier, urls := range m.Trackers {
			for _, u := range urls {
				fmt.Fprintf(p.w, "%2d: %s\n", tier, u)
			}
		}
	}
	if (o.All && len(m.WebSeeds) > 0) || o.WebSeeds {
		fmt.Fprintln(p.w, "web seeds:")
		for _, ws := range m.WebSeeds {
			fmt.Fprintln(p.w, ws)
		}
	}
	if o.All || o.PieceCount {
		fmt.Fprintf(p.w, "piece-count: %d\n", pieceCount(m))
	}
	if o.All || o.PieceSize {
		fmt.Fprintf(p.w, "piece size: %d\n", m.PieceSize)
	}
	if o.All || o.InfoHash {
		ih, err := metainfo.InfoHash(m)
		if err != nil {
			return fmt.Errorf("info hash: %w", err)
		}
		fmt.Fprintf(p.w, "info hash: v2: %s\n", ih.Hex())
	}
	if (o.All && m.Comment != "") || o.Comment {
		fmt.Fprintf(p.w, "comment: %s\n", m.Comment)
	}
	if (o.All && m.CreatedBy != "") || o.Creator {
		fmt.Fprintf(p.w, "created by: %s\n", m.CreatedBy)
	}
	if (o.All && m.CreationDate != 0) || o.Date {
		fmt.Fprintf(p.w, "creation date: %s\n", FormatTimestamp(m.CreationDate))
	}
	if (o.All && m.Private) || o.Private {
		yn := "no"
		if m.Private {
			yn = "yes"
		}
		fmt.Fprintf(p.w, "private: %s\n", yn)
	}
	if o.All || o.Name {
		fmt.Fprintf(p.w, "name: %s\n", m.Name)
	}
	if o.All {
		fmt.Fprintf(p.w, "number of files: %d\n", len(m.Files))
	}
	if o.All || o.Files {
		fmt.Fprintln(p.w, "files:")
		if o.Flat {
			return p.printFlat(m)
		}
		return p.printTree(m)
	}
	return nil
}

// contentLength sums the non-pad file lengths.
func contentLength(m *manifest.Manifest) int64 {
	var total int64
	for _, f := range m.Files {
		if f.Flags&manifest.FlagPad != 0 {
			continue
		}
		total += f.Length
	}
	return total
}

// pieceCount walks the piece-aligned layout and counts pieces over all
// files, pad files included.
func pieceCount(m *manifest.Manifest) int64 {
	s := manifest.Slicer{PieceSize: m.PieceSize}
	var off int64
	for _, f := range m.Files {
		off = s.NextBoundary(off + f.Length)
	}
	return off / m.PieceSize
}

// fileOffsets returns each file's byte offset in the piece-aligned layout.
func fileOffsets(m *manifest.Manifest) []int64 {
	s := manifest.Slicer{PieceSize: m.PieceSize}
	offsets := make([]int64, len(m.Files))
	var off int64
	for i, f := range m.Files {
		offsets[i] = off
		off = s.NextBoundary(off + f.Length)
	}
	return offsets
}

func (p *Printer) size(n int64) string {
	if p.opts.HumanReadable {
		return FormatSize(n)
	}
	return fmt.Sprintf("%d", n)
}

// columns renders the attribute columns for one file.
func (p *Printer) columns(f *manifest.FileRecord, offset int64) string {
	var b strings.Builder
	o := p.opts

	if o.FileOffsets {
		fmt.Fprintf(&b, "%11d ", offset)
	}
	if !o.NoFileSize {
		fmt.Fprintf(&b, "%11s", p.size(f.Length))
	}
	if !o.NoAttributes {
		fmt.Fprintf(&b, " %s ", f.Flags)
	}
	if o.FilePieceRange {
		s := manifest.Slicer{PieceSize: p.pieceSize}
		r, err := s.FileRange(offset, f.Length)
		if err == nil {
			last := r.End - 1
			if last < r.Start {
				last = r.Start
			}
			fmt.Fprintf(&b, " [ %5d, %5d ] ", r.Start, last)
		}
	}
	if o.FileMTime {
		if f.MTime == 0 {
			b.WriteString(strings.Repeat(" ", 20))
		} else {
			b.WriteString(FormatTimestamp(f.MTime) + " ")
		}
	}
	if o.FileRoots && !f.Root.IsZero() {
		b.WriteString(f.Root.Hex() + " ")
	}
	return b.String()
}

// blankColumns keeps directory rows aligned with file rows.
func (p *Printer) blankColumns() string {
	var b strings.Builder
	o := p.opts

	if o.FileOffsets {
		b.WriteString(strings.Repeat(" ", 12))
	}
	if !o.NoFileSize {
		b.WriteString(strings.Repeat(" ", 11))
	}
	if !o.NoAttributes {
		b.WriteString(strings.Repeat(" ", 6))
	}
	if o.FilePieceRange {
		b.WriteString(strings.Repeat(" ", 18))
	}
	if o.FileMTime {
		b.WriteString(strings.Repeat(" ", 20))
	}
	if o.FileRoots {
		b.WriteString(strings.Repeat(" ", 65))
	}
	return b.String()
}

// styleFor picks a color for a file by kind, most specific first.
func (p *Printer) styleFor(f *manifest.FileRecord) lipgloss.Style {
	switch {
	case f.Flags&manifest.FlagSymlink != 0:
		return p.symlink
	case f.Flags&manifest.FlagExecutable != 0:
		return p.exec
	case f.Flags&manifest.FlagHidden != 0:
		return p.hidden
	case f.Flags&manifest.FlagPad != 0:
		return p.pad
	default:
		return lipgloss.NewStyle()
	}
}

func (p *Printer) printFlat(m *manifest.Manifest) error {
	offsets := fileOffsets(m)
	for i := range m.Files {
		f := &m.Files[i]
		if f.Flags&manifest.FlagPad != 0 && !p.opts.ShowPadFiles {
			continue
		}
		line := p.columns(f, offsets[i]) + p.styleFor(f).Render(displayPath(m, f))
		if f.Flags&manifest.FlagSymlink != 0 {
			line += " -> " + f.SymlinkTarget
		}
		fmt.Fprintln(p.w, line)
	}
	return nil
}

func (p *Printer) printTree(m *manifest.Manifest) error {
	var tree manifest.PathTree
	offsets := fileOffsets(m)
	// Re-rooted copies so the tree shows on-disk paths under the torrent
	// name. The capacity matters: offsetOf keys pointers into recs.
	recs := make([]manifest.FileRecord, 0, len(m.Files))
	offsetOf := make(map[*manifest.FileRecord]int64, len(m.Files))
	for i := range m.Files {
		f := &m.Files[i]
		if f.Flags&manifest.FlagPad != 0 && !p.opts.ShowPadFiles {
			continue
		}
		rec := *f
		rec.Path = displayPath(m, f)
		recs = append(recs, rec)
		offsetOf[&recs[len(recs)-1]] = offsets[i]
		if err := tree.Insert(&recs[len(recs)-1]); err != nil {
			return err
		}
	}
	p.printBranch(tree.Root(), nil, offsetOf)
	return nil
}

func (p *Printer) printBranch(node *manifest.PathNode, levels []bool, offsetOf map[*manifest.FileRecord]int64) {
	names := node.Names()
	for i, name := range names {
		child := node.Child(name)
		last := i == len(names)-1

		var b strings.Builder
		if f := child.File(); f != nil {
			b.WriteString(p.columns(f, offsetOf[f]))
		} else {
			b.WriteString(p.blankColumns())
		}
		for _, open := range levels {
			if open {
				b.WriteString(" │")
			} else {
				b.WriteString("  ")
			}
		}
		if last {
			b.WriteString(" └ ")
		} else {
			b.WriteString(" ├ ")
		}

		if f := child.File(); f != nil {
			b.WriteString(p.styleFor(f).Render(name))
			if f.Flags&manifest.FlagSymlink != 0 {
				b.WriteString(" -> " + f.SymlinkTarget)
			}
		} else {
			b.WriteString(p.dir.Render(name))
		}
		fmt.Fprintln(p.w, b.String())

		if child.IsDir() {
			p.printBranch(child, append(levels, !last), offsetOf)
		}
	}
}

// displayPath prefixes the torrent name so the listing shows paths the way
// they land on disk. A single-file torrent whose file is the name itself
// stays bare.
func displayPath(m *manifest.Manifest, f *manifest.FileRecord) string {
	if len(m.Files) == 1 && f.Path == m.Name {
		return f.Path
	}
	return m.Name + "/" + f.Path
}
