package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/torrtool/torrtool/internal/event"
	"github.com/torrtool/torrtool/internal/stats"
)

// Progress prints one line per hashed file and a summary at the end of a
// run. It is the plain, pipe-friendly presenter; there is no in-place
// redraw.
type Progress struct {
	W     io.Writer
	Stats *stats.Collector
}

// Run consumes events until the channel closes.
func (p *Progress) Run(events <-chan event.Event) {
	for ev := range events {
		switch ev.Type {
		case event.ScanComplete:
			fmt.Fprintf(p.W, "hashing %s file(s), %s\n", FormatCount(ev.Total), FormatSize(ev.TotalSize))
		case event.FileHashed:
			fmt.Fprintf(p.W, "%s  %s\n", ev.Path, FormatSize(ev.Size))
		case event.FileFailed:
			msg := "error"
			if ev.Error != nil {
				msg = ev.Error.Error()
			}
			fmt.Fprintf(p.W, "%s  %s\n", ev.Path, msg)
		case event.FileSkipped:
			fmt.Fprintf(p.W, "%s  skipped\n", ev.Path)
		}
	}
}

// Summary writes a one-line digest of a finished hashing run.
func (p *Progress) Summary() {
	if p.Stats == nil {
		return
	}
	s := p.Stats.Snapshot()
	fmt.Fprintf(p.W, "hashed %s file(s), %s in %s (%s)\n",
		FormatCount(s.FilesHashed), FormatSize(s.BytesHashed),
		s.Elapsed.Round(10*time.Millisecond), FormatRate(s.Rate()))
}
