// Package stats tracks hashing progress with lock-free atomic counters, so
// worker goroutines can report without coordination.
package stats

import (
	"sync/atomic"
	"time"
)

// Collector accumulates counters for one hashing run.
type Collector struct {
	filesHashed  atomic.Int64
	filesFailed  atomic.Int64
	filesSkipped atomic.Int64
	bytesHashed  atomic.Int64
	bytesTotal   atomic.Int64
	filesTotal   atomic.Int64
	startTime    time.Time
}

// NewCollector creates a Collector with startTime set to now.
func NewCollector() *Collector {
	return &Collector{startTime: time.Now()}
}

// SetTotals records scan totals (called once when the scan completes).
func (c *Collector) SetTotals(files, bytes int64) {
	c.filesTotal.Store(files)
	c.bytesTotal.Store(bytes)
}

func (c *Collector) AddFilesHashed(n int64)  { c.filesHashed.Add(n) }
func (c *Collector) AddFilesFailed(n int64)  { c.filesFailed.Add(n) }
func (c *Collector) AddFilesSkipped(n int64) { c.filesSkipped.Add(n) }
func (c *Collector) AddBytesHashed(n int64)  { c.bytesHashed.Add(n) }

// Snapshot is a point-in-time read of all counters.
type Snapshot struct {
	FilesHashed  int64
	FilesFailed  int64
	FilesSkipped int64
	BytesHashed  int64
	BytesTotal   int64
	FilesTotal   int64
	Elapsed      time.Duration
}

// Snapshot reads all counters at once.
func (c *Collector) Snapshot() Snapshot {
	return Snapshot{
		FilesHashed:  c.filesHashed.Load(),
		FilesFailed:  c.filesFailed.Load(),
		FilesSkipped: c.filesSkipped.Load(),
		BytesHashed:  c.bytesHashed.Load(),
		BytesTotal:   c.bytesTotal.Load(),
		FilesTotal:   c.filesTotal.Load(),
		Elapsed:      time.Since(c.startTime),
	}
}

// Rate returns the average hashing throughput in bytes per second.
func (s Snapshot) Rate() float64 {
	secs := s.Elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(s.BytesHashed) / secs
}
