// Package event carries progress notifications from the hashing engine to
// whatever is presenting them. The core never prints; it emits events.
package event

import "time"

// Type identifies the kind of event.
type Type int

const (
	ScanStarted Type = iota + 1
	ScanComplete
	FileStarted
	FileHashed
	FileFailed
	FileSkipped
)

var typeNames = [...]string{
	ScanStarted:  "ScanStarted",
	ScanComplete: "ScanComplete",
	FileStarted:  "FileStarted",
	FileHashed:   "FileHashed",
	FileFailed:   "FileFailed",
	FileSkipped:  "FileSkipped",
}

func (t Type) String() string {
	if t >= 1 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Event is a single progress notification.
type Event struct {
	Type      Type
	Timestamp time.Time
	Path      string // relative path inside the torrent
	Size      int64  // file size in bytes
	Total     int64  // total files (ScanComplete)
	TotalSize int64  // total bytes (ScanComplete)
	Error     error
}
