// Package ui renders manifests and hashing progress for the terminal. The
// core packages never print; everything user-facing funnels through here.
package ui

import (
	"fmt"
	"strings"
	"time"
)

// FormatSize renders a byte count with binary-prefixed units, two decimal
// places above 1 kiB.
func FormatSize(val int64) string {
	switch {
	case val > 1<<40:
		return fmt.Sprintf("%.2f TiB", float64(val)/(1<<40))
	case val > 1<<30:
		return fmt.Sprintf("%.2f GiB", float64(val)/(1<<30))
	case val > 1<<20:
		return fmt.Sprintf("%.2f MiB", float64(val)/(1<<20))
	case val > 1<<10:
		return fmt.Sprintf("%.2f kiB", float64(val)/(1<<10))
	default:
		return fmt.Sprintf("%d", val)
	}
}

// FormatRate formats a bytes-per-second rate as a human-readable string.
func FormatRate(bytesPerSec float64) string {
	if bytesPerSec <= 0 {
		return "0 B/s"
	}
	units := []string{"B/s", "kiB/s", "MiB/s", "GiB/s", "TiB/s"}
	val := bytesPerSec
	for _, u := range units {
		if val < 1024 {
			if val < 10 {
				return fmt.Sprintf("%.2f %s", val, u)
			}
			if val < 100 {
				return fmt.Sprintf("%.1f %s", val, u)
			}
			return fmt.Sprintf("%.0f %s", val, u)
		}
		val /= 1024
	}
	return fmt.Sprintf("%.1f PiB/s", val)
}

// FormatTimestamp renders a unix timestamp as UTC "2006-01-02 15:04:05".
// Zero renders as "-".
func FormatTimestamp(t int64) string {
	if t == 0 {
		return "-"
	}
	return time.Unix(t, 0).UTC().Format("2006-01-02 15:04:05")
}

// FormatCount formats an integer with comma separators.
func FormatCount(n int64) string {
	if n < 0 {
		return "-" + FormatCount(-n)
	}
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		b.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
