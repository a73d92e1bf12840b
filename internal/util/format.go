package util

import (
	"time"

	"github.com/dustin/go-humanize"
)

// FormatCount renders a count with thousands separators (12345 -> "12,345")
func FormatCount(n int64) string {
	return humanize.Comma(n)
}

// FormatDuration rounds a duration for log output
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return d.Round(time.Millisecond).String()
	}
	return d.Round(10 * time.Millisecond).String()
}
