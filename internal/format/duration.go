// Package format provides shared formatting utilities.
package format

import "fmt"

// Seconds formats a second count as a human-readable duration
// (e.g., "42s", "3m 12s", "1h 04m").
func Seconds(s float64) string {
	total := int(s)
	switch {
	case total >= 3600:
		return fmt.Sprintf("%dh %02dm", total/3600, (total%3600)/60)
	case total >= 60:
		return fmt.Sprintf("%dm %02ds", total/60, total%60)
	default:
		return fmt.Sprintf("%ds", total)
	}
}

// Timestamp formats an event timestamp for report output.
const TimestampLayout = "2006-01-02 15:04:05.000000"
