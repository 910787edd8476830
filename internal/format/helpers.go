package format

import "fmt"

// Truncate shortens s to maxLen characters, appending "..." if truncated.
func Truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// BoolMark returns "✓" for true and "✗" for false.
func BoolMark(v bool) string {
	if v {
		return "✓"
	}
	return "✗"
}

// FmtRatio renders a 0..1 metric with three decimals, the width used in all
// evaluation tables.
func FmtRatio(v float64) string {
	return fmt.Sprintf("%.3f", v)
}

// FmtLines renders an inclusive 1-based line range as "start-end".
func FmtLines(start, end int) string {
	return fmt.Sprintf("%d-%d", start, end)
}
