package main

import (
	"strings"
	"time"
)

// summaryDurationUnit controls how run durations are rounded for display.
const summaryDurationUnit = 100 * time.Millisecond

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

// truncateDetail shortens long error details for table rows.
func truncateDetail(detail string, max int) string {
	detail = strings.TrimSpace(detail)
	if idx := strings.IndexByte(detail, '\n'); idx >= 0 {
		detail = detail[:idx]
	}
	runes := []rune(detail)
	if len(runes) <= max {
		return detail
	}
	if max <= 1 {
		return string(runes[:max])
	}
	return string(runes[:max-1]) + "…"
}
