package ui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/dustin/go-humanize"
)

type keyBinding = key.Binding

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	time.DateTime,
}

// formatTimestamp renders backend timestamps as local time plus a relative
// hint. Unparseable values are shown as-is.
func formatTimestamp(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "-"
	}
	if t, ok := parseTimestamp(raw); ok {
		return t.Format("2006-01-02 15:04") + " (" + humanize.Time(t) + ")"
	}
	return raw
}

// formatShortTime renders a backend timestamp for table cells.
func formatShortTime(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "-"
	}
	if t, ok := parseTimestamp(raw); ok {
		return t.Format("2006-01-02 15:04")
	}
	return raw
}

func parseTimestamp(raw string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func formatBytes(n int64) string {
	if n <= 0 {
		return "-"
	}
	return humanize.Bytes(uint64(n))
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

// shortID trims long identifiers for table cells.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:8] + "…"
	}
	return dash(id)
}
