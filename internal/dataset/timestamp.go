package dataset

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// DisplayLayout is how parsed timestamps are printed in reports and anomaly lines.
const DisplayLayout = "2006-01-02 15:04:05"

// mediawikiLayout is the compact 14-digit form used by MediaWiki dumps (20200608123000).
const mediawikiLayout = "20060102150405"

var timestampLayouts = []string{
	time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05",
	"2006-01-02 15:04", "2006-01-02", "2006/01/02", "1/2/2006 15:04", "1/2/2006 15:04:05",
}

// ParseTimestamp accepts ISO-like layouts, MediaWiki 14-digit timestamps and Unix epochs
// (seconds, or milliseconds when the magnitude is at least 1e11).
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if len(s) == len(mediawikiLayout) && allDigits(s) {
		if t, err := time.Parse(mediawikiLayout, s); err == nil {
			return t, true
		}
	}
	for _, l := range timestampLayouts {
		if t, err := time.Parse(l, s); err == nil {
			return t, true
		}
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return time.Time{}, false
	}
	if math.Abs(f) >= 1e11 {
		return time.UnixMilli(int64(f)).UTC(), true
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC(), true
}

// FormatTimestamp renders raw in DisplayLayout when it parses, and returns it unchanged otherwise.
func FormatTimestamp(raw string) string {
	if t, ok := ParseTimestamp(raw); ok {
		return t.Format(DisplayLayout)
	}
	return raw
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
