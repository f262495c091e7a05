package model

import (
	"strings"
	"time"
)

// dateLayouts are tried in order by NormalizeDate. The ICS datetime forms
// appear because some feeds publish all-day holidays as midnight
// timestamps rather than bare dates.
var dateLayouts = []string{
	"2006-01-02",
	"20060102",
	"20060102T150405Z",
	"20060102T150405",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
}

// NormalizeDate reduces an 8-digit, ISO, or ICS date/datetime string to
// canonical YYYY-MM-DD form. Any string that does not parse as a real
// calendar date yields "" and the caller drops the record.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return t.Format("2006-01-02")
	}
	return ""
}
