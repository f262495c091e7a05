package model

import (
	"strings"
	"time"
)

// Lang identifies which name field a monolingual source feeds.
type Lang string

const (
	LangEN Lang = "en"
	LangZH Lang = "zh"
)

// Holiday is the canonical record every source is normalized into.
// Date is the unique key within the final merged list.
type Holiday struct {
	Date      string `json:"date" csv:"date" yaml:"date"`
	NameEN    string `json:"name_en" csv:"name_en" yaml:"name_en"`
	NameZH    string `json:"name_zh" csv:"name_zh" yaml:"name_zh"`
	Statutory bool   `json:"statutory" csv:"statutory" yaml:"statutory"`
	Source    string `json:"source" csv:"source" yaml:"source"`
}

// Year returns the four-digit year of the record, or 0 when the date is
// not in canonical form.
func (h Holiday) Year() int {
	t, err := time.Parse("2006-01-02", h.Date)
	if err != nil {
		return 0
	}
	return t.Year()
}

// Event is a calendar event as produced by the jCal/ICS parsers, before
// recurrence expansion. Holiday feeds carry all-day events; Start holds
// the event date at midnight in the feed's timezone.
type Event struct {
	UID     string
	Summary string

	Start  time.Time
	AllDay bool

	// RawRRule is the unexpanded recurrence rule, empty for one-off events.
	RawRRule string
	ExDates  []time.Time
}

// FromEvents converts parser output into Holiday records, assigning the
// summary to the name field matching the source language. Events whose
// start does not normalize to a calendar date are dropped.
func FromEvents(events []Event, lang Lang, source string) []Holiday {
	out := make([]Holiday, 0, len(events))
	for _, ev := range events {
		if ev.Start.IsZero() {
			continue
		}
		h := Holiday{
			Date:   ev.Start.Format("2006-01-02"),
			Source: source,
		}
		name := strings.TrimSpace(ev.Summary)
		switch lang {
		case LangZH:
			h.NameZH = name
		default:
			h.NameEN = name
		}
		out = append(out, h)
	}
	return out
}
