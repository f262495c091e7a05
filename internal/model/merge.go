package model

import (
	"sort"
	"strings"
)

// MergeStats reports what the merge discarded, keyed by year. It feeds
// the validation report.
type MergeStats struct {
	DuplicatesByYear map[int]int
}

// Merge combines per-source holiday lists into one list with unique dates.
//
// Lists are consumed in the order given; within a date, the first non-empty
// value per name field wins, so callers list their most trusted source
// first. The statutory flag is OR-ed. Source tags of all contributing
// sources are recorded, separated by "+".
//
// A second record for an already-seen date counts as a duplicate in the
// returned stats, whether it came from the same list or a later one.
func Merge(lists ...[]Holiday) ([]Holiday, MergeStats) {
	stats := MergeStats{DuplicatesByYear: make(map[int]int)}

	byDate := make(map[string]*Holiday)
	order := make([]string, 0)

	for _, list := range lists {
		for _, h := range list {
			if h.Date == "" {
				continue
			}

			existing, ok := byDate[h.Date]
			if !ok {
				cp := h
				byDate[h.Date] = &cp
				order = append(order, h.Date)
				continue
			}

			stats.DuplicatesByYear[h.Year()]++

			if existing.NameEN == "" {
				existing.NameEN = h.NameEN
			}
			if existing.NameZH == "" {
				existing.NameZH = h.NameZH
			}
			if h.Statutory {
				existing.Statutory = true
			}
			if h.Source != "" && h.Source != existing.Source && !containsTag(existing.Source, h.Source) {
				if existing.Source == "" {
					existing.Source = h.Source
				} else {
					existing.Source += "+" + h.Source
				}
			}
		}
	}

	out := make([]Holiday, 0, len(order))
	for _, date := range order {
		out = append(out, *byDate[date])
	}
	Sort(out)
	return out, stats
}

// MarkStatutory cross-references the merged list against records from the
// statutory-holiday source. An exact date match sets the flag; a statutory
// date absent from the merged list is appended as a new record so the
// output never silently loses a statutory holiday.
func MarkStatutory(merged []Holiday, statutory []Holiday) []Holiday {
	index := make(map[string]int, len(merged))
	for i, h := range merged {
		index[h.Date] = i
	}

	out := merged
	for _, s := range statutory {
		if s.Date == "" {
			continue
		}
		if i, ok := index[s.Date]; ok {
			out[i].Statutory = true
			continue
		}
		s.Statutory = true
		index[s.Date] = len(out)
		out = append(out, s)
	}
	Sort(out)
	return out
}

// Sort orders records ascending by date, in place.
func Sort(holidays []Holiday) {
	sort.Slice(holidays, func(i, j int) bool {
		return holidays[i].Date < holidays[j].Date
	})
}

func containsTag(joined, tag string) bool {
	for _, part := range strings.Split(joined, "+") {
		if part == tag {
			return true
		}
	}
	return false
}
