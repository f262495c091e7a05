package model

import "sort"

// YearSummary is one row of the completeness report.
type YearSummary struct {
	Year       int
	Total      int
	MissingEN  int
	MissingZH  int
	Duplicates int
	Statutory  int
}

// Validate walks the merged list and produces per-year counts for the
// report: totals, records missing either name, duplicates removed during
// merge, and records carrying the statutory flag. Years appear in
// ascending order; a year present only in the duplicate stats still gets
// a row.
func Validate(holidays []Holiday, stats MergeStats) []YearSummary {
	byYear := make(map[int]*YearSummary)

	summary := func(year int) *YearSummary {
		s, ok := byYear[year]
		if !ok {
			s = &YearSummary{Year: year}
			byYear[year] = s
		}
		return s
	}

	for _, h := range holidays {
		year := h.Year()
		if year == 0 {
			continue
		}
		s := summary(year)
		s.Total++
		if h.NameEN == "" {
			s.MissingEN++
		}
		if h.NameZH == "" {
			s.MissingZH++
		}
		if h.Statutory {
			s.Statutory++
		}
	}

	for year, n := range stats.DuplicatesByYear {
		if year == 0 {
			continue
		}
		summary(year).Duplicates = n
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	out := make([]YearSummary, 0, len(years))
	for _, y := range years {
		out = append(out, *byYear[y])
	}
	return out
}
