package scrape

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"hkholiday/internal/model"
)

var monthsEN = map[string]int{
	"january": 1, "february": 2, "march": 3, "april": 4,
	"may": 5, "june": 6, "july": 7, "august": 8,
	"september": 9, "october": 10, "november": 11, "december": 12,
}

var (
	// "1 January" / "1 January 2025"
	reDayMonth = regexp.MustCompile(`^(\d{1,2})\s+([A-Za-z]+)(?:\s+(\d{4}))?$`)
	// "January 1" / "January 1, 2025"
	reMonthDay = regexp.MustCompile(`^([A-Za-z]+)\s+(\d{1,2})(?:,?\s+(\d{4}))?$`)
	// "1月1日" / "2025年1月1日"
	reChinese = regexp.MustCompile(`^(?:(\d{4})年)?(\d{1,2})月(\d{1,2})日$`)
)

// ParseLooseDate normalizes the date formats seen in government holiday
// tables: canonical/8-digit forms, English "1 January [2025]" (either
// word order), and Chinese "[2025年]1月1日". Day-only forms take the year
// from yearHint. Returns "" when nothing matches.
func ParseLooseDate(s string, yearHint int) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	if d := model.NormalizeDate(s); d != "" {
		return d
	}

	if m := reDayMonth.FindStringSubmatch(s); m != nil {
		return assemble(m[3], monthsEN[strings.ToLower(m[2])], m[1], yearHint)
	}
	if m := reMonthDay.FindStringSubmatch(s); m != nil {
		return assemble(m[3], monthsEN[strings.ToLower(m[1])], m[2], yearHint)
	}
	if m := reChinese.FindStringSubmatch(s); m != nil {
		month, _ := strconv.Atoi(m[2])
		return assemble(m[1], month, m[3], yearHint)
	}
	return ""
}

func assemble(yearStr string, month int, dayStr string, yearHint int) string {
	if month == 0 {
		return ""
	}
	year := yearHint
	if yearStr != "" {
		year, _ = strconv.Atoi(yearStr)
	}
	day, _ := strconv.Atoi(dayStr)
	if year == 0 || day == 0 {
		return ""
	}

	// Round-trip through NormalizeDate to reject impossible dates
	// (31 February and the like).
	return model.NormalizeDate(fmt.Sprintf("%04d-%02d-%02d", year, month, day))
}

var weekdayWords = []string{
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	"星期一", "星期二", "星期三", "星期四", "星期五", "星期六", "星期日",
	"禮拜一", "禮拜二", "禮拜三", "禮拜四", "禮拜五", "禮拜六", "禮拜日",
}

// isWeekday reports whether a cell holds only a day-of-week label, which
// the government tables carry as a separate column.
func isWeekday(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, w := range weekdayWords {
		if s == w {
			return true
		}
	}
	return false
}
