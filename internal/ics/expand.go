package ics

import (
	"time"

	"github.com/teambition/rrule-go"

	appLog "hkholiday/internal/log"
	"hkholiday/internal/model"
)

// maxOccurrencesPerEvent caps runaway rules (e.g. FREQ=DAILY with no
// UNTIL) so a bad feed cannot blow up the record list.
const maxOccurrencesPerEvent = 1000

// Expand turns parsed events into one event per concrete date inside the
// [startYear, endYear] window.
//
//   - Non-recurring events pass through when their date falls inside the
//     window and outside the window are dropped.
//   - RRULE-bearing events are expanded (FREQ/BYMONTH/BYMONTHDAY/BYDAY/
//     BYSETPOS, so nth-weekday-of-month selection works); each occurrence
//     becomes a copy of the event with the occurrence date and no rule.
//   - EXDATEs remove individual occurrences.
//   - A malformed rule is skipped with a warning; the event's own DTSTART
//     still contributes if it lands in the window.
func Expand(events []model.Event, startYear, endYear int) []model.Event {
	windowStart := time.Date(startYear, time.January, 1, 0, 0, 0, 0, time.UTC)
	windowEnd := time.Date(endYear, time.December, 31, 0, 0, 0, 0, time.UTC)

	out := make([]model.Event, 0, len(events))

	for _, ev := range events {
		if ev.RawRRule == "" {
			if inWindow(ev.Start, windowStart, windowEnd) {
				out = append(out, ev)
			}
			continue
		}
		out = append(out, expandRecurring(ev, windowStart, windowEnd)...)
	}

	return out
}

func expandRecurring(ev model.Event, windowStart, windowEnd time.Time) []model.Event {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Warn("rrule parse failed; keeping base date only", "uid", ev.UID, "rrule", ev.RawRRule, "err", err)
		if inWindow(ev.Start, windowStart, windowEnd) {
			base := ev
			base.RawRRule = ""
			return []model.Event{base}
		}
		return nil
	}

	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	occTimes := set.Between(windowStart, windowEnd, true)
	if len(occTimes) > maxOccurrencesPerEvent {
		appLog.Warn("rrule expansion truncated", "uid", ev.UID, "cap", maxOccurrencesPerEvent)
		occTimes = occTimes[:maxOccurrencesPerEvent]
	}

	out := make([]model.Event, 0, len(occTimes))
	for _, occ := range occTimes {
		inst := ev
		inst.RawRRule = ""
		inst.ExDates = nil
		// Holidays are dates, not timestamps: truncate to midnight.
		inst.Start = time.Date(occ.Year(), occ.Month(), occ.Day(), 0, 0, 0, 0, time.UTC)
		out = append(out, inst)
	}
	return out
}

func inWindow(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}
