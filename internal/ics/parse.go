package ics

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "hkholiday/internal/log"
	"hkholiday/internal/model"
)

// Parse parses an ICS payload into events. Holiday calendars publish
// all-day VEVENTs, detected by VALUE=DATE or a DTSTART without a time
// part. Individual malformed VEVENTs are skipped with a warning; a
// calendar with zero parseable events yields an empty list.
func Parse(sourceID string, body []byte) ([]model.Event, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	events := make([]model.Event, 0)
	for _, ve := range cal.Events() {
		ev, perr := parseVEvent(ve)
		if perr != nil {
			appLog.Warn("ics vevent skipped", "id", sourceID, "err", perr)
			continue
		}
		events = append(events, ev)
	}

	appLog.Info("ics parse completed", "id", sourceID, "event_count", len(events))
	return events, nil
}

func parseVEvent(ve *ical.VEvent) (model.Event, error) {
	var out model.Event

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		out.UID = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}

	dtStartProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStartProp == nil || dtStartProp.Value == "" {
		return out, errors.New("missing DTSTART")
	}

	// All-day detection: VALUE=DATE or no 'T' in the value.
	if params := dtStartProp.ICalParameters; params != nil {
		if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			out.AllDay = true
		}
	}
	if !strings.Contains(dtStartProp.Value, "T") {
		out.AllDay = true
	}

	date := model.NormalizeDate(dtStartProp.Value)
	if date == "" {
		return out, errors.New("unparseable DTSTART: " + dtStartProp.Value)
	}
	start, err := time.Parse("2006-01-02", date)
	if err != nil {
		return out, err
	}
	out.Start = start

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		out.RawRRule = p.Value
	}

	// EXDATE can appear multiple times, each with a comma-separated list.
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			d := model.NormalizeDate(part)
			if d == "" {
				continue
			}
			if t, err := time.Parse("2006-01-02", d); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	return out, nil
}
