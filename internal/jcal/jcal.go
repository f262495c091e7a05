// Package jcal parses jCal (RFC 7265) calendar documents, the JSON
// representation of iCalendar used by the 1823 holiday feed. A jCal
// document is nested arrays: ["vcalendar", [props], [components]], with
// each property shaped as [name, params, type, value...].
package jcal

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/buger/jsonparser"

	appLog "hkholiday/internal/log"
	"hkholiday/internal/model"
)

// Parse extracts vevent components from a jCal payload. Malformed
// components are skipped with a warning; a feed with zero parseable
// events yields an empty list, not an error.
func Parse(sourceID string, body []byte) ([]model.Event, error) {
	if len(body) == 0 {
		return nil, errors.New("empty jCal body")
	}

	if name, err := jsonparser.GetString(body, "[0]"); err != nil || name != "vcalendar" {
		return nil, errors.New("not a jCal vcalendar document")
	}

	events := make([]model.Event, 0)

	_, err := jsonparser.ArrayEach(body, func(comp []byte, _ jsonparser.ValueType, _ int, _ error) {
		compName, err := jsonparser.GetString(comp, "[0]")
		if err != nil || compName != "vevent" {
			return
		}

		ev, perr := parseVEvent(comp)
		if perr != nil {
			appLog.Warn("jcal vevent skipped", "id", sourceID, "err", perr)
			return
		}
		events = append(events, ev)
	}, "[2]")
	if err != nil {
		appLog.Warn("jcal component array missing", "id", sourceID, "err", err)
		return []model.Event{}, nil
	}

	appLog.Info("jcal parse completed", "id", sourceID, "event_count", len(events))
	return events, nil
}

func parseVEvent(comp []byte) (model.Event, error) {
	var out model.Event
	var dtstart string

	_, err := jsonparser.ArrayEach(comp, func(prop []byte, _ jsonparser.ValueType, _ int, _ error) {
		name, err := jsonparser.GetString(prop, "[0]")
		if err != nil {
			return
		}

		switch name {
		case "uid":
			out.UID, _ = jsonparser.GetString(prop, "[3]")
		case "summary":
			out.Summary, _ = jsonparser.GetString(prop, "[3]")
		case "dtstart":
			dtstart, _ = jsonparser.GetString(prop, "[3]")
			if vtype, err := jsonparser.GetString(prop, "[2]"); err == nil && vtype == "date" {
				out.AllDay = true
			}
		case "rrule":
			if recur, _, _, err := jsonparser.Get(prop, "[3]"); err == nil {
				out.RawRRule = recurToString(recur)
			}
		case "exdate":
			// exdate carries one or more values from index 3 onward.
			vals := exdateValues(prop)
			for _, v := range vals {
				if d := model.NormalizeDate(v); d != "" {
					if t, err := time.Parse("2006-01-02", d); err == nil {
						out.ExDates = append(out.ExDates, t)
					}
				}
			}
		}
	}, "[1]")
	if err != nil {
		return out, errors.New("vevent has no property array")
	}

	date := model.NormalizeDate(dtstart)
	if date == "" {
		return out, errors.New("vevent dtstart missing or unparseable")
	}
	start, err := time.Parse("2006-01-02", date)
	if err != nil {
		return out, err
	}
	out.Start = start

	// Holiday feeds publish date-valued events; treat a bare date as
	// all-day even without an explicit type marker.
	if !strings.Contains(dtstart, "T") {
		out.AllDay = true
	}
	return out, nil
}

// recurToString converts a jCal recur object ({"freq":"YEARLY",...}) back
// into RRULE text ("FREQ=YEARLY;...") so expansion shares one code path
// with the ICS source.
func recurToString(recur []byte) string {
	parts := make([]string, 0, 4)

	_ = jsonparser.ObjectEach(recur, func(key, value []byte, vt jsonparser.ValueType, _ int) error {
		var val string
		switch vt {
		case jsonparser.Array:
			elems := make([]string, 0, 2)
			_, _ = jsonparser.ArrayEach(value, func(el []byte, _ jsonparser.ValueType, _ int, _ error) {
				elems = append(elems, string(el))
			})
			val = strings.Join(elems, ",")
		default:
			val = string(value)
		}
		if val == "" {
			return nil
		}
		parts = append(parts, strings.ToUpper(string(key))+"="+strings.ToUpper(val))
		return nil
	})

	return strings.Join(parts, ";")
}

// exdateValues collects the value entries of an exdate property, which
// start at index 3 and may repeat.
func exdateValues(prop []byte) []string {
	vals := make([]string, 0, 1)
	for i := 3; ; i++ {
		v, err := jsonparser.GetString(prop, "["+strconv.Itoa(i)+"]")
		if err != nil {
			break
		}
		vals = append(vals, v)
	}
	return vals
}
