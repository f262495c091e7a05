// Package scrape extracts holiday rows from the government HTML listing
// pages. The selector logic is deliberately loose: pages differ between
// languages and years, so rather than pinning cell positions we scan each
// table row for the first date-like cell and take the first non-date,
// non-weekday cell as the holiday name.
package scrape

import (
	"bytes"
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"

	appLog "hkholiday/internal/log"
	"hkholiday/internal/model"
)

// ParseHolidayTable extracts {date, name} rows from an HTML listing page
// for one language. yearHint resolves day-month dates without a year.
// Rows whose date cell cannot be normalized are dropped.
func ParseHolidayTable(sourceID string, body []byte, lang model.Lang, yearHint int) ([]model.Holiday, error) {
	rows, err := extractRows(body, yearHint)
	if err != nil {
		return nil, err
	}

	out := make([]model.Holiday, 0, len(rows))
	for _, r := range rows {
		h := model.Holiday{Date: r.date, Source: sourceID}
		switch lang {
		case model.LangZH:
			h.NameZH = r.name
		default:
			h.NameEN = r.name
		}
		out = append(out, h)
	}

	appLog.Info("html parse completed", "id", sourceID, "lang", string(lang), "row_count", len(out))
	return out, nil
}

// ParseStatutory extracts the statutory holiday set from the Labour
// Department page. Same row shape as the general listing; every record is
// flagged statutory.
func ParseStatutory(sourceID string, body []byte, yearHint int) ([]model.Holiday, error) {
	rows, err := extractRows(body, yearHint)
	if err != nil {
		return nil, err
	}

	out := make([]model.Holiday, 0, len(rows))
	for _, r := range rows {
		out = append(out, model.Holiday{
			Date:      r.date,
			NameEN:    r.name,
			Statutory: true,
			Source:    sourceID,
		})
	}

	appLog.Info("statutory parse completed", "id", sourceID, "row_count", len(out))
	return out, nil
}

type row struct {
	date string
	name string
}

func extractRows(body []byte, yearHint int) ([]row, error) {
	if len(body) == 0 {
		return nil, errors.New("empty HTML body")
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	rows := make([]row, 0)

	doc.Find("table tr").Each(func(_ int, tr *goquery.Selection) {
		var date, name string

		tr.Find("td, th").Each(func(_ int, cell *goquery.Selection) {
			text := cleanCell(cell.Text())
			if text == "" {
				return
			}
			if date == "" {
				if d := ParseLooseDate(text, yearHint); d != "" {
					date = d
					return
				}
			}
			if name == "" && !isWeekday(text) && ParseLooseDate(text, yearHint) == "" {
				name = text
			}
		})

		// Header rows and prose rows produce no date and are skipped.
		if date == "" || name == "" {
			return
		}
		rows = append(rows, row{date: date, name: name})
	})

	return rows, nil
}

// cleanCell collapses the whitespace soup HTML cells tend to contain.
func cleanCell(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}
