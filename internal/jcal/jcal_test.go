package jcal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeed = `["vcalendar",
  [
    ["prodid", {}, "text", "-//example//holidays//EN"],
    ["version", {}, "text", "2.0"]
  ],
  [
    ["vevent",
      [
        ["uid", {}, "text", "nyd@example"],
        ["dtstart", {}, "date", "2025-01-01"],
        ["summary", {}, "text", "New Year's Day"]
      ],
      []
    ],
    ["vevent",
      [
        ["uid", {}, "text", "labour@example"],
        ["dtstart", {}, "date", "20250501"],
        ["summary", {}, "text", "Labour Day"],
        ["rrule", {}, "recur", {"freq": "YEARLY", "bymonth": 5, "bymonthday": 1}],
        ["exdate", {}, "date", "2026-05-01"]
      ],
      []
    ]
  ]
]`

func TestParse(t *testing.T) {
	events, err := Parse("test", []byte(sampleFeed))
	require.NoError(t, err)
	require.Len(t, events, 2)

	nyd := events[0]
	assert.Equal(t, "nyd@example", nyd.UID)
	assert.Equal(t, "New Year's Day", nyd.Summary)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), nyd.Start)
	assert.True(t, nyd.AllDay)
	assert.Empty(t, nyd.RawRRule)

	labour := events[1]
	assert.Equal(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), labour.Start)
	assert.Equal(t, "FREQ=YEARLY;BYMONTH=5;BYMONTHDAY=1", labour.RawRRule)
	require.Len(t, labour.ExDates, 1)
	assert.Equal(t, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), labour.ExDates[0])
}

func TestParseZeroEvents(t *testing.T) {
	// A calendar with no components is an empty list, not an error.
	events, err := Parse("test", []byte(`["vcalendar", [], []]`))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestParseSkipsMalformedComponents(t *testing.T) {
	feed := `["vcalendar", [], [
      ["vevent", [["uid", {}, "text", "bad"], ["summary", {}, "text", "No Date"]], []],
      ["vevent", [["dtstart", {}, "date", "not-a-date"], ["summary", {}, "text", "Bad Date"]], []],
      ["vtodo", [["dtstart", {}, "date", "2025-01-01"]], []],
      ["vevent", [["dtstart", {}, "date", "2025-06-01"], ["summary", {}, "text", "Kept"]], []]
    ]]`

	events, err := Parse("test", []byte(feed))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Kept", events[0].Summary)
}

func TestParseRejectsNonCalendar(t *testing.T) {
	_, err := Parse("test", []byte(`{"not": "jcal"}`))
	assert.Error(t, err)

	_, err = Parse("test", nil)
	assert.Error(t, err)
}

func TestRecurToString(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"scalar parts", `{"freq": "YEARLY", "interval": 1}`, "FREQ=YEARLY;INTERVAL=1"},
		{"array part", `{"freq": "YEARLY", "byday": ["MO", "TU"]}`, "FREQ=YEARLY;BYDAY=MO,TU"},
		{"lowercase values upcased", `{"freq": "yearly"}`, "FREQ=YEARLY"},
		{"empty", `{}`, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, recurToString([]byte(tc.in)))
		})
	}
}
