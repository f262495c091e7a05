package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

func TestValidateCounts(t *testing.T) {
	holidays := []Holiday{
		{Date: "2024-12-25", NameEN: "Christmas Day", NameZH: "聖誕節"},
		{Date: "2025-01-01", NameEN: "New Year's Day", NameZH: "元旦", Statutory: true},
		{Date: "2025-01-29", NameEN: "Lunar New Year"},
		{Date: "2025-04-04", NameZH: "清明節", Statutory: true},
	}
	stats := MergeStats{DuplicatesByYear: map[int]int{2025: 2}}

	summaries := Validate(holidays, stats)

	require.Len(t, summaries, 2)

	assert.Equal(t, 2024, summaries[0].Year)
	assert.Equal(t, 1, summaries[0].Total)
	assert.Equal(t, 0, summaries[0].MissingEN)
	assert.Equal(t, 0, summaries[0].Duplicates)

	assert.Equal(t, 2025, summaries[1].Year)
	assert.Equal(t, 3, summaries[1].Total)
	assert.Equal(t, 1, summaries[1].MissingEN)
	assert.Equal(t, 1, summaries[1].MissingZH)
	assert.Equal(t, 2, summaries[1].Duplicates)
	assert.Equal(t, 2, summaries[1].Statutory)
}

func TestValidateEmpty(t *testing.T) {
	summaries := Validate(nil, MergeStats{})
	assert.Empty(t, summaries)
}

func TestValidateYearOnlyInDuplicates(t *testing.T) {
	// A year whose every record was a duplicate still gets a report row.
	stats := MergeStats{DuplicatesByYear: map[int]int{2026: 1}}
	summaries := Validate(nil, stats)

	require.Len(t, summaries, 1)
	assert.Equal(t, 2026, summaries[0].Year)
	assert.Equal(t, 0, summaries[0].Total)
	assert.Equal(t, 1, summaries[0].Duplicates)
}
