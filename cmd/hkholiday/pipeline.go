package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"hkholiday/internal/config"
	"hkholiday/internal/export"
	"hkholiday/internal/fetch"
	"hkholiday/internal/ics"
	"hkholiday/internal/jcal"
	appLog "hkholiday/internal/log"
	"hkholiday/internal/model"
	"hkholiday/internal/scrape"
)

// run executes one full fetch, parse, merge, validate, write cycle.
//
// Per-source failures are warnings: the source (or the single year of a
// per-year source) is skipped and the run produces partial output. Only
// the final write stage can fail the run.
func run(ctx context.Context, cfg *config.Config, statutory bool) error {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		appLog.Warn("failed to load timezone; using local", "timezone", cfg.Timezone, "err", err)
		loc = time.Local
	}

	now := time.Now().In(loc)
	startYear := now.Year() - 1
	endYear := startYear + cfg.HorizonYears - 1

	appLog.Info("year window", "start", startYear, "end", endYear)

	fetcher := fetch.NewFetcher(cfg.CacheDir, cfg.Retry.Count,
		time.Duration(cfg.Retry.BackoffMS)*time.Millisecond)

	lists := make([][]model.Holiday, 0, len(cfg.Sources))
	statutoryRecords := make([]model.Holiday, 0)

	for _, src := range cfg.Sources {
		if src.Kind == "statutory" && !statutory {
			appLog.Info("statutory cross-reference disabled; skipping source", "id", src.ID)
			continue
		}

		records := collectSource(ctx, fetcher, src, startYear, endYear, now.Year())

		if src.Kind == "statutory" {
			statutoryRecords = append(statutoryRecords, records...)
			continue
		}
		lists = append(lists, records)
	}

	// An operator interrupt makes every remaining source look like a
	// fetch failure; never let that masquerade as a legitimately empty
	// run and overwrite the previous good output.
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run interrupted: %w", err)
	}

	merged, stats := model.Merge(lists...)
	if statutory {
		merged = model.MarkStatutory(merged, statutoryRecords)
	}

	summaries := model.Validate(merged, stats)

	appLog.Info("merge completed",
		"record_count", len(merged),
		"year_count", len(summaries),
		"statutory_sources", len(statutoryRecords),
	)

	if err := export.WriteJSON(filepath.Join(cfg.OutputDir, "holidays.json"), merged); err != nil {
		return err
	}
	if err := export.WriteCSV(filepath.Join(cfg.OutputDir, "holidays.csv"), merged); err != nil {
		return err
	}
	if err := export.WriteReport(filepath.Join(cfg.OutputDir, "report.md"), summaries, now); err != nil {
		return err
	}

	appLog.Info("output written", "dir", cfg.OutputDir)
	return nil
}

// collectSource fetches and parses one configured source into holiday
// records. Per-year sources are fetched once per year in the window.
func collectSource(ctx context.Context, fetcher *fetch.Fetcher, src config.SourceConfig, startYear, endYear, currentYear int) []model.Holiday {
	if src.PerYear() {
		out := make([]model.Holiday, 0)
		for year := startYear; year <= endYear; year++ {
			records, err := collectOne(ctx, fetcher, src, year, startYear, endYear)
			if err != nil {
				appLog.Warn("source year skipped", "id", src.ID, "year", year, "err", err)
				continue
			}
			out = append(out, records...)
		}
		return out
	}

	records, err := collectOne(ctx, fetcher, src, currentYear, startYear, endYear)
	if err != nil {
		appLog.Warn("source skipped", "id", src.ID, "err", err)
		return nil
	}
	return records
}

// collectOne fetches one URL and parses it by kind. For calendar feeds,
// recurrence expansion over the [startYear, endYear] window happens here;
// for HTML pages, year resolves day-month dates lacking a year.
func collectOne(ctx context.Context, fetcher *fetch.Fetcher, src config.SourceConfig, year, startYear, endYear int) ([]model.Holiday, error) {
	res, err := fetcher.Fetch(ctx, fetch.Source{
		ID:        src.ID,
		URL:       expandYear(src.URL, year),
		LocalPath: expandYear(src.Local, year),
	})
	if err != nil {
		return nil, err
	}

	lang := model.Lang(src.Lang)

	switch src.Kind {
	case "jcal":
		events, err := jcal.Parse(src.ID, res.Body)
		if err != nil {
			return nil, err
		}
		expanded := ics.Expand(events, startYear, endYear)
		return model.FromEvents(expanded, lang, src.ID), nil

	case "ics":
		events, err := ics.Parse(src.ID, res.Body)
		if err != nil {
			return nil, err
		}
		expanded := ics.Expand(events, startYear, endYear)
		return model.FromEvents(expanded, lang, src.ID), nil

	case "html":
		return scrape.ParseHolidayTable(src.ID, res.Body, lang, year)

	case "statutory":
		return scrape.ParseStatutory(src.ID, res.Body, year)

	default:
		appLog.Warn("unknown source kind", "id", src.ID, "kind", src.Kind)
		return nil, nil
	}
}

func expandYear(s string, year int) string {
	return strings.ReplaceAll(s, "{year}", strconv.Itoa(year))
}
