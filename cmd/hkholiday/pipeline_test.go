package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"hkholiday/internal/config"
	"hkholiday/internal/model"
)

// jcalFeed builds a minimal one-event jCal payload for the given year.
func jcalFeed(year int, summary string) string {
	return fmt.Sprintf(`["vcalendar", [], [
      ["vevent",
        [
          ["uid", {}, "text", "nyd@example"],
          ["dtstart", {}, "date", "%d-01-01"],
          ["summary", {}, "text", %q]
        ],
        []
      ]
    ]]`, year, summary)
}

func testConfig(t *testing.T, srvURL string) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Timezone:     "Asia/Hong_Kong",
		HorizonYears: 3,
		OutputDir:    filepath.Join(t.TempDir(), "out"),
		CacheDir:     filepath.Join(t.TempDir(), "cache"),
		Retry:        config.RetryConfig{Count: 2, BackoffMS: 1},
		Sources: []config.SourceConfig{
			{ID: "feed-en", Kind: "jcal", URL: srvURL + "/en.json", Lang: "en"},
			{ID: "feed-tc", Kind: "jcal", URL: srvURL + "/tc.json", Lang: "zh"},
			{ID: "labour", Kind: "statutory", URL: srvURL + "/statutory.htm", Lang: "en"},
		},
	}
	cfg.Normalize()
	return cfg
}

func readOutput(t *testing.T, cfg *config.Config) []model.Holiday {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(cfg.OutputDir, "holidays.json"))
	if err != nil {
		t.Fatalf("holidays.json not written: %v", err)
	}
	var out []model.Holiday
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("holidays.json is not valid JSON: %v", err)
	}
	return out
}

func TestRunEndToEnd(t *testing.T) {
	year := time.Now().Year()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/en.json":
			fmt.Fprint(w, jcalFeed(year, "New Year's Day"))
		case "/tc.json":
			fmt.Fprint(w, jcalFeed(year, "元旦"))
		case "/statutory.htm":
			fmt.Fprintf(w, `<table>
              <tr><td>The first day of January</td><td>1 January %d</td></tr>
              <tr><td>Labour Day</td><td>1 May %d</td></tr>
            </table>`, year, year)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)

	if err := run(context.Background(), cfg, true); err != nil {
		t.Fatalf("run: %v", err)
	}

	out := readOutput(t, cfg)
	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d: %+v", len(out), out)
	}

	// Both language feeds merged into one record for 1 January.
	nyd := out[0]
	if nyd.Date != fmt.Sprintf("%d-01-01", year) {
		t.Errorf("unexpected first date: %q", nyd.Date)
	}
	if nyd.NameEN != "New Year's Day" || nyd.NameZH != "元旦" {
		t.Errorf("names not merged: %+v", nyd)
	}
	if !nyd.Statutory {
		t.Error("1 January should be flagged statutory")
	}

	// Statutory-only date appended from the Labour Department source.
	labour := out[1]
	if labour.Date != fmt.Sprintf("%d-05-01", year) {
		t.Errorf("unexpected second date: %q", labour.Date)
	}
	if !labour.Statutory {
		t.Error("appended statutory record should carry the flag")
	}

	// Report and CSV written alongside the JSON.
	for _, name := range []string{"report.md", "holidays.csv"} {
		if _, err := os.Stat(filepath.Join(cfg.OutputDir, name)); err != nil {
			t.Errorf("%s not written: %v", name, err)
		}
	}
}

func TestRunWithoutStatutoryPass(t *testing.T) {
	year := time.Now().Year()
	var statutoryHits int

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/en.json", "/tc.json":
			fmt.Fprint(w, jcalFeed(year, "New Year's Day"))
		case "/statutory.htm":
			statutoryHits++
			fmt.Fprint(w, "<table></table>")
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)

	if err := run(context.Background(), cfg, false); err != nil {
		t.Fatalf("run: %v", err)
	}

	if statutoryHits != 0 {
		t.Error("statutory source fetched despite disabled cross-reference")
	}

	out := readOutput(t, cfg)
	if len(out) != 1 {
		t.Fatalf("expected 1 record, got %d", len(out))
	}
	if out[0].Statutory {
		t.Error("no record should be statutory when the pass is disabled")
	}
}

func TestRunSkipsDeadSources(t *testing.T) {
	year := time.Now().Year()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/en.json" {
			fmt.Fprint(w, jcalFeed(year, "New Year's Day"))
			return
		}
		// Everything else fails hard.
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)

	// Partial output, not an error.
	if err := run(context.Background(), cfg, true); err != nil {
		t.Fatalf("run should tolerate failing sources: %v", err)
	}

	out := readOutput(t, cfg)
	if len(out) != 1 {
		t.Fatalf("expected 1 record from the surviving source, got %d", len(out))
	}
	if out[0].NameEN != "New Year's Day" {
		t.Errorf("unexpected record: %+v", out[0])
	}
}

func TestRunInterruptedKeepsPreviousOutput(t *testing.T) {
	year := time.Now().Year()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, jcalFeed(year, "New Year's Day"))
	}))
	defer srv.Close()

	cfg := testConfig(t, srv.URL)

	// Seed a good output file from a previous run.
	if err := run(context.Background(), cfg, false); err != nil {
		t.Fatalf("seeding run: %v", err)
	}
	before := readOutput(t, cfg)
	if len(before) == 0 {
		t.Fatal("seeding run produced no records")
	}

	// A canceled context makes every source fail; the run must error out
	// rather than overwrite the previous output with an empty list.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := run(ctx, cfg, false); err == nil {
		t.Fatal("interrupted run should fail")
	}

	after := readOutput(t, cfg)
	if len(after) != len(before) {
		t.Errorf("interrupted run rewrote output: %d records, had %d", len(after), len(before))
	}
}

func TestExpandYear(t *testing.T) {
	got := expandYear("https://www.gov.hk/en/about/abouthk/holiday/{year}.htm", 2025)
	want := "https://www.gov.hk/en/about/abouthk/holiday/2025.htm"
	if got != want {
		t.Errorf("expandYear: got %q, want %q", got, want)
	}
	if expandYear("", 2025) != "" {
		t.Error("empty template should stay empty")
	}
}
