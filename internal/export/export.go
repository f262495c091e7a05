package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"

	"hkholiday/internal/model"
)

// WriteJSON serializes the merged holiday list as a pretty-printed JSON
// array. This file is the contract with the calendar page.
func WriteJSON(path string, holidays []model.Holiday) error {
	if holidays == nil {
		holidays = []model.Holiday{}
	}
	data, err := json.MarshalIndent(holidays, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return writeFileAtomic(path, data)
}

// WriteCSV writes the same records as CSV for spreadsheet consumers.
func WriteCSV(path string, holidays []model.Holiday) error {
	var buf bytes.Buffer
	if err := gocsv.Marshal(&holidays, &buf); err != nil {
		return err
	}
	return writeFileAtomic(path, buf.Bytes())
}

// WriteReport renders the per-year validation summary as a Markdown table.
func WriteReport(path string, summaries []model.YearSummary, generatedAt time.Time) error {
	var buf bytes.Buffer

	buf.WriteString("# Holiday data validation report\n\n")
	fmt.Fprintf(&buf, "Generated: %s\n\n", generatedAt.UTC().Format(time.RFC3339))

	buf.WriteString("| Year | Total | Missing EN | Missing ZH | Duplicates removed | Statutory |\n")
	buf.WriteString("|------|-------|------------|------------|--------------------|----------|\n")
	for _, s := range summaries {
		fmt.Fprintf(&buf, "| %d | %d | %d | %d | %d | %d |\n",
			s.Year, s.Total, s.MissingEN, s.MissingZH, s.Duplicates, s.Statutory)
	}

	if len(summaries) == 0 {
		buf.WriteString("\nNo holiday records were produced by this run.\n")
	}

	return writeFileAtomic(path, buf.Bytes())
}

// writeFileAtomic writes via a temp file + rename in the target directory
// so consumers never observe a half-written file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".hkholiday-out-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
