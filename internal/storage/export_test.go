package storage

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func exportRecords() []ExportRecord {
	return []ExportRecord{
		{
			ID:        "id-1",
			URL:       "https://example.com/1",
			OwnerID:   "alice",
			Title:     "First",
			Summary:   "First summary.",
			Category:  "technology",
			Language:  "en",
			Body:      "First body text.",
			CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:        "id-2",
			URL:       "https://example.com/2",
			OwnerID:   "alice",
			Title:     "Second",
			Summary:   "Second summary.",
			Category:  "health",
			Language:  "en",
			Body:      "Second body text.",
			CreatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		},
	}
}

func TestExportJSON(t *testing.T) {
	dir := t.TempDir()
	exp, err := NewExporter("json", dir, testLogger())
	if err != nil {
		t.Fatalf("NewExporter() error = %v", err)
	}
	if err := exp.Export(exportRecords()); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if err := exp.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "articles.json"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	var got []ExportRecord
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if len(got) != 2 || got[0].ID != "id-1" || got[1].Body != "Second body text." {
		t.Errorf("unexpected records: %+v", got)
	}
}

func TestExportJSONL(t *testing.T) {
	dir := t.TempDir()
	exp, err := NewExporter("jsonl", dir, testLogger())
	if err != nil {
		t.Fatalf("NewExporter() error = %v", err)
	}
	// Two batches, as the pipeline pages.
	records := exportRecords()
	if err := exp.Export(records[:1]); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if err := exp.Export(records[1:]); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if err := exp.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "articles.jsonl"))
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	var lines int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec ExportRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			t.Fatalf("line %d not valid JSON: %v", lines+1, err)
		}
		lines++
	}
	if lines != 2 {
		t.Errorf("lines = %d, want 2", lines)
	}
}

func TestExportCSV(t *testing.T) {
	dir := t.TempDir()
	exp, err := NewExporter("csv", dir, testLogger())
	if err != nil {
		t.Fatalf("NewExporter() error = %v", err)
	}
	if err := exp.Export(exportRecords()); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if err := exp.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	f, err := os.Open(filepath.Join(dir, "articles.csv"))
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read CSV: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2", len(rows))
	}
	if rows[0][0] != "id" {
		t.Errorf("header = %v", rows[0])
	}
	if rows[1][0] != "id-1" || rows[2][5] != "health" {
		t.Errorf("unexpected rows: %v", rows[1:])
	}
}

func TestExportUnsupportedFormat(t *testing.T) {
	if _, err := NewExporter("xml", t.TempDir(), testLogger()); err == nil {
		t.Error("NewExporter(xml) error = nil, want error")
	}
}
