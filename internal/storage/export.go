package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// ExportRecord is one article flattened for export, body decompressed.
type ExportRecord struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Category  string    `json:"category"`
	Language  string    `json:"language"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Exporter writes article records to a local file.
type Exporter interface {
	Name() string
	Export(records []ExportRecord) error
	Close() error
}

// NewExporter creates the appropriate file exporter by format.
func NewExporter(format, outputDir string, logger *slog.Logger) (Exporter, error) {
	switch format {
	case "json":
		return newJSONExporter(filepath.Join(outputDir, "articles.json"), logger)
	case "jsonl":
		return newJSONLExporter(filepath.Join(outputDir, "articles.jsonl"), logger)
	case "csv":
		return newCSVExporter(filepath.Join(outputDir, "articles.csv"), logger)
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// --- JSON ---

// jsonExporter buffers records and writes a single indented array on Close.
type jsonExporter struct {
	path    string
	records []ExportRecord
	mu      sync.Mutex
	logger  *slog.Logger
}

func newJSONExporter(outputPath string, logger *slog.Logger) (*jsonExporter, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &jsonExporter{
		path:   outputPath,
		logger: logger.With("component", "json_export"),
	}, nil
}

func (e *jsonExporter) Name() string { return "json" }

func (e *jsonExporter) Export(records []ExportRecord) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.records = append(e.records, records...)
	return nil
}

func (e *jsonExporter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	f, err := os.Create(e.path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(e.records); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}

	e.logger.Info("JSON written", "path", e.path, "articles", len(e.records))
	return nil
}

// --- JSONL ---

// jsonlExporter streams one JSON object per line.
type jsonlExporter struct {
	path   string
	file   *os.File
	enc    *json.Encoder
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

func newJSONLExporter(outputPath string, logger *slog.Logger) (*jsonlExporter, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	return &jsonlExporter{
		path:   outputPath,
		file:   f,
		enc:    json.NewEncoder(f),
		logger: logger.With("component", "jsonl_export"),
	}, nil
}

func (e *jsonlExporter) Name() string { return "jsonl" }

func (e *jsonlExporter) Export(records []ExportRecord) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, r := range records {
		if err := e.enc.Encode(r); err != nil {
			return fmt.Errorf("encode JSONL: %w", err)
		}
		e.count++
	}
	return nil
}

func (e *jsonlExporter) Close() error {
	e.logger.Info("JSONL written", "path", e.path, "articles", e.count)
	return e.file.Close()
}

// --- CSV ---

var csvHeaders = []string{"id", "url", "owner_id", "title", "summary", "category", "language", "created_at", "body_chars"}

// csvExporter writes one row per article. The body is summarized to
// its character count to keep the file spreadsheet-friendly.
type csvExporter struct {
	path   string
	file   *os.File
	writer *csv.Writer
	mu     sync.Mutex
	count  int
	logger *slog.Logger
}

func newCSVExporter(outputPath string, logger *slog.Logger) (*csvExporter, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}

	e := &csvExporter{
		path:   outputPath,
		file:   f,
		writer: csv.NewWriter(f),
		logger: logger.With("component", "csv_export"),
	}
	if err := e.writer.Write(csvHeaders); err != nil {
		f.Close()
		return nil, fmt.Errorf("write CSV header: %w", err)
	}
	return e, nil
}

func (e *csvExporter) Name() string { return "csv" }

func (e *csvExporter) Export(records []ExportRecord) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, r := range records {
		row := []string{
			r.ID, r.URL, r.OwnerID, r.Title, r.Summary, r.Category, r.Language,
			r.CreatedAt.Format(time.RFC3339),
			strconv.Itoa(len(r.Body)),
		}
		if err := e.writer.Write(row); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
		e.count++
	}

	e.writer.Flush()
	return e.writer.Error()
}

func (e *csvExporter) Close() error {
	e.writer.Flush()
	e.logger.Info("CSV written", "path", e.path, "articles", e.count)
	return e.file.Close()
}
