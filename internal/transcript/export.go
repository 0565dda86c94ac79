package transcript

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Format names an export encoding.
type Format string

const (
	FormatTXT  Format = "txt"
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "txt", "text":
		return FormatTXT, nil
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want txt, json, or csv)", name)
	}
}

// MIMEType returns the content type the web server serves downloads with.
func (f Format) MIMEType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatCSV:
		return "text/csv"
	default:
		return "text/plain; charset=utf-8"
	}
}

const timestampLayout = "2006-01-02 15:04:05"

// Export writes the records to w in the given format. An empty record list
// still produces the format's header so the output is a valid document.
func Export(w io.Writer, format Format, records []Record, generatedAt time.Time) error {
	switch format {
	case FormatTXT:
		return exportTXT(w, records, generatedAt)
	case FormatJSON:
		return exportJSON(w, records, generatedAt)
	case FormatCSV:
		return exportCSV(w, records)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

// WriteFile exports into dir using a timestamped default filename when
// name is empty, and returns the full path written.
func WriteFile(dir, name string, format Format, records []Record, generatedAt time.Time) (string, error) {
	if strings.TrimSpace(name) == "" {
		name = fmt.Sprintf("transcription_%s.%s", generatedAt.Format("20060102_150405"), format)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}

	if err := Export(f, format, records, generatedAt); err != nil {
		f.Close()
		return "", err
	}

	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close export file: %w", err)
	}
	return path, nil
}

func exportTXT(w io.Writer, records []Record, generatedAt time.Time) error {
	var b strings.Builder
	b.WriteString("Speech Recognition Transcription\n")
	b.WriteString("Generated: " + generatedAt.Format(timestampLayout) + "\n")
	b.WriteString(fmt.Sprintf("Transcriptions: %d\n", len(records)))
	b.WriteString(strings.Repeat("=", 50) + "\n\n")

	for _, rec := range records {
		b.WriteString(fmt.Sprintf("[%s] (%s, %s) %s\n", rec.Timestamp.Format(timestampLayout), rec.Provider, rec.Language, rec.Text))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// jsonExport is the on-disk shape of a saved session; it stays stable so
// older exports remain loadable.
type jsonExport struct {
	ExportDate          string   `json:"export_date"`
	TotalTranscriptions int      `json:"total_transcriptions"`
	Transcriptions      []Record `json:"transcriptions"`
}

func exportJSON(w io.Writer, records []Record, generatedAt time.Time) error {
	if records == nil {
		records = []Record{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(jsonExport{
		ExportDate:          generatedAt.Format(time.RFC3339),
		TotalTranscriptions: len(records),
		Transcriptions:      records,
	})
}

// LoadJSON reads records back from a JSON export.
func LoadJSON(r io.Reader) ([]Record, error) {
	var export jsonExport
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return nil, fmt.Errorf("parse transcript export: %w", err)
	}
	return export.Transcriptions, nil
}

func exportCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"id", "timestamp", "api", "language", "source", "text"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, rec := range records {
		row := []string{
			rec.ID,
			rec.Timestamp.Format(timestampLayout),
			rec.Provider,
			rec.Language,
			rec.Source,
			rec.Text,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
