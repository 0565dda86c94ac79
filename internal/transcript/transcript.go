// Package transcript holds the in-memory session log: an append-only,
// ordered list of recognized utterances, plus the TXT/JSON/CSV exporters.
package transcript

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Record is one recognized utterance. Records are never mutated after
// Append; exports are the only persistence.
type Record struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Text      string    `json:"text"`
	Provider  string    `json:"api"`
	Language  string    `json:"language"`
	// Source tells where the audio came from: live, file, upload, or url.
	Source string `json:"source"`
}

const (
	SourceLive   = "live"
	SourceFile   = "file"
	SourceUpload = "upload"
	SourceURL    = "url"
)

// Log is the ordered transcription list. The mutex is for the web server,
// which appends from concurrent handlers; the CLI session is sequential.
type Log struct {
	mu      sync.Mutex
	records []Record
	now     func() time.Time
}

func NewLog() *Log {
	return &Log{now: time.Now}
}

// Append stamps the record with an ID and timestamp (when unset) and adds
// it to the end of the log. The stored record is returned.
func (l *Log) Append(rec Record) Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = l.now()
	}

	l.records = append(l.records, rec)
	return rec
}

// Records returns a snapshot copy in append order.
func (l *Log) Records() []Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Record, len(l.records))
	copy(out, l.records)
	return out
}

func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.records)
}

// Clear drops all records and reports how many were removed.
func (l *Log) Clear() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	n := len(l.records)
	l.records = nil
	return n
}

// Replace swaps the log contents, used when reloading a saved JSON export.
func (l *Log) Replace(records []Record) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.records = make([]Record, len(records))
	copy(l.records, records)
}

// Stats summarizes the log for the settings screen and the web UI.
type Stats struct {
	Total       int            `json:"total"`
	Characters  int            `json:"characters"`
	AvgLength   float64        `json:"avg_length"`
	PerProvider map[string]int `json:"per_provider"`
	PerLanguage map[string]int `json:"per_language"`
}

func (l *Log) Stats() Stats {
	records := l.Records()

	stats := Stats{
		Total:       len(records),
		PerProvider: map[string]int{},
		PerLanguage: map[string]int{},
	}

	for _, rec := range records {
		stats.Characters += len(rec.Text)
		stats.PerProvider[rec.Provider]++
		stats.PerLanguage[rec.Language]++
	}

	if stats.Total > 0 {
		stats.AvgLength = float64(stats.Characters) / float64(stats.Total)
	}
	return stats
}

// ProvidersUsed lists distinct provider names in the log, sorted.
func (l *Log) ProvidersUsed() []string {
	stats := l.Stats()
	names := make([]string, 0, len(stats.PerProvider))
	for name := range stats.PerProvider {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
