package transcript

import (
	"bytes"
	"encoding/csv"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var exportTime = time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)

func sampleRecords() []Record {
	return []Record{
		{
			ID:        "id-1",
			Timestamp: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
			Text:      "hello world",
			Provider:  "google",
			Language:  "en-US",
			Source:    "live",
		},
		{
			ID:        "id-2",
			Timestamp: time.Date(2024, 3, 1, 10, 5, 0, 0, time.UTC),
			Text:      "text with, comma and \"quotes\"",
			Provider:  "wit",
			Language:  "fr-FR",
			Source:    "upload",
		},
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	for input, want := range map[string]Format{
		"txt":  FormatTXT,
		"TEXT": FormatTXT,
		"json": FormatJSON,
		" csv": FormatCSV,
	} {
		got, err := ParseFormat(input)
		require.NoError(t, err, input)
		require.Equal(t, want, got, input)
	}

	_, err := ParseFormat("xml")
	require.Error(t, err)
}

func TestExportTXT(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, FormatTXT, sampleRecords(), exportTime))

	out := buf.String()
	require.Contains(t, out, "Speech Recognition Transcription")
	require.Contains(t, out, "Generated: 2024-03-01 10:30:00")
	require.Contains(t, out, "Transcriptions: 2")
	require.Contains(t, out, "[2024-03-01 10:00:00] (google, en-US) hello world")
}

func TestExportTXTEmptyLogIsHeaderOnly(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, FormatTXT, nil, exportTime))

	out := buf.String()
	require.Contains(t, out, "Transcriptions: 0")
	// header block then nothing
	require.True(t, strings.HasSuffix(out, strings.Repeat("=", 50)+"\n\n"))
}

func TestExportJSONRoundTrip(t *testing.T) {
	t.Parallel()

	records := sampleRecords()

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, FormatJSON, records, exportTime))
	require.Contains(t, buf.String(), `"export_date": "2024-03-01T10:30:00Z"`)
	require.Contains(t, buf.String(), `"total_transcriptions": 2`)

	loaded, err := LoadJSON(&buf)
	require.NoError(t, err)
	require.Equal(t, records, loaded)
}

func TestExportJSONEmptyLog(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, FormatJSON, nil, exportTime))

	loaded, err := LoadJSON(&buf)
	require.NoError(t, err)
	require.Empty(t, loaded)
}

func TestExportCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, FormatCSV, sampleRecords(), exportTime))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	require.Equal(t, []string{"id", "timestamp", "api", "language", "source", "text"}, rows[0])
	require.Equal(t, "hello world", rows[1][5])
	require.Equal(t, "text with, comma and \"quotes\"", rows[2][5])
}

func TestExportCSVEmptyLogIsHeaderOnly(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, FormatCSV, nil, exportTime))
	require.Equal(t, "id,timestamp,api,language,source,text\n", buf.String())
}

func TestWriteFileDefaultName(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path, err := WriteFile(dir, "", FormatCSV, sampleRecords(), exportTime)
	require.NoError(t, err)
	require.Equal(t, dir+"/transcription_20240301_103000.csv", path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "hello world")
}

func TestWriteFileExplicitName(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path, err := WriteFile(dir, "session.txt", FormatTXT, nil, exportTime)
	require.NoError(t, err)
	require.True(t, strings.HasSuffix(path, "/session.txt"))
}

func TestLoadJSONRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := LoadJSON(strings.NewReader("not json"))
	require.Error(t, err)
}

func TestMIMEType(t *testing.T) {
	t.Parallel()

	require.Equal(t, "application/json", FormatJSON.MIMEType())
	require.Equal(t, "text/csv", FormatCSV.MIMEType())
	require.Contains(t, FormatTXT.MIMEType(), "text/plain")
}
