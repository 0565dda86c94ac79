package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsURL(t *testing.T) {
	t.Parallel()

	require.True(t, IsURL("https://example.com/a.wav"))
	require.True(t, IsURL("http://example.com/a.wav"))
	require.False(t, IsURL("/tmp/a.wav"))
	require.False(t, IsURL("a.wav"))
}

func TestAudioFileDownloads(t *testing.T) {
	t.Parallel()

	payload := []byte("fake audio bytes")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(payload)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "audio.wav")
	path, err := AudioFile(context.Background(), Options{
		URL:         server.URL + "/sample.wav",
		Destination: dest,
		NoProgress:  true,
		HTTPClient:  server.Client(),
	})
	require.NoError(t, err)
	require.Equal(t, dest, path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, payload, data)
}

func TestAudioFileTempDestinationUsesURLExt(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("x"))
	}))
	defer server.Close()

	path, err := AudioFile(context.Background(), Options{
		URL:        server.URL + "/clip.flac",
		NoProgress: true,
		HTTPClient: server.Client(),
	})
	require.NoError(t, err)
	defer os.Remove(path)
	require.Equal(t, ".flac", filepath.Ext(path))
}

func TestAudioFileChecksumMismatch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("payload"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "audio.wav")
	_, err := AudioFile(context.Background(), Options{
		URL:            server.URL,
		Destination:    dest,
		ExpectedSHA256: "deadbeef",
		Retries:        1,
		NoProgress:     true,
		HTTPClient:     server.Client(),
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "checksum mismatch")
	require.NoFileExists(t, dest)
}

func TestAudioFileChecksumMatch(t *testing.T) {
	t.Parallel()

	payload := []byte("payload")
	sum := sha256.Sum256(payload)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(payload)
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), "audio.wav")
	_, err := AudioFile(context.Background(), Options{
		URL:            server.URL,
		Destination:    dest,
		ExpectedSHA256: hex.EncodeToString(sum[:]),
		NoProgress:     true,
		HTTPClient:     server.Client(),
	})
	require.NoError(t, err)
}

func TestAudioFileRetriesThenFails(t *testing.T) {
	t.Parallel()

	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := AudioFile(context.Background(), Options{
		URL:         server.URL,
		Destination: filepath.Join(t.TempDir(), "audio.wav"),
		Retries:     2,
		NoProgress:  true,
		HTTPClient:  server.Client(),
	})
	require.Error(t, err)
	require.Equal(t, 2, attempts)
}
