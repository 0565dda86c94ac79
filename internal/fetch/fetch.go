// Package fetch downloads remote audio files so `dictate transcribe` can
// take a URL as well as a local path.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

type Options struct {
	URL            string
	Destination    string
	ExpectedSHA256 string
	Retries        int
	NoProgress     bool
	HTTPClient     *http.Client
	Logger         *zap.Logger
}

// IsURL reports whether the argument looks like a remote audio source
// rather than a local path.
func IsURL(arg string) bool {
	return strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://")
}

// AudioFile downloads opts.URL to opts.Destination. When Destination is
// empty a temp file is created; the caller removes it when done. Returns
// the path written.
func AudioFile(ctx context.Context, opts Options) (string, error) {
	if opts.URL == "" {
		return "", errors.New("download URL is required")
	}

	if opts.Retries <= 0 {
		opts.Retries = 3
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 5 * time.Minute}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	if opts.Destination == "" {
		tmp, err := os.CreateTemp("", "dictate-audio-*"+urlExt(opts.URL))
		if err != nil {
			return "", fmt.Errorf("create temp file: %w", err)
		}
		opts.Destination = tmp.Name()
		tmp.Close()
	}

	var lastErr error
	for attempt := 1; attempt <= opts.Retries; attempt++ {
		if attempt > 1 {
			opts.Logger.Warn("retrying download", zap.Int("attempt", attempt), zap.Int("max", opts.Retries), zap.String("url", opts.URL))
			time.Sleep(time.Duration(attempt) * 300 * time.Millisecond)
		}

		lastErr = downloadOnce(ctx, opts)
		if lastErr == nil {
			return opts.Destination, nil
		}
	}

	_ = os.Remove(opts.Destination)
	return "", lastErr
}

func downloadOnce(ctx context.Context, opts Options) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, opts.URL, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := opts.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("download %s: %w", opts.URL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("download %s: unexpected status %s", opts.URL, resp.Status)
	}

	f, err := os.Create(opts.Destination)
	if err != nil {
		return fmt.Errorf("create %s: %w", opts.Destination, err)
	}

	hasher := sha256.New()
	writer := io.MultiWriter(f, hasher)

	var reader io.Reader = resp.Body
	if !opts.NoProgress {
		bar := progressbar.DefaultBytes(resp.ContentLength, "Downloading audio")
		reader = io.TeeReader(resp.Body, bar)
	}

	_, copyErr := io.Copy(writer, reader)
	closeErr := f.Close()
	if copyErr != nil {
		_ = os.Remove(opts.Destination)
		return fmt.Errorf("write %s: %w", opts.Destination, copyErr)
	}
	if closeErr != nil {
		_ = os.Remove(opts.Destination)
		return fmt.Errorf("close %s: %w", opts.Destination, closeErr)
	}

	if expected := strings.ToLower(strings.TrimSpace(opts.ExpectedSHA256)); expected != "" {
		actual := hex.EncodeToString(hasher.Sum(nil))
		if actual != expected {
			_ = os.Remove(opts.Destination)
			return fmt.Errorf("checksum mismatch for %s: got %s, want %s", opts.URL, actual, expected)
		}
	}

	return nil
}

func urlExt(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	ext := path.Ext(parsed.Path)
	if len(ext) > 8 {
		return ""
	}
	return ext
}
