package provider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/johnhika/dictate/internal/language"
)

// Whisper transcribes through the OpenAI audio API. Unlike the other
// providers it takes ISO 639-1 codes, so the locale tag is reduced to its
// base language.
type Whisper struct {
	baseURL string // test override for the OpenAI API base
}

func NewWhisper() *Whisper {
	return &Whisper{}
}

func (w *Whisper) Name() string        { return "whisper" }
func (w *Whisper) DisplayName() string { return "OpenAI Whisper" }
func (w *Whisper) RequiresKey() bool   { return true }

func (w *Whisper) Recognize(ctx context.Context, req Request) (Result, error) {
	if req.APIKey == "" {
		return Result{}, fmt.Errorf("%s: %w", w.Name(), ErrNotConfigured)
	}

	cfg := openai.DefaultConfig(req.APIKey)
	if w.baseURL != "" {
		cfg.BaseURL = w.baseURL
	}
	client := openai.NewClientWithConfig(cfg)

	resp, err := client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		FilePath: "audio.wav",
		Reader:   bytes.NewReader(req.Audio),
		Language: language.Base(req.Language),
	})
	if err != nil {
		return Result{}, w.classify(err)
	}

	if strings.TrimSpace(resp.Text) == "" {
		return Result{}, ErrUnintelligible
	}
	return Result{Text: resp.Text}, nil
}

func (w *Whisper) classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		kind := KindRemote
		switch apiErr.HTTPStatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			kind = KindAuth
		case http.StatusTooManyRequests:
			kind = KindQuota
		}
		return &RequestError{Provider: w.Name(), StatusCode: apiErr.HTTPStatusCode, Kind: kind, Err: err}
	}
	return transportError(w.Name(), err)
}
