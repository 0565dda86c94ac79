package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const (
	witSpeechURL   = "https://api.wit.ai/speech"
	witAPIVersion  = "20230215"
	witContentType = "audio/wav"
)

// Wit calls the Wit.ai /speech endpoint. Wit apps are bound to a single
// language at creation time, so Request.Language is not sent.
type Wit struct {
	client  *http.Client
	baseURL string
}

func NewWit(client *http.Client) *Wit {
	return &Wit{client: client, baseURL: witSpeechURL}
}

func (w *Wit) Name() string        { return "wit" }
func (w *Wit) DisplayName() string { return "Wit.ai" }
func (w *Wit) RequiresKey() bool   { return true }

type witChunk struct {
	Text    string `json:"text"`
	IsFinal bool   `json:"is_final"`
}

func (w *Wit) Recognize(ctx context.Context, req Request) (Result, error) {
	if req.APIKey == "" {
		return Result{}, fmt.Errorf("%s: %w", w.Name(), ErrNotConfigured)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+"?v="+witAPIVersion, bytes.NewReader(req.Audio))
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+req.APIKey)
	httpReq.Header.Set("Content-Type", witContentType)

	body, err := send(w.client, w.Name(), httpReq)
	if err != nil {
		return Result{}, err
	}

	return parseWitResponse(body)
}

// parseWitResponse walks the concatenated JSON objects Wit streams back
// (partial chunks followed by finals) and keeps the last final text.
func parseWitResponse(body []byte) (Result, error) {
	decoder := json.NewDecoder(bytes.NewReader(body))

	var lastText string
	var lastFinal string
	for decoder.More() {
		var chunk witChunk
		if err := decoder.Decode(&chunk); err != nil {
			break
		}
		if strings.TrimSpace(chunk.Text) == "" {
			continue
		}
		lastText = chunk.Text
		if chunk.IsFinal {
			lastFinal = chunk.Text
		}
	}

	text := lastFinal
	if text == "" {
		text = lastText
	}
	if strings.TrimSpace(text) == "" {
		return Result{}, ErrUnintelligible
	}
	return Result{Text: text}, nil
}
