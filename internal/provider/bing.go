package provider

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
)

const bingSpeechURL = "https://speech.platform.bing.com/speech/recognition/interactive/cognitiveservices/v1"

// Bing is the legacy Microsoft speech endpoint, kept for configs that
// still carry a Bing key. New setups should prefer azure.
type Bing struct {
	client  *http.Client
	baseURL string
}

func NewBing(client *http.Client) *Bing {
	return &Bing{client: client, baseURL: bingSpeechURL}
}

func (b *Bing) Name() string        { return "bing" }
func (b *Bing) DisplayName() string { return "Microsoft Bing Voice Recognition" }
func (b *Bing) RequiresKey() bool   { return true }

func (b *Bing) Recognize(ctx context.Context, req Request) (Result, error) {
	if req.APIKey == "" {
		return Result{}, fmt.Errorf("%s: %w", b.Name(), ErrNotConfigured)
	}

	query := url.Values{}
	query.Set("language", req.Language)
	query.Set("locale", req.Language)
	query.Set("format", "simple")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"?"+query.Encode(), bytes.NewReader(req.Audio))
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", req.APIKey)
	httpReq.Header.Set("Content-Type", fmt.Sprintf("audio/wav; codecs=audio/pcm; samplerate=%d", req.Info.SampleRate))
	httpReq.Header.Set("Accept", "application/json")

	body, err := send(b.client, b.Name(), httpReq)
	if err != nil {
		return Result{}, err
	}

	return parseMicrosoftResponse(b.Name(), body)
}
