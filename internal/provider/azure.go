package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const azureDefaultRegion = "westus"

// Azure calls the Cognitive Services short-audio REST endpoint. The stored
// key may be "region:secret"; a bare secret uses the default region.
type Azure struct {
	client  *http.Client
	baseURL string // test override; empty means derive from region
}

func NewAzure(client *http.Client) *Azure {
	return &Azure{client: client}
}

func (a *Azure) Name() string        { return "azure" }
func (a *Azure) DisplayName() string { return "Microsoft Azure Speech" }
func (a *Azure) RequiresKey() bool   { return true }

// msSpeechResponse is shared with the legacy Bing endpoint, which predates
// Azure Cognitive Services but answers in the same shape.
type msSpeechResponse struct {
	RecognitionStatus string `json:"RecognitionStatus"`
	DisplayText       string `json:"DisplayText"`
}

func splitAzureKey(key string) (region, secret string) {
	if idx := strings.Index(key, ":"); idx > 0 {
		return key[:idx], key[idx+1:]
	}
	return azureDefaultRegion, key
}

func (a *Azure) Recognize(ctx context.Context, req Request) (Result, error) {
	if req.APIKey == "" {
		return Result{}, fmt.Errorf("%s: %w", a.Name(), ErrNotConfigured)
	}

	region, secret := splitAzureKey(req.APIKey)
	endpoint := a.baseURL
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.stt.speech.microsoft.com/speech/recognition/conversation/cognitiveservices/v1", region)
	}

	query := url.Values{}
	query.Set("language", req.Language)
	query.Set("format", "simple")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"?"+query.Encode(), bytes.NewReader(req.Audio))
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Ocp-Apim-Subscription-Key", secret)
	httpReq.Header.Set("Content-Type", fmt.Sprintf("audio/wav; codecs=audio/pcm; samplerate=%d", req.Info.SampleRate))
	httpReq.Header.Set("Accept", "application/json")

	body, err := send(a.client, a.Name(), httpReq)
	if err != nil {
		return Result{}, err
	}

	return parseMicrosoftResponse(a.Name(), body)
}

func parseMicrosoftResponse(providerName string, body []byte) (Result, error) {
	var resp msSpeechResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return Result{}, fmt.Errorf("parse response: %w", err)
	}

	switch resp.RecognitionStatus {
	case "Success":
		if strings.TrimSpace(resp.DisplayText) == "" {
			return Result{}, ErrUnintelligible
		}
		return Result{Text: resp.DisplayText}, nil
	case "NoMatch", "InitialSilenceTimeout":
		return Result{}, ErrUnintelligible
	default:
		return Result{}, &RequestError{
			Provider: providerName,
			Kind:     KindRemote,
			Err:      fmt.Errorf("recognition status %q", resp.RecognitionStatus),
		}
	}
}
