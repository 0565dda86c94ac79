package provider

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const googleCloudSpeechURL = "https://speech.googleapis.com/v1/speech:recognize"

// GoogleCloud calls the Cloud Speech-to-Text REST API with an API key.
type GoogleCloud struct {
	client  *http.Client
	baseURL string
}

func NewGoogleCloud(client *http.Client) *GoogleCloud {
	return &GoogleCloud{client: client, baseURL: googleCloudSpeechURL}
}

func (g *GoogleCloud) Name() string        { return "google_cloud" }
func (g *GoogleCloud) DisplayName() string { return "Google Cloud Speech" }
func (g *GoogleCloud) RequiresKey() bool   { return true }

type cloudSpeechRequest struct {
	Config struct {
		Encoding        string `json:"encoding"`
		SampleRateHertz int    `json:"sampleRateHertz"`
		LanguageCode    string `json:"languageCode"`
	} `json:"config"`
	Audio struct {
		Content string `json:"content"`
	} `json:"audio"`
}

type cloudSpeechResponse struct {
	Results []struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"results"`
}

func (g *GoogleCloud) Recognize(ctx context.Context, req Request) (Result, error) {
	if req.APIKey == "" {
		return Result{}, fmt.Errorf("%s: %w", g.Name(), ErrNotConfigured)
	}

	var payload cloudSpeechRequest
	payload.Config.Encoding = "LINEAR16"
	payload.Config.SampleRateHertz = req.Info.SampleRate
	payload.Config.LanguageCode = req.Language
	payload.Audio.Content = base64.StdEncoding.EncodeToString(req.Audio)

	body, err := json.Marshal(payload)
	if err != nil {
		return Result{}, fmt.Errorf("encode request: %w", err)
	}

	query := url.Values{}
	query.Set("key", req.APIKey)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"?"+query.Encode(), bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	respBody, err := send(g.client, g.Name(), httpReq)
	if err != nil {
		return Result{}, err
	}

	var resp cloudSpeechResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return Result{}, fmt.Errorf("parse response: %w", err)
	}

	for _, result := range resp.Results {
		if len(result.Alternatives) == 0 {
			continue
		}
		best := result.Alternatives[0]
		if strings.TrimSpace(best.Transcript) == "" {
			continue
		}
		return Result{Text: best.Transcript, Confidence: best.Confidence}, nil
	}

	return Result{}, ErrUnintelligible
}
