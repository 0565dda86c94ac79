package provider

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/johnhika/dictate/internal/audio"
)

func makePCM16WAV(t *testing.T, samples []int16, sampleRate, channels int) []byte {
	t.Helper()

	bytesPerSample := 2
	dataSize := len(samples) * bytesPerSample
	fmtChunkSize := 16
	riffSize := 4 + (8 + fmtChunkSize) + (8 + dataSize)

	out := make([]byte, 12+8+fmtChunkSize+8+dataSize)
	off := 0

	copy(out[off:], []byte("RIFF"))
	off += 4
	binary.LittleEndian.PutUint32(out[off:], uint32(riffSize))
	off += 4
	copy(out[off:], []byte("WAVE"))
	off += 4

	copy(out[off:], []byte("fmt "))
	off += 4
	binary.LittleEndian.PutUint32(out[off:], uint32(fmtChunkSize))
	off += 4
	binary.LittleEndian.PutUint16(out[off:], 1)
	off += 2
	binary.LittleEndian.PutUint16(out[off:], uint16(channels))
	off += 2
	binary.LittleEndian.PutUint32(out[off:], uint32(sampleRate))
	off += 4
	binary.LittleEndian.PutUint32(out[off:], uint32(sampleRate*channels*bytesPerSample))
	off += 4
	binary.LittleEndian.PutUint16(out[off:], uint16(channels*bytesPerSample))
	off += 2
	binary.LittleEndian.PutUint16(out[off:], 16)
	off += 2

	copy(out[off:], []byte("data"))
	off += 4
	binary.LittleEndian.PutUint32(out[off:], uint32(dataSize))
	off += 4

	for _, s := range samples {
		binary.LittleEndian.PutUint16(out[off:], uint16(s))
		off += 2
	}

	return out
}

func jsonDecode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func testRequest(t *testing.T, apiKey string) Request {
	t.Helper()

	wav := makePCM16WAV(t, make([]int16, 1600), 16000, 1)
	info, err := audio.InspectBytes(wav)
	require.NoError(t, err)

	return Request{
		Audio:    wav,
		Info:     info,
		Language: "en-US",
		APIKey:   apiKey,
	}
}

func TestRegistryOrderAndLookup(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(nil)
	require.Equal(t, []string{"google", "google_cloud", "wit", "azure", "bing", "whisper"}, reg.Names())

	google := reg.Get("google")
	require.NotNil(t, google)
	require.False(t, google.RequiresKey())
	require.Equal(t, "Google Speech Recognition", google.DisplayName())

	require.Nil(t, reg.Get("nonexistent"))
	for _, name := range []string{"google_cloud", "wit", "azure", "bing", "whisper"} {
		require.True(t, reg.Get(name).RequiresKey(), name)
	}
}

func TestGoogleRecognize(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "chromium", r.URL.Query().Get("client"))
		require.Equal(t, "en-US", r.URL.Query().Get("lang"))
		require.Contains(t, r.Header.Get("Content-Type"), "audio/l16")
		require.Contains(t, r.Header.Get("Content-Type"), "rate=16000")

		w.Write([]byte(`{"result":[]}
{"result":[{"alternative":[{"transcript":"hello world","confidence":0.92}],"final":true}],"result_index":0}`))
	}))
	defer server.Close()

	g := NewGoogle(server.Client())
	g.baseURL = server.URL

	result, err := g.Recognize(context.Background(), testRequest(t, ""))
	require.NoError(t, err)
	require.Equal(t, "hello world", result.Text)
	require.InDelta(t, 0.92, result.Confidence, 1e-9)
}

func TestGoogleRecognizeEmptyResultIsUnintelligible(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"result":[]}`))
	}))
	defer server.Close()

	g := NewGoogle(server.Client())
	g.baseURL = server.URL

	_, err := g.Recognize(context.Background(), testRequest(t, ""))
	require.ErrorIs(t, err, ErrUnintelligible)
}

func TestGoogleCloudRecognize(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "secret-key", r.URL.Query().Get("key"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var payload cloudSpeechRequest
		require.NoError(t, jsonDecode(r, &payload))
		require.Equal(t, "LINEAR16", payload.Config.Encoding)
		require.Equal(t, 16000, payload.Config.SampleRateHertz)
		require.Equal(t, "en-US", payload.Config.LanguageCode)
		require.NotEmpty(t, payload.Audio.Content)

		w.Write([]byte(`{"results":[{"alternatives":[{"transcript":"guten tag","confidence":0.87}]}]}`))
	}))
	defer server.Close()

	g := NewGoogleCloud(server.Client())
	g.baseURL = server.URL

	result, err := g.Recognize(context.Background(), testRequest(t, "secret-key"))
	require.NoError(t, err)
	require.Equal(t, "guten tag", result.Text)
}

func TestGoogleCloudRequiresKey(t *testing.T) {
	t.Parallel()

	g := NewGoogleCloud(http.DefaultClient)
	_, err := g.Recognize(context.Background(), testRequest(t, ""))
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestWitRecognizeKeepsFinalChunk(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer wit-token", r.Header.Get("Authorization"))
		require.Equal(t, "audio/wav", r.Header.Get("Content-Type"))

		w.Write([]byte(`{"text":"hel","is_final":false}
{"text":"hello","is_final":false}
{"text":"hello there","is_final":true}`))
	}))
	defer server.Close()

	w := NewWit(server.Client())
	w.baseURL = server.URL

	result, err := w.Recognize(context.Background(), testRequest(t, "wit-token"))
	require.NoError(t, err)
	require.Equal(t, "hello there", result.Text)
}

func TestWitRecognizeEmptyTextIsUnintelligible(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"text":"","is_final":true}`))
	}))
	defer server.Close()

	w := NewWit(server.Client())
	w.baseURL = server.URL

	_, err := w.Recognize(context.Background(), testRequest(t, "wit-token"))
	require.ErrorIs(t, err, ErrUnintelligible)
}

func TestAzureRecognizeSuccess(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "azure-secret", r.Header.Get("Ocp-Apim-Subscription-Key"))
		require.Equal(t, "en-US", r.URL.Query().Get("language"))

		w.Write([]byte(`{"RecognitionStatus":"Success","DisplayText":"Good morning."}`))
	}))
	defer server.Close()

	a := NewAzure(server.Client())
	a.baseURL = server.URL

	result, err := a.Recognize(context.Background(), testRequest(t, "azure-secret"))
	require.NoError(t, err)
	require.Equal(t, "Good morning.", result.Text)
}

func TestAzureRecognizeNoMatch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"RecognitionStatus":"NoMatch"}`))
	}))
	defer server.Close()

	a := NewAzure(server.Client())
	a.baseURL = server.URL

	_, err := a.Recognize(context.Background(), testRequest(t, "azure-secret"))
	require.ErrorIs(t, err, ErrUnintelligible)
}

func TestSplitAzureKey(t *testing.T) {
	t.Parallel()

	region, secret := splitAzureKey("eastus:abc123")
	require.Equal(t, "eastus", region)
	require.Equal(t, "abc123", secret)

	region, secret = splitAzureKey("abc123")
	require.Equal(t, "westus", region)
	require.Equal(t, "abc123", secret)
}

func TestBingRecognize(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "bing-key", r.Header.Get("Ocp-Apim-Subscription-Key"))
		require.Equal(t, "en-US", r.URL.Query().Get("locale"))

		w.Write([]byte(`{"RecognitionStatus":"Success","DisplayText":"Testing."}`))
	}))
	defer server.Close()

	b := NewBing(server.Client())
	b.baseURL = server.URL

	result, err := b.Recognize(context.Background(), testRequest(t, "bing-key"))
	require.NoError(t, err)
	require.Equal(t, "Testing.", result.Text)
}

func TestStatusClassification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		kind   ErrorKind
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, kind: KindAuth},
		{name: "forbidden", status: http.StatusForbidden, kind: KindAuth},
		{name: "too many requests", status: http.StatusTooManyRequests, kind: KindQuota},
		{name: "server error", status: http.StatusInternalServerError, kind: KindRemote},
		{name: "bad request", status: http.StatusBadRequest, kind: KindRemote},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			a := NewAzure(server.Client())
			a.baseURL = server.URL

			_, err := a.Recognize(context.Background(), testRequest(t, "key"))
			var reqErr *RequestError
			require.ErrorAs(t, err, &reqErr)
			require.Equal(t, tt.kind, reqErr.Kind)
			require.Equal(t, tt.status, reqErr.StatusCode)
			require.Equal(t, "azure", reqErr.Provider)
		})
	}
}

func TestTransportErrorIsNetworkKind(t *testing.T) {
	t.Parallel()

	g := NewGoogle(&http.Client{})
	g.baseURL = "http://127.0.0.1:1" // nothing listens here

	_, err := g.Recognize(context.Background(), testRequest(t, ""))
	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	require.Equal(t, KindNetwork, reqErr.Kind)
}

func TestWhisperRequiresKey(t *testing.T) {
	t.Parallel()

	w := NewWhisper()
	_, err := w.Recognize(context.Background(), testRequest(t, ""))
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestWhisperRecognize(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Contains(t, r.URL.Path, "/audio/transcriptions")
		require.Equal(t, "Bearer openai-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"text":"whisper says hi"}`))
	}))
	defer server.Close()

	w := NewWhisper()
	w.baseURL = server.URL + "/v1"

	result, err := w.Recognize(context.Background(), testRequest(t, "openai-key"))
	require.NoError(t, err)
	require.Equal(t, "whisper says hi", result.Text)
}

func TestHint(t *testing.T) {
	t.Parallel()

	require.Contains(t, Hint(ErrUnintelligible), "No speech detected")
	require.Contains(t, Hint(&RequestError{Kind: KindAuth}), "API key")
	require.Contains(t, Hint(&RequestError{Kind: KindQuota}), "quota")
	require.Contains(t, Hint(&RequestError{Kind: KindNetwork}), "internet connection")
	require.Contains(t, Hint(ErrNotConfigured), "setup")
	require.Empty(t, Hint(context.Canceled))
}
