// Package provider wraps the remote speech-to-text services behind one
// interface. Each provider is a thin call-through to a vendor endpoint:
// build the request, ship the audio, map the response or failure.
package provider

import (
	"context"
	"net/http"
	"time"

	"github.com/johnhika/dictate/internal/audio"
)

// Request carries one chunk of audio to a provider. Audio holds the full
// WAV bytes; Info is the already-parsed header so providers do not parse
// it twice.
type Request struct {
	Audio    []byte
	Info     audio.Info
	Language string
	APIKey   string
}

// Result is the recognized text. Confidence is 0 when the provider does
// not report one.
type Result struct {
	Text       string
	Confidence float64
}

// Provider is a named remote speech-to-text service.
type Provider interface {
	// Name is the stable identifier used in config and exports.
	Name() string
	// DisplayName is what menus and the web UI show.
	DisplayName() string
	// RequiresKey reports whether Recognize needs Request.APIKey set.
	RequiresKey() bool
	Recognize(ctx context.Context, req Request) (Result, error)
}

// Registry holds the fixed provider set in menu order.
type Registry struct {
	ordered []Provider
	byName  map[string]Provider
}

// NewRegistry builds the default provider set. A nil client gets a
// timeout-bounded default; tests pass an httptest-backed client.
func NewRegistry(client *http.Client) *Registry {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}

	r := &Registry{byName: map[string]Provider{}}
	r.register(NewGoogle(client))
	r.register(NewGoogleCloud(client))
	r.register(NewWit(client))
	r.register(NewAzure(client))
	r.register(NewBing(client))
	r.register(NewWhisper())
	return r
}

func (r *Registry) register(p Provider) {
	r.ordered = append(r.ordered, p)
	r.byName[p.Name()] = p
}

// Get returns the provider registered under name, or nil.
func (r *Registry) Get(name string) Provider {
	return r.byName[name]
}

// All returns providers in menu order.
func (r *Registry) All() []Provider {
	out := make([]Provider, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Names returns the stable identifiers in menu order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.ordered))
	for _, p := range r.ordered {
		names = append(names, p.Name())
	}
	return names
}
