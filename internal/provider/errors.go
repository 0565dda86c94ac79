package provider

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotConfigured means the selected provider needs an API key that
	// is not stored in config or the environment.
	ErrNotConfigured = errors.New("api key not configured")

	// ErrUnintelligible means the service answered but recognized no
	// speech in the audio.
	ErrUnintelligible = errors.New("could not understand audio")
)

// ErrorKind buckets request failures the way the session reports them.
type ErrorKind string

const (
	KindAuth    ErrorKind = "auth"
	KindQuota   ErrorKind = "quota"
	KindNetwork ErrorKind = "network"
	KindRemote  ErrorKind = "remote"
)

// RequestError is a failed provider call. The failure is terminal to the
// current operation only; callers report it and the session continues.
type RequestError struct {
	Provider   string
	StatusCode int
	Kind       ErrorKind
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s request failed (%s, status %d): %v", e.Provider, e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s request failed (%s): %v", e.Provider, e.Kind, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// statusError maps an HTTP response status to a classified RequestError.
func statusError(providerName string, statusCode int, body string) *RequestError {
	kind := KindRemote
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		kind = KindAuth
	case statusCode == http.StatusTooManyRequests:
		kind = KindQuota
	}

	msg := http.StatusText(statusCode)
	if body != "" {
		msg = body
	}

	return &RequestError{
		Provider:   providerName,
		StatusCode: statusCode,
		Kind:       kind,
		Err:        errors.New(msg),
	}
}

// transportError wraps a failure that never produced a response.
func transportError(providerName string, err error) *RequestError {
	return &RequestError{Provider: providerName, Kind: KindNetwork, Err: err}
}

// Hint returns a follow-up suggestion for a failed recognition, mirroring
// what the session prints under the error message. Empty when there is
// nothing actionable to add.
func Hint(err error) string {
	if errors.Is(err, ErrNotConfigured) {
		return "Run setup to store an API key for this provider."
	}
	if errors.Is(err, ErrUnintelligible) {
		return "No speech detected. Check mic mute and the selected input device, then try again."
	}

	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		return ""
	}

	switch reqErr.Kind {
	case KindAuth:
		return "Check your API key configuration."
	case KindQuota:
		return "Check your API quota or try a different provider."
	case KindNetwork:
		return "Check your internet connection."
	default:
		return "The service reported an error; try again or switch providers."
	}
}
