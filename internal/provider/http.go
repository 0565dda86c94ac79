package provider

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

const maxErrorBodyLen = 200

// send executes the request and returns the response body, converting
// transport failures and non-2xx statuses into classified RequestErrors.
func send(client *http.Client, providerName string, req *http.Request) ([]byte, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, transportError(providerName, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(providerName, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, statusError(providerName, resp.StatusCode, trimErrorBody(body))
	}

	return body, nil
}

func trimErrorBody(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBodyLen {
		s = s[:maxErrorBodyLen] + "..."
	}
	return s
}
