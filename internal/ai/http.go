package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxErrorBody caps how much of an unparseable error body is echoed.
const maxErrorBody = 300

// postJSON posts body and returns the response bytes of a 2xx reply. Any
// other outcome is a *ProviderError; errMessage extracts the provider's
// message from an error body.
func postJSON(
	ctx context.Context,
	client *http.Client,
	provider, url string,
	headers map[string]string,
	body any,
	errMessage func([]byte) string,
) ([]byte, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		msg := "network error"
		if errors.Is(err, context.DeadlineExceeded) {
			msg = "request timed out"
		}
		return nil, &ProviderError{Provider: provider, Message: msg, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: provider, StatusCode: resp.StatusCode, Message: "reading response", Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := errMessage(respBody)
		if msg == "" {
			msg = strings.TrimSpace(string(respBody))
			if len(msg) > maxErrorBody {
				msg = msg[:maxErrorBody] + "..."
			}
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return nil, &ProviderError{Provider: provider, StatusCode: resp.StatusCode, Message: msg}
	}

	return respBody, nil
}
